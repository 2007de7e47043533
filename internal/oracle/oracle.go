// Package oracle talks to an OpenAI-compatible chat completion endpoint
// (Groq by default). Callers treat every answer as untrusted free text.
package oracle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jobscout-engine/internal/apperr"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client generates text for a prompt. image may be nil; when set it is a PNG
// and the call goes to the vision model.
type Client interface {
	Generate(ctx context.Context, prompt string, image []byte) (string, error)
}

var ErrNoKey = errors.New("oracle api key not configured")

type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	VisionModel string
	Timeout     time.Duration
	ReqPerSec   float64
	Logger      *zap.Logger
}

type chatClient struct {
	endpoint    string
	apiKey      string
	model       string
	visionModel string
	hc          *http.Client
	limiter     *rate.Limiter
	log         *zap.Logger
}

func New(opts Options) (Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrNoKey
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if opts.ReqPerSec > 0 {
		lim = rate.NewLimiter(rate.Limit(opts.ReqPerSec), 1)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &chatClient{
		endpoint:    strings.TrimSuffix(opts.BaseURL, "/") + "/chat/completions",
		apiKey:      opts.APIKey,
		model:       opts.Model,
		visionModel: opts.VisionModel,
		hc:          &http.Client{Timeout: opts.Timeout},
		limiter:     lim,
		log:         log.With(zap.String("component", "oracle")),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *chatClient) Generate(ctx context.Context, prompt string, image []byte) (string, error) {
	const op = "oracle.Generate"

	model := c.model
	msg := chatMessage{Role: "user", Content: prompt}
	if len(image) > 0 {
		if c.visionModel == "" {
			return "", apperr.Validation(op, "no vision model configured")
		}
		model = c.visionModel
		msg.Content = []contentPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &imageURL{
				URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(image),
			}},
		}
	}

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    []chatMessage{msg},
		Temperature: 0.2,
	})
	if err != nil {
		return "", apperr.Parse(op, fmt.Errorf("marshal request: %w", err))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", apperr.Upstream(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", apperr.Upstream(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return "", apperr.Upstream(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Upstream(op, fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperr.Upstream(op, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(raw), 200)))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", apperr.Parse(op, err)
	}
	if out.Error != nil {
		return "", apperr.Upstream(op, errors.New(out.Error.Message))
	}
	if len(out.Choices) == 0 {
		return "", apperr.Parse(op, errors.New("no choices"))
	}

	c.log.Debug("[oracle] generate",
		zap.String("model", model),
		zap.Bool("image", len(image) > 0),
		zap.Duration("took", time.Since(start)),
	)
	return out.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
