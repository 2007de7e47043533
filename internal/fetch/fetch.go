// Package fetch is the static HTTP side of page retrieval: one GET per call,
// rate-limited per host, with a body cap.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jobscout-engine/internal/apperr"
	"jobscout-engine/internal/util"

	"go.uber.org/zap"
)

type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	Limiter      *util.HostLimiter
	Logger       *zap.Logger
}

type Response struct {
	URL         string // final URL after redirects
	Status      int
	ContentType string
	Body        string
}

func (r Response) OK() bool { return r.Status >= 200 && r.Status <= 299 }

// Fetcher is what locator and renderer need from the static side.
type Fetcher interface {
	Get(ctx context.Context, url string) (Response, error)
}

type Client struct {
	hc      *http.Client
	ua      string
	max     int64
	limiter *util.HostLimiter
	log     *zap.Logger
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 5 << 20
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0"
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		hc:      &http.Client{Timeout: opts.Timeout},
		ua:      opts.UserAgent,
		max:     opts.MaxBodyBytes,
		limiter: opts.Limiter,
		log:     log.With(zap.String("component", "fetch")),
	}
}

// Get returns the response for any status code. Only transport failures
// (DNS, timeout, reset) are errors, classified as upstream_unavailable.
func (c *Client) Get(ctx context.Context, raw string) (Response, error) {
	const op = "fetch.Get"

	if err := c.limiter.WaitURL(ctx, raw); err != nil {
		return Response{}, apperr.Upstream(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return Response{}, apperr.Validation(op, fmt.Sprintf("bad url %q", raw))
	}
	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")

	res, err := c.hc.Do(req)
	if err != nil {
		c.log.Debug("[fetch] get failed", zap.String("url", raw), zap.Error(err))
		return Response{}, apperr.Upstream(op, err)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(io.LimitReader(res.Body, c.max))
	if err != nil {
		return Response{}, apperr.Upstream(op, fmt.Errorf("read body: %w", err))
	}

	final := raw
	if res.Request != nil && res.Request.URL != nil {
		final = res.Request.URL.String()
	}

	c.log.Debug("[fetch] get",
		zap.String("url", raw),
		zap.Int("status", res.StatusCode),
		zap.Int("bytes", len(b)),
	)

	return Response{
		URL:         final,
		Status:      res.StatusCode,
		ContentType: strings.ToLower(res.Header.Get("Content-Type")),
		Body:        string(b),
	}, nil
}
