package ats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobscout-engine/internal/apperr"
	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/util"
)

type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	Limiter      *util.HostLimiter
	Logger       *zap.Logger
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
		opts.Timeout = 20 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (compatible; JobScout/1.0; +local)"
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 5 << 20
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		hc:      &http.Client{Timeout: opts.Timeout},
		ua:      opts.UserAgent,
		max:     opts.MaxBodyBytes,
		limiter: opts.Limiter,
		log:     opts.Logger.With(zap.String("component", "ats")),
	}
}

type workdayRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

// Fetch returns the raw JSON job list for b.
func (c *Client) Fetch(ctx context.Context, b Board) (domain.CapturedPayload, error) {
	endpoint := b.APIURL()
	if endpoint == "" {
		return domain.CapturedPayload{}, apperr.Validation("ats", fmt.Sprintf("unsupported provider %q", b.Provider))
	}

	var req *http.Request
	var err error
	if b.Provider == Workday {
		payload, _ := json.Marshal(workdayRequest{AppliedFacets: map[string]any{}, Limit: 20})
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err == nil {
			origin := fmt.Sprintf("%s://%s", b.Scheme, b.Host)
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Origin", origin)
			req.Header.Set("Accept-Language", firstNonEmpty(b.Locale, "en-US"))
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	}
	if err != nil {
		return domain.CapturedPayload{}, apperr.Validation("ats", err.Error())
	}
	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("Accept", "application/json")

	if err := c.limiter.WaitURL(ctx, endpoint); err != nil {
		return domain.CapturedPayload{}, apperr.Upstream("ats", err)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return domain.CapturedPayload{}, apperr.Upstream("ats", fmt.Errorf("%s: %w", b.Provider, err))
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return domain.CapturedPayload{}, apperr.Upstream("ats", fmt.Errorf("%s status %d", b.Provider, res.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, c.max))
	if err != nil {
		return domain.CapturedPayload{}, apperr.Upstream("ats", err)
	}
	if !json.Valid(body) {
		return domain.CapturedPayload{}, apperr.Parse("ats", fmt.Errorf("%s returned non-JSON body", b.Provider))
	}
	return domain.CapturedPayload{
		URL:         endpoint,
		Status:      res.StatusCode,
		ContentType: res.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// Probe fetches the board API when pageURL is on a known ATS. Failures are
// logged and reported as a miss.
func (c *Client) Probe(ctx context.Context, pageURL string) (domain.CapturedPayload, bool) {
	b, ok := Detect(pageURL)
	if !ok {
		return domain.CapturedPayload{}, false
	}
	p, err := c.Fetch(ctx, b)
	if err != nil {
		c.log.Debug("[ats] board api failed",
			zap.String("provider", string(b.Provider)), zap.String("slug", b.Slug), zap.Error(err))
		return domain.CapturedPayload{}, false
	}
	return p, true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
