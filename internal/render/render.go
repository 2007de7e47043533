// Package render turns a URL into RawPageContent: static HTML when that is
// enough, otherwise a full browser render with network interception.
package render

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/fetch"

	"go.uber.org/zap"
)

var popupSelectors = []string{
	"#onetrust-accept-btn-handler",
	"#accept-cookies",
	"button[data-testid='cookie-accept']",
	"[aria-label='Accept cookies']",
	"button:has-text('Accept all')",
	"button:has-text('Accept All Cookies')",
	"button:has-text('Accept')",
	"button:has-text('I agree')",
	"button:has-text('Got it')",
	".cookie-consent button",
	"[aria-label='Close']",
}

var loadMoreSelectors = []string{
	"button:has-text('Load more')",
	"button:has-text('Show more')",
	"button:has-text('View more')",
	"a:has-text('Load more')",
	"[data-testid='load-more']",
	".load-more",
}

const (
	clickTimeout   = 2 * time.Second
	maxPayloads    = 20
	maxPayloadSize = 5 << 20
)

type Options struct {
	NavigationTimeout      time.Duration
	KeywordThreshold       int
	SPAMarkerThreshold     int
	ScrollBudget           int
	StableIterations       int
	ScrollWait             time.Duration
	PayloadSignalThreshold int
	JSHeavyHosts           []string
}

func (o *Options) applyDefaults() {
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = 30 * time.Second
	}
	if o.KeywordThreshold <= 0 {
		o.KeywordThreshold = 3
	}
	if o.SPAMarkerThreshold <= 0 {
		o.SPAMarkerThreshold = 1
	}
	if o.ScrollBudget <= 0 {
		o.ScrollBudget = 5
	}
	if o.StableIterations <= 0 {
		o.StableIterations = 2
	}
	if o.ScrollWait <= 0 {
		o.ScrollWait = 1500 * time.Millisecond
	}
	if o.PayloadSignalThreshold <= 0 {
		o.PayloadSignalThreshold = 3
	}
}

// APIProbe fetches a job-board API payload for pages hosted on a known ATS.
type APIProbe interface {
	Probe(ctx context.Context, pageURL string) (domain.CapturedPayload, bool)
}

type Renderer struct {
	opts    Options
	fetch   fetch.Fetcher
	browser Browser  // nil means static only
	probe   APIProbe // may be nil
	log     *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// New builds a Renderer. browser may be nil; its lifecycle stays with the caller.
func New(opts Options, f fetch.Fetcher, b Browser, log *zap.Logger) *Renderer {
	opts.applyDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		opts:    opts,
		fetch:   f,
		browser: b,
		log:     log.With(zap.String("component", "renderer")),
		sleep:   sleepCtx,
	}
}

// WithProbe makes Render try p before classifying the page.
func (r *Renderer) WithProbe(p APIProbe) *Renderer {
	r.probe = p
	return r
}

// Render never returns an error. A failed browser render comes back empty
// with RequiresBrowser set and Success false.
func (r *Renderer) Render(ctx context.Context, pageURL string) domain.RawPageContent {
	static, staticErr := r.fetch.Get(ctx, pageURL)

	var html string
	if staticErr == nil && static.OK() {
		html = static.Body
	}

	if p, ok := r.probeAPI(ctx, pageURL); ok {
		return domain.RawPageContent{
			SourceURL:        pageURL,
			StaticHTML:       html,
			CapturedPayloads: []domain.CapturedPayload{p},
			Success:          true,
		}
	}

	cls := Classify(pageURL, html, r.opts.JSHeavyHosts, Thresholds{
		Keywords:   r.opts.KeywordThreshold,
		SPAMarkers: r.opts.SPAMarkerThreshold,
	})
	if html == "" {
		cls.NeedsBrowser = true
	}

	r.log.Debug("[render] classified",
		zap.String("url", pageURL),
		zap.String("spa_marker", cls.SPAMarker),
		zap.Int("spa_markers", cls.SPAMarkers),
		zap.Bool("js_heavy_host", cls.JSHeavyHost),
		zap.Int("keyword_hits", cls.KeywordHits),
		zap.Bool("needs_browser", cls.NeedsBrowser),
	)

	if !cls.NeedsBrowser {
		return domain.RawPageContent{SourceURL: pageURL, StaticHTML: html, Success: true}
	}

	if r.browser == nil {
		out := domain.RawPageContent{
			SourceURL:       pageURL,
			StaticHTML:      html,
			RequiresBrowser: true,
			Success:         html != "",
		}
		if html == "" {
			out.Error = staticError(static, staticErr).Error()
		}
		return out
	}

	out, err := r.renderFull(ctx, pageURL)
	if err != nil {
		r.log.Warn("[render] browser render failed", zap.String("url", pageURL), zap.Error(err))
		return domain.RawPageContent{
			SourceURL:       pageURL,
			RequiresBrowser: true,
			Success:         false,
			Error:           err.Error(),
		}
	}
	out.StaticHTML = html
	return out
}

// probeAPI asks the probe for a board payload and keeps it only when it
// carries enough job signal.
func (r *Renderer) probeAPI(ctx context.Context, pageURL string) (domain.CapturedPayload, bool) {
	if r.probe == nil {
		return domain.CapturedPayload{}, false
	}
	p, ok := r.probe.Probe(ctx, pageURL)
	if !ok {
		return domain.CapturedPayload{}, false
	}
	p.Signal = JobSignal(p.Body)
	if p.Signal < r.opts.PayloadSignalThreshold {
		r.log.Debug("[render] board api payload too weak", zap.String("url", p.URL), zap.Int("signal", p.Signal))
		return domain.CapturedPayload{}, false
	}
	r.log.Debug("[render] using board api payload", zap.String("url", p.URL), zap.Int("signal", p.Signal))
	return p, true
}

func (r *Renderer) renderFull(ctx context.Context, pageURL string) (out domain.RawPageContent, err error) {
	page, err := r.browser.NewPage(ctx)
	if err != nil {
		return out, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			r.log.Debug("[render] page close", zap.Error(cerr))
		}
		if p := recover(); p != nil {
			err = fmt.Errorf("render panic: %v", p)
		}
	}()

	var (
		mu      sync.Mutex
		matched []Response
	)
	page.OnResponse(func(resp Response) {
		if !WantsResponse(resp) {
			return
		}
		mu.Lock()
		matched = append(matched, resp)
		mu.Unlock()
	})

	if err := page.Navigate(ctx, pageURL, r.opts.NavigationTimeout); err != nil {
		return out, fmt.Errorf("navigate: %w", err)
	}

	r.dismissPopups(page)
	steps := r.scroll(ctx, page)

	html, err := page.Content()
	if err != nil {
		return out, fmt.Errorf("content: %w", err)
	}
	shot, err := page.Screenshot()
	if err != nil {
		r.log.Debug("[render] screenshot failed", zap.Error(err))
		shot = nil
	}

	mu.Lock()
	responses := append([]Response(nil), matched...)
	mu.Unlock()
	payloads := r.collectPayloads(responses)

	r.log.Info("[render] rendered",
		zap.String("url", pageURL),
		zap.Int("scroll_steps", steps),
		zap.Int("payloads", len(payloads)),
		zap.Int("html_bytes", len(html)),
	)

	return domain.RawPageContent{
		SourceURL:        pageURL,
		RenderedHTML:     html,
		Screenshot:       shot,
		CapturedPayloads: payloads,
		RequiresBrowser:  true,
		BrowserUsed:      true,
		Success:          true,
	}, nil
}

func (r *Renderer) dismissPopups(page Page) {
	for _, sel := range popupSelectors {
		ok, err := page.ClickIfVisible(sel, clickTimeout)
		if err != nil {
			continue
		}
		if ok {
			r.log.Debug("[render] dismissed popup", zap.String("selector", sel))
			return
		}
	}
}

// scroll returns the number of iterations run.
func (r *Renderer) scroll(ctx context.Context, page Page) int {
	prev := pageHeight(page)
	stable := 0
	i := 0
	for i < r.opts.ScrollBudget {
		i++
		if _, err := page.Evaluate("window.scrollTo(0, document.body.scrollHeight)"); err != nil {
			break
		}
		for _, sel := range loadMoreSelectors {
			if ok, _ := page.ClickIfVisible(sel, clickTimeout); ok {
				break
			}
		}
		if err := r.sleep(ctx, r.opts.ScrollWait); err != nil {
			break
		}

		h := pageHeight(page)
		if h == prev {
			stable++
			if stable >= r.opts.StableIterations {
				break
			}
		} else {
			stable = 0
		}
		prev = h
	}
	return i
}

func (r *Renderer) collectPayloads(responses []Response) []domain.CapturedPayload {
	var out []domain.CapturedPayload
	seen := map[string]bool{}
	for _, resp := range responses {
		if len(out) >= maxPayloads {
			break
		}
		if seen[resp.URL] || resp.Body == nil {
			continue
		}
		seen[resp.URL] = true

		body, err := resp.Body()
		if err != nil || len(body) == 0 || len(body) > maxPayloadSize {
			continue
		}
		sig := JobSignal(body)
		if sig < r.opts.PayloadSignalThreshold {
			continue
		}
		out = append(out, domain.CapturedPayload{
			URL:         resp.URL,
			Status:      resp.Status,
			ContentType: resp.ContentType,
			Body:        body,
			Signal:      sig,
		})
	}
	return out
}

func pageHeight(page Page) float64 {
	v, err := page.Evaluate("document.body.scrollHeight")
	if err != nil {
		return -1
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return -1
}

func staticError(res fetch.Response, err error) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("static fetch status %d", res.Status)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
