// Package locate finds a company's job-listing page.
package locate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"jobscout-engine/internal/apperr"
	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/fetch"
	"jobscout-engine/internal/oracle"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// KnownPages is a durable record of previously located pages.
type KnownPages interface {
	KnownCareerPage(ctx context.Context, companyID string) (string, bool, error)
}

// KnownDomains is optionally implemented by a KnownPages to remember the
// results of the company domain search.
type KnownDomains interface {
	CompanyDomain(ctx context.Context, company string) (string, error)
	UpsertCompanyDomain(ctx context.Context, company, domain string) error
}

type Options struct {
	ValidityThreshold     float64
	MaxCandidates         int
	MaxAlternates         int
	ValidationConcurrency int
	TTL                   time.Duration
	Paths                 []string
	ATSHosts              []string
	SearchURL             string // "" disables the domain search for companies without a website
}

func (o *Options) applyDefaults() {
	if o.ValidityThreshold <= 0 {
		o.ValidityThreshold = 0.5
	}
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = 10
	}
	if o.MaxAlternates <= 0 {
		o.MaxAlternates = 5
	}
	if o.ValidationConcurrency <= 0 {
		o.ValidationConcurrency = 10
	}
	if o.TTL <= 0 {
		o.TTL = time.Hour
	}
}

type Locator struct {
	opts   Options
	fetch  fetch.Fetcher
	oracle oracle.Client // may be nil
	cache  Cache
	known  KnownPages // may be nil
	log    *zap.Logger
	now    func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

func New(opts Options, f fetch.Fetcher, o oracle.Client, cache Cache, known KnownPages, log *zap.Logger) *Locator {
	opts.applyDefaults()
	if cache == nil {
		cache = NewMemoryCache()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Locator{
		opts:   opts,
		fetch:  f,
		oracle: o,
		cache:  cache,
		known:  known,
		log:    log.With(zap.String("component", "locator")),
		now:    time.Now,
	}
}

type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

func (l *Locator) CacheStats(ctx context.Context) CacheStats {
	return CacheStats{
		Entries: l.cache.Len(ctx),
		Hits:    l.hits.Load(),
		Misses:  l.misses.Load(),
	}
}

func (l *Locator) ClearCache(ctx context.Context) error {
	return l.cache.Clear(ctx)
}

type validation struct {
	url   string // final URL after redirects
	score float64
	err   error
}

// Locate never returns an error: failures come back as confidence 0 with
// method error or none and a message.
func (l *Locator) Locate(ctx context.Context, c domain.CompanyTarget) domain.CareerPageResult {
	key := CacheKey(c)
	if r, ok := l.cache.Get(ctx, key); ok {
		l.hits.Add(1)
		l.log.Debug("[locate] cache hit", zap.String("company", c.Name))
		return r
	}
	l.misses.Add(1)

	r := l.locate(ctx, c)
	r.CompanyID = c.ID
	// wall clock only, so a result survives a cache round trip unchanged
	r.DiscoveredAt = l.now().UTC().Round(0)
	r.TTL = l.opts.TTL

	if r.Method != domain.MethodError {
		l.cache.Set(ctx, key, r)
	}

	l.log.Info("[locate] done",
		zap.String("company", c.Name),
		zap.String("url", r.URL),
		zap.Float64("confidence", r.Confidence),
		zap.String("method", string(r.Method)),
	)
	return r
}

func (l *Locator) locate(ctx context.Context, c domain.CompanyTarget) domain.CareerPageResult {
	if strings.TrimSpace(c.Name) == "" && strings.TrimSpace(c.WebsiteURL) == "" {
		return failed(domain.MethodError, apperr.Validation("locate", "company has neither name nor website"))
	}

	if c.Host() == "" && l.opts.SearchURL != "" {
		if host := l.lookupDomain(ctx, c.Name); host != "" {
			c.WebsiteURL = "https://" + host
		}
	}

	if r, ok := l.fromKnown(ctx, c); ok {
		return r
	}

	cands := Candidates(c, l.opts.Paths, l.opts.ATSHosts)
	if len(cands) > l.opts.MaxCandidates {
		cands = cands[:l.opts.MaxCandidates]
	}

	vals := l.validateAll(ctx, cands)

	var valid []validation
	var firstErr error
	for _, v := range vals {
		if v.err != nil {
			if firstErr == nil {
				firstErr = v.err
			}
			continue
		}
		if v.score > 0 {
			valid = append(valid, v)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].score > valid[j].score })

	var best validation
	if len(valid) > 0 {
		best = valid[0]
	}

	if best.score < l.opts.ValidityThreshold && l.oracle != nil {
		if sug, reasoning, ok := l.askOracle(ctx, c); ok && sug.score > best.score {
			return domain.CareerPageResult{
				URL:        sug.url,
				Confidence: sug.score,
				Method:     domain.MethodOracle,
				Alternates: alternates(valid, sug.url, l.opts.MaxAlternates),
				Reasoning:  reasoning,
			}
		}
	}

	if best.score > 0 {
		return domain.CareerPageResult{
			URL:        best.url,
			Confidence: best.score,
			Method:     domain.MethodPatternMatching,
			Alternates: alternates(valid, best.url, l.opts.MaxAlternates),
			Reasoning:  fmt.Sprintf("content score %.2f over %d candidates", best.score, len(cands)),
		}
	}

	if firstErr != nil && len(valid) == 0 && allFailed(vals) {
		return failed(domain.MethodError, firstErr)
	}
	return failed(domain.MethodNone, apperr.NotFound("locate", "no career page found"))
}

func (l *Locator) lookupDomain(ctx context.Context, company string) string {
	kd, _ := l.known.(KnownDomains)
	if kd != nil {
		if host, err := kd.CompanyDomain(ctx, company); err == nil && host != "" {
			return host
		}
	}
	host, err := searchDomain(ctx, l.fetch, l.opts.SearchURL, company)
	if err != nil {
		l.log.Debug("[locate] domain search failed", zap.String("company", company), zap.Error(err))
		return ""
	}
	if kd != nil && host != "" {
		if err := kd.UpsertCompanyDomain(ctx, company, host); err != nil {
			l.log.Warn("[locate] remember domain failed", zap.String("company", company), zap.Error(err))
		}
	}
	return host
}

// fromKnown revalidates a page persisted by an earlier run.
func (l *Locator) fromKnown(ctx context.Context, c domain.CompanyTarget) (domain.CareerPageResult, bool) {
	if l.known == nil || c.ID == "" {
		return domain.CareerPageResult{}, false
	}
	u, ok, err := l.known.KnownCareerPage(ctx, c.ID)
	if err != nil || !ok || u == "" {
		return domain.CareerPageResult{}, false
	}
	v := l.validate(ctx, u)
	if v.err != nil || v.score < l.opts.ValidityThreshold {
		return domain.CareerPageResult{}, false
	}
	return domain.CareerPageResult{
		URL:        v.url,
		Confidence: v.score,
		Method:     domain.MethodCached,
		Reasoning:  "previously located page still validates",
	}, true
}

func (l *Locator) validateAll(ctx context.Context, cands []string) []validation {
	out := make([]validation, len(cands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.ValidationConcurrency)
	for i, u := range cands {
		g.Go(func() error {
			out[i] = l.validate(gctx, u)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (l *Locator) validate(ctx context.Context, u string) validation {
	res, err := l.fetch.Get(ctx, u)
	if err != nil {
		return validation{url: u, err: err}
	}
	if !res.OK() {
		return validation{url: u}
	}
	final := res.URL
	if final == "" {
		final = u
	}
	return validation{url: final, score: ContentScore(res.Body)}
}

func (l *Locator) askOracle(ctx context.Context, c domain.CompanyTarget) (validation, string, bool) {
	text, err := l.oracle.Generate(ctx, locatePrompt(c), nil)
	if err != nil {
		l.log.Warn("[locate] oracle failed", zap.String("company", c.Name), zap.Error(err))
		return validation{}, "", false
	}

	f := oracle.Fields(text)
	u := strings.TrimSpace(f["URL"])
	if u == "" || strings.EqualFold(u, "none") || !strings.HasPrefix(strings.ToLower(u), "http") {
		return validation{}, "", false
	}

	v := l.validate(ctx, u)
	if v.err != nil {
		return validation{}, "", false
	}

	reasoning := f["REASONING"]
	if conf, ok := oracle.ParseConfidence(f["CONFIDENCE"]); ok {
		reasoning = fmt.Sprintf("%s (oracle confidence %.2f)", reasoning, conf)
	}
	return v, strings.TrimSpace(reasoning), true
}

func locatePrompt(c domain.CompanyTarget) string {
	return fmt.Sprintf(`Find the official page listing open job positions for this company.

Company: %s
Website: %s
Industry: %s

Answer in exactly this format and nothing else:
URL: <full https URL of the job listing page, or NONE>
CONFIDENCE: <number between 0 and 1>
REASONING: <one sentence>`, c.Name, c.WebsiteURL, c.Industry)
}

func alternates(valid []validation, chosen string, max int) []string {
	var out []string
	for _, v := range valid {
		if len(out) >= max {
			break
		}
		if v.url == chosen {
			continue
		}
		out = append(out, v.url)
	}
	return out
}

func allFailed(vals []validation) bool {
	for _, v := range vals {
		if v.err == nil {
			return false
		}
	}
	return len(vals) > 0
}

func failed(m domain.LocateMethod, err error) domain.CareerPageResult {
	return domain.CareerPageResult{Method: m, Error: err.Error()}
}
