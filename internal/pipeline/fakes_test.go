package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/oracle"
	"jobscout-engine/internal/store"
)

type fakeLocator struct {
	pages map[string]domain.CareerPageResult // by company name
	delay time.Duration

	calls    atomic.Int64
	inFlight atomic.Int64
	maxSeen  atomic.Int64
}

func (f *fakeLocator) Locate(ctx context.Context, c domain.CompanyTarget) domain.CareerPageResult {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}
	if p, ok := f.pages[c.Name]; ok {
		return p
	}
	return domain.CareerPageResult{
		CompanyID:  c.ID,
		URL:        "https://" + c.Slug() + ".example/careers",
		Confidence: 0.8,
		Method:     domain.MethodPatternMatching,
	}
}

type fakeRenderer struct {
	panicOn string
	empty   map[string]bool
	calls   atomic.Int64
}

func (f *fakeRenderer) Render(_ context.Context, u string) domain.RawPageContent {
	f.calls.Add(1)
	if f.panicOn != "" && u == f.panicOn {
		panic("browser crashed")
	}
	if f.empty[u] {
		return domain.RawPageContent{SourceURL: u, RequiresBrowser: true, Error: "navigation timeout"}
	}
	return domain.RawPageContent{SourceURL: u, StaticHTML: "<html>jobs</html>", Success: true}
}

// fakeExtractor returns jobs keyed by the career URL. With orc set it asks
// the oracle once per page first.
type fakeExtractor struct {
	jobs map[string][]domain.ExtractedJob
	orc  oracle.Client
}

func (f *fakeExtractor) Extract(ctx context.Context, c domain.RawPageContent, _ string) ([]domain.ExtractedJob, string) {
	if f.orc != nil {
		_, _ = f.orc.Generate(ctx, "list jobs on "+c.SourceURL, nil)
	}
	js := f.jobs[c.SourceURL]
	if len(js) == 0 {
		return nil, "none"
	}
	return js, "html_pattern_extraction"
}

// fakeRanker scores by a title lookup.
type fakeRanker struct {
	scores map[string]float64
}

func (f *fakeRanker) Rank(_ context.Context, jobs []domain.ExtractedJob, _ domain.UserPreferences) []domain.RankedJob {
	out := make([]domain.RankedJob, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, domain.RankedJob{Job: j, OverallScore: f.scores[j.Title]})
	}
	return out
}

type fakeStore struct {
	mu     sync.Mutex
	fail   bool
	pages  []domain.CareerPageResult
	logs   []store.DiscoveryLog
	ranked int
}

func (s *fakeStore) UpdateCareerPage(_ context.Context, _ domain.CompanyTarget, r domain.CareerPageResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("database is locked")
	}
	s.pages = append(s.pages, r)
	return nil
}

func (s *fakeStore) StoreDiscoveryLog(_ context.Context, l store.DiscoveryLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("database is locked")
	}
	s.logs = append(s.logs, l)
	return nil
}

func (s *fakeStore) SaveRankedJobs(_ context.Context, _ string, jobs []domain.RankedJob) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return 0, errors.New("database is locked")
	}
	s.ranked += len(jobs)
	return len(jobs), nil
}
