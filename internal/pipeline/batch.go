package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"jobscout-engine/internal/apperr"
	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/rank"
)

const stepWaitSlot = "wait_for_slot"

// DiscoverMany runs one pipeline per company with at most maxConcurrency in
// flight (Options.MaxConcurrency when <= 0). A failing company never stops
// its siblings; the batch always returns whatever succeeded.
func (o *Orchestrator) DiscoverMany(ctx context.Context, companies []domain.CompanyTarget, prefs domain.UserPreferences, maxConcurrency int, progress ProgressFunc) BatchResult {
	start := o.now()
	results := o.runAll(ctx, companies, prefs, maxConcurrency, o.batchProgress(progress, len(companies), 0))
	out := aggregate(results, o.topN(prefs))
	out.Duration = o.now().Sub(start)
	return out
}

// DiscoverInBatches runs DiscoverMany over fixed-size batches, sleeping delay
// between batches. Cancelling ctx stops further batches; companies not yet
// started are reported as failures.
func (o *Orchestrator) DiscoverInBatches(ctx context.Context, companies []domain.CompanyTarget, prefs domain.UserPreferences, batchSize int, delay time.Duration, progress ProgressFunc) BatchResult {
	if batchSize <= 0 {
		batchSize = 3
	}
	start := o.now()
	results := make([]WorkflowResult, 0, len(companies))

	for lo := 0; lo < len(companies); lo += batchSize {
		hi := min(lo+batchSize, len(companies))
		if lo > 0 {
			if err := o.sleep(ctx, delay); err != nil {
				for _, c := range companies[lo:] {
					results = append(results, o.aborted(c, err))
				}
				break
			}
		}
		o.log.Info("[pipeline] batch start", zap.Int("from", lo), zap.Int("to", hi), zap.Int("total", len(companies)))
		sink := o.batchProgress(progress, len(companies), lo)
		results = append(results, o.runAll(ctx, companies[lo:hi], prefs, batchSize, sink)...)
	}

	out := aggregate(results, o.topN(prefs))
	out.Duration = o.now().Sub(start)
	return out
}

func (o *Orchestrator) runAll(ctx context.Context, companies []domain.CompanyTarget, prefs domain.UserPreferences, maxConcurrency int, progress func(c domain.CompanyTarget, msg string)) []WorkflowResult {
	if maxConcurrency <= 0 {
		maxConcurrency = o.opts.MaxConcurrency
	}
	sem := semaphore.NewWeighted(int64(maxConcurrency))
	results := make([]WorkflowResult, len(companies))

	var g errgroup.Group
	for i, c := range companies {
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = o.aborted(c, err)
				progress(c, "skipped: "+err.Error())
				return nil
			}
			defer sem.Release(1)

			results[i] = o.runIsolated(ctx, c, prefs)
			if results[i].Success {
				progress(c, fmt.Sprintf("done, %d jobs", len(results[i].Jobs)))
			} else {
				progress(c, "failed at "+results[i].FailedStep)
			}
			return nil // best-effort: siblings keep running
		})
	}
	_ = g.Wait()
	return results
}

// runIsolated converts anything that escapes DiscoverForCompany into a
// failure record for that company alone.
func (o *Orchestrator) runIsolated(ctx context.Context, c domain.CompanyTarget, prefs domain.UserPreferences) (res WorkflowResult) {
	defer func() {
		if rec := recover(); rec != nil {
			o.log.Error("[pipeline] company task panicked", zap.String("company", c.Name), zap.Any("panic", rec))
			res = o.aborted(c, &apperr.Error{Kind: apperr.KindInternal, Op: "pipeline", Msg: fmt.Sprintf("panic: %v", rec)})
		}
	}()
	return o.DiscoverForCompany(ctx, c, prefs, nil)
}

// aborted builds a failed result for a company whose pipeline never ran.
func (o *Orchestrator) aborted(c domain.CompanyTarget, err error) WorkflowResult {
	c = withID(c)
	now := o.now()
	ex := domain.WorkflowExecution{ID: o.newID(), CompanyID: c.ID, Status: domain.StepRunning, StartedAt: now}
	ex.End(ex.Begin(stepWaitSlot, now), err, now)
	return WorkflowResult{
		Company:    c,
		Execution:  ex,
		FailedStep: ex.FailedStep(),
		ErrorKind:  apperr.KindOf(err),
		Error:      err.Error(),
	}
}

// batchProgress serializes sink calls from concurrent company tasks.
// fraction is completed companies over total.
func (o *Orchestrator) batchProgress(p ProgressFunc, total, offset int) func(c domain.CompanyTarget, msg string) {
	report := o.safeProgress(p)
	var (
		mu   sync.Mutex
		done int
	)
	return func(c domain.CompanyTarget, msg string) {
		mu.Lock()
		defer mu.Unlock()
		done++
		fraction := 1.0
		if total > 0 {
			fraction = float64(offset+done) / float64(total)
		}
		report(fmt.Sprintf("[%s] %s", c.Name, msg), fraction)
	}
}

func (o *Orchestrator) topN(p domain.UserPreferences) int {
	if p.TopN > 0 {
		return p.TopN
	}
	return o.opts.TopN
}

// aggregate merges every company's jobs, sorts them globally and keeps topN.
func aggregate(results []WorkflowResult, topN int) BatchResult {
	out := BatchResult{
		Companies: make([]CompanySummary, 0, len(results)),
		Failures:  []Failure{},
	}
	var all []domain.RankedJob
	for _, r := range results {
		out.Companies = append(out.Companies, summarize(r))
		all = append(all, r.Jobs...)
		if !r.Success {
			out.Failures = append(out.Failures, Failure{
				CompanyID:   r.Company.ID,
				CompanyName: r.Company.Name,
				Step:        r.FailedStep,
				Kind:        r.ErrorKind,
				Error:       r.Error,
			})
		}
	}
	rank.SortRanked(all)
	out.TotalJobs = len(all)
	if topN > 0 && len(all) > topN {
		all = all[:topN]
	}
	if all == nil {
		all = []domain.RankedJob{}
	}
	out.TopMatches = all
	return out
}
