package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobscout-engine/internal/apperr"
	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/metrics"
	"jobscout-engine/internal/oracle"
	"jobscout-engine/internal/store"
)

type Options struct {
	MaxConcurrency int
	TopN           int
	StoreTimeout   time.Duration
}

func (o *Options) applyDefaults() {
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = 3
	}
	if o.TopN <= 0 {
		o.TopN = 20
	}
	if o.StoreTimeout <= 0 {
		o.StoreTimeout = 10 * time.Second
	}
}

// Stages are the four collaborators the orchestrator runs in order.
type Stages struct {
	Locator   Locator
	Renderer  Renderer
	Extractor Extractor
	Ranker    Ranker
}

type Orchestrator struct {
	opts    Options
	stages  Stages
	store   Store // may be nil
	metrics *metrics.Metrics
	log     *zap.Logger

	now   func() time.Time
	newID func() string
	sleep func(ctx context.Context, d time.Duration) error

	writes sync.WaitGroup
}

func New(opts Options, stages Stages, st Store, m *metrics.Metrics, log *zap.Logger) *Orchestrator {
	opts.applyDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		opts:    opts,
		stages:  stages,
		store:   st,
		metrics: m,
		log:     log.With(zap.String("component", "orchestrator")),
		now:     time.Now,
		newID:   uuid.NewString,
		sleep:   sleepCtx,
	}
}

// Flush blocks until pending store writes finish.
func (o *Orchestrator) Flush() {
	o.writes.Wait()
}

// DiscoverForCompany runs locate, render, extract and rank in strict order.
// The first failing step stops the run; the result names it. It never panics.
func (o *Orchestrator) DiscoverForCompany(ctx context.Context, c domain.CompanyTarget, prefs domain.UserPreferences, progress ProgressFunc) (res WorkflowResult) {
	report := o.safeProgress(progress)
	c = withID(c)
	ctx = oracle.WithCallCounter(ctx)
	ex := &domain.WorkflowExecution{
		ID:        o.newID(),
		CompanyID: c.ID,
		Status:    domain.StepRunning,
		StartedAt: o.now(),
	}
	res = WorkflowResult{Company: c}

	o.metrics.Enter()
	defer o.metrics.Exit()

	defer func() {
		if rec := recover(); rec != nil {
			err := &apperr.Error{Kind: apperr.KindInternal, Op: "pipeline", Msg: fmt.Sprintf("panic: %v", rec)}
			o.log.Error("[pipeline] stage panicked", zap.String("company", c.Name), zap.Any("panic", rec))
			i := len(ex.Steps) - 1
			if i < 0 || ex.Steps[i].Status != domain.StepRunning {
				i = ex.Begin("internal", o.now())
			}
			ex.End(i, err, o.now())
			res = o.finish(ctx, res, ex, err, report)
		}
	}()

	if err := o.step(ex, StepValidate, func() error { return validateInput(c, prefs) }); err != nil {
		return o.finish(ctx, res, ex, err, report)
	}
	prefs = prefs.Normalized()

	err := o.step(ex, StepLocate, func() error {
		res.CareerPage = o.stages.Locator.Locate(ctx, c)
		return locateErr(res.CareerPage)
	})
	if err != nil {
		return o.finish(ctx, res, ex, err, report)
	}
	page := res.CareerPage
	o.writeAsync(ctx, "career page", func(wctx context.Context) error {
		return o.store.UpdateCareerPage(wctx, c, page)
	})
	report(fmt.Sprintf("career page found: %s", res.CareerPage.URL), 0.25)

	var content domain.RawPageContent
	err = o.step(ex, StepRender, func() error {
		content = o.stages.Renderer.Render(ctx, res.CareerPage.URL)
		res.BrowserUsed = content.BrowserUsed
		return renderErr(content)
	})
	if err != nil {
		return o.finish(ctx, res, ex, err, report)
	}
	report("page rendered", 0.45)

	var jobs []domain.ExtractedJob
	err = o.step(ex, StepExtract, func() error {
		jobs, res.ExtractionMethod = o.stages.Extractor.Extract(ctx, content, c.Name)
		o.metrics.Extracted(res.ExtractionMethod)
		res.JobsFound = len(jobs)
		if len(jobs) == 0 {
			return apperr.NotFound("extract", "no jobs found after all extraction strategies")
		}
		return nil
	})
	if err != nil {
		return o.finish(ctx, res, ex, err, report)
	}
	report(fmt.Sprintf("extracted %d jobs via %s", len(jobs), res.ExtractionMethod), 0.6)

	_ = o.step(ex, StepRank, func() error {
		res.Jobs = o.stages.Ranker.Rank(ctx, jobs, prefs)
		for i := range res.Jobs {
			res.Jobs[i].CompanyID = c.ID
			res.Jobs[i].CompanyName = c.Name
		}
		return nil
	})
	report(fmt.Sprintf("ranked %d jobs", len(res.Jobs)), 0.9)

	return o.finish(ctx, res, ex, nil, report)
}

func (o *Orchestrator) step(ex *domain.WorkflowExecution, name string, fn func() error) error {
	started := o.now()
	i := ex.Begin(name, started)
	err := fn()
	ended := o.now()
	ex.End(i, err, ended)

	o.metrics.ObserveStage(name, ended.Sub(started).Seconds())
	if err != nil {
		o.metrics.StageFailed(name, string(apperr.KindOf(err)))
	}
	return err
}

func (o *Orchestrator) finish(ctx context.Context, res WorkflowResult, ex *domain.WorkflowExecution, err error, report ProgressFunc) WorkflowResult {
	now := o.now()
	if err == nil {
		ex.Complete(now)
	}
	res.Execution = *ex
	res.Duration = now.Sub(ex.StartedAt)
	res.Success = err == nil && ex.Status == domain.StepCompleted
	res.OracleCalls = oracle.CallCount(ctx)
	if err != nil {
		res.FailedStep = ex.FailedStep()
		res.ErrorKind = apperr.KindOf(err)
		res.Error = err.Error()
	}
	o.metrics.Discovery(string(ex.Status))

	fields := []zap.Field{
		zap.String("company", res.Company.Name),
		zap.String("execution_id", ex.ID),
		zap.Int("jobs", len(res.Jobs)),
		zap.Int("oracle_calls", res.OracleCalls),
		zap.Duration("took", res.Duration),
	}
	if err != nil {
		o.log.Info("[pipeline] company failed", append(fields,
			zap.String("step", res.FailedStep), zap.String("kind", string(res.ErrorKind)), zap.Error(err))...)
	} else {
		o.log.Info("[pipeline] company done", append(fields, zap.String("method", res.ExtractionMethod))...)
	}

	entry := store.DiscoveryLog{
		Execution:        res.Execution,
		CompanyName:      res.Company.Name,
		CareerURL:        res.CareerPage.URL,
		LocateMethod:     res.CareerPage.Method,
		ExtractionMethod: res.ExtractionMethod,
		JobsFound:        res.JobsFound,
		BrowserUsed:      res.BrowserUsed,
		Error:            res.Error,
	}
	if res.Company.ID != "" {
		o.writeAsync(ctx, "discovery log", func(wctx context.Context) error {
			return o.store.StoreDiscoveryLog(wctx, entry)
		})
	}
	if len(res.Jobs) > 0 {
		jobs := append([]domain.RankedJob(nil), res.Jobs...)
		execID := ex.ID
		o.writeAsync(ctx, "ranked jobs", func(wctx context.Context) error {
			_, err := o.store.SaveRankedJobs(wctx, execID, jobs)
			return err
		})
	}

	if err != nil {
		report(fmt.Sprintf("failed at %s: %s", res.FailedStep, res.Error), 1)
	} else {
		report("done", 1)
	}
	return res
}

// writeAsync runs a store write in the background. The write outlives ctx
// cancellation but is bounded by StoreTimeout.
func (o *Orchestrator) writeAsync(ctx context.Context, what string, fn func(context.Context) error) {
	if o.store == nil {
		return
	}
	o.writes.Add(1)
	go func() {
		defer o.writes.Done()
		defer func() {
			if rec := recover(); rec != nil {
				o.log.Error("[pipeline] store write panicked", zap.String("what", what), zap.Any("panic", rec))
			}
		}()
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.StoreTimeout)
		defer cancel()
		if err := fn(wctx); err != nil {
			o.log.Warn("[pipeline] store write failed", zap.String("what", what), zap.Error(err))
		}
	}()
}

// safeProgress wraps a sink so a panicking sink cannot abort the pipeline.
func (o *Orchestrator) safeProgress(p ProgressFunc) ProgressFunc {
	if p == nil {
		return func(string, float64) {}
	}
	return func(msg string, fraction float64) {
		defer func() {
			if rec := recover(); rec != nil {
				o.log.Warn("[pipeline] progress sink panicked", zap.Any("panic", rec))
			}
		}()
		p(msg, clamp01(fraction))
	}
}

func validateInput(c domain.CompanyTarget, p domain.UserPreferences) error {
	if strings.TrimSpace(c.Name) == "" && strings.TrimSpace(c.WebsiteURL) == "" {
		return apperr.Validation("validate", "company needs a name or a website")
	}
	if strings.TrimSpace(c.WebsiteURL) != "" && c.Host() == "" {
		return apperr.Validation("validate", fmt.Sprintf("company website %q is not a valid URL", c.WebsiteURL))
	}
	if p.YearsExperience < 0 {
		return apperr.Validation("validate", "years_experience must be >= 0")
	}
	if p.TopN < 0 {
		return apperr.Validation("validate", "top_n must be >= 0")
	}
	return nil
}

func locateErr(r domain.CareerPageResult) error {
	if r.Found() {
		return nil
	}
	msg := r.Error
	if msg == "" {
		msg = "no career page found"
	}
	if r.Method == domain.MethodError {
		return apperr.Upstream("locate", errors.New(msg))
	}
	return apperr.NotFound("locate", msg)
}

func renderErr(c domain.RawPageContent) error {
	if !c.Empty() {
		return nil
	}
	msg := c.Error
	if msg == "" {
		msg = "page returned no content"
	}
	return apperr.Upstream("render", errors.New(msg))
}

// withID fills a missing company ID from the name slug or website host.
func withID(c domain.CompanyTarget) domain.CompanyTarget {
	if strings.TrimSpace(c.ID) != "" {
		return c
	}
	if s := c.Slug(); s != "" {
		c.ID = s
	} else {
		c.ID = c.Host()
	}
	return c
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
