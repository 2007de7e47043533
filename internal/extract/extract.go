// Package extract turns rendered page content into job records through an
// ordered chain of strategies. The first strategy that yields a job wins.
package extract

import (
	"context"
	"fmt"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/oracle"

	"go.uber.org/zap"
)

const (
	MethodPayload    = "api_interception"
	MethodStructured = "structured_data"
	MethodDOM        = "html_pattern_extraction"
	MethodOracleText = "oracle_text_extraction"
	MethodVision     = "vision_extraction"
	MethodNone       = "none"
)

// Input is everything a strategy may look at.
type Input struct {
	Content domain.RawPageContent
	Company string
}

// Strategy is one independent way to get jobs out of a page. An empty
// result with nil error means "nothing here".
type Strategy interface {
	Name() string
	TryExtract(ctx context.Context, in Input) ([]domain.ExtractedJob, error)
}

type Options struct {
	OracleTextWindow int
	EnableVision     bool
}

type Extractor struct {
	strategies []Strategy
	log        *zap.Logger
}

// New builds an Extractor over an explicit strategy order.
func New(log *zap.Logger, strategies ...Strategy) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{strategies: strategies, log: log.With(zap.String("component", "extractor"))}
}

// Default wires the standard chain. o may be nil, which leaves the two
// oracle strategies inert.
func Default(opts Options, o oracle.Client, log *zap.Logger) *Extractor {
	chain := []Strategy{
		PayloadStrategy{},
		StructuredDataStrategy{},
		DOMPatternStrategy{},
		NewOracleTextStrategy(o, opts.OracleTextWindow),
	}
	if opts.EnableVision {
		chain = append(chain, VisionStrategy{Oracle: o})
	}
	return New(log, chain...)
}

func (e *Extractor) Strategies() []string {
	out := make([]string, 0, len(e.strategies))
	for _, s := range e.strategies {
		out = append(out, s.Name())
	}
	return out
}

// Extract returns deduplicated jobs and the winning strategy name, or
// (nil, "none") when every strategy comes up empty.
func (e *Extractor) Extract(ctx context.Context, content domain.RawPageContent, company string) ([]domain.ExtractedJob, string) {
	in := Input{Content: content, Company: company}

	for _, s := range e.strategies {
		if ctx.Err() != nil {
			break
		}
		jobs, err := e.try(ctx, s, in)
		if err != nil {
			e.log.Debug("[extract] strategy failed",
				zap.String("strategy", s.Name()),
				zap.String("company", company),
				zap.Error(err),
			)
			continue
		}
		jobs = Finalize(jobs, s.Name(), content.SourceURL)
		if len(jobs) == 0 {
			continue
		}
		e.log.Info("[extract] jobs found",
			zap.String("strategy", s.Name()),
			zap.String("company", company),
			zap.Int("jobs", len(jobs)),
		)
		return jobs, s.Name()
	}
	return nil, MethodNone
}

func (e *Extractor) try(ctx context.Context, s Strategy, in Input) (jobs []domain.ExtractedJob, err error) {
	defer func() {
		if p := recover(); p != nil {
			jobs, err = nil, fmt.Errorf("strategy %s panic: %v", s.Name(), p)
		}
	}()
	return s.TryExtract(ctx, in)
}
