// Package rank scores extracted jobs against a candidate profile.
package rank

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/oracle"

	"go.uber.org/zap"
)

type Options struct {
	// MaxOracleExplanations caps oracle calls per Rank; the rest use the template.
	MaxOracleExplanations int
}

type Ranker struct {
	opts   Options
	oracle oracle.Client // may be nil
	log    *zap.Logger
}

func New(opts Options, o oracle.Client, log *zap.Logger) *Ranker {
	if opts.MaxOracleExplanations < 0 {
		opts.MaxOracleExplanations = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ranker{opts: opts, oracle: o, log: log.With(zap.String("component", "ranker"))}
}

// Score computes one RankedJob without an explanation.
func Score(job domain.ExtractedJob, p domain.UserPreferences, weights map[domain.Dimension]float64) domain.RankedJob {
	scores := make(map[domain.Dimension]float64, len(domain.Dimensions))
	for _, d := range domain.Dimensions {
		scores[d] = scorers[d](job, p)
	}
	overall := Overall(scores, weights)

	w := make(map[domain.Dimension]float64, len(weights))
	for d, v := range weights {
		w[d] = v
	}
	return domain.RankedJob{
		Job:             job,
		DimensionScores: scores,
		Weights:         w,
		OverallScore:    overall,
		Recommendation:  Recommendation(overall),
	}
}

// Rank scores, explains and sorts jobs by overall score, highest first.
func (r *Ranker) Rank(ctx context.Context, jobs []domain.ExtractedJob, p domain.UserPreferences) []domain.RankedJob {
	p = p.Normalized()
	weights := WeightsFor(p)

	out := make([]domain.RankedJob, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, Score(j, p, weights))
	}
	SortRanked(out)

	for i := range out {
		out[i].Explanation = r.explain(ctx, i, out[i])
	}
	return out
}

// SortRanked orders by overall score descending, then title for stability.
func SortRanked(xs []domain.RankedJob) {
	sort.SliceStable(xs, func(i, j int) bool {
		if xs[i].OverallScore != xs[j].OverallScore {
			return xs[i].OverallScore > xs[j].OverallScore
		}
		return xs[i].Job.Title < xs[j].Job.Title
	})
}

func (r *Ranker) explain(ctx context.Context, pos int, rj domain.RankedJob) string {
	if r.oracle == nil || pos >= r.opts.MaxOracleExplanations || ctx.Err() != nil {
		return TemplateExplanation(rj)
	}
	text, err := r.oracle.Generate(ctx, explainPrompt(rj), nil)
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		if err != nil {
			r.log.Debug("[rank] oracle explanation failed", zap.String("title", rj.Job.Title), zap.Error(err))
		}
		return TemplateExplanation(rj)
	}
	return text
}

func explainPrompt(rj domain.RankedJob) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Explain in two sentences why this job is a %q match for the candidate.\n\n", rj.Recommendation)
	fmt.Fprintf(&b, "Job: %s\nLocation: %s\n", rj.Job.Title, rj.Job.Location)
	if len(rj.Job.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(rj.Job.Skills, ", "))
	}
	fmt.Fprintf(&b, "Overall score: %.1f/100\n", rj.OverallScore)
	for _, d := range domain.Dimensions {
		fmt.Fprintf(&b, "- %s: %.0f (weight %.2f)\n", d, rj.DimensionScores[d], rj.Weights[d])
	}
	b.WriteString("\nAnswer with plain text only.")
	return b.String()
}

// TemplateExplanation is the oracle-free explanation: bucket, strongest
// dimensions, weakest dimension.
func TemplateExplanation(rj domain.RankedJob) string {
	dims := append([]domain.Dimension(nil), domain.Dimensions...)
	sort.SliceStable(dims, func(i, j int) bool {
		return rj.DimensionScores[dims[i]] > rj.DimensionScores[dims[j]]
	})
	best, second, worst := dims[0], dims[1], dims[len(dims)-1]

	lead := map[string]string{
		"Highly Recommended": "Excellent fit",
		"Recommended":        "Good fit",
		"Consider":           "Partial fit",
		"Not Recommended":    "Weak fit",
	}[rj.Recommendation]

	return fmt.Sprintf("%s (%.0f/100). Strongest on %s (%.0f) and %s (%.0f); weakest on %s (%.0f).",
		lead, rj.OverallScore,
		best, rj.DimensionScores[best],
		second, rj.DimensionScores[second],
		worst, rj.DimensionScores[worst],
	)
}
