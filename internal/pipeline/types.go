// Package pipeline sequences locate, render, extract and rank for one company
// and fans the sequence out across many companies.
package pipeline

import (
	"context"
	"time"

	"jobscout-engine/internal/apperr"
	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/store"
)

const (
	StepValidate = "validate_input"
	StepLocate   = "locate_career_page"
	StepRender   = "render_page"
	StepExtract  = "extract_jobs"
	StepRank     = "rank_jobs"
)

// ProgressFunc receives milestone messages with a completion fraction in [0,1].
type ProgressFunc func(message string, fraction float64)

type Locator interface {
	Locate(ctx context.Context, c domain.CompanyTarget) domain.CareerPageResult
}

type Renderer interface {
	Render(ctx context.Context, pageURL string) domain.RawPageContent
}

type Extractor interface {
	Extract(ctx context.Context, content domain.RawPageContent, company string) ([]domain.ExtractedJob, string)
}

type Ranker interface {
	Rank(ctx context.Context, jobs []domain.ExtractedJob, p domain.UserPreferences) []domain.RankedJob
}

// Store receives analytics writes. Failures are logged, never propagated.
type Store interface {
	UpdateCareerPage(ctx context.Context, c domain.CompanyTarget, r domain.CareerPageResult) error
	StoreDiscoveryLog(ctx context.Context, l store.DiscoveryLog) error
	SaveRankedJobs(ctx context.Context, executionID string, jobs []domain.RankedJob) (int, error)
}

// WorkflowResult is the outcome of one company's pipeline.
type WorkflowResult struct {
	Company          domain.CompanyTarget     `json:"company"`
	Execution        domain.WorkflowExecution `json:"execution"`
	CareerPage       domain.CareerPageResult  `json:"career_page"`
	Jobs             []domain.RankedJob       `json:"jobs"`
	JobsFound        int                      `json:"jobs_found"`
	ExtractionMethod string                   `json:"extraction_method"`
	BrowserUsed      bool                     `json:"browser_used"`
	OracleCalls      int                      `json:"oracle_calls"`
	Success          bool                     `json:"success"`
	FailedStep       string                   `json:"failed_step,omitempty"`
	ErrorKind        apperr.Kind              `json:"error_kind,omitempty"`
	Error            string                   `json:"error,omitempty"`
	Duration         time.Duration            `json:"duration"`
}

// CompanySummary is the per-company row of a BatchResult.
type CompanySummary struct {
	CompanyID        string              `json:"company_id"`
	CompanyName      string              `json:"company_name"`
	CareerURL        string              `json:"career_url,omitempty"`
	LocateMethod     domain.LocateMethod `json:"locate_method"`
	JobsFound        int                 `json:"jobs_found"`
	ExtractionMethod string              `json:"extraction_method"`
	BrowserUsed      bool                `json:"browser_used"`
	OracleCalls      int                 `json:"oracle_calls"`
	Success          bool                `json:"success"`
	Duration         time.Duration       `json:"duration"`
}

type Failure struct {
	CompanyID   string      `json:"company_id"`
	CompanyName string      `json:"company_name"`
	Step        string      `json:"step"`
	Kind        apperr.Kind `json:"kind"`
	Error       string      `json:"error"`
}

type BatchResult struct {
	TopMatches []domain.RankedJob `json:"top_matches"`
	TotalJobs  int                `json:"total_jobs"`
	Companies  []CompanySummary   `json:"companies"`
	Failures   []Failure          `json:"failures"`
	Duration   time.Duration      `json:"duration"`
}

// Succeeded counts companies whose pipeline completed.
func (b BatchResult) Succeeded() int {
	n := 0
	for _, c := range b.Companies {
		if c.Success {
			n++
		}
	}
	return n
}

func summarize(r WorkflowResult) CompanySummary {
	return CompanySummary{
		CompanyID:        r.Company.ID,
		CompanyName:      r.Company.Name,
		CareerURL:        r.CareerPage.URL,
		LocateMethod:     r.CareerPage.Method,
		JobsFound:        r.JobsFound,
		ExtractionMethod: r.ExtractionMethod,
		BrowserUsed:      r.BrowserUsed,
		OracleCalls:      r.OracleCalls,
		Success:          r.Success,
		Duration:         r.Duration,
	}
}
