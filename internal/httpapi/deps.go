package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"jobscout-engine/internal/events"
	"jobscout-engine/internal/locate"
	"jobscout-engine/internal/scheduler"
	"jobscout-engine/internal/store"
)

// JobLister is the read side of the job store.
type JobLister interface {
	ListRankedJobs(ctx context.Context, opts store.ListJobsOpts) ([]store.StoredJob, error)
}

// History is the read side of per-company discovery records.
type History interface {
	GetCareerPage(ctx context.Context, companyID string) (store.CareerPage, bool, error)
	GetDiscoveryLogs(ctx context.Context, companyID string, limit int) ([]store.DiscoveryLog, error)
}

// CacheAdmin exposes the locator cache.
type CacheAdmin interface {
	CacheStats(ctx context.Context) locate.CacheStats
	ClearCache(ctx context.Context) error
}

// Deps are optional; routes whose dependency is nil are not mounted.
type Deps struct {
	Jobs    JobLister
	History History
	Cache   CacheAdmin
	Hub     *events.Hub
	Runner  *scheduler.Runner
	Metrics http.Handler
	Log     *zap.Logger
}
