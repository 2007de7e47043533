package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout-engine/internal/domain"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	d, err := OpenAndMigrate(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestMigrateIsIdempotent(t *testing.T) {
	d := openTemp(t)
	require.NoError(t, Migrate(d.Pool))

	var v int
	require.NoError(t, d.Pool.QueryRow(`PRAGMA user_version;`).Scan(&v))
	assert.Equal(t, schemaVersion, v)
}

func TestCareerPageUpsert(t *testing.T) {
	d := openTemp(t)
	ctx := context.Background()
	c := domain.CompanyTarget{ID: "c1", Name: "Acme", WebsiteURL: "https://acme.com"}

	_, ok, err := d.KnownCareerPage(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	first := domain.CareerPageResult{
		URL:          "https://acme.com/careers",
		Confidence:   0.7,
		Method:       domain.MethodPatternMatching,
		Alternates:   []string{"https://acme.com/jobs"},
		DiscoveredAt: time.Now(),
	}
	require.NoError(t, d.UpdateCareerPage(ctx, c, first))

	second := first
	second.URL = "https://boards.greenhouse.io/acme"
	second.Method = domain.MethodOracle
	second.Alternates = nil
	require.NoError(t, d.UpdateCareerPage(ctx, c, second))

	p, ok, err := d.GetCareerPage(ctx, "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "https://boards.greenhouse.io/acme", p.URL)
	assert.Equal(t, domain.MethodOracle, p.Method)
	assert.Empty(t, p.Alternates)
	assert.Equal(t, "Acme", p.CompanyName)

	u, ok, err := d.KnownCareerPage(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, p.URL, u)
}

func TestUpdateCareerPageIgnoresMisses(t *testing.T) {
	d := openTemp(t)
	ctx := context.Background()
	c := domain.CompanyTarget{ID: "c1", Name: "Acme"}

	require.NoError(t, d.UpdateCareerPage(ctx, c, domain.CareerPageResult{Method: domain.MethodNone}))
	_, ok, err := d.GetCareerPage(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDiscoveryLogsRoundTrip(t *testing.T) {
	d := openTemp(t)
	ctx := context.Background()
	start := time.Now().Add(-time.Minute)

	for i, status := range []domain.StepStatus{domain.StepFailed, domain.StepCompleted} {
		ex := domain.WorkflowExecution{ID: "ex" + string(rune('1'+i)), CompanyID: "c1", StartedAt: start.Add(time.Duration(i) * time.Second)}
		idx := ex.Begin("locate", ex.StartedAt)
		if status == domain.StepFailed {
			ex.End(idx, errors.New("no career page"), ex.StartedAt)
		} else {
			ex.End(idx, nil, ex.StartedAt)
			ex.Complete(ex.StartedAt)
		}
		require.NoError(t, d.StoreDiscoveryLog(ctx, DiscoveryLog{
			Execution:   ex,
			CompanyName: "Acme",
			JobsFound:   i * 3,
			BrowserUsed: i == 1,
		}))
	}

	logs, err := d.GetDiscoveryLogs(ctx, "c1", 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	assert.Equal(t, "ex2", logs[0].Execution.ID)
	assert.Equal(t, domain.StepCompleted, logs[0].Execution.Status)
	assert.True(t, logs[0].BrowserUsed)
	assert.Equal(t, 3, logs[0].JobsFound)

	assert.Equal(t, domain.StepFailed, logs[1].Execution.Status)
	require.Len(t, logs[1].Execution.Steps, 1)
	assert.Equal(t, "no career page", logs[1].Execution.Steps[0].Error)

	n, err := d.CleanupOldLogs(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStoreDiscoveryLogRequiresIDs(t *testing.T) {
	d := openTemp(t)
	err := d.StoreDiscoveryLog(context.Background(), DiscoveryLog{})
	assert.Error(t, err)
}

func TestSaveRankedJobsCountsNewRows(t *testing.T) {
	d := openTemp(t)
	ctx := context.Background()

	jobs := []domain.RankedJob{
		{CompanyID: "c1", CompanyName: "Acme", OverallScore: 80, Recommendation: "good",
			Job: domain.ExtractedJob{Title: "Go Engineer", Location: "Remote", Skills: []string{"Go"}}},
		{CompanyID: "c1", CompanyName: "Acme", OverallScore: 40, Recommendation: "poor",
			Job: domain.ExtractedJob{Title: "Sales Lead", Location: "Berlin"}},
	}
	added, err := d.SaveRankedJobs(ctx, "ex1", jobs)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	jobs[0].OverallScore = 90
	added, err = d.SaveRankedJobs(ctx, "ex2", jobs[:1])
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	got, err := d.ListRankedJobs(ctx, ListJobsOpts{Sort: "score", Window: "all"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Go Engineer", got[0].Title)
	assert.Equal(t, 90.0, got[0].Score)
	assert.Equal(t, []string{"Go"}, got[0].Skills)

	got, err = d.ListRankedJobs(ctx, ListJobsOpts{Sort: "title; DROP TABLE ranked_jobs", Window: "24h"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCompanyDomainCache(t *testing.T) {
	d := openTemp(t)
	ctx := context.Background()

	got, err := d.CompanyDomain(ctx, "Acme  Corp")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, d.UpsertCompanyDomain(ctx, "Acme Corp", "ACME.com"))
	got, err = d.CompanyDomain(ctx, "  acme corp ")
	require.NoError(t, err)
	assert.Equal(t, "acme.com", got)
}

func TestGetCareerPageSurfacesDriverErrors(t *testing.T) {
	pool, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer pool.Close()

	mock.ExpectQuery(`SELECT company_id`).WithArgs("c1").WillReturnError(errors.New("disk I/O error"))

	d := &DB{Pool: pool}
	_, ok, err := d.KnownCareerPage(context.Background(), "c1")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRankedJobsRollsBackOnError(t *testing.T) {
	pool, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer pool.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM ranked_jobs`).WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectExec(`INSERT INTO ranked_jobs`).WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	d := &DB{Pool: pool}
	_, err = d.SaveRankedJobs(context.Background(), "ex1", []domain.RankedJob{
		{CompanyID: "c1", Job: domain.ExtractedJob{Title: "Go Engineer"}},
	})
	assert.ErrorContains(t, err, "upsert ranked job")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRankedJobsSurfacesLookupErrors(t *testing.T) {
	pool, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer pool.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM ranked_jobs`).WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	d := &DB{Pool: pool}
	added, err := d.SaveRankedJobs(context.Background(), "ex1", []domain.RankedJob{
		{CompanyID: "c1", Job: domain.ExtractedJob{Title: "Go Engineer"}},
	})
	assert.ErrorContains(t, err, "lookup ranked job")
	assert.Zero(t, added)
	assert.NoError(t, mock.ExpectationsWereMet())
}
