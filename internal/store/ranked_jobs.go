package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobscout-engine/internal/domain"
)

// StoredJob is a ranked job as read back from the jobs table.
type StoredJob struct {
	ID             int64     `json:"id"`
	CompanyID      string    `json:"company_id"`
	Company        string    `json:"company"`
	Title          string    `json:"title"`
	Location       string    `json:"location"`
	WorkMode       string    `json:"work_mode"`
	URL            string    `json:"url"`
	Score          float64   `json:"score"`
	Recommendation string    `json:"recommendation"`
	Skills         []string  `json:"skills"`
	Strategy       string    `json:"source_strategy"`
	SeenAt         time.Time `json:"seen_at"`
}

type ListJobsOpts struct {
	Sort   string // score | date | company | title
	Window string // 24h | 7d | all
	Limit  int
}

// SaveRankedJobs upserts jobs keyed on (company, title, location) and
// reports how many were new.
func (d *DB) SaveRankedJobs(ctx context.Context, executionID string, jobs []domain.RankedJob) (added int, err error) {
	if len(jobs) == 0 {
		return 0, nil
	}
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(tsLayout)
	for _, rj := range jobs {
		j := rj.Job
		if strings.TrimSpace(j.Title) == "" || rj.CompanyID == "" {
			continue
		}
		var exists int
		if err := tx.QueryRowContext(ctx, `
SELECT 1 FROM ranked_jobs WHERE company_id = ? AND title = ? AND location = ? LIMIT 1;`,
			rj.CompanyID, j.Title, j.Location).Scan(&exists); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("lookup ranked job: %w", err)
		}

		skills := j.Skills
		if skills == nil {
			skills = []string{}
		}
		skillsB, _ := json.Marshal(skills)

		if _, err := tx.ExecContext(ctx, `
INSERT INTO ranked_jobs(execution_id, company_id, company_name, title, location, work_mode, url,
  overall_score, recommendation, skills, source_strategy, seen_at)
VALUES(?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(company_id, title, location) DO UPDATE SET
  execution_id = excluded.execution_id,
  work_mode = excluded.work_mode,
  url = excluded.url,
  overall_score = excluded.overall_score,
  recommendation = excluded.recommendation,
  skills = excluded.skills,
  source_strategy = excluded.source_strategy,
  seen_at = excluded.seen_at;`,
			executionID, rj.CompanyID, rj.CompanyName, j.Title, j.Location, j.WorkMode, j.ApplicationURL,
			rj.OverallScore, rj.Recommendation, string(skillsB), j.SourceStrategy, now,
		); err != nil {
			return 0, fmt.Errorf("upsert ranked job: %w", err)
		}
		if exists == 0 {
			added++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

func (d *DB) ListRankedJobs(ctx context.Context, opts ListJobsOpts) ([]StoredJob, error) {
	if opts.Limit <= 0 || opts.Limit > 2000 {
		opts.Limit = 100
	}

	// whitelist sort columns (prevents SQL injection)
	order := map[string]string{
		"score":   "overall_score DESC",
		"date":    "seen_at DESC",
		"company": "company_name ASC",
		"title":   "title ASC",
	}[opts.Sort]
	if order == "" {
		order = "overall_score DESC"
	}

	var cutoff string
	switch opts.Window {
	case "all":
	case "24h":
		cutoff = time.Now().Add(-24 * time.Hour).UTC().Format(tsLayout)
	default:
		cutoff = time.Now().Add(-7 * 24 * time.Hour).UTC().Format(tsLayout)
	}

	query := fmt.Sprintf(`
SELECT id, company_id, company_name, title, location, work_mode, url, overall_score,
  recommendation, skills, source_strategy, seen_at
FROM ranked_jobs
WHERE seen_at >= ?
ORDER BY %s, id ASC
LIMIT ?;
`, order)

	rows, err := d.Pool.QueryContext(ctx, query, cutoff, opts.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredJob
	for rows.Next() {
		var j StoredJob
		var skillsJSON, seen string
		if err := rows.Scan(
			&j.ID,
			&j.CompanyID,
			&j.Company,
			&j.Title,
			&j.Location,
			&j.WorkMode,
			&j.URL,
			&j.Score,
			&j.Recommendation,
			&skillsJSON,
			&j.Strategy,
			&seen,
		); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(skillsJSON), &j.Skills)
		j.SeenAt, _ = time.Parse(tsLayout, seen)
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CleanupOldJobs drops jobs not seen within the retention window.
func (d *DB) CleanupOldJobs(ctx context.Context, olderThan time.Duration) (deleted int64, err error) {
	cutoff := time.Now().Add(-olderThan).UTC().Format(tsLayout)
	res, err := d.Pool.ExecContext(ctx, `DELETE FROM ranked_jobs WHERE seen_at < ?;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup old jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
