package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"jobscout-engine/internal/domain"
)

// tsLayout sorts lexically, which started_at ordering relies on.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// DiscoveryLog is one finished workflow execution plus its headline numbers.
type DiscoveryLog struct {
	Execution        domain.WorkflowExecution `json:"execution"`
	CompanyName      string                   `json:"company_name"`
	CareerURL        string                   `json:"career_url,omitempty"`
	LocateMethod     domain.LocateMethod      `json:"locate_method"`
	ExtractionMethod string                   `json:"extraction_method"`
	JobsFound        int                      `json:"jobs_found"`
	BrowserUsed      bool                     `json:"browser_used"`
	Error            string                   `json:"error,omitempty"`
}

func (d *DB) StoreDiscoveryLog(ctx context.Context, l DiscoveryLog) error {
	ex := l.Execution
	if ex.ID == "" || ex.CompanyID == "" {
		return fmt.Errorf("store discovery log: execution id and company id required")
	}
	steps := ex.Steps
	if steps == nil {
		steps = []domain.WorkflowStep{}
	}
	stepsB, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("store discovery log: %w", err)
	}
	ended := time.Now()
	if ex.EndedAt != nil {
		ended = *ex.EndedAt
	}
	browser := 0
	if l.BrowserUsed {
		browser = 1
	}

	_, err = d.Pool.ExecContext(ctx, `
INSERT INTO discovery_logs(execution_id, company_id, company_name, status, failed_step, career_url,
  locate_method, extraction_method, jobs_found, browser_used, steps, error, started_at, ended_at)
VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?);`,
		ex.ID, ex.CompanyID, l.CompanyName, string(ex.Status), ex.FailedStep(), l.CareerURL,
		string(l.LocateMethod), l.ExtractionMethod, l.JobsFound, browser, string(stepsB), l.Error,
		ex.StartedAt.UTC().Format(tsLayout), ended.UTC().Format(tsLayout))
	return err
}

// GetDiscoveryLogs returns the newest logs for a company, newest first.
func (d *DB) GetDiscoveryLogs(ctx context.Context, companyID string, limit int) ([]DiscoveryLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := d.Pool.QueryContext(ctx, `
SELECT execution_id, company_id, company_name, status, career_url, locate_method,
  extraction_method, jobs_found, browser_used, steps, error, started_at, ended_at
FROM discovery_logs
WHERE company_id = ?
ORDER BY started_at DESC, id DESC
LIMIT ?;`, companyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DiscoveryLog
	for rows.Next() {
		var (
			l                    DiscoveryLog
			status, method       string
			browser              int
			stepsJSON            string
			startedStr, endedStr string
		)
		if err := rows.Scan(
			&l.Execution.ID,
			&l.Execution.CompanyID,
			&l.CompanyName,
			&status,
			&l.CareerURL,
			&method,
			&l.ExtractionMethod,
			&l.JobsFound,
			&browser,
			&stepsJSON,
			&l.Error,
			&startedStr,
			&endedStr,
		); err != nil {
			return nil, err
		}
		l.Execution.Status = domain.StepStatus(status)
		l.LocateMethod = domain.LocateMethod(method)
		l.BrowserUsed = browser != 0
		_ = json.Unmarshal([]byte(stepsJSON), &l.Execution.Steps)
		l.Execution.StartedAt, _ = time.Parse(tsLayout, startedStr)
		if ended, err := time.Parse(tsLayout, endedStr); err == nil {
			l.Execution.EndedAt = &ended
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CleanupOldLogs drops discovery logs older than the retention window.
func (d *DB) CleanupOldLogs(ctx context.Context, olderThan time.Duration) (deleted int64, err error) {
	cutoff := time.Now().Add(-olderThan).UTC().Format(tsLayout)
	res, err := d.Pool.ExecContext(ctx, `DELETE FROM discovery_logs WHERE started_at < ?;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup old logs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
