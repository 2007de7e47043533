package store

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

var schemaV1 = []string{
	`
CREATE TABLE IF NOT EXISTS company_career_pages (
  company_id TEXT PRIMARY KEY,
  company_name TEXT NOT NULL,
  website_url TEXT NOT NULL DEFAULT '',
  url TEXT NOT NULL,
  confidence REAL NOT NULL,
  method TEXT NOT NULL,
  alternates TEXT NOT NULL DEFAULT '[]',
  reasoning TEXT NOT NULL DEFAULT '',
  discovered_at TEXT NOT NULL
);`,
	`
CREATE TABLE IF NOT EXISTS discovery_logs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  execution_id TEXT NOT NULL,
  company_id TEXT NOT NULL,
  company_name TEXT NOT NULL,
  status TEXT NOT NULL,
  failed_step TEXT NOT NULL DEFAULT '',
  career_url TEXT NOT NULL DEFAULT '',
  locate_method TEXT NOT NULL DEFAULT '',
  extraction_method TEXT NOT NULL DEFAULT '',
  jobs_found INTEGER NOT NULL DEFAULT 0,
  browser_used INTEGER NOT NULL DEFAULT 0,
  steps TEXT NOT NULL DEFAULT '[]',
  error TEXT NOT NULL DEFAULT '',
  started_at TEXT NOT NULL,
  ended_at TEXT NOT NULL
);`,
	`
CREATE TABLE IF NOT EXISTS ranked_jobs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  execution_id TEXT NOT NULL,
  company_id TEXT NOT NULL,
  company_name TEXT NOT NULL,
  title TEXT NOT NULL,
  location TEXT NOT NULL,
  work_mode TEXT NOT NULL DEFAULT '',
  url TEXT NOT NULL DEFAULT '',
  overall_score REAL NOT NULL,
  recommendation TEXT NOT NULL,
  skills TEXT NOT NULL DEFAULT '[]',
  source_strategy TEXT NOT NULL DEFAULT '',
  seen_at TEXT NOT NULL
);`,
	`
CREATE TABLE IF NOT EXISTS company_domains (
  company TEXT PRIMARY KEY,
  domain TEXT NOT NULL,
  fetched_at TEXT NOT NULL
);`,
	`CREATE INDEX IF NOT EXISTS idx_discovery_logs_company ON discovery_logs(company_id, started_at);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_ranked_jobs_signature ON ranked_jobs(company_id, title, location);`,
	`CREATE INDEX IF NOT EXISTS idx_ranked_jobs_seen ON ranked_jobs(seen_at);`,
}

// Migrate brings the schema to schemaVersion, tracked in PRAGMA user_version.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	for _, stmt := range schemaV1 {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}
