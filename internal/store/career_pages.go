package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"jobscout-engine/internal/domain"
)

// CareerPage is the persisted record of the last successful locate.
type CareerPage struct {
	CompanyID    string              `json:"company_id"`
	CompanyName  string              `json:"company_name"`
	WebsiteURL   string              `json:"website_url"`
	URL          string              `json:"url"`
	Confidence   float64             `json:"confidence"`
	Method       domain.LocateMethod `json:"method"`
	Alternates   []string            `json:"alternates"`
	Reasoning    string              `json:"reasoning,omitempty"`
	DiscoveredAt time.Time           `json:"discovered_at"`
}

func (d *DB) GetCareerPage(ctx context.Context, companyID string) (CareerPage, bool, error) {
	var (
		p          CareerPage
		method     string
		altJSON    string
		discovered string
	)
	err := d.Pool.QueryRowContext(ctx, `
SELECT company_id, company_name, website_url, url, confidence, method, alternates, reasoning, discovered_at
FROM company_career_pages
WHERE company_id = ?
LIMIT 1;`, strings.TrimSpace(companyID)).Scan(
		&p.CompanyID,
		&p.CompanyName,
		&p.WebsiteURL,
		&p.URL,
		&p.Confidence,
		&method,
		&altJSON,
		&p.Reasoning,
		&discovered,
	)
	if err == sql.ErrNoRows {
		return CareerPage{}, false, nil
	}
	if err != nil {
		return CareerPage{}, false, err
	}
	p.Method = domain.LocateMethod(method)
	_ = json.Unmarshal([]byte(altJSON), &p.Alternates)
	p.DiscoveredAt, _ = time.Parse(time.RFC3339, discovered)
	return p, true, nil
}

// KnownCareerPage satisfies locate.KnownPages.
func (d *DB) KnownCareerPage(ctx context.Context, companyID string) (string, bool, error) {
	p, ok, err := d.GetCareerPage(ctx, companyID)
	if err != nil || !ok {
		return "", false, err
	}
	return p.URL, p.URL != "", nil
}

// UpdateCareerPage upserts a found result. Results without a URL are ignored
// so a transient miss never erases a good page.
func (d *DB) UpdateCareerPage(ctx context.Context, c domain.CompanyTarget, r domain.CareerPageResult) error {
	if strings.TrimSpace(c.ID) == "" || !r.Found() {
		return nil
	}
	alts := r.Alternates
	if alts == nil {
		alts = []string{}
	}
	altB, _ := json.Marshal(alts)
	at := r.DiscoveredAt
	if at.IsZero() {
		at = time.Now()
	}

	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO company_career_pages(company_id, company_name, website_url, url, confidence, method, alternates, reasoning, discovered_at)
VALUES(?,?,?,?,?,?,?,?,?)
ON CONFLICT(company_id) DO UPDATE SET
  company_name = excluded.company_name,
  website_url = excluded.website_url,
  url = excluded.url,
  confidence = excluded.confidence,
  method = excluded.method,
  alternates = excluded.alternates,
  reasoning = excluded.reasoning,
  discovered_at = excluded.discovered_at;
`, c.ID, c.Name, c.WebsiteURL, r.URL, r.Confidence, string(r.Method), string(altB), r.Reasoning,
		at.UTC().Format(time.RFC3339))
	return err
}
