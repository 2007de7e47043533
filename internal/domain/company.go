package domain

import (
	"net/url"
	"strings"
	"time"
)

// CompanyTarget is the immutable input for one discovery run.
type CompanyTarget struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	WebsiteURL string `json:"website_url" yaml:"website_url"`
	Industry   string `json:"industry,omitempty" yaml:"industry,omitempty"`
}

// Host returns the lowercased website host without a leading "www.".
func (c CompanyTarget) Host() string {
	raw := strings.TrimSpace(c.WebsiteURL)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	h := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(h, "www.")
}

// Slug is the company name reduced to [a-z0-9], as ATS boards expect.
func (c CompanyTarget) Slug() string {
	var b strings.Builder
	for _, r := range strings.ToLower(c.Name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

type LocateMethod string

const (
	MethodPatternMatching LocateMethod = "pattern_matching"
	MethodOracle          LocateMethod = "oracle"
	MethodCached          LocateMethod = "cached"
	MethodError           LocateMethod = "error"
	MethodNone            LocateMethod = "none"
)

// CareerPageResult is what the locator found for one company.
type CareerPageResult struct {
	CompanyID    string        `json:"company_id"`
	URL          string        `json:"url,omitempty"`
	Confidence   float64       `json:"confidence"`
	Method       LocateMethod  `json:"method"`
	Alternates   []string      `json:"alternates,omitempty"`
	Reasoning    string        `json:"reasoning,omitempty"`
	Error        string        `json:"error,omitempty"`
	DiscoveredAt time.Time     `json:"discovered_at"`
	TTL          time.Duration `json:"ttl"`
}

// Found reports whether a usable URL was located.
func (r CareerPageResult) Found() bool {
	return r.URL != "" && r.Confidence > 0
}

// Expired reports whether the result is older than its TTL at now.
func (r CareerPageResult) Expired(now time.Time) bool {
	if r.TTL <= 0 {
		return true
	}
	return now.Sub(r.DiscoveredAt) >= r.TTL
}
