// Package ats recognizes career pages hosted on applicant tracking systems
// and pulls their public job-board APIs directly.
package ats

import (
	"fmt"
	"net/url"
	"strings"
)

type Provider string

const (
	Greenhouse      Provider = "greenhouse"
	Lever           Provider = "lever"
	SmartRecruiters Provider = "smartrecruiters"
	Workday         Provider = "workday"
)

// Board is one company's board on a provider.
type Board struct {
	Provider Provider
	Slug     string // tenant for Workday
	Site     string // Workday only
	Locale   string // Workday only
	Host     string
	Scheme   string
}

// Detect maps a career-page URL onto a known board.
func Detect(pageURL string) (Board, bool) {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || u.Host == "" {
		return Board{}, false
	}
	host := strings.ToLower(u.Hostname())
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	segs := pathSegments(u.Path)
	first := ""
	if len(segs) > 0 {
		first = segs[0]
	}

	switch {
	case host == "boards.greenhouse.io" || host == "job-boards.greenhouse.io":
		if first == "" || first == "embed" {
			return Board{}, false
		}
		return Board{Provider: Greenhouse, Slug: first, Host: host, Scheme: scheme}, true

	case host == "jobs.lever.co" || host == "jobs.eu.lever.co":
		if first == "" {
			return Board{}, false
		}
		return Board{Provider: Lever, Slug: first, Host: host, Scheme: scheme}, true

	case host == "jobs.smartrecruiters.com" || host == "careers.smartrecruiters.com":
		if first == "" {
			return Board{}, false
		}
		return Board{Provider: SmartRecruiters, Slug: first, Host: host, Scheme: scheme}, true

	case strings.HasSuffix(host, ".myworkdayjobs.com"):
		return workdayBoard(u, host, scheme, segs)
	}
	return Board{}, false
}

func workdayBoard(u *url.URL, host, scheme string, segs []string) (Board, bool) {
	parts := strings.Split(host, ".")
	if len(parts) < 3 || len(segs) == 0 {
		return Board{}, false
	}
	b := Board{Provider: Workday, Slug: parts[0], Host: u.Host, Scheme: scheme}
	if len(segs) >= 2 && looksLikeLocale(segs[0]) {
		b.Locale = normalizeLocale(segs[0])
		segs = segs[1:]
	}
	// /<site>/job/<location>/<title> deep links keep the site first
	b.Site = segs[0]
	return b, b.Site != ""
}

// APIURL is the JSON endpoint for the board.
func (b Board) APIURL() string {
	switch b.Provider {
	case Greenhouse:
		return fmt.Sprintf("https://boards-api.greenhouse.io/v1/boards/%s/jobs?content=true", url.PathEscape(b.Slug))
	case Lever:
		api := "api.lever.co"
		if strings.Contains(b.Host, ".eu.") {
			api = "api.eu.lever.co"
		}
		return fmt.Sprintf("https://%s/v0/postings/%s?mode=json", api, url.PathEscape(b.Slug))
	case SmartRecruiters:
		return fmt.Sprintf("https://api.smartrecruiters.com/v1/companies/%s/postings?limit=100", url.PathEscape(b.Slug))
	case Workday:
		base := fmt.Sprintf("%s://%s/wday/cxs/%s/%s/jobs", b.Scheme, b.Host, b.Slug, b.Site)
		if b.Locale == "" {
			return base
		}
		return base + "?locale=" + url.QueryEscape(b.Locale)
	}
	return ""
}

func pathSegments(p string) []string {
	var out []string
	for _, s := range strings.Split(strings.Trim(p, "/"), "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func looksLikeLocale(s string) bool {
	if len(s) != 5 || s[2] != '-' {
		return false
	}
	return isAlpha(s[0:2]) && isAlpha(s[3:5])
}

func normalizeLocale(s string) string {
	return strings.ToLower(s[0:2]) + "-" + strings.ToUpper(s[3:5])
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			return false
		}
	}
	return true
}
