package locate

import (
	"strings"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/util"
)

var DefaultPaths = []string{
	"/careers",
	"/jobs",
	"/careers/jobs",
	"/join-us",
	"/about/careers",
}

// DefaultATSHosts are URL templates; {slug} is the company name reduced to [a-z0-9].
var DefaultATSHosts = []string{
	"https://boards.greenhouse.io/{slug}",
	"https://jobs.lever.co/{slug}",
	"https://jobs.ashbyhq.com/{slug}",
	"https://jobs.smartrecruiters.com/{slug}",
	"https://apply.workable.com/{slug}",
	"https://{slug}.bamboohr.com/careers",
	"https://{slug}.recruitee.com",
}

// Candidates lists career-page guesses in priority order: site paths,
// careers./jobs. subdomains, then ATS boards. No duplicates.
func Candidates(c domain.CompanyTarget, paths, atsHosts []string) []string {
	if len(paths) == 0 {
		paths = DefaultPaths
	}
	if len(atsHosts) == 0 {
		atsHosts = DefaultATSHosts
	}

	var out []string
	seen := map[string]bool{}
	add := func(u string) {
		k := util.CanonicalizeURL(u)
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		out = append(out, u)
	}

	if host := c.Host(); host != "" {
		base := "https://" + host
		for _, p := range paths {
			if !strings.HasPrefix(p, "/") {
				p = "/" + p
			}
			add(base + p)
		}
		add("https://careers." + host)
		add("https://jobs." + host)
	}

	if slug := c.Slug(); slug != "" {
		for _, tmpl := range atsHosts {
			if !strings.Contains(tmpl, "{slug}") {
				continue
			}
			u := strings.ReplaceAll(tmpl, "{slug}", slug)
			if !strings.Contains(u, "://") {
				u = "https://" + u
			}
			add(u)
		}
	}
	return out
}
