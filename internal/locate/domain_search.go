package locate

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"jobscout-engine/internal/fetch"
	"jobscout-engine/internal/util"

	"github.com/PuerkitoBio/goquery"
)

const DefaultSearchURL = "https://duckduckgo.com/html/"

// Hosts that are never a company's own site: job boards, aggregators, ATSs.
var domainBlocklist = []string{
	"linkedin.com",
	"indeed.com",
	"glassdoor.com",
	"ziprecruiter.com",
	"monster.com",
	"careerbuilder.com",
	"simplyhired.com",
	"builtin.com",
	"levels.fyi",
	"crunchbase.com",
	"wikipedia.org",
	"duckduckgo.com",

	"greenhouse.io",
	"lever.co",
	"myworkdayjobs.com",
	"workday.com",
	"smartrecruiters.com",
	"icims.com",
	"jobvite.com",
	"ashbyhq.com",
	"workable.com",
	"applytojob.com",
}

// searchDomain asks the DuckDuckGo HTML endpoint for the company's official
// site and returns the first non-blocklisted host, or "".
func searchDomain(ctx context.Context, f fetch.Fetcher, searchURL, company string) (string, error) {
	q := sanitizeCompanyForSearch(company)
	if q == "" {
		return "", nil
	}

	u := searchURL + "?q=" + url.QueryEscape(fmt.Sprintf("%s official website", q))
	res, err := f.Get(ctx, u)
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.Body))
	if err != nil {
		return "", nil
	}

	var best string
	doc.Find("a.result__a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}
		host := strings.TrimPrefix(util.HostOf(decodeDDGRedirect(href)), "www.")
		if host == "" || util.HostMatches(host, domainBlocklist) {
			return true
		}
		best = host
		return false
	})
	return best, nil
}

func decodeDDGRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	// /l/?uddg=<urlencoded>
	if uddg := u.Query().Get("uddg"); uddg != "" {
		return uddg
	}
	return href
}

func sanitizeCompanyForSearch(s string) string {
	r := strings.NewReplacer(
		", Inc.", "", " Inc.", "", " Inc", "",
		", LLC", "", " LLC", "",
		", Ltd.", "", " Ltd.", "", " Ltd", "",
		" Recruiting", "",
		" Staffing", "",
	)
	return strings.Join(strings.Fields(r.Replace(strings.TrimSpace(s))), " ")
}
