package render

import (
	"strings"

	"jobscout-engine/internal/util"

	"github.com/PuerkitoBio/goquery"
)

var spaMarkers = []string{
	`id="__next"`,
	`__next_data__`,
	`window.__nuxt__`,
	`id="__nuxt"`,
	`data-reactroot`,
	`ng-version=`,
	`ng-app`,
	`data-v-app`,
	`id="app"></div>`,
	`id="root"></div>`,
	`ember-application`,
	`you need to enable javascript`,
	`please enable javascript`,
}

var DefaultJSHeavyHosts = []string{
	"myworkdayjobs.com",
	"workday.com",
	"icims.com",
	"taleo.net",
	"successfactors.com",
	"smartrecruiters.com",
	"ashbyhq.com",
	"jobvite.com",
	"phenompeople.com",
	"eightfold.ai",
	"oraclecloud.com",
}

var jobKeywords = []string{
	"job",
	"position",
	"opening",
	"vacanc",
	"apply",
	"role",
	"career",
}

// Thresholds tune the escalation heuristics. A page needs a browser when at
// least SPAMarkers distinct markers match or it has fewer than Keywords job
// keyword hits. Zero SPAMarkers means 1.
type Thresholds struct {
	Keywords   int
	SPAMarkers int
}

// Classification says whether static HTML is enough and why not.
type Classification struct {
	SPAMarker    string // first match
	SPAMarkers   int
	JSHeavyHost  bool
	KeywordHits  int
	NeedsBrowser bool
}

// Classify runs the two escalation heuristics: SPA markers or a known
// JS-heavy host, and job keyword scarcity in the visible text.
func Classify(pageURL, html string, jsHeavyHosts []string, t Thresholds) Classification {
	if len(jsHeavyHosts) == 0 {
		jsHeavyHosts = DefaultJSHeavyHosts
	}
	if t.SPAMarkers <= 0 {
		t.SPAMarkers = 1
	}
	low := strings.ToLower(html)

	var c Classification
	for _, m := range spaMarkers {
		if strings.Contains(low, m) {
			if c.SPAMarker == "" {
				c.SPAMarker = m
			}
			c.SPAMarkers++
		}
	}
	c.JSHeavyHost = util.HostMatches(util.HostOf(pageURL), jsHeavyHosts)
	c.KeywordHits = KeywordHits(html)
	c.NeedsBrowser = c.SPAMarkers >= t.SPAMarkers || c.JSHeavyHost || c.KeywordHits < t.Keywords
	return c
}

// KeywordHits counts job keyword occurrences in visible text.
func KeywordHits(html string) int {
	text := html
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		doc.Find("script, style, noscript, template").Remove()
		text = doc.Text()
	}
	text = strings.ToLower(text)

	n := 0
	for _, k := range jobKeywords {
		n += strings.Count(text, k)
	}
	return n
}
