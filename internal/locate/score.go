package locate

import (
	"math"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var careerTerms = []string{
	"careers",
	"jobs",
	"open positions",
	"open roles",
	"job openings",
	"join our team",
	"join us",
	"hiring",
	"vacancies",
	"opportunities",
	"work with us",
}

var applicationTerms = []string{
	"apply",
	"application",
	"resume",
	"qualifications",
	"requirements",
	"responsibilities",
	"benefits",
}

var jobIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/(?:jobs?|positions?|openings?|postings?)/[0-9a-f-]{3,}`),
	regexp.MustCompile(`(?:gh_jid|jobid|job_id|reqid|req_id|requisition_id)=[a-z0-9-]+`),
	regexp.MustCompile(`\breq[-_ #]?[0-9]{4,}\b`),
	regexp.MustCompile(`(?:greenhouse\.io|lever\.co|myworkdayjobs\.com|smartrecruiters\.com|ashbyhq\.com|workable\.com)/`),
}

type scoreWeight struct {
	weight float64
	cap    int
}

var (
	careerWeight      = scoreWeight{weight: 0.4, cap: 10}
	applicationWeight = scoreWeight{weight: 0.3, cap: 5}
	jobIDWeight       = scoreWeight{weight: 0.3, cap: 3}
)

func (w scoreWeight) of(n int) float64 {
	if n > w.cap {
		n = w.cap
	}
	return w.weight * float64(n) / float64(w.cap)
}

// ContentScore estimates how much a page looks like a job listing, in [0,1].
// Term hits count over visible text, job-id patterns over raw markup.
func ContentScore(html string) float64 {
	if strings.TrimSpace(html) == "" {
		return 0
	}

	text := html
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		doc.Find("script, style, noscript").Remove()
		text = doc.Text()
	}
	text = strings.ToLower(text)
	raw := strings.ToLower(html)

	careers := countTerms(text, careerTerms)
	apps := countTerms(text, applicationTerms)
	ids := 0
	for _, re := range jobIDPatterns {
		ids += len(re.FindAllStringIndex(raw, -1))
	}

	s := careerWeight.of(careers) + applicationWeight.of(apps) + jobIDWeight.of(ids)
	return math.Min(1, math.Round(s*100)/100)
}

func countTerms(text string, terms []string) int {
	n := 0
	for _, t := range terms {
		n += strings.Count(text, t)
	}
	return n
}
