package extract

import (
	"context"
	"strings"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/util"

	"github.com/PuerkitoBio/goquery"
)

// Listing selectors seen on in-house career pages and hosted boards
// (Greenhouse .opening, Lever .posting, Workable, Ashby, BambooHR).
var listingSelectors = []string{
	".opening",
	".posting",
	".job-listing",
	".job-item",
	".job-card",
	".job-post",
	".job-posting",
	".job-opening",
	".career-item",
	".vacancy",
	".position",
	"li.job",
	"div.job",
	"tr.job",
	"[data-job-id]",
	"[data-qa='posting']",
	"[data-testid*='job-card']",
	"[data-ui='job']",
	"[class*='JobCard']",
	"[class*='job-list'] > li",
	"[id^='job-']",
}

var titleSelectors = []string{
	"h1", "h2", "h3", "h4", "h5",
	".title",
	".job-title",
	".posting-title",
	"[data-qa='posting-name']",
	"[class*='title']",
	"a",
}

// DOMPatternStrategy queries fixed listing selectors and keeps the one that
// yields the most jobs.
type DOMPatternStrategy struct{}

func (DOMPatternStrategy) Name() string { return MethodDOM }

func (DOMPatternStrategy) TryExtract(_ context.Context, in Input) ([]domain.ExtractedJob, error) {
	html := in.Content.HTML()
	if strings.TrimSpace(html) == "" {
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript").Remove()

	var best []domain.ExtractedJob
	for _, sel := range listingSelectors {
		var jobs []domain.ExtractedJob
		doc.Find(sel).Each(func(_ int, el *goquery.Selection) {
			if j, ok := jobFromElement(el); ok {
				jobs = append(jobs, j)
			}
		})
		if len(jobs) > len(best) {
			best = jobs
		}
	}
	return best, nil
}

func jobFromElement(el *goquery.Selection) (domain.ExtractedJob, bool) {
	title := ""
	for _, ts := range titleSelectors {
		t := util.CleanText(el.Find(ts).First().Text())
		if t != "" && !util.LooksLikeJunkTitle(t) {
			title = t
			break
		}
	}
	if title == "" && el.Children().Length() == 0 {
		title = util.CleanText(el.Text())
	}
	if title == "" || util.LooksLikeJunkTitle(title) {
		return domain.ExtractedJob{}, false
	}

	link := ""
	if goquery.NodeName(el) == "a" {
		link, _ = el.Attr("href")
	} else if href, ok := el.Find("a[href]").First().Attr("href"); ok {
		link = href
	}

	return domain.ExtractedJob{
		Title:          title,
		Location:       util.FindLocation(el),
		Department:     util.CleanText(el.Find(".department, [class*='department'], [data-qa='posting-department']").First().Text()),
		EmploymentType: util.CleanText(el.Find(".commitment, .employment-type, [class*='employment']").First().Text()),
		ApplicationURL: strings.TrimSpace(link),
	}, true
}
