package util

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var locationSelectors = []string{
	".location",
	".job-location",
	".job__location",
	".posting-location",
	"[class*='location']",
	"[data-testid='job-location']",
	"[data-testid='location']",
	"[itemprop='jobLocation']",
	"[data-qa='location']",
}

// FindLocation returns the first location-looking text under sel.
func FindLocation(sel *goquery.Selection) string {
	for _, s := range locationSelectors {
		if t := CleanText(sel.Find(s).First().Text()); t != "" && len(t) <= 120 {
			return NormalizeLocation(t)
		}
	}
	if loc := ExtractLocationFromLabeledText(sel.Text()); loc != "" {
		return NormalizeLocation(loc)
	}
	return ""
}

var locationLabelRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)job location:`),
	regexp.MustCompile(`(?i)locations:`),
	regexp.MustCompile(`(?i)location:`),
}

// ExtractLocationFromLabeledText returns the text after a "Location:" style
// label, up to the end of the line or a separator.
func ExtractLocationFromLabeledText(s string) string {
	for _, re := range locationLabelRes {
		loc := re.FindStringIndex(s)
		if loc == nil {
			continue
		}
		rest := strings.TrimSpace(s[loc[1]:])

		for _, cut := range []string{"\n", "\r", " | ", " · "} {
			if j := strings.Index(rest, cut); j >= 0 {
				rest = rest[:j]
			}
		}

		rest = CleanText(rest)
		if rest != "" && len(rest) <= 80 {
			return rest
		}
	}
	return ""
}
