package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"jobscout-engine/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

// StructuredDataStrategy reads schema.org JobPosting objects out of
// <script type="application/ld+json"> blocks.
type StructuredDataStrategy struct{}

func (StructuredDataStrategy) Name() string { return MethodStructured }

func (StructuredDataStrategy) TryExtract(_ context.Context, in Input) ([]domain.ExtractedJob, error) {
	html := in.Content.HTML()
	if !strings.Contains(strings.ToLower(html), "application/ld+json") {
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var out []domain.ExtractedJob
	var parseErr error
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &v); err != nil {
			parseErr = err
			return
		}
		for _, p := range jobPostings(v, 0) {
			out = append(out, mapJobPosting(p))
		}
	})
	if len(out) == 0 && parseErr != nil {
		return nil, fmt.Errorf("ld+json: %w", parseErr)
	}
	return out, nil
}

func jobPostings(v any, depth int) []map[string]any {
	if depth > 4 {
		return nil
	}
	switch t := v.(type) {
	case []any:
		var out []map[string]any
		for _, x := range t {
			out = append(out, jobPostings(x, depth+1)...)
		}
		return out
	case map[string]any:
		if isJobPosting(t) {
			return []map[string]any{t}
		}
		var out []map[string]any
		for _, k := range []string{"@graph", "itemListElement", "item"} {
			if child, ok := t[k]; ok {
				out = append(out, jobPostings(child, depth+1)...)
			}
		}
		return out
	}
	return nil
}

func isJobPosting(m map[string]any) bool {
	switch t := m["@type"].(type) {
	case string:
		return strings.EqualFold(t, "JobPosting")
	case []any:
		for _, x := range t {
			if s, ok := x.(string); ok && strings.EqualFold(s, "JobPosting") {
				return true
			}
		}
	}
	return false
}

func mapJobPosting(p map[string]any) domain.ExtractedJob {
	j := domain.ExtractedJob{
		Title:          firstString(p, "title", "name"),
		Organization:   firstString(p, "hiringOrganization.name", "hiringOrganization"),
		Location:       jobPostingLocation(p["jobLocation"]),
		Description:    firstString(p, "description"),
		EmploymentType: firstString(p, "employmentType"),
		ApplicationURL: firstString(p, "url", "sameAs"),
		SalaryRange:    baseSalary(p["baseSalary"]),
	}
	if strings.EqualFold(firstString(p, "jobLocationType"), "TELECOMMUTE") {
		j.WorkMode = "Remote"
		if j.Location == "" {
			j.Location = "Remote"
		}
	}
	return j
}

func jobPostingLocation(v any) string {
	switch t := v.(type) {
	case []any:
		var parts []string
		for _, x := range t {
			if s := jobPostingLocation(x); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		addr, ok := t["address"].(map[string]any)
		if !ok {
			return firstString(t, "name", "address")
		}
		var parts []string
		for _, k := range []string{"addressLocality", "addressRegion", "addressCountry", "addressCountry.name"} {
			if s := firstString(addr, k); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case string:
		return t
	}
	return ""
}

func baseSalary(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	cur := firstString(m, "currency")
	val, ok := m["value"].(map[string]any)
	if !ok {
		return ""
	}
	lo, hi := number(val["minValue"]), number(val["maxValue"])
	if lo == "" && hi == "" {
		lo = number(val["value"])
	}
	unit := strings.ToLower(firstString(val, "unitText"))

	s := strings.TrimSpace(cur + " " + lo)
	if hi != "" && hi != lo {
		s += " - " + hi
	}
	if unit != "" {
		s += " per " + unit
	}
	return strings.TrimSpace(s)
}

func number(v any) string {
	switch t := v.(type) {
	case float64:
		return fmt.Sprintf("%.0f", t)
	case string:
		return strings.TrimSpace(t)
	}
	return ""
}
