package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"jobscout-engine/internal/domain"
)

// Keys under which ATS and in-house APIs keep their job arrays.
var jobArrayKeys = []string{"jobs", "positions", "data", "jobPostings", "postings", "content", "results", "items", "openings"}

const maxArrayDepth = 3

// PayloadStrategy maps intercepted JSON API responses. It knows the
// Greenhouse, Lever, SmartRecruiters and Workday shapes and falls back to
// generic field names.
type PayloadStrategy struct{}

func (PayloadStrategy) Name() string { return MethodPayload }

func (PayloadStrategy) TryExtract(_ context.Context, in Input) ([]domain.ExtractedJob, error) {
	var out []domain.ExtractedJob
	for _, p := range in.Content.CapturedPayloads {
		var v any
		if err := json.Unmarshal(p.Body, &v); err != nil {
			continue
		}
		for _, obj := range findJobArray(v, 0) {
			if j, ok := mapPayloadJob(obj, p.URL); ok {
				out = append(out, j)
			}
		}
	}
	return out, nil
}

// findJobArray returns the first array of job-looking objects: the value
// itself, then the known keys, then one level deeper.
func findJobArray(v any, depth int) []map[string]any {
	if depth > maxArrayDepth {
		return nil
	}
	switch t := v.(type) {
	case []any:
		objs := objects(t)
		if looksLikeJobs(objs) {
			return objs
		}
	case map[string]any:
		for _, k := range jobArrayKeys {
			if child, ok := lookupFold(t, k); ok {
				if objs := findJobArray(child, depth+1); len(objs) > 0 {
					return objs
				}
			}
		}
	}
	return nil
}

func objects(xs []any) []map[string]any {
	var out []map[string]any
	for _, x := range xs {
		if m, ok := x.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func looksLikeJobs(objs []map[string]any) bool {
	for _, o := range objs {
		if payloadTitle(o) != "" {
			return true
		}
	}
	return false
}

func payloadTitle(o map[string]any) string {
	return firstString(o, "title", "text", "jobTitle", "name", "position")
}

func mapPayloadJob(o map[string]any, payloadURL string) (domain.ExtractedJob, bool) {
	title := payloadTitle(o)
	if title == "" {
		return domain.ExtractedJob{}, false
	}

	j := domain.ExtractedJob{
		Title:          title,
		Location:       payloadLocation(o),
		Department:     firstString(o, "department", "departments.0.name", "categories.team", "team", "function.label", "department.label"),
		EmploymentType: firstString(o, "employmentType", "employment_type", "commitment", "categories.commitment", "typeOfEmployment.label", "timeType"),
		Description:    firstString(o, "descriptionPlain", "description", "content", "jobAd.sections.jobDescription.text"),
		SalaryRange:    firstString(o, "salary", "salaryRange", "salary_range", "compensation"),
		ApplicationURL: firstString(o, "absolute_url", "hostedUrl", "applyUrl", "apply_url", "applicationUrl", "url"),
	}
	if workplace := firstString(o, "workplaceType", "locationType"); strings.EqualFold(workplace, "remote") {
		j.WorkMode = "Remote"
	}
	if remote, ok := lookupPath(o, "isRemote").(bool); ok && remote {
		j.WorkMode = "Remote"
	}
	if j.ApplicationURL == "" {
		if path := firstString(o, "externalPath"); path != "" {
			j.ApplicationURL = workdayJobURL(payloadURL, path)
		}
	}
	if j.ApplicationURL == "" {
		if co, id := firstString(o, "company.identifier"), firstString(o, "id"); co != "" && id != "" {
			j.ApplicationURL = fmt.Sprintf("https://jobs.smartrecruiters.com/%s/%s", co, id)
		}
	}
	if j.ApplicationURL == "" {
		if ref := firstString(o, "ref"); strings.HasPrefix(ref, "http") {
			j.ApplicationURL = ref
		}
	}
	return j, true
}

func payloadLocation(o map[string]any) string {
	if s := firstString(o, "location", "location.name", "locationsText", "categories.location", "locationName", "locations.0.name", "locations.0", "primaryLocation"); s != "" {
		return s
	}
	// SmartRecruiters: {"location": {"city": ..., "region": ..., "country": ...}}
	var parts []string
	for _, k := range []string{"location.city", "location.region", "location.country"} {
		if s := firstString(o, k); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// workdayJobURL turns a /wday/cxs/<tenant>/<site>/jobs payload plus an
// externalPath into the public job URL.
func workdayJobURL(payloadURL, externalPath string) string {
	u, err := url.Parse(payloadURL)
	if err != nil || u.Host == "" {
		return ""
	}
	site := ""
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+3 < len(segs); i++ {
		if segs[i] == "wday" && segs[i+1] == "cxs" {
			site = segs[i+3]
			break
		}
	}
	if site == "" {
		return fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, externalPath)
	}
	return fmt.Sprintf("%s://%s/%s%s", u.Scheme, u.Host, site, externalPath)
}

// firstString returns the first non-empty string at any of the dotted paths.
// Numeric path segments index arrays.
func firstString(o map[string]any, paths ...string) string {
	for _, p := range paths {
		if s := asString(lookupPath(o, p)); s != "" {
			return s
		}
	}
	return ""
}

func lookupPath(o map[string]any, path string) any {
	var cur any = o
	for _, seg := range strings.Split(path, ".") {
		switch t := cur.(type) {
		case map[string]any:
			v, ok := lookupFold(t, seg)
			if !ok {
				return nil
			}
			cur = v
		case []any:
			var idx int
			if _, err := fmt.Sscanf(seg, "%d", &idx); err != nil || idx < 0 || idx >= len(t) {
				return nil
			}
			cur = t[idx]
		default:
			return nil
		}
	}
	return cur
}

func lookupFold(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		var parts []string
		for _, x := range t {
			if s, ok := x.(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}
