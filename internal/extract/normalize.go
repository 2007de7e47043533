package extract

import (
	"html"
	"strings"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/util"

	"github.com/microcosm-cc/bluemonday"
)

const maxDescription = 4000

var stripPolicy = bluemonday.StrictPolicy()

// Finalize cleans fields, fills inferred ones (work mode, skills, salary,
// absolute links), drops junk titles and dedupes by job signature keeping
// the first occurrence.
func Finalize(jobs []domain.ExtractedJob, strategy, baseURL string) []domain.ExtractedJob {
	var out []domain.ExtractedJob
	seen := map[string]bool{}

	for _, j := range jobs {
		j.Title = util.CleanText(j.Title)
		if util.LooksLikeJunkTitle(j.Title) {
			continue
		}
		j.Location = util.NormalizeLocation(j.Location)
		j.Organization = util.CleanText(j.Organization)
		j.Department = util.CleanText(j.Department)
		j.EmploymentType = util.CleanText(j.EmploymentType)
		j.Description = PlainText(j.Description)
		j.SalaryRange = util.CleanText(j.SalaryRange)

		key := util.JobSignature(j.Title, j.Location)
		if seen[key] {
			continue
		}
		seen[key] = true

		if j.WorkMode == "" || j.WorkMode == "Unknown" {
			j.WorkMode = util.InferWorkModeFromText(j.Location, j.Title, j.Description)
		}
		if len(j.Skills) == 0 {
			j.Skills = FindSkills(j.Title + " " + j.Description)
		}
		if j.SalaryRange == "" {
			j.SalaryRange = FindSalary(j.Description)
		}
		if j.ApplicationURL != "" {
			if abs := util.ResolveURL(baseURL, j.ApplicationURL); abs != "" {
				j.ApplicationURL = abs
			}
		}
		j.SourceStrategy = strategy
		out = append(out, j)
	}
	return out
}

// PlainText strips markup from a description and bounds its length.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(s)
	s = stripPolicy.Sanitize(strings.NewReplacer("<br>", " ", "</p>", " ", "</li>", " ").Replace(s))
	s = util.CleanText(html.UnescapeString(s))
	return util.Truncate(s, maxDescription)
}
