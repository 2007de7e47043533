package extract

import (
	"regexp"

	"jobscout-engine/internal/util"
)

var salaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[$€£]\s?\d{1,3}(?:,\d{3})*(?:\.\d+)?\s?[kK]?\s?(?:-|–|—|to)\s?[$€£]?\s?\d{1,3}(?:,\d{3})*(?:\.\d+)?\s?[kK]?`),
	regexp.MustCompile(`(?:USD|EUR|GBP|CAD|AUD)\s?\d{1,3}(?:,\d{3})+(?:\.\d+)?\s?(?:-|–|—|to)\s?\d{1,3}(?:,\d{3})+(?:\.\d+)?`),
	regexp.MustCompile(`[$€£]\s?\d{2,3}(?:,\d{3})+(?:\.\d+)?`),
}

// FindSalary returns the first salary-looking span in text, or "".
func FindSalary(text string) string {
	for _, re := range salaryPatterns {
		if m := re.FindString(text); m != "" {
			return util.CleanText(m)
		}
	}
	return ""
}
