package rank

import (
	"strings"

	"jobscout-engine/internal/domain"
)

// Scorer scores one dimension of a job against a profile, in [0,100].
type Scorer func(job domain.ExtractedJob, p domain.UserPreferences) float64

var scorers = map[domain.Dimension]Scorer{
	domain.DimSkills:     ScoreSkills,
	domain.DimLocation:   ScoreLocation,
	domain.DimExperience: ScoreExperience,
	domain.DimRole:       ScoreRole,
	domain.DimCompany:    ScoreCompany,
}

const neutral = 50.0

// ScoreSkills is the share of profile skills mentioned by the job.
func ScoreSkills(job domain.ExtractedJob, p domain.UserPreferences) float64 {
	if len(p.Skills) == 0 {
		return neutral
	}
	text := strings.ToLower(job.Title + " " + job.Description + " " + strings.Join(job.Skills, " "))
	hit := 0
	for _, s := range p.Skills {
		if containsWord(text, strings.ToLower(s)) {
			hit++
		}
	}
	return 100 * float64(hit) / float64(len(p.Skills))
}

func ScoreLocation(job domain.ExtractedJob, p domain.UserPreferences) float64 {
	remote := job.IsRemote()
	switch {
	case remote && p.RemotePreference:
		return 100
	case matchesPreferredLocation(job.Location, p.PreferredLocations):
		return 90
	case remote && p.HasLocationPreference():
		return 80
	case !p.HasLocationPreference():
		return neutral
	default:
		return 20
	}
}

func matchesPreferredLocation(loc string, preferred []string) bool {
	l := strings.ToLower(strings.TrimSpace(loc))
	if l == "" {
		return false
	}
	for _, pref := range preferred {
		pl := strings.ToLower(strings.TrimSpace(pref))
		if pl == "" || pl == "remote" {
			continue
		}
		if strings.Contains(l, pl) || strings.Contains(pl, l) {
			return true
		}
	}
	return false
}

// RequiredYears estimates the experience a posting asks for from seniority
// keywords in the title, then the description.
func RequiredYears(job domain.ExtractedJob) int {
	for _, text := range []string{job.Title, job.Description} {
		if y, ok := seniorityYears(strings.ToLower(text)); ok {
			return y
		}
	}
	return 3
}

func seniorityYears(text string) (int, bool) {
	switch {
	case containsWord(text, "intern") || containsWord(text, "internship"):
		return 0, true
	case containsWord(text, "junior") || containsWord(text, "jr") || containsWord(text, "entry level"):
		return 1, true
	case containsWord(text, "lead") || containsWord(text, "principal") || containsWord(text, "staff"):
		return 7, true
	case containsWord(text, "senior") || containsWord(text, "sr"):
		return 5, true
	}
	return 0, false
}

func ScoreExperience(job domain.ExtractedJob, p domain.UserPreferences) float64 {
	diff := p.YearsExperience - RequiredYears(job)
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff == 0:
		return 100
	case diff <= 1:
		return 90
	case diff <= 2:
		return 75
	case diff <= 3:
		return 60
	default:
		return 40
	}
}

var roleKeywords = []string{"engineer", "developer", "analyst", "manager", "designer"}

func ScoreRole(job domain.ExtractedJob, p domain.UserPreferences) float64 {
	if len(p.DesiredRoles) == 0 {
		return neutral
	}
	title := strings.ToLower(job.Title)
	for _, r := range p.DesiredRoles {
		if strings.Contains(title, strings.ToLower(r)) {
			return 95
		}
	}
	for _, r := range p.DesiredRoles {
		lr := strings.ToLower(r)
		for _, k := range roleKeywords {
			if strings.Contains(lr, k) && strings.Contains(title, k) {
				return 70
			}
		}
	}
	return 30
}

// ScoreCompany is neutral: company fit is not modeled.
func ScoreCompany(domain.ExtractedJob, domain.UserPreferences) float64 {
	return neutral
}

// containsWord reports whether word occurs in text with non-alphanumeric
// neighbours. Both are expected lowercased.
func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for i := 0; ; {
		j := strings.Index(text[i:], word)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(word)
		if (start == 0 || !isWordByte(text[start-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		i = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '+' || b == '#'
}
