package domain

import "strings"

// UserPreferences is the candidate profile jobs are ranked against.
type UserPreferences struct {
	Skills             []string `json:"skills" yaml:"skills"`
	PreferredLocations []string `json:"preferred_locations" yaml:"preferred_locations"`
	RemotePreference   bool     `json:"remote_preference" yaml:"remote_preference"`
	YearsExperience    int      `json:"years_experience" yaml:"years_experience"`
	DesiredRoles       []string `json:"desired_roles" yaml:"desired_roles"`
	TopN               int      `json:"top_n,omitempty" yaml:"top_n,omitempty"`
}

// Normalized trims and case-insensitively dedupes the list fields.
func (p UserPreferences) Normalized() UserPreferences {
	p.Skills = TrimList(p.Skills)
	p.PreferredLocations = TrimList(p.PreferredLocations)
	p.DesiredRoles = TrimList(p.DesiredRoles)
	return p
}

// HasConcreteLocation reports whether any preferred location is not "remote".
func (p UserPreferences) HasConcreteLocation() bool {
	for _, l := range p.PreferredLocations {
		if !strings.EqualFold(strings.TrimSpace(l), "remote") {
			return true
		}
	}
	return false
}

// HasLocationPreference reports whether the profile expresses any location wish.
func (p UserPreferences) HasLocationPreference() bool {
	return p.RemotePreference || len(p.PreferredLocations) > 0
}

func TrimList(xs []string) []string {
	seen := map[string]bool{}
	var ys []string
	for _, x := range xs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		key := strings.ToLower(x)
		if seen[key] {
			continue
		}
		seen[key] = true
		ys = append(ys, x)
	}
	return ys
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
