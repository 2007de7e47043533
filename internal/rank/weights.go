package rank

import "jobscout-engine/internal/domain"

var DefaultWeights = map[domain.Dimension]float64{
	domain.DimSkills:     0.35,
	domain.DimLocation:   0.25,
	domain.DimExperience: 0.20,
	domain.DimRole:       0.15,
	domain.DimCompany:    0.05,
}

const (
	manySkills         = 5
	manySkillsShift    = 0.10 // moved from location to skills
	concreteLocationUp = 0.10
)

// WeightsFor adjusts the defaults for the profile and renormalizes so the
// weights sum to 1.
func WeightsFor(p domain.UserPreferences) map[domain.Dimension]float64 {
	w := make(map[domain.Dimension]float64, len(DefaultWeights))
	for d, v := range DefaultWeights {
		w[d] = v
	}

	if len(p.Skills) >= manySkills {
		w[domain.DimSkills] += manySkillsShift
		w[domain.DimLocation] -= manySkillsShift
	}
	if p.HasConcreteLocation() {
		w[domain.DimLocation] += concreteLocationUp
	}

	sum := 0.0
	for _, d := range domain.Dimensions {
		sum += w[d]
	}
	for _, d := range domain.Dimensions {
		w[d] /= sum
	}
	return w
}

// Overall is Σ score·weight over the fixed dimension order.
func Overall(scores, weights map[domain.Dimension]float64) float64 {
	total := 0.0
	for _, d := range domain.Dimensions {
		total += scores[d] * weights[d]
	}
	return total
}

func Recommendation(overall float64) string {
	switch {
	case overall >= 80:
		return "Highly Recommended"
	case overall >= 60:
		return "Recommended"
	case overall >= 40:
		return "Consider"
	default:
		return "Not Recommended"
	}
}
