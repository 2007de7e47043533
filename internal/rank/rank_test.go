package rank

import (
	"context"
	"errors"
	"math"
	"testing"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/oracle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumWeights(w map[domain.Dimension]float64) float64 {
	s := 0.0
	for _, v := range w {
		s += v
	}
	return s
}

func TestSkillsPartialMatchContribution(t *testing.T) {
	job := domain.ExtractedJob{Title: "Backend Engineer", Skills: []string{"Python", "AWS"}}
	p := domain.UserPreferences{Skills: []string{"Python", "Docker"}}

	rj := Score(job, p, WeightsFor(p))
	assert.InDelta(t, 50.0, rj.DimensionScores[domain.DimSkills], 1e-9)
	assert.InDelta(t, 0.35, rj.Weights[domain.DimSkills], 1e-9)
	assert.InDelta(t, 17.5, rj.DimensionScores[domain.DimSkills]*rj.Weights[domain.DimSkills], 1e-9)
}

func TestWeightsAlwaysSumToOne(t *testing.T) {
	profiles := []domain.UserPreferences{
		{},
		{Skills: []string{"a", "b", "c", "d", "e"}},
		{PreferredLocations: []string{"Berlin"}},
		{PreferredLocations: []string{"Remote"}, RemotePreference: true},
		{Skills: []string{"a", "b", "c", "d", "e", "f"}, PreferredLocations: []string{"NYC"}},
	}
	for _, p := range profiles {
		w := WeightsFor(p)
		assert.InDelta(t, 1.0, sumWeights(w), 1e-6)
		assert.Len(t, w, len(domain.Dimensions))
	}
}

func TestWeightAdjustments(t *testing.T) {
	base := WeightsFor(domain.UserPreferences{})
	assert.InDelta(t, 0.35, base[domain.DimSkills], 1e-9)
	assert.InDelta(t, 0.25, base[domain.DimLocation], 1e-9)

	many := WeightsFor(domain.UserPreferences{Skills: []string{"a", "b", "c", "d", "e"}})
	assert.Greater(t, many[domain.DimSkills], base[domain.DimSkills])
	assert.Less(t, many[domain.DimLocation], base[domain.DimLocation])

	concrete := WeightsFor(domain.UserPreferences{PreferredLocations: []string{"Paris"}})
	assert.Greater(t, concrete[domain.DimLocation], base[domain.DimLocation])

	remoteOnly := WeightsFor(domain.UserPreferences{PreferredLocations: []string{"remote"}})
	assert.Equal(t, base, remoteOnly)
}

func TestOverallIsReproducible(t *testing.T) {
	jobs := []domain.ExtractedJob{
		{Title: "Senior Go Engineer", Location: "Remote", Description: "golang kubernetes"},
		{Title: "Junior Analyst", Location: "Austin, TX"},
		{Title: "Design Intern", Location: "Paris"},
	}
	p := domain.UserPreferences{
		Skills:             []string{"golang", "kubernetes", "sql", "python", "aws"},
		PreferredLocations: []string{"Austin"},
		YearsExperience:    4,
		DesiredRoles:       []string{"Software Engineer"},
	}

	r := New(Options{}, nil, nil)
	out := r.Rank(context.Background(), jobs, p)
	require.Len(t, out, 3)

	for _, rj := range out {
		sum := 0.0
		for d, s := range rj.DimensionScores {
			sum += s * rj.Weights[d]
		}
		assert.InDelta(t, sum, rj.OverallScore, 1e-9)
		assert.InDelta(t, 1.0, sumWeights(rj.Weights), 1e-6)
		assert.NotEmpty(t, rj.Explanation)
		assert.Equal(t, Recommendation(rj.OverallScore), rj.Recommendation)
	}
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].OverallScore, out[i].OverallScore)
	}
	assert.Equal(t, "Senior Go Engineer", out[0].Job.Title)
}

func TestScoreLocation(t *testing.T) {
	remote := domain.ExtractedJob{Location: "Remote - US"}
	austin := domain.ExtractedJob{Location: "Austin, TX"}

	assert.Equal(t, 100.0, ScoreLocation(remote, domain.UserPreferences{RemotePreference: true}))
	assert.Equal(t, 90.0, ScoreLocation(austin, domain.UserPreferences{PreferredLocations: []string{"austin"}}))
	assert.Equal(t, 80.0, ScoreLocation(remote, domain.UserPreferences{PreferredLocations: []string{"Berlin"}}))
	assert.Equal(t, 50.0, ScoreLocation(austin, domain.UserPreferences{}))
	assert.Equal(t, 20.0, ScoreLocation(austin, domain.UserPreferences{PreferredLocations: []string{"Berlin"}}))
}

func TestScoreExperience(t *testing.T) {
	cases := []struct {
		title string
		years int
		want  float64
	}{
		{"Senior Engineer", 5, 100},
		{"Sr. Engineer", 4, 90},
		{"Engineer", 5, 75},
		{"Tech Lead", 4, 60},
		{"Software Engineering Intern", 8, 40},
		{"Junior Developer", 1, 100},
	}
	for _, tc := range cases {
		got := ScoreExperience(domain.ExtractedJob{Title: tc.title}, domain.UserPreferences{YearsExperience: tc.years})
		assert.Equal(t, tc.want, got, tc.title)
	}

	assert.Equal(t, 7, RequiredYears(domain.ExtractedJob{Title: "Engineer", Description: "You will be the staff lead"}))
	assert.Equal(t, 3, RequiredYears(domain.ExtractedJob{Title: "Leader of things"}))
}

func TestScoreRole(t *testing.T) {
	p := domain.UserPreferences{DesiredRoles: []string{"Backend Engineer"}}
	assert.Equal(t, 95.0, ScoreRole(domain.ExtractedJob{Title: "Senior Backend Engineer"}, p))
	assert.Equal(t, 70.0, ScoreRole(domain.ExtractedJob{Title: "Platform Engineer"}, p))
	assert.Equal(t, 30.0, ScoreRole(domain.ExtractedJob{Title: "Account Executive"}, p))
	assert.Equal(t, 50.0, ScoreRole(domain.ExtractedJob{Title: "Anything"}, domain.UserPreferences{}))
}

func TestScoreSkillsWordBoundaries(t *testing.T) {
	p := domain.UserPreferences{Skills: []string{"Go", "Java"}}
	job := domain.ExtractedJob{Title: "JavaScript dev at Google"}
	assert.Equal(t, 0.0, ScoreSkills(job, p))

	job.Description = "We use Go and Java."
	assert.Equal(t, 100.0, ScoreSkills(job, p))
	assert.Equal(t, 50.0, ScoreSkills(job, domain.UserPreferences{}))
}

func TestRecommendationBuckets(t *testing.T) {
	assert.Equal(t, "Highly Recommended", Recommendation(80))
	assert.Equal(t, "Recommended", Recommendation(79.99))
	assert.Equal(t, "Consider", Recommendation(40))
	assert.Equal(t, "Not Recommended", Recommendation(39.9))
}

func TestOracleExplanationWithFallback(t *testing.T) {
	calls := 0
	o := &oracle.Fake{Reply: func(string, []byte) (string, error) {
		calls++
		if calls == 2 {
			return "", errors.New("rate limited")
		}
		return "  Great remote match.  ", nil
	}}
	r := New(Options{MaxOracleExplanations: 2}, o, nil)

	jobs := []domain.ExtractedJob{{Title: "A Engineer"}, {Title: "B Engineer"}, {Title: "C Engineer"}}
	out := r.Rank(context.Background(), jobs, domain.UserPreferences{})

	require.Len(t, out, 3)
	assert.Equal(t, "Great remote match.", out[0].Explanation)
	assert.Equal(t, TemplateExplanation(out[1]), out[1].Explanation)
	assert.Equal(t, TemplateExplanation(out[2]), out[2].Explanation)
	assert.Equal(t, 2, o.CallCount())
}

func TestTemplateExplanationIsDeterministic(t *testing.T) {
	rj := Score(domain.ExtractedJob{Title: "Engineer", Location: "Remote"},
		domain.UserPreferences{RemotePreference: true, YearsExperience: 3}, DefaultWeights)
	a, b := TemplateExplanation(rj), TemplateExplanation(rj)
	assert.Equal(t, a, b)
	assert.Contains(t, a, "location (100)")
	assert.False(t, math.IsNaN(rj.OverallScore))
}
