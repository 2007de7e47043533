package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowFailureIsTerminal(t *testing.T) {
	now := time.Now()
	w := WorkflowExecution{ID: "x", Status: StepRunning, StartedAt: now}

	i := w.Begin("locate", now)
	w.End(i, nil, now)
	j := w.Begin("render", now)
	w.End(j, errors.New("timeout"), now)

	assert.True(t, w.Terminal())
	assert.Equal(t, StepFailed, w.Status)
	assert.Equal(t, "render", w.FailedStep())
	require.NotNil(t, w.EndedAt)

	assert.Equal(t, -1, w.Begin("extract", now))
	w.Complete(now)
	assert.Equal(t, StepFailed, w.Status)
	assert.Len(t, w.Steps, 2)
}

func TestWorkflowEndIgnoresClosedSteps(t *testing.T) {
	now := time.Now()
	w := WorkflowExecution{Status: StepRunning}
	i := w.Begin("locate", now)
	w.End(i, nil, now)
	w.End(i, errors.New("late"), now)
	w.End(7, errors.New("bogus"), now)

	assert.Equal(t, StepCompleted, w.Steps[0].Status)
	assert.False(t, w.Terminal())
	w.Complete(now)
	assert.Equal(t, StepCompleted, w.Status)
}

func TestCompanyHostAndSlug(t *testing.T) {
	c := CompanyTarget{Name: "Acme Corp.", WebsiteURL: "WWW.Acme.com/about"}
	assert.Equal(t, "acme.com", c.Host())
	assert.Equal(t, "acmecorp", c.Slug())
	assert.Empty(t, CompanyTarget{WebsiteURL: "https://"}.Host())
}

func TestCareerPageResultExpiry(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := CareerPageResult{URL: "https://acme.com/careers", Confidence: 0.7, DiscoveredAt: at, TTL: time.Hour}

	assert.True(t, r.Found())
	assert.False(t, r.Expired(at.Add(59*time.Minute)))
	assert.True(t, r.Expired(at.Add(time.Hour)))
	assert.True(t, CareerPageResult{}.Expired(at))
	assert.False(t, CareerPageResult{URL: "https://x", Confidence: 0}.Found())
}

func TestPreferencesNormalized(t *testing.T) {
	p := UserPreferences{
		Skills:             []string{" Go", "go", "", "Kubernetes"},
		PreferredLocations: []string{"Remote"},
	}.Normalized()

	assert.Equal(t, []string{"Go", "Kubernetes"}, p.Skills)
	assert.False(t, p.HasConcreteLocation())
	assert.True(t, p.HasLocationPreference())
}

func TestRawPageContentHTMLPrefersRendered(t *testing.T) {
	c := RawPageContent{StaticHTML: "<p>static</p>", RenderedHTML: "<p>rendered</p>"}
	assert.Equal(t, "<p>rendered</p>", c.HTML())
	assert.True(t, RawPageContent{}.Empty())
	assert.False(t, RawPageContent{Screenshot: []byte{1}}.Empty())
}
