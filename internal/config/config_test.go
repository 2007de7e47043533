package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Locator.ValidityThreshold)
	assert.Equal(t, 10, cfg.Locator.MaxCandidates)
	assert.Equal(t, 5, cfg.Renderer.ScrollBudget)
	assert.Equal(t, 3, cfg.Pipeline.MaxConcurrency)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.True(t, cfg.Renderer.Enabled)
}

func TestLoadOverridesFromYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yml := `
locator:
  validity_threshold: 0.7
renderer:
  scroll_budget: 8
pipeline:
  max_concurrency: 2
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("JOBSCOUT_MAX_CONCURRENCY", "6")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.7, cfg.Locator.ValidityThreshold)
	assert.Equal(t, 8, cfg.Renderer.ScrollBudget)
	assert.Equal(t, 6, cfg.Pipeline.MaxConcurrency)
	assert.Equal(t, 10, cfg.Locator.MaxCandidates)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("locator: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNormalizeAndValidate(t *testing.T) {
	cfg := Default()
	cfg.Cache.Backend = "redis"
	cfg.Locator.Paths = []string{" /careers ", "/careers", "", "/jobs"}

	out, v := NormalizeAndValidate(cfg)

	assert.False(t, v.OK())
	assert.Contains(t, v.Errors[0], "redis_addr")
	assert.Equal(t, []string{"/careers", "/jobs"}, out.Locator.Paths)
	assert.Error(t, v.Err())

	_, v = NormalizeAndValidate(Default())
	assert.True(t, v.OK())
	assert.NoError(t, v.Err())
}

func TestEnsureUserConfigCopiesTemplate(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "default.yml")
	require.NoError(t, os.WriteFile(tmpl, []byte("app:\n  log_level: debug\n"), 0o644))

	dataDir := filepath.Join(dir, "data")
	p, err := EnsureUserConfig(dataDir, tmpl)
	require.NoError(t, err)

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), "log_level: debug")
}

func TestLoadCompaniesAndProfile(t *testing.T) {
	dir := t.TempDir()
	cp := filepath.Join(dir, "companies.yml")
	pp := filepath.Join(dir, "profile.yml")
	require.NoError(t, os.WriteFile(cp, []byte(`
companies:
  - id: "1"
    name: Acme
    website_url: https://acme.example
`), 0o644))
	require.NoError(t, os.WriteFile(pp, []byte(`
skills: [Python, " python ", Docker]
years_experience: 4
`), 0o644))

	cs, err := LoadCompanies(cp)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, "Acme", cs[0].Name)

	p, err := LoadProfile(pp)
	require.NoError(t, err)
	assert.Equal(t, []string{"Python", "Docker"}, p.Skills)
	assert.Equal(t, 4, p.YearsExperience)
}
