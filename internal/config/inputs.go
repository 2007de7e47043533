package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"jobscout-engine/internal/domain"
)

type CompaniesFile struct {
	Companies []domain.CompanyTarget `yaml:"companies"`
}

// LoadCompanies reads a YAML list of company targets.
func LoadCompanies(path string) ([]domain.CompanyTarget, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cf CompaniesFile
	if err := yaml.Unmarshal(b, &cf); err != nil {
		return nil, fmt.Errorf("parse companies %s: %w", path, err)
	}
	return cf.Companies, nil
}

// LoadProfile reads the candidate preference profile.
func LoadProfile(path string) (domain.UserPreferences, error) {
	var p domain.UserPreferences
	b, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return p.Normalized(), nil
}
