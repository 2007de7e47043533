package config

import (
	"fmt"
	"strings"

	"jobscout-engine/internal/domain"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err joins the errors into one error, or nil when OK.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return fmt.Errorf("config validation failed:\n- %s", strings.Join(v.Errors, "\n- "))
}

// NormalizeAndValidate returns a normalized copy plus its problems.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	out.Locator.Paths = domain.TrimList(out.Locator.Paths)
	out.Locator.ATSHosts = domain.TrimList(out.Locator.ATSHosts)
	out.Renderer.JSHeavyHosts = domain.TrimList(out.Renderer.JSHeavyHosts)

	if t := out.Locator.ValidityThreshold; t <= 0 || t > 1 {
		res.addErr("locator.validity_threshold must be in (0,1], got %v", t)
	}
	if out.Locator.MaxCandidates > 50 {
		res.addWarn("locator.max_candidates is %d; every candidate is fetched.", out.Locator.MaxCandidates)
	}

	switch out.Cache.Backend {
	case "memory":
	case "redis":
		if strings.TrimSpace(out.Cache.RedisAddr) == "" {
			res.addErr("cache.redis_addr is required when cache.backend=redis")
		}
	default:
		res.addErr("cache.backend must be memory or redis, got %q", out.Cache.Backend)
	}

	if out.Renderer.ScrollBudget > 30 {
		res.addWarn("renderer.scroll_budget is very high (%d) and slows every render.", out.Renderer.ScrollBudget)
	}
	if out.Renderer.StableIterations > out.Renderer.ScrollBudget {
		res.addWarn("renderer.stable_iterations (%d) exceeds scroll_budget (%d); height never counts as stable.",
			out.Renderer.StableIterations, out.Renderer.ScrollBudget)
	}

	if out.Oracle.Enabled {
		if strings.TrimSpace(out.Oracle.BaseURL) == "" {
			res.addErr("oracle.base_url is required when oracle.enabled=true")
		}
		if strings.TrimSpace(out.Oracle.Model) == "" {
			res.addErr("oracle.model is required when oracle.enabled=true")
		}
	}
	if out.Extractor.EnableVision && out.Oracle.VisionModel == "" {
		res.addWarn("extractor.enable_vision is set but oracle.vision_model is empty; vision extraction will be skipped.")
	}

	if out.Pipeline.MaxConcurrency < 1 {
		res.addErr("pipeline.max_concurrency must be >= 1")
	} else if out.Pipeline.MaxConcurrency > 16 {
		res.addWarn("pipeline.max_concurrency is %d; each slot may hold a browser page.", out.Pipeline.MaxConcurrency)
	}
	if out.Pipeline.BatchSize < 1 {
		res.addErr("pipeline.batch_size must be >= 1")
	}

	return out, res
}
