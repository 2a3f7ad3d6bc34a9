package company

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/scottgpt/career-cli/internal/config"
)

// DefaultGroupingConfig returns a config.GroupingConfig with sensible defaults.
func DefaultGroupingConfig() config.GroupingConfig {
	return config.GroupingConfig{
		BoomerangGapDays: 180, // roughly six months

		// Progression buckets over (promotions - lateral) / transitions.
		StrongUpwardScore: 0.75,
		UpwardScore:       0.25,

		// Display hint thresholds.
		HighlightTenureMonths: 60,
		StableTenureMonths:    48,
		ModerateTenureMonths:  18,

		TopSkills: 5,
	}
}

// ValidateConfig checks that a GroupingConfig is internally consistent.
func ValidateConfig(c config.GroupingConfig) error {
	var errs []string

	if c.BoomerangGapDays < 0 {
		errs = append(errs, "boomerang_gap_days must be >= 0")
	}
	if c.StrongUpwardScore < c.UpwardScore {
		errs = append(errs, "strong_upward_score must be >= upward_score")
	}
	if c.UpwardScore < -1 || c.StrongUpwardScore > 1 {
		errs = append(errs, "progression scores must be within [-1, 1]")
	}
	if c.StableTenureMonths < c.ModerateTenureMonths {
		errs = append(errs, "stable_tenure_months must be >= moderate_tenure_months")
	}
	if c.HighlightTenureMonths < 0 || c.ModerateTenureMonths < 0 {
		errs = append(errs, "tenure thresholds must be >= 0")
	}
	if c.TopSkills < 0 {
		errs = append(errs, "top_skills must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("company: invalid grouping config: %s", strings.Join(errs, "; "))
	}
	return nil
}
