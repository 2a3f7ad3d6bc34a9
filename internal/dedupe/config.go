package dedupe

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/scottgpt/career-cli/internal/config"
)

// DefaultThreshold is the minimum pair score used when the caller supplies none.
const DefaultThreshold = 0.7

// DefaultDetectionConfig returns a config.DetectionConfig with sensible defaults.
// Weights sum to 1.
func DefaultDetectionConfig() config.DetectionConfig {
	return config.DetectionConfig{
		Threshold:          DefaultThreshold,
		HighConfidence:     0.9,
		MediumConfidence:   0.7,
		MatchedFieldCutoff: 0.8,
		// Same as the boomerang gap, so a boomerang's stints never pair up.
		SeparateStintGapDays: 180,
		Weights: config.DetectionWeights{
			Title:       0.30,
			Org:         0.25,
			Dates:       0.20,
			Skills:      0.15,
			Description: 0.10,
		},
	}
}

// ValidateConfig checks that a DetectionConfig is internally consistent.
func ValidateConfig(c config.DetectionConfig) error {
	var errs []string

	if c.Threshold <= 0 || c.Threshold > 1 {
		errs = append(errs, "threshold must be in (0, 1]")
	}
	if c.HighConfidence < c.MediumConfidence {
		errs = append(errs, "high_confidence must be >= medium_confidence")
	}
	if c.MatchedFieldCutoff < 0 || c.MatchedFieldCutoff > 1 {
		errs = append(errs, "matched_field_cutoff must be in [0, 1]")
	}

	if c.SeparateStintGapDays < 0 {
		errs = append(errs, "separate_stint_gap_days must be >= 0")
	}

	w := c.Weights
	weights := map[string]float64{
		"title":       w.Title,
		"org":         w.Org,
		"dates":       w.Dates,
		"skills":      w.Skills,
		"description": w.Description,
	}
	for _, name := range []string{"title", "org", "dates", "skills", "description"} {
		if weights[name] < 0 {
			errs = append(errs, fmt.Sprintf("weights.%s must be >= 0", name))
		}
	}
	if w.Title+w.Org+w.Dates+w.Skills+w.Description <= 0 {
		errs = append(errs, "weights must sum to > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("dedupe: invalid detection config: %s", strings.Join(errs, "; "))
	}
	return nil
}
