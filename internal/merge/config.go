package merge

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/scottgpt/career-cli/internal/config"
)

// DefaultMergeConfig returns a config.MergeConfig with sensible defaults.
func DefaultMergeConfig() config.MergeConfig {
	return config.MergeConfig{
		DateMismatchMonths:       3,
		ContentDivergenceOverlap: 0.3,
		SkillsMismatchOverlap:    0.1,

		// Grade cutoffs.
		ExcellentScore: 0.85,
		GoodScore:      0.7,
		FairScore:      0.5,
	}
}

// ValidateConfig checks that a MergeConfig is internally consistent. Field
// strategy problems are not errors; NewEngine reports them as warnings.
func ValidateConfig(c config.MergeConfig) error {
	var errs []string

	if !(c.ExcellentScore >= c.GoodScore && c.GoodScore >= c.FairScore) {
		errs = append(errs, "grade scores must be ordered excellent >= good >= fair")
	}
	if c.ExcellentScore > 1 || c.FairScore < 0 {
		errs = append(errs, "grade scores must be within [0, 1]")
	}
	if c.DateMismatchMonths < 0 {
		errs = append(errs, "date_mismatch_months must be >= 0")
	}
	if c.ContentDivergenceOverlap < 0 || c.ContentDivergenceOverlap > 1 {
		errs = append(errs, "content_divergence_overlap must be in [0, 1]")
	}
	if c.SkillsMismatchOverlap < 0 || c.SkillsMismatchOverlap > 1 {
		errs = append(errs, "skills_mismatch_overlap must be in [0, 1]")
	}

	if len(errs) > 0 {
		return eris.Errorf("merge: invalid merge config: %s", strings.Join(errs, "; "))
	}
	return nil
}
