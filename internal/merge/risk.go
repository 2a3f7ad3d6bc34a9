package merge

import (
	"fmt"
	"strings"
	"time"

	"github.com/scottgpt/career-cli/internal/dedupe"
	"github.com/scottgpt/career-cli/internal/model"
	"github.com/scottgpt/career-cli/internal/temporal"
)

// RiskType names a merge risk.
type RiskType string

const (
	RiskContentDivergence RiskType = "content_divergence"
	RiskSkillsMismatch    RiskType = "skills_mismatch"
	RiskDateMismatch      RiskType = "date_mismatch"
	RiskDataLoss          RiskType = "data_loss"
)

// Severity and Priority share the same three levels.
type (
	Severity string
	Priority string
)

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"

	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Risk is one reason to double-check a merge.
type Risk struct {
	Type     RiskType `json:"type"`
	Severity Severity `json:"severity"`
	Detail   string   `json:"detail"`
}

// RecommendationType is the suggested action.
type RecommendationType string

const (
	RecommendProceed     RecommendationType = "proceed"
	RecommendCaution     RecommendationType = "caution"
	RecommendInvestigate RecommendationType = "investigate"
)

// Recommendation is an action derived from quality and risks.
type Recommendation struct {
	Type     RecommendationType `json:"type"`
	Priority Priority           `json:"priority"`
	Detail   string             `json:"detail"`
}

// IdentifyRisks compares the two inputs. lost lists fields the merge emptied.
func (e *Engine) IdentifyRisks(source, target model.Position, lost []string) []Risk {
	risks := []Risk{}

	if source.Description != "" && target.Description != "" {
		if overlap := dedupe.WordOverlap(source.Description, target.Description); overlap < e.cfg.ContentDivergenceOverlap {
			risks = append(risks, Risk{
				Type:     RiskContentDivergence,
				Severity: SeverityMedium,
				Detail:   fmt.Sprintf("descriptions share %.0f%% of their words", overlap*100),
			})
		}
	}

	if len(source.Skills) > 0 && len(target.Skills) > 0 {
		if overlap := dedupe.SkillOverlap(source.Skills, target.Skills); overlap < e.cfg.SkillsMismatchOverlap {
			risks = append(risks, Risk{
				Type:     RiskSkillsMismatch,
				Severity: SeverityLow,
				Detail:   fmt.Sprintf("skill sets overlap by %.0f%%", overlap*100),
			})
		}
	}

	if s, sok := temporal.ParseDate(source.DateStart); sok {
		if t, tok := temporal.ParseDate(target.DateStart); tok {
			if months := monthsApart(s, t); months > e.cfg.DateMismatchMonths {
				risks = append(risks, Risk{
					Type:     RiskDateMismatch,
					Severity: SeverityHigh,
					Detail: fmt.Sprintf("start dates %s and %s are %d months apart",
						source.DateStart, target.DateStart, months),
				})
			}
		}
	}

	if len(lost) > 0 {
		risks = append(risks, Risk{
			Type:     RiskDataLoss,
			Severity: SeverityHigh,
			Detail:   "merge empties populated fields: " + strings.Join(lost, ", "),
		})
	}
	return risks
}

func monthsApart(a, b time.Time) int {
	if b.Before(a) {
		a, b = b, a
	}
	return temporal.MonthsBetween(a, b)
}

// Recommend maps quality and risks to recommendations. Any high severity risk
// forces an investigate recommendation whatever the score.
func (e *Engine) Recommend(q Quality, risks []Risk) []Recommendation {
	var recs []Recommendation

	var high, medium []string
	for _, r := range risks {
		switch r.Severity {
		case SeverityHigh:
			high = append(high, string(r.Type))
		case SeverityMedium:
			medium = append(medium, string(r.Type))
		}
	}

	if len(high) > 0 {
		recs = append(recs, Recommendation{
			Type:     RecommendInvestigate,
			Priority: PriorityHigh,
			Detail:   "review before merging: " + strings.Join(high, ", "),
		})
	}
	if len(medium) > 0 {
		recs = append(recs, Recommendation{
			Type:     RecommendCaution,
			Priority: PriorityMedium,
			Detail:   "check the merged record for " + strings.Join(medium, ", "),
		})
	}
	if q.Score < e.cfg.FairScore {
		recs = append(recs, Recommendation{
			Type:     RecommendCaution,
			Priority: PriorityHigh,
			Detail:   fmt.Sprintf("merge quality is %s (%.2f)", q.Grade, q.Score),
		})
	}

	if len(recs) == 0 {
		priority := PriorityMedium
		if q.Score >= e.cfg.GoodScore {
			priority = PriorityLow
		}
		recs = append(recs, Recommendation{
			Type:     RecommendProceed,
			Priority: priority,
			Detail:   fmt.Sprintf("merge quality is %s (%.2f)", q.Grade, q.Score),
		})
	}
	return recs
}
