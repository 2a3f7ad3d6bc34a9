// Package progression classifies same-company position sequences into
// progression patterns and detects boomerang employment.
package progression

import (
	"fmt"
	"strings"

	"github.com/scottgpt/career-cli/internal/config"
	"github.com/scottgpt/career-cli/internal/model"
	"github.com/scottgpt/career-cli/internal/temporal"
)

// Pattern buckets a progression score.
type Pattern string

const (
	PatternSingleRole   Pattern = "single_role"
	PatternLateral      Pattern = "lateral"
	PatternUpward       Pattern = "upward"
	PatternStrongUpward Pattern = "strong_upward"
)

// Transition is one step between consecutive positions.
type Transition struct {
	From       string   `json:"from"`
	To         string   `json:"to"`
	Date       string   `json:"date"`
	Indicators []string `json:"indicators"`
}

// CareerProgression summarizes the transitions within one company.
type CareerProgression struct {
	Pattern          Pattern      `json:"pattern"`
	Promotions       []Transition `json:"promotions"`
	LateralMoves     []Transition `json:"lateralMoves"`
	ProgressionScore float64      `json:"progressionScore"`
	Insights         []string     `json:"insights"`
}

// Analyzer classifies transitions against a seniority ladder.
type Analyzer struct {
	cfg      config.GroupingConfig
	ladder   Ladder
	temporal *temporal.Analyzer
}

// NewAnalyzer creates an Analyzer. A nil temporal analyzer uses the wall clock.
func NewAnalyzer(cfg config.GroupingConfig, ladder Ladder, ta *temporal.Analyzer) *Analyzer {
	if ta == nil {
		ta = temporal.NewAnalyzer()
	}
	return &Analyzer{cfg: cfg, ladder: ladder, temporal: ta}
}

// Ladder returns the analyzer's seniority ladder.
func (a *Analyzer) Ladder() Ladder {
	return a.ladder
}

// Analyze classifies each consecutive pair of positions. Positions must
// already be in chronological order.
func (a *Analyzer) Analyze(positions []model.Position) CareerProgression {
	out := CareerProgression{
		Pattern:      PatternSingleRole,
		Promotions:   []Transition{},
		LateralMoves: []Transition{},
	}
	if len(positions) < 2 {
		out.Insights = []string{"Single role held"}
		return out
	}

	for i := 1; i < len(positions); i++ {
		prev, next := positions[i-1], positions[i]
		t, promoted := a.classify(prev, next)
		if promoted {
			out.Promotions = append(out.Promotions, t)
		} else {
			out.LateralMoves = append(out.LateralMoves, t)
		}
	}

	transitions := len(positions) - 1
	out.ProgressionScore = float64(len(out.Promotions)-len(out.LateralMoves)) / float64(transitions)
	out.Pattern = a.bucket(out.ProgressionScore)
	out.Insights = progressionInsights(out)
	return out
}

func (a *Analyzer) classify(prev, next model.Position) (Transition, bool) {
	t := Transition{From: prev.Title, To: next.Title, Date: next.DateStart}
	fromLevel, _ := a.ladder.Level(prev.Title)
	toLevel, marker := a.ladder.Level(next.Title)

	switch {
	case toLevel > fromLevel:
		if marker != "" {
			t.Indicators = append(t.Indicators, fmt.Sprintf("gained %q seniority marker", marker))
		}
		t.Indicators = append(t.Indicators, fmt.Sprintf("seniority level %d to %d", fromLevel, toLevel))
		return t, true
	case strings.EqualFold(strings.TrimSpace(prev.Title), strings.TrimSpace(next.Title)):
		t.Indicators = []string{"title unchanged"}
	case toLevel < fromLevel:
		t.Indicators = []string{"seniority decreased", fmt.Sprintf("seniority level %d to %d", fromLevel, toLevel)}
	default:
		t.Indicators = []string{"title changed without seniority gain"}
	}
	return t, false
}

// bucket maps a score to a pattern. Higher scores never map to a lower bucket.
func (a *Analyzer) bucket(score float64) Pattern {
	switch {
	case score >= a.cfg.StrongUpwardScore:
		return PatternStrongUpward
	case score >= a.cfg.UpwardScore:
		return PatternUpward
	default:
		return PatternLateral
	}
}

func progressionInsights(p CareerProgression) []string {
	insights := []string{
		countPhrase(len(p.Promotions), "promotion", "promotions") + " identified",
	}
	if n := len(p.LateralMoves); n > 0 {
		insights = append(insights, countPhrase(n, "lateral move", "lateral moves"))
	}
	switch p.Pattern {
	case PatternStrongUpward:
		insights = append(insights, "Consistent upward trajectory")
	case PatternUpward:
		insights = append(insights, "Overall upward trajectory")
	case PatternLateral:
		insights = append(insights, "Mostly lateral movement")
	}
	return insights
}

func countPhrase(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %s", n, plural)
}
