package merge

import (
	"math"
	"strings"

	"github.com/scottgpt/career-cli/internal/model"
	"github.com/scottgpt/career-cli/internal/temporal"
)

// Grade is a coarse merge quality label.
type Grade string

const (
	GradeExcellent Grade = "Excellent"
	GradeGood      Grade = "Good"
	GradeFair      Grade = "Fair"
	GradePoor      Grade = "Poor"
)

// Quality factor weights.
const (
	completenessWeight = 0.4
	detailGainWeight   = 0.3
	consistencyWeight  = 0.3
	lostFieldPenalty   = 0.25
)

// QualityFactors are the inputs to the quality score.
type QualityFactors struct {
	Completeness float64  `json:"completeness"`
	DetailGain   float64  `json:"detailGain"`
	Consistency  float64  `json:"consistency"`
	LostFields   []string `json:"lostFields"`
}

// Quality scores a merged record in [0, 1].
type Quality struct {
	Score   float64        `json:"score"`
	Grade   Grade          `json:"grade"`
	Factors QualityFactors `json:"factors"`
}

// AssessQuality scores merged against the original target record. lost lists
// fields that became empty and is penalized per field.
func (e *Engine) AssessQuality(original, merged model.Position, lost []string) Quality {
	f := QualityFactors{
		Completeness: Completeness(merged),
		DetailGain:   detailGain(original, merged),
		Consistency:  consistency(merged),
		LostFields:   append([]string{}, lost...),
	}

	score := completenessWeight*f.Completeness +
		detailGainWeight*f.DetailGain +
		consistencyWeight*f.Consistency -
		lostFieldPenalty*float64(len(lost))
	score = math.Round(math.Max(0, math.Min(1, score))*1000) / 1000

	return Quality{Score: score, Grade: e.grade(score), Factors: f}
}

func (e *Engine) grade(score float64) Grade {
	switch {
	case score >= e.cfg.ExcellentScore:
		return GradeExcellent
	case score >= e.cfg.GoodScore:
		return GradeGood
	case score >= e.cfg.FairScore:
		return GradeFair
	default:
		return GradePoor
	}
}

// Completeness is the share of the checklist (title, org, description, skills,
// location, parseable start date) that is populated. Each item weighs the same.
func Completeness(p model.Position) float64 {
	checks := []bool{
		p.Title != "",
		p.Org != "",
		p.Description != "",
		len(p.Skills) > 0,
		p.Location != "",
		validDate(p.DateStart),
	}
	filled := 0
	for _, ok := range checks {
		if ok {
			filled++
		}
	}
	return float64(filled) / float64(len(checks))
}

// detailGain averages the description and skills gains. Each part scores 1
// when the merge made it richer, 0.5 when unchanged and populated, 0 otherwise.
func detailGain(original, merged model.Position) float64 {
	desc := gain(len(strings.Fields(original.Description)), len(strings.Fields(merged.Description)))
	skills := gain(len(setKeys(original.Skills)), len(setKeys(merged.Skills)))
	return (desc + skills) / 2
}

func gain(before, after int) float64 {
	switch {
	case after > before:
		return 1
	case after == before && after > 0:
		return 0.5
	default:
		return 0
	}
}

// consistency is 1 for a valid non-negative interval, 0.5 when the start is
// unknown and 0 when the end precedes the start.
func consistency(p model.Position) float64 {
	start, ok := temporal.ParseDate(p.DateStart)
	if !ok {
		return 0.5
	}
	if p.DateEnd == "" {
		return 1
	}
	end, ok := temporal.ParseDate(p.DateEnd)
	if !ok {
		return 0.5
	}
	if end.Before(start) {
		return 0
	}
	return 1
}

func validDate(s string) bool {
	_, ok := temporal.ParseDate(s)
	return ok
}
