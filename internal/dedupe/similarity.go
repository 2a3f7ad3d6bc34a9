package dedupe

import (
	"strings"

	"github.com/agext/levenshtein"

	"github.com/scottgpt/career-cli/internal/model"
	"github.com/scottgpt/career-cli/internal/temporal"
)

// Similarity components, in display order.
const (
	ComponentTitle       = "title"
	ComponentOrg         = "org"
	ComponentDates       = "dates"
	ComponentSkills      = "skills"
	ComponentDescription = "description"
)

var componentOrder = []string{
	ComponentTitle,
	ComponentOrg,
	ComponentDates,
	ComponentSkills,
	ComponentDescription,
}

// PairScore is the weighted similarity of two jobs. Components holds the raw
// score of every component that participated.
type PairScore struct {
	Score      float64            `json:"score"`
	Components map[string]float64 `json:"components"`
	// SeparateStints is set when both date ranges are known and the gap between
	// them exceeds SeparateStintGapDays. Such pairs never pass detection.
	SeparateStints bool `json:"separateStints,omitempty"`
}

// Similarity scores two jobs. A component participates when at least one side
// has data for it; weights are renormalized over participating components.
func (d *Detector) Similarity(a, b model.Position) PairScore {
	out := PairScore{Components: make(map[string]float64)}
	w := d.cfg.Weights

	var sum, weight float64
	add := func(name string, wt, score float64) {
		out.Components[name] = score
		sum += wt * score
		weight += wt
	}

	if a.Title != "" || b.Title != "" {
		add(ComponentTitle, w.Title, titleSimilarity(a.Title, b.Title))
	}
	if a.Org != "" || b.Org != "" {
		add(ComponentOrg, w.Org, d.orgSimilarity(a.Org, b.Org))
	}
	if _, aok := temporal.ParseDate(a.DateStart); aok {
		add(ComponentDates, w.Dates, d.dateSimilarity(a, b))
	} else if _, bok := temporal.ParseDate(b.DateStart); bok {
		add(ComponentDates, w.Dates, 0)
	}
	if len(a.Skills) > 0 || len(b.Skills) > 0 {
		add(ComponentSkills, w.Skills, SkillOverlap(a.Skills, b.Skills))
	}
	if a.Description != "" || b.Description != "" {
		add(ComponentDescription, w.Description, WordOverlap(a.Description, b.Description))
	}

	if weight > 0 {
		out.Score = clamp01(sum / weight)
	}
	out.SeparateStints = d.separateStints(a, b)
	return out
}

// knownEnd is true for ongoing (empty) and parseable end dates.
func knownEnd(end string) bool {
	if end == "" {
		return true
	}
	_, ok := temporal.ParseDate(end)
	return ok
}

// separateStints reports whether a and b have known, disjoint date ranges
// separated by more than the configured gap.
func (d *Detector) separateStints(a, b model.Position) bool {
	ia, aok := d.temporal.Interval(a.DateStart, a.DateEnd)
	ib, bok := d.temporal.Interval(b.DateStart, b.DateEnd)
	if !aok || !bok || !knownEnd(a.DateEnd) || !knownEnd(b.DateEnd) {
		return false
	}
	if ib.Start.Before(ia.Start) {
		ia, ib = ib, ia
	}
	if !ib.Start.After(ia.End) {
		return false
	}
	return temporal.DaysBetween(ia.End, ib.Start) > d.cfg.SeparateStintGapDays
}

func titleSimilarity(a, b string) float64 {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	return levenshtein.Similarity(a, b, nil)
}

func (d *Detector) orgSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if d.normalizer.Normalize(a) == d.normalizer.Normalize(b) {
		return 1
	}
	return 0
}

// dateSimilarity is the intersection over union of the two date ranges.
func (d *Detector) dateSimilarity(a, b model.Position) float64 {
	ia, aok := d.temporal.Interval(a.DateStart, a.DateEnd)
	ib, bok := d.temporal.Interval(b.DateStart, b.DateEnd)
	if !aok || !bok {
		return 0
	}
	if ia.End.Before(ia.Start) || ib.End.Before(ib.Start) {
		return 0
	}

	start, end := ia.Start, ia.End
	if ib.Start.Before(start) {
		start = ib.Start
	}
	if ib.End.After(end) {
		end = ib.End
	}
	union := temporal.DaysBetween(start, end)
	if union == 0 {
		if ia.Start.Equal(ib.Start) {
			return 1
		}
		return 0
	}
	return clamp01(float64(temporal.OverlapDays(ia, ib)) / float64(union))
}

// SkillOverlap is the case-insensitive Jaccard similarity of two skill lists.
func SkillOverlap(a, b []string) float64 {
	return jaccard(skillSet(a), skillSet(b))
}

// WordOverlap is the Jaccard similarity of the words in two texts.
func WordOverlap(a, b string) float64 {
	return jaccard(wordSet(strings.ToLower(a)), wordSet(strings.ToLower(b)))
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for w := range a {
		if b[w] {
			intersection++
		}
	}

	union := len(a)
	for w := range b {
		if !a[w] {
			union++
		}
	}
	return float64(intersection) / float64(union)
}

func skillSet(skills []string) map[string]bool {
	set := make(map[string]bool, len(skills))
	for _, s := range skills {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			set[s] = true
		}
	}
	return set
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(s)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		w = strings.Trim(w, ".,;:!?()[]{}\"'")
		if w != "" {
			set[w] = true
		}
	}
	return set
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
