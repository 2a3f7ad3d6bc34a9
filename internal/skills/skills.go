// Package skills aggregates skill sets across positions.
package skills

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scottgpt/career-cli/internal/model"
)

// Evolution is the skill delta between two consecutive positions.
type Evolution struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Date     string   `json:"date"`
	Added    []string `json:"added"`
	Removed  []string `json:"removed"`
	Retained []string `json:"retained"`
}

// Aggregate is the combined skill picture for a set of positions.
type Aggregate struct {
	UniqueSkills         []string       `json:"uniqueSkills"`
	SkillFrequency       map[string]int `json:"skillFrequency"`
	SkillEvolution       []Evolution    `json:"skillEvolution"`
	CategoryDistribution map[string]int `json:"categoryDistribution"`
	Insights             []string       `json:"insights"`
}

// Aggregator builds skill aggregates.
type Aggregator struct {
	topN int
}

// NewAggregator creates an Aggregator that names up to topN skills in its insights.
func NewAggregator(topN int) *Aggregator {
	if topN <= 0 {
		topN = 5
	}
	return &Aggregator{topN: topN}
}

// Aggregate merges the skills of positions, in the order given. Skills are
// compared case-insensitively; the first-seen casing is kept for display.
func (a *Aggregator) Aggregate(positions []model.Position) Aggregate {
	out := Aggregate{
		UniqueSkills:         []string{},
		SkillFrequency:       make(map[string]int),
		SkillEvolution:       []Evolution{},
		CategoryDistribution: make(map[string]int),
	}

	display := make(map[string]string)
	sets := make([]map[string]bool, len(positions))
	for i, p := range positions {
		sets[i] = make(map[string]bool, len(p.Skills))
		for _, s := range p.Skills {
			key := skillKey(s)
			if key == "" || sets[i][key] {
				continue
			}
			sets[i][key] = true
			if _, ok := display[key]; !ok {
				display[key] = strings.TrimSpace(s)
				out.UniqueSkills = append(out.UniqueSkills, display[key])
			}
			out.SkillFrequency[display[key]]++
		}
	}

	for _, s := range out.UniqueSkills {
		out.CategoryDistribution[Categorize(s)]++
	}

	for i := 1; i < len(positions); i++ {
		out.SkillEvolution = append(out.SkillEvolution, evolve(positions[i-1], positions[i], sets[i-1], sets[i], display))
	}

	out.Insights = a.insights(out, len(positions))
	return out
}

func evolve(prev, next model.Position, before, after map[string]bool, display map[string]string) Evolution {
	e := Evolution{
		From:     prev.Title,
		To:       next.Title,
		Date:     next.DateStart,
		Added:    []string{},
		Removed:  []string{},
		Retained: []string{},
	}
	for _, key := range sortedKeys(after) {
		if before[key] {
			e.Retained = append(e.Retained, display[key])
		} else {
			e.Added = append(e.Added, display[key])
		}
	}
	for _, key := range sortedKeys(before) {
		if !after[key] {
			e.Removed = append(e.Removed, display[key])
		}
	}
	return e
}

// TopSkills returns up to n skills ordered by frequency, then first appearance.
func (ag Aggregate) TopSkills(n int) []string {
	ranked := append([]string(nil), ag.UniqueSkills...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ag.SkillFrequency[ranked[i]] > ag.SkillFrequency[ranked[j]]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func (a *Aggregator) insights(ag Aggregate, positions int) []string {
	if len(ag.UniqueSkills) == 0 {
		return []string{"No skills recorded"}
	}
	insights := []string{
		fmt.Sprintf("%d unique skills across %d positions", len(ag.UniqueSkills), positions),
		"Top skills: " + strings.Join(ag.TopSkills(a.topN), ", "),
	}

	best, bestCount := "", 0
	for _, cat := range Categories {
		if n := ag.CategoryDistribution[cat]; n > bestCount && cat != CategoryOther {
			best, bestCount = cat, n
		}
	}
	if best != "" {
		insights = append(insights, "Strongest category: "+best)
	}

	added := 0
	for _, e := range ag.SkillEvolution {
		added += len(e.Added)
	}
	switch {
	case added == 1:
		insights = append(insights, "1 skill picked up across role changes")
	case added > 1:
		insights = append(insights, fmt.Sprintf("%d skills picked up across role changes", added))
	}
	return insights
}

func skillKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
