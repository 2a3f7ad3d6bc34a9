// Package company normalizes organization names and groups positions into
// company-level summaries.
package company

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/scottgpt/career-cli/internal/config"
	"github.com/scottgpt/career-cli/internal/model"
	"github.com/scottgpt/career-cli/internal/progression"
	"github.com/scottgpt/career-cli/internal/skills"
	"github.com/scottgpt/career-cli/internal/temporal"
)

// PresentLabel marks an ongoing date range end.
const PresentLabel = "Present"

// DateRange spans the earliest known start to the latest end of a group.
type DateRange struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Formatted string `json:"formatted"`
}

// DisplayHints are coarse levels the UI uses for emphasis.
type DisplayHints struct {
	IsHighlight      bool   `json:"isHighlight"`
	ProgressionLevel string `json:"progressionLevel"`
	StabilityLevel   string `json:"stabilityLevel"`
}

// CompanyGroup is every position held at one normalized organization.
type CompanyGroup struct {
	NormalizedName    string                        `json:"normalizedName"`
	OriginalNames     []string                      `json:"originalNames"`
	Positions         []model.Position              `json:"positions"`
	DateRange         DateRange                     `json:"dateRange"`
	Tenure            temporal.Tenure               `json:"tenure"`
	CareerProgression progression.CareerProgression `json:"careerProgression"`
	BoomerangPattern  progression.BoomerangPattern  `json:"boomerangPattern"`
	AggregatedSkills  skills.Aggregate              `json:"aggregatedSkills"`
	Insights          []string                      `json:"insights"`
	DisplayHints      DisplayHints                  `json:"displayHints"`

	ongoing   bool
	latestEnd time.Time
}

// Engine groups positions by normalized organization.
type Engine struct {
	cfg         config.GroupingConfig
	normalizer  *Normalizer
	temporal    *temporal.Analyzer
	progression *progression.Analyzer
	skills      *skills.Aggregator
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	normalizer *Normalizer
	temporal   *temporal.Analyzer
	ladder     *progression.Ladder
}

// WithNormalizer overrides the company name normalizer.
func WithNormalizer(n *Normalizer) Option {
	return func(o *engineOptions) { o.normalizer = n }
}

// WithTemporal overrides the temporal analyzer, typically to pin the clock.
func WithTemporal(ta *temporal.Analyzer) Option {
	return func(o *engineOptions) { o.temporal = ta }
}

// WithLadder overrides the seniority ladder.
func WithLadder(l progression.Ladder) Option {
	return func(o *engineOptions) { o.ladder = &l }
}

// NewEngine creates a grouping Engine.
func NewEngine(cfg config.GroupingConfig, opts ...Option) *Engine {
	o := engineOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.normalizer == nil {
		o.normalizer = NewNormalizer(nil)
	}
	if o.temporal == nil {
		o.temporal = temporal.NewAnalyzer()
	}
	ladder := progression.DefaultLadder()
	if o.ladder != nil {
		ladder = *o.ladder
	}

	return &Engine{
		cfg:         cfg,
		normalizer:  o.normalizer,
		temporal:    o.temporal,
		progression: progression.NewAnalyzer(cfg, ladder, o.temporal),
		skills:      skills.NewAggregator(cfg.TopSkills),
	}
}

// Normalizer returns the engine's name normalizer.
func (e *Engine) Normalizer() *Normalizer {
	return e.normalizer
}

// Group partitions positions by normalized organization and analyzes each
// group. Every input position appears in exactly one group. Groups are
// ordered most recent first: ongoing groups, then by latest end date, then by name.
func (e *Engine) Group(positions []model.Position) []CompanyGroup {
	if len(positions) == 0 {
		return []CompanyGroup{}
	}

	index := make(map[string]int)
	var groups []CompanyGroup
	for _, p := range positions {
		key := e.normalizer.Normalize(p.Org)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, CompanyGroup{NormalizedName: key, OriginalNames: []string{}})
		}
		g := &groups[i]
		g.Positions = append(g.Positions, p.Clone())
		if name := strings.TrimSpace(p.Org); name != "" && !containsString(g.OriginalNames, name) {
			g.OriginalNames = append(g.OriginalNames, name)
		}
	}

	for i := range groups {
		e.analyze(&groups[i])
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.ongoing != b.ongoing {
			return a.ongoing
		}
		if !a.latestEnd.Equal(b.latestEnd) {
			return a.latestEnd.After(b.latestEnd)
		}
		return a.NormalizedName < b.NormalizedName
	})
	return groups
}

func (e *Engine) analyze(g *CompanyGroup) {
	sortChronologically(g.Positions)

	spans := make([]temporal.Span, len(g.Positions))
	for i, p := range g.Positions {
		spans[i] = temporal.Span{Start: p.DateStart, End: p.DateEnd}
	}

	g.DateRange, g.ongoing, g.latestEnd = dateRange(g.Positions)
	g.Tenure = e.temporal.TotalTenure(spans)
	g.CareerProgression = e.progression.Analyze(g.Positions)
	g.BoomerangPattern = e.progression.DetectBoomerang(g.Positions)
	g.AggregatedSkills = e.skills.Aggregate(g.Positions)
	g.DisplayHints = e.displayHints(g)
	g.Insights = e.insights(g)
}

// sortChronologically orders positions by start date; unknown starts sort last
// in their original order.
func sortChronologically(positions []model.Position) {
	sort.SliceStable(positions, func(i, j int) bool {
		a, aok := temporal.ParseDate(positions[i].DateStart)
		b, bok := temporal.ParseDate(positions[j].DateStart)
		if aok != bok {
			return aok
		}
		return aok && a.Before(b)
	})
}

func dateRange(positions []model.Position) (DateRange, bool, time.Time) {
	var (
		start, end       time.Time
		startRaw, endRaw string
		ongoing          bool
	)
	for _, p := range positions {
		if t, ok := temporal.ParseDate(p.DateStart); ok && (startRaw == "" || t.Before(start)) {
			start, startRaw = t, p.DateStart
		}
		if p.IsOngoing() {
			ongoing = true
			continue
		}
		if t, ok := temporal.ParseDate(p.DateEnd); ok && (endRaw == "" || t.After(end)) {
			end, endRaw = t, p.DateEnd
		}
	}

	dr := DateRange{Start: startRaw, End: endRaw}
	if ongoing {
		dr.End = PresentLabel
	}

	from, to := "Unknown", "Unknown"
	if startRaw != "" {
		from = start.Format("Jan 2006")
	}
	switch {
	case ongoing:
		to = PresentLabel
	case endRaw != "":
		to = end.Format("Jan 2006")
	}
	dr.Formatted = from + " - " + to
	return dr, ongoing, end
}

func (e *Engine) displayHints(g *CompanyGroup) DisplayHints {
	h := DisplayHints{ProgressionLevel: progressionLevel(g.CareerProgression.Pattern)}

	upward := g.CareerProgression.Pattern == progression.PatternUpward ||
		g.CareerProgression.Pattern == progression.PatternStrongUpward
	h.IsHighlight = (len(g.Positions) >= 2 && upward) || g.Tenure.Months >= e.cfg.HighlightTenureMonths

	switch {
	case g.Tenure.Months >= e.cfg.StableTenureMonths && !g.BoomerangPattern.IsBoomerang:
		h.StabilityLevel = "high"
	case g.Tenure.Months >= e.cfg.ModerateTenureMonths:
		h.StabilityLevel = "medium"
	default:
		h.StabilityLevel = "low"
	}
	return h
}

func progressionLevel(p progression.Pattern) string {
	switch p {
	case progression.PatternStrongUpward:
		return "high"
	case progression.PatternUpward:
		return "medium"
	case progression.PatternLateral:
		return "low"
	default:
		return "none"
	}
}

func (e *Engine) insights(g *CompanyGroup) []string {
	n := len(g.Positions)
	var insights []string
	if n == 1 {
		insights = append(insights, fmt.Sprintf("1 position over %s", g.Tenure.Formatted))
	} else {
		insights = append(insights, fmt.Sprintf("%d positions over %s", n, g.Tenure.Formatted))
	}

	if len(g.OriginalNames) > 1 {
		insights = append(insights, fmt.Sprintf("Listed under %d name variants: %s",
			len(g.OriginalNames), strings.Join(g.OriginalNames, ", ")))
	}

	if promos := len(g.CareerProgression.Promotions); promos > 0 {
		if promos == 1 {
			insights = append(insights, "Promoted once")
		} else {
			insights = append(insights, fmt.Sprintf("Promoted %d times", promos))
		}
	}

	if g.BoomerangPattern.IsBoomerang {
		insights = append(insights, fmt.Sprintf("Returned after time away (%d stints)", g.BoomerangPattern.Stints))
	}

	if top := g.AggregatedSkills.TopSkills(3); len(top) > 0 {
		insights = append(insights, "Key skills: "+strings.Join(top, ", "))
	}
	return insights
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
