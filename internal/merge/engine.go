// Package merge reconciles two job records field by field and reports the
// quality and risks of the result.
package merge

import (
	"encoding/json"
	"time"

	"github.com/scottgpt/career-cli/internal/config"
	"github.com/scottgpt/career-cli/internal/model"
	"github.com/scottgpt/career-cli/internal/temporal"
)

// MergedData is the reconciled record stamped with its merge provenance.
type MergedData struct {
	model.Position
	MergeSourceID  string    `json:"merge_source_id"`
	MergeTimestamp time.Time `json:"merge_timestamp"`
}

// UnmarshalJSON decodes the provenance fields alongside the embedded position,
// whose own UnmarshalJSON would otherwise be promoted and drop them.
func (m *MergedData) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &m.Position); err != nil {
		return err
	}
	var stamp struct {
		MergeSourceID  string    `json:"merge_source_id"`
		MergeTimestamp time.Time `json:"merge_timestamp"`
	}
	if err := json.Unmarshal(data, &stamp); err != nil {
		return err
	}
	m.MergeSourceID = stamp.MergeSourceID
	m.MergeTimestamp = stamp.MergeTimestamp
	return nil
}

// MergeResult is the full outcome of merging source into target.
type MergeResult struct {
	SourceID        string            `json:"sourceId"`
	TargetID        string            `json:"targetId"`
	MergedData      MergedData        `json:"mergedData"`
	Strategies      map[string]string `json:"strategies"`
	Analysis        Analysis          `json:"analysis"`
	Quality         Quality           `json:"quality"`
	Risks           []Risk            `json:"risks"`
	Recommendations []Recommendation  `json:"recommendations"`
	Warnings        []string          `json:"warnings,omitempty"`
}

// Engine computes merges. It holds no per-call state and is safe for concurrent use.
type Engine struct {
	cfg      config.MergeConfig
	temporal *temporal.Analyzer
	defaults map[string]Strategy
	warnings []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithTemporal overrides the temporal analyzer; its clock stamps merge timestamps.
func WithTemporal(ta *temporal.Analyzer) Option {
	return func(e *Engine) { e.temporal = ta }
}

// NewEngine creates an Engine. Field strategies in cfg replace the built-in
// defaults; invalid entries are skipped and reported by Warnings.
func NewEngine(cfg config.MergeConfig, opts ...Option) *Engine {
	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.temporal == nil {
		e.temporal = temporal.NewAnalyzer()
	}
	e.defaults, e.warnings = ParseFieldStrategies(cfg.FieldStrategies)
	return e
}

// Warnings returns problems found in the configured field strategies.
func (e *Engine) Warnings() []string {
	return append([]string(nil), e.warnings...)
}

// Strategies resolves request-level strategy names on top of the engine defaults.
func (e *Engine) Strategies(raw map[string]string) (map[string]Strategy, []string) {
	return parseOnto(e.defaults, raw)
}

// Merge reconciles source into target. It never modifies its inputs and
// performs no I/O, so it doubles as a preview. Missing entries in strategies
// use the engine defaults.
func (e *Engine) Merge(source, target model.Position, strategies map[string]Strategy) MergeResult {
	resolved := make(map[string]Strategy, len(e.defaults))
	for f, s := range e.defaults {
		resolved[f] = s
	}
	for f, s := range strategies {
		if kind, ok := fieldKinds[f]; ok && s.AppliesTo(kind) {
			resolved[f] = s
		}
	}

	merged := e.CalculateMergedData(source, target, resolved)
	lost := lostFields(source, target, merged.Position)

	res := MergeResult{
		SourceID:   source.ID,
		TargetID:   target.ID,
		MergedData: merged,
		Strategies: make(map[string]string, len(resolved)),
		Analysis:   AnalyzeChanges(target, merged.Position),
	}
	for f, s := range resolved {
		res.Strategies[f] = string(s)
	}
	res.Quality = e.AssessQuality(target, merged.Position, lost)
	res.Risks = e.IdentifyRisks(source, target, lost)
	res.Recommendations = e.Recommend(res.Quality, res.Risks)
	return res
}

// CalculateMergedData applies each field's strategy and stamps merge provenance.
// The merged record keeps the target's id.
func (e *Engine) CalculateMergedData(source, target model.Position, strategies map[string]Strategy) MergedData {
	out := model.Position{ID: target.ID}
	for _, field := range model.PositionFields {
		s := strategies[field]
		switch field {
		case model.FieldSkills:
			out.Skills = resolveList(s, source.Skills, target.Skills)
		case model.FieldDateEnd:
			out.DateEnd = resolveDateEnd(s, source.DateEnd, target.DateEnd)
		default:
			out.SetText(field, resolveText(s, source.Text(field), target.Text(field)))
		}
	}
	return MergedData{
		Position:       out,
		MergeSourceID:  source.ID,
		MergeTimestamp: e.temporal.Now(),
	}
}

// lostFields lists fields that were populated in either input but are empty
// after the merge. An empty end date chosen because one input was ongoing is
// not a loss.
func lostFields(source, target, merged model.Position) []string {
	var lost []string
	for _, field := range model.PositionFields {
		switch field {
		case model.FieldSkills:
			if len(merged.Skills) == 0 && (len(source.Skills) > 0 || len(target.Skills) > 0) {
				lost = append(lost, field)
			}
		case model.FieldDateEnd:
			if merged.DateEnd == "" && source.DateEnd != "" && target.DateEnd != "" {
				lost = append(lost, field)
			}
		default:
			if merged.Text(field) == "" && (source.Text(field) != "" || target.Text(field) != "") {
				lost = append(lost, field)
			}
		}
	}
	return lost
}
