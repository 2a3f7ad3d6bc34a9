package merge

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/scottgpt/career-cli/internal/model"
	"github.com/scottgpt/career-cli/internal/temporal"
)

// Strategy names a field reconciliation rule.
type Strategy string

const (
	PreferDetailed Strategy = "prefer_detailed"
	PreferComplete Strategy = "prefer_complete"
	PreferLongest  Strategy = "prefer_longest"
	MergeUnique    Strategy = "merge_unique"
	UseEarliest    Strategy = "use_earliest"
	UseLatest      Strategy = "use_latest"
	PreferSource   Strategy = "prefer_source"
	PreferTarget   Strategy = "prefer_target"
)

// FieldKind groups fields that share applicable strategies.
type FieldKind int

const (
	KindText FieldKind = iota
	KindDate
	KindList
)

func (k FieldKind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindList:
		return "list"
	default:
		return "text"
	}
}

var fieldKinds = map[string]FieldKind{
	model.FieldTitle:       KindText,
	model.FieldOrg:         KindText,
	model.FieldDescription: KindText,
	model.FieldLocation:    KindText,
	model.FieldDateStart:   KindDate,
	model.FieldDateEnd:     KindDate,
	model.FieldSkills:      KindList,
}

var strategyKinds = map[Strategy][]FieldKind{
	PreferDetailed: {KindText},
	PreferComplete: {KindText},
	PreferLongest:  {KindText},
	MergeUnique:    {KindList},
	UseEarliest:    {KindDate},
	UseLatest:      {KindDate},
	PreferSource:   {KindText, KindDate, KindList},
	PreferTarget:   {KindText, KindDate, KindList},
}

// DefaultStrategies returns the per-field default strategies.
func DefaultStrategies() map[string]Strategy {
	return map[string]Strategy{
		model.FieldTitle:       PreferDetailed,
		model.FieldOrg:         PreferComplete,
		model.FieldDateStart:   UseEarliest,
		model.FieldDateEnd:     UseLatest,
		model.FieldSkills:      MergeUnique,
		model.FieldDescription: PreferDetailed,
		model.FieldLocation:    PreferComplete,
	}
}

// AppliesTo reports whether the strategy can reconcile a field of kind k.
func (s Strategy) AppliesTo(k FieldKind) bool {
	for _, kind := range strategyKinds[s] {
		if kind == k {
			return true
		}
	}
	return false
}

// ParseFieldStrategies resolves caller-supplied strategy names on top of the
// defaults. Unknown fields are ignored; unknown or inapplicable strategies
// keep the field default. Every fallback is reported as a warning.
func ParseFieldStrategies(raw map[string]string) (map[string]Strategy, []string) {
	return parseOnto(DefaultStrategies(), raw)
}

func parseOnto(base map[string]Strategy, raw map[string]string) (map[string]Strategy, []string) {
	out := make(map[string]Strategy, len(base))
	for f, s := range base {
		out[f] = s
	}

	fields := make([]string, 0, len(raw))
	for f := range raw {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var warnings []string
	for _, field := range fields {
		name := Strategy(strings.ToLower(strings.TrimSpace(raw[field])))
		kind, ok := fieldKinds[field]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown field %q ignored", field))
			continue
		}
		if _, known := strategyKinds[name]; !known {
			warnings = append(warnings, fmt.Sprintf("unknown strategy %q for %s, using %s", raw[field], field, out[field]))
			continue
		}
		if !name.AppliesTo(kind) {
			warnings = append(warnings, fmt.Sprintf("strategy %s does not apply to %s field %s, using %s", name, kind, field, out[field]))
			continue
		}
		out[field] = name
	}
	return out, warnings
}

// resolveText applies a text or date strategy to one field.
func resolveText(s Strategy, source, target string) string {
	switch s {
	case PreferSource:
		return source
	case PreferTarget:
		return target
	}

	if source == "" {
		return target
	}
	if target == "" {
		return source
	}

	switch s {
	case PreferDetailed:
		return preferDetailed(source, target)
	case PreferComplete:
		return preferComplete(source, target)
	case PreferLongest:
		return preferLongest(source, target)
	case UseEarliest:
		return pickDate(source, target, func(a, b int) bool { return a < b })
	case UseLatest:
		return pickDate(source, target, func(a, b int) bool { return a > b })
	default:
		return target
	}
}

// resolveDateEnd handles use_latest on the end date, where empty means ongoing
// and always wins.
func resolveDateEnd(s Strategy, source, target string) string {
	if s == UseLatest && (source == "" || target == "") {
		return ""
	}
	return resolveText(s, source, target)
}

func resolveList(s Strategy, source, target []string) []string {
	switch s {
	case PreferSource:
		return append([]string{}, source...)
	case PreferTarget:
		return append([]string{}, target...)
	default:
		return UniqueUnion(source, target)
	}
}

func preferDetailed(source, target string) string {
	ws, wt := len(strings.Fields(source)), len(strings.Fields(target))
	switch {
	case ws > wt:
		return source
	case wt > ws:
		return target
	}
	return preferLongest(source, target)
}

func preferLongest(source, target string) string {
	if len([]rune(source)) > len([]rune(target)) {
		return source
	}
	return target
}

func preferComplete(source, target string) string {
	cs, ct := completenessScore(source), completenessScore(target)
	switch {
	case cs > ct:
		return source
	case ct > cs:
		return target
	}
	return preferLongest(source, target)
}

// completenessScore rewards words and structure (commas, digits) and
// penalizes truncation: trailing ellipses or a lone short abbreviation.
func completenessScore(s string) int {
	words := strings.Fields(s)
	score := len(words) + strings.Count(s, ",")
	if strings.IndexFunc(s, unicode.IsDigit) >= 0 {
		score++
	}
	trimmed := strings.TrimSpace(s)
	if strings.HasSuffix(trimmed, "...") || strings.HasSuffix(trimmed, "…") {
		score -= 2
	}
	if len(words) == 1 && len([]rune(words[0])) <= 3 && isLetters(words[0]) {
		score -= 2
	}
	return score
}

func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// pickDate returns whichever parseable date wins under better, comparing day
// offsets. Unparseable values lose to parseable ones.
func pickDate(source, target string, better func(a, b int) bool) string {
	ts, sok := temporal.ParseDate(source)
	tt, tok := temporal.ParseDate(target)
	switch {
	case sok && !tok:
		return source
	case tok && !sok:
		return target
	case !sok && !tok:
		return target
	}
	d := temporal.DaysBetween(tt, ts)
	if better(d, 0) {
		return source
	}
	return target
}

// UniqueUnion merges two skill lists case-insensitively and returns them
// sorted. When casings differ, the same variant wins regardless of argument
// order, so UniqueUnion(a, b) equals UniqueUnion(b, a).
func UniqueUnion(a, b []string) []string {
	canonical := make(map[string]string)
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			key := strings.ToLower(s)
			if cur, ok := canonical[key]; !ok || s < cur {
				canonical[key] = s
			}
		}
	}

	keys := make([]string, 0, len(canonical))
	for k := range canonical {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = canonical[k]
	}
	return out
}
