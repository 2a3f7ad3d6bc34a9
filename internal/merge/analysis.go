package merge

import (
	"sort"
	"strings"

	"github.com/scottgpt/career-cli/internal/model"
)

// ChangeType classifies how a field changed.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

// FieldChange describes one field that differs between the original and merged record.
type FieldChange struct {
	Field  string     `json:"field"`
	Type   ChangeType `json:"type"`
	Before any        `json:"before"`
	After  any        `json:"after"`
}

// Analysis summarizes what a merge changed in the target record.
type Analysis struct {
	ChangedFields         []string      `json:"changedFields"`
	Changes               []FieldChange `json:"changes"`
	HasSignificantChanges bool          `json:"hasSignificantChanges"`
}

var significantFields = map[string]bool{
	model.FieldTitle:     true,
	model.FieldOrg:       true,
	model.FieldDateStart: true,
	model.FieldDateEnd:   true,
}

// AnalyzeChanges compares every field of original and merged.
func AnalyzeChanges(original, merged model.Position) Analysis {
	a := Analysis{ChangedFields: []string{}, Changes: []FieldChange{}}

	for _, field := range model.PositionFields {
		var (
			change FieldChange
			ok     bool
		)
		if field == model.FieldSkills {
			change, ok = diffList(original.Skills, merged.Skills)
		} else {
			change, ok = diffText(original.Text(field), merged.Text(field))
		}
		if !ok {
			continue
		}
		change.Field = field
		a.ChangedFields = append(a.ChangedFields, field)
		a.Changes = append(a.Changes, change)
		if significantFields[field] {
			a.HasSignificantChanges = true
		}
	}
	return a
}

func diffText(before, after string) (FieldChange, bool) {
	switch {
	case before == after:
		return FieldChange{}, false
	case before == "":
		return FieldChange{Type: ChangeAdded, Before: nil, After: after}, true
	case after == "":
		return FieldChange{Type: ChangeRemoved, Before: before, After: nil}, true
	default:
		return FieldChange{Type: ChangeModified, Before: before, After: after}, true
	}
}

func diffList(before, after []string) (FieldChange, bool) {
	switch {
	case sameSet(before, after):
		return FieldChange{}, false
	case len(before) == 0:
		return FieldChange{Type: ChangeAdded, Before: nil, After: after}, true
	case len(after) == 0:
		return FieldChange{Type: ChangeRemoved, Before: before, After: nil}, true
	default:
		return FieldChange{Type: ChangeModified, Before: before, After: after}, true
	}
}

// sameSet compares skill lists case-insensitively, ignoring order and duplicates.
func sameSet(a, b []string) bool {
	return strings.Join(setKeys(a), "\x00") == strings.Join(setKeys(b), "\x00")
}

func setKeys(list []string) []string {
	seen := make(map[string]bool, len(list))
	keys := make([]string, 0, len(list))
	for _, s := range list {
		k := strings.ToLower(strings.TrimSpace(s))
		if k != "" && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
