// Package model defines the records shared by the career analysis packages.
package model

import (
	"encoding/json"
	"strings"
)

// Position is one employment record: a role held at an organization over a date range.
// DateStart and DateEnd are ISO date strings; an empty DateEnd means the role is ongoing.
type Position struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Org         string   `json:"org"`
	DateStart   string   `json:"date_start,omitempty"`
	DateEnd     string   `json:"date_end,omitempty"`
	Skills      []string `json:"skills,omitempty"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
}

// UnmarshalJSON decodes a position, reading skills through SkillList so a
// malformed skills value empties the list rather than rejecting the record.
func (p *Position) UnmarshalJSON(data []byte) error {
	type plain Position
	aux := struct {
		*plain
		Skills SkillList `json:"skills"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.Skills = aux.Skills
	return nil
}

// Field names used by merge strategies, change analysis and the store.
const (
	FieldTitle       = "title"
	FieldOrg         = "org"
	FieldDateStart   = "date_start"
	FieldDateEnd     = "date_end"
	FieldSkills      = "skills"
	FieldDescription = "description"
	FieldLocation    = "location"
)

// PositionFields lists every mergeable field in display order.
var PositionFields = []string{
	FieldTitle,
	FieldOrg,
	FieldDateStart,
	FieldDateEnd,
	FieldSkills,
	FieldDescription,
	FieldLocation,
}

// ongoingMarkers are end-date values that mean "still in this role".
var ongoingMarkers = map[string]bool{
	"present": true,
	"current": true,
	"now":     true,
	"ongoing": true,
	"null":    true,
}

// IsOngoing reports whether the position has no end date.
func (p Position) IsOngoing() bool {
	return p.DateEnd == ""
}

// Text returns the string value of a text or date field, or "" for unknown fields.
func (p Position) Text(field string) string {
	switch field {
	case FieldTitle:
		return p.Title
	case FieldOrg:
		return p.Org
	case FieldDateStart:
		return p.DateStart
	case FieldDateEnd:
		return p.DateEnd
	case FieldDescription:
		return p.Description
	case FieldLocation:
		return p.Location
	default:
		return ""
	}
}

// SetText assigns a text or date field. Unknown field names are ignored.
func (p *Position) SetText(field, value string) {
	switch field {
	case FieldTitle:
		p.Title = value
	case FieldOrg:
		p.Org = value
	case FieldDateStart:
		p.DateStart = value
	case FieldDateEnd:
		p.DateEnd = value
	case FieldDescription:
		p.Description = value
	case FieldLocation:
		p.Location = value
	}
}

// Clone returns a deep copy so callers can never alias each other's skill slices.
func (p Position) Clone() Position {
	c := p
	if p.Skills != nil {
		c.Skills = append([]string(nil), p.Skills...)
	}
	return c
}

// NormalizePosition trims every string field, drops blank skills and turns
// end markers such as "Present" into the empty (ongoing) value.
func NormalizePosition(p Position) Position {
	out := Position{
		ID:          strings.TrimSpace(p.ID),
		Title:       strings.TrimSpace(p.Title),
		Org:         strings.TrimSpace(p.Org),
		DateStart:   strings.TrimSpace(p.DateStart),
		DateEnd:     strings.TrimSpace(p.DateEnd),
		Description: strings.TrimSpace(p.Description),
		Location:    strings.TrimSpace(p.Location),
	}
	if ongoingMarkers[strings.ToLower(out.DateEnd)] {
		out.DateEnd = ""
	}
	if strings.EqualFold(out.DateStart, "null") {
		out.DateStart = ""
	}
	if len(p.Skills) > 0 {
		out.Skills = make([]string, 0, len(p.Skills))
		for _, s := range p.Skills {
			if s = strings.TrimSpace(s); s != "" {
				out.Skills = append(out.Skills, s)
			}
		}
	}
	return out
}

// NormalizePositions applies NormalizePosition to every record and returns a new slice.
func NormalizePositions(positions []Position) []Position {
	out := make([]Position, len(positions))
	for i, p := range positions {
		out[i] = NormalizePosition(p)
	}
	return out
}
