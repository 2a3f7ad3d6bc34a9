package model

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// SkillList decodes a skills value leniently. An array keeps its string
// elements, a string is split on commas and semicolons, and anything else
// (null, numbers, objects) decodes to an empty list instead of failing.
type SkillList []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *SkillList) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = skillsFrom(raw)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *SkillList) UnmarshalYAML(value *yaml.Node) error {
	for value.Kind == yaml.AliasNode && value.Alias != nil {
		value = value.Alias
	}
	switch value.Kind {
	case yaml.SequenceNode:
		var out []string
		for _, item := range value.Content {
			if item.Kind == yaml.ScalarNode && item.ShortTag() != "!!null" {
				out = append(out, item.Value)
			}
		}
		*s = out
	case yaml.ScalarNode:
		if value.ShortTag() == "!!str" {
			*s = SplitSkills(value.Value)
		} else {
			*s = nil
		}
	default:
		*s = nil
	}
	return nil
}

func skillsFrom(raw any) SkillList {
	switch v := raw.(type) {
	case []any:
		out := make(SkillList, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	case string:
		return SplitSkills(v)
	default:
		return nil
	}
}

// SplitSkills splits a delimited skills string on commas and semicolons,
// dropping blank entries.
func SplitSkills(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
