package importer

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/scottgpt/career-cli/internal/model"
)

// positionDoc is the on-disk shape of a position. Alternate key spellings used
// by older exports are accepted alongside the canonical ones.
type positionDoc struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Role        string   `yaml:"role" json:"role"`
	Org         string   `yaml:"org" json:"org"`
	Company     string   `yaml:"company" json:"company"`
	DateStart   string   `yaml:"date_start" json:"date_start"`
	StartDate   string   `yaml:"start_date" json:"start_date"`
	DateEnd     string   `yaml:"date_end" json:"date_end"`
	EndDate     string   `yaml:"end_date" json:"end_date"`
	Skills      model.SkillList `yaml:"skills" json:"skills"`
	Description string   `yaml:"description" json:"description"`
	Location    string   `yaml:"location" json:"location"`
}

func (d positionDoc) position() model.Position {
	return model.Position{
		ID:          d.ID,
		Title:       firstNonEmpty(d.Title, d.Role),
		Org:         firstNonEmpty(d.Org, d.Company),
		DateStart:   firstNonEmpty(d.DateStart, d.StartDate),
		DateEnd:     firstNonEmpty(d.DateEnd, d.EndDate),
		Skills:      d.Skills,
		Description: d.Description,
		Location:    d.Location,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var frontmatterDelim = []byte("---")

// readMarkdown parses a YAML frontmatter block; the body becomes the description
// when the frontmatter has none.
func readMarkdown(path string) ([]positionDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read file")
	}
	front, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	var doc positionDoc
	if err := yaml.Unmarshal(front, &doc); err != nil {
		return nil, eris.Wrap(err, "parse frontmatter")
	}
	if strings.TrimSpace(doc.Description) == "" {
		doc.Description = strings.TrimSpace(string(body))
	}
	return []positionDoc{doc}, nil
}

func splitFrontmatter(data []byte) (front, body []byte, err error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(data, frontmatterDelim) {
		return nil, nil, model.NewValidationError("frontmatter", "file does not start with ---")
	}
	rest := data[len(frontmatterDelim):]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return nil, nil, model.NewValidationError("frontmatter", "missing closing ---")
	}
	front = rest[:end]
	body = rest[end+len("\n---"):]
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = nil
	}
	return front, body, nil
}

// readYAML accepts a single mapping or a sequence of mappings.
func readYAML(path string) ([]positionDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read file")
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, eris.Wrap(err, "parse yaml")
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var docs []positionDoc
		return docs, eris.Wrap(root.Decode(&docs), "decode yaml list")
	}
	var doc positionDoc
	if err := root.Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "decode yaml")
	}
	return []positionDoc{doc}, nil
}

// readJSON accepts a single object or an array of objects.
func readJSON(path string) ([]positionDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read file")
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var docs []positionDoc
		return docs, eris.Wrap(json.Unmarshal(trimmed, &docs), "decode json array")
	}
	var doc positionDoc
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, eris.Wrap(err, "decode json")
	}
	return []positionDoc{doc}, nil
}

// xlsxHeaders maps normalized header cells to position fields.
var xlsxHeaders = map[string]string{
	"id":           "id",
	"title":        "title",
	"role":         "title",
	"position":     "title",
	"org":          "org",
	"company":      "org",
	"organization": "org",
	"employer":     "org",
	"date_start":   "date_start",
	"start":        "date_start",
	"start date":   "date_start",
	"start_date":   "date_start",
	"date_end":     "date_end",
	"end":          "date_end",
	"end date":     "date_end",
	"end_date":     "date_end",
	"skills":       "skills",
	"description":  "description",
	"location":     "location",
}

// readXLSX reads the first sheet. The first row is the header; blank rows are skipped.
func readXLSX(path string) ([]positionDoc, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, nil
	}

	columns := make(map[int]string)
	for j, cell := range sheet.Rows[0].Cells {
		key := strings.ToLower(strings.TrimSpace(cell.String()))
		if field, ok := xlsxHeaders[key]; ok {
			columns[j] = field
		}
	}
	if len(columns) == 0 {
		return nil, model.NewValidationError("header", "no recognized columns in first row")
	}

	var docs []positionDoc
	for _, row := range sheet.Rows[1:] {
		var d positionDoc
		blank := true
		for j, cell := range row.Cells {
			field, ok := columns[j]
			if !ok {
				continue
			}
			v := strings.TrimSpace(cell.String())
			if v == "" {
				continue
			}
			blank = false
			switch field {
			case "id":
				d.ID = v
			case "title":
				d.Title = v
			case "org":
				d.Org = v
			case "date_start":
				d.DateStart = v
			case "date_end":
				d.DateEnd = v
			case "skills":
				d.Skills = model.SplitSkills(v)
			case "description":
				d.Description = v
			case "location":
				d.Location = v
			}
		}
		if !blank {
			docs = append(docs, d)
		}
	}
	return docs, nil
}
