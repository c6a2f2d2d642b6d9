// Package config loads the column schema of the spreadsheet.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/plusk0/rowedit/editable"
)

// FieldDef describes one column/field from the config file
type FieldDef struct {
	Name     string `json:"Name" yaml:"name"`         // example: "ID", "Name", "Qty"
	Type     string `json:"Type" yaml:"type"`         // example: "int", "string", "float", "bool"
	Label    string `json:"Label" yaml:"label"`       // header text, defaults to Name
	Editable *bool  `json:"Editable" yaml:"editable"` // defaults to true except for the ID field
	Hidden   bool   `json:"Hidden" yaml:"hidden"`
	Template string `json:"Template" yaml:"template"` // field template, e.g. "multiline", "link"
}

// TableSettings are the table-level opt-in signals.
type TableSettings struct {
	Editable *bool             `json:"editable" yaml:"editable"`
	Classes  []string          `json:"classes" yaml:"classes"`
	Data     map[string]string `json:"data" yaml:"data"`
}

// Schema is the loaded configuration.
type Schema struct {
	Settings TableSettings `json:"settings" yaml:"settings"`
	Fields   []FieldDef    `json:"columns" yaml:"columns"`
}

// IDField is the field holding the storage id of a row.
const IDField = "ID"

// Load reads the schema at path. JSON and YAML files hold either a bare list
// of fields or an object with "settings" and "columns"; any other file is
// parsed as a Go struct named DataEntry.
func Load(path string) (*Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s *Schema
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		s, err = parseJSON(b)
	case ".yaml", ".yml":
		s, err = parseYAML(b)
	default:
		s = &Schema{Fields: parseStruct(string(b))}
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	s.normalize()
	return s, nil
}

func parseJSON(b []byte) (*Schema, error) {
	trimmed := strings.TrimSpace(string(b))
	if strings.HasPrefix(trimmed, "[") {
		var fields []FieldDef
		if err := json.Unmarshal(b, &fields); err != nil {
			return nil, err
		}
		return &Schema{Fields: fields}, nil
	}
	var s Schema
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func parseYAML(b []byte) (*Schema, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(b, &node); err != nil {
		return nil, err
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		var fields []FieldDef
		if err := node.Content[0].Decode(&fields); err != nil {
			return nil, err
		}
		return &Schema{Fields: fields}, nil
	}
	var s Schema
	if err := node.Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

var (
	fieldRe = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s+((?:\[\])?[A-Za-z_][A-Za-z0-9_]*)`)
	tagRe   = regexp.MustCompile(`(\w+):"([^"]*)"`)
)

// parseStruct reads fields from Go-like struct text:
//
//	type DataEntry struct {
//		ID   int
//		Name string `edit:"true" template:"multiline"`
//	}
func parseStruct(s string) []FieldDef {
	inside := false
	var fields []FieldDef

	for _, raw := range strings.Split(s, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if !inside {
			if strings.HasPrefix(line, "type") && strings.Contains(line, "DataEntry") && strings.Contains(line, "struct") {
				inside = true
			}
			continue
		}
		if strings.HasPrefix(line, "}") {
			break
		}

		var tag string
		if idx := strings.Index(line, "`"); idx >= 0 {
			tag = line[idx:]
			line = strings.TrimSpace(line[:idx])
		}
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		m := fieldRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		f := FieldDef{Name: m[1], Type: m[2], Label: m[1]}
		for _, kv := range tagRe.FindAllStringSubmatch(tag, -1) {
			switch kv[1] {
			case "edit":
				on := kv[2] == "true"
				f.Editable = &on
			case "hidden":
				f.Hidden = kv[2] == "true"
			case "template":
				f.Template = kv[2]
			case "label":
				f.Label = kv[2]
			}
		}
		fields = append(fields, f)
	}
	return fields
}

// normalize fills in labels and the default editable flag. Link fields use
// the link template; other unknown types become strings.
func (s *Schema) normalize() {
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Label == "" {
			f.Label = f.Name
		}
		switch f.Type {
		case "int", "string", "float", "bool":
		case "link":
			f.Type = "string"
			if f.Template == "" {
				f.Template = "link"
			}
		default:
			f.Type = "string"
		}
		if f.Editable == nil {
			on := !strings.EqualFold(f.Name, IDField)
			f.Editable = &on
		}
	}
}

// Columns returns the schema as table columns.
func (s *Schema) Columns() []editable.Column {
	cols := make([]editable.Column, 0, len(s.Fields))
	for _, f := range s.Fields {
		cols = append(cols, editable.Column{
			Field:    f.Name,
			Title:    f.Label,
			Type:     editable.ParseDataType(f.Type),
			Visible:  !f.Hidden,
			Editable: f.Editable != nil && *f.Editable,
			Template: f.Template,
		})
	}
	return cols
}

// TableSettings returns the opt-in signals for the table.
func (s *Schema) TableSettings() editable.Settings {
	return editable.Settings{
		Classes:  s.Settings.Classes,
		Data:     s.Settings.Data,
		Editable: s.Settings.Editable,
	}
}

// Field returns the definition of the named field.
func (s *Schema) Field(name string) (FieldDef, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}
