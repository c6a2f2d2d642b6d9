package editable

import (
	"github.com/rs/zerolog/log"
)

// Materializer turns the cells of a row into fields and reads them back.
type Materializer struct {
	renderer  Renderer
	templates Templates
}

// NewMaterializer creates a Materializer drawing on r and resolving column
// templates from templates.
func NewMaterializer(r Renderer, templates Templates) *Materializer {
	return &Materializer{renderer: r, templates: templates}
}

// Build mounts a field into every cell of row that gets one: visible columns
// that are editable, or every visible column when isNew is set. Each field is
// seeded with the cell's rendered text. The result is keyed by column field.
func (m *Materializer) Build(row int, columns []Column, isNew bool) map[string]*FieldWidget {
	fields := map[string]*FieldWidget{}
	for i, col := range columns {
		if !col.Visible || !(isNew || col.Editable) {
			continue
		}
		if _, dup := fields[col.Field]; dup {
			log.Warn().Str("field", col.Field).Msg("duplicate column field, keeping first")
			continue
		}

		ref := CellRef{Row: row, Col: i}
		fw := m.instantiate(col, m.renderer.CellText(ref))
		fw.Column = col
		fw.Col = i

		m.renderer.Mount(ref, fw)
		fields[col.Field] = fw
	}
	return fields
}

// instantiate creates the field for col from its template, falling back to
// the default text field when the template is missing or has no input.
func (m *Materializer) instantiate(col Column, seed string) *FieldWidget {
	if col.Template != "" {
		tmpl, ok := m.templates[col.Template]
		if !ok || tmpl == nil {
			log.Warn().Str("template", col.Template).Str("field", col.Field).Msg("unknown template, using text field")
		} else {
			w := tmpl()
			switch v := w.(type) {
			case Field:
				v.SetText(seed)
				return &FieldWidget{Widget: w, Input: v}
			case InputHolder:
				if in := v.Input(); in != nil {
					in.SetText(seed)
					return &FieldWidget{Widget: w, Input: in}
				}
			}
			log.Warn().Str("template", col.Template).Str("field", col.Field).Msg("template has no input, using text field")
		}
	}

	f := m.renderer.NewTextField()
	f.SetText(seed)
	return &FieldWidget{Widget: f, Input: f}
}

// Read returns the current value of every field. A field without text yields
// nil.
func (m *Materializer) Read(fields map[string]*FieldWidget) map[string]*string {
	out := make(map[string]*string, len(fields))
	for id, fw := range fields {
		text := fw.Input.Text()
		if text == "" {
			out[id] = nil
			continue
		}
		out[id] = &text
	}
	return out
}

// Teardown removes the fields of row from the display.
func (m *Materializer) Teardown(row int) {
	m.renderer.Unmount(row)
}
