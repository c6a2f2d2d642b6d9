package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/plusk0/rowedit/editable"
	"github.com/plusk0/rowedit/internal/config"
	"github.com/plusk0/rowedit/internal/export"
	"github.com/plusk0/rowedit/internal/store"
)

// records converts stored rows to table records. Fields missing from the
// stored data are null, whole floats in int columns become ints and the
// storage id is kept in the ID field.
func records(schema *config.Schema, rows []store.Row) []editable.Record {
	columns := schema.Columns()
	out := make([]editable.Record, 0, len(rows))
	for _, r := range rows {
		rec := editable.Record{}
		for _, c := range columns {
			rec[c.Field] = nil
		}
		for k, v := range r.Data {
			rec[k] = v
		}
		for _, c := range columns {
			if f, ok := rec[c.Field].(float64); ok && c.Type == editable.TypeInt && f == math.Trunc(f) {
				rec[c.Field] = int(f)
			}
		}
		rec[config.IDField] = r.ID
		out = append(out, rec)
	}
	return out
}

// stored splits a record into its storage id (0 if it has none) and the data
// to persist.
func stored(rec editable.Record) (int, map[string]any) {
	id := 0
	switch v := rec[config.IDField].(type) {
	case int:
		id = v
	case float64:
		id = int(v)
	}
	data := make(map[string]any, len(rec))
	for k, v := range rec {
		if k != config.IDField {
			data[k] = v
		}
	}
	return id, data
}

// typeValidator rejects records holding text that did not parse as the type
// of its int, float or bool column.
func typeValidator(columns []editable.Column) editable.Validator {
	types := map[string]editable.DataType{}
	for _, c := range columns {
		types[c.Field] = c.Type
	}
	return editable.ValidatorFunc(func(candidate editable.Record) bool {
		for field, v := range candidate {
			if v == nil {
				continue
			}
			ok := true
			switch types[field] {
			case editable.TypeInt:
				_, ok = v.(int)
			case editable.TypeFloat:
				_, ok = v.(float64)
			case editable.TypeBool:
				_, ok = v.(bool)
			}
			if !ok {
				log.Info().Str("field", field).Interface("value", v).Msg("value does not match column type")
				return false
			}
		}
		return true
	})
}

// rowWriter is the part of the table the persister writes ids back to.
type rowWriter interface {
	SetRow(i int, rec editable.Record) error
	Draw()
}

// persister mirrors saved and removed rows into the store.
type persister struct {
	st      *store.Store
	table   rowWriter
	onError func(error)
}

func (p *persister) save(ev editable.Save) {
	id, data := stored(ev.Data)
	if ev.IsNew || id == 0 {
		newID, err := p.st.Insert(data)
		if err != nil {
			p.fail(fmt.Errorf("saving new row: %w", err))
			return
		}
		rec := ev.Data.Clone()
		rec[config.IDField] = newID
		if err := p.table.SetRow(ev.Row, rec); err != nil {
			p.fail(err)
			return
		}
		p.table.Draw()
		log.Debug().Int("id", newID).Int("row", ev.Row).Msg("row inserted")
		return
	}
	if err := p.st.Replace(id, data); err != nil {
		p.fail(fmt.Errorf("saving row %d: %w", id, err))
		return
	}
	log.Debug().Int("id", id).Msg("row updated")
}

func (p *persister) remove(ev editable.Removed) {
	id, _ := stored(ev.Data)
	if id == 0 {
		return
	}
	if err := p.st.Delete(id); err != nil {
		p.fail(fmt.Errorf("deleting row %d: %w", id, err))
		return
	}
	log.Debug().Int("id", id).Msg("row deleted")
}

func (p *persister) fail(err error) {
	log.Error().Err(err).Msg("store update failed")
	if p.onError != nil {
		p.onError(err)
	}
}

// importDocument replaces the stored rows with the entries of doc. Views are
// replaced only when doc carries any.
func importDocument(st *store.Store, doc export.Document) error {
	if err := st.DeleteAll(); err != nil {
		return err
	}
	for _, e := range doc.Entries {
		_, data := stored(e)
		if _, err := st.Insert(data); err != nil {
			return err
		}
	}
	if len(doc.Views) == 0 {
		return nil
	}
	if err := st.DeleteAllViews(); err != nil {
		return err
	}
	for _, v := range doc.Views {
		if _, err := st.InsertView(v.Name, v.Columns); err != nil {
			return err
		}
	}
	return nil
}

// exportColumns returns the schema columns, led by an int ID column when the
// schema has none. Only columns in view are kept unless view is empty.
func exportColumns(schema *config.Schema, view []string) []editable.Column {
	var columns []editable.Column
	if _, ok := schema.Field(config.IDField); !ok {
		columns = append(columns, editable.Column{Field: config.IDField, Title: config.IDField, Type: editable.TypeInt, Visible: true})
	}
	columns = append(columns, schema.Columns()...)
	if len(view) == 0 {
		return columns
	}

	keep := map[string]bool{config.IDField: true}
	for _, f := range view {
		keep[f] = true
	}
	out := columns[:0]
	for _, c := range columns {
		if keep[c.Field] {
			out = append(out, c)
		}
	}
	return out
}

// exportViews returns the stored views in save file form.
func exportViews(st *store.Store) []export.View {
	views, err := st.Views()
	if err != nil {
		// non-fatal: continue with empty views
		log.Warn().Err(err).Msg("failed to load views")
		return nil
	}
	out := make([]export.View, 0, len(views))
	for _, v := range views {
		out = append(out, export.View{Name: v.Name, Columns: v.Columns})
	}
	return out
}

// formatFor returns the named format, or the one matching the extension of
// path when name is empty.
func formatFor(name, path string) (export.Format, error) {
	if name != "" {
		return export.ParseFormat(name)
	}
	switch filepath.Ext(path) {
	case ".arrow", ".ipc":
		return export.FormatArrow, nil
	case ".parquet":
		return export.FormatParquet, nil
	}
	return export.FormatJSON, nil
}

// runExport writes the stored rows to path without opening a window.
func runExport(st *store.Store, schema *config.Schema, path, format, view string) error {
	f, err := formatFor(format, path)
	if err != nil {
		return err
	}

	var visible []string
	if view != "" {
		v, err := st.ViewByName(view)
		if err != nil {
			return err
		}
		visible = v.Columns
	}

	rows, err := st.Rows()
	if err != nil {
		return fmt.Errorf("reading rows: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.Write(out, f, exportColumns(schema, visible), records(schema, rows), exportViews(st)); err != nil {
		out.Close()
		return fmt.Errorf("exporting to %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	log.Info().Str("path", path).Str("format", f.String()).Int("rows", len(rows)).Msg("exported")
	return nil
}
