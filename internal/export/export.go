// Package export writes the spreadsheet rows as JSON, Arrow IPC or Parquet
// and reads JSON save files back.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/rs/zerolog/log"

	"github.com/plusk0/rowedit/editable"
)

// Format is an output format.
type Format int

const (
	FormatJSON Format = iota
	FormatArrow
	FormatParquet
)

// ParseFormat maps "json", "arrow" and "parquet" to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json":
		return FormatJSON, nil
	case "arrow", "ipc":
		return FormatArrow, nil
	case "parquet":
		return FormatParquet, nil
	}
	return 0, fmt.Errorf("unknown export format %q", name)
}

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatArrow:
		return "arrow"
	case FormatParquet:
		return "parquet"
	}
	return "Format(" + strconv.Itoa(int(f)) + ")"
}

// Ext is the file extension for the format.
func (f Format) Ext() string {
	if f == FormatArrow {
		return ".arrow"
	}
	return "." + f.String()
}

// View is a named column selection as stored in a save file.
type View struct {
	Name    string   `json:"Name"`
	Columns []string `json:"Columns"`
}

// Document is the content of a JSON save file.
type Document struct {
	Entries []map[string]any `json:"entries"`
	Views   []View           `json:"views"`
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadJSON reads a save file. Both an object with "entries" and "views" and
// a bare array of entries are accepted.
func ReadJSON(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, err
	}
	trimmed := bytes.TrimSpace(data)

	var doc Document
	switch {
	case bytes.HasPrefix(trimmed, []byte("[")):
		if err := json.Unmarshal(trimmed, &doc.Entries); err != nil {
			return Document{}, err
		}
	case bytes.HasPrefix(trimmed, []byte("{")):
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return Document{}, err
		}
	default:
		return Document{}, fmt.Errorf("unknown import format")
	}
	return doc, nil
}

// Schema returns the Arrow schema for columns. Every field is nullable.
func Schema(columns []editable.Column) *arrow.Schema {
	fields := make([]arrow.Field, len(columns))
	for i, c := range columns {
		fields[i] = arrow.Field{Name: c.Field, Type: arrowType(c.Type), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(t editable.DataType) arrow.DataType {
	switch t {
	case editable.TypeInt:
		return arrow.PrimitiveTypes.Int64
	case editable.TypeFloat:
		return arrow.PrimitiveTypes.Float64
	case editable.TypeBool:
		return arrow.FixedWidthTypes.Boolean
	}
	return arrow.BinaryTypes.String
}

// Record builds one Arrow record batch from rows. Values that do not fit
// their column type are written as null. The caller releases the record.
func Record(mem memory.Allocator, columns []editable.Column, rows []editable.Record) arrow.Record {
	b := array.NewRecordBuilder(mem, Schema(columns))
	defer b.Release()

	for _, row := range rows {
		for i, c := range columns {
			appendValue(b.Field(i), c, row[c.Field])
		}
	}
	return b.NewRecord()
}

func appendValue(fb array.Builder, c editable.Column, v any) {
	if v == nil {
		fb.AppendNull()
		return
	}
	ok := true
	switch b := fb.(type) {
	case *array.Int64Builder:
		var n int64
		if n, ok = toInt64(v); ok {
			b.Append(n)
		}
	case *array.Float64Builder:
		var f float64
		if f, ok = toFloat64(v); ok {
			b.Append(f)
		}
	case *array.BooleanBuilder:
		var t bool
		if t, ok = v.(bool); ok {
			b.Append(t)
		}
	case *array.StringBuilder:
		b.Append(fmt.Sprint(v))
	}
	if !ok {
		log.Warn().Str("field", c.Field).Str("type", c.Type.String()).Interface("value", v).Msg("value does not fit column type, exporting null")
		fb.AppendNull()
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case float64:
		// JSON numbers decode as float64
		if n == math.Trunc(n) {
			return int64(n), true
		}
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// WriteArrow writes rows as an Arrow IPC file.
func WriteArrow(w io.Writer, columns []editable.Column, rows []editable.Record) error {
	mem := memory.NewGoAllocator()
	rec := Record(mem, columns, rows)
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("failed to create arrow writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("failed to write arrow record: %w", err)
	}
	return fw.Close()
}

// WriteParquet writes rows as a Snappy compressed Parquet file.
func WriteParquet(w io.Writer, columns []editable.Column, rows []editable.Record) error {
	mem := memory.NewGoAllocator()
	rec := Record(mem, columns, rows)
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	pw, err := pqarrow.NewFileWriter(rec.Schema(), w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := pw.Write(rec); err != nil {
		pw.Close()
		return fmt.Errorf("failed to write table to parquet: %w", err)
	}
	return pw.Close()
}

// Write writes rows in format f. JSON output carries views as well.
func Write(w io.Writer, f Format, columns []editable.Column, rows []editable.Record, views []View) error {
	switch f {
	case FormatArrow:
		return WriteArrow(w, columns, rows)
	case FormatParquet:
		return WriteParquet(w, columns, rows)
	}
	doc := Document{Views: views}
	for _, r := range rows {
		doc.Entries = append(doc.Entries, map[string]any(r))
	}
	return WriteJSON(w, doc)
}
