package export_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plusk0/rowedit/editable"
	"github.com/plusk0/rowedit/internal/export"
)

func columns() []editable.Column {
	return []editable.Column{
		{Field: "ID", Type: editable.TypeInt},
		{Field: "Name", Type: editable.TypeString},
		{Field: "Price", Type: editable.TypeFloat},
		{Field: "Done", Type: editable.TypeBool},
	}
}

func rows() []editable.Record {
	return []editable.Record{
		{"ID": 1, "Name": "Ann", "Price": 2.5, "Done": true},
		// values read back from the store are float64
		{"ID": float64(2), "Name": nil, "Price": float64(3), "Done": "maybe"},
	}
}

func TestParseFormat(t *testing.T) {
	for name, expected := range map[string]export.Format{
		"json":    export.FormatJSON,
		"ARROW":   export.FormatArrow,
		"ipc":     export.FormatArrow,
		"parquet": export.FormatParquet,
	} {
		got, err := export.ParseFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, expected, got, name)
	}

	_, err := export.ParseFormat("csv")
	assert.Error(t, err)
	assert.Equal(t, ".arrow", export.FormatArrow.Ext())
	assert.Equal(t, ".parquet", export.FormatParquet.Ext())
	assert.Equal(t, ".json", export.FormatJSON.Ext())
}

func TestJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	views := []export.View{{Name: "short", Columns: []string{"Name"}}}
	require.NoError(t, export.Write(&buf, export.FormatJSON, columns(), rows()[:1], views))

	doc, err := export.ReadJSON(&buf)
	require.NoError(t, err)
	expected := export.Document{
		Entries: []map[string]any{{"ID": float64(1), "Name": "Ann", "Price": 2.5, "Done": true}},
		Views:   views,
	}
	assert.Equal(t, expected, doc)
}

func TestReadJSONArray(t *testing.T) {
	doc, err := export.ReadJSON(strings.NewReader(` [{"Name": "Ann"}, {"Name": "Bob"}]`))
	require.NoError(t, err)
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, "Bob", doc.Entries[1]["Name"])
	assert.Nil(t, doc.Views)

	_, err = export.ReadJSON(strings.NewReader(`"text"`))
	assert.Error(t, err, "a string is not a save file")
}

func TestArrow(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteArrow(&buf, columns(), rows()))

	r, err := ipc.NewFileReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, 1, r.NumRecords())

	rec, err := r.Record(0)
	require.NoError(t, err)
	require.EqualValues(t, 2, rec.NumRows())
	require.EqualValues(t, 4, rec.NumCols())

	ids := rec.Column(0).(*array.Int64)
	assert.Equal(t, []int64{1, 2}, []int64{ids.Value(0), ids.Value(1)})

	names := rec.Column(1).(*array.String)
	assert.Equal(t, "Ann", names.Value(0))
	assert.True(t, names.IsNull(1))

	prices := rec.Column(2).(*array.Float64)
	assert.Equal(t, []float64{2.5, 3}, []float64{prices.Value(0), prices.Value(1)})

	done := rec.Column(3).(*array.Boolean)
	assert.True(t, done.Value(0))
	assert.True(t, done.IsNull(1), "a value of the wrong type is exported as null")
}

func TestParquet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteParquet(&buf, columns(), rows()))

	pf, err := file.NewParquetReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer pf.Close()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	require.NoError(t, err)
	table, err := fr.ReadTable(context.Background())
	require.NoError(t, err)
	defer table.Release()

	assert.EqualValues(t, 2, table.NumRows())
	assert.EqualValues(t, 4, table.NumCols())
	assert.Equal(t, "Price", table.Schema().Field(2).Name)
}
