// Package editable adds in-place row editing to a tabular widget.
//
// A Controller owns the edit session of one table: clicking a cell turns the
// row's editable cells into input fields, and the row is written back into the
// table's row store when the session is committed (Enter in a field, a click
// outside the row, or a click on another row). A Materializer builds and reads
// those fields. The host widget is reached only through the Table and Renderer
// interfaces in host.go.
package editable

import (
	"fmt"
	"strings"
)

// DataType represents the type of data in a column.
type DataType int

const (
	// TypeString represents string data.
	TypeString DataType = iota
	// TypeInt represents integer data.
	TypeInt
	// TypeFloat represents floating-point data.
	TypeFloat
	// TypeBool represents boolean data.
	TypeBool
)

// String returns the string representation of a DataType.
func (dt DataType) String() string {
	switch dt {
	case TypeString:
		return "String"
	case TypeInt:
		return "Int"
	case TypeFloat:
		return "Float"
	case TypeBool:
		return "Bool"
	default:
		return fmt.Sprintf("Unknown(%d)", dt)
	}
}

// ParseDataType maps a schema type name onto a DataType. Unknown names are
// treated as strings.
func ParseDataType(name string) DataType {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "int", "integer":
		return TypeInt
	case "float", "number":
		return TypeFloat
	case "bool", "boolean":
		return TypeBool
	default:
		return TypeString
	}
}

// Record is the data of one row, keyed by column field identifier.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Column describes one column of the host table.
type Column struct {
	// Field is the data-field identifier the column displays.
	Field string
	// Title is the header text.
	Title string
	// Type is the value type edited text is converted to.
	Type DataType
	// Visible columns are rendered; hidden ones never get a field.
	Visible bool
	// Editable columns get a field when their row enters edit mode.
	Editable bool
	// Template names a field template; empty means a plain text field.
	Template string
}

const (
	// NewRow is the row index of the pending row created by AddRow. It is not
	// part of the table until it is committed.
	NewRow = -1
	// NoColumn is used as CellRef.Col when no particular cell was clicked.
	NoColumn = -1
)

// CellRef addresses one cell by row index and column index (in Columns order).
type CellRef struct {
	Row int
	Col int
}

// IsNew reports whether the reference points into the pending row.
func (c CellRef) IsNew() bool { return c.Row == NewRow }

// Settings are the opt-in signals a table carries.
type Settings struct {
	// Classes are the style classes assigned to the table.
	Classes []string
	// Data holds free-form data attributes, e.g. "editable": "true".
	Data map[string]string
	// Editable is the explicit settings field. A non-nil false vetoes
	// auto-activation even if another signal is present.
	Editable *bool
}

// Outcome is the result of a commit.
type Outcome int

const (
	// Idle means there was no open session.
	Idle Outcome = iota
	// Saved means the row was written to the table.
	Saved
	// Discarded means every field was blank and the row was dropped.
	Discarded
)

// String returns the string representation of an Outcome.
func (o Outcome) String() string {
	switch o {
	case Idle:
		return "idle"
	case Saved:
		return "saved"
	case Discarded:
		return "discarded"
	default:
		return fmt.Sprintf("unknown(%d)", o)
	}
}

// EditStarted is emitted when a row enters edit mode.
type EditStarted struct {
	// Row is the row index, or NewRow for a row created by AddRow.
	Row   int
	IsNew bool
}

// Save is emitted after a row was committed to the table.
type Save struct {
	Row   int
	IsNew bool
	Data  Record
}

// Removed is emitted after a blank row was discarded.
type Removed struct {
	// Row is the index the row had before removal, or NewRow.
	Row int
	// Data is the record the row held before removal; nil for NewRow.
	Data Record
}
