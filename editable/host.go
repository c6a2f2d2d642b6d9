package editable

// Table is the data side of the host widget.
type Table interface {
	// Version returns the host widget version, e.g. "1.10.4".
	Version() string

	// Settings returns the opt-in signals used for auto-activation.
	Settings() Settings

	// Columns returns the column metadata in display order.
	Columns() []Column

	// Len returns the number of rows in the table.
	Len() int

	// Row returns the data of the row at index i.
	// Returns ErrInvalidRow if i is out of range.
	Row(i int) (Record, error)

	// SetRow replaces the data of the row at index i.
	// Returns ErrInvalidRow if i is out of range.
	SetRow(i int, rec Record) error

	// Insert adds a row and returns its index.
	Insert(rec Record) (int, error)

	// Remove deletes the row at index i.
	// Returns ErrInvalidRow if i is out of range.
	Remove(i int) error

	// Draw redraws the table from its row data.
	Draw()

	// OnInitComplete registers fn to run once the table finished
	// initialising. If it already has, fn runs immediately.
	OnInitComplete(fn func())
}

// Renderer is the display side of the host widget.
type Renderer interface {
	// CellText returns the text currently rendered in a cell. Cells of the
	// pending row render as "".
	CellText(ref CellRef) string

	// NewTextField creates the default single-line text field.
	NewTextField() Field

	// Mount replaces the display content of a cell with a field widget.
	Mount(ref CellRef, fw *FieldWidget)

	// Unmount restores the display content of every cell of a row.
	Unmount(row int)

	// PrependPending shows a blank pending row above the data rows.
	PrependPending()

	// DropPending removes the pending row.
	DropPending()

	// Focus moves the input focus to a field.
	Focus(f Field)

	// SetEditing toggles the editing style of a row.
	SetEditing(row int, editing bool)
}

// Host is a table widget that can be edited in place.
type Host interface {
	Table
	Renderer
}

// Field is an input-like widget holding a single text value.
type Field interface {
	Text() string
	SetText(text string)
}

// Submitter is implemented by fields that can report an Enter key press.
type Submitter interface {
	SetOnSubmit(fn func())
}

// InputHolder is implemented by template widgets that are not themselves
// input-like but wrap one.
type InputHolder interface {
	Input() Field
}

// Template instantiates the widget used to edit a column. The result is a
// Field, an InputHolder or an opaque widget; the latter falls back to the
// default text field.
type Template func() any

// Templates maps template names to templates.
type Templates map[string]Template

// FieldWidget is a live field mounted into a cell.
type FieldWidget struct {
	// Column is the column the field edits.
	Column Column
	// Col is the column index.
	Col int
	// Widget is what the renderer mounts into the cell.
	Widget any
	// Input is where the value is read from.
	Input Field
}

// Validator decides whether the values of an edit session may be committed.
type Validator interface {
	IsValid(candidate Record) bool
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(candidate Record) bool

// IsValid implements Validator.
func (f ValidatorFunc) IsValid(candidate Record) bool { return f(candidate) }

// EditHandler replaces the default reaction to a cell click.
type EditHandler interface {
	Edit(c *Controller, target CellRef) error
}

// EditHandlerFunc adapts a function to the EditHandler interface.
type EditHandlerFunc func(c *Controller, target CellRef) error

// Edit implements EditHandler.
func (f EditHandlerFunc) Edit(c *Controller, target CellRef) error { return f(c, target) }
