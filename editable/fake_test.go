package editable_test

import (
	"fmt"

	"github.com/plusk0/rowedit/editable"
)

type fakeField struct {
	text     string
	onSubmit func()
}

func (f *fakeField) Text() string          { return f.text }
func (f *fakeField) SetText(text string)   { f.text = text }
func (f *fakeField) SetOnSubmit(fn func()) { f.onSubmit = fn }

// pressEnter simulates the Enter key in the field.
func (f *fakeField) pressEnter() {
	if f.onSubmit != nil {
		f.onSubmit()
	}
}

// fakeHost is an in-memory table that records what the controller does to it.
type fakeHost struct {
	version  string
	settings editable.Settings
	columns  []editable.Column
	rows     []editable.Record

	initDone  bool
	initHooks []func()

	mounted map[editable.CellRef]*editable.FieldWidget
	pending bool
	editing map[int]bool
	focused editable.Field
	draws   int
}

func newFakeHost(columns []editable.Column, rows ...editable.Record) *fakeHost {
	return &fakeHost{
		version: "1.10.4",
		columns: columns,
		rows:    rows,
		mounted: map[editable.CellRef]*editable.FieldWidget{},
		editing: map[int]bool{},
	}
}

// ready finishes initialisation and runs the registered hooks.
func (h *fakeHost) ready() {
	h.initDone = true
	for _, fn := range h.initHooks {
		fn()
	}
	h.initHooks = nil
}

func (h *fakeHost) Version() string             { return h.version }
func (h *fakeHost) Settings() editable.Settings { return h.settings }
func (h *fakeHost) Columns() []editable.Column  { return h.columns }
func (h *fakeHost) Len() int                    { return len(h.rows) }

func (h *fakeHost) Row(i int) (editable.Record, error) {
	if i < 0 || i >= len(h.rows) {
		return nil, editable.ErrInvalidRow
	}
	return h.rows[i], nil
}

func (h *fakeHost) SetRow(i int, rec editable.Record) error {
	if i < 0 || i >= len(h.rows) {
		return editable.ErrInvalidRow
	}
	h.rows[i] = rec
	return nil
}

func (h *fakeHost) Insert(rec editable.Record) (int, error) {
	h.rows = append(h.rows, rec)
	return len(h.rows) - 1, nil
}

func (h *fakeHost) Remove(i int) error {
	if i < 0 || i >= len(h.rows) {
		return editable.ErrInvalidRow
	}
	h.rows = append(h.rows[:i], h.rows[i+1:]...)
	return nil
}

func (h *fakeHost) Draw() { h.draws++ }

func (h *fakeHost) OnInitComplete(fn func()) {
	if h.initDone {
		fn()
		return
	}
	h.initHooks = append(h.initHooks, fn)
}

func (h *fakeHost) CellText(ref editable.CellRef) string {
	if ref.IsNew() {
		return ""
	}
	v := h.rows[ref.Row][h.columns[ref.Col].Field]
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func (h *fakeHost) NewTextField() editable.Field { return &fakeField{} }

func (h *fakeHost) Mount(ref editable.CellRef, fw *editable.FieldWidget) {
	h.mounted[ref] = fw
}

func (h *fakeHost) Unmount(row int) {
	for ref := range h.mounted {
		if ref.Row == row {
			delete(h.mounted, ref)
		}
	}
}

func (h *fakeHost) PrependPending()            { h.pending = true }
func (h *fakeHost) DropPending()               { h.pending = false }
func (h *fakeHost) Focus(f editable.Field)     { h.focused = f }
func (h *fakeHost) SetEditing(row int, e bool) { h.editing[row] = e }

// field returns the live field of a cell.
func (h *fakeHost) field(row, col int) *fakeField {
	fw, ok := h.mounted[editable.CellRef{Row: row, Col: col}]
	if !ok {
		return nil
	}
	f, _ := fw.Input.(*fakeField)
	return f
}

// attach attaches a controller to a ready host.
func attach(h *fakeHost, opts editable.Options) *editable.Controller {
	c, err := editable.NewRegistry().Attach(h, opts)
	if err != nil {
		panic(err)
	}
	h.ready()
	return c
}

func peopleColumns() []editable.Column {
	return []editable.Column{
		{Field: "id", Title: "ID", Type: editable.TypeInt, Visible: true},
		{Field: "name", Title: "Name", Visible: true, Editable: true},
	}
}
