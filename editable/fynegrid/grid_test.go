package fynegrid

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/plusk0/rowedit/editable"
)

func testColumns() []editable.Column {
	return []editable.Column{
		{Field: "id", Title: "ID", Type: editable.TypeInt, Visible: true},
		{Field: "name", Title: "Name", Visible: true, Editable: true},
		{Field: "file", Title: "File", Visible: true, Editable: true, Template: "link"},
	}
}

func linkTemplate() fyne.CanvasObject {
	return container.NewBorder(nil, nil, widget.NewIcon(theme.FileIcon()), nil, widget.NewEntry())
}

// newTestGrid shows a grid in a test window and attaches editing to it.
func newTestGrid(t *testing.T, rows ...editable.Record) (*Grid, *editable.Controller) {
	t.Helper()
	test.NewTempApp(t)

	g := New(testColumns(), editable.Settings{Classes: []string{"editable"}})
	test.NewTempWindow(t, g)

	reg := editable.NewRegistry()
	opts := editable.Options{Templates: editable.Templates{"link": Template(linkTemplate)}}
	if err := reg.Watch(g, opts); err != nil {
		t.Fatalf("watch: %v", err)
	}
	g.Load(rows)

	c, ok := reg.Controller(g)
	if !ok {
		t.Fatalf("editing not attached to an editable grid")
	}
	g.Bind(c)
	return g, c
}

func entryAt(t *testing.T, g *Grid, ref editable.CellRef) *widget.Entry {
	t.Helper()
	obj, ok := g.mounted[ref]
	if !ok {
		t.Fatalf("no field mounted at %+v", ref)
	}
	e := findEntry(obj)
	if e == nil {
		t.Fatalf("mounted object at %+v has no entry", ref)
	}
	return e
}

func TestTapCellAndSubmit(t *testing.T) {
	g, c := newTestGrid(t,
		editable.Record{"id": 1, "name": "Ann", "file": "a.txt"},
		editable.Record{"id": 2, "name": "Bob", "file": nil},
	)

	test.Tap(g.cells[editable.CellRef{Row: 0, Col: 1}].overlay)

	if row, ok := c.Editing(); !ok || row != 0 {
		t.Fatalf("editing %d (open %v), expected row 0", row, ok)
	}
	if _, ok := g.mounted[editable.CellRef{Row: 0, Col: 0}]; ok {
		t.Errorf("non-editable id cell got a field")
	}
	name := entryAt(t, g, editable.CellRef{Row: 0, Col: 1})
	if name.Text != "Ann" {
		t.Errorf("name seeded with %q", name.Text)
	}
	if file := entryAt(t, g, editable.CellRef{Row: 0, Col: 2}); file.Text != "a.txt" {
		t.Errorf("template entry seeded with %q", file.Text)
	}

	name.SetText("Anne")
	name.OnSubmitted(name.Text)

	if _, ok := c.Editing(); ok {
		t.Errorf("enter did not close the session")
	}
	rec, _ := g.Row(0)
	if rec["name"] != "Anne" || rec["id"] != 1 || rec["file"] != "a.txt" {
		t.Errorf("row is %v", rec)
	}
	if len(g.mounted) != 0 {
		t.Errorf("fields left mounted: %v", g.mounted)
	}
	if got := g.cells[editable.CellRef{Row: 0, Col: 1}].label.Text; got != "Anne" {
		t.Errorf("cell shows %q after redraw", got)
	}
}

func TestTapOtherRowCommitsFirst(t *testing.T) {
	g, c := newTestGrid(t,
		editable.Record{"id": 1, "name": "Ann", "file": nil},
		editable.Record{"id": 2, "name": "Bob", "file": nil},
	)

	test.Tap(g.cells[editable.CellRef{Row: 0, Col: 1}].overlay)
	entryAt(t, g, editable.CellRef{Row: 0, Col: 1}).SetText("Anne")

	test.Tap(g.cells[editable.CellRef{Row: 1, Col: 0}].overlay)

	if row, ok := c.Editing(); !ok || row != 1 {
		t.Fatalf("editing %d (open %v), expected row 1", row, ok)
	}
	if rec, _ := g.Row(0); rec["name"] != "Anne" {
		t.Errorf("first row not committed: %v", rec)
	}
}

func TestTapOutsideCommits(t *testing.T) {
	g, c := newTestGrid(t, editable.Record{"id": 5, "name": "Ann", "file": nil})

	test.Tap(g.cells[editable.CellRef{Row: 0, Col: 1}].overlay)
	entryAt(t, g, editable.CellRef{Row: 0, Col: 1}).SetText("")
	entryAt(t, g, editable.CellRef{Row: 0, Col: 2}).SetText("")

	background := g.content.(*fyne.Container).Objects[0].(*clickableOverlay)
	test.Tap(background)

	if _, ok := c.Editing(); ok {
		t.Errorf("click outside did not close the session")
	}
	if g.Len() != 0 {
		t.Errorf("blank row not removed, %d rows left", g.Len())
	}
}

func TestAddRowShowsPendingRow(t *testing.T) {
	g, c := newTestGrid(t, editable.Record{"id": 1, "name": "Ann", "file": nil})

	if err := c.AddRow(); err != nil {
		t.Fatalf("add row: %v", err)
	}
	if !g.pending {
		t.Fatalf("no pending row")
	}
	for col := range testColumns() {
		ref := editable.CellRef{Row: editable.NewRow, Col: col}
		if e := entryAt(t, g, ref); e.Text != "" {
			t.Errorf("pending cell %d seeded with %q", col, e.Text)
		}
	}

	entryAt(t, g, editable.CellRef{Row: editable.NewRow, Col: 0}).SetText("2")
	name := entryAt(t, g, editable.CellRef{Row: editable.NewRow, Col: 1})
	name.SetText("Bob")
	name.OnSubmitted(name.Text)

	if g.pending {
		t.Errorf("pending row still shown")
	}
	if g.Len() != 2 {
		t.Fatalf("%d rows, expected 2", g.Len())
	}
	rec, _ := g.Row(1)
	if rec["id"] != 2 || rec["name"] != "Bob" || rec["file"] != nil {
		t.Errorf("inserted row is %v", rec)
	}
}

func TestShowOnlyHidesColumns(t *testing.T) {
	g, c := newTestGrid(t, editable.Record{"id": 1, "name": "Ann", "file": "x"})

	g.ShowOnly([]string{"id", "name"})
	if _, ok := g.cells[editable.CellRef{Row: 0, Col: 2}]; ok {
		t.Errorf("hidden column rendered")
	}

	test.Tap(g.cells[editable.CellRef{Row: 0, Col: 1}].overlay)
	if _, ok := g.mounted[editable.CellRef{Row: 0, Col: 2}]; ok {
		t.Errorf("hidden column got a field")
	}
	if _, err := c.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if rec, _ := g.Row(0); rec["file"] != "x" {
		t.Errorf("hidden value lost: %v", rec)
	}

	g.ShowOnly(nil)
	if _, ok := g.cells[editable.CellRef{Row: 0, Col: 2}]; !ok {
		t.Errorf("column not shown again")
	}
}

func TestNotEditableWithoutOptIn(t *testing.T) {
	test.NewTempApp(t)
	g := New(testColumns(), editable.Settings{})

	reg := editable.NewRegistry()
	if err := reg.Watch(g, editable.Options{}); err != nil {
		t.Fatalf("watch: %v", err)
	}
	g.Load(nil)

	if _, ok := reg.Controller(g); ok {
		t.Errorf("editing attached without any opt-in signal")
	}
}

func TestTemplateWithoutEntry(t *testing.T) {
	tmpl := Template(func() fyne.CanvasObject { return widget.NewLabel("x") })
	if _, ok := tmpl().(editable.Field); ok {
		t.Errorf("label template should not be a field")
	}

	tmpl = Template(func() fyne.CanvasObject { return widget.NewMultiLineEntry() })
	if _, ok := tmpl().(editable.Field); !ok {
		t.Errorf("entry template should be a field")
	}
}

func TestEditingRowIsMarked(t *testing.T) {
	g, c := newTestGrid(t,
		editable.Record{"id": 1, "name": "Ann", "file": nil},
		editable.Record{"id": 2, "name": "Bob", "file": nil},
	)

	test.Tap(g.cells[editable.CellRef{Row: 1, Col: 1}].overlay)
	if !g.editing || g.editingRow != 1 {
		t.Fatalf("editing %v row %d, expected row 1 marked", g.editing, g.editingRow)
	}

	if _, err := c.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if g.editing {
		t.Errorf("row still marked after commit")
	}
}
