// Package fynegrid is a Fyne table widget that can be edited in place with
// the editable package.
package fynegrid

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog/log"

	"github.com/plusk0/rowedit/editable"
)

// Version is the grid version reported to the editing registry.
const Version = "1.11.0"

const (
	minColWidth      = 40.0
	defaultColWidth  = 160.0
	singleLineHeight = 38.0
)

var (
	headerColor  = color.NRGBA{R: 240, G: 240, B: 240, A: 20}
	evenColor    = color.NRGBA{R: 250, G: 250, B: 250, A: 255}
	oddColor     = color.NRGBA{R: 245, G: 245, B: 255, A: 200}
	editingColor = color.NRGBA{R: 255, G: 248, B: 220, A: 255}
)

type cell struct {
	label   *widget.Label
	swap    *fyne.Container
	overlay *clickableOverlay
}

// Grid shows records in rows and columns. It implements editable.Host.
type Grid struct {
	widget.BaseWidget

	// OnError is called with errors of click-triggered edits other than
	// rejected validation.
	OnError func(error)

	settings  editable.Settings
	columns   []editable.Column
	rows      []editable.Record
	colWidths []float32

	rowsBox *fyne.Container
	content fyne.CanvasObject
	cells   map[editable.CellRef]*cell
	mounted map[editable.CellRef]fyne.CanvasObject

	pending    bool
	editing    bool
	editingRow int

	initDone  bool
	initHooks []func()

	onCellTapped    func(editable.CellRef)
	onOutsideTapped func()
}

// New creates an empty grid. The grid counts as initialised once Load was
// called for the first time.
func New(columns []editable.Column, settings editable.Settings) *Grid {
	g := &Grid{
		settings:  settings,
		columns:   append([]editable.Column(nil), columns...),
		colWidths: make([]float32, len(columns)),
		cells:     map[editable.CellRef]*cell{},
		mounted:   map[editable.CellRef]fyne.CanvasObject{},
	}
	for i := range g.colWidths {
		g.colWidths[i] = defaultColWidth
	}

	g.rowsBox = container.NewVBox()
	scroll := container.NewScroll(g.rowsBox)
	scroll.SetMinSize(fyne.NewSize(600, 300))
	background := newClickableOverlay(func() {
		if g.onOutsideTapped != nil {
			g.onOutsideTapped()
		}
	})
	g.content = container.NewStack(background, scroll)

	g.ExtendBaseWidget(g)
	g.render()
	return g
}

// CreateRenderer implements fyne.Widget.
func (g *Grid) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(g.content)
}

// Bind routes clicks on the grid to c: cell clicks start edits, clicks on
// the empty area commit them.
func (g *Grid) Bind(c *editable.Controller) {
	g.onCellTapped = func(ref editable.CellRef) {
		err := c.HandleCellClick(ref)
		switch {
		case errors.Is(err, editable.ErrValidationFailed):
			log.Info().Msg("fix the highlighted row before editing another")
		case err != nil:
			log.Error().Err(err).Int("row", ref.Row).Int("col", ref.Col).Msg("could not start edit")
			if g.OnError != nil {
				g.OnError(err)
			}
		}
	}
	g.onOutsideTapped = c.ClickOutside
}

// Load replaces all rows and redraws. The first call completes
// initialisation.
func (g *Grid) Load(rows []editable.Record) {
	g.rows = append([]editable.Record(nil), rows...)
	g.mounted = map[editable.CellRef]fyne.CanvasObject{}
	g.render()

	if !g.initDone {
		g.initDone = true
		hooks := g.initHooks
		g.initHooks = nil
		for _, fn := range hooks {
			fn()
		}
	}
}

// Records returns a copy of the row data.
func (g *Grid) Records() []editable.Record {
	out := make([]editable.Record, len(g.rows))
	for i, r := range g.rows {
		out[i] = r.Clone()
	}
	return out
}

// ShowOnly makes the columns with the given fields visible and hides the
// rest. An empty list shows every column.
func (g *Grid) ShowOnly(fields []string) {
	show := map[string]bool{}
	for _, f := range fields {
		show[f] = true
	}
	for i := range g.columns {
		g.columns[i].Visible = len(fields) == 0 || show[g.columns[i].Field]
	}
	g.render()
}

// Version implements editable.Table.
func (g *Grid) Version() string { return Version }

// Settings implements editable.Table.
func (g *Grid) Settings() editable.Settings { return g.settings }

// Columns implements editable.Table.
func (g *Grid) Columns() []editable.Column {
	return append([]editable.Column(nil), g.columns...)
}

// Len implements editable.Table.
func (g *Grid) Len() int { return len(g.rows) }

// Row implements editable.Table.
func (g *Grid) Row(i int) (editable.Record, error) {
	if i < 0 || i >= len(g.rows) {
		return nil, fmt.Errorf("%w: %d", editable.ErrInvalidRow, i)
	}
	return g.rows[i].Clone(), nil
}

// SetRow implements editable.Table.
func (g *Grid) SetRow(i int, rec editable.Record) error {
	if i < 0 || i >= len(g.rows) {
		return fmt.Errorf("%w: %d", editable.ErrInvalidRow, i)
	}
	g.rows[i] = rec
	return nil
}

// Insert implements editable.Table. Rows are appended.
func (g *Grid) Insert(rec editable.Record) (int, error) {
	g.rows = append(g.rows, rec)
	return len(g.rows) - 1, nil
}

// Remove implements editable.Table.
func (g *Grid) Remove(i int) error {
	if i < 0 || i >= len(g.rows) {
		return fmt.Errorf("%w: %d", editable.ErrInvalidRow, i)
	}
	g.rows = append(g.rows[:i], g.rows[i+1:]...)
	return nil
}

// Draw implements editable.Table.
func (g *Grid) Draw() { g.render() }

// OnInitComplete implements editable.Table.
func (g *Grid) OnInitComplete(fn func()) {
	if g.initDone {
		fn()
		return
	}
	g.initHooks = append(g.initHooks, fn)
}

// CellText implements editable.Renderer.
func (g *Grid) CellText(ref editable.CellRef) string {
	if c, ok := g.cells[ref]; ok {
		return c.label.Text
	}
	if ref.IsNew() || ref.Row >= len(g.rows) || ref.Col < 0 || ref.Col >= len(g.columns) {
		return ""
	}
	return formatValue(g.rows[ref.Row][g.columns[ref.Col].Field])
}

// NewTextField implements editable.Renderer.
func (g *Grid) NewTextField() editable.Field {
	return newEntryField(widget.NewEntry())
}

// Mount implements editable.Renderer.
func (g *Grid) Mount(ref editable.CellRef, fw *editable.FieldWidget) {
	obj := objectOf(fw.Widget)
	if obj == nil {
		log.Warn().Str("field", fw.Column.Field).Msg("field widget cannot be displayed")
		return
	}
	g.mounted[ref] = obj
	if c, ok := g.cells[ref]; ok {
		c.swap.Objects = []fyne.CanvasObject{obj}
		c.swap.Refresh()
		c.overlay.Hide()
	}
}

// Unmount implements editable.Renderer.
func (g *Grid) Unmount(row int) {
	for ref := range g.mounted {
		if ref.Row != row {
			continue
		}
		delete(g.mounted, ref)
		if c, ok := g.cells[ref]; ok {
			c.swap.Objects = []fyne.CanvasObject{c.label}
			c.swap.Refresh()
			c.overlay.Show()
		}
	}
}

// PrependPending implements editable.Renderer.
func (g *Grid) PrependPending() {
	g.pending = true
	g.render()
}

// DropPending implements editable.Renderer.
func (g *Grid) DropPending() {
	g.pending = false
	g.Unmount(editable.NewRow)
	g.render()
}

// Focus implements editable.Renderer.
func (g *Grid) Focus(f editable.Field) {
	ef, ok := f.(*entryField)
	if !ok {
		return
	}
	a := fyne.CurrentApp()
	if a == nil {
		return
	}
	if cnv := a.Driver().CanvasForObject(g); cnv != nil {
		cnv.Focus(ef.entry)
	}
}

// SetEditing implements editable.Renderer.
func (g *Grid) SetEditing(row int, editing bool) {
	g.editing = editing
	g.editingRow = row
	g.render()
}

func (g *Grid) tapped(ref editable.CellRef) {
	if g.onCellTapped != nil {
		g.onCellTapped(ref)
	}
}

// render rebuilds header and rows. Mounted fields are put back into their
// cells.
func (g *Grid) render() {
	g.rowsBox.Objects = nil
	g.cells = map[editable.CellRef]*cell{}

	header := container.NewHBox()
	for ci, col := range g.columns {
		if !col.Visible {
			continue
		}
		title := col.Title
		if title == "" {
			title = col.Field
		}
		label := widget.NewLabel(title)
		label.TextStyle = fyne.TextStyle{Bold: true}

		res := newColResizer(func(dx float32) {
			newW := float32(math.Max(minColWidth, float64(g.colWidths[ci]+dx)))
			if newW != g.colWidths[ci] {
				g.colWidths[ci] = newW
				g.render()
			}
		})

		cellWrap := container.New(layout.NewGridWrapLayout(fyne.NewSize(g.colWidths[ci], singleLineHeight)),
			container.NewStack(canvas.NewRectangle(headerColor), label))
		header.Add(container.NewHBox(cellWrap, res))
	}
	g.rowsBox.Add(header)

	if g.pending {
		g.rowsBox.Add(g.renderRow(editable.NewRow, nil, editingColor))
	}
	for ri, rec := range g.rows {
		bg := evenColor
		if ri%2 != 0 {
			bg = oddColor
		}
		if g.editing && g.editingRow == ri {
			bg = editingColor
		}
		g.rowsBox.Add(g.renderRow(ri, rec, bg))
	}

	g.rowsBox.Refresh()
}

func (g *Grid) renderRow(ri int, rec editable.Record, bg color.Color) fyne.CanvasObject {
	rowBox := container.NewHBox()
	for ci, col := range g.columns {
		if !col.Visible {
			continue
		}
		ref := editable.CellRef{Row: ri, Col: ci}

		c := &cell{label: widget.NewLabel(formatValue(rec[col.Field]))}
		c.label.Truncation = fyne.TextTruncateEllipsis
		c.swap = container.NewStack(c.label)
		c.overlay = newClickableOverlay(func() { g.tapped(ref) })
		if obj, ok := g.mounted[ref]; ok {
			c.swap.Objects = []fyne.CanvasObject{obj}
			c.overlay.Hide()
		}
		g.cells[ref] = c

		cellWrap := container.New(layout.NewGridWrapLayout(fyne.NewSize(g.colWidths[ci], singleLineHeight)),
			container.NewStack(canvas.NewRectangle(bg), c.swap, c.overlay))
		rowBox.Add(cellWrap)
	}
	return rowBox
}

// formatValue converts a raw value to the text shown in a cell.
func formatValue(raw any) string {
	if raw == nil {
		return ""
	}
	return fmt.Sprintf("%v", raw)
}
