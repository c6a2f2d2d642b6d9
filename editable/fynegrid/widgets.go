package fynegrid

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/plusk0/rowedit/editable"
)

// colResizer is a small draggable widget used to resize columns.
type colResizer struct {
	widget.BaseWidget
	onDrag func(dx float32)
	rect   *canvas.Rectangle
}

func newColResizer(onDrag func(dx float32)) *colResizer {
	r := &colResizer{onDrag: onDrag}
	r.ExtendBaseWidget(r)
	return r
}

func (r *colResizer) CreateRenderer() fyne.WidgetRenderer {
	if r.rect == nil {
		r.rect = canvas.NewRectangle(color.NRGBA{R: 200, G: 200, B: 200, A: 200})
	}
	objs := []fyne.CanvasObject{r.rect}
	return &resizerRenderer{rect: r.rect, objs: objs}
}

func (r *colResizer) Dragged(e *fyne.DragEvent) {
	if r.onDrag != nil {
		r.onDrag(e.Dragged.DX)
	}
}

func (r *colResizer) DragEnd() {}

type resizerRenderer struct {
	rect *canvas.Rectangle
	objs []fyne.CanvasObject
}

func (rr *resizerRenderer) MinSize() fyne.Size           { return fyne.NewSize(6, 24) }
func (rr *resizerRenderer) Layout(size fyne.Size)        { rr.rect.Resize(size) }
func (rr *resizerRenderer) Refresh()                     { rr.rect.Refresh() }
func (rr *resizerRenderer) Objects() []fyne.CanvasObject { return rr.objs }
func (rr *resizerRenderer) Destroy()                     {}

// clickableOverlay is a transparent canvas object that captures clicks.
type clickableOverlay struct {
	canvas.Rectangle
	onTap func()
}

// Tapped implements the fyne.Tappable interface.
func (c *clickableOverlay) Tapped(*fyne.PointEvent) {
	if c.onTap != nil {
		c.onTap()
	}
}

func newClickableOverlay(onTap func()) *clickableOverlay {
	overlay := &clickableOverlay{onTap: onTap}
	overlay.FillColor = color.Transparent
	overlay.StrokeColor = color.Transparent
	return overlay
}

// entryField is an editable.Field backed by a widget.Entry.
type entryField struct {
	entry *widget.Entry
}

func newEntryField(e *widget.Entry) *entryField {
	return &entryField{entry: e}
}

func (f *entryField) Text() string              { return f.entry.Text }
func (f *entryField) SetText(text string)       { f.entry.SetText(text) }
func (f *entryField) Object() fyne.CanvasObject { return f.entry }

// SetOnSubmit makes Enter in the entry call fn.
func (f *entryField) SetOnSubmit(fn func()) {
	f.entry.OnSubmitted = func(string) { fn() }
}

// composite is a template widget with an entry somewhere inside.
type composite struct {
	object fyne.CanvasObject
	input  *entryField
}

func (c *composite) Input() editable.Field     { return c.input }
func (c *composite) Object() fyne.CanvasObject { return c.object }

// Template turns a Fyne widget constructor into a field template. A plain
// entry is used directly; for any other object the first entry inside it
// receives the value.
func Template(build func() fyne.CanvasObject) editable.Template {
	return func() any {
		obj := build()
		if e, ok := obj.(*widget.Entry); ok {
			return newEntryField(e)
		}
		if e := findEntry(obj); e != nil {
			return &composite{object: obj, input: newEntryField(e)}
		}
		return obj
	}
}

func findEntry(obj fyne.CanvasObject) *widget.Entry {
	switch o := obj.(type) {
	case *widget.Entry:
		return o
	case *fyne.Container:
		for _, child := range o.Objects {
			if e := findEntry(child); e != nil {
				return e
			}
		}
	}
	return nil
}

// objectOf returns the canvas object a field widget is displayed with.
func objectOf(w any) fyne.CanvasObject {
	switch v := w.(type) {
	case interface{ Object() fyne.CanvasObject }:
		return v.Object()
	case fyne.CanvasObject:
		return v
	default:
		return nil
	}
}
