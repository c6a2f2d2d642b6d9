package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog/log"

	"github.com/plusk0/rowedit/editable"
	"github.com/plusk0/rowedit/editable/fynegrid"
	"github.com/plusk0/rowedit/internal/config"
	"github.com/plusk0/rowedit/internal/export"
	"github.com/plusk0/rowedit/internal/store"
)

const allViews = "All"

// linkField is a file name entry with a button opening the file next to the
// executable.
func linkField(win fyne.Window) func() fyne.CanvasObject {
	exeDir := ""
	if p, err := os.Executable(); err == nil {
		exeDir = filepath.Dir(p)
	}
	return func() fyne.CanvasObject {
		entry := widget.NewEntry()
		open := widget.NewButtonWithIcon("", theme.FileIcon(), func() {
			if entry.Text == "" {
				dialog.ShowInformation("Open link", "No file specified", win)
				return
			}
			target := filepath.Join(exeDir, entry.Text)
			if err := exec.Command("xdg-open", target).Start(); err != nil {
				dialog.ShowError(fmt.Errorf("open failed: %w", err), win)
			}
		})
		return container.NewBorder(nil, nil, nil, open, entry)
	}
}

// storageFilterJSON returns a file dialog filter for .json
func storageFilterJSON() storage.FileFilter {
	return storage.NewExtensionFileFilter([]string{".json"})
}

// createUI builds the whole UI based on schema.
func createUI(win fyne.Window, st *store.Store, schema *config.Schema, opts options) fyne.CanvasObject {
	columns := schema.Columns()

	grid := fynegrid.New(columns, schema.TableSettings())
	grid.OnError = func(err error) { dialog.ShowError(err, win) }

	reg := editable.NewRegistry()
	reg.Editable = opts.Editable
	templates := editable.Templates{
		"multiline": fynegrid.Template(func() fyne.CanvasObject { return widget.NewMultiLineEntry() }),
		"link":      fynegrid.Template(linkField(win)),
	}
	if err := reg.Watch(grid, editable.Options{
		Validator: typeValidator(columns),
		Templates: templates,
	}); err != nil {
		log.Error().Err(err).Msg("editing disabled")
	}

	reload := func() {
		rows, err := st.Rows()
		if err != nil {
			log.Error().Err(err).Msg("error loading data")
			dialog.ShowError(err, win)
			return
		}
		grid.Load(records(schema, rows))
	}
	reload()

	ctrl, editing := reg.Controller(grid)
	if editing {
		p := &persister{st: st, table: grid, onError: grid.OnError}
		ctrl.OnSave(p.save)
		ctrl.OnRemove(p.remove)
		ctrl.OnEditStarted(func(ev editable.EditStarted) {
			log.Debug().Int("row", ev.Row).Bool("new", ev.IsNew).Msg("editing row")
		})
		grid.Bind(ctrl)
	} else {
		log.Info().Msg("table is read-only")
	}

	// commitOpen resolves an open edit before the table is redrawn from
	// elsewhere. It reports false if the row is still being edited.
	commitOpen := func() bool {
		if !editing {
			return true
		}
		if _, err := ctrl.Commit(); err != nil {
			if errors.Is(err, editable.ErrValidationFailed) {
				err = errors.New("the row being edited has invalid values")
			}
			dialog.ShowError(err, win)
			return false
		}
		return true
	}

	// --- views --- //

	var savedViews []store.View
	loadViews := func() {
		v, err := st.Views()
		if err != nil {
			log.Warn().Err(err).Msg("failed to load views")
			savedViews = nil
			return
		}
		savedViews = v
	}
	loadViews()

	currentView := store.View{Name: allViews}
	setView := func(name string) {
		currentView = store.View{Name: allViews}
		for _, v := range savedViews {
			if v.Name == name {
				currentView = v
				break
			}
		}
		grid.ShowOnly(currentView.Columns)
	}

	buildViewOptions := func() []string {
		names := []string{allViews}
		for _, v := range savedViews {
			names = append(names, v.Name)
		}
		return names
	}

	var viewSelect *widget.Select
	viewSelect = widget.NewSelect(buildViewOptions(), func(sel string) {
		if sel == currentView.Name {
			return
		}
		if !commitOpen() {
			viewSelect.SetSelected(currentView.Name)
			return
		}
		setView(sel)
	})

	delViewBtn := widget.NewButtonWithIcon("", theme.DeleteIcon(), nil)
	refreshViews := func(selected string) {
		loadViews()
		viewSelect.Options = buildViewOptions()
		viewSelect.SetSelected(selected)
		setView(selected)
		if currentView.ID == 0 {
			delViewBtn.Disable()
		} else {
			delViewBtn.Enable()
		}
	}

	editViewBtn := widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), func() {
		// editing "All" creates a new view with every column checked
		editingView := store.View{Name: "New view"}
		if currentView.ID != 0 {
			editingView = currentView
		}

		nameEntry := widget.NewEntry()
		nameEntry.SetText(editingView.Name)

		checks := map[string]*widget.Check{}
		colsBox := container.NewVBox()
		visibleSet := map[string]bool{}
		for _, c := range editingView.Columns {
			visibleSet[c] = true
		}
		for _, f := range schema.Fields {
			ch := widget.NewCheck(f.Label, nil)
			ch.SetChecked(len(editingView.Columns) == 0 || visibleSet[f.Name])
			checks[f.Name] = ch
			colsBox.Add(ch)
		}

		form := container.NewVBox(
			widget.NewLabel("View name:"),
			nameEntry,
			widget.NewLabel("Visible columns:"),
			container.NewScroll(colsBox),
		)

		dialog.ShowCustomConfirm("Edit View", "Save", "Cancel", form, func(yes bool) {
			if !yes || !commitOpen() {
				return
			}
			var selCols []string
			var err error
			for _, f := range schema.Fields {
				if checks[f.Name].Checked {
					selCols = append(selCols, f.Name)
				}
			}
			if editingView.ID > 0 {
				err = st.UpdateView(editingView.ID, nameEntry.Text, selCols)
			} else {
				_, err = st.InsertView(nameEntry.Text, selCols)
			}
			if err != nil {
				dialog.ShowError(err, win)
				return
			}
			refreshViews(nameEntry.Text)
		}, win)
	})

	delViewBtn.OnTapped = func() {
		if currentView.ID == 0 {
			return
		}
		dialog.ShowConfirm("Delete view", "Delete this view? This cannot be undone.", func(yes bool) {
			if !yes || !commitOpen() {
				return
			}
			if err := st.DeleteView(currentView.ID); err != nil {
				dialog.ShowError(err, win)
				return
			}
			refreshViews(allViews)
		}, win)
	}

	// --- toolbar buttons (Open/Save/New/Add) --- //

	openBtn := widget.NewButton("Open file", func() {
		fd := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, win)
				return
			}
			if r == nil {
				return
			}
			defer r.Close()
			doc, err := export.ReadJSON(r)
			if err != nil {
				dialog.ShowError(err, win)
				return
			}
			if !commitOpen() {
				return
			}
			if err := importDocument(st, doc); err != nil {
				dialog.ShowError(err, win)
				reload()
				return
			}
			reload()
			refreshViews(currentView.Name)
			dialog.ShowInformation("Import", fmt.Sprintf("Imported %d rows", len(doc.Entries)), win)
		}, win)
		fd.SetFilter(storageFilterJSON())
		fd.Show()
	})

	saveBtn := widget.NewButton("Save file", func() {
		if !commitOpen() {
			return
		}
		fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, win)
				return
			}
			if uc == nil {
				return
			}
			defer uc.Close()
			f, err := formatFor("", uc.URI().Path())
			if err != nil {
				dialog.ShowError(err, win)
				return
			}
			cols := exportColumns(schema, currentView.Columns)
			if err := export.Write(uc, f, cols, grid.Records(), exportViews(st)); err != nil {
				dialog.ShowError(err, win)
				return
			}
			log.Info().Str("uri", uc.URI().String()).Str("format", f.String()).Msg("saved")
		}, win)
		fd.SetFileName("export.json")
		fd.Show()
	})

	addRowBtn := widget.NewButtonWithIcon("Add Row", theme.ContentAddIcon(), func() {
		if err := ctrl.AddRow(); err != nil {
			dialog.ShowError(err, win)
		}
	})
	if !editing {
		addRowBtn.Disable()
	}

	newDBBtn := widget.NewButton("New DB", func() {
		dialog.ShowConfirm("New Database", "This will erase current data and views. Continue?", func(yes bool) {
			if !yes || !commitOpen() {
				return
			}
			if err := st.DeleteAll(); err != nil {
				dialog.ShowError(err, win)
				return
			}
			if err := st.DeleteAllViews(); err != nil {
				dialog.ShowError(err, win)
				return
			}
			reload()
			refreshViews(allViews)
			dialog.ShowInformation("New Database", "Cleared the database", win)
		}, win)
	})

	start := allViews
	if opts.View != "" {
		start = opts.View
	}
	refreshViews(start)
	if opts.View != "" && currentView.Name != opts.View {
		log.Warn().Str("view", opts.View).Msg("no such view, showing all columns")
		viewSelect.SetSelected(allViews)
	}

	viewToolbar := container.NewHBox(viewSelect, editViewBtn, delViewBtn)
	toolbar := container.NewHBox(newDBBtn, widget.NewSeparator(), viewToolbar, widget.NewSeparator(), openBtn, saveBtn, widget.NewSeparator(), addRowBtn)

	return container.NewBorder(toolbar, nil, nil, nil, grid)
}
