package editable

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Scope groups the controllers among which at most one row may be in edit
// mode at a time. Controllers attached without a Scope get a private one.
type Scope struct {
	active *Controller
}

// NewScope creates an empty Scope.
func NewScope() *Scope {
	return &Scope{}
}

// Active returns the controller holding the open session, or nil.
func (s *Scope) Active() *Controller { return s.active }

// release commits the open session of the scope, if any.
func (s *Scope) release() (commitResult, error) {
	if s.active == nil {
		return commitResult{outcome: Idle, row: NewRow}, nil
	}
	return s.active.commit()
}

type session struct {
	row    int
	isNew  bool
	fields map[string]*FieldWidget
}

type commitResult struct {
	owner   *Controller
	outcome Outcome
	row     int
}

// Controller runs the edit sessions of one table.
//
// All methods are meant to be called from the UI goroutine and run to
// completion; the Controller takes no locks.
type Controller struct {
	host      Host
	mat       *Materializer
	validator Validator
	handler   EditHandler
	scope     *Scope

	ready   bool
	session *session

	onStarted []func(EditStarted)
	onSave    []func(Save)
	onRemove  []func(Removed)
}

func newController(h Host, opts Options) *Controller {
	scope := opts.Scope
	if scope == nil {
		scope = NewScope()
	}
	c := &Controller{
		host:      h,
		mat:       NewMaterializer(h, opts.Templates),
		validator: opts.Validator,
		handler:   opts.EditHandler,
		scope:     scope,
	}
	h.OnInitComplete(func() {
		c.ready = true
		log.Debug().Str("version", h.Version()).Msg("editing enabled")
	})
	return c
}

// OnEditStarted registers fn to be called whenever a row enters edit mode.
func (c *Controller) OnEditStarted(fn func(EditStarted)) {
	c.onStarted = append(c.onStarted, fn)
}

// OnSave registers fn to be called after a row was committed.
func (c *Controller) OnSave(fn func(Save)) {
	c.onSave = append(c.onSave, fn)
}

// OnRemove registers fn to be called after a blank row was discarded.
func (c *Controller) OnRemove(fn func(Removed)) {
	c.onRemove = append(c.onRemove, fn)
}

// Editing returns the row in edit mode. ok is false when no session is open;
// row is NewRow while a row created by AddRow is being edited.
func (c *Controller) Editing() (row int, ok bool) {
	if c.session == nil {
		return 0, false
	}
	return c.session.row, true
}

// Scope returns the scope the controller belongs to.
func (c *Controller) Scope() *Scope { return c.scope }

// HandleCellClick reacts to a click on a cell. Clicks into the row that is
// already being edited only move the focus. Other clicks go to the edit
// handler given at attach time, or to Begin.
func (c *Controller) HandleCellClick(target CellRef) error {
	if s := c.session; s != nil && s.row == target.Row {
		c.focus(c.host.Columns(), target.Col)
		return nil
	}
	if target.IsNew() {
		return nil
	}
	if c.handler != nil {
		return c.handler.Edit(c, target)
	}
	return c.Begin(target)
}

// Begin puts the row of target into edit mode.
//
// An open session in the same scope is committed first; if that commit is
// rejected Begin returns ErrValidationFailed and nothing changes. Rows without
// any visible editable column do not enter edit mode.
func (c *Controller) Begin(target CellRef) error {
	if !c.ready {
		log.Debug().Msg("table not initialised, ignoring edit")
		return nil
	}

	columns := c.host.Columns()
	if target.Col != NoColumn && (target.Col < 0 || target.Col >= len(columns)) {
		return fmt.Errorf("%w: %d", ErrInvalidColumn, target.Col)
	}
	if target.Row < 0 || target.Row >= c.host.Len() {
		return fmt.Errorf("%w: %d", ErrInvalidRow, target.Row)
	}

	if s := c.session; s != nil && s.row == target.Row {
		c.focus(columns, target.Col)
		return nil
	}

	res, err := c.scope.release()
	if err != nil {
		return err
	}
	// a discarded row above the target shifts it up by one
	if res.owner == c && res.outcome == Discarded && res.row != NewRow && res.row < target.Row {
		target.Row--
	}

	if !anyEditable(columns) {
		log.Debug().Int("row", target.Row).Msg("no editable columns")
		return nil
	}

	c.open(target.Row, false, columns, target.Col)
	return nil
}

// AddRow shows a blank pending row at the top of the table with a field for
// every visible column and puts it into edit mode. It does nothing while a
// session is open in the scope.
func (c *Controller) AddRow() error {
	if !c.ready {
		log.Debug().Msg("table not initialised, ignoring add row")
		return nil
	}
	if c.scope.active != nil {
		log.Debug().Msg("edit session open, ignoring add row")
		return nil
	}

	columns := c.host.Columns()
	if !anyVisible(columns) {
		log.Debug().Msg("no visible columns, ignoring add row")
		return nil
	}

	c.host.PrependPending()
	c.open(NewRow, true, columns, NoColumn)
	return nil
}

// Commit writes the open session back into the table.
//
// It returns ErrValidationFailed, leaving the session open, if the validator
// rejects the values. A row whose fields are all blank is discarded instead of
// saved. Without an open session Commit returns Idle.
func (c *Controller) Commit() (Outcome, error) {
	res, err := c.commit()
	return res.outcome, err
}

// SubmitField commits the session; fields call it when Enter is pressed.
func (c *Controller) SubmitField() {
	c.commitOn("submit")
}

// ClickOutside commits the session; hosts call it for clicks outside the row
// in edit mode.
func (c *Controller) ClickOutside() {
	c.commitOn("click-outside")
}

func (c *Controller) commitOn(trigger string) {
	_, err := c.commit()
	switch {
	case errors.Is(err, ErrValidationFailed):
		log.Debug().Str("trigger", trigger).Msg("commit rejected, session stays open")
	case err != nil:
		log.Error().Err(err).Str("trigger", trigger).Msg("commit failed")
	}
}

func (c *Controller) open(row int, isNew bool, columns []Column, col int) {
	fields := c.mat.Build(row, columns, isNew)
	for _, fw := range fields {
		if s, ok := fw.Input.(Submitter); ok {
			s.SetOnSubmit(c.SubmitField)
		}
	}

	c.session = &session{row: row, isNew: isNew, fields: fields}
	c.scope.active = c
	c.host.SetEditing(row, true)
	c.focus(columns, col)

	log.Debug().Int("row", row).Bool("new", isNew).Int("fields", len(fields)).Msg("edit started")
	for _, fn := range c.onStarted {
		fn(EditStarted{Row: row, IsNew: isNew})
	}
}

// focus moves the focus to the field of column col, or to the first field in
// column order if col has none.
func (c *Controller) focus(columns []Column, col int) {
	s := c.session
	if s == nil {
		return
	}
	if col >= 0 && col < len(columns) {
		if fw, ok := s.fields[columns[col].Field]; ok && fw.Col == col {
			c.host.Focus(fw.Input)
			return
		}
	}
	for i, column := range columns {
		if fw, ok := s.fields[column.Field]; ok && fw.Col == i {
			c.host.Focus(fw.Input)
			return
		}
	}
}

func (c *Controller) commit() (commitResult, error) {
	s := c.session
	if s == nil {
		return commitResult{owner: c, outcome: Idle, row: NewRow}, nil
	}
	res := commitResult{owner: c, row: s.row}

	columns := c.host.Columns()
	values := c.mat.Read(s.fields)

	candidate := Record{}
	for _, col := range columns {
		v, live := values[col.Field]
		switch {
		case live && v != nil:
			candidate[col.Field] = coerce(col, *v)
		case live || s.isNew:
			candidate[col.Field] = nil
		}
	}

	if c.validator != nil && !c.validator.IsValid(candidate.Clone()) {
		log.Debug().Int("row", s.row).Msg("validation failed")
		return res, ErrValidationFailed
	}

	if blank(values) {
		return c.discard(s, res)
	}

	var data Record
	row := s.row
	if s.isNew {
		data = candidate
		idx, err := c.host.Insert(data.Clone())
		if err != nil {
			return res, fmt.Errorf("inserting row: %w", err)
		}
		row = idx
	} else {
		prior, err := c.host.Row(s.row)
		if err != nil {
			return res, fmt.Errorf("reading row %d: %w", s.row, err)
		}
		data = prior.Clone()
		for k, v := range candidate {
			data[k] = v
		}
		if err := c.host.SetRow(s.row, data.Clone()); err != nil {
			return res, fmt.Errorf("updating row %d: %w", s.row, err)
		}
	}

	c.close(s)
	if s.isNew {
		c.host.DropPending()
	}
	c.host.Draw()

	res.outcome = Saved
	res.row = row
	log.Debug().Int("row", row).Bool("new", s.isNew).Msg("row saved")
	for _, fn := range c.onSave {
		fn(Save{Row: row, IsNew: s.isNew, Data: data.Clone()})
	}
	return res, nil
}

func (c *Controller) discard(s *session, res commitResult) (commitResult, error) {
	var prior Record
	if !s.isNew {
		rec, err := c.host.Row(s.row)
		if err != nil {
			return res, fmt.Errorf("reading row %d: %w", s.row, err)
		}
		prior = rec.Clone()
	}

	c.close(s)
	if s.isNew {
		c.host.DropPending()
	} else if err := c.host.Remove(s.row); err != nil {
		return res, fmt.Errorf("removing row %d: %w", s.row, err)
	}
	c.host.Draw()

	res.outcome = Discarded
	log.Debug().Int("row", s.row).Msg("blank row discarded")
	for _, fn := range c.onRemove {
		fn(Removed{Row: s.row, Data: prior})
	}
	return res, nil
}

// close tears the session down. It runs before any notification so listeners
// see the controller idle.
func (c *Controller) close(s *session) {
	c.mat.Teardown(s.row)
	c.host.SetEditing(s.row, false)
	c.session = nil
	if c.scope.active == c {
		c.scope.active = nil
	}
}

// blank reports whether every field is empty.
func blank(values map[string]*string) bool {
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if v != nil {
			return false
		}
	}
	return true
}

func anyEditable(columns []Column) bool {
	for _, col := range columns {
		if col.Visible && col.Editable {
			return true
		}
	}
	return false
}

func anyVisible(columns []Column) bool {
	for _, col := range columns {
		if col.Visible {
			return true
		}
	}
	return false
}
