package editable_test

import (
	"errors"
	"testing"

	"github.com/plusk0/rowedit/editable"
)

func boolPtr(b bool) *bool { return &b }

func TestAttachIsIdempotent(t *testing.T) {
	h := newFakeHost(peopleColumns())
	reg := editable.NewRegistry()

	first, err := reg.Attach(h, editable.Options{})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	second, err := reg.Attach(h, editable.Options{})
	if err != nil {
		t.Fatalf("second attach: %v", err)
	}
	if first != second {
		t.Errorf("second attach created another controller")
	}
	if got, ok := reg.Controller(h); !ok || got != first {
		t.Errorf("lookup returned %v %v", got, ok)
	}
}

func TestAttachChecksVersion(t *testing.T) {
	for _, tc := range []struct {
		version string
		ok      bool
	}{
		{"1.10.1", true},
		{"1.10.4", true},
		{"v2.0.0", true},
		{"1.10.0", false},
		{"1.9.7", false},
		{"", false},
		{"latest", false},
	} {
		t.Run(tc.version, func(t *testing.T) {
			h := newFakeHost(peopleColumns())
			h.version = tc.version

			_, err := editable.NewRegistry().Attach(h, editable.Options{})
			if tc.ok && err != nil {
				t.Errorf("unexpected error %v", err)
			}
			if !tc.ok && !errors.Is(err, editable.ErrUnsupportedHostVersion) {
				t.Errorf("got %v, expected %v", err, editable.ErrUnsupportedHostVersion)
			}
		})
	}
}

func TestAttachNil(t *testing.T) {
	if _, err := editable.NewRegistry().Attach(nil, editable.Options{}); !errors.Is(err, editable.ErrNoTable) {
		t.Errorf("got %v, expected %v", err, editable.ErrNoTable)
	}
}

func TestWatchAutoActivation(t *testing.T) {
	for _, tc := range []struct {
		name     string
		settings editable.Settings
		global   bool
		attached bool
	}{
		{"no signal", editable.Settings{}, false, false},
		{"editable class", editable.Settings{Classes: []string{"display", "editable"}}, false, true},
		{"dt-editable class", editable.Settings{Classes: []string{"dt-editable"}}, false, true},
		{"data attribute", editable.Settings{Data: map[string]string{"editable": "true"}}, false, true},
		{"data attribute false", editable.Settings{Data: map[string]string{"editable": "false"}}, false, false},
		{"settings field", editable.Settings{Editable: boolPtr(true)}, false, true},
		{"registry default", editable.Settings{}, true, true},
		{"explicit veto", editable.Settings{Classes: []string{"editable"}, Editable: boolPtr(false)}, true, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newFakeHost(peopleColumns())
			h.settings = tc.settings
			reg := editable.NewRegistry()
			reg.Editable = tc.global

			if err := reg.Watch(h, editable.Options{}); err != nil {
				t.Fatalf("watch: %v", err)
			}
			if _, ok := reg.Controller(h); ok {
				t.Fatalf("attached before the table was initialised")
			}

			h.ready()
			if _, ok := reg.Controller(h); ok != tc.attached {
				t.Errorf("attached %v, expected %v", ok, tc.attached)
			}
		})
	}
}

func TestWatchReadyTableAttachesImmediately(t *testing.T) {
	h := newFakeHost(peopleColumns(), editable.Record{"id": 1, "name": "Ann"})
	h.settings = editable.Settings{Classes: []string{"editable"}}
	h.ready()

	reg := editable.NewRegistry()
	if err := reg.Watch(h, editable.Options{}); err != nil {
		t.Fatalf("watch: %v", err)
	}
	c, ok := reg.Controller(h)
	if !ok {
		t.Fatalf("not attached")
	}
	if err := c.Begin(editable.CellRef{Row: 0, Col: 1}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, ok := c.Editing(); !ok {
		t.Errorf("controller not ready on an initialised table")
	}
}

func TestWatchRejectsOldHost(t *testing.T) {
	h := newFakeHost(peopleColumns())
	h.version = "1.9.0"
	if err := editable.NewRegistry().Watch(h, editable.Options{}); !errors.Is(err, editable.ErrUnsupportedHostVersion) {
		t.Errorf("got %v, expected %v", err, editable.ErrUnsupportedHostVersion)
	}
}
