package editable

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/mod/semver"
)

// MinHostVersion is the oldest host table version editing works with.
const MinHostVersion = "1.10.1"

// Options configure a Controller.
type Options struct {
	// Validator is consulted before a session is committed. Nil accepts
	// everything.
	Validator Validator

	// EditHandler, if set, replaces Begin as the reaction to cell clicks.
	EditHandler EditHandler

	// Templates resolves Column.Template names.
	Templates Templates

	// Scope is shared by controllers that must not edit rows at the same
	// time. Nil gives the controller a scope of its own.
	Scope *Scope
}

// Registry attaches at most one Controller to each table.
type Registry struct {
	// Editable opts every watched table in, like a global default setting.
	Editable bool

	mu       sync.Mutex
	attached map[Host]*Controller
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{attached: map[Host]*Controller{}}
}

// Attach creates the Controller for h. Attaching to a table that already has
// one returns the existing Controller. Hosts older than MinHostVersion are
// refused with ErrUnsupportedHostVersion.
func (r *Registry) Attach(h Host, opts Options) (*Controller, error) {
	if h == nil {
		return nil, ErrNoTable
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.attached[h]; ok {
		log.Debug().Msg("editing already attached")
		return c, nil
	}
	if err := checkVersion(h.Version()); err != nil {
		return nil, err
	}

	c := newController(h, opts)
	r.attached[h] = c
	return c, nil
}

// Controller returns the Controller attached to h.
func (r *Registry) Controller(h Host) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.attached[h]
	return c, ok
}

// Watch attaches to h once it finished initialising, provided the table
// opts in to editing. The version is checked right away so an unsupported
// host is reported to the caller.
func (r *Registry) Watch(h Host, opts Options) error {
	if h == nil {
		return ErrNoTable
	}
	if err := checkVersion(h.Version()); err != nil {
		return err
	}

	h.OnInitComplete(func() {
		if !r.optedIn(h.Settings()) {
			log.Debug().Msg("table not marked editable")
			return
		}
		if _, err := r.Attach(h, opts); err != nil {
			log.Error().Err(err).Msg("could not attach editing")
		}
	})
	return nil
}

// optedIn reports whether any of the opt-in signals is present.
func (r *Registry) optedIn(s Settings) bool {
	if s.Editable != nil && !*s.Editable {
		return false
	}
	for _, class := range s.Classes {
		if class == "editable" || class == "dt-editable" {
			return true
		}
	}
	if strings.EqualFold(strings.TrimSpace(s.Data["editable"]), "true") {
		return true
	}
	if s.Editable != nil && *s.Editable {
		return true
	}
	return r.Editable
}

func checkVersion(version string) error {
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("%w: cannot parse %q", ErrUnsupportedHostVersion, version)
	}
	if semver.Compare(v, "v"+MinHostVersion) < 0 {
		return fmt.Errorf("%w: %s is older than %s", ErrUnsupportedHostVersion, version, MinHostVersion)
	}
	return nil
}
