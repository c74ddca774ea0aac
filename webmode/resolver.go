package webmode

import (
	"slices"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Resolution is the outcome of a successful Resolve.
type Resolution struct {
	URL     string  `json:"url"`
	Cookies Cookies `json:"cookies"`
	Rule    string  `json:"rule"`
}

// snapshot is one published, never mutated, rule list.
type snapshot struct {
	modes     []*WebMode // configured order
	order     []*WebMode // effective order, preferred modes first
	preferred string
}

func newSnapshot(modes []*WebMode, preferred string) *snapshot {
	modes = slices.Clone(modes)

	order := make([]*WebMode, 0, len(modes))
	if preferred != "" {
		for _, mode := range modes {
			if mode.Name() == preferred {
				order = append(order, mode)
			}
		}
	}
	for _, mode := range modes {
		if preferred == "" || mode.Name() != preferred {
			order = append(order, mode)
		}
	}

	return &snapshot{modes: modes, order: order, preferred: preferred}
}

// Resolver selects the first web mode matching a comment.
type Resolver struct {
	current atomic.Pointer[snapshot]
	logger  zerolog.Logger
}

// Option configures a Resolver.
type Option func(*resolverOptions)

type resolverOptions struct {
	preferred string
}

// WithPreferred moves the modes named name to the front of the order.
func WithPreferred(name string) Option {
	return func(o *resolverOptions) {
		o.preferred = strings.TrimSpace(name)
	}
}

// NewResolver creates a resolver over modes. Disabled modes are logged once
// here and skipped afterwards.
func NewResolver(modes []*WebMode, logger zerolog.Logger, opts ...Option) *Resolver {
	var o resolverOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := &Resolver{logger: logger}
	r.publish(newSnapshot(modes, o.preferred))
	return r
}

// Resolve returns the URL and cookies of the first mode whose pattern occurs
// in comment. It returns ErrNoMatch when no mode matches and a
// *TemplateError when the matching mode's template cannot be expanded.
func (r *Resolver) Resolve(comment string) (*Resolution, error) {
	text := strings.TrimSpace(comment)
	if text == "" {
		return nil, ErrNoMatch
	}

	snap := r.current.Load()
	for _, mode := range snap.order {
		if !mode.Valid() {
			continue
		}
		res, matched, err := mode.resolve(text)
		if !matched {
			continue
		}
		if err != nil {
			return nil, err
		}
		return res, nil
	}

	return nil, ErrNoMatch
}

// Reload replaces the whole rule list and the preferred mode.
func (r *Resolver) Reload(modes []*WebMode, preferred string) {
	r.publish(newSnapshot(modes, strings.TrimSpace(preferred)))
}

// SetPreferred changes the preferred mode and keeps the current rules.
func (r *Resolver) SetPreferred(name string) {
	name = strings.TrimSpace(name)
	for {
		old := r.current.Load()
		next := newSnapshot(old.modes, name)
		if r.current.CompareAndSwap(old, next) {
			r.logger.Debug().Str("preferred", name).Msg("Preferred web mode changed")
			return
		}
	}
}

// Modes returns the modes in configured order.
func (r *Resolver) Modes() []*WebMode {
	return slices.Clone(r.current.Load().modes)
}

// Order returns the modes in the order Resolve tries them.
func (r *Resolver) Order() []*WebMode {
	return slices.Clone(r.current.Load().order)
}

// Preferred returns the preferred mode name, empty when none is set.
func (r *Resolver) Preferred() string {
	return r.current.Load().preferred
}

// Invalid returns the modes disabled by a pattern error.
func (r *Resolver) Invalid() []*WebMode {
	var invalid []*WebMode
	for _, mode := range r.current.Load().modes {
		if !mode.Valid() {
			invalid = append(invalid, mode)
		}
	}
	return invalid
}

func (r *Resolver) publish(snap *snapshot) {
	for _, mode := range snap.modes {
		if err := mode.Err(); err != nil {
			r.logger.Warn().Err(err).Str("mode", mode.Name()).Msg("Web mode disabled")
		}
		if dropped := mode.DroppedCookies(); len(dropped) > 0 {
			r.logger.Warn().Str("mode", mode.Name()).Strs("segments", dropped).Msg("Ignoring malformed cookie segments")
		}
	}
	if snap.preferred != "" && len(snap.order) > 0 && snap.order[0].Name() != snap.preferred {
		r.logger.Warn().Str("preferred", snap.preferred).Msg("Preferred web mode not found, using configured order")
	}

	r.current.Store(snap)

	r.logger.Debug().
		Int("modes", len(snap.modes)).
		Str("preferred", snap.preferred).
		Msg("Web modes loaded")
}
