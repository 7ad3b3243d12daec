package kernel

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/artpar/unitwizard/domain/dimension"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DimensionResolver computes the dimensionality of a unit string under st.
type DimensionResolver func(st State, unit string) (dimension.Vector, error)

// Kernel owns the current State. Reads are lock-free; every mutation and
// the scope stack are serialized behind one mutex.
type Kernel struct {
	mu      sync.Mutex
	current atomic.Pointer[State]
	stack   []frame

	onDepth func(int)
	logger  zerolog.Logger
}

type frame struct {
	id    string
	saved *State
}

// New creates a kernel holding initial.
func New(initial State, logger zerolog.Logger) (*Kernel, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	k := &Kernel{logger: logger.With().Str("component", "kernel").Logger()}
	st := initial.Clone()
	k.current.Store(&st)
	return k, nil
}

// SetDepthObserver installs a callback receiving the scope depth after every
// enter and exit.
func (k *Kernel) SetDepthObserver(fn func(int)) {
	k.mu.Lock()
	k.onDepth = fn
	k.mu.Unlock()
}

// Current returns a copy of the active state.
func (k *Kernel) Current() State {
	return k.current.Load().Clone()
}

// update applies fn to a copy of the current state and publishes it if the
// result is valid. Callers hold k.mu.
func (k *Kernel) update(fn func(*State) error) error {
	next := k.current.Load().Clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	k.current.Store(&next)
	return nil
}

func (k *Kernel) mutate(fn func(*State) error) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.update(fn)
}

// SetDefaultForm replaces the default form.
func (k *Kernel) SetDefaultForm(name string) error {
	return k.mutate(func(s *State) error {
		s.DefaultForm = name
		return nil
	})
}

// SetDefaultParser replaces the default parser.
func (k *Kernel) SetDefaultParser(name string) error {
	return k.mutate(func(s *State) error {
		s.DefaultParser = name
		return nil
	})
}

// SetOrder replaces the dimension order of the basis matrix.
func (k *Kernel) SetOrder(order []dimension.Symbol) error {
	return k.mutate(func(s *State) error {
		s.Order = append([]dimension.Symbol(nil), order...)
		return nil
	})
}

// SetDecimals replaces the least-squares rounding.
func (k *Kernel) SetDecimals(n int) error {
	return k.mutate(func(s *State) error {
		s.Decimals = n
		return nil
	})
}

// LoadAdimensional replaces the adimensional registry.
func (k *Kernel) LoadAdimensional(units []string) error {
	return k.mutate(func(s *State) error {
		s.Adimensional = append([]string(nil), units...)
		return nil
	})
}

// LoadFundamental replaces the fundamental registry. Each entry must have
// exactly one nonzero exponent.
func (k *Kernel) LoadFundamental(stds []Standard) error {
	return k.mutate(func(s *State) error {
		s.Fundamental = padAll(stds)
		return nil
	})
}

// LoadCombinations replaces the combination registry. Each entry must have
// two or more nonzero exponents.
func (k *Kernel) LoadCombinations(stds []Standard) error {
	return k.mutate(func(s *State) error {
		s.Combinations = padAll(stds)
		return nil
	})
}

// LoadTentative replaces the least-squares basis.
func (k *Kernel) LoadTentative(stds []Standard) error {
	return k.mutate(func(s *State) error {
		s.Tentative = padAll(stds)
		return nil
	})
}

// SetStandardUnits derives all four registries from a flat unit list,
// resolving each unit's dimensionality with resolve.
func (k *Kernel) SetStandardUnits(units []string, resolve DimensionResolver) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.update(func(s *State) error {
		return applyStandardUnits(s, units, resolve)
	})
}

func applyStandardUnits(s *State, units []string, resolve DimensionResolver) error {
	if resolve == nil {
		return fmt.Errorf("standard units need a dimension resolver")
	}
	dims := make([]dimension.Vector, len(units))
	for i, u := range units {
		d, err := resolve(s.Clone(), u)
		if err != nil {
			return fmt.Errorf("standard unit %q: %w", u, err)
		}
		dims[i] = d
	}
	s.Adimensional, s.Fundamental, s.Combinations, s.Tentative = Classify(units, dims)
	s.Standards = append([]string(nil), units...)
	return nil
}

// Replace publishes st wholesale.
func (k *Kernel) Replace(st State) error {
	return k.mutate(func(s *State) error {
		*s = st.Clone()
		return nil
	})
}

// Reset empties every registry and clears the defaults.
func (k *Kernel) Reset() {
	k.mu.Lock()
	defer k.mu.Unlock()
	st := Empty()
	k.current.Store(&st)
}

func padAll(stds []Standard) []Standard {
	out := make([]Standard, len(stds))
	for i, st := range stds {
		out[i] = Standard{Unit: st.Unit, Dims: dimension.Pad(st.Dims)}
	}
	return out
}

// Overrides lists the settings a scope replaces. Zero fields are left alone.
type Overrides struct {
	DefaultForm   string
	DefaultParser string
	// StandardUnits, when non-nil, rebuilds every registry from this list
	// using Resolve.
	StandardUnits []string
	Resolve       DimensionResolver
}

// Scope is an active override. Close restores the state that was current
// when the scope was entered.
type Scope struct {
	k  *Kernel
	id string
}

// ID returns the scope identifier.
func (s *Scope) ID() string { return s.id }

// Enter snapshots the current state, applies o and pushes a scope.
// Nothing changes if applying o fails.
func (k *Kernel) Enter(o Overrides) (*Scope, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	saved := k.current.Load()
	err := k.update(func(s *State) error {
		if o.DefaultForm != "" {
			s.DefaultForm = o.DefaultForm
		}
		if o.DefaultParser != "" {
			s.DefaultParser = o.DefaultParser
		}
		if o.StandardUnits != nil {
			return applyStandardUnits(s, o.StandardUnits, o.Resolve)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	k.stack = append(k.stack, frame{id: id, saved: saved})
	k.logger.Debug().Str("scope", id).Int("depth", len(k.stack)).Msg("scope entered")
	k.notifyDepth()
	return &Scope{k: k, id: id}, nil
}

// Close restores the pre-entry state. Closing a scope also discards any
// scopes entered inside it that are still open. Close is idempotent.
func (s *Scope) Close() {
	k := s.k
	k.mu.Lock()
	defer k.mu.Unlock()

	for i := len(k.stack) - 1; i >= 0; i-- {
		if k.stack[i].id != s.id {
			continue
		}
		k.current.Store(k.stack[i].saved)
		k.stack = k.stack[:i]
		k.logger.Debug().Str("scope", s.id).Int("depth", len(k.stack)).Msg("scope exited")
		k.notifyDepth()
		return
	}
}

// With runs fn inside a scope applying o. The previous state is restored
// when fn returns, fails or panics.
func (k *Kernel) With(o Overrides, fn func() error) error {
	s, err := k.Enter(o)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn()
}

// Depth returns the number of open scopes.
func (k *Kernel) Depth() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.stack)
}

func (k *Kernel) notifyDepth() {
	if k.onDepth != nil {
		k.onDepth(len(k.stack))
	}
}
