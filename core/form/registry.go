package form

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/rs/zerolog"
)

type bridgeKey struct{ from, to string }

// Registry holds the loaded forms in registration order.
// Thread-safe for concurrent access.
type Registry struct {
	mu sync.RWMutex

	// forms maps tag -> form
	forms map[string]Form

	// order is the registration order, which is the identification order
	order []string

	// bridges maps (from, to) -> direct translator
	bridges map[bridgeKey]Bridge

	// cache maps reflect.Type -> owning tag ("" for unidentified types)
	cache sync.Map

	observe func(cached bool)
	logger  zerolog.Logger
}

// NewRegistry creates an empty form registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		forms:   make(map[string]Form),
		bridges: make(map[bridgeKey]Bridge),
		logger:  logger.With().Str("component", "forms").Logger(),
	}
}

// SetObserver installs a callback invoked on every identification with
// whether the answer came from the type cache.
func (r *Registry) SetObserver(fn func(cached bool)) {
	r.mu.Lock()
	r.observe = fn
	r.mu.Unlock()
}

// Register adds f. Re-registering a tag replaces its bundle and keeps its
// position in the identification order.
func (r *Registry) Register(f Form) error {
	if f == nil || f.Name() == "" {
		return fmt.Errorf("form must have a name")
	}
	name := f.Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.forms[name]; !exists {
		r.order = append(r.order, name)
	}
	r.forms[name] = f

	r.dropBridgesFrom(name)
	if b, ok := f.(Bridger); ok {
		for _, br := range b.Bridges() {
			r.bridges[bridgeKey{name, br.To}] = br
		}
	}
	r.clearCache()

	r.logger.Debug().Str("form", name).Msg("form registered")
	return nil
}

// Unregister removes a form and its translators.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.forms[name]; !exists {
		return fmt.Errorf("form %q not registered", name)
	}
	delete(r.forms, name)
	r.order = removeFromSlice(r.order, name)
	r.dropBridgesFrom(name)
	r.clearCache()

	r.logger.Debug().Str("form", name).Msg("form unregistered")
	return nil
}

// Get retrieves a form by tag.
func (r *Registry) Get(name string) (Form, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.forms[name]
	return f, ok
}

// Names returns the registered tags in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Bridge returns the direct translator from one loaded form to another.
func (r *Registry) Bridge(from, to string) (Bridge, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.forms[to]; !ok {
		return Bridge{}, false
	}
	b, ok := r.bridges[bridgeKey{from, to}]
	return b, ok
}

// Identify returns the tag of the first form, in registration order, whose
// IsQuantity or IsUnit accepts x. The answer is memoized per concrete type.
// ok is false when no form claims x.
func (r *Registry) Identify(x any) (string, bool) {
	if isNil(x) {
		return "", false
	}
	t := reflect.TypeOf(x)

	r.mu.RLock()
	observe := r.observe
	r.mu.RUnlock()

	if v, hit := r.cache.Load(t); hit {
		if observe != nil {
			observe(true)
		}
		name := v.(string)
		return name, name != ""
	}
	if observe != nil {
		observe(false)
	}

	r.mu.RLock()
	var found string
	for _, name := range r.order {
		f := r.forms[name]
		if Probe(f.IsQuantity, x) || Probe(f.IsUnit, x) {
			found = name
			break
		}
	}
	r.cache.Store(t, found)
	r.mu.RUnlock()

	if found == "" {
		r.logger.Debug().Str("type", t.String()).Msg("no form claims type")
	}
	return found, found != ""
}

func (r *Registry) dropBridgesFrom(name string) {
	for k := range r.bridges {
		if k.from == name {
			delete(r.bridges, k)
		}
	}
}

func (r *Registry) clearCache() {
	r.cache.Range(func(k, _ any) bool {
		r.cache.Delete(k)
		return true
	})
}

// Probe evaluates an identification predicate, treating a panic as a
// negative answer.
func Probe(pred func(any) bool, x any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return pred(x)
}

func isNil(x any) bool {
	if x == nil {
		return true
	}
	v := reflect.ValueOf(x)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func removeFromSlice(slice []string, item string) []string {
	result := make([]string, 0, len(slice))
	for _, s := range slice {
		if s != item {
			result = append(result, s)
		}
	}
	return result
}
