// Package app provides the unit wizard: form dispatch, conversion,
// comparison, standardization and validation over every loaded form.
package app

import (
	"errors"
	"fmt"
	"slices"

	"github.com/artpar/unitwizard/core/errs"
	"github.com/artpar/unitwizard/core/form"
	"github.com/artpar/unitwizard/core/kernel"
	"github.com/artpar/unitwizard/domain/dimension"
	"github.com/rs/zerolog"
)

// ErrPinned is returned by configuration methods called on a pinned Wizard.
var ErrPinned = errors.New("wizard is pinned to a configuration snapshot")

// Recorder receives operational events. adapters/metrics implements it.
type Recorder interface {
	Conversion(from, to, path string)
	Standardization(tier string)
	Error(kind string)
}

type nopRecorder struct{}

func (nopRecorder) Conversion(string, string, string) {}
func (nopRecorder) Standardization(string)            {}
func (nopRecorder) Error(string)                      {}

// Options configures a Wizard.
type Options struct {
	// Catalog lists the candidate form backends. Every detected form is
	// loaded in catalog order unless Forms narrows the list. The textual
	// form is loaded whenever it was detected, listed or not.
	Catalog form.Catalog
	Forms   []string

	Logger   zerolog.Logger
	Recorder Recorder
}

// Wizard is the entry point for every unit operation. Operations read one
// configuration snapshot and thread it through the whole call.
type Wizard struct {
	forms     *form.Registry
	kernel    *kernel.Kernel
	available form.Set

	// pinned, when set, replaces the live kernel state for reads.
	pinned *kernel.State

	rec    Recorder
	logger zerolog.Logger
}

// New detects the available forms, loads them and picks the first form
// able to parse text as default form and parser.
func New(opts Options) (*Wizard, error) {
	logger := opts.Logger.With().Str("service", "wizard").Logger()
	rec := opts.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}

	k, err := kernel.New(kernel.Empty(), opts.Logger)
	if err != nil {
		return nil, err
	}

	w := &Wizard{
		forms:     form.NewRegistry(opts.Logger),
		kernel:    k,
		available: form.Detect(opts.Catalog, logger),
		rec:       rec,
		logger:    logger,
	}

	tags := opts.Forms
	if len(tags) == 0 {
		tags = w.available.Tags()
	} else if w.available.Has(form.Text) && !slices.Contains(tags, form.Text) {
		tags = append(slices.Clone(tags), form.Text)
	}
	if err := w.LoadForm(tags...); err != nil {
		return nil, err
	}
	return w, nil
}

// Forms exposes the form registry.
func (w *Wizard) Forms() *form.Registry { return w.forms }

// Kernel exposes the configuration kernel.
func (w *Wizard) Kernel() *kernel.Kernel { return w.kernel }

// Available returns the tags found by feature detection.
func (w *Wizard) Available() []string { return w.available.Tags() }

// State returns the configuration the next operation will use.
func (w *Wizard) State() kernel.State {
	if w.pinned != nil {
		return w.pinned.Clone()
	}
	return w.kernel.Current()
}

// Pin returns a Wizard whose reads use a frozen copy of the current
// configuration, unaffected by later changes or scopes. Pinned wizards are
// meant to be handed to concurrent workers; they reject configuration calls.
func (w *Wizard) Pin() *Wizard {
	st := w.State()
	p := *w
	p.pinned = &st
	return &p
}

func (w *Wizard) mutable() error {
	if w.pinned != nil {
		return ErrPinned
	}
	return nil
}

// fail records err and returns it unchanged.
func (w *Wizard) fail(err error) error {
	if err != nil {
		if kind := errs.KindOf(err); kind != nil {
			w.rec.Error(errs.Label(kind))
		} else {
			w.rec.Error("other")
		}
	}
	return err
}

// LoadForm registers detected forms. A tag that was not detected fails with
// a library-not-found error. Defaults are filled in when still empty.
func (w *Wizard) LoadForm(tags ...string) error {
	if err := w.mutable(); err != nil {
		return err
	}
	for _, tag := range tags {
		f, ok := w.available.Form(tag)
		if !ok {
			return w.fail(errs.LibraryNotFound("load_library", tag))
		}
		if err := w.forms.Register(f); err != nil {
			return err
		}
		w.logger.Info().Str("form", tag).Msg("form loaded")
	}
	return w.fillDefaults()
}

// UnloadForm removes a loaded form. Defaults pointing at it move to the
// next parser-capable form. The textual form cannot be unloaded.
func (w *Wizard) UnloadForm(tag string) error {
	if err := w.mutable(); err != nil {
		return err
	}
	if tag == form.Text {
		return w.fail(errs.Argument("unload_library", "form", tag))
	}
	if err := w.forms.Unregister(tag); err != nil {
		return w.fail(errs.LibraryNotFound("unload_library", tag).Wrap(err))
	}
	st := w.kernel.Current()
	if st.DefaultForm == tag {
		if err := w.kernel.SetDefaultForm(""); err != nil {
			return err
		}
	}
	if st.DefaultParser == tag {
		if err := w.kernel.SetDefaultParser(""); err != nil {
			return err
		}
	}
	w.logger.Info().Str("form", tag).Msg("form unloaded")
	return w.fillDefaults()
}

// Reset empties the standard-unit registries and resets the defaults to the
// first loaded parser-capable form.
func (w *Wizard) Reset() error {
	if err := w.mutable(); err != nil {
		return err
	}
	w.kernel.Reset()
	return w.fillDefaults()
}

func (w *Wizard) fillDefaults() error {
	st := w.kernel.Current()
	first := ""
	for _, name := range w.forms.Names() {
		if f, _ := w.forms.Get(name); f.HasParser() {
			first = name
			break
		}
	}
	if first == "" {
		return nil
	}
	if st.DefaultForm == "" {
		if err := w.kernel.SetDefaultForm(first); err != nil {
			return err
		}
	}
	if st.DefaultParser == "" {
		if err := w.kernel.SetDefaultParser(first); err != nil {
			return err
		}
	}
	return nil
}

// SetDefaultForm changes the form used when an operation names none.
func (w *Wizard) SetDefaultForm(tag string) error {
	if err := w.mutable(); err != nil {
		return err
	}
	if _, ok := w.forms.Get(tag); !ok {
		return w.fail(errs.LibraryNotFound("set_default_form", tag))
	}
	return w.kernel.SetDefaultForm(tag)
}

// SetDefaultParser changes the form used to parse text.
func (w *Wizard) SetDefaultParser(tag string) error {
	if err := w.mutable(); err != nil {
		return err
	}
	if _, err := w.parserByName("set_default_parser", tag); err != nil {
		return w.fail(err)
	}
	return w.kernel.SetDefaultParser(tag)
}

// SetStandardUnits rebuilds the standard-unit registries from a flat list.
func (w *Wizard) SetStandardUnits(units []string) error {
	if err := w.mutable(); err != nil {
		return err
	}
	return w.fail(w.kernel.SetStandardUnits(units, w.resolveDims))
}

// SetOrder changes the dimension order of the least-squares basis.
func (w *Wizard) SetOrder(order []dimension.Symbol) error {
	if err := w.mutable(); err != nil {
		return err
	}
	return w.kernel.SetOrder(order)
}

// SetDecimals changes the least-squares exponent rounding.
func (w *Wizard) SetDecimals(n int) error {
	if err := w.mutable(); err != nil {
		return err
	}
	return w.kernel.SetDecimals(n)
}

// resolveDims is the kernel's dimension resolver for standard units.
func (w *Wizard) resolveDims(st kernel.State, unit string) (dimension.Vector, error) {
	return w.dimensionality(st, unit)
}

// ContextOpts lists the settings a Context overrides.
type ContextOpts struct {
	DefaultForm   string
	DefaultParser string
	StandardUnits []string
}

func (w *Wizard) overrides(o ContextOpts) (kernel.Overrides, error) {
	if o.DefaultForm != "" {
		if _, ok := w.forms.Get(o.DefaultForm); !ok {
			return kernel.Overrides{}, errs.LibraryNotFound("context", o.DefaultForm)
		}
	}
	if o.DefaultParser != "" {
		if _, err := w.parserByName("context", o.DefaultParser); err != nil {
			return kernel.Overrides{}, err
		}
	}
	return kernel.Overrides{
		DefaultForm:   o.DefaultForm,
		DefaultParser: o.DefaultParser,
		StandardUnits: o.StandardUnits,
		Resolve:       w.resolveDims,
	}, nil
}

// Context runs fn with the overrides applied and restores the previous
// configuration when fn returns, fails or panics.
func (w *Wizard) Context(o ContextOpts, fn func() error) error {
	if err := w.mutable(); err != nil {
		return err
	}
	ov, err := w.overrides(o)
	if err != nil {
		return w.fail(err)
	}
	return w.kernel.With(ov, fn)
}

// EnterContext applies the overrides until the returned scope is closed.
func (w *Wizard) EnterContext(o ContextOpts) (*kernel.Scope, error) {
	if err := w.mutable(); err != nil {
		return nil, err
	}
	ov, err := w.overrides(o)
	if err != nil {
		return nil, w.fail(err)
	}
	return w.kernel.Enter(ov)
}

// Form returns the tag of the form owning x.
func (w *Wizard) Form(x any) (string, error) {
	tag, err := w.formOf(x)
	return tag, w.fail(err)
}

func (w *Wizard) formOf(x any) (string, error) {
	tag, ok := w.forms.Identify(x)
	if !ok {
		return "", errs.NotImplementedForm("get_form", fmt.Sprintf("%T", x))
	}
	return tag, nil
}

func (w *Wizard) formByName(caller, tag string) (form.Form, error) {
	if tag == "" {
		return nil, errs.Argument(caller, "form", tag)
	}
	f, ok := w.forms.Get(tag)
	if !ok {
		return nil, errs.LibraryNotFound(caller, tag)
	}
	return f, nil
}

// parser returns the parser form for name, or the state's default parser.
func (w *Wizard) parser(st kernel.State, caller, name string) (form.Form, error) {
	if name == "" {
		name = st.DefaultParser
	}
	return w.parserByName(caller, name)
}

func (w *Wizard) parserByName(caller, name string) (form.Form, error) {
	if name == "" {
		return nil, errs.NoParser(caller)
	}
	f, ok := w.forms.Get(name)
	if !ok {
		return nil, errs.NotImplementedParser(caller, name)
	}
	if !f.HasParser() {
		return nil, errs.LibraryWithoutParser(caller, name)
	}
	return f, nil
}
