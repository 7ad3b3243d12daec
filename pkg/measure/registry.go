package measure

import (
	"fmt"
	"math"
	"strings"
	"sync"
)

// Definition describes one named unit in terms of SI coherent base units.
type Definition struct {
	Name       string
	Symbol     string
	Aliases    []string
	Factor     float64
	Dims       Dimensions
	Prefixable bool
}

type prefix struct {
	long, short string
	factor      float64
}

var prefixes = []prefix{
	{"yotta", "Y", 1e24}, {"zetta", "Z", 1e21}, {"exa", "E", 1e18},
	{"peta", "P", 1e15}, {"tera", "T", 1e12}, {"giga", "G", 1e9},
	{"mega", "M", 1e6}, {"kilo", "k", 1e3}, {"hecto", "h", 1e2},
	{"deca", "da", 1e1}, {"deci", "d", 1e-1}, {"centi", "c", 1e-2},
	{"milli", "m", 1e-3}, {"micro", "u", 1e-6}, {"micro", "µ", 1e-6},
	{"nano", "n", 1e-9}, {"pico", "p", 1e-12}, {"femto", "f", 1e-15},
	{"atto", "a", 1e-18}, {"zepto", "z", 1e-21}, {"yocto", "y", 1e-24},
}

func dims(pairs ...float64) Dimensions {
	var d Dimensions
	for i := 0; i+1 < len(pairs); i += 2 {
		d[int(pairs[i])] = pairs[i+1]
	}
	return d
}

var (
	energy = dims(Mass, 1, Length, 2, Time, -2)
	charge = dims(Current, 1, Time, 1)
)

// builtin lists the units of the default registry.
var builtin = []Definition{
	{Name: "meter", Symbol: "m", Aliases: []string{"metre"}, Factor: 1, Dims: dims(Length, 1), Prefixable: true},
	{Name: "gram", Symbol: "g", Factor: 1e-3, Dims: dims(Mass, 1), Prefixable: true},
	{Name: "second", Symbol: "s", Aliases: []string{"sec"}, Factor: 1, Dims: dims(Time, 1), Prefixable: true},
	{Name: "kelvin", Symbol: "K", Factor: 1, Dims: dims(Temperature, 1), Prefixable: true},
	{Name: "mole", Symbol: "mol", Factor: 1, Dims: dims(Substance, 1), Prefixable: true},
	{Name: "ampere", Symbol: "A", Aliases: []string{"amp"}, Factor: 1, Dims: dims(Current, 1), Prefixable: true},
	{Name: "candela", Symbol: "cd", Factor: 1, Dims: dims(Luminosity, 1), Prefixable: true},
	{Name: "radian", Symbol: "rad", Factor: 1, Dims: dims(Angle, 1), Prefixable: true},
	{Name: "steradian", Symbol: "sr", Factor: 1, Dims: dims(Angle, 2), Prefixable: true},
	{Name: "degree", Symbol: "deg", Factor: math.Pi / 180, Dims: dims(Angle, 1)},
	{Name: "joule", Symbol: "J", Factor: 1, Dims: energy, Prefixable: true},
	{Name: "calorie", Symbol: "cal", Factor: 4.184, Dims: energy, Prefixable: true},
	{Name: "electron_volt", Symbol: "eV", Aliases: []string{"electronvolt"}, Factor: 1.602176634e-19, Dims: energy, Prefixable: true},
	{Name: "newton", Symbol: "N", Factor: 1, Dims: dims(Mass, 1, Length, 1, Time, -2), Prefixable: true},
	{Name: "watt", Symbol: "W", Factor: 1, Dims: dims(Mass, 1, Length, 2, Time, -3), Prefixable: true},
	{Name: "pascal", Symbol: "Pa", Factor: 1, Dims: dims(Mass, 1, Length, -1, Time, -2), Prefixable: true},
	{Name: "bar", Symbol: "bar", Factor: 1e5, Dims: dims(Mass, 1, Length, -1, Time, -2), Prefixable: true},
	{Name: "atmosphere", Symbol: "atm", Factor: 101325, Dims: dims(Mass, 1, Length, -1, Time, -2)},
	{Name: "liter", Symbol: "L", Aliases: []string{"l", "litre"}, Factor: 1e-3, Dims: dims(Length, 3), Prefixable: true},
	{Name: "minute", Symbol: "min", Factor: 60, Dims: dims(Time, 1)},
	{Name: "hour", Symbol: "h", Aliases: []string{"hr"}, Factor: 3600, Dims: dims(Time, 1)},
	{Name: "day", Symbol: "d", Factor: 86400, Dims: dims(Time, 1)},
	{Name: "angstrom", Symbol: "Å", Aliases: []string{"Angstrom"}, Factor: 1e-10, Dims: dims(Length, 1)},
	{Name: "dalton", Symbol: "Da", Aliases: []string{"amu", "unified_atomic_mass_unit"}, Factor: 1.66053906660e-27, Dims: dims(Mass, 1), Prefixable: true},
	{Name: "hertz", Symbol: "Hz", Factor: 1, Dims: dims(Time, -1), Prefixable: true},
	{Name: "coulomb", Symbol: "C", Factor: 1, Dims: charge, Prefixable: true},
	{Name: "elementary_charge", Symbol: "e", Factor: 1.602176634e-19, Dims: charge},
	{Name: "volt", Symbol: "V", Factor: 1, Dims: dims(Mass, 1, Length, 2, Time, -3, Current, -1), Prefixable: true},
	{Name: "ohm", Symbol: "Ω", Factor: 1, Dims: dims(Mass, 1, Length, 2, Time, -3, Current, -2), Prefixable: true},
	{Name: "dimensionless", Factor: 1},
}

// Registry resolves unit names and symbols to definitions.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]*Definition
	bySymbol map[string]*Definition
}

// NewRegistry returns a registry holding the built-in units.
func NewRegistry() *Registry {
	r := &Registry{
		byName:   make(map[string]*Definition),
		bySymbol: make(map[string]*Definition),
	}
	for _, d := range builtin {
		if err := r.Define(d); err != nil {
			panic(err)
		}
	}
	return r
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultOnce.Do(func() { defaultReg = NewRegistry() })
	return defaultReg
}

// Define adds a unit definition. Names, aliases and symbols must be unique.
func (r *Registry) Define(d Definition) error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty unit name", ErrSyntax)
	}
	if d.Factor <= 0 {
		return fmt.Errorf("%w: unit %q needs a positive factor", ErrValue, d.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	def := d
	for _, n := range append([]string{d.Name}, d.Aliases...) {
		if _, dup := r.byName[n]; dup {
			return fmt.Errorf("unit %q already defined", n)
		}
	}
	if d.Symbol != "" {
		if _, dup := r.bySymbol[d.Symbol]; dup {
			return fmt.Errorf("unit symbol %q already defined", d.Symbol)
		}
		r.bySymbol[d.Symbol] = &def
	}
	r.byName[d.Name] = &def
	for _, a := range d.Aliases {
		r.byName[a] = &def
	}
	return nil
}

// resolved is a looked-up unit with any prefix applied.
type resolved struct {
	name   string
	factor float64
	dims   Dimensions
}

func fromDef(p string, pf float64, d *Definition) resolved {
	return resolved{name: p + d.Name, factor: pf * d.Factor, dims: d.Dims}
}

// lookup resolves a single unit identifier. The search order is exact symbol,
// name or alias, long prefix with name, plural form, then short prefix with
// symbol.
func (r *Registry) lookup(id string) (resolved, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if d, ok := r.bySymbol[id]; ok {
		return fromDef("", 1, d), nil
	}
	if res, ok := r.lookupName(id); ok {
		return res, nil
	}
	if strings.HasSuffix(id, "s") && len(id) > 1 {
		if res, ok := r.lookupName(strings.TrimSuffix(id, "s")); ok {
			return res, nil
		}
	}
	for _, p := range prefixes {
		rest, ok := strings.CutPrefix(id, p.short)
		if !ok || rest == "" {
			continue
		}
		if d, ok := r.bySymbol[rest]; ok && d.Prefixable {
			return fromDef(p.long, p.factor, d), nil
		}
	}
	return resolved{}, fmt.Errorf("%w: %q", ErrUndefinedUnit, id)
}

func (r *Registry) lookupName(id string) (resolved, bool) {
	if d, ok := r.byName[id]; ok {
		return fromDef("", 1, d), true
	}
	for _, p := range prefixes {
		rest, ok := strings.CutPrefix(id, p.long)
		if !ok || rest == "" {
			continue
		}
		if d, ok := r.byName[rest]; ok && d.Prefixable {
			return fromDef(p.long, p.factor, d), true
		}
	}
	return resolved{}, false
}

// Names returns the canonical names of all defined units.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, d := range builtin {
		seen[d.Name] = true
		out = append(out, d.Name)
	}
	for name, d := range r.byName {
		if name == d.Name && !seen[name] {
			out = append(out, name)
		}
	}
	return out
}
