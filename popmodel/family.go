package popmodel

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Bounds is an optimizer search interval for a parameter.
type Bounds struct {
	Min, Max float64
}

// Family describes a model parametrization: which named parameters it
// takes, their default values and search bounds.
type Family struct {
	Name string
	// Params lists parameter names in canonical order.
	Params []string
	// Defaults are used for parameters not given explicitly.
	Defaults Params
	// Bounds are the optimizer search intervals.
	Bounds map[string]Bounds
	// Aliases maps alternative parameter names to canonical ones.
	Aliases map[string]string

	build func(Params) Model
}

var families = []*Family{
	{
		Name:     "constant",
		Params:   []string{"N"},
		Defaults: Params{"N": 1000},
		Bounds:   map[string]Bounds{"N": {1e-6, 1e9}},
		Aliases:  map[string]string{"N0": "N"},
		build: func(p Params) Model {
			return NewConstant(p["N"])
		},
	},
	{
		Name:     "linear",
		Params:   []string{"N0", "b"},
		Defaults: Params{"N0": 1000, "b": 10},
		Bounds:   map[string]Bounds{"N0": {1e-6, 1e9}, "b": {1e-9, 1e7}},
		Aliases:  map[string]string{"N": "N0"},
		build: func(p Params) Model {
			return NewLinear(p["N0"], p["b"])
		},
	},
	{
		Name:     "linear-infection",
		Params:   []string{"a", "b", "I"},
		Defaults: Params{"a": 100, "b": 10, "I": 0},
		Bounds:   map[string]Bounds{"a": {0, 1e9}, "b": {1e-9, 1e7}, "I": {-1e6, 1e6}},
		build: func(p Params) Model {
			return NewLinearInfection(p["a"], p["b"], p["I"])
		},
	},
	{
		Name:     "exponential",
		Params:   []string{"N0", "r"},
		Defaults: Params{"N0": 1000, "r": 0.1},
		Bounds:   map[string]Bounds{"N0": {1e-6, 1e9}, "r": {-100, 100}},
		Aliases:  map[string]string{"N": "N0"},
		build: func(p Params) Model {
			return NewExponential(p["N0"], p["r"])
		},
	},
}

var familyAliases = map[string]string{
	"const":     "constant",
	"lin":       "linear",
	"exp":       "exponential",
	"infection": "linear-infection",
}

// Families returns all known model families.
func Families() []*Family {
	return families
}

// FamilyNames returns sorted family names.
func FamilyNames() []string {
	names := make([]string, len(families))
	for i, f := range families {
		names[i] = f.Name
	}
	sort.Strings(names)
	return names
}

// LookupFamily finds a family by name or alias.
func LookupFamily(name string) (*Family, error) {
	name = strings.ToLower(name)
	if a, ok := familyAliases[name]; ok {
		name = a
	}
	for _, f := range families {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("unknown model %q, known models: %s", name, strings.Join(FamilyNames(), ", "))
}

// Canonical returns the canonical name of a parameter, or an error if
// the family has no such parameter.
func (f *Family) Canonical(name string) (string, error) {
	if a, ok := f.Aliases[name]; ok {
		name = a
	}
	for _, p := range f.Params {
		if p == name {
			return name, nil
		}
	}
	return "", fmt.Errorf("model %s has no parameter %q (parameters: %s)", f.Name, name, strings.Join(f.Params, ", "))
}

// Resolve returns a complete canonical parameter set: aliases are
// renamed and missing parameters take default values.
func (f *Family) Resolve(p Params) (Params, error) {
	r := f.Defaults.Clone()
	for _, name := range p.Names() {
		c, err := f.Canonical(name)
		if err != nil {
			return nil, err
		}
		if c != name {
			if _, ok := p[c]; ok {
				return nil, fmt.Errorf("model %s: both %s and its alias %s are set", f.Name, c, name)
			}
		}
		r[c] = p[name]
	}
	for _, name := range f.Params {
		if _, ok := p[name]; !ok && !f.aliased(p, name) {
			log.Debugf("%s: %s=%g (default)", f.Name, name, r[name])
		}
	}
	return r, nil
}

// aliased checks whether a parameter is set under one of its aliases.
func (f *Family) aliased(p Params, name string) bool {
	for a, c := range f.Aliases {
		if _, ok := p[a]; ok && c == name {
			return true
		}
	}
	return false
}

// Model creates a model from parameters. Parameter values outside of
// the domain do not produce an error here; use Validate.
func (f *Family) Model(p Params) (Model, error) {
	r, err := f.Resolve(p)
	if err != nil {
		return nil, err
	}
	return f.build(r), nil
}

// Positive checks whether the parameter only takes positive values,
// which allows searching on the log scale.
func (f *Family) Positive(name string) bool {
	return f.Bounds[name].Min > 0
}

// Clamp restricts a value to the parameter bounds.
func (f *Family) Clamp(name string, v float64) float64 {
	b, ok := f.Bounds[name]
	if !ok {
		return v
	}
	return math.Max(b.Min, math.Min(b.Max, v))
}
