package popmodel

import (
	"fmt"
	"sort"
	"strings"
)

// Params is a set of named model parameter values. Functions in this
// package never modify a Params they receive.
type Params map[string]float64

// Clone returns an independent copy.
func (p Params) Clone() Params {
	c := make(Params, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// With returns a copy with one parameter set.
func (p Params) With(name string, v float64) Params {
	c := p.Clone()
	c[name] = v
	return c
}

// Names returns sorted parameter names.
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// String returns parameters as name=value pairs sorted by name.
func (p Params) String() string {
	s := make([]string, 0, len(p))
	for _, k := range p.Names() {
		s = append(s, fmt.Sprintf("%s=%g", k, p[k]))
	}
	return strings.Join(s, ",")
}
