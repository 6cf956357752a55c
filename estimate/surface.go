package estimate

import (
	"errors"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/likelihood"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/popmodel"
)

// Fixed is a parameter held at a single value.
type Fixed struct {
	Name  string  `yaml:"name" json:"name"`
	Value float64 `yaml:"value" json:"value"`
}

// Ranged is a parameter evaluated on a grid. The grid is either
// listed in Values or generated from Min, Max and N (log spaced if
// Log is set).
type Ranged struct {
	Name   string    `yaml:"name" json:"name"`
	Values []float64 `yaml:"values,omitempty" json:"values,omitempty"`
	Min    float64   `yaml:"min,omitempty" json:"min,omitempty"`
	Max    float64   `yaml:"max,omitempty" json:"max,omitempty"`
	N      int       `yaml:"n,omitempty" json:"n,omitempty"`
	Log    bool      `yaml:"log,omitempty" json:"log,omitempty"`
}

// Grid returns the grid values.
func (r Ranged) Grid() ([]float64, error) {
	if len(r.Values) > 0 {
		return r.Values, nil
	}
	switch {
	case r.N < 1:
		return nil, fmt.Errorf("%s: no values and no grid size", r.Name)
	case r.N == 1:
		return []float64{r.Min}, nil
	case r.Log && !(r.Min > 0 && r.Max > 0):
		return nil, fmt.Errorf("%s: log grid needs positive bounds, got [%g, %g]", r.Name, r.Min, r.Max)
	case r.Log:
		return floats.LogSpan(make([]float64, r.N), r.Min, r.Max), nil
	}
	return floats.Span(make([]float64, r.N), r.Min, r.Max), nil
}

// Surface describes a likelihood surface: every combination of the
// ranged parameter values, with the fixed parameters held constant.
// Parameters in neither list take the family defaults.
type Surface struct {
	Model  string   `yaml:"model" json:"model"`
	Fixed  []Fixed  `yaml:"fixed" json:"fixed"`
	Ranged []Ranged `yaml:"ranged" json:"ranged"`
}

// ReadSurface reads a YAML surface description.
func ReadSurface(rd io.Reader) (*Surface, error) {
	var s Surface
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("reading surface: %w", err)
	}
	return &s, nil
}

// Point is a point of the likelihood surface.
type Point struct {
	Params popmodel.Params `json:"parameters"`
	LnL    float64         `json:"lnL"`
}

// maxPoints limits the size of a surface.
const maxPoints = 10000000

// Profile evaluates the likelihood on a surface. Points are ordered
// with the last ranged parameter changing fastest. Points outside of
// the model domain have lnL=-Inf.
func Profile(e *likelihood.Engine, f *popmodel.Family, s Surface) ([]Point, error) {
	if len(s.Ranged) == 0 {
		return nil, errors.New("surface has no ranged parameter")
	}
	base := make(popmodel.Params)
	seen := make(map[string]bool)
	check := func(name string) (string, error) {
		c, err := f.Canonical(name)
		if err != nil {
			return "", err
		}
		if seen[c] {
			return "", fmt.Errorf("parameter %s is set twice", c)
		}
		seen[c] = true
		return c, nil
	}
	for _, p := range s.Fixed {
		c, err := check(p.Name)
		if err != nil {
			return nil, err
		}
		base[c] = p.Value
	}
	names := make([]string, len(s.Ranged))
	grids := make([][]float64, len(s.Ranged))
	total := 1
	for i, r := range s.Ranged {
		c, err := check(r.Name)
		if err != nil {
			return nil, err
		}
		names[i] = c
		if grids[i], err = r.Grid(); err != nil {
			return nil, err
		}
		total *= len(grids[i])
		if total > maxPoints {
			return nil, fmt.Errorf("surface has more than %d points", maxPoints)
		}
	}
	base, err := f.Resolve(base)
	if err != nil {
		return nil, err
	}

	points := make([]Point, 0, total)
	idx := make([]int, len(grids))
	for {
		p := base.Clone()
		for i, j := range idx {
			p[names[i]] = grids[i][j]
		}
		m, err := f.Model(p)
		if err != nil {
			return nil, err
		}
		points = append(points, Point{Params: p, LnL: e.LogLikelihood(m)})

		// odometer
		i := len(idx) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(grids[i]) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			break
		}
	}
	return points, nil
}

// Best returns the point with the highest likelihood, or false if no
// point has a finite likelihood.
func Best(points []Point) (Point, bool) {
	best := -1
	for i, p := range points {
		if !math.IsInf(p.LnL, -1) && (best < 0 || p.LnL > points[best].LnL) {
			best = i
		}
	}
	if best < 0 {
		return Point{}, false
	}
	return points[best], true
}
