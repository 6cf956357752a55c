package popmodel

import (
	"math"
)

// Constant is a population of constant size N.
type Constant struct {
	N float64
}

// NewConstant creates a constant population model.
func NewConstant(n float64) *Constant {
	return &Constant{N: n}
}

// Name returns "constant".
func (m *Constant) Name() string {
	return "constant"
}

// Params returns {N}.
func (m *Constant) Params() Params {
	return Params{"N": m.N}
}

// Validate requires N > 0.
func (m *Constant) Validate() error {
	return positive(m.Name(), "N", m.N)
}

// PopulationSize returns N.
func (m *Constant) PopulationSize(t float64) float64 {
	return m.N
}

// Shift returns the same model.
func (m *Constant) Shift(dt float64) Model {
	return m
}

// rate returns the coalescence rate for k lineages.
func (m *Constant) rate(k int) float64 {
	return Pairs(k) / m.N
}

// LogDensity returns log(λ) - λz, λ = k(k-1)/2N.
func (m *Constant) LogDensity(k int, z float64) float64 {
	if m.Validate() != nil || k < 2 {
		return math.Inf(-1)
	}
	l := m.rate(k)
	return math.Log(l) - l*z
}

// LogSurvival returns -λz.
func (m *Constant) LogSurvival(k int, z float64) float64 {
	if m.Validate() != nil {
		return math.Inf(-1)
	}
	if k < 2 {
		return 0
	}
	return -m.rate(k) * z
}
