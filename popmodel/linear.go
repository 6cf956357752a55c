package popmodel

import (
	"math"
)

// Linear is a population whose size changes linearly,
// N(t) = N0 - b t. With b > 0 the population shrinks going back in
// time and reaches zero at t = N0/b.
type Linear struct {
	N0 float64
	B  float64
}

// NewLinear creates a linear population model.
func NewLinear(n0, b float64) *Linear {
	return &Linear{N0: n0, B: b}
}

// Name returns "linear".
func (m *Linear) Name() string {
	return "linear"
}

// Params returns {N0, b}.
func (m *Linear) Params() Params {
	return Params{"N0": m.N0, "b": m.B}
}

// Validate requires N0 > 0 and b > 0.
func (m *Linear) Validate() error {
	if err := positive(m.Name(), "N0", m.N0); err != nil {
		return err
	}
	return positive(m.Name(), "b", m.B)
}

// PopulationSize returns N0 - b t.
func (m *Linear) PopulationSize(t float64) float64 {
	return m.N0 - m.B*t
}

// Shift moves N0 to N(dt).
func (m *Linear) Shift(dt float64) Model {
	return &Linear{N0: m.PopulationSize(dt), B: m.B}
}

// logSurvival is -∫λ, where the integral of k(k-1)/2N(s) from 0 to z
// is c/b ln(N0/N(z)).
func (m *Linear) logSurvival(c, z float64) float64 {
	nz := m.PopulationSize(z)
	if !(nz > 0) {
		return math.Inf(-1)
	}
	return -c / m.B * math.Log(m.N0/nz)
}

// LogDensity returns log(c/N(z)) - c/b ln(N0/N(z)), or -Inf once the
// population size reaches zero.
func (m *Linear) LogDensity(k int, z float64) float64 {
	if m.Validate() != nil || k < 2 {
		return math.Inf(-1)
	}
	c := Pairs(k)
	nz := m.PopulationSize(z)
	if !(nz > 0) {
		return math.Inf(-1)
	}
	return math.Log(c) - math.Log(nz) + m.logSurvival(c, z)
}

// LogSurvival returns -c/b ln(N0/N(z)).
func (m *Linear) LogSurvival(k int, z float64) float64 {
	if m.Validate() != nil {
		return math.Inf(-1)
	}
	if k < 2 {
		return 0
	}
	return m.logSurvival(Pairs(k), z)
}

// LinearInfection is the linear model parametrized relative to an
// infection time I: N(t) = a + b (I - t). It is the Linear model with
// N0 = a + b I.
type LinearInfection struct {
	A float64
	B float64
	I float64
}

// NewLinearInfection creates a linear model relative to infection time.
func NewLinearInfection(a, b, i float64) *LinearInfection {
	return &LinearInfection{A: a, B: b, I: i}
}

// Name returns "linear-infection".
func (m *LinearInfection) Name() string {
	return "linear-infection"
}

// Params returns {a, b, I}.
func (m *LinearInfection) Params() Params {
	return Params{"a": m.A, "b": m.B, "I": m.I}
}

// Linear converts the model to the N0 - b t parametrization.
func (m *LinearInfection) Linear() *Linear {
	return &Linear{N0: m.A + m.B*m.I, B: m.B}
}

// Validate requires a >= 0, b > 0 and a positive current size.
func (m *LinearInfection) Validate() error {
	if err := finite(m.Name(), "I", m.I); err != nil {
		return err
	}
	if m.A < 0 {
		return positive(m.Name(), "a", m.A)
	}
	if err := finite(m.Name(), "a", m.A); err != nil {
		return err
	}
	if err := positive(m.Name(), "b", m.B); err != nil {
		return err
	}
	return positive(m.Name(), "a+b*I", m.A+m.B*m.I)
}

// PopulationSize returns a + b (I - t).
func (m *LinearInfection) PopulationSize(t float64) float64 {
	return m.A + m.B*(m.I-t)
}

// Shift moves the infection time closer by dt.
func (m *LinearInfection) Shift(dt float64) Model {
	return &LinearInfection{A: m.A, B: m.B, I: m.I - dt}
}

// LogDensity is the Linear density of the equivalent model.
func (m *LinearInfection) LogDensity(k int, z float64) float64 {
	if m.Validate() != nil {
		return math.Inf(-1)
	}
	return m.Linear().LogDensity(k, z)
}

// LogSurvival is the Linear survival of the equivalent model.
func (m *LinearInfection) LogSurvival(k int, z float64) float64 {
	if m.Validate() != nil {
		return math.Inf(-1)
	}
	return m.Linear().LogSurvival(k, z)
}
