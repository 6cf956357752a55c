package popmodel

import (
	"math"
)

// Exponential is a population of size N(t) = N0 exp(-r t). Positive r
// means growth forward in time.
type Exponential struct {
	N0 float64
	R  float64
}

// NewExponential creates an exponential population model.
func NewExponential(n0, r float64) *Exponential {
	return &Exponential{N0: n0, R: r}
}

// Name returns "exponential".
func (m *Exponential) Name() string {
	return "exponential"
}

// Params returns {N0, r}.
func (m *Exponential) Params() Params {
	return Params{"N0": m.N0, "r": m.R}
}

// Validate requires N0 > 0 and a finite r.
func (m *Exponential) Validate() error {
	if err := positive(m.Name(), "N0", m.N0); err != nil {
		return err
	}
	return finite(m.Name(), "r", m.R)
}

// PopulationSize returns N0 exp(-r t).
func (m *Exponential) PopulationSize(t float64) float64 {
	return m.N0 * math.Exp(-m.R*t)
}

// Shift moves N0 to N(dt).
func (m *Exponential) Shift(dt float64) Model {
	return &Exponential{N0: m.PopulationSize(dt), R: m.R}
}

// integral returns ∫exp(r s) ds from 0 to z.
func (m *Exponential) integral(z float64) float64 {
	if m.R == 0 {
		return z
	}
	return math.Expm1(m.R*z) / m.R
}

// LogDensity returns log(c/N0) + r z - c/N0 (exp(r z) - 1)/r.
func (m *Exponential) LogDensity(k int, z float64) float64 {
	if m.Validate() != nil || k < 2 {
		return math.Inf(-1)
	}
	l := Pairs(k) / m.N0
	d := math.Log(l) + m.R*z - l*m.integral(z)
	if math.IsNaN(d) {
		return math.Inf(-1)
	}
	return d
}

// LogSurvival returns -c/N0 (exp(r z) - 1)/r.
func (m *Exponential) LogSurvival(k int, z float64) float64 {
	if m.Validate() != nil {
		return math.Inf(-1)
	}
	if k < 2 {
		return 0
	}
	return -Pairs(k) / m.N0 * m.integral(z)
}
