package popmodel

import (
	"errors"
	"math"
	"testing"

	"github.com/op/go-logging"
)

const smallDiff = 1e-12

func init() {
	logging.SetLevel(logging.ERROR, "popmodel")
}

func density(tst *testing.T, m Model, k int, z float64) float64 {
	d, err := Density(m, k, z)
	if err != nil {
		tst.Fatal(err)
	}
	return d
}

func TestConstantDensity(tst *testing.T) {
	d := density(tst, NewConstant(1000), 20, 0.123)
	if math.Abs(d-0.18561118307253324) > smallDiff {
		tst.Error("Wrong constant density:", d)
	}
}

func TestLinearDensity(tst *testing.T) {
	d := density(tst, NewLinear(1000, 5), 20, 0.123)
	if math.Abs(d-0.1857240689796149) > smallDiff {
		tst.Error("Wrong linear density:", d)
	}
}

func TestExponentialDensity(tst *testing.T) {
	m := NewExponential(1000, 0.1)
	for _, c := range []struct{ z, d float64 }{
		{0.123, 0.1878811825975959},
		{12.345, 0.006371726862993659},
	} {
		d := density(tst, m, 20, c.z)
		if math.Abs(d-c.d) > smallDiff {
			tst.Errorf("Wrong exponential density at z=%v: %v, expected %v", c.z, d, c.d)
		}
	}
}

func TestExponentialZeroRate(tst *testing.T) {
	e := NewExponential(500, 0)
	c := NewConstant(500)
	for _, z := range []float64{0, 0.5, 3} {
		if math.Abs(e.LogDensity(5, z)-c.LogDensity(5, z)) > smallDiff {
			tst.Error("Exponential with r=0 should match constant at z =", z)
		}
		if math.Abs(e.LogSurvival(5, z)-c.LogSurvival(5, z)) > smallDiff {
			tst.Error("Exponential survival with r=0 should match constant at z =", z)
		}
	}
}

func TestLinearInfectionEquivalence(tst *testing.T) {
	li := NewLinearInfection(100, 10, 3)
	l := NewLinear(130, 10)
	for _, z := range []float64{0, 0.5, 2.9} {
		if math.Abs(li.LogDensity(4, z)-l.LogDensity(4, z)) > smallDiff {
			tst.Error("Linear parametrizations differ at z =", z)
		}
	}
	s := li.Shift(1)
	if math.Abs(s.PopulationSize(0)-l.Shift(1).PopulationSize(0)) > smallDiff {
		tst.Error("Shifted parametrizations differ")
	}
	if s.Params()["I"] != 2 {
		tst.Error("Shift should move the infection time, got", s.Params())
	}
}

func TestShiftDoesNotMutate(tst *testing.T) {
	m := NewLinear(100, 10)
	s := m.Shift(2)
	if m.N0 != 100 {
		tst.Error("Shift modified the receiver")
	}
	if s.PopulationSize(0) != 80 || s.PopulationSize(1) != m.PopulationSize(3) {
		tst.Error("Wrong shifted population size:", s.PopulationSize(0))
	}

	e := NewExponential(100, 0.5)
	if math.Abs(e.Shift(1).PopulationSize(1)-e.PopulationSize(2)) > smallDiff {
		tst.Error("Exponential shift is not composable")
	}
}

// Survival and density must be consistent: d/dz S(z) = -f(z).
func TestSurvivalDerivative(tst *testing.T) {
	const h = 1e-6
	for _, m := range []Model{
		NewConstant(50),
		NewLinear(50, 4),
		NewLinearInfection(10, 4, 10),
		NewExponential(50, 0.7),
		NewExponential(50, -0.7),
	} {
		for _, z := range []float64{0.1, 1, 5} {
			ds := (math.Exp(m.LogSurvival(6, z+h)) - math.Exp(m.LogSurvival(6, z-h))) / (2 * h)
			f := math.Exp(m.LogDensity(6, z))
			if math.Abs(ds+f) > 1e-6 {
				tst.Errorf("%s at z=%v: -dS/dz=%v, density=%v", m.Name(), z, -ds, f)
			}
		}
	}
}

func TestDomainGuards(tst *testing.T) {
	for _, m := range []Model{
		NewConstant(0),
		NewConstant(-5),
		NewLinear(100, 0),
		NewLinear(100, -1),
		NewLinear(-1, 1),
		NewLinearInfection(-1, 1, 5),
		NewLinearInfection(1, 0, 5),
		NewExponential(0, 0.1),
		NewExponential(math.NaN(), 0.1),
	} {
		if err := m.Validate(); !errors.Is(err, ErrDomain) {
			tst.Errorf("%s %v: expected domain error, got %v", m.Name(), m.Params(), err)
		}
		if d := m.LogDensity(3, 0.5); !math.IsInf(d, -1) {
			tst.Errorf("%s %v: expected -Inf log density, got %v", m.Name(), m.Params(), d)
		}
		if _, err := PopulationSize(m, 0); !errors.Is(err, ErrDomain) {
			tst.Errorf("%s %v: expected domain error for population size", m.Name(), m.Params())
		}
	}

	// valid parameters, population size reaches zero inside the segment
	m := NewLinear(10, 5)
	if d := m.LogDensity(3, 2.5); !math.IsInf(d, -1) {
		tst.Error("Expected -Inf past the zero of the linear model, got", d)
	}
	if _, err := PopulationSize(m, 3); !errors.Is(err, ErrDomain) {
		tst.Error("Expected domain error for negative population size")
	}
	if n, err := PopulationSize(m, 1); err != nil || n != 5 {
		tst.Error("Wrong population size:", n, err)
	}

	if _, err := Density(NewConstant(10), 1, 0.5); !errors.Is(err, ErrDomain) {
		tst.Error("One lineage cannot coalesce")
	}
}

func TestSingleLineageSurvival(tst *testing.T) {
	if s := NewExponential(10, 1).LogSurvival(1, 100); s != 0 {
		tst.Error("A single lineage should always survive, got", s)
	}
}
