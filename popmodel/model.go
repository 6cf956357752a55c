// Package popmodel implements demographic models of the effective
// population size and the coalescence densities they imply.
//
// Times are measured backwards from the reference point of a model
// (initially the present); Shift moves that reference point into the
// past and returns a new model, so model values can be threaded
// through a sequence of segments without mutation.
package popmodel

import (
	"errors"
	"fmt"
	"math"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("popmodel")

// ErrDomain is returned for parameters outside of the model domain.
var ErrDomain = errors.New("parameters outside of the model domain")

// Model is a demographic model.
type Model interface {
	// Name returns the model family name.
	Name() string
	// Params returns the current parameter values.
	Params() Params
	// Validate returns an error wrapping ErrDomain for invalid
	// parameters.
	Validate() error
	// PopulationSize returns the population size t time units
	// before the reference point.
	PopulationSize(t float64) float64
	// Shift returns the model with the reference point moved dt
	// time units into the past.
	Shift(dt float64) Model
	// LogDensity returns the log density of the next coalescence
	// among k lineages happening z time units before the reference
	// point.
	LogDensity(k int, z float64) float64
	// LogSurvival returns the log probability of no coalescence
	// among k lineages during z time units.
	LogSurvival(k int, z float64) float64
}

// Pairs returns the number of lineage pairs, k(k-1)/2.
func Pairs(k int) float64 {
	return float64(k) * float64(k-1) / 2
}

// PopulationSize returns the population size of a model, or an error
// if the model is invalid or the size is not positive.
func PopulationSize(m Model, t float64) (float64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	n := m.PopulationSize(t)
	if !(n > 0) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("%w: %s population size %v at t=%v", ErrDomain, m.Name(), n, t)
	}
	return n, nil
}

// Density returns the coalescence density (not log), or an error for
// invalid parameters.
func Density(m Model, k int, z float64) (float64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	if k < 2 {
		return 0, fmt.Errorf("%w: %d lineages cannot coalesce", ErrDomain, k)
	}
	if z < 0 {
		return 0, fmt.Errorf("%w: negative waiting time %v", ErrDomain, z)
	}
	return math.Exp(m.LogDensity(k, z)), nil
}

// positive checks that parameter value is positive and finite.
func positive(model, name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s %s=%v should be positive", ErrDomain, model, name, v)
	}
	return nil
}

// finite checks that parameter value is finite.
func finite(model, name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s %s=%v should be finite", ErrDomain, model, name, v)
	}
	return nil
}
