package optimize

import (
	"errors"
	"math"

	gopt "gonum.org/v1/gonum/optimize"
)

var errInterrupted = errors.New("interrupted by signal")

// GonumMethod selects a gonum local optimization method.
type GonumMethod int

const (
	NelderMead GonumMethod = iota
	BFGS
)

// Gonum minimizes the negative log-likelihood using a method from
// gonum optimize.
type Gonum struct {
	BaseOptimizer
	method GonumMethod
	dH     float64
}

// NewGonum creates a gonum based optimizer.
func NewGonum(method GonumMethod) *Gonum {
	return &Gonum{
		BaseOptimizer: BaseOptimizer{
			repPeriod: 10,
		},
		method: method,
		dH:     1e-6,
	}
}

// Init is a part of the gonum Recorder interface.
func (g *Gonum) Init() error {
	return nil
}

// Record reports major iterations and stops on signals.
func (g *Gonum) Record(l *gopt.Location, op gopt.Operation, s *gopt.Stats) error {
	if op == gopt.MajorIteration {
		g.i = s.MajorIterations
		g.l = -l.F
		g.PrintLine(g.parameters, -l.F)
	}
	if g.interrupted() {
		return errInterrupted
	}
	return nil
}

func (g *Gonum) Func(x []float64) float64 {
	if !g.parameters.ValuesInRange(x) {
		return math.Inf(+1)
	}
	if err := g.parameters.SetValues(x); err != nil {
		panic(err)
	}
	return -g.eval(g.Optimizable, g.parameters)
}

// Grad computes forward differences, backward ones at the upper
// bound.
func (g *Gonum) Grad(grad, x []float64) {
	no := g.Optimizable.Copy()
	par := no.GetFloatParameters()
	par.SetValues(x)
	l1 := -no.Likelihood()
	g.calls++
	for i := range x {
		h := g.dH
		if !par[i].ValueInRange(x[i] + h) {
			h = -h
		}
		par[i].Set(x[i] + h)
		l2 := -no.Likelihood()
		g.calls++
		par[i].Set(x[i])
		grad[i] = (l2 - l1) / h
		if math.IsNaN(grad[i]) || math.IsInf(grad[i], 0) {
			grad[i] = 0
		}
	}
}

func (g *Gonum) Run(iterations int) {
	problem := gopt.Problem{Func: g.Func}
	var method gopt.Method
	switch g.method {
	case BFGS:
		g.start("BFGS")
		problem.Grad = g.Grad
		method = &gopt.BFGS{}
	default:
		g.start("Nelder-Mead")
		method = &gopt.NelderMead{}
	}
	settings := &gopt.Settings{
		MajorIterations:   iterations,
		GradientThreshold: 1e-6,
		Recorder:          g,
	}

	res, err := gopt.Minimize(problem, g.parameters.Values(nil), settings, method)
	switch {
	case err != nil:
		g.finish(false, err.Error())
	case res == nil:
		g.finish(false, "no result")
	default:
		g.finish(res.Status.Err() == nil, res.Status.String())
	}
}
