package optimize

import (
	"fmt"
	"math"

	lbfgsb "github.com/idavydov/go-lbfgsb"
)

// large replaces infinite function values, which break the line
// search.
const large = 1e300

// LBFGSB is the bounded limited-memory BFGS minimizer of the negative
// log-likelihood with numerical gradient. It stops on its own
// tolerance criteria, the number of iterations is not used.
type LBFGSB struct {
	BaseOptimizer
	dH   float64
	grad []float64
}

func NewLBFGSB() (l *LBFGSB) {
	l = &LBFGSB{
		BaseOptimizer: BaseOptimizer{
			repPeriod: 10,
		},
		dH: 1e-6,
	}
	return
}

func (l *LBFGSB) Logger(info *lbfgsb.OptimizationIterationInformation) {
	l.i = info.Iteration
	l.l = -info.F
	l.PrintLine(l.parameters, -info.F)
}

func (l *LBFGSB) EvaluateFunction(x []float64) float64 {
	if !l.parameters.ValuesInRange(x) {
		return large
	}
	if err := l.parameters.SetValues(x); err != nil {
		panic(err)
	}
	L := l.eval(l.Optimizable, l.parameters)
	if math.IsInf(L, -1) {
		return large
	}
	return -L
}

// EvaluateGradient uses central differences.
func (l *LBFGSB) EvaluateGradient(x []float64) (grad []float64) {
	if l.grad == nil {
		l.grad = make([]float64, len(x))
	}
	grad = l.grad
	for i := range x {
		no1 := l.Optimizable.Copy()
		par1 := no1.GetFloatParameters()
		par1.SetValues(x)
		par1[i].Set(x[i] - l.dH)
		l1 := -no1.Likelihood()
		l.calls++

		no2 := no1.Copy()
		par2 := no2.GetFloatParameters()
		par2[i].Set(x[i] + l.dH)
		l2 := -no2.Likelihood()
		l.calls++

		grad[i] = (l2 - l1) / 2 / l.dH
		if math.IsNaN(grad[i]) || math.IsInf(grad[i], 0) {
			grad[i] = 0
		}
	}
	return
}

func (l *LBFGSB) Run(iterations int) {
	l.start("L-BFGS-B")
	bounds := make([][2]float64, len(l.parameters))

	// keep central differences within the ranges
	for i, par := range l.parameters {
		bounds[i][0] = par.GetMin() + 2*l.dH
		bounds[i][1] = par.GetMax() - 2*l.dH
	}

	opt := new(lbfgsb.Lbfgsb)
	opt.SetApproximationSize(10)
	opt.SetFTolerance(1e-9)
	opt.SetGTolerance(1e-9)

	opt.SetBounds(bounds)
	opt.SetLogger(l.Logger)

	_, exitStatus := opt.Minimize(l, l.parameters.Values(nil))
	log.Debug("Exit status: ", exitStatus)

	l.finish(exitStatus.Code == lbfgsb.SUCCESS, fmt.Sprint(exitStatus))
}
