package optimize

import (
	"errors"
	"math"
	"os"
	"testing"

	"github.com/op/go-logging"
)

func init() {
	logging.SetLevel(logging.ERROR, "optimize")
}

// quadratic has a maximum of 0 at center.
type quadratic struct {
	x      []float64
	center []float64
	pars   FloatParameters
}

func newQuadratic(start, center []float64) *quadratic {
	q := &quadratic{
		x:      append([]float64(nil), start...),
		center: center,
	}
	for i := range q.x {
		par := NewBasicFloatParameter(&q.x[i], string(rune('a'+i)))
		par.SetMin(-10)
		par.SetMax(10)
		q.pars.Append(par)
	}
	return q
}

func (q *quadratic) GetFloatParameters() FloatParameters {
	return q.pars
}

func (q *quadratic) Copy() Optimizable {
	return newQuadratic(q.x, q.center)
}

func (q *quadratic) Likelihood() (l float64) {
	for i, x := range q.x {
		d := x - q.center[i]
		l -= d * d * float64(i+1)
	}
	return
}

func checkOptimizer(tst *testing.T, opt Optimizer, center []float64, prec float64) {
	q := newQuadratic(make([]float64, len(center)), center)
	opt.SetOptimizable(q)
	opt.Run(5000)
	for i := range center {
		if math.Abs(q.x[i]-center[i]) > prec {
			tst.Errorf("%s: parameter %d is %v, expected %v", opt.Summary().Method, i, q.x[i], center[i])
		}
	}
	s := opt.Summary()
	if s.MaxL != opt.GetMaxL() || s.MaxL < -prec {
		tst.Errorf("%s: wrong maximum %v", s.Method, s.MaxL)
	}
	if s.Calls == 0 {
		tst.Errorf("%s: no likelihood calls", s.Method)
	}
}

func TestDS(tst *testing.T) {
	ds := NewDS()
	checkOptimizer(tst, ds, []float64{1.5, -2}, 1e-3)
	if !ds.Summary().Converged {
		tst.Error("Simplex did not converge:", ds.Summary().Status)
	}
}

func TestNelderMead(tst *testing.T) {
	checkOptimizer(tst, NewGonum(NelderMead), []float64{1.5, -2}, 1e-3)
}

func TestBFGS(tst *testing.T) {
	checkOptimizer(tst, NewGonum(BFGS), []float64{1.5, -2}, 1e-3)
}

func TestLBFGSB(tst *testing.T) {
	checkOptimizer(tst, NewLBFGSB(), []float64{1.5, -2}, 1e-3)
}

func TestBrent(tst *testing.T) {
	b := NewBrent()
	checkOptimizer(tst, b, []float64{3.3}, 1e-6)
	if !b.Summary().Converged {
		tst.Error("Brent did not converge:", b.Summary().Status)
	}

	b = NewBrent()
	b.SetOptimizable(newQuadratic([]float64{0, 0}, []float64{1, 1}))
	b.Run(100)
	if b.Summary().Converged {
		tst.Error("Brent should refuse two parameters")
	}
}

func TestNone(tst *testing.T) {
	q := newQuadratic([]float64{1}, []float64{3})
	n := NewNone()
	n.SetOptimizable(q)
	n.Run(10)
	if n.GetMaxL() != -4 || n.Summary().Calls != 1 {
		tst.Error("Wrong likelihood:", n.GetMaxL())
	}
}

func TestAnnealing(tst *testing.T) {
	q := newQuadratic([]float64{0}, []float64{2})
	q.pars[0].SetProposalFunc(NormalProposal(0.1))
	a := NewMH(true, 0)
	a.SetOptimizable(q)
	a.Run(5000)
	if math.Abs(q.x[0]-2) > 0.1 {
		tst.Error("Annealing did not find the maximum:", q.x[0])
	}
}

func TestBrentMinimize(tst *testing.T) {
	x, fx, _, ok := BrentMinimize(math.Cos, 2, 4, 1e-10, 100)
	if !ok || math.Abs(x-math.Pi) > 1e-6 || math.Abs(fx+1) > 1e-11 {
		tst.Error("Wrong minimum:", x, fx, ok)
	}
	// minimum at the boundary
	x, _, _, ok = BrentMinimize(func(x float64) float64 { return x }, 1, 2, 1e-10, 100)
	if !ok || math.Abs(x-1) > 1e-6 {
		tst.Error("Wrong boundary minimum:", x, ok)
	}
}

func TestBrentRoot(tst *testing.T) {
	f := func(x float64) float64 { return x*x - 2 }
	x, err := BrentRoot(f, 0, 2, 1e-12, 100)
	if err != nil || math.Abs(x-math.Sqrt2) > 1e-10 {
		tst.Error("Wrong root:", x, err)
	}
	x, err = BrentRoot(f, -2, 0, 1e-12, 100)
	if err != nil || math.Abs(x+math.Sqrt2) > 1e-10 {
		tst.Error("Wrong negative root:", x, err)
	}
	if _, err := BrentRoot(f, 2, 3, 1e-12, 100); !errors.Is(err, ErrNoBracket) {
		tst.Error("Expected ErrNoBracket, got", err)
	}
	step := func(x float64) float64 {
		if x < 1 {
			return -1e300
		}
		return 1
	}
	x, err = BrentRoot(step, 0, 5, 1e-9, 200)
	if err != nil || math.Abs(x-1) > 1e-8 {
		tst.Error("Wrong root of a step function:", x, err)
	}
}

func TestReportPeriodDisabled(tst *testing.T) {
	for _, period := range []int{0, -1} {
		for _, opt := range []Optimizer{NewDS(), NewMH(false, 0), NewMH(true, 0), NewLBFGSB(), NewBrent(), NewNone()} {
			q := newQuadratic([]float64{0}, []float64{2})
			opt.SetOptimizable(q)
			opt.SetReportPeriod(period)
			opt.Run(200)
			if math.IsInf(opt.GetMaxL(), -1) {
				tst.Errorf("%s: no finite likelihood with report period %d", opt.Summary().Method, period)
			}
		}
	}
}

func TestStopSignals(tst *testing.T) {
	ds := NewDS()
	ds.SetOptimizable(newQuadratic([]float64{0}, []float64{1}))
	ds.WatchSignals(os.Interrupt)
	ds.Run(100)
	if ds.sig != nil {
		tst.Error("Signals are still watched after the run")
	}
	ds.WatchSignals(os.Interrupt)
	ds.StopSignals()
	ds.StopSignals()
	if ds.sig != nil {
		tst.Error("StopSignals did not reset the channel")
	}
}
