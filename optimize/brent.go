package optimize

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoBracket is returned by BrentRoot if the function has the same
// sign at both ends of the interval.
var ErrNoBracket = errors.New("root is not bracketed")

const (
	// golden section ratio, (3 - sqrt(5)) / 2
	cgold = 0.3819660112501051
	// square root of the machine epsilon
	sqrtEps = 1.4901161193847656e-08
	epsilon = 2.220446049250313e-16
)

// BrentMinimize finds a minimum of f on [a, b] using golden section
// search with parabolic interpolation. It returns the point, the
// function value, the number of iterations and whether the tolerance
// was reached.
func BrentMinimize(f func(float64) float64, a, b, tol float64, maxIter int) (x, fx float64, iter int, ok bool) {
	if a > b {
		a, b = b, a
	}
	v := a + cgold*(b-a)
	w := v
	x = v
	var d, e float64
	fx = f(x)
	fv, fw := fx, fx
	for iter = 1; iter <= maxIter; iter++ {
		m := 0.5 * (a + b)
		tol1 := sqrtEps*math.Abs(x) + tol/3
		tol2 := 2 * tol1
		if math.Abs(x-m) <= tol2-0.5*(b-a) {
			return x, fx, iter, true
		}
		golden := true
		if math.Abs(e) > tol1 {
			r := (x - w) * (fx - fv)
			q := (x - v) * (fx - fw)
			p := (x-v)*q - (x-w)*r
			q = 2 * (q - r)
			if q > 0 {
				p = -p
			} else {
				q = -q
			}
			r = e
			e = d
			if math.Abs(p) < math.Abs(0.5*q*r) && p > q*(a-x) && p < q*(b-x) {
				d = p / q
				if u := x + d; u-a < tol2 || b-u < tol2 {
					d = math.Copysign(tol1, m-x)
				}
				golden = false
			}
		}
		if golden {
			if x < m {
				e = b - x
			} else {
				e = a - x
			}
			d = cgold * e
		}
		var u float64
		switch {
		case math.Abs(d) >= tol1:
			u = x + d
		case d >= 0:
			u = x + tol1
		default:
			u = x - tol1
		}
		fu := f(u)
		if fu <= fx {
			if u < x {
				b = x
			} else {
				a = x
			}
			v, fv = w, fw
			w, fw = x, fx
			x, fx = u, fu
		} else {
			if u < x {
				a = u
			} else {
				b = u
			}
			if fu <= fw || w == x {
				v, fv = w, fw
				w, fw = u, fu
			} else if fu <= fv || v == x || v == w {
				v, fv = u, fu
			}
		}
	}
	return x, fx, maxIter, false
}

// BrentRoot finds a root of f in [a, b] (Brent-Dekker method). The
// function must change its sign on the interval, otherwise
// ErrNoBracket is returned.
func BrentRoot(f func(float64) float64, a, b, tol float64, maxIter int) (float64, error) {
	fa, fb := f(a), f(b)
	switch {
	case fa == 0:
		return a, nil
	case fb == 0:
		return b, nil
	case math.IsNaN(fa) || math.IsNaN(fb) || (fa > 0) == (fb > 0):
		return 0, fmt.Errorf("%w: f(%g)=%g, f(%g)=%g", ErrNoBracket, a, fa, b, fb)
	}
	c, fc := b, fb
	var d, e float64
	for i := 0; i < maxIter; i++ {
		if (fb > 0) == (fc > 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}
		tol1 := 2*epsilon*math.Abs(b) + 0.5*tol
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || fb == 0 {
			return b, nil
		}
		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			// inverse quadratic interpolation
			s := fb / fa
			var p, q float64
			if a == c {
				p = 2 * xm * s
				q = 1 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			if 2*p < math.Min(3*xm*q-math.Abs(tol1*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}
		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else {
			b += math.Copysign(tol1, xm)
		}
		fb = f(b)
	}
	return b, fmt.Errorf("root finding did not converge in %d iterations", maxIter)
}

// Brent maximizes the likelihood of an Optimizable with a single
// parameter over the parameter range.
type Brent struct {
	BaseOptimizer
	// Tol is the absolute tolerance of the parameter value.
	Tol float64
}

// NewBrent creates a one-dimensional maximizer.
func NewBrent() *Brent {
	return &Brent{
		BaseOptimizer: BaseOptimizer{
			repPeriod: 10,
		},
		Tol: 1e-8,
	}
}

func (b *Brent) Run(iterations int) {
	b.start("Brent")
	if len(b.parameters) != 1 {
		b.finish(false, fmt.Sprintf("Brent needs exactly one parameter, got %d", len(b.parameters)))
		return
	}
	par := b.parameters[0]
	f := func(x float64) float64 {
		par.Set(x)
		l := b.eval(b.Optimizable, b.parameters)
		b.l = l
		b.i++
		b.PrintLine(b.parameters, l)
		if math.IsInf(l, -1) {
			return large
		}
		return -l
	}
	min, max := par.GetMin(), par.GetMax()
	if math.IsInf(min, 0) || math.IsInf(max, 0) {
		b.finish(false, "Brent needs a bounded parameter")
		return
	}
	_, _, iter, ok := BrentMinimize(f, min, max, b.Tol, iterations)
	status := fmt.Sprintf("converged after %d iterations", iter)
	if !ok {
		status = fmt.Sprintf("iterations exceeded (%d)", iterations)
	}
	b.finish(ok, status)
	b.i = iter
}
