package estimate

import (
	"fmt"
	"math"

	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/dist"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/likelihood"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/optimize"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/popmodel"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/segment"
)

// ErrNoBracket is returned when the likelihood does not drop below the
// threshold inside the search bracket on one side of the peak.
var ErrNoBracket = optimize.ErrNoBracket

// DefaultDrop is the log-likelihood drop of the 95% interval for one
// parameter.
const DefaultDrop = 1.92

const (
	// bracketFactor limits the upper search to 100 peak for positive
	// parameters, or the search to 100 |peak| around the peak otherwise.
	bracketFactor = 100
	// rootIter is the iteration cap of the root search.
	rootIter = 200
	// rootTol is the absolute tolerance of the root search (on the
	// log scale for positive parameters).
	rootTol = 1e-10
	// floorL replaces -Inf during the root search.
	floorL = -1e300
)

// Interval is a likelihood ratio confidence interval.
type Interval struct {
	Name    string  `json:"name"`
	Peak    float64 `json:"peak"`
	Low     float64 `json:"low"`
	High    float64 `json:"high"`
	PeakLnL float64 `json:"peakLnL"`
	Drop    float64 `json:"drop"`
}

func (i Interval) String() string {
	return fmt.Sprintf("%s=%g [%g, %g]", i.Name, i.Peak, i.Low, i.High)
}

// Drop returns the log-likelihood drop for a confidence level with a
// single parameter.
func Drop(level float64) (float64, error) {
	return dist.LikelihoodRatioDrop(level, 1)
}

// ConfidenceInterval finds the values of a parameter on both sides of
// the peak where the log-likelihood is drop below peakLnL, with the
// other parameters fixed at their peak values. Positive parameters are
// searched in [min bound, peak] and [peak, 100 peak]. If the
// likelihood does not fall far enough on one side, an error wrapping
// ErrNoBracket is returned.
func ConfidenceInterval(e *likelihood.Engine, f *popmodel.Family, name string, peak popmodel.Params, peakLnL, drop float64) (Interval, error) {
	sh, err := likelihood.NewSingleHost(e, f, peak, []string{name})
	if err != nil {
		return Interval{}, err
	}
	c, _ := f.Canonical(name)
	return interval(sh, c, f.Positive(c), peakLnL, drop)
}

// TransmissionConfidenceInterval is ConfidenceInterval for a
// parameter of the two-host model: "T", "donor.<name>" or
// "recipient.<name>". T is searched within the transmission window.
func TransmissionConfidenceInterval(e *likelihood.Engine, r *TransmissionResult, name string, drop float64) (Interval, error) {
	donor, err := popmodel.LookupFamily(r.DonorModel)
	if err != nil {
		return Interval{}, err
	}
	recipient, err := popmodel.LookupFamily(r.RecipientModel)
	if err != nil {
		return Interval{}, err
	}
	rp := r.Recipient
	if r.IFollowsT {
		rp = rp.Clone()
		delete(rp, "I")
	}
	t, err := likelihood.NewTransmission(e, donor, recipient, r.Donor, rp, r.T, []string{name})
	if err != nil {
		return Interval{}, err
	}
	h, pname, _ := likelihood.SplitHostParameter(name)
	positive := false
	if h >= 0 {
		f := donor
		if h == segment.Recipient {
			f = recipient
		}
		c, _ := f.Canonical(pname)
		positive = f.Positive(c)
	}
	return interval(t, t.Free()[0], positive, r.LnL, drop)
}

// interval searches both sides of the current value of the single
// free parameter of o.
func interval(o optimize.Optimizable, name string, positive bool, peakL, drop float64) (Interval, error) {
	pars := o.GetFloatParameters()
	if len(pars) != 1 {
		return Interval{}, fmt.Errorf("confidence interval needs one free parameter, got %d", len(pars))
	}
	if math.IsInf(peakL, 0) || math.IsNaN(peakL) {
		return Interval{}, fmt.Errorf("%s: peak log-likelihood is %v", name, peakL)
	}
	par := pars[0]
	peak := par.Get()
	defer par.Set(peak)

	threshold := peakL - drop
	f := func(x float64) float64 {
		par.Set(x)
		l := o.Likelihood()
		if math.IsInf(l, -1) || math.IsNaN(l) {
			l = floorL
		}
		return l - threshold
	}

	var lowEnd, highEnd float64
	if positive {
		// par is on the log scale
		lowEnd = par.GetMin()
		highEnd = math.Min(par.GetMax(), peak+math.Log(bracketFactor))
	} else {
		span := math.Max(1, bracketFactor*math.Abs(peak))
		lowEnd = math.Max(par.GetMin(), peak-span)
		highEnd = math.Min(par.GetMax(), peak+span)
	}

	iv := Interval{Name: name, PeakLnL: peakL, Drop: drop}
	low, err := optimize.BrentRoot(f, lowEnd, peak, rootTol, rootIter)
	if err != nil {
		return iv, fmt.Errorf("%s lower bound in [%g, %g]: %w", name, unscale(lowEnd, positive), unscale(peak, positive), err)
	}
	high, err := optimize.BrentRoot(f, peak, highEnd, rootTol, rootIter)
	if err != nil {
		return iv, fmt.Errorf("%s upper bound in [%g, %g]: %w", name, unscale(peak, positive), unscale(highEnd, positive), err)
	}
	iv.Peak = unscale(peak, positive)
	iv.Low = unscale(low, positive)
	iv.High = unscale(high, positive)
	log.Infof("%v", iv)
	return iv, nil
}

func unscale(x float64, positive bool) float64 {
	if positive {
		return math.Exp(x)
	}
	return x
}
