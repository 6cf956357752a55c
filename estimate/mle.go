// Package estimate implements maximum likelihood estimation of
// demographic parameters: point estimates, likelihood ratio confidence
// intervals, likelihood surfaces and batch fitting of many trees.
package estimate

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"syscall"

	"github.com/op/go-logging"

	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/likelihood"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/optimize"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/popmodel"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/segment"
)

var log = logging.MustGetLogger("estimate")

// DefaultIterations is the default iteration cap of the optimizers.
const DefaultIterations = 10000

// ErrNoFiniteLikelihood is returned when the optimizer never found
// parameter values with a finite likelihood.
var ErrNoFiniteLikelihood = errors.New("no finite likelihood found")

// Methods lists the optimization methods. "auto" uses brent for a
// single free parameter and simplex otherwise.
var Methods = []string{"auto", "brent", "simplex", "lbfgsb", "nelder-mead", "bfgs", "mh", "annealing", "none"}

// Settings controls the optimization.
type Settings struct {
	// Method is one of Methods, empty means "auto".
	Method string
	// Iterations is the iteration cap, zero means DefaultIterations.
	Iterations int
	// Randomize starts from random values within the bounds.
	Randomize bool
	// Output receives optimizer iteration lines every ReportPeriod
	// iterations.
	Output       io.Writer
	ReportPeriod int
	// Signals stop the optimization, returning the best values found.
	Signals bool
}

func (s Settings) iterations() int {
	if s.Iterations <= 0 {
		return DefaultIterations
	}
	return s.Iterations
}

// NewOptimizer creates an optimizer for nfree free parameters.
func NewOptimizer(method string, nfree int) (optimize.Optimizer, error) {
	switch method {
	case "", "auto":
		switch nfree {
		case 0:
			return optimize.NewNone(), nil
		case 1:
			return optimize.NewBrent(), nil
		}
		return optimize.NewDS(), nil
	case "brent":
		if nfree != 1 {
			return nil, fmt.Errorf("brent optimizes exactly one parameter, %d are free", nfree)
		}
		return optimize.NewBrent(), nil
	case "simplex":
		return optimize.NewDS(), nil
	case "lbfgsb":
		return optimize.NewLBFGSB(), nil
	case "nelder-mead":
		return optimize.NewGonum(optimize.NelderMead), nil
	case "bfgs":
		return optimize.NewGonum(optimize.BFGS), nil
	case "mh":
		return optimize.NewMH(false, 0), nil
	case "annealing":
		return optimize.NewMH(true, 0), nil
	case "none":
		return optimize.NewNone(), nil
	}
	return nil, fmt.Errorf("unknown optimization method: %s", method)
}

// run maximizes the likelihood of o. Afterwards o holds the best
// parameter values found.
func run(o optimize.Optimizable, s Settings) (optimize.Summary, error) {
	pars := o.GetFloatParameters()
	opt, err := NewOptimizer(s.Method, len(pars))
	if err != nil {
		return optimize.Summary{}, err
	}
	if s.Randomize {
		pars.Randomize()
		log.Debugf("Random starting values: %s", pars.ValuesString())
	}
	opt.SetOptimizable(o)
	opt.SetReportPeriod(s.ReportPeriod)
	opt.SetOutput(s.Output)
	if s.Signals {
		opt.WatchSignals(os.Interrupt, syscall.SIGTERM)
	}
	opt.Run(s.iterations())

	summary := opt.Summary()
	if math.IsInf(summary.MaxL, 0) || math.IsNaN(summary.MaxL) {
		return summary, ErrNoFiniteLikelihood
	}
	return summary, nil
}

// Result is a single-host maximum likelihood estimate.
type Result struct {
	Model  string          `json:"model"`
	Params popmodel.Params `json:"parameters"`
	Free   []string        `json:"free"`
	LnL    float64         `json:"lnL"`
	// Converged is false if the optimizer stopped on the iteration
	// cap or a signal.
	Converged bool             `json:"converged"`
	Status    string           `json:"status"`
	Optimizer optimize.Summary `json:"optimizer"`
}

// MaximumLikelihood estimates the free parameters of a model family;
// the other parameters are fixed to their values in params (or the
// family defaults). Free parameters start from their params values.
func MaximumLikelihood(e *likelihood.Engine, f *popmodel.Family, free []string, params popmodel.Params, s Settings) (*Result, error) {
	sh, err := likelihood.NewSingleHost(e, f, params, free)
	if err != nil {
		return nil, err
	}
	summary, err := run(sh, s)
	if err != nil {
		return nil, fmt.Errorf("%s model: %w", f.Name, err)
	}
	res := &Result{
		Model:     f.Name,
		Params:    sh.Params(),
		Free:      sh.Free(),
		LnL:       sh.Likelihood(),
		Converged: summary.Converged,
		Status:    summary.Status,
		Optimizer: summary,
	}
	log.Infof("%s: %v, lnL=%v", res.Model, res.Params, res.LnL)
	return res, nil
}

// TransmissionResult is a two-host maximum likelihood estimate.
type TransmissionResult struct {
	DonorModel     string          `json:"donorModel"`
	RecipientModel string          `json:"recipientModel"`
	Donor          popmodel.Params `json:"donor"`
	Recipient      popmodel.Params `json:"recipient"`
	T              float64         `json:"T"`
	// IFollowsT is set when the recipient infection time I is the
	// transmission time.
	IFollowsT bool             `json:"iFollowsT,omitempty"`
	Window    [2]float64       `json:"window"`
	Free      []string         `json:"free"`
	LnL       float64          `json:"lnL"`
	Converged bool             `json:"converged"`
	Status    string           `json:"status"`
	Optimizer optimize.Summary `json:"optimizer"`
}

// MaximumLikelihoodTransmission estimates the free parameters of the
// two-host model. Free parameter names are "T", "donor.<name>" and
// "recipient.<name>"; a NaN T starts from the middle of the
// transmission window.
func MaximumLikelihoodTransmission(e *likelihood.Engine, donor, recipient *popmodel.Family, dp, rp popmodel.Params, T float64, free []string, s Settings) (*TransmissionResult, error) {
	t, err := likelihood.NewTransmission(e, donor, recipient, dp, rp, T, free)
	if err != nil {
		return nil, err
	}
	summary, err := run(t, s)
	if err != nil {
		return nil, fmt.Errorf("transmission model: %w", err)
	}
	low, high := t.Window()
	res := &TransmissionResult{
		DonorModel:     donor.Name,
		RecipientModel: recipient.Name,
		Donor:          t.Params(segment.Donor),
		Recipient:      t.Params(segment.Recipient),
		T:              t.TransmissionTime(),
		IFollowsT:      t.IFollowsT(),
		Window:         [2]float64{low, high},
		Free:           t.Free(),
		LnL:            t.Likelihood(),
		Converged:      summary.Converged,
		Status:         summary.Status,
		Optimizer:      summary,
	}
	log.Infof("T=%v, donor %s %v, recipient %s %v, lnL=%v", res.T, res.DonorModel, res.Donor, res.RecipientModel, res.Recipient, res.LnL)
	return res, nil
}
