// Package optimize implements likelihood maximizers and samplers
// working on Optimizable objects exposing float parameters.
package optimize

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("optimize")

// Optimizable is an object with a likelihood function of float
// parameters.
type Optimizable interface {
	// GetFloatParameters returns parameters bound to this object.
	GetFloatParameters() FloatParameters
	// Copy returns an independent copy with the same parameter
	// values.
	Copy() Optimizable
	// Likelihood returns the log-likelihood for the current
	// parameter values.
	Likelihood() float64
}

// Optimizer maximizes the likelihood of an Optimizable.
type Optimizer interface {
	SetOptimizable(Optimizable)
	WatchSignals(...os.Signal)
	SetReportPeriod(period int)
	SetOutput(io.Writer)
	Run(iterations int)
	GetL() float64
	GetMaxL() float64
	GetMaxLParameters() []float64
	Summary() Summary
}

// Summary describes an optimizer run.
type Summary struct {
	Method     string    `json:"method"`
	Iterations int       `json:"iterations"`
	Calls      int       `json:"likelihoodCalls"`
	MaxL       float64   `json:"maxLnL"`
	Names      []string  `json:"names"`
	Parameters []float64 `json:"parameters"`
	Converged  bool      `json:"converged"`
	Status     string    `json:"status"`
}

// BaseOptimizer keeps the state shared by all the optimizers: the
// maximum likelihood found so far, iteration reporting and signal
// handling.
type BaseOptimizer struct {
	Optimizable
	parameters FloatParameters
	method     string
	i          int
	calls      int
	l          float64
	maxL       float64
	maxLPar    []float64
	repPeriod  int
	sig        chan os.Signal
	out        io.Writer
	converged  bool
	status     string
}

func (o *BaseOptimizer) SetOptimizable(opt Optimizable) {
	o.Optimizable = opt
	o.parameters = opt.GetFloatParameters()
}

func (o *BaseOptimizer) WatchSignals(sigs ...os.Signal) {
	o.StopSignals()
	o.sig = make(chan os.Signal, 1)
	signal.Notify(o.sig, sigs...)
}

// StopSignals stops watching signals.
func (o *BaseOptimizer) StopSignals() {
	if o.sig != nil {
		signal.Stop(o.sig)
		o.sig = nil
	}
}

func (o *BaseOptimizer) SetReportPeriod(period int) {
	o.repPeriod = period
}

// SetOutput sets where iteration lines are printed. Nothing is
// printed by default.
func (o *BaseOptimizer) SetOutput(w io.Writer) {
	o.out = w
}

// start resets the run state.
func (o *BaseOptimizer) start(method string) {
	o.method = method
	o.i = 0
	o.calls = 0
	o.l = math.Inf(-1)
	o.maxL = math.Inf(-1)
	o.maxLPar = nil
	o.converged = false
	o.status = ""
	o.PrintHeader()
}

// eval computes the likelihood of an optimizable (which has pars as
// its parameters) and updates the maximum. Out of range values have
// zero likelihood.
func (o *BaseOptimizer) eval(opt Optimizable, pars FloatParameters) float64 {
	if !pars.InRange() {
		return math.Inf(-1)
	}
	o.calls++
	l := opt.Likelihood()
	if math.IsNaN(l) {
		log.Warningf("NaN likelihood for %s", pars.ValuesString())
		l = math.Inf(-1)
	}
	if l > o.maxL {
		o.maxL = l
		o.maxLPar = pars.Values(o.maxLPar)
	}
	return l
}

// finish sets parameters to the best values found.
func (o *BaseOptimizer) finish(converged bool, status string) {
	o.StopSignals()
	o.converged = converged
	o.status = status
	if o.maxLPar != nil {
		if err := o.parameters.SetValues(o.maxLPar); err != nil {
			log.Error(err)
		}
		o.l = o.maxL
	}
	if converged {
		log.Infof("Finished %s: %s", o.method, status)
	} else {
		log.Warningf("Finished %s without convergence: %s", o.method, status)
	}
	log.Infof("Maximum likelihood: %v", o.maxL)
	log.Debugf("Parameter  names: %v", o.parameters.NamesString())
	log.Debugf("Parameter values: %v", o.parameters.ValuesString())
	o.PrintFinal()
}

// interrupted checks for a received signal.
func (o *BaseOptimizer) interrupted() bool {
	select {
	case s := <-o.sig:
		log.Warningf("Received signal %v, exiting.", s)
		return true
	default:
	}
	return false
}

// reportDue checks whether the current iteration is reported. A
// non-positive period disables reports.
func (o *BaseOptimizer) reportDue() bool {
	return o.repPeriod > 0 && o.i%o.repPeriod == 0
}

func (o *BaseOptimizer) PrintHeader() {
	if o.out != nil {
		fmt.Fprintf(o.out, "iteration\tlikelihood\t%s\n", o.parameters.NamesString())
	}
}

// PrintLine prints parameter values every report period.
func (o *BaseOptimizer) PrintLine(par FloatParameters, l float64) {
	if o.out != nil && o.reportDue() {
		fmt.Fprintf(o.out, "%d\t%f\t%s\n", o.i, l, par.ValuesString())
	}
}

func (o *BaseOptimizer) PrintFinal() {
	for _, par := range o.parameters {
		log.Infof("%s=%v", par.Name(), par.Get())
	}
}

func (o *BaseOptimizer) GetL() float64 {
	return o.l
}

func (o *BaseOptimizer) GetMaxL() float64 {
	return o.maxL
}

func (o *BaseOptimizer) GetMaxLParameters() []float64 {
	return o.maxLPar
}

// Summary returns the summary of the last run.
func (o *BaseOptimizer) Summary() Summary {
	return Summary{
		Method:     o.method,
		Iterations: o.i,
		Calls:      o.calls,
		MaxL:       o.maxL,
		Names:      o.parameters.Names(nil),
		Parameters: append([]float64(nil), o.maxLPar...),
		Converged:  o.converged,
		Status:     o.status,
	}
}
