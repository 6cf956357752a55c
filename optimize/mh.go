package optimize

import (
	"fmt"
	"math"
	"math/rand"
)

// MH is a Metropolis-Hastings sampler. With annealing it becomes a
// simulated annealing maximizer.
type MH struct {
	BaseOptimizer
	AccPeriod int
	annealing bool
	// iteration to skip before annealing
	annealingSkip int
}

// NewMH creates a new MH sampler.
func NewMH(annealing bool, annealingSkip int) (mcmc *MH) {
	mcmc = &MH{
		BaseOptimizer: BaseOptimizer{
			repPeriod: 10,
		},
		AccPeriod:     10,
		annealing:     annealing,
		annealingSkip: annealingSkip,
	}
	return
}

// Run starts sampling.
func (m *MH) Run(iterations int) {
	if m.annealing {
		m.start("simulated annealing")
	} else {
		m.start("Metropolis-Hastings")
	}
	accepted := 0
	l := m.eval(m.Optimizable, m.parameters)
	status := ""
Iter:
	for m.i = 0; m.i < iterations; m.i++ {
		var T float64
		if m.annealing && m.i >= m.annealingSkip {
			T = math.Pow(0.9, float64(m.i-m.annealingSkip)/float64(iterations-m.annealingSkip)*100)
		} else {
			T = 1
		}
		if m.AccPeriod > 0 && m.i > 0 && m.i%m.AccPeriod == 0 {
			log.Debugf("Acceptance rate %.2f%%", 100*float64(accepted)/float64(m.AccPeriod))
			accepted = 0
		}

		m.l = l
		m.PrintLine(m.parameters, l)
		if m.reportDue() {
			if m.annealing {
				log.Debugf("%d: L=%f, T=%f", m.i, l, T)
			} else {
				log.Debugf("%d: L=%f", m.i, l)
			}
		}
		p := rand.Intn(len(m.parameters))
		par := m.parameters[p]
		par.Propose()
		newL := m.eval(m.Optimizable, m.parameters)

		var a float64
		if m.annealing {
			a = math.Exp((newL - l) / T)
		} else {
			a = math.Exp(par.Prior() - par.OldPrior() + newL - l)
		}

		if a > 1 || rand.Float64() < a {
			l = newL
			par.Accept(m.i)
			accepted++
		} else {
			par.Reject()
		}

		if m.interrupted() {
			status = "interrupted"
			break Iter
		}
	}
	switch {
	case status != "":
		m.finish(false, status)
	case m.annealing:
		m.finish(true, fmt.Sprintf("annealing schedule finished (%d iterations)", iterations))
	default:
		// a sampler has no convergence criterion
		m.finish(false, fmt.Sprintf("sampled %d iterations", iterations))
	}
}
