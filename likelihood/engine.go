// Package likelihood computes coalescent log-likelihoods of timed
// trees under demographic models.
package likelihood

import (
	"errors"
	"math"

	"github.com/op/go-logging"

	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/popmodel"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/segment"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/tree"
)

var log = logging.MustGetLogger("likelihood")

// Engine computes likelihoods for a single tree. The engine keeps its
// own copy of the tree and computes the single-host decomposition
// once, so it is safe for concurrent use.
type Engine struct {
	tree     *tree.Tree
	tol      float64
	segments []segment.Segment
}

// NewEngine creates an engine for a tree; tol is the tolerance for
// near-simultaneous events.
func NewEngine(t *tree.Tree, tol float64) *Engine {
	t = t.Copy()
	return &Engine{
		tree:     t,
		tol:      tol,
		segments: segment.Decompose(t, tol),
	}
}

// Tree returns the copy of the tree used by the engine.
func (e *Engine) Tree() *tree.Tree {
	return e.tree
}

// Tolerance returns the tolerance for near-simultaneous events.
func (e *Engine) Tolerance() float64 {
	return e.tol
}

// Segments returns the single-host decomposition.
func (e *Engine) Segments() []segment.Segment {
	return append([]segment.Segment(nil), e.segments...)
}

// LogLikelihood returns the log-likelihood of the tree under a
// model. Invalid parameters give -Inf.
func (e *Engine) LogLikelihood(m popmodel.Model) float64 {
	if err := m.Validate(); err != nil {
		log.Debug(err)
		return math.Inf(-1)
	}
	return thread(e.segments, nil, m)
}

// TransmissionLogLikelihood returns the log-likelihood of a tree with
// donor and recipient leaves, given transmission time T and the models
// of both hosts. Transmission times incompatible with the tree and
// invalid model parameters give -Inf; errors are only returned for
// trees without proper donor and recipient labels.
func (e *Engine) TransmissionLogLikelihood(T float64, donor, recipient popmodel.Model) (float64, error) {
	mh, err := segment.DecomposeMultihost(e.tree, T, e.tol)
	switch {
	case errors.Is(err, segment.ErrMixedBelowTransmission), errors.Is(err, segment.ErrTransmissionTime):
		log.Debug(err)
		return math.Inf(-1), nil
	case err != nil:
		return math.Inf(-1), err
	}
	total := 0.0
	for h, m := range []popmodel.Model{donor, recipient} {
		if err := m.Validate(); err != nil {
			log.Debugf("%s: %v", segment.HostName(h), err)
			return math.Inf(-1), nil
		}
		segments, coal := mh.Segments(h)
		l := thread(segments, coal, m)
		if math.IsInf(l, -1) {
			return l, nil
		}
		total += l
	}
	return total, nil
}

// thread accumulates segment terms, moving the model state along the
// segments, which are sorted by start time. Segments flagged in coal
// (all of them if coal is nil) end with coalescences and contribute
// the density; the others contribute the survival probability.
// Simultaneous extra coalescences contribute the coalescence rate at
// the segment end.
func thread(segments []segment.Segment, coal []bool, m popmodel.Model) float64 {
	state := m
	now := 0.0
	total := 0.0
	for i, s := range segments {
		if s.Start > now {
			state = state.Shift(s.Start - now)
			now = s.Start
		}
		var d float64
		switch {
		case coal != nil && !coal[i]:
			d = state.LogSurvival(s.Lineages, s.Duration)
		case s.Lineages < 2:
			// nothing left to coalesce
		default:
			d = state.LogDensity(s.Lineages, s.Duration)
			if s.Coalescences > 1 {
				end := state.Shift(s.Duration)
				for j := 1; j < s.Coalescences; j++ {
					d += end.LogDensity(s.Lineages-j, 0)
				}
			}
		}
		if math.IsNaN(d) {
			log.Warningf("NaN log density for %v under %s %v", s, state.Name(), state.Params())
			return math.Inf(-1)
		}
		if math.IsInf(d, -1) {
			return d
		}
		total += d
		state = state.Shift(s.Duration)
		now = s.End
	}
	return total
}
