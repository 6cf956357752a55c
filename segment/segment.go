// Package segment decomposes timed trees into coalescence intervals.
package segment

import (
	"fmt"
	"math"
	"sort"

	"github.com/op/go-logging"
	"gonum.org/v1/gonum/floats"

	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/tree"
)

var log = logging.MustGetLogger("segment")

// DefaultTolerance is the time difference below which coalescence
// events are treated as simultaneous.
const DefaultTolerance = 0.003

// eps is used to compare times which went through the same
// arithmetic.
const eps = 1e-9

// Segment is a time interval with a constant number of lineages,
// closed by Coalescences events at End.
type Segment struct {
	Start        float64
	End          float64
	Duration     float64
	Lineages     int
	Coalescences int
}

// String returns a human readable representation of a segment.
func (s Segment) String() string {
	return fmt.Sprintf("[%0.6f, %0.6f] d=%0.6f k=%d c=%d", s.Start, s.End, s.Duration, s.Lineages, s.Coalescences)
}

// WithinTolerance checks whether two times are closer than tol.
func WithinTolerance(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// group is a set of coalescence events treated as simultaneous.
type group struct {
	time  float64
	nodes []int
}

// groupEvents clusters internal node times. A group starts at the
// most recent remaining event and takes all the events no more than
// tol older; its time is the oldest of them, so the last group always
// ends at the root.
func groupEvents(t *tree.Tree, tol float64) (groups []group, times map[int]float64) {
	nodes := t.NonTerminals()
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Time < nodes[j].Time
	})
	first := math.Inf(-1)
	for _, node := range nodes {
		if len(groups) == 0 || node.Time-first > tol {
			first = node.Time
			groups = append(groups, group{})
		}
		g := &groups[len(groups)-1]
		g.time = node.Time
		g.nodes = append(g.nodes, node.ID)
	}

	times = make(map[int]float64, t.NNodes())
	for _, node := range t.Terminals() {
		times[node.ID] = node.Time
	}
	for _, g := range groups {
		for _, id := range g.nodes {
			times[id] = g.time
		}
	}
	return
}

// CheckTree logs warnings about the assumptions of the
// decompositions and returns their number. Decompositions count
// lineages from the number of leaves and assume that all of them are
// sampled at time 0; coalescences closer than tol are grouped.
func CheckTree(t *tree.Tree, tol float64) (n int) {
	if g := t.SamplingGroups(tol); len(g) > 1 {
		log.Warningf("tree has %d sampling groups (%v), all leaves are assumed to be sampled at time 0", len(g), g)
		n++
	}
	groups, _ := groupEvents(t, tol)
	for _, g := range groups {
		if len(g.nodes) < 2 {
			continue
		}
		if t.Node(g.nodes[0]).Time != g.time {
			log.Warningf("%d coalescences within %g of time %g are treated as simultaneous", len(g.nodes), tol, g.time)
			n++
		} else {
			log.Debugf("%d simultaneous coalescences at time %g", len(g.nodes), g.time)
		}
	}
	return
}

// Decompose splits the tree into segments between consecutive
// coalescence times. Coalescences closer than tol are grouped into a
// single segment end. Segments cover [0, t.Time()]. Warnings of
// CheckTree are logged.
func Decompose(t *tree.Tree, tol float64) []Segment {
	CheckTree(t, tol)
	groups, _ := groupEvents(t, tol)
	segments := make([]Segment, 0, len(groups))
	k := t.NLeaves()
	start := 0.0
	for _, g := range groups {
		segments = append(segments, Segment{
			Start:        start,
			End:          g.time,
			Duration:     g.time - start,
			Lineages:     k,
			Coalescences: len(g.nodes),
		})
		k -= len(g.nodes)
		start = g.time
	}
	return segments
}

// TotalDuration returns the sum of segment durations.
func TotalDuration(segments []Segment) float64 {
	d := make([]float64, len(segments))
	for i, s := range segments {
		d[i] = s.Duration
	}
	return floats.Sum(d)
}
