package segment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/tree"
)

// Hosts of the two-host transmission model.
const (
	Donor = iota
	Recipient
	NHosts
)

var (
	// ErrMixedBelowTransmission is returned when lineages from both
	// hosts coalesce before the transmission time. Such a
	// transmission time is incompatible with the tree.
	ErrMixedBelowTransmission = errors.New("lineages from different hosts coalesce below the transmission time")
	// ErrTransmissionTime is returned for a transmission time outside
	// of the tree.
	ErrTransmissionTime = errors.New("transmission time is outside of the tree")
)

// HostName returns "donor" or "recipient".
func HostName(h int) string {
	switch h {
	case Donor:
		return "donor"
	case Recipient:
		return "recipient"
	}
	return fmt.Sprintf("host%d", h)
}

// Multihost is the two-host decomposition of a tree at transmission
// time T. Below T every branch belongs to the host of its leaves,
// above T all lineages are in the donor.
//
// Every interval between consecutive event times produces one segment
// for each host holding lineages in it: a coalescence segment if some
// of the host lineages coalesce at the interval end, a no-coalescence
// segment otherwise. A node with leaves from both hosts at exactly T
// adds a zero length donor coalescence segment at T holding the
// lineages of both hosts. All lists are sorted by start time.
type Multihost struct {
	T      float64
	Coal   [NHosts][]Segment
	NoCoal [NHosts][]Segment
}

// Segments returns all segments of a host sorted by start time, and
// for every segment whether it ends with a coalescence.
func (m *Multihost) Segments(h int) (segments []Segment, coal []bool) {
	segments = make([]Segment, 0, len(m.Coal[h])+len(m.NoCoal[h]))
	segments = append(segments, m.Coal[h]...)
	segments = append(segments, m.NoCoal[h]...)
	coal = make([]bool, len(segments))
	for i := range m.Coal[h] {
		coal[i] = true
	}
	idx := make([]int, len(segments))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := segments[idx[i]], segments[idx[j]]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})
	ss := make([]Segment, len(segments))
	cc := make([]bool, len(segments))
	for i, j := range idx {
		ss[i] = segments[j]
		cc[i] = coal[j]
	}
	return ss, cc
}

// Len returns the total number of segments.
func (m *Multihost) Len() (n int) {
	for h := 0; h < NHosts; h++ {
		n += len(m.Coal[h]) + len(m.NoCoal[h])
	}
	return
}

// checkHosts makes sure every leaf is either in the donor or in the
// recipient.
func checkHosts(t *tree.Tree) error {
	if !t.HasHosts() {
		return tree.ErrNoHosts
	}
	for _, leaf := range t.Terminals() {
		if leaf.Host != Donor && leaf.Host != Recipient {
			return fmt.Errorf("leaf %s has host %d, expected %d (donor) or %d (recipient)",
				leaf.Name, leaf.Host, Donor, Recipient)
		}
	}
	return nil
}

// DecomposeMultihost decomposes a tree with donor and recipient
// leaves given transmission time T.
//
// Invalid host labels are reported as errors. A transmission time
// outside of [0, t.Time()] returns ErrTransmissionTime, and mixed
// lineages coalescing below T return ErrMixedBelowTransmission; these
// two depend on T only and callers optimizing T treat them as
// impossible values. It is called for every transmission time
// tried, so it logs no warnings; see CheckTree.
func DecomposeMultihost(t *tree.Tree, T, tol float64) (*Multihost, error) {
	if err := checkHosts(t); err != nil {
		return nil, err
	}
	if T < 0 || T > t.Time()+eps {
		return nil, fmt.Errorf("%w: T=%g, tree time %g", ErrTransmissionTime, T, t.Time())
	}
	groups, times := groupEvents(t, tol)

	for _, node := range t.NonTerminals() {
		if node.Host == tree.MixedHost && times[node.ID] < T-eps {
			return nil, fmt.Errorf("%w: node %d at %g, T=%g", ErrMixedBelowTransmission, node.ID, times[node.ID], T)
		}
	}

	bounds := make([]float64, 0, len(groups)+2)
	bounds = append(bounds, 0)
	for _, g := range groups {
		bounds = append(bounds, g.time)
	}
	bounds = append(bounds, T)
	sort.Float64s(bounds)
	uniq := bounds[:1]
	for _, b := range bounds[1:] {
		if b-uniq[len(uniq)-1] > eps {
			uniq = append(uniq, b)
		}
	}
	bounds = uniq

	m := &Multihost{T: T}
	nodes := t.Walk(nil)
	for i := 1; i < len(bounds); i++ {
		s, e := bounds[i-1], bounds[i]
		below := e <= T+eps
		var k, c [NHosts]int
		mixed := 0
		for _, node := range nodes {
			if !node.IsTerminal() && WithinTolerance(times[node.ID], e, eps) {
				switch {
				case !below:
					c[Donor]++
				case node.Host == tree.MixedHost:
					mixed++
				default:
					c[node.Host]++
				}
			}
			if node.IsRoot() {
				continue
			}
			if times[node.ID] <= s+eps && times[node.Parent] >= e-eps {
				h := Donor
				if below {
					h = node.Host
				}
				k[h]++
			}
		}
		for h := 0; h < NHosts; h++ {
			if k[h] == 0 {
				continue
			}
			seg := Segment{
				Start:        s,
				End:          e,
				Duration:     e - s,
				Lineages:     k[h],
				Coalescences: c[h],
			}
			if c[h] > 0 {
				m.Coal[h] = append(m.Coal[h], seg)
			} else {
				m.NoCoal[h] = append(m.NoCoal[h], seg)
			}
		}
		// lineages joining the donor at T coalesce there immediately
		if mixed > 0 {
			m.Coal[Donor] = append(m.Coal[Donor], Segment{
				Start:        e,
				End:          e,
				Lineages:     k[Donor] + k[Recipient] - c[Donor] - c[Recipient],
				Coalescences: mixed,
			})
		}
	}
	return m, nil
}
