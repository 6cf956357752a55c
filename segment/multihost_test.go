package segment

import (
	"errors"
	"math"
	"testing"

	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/tree"
)

const hostTree = "((D_2:1, D_3:1):2, (D_1:1.5, R_4:1.5):1.5);"

var donorRecipient = map[string]int{"D": Donor, "R": Recipient}

func hostParse(tst *testing.T, s string) *tree.Tree {
	t, err := tree.New(s, donorRecipient)
	if err != nil {
		tst.Fatal(err)
	}
	return t
}

func TestMultihost(tst *testing.T) {
	t := hostParse(tst, hostTree)
	m, err := DecomposeMultihost(t, 1.2, DefaultTolerance)
	if err != nil {
		tst.Fatal(err)
	}
	exp := struct {
		coal, nocoal [NHosts][]Segment
	}{
		coal: [NHosts][]Segment{
			{{0, 1, 1, 3, 1}, {1.2, 1.5, 0.3, 3, 1}, {1.5, 3, 1.5, 2, 1}},
			nil,
		},
		nocoal: [NHosts][]Segment{
			{{1, 1.2, 0.2, 2, 0}},
			{{0, 1, 1, 1, 0}, {1, 1.2, 0.2, 1, 0}},
		},
	}
	for h := 0; h < NHosts; h++ {
		compare(tst, "coal "+HostName(h), m.Coal[h], exp.coal[h])
		compare(tst, "nocoal "+HostName(h), m.NoCoal[h], exp.nocoal[h])
	}

	donor, coal := m.Segments(Donor)
	checkCoverage(tst, donor, t.Time())
	if !coal[0] || coal[1] || !coal[2] || !coal[3] {
		tst.Error("Wrong coalescence flags:", coal)
	}
	recipient, _ := m.Segments(Recipient)
	checkCoverage(tst, recipient, 1.2)
}

func compare(tst *testing.T, what string, got, exp []Segment) {
	if len(got) != len(exp) {
		tst.Errorf("%s: expected %v, got %v", what, exp, got)
		return
	}
	for i := range exp {
		g, e := got[i], exp[i]
		if math.Abs(g.Start-e.Start) > smallDiff || math.Abs(g.End-e.End) > smallDiff ||
			math.Abs(g.Duration-e.Duration) > smallDiff ||
			g.Lineages != e.Lineages || g.Coalescences != e.Coalescences {
			tst.Errorf("%s: segment %d expected %v, got %v", what, i, e, g)
		}
	}
}

// Every internal node is counted exactly once and lineage counts of
// all hosts agree with the tree.
func TestMultihostConsistency(tst *testing.T) {
	t := hostParse(tst, "(((D_1:0.5, D_2:0.5):1, (R_1:1.2, R_2:1.2):0.3):2.5, (D_3:3, D_4:3):1);")
	low, high, err := t.TransmissionWindow()
	if err != nil {
		tst.Fatal(err)
	}
	for _, f := range []float64{0, 0.2, 0.5, 0.9, 1} {
		T := low + f*(high-low)
		m, err := DecomposeMultihost(t, T, DefaultTolerance)
		if err != nil {
			tst.Fatal(T, err)
		}
		events := 0
		for h := 0; h < NHosts; h++ {
			for _, s := range m.Coal[h] {
				events += s.Coalescences
			}
		}
		if events != t.NLeaves()-1 {
			tst.Errorf("T=%v: %d coalescences, expected %d", T, events, t.NLeaves()-1)
		}

		donor, _ := m.Segments(Donor)
		checkCoverage(tst, donor, t.Time())
		for _, s := range donor {
			if s.Duration == 0 {
				continue
			}
			k := s.Lineages
			if s.Start < T {
				recipient, _ := m.Segments(Recipient)
				for _, r := range recipient {
					if r.Start == s.Start {
						k += r.Lineages
					}
				}
			}
			if k != t.LineagesAt(s.Start) {
				tst.Errorf("T=%v: %d lineages in %v, expected %d", T, k, s, t.LineagesAt(s.Start))
			}
		}
	}
}

func TestMixedNodeAtTransmission(tst *testing.T) {
	t := hostParse(tst, hostTree)
	m, err := DecomposeMultihost(t, 1.5, DefaultTolerance)
	if err != nil {
		tst.Fatal(err)
	}
	// D_1 and R_4 coalesce in the donor right at transmission
	var zero *Segment
	for i, s := range m.Coal[Donor] {
		if s.Duration == 0 {
			zero = &m.Coal[Donor][i]
		}
	}
	if zero == nil || zero.Start != 1.5 || zero.Lineages != 3 || zero.Coalescences != 1 {
		tst.Error("Expected a zero length donor coalescence at T, got", m.Coal[Donor])
	}
	recipient, _ := m.Segments(Recipient)
	checkCoverage(tst, recipient, 1.5)
}

func TestMultihostErrors(tst *testing.T) {
	t := hostParse(tst, hostTree)
	for _, T := range []float64{1.6, 2.9} {
		if _, err := DecomposeMultihost(t, T, DefaultTolerance); !errors.Is(err, ErrMixedBelowTransmission) {
			tst.Errorf("T=%v: expected ErrMixedBelowTransmission, got %v", T, err)
		}
	}
	for _, T := range []float64{-0.1, 3.5} {
		if _, err := DecomposeMultihost(t, T, DefaultTolerance); !errors.Is(err, ErrTransmissionTime) {
			tst.Errorf("T=%v: expected ErrTransmissionTime, got %v", T, err)
		}
	}

	t, err := tree.New(hostTree, map[string]int{"D": Donor, "R": 2})
	if err != nil {
		tst.Fatal(err)
	}
	if _, err := DecomposeMultihost(t, 1, DefaultTolerance); err == nil {
		tst.Error("Expected error for an unknown host")
	}

	t = mustParse(tst, hostTree)
	if _, err := DecomposeMultihost(t, 1, DefaultTolerance); !errors.Is(err, tree.ErrNoHosts) {
		tst.Error("Expected ErrNoHosts, got", err)
	}
}

func TestTransmissionAtZero(tst *testing.T) {
	t := hostParse(tst, hostTree)
	m, err := DecomposeMultihost(t, 0, DefaultTolerance)
	if err != nil {
		tst.Fatal(err)
	}
	if len(m.Coal[Recipient])+len(m.NoCoal[Recipient]) != 0 {
		tst.Error("Recipient should have no segments at T=0")
	}
	donor, _ := m.Segments(Donor)
	single := Decompose(t, DefaultTolerance)
	compare(tst, "donor", donor, single)
}
