package tree

import (
	"errors"
	"strings"
	"testing"
)

const (
	hostTree  = "((D_2:1, D_3:1):2, (D_1:1.5, R_4:1.5):1.5);"
	oldSample = "((D_1:1,D_2:2):2,(R_1:1,R_2:2):2);"
)

var donorRecipient = map[string]int{"D": 0, "R": 1}

func TestLeafHosts(tst *testing.T) {
	t, err := New(hostTree, donorRecipient)
	if err != nil {
		tst.Fatal(err)
	}
	exp := []int{0, 0, 0, 1}
	got := t.LeafHosts()
	for i := range exp {
		if got[i] != exp[i] {
			tst.Fatal("Expected", exp, "got", got)
		}
	}
	if t.Root().Host != MixedHost {
		tst.Error("Root should be mixed, got", t.Root().Host)
	}
}

func TestHostByFullName(tst *testing.T) {
	t, err := New(hostTree, map[string]int{"D": 0, "R_4": 1})
	if err != nil {
		tst.Fatal(err)
	}
	if h := t.LeafHosts()[3]; h != 1 {
		tst.Error("Expected host 1 for R_4, got", h)
	}
}

func TestMissingHost(tst *testing.T) {
	t, err := New(hostTree, map[string]int{"D": 0})
	if err != nil {
		tst.Fatal(err)
	}
	if h := t.LeafHosts()[3]; h != NoHost {
		tst.Error("Expected NoHost for R_4, got", h)
	}
}

func TestHostsFromClass(tst *testing.T) {
	t, err := New("((A#0:1,B#1:1):1,C#1:2);", nil)
	if err != nil {
		tst.Fatal(err)
	}
	t.SetHostsFromClass()
	got := t.LeafHosts()
	if got[0] != 0 || got[1] != 1 || got[2] != 1 {
		tst.Error("Wrong hosts from class labels:", got)
	}
	if !strings.Contains(t.HostString(), "A#0") {
		tst.Error("Host string is missing labels:", t.HostString())
	}
}

func TestMostRecentMixedNode(tst *testing.T) {
	t, err := New(hostTree, donorRecipient)
	if err != nil {
		tst.Fatal(err)
	}
	inf, err := t.AllHostsInfectedTime()
	if err != nil || inf != 0 {
		tst.Error("Expected all hosts infected at 0, got", inf, err)
	}
	node, err := t.MostRecentMixedNode()
	if err != nil {
		tst.Fatal(err)
	}
	if node.Time != 1.5 {
		tst.Error("Expected most recent mixed node at 1.5, got", node.LongString())
	}
	low, high, err := t.TransmissionWindow()
	if err != nil || low != 0 || high != 1.5 {
		tst.Error("Wrong transmission window:", low, high, err)
	}
}

func TestAllHostsInfectedOldSamples(tst *testing.T) {
	t, err := New(oldSample, donorRecipient)
	if err != nil {
		tst.Fatal(err)
	}
	inf, err := t.AllHostsInfectedTime()
	if err != nil || inf != 1 {
		tst.Error("Expected all hosts infected at 1, got", inf, err)
	}
	node, err := t.MostRecentMixedNode()
	if err != nil || !node.IsRoot() {
		tst.Error("Expected the root to be the most recent mixed node", err)
	}
}

func TestNoMixedNode(tst *testing.T) {
	t, err := New("((A_1:1,A_2:1):1,A_3:2);", map[string]int{"A": 0})
	if err != nil {
		tst.Fatal(err)
	}
	if _, err := t.MostRecentMixedNode(); !errors.Is(err, ErrNoMixedNode) {
		tst.Error("Expected ErrNoMixedNode, got", err)
	}
}

func TestNoHosts(tst *testing.T) {
	t, err := New(basicTree, nil)
	if err != nil {
		tst.Fatal(err)
	}
	if _, err := t.AllHostsInfectedTime(); !errors.Is(err, ErrNoHosts) {
		tst.Error("Expected ErrNoHosts, got", err)
	}
}

func TestParseSimulatorFile(tst *testing.T) {
	in := hostTree + "\nD_2 0\nD_3 0\nD_1 0\nR_4 1\n"
	t, hosts, err := ParseSimulatorFile(strings.NewReader(in))
	if err != nil {
		tst.Fatal(err)
	}
	if len(hosts) != 4 || hosts["R_4"] != 1 {
		tst.Error("Wrong hosts:", hosts)
	}
	if t.LeafHosts()[3] != 1 {
		tst.Error("Hosts were not applied")
	}

	_, _, err = ParseSimulatorFile(strings.NewReader(hostTree + "\nD_2 zero\n"))
	if err == nil {
		tst.Error("Expected error for a bad host line")
	}
}
