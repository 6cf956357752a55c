package tree

import (
	"math"
	"testing"
)

// checkSplit verifies that branch lengths and tip distances survive a
// split.
func checkSplit(tst *testing.T, t *Tree, T float64) {
	before, after, err := t.SplitAtTime(T)
	if err != nil {
		tst.Fatal(err)
	}

	total := before.TotalLength()
	for _, frag := range after {
		total += frag.TotalLength()
	}
	if math.Abs(total-t.TotalLength()) > smallDiff {
		tst.Errorf("T=%v: total length %v, expected %v", T, total, t.TotalLength())
	}

	var stubs []*Node
	for _, node := range before.Terminals() {
		if node.Stub {
			stubs = append(stubs, node)
		}
	}
	if len(stubs) != len(after) {
		tst.Fatalf("T=%v: %d stubs for %d fragments", T, len(stubs), len(after))
	}
	if len(after) != t.LineagesAt(T) {
		tst.Errorf("T=%v: %d fragments, %d lineages", T, len(after), t.LineagesAt(T))
	}

	for i, frag := range after {
		up := frag.Root().BranchLength + before.RootDistance(stubs[i].ID)
		for _, leaf := range frag.Terminals() {
			orig := findNode(t, leaf.Name)
			d := frag.RootDistance(leaf.ID) + up
			if math.Abs(d-t.RootDistance(orig.ID)) > smallDiff {
				tst.Errorf("T=%v: leaf %s distance %v, expected %v", T, leaf.Name, d, t.RootDistance(orig.ID))
			}
		}
	}

	for _, node := range before.Walk(nil) {
		if node.BranchLength < 0 {
			tst.Error("Negative branch length in before tree")
		}
	}
	for _, frag := range after {
		if frag.Root().BranchLength < 0 {
			tst.Error("Negative root branch length in a fragment")
		}
	}
}

func TestSplit(tst *testing.T) {
	t := mustParse(tst, fiveTree)
	before, after, err := t.SplitAtTime(1.5)
	if err != nil {
		tst.Fatal(err)
	}
	if len(after) != 3 {
		tst.Fatal("Expected 3 fragments, got", len(after))
	}
	if math.Abs(before.Time()-1.5) > smallDiff {
		tst.Error("Before tree should be measured from the cut point, time", before.Time())
	}
	for _, node := range before.Terminals() {
		if !node.Stub || node.Time != 0 {
			tst.Error("Unexpected leaf in before tree:", node.LongString())
		}
	}
	stems := []float64{0.5, 0.8, 1.5}
	for i, frag := range after {
		if math.Abs(frag.Root().BranchLength-stems[i]) > smallDiff {
			tst.Errorf("Fragment %d stem %v, expected %v", i, frag.Root().BranchLength, stems[i])
		}
	}
	if after[2].NNodes() != 1 || after[2].Root().Name != "E" {
		tst.Error("Expected a single leaf fragment E")
	}
}

func TestSplitRoundTrip(tst *testing.T) {
	for _, s := range []string{basicTree, fiveTree, twoGroups, lineageTree, tree1} {
		t := mustParse(tst, s)
		for _, f := range []float64{0.1, 0.33, 0.45, 0.77, 0.95} {
			checkSplit(tst, t, f*t.Time())
		}
	}
}

func TestSplitHosts(tst *testing.T) {
	t, err := New(hostTree, donorRecipient)
	if err != nil {
		tst.Fatal(err)
	}
	_, after, err := t.SplitAtTime(1.4)
	if err != nil {
		tst.Fatal(err)
	}
	// D_2, D_3 cherry; D_1; R_4
	if len(after) != 3 {
		tst.Fatal("Expected 3 fragments, got", len(after))
	}
	if after[2].Root().Host != 1 || after[0].Root().Host != 0 {
		tst.Error("Fragment hosts were not kept")
	}
}

func TestSplitRange(tst *testing.T) {
	t := mustParse(tst, basicTree)
	for _, T := range []float64{0, -1, 3, 4} {
		if _, _, err := t.SplitAtTime(T); err == nil {
			tst.Error("Expected error for split at", T)
		}
	}
}
