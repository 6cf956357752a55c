package segment

import (
	"math"
	"testing"

	"github.com/op/go-logging"

	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/tree"
)

const (
	smallDiff = 1e-9

	basicTree = "((A:1, B:1):2, C:3);"
	fiveTree  = "((A:1, B:1):2, ((C:0.7, D:0.7):1.3, E:2):1);"
	// C-D and A-B coalescences are 0.001 apart
	nearTree = "((A:1.001, B:1.001):1.999, ((C:1, D:1):1, E:2):1);"
	sixTree  = "(((A:0.5, B:0.5):1, (C:1.2, D:1.2):0.3):2.5, (E:3, F:3):1);"
)

func init() {
	logging.SetLevel(logging.ERROR, "segment")
	logging.SetLevel(logging.ERROR, "tree")
}

func mustParse(tst *testing.T, s string) *tree.Tree {
	t, err := tree.New(s, nil)
	if err != nil {
		tst.Fatal(err)
	}
	return t
}

// checkCoverage verifies that segments are contiguous and cover
// [0, end].
func checkCoverage(tst *testing.T, segments []Segment, end float64) {
	if len(segments) == 0 {
		tst.Fatal("No segments")
	}
	if segments[0].Start != 0 {
		tst.Error("First segment starts at", segments[0].Start)
	}
	for i, s := range segments {
		if math.Abs(s.End-s.Start-s.Duration) > smallDiff || s.Duration < 0 {
			tst.Error("Wrong segment duration:", s)
		}
		if i > 0 && segments[i-1].End != s.Start {
			tst.Error("Gap or overlap between", segments[i-1], "and", s)
		}
	}
	if math.Abs(segments[len(segments)-1].End-end) > smallDiff {
		tst.Error("Segments end at", segments[len(segments)-1].End, "expected", end)
	}
	if math.Abs(TotalDuration(segments)-end) > smallDiff {
		tst.Error("Total duration", TotalDuration(segments), "expected", end)
	}
}

func TestDecompose(tst *testing.T) {
	t := mustParse(tst, basicTree)
	segments := Decompose(t, DefaultTolerance)
	exp := []Segment{
		{0, 1, 1, 3, 1},
		{1, 3, 2, 2, 1},
	}
	if len(segments) != len(exp) {
		tst.Fatal("Expected", exp, "got", segments)
	}
	for i := range exp {
		if segments[i] != exp[i] {
			tst.Error("Expected", exp[i], "got", segments[i])
		}
	}
}

func TestCoverageAndLineages(tst *testing.T) {
	for _, s := range []string{basicTree, fiveTree, sixTree} {
		t := mustParse(tst, s)
		segments := Decompose(t, DefaultTolerance)
		checkCoverage(tst, segments, t.Time())
		if len(segments) != t.NLeaves()-1 {
			tst.Error("Expected one segment per coalescence, got", len(segments))
		}
		for i, seg := range segments {
			if seg.Lineages != t.NLeaves()-i {
				tst.Errorf("Segment %d has %d lineages, expected %d", i, seg.Lineages, t.NLeaves()-i)
			}
			if seg.Lineages != t.LineagesAt(seg.Start) {
				tst.Errorf("Segment %v does not match LineagesAt=%d", seg, t.LineagesAt(seg.Start))
			}
		}
	}
}

func TestTolerance(tst *testing.T) {
	t := mustParse(tst, nearTree)
	segments := Decompose(t, DefaultTolerance)
	checkCoverage(tst, segments, t.Time())
	if len(segments) != 3 {
		tst.Fatal("Near-simultaneous events should be grouped, got", segments)
	}
	if segments[0].Coalescences != 2 || segments[0].Lineages != 5 {
		tst.Error("Wrong grouped segment:", segments[0])
	}
	if math.Abs(segments[0].End-1.001) > smallDiff {
		tst.Error("Group should end at the oldest event, got", segments[0].End)
	}
	if segments[1].Lineages != 3 {
		tst.Error("Lineages should drop by the number of events:", segments[1])
	}

	segments = Decompose(t, 0)
	if len(segments) != 4 {
		tst.Error("Without tolerance every event is a segment, got", segments)
	}
}

func TestWithinTolerance(tst *testing.T) {
	if !WithinTolerance(1, 1.002, DefaultTolerance) || WithinTolerance(1, 1.004, DefaultTolerance) {
		tst.Error("Wrong tolerance check")
	}
}

func TestCheckTree(tst *testing.T) {
	for _, c := range []struct {
		s   string
		tol float64
		n   int
	}{
		{fiveTree, DefaultTolerance, 0},
		{nearTree, DefaultTolerance, 1},
		{nearTree, 0, 0},
		{"((A:1,B:2):2,C:3);", DefaultTolerance, 1},
	} {
		if n := CheckTree(mustParse(tst, c.s), c.tol); n != c.n {
			tst.Errorf("%s (tol=%v): expected %d warnings, got %d", c.s, c.tol, c.n, n)
		}
	}
}
