package likelihood

import (
	"math"
	"testing"

	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/popmodel"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/segment"
)

func family(tst *testing.T, name string) *popmodel.Family {
	f, err := popmodel.LookupFamily(name)
	if err != nil {
		tst.Fatal(err)
	}
	return f
}

func TestSingleHost(tst *testing.T) {
	e := newEngine(tst, fiveTree, nil)
	s, err := NewSingleHost(e, family(tst, "linear"), popmodel.Params{"N": 1000, "b": 10}, []string{"N"})
	if err != nil {
		tst.Fatal(err)
	}
	if len(s.Free()) != 1 || s.Free()[0] != "N0" {
		tst.Fatal("Alias was not resolved:", s.Free())
	}
	checkL(tst, "start", s.Likelihood(), -22.383238808388455)

	pars := s.GetFloatParameters()
	if pars[0].Name() != "log(N0)" {
		tst.Error("Expected log scale parameter, got", pars[0].Name())
	}
	if math.Abs(pars[0].Get()-math.Log(1000)) > smallDiff {
		tst.Error("Wrong log value", pars[0].Get())
	}

	c := s.Copy().(*SingleHost)
	cp := c.GetFloatParameters()
	cp[0].Set(math.Log(2000))
	checkL(tst, "copy", c.Likelihood(), -25.18339798169222)
	checkL(tst, "original", s.Likelihood(), -22.383238808388455)
	if p := c.Params(); math.Abs(p["N0"]-2000) > 1e-9 || p["b"] != 10 {
		tst.Error("Wrong copy parameters:", p)
	}
}

func TestSingleHostClamp(tst *testing.T) {
	e := newEngine(tst, fiveTree, nil)
	s, err := NewSingleHost(e, family(tst, "constant"), popmodel.Params{"N": 1e12}, []string{"N"})
	if err != nil {
		tst.Fatal(err)
	}
	if n := s.Params()["N"]; n != 1e9 {
		tst.Error("Starting value was not clamped:", n)
	}
}

func TestSingleHostErrors(tst *testing.T) {
	e := newEngine(tst, fiveTree, nil)
	f := family(tst, "linear")
	for _, free := range [][]string{{"r"}, {"N", "N0"}} {
		if _, err := NewSingleHost(e, f, nil, free); err == nil {
			tst.Error("Expected error for free parameters", free)
		}
	}
	if _, err := NewSingleHost(e, f, popmodel.Params{"N": 1, "N0": 2}, nil); err == nil {
		tst.Error("Expected error for a parameter set twice")
	}
}

func TestTransmissionOptimizable(tst *testing.T) {
	e := newEngine(tst, pairTree, donorRecipient)
	t, err := NewTransmission(e, family(tst, "constant"), family(tst, "linear-infection"),
		popmodel.Params{"N": 10}, popmodel.Params{"a": 1, "b": 2}, 2, []string{"T", "d.N"})
	if err != nil {
		tst.Fatal(err)
	}
	if low, high := t.Window(); low != 0 || high != 3 {
		tst.Error("Wrong window:", low, high)
	}
	names := t.Free()
	if len(names) != 2 || names[0] != "T" || names[1] != "donor.N" {
		tst.Error("Wrong free names:", names)
	}
	checkL(tst, "start", t.Likelihood(), -6.303036322765086)
	if i := t.Params(segment.Recipient)["I"]; i != 2 {
		tst.Error("I should follow T, got", i)
	}

	c := t.Copy().(*Transmission)
	c.GetFloatParameters()[0].Set(1.5)
	if c.TransmissionTime() != 1.5 || c.Params(segment.Recipient)["I"] != 1.5 {
		tst.Error("Copy did not move T and I:", c.TransmissionTime(), c.Params(segment.Recipient))
	}
	if t.TransmissionTime() != 2 {
		tst.Error("Original was modified:", t.TransmissionTime())
	}
}

func TestTransmissionFixedI(tst *testing.T) {
	e := newEngine(tst, pairTree, donorRecipient)
	t, err := NewTransmission(e, family(tst, "constant"), family(tst, "linear-infection"),
		nil, popmodel.Params{"a": 1, "b": 2, "I": 5}, math.NaN(), []string{"T"})
	if err != nil {
		tst.Fatal(err)
	}
	if t.TransmissionTime() != 1.5 {
		tst.Error("Expected the middle of the window, got", t.TransmissionTime())
	}
	if i := t.Params(segment.Recipient)["I"]; i != 5 {
		tst.Error("I should stay fixed, got", i)
	}
}

func TestTransmissionErrors(tst *testing.T) {
	e := newEngine(tst, pairTree, donorRecipient)
	c := family(tst, "constant")
	for _, free := range [][]string{{"N"}, {"x.N"}, {"donor.r"}, {"T", "T"}, {"d.N", "donor.N0"}} {
		if _, err := NewTransmission(e, c, c, nil, nil, 1, free); err == nil {
			tst.Error("Expected error for free parameters", free)
		}
	}

	e = newEngine(tst, fiveTree, nil)
	if _, err := NewTransmission(e, c, c, nil, nil, 1, nil); err == nil {
		tst.Error("Expected error for a tree without hosts")
	}
}
