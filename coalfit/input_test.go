package main

import (
	"math"
	"testing"

	"github.com/op/go-logging"
)

func init() {
	logging.SetLevel(logging.ERROR, "coalfit")
}

func TestParseParams(tst *testing.T) {
	p, err := parseParams(map[string]string{"N": "20", "r": "-0.5"})
	if err != nil {
		tst.Fatal(err)
	}
	if p["N"] != 20 || p["r"] != -0.5 {
		tst.Error("Wrong parameters:", p)
	}
	if _, err := parseParams(map[string]string{"N": "many"}); err == nil {
		tst.Error("Expected error for a non-numeric value")
	}
}

func TestParseHosts(tst *testing.T) {
	h, err := parseHosts(map[string]string{"D": "0", "R": "1"})
	if err != nil || h["D"] != 0 || h["R"] != 1 {
		tst.Error("Wrong hosts:", h, err)
	}
	for _, bad := range []string{"x", "-1"} {
		if _, err := parseHosts(map[string]string{"D": bad}); err == nil {
			tst.Error("Expected error for host", bad)
		}
	}
}

func TestSplitTransmissionParams(tst *testing.T) {
	p, err := parseParams(map[string]string{"T": "1.2", "donor.N": "10", "recipient.N0": "3", "r.I": "1"})
	if err != nil {
		tst.Fatal(err)
	}
	dp, rp, T, err := splitTransmissionParams(p)
	if err != nil {
		tst.Fatal(err)
	}
	if T != 1.2 || dp["N"] != 10 || rp["N0"] != 3 || rp["I"] != 1 {
		tst.Error("Wrong split:", dp, rp, T)
	}

	_, _, T, err = splitTransmissionParams(nil)
	if err != nil || !math.IsNaN(T) {
		tst.Error("Expected NaN T without a value, got", T, err)
	}
	if _, _, _, err := splitTransmissionParams(map[string]float64{"N": 1}); err == nil {
		tst.Error("Expected error for a parameter without a host")
	}
}

func TestParseRange(tst *testing.T) {
	r, err := parseRange("N0=1:100:5:log")
	if err != nil {
		tst.Fatal(err)
	}
	if r.Name != "N0" || r.Min != 1 || r.Max != 100 || r.N != 5 || !r.Log {
		tst.Error("Wrong range:", r)
	}
	grid, err := r.Grid()
	if err != nil || len(grid) != 5 || math.Abs(grid[2]-10) > 1e-9 {
		tst.Error("Wrong grid:", grid, err)
	}

	r, err = parseRange("b=0.5, 1,2")
	if err != nil {
		tst.Fatal(err)
	}
	if len(r.Values) != 3 || r.Values[0] != 0.5 || r.Values[2] != 2 {
		tst.Error("Wrong values:", r.Values)
	}

	for _, bad := range []string{"N", "=1:2:3", "N=1:2", "N=1:2:3:sqrt", "N=a:2:3", "N=1,x"} {
		if _, err := parseRange(bad); err == nil {
			tst.Error("Expected error for range", bad)
		}
	}
}
