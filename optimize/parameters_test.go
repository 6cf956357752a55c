package optimize

import (
	"encoding/json"
	"math"
	"testing"
)

const (
	json1 = "{\"a\":7.2,\"b\":1.17e-22,\"c\":0,\"d \\\"!\":0.999999}"
)

func TestMarshalParameters(tst *testing.T) {
	var pars FloatParameters
	a := 7.2
	b := 1.17e-22
	c := 0.0
	d := 0.999999
	pars.Append(NewBasicFloatParameter(&a, "a"))
	pars.Append(NewBasicFloatParameter(&b, "b"))
	pars.Append(NewBasicFloatParameter(&c, "c"))
	pars.Append(NewBasicFloatParameter(&d, "d \"!"))
	j, err := json.Marshal(pars)
	if err != nil {
		tst.Error("Error: ", err)
	}
	if string(j) != json1 {
		tst.Errorf("Incorrect encoded json value. Expected:\n'%v'\n got\n'%v'", json1, string(j))
	}
}

func TestUnmarshalParameters(tst *testing.T) {
	var pars FloatParameters
	a := 1.0
	b := 1.0
	c := 1.0
	d := 1.0
	pars.Append(NewBasicFloatParameter(&a, "a"))
	pars.Append(NewBasicFloatParameter(&b, "b"))
	pars.Append(NewBasicFloatParameter(&c, "c"))
	pars.Append(NewBasicFloatParameter(&d, "d \"!"))
	err := json.Unmarshal([]byte(json1), &pars)
	if err != nil {
		tst.Error("Error: ", err)
	}
	j, err := json.Marshal(pars)
	if err != nil {
		tst.Error("Error: ", err)
	}
	if string(j) != json1 {
		tst.Errorf("Incorrect encoded json value. Expected:\n'%v'\n got\n'%v'", json1, string(j))
	}
	if a != 7.2 {
		tst.Error("Value was not set, a =", a)
	}
}

func TestLogParameter(tst *testing.T) {
	n := 100.0
	par := NewLogFloatParameter(&n, "logN")
	if math.Abs(par.Get()-math.Log(100)) > 1e-12 {
		tst.Error("Wrong log value:", par.Get())
	}
	par.Set(math.Log(20))
	if math.Abs(n-20) > 1e-9 {
		tst.Error("Value was not updated:", n)
	}
	par.Propose()
	par.Reject()
	if math.Abs(n-20) > 1e-9 {
		tst.Error("Value was not restored after reject:", n)
	}
}

func TestReflect(tst *testing.T) {
	x := 0.5
	par := NewBasicFloatParameter(&x, "x")
	par.SetMin(0)
	par.SetMax(1)
	par.SetProposalFunc(func(v float64) float64 { return v + 0.7 })
	par.Propose()
	if math.Abs(x-0.8) > 1e-12 {
		tst.Error("Expected reflection to 0.8, got", x)
	}
}
