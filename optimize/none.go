package optimize

import "math"

// None is an optimizer which computes initial value and exits.
type None struct {
	BaseOptimizer
}

// NewNone creates an optimizer which computes initial likelihood only.
func NewNone() *None {
	return &None{}
}

// Run computes the likelihood once.
func (n *None) Run(iterations int) {
	n.start("none")
	n.l = n.eval(n.Optimizable, n.parameters)
	n.PrintLine(n.parameters, n.l)
	n.finish(!math.IsInf(n.l, -1), "likelihood computed at the starting point")
}
