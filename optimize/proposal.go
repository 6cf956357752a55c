package optimize

import (
	"math/rand"
)

// NormalProposal returns normal proposal function.
func NormalProposal(sd float64) func(float64) float64 {
	if sd <= 0 {
		panic("sd should be > 0")
	}
	return func(x float64) float64 {
		return x + rand.NormFloat64()*sd
	}
}
