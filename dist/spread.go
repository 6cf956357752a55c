package dist

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrEmpty is returned when summarizing no values.
var ErrEmpty = errors.New("no values to summarize")

// Spread summarizes repeated estimates of the same quantity, e.g.
// maximum likelihood estimates from many simulated trees.
type Spread struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	// SD is the population standard deviation.
	SD float64 `json:"sd"`
	// Error is the symmetric normal error, z*SD, with z=1.96 for
	// level=0.95.
	Error float64 `json:"error"`
	// TrimmedLow and TrimmedHigh are the extreme values left after
	// dropping the (1-level)/2 fraction on both ends.
	TrimmedLow  float64 `json:"trimmedLow"`
	TrimmedHigh float64 `json:"trimmedHigh"`
	// HDILow and HDIHigh bound the shortest interval containing the
	// level fraction of the values.
	HDILow  float64 `json:"hdiLow"`
	HDIHigh float64 `json:"hdiHigh"`
}

// Summarize computes the spread of values at a given level. The input
// is not modified.
func Summarize(values []float64, level float64) (Spread, error) {
	n := len(values)
	if n == 0 {
		return Spread{}, ErrEmpty
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s := Spread{N: n}
	s.Mean, s.SD = stat.PopMeanStdDev(sorted, nil)
	s.Median = Quantile(0.5, sorted)
	z := distuv.UnitNormal.Quantile(1 - (1-level)/2)
	s.Error = z * s.SD
	s.TrimmedLow, s.TrimmedHigh = Trimmed(sorted, level)
	s.HDILow, s.HDIHigh = HDI(sorted, level)
	return s, nil
}

// Trimmed drops round((1-level)/2*n) values from both ends of the
// sorted values and returns the extreme values left. Rounding is to
// even.
func Trimmed(sorted []float64, level float64) (low, high float64) {
	n := len(sorted)
	drop := int(math.RoundToEven((1 - level) / 2 * float64(n)))
	if 2*drop >= n {
		drop = (n - 1) / 2
	}
	return sorted[drop], sorted[n-1-drop]
}

// HDI returns the shortest interval spanning floor(level*n) steps of
// the sorted values.
func HDI(sorted []float64, level float64) (low, high float64) {
	n := len(sorted)
	inc := int(math.Floor(level * float64(n)))
	if inc >= n {
		inc = n - 1
	}
	best := 0
	for i := 1; i+inc < n; i++ {
		if sorted[i+inc]-sorted[i] < sorted[best+inc]-sorted[best] {
			best = i
		}
	}
	return sorted[best], sorted[best+inc]
}

// Quantile returns the empirical quantile of unsorted values.
func Quantile(p float64, values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}
