// Package dist implements statistical helpers: likelihood ratio
// thresholds and spread summaries of repeated estimates.
package dist

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// LikelihoodRatioDrop returns the log-likelihood drop from the maximum
// which defines a likelihood ratio confidence region of the given
// level for df parameters, i.e. half of the chi-squared quantile. For
// level=0.95 and df=1 it is about 1.92.
func LikelihoodRatioDrop(level float64, df int) (float64, error) {
	if !(level > 0 && level < 1) {
		return 0, fmt.Errorf("confidence level should be in (0, 1), got %v", level)
	}
	if df < 1 {
		return 0, fmt.Errorf("degrees of freedom should be positive, got %d", df)
	}
	chi2 := distuv.ChiSquared{K: float64(df)}
	return chi2.Quantile(level) / 2, nil
}
