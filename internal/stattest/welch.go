// Package stattest implements the two-sample comparison used by the survey
// assessor.
package stattest

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Comparison is the outcome of comparing two per-cohort value series.
type Comparison struct {
	P      float64 // two-sided Welch's t-test p-value
	Effect float64 // mean(series2) / mean(series1), direction not yet normalized
	Mean1  float64
	Mean2  float64
}

// Compare runs Welch's unequal-variance two-sample t-test between the series
// and computes the multiplicative effect mean2/mean1. Both series must already
// be filtered to finite values and contain at least two observations each.
func Compare(series1, series2 []float64) (Comparison, error) {
	if len(series1) < 2 || len(series2) < 2 {
		return Comparison{}, fmt.Errorf("need at least two observations per cohort, got %d and %d",
			len(series1), len(series2))
	}

	mean1, err := stats.Mean(series1)
	if err != nil {
		return Comparison{}, err
	}
	mean2, err := stats.Mean(series2)
	if err != nil {
		return Comparison{}, err
	}
	variance1, err := stats.SampleVariance(series1)
	if err != nil {
		return Comparison{}, err
	}
	variance2, err := stats.SampleVariance(series2)
	if err != nil {
		return Comparison{}, err
	}

	comparison := Comparison{
		Effect: mean2 / mean1,
		Mean1:  mean1,
		Mean2:  mean2,
	}

	n1 := float64(len(series1))
	n2 := float64(len(series2))
	pooled := variance1/n1 + variance2/n2
	if pooled == 0 {
		// Identical constant series carry no evidence of a difference.
		comparison.P = 1.0
		return comparison, nil
	}

	tStat := (mean1 - mean2) / math.Sqrt(pooled)

	// Welch-Satterthwaite degrees of freedom.
	df := pooled * pooled /
		(math.Pow(variance1/n1, 2)/(n1-1) + math.Pow(variance2/n2, 2)/(n2-1))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	comparison.P = 2 * dist.CDF(-math.Abs(tStat))
	return comparison, nil
}

// Finite filters a series down to its finite values, dropping NaN and
// infinities of either sign.
func Finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
