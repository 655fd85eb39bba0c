package comparisons

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/tamslo/pharme-study-result-analyses/domain/stats"
)

// tTest runs the pooled-variance two-sample t-test with Cohen's d as the
// effect size.
func (e *Engine) tTest(a, b []float64) stats.ComparisonResult {
	n1, n2 := float64(len(a)), float64(len(b))
	meanA, meanB := mean(a), mean(b)
	varA, varB := sampleVariance(a), sampleVariance(b)

	df := n1 + n2 - 2
	pooledVariance := ((n1-1)*varA + (n2-1)*varB) / df
	standardError := math.Sqrt(pooledVariance * (1/n1 + 1/n2))

	t := (meanA - meanB) / standardError
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2.0 * dist.Survival(math.Abs(t))

	d := (meanA - meanB) / math.Sqrt(pooledVariance)
	return stats.TTestResult(p, d, "")
}
