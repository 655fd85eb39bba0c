package comparisons

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/tamslo/pharme-study-result-analyses/domain/stats"
)

type alternative int

const (
	alternativeTwoSided alternative = iota
	// alternativeLess tests whether the first sample is stochastically
	// smaller than the second.
	alternativeLess
)

// mannWhitneyU runs the Mann-Whitney U test using the tie-corrected,
// continuity-corrected normal approximation. The effect size is the
// rank-biserial correlation of the first sample.
func (e *Engine) mannWhitneyU(a, b []float64, alt alternative) stats.ComparisonResult {
	n1, n2 := float64(len(a)), float64(len(b))
	combined := append(append([]float64(nil), a...), b...)
	ranks, tieSizes := rankData(combined)

	rankSumA := 0.0
	for i := range a {
		rankSumA += ranks[i]
	}
	u := rankSumA - n1*(n1+1)/2.0

	n := n1 + n2
	meanU := n1 * n2 / 2.0
	varianceU := n1 * n2 / 12.0 * ((n + 1) - tieCorrection(tieSizes)/(n*(n-1)))
	sigma := math.Sqrt(varianceU)

	normal := distuv.UnitNormal
	var p float64
	switch alt {
	case alternativeLess:
		p = normal.CDF((u - meanU + 0.5) / sigma)
	default:
		z := (math.Abs(u-meanU) - 0.5) / sigma
		p = 2.0 * normal.Survival(z)
	}
	p = math.Min(p, 1.0)

	rankBiserial := 1.0 - 2.0*u/(n1*n2)
	return stats.MannWhitneyUResult(p, rankBiserial, "")
}
