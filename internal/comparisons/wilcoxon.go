package comparisons

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/tamslo/pharme-study-result-analyses/domain/stats"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
)

// wilcoxon runs the Wilcoxon signed-rank test over the per-participant
// differences, using the tie-corrected normal approximation. The effect
// size is the matched-pairs rank-biserial correlation.
func (e *Engine) wilcoxon(first, second []float64) (stats.ComparisonResult, error) {
	var differences []float64
	for i := range first {
		if d := second[i] - first[i]; d != 0 {
			differences = append(differences, d)
		}
	}
	if len(differences) == 0 {
		return stats.ComparisonResult{}, errors.ConfigurationError(
			"all paired differences are zero; the signed-rank test is undefined",
		)
	}

	absolute := make([]float64, len(differences))
	for i, d := range differences {
		absolute[i] = math.Abs(d)
	}
	ranks, tieSizes := rankData(absolute)

	var positiveSum, negativeSum float64
	for i, d := range differences {
		if d > 0 {
			positiveSum += ranks[i]
		} else {
			negativeSum += ranks[i]
		}
	}
	t := math.Min(positiveSum, negativeSum)

	m := float64(len(differences))
	meanT := m * (m + 1) / 4.0
	varianceT := m*(m+1)*(2*m+1)/24.0 - tieCorrection(tieSizes)/48.0
	sigma := math.Sqrt(varianceT)

	z := (t - meanT + 0.5) / sigma
	p := math.Min(2.0*distuv.UnitNormal.CDF(z), 1.0)

	rankBiserial := (positiveSum - negativeSum) / (positiveSum + negativeSum)
	return stats.WilcoxonResult(p, rankBiserial, ""), nil
}
