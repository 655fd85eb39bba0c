package comparisons

import (
	"fmt"

	"github.com/tamslo/pharme-study-result-analyses/domain/stats"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
)

// NonInferiority tests whether the treatment outcome is at most the given
// relative margin worse than the control outcome. The control sample is
// shifted down by the absolute margin; the treatment is non-inferior when
// it is significantly better than the shifted control at the one-sided
// level.
func (e *Engine) NonInferiority(treatment, control []float64, relativeMargin float64) (stats.ComparisonResult, error) {
	if relativeMargin <= 0 {
		return stats.ComparisonResult{}, errors.ConfigurationErrorf(
			"non-inferiority margin must be positive, got %f", relativeMargin,
		)
	}
	delta := relativeMargin * mean(control)
	shifted := make([]float64, len(control))
	for i, v := range control {
		shifted[i] = v - delta
	}
	notes := fmt.Sprintf("one-sided, margin %.2f (delta %.3f)", relativeMargin, delta)

	if e.bothNormal(treatment, shifted) {
		result := e.tTest(treatment, shifted)
		result.PValue /= 2.0
		result.Notes = notes
		return result, nil
	}
	result := e.mannWhitneyU(shifted, treatment, alternativeLess)
	result.Notes = notes
	return result, nil
}
