package comparisons

import (
	"math"

	"github.com/tamslo/pharme-study-result-analyses/domain/stats"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
)

// Effect interpretation labels.
const (
	EffectSmall     = "small"
	EffectMedium    = "medium"
	EffectLarge     = "large"
	EffectUndefined = "undefined"
)

// InterpretEffect maps an effect size to its magnitude label. The same
// thresholds apply to all four effect methods; anything else is a
// configuration error, not a silent default.
func InterpretEffect(result stats.ComparisonResult) (string, error) {
	switch result.EffectMethod {
	case stats.EffectCohensD, stats.EffectRankBiserial, stats.EffectCramersV, stats.EffectPhi:
	default:
		return "", errors.ConfigurationErrorf(
			"no interpretation thresholds for effect method %q", result.EffectMethod,
		)
	}
	if !result.HasEffect() {
		return EffectUndefined, nil
	}
	magnitude := math.Abs(result.EffectSize)
	switch {
	case magnitude <= 0.3:
		return EffectSmall, nil
	case magnitude <= 0.5:
		return EffectMedium, nil
	default:
		return EffectLarge, nil
	}
}
