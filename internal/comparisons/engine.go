// Package comparisons implements the statistical tests comparing survey
// outcomes between study arms and across time points. Test selection
// follows the measurement level of the data: continuous outcomes are
// gated on normality, ordinal outcomes use rank tests and categorical
// outcomes use exact tests.
package comparisons

import (
	"math"
	"math/rand/v2"

	"github.com/tamslo/pharme-study-result-analyses/domain/stats"
	"github.com/tamslo/pharme-study-result-analyses/internal"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
)

// Engine runs the statistical comparisons. The Monte-Carlo source is
// seeded so repeated runs produce identical ledgers.
type Engine struct {
	// Alpha is the two-sided significance level, also used as the
	// normality gate.
	Alpha float64
	// NonInferiorityAlpha is the one-sided level for non-inferiority
	// tests.
	NonInferiorityAlpha float64
	// Iterations is the Monte-Carlo sample count for the exact tests.
	Iterations int

	rng    *rand.Rand
	logger *internal.Logger
}

// NewEngine creates an engine with the study's fixed test parameters.
func NewEngine(logger *internal.Logger) *Engine {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Engine{
		Alpha:               0.05,
		NonInferiorityAlpha: 0.025,
		Iterations:          10000,
		rng:                 rand.New(rand.NewPCG(42, 0)),
		logger:              logger,
	}
}

// CompareGroupsContinuous compares a continuous outcome between two
// independent groups. Both samples must pass the normality gate for the
// t-test; otherwise the rank test is used.
func (e *Engine) CompareGroupsContinuous(a, b []float64) (stats.ComparisonResult, error) {
	if e.bothNormal(a, b) {
		return e.tTest(a, b), nil
	}
	return e.mannWhitneyU(a, b, alternativeTwoSided), nil
}

// CompareGroupsOrdinal compares an ordinal outcome between two independent
// groups.
func (e *Engine) CompareGroupsOrdinal(a, b []float64) (stats.ComparisonResult, error) {
	return e.mannWhitneyU(a, b, alternativeTwoSided), nil
}

// CompareGroupsCategorical compares a categorical outcome between two
// independent groups, given the raw answer labels per group.
func (e *Engine) CompareGroupsCategorical(a, b []string) (stats.ComparisonResult, error) {
	return e.fisher(a, b)
}

// ComparePairedContinuous compares a continuous outcome between two time
// points of the same participants. The paired t-test is not implemented;
// normally distributed paired samples fail loudly instead of silently
// degrading to a rank test.
func (e *Engine) ComparePairedContinuous(first, second []float64) (stats.ComparisonResult, error) {
	if len(first) != len(second) {
		return stats.ComparisonResult{}, errors.ConfigurationErrorf(
			"paired samples differ in length (%d vs %d)", len(first), len(second),
		)
	}
	if e.bothNormal(first, second) {
		return stats.ComparisonResult{}, errors.ConfigurationError(
			"paired samples are normally distributed; implement the paired t-test before comparing them",
		)
	}
	return e.wilcoxon(first, second)
}

// ComparePairedOrdinal compares an ordinal outcome between two time points
// of the same participants.
func (e *Engine) ComparePairedOrdinal(first, second []float64) (stats.ComparisonResult, error) {
	if len(first) != len(second) {
		return stats.ComparisonResult{}, errors.ConfigurationErrorf(
			"paired samples differ in length (%d vs %d)", len(first), len(second),
		)
	}
	return e.wilcoxon(first, second)
}

// ComparePairedCategorical compares a categorical outcome between two time
// points of the same participants, given the per-participant label pairs.
func (e *Engine) ComparePairedCategorical(first, second []string) (stats.ComparisonResult, error) {
	if len(first) != len(second) {
		return stats.ComparisonResult{}, errors.ConfigurationErrorf(
			"paired samples differ in length (%d vs %d)", len(first), len(second),
		)
	}
	return e.mcNemar(first, second)
}

// bothNormal applies the normality gate to two samples.
func (e *Engine) bothNormal(a, b []float64) bool {
	return e.isNormal(a) && e.isNormal(b)
}

func (e *Engine) isNormal(sample []float64) bool {
	p, ok := shapiroFrancia(sample)
	if !ok {
		return false
	}
	return p > e.Alpha
}

func mean(sample []float64) float64 {
	if len(sample) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range sample {
		sum += v
	}
	return sum / float64(len(sample))
}

// sampleVariance is the unbiased (n-1) variance.
func sampleVariance(sample []float64) float64 {
	if len(sample) < 2 {
		return math.NaN()
	}
	m := mean(sample)
	sum := 0.0
	for _, v := range sample {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(sample)-1)
}
