// Package stats defines the result types of the statistical comparisons.
package stats

import (
	"encoding/json"
	"math"

	"github.com/tamslo/pharme-study-result-analyses/domain/core"
)

// Comparison is the kind of comparison a result belongs to; together with
// the item name it keys the results ledger.
type Comparison string

const (
	// ComparisonStudyGroups compares the two study arms at one time point.
	ComparisonStudyGroups Comparison = "study_groups"
	// ComparisonTimePoints compares two time points within one study arm.
	ComparisonTimePoints Comparison = "time_points"
)

// Test name tags carried in ComparisonResult.Statistic.
const (
	StatisticTTest       = "t-test"
	StatisticMannWhitney = "mannwhitneyu"
	StatisticWilcoxon    = "wilcoxon"
	StatisticFisher      = "fisher"
	StatisticMcNemar     = "mcnemar"
)

// Effect-size method tags. "d" and "r" are difference measures, "V" and "ɸ"
// association measures; the interpretation thresholds apply to all four.
const (
	EffectCohensD      = "d"
	EffectRankBiserial = "r"
	EffectCramersV     = "V"
	EffectPhi          = "ɸ"
)

// ComparisonResult is the output of one statistical test.
type ComparisonResult struct {
	PValue       float64 `json:"p_value"`
	Statistic    string  `json:"statistic"`
	EffectSize   float64 `json:"effect_size"`
	EffectMethod string  `json:"effect_method"`
	Notes        string  `json:"notes,omitempty"`
}

// HasEffect reports whether the effect size is defined. Degenerate
// contingency tables legitimately yield NaN effects.
func (r ComparisonResult) HasEffect() bool {
	return !math.IsNaN(r.EffectSize)
}

// comparisonResultJSON mirrors ComparisonResult with nullable floats, since
// encoding/json cannot represent NaN. Undefined values serialize as null.
type comparisonResultJSON struct {
	PValue       *float64 `json:"p_value"`
	Statistic    string   `json:"statistic"`
	EffectSize   *float64 `json:"effect_size"`
	EffectMethod string   `json:"effect_method"`
	Notes        string   `json:"notes,omitempty"`
}

func (r ComparisonResult) MarshalJSON() ([]byte, error) {
	nullable := func(v float64) *float64 {
		if math.IsNaN(v) {
			return nil
		}
		return &v
	}
	return json.Marshal(comparisonResultJSON{
		PValue:       nullable(r.PValue),
		Statistic:    r.Statistic,
		EffectSize:   nullable(r.EffectSize),
		EffectMethod: r.EffectMethod,
		Notes:        r.Notes,
	})
}

func (r *ComparisonResult) UnmarshalJSON(data []byte) error {
	var decoded comparisonResultJSON
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	value := func(v *float64) float64 {
		if v == nil {
			return math.NaN()
		}
		return *v
	}
	r.PValue = value(decoded.PValue)
	r.Statistic = decoded.Statistic
	r.EffectSize = value(decoded.EffectSize)
	r.EffectMethod = decoded.EffectMethod
	r.Notes = decoded.Notes
	return nil
}

// TTestResult builds a two-sample t-test result (Cohen's d effect).
func TTestResult(pValue, effectSize float64, notes string) ComparisonResult {
	return ComparisonResult{PValue: pValue, Statistic: StatisticTTest, EffectSize: effectSize, EffectMethod: EffectCohensD, Notes: notes}
}

// MannWhitneyUResult builds a Mann-Whitney-U result (rank-biserial effect).
func MannWhitneyUResult(pValue, effectSize float64, notes string) ComparisonResult {
	return ComparisonResult{PValue: pValue, Statistic: StatisticMannWhitney, EffectSize: effectSize, EffectMethod: EffectRankBiserial, Notes: notes}
}

// WilcoxonResult builds a Wilcoxon signed-rank result (matched-pairs
// rank-biserial effect).
func WilcoxonResult(pValue, effectSize float64, notes string) ComparisonResult {
	return ComparisonResult{PValue: pValue, Statistic: StatisticWilcoxon, EffectSize: effectSize, EffectMethod: EffectRankBiserial, Notes: notes}
}

// FisherResult builds a Fisher's exact result (Cramér's V effect).
func FisherResult(pValue, effectSize float64, notes string) ComparisonResult {
	return ComparisonResult{PValue: pValue, Statistic: StatisticFisher, EffectSize: effectSize, EffectMethod: EffectCramersV, Notes: notes}
}

// McNemarResult builds a McNemar result (phi coefficient effect).
func McNemarResult(pValue, effectSize float64, notes string) ComparisonResult {
	return ComparisonResult{PValue: pValue, Statistic: StatisticMcNemar, EffectSize: effectSize, EffectMethod: EffectPhi, Notes: notes}
}

// LedgerRow is one persisted entry of the comparison results ledger.
type LedgerRow struct {
	Comparison Comparison       `json:"comparison"`
	Item       string           `json:"item"`
	Title      string           `json:"title"`
	Result     ComparisonResult `json:"result"`
}

// ParticipantScore is one participant's aggregate score for a survey.
// Score is nil when the participant answered no scoreable question at all,
// which is distinct from a score of zero.
type ParticipantScore struct {
	ParticipantID core.ParticipantID `json:"participant_id"`
	Score         *int               `json:"score"`
}

// ScoreTable is a per-participant score table for one survey.
type ScoreTable []ParticipantScore

// Values converts defined scores to floats, keyed by participant;
// participants with a nil score are omitted.
func (t ScoreTable) Values() map[core.ParticipantID]float64 {
	values := make(map[core.ParticipantID]float64, len(t))
	for _, entry := range t {
		if entry.Score != nil {
			values[entry.ParticipantID] = float64(*entry.Score)
		}
	}
	return values
}
