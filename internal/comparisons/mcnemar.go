package comparisons

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/tamslo/pharme-study-result-analyses/domain/stats"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
)

// mcNemar runs the exact binomial McNemar test on paired binary answers.
// The effect size is the phi coefficient. Tables larger than 2x2 have no
// McNemar test and fail loudly.
func (e *Engine) mcNemar(first, second []string) (stats.ComparisonResult, error) {
	levels := pairedLevels(first, second)
	switch {
	case len(levels) == 0:
		return stats.McNemarResult(math.NaN(), math.NaN(), "No paired data"), nil
	case len(levels) == 1:
		return stats.McNemarResult(1.0, 1.0, "Same paired data"), nil
	case len(levels) > 2:
		return stats.ComparisonResult{}, errors.ConfigurationErrorf(
			"McNemar requires binary answers, got %d levels", len(levels),
		)
	}

	index := map[string]int{levels[0]: 0, levels[1]: 1}
	var table [2][2]float64
	for i := range first {
		table[index[first[i]]][index[second[i]]]++
	}

	b, c := table[0][1], table[1][0]
	discordant := b + c
	var p float64
	if discordant == 0 {
		p = 1.0
	} else {
		binomial := distuv.Binomial{N: discordant, P: 0.5}
		p = math.Min(2.0*binomial.CDF(math.Min(b, c)), 1.0)
	}

	total := table[0][0] + table[0][1] + table[1][0] + table[1][1]
	var phi float64
	if discordant > 0 {
		chiSquare := (b - c) * (b - c) / discordant
		phi = math.Sqrt(chiSquare / total)
	}
	return stats.McNemarResult(p, phi, ""), nil
}

func pairedLevels(first, second []string) []string {
	set := make(map[string]bool)
	for _, label := range first {
		set[label] = true
	}
	for _, label := range second {
		set[label] = true
	}
	levels := make([]string, 0, len(set))
	for level := range set {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	return levels
}
