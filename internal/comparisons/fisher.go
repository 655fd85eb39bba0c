package comparisons

import (
	"math"
	"sort"

	"github.com/tamslo/pharme-study-result-analyses/domain/stats"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
)

// fisher compares categorical answer distributions between two groups with
// a Monte-Carlo approximation of Fisher's exact test, suitable for tables
// larger than 2x2. The effect size is Cramér's V, which is undefined (NaN)
// for tables with a single row or column.
func (e *Engine) fisher(a, b []string) (stats.ComparisonResult, error) {
	table := contingencyTable(a, b)
	if len(table) == 0 {
		return stats.ComparisonResult{}, errors.ConfigurationError(
			"cannot compare empty categorical samples",
		)
	}

	observed := chiSquareStatistic(table)
	p := e.monteCarloP(a, b, observed)
	v := cramersV(table, observed)
	return stats.FisherResult(p, v, ""), nil
}

// contingencyTable builds the level-by-group count table. Levels absent
// from both groups contribute all-zero rows and are omitted.
func contingencyTable(a, b []string) [][]float64 {
	levels := make(map[string]bool)
	for _, label := range a {
		levels[label] = true
	}
	for _, label := range b {
		levels[label] = true
	}
	ordered := make([]string, 0, len(levels))
	for level := range levels {
		ordered = append(ordered, level)
	}
	sort.Strings(ordered)

	index := make(map[string]int, len(ordered))
	for i, level := range ordered {
		index[level] = i
	}
	table := make([][]float64, len(ordered))
	for i := range table {
		table[i] = make([]float64, 2)
	}
	for _, label := range a {
		table[index[label]][0]++
	}
	for _, label := range b {
		table[index[label]][1]++
	}
	return table
}

// chiSquareStatistic computes the chi-square statistic without continuity
// correction. Cells with a zero expected count contribute nothing.
func chiSquareStatistic(table [][]float64) float64 {
	rows, cols := len(table), len(table[0])
	rowTotals := make([]float64, rows)
	colTotals := make([]float64, cols)
	total := 0.0
	for i := range table {
		for j := range table[i] {
			rowTotals[i] += table[i][j]
			colTotals[j] += table[i][j]
			total += table[i][j]
		}
	}
	statistic := 0.0
	for i := range table {
		for j := range table[i] {
			expected := rowTotals[i] * colTotals[j] / total
			if expected == 0 {
				continue
			}
			d := table[i][j] - expected
			statistic += d * d / expected
		}
	}
	return statistic
}

// monteCarloP estimates the p-value by permuting the group assignments
// with fixed group sizes and counting permutations at least as extreme as
// the observed table. The +1 terms keep the estimate strictly positive.
func (e *Engine) monteCarloP(a, b []string, observed float64) float64 {
	pooled := append(append([]string(nil), a...), b...)
	extreme := 0
	for i := 0; i < e.Iterations; i++ {
		permutation := e.rng.Perm(len(pooled))
		permutedA := make([]string, len(a))
		permutedB := make([]string, len(b))
		for j, index := range permutation[:len(a)] {
			permutedA[j] = pooled[index]
		}
		for j, index := range permutation[len(a):] {
			permutedB[j] = pooled[index]
		}
		if chiSquareStatistic(contingencyTable(permutedA, permutedB)) >= observed-1e-12 {
			extreme++
		}
	}
	return float64(extreme+1) / float64(e.Iterations+1)
}

// cramersV derives the association strength from the chi-square statistic.
func cramersV(table [][]float64, chiSquare float64) float64 {
	rows, cols := len(table), len(table[0])
	minDim := float64(min(rows, cols) - 1)
	if minDim == 0 {
		return math.NaN()
	}
	total := 0.0
	for i := range table {
		for j := range table[i] {
			total += table[i][j]
		}
	}
	return math.Sqrt(chiSquare / (total * minDim))
}
