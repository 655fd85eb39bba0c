package comparisons

import "sort"

// rankData assigns ranks to the values, averaging the ranks of ties, and
// returns the tie group sizes for variance corrections.
func rankData(values []float64) (ranks []float64, tieSizes []int) {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return values[order[i]] < values[order[j]]
	})

	ranks = make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && values[order[j+1]] == values[order[i]] {
			j++
		}
		// Positions i..j share the same value.
		averageRank := float64(i+j)/2.0 + 1.0
		for k := i; k <= j; k++ {
			ranks[order[k]] = averageRank
		}
		if size := j - i + 1; size > 1 {
			tieSizes = append(tieSizes, size)
		}
		i = j + 1
	}
	return ranks, tieSizes
}

// tieCorrection is the sum over tie groups of t^3 - t.
func tieCorrection(tieSizes []int) float64 {
	sum := 0.0
	for _, t := range tieSizes {
		f := float64(t)
		sum += f*f*f - f
	}
	return sum
}
