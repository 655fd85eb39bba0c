package comparisons

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// shapiroFrancia tests a sample for normality and returns the p-value of
// the test. ok is false when the sample is too small or has no variance,
// in which case normality cannot be established and callers fall back to
// nonparametric tests.
func shapiroFrancia(sample []float64) (p float64, ok bool) {
	n := len(sample)
	if n < 5 {
		return 0, false
	}
	sorted := append([]float64(nil), sample...)
	sort.Float64s(sorted)

	// Expected standard normal order statistics (Blom scores).
	normal := distuv.UnitNormal
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = normal.Quantile((float64(i+1) - 0.375) / (float64(n) + 0.25))
	}

	r := correlation(sorted, scores)
	if math.IsNaN(r) {
		return 0, false
	}
	w := r * r

	// Royston's normal approximation of the W' statistic.
	nu := math.Log(float64(n))
	mu := -1.2725 + 1.0521*(math.Log(nu)-nu)
	sigma := 1.0308 - 0.26758*(math.Log(nu)+2.0/nu)
	z := (math.Log(1.0-w) - mu) / sigma
	return 1.0 - normal.CDF(z), true
}

func correlation(x, y []float64) float64 {
	mx, my := mean(x), mean(y)
	var sxy, sxx, syy float64
	for i := range x {
		dx := x[i] - mx
		dy := y[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	return sxy / math.Sqrt(sxx*syy)
}
