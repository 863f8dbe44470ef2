package lap

import (
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// percentile returns the p-th quantile (p in [0, 1]) of values. The input
// slice is not modified. values must not be empty.
func percentile(values []float64, p float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// alternativeCost calibrates the birth/death cost of a matrix from the
// distribution of its finite costs.
func alternativeCost(finite []float64, settings TrackerSettings) float64 {
	if len(finite) == 0 {
		return altCostFallback
	}
	return settings.AltLinkingCostFactor * percentile(finite, settings.CutoffPercentile)
}

func fillDense(m *mat.Dense, value float64) {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.Set(i, j, value)
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
