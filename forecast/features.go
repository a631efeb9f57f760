package forecast

import (
	"fmt"
	"slices"
)

const (
	// WeekWindow and MonthWindow are the short and long lookbacks of the feature vector
	WeekWindow  = 7
	MonthWindow = 30

	// FeatureCount is the length of the vector built by ExtractFeatures:
	// 3 windows x 4 stats, 30 raw values, 29 diffs, 30 deviations
	FeatureCount = 3*4 + MonthWindow + (MonthWindow - 1) + MonthWindow

	rawOffset  = 3 * 4
	diffOffset = rawOffset + MonthWindow
)

// ExtractFeatures builds the model input from prices ordered oldest first.
// At least MonthWindow prices are required.
func ExtractFeatures(prices []float64) ([]float64, error) {
	if len(prices) < MonthWindow {
		return nil, fmt.Errorf("need at least %d prices, got %d", MonthWindow, len(prices))
	}

	week := prices[len(prices)-WeekWindow:]
	month := prices[len(prices)-MonthWindow:]

	features := make([]float64, 0, FeatureCount)
	for _, window := range [][]float64{week, month, prices} {
		features = append(features, slices.Max(window), slices.Min(window), median(window), mean(window))
	}

	features = append(features, month...)

	for i := 0; i < len(month)-1; i++ {
		features = append(features, month[i+1]-month[i])
	}

	monthMean := mean(month)
	for _, v := range month {
		features = append(features, v-monthMean)
	}

	return features, nil
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
