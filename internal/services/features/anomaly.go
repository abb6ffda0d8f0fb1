package features

import (
	"math"

	"github.com/montanaflynn/stats"
)

// AnomalyWindow is the number of prior raw values the detector looks at.
const AnomalyWindow = 20

// DetectAnomaly reports whether value deviates from the last AnomalyWindow prior
// values by more than threshold population standard deviations.
// It returns false until the history holds a full window or when the window is flat.
func DetectAnomaly(prior []float64, value, threshold float64) bool {
	if len(prior) < AnomalyWindow {
		return false
	}
	window := prior[len(prior)-AnomalyWindow:]

	mean, err := stats.Mean(window)
	if err != nil {
		return false
	}
	std, err := stats.StandardDeviationPopulation(window)
	if err != nil || std == 0 || math.IsNaN(std) {
		return false
	}
	return math.Abs(value-mean)/std > threshold
}

// ZScore returns |value-mean|/std over the same window DetectAnomaly uses,
// or 0 when the score is undefined.
func ZScore(prior []float64, value float64) float64 {
	if len(prior) < AnomalyWindow {
		return 0
	}
	window := prior[len(prior)-AnomalyWindow:]
	mean, _ := stats.Mean(window)
	std, err := stats.StandardDeviationPopulation(window)
	if err != nil || std == 0 {
		return 0
	}
	return math.Abs(value-mean) / std
}
