package features

// Smooth applies one exponential moving average step.
// Without a previous smoothed value the raw value is returned as-is.
func Smooth(prev float64, hasPrev bool, value, alpha float64) float64 {
	if !hasPrev {
		return value
	}
	return alpha*value + (1-alpha)*prev
}
