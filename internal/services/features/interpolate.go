package features

// MinInterpolationPoints is the shortest series Interpolate will touch.
const MinInterpolationPoints = 4

var edgeWeights = [3]float64{0.25, 0.5, 0.25}

// Interpolate returns a display-smoothed copy of values.
//
// Endpoints are copied through. Interior points with two neighbours on the left
// and one on the right use the quadratic part of the Catmull-Rom polynomial
// over values[i-2..i+1]. The second and second-to-last points use a
// 0.25/0.5/0.25 kernel renormalised over the neighbours that exist. Series shorter than
// MinInterpolationPoints are returned unchanged. The input is never modified.
func Interpolate(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)

	n := len(values)
	if n < MinInterpolationPoints {
		return out
	}

	for i := 1; i < n-1; i++ {
		if i >= 2 && i <= n-3 {
			p0, p1, p2, p3 := values[i-2], values[i-1], values[i], values[i+1]
			out[i] = 0.5 * (2*p1 + (-p0 + p2) + (2*p0-5*p1+4*p2-p3))
			continue
		}
		out[i] = edgeKernel(values, i)
	}
	return out
}

func edgeKernel(values []float64, i int) float64 {
	start := i - 1
	if start < 0 {
		start = 0
	}
	end := i + 2
	if end > len(values) {
		end = len(values)
	}

	var sum, used float64
	for k, v := range values[start:end] {
		if k >= len(edgeWeights) {
			break
		}
		sum += v * edgeWeights[k]
		used += edgeWeights[k]
	}
	if used == 0 {
		return values[i]
	}
	return sum / used
}
