// Package stats holds the numeric helpers used by the insight rules. Every
// function is pure and maps degenerate inputs to 0 instead of NaN or Inf.
package stats

import "math"

// Mean returns the arithmetic mean, 0 for an empty list.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StandardDeviation returns the population standard deviation (divides by N).
// Lists with fewer than two values yield 0.
func StandardDeviation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// ZScore returns (value - mean) / stdDev, or 0 when stdDev is 0.
func ZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return (value - mean) / stdDev
}

// Correlation returns the Pearson correlation coefficient of two series using
// the sum formula. Series of different length, shorter than two, or with zero
// variance yield 0.
func Correlation(x, y []float64) float64 {
	n := len(x)
	if n != len(y) || n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}

	fn := float64(n)
	numerator := fn*sumXY - sumX*sumY
	denominator := (fn*sumX2 - sumX*sumX) * (fn*sumY2 - sumY*sumY)
	if denominator <= 0 {
		return 0
	}
	r := numerator / math.Sqrt(denominator)
	return math.Max(-1, math.Min(1, r))
}
