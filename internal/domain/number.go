package domain

import (
	"math"
	"strconv"
	"strings"
)

// Missing is the value stored for cells that could not be coerced to a number.
var Missing = math.NaN()

// IsMissing reports whether v is a missing value.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// ParseNumber coerces a CSV cell to a float. Blanks, sentinels such as
// "Not Available" and non-finite values become Missing.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return Missing
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return Missing
	}
	return v
}

// mean averages the non-missing values. The second result is the number of
// values that contributed; when it is zero the mean is Missing. A mean that
// is still not finite, which needs values beyond float64 range, is Missing.
func mean(values []float64) (float64, int) {
	var sum float64
	var n int
	for _, v := range values {
		if IsMissing(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return Missing, 0
	}
	avg := sum / float64(n)
	if math.IsInf(sum, 0) {
		avg = runningMean(values)
	}
	if math.IsInf(avg, 0) || math.IsNaN(avg) {
		return Missing, 0
	}
	return avg, n
}

// runningMean averages incrementally so large finite values do not overflow
// an intermediate sum.
func runningMean(values []float64) float64 {
	var avg float64
	var n int
	for _, v := range values {
		if IsMissing(v) {
			continue
		}
		n++
		avg += (v - avg) / float64(n)
	}
	return avg
}
