package util

import "math"

// Magnitude returns the Euclidean norm of vec. NaN components yield NaN.
func Magnitude(vec []float32) float64 {
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// IsZeroVector reports whether vec cannot be normalized for cosine
// similarity: it is empty, all zeros, or contains NaN.
func IsZeroVector(vec []float32) bool {
	m := Magnitude(vec)
	return m == 0 || math.IsNaN(m)
}
