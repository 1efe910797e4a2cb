// Package mathx provides elementwise math helpers for flux authors, so
// component code stays independent of any one solver backend.
package mathx

import "math"

// Exp returns elementwise e**x.
func Exp(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = math.Exp(x)
	}
	return out
}

// Log returns the elementwise natural logarithm.
func Log(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = math.Log(x)
	}
	return out
}

// Sqrt returns the elementwise square root.
func Sqrt(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = math.Sqrt(x)
	}
	return out
}

// Sum returns the sum of all elements.
func Sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}

// Prod returns the product of all elements.
func Prod(xs []float64) float64 {
	p := 1.0
	for _, x := range xs {
		p *= x
	}
	return p
}

// Min returns the elementwise minimum of two equal-length slices.
func Min(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = math.Min(a[i], b[i])
	}
	return out
}

// Max returns the elementwise maximum of two equal-length slices.
func Max(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = math.Max(a[i], b[i])
	}
	return out
}

// Scale returns xs scaled by k.
func Scale(k float64, xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = k * x
	}
	return out
}

// AddScaled returns a + k*b for equal-length slices.
func AddScaled(a []float64, k float64, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + k*b[i]
	}
	return out
}
