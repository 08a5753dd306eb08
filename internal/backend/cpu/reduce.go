package cpu

import (
	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/blas/blas32"
)

// Dot returns sum(x * y).
func Dot(x, y []float32) float32 {
	checkLen("dot", x, y)
	if len(x) == 0 {
		return 0
	}
	return blas32.Dot(vector(x), vector(y))
}

// Asum returns sum(|x|).
func Asum(x []float32) float32 {
	if len(x) == 0 {
		return 0
	}
	return blas32.Asum(vector(x))
}

// Sum returns the sum of x.
func Sum(x []float32) float32 {
	var s float32
	for _, v := range x {
		s += v
	}
	return s
}

// Max returns the largest value of x and its first index.
// An empty slice yields (-Inf, -1).
func Max(x []float32) (float32, int) {
	best, idx := math32.Inf(-1), -1
	for i, v := range x {
		if v > best || idx < 0 {
			best, idx = v, i
		}
	}
	return best, idx
}

// StridedMax returns the maximum of n values starting at x[0] spaced by
// stride.
func StridedMax(x []float32, n, stride int) float32 {
	best := math32.Inf(-1)
	for i := 0; i < n; i++ {
		best = math32.Max(best, x[i*stride])
	}
	return best
}
