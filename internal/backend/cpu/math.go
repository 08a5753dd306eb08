package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas32"
)

// Axpy computes y += alpha * x.
func Axpy(alpha float32, x, y []float32) {
	checkLen("axpy", x, y)
	if len(x) == 0 {
		return
	}
	blas32.Axpy(alpha, vector(x), vector(y))
}

// Scale computes x *= alpha in place.
func Scale(alpha float32, x []float32) {
	if len(x) == 0 {
		return
	}
	if alpha == 0 {
		clear(x)
		return
	}
	blas32.Scal(alpha, vector(x))
}

// ScaleTo computes y = alpha * x.
func ScaleTo(alpha float32, x, y []float32) {
	checkLen("scale", x, y)
	copy(y, x)
	Scale(alpha, y)
}

// Set fills x with alpha.
func Set(alpha float32, x []float32) {
	if alpha == 0 {
		clear(x)
		return
	}
	for i := range x {
		x[i] = alpha
	}
}

// AddScalar computes x += alpha elementwise.
func AddScalar(alpha float32, x []float32) {
	for i := range x {
		x[i] += alpha
	}
}

// Mul computes y = a * b elementwise.
func Mul(a, b, y []float32) {
	checkLen("mul", a, b)
	checkLen("mul", a, y)
	for i := range y {
		y[i] = a[i] * b[i]
	}
}

// Div computes y = a / b elementwise.
func Div(a, b, y []float32) {
	checkLen("div", a, b)
	checkLen("div", a, y)
	for i := range y {
		y[i] = a[i] / b[i]
	}
}

func checkLen(op string, a, b []float32) {
	if len(a) != len(b) {
		panic(fmt.Sprintf("%s: length mismatch %d vs %d", op, len(a), len(b)))
	}
}
