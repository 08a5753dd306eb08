// Package cpu implements the CPU math kernels used by the layers.
//
// Kernels operate on row-major float32 slices. Level-1 and level-3 BLAS
// routines go through gonum's pure Go blas32 implementation; reductions
// seed with math32 infinities.
package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// Gemm computes C = alpha * op(A) @ op(B) + beta * C.
//
// op(A) is (M, K), op(B) is (K, N) and C is (M, N). When transA is true A
// is stored as (K, M); when transB is true B is stored as (N, K).
func Gemm(transA, transB bool, m, n, k int, alpha float32, a, b []float32, beta float32, c []float32) {
	if m == 0 || n == 0 {
		return
	}
	if len(c) < m*n {
		panic(fmt.Sprintf("gemm: output has %d elements, need %d", len(c), m*n))
	}
	if k == 0 {
		Scale(beta, c[:m*n])
		return
	}

	ga := general(a, m, k, transA)
	gb := general(b, k, n, transB)
	gc := blas32.General{Rows: m, Cols: n, Stride: n, Data: c}

	blas32.Gemm(transpose(transA), transpose(transB), alpha, ga, gb, beta, gc)
}

// Gemv computes y = alpha * op(A) @ x + beta * y for A stored as (M, N).
// When trans is true op(A) is A transposed, so x has M elements and y N.
func Gemv(trans bool, m, n int, alpha float32, a, x []float32, beta float32, y []float32) {
	if m == 0 || n == 0 {
		return
	}
	xLen, yLen := n, m
	if trans {
		xLen, yLen = m, n
	}
	ga := blas32.General{Rows: m, Cols: n, Stride: n, Data: a[:m*n]}
	blas32.Gemv(transpose(trans), alpha, ga, vector(x[:xLen]), beta, vector(y[:yLen]))
}

// general wraps a stored matrix whose logical (untransposed) shape is
// rows x cols.
func general(data []float32, rows, cols int, trans bool) blas32.General {
	if trans {
		rows, cols = cols, rows
	}
	if len(data) < rows*cols {
		panic(fmt.Sprintf("gemm: operand has %d elements, need %dx%d", len(data), rows, cols))
	}
	return blas32.General{Rows: rows, Cols: cols, Stride: cols, Data: data[:rows*cols]}
}

func transpose(t bool) blas.Transpose {
	if t {
		return blas.Trans
	}
	return blas.NoTrans
}

func vector(x []float32) blas32.Vector {
	return blas32.Vector{N: len(x), Data: x, Inc: 1}
}
