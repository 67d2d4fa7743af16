// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import "math"

// packedLDLT factors the dense symmetric n×n matrix h (row-major) as
// H = L D Lᵀ with L unit-lower-triangular, D diagonal, and returns the
// result packed the way slsqp's sqpCtx.l stores the BFGS Hessian's
// Cholesky factor: for row i, l[k] holds D_ii followed by the n-i-1
// strict-lower entries of column i (L_{i+1,i} .. L_{n-1,i}), and the next
// row's block starts immediately after — the exact "profile" layout
// slsqp.LSQ expects (see slsqp/solver.go's resetBFGS for the same packing
// of the identity matrix).
//
// If h is not positive definite, the diagonal is perturbed by a
// geometrically growing shift δ (spec.md §4.1's interior-point
// regularization idea, generalized here to any indefinite QP Hessian
// model) until the factorization succeeds or a perturbation ceiling is
// reached, in which case ok is false.
func packedLDLT(h []float64, n int) (packed []float64, ok bool) {
	const (
		minDiag  = 1e-12
		initialDelta = 1e-8
		maxDelta = 1e10
		growth   = 10.0
	)

	delta := 0.0
	for attempt := 0; attempt < 64; attempt++ {
		packed = make([]float64, n*(n+1)/2+1)
		if tryLDLT(h, n, delta, packed, minDiag) {
			return packed, true
		}
		if delta == 0 {
			delta = initialDelta
		} else {
			delta *= growth
		}
		if delta > maxDelta {
			return nil, false
		}
	}
	return nil, false
}

// tryLDLT attempts one factorization of H + δI, writing the packed result
// into out and reporting whether every pivot stayed above minDiag.
func tryLDLT(h []float64, n int, delta float64, out []float64, minDiag float64) bool {
	l := make([][]float64, n)
	for i := range l {
		l[i] = make([]float64, n)
		l[i][i] = 1
	}
	d := make([]float64, n)

	for i := 0; i < n; i++ {
		sum := h[i*n+i] + delta
		for k := 0; k < i; k++ {
			sum -= l[i][k] * l[i][k] * d[k]
		}
		d[i] = sum
		if d[i] < minDiag {
			return false
		}
		for j := i + 1; j < n; j++ {
			sum := h[j*n+i]
			for k := 0; k < i; k++ {
				sum -= l[j][k] * l[i][k] * d[k]
			}
			l[j][i] = sum / d[i]
		}
	}

	pos := 0
	for i := 0; i < n; i++ {
		out[pos] = d[i]
		pos++
		for j := i + 1; j < n; j++ {
			out[pos] = l[j][i]
			pos++
		}
	}
	return true
}

// hasInvalid reports whether v contains a NaN/Inf, used to guard
// against an evaluation failure propagating silently into the QP solve
// (spec.md §7, "Evaluation failure ... rejected as non-acceptable trial").
func hasInvalid(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return true
		}
	}
	return false
}
