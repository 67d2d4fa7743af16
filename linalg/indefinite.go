// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linalg

import (
	"errors"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/lapack/lapack64"
)

// Inertia reports the eigenvalue-sign triple (#positive, #negative, #zero)
// of a factorized symmetric matrix. Interior-point regularization requires
// (n, m, 0) — see spec.md §4.1.
type Inertia struct {
	Positive, Negative, Zero int
}

// Correct reports whether the inertia matches the (n, m, 0) signature
// required for a well-posed primal-dual KKT step.
func (in Inertia) Correct(n, m int) bool {
	return in.Positive == n && in.Negative == m && in.Zero == 0
}

// SymmetricIndefiniteSolver factorizes a dense symmetric matrix with
// Bunch-Kaufman pivoting (LAPACK Dsytrf) and solves against it (Dsytrs). It
// is the in-spec, Go-native stand-in for the out-of-scope MA57 backend
// named in spec.md §1/§6: both expose factorize/solve plus the inertia,
// rank and singularity predicate spec.md §4.1's regularization loop needs.
type SymmetricIndefiniteSolver struct {
	n       int
	a       blas64.Symmetric
	store   []float64
	ipiv    []int
	factored bool
	singular bool
}

// NewSymmetricIndefiniteSolver allocates a solver for an n×n matrix.
func NewSymmetricIndefiniteSolver(n int) *SymmetricIndefiniteSolver {
	return &SymmetricIndefiniteSolver{
		n:     n,
		store: make([]float64, n*n),
		ipiv:  make([]int, n),
	}
}

// Factorize runs Dsytrf on the dense row-major symmetric matrix dense
// (length n*n, as produced by CSCSymmetric.ToDense); only its lower triangle
// is read. The matrix is copied
// into internal storage: the caller's slice is never mutated.
func (s *SymmetricIndefiniteSolver) Factorize(dense []float64) error {
	if len(dense) != s.n*s.n {
		panic("linalg: dimension mismatch in Factorize")
	}
	copy(s.store, dense)
	s.a = blas64.Symmetric{N: s.n, Stride: s.n, Data: s.store, Uplo: blas.Lower}

	work := make([]float64, 1)
	lapack64.Sytrf(s.a, s.ipiv, work, -1)
	lwork := int(work[0])
	if lwork < 1 {
		lwork = s.n
	}
	work = make([]float64, lwork)
	ok := lapack64.Sytrf(s.a, s.ipiv, work, lwork)

	s.factored = true
	s.singular = !ok
	if !ok {
		return errors.New("linalg: Bunch-Kaufman factorization reports a singular matrix")
	}
	return nil
}

// Singular reports whether the most recent Factorize detected a singular
// (non-invertible) matrix.
func (s *SymmetricIndefiniteSolver) Singular() bool { return s.singular }

// Solve solves A x = rhs using the most recent factorization. rhs is left
// untouched; the solution is returned in a fresh slice.
func (s *SymmetricIndefiniteSolver) Solve(rhs []float64) ([]float64, error) {
	if !s.factored {
		return nil, errors.New("linalg: Solve called before Factorize")
	}
	if len(rhs) != s.n {
		panic("linalg: dimension mismatch in Solve")
	}
	x := make([]float64, s.n)
	copy(x, rhs)
	b := blas64.General{Rows: s.n, Cols: 1, Stride: 1, Data: x}
	lapack64.Sytrs(s.a, b, s.ipiv)
	return x, nil
}

// Inertia derives the (#positive, #negative, #zero) eigenvalue-sign triple
// from the block-diagonal D factor Dsytrf leaves in the factorized storage:
// 1×1 pivots (ipiv[k] >= 0) contribute their own sign; 2×2 pivots (ipiv[k] ==
// ipiv[k+1] < 0) contribute two eigenvalues whose signs are read from the
// determinant and trace of the 2×2 block.
func (s *SymmetricIndefiniteSolver) Inertia() Inertia {
	if !s.factored {
		panic("linalg: Inertia called before Factorize")
	}
	var in Inertia
	n := s.n
	k := 0
	for k < n {
		if s.ipiv[k] >= 0 {
			d := s.store[k*n+k]
			switch {
			case d > 0:
				in.Positive++
			case d < 0:
				in.Negative++
			default:
				in.Zero++
			}
			k++
			continue
		}
		// 2x2 block spans k, k+1
		a := s.store[k*n+k]
		b := s.store[(k+1)*n+k]
		d := s.store[(k+1)*n+(k+1)]
		det := a*d - b*b
		trace := a + d
		switch {
		case det < 0:
			in.Positive++
			in.Negative++
		case det > 0 && trace > 0:
			in.Positive += 2
		case det > 0 && trace < 0:
			in.Negative += 2
		default:
			in.Zero += 2
		}
		k += 2
	}
	return in
}

// Rank returns the number of nonzero pivots, used alongside Singular to
// classify a near-singular KKT matrix during regularization.
func (s *SymmetricIndefiniteSolver) Rank() int {
	in := s.Inertia()
	return in.Positive + in.Negative
}
