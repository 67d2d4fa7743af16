// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package linalg provides the sparse linear-algebra primitives shared by the
// iterate cache, the subproblem models and the symmetric-indefinite backend:
// sparse vectors keyed by index, COO/CSC symmetric matrices, and the
// quadratic-form evaluator used by the predicted-reduction model.
package linalg

import "sort"

// SparseVector is a sparse vector keyed by index, used for objective
// gradients and Jacobian rows. Entries are not required to be sorted by the
// caller; Compact sorts and merges duplicates in place.
type SparseVector struct {
	Index []int
	Value []float64
}

// NewSparseVector allocates a SparseVector with the given capacity hint.
func NewSparseVector(capacity int) *SparseVector {
	return &SparseVector{
		Index: make([]int, 0, capacity),
		Value: make([]float64, 0, capacity),
	}
}

// Reset truncates the vector to zero length without releasing capacity.
func (v *SparseVector) Reset() {
	v.Index = v.Index[:0]
	v.Value = v.Value[:0]
}

// Set appends an (index, value) pair.
func (v *SparseVector) Set(index int, value float64) {
	v.Index = append(v.Index, index)
	v.Value = append(v.Value, value)
}

// Len returns the number of nonzero entries.
func (v *SparseVector) Len() int { return len(v.Index) }

// Compact sorts entries by index and merges duplicate indices by summation.
func (v *SparseVector) Compact() {
	n := len(v.Index)
	if n <= 1 {
		return
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return v.Index[order[a]] < v.Index[order[b]] })
	idx := make([]int, 0, n)
	val := make([]float64, 0, n)
	for _, o := range order {
		i, x := v.Index[o], v.Value[o]
		if k := len(idx); k > 0 && idx[k-1] == i {
			val[k-1] += x
		} else {
			idx = append(idx, i)
			val = append(val, x)
		}
	}
	v.Index, v.Value = idx, val
}

// Dot computes the inner product of the sparse vector against a dense one.
func (v *SparseVector) Dot(dense []float64) float64 {
	sum := 0.0
	for k, i := range v.Index {
		sum += v.Value[k] * dense[i]
	}
	return sum
}

// ScatterTo adds the sparse vector, scaled by alpha, into a dense vector.
func (v *SparseVector) ScatterTo(dense []float64, alpha float64) {
	for k, i := range v.Index {
		dense[i] += alpha * v.Value[k]
	}
}

// ToDense materializes the sparse vector into a dense vector of length n.
func (v *SparseVector) ToDense(n int) []float64 {
	d := make([]float64, n)
	v.ScatterTo(d, 1)
	return d
}

// COOEntry is a single (row, col, value) triplet of a symmetric matrix; only
// one side of the diagonal need be stored, per spec.md §6's evaluator
// contract ("only the lower (or upper) triangle must be populated").
type COOEntry struct {
	Row, Col int
	Value    float64
}

// COOSymmetric is a symmetric sparse matrix stored as coordinate triplets,
// the natural accumulation format for a Lagrangian Hessian assembled as a
// weighted sum of constraint Hessians.
type COOSymmetric struct {
	N       int
	Entries []COOEntry
}

// NewCOOSymmetric allocates an empty N×N symmetric COO matrix.
func NewCOOSymmetric(n int) *COOSymmetric {
	return &COOSymmetric{N: n}
}

// Reset truncates the entry list without releasing capacity.
func (m *COOSymmetric) Reset() { m.Entries = m.Entries[:0] }

// Add inserts an entry, normalizing row ≥ col so only the lower triangle is
// kept canonically; duplicate (row, col) pairs accumulate at conversion time.
func (m *COOSymmetric) Add(row, col int, value float64) {
	if row < col {
		row, col = col, row
	}
	m.Entries = append(m.Entries, COOEntry{row, col, value})
}

// CSCSymmetric is the compressed sparse column representation of the lower
// triangle of a symmetric matrix: column-major, column j's entries span
// [ColPtr[j], ColPtr[j+1]) of RowIdx/Value, and within a column RowIdx is
// sorted ascending.
type CSCSymmetric struct {
	N      int
	ColPtr []int
	RowIdx []int
	Value  []float64
}

// ToCSC converts the COO lower-triangle accumulation to CSC, summing
// duplicate entries. The conversion is identity modulo ordering: converting
// back with ToCOO and re-converting with ToCSC yields the same compacted
// matrix.
func (m *COOSymmetric) ToCSC() *CSCSymmetric {
	n := m.N
	colCount := make([]int, n+1)
	for _, e := range m.Entries {
		colCount[e.Col+1]++
	}
	colPtr := make([]int, n+1)
	for j := 0; j < n; j++ {
		colPtr[j+1] = colPtr[j] + colCount[j+1]
	}

	type slot struct {
		row int
		val float64
	}
	buckets := make([][]slot, n)
	for _, e := range m.Entries {
		buckets[e.Col] = append(buckets[e.Col], slot{e.Row, e.Value})
	}

	rowIdx := make([]int, 0, colPtr[n])
	value := make([]float64, 0, colPtr[n])
	colPtr = colPtr[:0]
	colPtr = append(colPtr, 0)
	for j := 0; j < n; j++ {
		col := buckets[j]
		sort.Slice(col, func(a, b int) bool { return col[a].row < col[b].row })
		k := 0
		for k < len(col) {
			r, v := col[k].row, col[k].val
			k++
			for k < len(col) && col[k].row == r {
				v += col[k].val
				k++
			}
			rowIdx = append(rowIdx, r)
			value = append(value, v)
		}
		colPtr = append(colPtr, len(rowIdx))
	}

	return &CSCSymmetric{N: n, ColPtr: colPtr, RowIdx: rowIdx, Value: value}
}

// ToCOO expands the CSC lower triangle back to coordinate form.
func (m *CSCSymmetric) ToCOO() *COOSymmetric {
	coo := NewCOOSymmetric(m.N)
	for j := 0; j < m.N; j++ {
		for k := m.ColPtr[j]; k < m.ColPtr[j+1]; k++ {
			coo.Add(m.RowIdx[k], j, m.Value[k])
		}
	}
	return coo
}

// QuadraticProduct computes xᵀMy for the symmetric matrix M (lower triangle
// stored), exploiting symmetry: off-diagonal entries contribute to both
// x[row]*M*y[col] and x[col]*M*y[row]. QuadraticProduct(x, y) ==
// QuadraticProduct(y, x) for any symmetric M.
func (m *CSCSymmetric) QuadraticProduct(x, y []float64) float64 {
	sum := 0.0
	for j := 0; j < m.N; j++ {
		for k := m.ColPtr[j]; k < m.ColPtr[j+1]; k++ {
			row, v := m.RowIdx[k], m.Value[k]
			if row == j {
				sum += v * x[j] * y[j]
			} else {
				sum += v * (x[row]*y[j] + x[j]*y[row])
			}
		}
	}
	return sum
}

// ToDense materializes the full symmetric matrix (both triangles) as a
// row-major dense slice, used by the LAPACK-backed indefinite solver and by
// the QP subproblem's Cholesky-style factorization.
func (m *CSCSymmetric) ToDense() []float64 {
	dense := make([]float64, m.N*m.N)
	for j := 0; j < m.N; j++ {
		for k := m.ColPtr[j]; k < m.ColPtr[j+1]; k++ {
			row, v := m.RowIdx[k], m.Value[k]
			dense[row*m.N+j] = v
			dense[j*m.N+row] = v
		}
	}
	return dense
}
