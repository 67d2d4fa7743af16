// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linalg

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCOOToCSCRoundTrip(t *testing.T) {
	coo := NewCOOSymmetric(3)
	coo.Add(0, 0, 2)
	coo.Add(1, 0, 1)
	coo.Add(1, 1, 3)
	coo.Add(2, 1, 1) // row < col normalization should flip to (1,2)... no, row=2 col=1 already row>col
	coo.Add(2, 2, 4)
	// duplicate entry accumulates
	coo.Add(1, 1, 1)

	csc := coo.ToCSC()
	back := csc.ToCOO()
	csc2 := back.ToCSC()

	if len(csc.Value) != len(csc2.Value) {
		t.Fatalf("round-trip changed entry count: %d vs %d", len(csc.Value), len(csc2.Value))
	}
	for i := range csc.Value {
		if csc.RowIdx[i] != csc2.RowIdx[i] || !almostEqual(csc.Value[i], csc2.Value[i]) {
			t.Fatalf("round-trip mismatch at %d", i)
		}
	}

	dense := csc.ToDense()
	// (1,1) entry should be 3+1=4 after duplicate merge
	if !almostEqual(dense[1*3+1], 4) {
		t.Fatalf("duplicate merge wrong: got %f", dense[1*3+1])
	}
}

func TestQuadraticProductSymmetric(t *testing.T) {
	coo := NewCOOSymmetric(2)
	coo.Add(0, 0, 2)
	coo.Add(1, 0, 0.5)
	coo.Add(1, 1, 3)
	csc := coo.ToCSC()

	x := []float64{1, 2}
	y := []float64{3, -1}

	a := csc.QuadraticProduct(x, y)
	b := csc.QuadraticProduct(y, x)
	if !almostEqual(a, b) {
		t.Fatalf("quadratic product not symmetric: %f vs %f", a, b)
	}
}

func TestSparseVectorCompact(t *testing.T) {
	v := NewSparseVector(4)
	v.Set(2, 1)
	v.Set(0, 2)
	v.Set(2, 3)
	v.Compact()
	if len(v.Index) != 2 {
		t.Fatalf("expected 2 entries after compaction, got %d", len(v.Index))
	}
	if v.Index[0] != 0 || v.Index[1] != 2 {
		t.Fatalf("unexpected index order: %v", v.Index)
	}
	if !almostEqual(v.Value[1], 4) {
		t.Fatalf("expected merged value 4, got %f", v.Value[1])
	}
}
