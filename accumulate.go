// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package linreg

import "fmt"

// SufficientStats holds the raw sums needed for a single-predictor
// regression of y on x.
type SufficientStats[T Float] struct {
	N   int
	Sx  T
	Sy  T
	Sxx T
	Sxy T

	// Monomorphic is true if every x value is identical.
	Monomorphic bool
}

// Accumulate computes the sufficient statistics of x and y in one
// pass over x.
//
// If x stores every position, all four sums are updated together.
// Otherwise only stored entries contribute to Sx, Sxx and Sxy, and
// Sy comes from a separate pass over y. The two paths sum in
// different orders, so their results agree to within rounding but
// not necessarily bit for bit.
func Accumulate[T Float](x GenotypeVector[T], y []T) (SufficientStats[T], error) {
	if x.Len() != len(y) {
		return SufficientStats[T]{}, fmt.Errorf("genotype length %d, phenotype length %d: %w", x.Len(), len(y), ErrInputLengthMismatch)
	}
	s := SufficientStats[T]{N: len(y), Monomorphic: true}
	first, seen := T(0), false
	observe := func(v T) {
		if !seen {
			first, seen = v, true
		} else if v != first {
			s.Monomorphic = false
		}
	}
	if x.StoresAll() {
		x.EachAll(func(i int, v T) {
			observe(v)
			s.Sx += v
			s.Sy += y[i]
			s.Sxx += v * v
			s.Sxy += v * y[i]
		})
		return s, nil
	}
	// some positions are implicit zeros
	observe(0)
	x.EachNonzero(func(i int, v T) {
		observe(v)
		s.Sx += v
		s.Sxx += v * v
		s.Sxy += v * y[i]
	})
	for _, v := range y {
		s.Sy += v
	}
	return s, nil
}
