// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package linalg

import "fmt"

// LU holds the LU factorization of a square matrix with partial
// pivoting: P·A = L·U, with L unit lower triangular. L and U share a
// single packed working copy.
type LU[T Float] struct {
	lu    *Matrix[T]
	pivot []int // row k of the factors came from row pivot[k] of A
}

// Decompose factorizes a. The input is not modified. ErrSingular is
// returned if a pivot is zero to within n·ε·max|a|.
func Decompose[T Float](a *Matrix[T]) (*LU[T], error) {
	if a.rows != a.cols {
		return nil, fmt.Errorf("cannot factorize %dx%d matrix: %w", a.rows, a.cols, ErrShape)
	}
	n := a.rows
	lu := a.Clone()
	tol := T(n) * Epsilon[T]() * a.MaxAbs()
	pivot := make([]int, n)
	for i := range pivot {
		pivot[i] = i
	}
	for k := 0; k < n; k++ {
		p, best := k, abs(lu.At(k, k))
		for i := k + 1; i < n; i++ {
			if v := abs(lu.At(i, k)); v > best {
				p, best = i, v
			}
		}
		// written as !(best > tol) so NaN pivots are rejected too
		if !(best > tol) {
			return nil, fmt.Errorf("pivot %d is %g: %w", k, float64(lu.At(p, k)), ErrSingular)
		}
		if p != k {
			rk, rp := lu.Row(k), lu.Row(p)
			for j := range rk {
				rk[j], rp[j] = rp[j], rk[j]
			}
			pivot[k], pivot[p] = pivot[p], pivot[k]
		}
		rk := lu.Row(k)
		for i := k + 1; i < n; i++ {
			ri := lu.Row(i)
			ri[k] /= rk[k]
			l := ri[k]
			if l == 0 {
				continue
			}
			for j := k + 1; j < n; j++ {
				ri[j] -= l * rk[j]
			}
		}
	}
	return &LU[T]{lu: lu, pivot: pivot}, nil
}

// Solve returns X such that A·X = b, where A is the factorized
// matrix.
func (f *LU[T]) Solve(b *Matrix[T]) (*Matrix[T], error) {
	n := f.lu.rows
	if b.rows != n {
		return nil, fmt.Errorf("solving %dx%d system with %dx%d right hand side: %w", n, n, b.rows, b.cols, ErrShape)
	}
	x := b.SelectRows(f.pivot)
	for j := 0; j < x.cols; j++ {
		// forward substitution, L has an implicit unit diagonal
		for i := 1; i < n; i++ {
			sum := x.At(i, j)
			for k, l := range f.lu.Row(i)[:i] {
				sum -= l * x.At(k, j)
			}
			x.Set(i, j, sum)
		}
		// back substitution
		for i := n - 1; i >= 0; i-- {
			row := f.lu.Row(i)
			sum := x.At(i, j)
			for k := i + 1; k < n; k++ {
				sum -= row[k] * x.At(k, j)
			}
			x.Set(i, j, sum/row[i])
		}
	}
	return x, nil
}

// Det returns the determinant of the factorized matrix.
func (f *LU[T]) Det() T {
	det := T(1)
	for i := 0; i < f.lu.rows; i++ {
		det *= f.lu.At(i, i)
	}
	// parity of the permutation
	seen := make([]bool, len(f.pivot))
	for i := range f.pivot {
		if seen[i] {
			continue
		}
		cycle := 0
		for j := i; !seen[j]; j = f.pivot[j] {
			seen[j] = true
			cycle++
		}
		if cycle%2 == 0 {
			det = -det
		}
	}
	return det
}

// Invert returns the inverse of a, computed by solving against the
// identity through its LU factors.
func Invert[T Float](a *Matrix[T]) (*Matrix[T], error) {
	f, err := Decompose(a)
	if err != nil {
		return nil, err
	}
	return f.Solve(Identity[T](a.rows))
}

func abs[T Float](v T) T {
	if v < 0 {
		return -v
	}
	return v
}
