// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package linalg provides the small set of dense matrix primitives
// needed by the regression engine: products, transposes, and LU
// factorization with partial pivoting.
//
// Every primitive is generic over the element type, so the working
// precision (float32 or float64) is chosen by the caller.
package linalg

import (
	"errors"
	"fmt"
	"unsafe"
)

// Float is the set of element types supported by this package.
type Float interface {
	~float32 | ~float64
}

var (
	// ErrShape is returned when operand dimensions are
	// incompatible.
	ErrShape = errors.New("linalg: dimension mismatch")

	// ErrSingular is returned when a matrix cannot be factorized
	// because a pivot is zero (to within working precision).
	ErrSingular = errors.New("linalg: matrix is singular")
)

// Epsilon returns the machine epsilon of T.
func Epsilon[T Float]() T {
	var z T
	if unsafe.Sizeof(z) == 4 {
		return T(0x1p-23)
	}
	return T(0x1p-52)
}

// Matrix is a dense, row-major matrix.
type Matrix[T Float] struct {
	rows, cols int
	data       []T
}

// New returns a rows x cols matrix backed by data. If data is nil, a
// zero matrix is allocated. New panics if data has the wrong length.
func New[T Float](rows, cols int, data []T) *Matrix[T] {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("linalg: negative dimension %dx%d", rows, cols))
	}
	if data == nil {
		data = make([]T, rows*cols)
	} else if len(data) != rows*cols {
		panic(fmt.Sprintf("linalg: len(data) %d != %d x %d", len(data), rows, cols))
	}
	return &Matrix[T]{rows: rows, cols: cols, data: data}
}

// FromColumns returns a matrix whose j'th column is a copy of
// cols[j]. All columns must have the same length.
func FromColumns[T Float](cols ...[]T) (*Matrix[T], error) {
	if len(cols) == 0 {
		return New[T](0, 0, nil), nil
	}
	rows := len(cols[0])
	m := New[T](rows, len(cols), nil)
	for j, col := range cols {
		if len(col) != rows {
			return nil, fmt.Errorf("column %d has length %d, expected %d: %w", j, len(col), rows, ErrShape)
		}
		for i, v := range col {
			m.data[i*m.cols+j] = v
		}
	}
	return m, nil
}

// Identity returns the n x n identity matrix.
func Identity[T Float](n int) *Matrix[T] {
	m := New[T](n, n, nil)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}
	return m
}

func (m *Matrix[T]) Dims() (rows, cols int) { return m.rows, m.cols }

func (m *Matrix[T]) At(i, j int) T { return m.data[i*m.cols+j] }

func (m *Matrix[T]) Set(i, j int, v T) { m.data[i*m.cols+j] = v }

// Row returns row i. The returned slice shares storage with m.
func (m *Matrix[T]) Row(i int) []T { return m.data[i*m.cols : (i+1)*m.cols] }

// Col returns a copy of column j.
func (m *Matrix[T]) Col(j int) []T {
	col := make([]T, m.rows)
	for i := range col {
		col[i] = m.data[i*m.cols+j]
	}
	return col
}

// Clone returns a deep copy of m.
func (m *Matrix[T]) Clone() *Matrix[T] {
	return &Matrix[T]{rows: m.rows, cols: m.cols, data: append([]T(nil), m.data...)}
}

// SelectRows returns a new matrix containing the given rows of m, in
// the given order.
func (m *Matrix[T]) SelectRows(rows []int) *Matrix[T] {
	out := New[T](len(rows), m.cols, nil)
	for i, r := range rows {
		copy(out.Row(i), m.Row(r))
	}
	return out
}

// AppendCol returns a new matrix with col added as the last column.
func (m *Matrix[T]) AppendCol(col []T) (*Matrix[T], error) {
	if len(col) != m.rows {
		return nil, fmt.Errorf("appending column of length %d to %d-row matrix: %w", len(col), m.rows, ErrShape)
	}
	out := New[T](m.rows, m.cols+1, nil)
	for i := 0; i < m.rows; i++ {
		row := out.Row(i)
		copy(row, m.Row(i))
		row[m.cols] = col[i]
	}
	return out, nil
}

// Scale returns s*m.
func (m *Matrix[T]) Scale(s T) *Matrix[T] {
	out := m.Clone()
	for i := range out.data {
		out.data[i] *= s
	}
	return out
}

// MaxAbs returns the largest absolute value of any element of m.
func (m *Matrix[T]) MaxAbs() T {
	var max T
	for _, v := range m.data {
		if v < 0 {
			v = -v
		}
		if v > max {
			max = v
		}
	}
	return max
}

// Transpose returns mᵗ.
func Transpose[T Float](m *Matrix[T]) *Matrix[T] {
	out := New[T](m.cols, m.rows, nil)
	for i := 0; i < m.rows; i++ {
		for j, v := range m.Row(i) {
			out.data[j*out.cols+i] = v
		}
	}
	return out
}

// Mul returns the matrix product a·b.
func Mul[T Float](a, b *Matrix[T]) (*Matrix[T], error) {
	if a.cols != b.rows {
		return nil, fmt.Errorf("multiplying %dx%d by %dx%d: %w", a.rows, a.cols, b.rows, b.cols, ErrShape)
	}
	out := New[T](a.rows, b.cols, nil)
	for i := 0; i < a.rows; i++ {
		orow := out.Row(i)
		for k, aik := range a.Row(i) {
			if aik == 0 {
				continue
			}
			for j, bkj := range b.Row(k) {
				orow[j] += aik * bkj
			}
		}
	}
	return out, nil
}

// MulTransA returns aᵗ·b without materializing aᵗ.
func MulTransA[T Float](a, b *Matrix[T]) (*Matrix[T], error) {
	if a.rows != b.rows {
		return nil, fmt.Errorf("multiplying (%dx%d)ᵗ by %dx%d: %w", a.rows, a.cols, b.rows, b.cols, ErrShape)
	}
	out := New[T](a.cols, b.cols, nil)
	for k := 0; k < a.rows; k++ {
		brow := b.Row(k)
		for i, aki := range a.Row(k) {
			if aki == 0 {
				continue
			}
			orow := out.Row(i)
			for j, bkj := range brow {
				orow[j] += aki * bkj
			}
		}
	}
	return out, nil
}

// MulVec returns the matrix-vector product a·x.
func MulVec[T Float](a *Matrix[T], x []T) ([]T, error) {
	if a.cols != len(x) {
		return nil, fmt.Errorf("multiplying %dx%d by vector of length %d: %w", a.rows, a.cols, len(x), ErrShape)
	}
	out := make([]T, a.rows)
	for i := range out {
		var sum T
		for j, v := range a.Row(i) {
			sum += v * x[j]
		}
		out[i] = sum
	}
	return out, nil
}

// MulTransVec returns aᵗ·x without materializing aᵗ.
func MulTransVec[T Float](a *Matrix[T], x []T) ([]T, error) {
	if a.rows != len(x) {
		return nil, fmt.Errorf("multiplying (%dx%d)ᵗ by vector of length %d: %w", a.rows, a.cols, len(x), ErrShape)
	}
	out := make([]T, a.cols)
	for i, xi := range x {
		for j, v := range a.Row(i) {
			out[j] += v * xi
		}
	}
	return out, nil
}
