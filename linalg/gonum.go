// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package linalg

import "gonum.org/v1/gonum/mat"

// Gonum returns a float64 copy of m as a gonum matrix.
func (m *Matrix[T]) Gonum() *mat.Dense {
	data := make([]float64, len(m.data))
	for i, v := range m.data {
		data[i] = float64(v)
	}
	return mat.NewDense(m.rows, m.cols, data)
}

// FromGonum copies any gonum matrix into a Matrix[T].
func FromGonum[T Float](g mat.Matrix) *Matrix[T] {
	rows, cols := g.Dims()
	m := New[T](rows, cols, nil)
	for i := 0; i < rows; i++ {
		row := m.Row(i)
		for j := range row {
			row[j] = T(g.At(i, j))
		}
	}
	return m
}
