// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package linreg

import (
	"fmt"

	"github.com/arvados/linreg/linalg"
)

// Float is the set of element types the engine can compute in.
type Float interface {
	linalg.Float
}

// GenotypeVector is one variant's per-sample dosages.
type GenotypeVector[T Float] interface {
	// Len returns n, the number of samples (or ploidy slots).
	Len() int
	// EachAll calls fn for every position 0..n-1 in order,
	// including implicit zeros.
	EachAll(fn func(i int, v T))
	// EachNonzero calls fn for each stored position in order.
	EachNonzero(fn func(i int, v T))
	// StoresAll reports whether every position is stored, i.e.,
	// EachNonzero visits the same positions as EachAll.
	StoresAll() bool
}

// Dense is a GenotypeVector with every position materialized.
type Dense[T Float] []T

func (d Dense[T]) Len() int { return len(d) }

func (d Dense[T]) EachAll(fn func(int, T)) {
	for i, v := range d {
		fn(i, v)
	}
}

func (d Dense[T]) EachNonzero(fn func(int, T)) { d.EachAll(fn) }

func (d Dense[T]) StoresAll() bool { return true }

// Sparse is a GenotypeVector that stores only nonzero positions.
// Positions that are not stored are exactly zero (not missing).
type Sparse[T Float] struct {
	n     int
	index []int
	value []T
}

// NewSparse returns a length-n sparse vector with value[k] at
// position index[k]. Indices must be strictly increasing and within
// [0, n).
func NewSparse[T Float](n int, index []int, value []T) (*Sparse[T], error) {
	if len(index) != len(value) {
		return nil, fmt.Errorf("%d indices, %d values: %w", len(index), len(value), ErrInputLengthMismatch)
	}
	prev := -1
	for _, i := range index {
		if i <= prev || i >= n {
			return nil, fmt.Errorf("index %d after %d, n=%d: %w", i, prev, n, ErrSparseIndex)
		}
		prev = i
	}
	return &Sparse[T]{n: n, index: index, value: value}, nil
}

// SparseFromDense returns a sparse copy of d.
func SparseFromDense[T Float](d []T) *Sparse[T] {
	s := &Sparse[T]{n: len(d)}
	for i, v := range d {
		if v != 0 {
			s.index = append(s.index, i)
			s.value = append(s.value, v)
		}
	}
	return s
}

func (s *Sparse[T]) Len() int { return s.n }

// NNZ returns the number of stored entries.
func (s *Sparse[T]) NNZ() int { return len(s.index) }

func (s *Sparse[T]) EachAll(fn func(int, T)) {
	k := 0
	for i := 0; i < s.n; i++ {
		if k < len(s.index) && s.index[k] == i {
			fn(i, s.value[k])
			k++
		} else {
			fn(i, 0)
		}
	}
}

func (s *Sparse[T]) EachNonzero(fn func(int, T)) {
	for k, i := range s.index {
		fn(i, s.value[k])
	}
}

func (s *Sparse[T]) StoresAll() bool { return len(s.index) == s.n }

// ToDense returns a dense copy of x.
func ToDense[T Float](x GenotypeVector[T]) Dense[T] {
	d := make(Dense[T], x.Len())
	x.EachNonzero(func(i int, v T) { d[i] = v })
	return d
}
