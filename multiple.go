// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package linreg

import (
	"fmt"

	"github.com/arvados/linreg/linalg"
)

// MultipleResult is the outcome of a covariate-adjusted regression.
type MultipleResult[T Float] struct {
	// Coefficients has one entry per design column after the
	// intercept, in column order.
	Coefficients []Result[T]
	Intercept    Result[T]
	// Beta holds all estimates, intercept first.
	Beta []T
	SSE  T
	// MSE is SSE/n.
	MSE T
	Dof int
}

// Predict returns the fitted value at the given predictor values
// (one per non-intercept column).
func (r MultipleResult[T]) Predict(x ...T) (T, error) {
	if len(x) != len(r.Beta)-1 {
		return 0, fmt.Errorf("%d predictor values for %d coefficients: %w", len(x), len(r.Beta)-1, ErrInputLengthMismatch)
	}
	y := r.Beta[0]
	for j, v := range x {
		y += r.Beta[j+1] * v
	}
	return y, nil
}

// MultipleTTest regresses y on the design matrix X, whose column 0
// must be the constant 1, and tests each coefficient against zero.
func MultipleTTest[T Float](X *linalg.Matrix[T], y []T) (MultipleResult[T], error) {
	n, cols := X.Dims()
	if n != len(y) {
		return MultipleResult[T]{}, fmt.Errorf("design has %d rows, phenotype length %d: %w", n, len(y), ErrInputLengthMismatch)
	}
	if cols == 0 {
		return MultipleResult[T]{}, ErrNoIntercept
	}
	for i := 0; i < n; i++ {
		if X.At(i, 0) != 1 {
			return MultipleResult[T]{}, fmt.Errorf("row %d: %w", i, ErrNoIntercept)
		}
	}
	dof := n - cols
	if dof <= 0 {
		return MultipleResult[T]{}, fmt.Errorf("n=%d with %d design columns leaves %d degrees of freedom: %w", n, cols, dof, ErrDegenerateDesign)
	}

	gram, err := linalg.MulTransA(X, X)
	if err != nil {
		return MultipleResult[T]{}, err
	}
	v, err := linalg.Invert(gram)
	if err != nil {
		return MultipleResult[T]{}, fmt.Errorf("inverting XᵗX: %w", err)
	}
	xty, err := linalg.MulTransVec(X, y)
	if err != nil {
		return MultipleResult[T]{}, err
	}
	beta, err := linalg.MulVec(v, xty)
	if err != nil {
		return MultipleResult[T]{}, err
	}
	fitted, err := linalg.MulVec(X, beta)
	if err != nil {
		return MultipleResult[T]{}, err
	}
	var sse T
	for i, yi := range y {
		r := yi - fitted[i]
		sse += r * r
	}
	cov := v.Scale(sse / T(dof))

	ret := MultipleResult[T]{
		Beta: beta,
		SSE:  sse,
		MSE:  sse / T(n),
		Dof:  dof,
	}
	for j := range beta {
		se := sqrt(cov.At(j, j))
		t := beta[j] / se
		res := Result[T]{
			Estimate: beta[j],
			StdErr:   se,
			TStat:    t,
			P:        T(TwoSidedP(float64(dof), float64(t))),
		}
		if j == 0 {
			ret.Intercept = res
		} else {
			ret.Coefficients = append(ret.Coefficients, res)
		}
	}
	return ret, nil
}
