// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package linreg

import (
	"fmt"
	"math"
)

// Result is the outcome of testing one regression coefficient
// against zero.
type Result[T Float] struct {
	Estimate T
	StdErr   T
	TStat    T
	P        T
}

// NaNResult is reported for variants that could not be tested.
func NaNResult[T Float]() Result[T] {
	nan := T(math.NaN())
	return Result[T]{nan, nan, nan, nan}
}

// Line is a fitted line y = Slope·x + Intercept.
type Line[T Float] struct {
	Slope     T
	Intercept T
}

func (l Line[T]) Eval(x T) T { return l.Slope*x + l.Intercept }

// Line returns the least squares line through the accumulated
// points.
func (s SufficientStats[T]) Line() (Line[T], error) {
	n := T(s.N)
	denom := n*s.Sxx - s.Sx*s.Sx
	if s.N == 0 || s.Monomorphic || denom == 0 {
		return Line[T]{}, fmt.Errorf("predictor has zero variance: %w", ErrDegenerateDesign)
	}
	m := (n*s.Sxy - s.Sx*s.Sy) / denom
	return Line[T]{Slope: m, Intercept: (s.Sy - m*s.Sx) / n}, nil
}

// SimpleTTest regresses y on x and tests the slope against zero.
func SimpleTTest[T Float](x GenotypeVector[T], y []T) (Result[T], error) {
	s, err := Accumulate(x, y)
	if err != nil {
		return Result[T]{}, err
	}
	return SimpleTTestStats(s, x, y)
}

// SimpleTTestStats is SimpleTTest with the sums already accumulated.
// x and y are needed again for the residual pass.
//
// NaN and Inf results from otherwise valid input are returned as is.
func SimpleTTestStats[T Float](s SufficientStats[T], x GenotypeVector[T], y []T) (Result[T], error) {
	if x.Len() != s.N || len(y) != s.N {
		return Result[T]{}, fmt.Errorf("stats for n=%d, genotype length %d, phenotype length %d: %w", s.N, x.Len(), len(y), ErrInputLengthMismatch)
	}
	dof := s.N - 2
	if dof <= 0 {
		return Result[T]{}, fmt.Errorf("n=%d leaves %d degrees of freedom: %w", s.N, dof, ErrDegenerateDesign)
	}
	line, err := s.Line()
	if err != nil {
		return Result[T]{}, err
	}
	xmean := s.Sx / T(s.N)
	var sse, ssx T
	x.EachAll(func(i int, v T) {
		r := y[i] - line.Eval(v)
		sse += r * r
		d := v - xmean
		ssx += d * d
	})
	se := sqrt(sse/T(dof)) / sqrt(ssx)
	t := line.Slope / se
	return Result[T]{
		Estimate: line.Slope,
		StdErr:   se,
		TStat:    t,
		P:        T(TwoSidedP(float64(dof), float64(t))),
	}, nil
}

func sqrt[T Float](v T) T { return T(math.Sqrt(float64(v))) }
