// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package linreg

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// SurvivalT returns P(X > x) where X has a Student's t distribution
// with dof degrees of freedom.
func SurvivalT(dof, x float64) float64 {
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dof}.Survival(x)
}

// TwoSidedP returns the two-sided p-value of t statistic t.
func TwoSidedP(dof, t float64) float64 {
	return math.Min(1, 2*SurvivalT(dof, math.Abs(t)))
}
