// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package linreg

import (
	"errors"

	"github.com/arvados/linreg/linalg"
)

var (
	// ErrSingularMatrix is returned when XᵗX cannot be inverted,
	// typically because covariate columns are collinear.
	ErrSingularMatrix = linalg.ErrSingular

	// ErrDegenerateDesign is returned when there are too few
	// samples for the number of parameters, or the predictor has
	// zero variance.
	ErrDegenerateDesign = errors.New("degenerate design")

	// ErrInputLengthMismatch is returned when genotype, phenotype,
	// and covariate lengths disagree. It indicates a caller bug,
	// not a property of the data.
	ErrInputLengthMismatch = errors.New("input length mismatch")

	ErrSparseIndex = errors.New("sparse indices must be strictly increasing and within [0, n)")
	ErrNoIntercept = errors.New("design matrix column 0 is not an intercept")
)

// fatal reports whether err indicates a caller bug that should stop
// a scan, rather than a per-variant data problem.
func fatal(err error) bool {
	return errors.Is(err, ErrInputLengthMismatch) ||
		errors.Is(err, ErrSparseIndex) ||
		errors.Is(err, ErrNoIntercept)
}
