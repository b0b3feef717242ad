// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package linreg

import (
	"fmt"
	"io"
	"log"
	"math"

	"github.com/kshedden/statmodel/glm"
	"github.com/kshedden/statmodel/statmodel"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var glmConfig = &glm.Config{
	Family:         glm.NewFamily(glm.BinomialFamily),
	FitMethod:      "IRLS",
	ConcurrentIRLS: 1000,
	Log:            log.New(io.Discard, "", 0),
}

func normalize(a []float64) {
	mean, std := stat.MeanStdDev(a, nil)
	if std == 0 || math.IsNaN(std) {
		return
	}
	for i, x := range a {
		a[i] = (x - mean) / std
	}
}

// logisticTest is a likelihood ratio test of association between
// dosage and a case/control outcome, adjusting for covariates.
type logisticTest struct {
	outcome    []statmodel.Dtype
	covariates [][]statmodel.Dtype
	names      []string

	// log likelihood of the covariates-only model, fit once for
	// variants with no missing calls
	nullLogLike float64
	nullErr     error
}

func newLogisticTest(cases []bool, covariates [][]float64) *logisticTest {
	lt := &logisticTest{
		outcome: make([]statmodel.Dtype, len(cases)),
	}
	for i, isCase := range cases {
		if isCase {
			lt.outcome[i] = 1
		}
	}
	for j, col := range covariates {
		series := append([]statmodel.Dtype(nil), col...)
		normalize(series)
		lt.covariates = append(lt.covariates, series)
		lt.names = append(lt.names, fmt.Sprintf("covariate%d", j))
	}
	lt.nullLogLike, _, _, lt.nullErr = lt.fit(lt.outcome, lt.covariates, nil)
	return lt
}

// fit fits outcome ~ [variant +] 1 + covariates and returns the log
// likelihood, and the variant coefficient and its standard error if
// variant is not nil.
func (lt *logisticTest) fit(outcome []statmodel.Dtype, covariates [][]statmodel.Dtype, variant []statmodel.Dtype) (logLike, est, se float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			// typically "matrix singular or near-singular with condition number +Inf"
			err = fmt.Errorf("logistic regression: %v: %w", r, ErrSingularMatrix)
		}
	}()
	constants := make([]statmodel.Dtype, len(outcome))
	for i := range constants {
		constants[i] = 1
	}
	data := [][]statmodel.Dtype{outcome}
	names := []string{"outcome"}
	if variant != nil {
		data = append(data, variant)
		names = append(names, "variant")
	}
	data = append(data, constants)
	names = append(names, "constants")
	data = append(data, covariates...)
	names = append(names, lt.names...)
	dataset := statmodel.NewDataset(data, names)

	model, err := glm.NewGLM(dataset, "outcome", names[1:], glmConfig)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("logistic regression: %v: %w", err, ErrDegenerateDesign)
	}
	result := model.Fit()
	logLike = result.LogLike()
	if variant != nil {
		est = result.Params()[0]
		se = result.StdErr()[0]
	}
	return logLike, est, se, nil
}

// test returns the variant's log odds ratio, its standard error and
// Wald z, and the likelihood ratio p-value. keep lists the samples
// dosage refers to, or nil for all samples.
func (lt *logisticTest) test(dosage []float64, keep []int) (Result[float64], error) {
	outcome, covariates := lt.outcome, lt.covariates
	nullLogLike, err := lt.nullLogLike, lt.nullErr
	if err := checkKeep(keep, len(lt.outcome)); err != nil {
		return NaNResult[float64](), err
	}
	if keep != nil {
		outcome = subset(outcome, keep)
		covariates = make([][]statmodel.Dtype, len(lt.covariates))
		for j, col := range lt.covariates {
			covariates[j] = subset(col, keep)
		}
		nullLogLike, _, _, err = lt.fit(outcome, covariates, nil)
	}
	if err != nil {
		return NaNResult[float64](), err
	}
	if len(dosage) != len(outcome) {
		return NaNResult[float64](), fmt.Errorf("genotype length %d, phenotype length %d: %w", len(dosage), len(outcome), ErrInputLengthMismatch)
	}
	logLike, est, se, err := lt.fit(outcome, covariates, dosage)
	if err != nil {
		return NaNResult[float64](), err
	}
	dist := distuv.ChiSquared{K: 1}
	return Result[float64]{
		Estimate: est,
		StdErr:   se,
		TStat:    est / se,
		P:        dist.Survival(-2 * (nullLogLike - logLike)),
	}, nil
}

// BinaryTester returns a Tester for a case/control outcome. If
// maxChi2P < 1, variants whose carrier χ² p-value exceeds maxChi2P
// are skipped without fitting the logistic model.
func BinaryTester[T Float](cases []bool, covariates [][]float64, maxChi2P float64) Tester[T] {
	for j, col := range covariates {
		if len(col) != len(cases) {
			err := fmt.Errorf("covariate %d has %d values, phenotype length %d: %w", j, len(col), len(cases), ErrInputLengthMismatch)
			return func(Variant[T]) (Result[T], error) { return Result[T]{}, err }
		}
	}
	lt := newLogisticTest(cases, covariates)
	return func(v Variant[T]) (Result[T], error) {
		if err := checkKeep(v.Keep, len(cases)); err != nil {
			return Result[T]{}, err
		}
		dosage := make([]float64, v.Genotypes.Len())
		v.Genotypes.EachNonzero(func(i int, x T) { dosage[i] = float64(x) })
		vcases := cases
		if v.Keep != nil {
			vcases = subset(cases, v.Keep)
		}
		if len(vcases) != len(dosage) {
			return Result[T]{}, fmt.Errorf("genotype length %d, phenotype length %d: %w", len(dosage), len(vcases), ErrInputLengthMismatch)
		}
		if monomorphic(dosage) {
			return Result[T]{}, fmt.Errorf("predictor has zero variance: %w", ErrDegenerateDesign)
		}
		if maxChi2P < 1 {
			carrier := make([]bool, len(dosage))
			for i, x := range dosage {
				carrier[i] = x != 0
			}
			if carrierPvalue(carrier, vcases) > maxChi2P {
				return Result[T]{}, errChi2Filtered
			}
		}
		res, err := lt.test(dosage, v.Keep)
		return Result[T]{
			Estimate: T(res.Estimate),
			StdErr:   T(res.StdErr),
			TStat:    T(res.TStat),
			P:        T(res.P),
		}, err
	}
}

func monomorphic(x []float64) bool {
	for _, v := range x {
		if v != x[0] {
			return false
		}
	}
	return true
}

func subset[E any](s []E, keep []int) []E {
	out := make([]E, len(keep))
	for i, k := range keep {
		out[i] = s[k]
	}
	return out
}
