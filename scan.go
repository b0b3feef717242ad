// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package linreg

import (
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/arvados/linreg/linalg"
)

// Variant is one unit of work in a scan.
type Variant[T Float] struct {
	// Index is the variant's position in the input.
	Index int
	Label string
	// Keep lists the sample rows with a called genotype, in
	// increasing order, if some samples are missing. Genotypes
	// then has len(Keep) entries. Nil means all samples.
	Keep      []int
	Genotypes GenotypeVector[T]
}

// VariantSource yields variants in input order, and returns io.EOF
// after the last one.
type VariantSource[T Float] interface {
	Next() (Variant[T], error)
}

// Row is the result of testing one variant.
type Row[T Float] struct {
	Variant Variant[T]
	Result  Result[T]
	// Err is non-nil if the variant could not be tested (e.g.,
	// ErrDegenerateDesign); Result is all NaN in that case.
	Err error
}

// Sink receives rows in input order.
type Sink[T Float] interface {
	WriteRow(Row[T]) error
}

// Tester computes the association result for one variant.
type Tester[T Float] func(Variant[T]) (Result[T], error)

// ScanStats summarizes a completed scan.
type ScanStats struct {
	Variants   int
	Tested     int
	Degenerate int
	Singular   int
	Other      int
}

// Scanner tests variants concurrently and emits results in input
// order.
type Scanner[T Float] struct {
	// Threads is the maximum number of variants tested at once.
	// Zero means GOMAXPROCS.
	Threads int
	Test    Tester[T]
}

// Run tests every variant from src and writes one row per variant
// to sink, in input order. Variants that fail with a data-dependent
// error are written as NaN rows and counted. A read error, a sink
// error, or a caller error (e.g., ErrInputLengthMismatch) stops the
// scan and is returned after in-flight variants finish.
func (s *Scanner[T]) Run(src VariantSource[T], sink Sink[T]) (ScanStats, error) {
	threads := s.Threads
	if threads < 1 {
		threads = runtime.GOMAXPROCS(0)
	}
	thr := throttle{Max: threads}
	pending := make(chan chan Row[T], threads*2)
	go func() {
		defer close(pending)
		for thr.Err() == nil {
			v, err := src.Next()
			if err == io.EOF {
				return
			} else if err != nil {
				thr.Report(fmt.Errorf("reading variant: %w", err))
				return
			}
			done := make(chan Row[T], 1)
			pending <- done
			err = thr.Go(func() error {
				row := Row[T]{Variant: v}
				row.Result, row.Err = s.Test(v)
				if row.Err != nil {
					row.Result = NaNResult[T]()
				}
				done <- row
				if fatal(row.Err) {
					return fmt.Errorf("variant %d (%s): %w", v.Index, v.Label, row.Err)
				}
				return nil
			})
			if err != nil {
				// an earlier variant failed; unblock the emitter
				done <- Row[T]{Variant: v, Result: NaNResult[T](), Err: err}
				return
			}
		}
	}()

	var stats ScanStats
	for done := range pending {
		row := <-done
		if thr.Err() != nil {
			// keep draining so no sender blocks
			continue
		}
		if fatal(row.Err) {
			thr.Report(fmt.Errorf("variant %d (%s): %w", row.Variant.Index, row.Variant.Label, row.Err))
			continue
		}
		stats.Variants++
		switch {
		case row.Err == nil:
			stats.Tested++
		case errors.Is(row.Err, ErrDegenerateDesign):
			stats.Degenerate++
		case errors.Is(row.Err, ErrSingularMatrix):
			stats.Singular++
		default:
			stats.Other++
		}
		if err := sink.WriteRow(row); err != nil {
			thr.Report(fmt.Errorf("writing results: %w", err))
		}
	}
	return stats, thr.Wait()
}

// LinearTester returns a Tester that regresses y on each variant's
// genotypes, adjusting for covariates if not nil. covariates must
// have one row per sample and start with an intercept column.
func LinearTester[T Float](y []T, covariates *linalg.Matrix[T]) Tester[T] {
	return func(v Variant[T]) (Result[T], error) {
		vy, cov := y, covariates
		if cov != nil {
			if rows, _ := cov.Dims(); rows != len(y) {
				return Result[T]{}, fmt.Errorf("covariates have %d rows, phenotype length %d: %w", rows, len(y), ErrInputLengthMismatch)
			}
		}
		if err := checkKeep(v.Keep, len(y)); err != nil {
			return Result[T]{}, err
		}
		if v.Keep != nil {
			vy = subset(y, v.Keep)
			if cov != nil {
				cov = cov.SelectRows(v.Keep)
			}
		}
		s, err := Accumulate(v.Genotypes, vy)
		if err != nil {
			return Result[T]{}, err
		}
		if cov == nil {
			return SimpleTTestStats(s, v.Genotypes, vy)
		}
		if s.Monomorphic {
			return Result[T]{}, fmt.Errorf("predictor has zero variance: %w", ErrDegenerateDesign)
		}
		design, err := cov.AppendCol(ToDense(v.Genotypes))
		if err != nil {
			return Result[T]{}, err
		}
		fit, err := MultipleTTest(design, vy)
		if err != nil {
			return Result[T]{}, err
		}
		return fit.Coefficients[len(fit.Coefficients)-1], nil
	}
}

// checkKeep returns ErrInputLengthMismatch if keep refers to a sample
// outside [0, n).
func checkKeep(keep []int, n int) error {
	for _, i := range keep {
		if i < 0 || i >= n {
			return fmt.Errorf("sample index %d out of range for %d samples: %w", i, n, ErrInputLengthMismatch)
		}
	}
	return nil
}
