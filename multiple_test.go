// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package linreg

import (
	"errors"

	"github.com/arvados/linreg/linalg"
	"gopkg.in/check.v1"
)

type multipleSuite struct{}

var _ = check.Suite(&multipleSuite{})

func fixtureDesign[T Float]() (*linalg.Matrix[T], []T) {
	X, err := linalg.FromColumns(ones[T](len(fixtureY)), convert[T](fixtureP1), convert[T](fixtureP2))
	if err != nil {
		panic(err)
	}
	return X, convert[T](fixtureY)
}

func (s *multipleSuite) TestFixture(c *check.C) {
	X, y := fixtureDesign[float64]()
	fit, err := MultipleTTest(X, y)
	c.Assert(err, check.IsNil)
	c.Check(fit.Dof, check.Equals, 14)
	c.Assert(fit.Coefficients, check.HasLen, 2)
	all := append([]Result[float64]{fit.Intercept}, fit.Coefficients...)
	for j, want := range []Result[float64]{
		{-153.51169396028854, 100.87985253613483, -1.5217279774006525, 0.15033962314829252},
		{1.238723269498223, 0.3945902620210322, 3.139264672051632, 0.007244581843541017},
		{12.08235332329059, 3.9322914100118043, 3.072598661566214, 0.008270385863306777},
	} {
		checkNear(c, all[j].Estimate, want.Estimate, 1e-6, j)
		checkNear(c, all[j].StdErr, want.StdErr, 1e-6, j)
		checkNear(c, all[j].TStat, want.TStat, 1e-6, j)
		checkNear(c, all[j].P, want.P, 1e-6, j)
		checkNear(c, fit.Beta[j], want.Estimate, 1e-6, j)
	}
	checkNear(c, fit.SSE, 423.37409032616597, 1e-6)
	checkNear(c, fit.MSE, 24.90435825448035, 1e-6)
	fitted, err := fit.Predict(47, 31)
	c.Assert(err, check.IsNil)
	checkNear(c, fitted, 279.26125272813624, 1e-6)
	_, err = fit.Predict(47)
	c.Check(errors.Is(err, ErrInputLengthMismatch), check.Equals, true)
}

func (s *multipleSuite) TestSinglePrecision(c *check.C) {
	X, y := fixtureDesign[float32]()
	fit, err := MultipleTTest(X, y)
	c.Assert(err, check.IsNil)
	c.Check(fit.Dof, check.Equals, 14)
	fitted, err := fit.Predict(47, 31)
	c.Assert(err, check.IsNil)
	checkNear(c, float64(fitted), 279.26125272813624, 0.005)
	checkNear(c, float64(fit.Coefficients[0].Estimate), 1.238723269498223, 0.05)
	checkNear(c, float64(fit.Coefficients[1].Estimate), 12.08235332329059, 0.05)
}

func (s *multipleSuite) TestDuplicateColumn(c *check.C) {
	a := []float64{1.5, 2.25, 3.0, 4.75, 5.5, 6.0, 7.25, 8.0}
	y := []float64{1, 3, 2, 5, 4, 6, 8, 7}
	X, err := linalg.FromColumns(ones[float64](len(a)), a, a)
	c.Assert(err, check.IsNil)
	_, err = MultipleTTest(X, y)
	c.Check(errors.Is(err, ErrSingularMatrix), check.Equals, true, check.Commentf("%v", err))

	X32, err := linalg.FromColumns(ones[float32](len(a)), convert[float32](a), convert[float32](a))
	c.Assert(err, check.IsNil)
	_, err = MultipleTTest(X32, convert[float32](y))
	c.Check(errors.Is(err, ErrSingularMatrix), check.Equals, true, check.Commentf("%v", err))
}

func (s *multipleSuite) TestTooFewSamples(c *check.C) {
	X, err := linalg.FromColumns([]float64{1, 1, 1}, []float64{1, 2, 3}, []float64{3, 1, 2})
	c.Assert(err, check.IsNil)
	_, err = MultipleTTest(X, []float64{1, 2, 3})
	c.Check(errors.Is(err, ErrDegenerateDesign), check.Equals, true)
}

func (s *multipleSuite) TestNoIntercept(c *check.C) {
	X, err := linalg.FromColumns([]float64{1, 1, 2, 1}, []float64{1, 2, 3, 4})
	c.Assert(err, check.IsNil)
	_, err = MultipleTTest(X, []float64{1, 2, 3, 4})
	c.Check(errors.Is(err, ErrNoIntercept), check.Equals, true)
}

func (s *multipleSuite) TestLengthMismatch(c *check.C) {
	X, _ := fixtureDesign[float64]()
	_, err := MultipleTTest(X, fixtureY[:10])
	c.Check(errors.Is(err, ErrInputLengthMismatch), check.Equals, true)
}

func (s *multipleSuite) TestMatchesSimple(c *check.C) {
	X, err := linalg.FromColumns(ones[float64](len(fixtureY)), fixtureP1)
	c.Assert(err, check.IsNil)
	fit, err := MultipleTTest(X, fixtureY)
	c.Assert(err, check.IsNil)
	simple, err := SimpleTTest[float64](Dense[float64](fixtureP1), fixtureY)
	c.Assert(err, check.IsNil)
	checkNear(c, fit.Coefficients[0].Estimate, simple.Estimate, 1e-9)
	checkNear(c, fit.Coefficients[0].StdErr, simple.StdErr, 1e-9)
	checkNear(c, fit.Coefficients[0].P, simple.P, 1e-6)
}
