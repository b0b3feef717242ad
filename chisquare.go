// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package linreg

import (
	"errors"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

var chisquared = distuv.ChiSquared{K: 1, Src: rand.NewSource(rand.Uint64())}

var errChi2Filtered = errors.New("carrier χ² p-value above threshold, not tested")

// carrierPvalue tests whether carriers (samples with nonzero dosage)
// are distributed between cases and controls in the same proportion
// as the whole sample set.
func carrierPvalue(carrier, cases []bool) float64 {
	var nCarriers, nCarrierCases, nCases float64
	for i, isCase := range cases {
		if isCase {
			nCases++
		}
		if carrier[i] {
			nCarriers++
			if isCase {
				nCarrierCases++
			}
		}
	}
	n := float64(len(cases))
	if nCases == 0 || nCases == n || nCarriers == 0 || nCarriers == n {
		return 1
	}
	// 2x2 table: carrier/non-carrier x case/control
	observed := [4]float64{
		nCarrierCases,
		nCarriers - nCarrierCases,
		nCases - nCarrierCases,
		(n - nCases) - (nCarriers - nCarrierCases),
	}
	expected := [4]float64{
		nCarriers * nCases / n,
		nCarriers * (n - nCases) / n,
		(n - nCarriers) * nCases / n,
		(n - nCarriers) * (n - nCases) / n,
	}
	var x2 float64
	for k := range observed {
		d := observed[k] - expected[k]
		x2 += d * d / expected[k]
	}
	return 1 - chisquared.CDF(x2)
}
