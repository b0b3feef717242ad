// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package linreg

import (
	"fmt"

	"github.com/arvados/linreg/linalg"
	"github.com/james-bowman/nlp"
	log "github.com/sirupsen/logrus"
)

// genotypePCA returns the top k principal components of a samples x
// variants dosage matrix, one row per sample and one column per
// component.
func genotypePCA(dosage *linalg.Matrix[float64], k int) (*linalg.Matrix[float64], error) {
	rows, cols := dosage.Dims()
	if k < 1 || k > rows || k > cols {
		return nil, fmt.Errorf("cannot compute %d principal components from %d samples x %d variants", k, rows, cols)
	}
	log.Printf("creating matrix: %d rows, %d cols", rows, cols)
	mtx := dosage.Gonum().T()

	log.Print("fitting")
	transformer := nlp.NewPCA(k)
	transformer.Fit(mtx)
	log.Printf("transforming")
	pcs, err := transformer.Transform(mtx)
	if err != nil {
		return nil, err
	}
	return linalg.FromGonum[float64](pcs.T()), nil
}
