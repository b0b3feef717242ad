// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package linreg

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/arvados/linreg/linalg"
	"github.com/kshedden/gonpy"
	log "github.com/sirupsen/logrus"
)

// genotypeMatrix is a samples x variants dosage matrix. Missing
// calls are NaN.
type genotypeMatrix struct {
	rows, cols int
	data       []float64 // row-major
}

func (gm *genotypeMatrix) at(i, j int) float64 { return gm.data[i*gm.cols+j] }

// readGenotypeMatrix reads a 2-D numpy array. Integer arrays use
// negative values (typically -1) for missing calls; float arrays
// use NaN.
func readGenotypeMatrix(fnm string, stdin io.Reader) (*genotypeMatrix, error) {
	f, err := zopen(fnm, stdin)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	npy, err := gonpy.NewReader(bufio.NewReaderSize(f, 1<<26))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	if len(npy.Shape) != 2 {
		return nil, fmt.Errorf("%s: expected 2-D array, got shape %v", fnm, npy.Shape)
	}
	gm := &genotypeMatrix{rows: npy.Shape[0], cols: npy.Shape[1]}
	log.WithFields(log.Fields{
		"filename": fnm,
		"rows":     gm.rows,
		"cols":     gm.cols,
		"dtype":    npy.Dtype,
	}).Infof("reading numpy: %s", fnm)
	gm.data, err = numpyFloat64(npy)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	if len(gm.data) != gm.rows*gm.cols {
		return nil, fmt.Errorf("%s: read %d values, expected %d x %d", fnm, len(gm.data), gm.rows, gm.cols)
	}
	if npy.ColumnMajor {
		rowMajor := make([]float64, len(gm.data))
		for j := 0; j < gm.cols; j++ {
			for i := 0; i < gm.rows; i++ {
				rowMajor[i*gm.cols+j] = gm.data[j*gm.rows+i]
			}
		}
		gm.data = rowMajor
	}
	return gm, nil
}

// numpyFloat64 returns the array data converted to float64, with
// negative integers converted to NaN.
func numpyFloat64(npy *gonpy.NpyReader) ([]float64, error) {
	switch dtype := strings.TrimLeft(npy.Dtype, "<>|="); dtype {
	case "f8":
		return npy.GetFloat64()
	case "f4":
		data, err := npy.GetFloat32()
		return widen(data, false), err
	case "i1":
		data, err := npy.GetInt8()
		return widen(data, true), err
	case "i2":
		data, err := npy.GetInt16()
		return widen(data, true), err
	case "i4":
		data, err := npy.GetInt32()
		return widen(data, true), err
	case "i8":
		data, err := npy.GetInt64()
		return widen(data, true), err
	case "u1":
		data, err := npy.GetUint8()
		return widen(data, false), err
	default:
		return nil, fmt.Errorf("unsupported numpy dtype %q", dtype)
	}
}

func widen[E int8 | int16 | int32 | int64 | uint8 | float32](data []E, negativeMissing bool) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		if negativeMissing && v < 0 {
			out[i] = math.NaN()
		} else {
			out[i] = float64(v)
		}
	}
	return out
}

// imputed returns a copy of gm with missing calls replaced by the
// variant's mean dosage.
func (gm *genotypeMatrix) imputed() *linalg.Matrix[float64] {
	m := linalg.New(gm.rows, gm.cols, append([]float64(nil), gm.data...))
	for j := 0; j < gm.cols; j++ {
		var sum float64
		var called int
		for i := 0; i < gm.rows; i++ {
			if v := m.At(i, j); !math.IsNaN(v) {
				sum += v
				called++
			}
		}
		mean := 0.0
		if called > 0 {
			mean = sum / float64(called)
		}
		for i := 0; i < gm.rows; i++ {
			if math.IsNaN(m.At(i, j)) {
				m.Set(i, j, mean)
			}
		}
	}
	return m
}

// matrixSource yields one variant per genotype matrix column.
type matrixSource[T Float] struct {
	gm     *genotypeMatrix
	labels []string
	sparse bool
	next   int
}

func (src *matrixSource[T]) Next() (Variant[T], error) {
	j := src.next
	if j >= src.gm.cols {
		return Variant[T]{}, io.EOF
	}
	src.next++
	v := Variant[T]{Index: j, Label: fmt.Sprintf("%d", j)}
	if j < len(src.labels) {
		v.Label = src.labels[j]
	}
	missing := 0
	for i := 0; i < src.gm.rows; i++ {
		if math.IsNaN(src.gm.at(i, j)) {
			missing++
		}
	}
	dosage := make([]T, 0, src.gm.rows-missing)
	if missing > 0 {
		v.Keep = make([]int, 0, src.gm.rows-missing)
	}
	for i := 0; i < src.gm.rows; i++ {
		x := src.gm.at(i, j)
		if math.IsNaN(x) {
			continue
		}
		dosage = append(dosage, T(x))
		if missing > 0 {
			v.Keep = append(v.Keep, i)
		}
	}
	if src.sparse {
		v.Genotypes = SparseFromDense(dosage)
	} else {
		v.Genotypes = Dense[T](dosage)
	}
	return v, nil
}
