// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package linreg

import (
	"bufio"
	"io"
	"strconv"
)

// tsvSink writes one tab-separated line per scanned variant.
type tsvSink[T Float] struct {
	w      *bufio.Writer
	digits int
	buf    []byte
}

func newTSVSink[T Float](w io.Writer, digits int) *tsvSink[T] {
	return &tsvSink[T]{w: bufio.NewWriterSize(w, 1<<20), digits: digits}
}

func (s *tsvSink[T]) WriteHeader() error {
	_, err := s.w.WriteString("variant\tn\tslope\tse\ttstat\tpval\n")
	return err
}

func (s *tsvSink[T]) WriteRow(row Row[T]) error {
	b := append(s.buf[:0], row.Variant.Label...)
	b = append(b, '\t')
	b = strconv.AppendInt(b, int64(row.Variant.Genotypes.Len()), 10)
	for _, v := range []T{row.Result.Estimate, row.Result.StdErr, row.Result.TStat} {
		b = append(b, '\t')
		b = strconv.AppendFloat(b, float64(v), 'f', s.digits, 64)
	}
	b = append(b, '\t')
	b = strconv.AppendFloat(b, float64(row.Result.P), 'g', s.digits, 64)
	b = append(b, '\n')
	s.buf = b
	_, err := s.w.Write(b)
	return err
}

func (s *tsvSink[T]) Flush() error { return s.w.Flush() }
