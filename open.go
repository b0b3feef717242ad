// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package linreg

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
)

// zopen returns a reader for the given file, transparently
// decompressing the input if fnm ends with ".gz". "-" means stdin.
func zopen(fnm string, stdin io.Reader) (io.ReadCloser, error) {
	var f io.ReadCloser
	if fnm == "-" {
		f = io.NopCloser(stdin)
	} else {
		var err error
		f, err = os.Open(fnm)
		if err != nil {
			return nil, err
		}
	}
	if !strings.HasSuffix(fnm, ".gz") {
		return f, nil
	}
	rdr, err := pgzip.NewReader(bufio.NewReaderSize(f, 4*1024*1024))
	if err != nil {
		f.Close()
		return nil, err
	}
	return gzipr{rdr, f}, nil
}

// gzipr wraps a ReadCloser and a Closer, presenting a single Close()
// method that closes both wrapped objects.
type gzipr struct {
	io.ReadCloser
	io.Closer
}

func (gr gzipr) Close() error {
	e1 := gr.ReadCloser.Close()
	e2 := gr.Closer.Close()
	if e1 != nil {
		return e1
	}
	return e2
}

// zcreate returns a writer for the given file, compressing the
// output if fnm ends with ".gz". "-" means stdout, which is not
// closed by Close().
func zcreate(fnm string, stdout io.Writer) (io.WriteCloser, error) {
	var f io.WriteCloser
	if fnm == "-" {
		f = nopCloser{stdout}
	} else {
		var err error
		f, err = os.OpenFile(fnm, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
		if err != nil {
			return nil, err
		}
	}
	if !strings.HasSuffix(fnm, ".gz") {
		return f, nil
	}
	return gzipw{pgzip.NewWriter(f), f}, nil
}

type gzipw struct {
	*pgzip.Writer
	f io.Closer
}

func (gw gzipw) Close() error {
	e1 := gw.Writer.Close()
	e2 := gw.f.Close()
	if e1 != nil {
		return e1
	}
	return e2
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
