// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package linreg

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// table is a tab-separated file with a header row.
type table struct {
	filename string
	header   []string
	rows     [][]string
}

func readTable(fnm string, stdin io.Reader) (*table, error) {
	f, err := zopen(fnm, stdin)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	t := &table{filename: fnm}
	for _, line := range bytes.Split(buf, []byte{'\n'}) {
		line = bytes.TrimSuffix(line, []byte{'\r'})
		if len(line) == 0 {
			continue
		}
		split := strings.Split(string(line), "\t")
		if t.header == nil {
			t.header = split
			continue
		}
		if len(split) != len(t.header) {
			return nil, fmt.Errorf("%s: data row %d has %d fields, header has %d", fnm, len(t.rows)+1, len(split), len(t.header))
		}
		t.rows = append(t.rows, split)
	}
	if t.header == nil {
		return nil, fmt.Errorf("%s: no header row", fnm)
	}
	return t, nil
}

func (t *table) column(name string) (int, error) {
	for col, h := range t.header {
		if h == name {
			return col, nil
		}
	}
	return -1, fmt.Errorf("%s: no column named %q in header row %q", t.filename, name, strings.Join(t.header, "\t"))
}

// floats returns the named column parsed as numbers.
func (t *table) floats(name string) ([]float64, error) {
	col, err := t.column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(t.rows))
	for i, row := range t.rows {
		out[i], err = strconv.ParseFloat(row[col], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: data row %d: column %q: %w", t.filename, i+1, name, err)
		}
	}
	return out, nil
}

// sampleIDs returns the first column, warning about duplicates.
func (t *table) sampleIDs() []string {
	ids := make([]string, len(t.rows))
	seen := map[string]bool{}
	for i, row := range t.rows {
		ids[i] = row[0]
		if seen[row[0]] {
			log.Warnf("%s: sample ID %q appears more than once", t.filename, row[0])
		}
		seen[row[0]] = true
	}
	return ids
}

// caseControl converts a 0/1 trait column to case (true) / control
// (false).
func caseControl(name string, values []float64) ([]bool, error) {
	cases := make([]bool, len(values))
	for i, v := range values {
		switch v {
		case 0:
		case 1:
			cases[i] = true
		default:
			return nil, fmt.Errorf("column %q: data row %d: value %g is not 0 (control) or 1 (case)", name, i+1, v)
		}
	}
	return cases, nil
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
