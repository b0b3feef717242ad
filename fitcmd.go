// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package linreg

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/arvados/linreg/linalg"
	log "github.com/sirupsen/logrus"
)

// fitCmd fits one multiple regression to the columns of a tsv file.
type fitCmd struct {
	inputFilename string
	trait         string
	predictors    []string
	predict       []float64
	digits        int
}

func (cmd *fitCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	err := cmd.run(prog, args, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return 1
	}
	return 0
}

func (cmd *fitCmd) run(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	precision := flags.String("precision", "double", "floating point precision: `single` or double")
	predictors := flags.String("predictors", "", "comma-separated predictor `columns` (default: all columns except the first and -trait)")
	predict := flags.String("predict", "", "comma-separated predictor `values` at which to report the fitted outcome")
	flags.StringVar(&cmd.inputFilename, "i", "-", "input tsv `file` with header row")
	flags.StringVar(&cmd.trait, "trait", "", "outcome `column`")
	flags.IntVar(&cmd.digits, "digits", 4, "`digits` after the decimal point in output")
	err := flags.Parse(args)
	if err == flag.ErrHelp {
		return nil
	} else if err != nil {
		return err
	} else if flags.NArg() > 0 {
		return fmt.Errorf("errant command line arguments after parsed flags: %v", flags.Args())
	}
	if cmd.trait == "" {
		return errors.New("-trait flag is required")
	}
	cmd.predictors = splitList(*predictors)
	for _, s := range splitList(*predict) {
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("-predict: %w", err)
		}
		cmd.predict = append(cmd.predict, x)
	}

	switch *precision {
	case "single":
		return runFit[float32](cmd, stdin, stdout)
	case "double":
		return runFit[float64](cmd, stdin, stdout)
	default:
		return fmt.Errorf("invalid -precision=%q (expected single or double)", *precision)
	}
}

func runFit[T Float](cmd *fitCmd, stdin io.Reader, stdout io.Writer) error {
	tbl, err := readTable(cmd.inputFilename, stdin)
	if err != nil {
		return err
	}
	names := cmd.predictors
	if len(names) == 0 {
		for _, h := range tbl.header[1:] {
			if h != cmd.trait {
				names = append(names, h)
			}
		}
	}
	if len(cmd.predict) > 0 && len(cmd.predict) != len(names) {
		return fmt.Errorf("-predict has %d values, but there are %d predictors %q", len(cmd.predict), len(names), names)
	}
	y, err := tbl.floats(cmd.trait)
	if err != nil {
		return err
	}
	cols := [][]T{ones[T](len(y))}
	for _, name := range names {
		col, err := tbl.floats(name)
		if err != nil {
			return err
		}
		cols = append(cols, convert[T](col))
	}
	X, err := linalg.FromColumns(cols...)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"samples":    len(y),
		"predictors": len(names),
	}).Infof("fitting %s", cmd.trait)
	fit, err := MultipleTTest(X, convert[T](y))
	if err != nil {
		return err
	}

	bufw := bufio.NewWriter(stdout)
	ff := func(v T) string { return strconv.FormatFloat(float64(v), 'f', cmd.digits, 64) }
	row := func(name string, r Result[T]) {
		fmt.Fprintf(bufw, "%s\t%s\t%s\t%s\t%s\n", name, ff(r.Estimate), ff(r.StdErr), ff(r.TStat), strconv.FormatFloat(float64(r.P), 'g', cmd.digits, 64))
	}
	fmt.Fprint(bufw, "term\testimate\tse\ttstat\tpval\n")
	row("(intercept)", fit.Intercept)
	for j, name := range names {
		row(name, fit.Coefficients[j])
	}
	fmt.Fprintf(bufw, "sse\t%s\n", ff(fit.SSE))
	fmt.Fprintf(bufw, "mse\t%s\n", ff(fit.MSE))
	fmt.Fprintf(bufw, "dof\t%d\n", fit.Dof)
	if len(cmd.predict) > 0 {
		fitted, err := fit.Predict(convert[T](cmd.predict)...)
		if err != nil {
			return err
		}
		fmt.Fprintf(bufw, "fitted\t%s\n", ff(fitted))
	}
	return bufw.Flush()
}
