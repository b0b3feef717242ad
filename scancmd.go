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
	"net"
	"net/http"
	_ "net/http/pprof"

	"github.com/arvados/linreg/linalg"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

type scanCmd struct {
	inputFilename     string
	phenotypeFilename string
	labelsFilename    string
	outputFilename    string
	trait             string
	covariates        string
	pcaComponents     int
	binary            bool
	chi2PValue        float64
	sparse            bool
	standardize       bool
	threads           int
	digits            int
}

func (cmd *scanCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	err := cmd.run(prog, args, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return 1
	}
	return 0
}

func (cmd *scanCmd) run(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	pprof := flags.String("pprof", "", "serve Go profile data at http://`[addr]:port`")
	configFilename := flags.String("config", "", "load default flag values from toml `file`")
	precision := flags.String("precision", "double", "floating point precision: `single` or double")
	flags.StringVar(&cmd.inputFilename, "i", "-", "genotype numpy matrix `file` (rows = samples, columns = variants), optionally gzipped")
	flags.StringVar(&cmd.phenotypeFilename, "phenotype", "", "phenotype tsv `file` with header row, one data row per genotype matrix row")
	flags.StringVar(&cmd.labelsFilename, "labels", "", "variant labels `file`, one line per genotype matrix column (default: column numbers)")
	flags.StringVar(&cmd.outputFilename, "o", "-", "output tsv `file` (.gz suffix for compressed output)")
	flags.StringVar(&cmd.trait, "trait", "", "phenotype `column` to use as outcome")
	flags.StringVar(&cmd.covariates, "covariates", "", "comma-separated phenotype `columns` to use as covariates")
	flags.IntVar(&cmd.pcaComponents, "pca-components", 0, "number of genotype principal components to use as covariates")
	flags.BoolVar(&cmd.binary, "binary", false, "outcome is 0 (control) or 1 (case): use logistic regression likelihood ratio test")
	flags.Float64Var(&cmd.chi2PValue, "chi2-p-value", 1, "with -binary, skip variants whose carrier Χ² p-value is above this threshold")
	flags.BoolVar(&cmd.sparse, "sparse", false, "store genotype columns as sparse vectors")
	flags.BoolVar(&cmd.standardize, "standardize", false, "scale outcome to mean 0, standard deviation 1")
	flags.IntVar(&cmd.threads, "threads", 16, "number of variants to test concurrently")
	flags.IntVar(&cmd.digits, "digits", 4, "`digits` after the decimal point in output")
	err := flags.Parse(args)
	if err == flag.ErrHelp {
		return nil
	} else if err != nil {
		return err
	} else if flags.NArg() > 0 {
		return fmt.Errorf("errant command line arguments after parsed flags: %v", flags.Args())
	}
	if *configFilename != "" {
		err = loadFlagConfig(flags, *configFilename)
		if err != nil {
			return err
		}
	}

	if *pprof != "" {
		ln, err := net.Listen("tcp", *pprof)
		if err != nil {
			return fmt.Errorf("-pprof: %w", err)
		}
		log.Infof("serving Go profile data at http://%s/debug/pprof/", ln.Addr())
		go func() {
			log.Println(http.Serve(ln, nil))
		}()
	}

	switch {
	case cmd.phenotypeFilename == "":
		return errors.New("-phenotype flag is required")
	case cmd.trait == "":
		return errors.New("-trait flag is required")
	case cmd.chi2PValue != 1 && !cmd.binary:
		return fmt.Errorf("cannot use provided -chi2-p-value=%f without -binary", cmd.chi2PValue)
	case cmd.standardize && cmd.binary:
		return errors.New("cannot use -standardize with -binary")
	case cmd.digits < 0:
		return fmt.Errorf("invalid -digits=%d", cmd.digits)
	}

	switch *precision {
	case "single":
		return runScan[float32](cmd, stdin, stdout)
	case "double":
		return runScan[float64](cmd, stdin, stdout)
	default:
		return fmt.Errorf("invalid -precision=%q (expected single or double)", *precision)
	}
}

func runScan[T Float](cmd *scanCmd, stdin io.Reader, stdout io.Writer) error {
	gm, err := readGenotypeMatrix(cmd.inputFilename, stdin)
	if err != nil {
		return err
	}
	pheno, err := readTable(cmd.phenotypeFilename, stdin)
	if err != nil {
		return err
	}
	if len(pheno.rows) != gm.rows {
		return fmt.Errorf("%s has %d data rows, but %s has %d rows: %w", pheno.filename, len(pheno.rows), cmd.inputFilename, gm.rows, ErrInputLengthMismatch)
	}
	pheno.sampleIDs()
	trait, err := pheno.floats(cmd.trait)
	if err != nil {
		return err
	}
	var covariates [][]float64
	for _, name := range splitList(cmd.covariates) {
		col, err := pheno.floats(name)
		if err != nil {
			return err
		}
		covariates = append(covariates, col)
	}
	if cmd.pcaComponents > 0 {
		pcs, err := genotypePCA(gm.imputed(), cmd.pcaComponents)
		if err != nil {
			return err
		}
		for j := 0; j < cmd.pcaComponents; j++ {
			covariates = append(covariates, pcs.Col(j))
		}
	}
	var labels []string
	if cmd.labelsFilename != "" {
		labels, err = readLabels(cmd.labelsFilename, stdin)
		if err != nil {
			return err
		}
		if len(labels) != gm.cols {
			return fmt.Errorf("%s has %d labels, but %s has %d columns", cmd.labelsFilename, len(labels), cmd.inputFilename, gm.cols)
		}
	}

	var test Tester[T]
	if cmd.binary {
		cases, err := caseControl(cmd.trait, trait)
		if err != nil {
			return fmt.Errorf("%s: %w", pheno.filename, err)
		}
		test = BinaryTester[T](cases, covariates, cmd.chi2PValue)
	} else {
		mean, std := stat.MeanStdDev(trait, nil)
		log.WithFields(log.Fields{
			"trait":   cmd.trait,
			"samples": len(trait),
			"mean":    mean,
			"std":     std,
		}).Info("outcome")
		if cmd.standardize {
			normalize(trait)
		}
		var design *linalg.Matrix[T]
		if len(covariates) > 0 {
			cols := [][]T{ones[T](gm.rows)}
			for _, col := range covariates {
				cols = append(cols, convert[T](col))
			}
			design, err = linalg.FromColumns(cols...)
			if err != nil {
				return err
			}
		}
		test = LinearTester(convert[T](trait), design)
	}

	f, err := zcreate(cmd.outputFilename, stdout)
	if err != nil {
		return err
	}
	defer f.Close()
	sink := newTSVSink[T](f, cmd.digits)
	err = sink.WriteHeader()
	if err != nil {
		return err
	}
	scanner := Scanner[T]{Threads: cmd.threads, Test: test}
	stats, err := scanner.Run(&matrixSource[T]{gm: gm, labels: labels, sparse: cmd.sparse}, sink)
	log.WithFields(log.Fields{
		"variants":   stats.Variants,
		"tested":     stats.Tested,
		"degenerate": stats.Degenerate,
		"singular":   stats.Singular,
		"other":      stats.Other,
	}).Info("scan finished")
	if err != nil {
		return err
	}
	err = sink.Flush()
	if err != nil {
		return err
	}
	return f.Close()
}

func readLabels(fnm string, stdin io.Reader) ([]string, error) {
	f, err := zopen(fnm, stdin)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		labels = append(labels, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	return labels, nil
}

func ones[T Float](n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func convert[T Float](x []float64) []T {
	out := make([]T, len(x))
	for i, v := range x {
		out[i] = T(v)
	}
	return out
}
