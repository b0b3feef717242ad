// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package linreg

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"math/rand"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/kshedden/gonpy"
	"gopkg.in/check.v1"
)

type scanCmdSuite struct{}

var _ = check.Suite(&scanCmdSuite{})

func writeNumpyFloat64(c *check.C, fnm string, rows, cols int, data []float64) {
	f, err := os.Create(fnm)
	c.Assert(err, check.IsNil)
	defer f.Close()
	npw, err := gonpy.NewWriter(f)
	c.Assert(err, check.IsNil)
	npw.Shape = []int{rows, cols}
	c.Assert(npw.WriteFloat64(data), check.IsNil)
}

func writeNumpyInt16(c *check.C, fnm string, rows, cols int, data []int16) {
	f, err := os.Create(fnm)
	c.Assert(err, check.IsNil)
	defer f.Close()
	npw, err := gonpy.NewWriter(f)
	c.Assert(err, check.IsNil)
	npw.Shape = []int{rows, cols}
	c.Assert(npw.WriteInt16(data), check.IsNil)
}

// writeFixture writes a 17x3 genotype matrix (columns p1, p2, and a
// monomorphic column), a phenotype file, and a labels file.
func writeFixture(c *check.C, tmpdir string) {
	var data []float64
	for i := range fixtureY {
		data = append(data, fixtureP1[i], fixtureP2[i], 1)
	}
	writeNumpyFloat64(c, tmpdir+"/geno.npy", len(fixtureY), 3, data)

	var pheno bytes.Buffer
	fmt.Fprint(&pheno, "id\ty\tp1\n")
	for i, y := range fixtureY {
		fmt.Fprintf(&pheno, "sample%d\t%v\t%v\n", i, y, fixtureP1[i])
	}
	c.Assert(ioutil.WriteFile(tmpdir+"/pheno.tsv", pheno.Bytes(), 0644), check.IsNil)
	c.Assert(ioutil.WriteFile(tmpdir+"/labels.txt", []byte("p1\np2\nmono\n"), 0644), check.IsNil)
}

func (s *scanCmdSuite) TestScan(c *check.C) {
	tmpdir := c.MkDir()
	writeFixture(c, tmpdir)
	var stdout bytes.Buffer
	exited := (&scanCmd{}).RunCommand("scan", []string{
		"-i", tmpdir + "/geno.npy",
		"-phenotype", tmpdir + "/pheno.tsv",
		"-labels", tmpdir + "/labels.txt",
		"-trait", "y",
		"-threads", "2",
	}, nil, &stdout, os.Stderr)
	c.Assert(exited, check.Equals, 0)
	lines := strings.Split(stdout.String(), "\n")
	c.Assert(lines, check.HasLen, 5)
	c.Check(lines[0], check.Equals, "variant\tn\tslope\tse\ttstat\tpval")
	c.Check(lines[1], check.Matches, `p1\t17\t2\.3959\t0\.1471\t16\.2836\t6\.058e-11`)
	c.Check(lines[2], check.Matches, `p2\t17\t23\.8649\t1\.4792\t16\.1336\t6\.912e-11`)
	c.Check(lines[3], check.Equals, "mono\t17\tNaN\tNaN\tNaN\tNaN")
	c.Check(lines[4], check.Equals, "")
}

func (s *scanCmdSuite) TestCovariates(c *check.C) {
	tmpdir := c.MkDir()
	writeFixture(c, tmpdir)
	exited := (&scanCmd{}).RunCommand("scan", []string{
		"-i", tmpdir + "/geno.npy",
		"-phenotype", tmpdir + "/pheno.tsv",
		"-labels", tmpdir + "/labels.txt",
		"-trait", "y",
		"-covariates", "p1",
		"-o", tmpdir + "/out.tsv",
	}, nil, os.Stderr, os.Stderr)
	c.Assert(exited, check.Equals, 0)
	out, err := ioutil.ReadFile(tmpdir + "/out.tsv")
	c.Assert(err, check.IsNil)
	lines := strings.Split(string(out), "\n")
	c.Assert(lines, check.HasLen, 5)
	// p1 duplicates the covariate
	c.Check(lines[1], check.Equals, "p1\t17\tNaN\tNaN\tNaN\tNaN")
	c.Check(lines[2], check.Matches, `p2\t17\t12\.0824\t3\.9323\t3\.0726\t0\.00827`)
	c.Check(lines[3], check.Equals, "mono\t17\tNaN\tNaN\tNaN\tNaN")
}

func (s *scanCmdSuite) TestMissingSparseSingle(c *check.C) {
	tmpdir := c.MkDir()
	x := []int16{0, 1, 0, 2, 0, -1, 0, 1, 0, 0, 2}
	y := []float64{1.2, 2.3, 0.9, 3.1, 1.0, 99, 1.4, 2.0, 0.8, 1.1, 2.9}
	writeNumpyInt16(c, tmpdir+"/geno.npy", len(x), 1, x)
	var pheno bytes.Buffer
	fmt.Fprint(&pheno, "id\ty\n")
	for i, v := range y {
		fmt.Fprintf(&pheno, "s%d\t%v\n", i, v)
	}
	c.Assert(ioutil.WriteFile(tmpdir+"/pheno.tsv", pheno.Bytes(), 0644), check.IsNil)
	exited := (&scanCmd{}).RunCommand("scan", []string{
		"-i", tmpdir + "/geno.npy",
		"-phenotype", tmpdir + "/pheno.tsv",
		"-trait", "y",
		"-sparse",
		"-precision", "single",
		"-digits", "3",
		"-o", tmpdir + "/out.tsv.gz",
	}, nil, os.Stderr, os.Stderr)
	c.Assert(exited, check.Equals, 0)
	f, err := os.Open(tmpdir + "/out.tsv.gz")
	c.Assert(err, check.IsNil)
	defer f.Close()
	gz, err := pgzip.NewReader(f)
	c.Assert(err, check.IsNil)
	out, err := ioutil.ReadAll(gz)
	c.Assert(err, check.IsNil)
	c.Check(string(out), check.Matches, `variant\tn\tslope\tse\ttstat\tpval\n0\t10\t0\.981\t0\.079\t12\.43\d\t1\.63e-06\n`)
}

func (s *scanCmdSuite) TestConfig(c *check.C) {
	tmpdir := c.MkDir()
	writeFixture(c, tmpdir)
	config := fmt.Sprintf("phenotype = %q\ntrait = \"y\"\ndigits = 2\nthreads = 1\n", tmpdir+"/pheno.tsv")
	c.Assert(ioutil.WriteFile(tmpdir+"/scan.toml", []byte(config), 0644), check.IsNil)

	var stdout bytes.Buffer
	exited := (&scanCmd{}).RunCommand("scan", []string{"-config", tmpdir + "/scan.toml", "-i", tmpdir + "/geno.npy"}, nil, &stdout, os.Stderr)
	c.Assert(exited, check.Equals, 0)
	c.Check(stdout.String(), check.Matches, `(?ms).*\n0\t17\t2\.40\t0\.15\t16\.28\t.*`)

	// command line overrides config file
	stdout.Reset()
	exited = (&scanCmd{}).RunCommand("scan", []string{"-config", tmpdir + "/scan.toml", "-i", tmpdir + "/geno.npy", "-digits", "1"}, nil, &stdout, os.Stderr)
	c.Assert(exited, check.Equals, 0)
	c.Check(stdout.String(), check.Matches, `(?ms).*\n0\t17\t2\.4\t0\.1\t16\.3\t.*`)

	c.Assert(ioutil.WriteFile(tmpdir+"/bad.toml", []byte("colour = \"blue\"\n"), 0644), check.IsNil)
	var stderr bytes.Buffer
	exited = (&scanCmd{}).RunCommand("scan", []string{"-config", tmpdir + "/bad.toml"}, nil, &stdout, &stderr)
	c.Check(exited, check.Equals, 1)
	c.Check(stderr.String(), check.Matches, `.*unknown setting "colour".*\n`)
}

func (s *scanCmdSuite) TestBinaryPCA(c *check.C) {
	tmpdir := c.MkDir()
	rnd := rand.New(rand.NewSource(2))
	rows, cols := 60, 8
	data := make([]int16, rows*cols)
	var pheno bytes.Buffer
	fmt.Fprint(&pheno, "id\tcase\n")
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			data[i*cols+j] = int16(rnd.Intn(3))
		}
		isCase := 0
		if data[i*cols] == 2 || rnd.Intn(4) == 0 {
			isCase = 1
		}
		fmt.Fprintf(&pheno, "s%d\t%d\n", i, isCase)
	}
	writeNumpyInt16(c, tmpdir+"/geno.npy", rows, cols, data)
	c.Assert(ioutil.WriteFile(tmpdir+"/pheno.tsv", pheno.Bytes(), 0644), check.IsNil)

	var stdout bytes.Buffer
	exited := (&scanCmd{}).RunCommand("scan", []string{
		"-i", tmpdir + "/geno.npy",
		"-phenotype", tmpdir + "/pheno.tsv",
		"-trait", "case",
		"-binary",
		"-pca-components", "2",
	}, nil, &stdout, os.Stderr)
	c.Assert(exited, check.Equals, 0)
	lines := strings.Split(strings.TrimSuffix(stdout.String(), "\n"), "\n")
	c.Assert(lines, check.HasLen, cols+1)
	for j, line := range lines[1:] {
		c.Check(line, check.Matches, fmt.Sprintf(`%d\t60\t.*`, j))
	}
}

func (s *scanCmdSuite) TestErrors(c *check.C) {
	tmpdir := c.MkDir()
	writeFixture(c, tmpdir)
	for _, trial := range []struct {
		args   []string
		stderr string
	}{
		{[]string{"-i", tmpdir + "/geno.npy", "-phenotype", tmpdir + "/pheno.tsv"}, `-trait flag is required\n`},
		{[]string{"-i", tmpdir + "/geno.npy", "-phenotype", tmpdir + "/pheno.tsv", "-trait", "nonexistent"}, `.*no column named "nonexistent".*\n`},
		{[]string{"-i", tmpdir + "/geno.npy", "-phenotype", tmpdir + "/pheno.tsv", "-trait", "y", "-precision", "half"}, `invalid -precision.*\n`},
		{[]string{"-i", tmpdir + "/geno.npy", "-phenotype", tmpdir + "/pheno.tsv", "-trait", "y", "-chi2-p-value", "0.01"}, `cannot use provided -chi2-p-value.*\n`},
		{[]string{"-i", tmpdir + "/geno.npy", "-phenotype", tmpdir + "/pheno.tsv", "-trait", "y", "-binary"}, `.*is not 0 \(control\) or 1 \(case\)\n`},
		{[]string{"-i", tmpdir + "/geno.npy", "-phenotype", tmpdir + "/labels.txt", "-trait", "y"}, `.*input length mismatch\n`},
	} {
		var stderr bytes.Buffer
		exited := (&scanCmd{}).RunCommand("scan", trial.args, nil, ioutil.Discard, &stderr)
		c.Check(exited, check.Equals, 1, check.Commentf("%v", trial.args))
		c.Check(stderr.String(), check.Matches, trial.stderr)
	}
}

func (s *scanCmdSuite) TestPprof(c *check.C) {
	tmpdir := c.MkDir()
	writeFixture(c, tmpdir)
	args := []string{"-i", tmpdir + "/geno.npy", "-phenotype", tmpdir + "/pheno.tsv", "-trait", "y"}
	exited := (&scanCmd{}).RunCommand("scan", append(args, "-pprof", "127.0.0.1:0"), nil, ioutil.Discard, os.Stderr)
	c.Check(exited, check.Equals, 0)

	var stderr bytes.Buffer
	exited = (&scanCmd{}).RunCommand("scan", append(args, "-pprof", "127.0.0.1:notaport"), nil, ioutil.Discard, &stderr)
	c.Check(exited, check.Equals, 1)
	c.Check(stderr.String(), check.Matches, `-pprof: .*\n`)
}
