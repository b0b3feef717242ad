// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package linreg

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"

	"gopkg.in/check.v1"
)

type fitCmdSuite struct{}

var _ = check.Suite(&fitCmdSuite{})

func writeFitData(c *check.C, fnm string) {
	var buf bytes.Buffer
	fmt.Fprint(&buf, "id\tp1\tp2\ty\n")
	for i, y := range fixtureY {
		fmt.Fprintf(&buf, "r%d\t%v\t%v\t%v\n", i, fixtureP1[i], fixtureP2[i], y)
	}
	c.Assert(ioutil.WriteFile(fnm, buf.Bytes(), 0644), check.IsNil)
}

func (s *fitCmdSuite) TestFit(c *check.C) {
	tmpdir := c.MkDir()
	writeFitData(c, tmpdir+"/data.tsv")
	var stdout bytes.Buffer
	exited := (&fitCmd{}).RunCommand("fit", []string{"-i", tmpdir + "/data.tsv", "-trait", "y", "-predict", "47,31"}, nil, &stdout, os.Stderr)
	c.Assert(exited, check.Equals, 0)
	c.Check(stdout.String(), check.Equals, `term	estimate	se	tstat	pval
(intercept)	-153.5117	100.8799	-1.5217	0.1503
p1	1.2387	0.3946	3.1393	0.007245
p2	12.0824	3.9323	3.0726	0.00827
sse	423.3741
mse	24.9044
dof	14
fitted	279.2613
`)
}

func (s *fitCmdSuite) TestSinglePrecision(c *check.C) {
	tmpdir := c.MkDir()
	writeFitData(c, tmpdir+"/data.tsv")
	var stdout bytes.Buffer
	exited := (&fitCmd{}).RunCommand("fit", []string{"-i", tmpdir + "/data.tsv", "-trait", "y", "-predictors", "p1,p2", "-predict", "47,31", "-precision", "single"}, nil, &stdout, os.Stderr)
	c.Assert(exited, check.Equals, 0)
	c.Check(stdout.String(), check.Matches, `(?ms).*\ndof\t14\nfitted\t279\.\d{4}\n`)
}

func (s *fitCmdSuite) TestErrors(c *check.C) {
	tmpdir := c.MkDir()
	writeFitData(c, tmpdir+"/data.tsv")
	for _, args := range [][]string{
		{"-i", tmpdir + "/data.tsv"},
		{"-i", tmpdir + "/data.tsv", "-trait", "y", "-predict", "47"},
		{"-i", tmpdir + "/data.tsv", "-trait", "y", "-predictors", "p1,p1"},
		{"-i", tmpdir + "/data.tsv", "-trait", "y", "-predictors", "p3"},
	} {
		var stderr bytes.Buffer
		exited := (&fitCmd{}).RunCommand("fit", args, nil, ioutil.Discard, &stderr)
		c.Check(exited, check.Equals, 1, check.Commentf("%v", args))
		c.Logf("%s", stderr.String())
	}
}
