package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dalzilio/qbfproj/bdd"
	"github.com/dalzilio/qbfproj/cnf"
	"github.com/dalzilio/qbfproj/internal/logging"
	"github.com/dalzilio/qbfproj/qdimacs"
)

func TestLooksLikeBlifDetectsModelDirective(t *testing.T) {
	require.True(t, looksLikeBlif([]byte("\n.model foo\n.inputs a b\n")))
	require.False(t, looksLikeBlif([]byte("c a comment\np cnf 2 1\n1 2 0\n")))
}

func TestCheckConflictingUnariesDetectsConflict(t *testing.T) {
	err := checkConflictingUnaries([]qdimacs.Clause{{1}, {-1}})
	require.Error(t, err)
}

func TestCheckConflictingUnariesAllowsConsistentUnits(t *testing.T) {
	err := checkConflictingUnaries([]qdimacs.Clause{{1}, {2}, {1, 2}})
	require.NoError(t, err)
}

// TestRunDriverComputeExactUsingBddTautology covers a QBF whose innermost
// existential variable witnesses every assignment to the free variable:
// (x1 v x2) & (-x1 v -x2) is satisfied by x2 = -x1 regardless of x1, so
// the exact projection onto x1 is the tautology, encoded as a zero-clause
// CNF over one declared independent variable.
func TestRunDriverComputeExactUsingBddTautology(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "problem.qdimacs")
	out := filepath.Join(dir, "problem.out")

	require.NoError(t, os.WriteFile(in, []byte(
		"p cnf 2 2\n"+
			"e 2 0\n"+
			"1 2 0\n"+
			"-1 -2 0\n",
	), 0o644))

	opts := &cliOptions{
		inputFile:            in,
		outputFile:           out,
		verbosity:            "QUIET",
		computeExactUsingBdd: true,
		largestBDDSize:       1000,
	}
	require.NoError(t, runDriver(opts))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(data)
	require.Contains(t, text, "c ind 1 0")
	require.Contains(t, text, "p cnf 2 0")
}

func TestRunDriverApproxPipelineProducesOverApproximation(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "problem.qdimacs")
	out := filepath.Join(dir, "problem.out")

	require.NoError(t, os.WriteFile(in, []byte(
		"p cnf 2 2\n"+
			"e 2 0\n"+
			"1 2 0\n"+
			"-1 -2 0\n",
	), 0o644))

	opts := &cliOptions{
		inputFile:  in,
		outputFile: out,
		verbosity:  "QUIET",
		runMusTool: true,
	}
	require.NoError(t, runDriver(opts))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "c ind 1 0\n") || strings.HasPrefix(string(data), "p cnf"))
}

func TestBuildProjectInputRejectsConflictingUnits(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "problem.qdimacs")
	require.NoError(t, os.WriteFile(in, []byte(
		"p cnf 1 2\n"+
			"e 1 0\n"+
			"1 0\n"+
			"-1 0\n",
	), 0o644))

	log := logging.New(logging.Quiet)
	_, err := buildProjectInput(&cliOptions{inputFile: in}, log)
	require.Error(t, err)
}

// TestRunDriverEmptyClauseSetProjectsToTrue covers the trivial case of a
// QDIMACS document with no clauses at all: the projection of the empty
// conjunction is the tautology, a zero-clause CNF.
func TestRunDriverEmptyClauseSetProjectsToTrue(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "problem.qdimacs")
	out := filepath.Join(dir, "problem.out")

	require.NoError(t, os.WriteFile(in, []byte(
		"p cnf 2 0\n"+
			"e 2 0\n",
	), 0o644))

	opts := &cliOptions{inputFile: in, outputFile: out, verbosity: "QUIET"}
	require.NoError(t, runDriver(opts))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(data), "p cnf 2 0")
}

// TestRunDriverEmptyClauseProjectsToFalse covers the dual trivial case: a
// clause set containing the empty clause projects to the constant false,
// which must survive the approximate pipeline even though a constant-false
// factor has no support and so no factor-graph edge to carry it.
func TestRunDriverEmptyClauseProjectsToFalse(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "problem.qdimacs")
	out := filepath.Join(dir, "problem.out")

	require.NoError(t, os.WriteFile(in, []byte(
		"p cnf 2 2\n"+
			"e 2 0\n"+
			"1 2 0\n"+
			"0\n",
	), 0o644))

	opts := &cliOptions{inputFile: in, outputFile: out, verbosity: "QUIET"}
	require.NoError(t, runDriver(opts))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	p, err := qdimacs.Parse(strings.NewReader(string(data)))
	require.NoError(t, err)
	require.Len(t, p.Clauses, 1)
	require.Empty(t, []int(p.Clauses[0]))
}

// TestRunDriverMUCRefinementReachesExactResult runs the worked scenario
// whose exact projection is a single clause: {-1,2}, {1,-2}, {-1,-2} with
// e 2 project to exactly -1. The refined output CNF, decoded back to a BDD
// with its Tseytin variables projected away, must equal not(x1).
func TestRunDriverMUCRefinementReachesExactResult(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "problem.qdimacs")
	out := filepath.Join(dir, "problem.out")

	require.NoError(t, os.WriteFile(in, []byte(
		"p cnf 2 3\n"+
			"e 2 0\n"+
			"-1 2 0\n"+
			"1 -2 0\n"+
			"-1 -2 0\n",
	), 0o644))

	opts := &cliOptions{
		inputFile:         in,
		outputFile:        out,
		verbosity:         "QUIET",
		runMusTool:        true,
		maxClauseTreeSize: 100,
	}
	require.NoError(t, runDriver(opts))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	p, err := qdimacs.Parse(strings.NewReader(string(data)))
	require.NoError(t, err)

	m, err := bdd.New(p.NumVars)
	require.NoError(t, err)
	clauses := make([][]int, len(p.Clauses))
	for i, c := range p.Clauses {
		clauses[i] = []int(c)
	}
	got, err := cnf.Decode(m, clauses, 3)
	require.NoError(t, err)
	require.True(t, m.Equal(got, m.Not(m.Ithvar(0))),
		"refined projection must be exactly the clause {-1}")
}
