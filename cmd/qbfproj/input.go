package main

import (
	"bufio"
	"bytes"
	"os"
	"sort"
	"strings"

	"github.com/dalzilio/qbfproj/bdd"
	"github.com/dalzilio/qbfproj/blif"
	"github.com/dalzilio/qbfproj/cnf"
	"github.com/dalzilio/qbfproj/internal/logging"
	"github.com/dalzilio/qbfproj/internal/qerrors"
	"github.com/dalzilio/qbfproj/qdimacs"
)

// projectInput is the front-end-agnostic shape the pipeline operates on:
// the manager and its factors, which levels are quantified (Q) versus free,
// and, for QDIMACS input, the original clauses and variable set the
// CNF-level eliminator and the MUC refinement loop need (nil for BLIF,
// whose latch factors have no DIMACS-clause representation to refine
// against).
type projectInput struct {
	m            *bdd.Manager
	factors      []bdd.Node
	qLevels      []int
	freeLevels   []int
	firstFreeVar int
	indepVars    []int
	origClauses  [][]int
	qVars        map[int]bool
}

// looksLikeBlif sniffs the first meaningful line of data for a ".model"
// directive; every other recognized input (QDIMACS) starts with a "c" or
// "p" line instead.
func looksLikeBlif(data []byte) bool {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		return strings.HasPrefix(line, ".model")
	}
	return false
}

func buildProjectInput(opts *cliOptions, log *logging.Logger) (*projectInput, error) {
	data, err := os.ReadFile(opts.inputFile)
	if err != nil {
		return nil, qerrors.Wrapf(qerrors.ErrParse, "reading %s: %v", opts.inputFile, err)
	}
	if looksLikeBlif(data) {
		return buildFromBlif(data, log)
	}
	return buildFromQDIMACS(data, log)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// checkConflictingUnaries rejects a clause set asserting both a variable
// and its negation as unit clauses. Callers are expected to have
// unit-propagated already; the check stays explicit rather than silently
// dropping one of the two unit clauses.
func checkConflictingUnaries(clauses []qdimacs.Clause) error {
	unit := make(map[int]bool)
	for _, c := range clauses {
		if len(c) == 1 {
			unit[c[0]] = true
		}
	}
	for l := range unit {
		if unit[-l] {
			return qerrors.Wrapf(qerrors.ErrAssertion, "conflicting unit clauses on variable %d", abs(l))
		}
	}
	return nil
}

func buildFromQDIMACS(data []byte, log *logging.Logger) (*projectInput, error) {
	p, err := qdimacs.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if !p.InnermostExistential() {
		return nil, qerrors.Wrap(qerrors.ErrUnsupported, "innermost quantifier block is not existential")
	}
	if err := checkConflictingUnaries(p.Clauses); err != nil {
		return nil, err
	}

	varnum := p.NumVars
	if varnum < 1 {
		varnum = 1
	}
	m, err := bdd.New(varnum)
	if err != nil {
		return nil, qerrors.Wrapf(qerrors.ErrAssertion, "creating bdd manager: %v", err)
	}

	prob, err := cnf.BuildProblem(m, p)
	if err != nil {
		return nil, err
	}
	factors := prob.Factors()
	log.Infof("parsed %d variables, %d clauses (%d distinct)", p.NumVars, len(p.Clauses), len(factors))

	qVars := make(map[int]bool)
	for _, v := range p.InnerVars() {
		qVars[v] = true
	}
	qLevels := make([]int, 0, len(qVars))
	for v := range qVars {
		qLevels = append(qLevels, v-1)
	}
	sort.Ints(qLevels)

	var freeLevels []int
	for lvl := 0; lvl < varnum; lvl++ {
		if !qVars[lvl+1] {
			freeLevels = append(freeLevels, lvl)
		}
	}

	indepVars := make([]int, len(freeLevels))
	for i, lvl := range freeLevels {
		indepVars[i] = lvl + 1
	}

	origClauses := make([][]int, len(p.Clauses))
	for i, c := range p.Clauses {
		origClauses[i] = []int(c)
	}

	return &projectInput{
		m:            m,
		factors:      factors,
		qLevels:      qLevels,
		freeLevels:   freeLevels,
		firstFreeVar: varnum + 1,
		indepVars:    indepVars,
		origClauses:  origClauses,
		qVars:        qVars,
	}, nil
}

func buildFromBlif(data []byte, log *logging.Logger) (*projectInput, error) {
	model, err := blif.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, qerrors.Wrapf(qerrors.ErrParse, "parsing blif: %v", err)
	}
	varnum := len(model.Inputs) + len(model.Latches)
	if varnum < 1 {
		varnum = 1
	}
	m, err := bdd.New(varnum)
	if err != nil {
		return nil, qerrors.Wrapf(qerrors.ErrAssertion, "creating bdd manager: %v", err)
	}
	built, err := blif.Build(m, model)
	if err != nil {
		return nil, qerrors.Wrapf(qerrors.ErrParse, "building blif factors: %v", err)
	}
	log.Infof("parsed blif model %q: %d inputs, %d latches", model.Name, len(model.Inputs), len(model.Latches))

	piLevels, err := m.Scanset(built.PiVars)
	if err != nil {
		return nil, err
	}
	piSet := make(map[int]bool, len(piLevels))
	for _, lvl := range piLevels {
		piSet[lvl] = true
	}

	support, err := m.VectorSupport(built.LatchFactors...)
	if err != nil {
		return nil, err
	}
	var freeLevels []int
	for _, lvl := range support {
		if !piSet[lvl] {
			freeLevels = append(freeLevels, lvl)
		}
	}
	sort.Ints(piLevels)
	sort.Ints(freeLevels)

	indepVars := make([]int, len(freeLevels))
	for i, lvl := range freeLevels {
		indepVars[i] = lvl + 1
	}

	return &projectInput{
		m:            m,
		factors:      built.LatchFactors,
		qLevels:      piLevels,
		freeLevels:   freeLevels,
		firstFreeVar: varnum + 1,
		indepVars:    indepVars,
	}, nil
}
