package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/dalzilio/qbfproj/ave"
	"github.com/dalzilio/qbfproj/bdd"
	"github.com/dalzilio/qbfproj/cnf"
	"github.com/dalzilio/qbfproj/factorgraph"
	"github.com/dalzilio/qbfproj/internal/logging"
	"github.com/dalzilio/qbfproj/internal/qerrors"
	"github.com/dalzilio/qbfproj/merge"
	"github.com/dalzilio/qbfproj/muc"
)

func runDriver(opts *cliOptions) error {
	level, err := logging.ParseLevel(opts.verbosity)
	if err != nil {
		return qerrors.Wrapf(qerrors.ErrParse, "%v", err)
	}
	log := logging.New(level)

	pin, err := buildProjectInput(opts, log)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(opts.outputFile)
	if err != nil {
		return err
	}
	defer closeOut()

	if opts.computeExactUsingBdd {
		return runExact(pin, opts, out)
	}
	return runApprox(pin, opts, out, log)
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "stdout" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, qerrors.Wrapf(qerrors.ErrParse, "creating %s: %v", path, err)
	}
	return f, f.Close, nil
}

// runExact computes ∃Q.F directly via AndExistsMulti, refusing the result
// with a blow-up error rather than truncating it when it outgrows
// --largestBddSize.
func runExact(pin *projectInput, opts *cliOptions, out io.Writer) error {
	m := pin.m
	qCube := m.Makeset(pin.qLevels)
	exact := m.AndExistsMulti(qCube, pin.factors...)
	if m.Errored() {
		return qerrors.Wrapf(qerrors.ErrAssertion, "bdd error computing exact projection: %s", m.Error())
	}
	if opts.largestBDDSize > 0 {
		if sz := m.Size(exact); sz > opts.largestBDDSize {
			return qerrors.Wrapf(qerrors.ErrBlowup, "exact projection has %d nodes, exceeds largestBddSize %d", sz, opts.largestBDDSize)
		}
	}
	return cnf.Encode(out, m, []bdd.Node{exact}, nil, pin.qLevels, pin.firstFreeVar, pin.indepVars)
}

// runApprox runs the primary merge->factorgraph pipeline, tightens the
// result with the CNF-level seed-growth eliminator run directly over the
// original clauses, and optionally strengthens it further with the MUC
// refinement loop before encoding.
func runApprox(pin *projectInput, opts *cliOptions, out io.Writer, log *logging.Logger) error {
	m := pin.m

	// An empty clause set projects to true; a clause set containing the
	// empty clause projects to false. Both are settled here because the
	// false factor has an empty support, so it would sit edgeless in the
	// factor graph and never reach the free variables through a message.
	if len(pin.factors) == 0 {
		return cnf.Encode(out, m, nil, nil, pin.qLevels, pin.firstFreeVar, pin.indepVars)
	}
	for _, f := range pin.factors {
		if m.IsZero(f) {
			return cnf.Encode(out, m, []bdd.Node{m.False()}, nil, pin.qLevels, pin.firstFreeVar, pin.indepVars)
		}
	}

	mergeOpts := []merge.Option{}
	if opts.largestSupportSet > 0 {
		mergeOpts = append(mergeOpts, merge.LargestSupportSet(opts.largestSupportSet))
	}
	if opts.largestBDDSize > 0 {
		mergeOpts = append(mergeOpts, merge.LargestBDDSize(opts.largestBDDSize))
	}
	qCubes := make([]bdd.Node, len(pin.qLevels))
	for i, lvl := range pin.qLevels {
		qCubes[i] = m.Makeset([]int{lvl})
	}
	merged, err := merge.Merge(m, pin.factors, qCubes, nil, mergeOpts...)
	if err != nil {
		return err
	}
	log.Infof("merge: %d factors -> %d", len(pin.factors), len(merged.Factors))

	g, err := factorgraph.New(m, merged.Factors)
	if err != nil {
		return err
	}
	if parts := g.Partition(); len(parts) > 1 {
		log.Infof("factor graph splits into %d independent components", len(parts))
	}
	if len(pin.freeLevels) > 0 {
		if err := g.GroupVars(pin.freeLevels); err != nil {
			return err
		}
	}
	for _, vc := range merged.Variables {
		scan, err := m.Scanset(vc)
		if err != nil {
			return err
		}
		if len(scan) > 1 {
			if err := g.GroupVars(scan); err != nil {
				return err
			}
		}
	}
	iters, err := g.Converge()
	if err != nil {
		return err
	}
	log.Infof("factor graph converged after %d rounds", iters)

	var overBDDs []bdd.Node
	if len(pin.freeLevels) == 0 {
		sat := m.AndMulti(merged.Factors...)
		if m.Errored() {
			return qerrors.Wrapf(qerrors.ErrAssertion, "bdd error conjoining factors: %s", m.Error())
		}
		overBDDs = []bdd.Node{m.From(!m.Equal(sat, m.False()))}
	} else {
		vi, ok := g.VarNodeForLevel(pin.freeLevels[0])
		if !ok {
			return qerrors.Wrap(qerrors.ErrAssertion, "free variable group missing from factor graph after GroupVars")
		}
		overBDDs = g.IncomingMessages(vi)
		if len(overBDDs) == 0 {
			overBDDs = []bdd.Node{m.True()}
		}
	}

	// Run the pure-CNF seed-growth eliminator directly over the original
	// clauses too, and conjoin its result in. Both pipelines
	// over-approximate ∃Q.F independently, so conjoining only tightens
	// the bound; it never invalidates it. This is how --maxClauseTreeSize
	// and --timeoutSeconds, otherwise orphaned by the default pipeline,
	// earn a role in the default run rather than only the library-level
	// alternative driver.
	if pin.origClauses != nil {
		aveBDD, err := runAveTightening(m, pin, opts, log)
		if err != nil {
			return err
		}
		overBDDs = append(overBDDs, aveBDD)
	}

	if opts.runMusTool && pin.origClauses != nil {
		overBDDs, err = refineWithMUC(m, pin, overBDDs, log)
		if err != nil {
			return err
		}
	}

	return cnf.Encode(out, m, overBDDs, nil, pin.qLevels, pin.firstFreeVar, pin.indepVars)
}

func runAveTightening(m *bdd.Manager, pin *projectInput, opts *cliOptions, log *logging.Logger) (bdd.Node, error) {
	ctx := context.Background()
	if opts.timeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.timeoutSeconds)*time.Second)
		defer cancel()
	}

	aveProblem := ave.Problem{Clauses: make([]ave.Clause, len(pin.origClauses))}
	for i, c := range pin.origClauses {
		aveProblem.Clauses[i] = ave.Clause(c)
	}
	qVarList := make([]int, 0, len(pin.qVars))
	for v := range pin.qVars {
		qVarList = append(qVarList, v)
	}

	result := ave.Eliminate(ctx, aveProblem, qVarList, ave.MaxClauseTreeSize(opts.maxClauseTreeSize))
	log.Infof("seed-growth resolution: %d clauses -> %d", len(pin.origClauses), len(result.Clauses))

	clauses := make([][]int, len(result.Clauses))
	for i, c := range result.Clauses {
		clauses[i] = []int(c)
	}
	// firstFreeVar is beyond every real variable, so Decode projects
	// away no variable of its own: it is used here purely as a
	// clause-list-to-BDD builder.
	return cnf.Decode(m, clauses, pin.firstFreeVar)
}

// bddOverApprox adapts the driver's growing over-approximation BDD list to
// muc.OverApprox, turning every blocking clause the refinement loop derives
// back into a BDD conjunct.
type bddOverApprox struct {
	m     *bdd.Manager
	extra []bdd.Node
	err   error
}

func (o *bddOverApprox) AddBlockingClause(lits []int) {
	n, err := cnf.ClauseToBDD(o.m, lits)
	if err != nil {
		o.err = err
		return
	}
	o.extra = append(o.extra, n)
}

func refineWithMUC(m *bdd.Manager, pin *projectInput, overBDDs []bdd.Node, log *logging.Logger) ([]bdd.Node, error) {
	clauses, numVars, err := cnf.BuildClauses(m, overBDDs, nil, nil, pin.firstFreeVar)
	if err != nil {
		return nil, err
	}

	subs := muc.BuildMustProblem(pin.origClauses, pin.qVars, numVars+1)
	markers := 0
	for _, s := range subs {
		if s.Marker != 0 {
			markers++
		}
	}
	selBase := numVars + 1 + markers

	enum := muc.NewGiniEnumerator(subs, selBase)
	solver := muc.NewGiniSolver()
	for _, c := range clauses {
		solver.AddClause(c...)
	}

	refiner := &bddOverApprox{m: m}
	muc.Refine(enum, solver, subs, refiner)
	if refiner.err != nil {
		return nil, refiner.err
	}
	log.Infof("MUC refinement added %d blocking clauses", len(refiner.extra))

	return append(overBDDs, refiner.extra...), nil
}
