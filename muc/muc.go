// Package muc implements the MUC refinement loop: given a CNF
// over-approximation and the quantified variables it was built over, it
// drives a minimal-unsatisfiable-core enumerator and, on every MUC
// delivered, either blocks the witnessing assignment or prunes the
// enumerator's future search. The enumerator and the underlying SAT solver
// are swappable collaborators, so both are expressed here as interfaces
// (Enumerator, Solver); GiniSolver and GiniEnumerator are the package's
// default adapters over github.com/irifrance/gini.
package muc

import (
	"sort"
	"strconv"
	"strings"

	"github.com/irifrance/gini"
	"github.com/irifrance/gini/z"
)

// Assignment is the remembered non-quantified literals of one original
// clause: the witness that its quantified sub-clause was triggered.
type Assignment []int

// SubClause is one must-problem clause: the quantified part of an original
// clause, the assignment that witnesses it, and the marker variable (0 if
// none was needed) injected to keep duplicate quantified sub-clauses
// distinct in the enumerator's eyes.
type SubClause struct {
	Literals   []int
	Assignment Assignment
	Marker     int
}

func signature(lits []int) string {
	sorted := append([]int(nil), lits...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, l := range sorted {
		parts[i] = strconv.Itoa(l)
	}
	return strings.Join(parts, ",")
}

// BuildMustProblem splits every clause into its quantified sub-clause
// (literals whose variable is in quantified) and the assignment that
// remains (every other literal): every original clause contributes one
// such sub-clause, and the non-quantified part of the clause is remembered
// as the assignment witnessing it. A sub-clause whose literal set
// duplicates one already emitted gets a fresh marker variable appended, so
// the enumerator operates over a set of distinct sub-clauses rather than a
// multiset; nextVar is the first variable index free for minting markers.
func BuildMustProblem(clauses [][]int, quantified map[int]bool, nextVar int) []SubClause {
	seen := make(map[string]bool, len(clauses))
	out := make([]SubClause, 0, len(clauses))
	for _, c := range clauses {
		var subLits []int
		var assign Assignment
		for _, l := range c {
			v := l
			if v < 0 {
				v = -v
			}
			if quantified[v] {
				subLits = append(subLits, l)
			} else {
				assign = append(assign, l)
			}
		}
		marker := 0
		sig := signature(subLits)
		if seen[sig] {
			marker = nextVar
			nextVar++
			subLits = append(append([]int(nil), subLits...), marker)
		}
		seen[sig] = true
		out = append(out, SubClause{Literals: subLits, Assignment: assign, Marker: marker})
	}
	return out
}

// Enumerator is the external MUC search tool. Run delivers each minimal
// unsatisfiable core it finds, as indices into the SubClause slice it was
// seeded with, until its search is exhausted. MarkInconsistent tells it a
// Cartesian combination of sub-clause indices can never again co-occur in a
// future core, pruning its remaining search.
type Enumerator interface {
	Run(cb func(muc []int))
	MarkInconsistent(indices []int)
}

// Solver is the incremental SAT-solving capability the refinement callback
// needs: assume a set of literals, solve under that assumption, and on
// failure recover the subset of assumptions responsible (the conflict).
type Solver interface {
	AddClause(lits ...int)
	Assume(lits ...int)
	Solve() bool
	Why() []int
}

// OverApprox receives every blocking clause the refinement loop derives, so
// the caller's own CNF or BDD representation of the over-approximation
// stays in lockstep with solver.
type OverApprox interface {
	AddBlockingClause(lits []int)
}

// Refine drives enum to completion, strengthening over and solver in
// lockstep with every MUC found:
//
//  1. Collect the union of remembered assignments across the MUC's
//     sub-clauses.
//  2. Test that union's consistency against solver.
//     - Satisfiable: the assignment is still allowed by the current
//     over-approximation, but the MUC says no extension of the quantified
//     variables satisfies F, so the assignment must be removed. The
//     clause that negates it is added to both over and solver.
//     - Unsatisfiable: the assignment is already blocked; solver's conflict
//     set identifies which sub-clauses contributed, and every one of
//     those is reported to enum as an inconsistent combination, pruning
//     its future search.
//
// Termination is controlled entirely by enum's own enumeration: Refine
// returns once Run's callback loop finishes.
func Refine(enum Enumerator, solver Solver, subs []SubClause, over OverApprox) {
	enum.Run(func(muc []int) {
		assignment := unionAssignments(subs, muc)
		solver.Assume(assignment...)
		if solver.Solve() {
			blocking := negate(assignment)
			over.AddBlockingClause(blocking)
			solver.AddClause(blocking...)
			return
		}
		conflict := solver.Why()
		enum.MarkInconsistent(contributingIndices(subs, muc, conflict))
	})
}

func unionAssignments(subs []SubClause, muc []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, idx := range muc {
		for _, l := range subs[idx].Assignment {
			if !seen[l] {
				seen[l] = true
				out = append(out, l)
			}
		}
	}
	return out
}

func negate(lits []int) []int {
	out := make([]int, len(lits))
	for i, l := range lits {
		out[i] = -l
	}
	return out
}

// contributingIndices maps the solver's conflicting assumption literals
// back to the sub-clauses (among muc) whose assignment produced them.
func contributingIndices(subs []SubClause, muc []int, conflict []int) []int {
	conflictSet := make(map[int]bool, len(conflict))
	for _, l := range conflict {
		conflictSet[l] = true
	}
	var out []int
	for _, idx := range muc {
		for _, l := range subs[idx].Assignment {
			if conflictSet[l] {
				out = append(out, idx)
				break
			}
		}
	}
	return out
}

// GiniSolver is the default Solver, backed by the
// github.com/irifrance/gini incremental SAT API (Add/Assume/Solve/Why).
type GiniSolver struct {
	g       *gini.Gini
	assumed []z.Lit
}

// NewGiniSolver returns an empty incremental solver ready for AddClause.
func NewGiniSolver() *GiniSolver {
	return &GiniSolver{g: gini.New()}
}

func (s *GiniSolver) AddClause(lits ...int) {
	for _, l := range lits {
		s.g.Add(z.Dimacs2Lit(l))
	}
	s.g.Add(z.LitNull)
}

func (s *GiniSolver) Assume(lits ...int) {
	s.assumed = s.assumed[:0]
	for _, l := range lits {
		s.assumed = append(s.assumed, z.Dimacs2Lit(l))
	}
	s.g.Assume(s.assumed...)
}

func (s *GiniSolver) Solve() bool {
	return s.g.Solve() == 1
}

func (s *GiniSolver) Why() []int {
	ms := s.g.Why(nil)
	out := make([]int, len(ms))
	for i, m := range ms {
		out[i] = m.Dimacs()
	}
	return out
}

func (s *GiniSolver) Value(lit int) bool {
	neg := lit < 0
	v := lit
	if neg {
		v = -v
	}
	val := s.g.Value(z.Dimacs2Lit(v))
	if neg {
		return !val
	}
	return val
}
