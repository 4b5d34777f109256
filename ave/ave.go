// Package ave implements approximate variable elimination: pure-CNF
// seed-growth resolution that projects a set of variables out of a
// clause set without ever building a BDD. Given a CNF F and a set V of
// variables to eliminate, Eliminate produces a CNF G that over-approximates
// (is implied by) the exact existential projection ∃V.F.
//
// A clause mentioning a to-be-eliminated variable is a seed; the algorithm
// tries to resolve it against a clause that differs from it by exactly one
// flipped literal (the pivot), which is precisely the case where the
// resolvent of the two clauses equals the seed with the pivot literal
// removed. Growing a seed this way, one flipped literal at a time, avoids
// the combinatorial blowup of general resolution: only candidates that
// agree with the seed on every other literal are ever considered.
package ave

import (
	"context"
	"sort"
	"strconv"
	"strings"
)

// Literal is a signed DIMACS literal: a positive int names a variable, a
// negative int its negation. Zero is never a valid literal.
type Literal = int

// Clause is a disjunction of literals, matching qdimacs.Clause's shape so
// callers can convert between the two without a wrapper type.
type Clause []Literal

// Problem is a plain CNF: a list of clauses with no quantifier structure.
type Problem struct {
	Clauses []Clause
}

// configs holds the cap on how many resolution steps the seed-growth tree may
// take in total. The other bound, a wall-clock deadline after which the
// exploration halts with whatever has been found so far, comes from the
// context passed to Eliminate.
type configs struct {
	maxClauseTreeSize int
}

// Option configures Eliminate; see MaxClauseTreeSize.
type Option func(*configs)

func defaultConfigs() *configs {
	return &configs{maxClauseTreeSize: 10000}
}

// MaxClauseTreeSize bounds the total number of resolution-tree nodes visited
// across every seed, mirroring the CLI's --maxClauseTreeSize flag.
func MaxClauseTreeSize(n int) Option {
	return func(c *configs) {
		if n >= 0 {
			c.maxClauseTreeSize = n
		}
	}
}

// literalIndex maps a literal to the indices (into Problem.Clauses) of every
// clause containing it, used to find resolvent candidates in O(1) instead of
// scanning the whole clause set per pivot.
type literalIndex map[Literal][]int

func buildIndex(clauses []Clause) literalIndex {
	idx := make(literalIndex)
	for i, c := range clauses {
		for _, l := range c {
			idx[l] = append(idx[l], i)
		}
	}
	return idx
}

// signature returns a clause's canonical, order- and duplicate-independent
// string key, used both to compare two clauses as sets and to deduplicate
// the result.
func signature(c Clause) string {
	sorted := append(Clause(nil), c...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, l := range sorted {
		parts[i] = strconv.Itoa(l)
	}
	return strings.Join(parts, ",")
}

func hasVar(c Clause, vset map[int]bool) bool {
	for _, l := range c {
		if vset[absLit(l)] {
			return true
		}
	}
	return false
}

func absLit(l Literal) int {
	if l < 0 {
		return -l
	}
	return l
}

// seed is a clause being grown toward elimination, plus the resolver map
// the growth step needs: for every variable already removed from
// the original clause, the index of the clause that removed it. If a later
// resolution step would re-introduce that variable's literal, the seed is
// only accepted when the very same clause can remove it again, which
// guarantees the growth makes progress instead of oscillating.
type seed struct {
	lits     Clause
	resolver map[int]int // eliminated var -> clause index that resolved it away
}

// budget is the search-tree node counter and wall-clock deadline shared
// across every seed's growth, so the bound is enforced over the
// whole elimination, not per clause.
type budget struct {
	ctx       context.Context
	remaining int
}

func (b *budget) expired() bool {
	if b.remaining <= 0 {
		return true
	}
	select {
	case <-b.ctx.Done():
		return true
	default:
		return false
	}
}

// Eliminate projects vars out of f, returning a CNF that over-approximates
// ∃vars.f. ctx's deadline (if any) is checked between resolution steps, per
// an advisory timeout: the current node finishes before the halt is
// honored. Clauses that mention none of vars pass through unchanged.
func Eliminate(ctx context.Context, f Problem, vars []int, opts ...Option) Problem {
	cfg := defaultConfigs()
	for _, o := range opts {
		o(cfg)
	}
	vset := make(map[int]bool, len(vars))
	for _, v := range vars {
		vset[v] = true
	}

	idx := buildIndex(f.Clauses)
	bud := &budget{ctx: ctx, remaining: cfg.maxClauseTreeSize}

	seen := make(map[string]bool)
	var out []Clause
	emit := func(c Clause) {
		sig := signature(c)
		if seen[sig] {
			return
		}
		seen[sig] = true
		out = append(out, c)
	}

	for _, c := range f.Clauses {
		if !hasVar(c, vset) {
			emit(c)
			continue
		}
		grow(seed{lits: append(Clause(nil), c...), resolver: map[int]int{}}, vset, idx, f.Clauses, bud, emit)
	}
	return Problem{Clauses: out}
}

// grow tries every way of resolving away one of s's V-literals, depth first;
// seeds that run out of V-literals are emitted. A branch that cannot extend
// (no compatible candidate, or the budget is spent) simply contributes
// nothing, which keeps the result an over-approximation: dropping a clause
// only weakens the output, it never wrongly strengthens it.
func grow(s seed, vset map[int]bool, idx literalIndex, clauses []Clause, bud *budget, emit func(Clause)) {
	if bud.expired() {
		return
	}
	bud.remaining--

	pivotLit := 0
	for _, l := range s.lits {
		if vset[absLit(l)] {
			pivotLit = l
			break
		}
	}
	if pivotLit == 0 {
		emit(s.lits)
		return
	}

	for _, ci := range idx[-pivotLit] {
		if bud.expired() {
			return
		}
		resolvent, ok := tryResolve(s, clauses[ci], pivotLit, ci)
		if !ok {
			continue
		}
		grow(resolvent, vset, idx, clauses, bud, emit)
	}
}

// tryResolve resolves seed s against candidate (clause index ci) on
// pivotLit, the standard variable-elimination step: drop pivotLit from s and
// -pivotLit from candidate, union what remains. A literal in candidate whose
// negation is already in that union would make the resolvent a tautology
// (vacuously true, so useless); such a step is rejected unless the
// conflicting variable is one s already eliminated through this very clause
// ci, in which case both literals cancel and the variable is considered
// eliminated again -- the per-literal resolver recovery rule, which lets a
// chain of eliminations fold a reintroduced literal back out instead of
// aborting the whole branch.
func tryResolve(s seed, candidate Clause, pivotLit int, ci int) (seed, bool) {
	union := make(map[int]bool, len(s.lits)+len(candidate))
	for _, l := range s.lits {
		if l != pivotLit {
			union[l] = true
		}
	}
	resolver := make(map[int]int, len(s.resolver)+1)
	for k, v := range s.resolver {
		resolver[k] = v
	}
	resolver[absLit(pivotLit)] = ci

	for _, l := range candidate {
		if l == -pivotLit {
			continue
		}
		if union[l] {
			continue
		}
		if union[-l] {
			v := absLit(l)
			prev, ok := s.resolver[v]
			if !ok || prev != ci {
				return seed{}, false
			}
			delete(union, -l)
			resolver[v] = ci
			continue
		}
		union[l] = true
	}

	next := make(Clause, 0, len(union))
	for l := range union {
		next = append(next, l)
	}
	sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
	return seed{lits: next, resolver: resolver}, true
}
