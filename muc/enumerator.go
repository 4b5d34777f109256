package muc

import (
	"github.com/irifrance/gini"
	"github.com/irifrance/gini/z"
)

// GiniEnumerator is the package's own default Enumerator: a deletion-based
// MUC enumerator over a "map" solver of one selector literal per sub-clause,
// the seed/test/shrink-or-grow loop described by Liffiton & Malik's MARCO
// algorithm, built on the same gini incremental API GiniSolver uses.
type GiniEnumerator struct {
	work *gini.Gini // subs[i].Literals, each guarded by its own selector
	mapS *gini.Gini // candidate-seed search over the selectors alone
	n    int
	sel  []int // dimacs variable number of each sub-clause's selector
}

// NewGiniEnumerator builds the enumerator's map and work solvers from subs.
// firstSelVar must be free of every variable subs or the surrounding
// must-problem already uses (muc.BuildMustProblem's nextVar argument, plus
// however many marker variables it consumed).
func NewGiniEnumerator(subs []SubClause, firstSelVar int) *GiniEnumerator {
	e := &GiniEnumerator{
		work: gini.New(),
		mapS: gini.New(),
		n:    len(subs),
		sel:  make([]int, len(subs)),
	}
	for i, s := range subs {
		sv := firstSelVar + i
		e.sel[i] = sv
		// sel -> clause: (-sel v l1 v l2 v ...)
		e.work.Add(z.Dimacs2Lit(-sv))
		for _, l := range s.Literals {
			e.work.Add(z.Dimacs2Lit(l))
		}
		e.work.Add(z.LitNull)
		// Register sv with the map solver (a tautology constrains nothing)
		// so its Value can be read before any blocking clause mentions it.
		e.mapS.Add(z.Dimacs2Lit(sv))
		e.mapS.Add(z.Dimacs2Lit(-sv))
		e.mapS.Add(z.LitNull)
	}
	return e
}

func (e *GiniEnumerator) testSAT(seed map[int]bool) bool {
	assumps := make([]z.Lit, e.n)
	for i := 0; i < e.n; i++ {
		if seed[i] {
			assumps[i] = z.Dimacs2Lit(e.sel[i])
		} else {
			assumps[i] = z.Dimacs2Lit(-e.sel[i])
		}
	}
	e.work.Assume(assumps...)
	return e.work.Solve() == 1
}

// grow extends seed (already known satisfiable) to a maximal satisfiable
// subset by greedily enabling every still-disabled sub-clause that keeps it
// SAT, and returns the enabled indices.
func (e *GiniEnumerator) grow(seed map[int]bool) []int {
	for i := 0; i < e.n; i++ {
		if seed[i] {
			continue
		}
		seed[i] = true
		if !e.testSAT(seed) {
			seed[i] = false
		}
	}
	var out []int
	for i := 0; i < e.n; i++ {
		if seed[i] {
			out = append(out, i)
		}
	}
	return out
}

// shrink reduces an unsatisfiable seed to an irreducible (minimal)
// unsatisfiable subset by deletion: drop each enabled index in turn, keep
// the drop only if the remainder is still unsatisfiable.
func (e *GiniEnumerator) shrink(seed map[int]bool) []int {
	cur := make(map[int]bool, len(seed))
	for i, v := range seed {
		cur[i] = v
	}
	var enabled []int
	for i := 0; i < e.n; i++ {
		if cur[i] {
			enabled = append(enabled, i)
		}
	}
	for _, i := range enabled {
		cur[i] = false
		if e.testSAT(cur) {
			cur[i] = true // i was necessary to the conflict
		}
	}
	var muc []int
	for i := 0; i < e.n; i++ {
		if cur[i] {
			muc = append(muc, i)
		}
	}
	return muc
}

func (e *GiniEnumerator) blockSet(indices []int, negate bool) {
	if len(indices) == 0 {
		return
	}
	for _, i := range indices {
		if negate {
			e.mapS.Add(z.Dimacs2Lit(-e.sel[i]))
		} else {
			e.mapS.Add(z.Dimacs2Lit(e.sel[i]))
		}
	}
	e.mapS.Add(z.LitNull)
}

// Run seeds the map solver for a candidate subset of sub-clauses, tests it
// against work, and either grows it to a maximal satisfiable subset (its
// complement, once blocked, steers future seeds elsewhere) or shrinks it to
// an irreducible unsatisfiable core and delivers that to cb, blocking it so
// the next map model never repeats the same core. Terminates when the map
// solver has no further candidate seed.
func (e *GiniEnumerator) Run(cb func(muc []int)) {
	for {
		if e.mapS.Solve() != 1 {
			return
		}
		seed := make(map[int]bool, e.n)
		for i := 0; i < e.n; i++ {
			seed[i] = e.mapS.Value(z.Dimacs2Lit(e.sel[i]))
		}
		if e.testSAT(seed) {
			mss := e.grow(seed)
			inMSS := make(map[int]bool, len(mss))
			for _, i := range mss {
				inMSS[i] = true
			}
			var complement []int
			for i := 0; i < e.n; i++ {
				if !inMSS[i] {
					complement = append(complement, i)
				}
			}
			if len(complement) == 0 {
				// The whole sub-clause set is satisfiable; no core exists.
				return
			}
			e.blockSet(complement, false)
		} else {
			muc := e.shrink(seed)
			cb(muc)
			e.blockSet(muc, true)
		}
	}
}

// MarkInconsistent blocks every Cartesian combination Refine identified as
// already-inconsistent, the same clause shape Run uses after delivering a
// MUC, pruning the map solver's remaining search.
func (e *GiniEnumerator) MarkInconsistent(indices []int) {
	e.blockSet(indices, true)
}
