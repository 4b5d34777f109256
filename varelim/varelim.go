// Package varelim implements the var-score eliminator: an alternative
// driver to factorgraph's message passing that maintains a live factor set F
// and a set of variables Q still to project out, repeatedly eliminating the
// cheapest available variable as ranked by the summed size of the factors
// that mention it.
package varelim

import (
	"sort"

	"github.com/dalzilio/qbfproj/bdd"
	"github.com/dalzilio/qbfproj/factorgraph"
)

// Approximation selects the fallback used when delaying a variable's
// quantification would exceed the configured BDD-size budget.
type Approximation int

const (
	// UnderApprox quantifies the variable out of one factor only, dropping
	// its constraint against the other factors that still mention it.
	UnderApprox Approximation = iota
	// OverApprox hands every factor touching the variable to a local
	// factor graph and splices in its converged messages instead.
	OverApprox
)

type configs struct {
	maxBDDSize int
}

// Option configures Eliminate; see MaxBDDSize.
type Option func(*configs)

func defaultConfigs() *configs {
	return &configs{maxBDDSize: 1 << 30}
}

// MaxBDDSize bounds the predicted size of a delayed T1∧T2 conjunction;
// crossing it triggers the configured Approximation fallback instead of the
// exact delay.
func MaxBDDSize(n int) Option {
	return func(c *configs) {
		if n >= 0 {
			c.maxBDDSize = n
		}
	}
}

// Eliminate projects every variable in vars out of factors, one variable per
// step, until none remain. At each step: a variable that occurs in exactly
// one factor is quantified out immediately; otherwise the lowest-scoring
// variable (summed factor size) is chosen and its two smallest factors are
// either combined exactly (if they are its only occurrences) or delayed
// (conjoined, quantification deferred) unless delaying would exceed
// MaxBDDSize, in which case approx selects the fallback.
func Eliminate(m *bdd.Manager, factors []bdd.Node, vars []int, approx Approximation, opts ...Option) ([]bdd.Node, error) {
	cfg := defaultConfigs()
	for _, o := range opts {
		o(cfg)
	}
	fs := append([]bdd.Node(nil), factors...)
	q := append([]int(nil), vars...)

	for len(q) > 0 {
		occ, err := occurrencesAll(m, fs, q)
		if err != nil {
			return nil, err
		}

		// A variable no factor mentions is already eliminated.
		for i := 0; i < len(q); {
			if len(occ[q[i]]) == 0 {
				q = removeAt(q, i)
				continue
			}
			i++
		}
		if len(q) == 0 {
			break
		}

		if single, idx, ok := singleOccurrence(q, occ); ok {
			cube := m.Makeset([]int{q[single]})
			fs[idx] = m.Exist(fs[idx], cube)
			if m.Errored() {
				return nil, m.Err()
			}
			q = removeAt(q, single)
			continue
		}

		bestPos := 0
		bestScore := score(m, fs, occ[q[0]])
		for i := 1; i < len(q); i++ {
			s := score(m, fs, occ[q[i]])
			if s < bestScore {
				bestPos, bestScore = i, s
			}
		}
		bestVar := q[bestPos]
		indices := occ[bestVar]
		i1, i2 := twoSmallest(m, fs, indices)

		if len(indices) == 2 {
			cube := m.Makeset([]int{bestVar})
			merged := m.AndExist(fs[i1], fs[i2], cube)
			if m.Errored() {
				return nil, m.Err()
			}
			fs = replaceTwo(fs, i1, i2, merged)
			q = removeAt(q, bestPos)
			continue
		}

		cand := m.And(fs[i1], fs[i2])
		if m.Errored() {
			return nil, m.Err()
		}
		if m.Size(cand) <= cfg.maxBDDSize {
			fs = replaceTwo(fs, i1, i2, cand)
			continue
		}

		switch approx {
		case UnderApprox:
			cube := m.Makeset([]int{bestVar})
			fs[i1] = m.Exist(fs[i1], cube)
			if m.Errored() {
				return nil, m.Err()
			}
		case OverApprox:
			local := make([]bdd.Node, len(indices))
			for k, idx := range indices {
				local[k] = fs[idx]
			}
			replacement, err := overApproxStep(m, local, bestVar)
			if err != nil {
				return nil, err
			}
			fs = replaceMany(fs, indices, replacement)
			q = removeAt(q, bestPos)
		}
	}
	return fs, nil
}

// overApproxStep builds a factor graph over exactly the factors mentioning
// qLevel, converges it, and returns one replacement factor per other
// variable: the conjunction of that variable's converged incoming messages.
// Per factorgraph's own invariant (the exact projection onto a variable
// node's cube implies every incoming message), each replacement factor is
// implied by the exact projection and mentions qLevel nowhere: the factors
// feeding q's elimination shrink to a variable's own neighbourhood instead
// of the full joint support.
func overApproxStep(m *bdd.Manager, localFactors []bdd.Node, qLevel int) ([]bdd.Node, error) {
	g, err := factorgraph.New(m, localFactors)
	if err != nil {
		return nil, err
	}
	if _, err := g.Converge(); err != nil {
		return nil, err
	}
	levels, err := m.VectorSupport(localFactors...)
	if err != nil {
		return nil, err
	}
	var out []bdd.Node
	for _, lvl := range levels {
		if lvl == qLevel {
			continue
		}
		vi, ok := g.VarNodeForLevel(lvl)
		if !ok {
			continue
		}
		msgs := g.IncomingMessages(vi)
		if len(msgs) == 0 {
			continue
		}
		factor := m.True()
		for _, msg := range msgs {
			factor = m.And(factor, msg)
		}
		out = append(out, factor)
	}
	return out, nil
}

func occurrencesAll(m *bdd.Manager, fs []bdd.Node, q []int) (map[int][]int, error) {
	qset := make(map[int]bool, len(q))
	for _, v := range q {
		qset[v] = true
	}
	occ := make(map[int][]int, len(q))
	for i, f := range fs {
		sup, err := m.Support(f)
		if err != nil {
			return nil, err
		}
		for _, l := range sup {
			if qset[l] {
				occ[l] = append(occ[l], i)
			}
		}
	}
	return occ, nil
}

func singleOccurrence(q []int, occ map[int][]int) (int, int, bool) {
	for i, v := range q {
		if len(occ[v]) == 1 {
			return i, occ[v][0], true
		}
	}
	return 0, 0, false
}

func score(m *bdd.Manager, fs []bdd.Node, idxs []int) int {
	total := 0
	for _, i := range idxs {
		total += m.Size(fs[i])
	}
	return total
}

// twoSmallest returns the two indices (into fs) from idxs with the smallest
// BDD size, the T1, T2 budgets of the elimination step.
func twoSmallest(m *bdd.Manager, fs []bdd.Node, idxs []int) (int, int) {
	sorted := append([]int(nil), idxs...)
	sort.Slice(sorted, func(a, b int) bool { return m.Size(fs[sorted[a]]) < m.Size(fs[sorted[b]]) })
	return sorted[0], sorted[1]
}

func replaceTwo(fs []bdd.Node, i1, i2 int, merged bdd.Node) []bdd.Node {
	if i1 > i2 {
		i1, i2 = i2, i1
	}
	out := make([]bdd.Node, 0, len(fs)-1)
	for i, f := range fs {
		if i == i1 || i == i2 {
			continue
		}
		out = append(out, f)
	}
	return append(out, merged)
}

func replaceMany(fs []bdd.Node, indices []int, replacement []bdd.Node) []bdd.Node {
	removed := make(map[int]bool, len(indices))
	for _, i := range indices {
		removed[i] = true
	}
	out := make([]bdd.Node, 0, len(fs)-len(indices)+len(replacement))
	for i, f := range fs {
		if removed[i] {
			continue
		}
		out = append(out, f)
	}
	return append(out, replacement...)
}

func removeAt(q []int, i int) []int {
	out := append([]int(nil), q[:i]...)
	return append(out, q[i+1:]...)
}
