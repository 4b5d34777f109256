// Package cnf implements the CNF<->BDD codec: a Tseytin encoder that
// turns a set of BDD factors into a DIMACS clause set, and the reverse
// QDIMACS-to-BDD map used to seed the projection pipeline. The encoder
// follows the add-a-variable-per-gate pattern of gini's logic.C.ToCnf;
// the reverse map keys conjoined clause BDDs by sorted literal signature.
package cnf

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/dalzilio/qbfproj/bdd"
	"github.com/dalzilio/qbfproj/qdimacs"
)

// Problem is the QDIMACS-to-BDD map: a problem's variable count, its
// quantifier prefix, and a map from each clause's sorted-literal signature
// to the BDD it denotes (clauses sharing a signature are conjoined once).
// Owned by the driver; its BDDs are released when the output CNF has been
// emitted.
type Problem struct {
	NumVars int
	Prefix  []qdimacs.Block
	Clauses map[string]bdd.Node
}

// clauseKey canonicalizes a clause's literals into a stable map key:
// sorted, so permutations of the same clause collide.
func clauseKey(lits []int) string {
	sorted := append([]int(nil), lits...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, l := range sorted {
		parts[i] = strconv.Itoa(l)
	}
	return strings.Join(parts, ",")
}

// BuildProblem turns a parsed QDIMACS document into per-clause BDDs, one
// manager-backed node per distinct clause signature, using m's existing
// variable set (indices 1..NumVars map to BDD levels 0..NumVars-1).
func BuildProblem(m *bdd.Manager, p *qdimacs.Problem) (*Problem, error) {
	out := &Problem{
		NumVars: p.NumVars,
		Prefix:  p.Prefix,
		Clauses: make(map[string]bdd.Node, len(p.Clauses)),
	}
	for _, c := range p.Clauses {
		key := clauseKey(c)
		if _, ok := out.Clauses[key]; ok {
			continue
		}
		n, err := clauseToBDD(m, c)
		if err != nil {
			return nil, err
		}
		out.Clauses[key] = n
	}
	return out, nil
}

// ClauseToBDD builds the disjunction-of-literals BDD for one DIMACS clause,
// exported for callers (muc's refinement loop) that need to turn a freshly
// derived blocking clause back into a BDD conjunct.
func ClauseToBDD(m *bdd.Manager, lits []int) (bdd.Node, error) {
	return clauseToBDD(m, lits)
}

func clauseToBDD(m *bdd.Manager, lits []int) (bdd.Node, error) {
	res := m.False()
	for _, l := range lits {
		v := l
		if v < 0 {
			v = -v
		}
		lit := m.Ithvar(v - 1)
		if l < 0 {
			lit = m.Not(lit)
		}
		res = m.Or(res, lit)
		if m.Errored() {
			return nil, m.Err()
		}
	}
	return res, nil
}

// Factors returns the problem's clause BDDs in a stable order (by
// signature), the shape factorgraph and merge expect for construction.
func (p *Problem) Factors() []bdd.Node {
	keys := make([]string, 0, len(p.Clauses))
	for k := range p.Clauses {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	res := make([]bdd.Node, len(keys))
	for i, k := range keys {
		res[i] = p.Clauses[k]
	}
	return res
}

// tseytin holds the fresh-variable bookkeeping for the Tseytin pass: each
// BDD node id is memoized to the positive CNF variable that denotes it, so
// sharing in the BDD becomes sharing of Tseytin variables instead of
// duplicated clauses.
type tseytin struct {
	m        *bdd.Manager
	quant    map[int]bool // level -> true if existentially quantified at this encoding
	nextVar  int
	node2lit map[int]int // keyed by node id (*n), not by Node pointer identity
	clauses  [][]int
}

func newTseytin(m *bdd.Manager, firstFreeVar int, quantified []int) *tseytin {
	q := make(map[int]bool, len(quantified))
	for _, v := range quantified {
		q[v] = true
	}
	return &tseytin{
		m:        m,
		quant:    q,
		nextVar:  firstFreeVar,
		node2lit: make(map[int]int),
	}
}

func (t *tseytin) fresh() int {
	v := t.nextVar
	t.nextVar++
	return v
}

// encode returns the Tseytin literal for n, creating fresh clauses for any
// node visited for the first time. The two constants get a fresh variable
// pinned by a unit clause, so the ITE clauses below never need a special
// case for a terminal branch.
func (t *tseytin) encode(n bdd.Node) (int, error) {
	id := *n
	if lit, ok := t.node2lit[id]; ok {
		return lit, nil
	}
	if t.m.Equal(n, t.m.True()) {
		r := t.fresh()
		t.clauses = append(t.clauses, []int{r})
		t.node2lit[id] = r
		return r, nil
	}
	if t.m.Equal(n, t.m.False()) {
		r := t.fresh()
		t.clauses = append(t.clauses, []int{-r})
		t.node2lit[id] = r
		return r, nil
	}
	lo := t.m.Low(n)
	hi := t.m.High(n)
	tlit, err := t.encode(hi)
	if err != nil {
		return 0, err
	}
	elit, err := t.encode(lo)
	if err != nil {
		return 0, err
	}
	vlevel := int(nodeLevel(t.m, n))
	v := vlevel + 1 // DIMACS variables are 1-based; BDD levels are 0-based
	r := t.fresh()

	if t.quant[vlevel] {
		// Dropping v: r <-> (t OR e), three clauses.
		t.clauses = append(t.clauses,
			[]int{-r, tlit, elit},
			[]int{r, -tlit},
			[]int{r, -elit},
		)
	} else {
		t.clauses = append(t.clauses,
			[]int{-r, -v, tlit},
			[]int{-r, v, elit},
			[]int{r, v, -elit},
			[]int{r, -v, -tlit},
		)
	}
	t.node2lit[id] = r
	return r, err
}

func nodeLevel(m *bdd.Manager, n bdd.Node) int32 {
	return m.Level(n)
}

// Encode writes a DIMACS CNF file whose models are exactly
// `over ∧ ¬under` for the given over-approximation and (optional)
// under-approximation BDD sets, dropping the quantified variables per the
// Tseytin rule above. indepVars lists the free (non-quantified) variables
// to declare via the `c ind` comment.
func Encode(w io.Writer, m *bdd.Manager, over, under []bdd.Node, quantified []int, firstFreeVar int, indepVars []int) error {
	clauses, numVars, err := BuildClauses(m, over, under, quantified, firstFreeVar)
	if err != nil {
		return err
	}
	return writeCNF(w, numVars, clauses, indepVars)
}

// BuildClauses computes the same Tseytin-encoded DIMACS clause set Encode
// writes to disk, without the I/O: the shape muc.Refine's Solver needs to
// test an assignment's consistency against an over-approximation directly,
// rather than round-tripping through a file.
func BuildClauses(m *bdd.Manager, over, under []bdd.Node, quantified []int, firstFreeVar int) ([][]int, int, error) {
	t := newTseytin(m, firstFreeVar, quantified)

	var overLits, underLits []int
	for _, n := range over {
		if m.Equal(n, m.False()) {
			// over is unsatisfiable: emit an immediately-false problem.
			return [][]int{{}}, firstFreeVar - 1, nil
		}
		if m.Equal(n, m.True()) {
			continue
		}
		lit, err := t.encode(n)
		if err != nil {
			return nil, 0, err
		}
		overLits = append(overLits, lit)
	}
	for _, n := range under {
		if m.Equal(n, m.False()) {
			continue
		}
		if m.Equal(n, m.True()) {
			// under is trivially true: over AND NOT(true) is unsat.
			return [][]int{{}}, firstFreeVar - 1, nil
		}
		lit, err := t.encode(n)
		if err != nil {
			return nil, 0, err
		}
		underLits = append(underLits, lit)
	}

	clauses := append([][]int(nil), t.clauses...)
	for _, l := range overLits {
		clauses = append(clauses, []int{l})
	}
	if len(underLits) > 0 {
		neg := make([]int, len(underLits))
		for i, l := range underLits {
			neg[i] = -l
		}
		clauses = append(clauses, neg)
	}
	return clauses, t.nextVar - 1, nil
}

func writeCNF(w io.Writer, numVars int, clauses [][]int, indepVars []int) error {
	bw := bufio.NewWriter(w)
	if len(indepVars) > 0 {
		parts := make([]string, len(indepVars))
		for i, v := range indepVars {
			parts[i] = strconv.Itoa(v)
		}
		if _, err := fmt.Fprintf(bw, "c ind %s 0\n", strings.Join(parts, " ")); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(bw, "p cnf %d %d\n", numVars, len(clauses)); err != nil {
		return err
	}
	for _, c := range clauses {
		parts := make([]string, len(c))
		for i, l := range c {
			parts[i] = strconv.Itoa(l)
		}
		if _, err := fmt.Fprintf(bw, "%s 0\n", strings.Join(parts, " ")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Decode rebuilds the BDD denoted by a DIMACS clause set, the reverse
// direction of Encode: every clause becomes a disjunction of literals, and
// the whole set a conjunction of clauses, the same construction
// BuildProblem uses to seed its clause map in the first place.
// firstFreeVar marks the boundary between the
// problem's real variables and the fresh Tseytin variables Encode
// introduced (1-based, same value passed to Encode); those fresh variables
// are existentially quantified away before the BDD is returned, so
// Decode(Encode(B)) reconstructs B itself rather than a Tseytin-expanded
// equisatisfiable relation over a larger variable set.
func Decode(m *bdd.Manager, clauses [][]int, firstFreeVar int) (bdd.Node, error) {
	res := m.True()
	tseytinVars := make(map[int]bool)
	for _, c := range clauses {
		n, err := clauseToBDD(m, c)
		if err != nil {
			return nil, err
		}
		res = m.And(res, n)
		if m.Errored() {
			return nil, m.Err()
		}
		for _, l := range c {
			v := l
			if v < 0 {
				v = -v
			}
			if v >= firstFreeVar {
				tseytinVars[v-1] = true // Level is 0-based, l is 1-based
			}
		}
	}
	if len(tseytinVars) == 0 {
		return res, nil
	}
	levels := make([]int, 0, len(tseytinVars))
	for lv := range tseytinVars {
		levels = append(levels, lv)
	}
	sort.Ints(levels)
	cube := m.Makeset(levels)
	out := m.Exist(res, cube)
	if m.Errored() {
		return nil, m.Err()
	}
	return out, nil
}
