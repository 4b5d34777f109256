// Package merge implements the approximate merger: a graph of
// function-nodes and variable-nodes linked by candidate *mergers*, each
// scored by how much of their combined neighbourhood the pair shares, that
// greedily conjoins the best-scoring pair until no candidate remains within
// budget. A max-heap over candidate pairs is drained one pop at a time,
// each pop producing a merged node whose neighbour and merger lists are
// spliced from its two parents before new candidates against the merged
// node are scored and reinserted.
package merge

import (
	"container/heap"
	"math"

	"github.com/dalzilio/qbfproj/bdd"
)

type nodeKind int

const (
	funcNode nodeKind = iota
	varNode
)

// amNode is one function- or variable-node in the merge graph: its BDD
// value, the set of variable levels it depends on, the opposite-kind nodes
// it is wired to, and the same-kind mergers currently proposing to conjoin
// it with another node of its own kind.
type amNode struct {
	id      int
	kind    nodeKind
	value   bdd.Node
	levels  map[int]bool
	neigh   map[int]bool
	mergers map[int]*amMerger // other node id -> merger linking this node to it
	alive   bool
}

// amMerger is a candidate pair, alive in the heap until it is popped (and
// executed or discarded) or invalidated by one of its endpoints merging
// with something else first.
type amMerger struct {
	n1, n2    int
	score     float64
	heapIndex int
}

type mergerHeap []*amMerger

func (h mergerHeap) Len() int { return len(h) }

func (h mergerHeap) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score > h[j].score
	}
	return pairLess(h[i].n1, h[i].n2, h[j].n1, h[j].n2)
}

func (h mergerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *mergerHeap) Push(x any) {
	m := x.(*amMerger)
	m.heapIndex = len(*h)
	*h = append(*h, m)
}

func (h *mergerHeap) Pop() any {
	old := *h
	n := len(old)
	m := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return m
}

// pairLess breaks compatibility-score ties deterministically: ascending
// pair of node ids, so the merge order never depends on map or heap
// iteration order: ties are implementation-defined but must stay deterministic.
func pairLess(a1, a2, b1, b2 int) bool {
	lo1, hi1 := a1, a2
	if lo1 > hi1 {
		lo1, hi1 = hi1, lo1
	}
	lo2, hi2 := b1, b2
	if lo2 > hi2 {
		lo2, hi2 = hi2, lo2
	}
	if lo1 != lo2 {
		return lo1 < lo2
	}
	return hi1 < hi2
}

type configs struct {
	largestSupportSet int
	largestBDDSize    int
}

// Option configures Merge; see LargestSupportSet and LargestBDDSize.
type Option func(*configs)

func defaultConfigs() *configs {
	return &configs{largestSupportSet: 1 << 30, largestBDDSize: 1 << 30}
}

// LargestSupportSet bounds the number of distinct variables a candidate
// pair's combined neighbourhood may mention; pairs that would exceed it are
// never scored, so they never enter the heap.
func LargestSupportSet(n int) Option {
	return func(c *configs) {
		if n > 0 {
			c.largestSupportSet = n
		}
	}
}

// LargestBDDSize bounds the node count of a function-node merge's resulting
// AND; a func-func pair whose product would exceed it is popped and
// discarded rather than executed, leaving both endpoints unmerged.
func LargestBDDSize(n int) Option {
	return func(c *configs) {
		if n > 0 {
			c.largestBDDSize = n
		}
	}
}

// Result is the merged factor and variable-cube lists, in no particular
// order; callers feed them to factorgraph.New or varelim directly.
type Result struct {
	Factors   []bdd.Node
	Variables []bdd.Node
}

type state struct {
	m     *bdd.Manager
	cfg   *configs
	nodes []*amNode
	heap  mergerHeap
}

func (st *state) addNode(kind nodeKind, value bdd.Node, levels map[int]bool) *amNode {
	n := &amNode{
		id:      len(st.nodes),
		kind:    kind,
		value:   value,
		levels:  levels,
		neigh:   make(map[int]bool),
		mergers: make(map[int]*amMerger),
		alive:   true,
	}
	st.nodes = append(st.nodes, n)
	return n
}

func (st *state) createMerger(a, b *amNode, score float64) {
	mg := &amMerger{n1: a.id, n2: b.id, score: score}
	heap.Push(&st.heap, mg)
	a.mergers[b.id] = mg
	b.mergers[a.id] = mg
}

// compatibility scores a candidate pair as the fraction of the smaller
// node's support shared with the other, provided their combined
// neighbourhood (their own levels plus every opposite-kind neighbour's
// levels) fits the support budget. Mirrors approx_merge.cpp's
// getCompatibility, down to the min(f1Size, f2Size) denominator.
func (st *state) compatibility(a, b *amNode) (float64, bool) {
	combined := unionLevels(a.levels, b.levels)
	for nb := range a.neigh {
		combined = unionLevels(combined, st.nodes[nb].levels)
	}
	for nb := range b.neigh {
		combined = unionLevels(combined, st.nodes[nb].levels)
	}
	if len(combined) > st.cfg.largestSupportSet {
		return 0, false
	}
	common := intersectLevels(a.levels, b.levels)
	minSize := len(a.levels)
	if len(b.levels) < minSize {
		minSize = len(b.levels)
	}
	if minSize == 0 {
		return 0, true
	}
	return float64(len(common)) / float64(minSize), true
}

func unionLevels(a, b map[int]bool) map[int]bool {
	res := make(map[int]bool, len(a)+len(b))
	for l := range a {
		res[l] = true
	}
	for l := range b {
		res[l] = true
	}
	return res
}

func intersectLevels(a, b map[int]bool) map[int]bool {
	res := make(map[int]bool)
	for l := range a {
		if b[l] {
			res[l] = true
		}
	}
	return res
}

func connected(a, b map[int]bool) bool {
	for l := range a {
		if b[l] {
			return true
		}
	}
	return false
}

func levelsOf(m *bdd.Manager, n bdd.Node) (map[int]bool, error) {
	s, err := m.Support(n)
	if err != nil {
		return nil, err
	}
	res := make(map[int]bool, len(s))
	for _, l := range s {
		res[l] = true
	}
	return res, nil
}

// Merge clusters factors and variables under the configured budgets,
// returning the merged factor and variable lists. mandatory lists pairs of
// indices into factors that must be conjoined regardless of score; they are
// scored +Inf so the heap drains them before any discretionary pair.
func Merge(m *bdd.Manager, factors []bdd.Node, variables []bdd.Node, mandatory [][2]int, opts ...Option) (Result, error) {
	cfg := defaultConfigs()
	for _, o := range opts {
		o(cfg)
	}
	st := &state{m: m, cfg: cfg}

	funcs := make([]*amNode, len(factors))
	for i, f := range factors {
		levels, err := levelsOf(m, f)
		if err != nil {
			return Result{}, err
		}
		funcs[i] = st.addNode(funcNode, f, levels)
	}
	vars := make([]*amNode, len(variables))
	for i, v := range variables {
		levels, err := levelsOf(m, v)
		if err != nil {
			return Result{}, err
		}
		vars[i] = st.addNode(varNode, v, levels)
	}

	for _, fn := range funcs {
		for _, vn := range vars {
			if connected(fn.levels, vn.levels) {
				fn.neigh[vn.id] = true
				vn.neigh[fn.id] = true
			}
		}
	}

	forced := make(map[[2]int]bool)
	for _, p := range mandatory {
		if p[0] < 0 || p[0] >= len(funcs) || p[1] < 0 || p[1] >= len(funcs) || p[0] == p[1] {
			continue
		}
		a, b := funcs[p[0]], funcs[p[1]]
		st.createMerger(a, b, math.Inf(1))
		forced[[2]int{a.id, b.id}] = true
		forced[[2]int{b.id, a.id}] = true
	}

	for i := 0; i < len(funcs); i++ {
		for j := i + 1; j < len(funcs); j++ {
			if forced[[2]int{funcs[i].id, funcs[j].id}] {
				continue
			}
			if !connected(funcs[i].levels, funcs[j].levels) {
				continue
			}
			if score, ok := st.compatibility(funcs[i], funcs[j]); ok {
				st.createMerger(funcs[i], funcs[j], score)
			}
		}
	}
	for i := 0; i < len(vars); i++ {
		for j := i + 1; j < len(vars); j++ {
			if score, ok := st.compatibility(vars[i], vars[j]); ok {
				st.createMerger(vars[i], vars[j], score)
			}
		}
	}

	for st.heap.Len() > 0 {
		top := heap.Pop(&st.heap).(*amMerger)
		n1, n2 := st.nodes[top.n1], st.nodes[top.n2]

		merged := m.And(n1.value, n2.value)
		if n1.kind == funcNode && m.Size(merged) > st.cfg.largestBDDSize {
			delete(n1.mergers, n2.id)
			delete(n2.mergers, n1.id)
			continue
		}

		mergedNode := st.addNode(n1.kind, merged, unionLevels(n1.levels, n2.levels))
		for nb := range n1.neigh {
			st.nodes[nb].neigh[mergedNode.id] = true
			delete(st.nodes[nb].neigh, n1.id)
			mergedNode.neigh[nb] = true
		}
		for nb := range n2.neigh {
			st.nodes[nb].neigh[mergedNode.id] = true
			delete(st.nodes[nb].neigh, n2.id)
			mergedNode.neigh[nb] = true
		}

		touched := make(map[int]bool)
		for other, mg := range n1.mergers {
			if other == n2.id {
				continue
			}
			heap.Remove(&st.heap, mg.heapIndex)
			delete(st.nodes[other].mergers, n1.id)
			touched[other] = true
		}
		for other, mg := range n2.mergers {
			if other == n1.id {
				continue
			}
			heap.Remove(&st.heap, mg.heapIndex)
			delete(st.nodes[other].mergers, n2.id)
			touched[other] = true
		}
		n1.alive = false
		n2.alive = false

		for other := range touched {
			oNode := st.nodes[other]
			if !oNode.alive {
				continue
			}
			if score, ok := st.compatibility(mergedNode, oNode); ok {
				st.createMerger(mergedNode, oNode, score)
			}
		}
	}

	var res Result
	for _, n := range st.nodes {
		if !n.alive {
			continue
		}
		if n.kind == funcNode {
			res.Factors = append(res.Factors, n.value)
		} else {
			res.Variables = append(res.Variables, n.value)
		}
	}
	return res, nil
}
