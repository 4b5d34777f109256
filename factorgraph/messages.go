package factorgraph

import "github.com/dalzilio/qbfproj/bdd"

// ResetMessages sets every live edge's two messages back to True, the state
// Converge starts a fresh round from.
func (g *Graph) ResetMessages() {
	for i := range g.edges {
		if !g.edgeLive(&g.edges[i]) {
			continue
		}
		g.edges[i].msgFV = g.m.True()
		g.edges[i].msgVF = g.m.True()
	}
}

// varNodePassMessages recomputes node vi's outgoing (var-to-func) messages
// from the conjunction of its incoming (func-to-var) messages, queuing any
// neighbour whose message actually changed.
func (g *Graph) varNodePassMessages(vi int, queue *[]queued) error {
	andAll := g.m.True()
	for _, ei := range g.liveVarNeigh(vi) {
		andAll = g.m.And(andAll, g.edges[ei].msgFV)
	}
	if g.m.Errored() {
		return g.m.Err()
	}
	for _, ei := range g.liveVarNeigh(vi) {
		newOut := g.m.And(andAll, g.edges[ei].msgVF)
		if !g.m.Equal(newOut, g.edges[ei].msgVF) {
			g.edges[ei].msgVF = newOut
			fi := g.edges[ei].fn
			if !g.funcs[fi].visited {
				g.funcs[fi].visited = true
				*queue = append(*queue, queued{kind: kindFunc, idx: fi})
			}
		}
	}
	return nil
}

// funcNodePassMessages recomputes node fi's outgoing (func-to-var) messages:
// conjoin its own factors and all incoming var-to-func messages, then
// project that conjunction onto each neighbour's support via AndExist.
func (g *Graph) funcNodePassMessages(fi int, queue *[]queued) error {
	andAll := g.m.True()
	for _, ei := range g.liveFuncNeigh(fi) {
		andAll = g.m.And(andAll, g.edges[ei].msgVF)
	}
	for _, f := range g.funcs[fi].factors {
		andAll = g.m.And(andAll, f)
	}
	if g.m.Errored() {
		return g.m.Err()
	}
	for _, ei := range g.liveFuncNeigh(fi) {
		vi := g.edges[ei].vn
		ssbar, err := g.complementOfVarSupport(vi, andAll, g.edges[ei].msgFV)
		if err != nil {
			return err
		}
		newOut := g.m.AndExist(andAll, g.edges[ei].msgFV, ssbar)
		if g.m.Errored() {
			return g.m.Err()
		}
		if !g.m.Equal(newOut, g.edges[ei].msgFV) {
			g.edges[ei].msgFV = newOut
			if !g.vars[vi].visited {
				g.vars[vi].visited = true
				*queue = append(*queue, queued{kind: kindVar, idx: vi})
			}
		}
	}
	return nil
}

// complementOfVarSupport returns the cube of every variable in the joint
// support of msgs that is not one of var node vi's own variables: the
// existentially-quantified set used to project a message onto vi's cube.
func (g *Graph) complementOfVarSupport(vi int, msgs ...bdd.Node) (bdd.Node, error) {
	support, err := g.m.VectorSupport(msgs...)
	if err != nil {
		return nil, err
	}
	own, err := g.m.Scanset(g.vars[vi].cube)
	if err != nil {
		return nil, err
	}
	ownSet := make(map[int]bool, len(own))
	for _, l := range own {
		ownSet[l] = true
	}
	var diff []int
	for _, l := range support {
		if !ownSet[l] {
			diff = append(diff, l)
		}
	}
	return g.m.Makeset(diff), nil
}

type nodeKind int

const (
	kindFunc nodeKind = iota
	kindVar
)

type queued struct {
	kind nodeKind
	idx  int
}

// Converge runs the full cyclic message-passing loop to a fixpoint: seed the
// queue with every function node, alternate var/func updates until no
// message changes, and return the number of full passes observed.
func (g *Graph) Converge() (int, error) {
	if len(g.edges) == 0 {
		return 0, nil
	}
	g.ResetMessages()

	var queue []queued
	for i := range g.funcs {
		if g.funcLive(&g.funcs[i]) {
			g.funcs[i].visited = true
			queue = append(queue, queued{kind: kindFunc, idx: i})
		}
	}
	for i := range g.vars {
		g.vars[i].visited = false
	}
	if len(queue) == 0 {
		return 0, nil
	}

	curKind := kindFunc
	iter := 1
	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]
		if q.kind != curKind {
			curKind = q.kind
			iter++
		}
		var err error
		if q.kind == kindVar {
			g.vars[q.idx].visited = false
			err = g.varNodePassMessages(q.idx, &queue)
		} else {
			g.funcs[q.idx].visited = false
			err = g.funcNodePassMessages(q.idx, &queue)
		}
		if err != nil {
			return 0, err
		}
	}
	return iter, nil
}

// IncomingMessages returns the func-to-var message carried by every live
// edge incident to variable node vi. The caller conjoins these to get the
// over-approximation of the existential projection onto vi's own variables
// (every other variable quantified out).
func (g *Graph) IncomingMessages(vi int) []bdd.Node {
	var res []bdd.Node
	for _, ei := range g.liveVarNeigh(vi) {
		res = append(res, g.edges[ei].msgFV)
	}
	return res
}
