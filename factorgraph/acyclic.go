package factorgraph

import (
	"github.com/dalzilio/qbfproj/bdd"
	"github.com/dalzilio/qbfproj/internal/qerrors"
)

type nodeRef struct {
	kind nodeKind
	idx  int
}

// bfsTree walks the graph from root over live edges and returns, for every
// visited node other than root, the edge index connecting it to its parent,
// plus the visit order (root first). The graph must be acyclic (a tree) for
// every node to get exactly one parent edge; see MakeAcyclic.
func (g *Graph) bfsTree(root nodeRef) (map[nodeRef]int, []nodeRef, error) {
	parent := make(map[nodeRef]int)
	visited := map[nodeRef]bool{root: true}
	order := []nodeRef{root}
	queue := []nodeRef{root}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		var neigh []int
		if n.kind == kindFunc {
			neigh = g.liveFuncNeigh(n.idx)
		} else {
			neigh = g.liveVarNeigh(n.idx)
		}
		for _, ei := range neigh {
			e := g.edges[ei]
			var other nodeRef
			if n.kind == kindFunc {
				other = nodeRef{kind: kindVar, idx: e.vn}
			} else {
				other = nodeRef{kind: kindFunc, idx: e.fn}
			}
			if visited[other] {
				continue
			}
			visited[other] = true
			parent[other] = ei
			order = append(order, other)
			queue = append(queue, other)
		}
	}
	return parent, order, nil
}

// AcyclicMessages performs the leaves-inward sweep exact to a tree factor
// graph and returns the exact projection onto root's own variables: the
// conjunction of root's incoming messages once every other node has sent
// its single message toward root.
func (g *Graph) AcyclicMessages(rootVar int) (bdd.Node, error) {
	root := nodeRef{kind: kindVar, idx: rootVar}
	parent, order, err := g.bfsTree(root)
	if err != nil {
		return nil, err
	}

	// Process leaves-inward: reverse BFS order, skipping the root itself.
	for i := len(order) - 1; i >= 1; i-- {
		n := order[i]
		parentEdge := parent[n]
		if n.kind == kindVar {
			msg := g.m.True()
			for _, ei := range g.liveVarNeigh(n.idx) {
				if ei == parentEdge {
					continue
				}
				msg = g.m.And(msg, g.edges[ei].msgFV)
			}
			g.edges[parentEdge].msgVF = msg
			g.vars[n.idx].numMessages++
		} else {
			msg := g.m.True()
			for _, f := range g.funcs[n.idx].factors {
				msg = g.m.And(msg, f)
			}
			for _, ei := range g.liveFuncNeigh(n.idx) {
				if ei == parentEdge {
					continue
				}
				msg = g.m.And(msg, g.edges[ei].msgVF)
			}
			vi := g.edges[parentEdge].vn
			ssbar, err := g.complementOfVarSupport(vi, msg)
			if err != nil {
				return nil, err
			}
			proj := g.m.Exist(msg, ssbar)
			g.edges[parentEdge].msgFV = proj
			g.funcs[n.idx].numMessages++
		}
		if g.m.Errored() {
			return nil, g.m.Err()
		}
	}

	res := g.m.True()
	for _, ei := range g.liveVarNeigh(rootVar) {
		res = g.m.And(res, g.edges[ei].msgFV)
	}
	if g.m.Errored() {
		return nil, g.m.Err()
	}
	return res, nil
}

// MakeAcyclic breaks every cycle reachable from variable node rootVar by
// BFS: whenever a live edge would revisit an already-visited node (a back
// edge), the function node on that edge is replaced by its universal
// projection onto the back-edge's variables, an under-approximation free of
// those variables, and the back edge itself is hidden. The resulting graph
// is acyclic and AcyclicMessages on it computes an under-approximation of
// the exact projection.
func (g *Graph) MakeAcyclic(rootVar int) error {
	root := nodeRef{kind: kindVar, idx: rootVar}
	visited := map[nodeRef]bool{root: true}
	parentEdge := map[nodeRef]int{root: -1}
	queue := []nodeRef{root}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		var neigh []int
		if n.kind == kindFunc {
			neigh = g.liveFuncNeigh(n.idx)
		} else {
			neigh = g.liveVarNeigh(n.idx)
		}
		for _, ei := range neigh {
			if ei == parentEdge[n] {
				continue
			}
			e := g.edges[ei]
			var other nodeRef
			if n.kind == kindFunc {
				other = nodeRef{kind: kindVar, idx: e.vn}
			} else {
				other = nodeRef{kind: kindFunc, idx: e.fn}
			}
			if visited[other] {
				// Back edge: under-approximate the function node free of
				// the variable node's own variables, then sever the edge.
				fi, vi := e.fn, e.vn
				cube := g.vars[vi].cube
				scan, err := g.m.Scanset(cube)
				if err != nil {
					return err
				}
				for k, f := range g.funcs[fi].factors {
					g.funcs[fi].factors[k] = forallProject(g.m, f, scan)
				}
				g.hideEdge(ei)
				continue
			}
			visited[other] = true
			parentEdge[other] = ei
			queue = append(queue, other)
		}
	}
	return nil
}

func forallProject(m *bdd.Manager, f bdd.Node, levels []int) bdd.Node {
	return m.Forall(f, m.Makeset(levels))
}

// ErrNotATree is the error kind for a live graph that still has a cycle
// where a tree is expected. No function in this module returns it.
var ErrNotATree = qerrors.Wrap(qerrors.ErrAssertion, "factor graph is not acyclic")
