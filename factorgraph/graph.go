// Package factorgraph implements the bipartite function/variable message
// passing engine: function nodes own one or more BDD factors, variable
// nodes own a cube of variables, and an edge connects exactly one of each.
// Nodes and edges live in flat arenas addressed by index, never by pointer,
// and carry born/died generation counters so Rollback can undo a batch of
// mutations made since the last Checkpoint in one pass over the arenas.
package factorgraph

import (
	"fmt"

	"github.com/dalzilio/qbfproj/bdd"
)

// timeInfty marks a node or edge that has never been hidden: it stays live
// for every clock value the graph will ever reach.
const timeInfty = int(^uint(0) >> 1)

// funcNode owns one or more BDD factors (conjoined, conceptually) and the
// cube of variables spanning their joint support.
type funcNode struct {
	id          int
	factors     []bdd.Node
	support     bdd.Node // joint support cube, set when the node is created
	neigh       []int    // edge indices
	born, died  int
	visited     bool
	numMessages int
}

// varNode owns a cube of one or more variables grouped together.
type varNode struct {
	id          int
	cube        bdd.Node
	neigh       []int
	born, died  int
	visited     bool
	numMessages int
}

// edge connects exactly one funcNode to one varNode and carries the two
// messages passed along it.
type edge struct {
	fn, vn     int // indices into Graph.funcs / Graph.vars
	msgFV      bdd.Node
	msgVF      bdd.Node
	born, died int
}

// Graph is the factor graph: the manager handle, the node/edge arenas, and
// the logical clock used for checkpoint/rollback.
type Graph struct {
	m     *bdd.Manager
	funcs []funcNode
	vars  []varNode
	edges []edge
	time  int

	nextFuncID int
	nextVarID  int
	nextEdgeID int
}

func newGraph(m *bdd.Manager) *Graph {
	return &Graph{m: m, time: 0}
}

func (g *Graph) funcLive(n *funcNode) bool { return n.born <= g.time && g.time < n.died }
func (g *Graph) varLive(n *varNode) bool   { return n.born <= g.time && g.time < n.died }
func (g *Graph) edgeLive(e *edge) bool     { return e.born <= g.time && g.time < e.died }

// NumFuncs returns the number of live function nodes.
func (g *Graph) NumFuncs() int {
	n := 0
	for i := range g.funcs {
		if g.funcLive(&g.funcs[i]) {
			n++
		}
	}
	return n
}

// NumVars returns the number of live variable nodes.
func (g *Graph) NumVars() int {
	n := 0
	for i := range g.vars {
		if g.varLive(&g.vars[i]) {
			n++
		}
	}
	return n
}

func (g *Graph) addFuncNode(factors []bdd.Node, support bdd.Node) int {
	idx := len(g.funcs)
	g.funcs = append(g.funcs, funcNode{
		id:      g.nextFuncID,
		factors: factors,
		support: support,
		born:    g.time,
		died:    timeInfty,
	})
	g.nextFuncID++
	return idx
}

func (g *Graph) addVarNode(cube bdd.Node) int {
	idx := len(g.vars)
	g.vars = append(g.vars, varNode{
		id:   g.nextVarID,
		cube: cube,
		born: g.time,
		died: timeInfty,
	})
	g.nextVarID++
	return idx
}

func (g *Graph) addEdge(fn, vn int) int {
	idx := len(g.edges)
	g.edges = append(g.edges, edge{
		fn:    fn,
		vn:    vn,
		msgFV: g.m.True(),
		msgVF: g.m.True(),
		born:  g.time,
		died:  timeInfty,
	})
	g.nextEdgeID++
	g.funcs[fn].neigh = append(g.funcs[fn].neigh, idx)
	g.vars[vn].neigh = append(g.vars[vn].neigh, idx)
	return idx
}

func (g *Graph) hideFunc(idx int) {
	g.funcs[idx].died = g.time
}

func (g *Graph) hideVar(idx int) {
	g.vars[idx].died = g.time
}

func (g *Graph) hideEdge(idx int) {
	g.edges[idx].died = g.time
}

func (g *Graph) unhideFunc(idx int) { g.funcs[idx].died = timeInfty }
func (g *Graph) unhideVar(idx int)  { g.vars[idx].died = timeInfty }
func (g *Graph) unhideEdge(idx int) { g.edges[idx].died = timeInfty }

// liveFuncNeigh returns the live edge indices incident to function node idx.
func (g *Graph) liveFuncNeigh(idx int) []int {
	var res []int
	for _, e := range g.funcs[idx].neigh {
		if g.edgeLive(&g.edges[e]) {
			res = append(res, e)
		}
	}
	return res
}

// liveVarNeigh returns the live edge indices incident to variable node idx.
func (g *Graph) liveVarNeigh(idx int) []int {
	var res []int
	for _, e := range g.vars[idx].neigh {
		if g.edgeLive(&g.edges[e]) {
			res = append(res, e)
		}
	}
	return res
}

func (g *Graph) String() string {
	return fmt.Sprintf("factor graph: %d funcs, %d vars, %d edges (time=%d)",
		g.NumFuncs(), g.NumVars(), len(g.edges), g.time)
}
