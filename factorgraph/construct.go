package factorgraph

import "github.com/dalzilio/qbfproj/bdd"

// New builds a factor graph from a sequence of factor BDDs: one function
// node per factor, one variable node per distinct variable in their joint
// support, and an edge between a function node and a variable node
// whenever the variable appears in the factor's support.
func New(m *bdd.Manager, factors []bdd.Node) (*Graph, error) {
	g := newGraph(m)
	g.time = 1

	support, err := m.VectorSupport(factors...)
	if err != nil {
		return nil, err
	}

	varNodeOf := make(map[int]int, len(support)) // level -> index into g.vars
	for _, lvl := range support {
		cube := m.Makeset([]int{lvl})
		if cube == nil {
			return nil, m.Err()
		}
		varNodeOf[lvl] = g.addVarNode(cube)
	}

	for _, f := range factors {
		fsupport, err := m.Support(f)
		if err != nil {
			return nil, err
		}
		supportCube := m.True()
		for _, lvl := range fsupport {
			supportCube = m.And(supportCube, m.Ithvar(lvl))
		}
		fi := g.addFuncNode([]bdd.Node{f}, supportCube)
		for _, lvl := range fsupport {
			g.addEdge(fi, varNodeOf[lvl])
		}
	}
	return g, nil
}

// AddFactor extends the graph with one more function node for f, wiring it
// to existing (or freshly created) variable nodes for every variable in its
// support.
func (g *Graph) AddFactor(f bdd.Node) error {
	fsupport, err := g.m.Support(f)
	if err != nil {
		return err
	}
	supportCube := g.m.True()
	for _, lvl := range fsupport {
		supportCube = g.m.And(supportCube, g.m.Ithvar(lvl))
	}
	fi := g.addFuncNode([]bdd.Node{f}, supportCube)
	for _, lvl := range fsupport {
		vi := g.findOrCreateVarNode(lvl)
		g.addEdge(fi, vi)
	}
	return nil
}

func (g *Graph) findOrCreateVarNode(lvl int) int {
	if vi, ok := g.VarNodeForLevel(lvl); ok {
		return vi
	}
	return g.addVarNode(g.m.Makeset([]int{lvl}))
}

// VarNodeForLevel returns the index of the live variable node whose cube
// mentions level lvl, if any. Exported so drivers that build a graph over a
// subset of a larger problem (varelim's local over-approximation instance,
// for instance) can look up the node carrying a particular variable without
// re-deriving the construction order.
func (g *Graph) VarNodeForLevel(lvl int) (int, bool) {
	for i := range g.vars {
		if !g.varLive(&g.vars[i]) {
			continue
		}
		scan, err := g.m.Scanset(g.vars[i].cube)
		if err != nil {
			continue
		}
		for _, l := range scan {
			if l == lvl {
				return i, true
			}
		}
	}
	return 0, false
}
