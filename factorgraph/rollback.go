package factorgraph

// Checkpoint advances the logical clock, so every mutation from this point
// on can be undone in one Rollback call.
func (g *Graph) Checkpoint() {
	g.time++
}

// Rollback undoes every mutation recorded since the matching Checkpoint:
// anything hidden at the current time is revived, anything born at the
// current time is deleted outright, then the clock steps back. It walks
// every node and edge and rebuilds the three arenas without the deleted
// entries, so its cost is linear in the size of the graph.
func (g *Graph) Rollback() {
	for i := range g.funcs {
		if g.funcs[i].born < g.time && g.funcs[i].died == g.time {
			g.unhideFunc(i)
		}
	}
	for i := range g.vars {
		if g.vars[i].born < g.time && g.vars[i].died == g.time {
			g.unhideVar(i)
		}
	}
	for i := range g.edges {
		if g.edges[i].born < g.time && g.edges[i].died == g.time {
			g.unhideEdge(i)
		}
	}

	oldToNewFunc := make(map[int]int, len(g.funcs))
	keepFuncs := make([]funcNode, 0, len(g.funcs))
	for oldIdx, n := range g.funcs {
		if n.born == g.time {
			continue
		}
		oldToNewFunc[oldIdx] = len(keepFuncs)
		n.neigh = nil
		keepFuncs = append(keepFuncs, n)
	}
	g.funcs = keepFuncs

	oldToNewVar := make(map[int]int, len(g.vars))
	keepVars := make([]varNode, 0, len(g.vars))
	for oldIdx, n := range g.vars {
		if n.born == g.time {
			continue
		}
		oldToNewVar[oldIdx] = len(keepVars)
		n.neigh = nil
		keepVars = append(keepVars, n)
	}
	g.vars = keepVars

	keepEdges := make([]edge, 0, len(g.edges))
	for _, e := range g.edges {
		if e.born == g.time {
			continue
		}
		e.fn = oldToNewFunc[e.fn]
		e.vn = oldToNewVar[e.vn]
		keepEdges = append(keepEdges, e)
	}
	g.edges = keepEdges

	for ei, e := range g.edges {
		g.funcs[e.fn].neigh = append(g.funcs[e.fn].neigh, ei)
		g.vars[e.vn].neigh = append(g.vars[e.vn].neigh, ei)
	}

	g.time--
}
