package factorgraph

// GroupVars replaces every live variable node whose cube intersects vars
// with a single variable node whose cube is their union, re-wiring each
// function node to have at most one edge to the merged node. This is how
// the driver models "project onto the joint of these variables" before
// convergence.
func (g *Graph) GroupVars(vars []int) error {
	varSet := make(map[int]bool, len(vars))
	for _, l := range vars {
		varSet[l] = true
	}

	var toMerge []int
	for i := range g.vars {
		if !g.varLive(&g.vars[i]) {
			continue
		}
		scan, err := g.m.Scanset(g.vars[i].cube)
		if err != nil {
			return err
		}
		for _, l := range scan {
			if varSet[l] {
				toMerge = append(toMerge, i)
				break
			}
		}
	}
	if len(toMerge) <= 1 {
		return nil
	}

	union := g.m.True()
	funcNeigh := make(map[int]bool) // func node indices that had an edge to any merged var
	for _, vi := range toMerge {
		union = g.m.And(union, g.vars[vi].cube)
		for _, ei := range g.liveVarNeigh(vi) {
			funcNeigh[g.edges[ei].fn] = true
			g.hideEdge(ei)
		}
		g.hideVar(vi)
	}
	if g.m.Errored() {
		return g.m.Err()
	}

	newVar := g.addVarNode(union)
	for fi := range funcNeigh {
		g.addEdge(fi, newVar)
	}
	return nil
}
