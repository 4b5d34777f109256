package factorgraph

// IsConnected reports whether the live graph is a single connected
// component: a BFS from any live function node must reach every other live
// node.
func (g *Graph) IsConnected() bool {
	parts := g.Partition()
	return len(parts) <= 1
}

// Partition splits the live graph into its connected components, returned
// as lists of function-node indices. It works on an already built graph;
// cmd/qbfproj calls it only to log the number of components and converges
// the graph as a whole, so no component is projected on its own.
func (g *Graph) Partition() [][]int {
	seen := make(map[nodeRef]bool)
	var components [][]int

	for start := range g.funcs {
		if !g.funcLive(&g.funcs[start]) {
			continue
		}
		root := nodeRef{kind: kindFunc, idx: start}
		if seen[root] {
			continue
		}
		var comp []int
		queue := []nodeRef{root}
		seen[root] = true
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			if n.kind == kindFunc {
				comp = append(comp, n.idx)
			}
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
				if seen[other] {
					continue
				}
				seen[other] = true
				queue = append(queue, other)
			}
		}
		components = append(components, comp)
	}
	return components
}
