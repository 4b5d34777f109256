package factorgraph

import (
	"bufio"
	"fmt"
	"io"
)

// WriteDot emits the live graph in Graphviz dot format, mirroring
// bdd.Manager.PrintDot's shape: one line per node, one edge per live
// function-variable connection.
func (g *Graph) WriteDot(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, "graph {"); err != nil {
		return err
	}
	for i := range g.funcs {
		if !g.funcLive(&g.funcs[i]) {
			continue
		}
		if _, err := fmt.Fprintf(bw, "  f%d [shape=box];\n", g.funcs[i].id); err != nil {
			return err
		}
	}
	for i := range g.vars {
		if !g.varLive(&g.vars[i]) {
			continue
		}
		if _, err := fmt.Fprintf(bw, "  v%d;\n", g.vars[i].id); err != nil {
			return err
		}
	}
	for i := range g.edges {
		if !g.edgeLive(&g.edges[i]) {
			continue
		}
		e := g.edges[i]
		if _, err := fmt.Fprintf(bw, "  f%d -- v%d;\n", g.funcs[e.fn].id, g.vars[e.vn].id); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(bw, "}"); err != nil {
		return err
	}
	return bw.Flush()
}
