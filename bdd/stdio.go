// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

import (
	"bufio"
	"fmt"
	"io"
	"reflect"
)

// Stats returns a human-readable report about the internal state of the
// manager: node table occupancy, garbage collection history and operation
// cache hit rates.
func (b *Manager) Stats() string {
	res := fmt.Sprintf("== Manager (%d vars)\n", b.varnum)
	res += fmt.Sprintf(" Nodes: %d (%s)\n", len(b.nodes), humanSize(len(b.nodes), reflect.TypeOf(ddnode{}).Size()))
	res += fmt.Sprintf(" Free: %d\n", b.freenum)
	res += fmt.Sprintf(" Produced: %d\n", b.produced)
	res += fmt.Sprintf(" Garbage collections: %d\n", len(b.gcstat.history))
	if b.gcstat.uniqueAccess > 0 {
		res += fmt.Sprintf(" Unique table: %d accesses, %d hits, %d miss\n",
			b.gcstat.uniqueAccess, b.gcstat.uniqueHit, b.gcstat.uniqueMiss)
	}
	res += b.applycache.String()
	res += b.itecache.String()
	res += b.quantcache.String()
	res += b.appexcache.String()
	res += b.replacecache.String()
	res += b.multicache.String()
	return res
}

func humanSize(n int, elemSize uintptr) string {
	size := float64(n) * float64(elemSize)
	units := []string{"B", "KB", "MB", "GB"}
	k := 0
	for size >= 1024 && k < len(units)-1 {
		size /= 1024
		k++
	}
	return fmt.Sprintf("%.1f%s", size, units[k])
}

// PrintSet writes the set of satisfying assignments of n, one per line, to
// w. Free variables (those that do not appear on any path to the constant
// true) are printed as '-'.
func (b *Manager) PrintSet(w io.Writer, n Node) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	err := b.Allsat(n, func(assign []int8) bool {
		for _, v := range assign {
			switch v {
			case -1:
				fmt.Fprint(bw, "-")
			case 0:
				fmt.Fprint(bw, "0")
			case 1:
				fmt.Fprint(bw, "1")
			}
		}
		fmt.Fprintln(bw)
		return true
	})
	return err
}

// PrintDot writes n (or the whole manager, if no root is given) to w in the
// Graphviz dot format.
func (b *Manager) PrintDot(w io.Writer, n ...Node) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	fmt.Fprintln(bw, "digraph G {")
	fmt.Fprintln(bw, " 0 [shape=box, label=\"0\", style=filled, shape=box, height=0.3, width=0.3];")
	fmt.Fprintln(bw, " 1 [shape=box, label=\"1\", style=filled, shape=box, height=0.3, width=0.3];")
	err := b.Allnodes(func(id, level, low, high int) error {
		if id < 2 {
			return nil
		}
		fmt.Fprintf(bw, " %d [label=\"%d\"];\n", id, level)
		fmt.Fprintf(bw, " %d -> %d [style=dashed];\n", id, low)
		fmt.Fprintf(bw, " %d -> %d [style=filled];\n", id, high)
		return nil
	}, n...)
	if err != nil {
		return err
	}
	fmt.Fprintln(bw, "}")
	return nil
}
