// Command qbfproj computes a CNF over-approximating (ideally equal to) the
// existential projection of a QBF's innermost quantifier block, reading
// QDIMACS or BLIF and writing DIMACS CNF.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
