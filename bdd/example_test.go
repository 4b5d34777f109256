// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd_test

import (
	"fmt"

	"github.com/dalzilio/qbfproj/bdd"
)

// This example shows the basic usage of the package: create a manager,
// compute some expressions, and project a set of variables out with the
// multi-operand primitive.
func Example_basic() {
	m, _ := bdd.New(6, bdd.Nodesize(10000), bdd.Cachesize(3000))
	// cube == {x2, x3, x5}
	cube := m.Makeset([]int{2, 3, 5})
	n2 := m.Or(m.Ithvar(1), m.NIthvar(3), m.Ithvar(4))
	// proj == ∃ x2,x3,x5 . (n2 & x3)
	proj := m.AndExistsMulti(cube, n2, m.Ithvar(3))
	count, _ := m.Satcount(proj)
	fmt.Printf("Number of sat. assignments is %v\n", count)
	// Output:
	// Number of sat. assignments is 48
}

// Example_clipping shows how a clipped projection over-approximates the
// exact one once the recursion is cut short.
func Example_clipping() {
	m, _ := bdd.New(4)
	a, b, c, d := m.Ithvar(0), m.Ithvar(1), m.Ithvar(2), m.Ithvar(3)
	fs := []bdd.Node{m.Or(a, b), m.Or(m.Not(b), c), m.Or(c, d)}
	cube := m.Makeset([]int{1})

	exact := m.AndExistsMulti(cube, fs...)
	up := m.ClippingAndExistsMulti(cube, 0, true, fs...)
	fmt.Println(m.Equal(m.Imp(exact, up), m.True()))
	// Output:
	// true
}
