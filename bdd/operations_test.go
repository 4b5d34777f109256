// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

import (
	"testing"
)

func newTestManager(t *testing.T, varnum int) *Manager {
	t.Helper()
	m, err := New(varnum)
	if err != nil {
		t.Fatalf("New(%d): %v", varnum, err)
	}
	return m
}

func TestNewRejectsBadVarnum(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Errorf("New(0): expected error, got nil")
	}
	if _, err := New(int(_MAXVAR) + 1); err == nil {
		t.Errorf("New(_MAXVAR+1): expected error, got nil")
	}
}

func TestIteTautology(t *testing.T) {
	m := newTestManager(t, 4)
	n1 := m.Makeset([]int{0, 2, 3})
	n2 := m.Makeset([]int{0, 3})
	lhs := m.Ite(n1, n2, m.Not(n2))
	rhs := m.Or(m.And(n1, n2), m.And(m.Not(n1), m.Not(n2)))
	if !m.Equal(m.Equiv(lhs, rhs), m.True()) {
		t.Errorf("ite(f,g,!g) <=> (f&g)|(!f&!g): expected true")
	}
}

func TestXnorIsEquiv(t *testing.T) {
	m := newTestManager(t, 2)
	a, b := m.Ithvar(0), m.Ithvar(1)
	if !m.Equal(m.Xnor(a, b), m.Equiv(a, b)) {
		t.Errorf("Xnor and Equiv disagree")
	}
}

func TestIsOneIsZero(t *testing.T) {
	m := newTestManager(t, 3)
	if !m.IsOne(m.True()) || m.IsOne(m.False()) {
		t.Errorf("IsOne misclassifies constants")
	}
	if !m.IsZero(m.False()) || m.IsZero(m.True()) {
		t.Errorf("IsZero misclassifies constants")
	}
	a := m.Ithvar(0)
	if m.IsOne(a) || m.IsZero(a) {
		t.Errorf("IsOne/IsZero misclassify a non-constant node")
	}
}

// TestForallIsDualOfExist checks forall f, cube == !(exist !f, cube), the De
// Morgan relation between the two quantifiers.
func TestForallIsDualOfExist(t *testing.T) {
	m := newTestManager(t, 4)
	cube := m.Makeset([]int{1, 2})
	f := m.Or(m.And(m.Ithvar(0), m.Ithvar(1)), m.And(m.Ithvar(2), m.Ithvar(3)))

	got := m.Forall(f, cube)
	want := m.Not(m.Exist(m.Not(f), cube))
	if !m.Equal(got, want) {
		t.Errorf("Forall(f, cube) != Not(Exist(Not(f), cube))")
	}
}

// TestAndMultiMatchesPairwise checks AndMulti against a pairwise And fold
// over a handful of factor sets.
func TestAndMultiMatchesPairwise(t *testing.T) {
	m := newTestManager(t, 5)
	a, b, c, d, e := m.Ithvar(0), m.Ithvar(1), m.Ithvar(2), m.Ithvar(3), m.Ithvar(4)
	sets := [][]Node{
		{a, b, c},
		{a, m.Not(a)},
		{a, b, c, d, e},
		{m.True(), a, b},
		{m.False(), a},
	}
	for i, fs := range sets {
		got := m.AndMulti(fs...)
		want := m.And(fs...)
		if !m.Equal(got, want) {
			t.Errorf("set %d: AndMulti != pairwise And", i)
		}
	}
}

// TestAndExistsMultiMatchesPairwise checks that AndExistsMulti(S, C)
// equals the exact ∃C.⋀S, computed here the slow way via pairwise And then
// Exist.
func TestAndExistsMultiMatchesPairwise(t *testing.T) {
	m := newTestManager(t, 6)
	a, b, c, d, e, f := m.Ithvar(0), m.Ithvar(1), m.Ithvar(2), m.Ithvar(3), m.Ithvar(4), m.Ithvar(5)

	cases := []struct {
		fs   []Node
		cube []int
	}{
		{[]Node{a, b, c}, []int{1}},
		{[]Node{a, b, c, d}, []int{0, 2}},
		{[]Node{m.Or(a, b), m.Or(m.Not(b), c), m.Or(d, e)}, []int{1, 3}},
		{[]Node{a, b}, nil},
		{[]Node{f}, []int{5}},
	}
	for i, tc := range cases {
		cube := m.Makeset(tc.cube)
		got := m.AndExistsMulti(cube, tc.fs...)
		want := m.Exist(m.And(tc.fs...), cube)
		if !m.Equal(got, want) {
			t.Errorf("case %d: AndExistsMulti != Exist(And(fs), cube)", i)
		}
	}
}

// TestClippingAndMultiBounds checks the clipping contract for the
// cube-free family: the exact result implies the over-approximating bound
// and is implied by the under-approximating one, at every depth.
func TestClippingAndMultiBounds(t *testing.T) {
	m := newTestManager(t, 5)
	a, b, c, d, e := m.Ithvar(0), m.Ithvar(1), m.Ithvar(2), m.Ithvar(3), m.Ithvar(4)
	fs := []Node{m.Or(a, b), m.Or(m.Not(b), c), m.Or(c, d), m.Or(d, e)}

	exact := m.AndMulti(fs...)
	for depth := 0; depth < 4; depth++ {
		up := m.ClippingAndMulti(depth, true, fs...)
		down := m.ClippingAndMulti(depth, false, fs...)
		if !m.Equal(m.Imp(exact, up), m.True()) {
			t.Errorf("depth %d: exact does not imply clipping-up result", depth)
		}
		if !m.Equal(m.Imp(down, exact), m.True()) {
			t.Errorf("depth %d: clipping-down result does not imply exact", depth)
		}
	}
}

// TestClippingAndExistsMultiBounds checks the same two-sided clipping
// contract for the cube-carrying family.
func TestClippingAndExistsMultiBounds(t *testing.T) {
	m := newTestManager(t, 5)
	a, b, c, d, e := m.Ithvar(0), m.Ithvar(1), m.Ithvar(2), m.Ithvar(3), m.Ithvar(4)
	fs := []Node{m.Or(a, b), m.Or(m.Not(b), c), m.Or(c, d), m.Or(d, e)}
	cube := m.Makeset([]int{1, 3})

	exact := m.AndExistsMulti(cube, fs...)
	for depth := 0; depth < 4; depth++ {
		up := m.ClippingAndExistsMulti(cube, depth, true, fs...)
		down := m.ClippingAndExistsMulti(cube, depth, false, fs...)
		if !m.Equal(m.Imp(exact, up), m.True()) {
			t.Errorf("depth %d: exact does not imply clipping-up result", depth)
		}
		if !m.Equal(m.Imp(down, exact), m.True()) {
			t.Errorf("depth %d: clipping-down result does not imply exact", depth)
		}
	}
}

// TestCountMintermMultiMatchesSatcount checks CountMintermMulti against
// Satcount of the materialized conjunction.
func TestCountMintermMultiMatchesSatcount(t *testing.T) {
	m := newTestManager(t, 4)
	a, b, c, d := m.Ithvar(0), m.Ithvar(1), m.Ithvar(2), m.Ithvar(3)
	fs := []Node{m.Or(a, b), m.Or(m.Not(b), c), m.Or(c, d)}

	got, err := m.CountMintermMulti(fs...)
	if err != nil {
		t.Fatalf("CountMintermMulti: %v", err)
	}
	want, err := m.Satcount(m.AndMulti(fs...))
	if err != nil {
		t.Fatalf("Satcount: %v", err)
	}
	if got != want {
		t.Errorf("CountMintermMulti = %v, want %v", got, want)
	}
}

func TestMakesetScansetRoundtrip(t *testing.T) {
	m := newTestManager(t, 6)
	vars := []int{1, 3, 4}
	cube := m.Makeset(vars)
	got, err := m.Scanset(cube)
	if err != nil {
		t.Fatalf("Scanset: %v", err)
	}
	if len(got) != len(vars) {
		t.Fatalf("Scanset returned %d variables, want %d", len(got), len(vars))
	}
	for i, v := range vars {
		if got[i] != v {
			t.Errorf("Scanset()[%d] = %d, want %d", i, got[i], v)
		}
	}
}

func TestSupportAndVectorSupport(t *testing.T) {
	m := newTestManager(t, 4)
	a, b, c := m.Ithvar(0), m.Ithvar(1), m.Ithvar(2)
	f := m.And(a, b)
	sup, err := m.Support(f)
	if err != nil {
		t.Fatalf("Support: %v", err)
	}
	if len(sup) != 2 || sup[0] != 0 || sup[1] != 1 {
		t.Errorf("Support(a&b) = %v, want [0 1]", sup)
	}
	vsup, err := m.VectorSupport(f, m.And(b, c))
	if err != nil {
		t.Fatalf("VectorSupport: %v", err)
	}
	if len(vsup) != 3 {
		t.Errorf("VectorSupport = %v, want 3 distinct variables", vsup)
	}
}

// TestAllsatCoversExactSet checks that summing every Allsat assignment
// back up reproduces the original set exactly.
func TestAllsatCoversExactSet(t *testing.T) {
	m := newTestManager(t, 4)
	a, b, c, d := m.Ithvar(0), m.Ithvar(1), m.Ithvar(2), m.Ithvar(3)
	na, nb := m.NIthvar(0), m.NIthvar(1)

	sets := []Node{
		m.True(),
		m.False(),
		m.Or(m.And(a, b), m.And(na, nb)),
		m.Or(m.And(a, b), m.And(c, d)),
	}
	for i, x := range sets {
		sum := m.False()
		err := m.Allsat(x, func(assign []int8) bool {
			term := m.True()
			for k, v := range assign {
				switch v {
				case 0:
					term = m.And(term, m.NIthvar(k))
				case 1:
					term = m.And(term, m.Ithvar(k))
				}
			}
			sum = m.Or(sum, term)
			return true
		})
		if err != nil {
			t.Fatalf("set %d: Allsat: %v", i, err)
		}
		if !m.Equal(sum, x) {
			t.Errorf("set %d: Allsat assignments do not sum back to the original set", i)
		}
	}
}

func TestCofactor(t *testing.T) {
	m := newTestManager(t, 3)
	a, b := m.Ithvar(0), m.Ithvar(1)
	f := m.And(a, b)
	if !m.Equal(m.Cofactor(f, 0, true), b) {
		t.Errorf("Cofactor(a&b, 0, true) != b")
	}
	if !m.Equal(m.Cofactor(f, 0, false), m.False()) {
		t.Errorf("Cofactor(a&b, 0, false) != false")
	}
}

func TestReplace(t *testing.T) {
	m := newTestManager(t, 4)
	a, b := m.Ithvar(0), m.Ithvar(1)
	c, d := m.Ithvar(2), m.Ithvar(3)
	r, err := m.NewReplacer([]int{0, 1}, []int{2, 3})
	if err != nil {
		t.Fatalf("NewReplacer: %v", err)
	}
	got := m.Replace(m.And(a, b), r)
	if !m.Equal(got, m.And(c, d)) {
		t.Errorf("Replace(a&b, 0->2,1->3) != c&d")
	}
}
