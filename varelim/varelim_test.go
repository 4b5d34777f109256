package varelim

import (
	"testing"

	"github.com/dalzilio/qbfproj/bdd"
	"github.com/stretchr/testify/require"
)

func TestEliminateSingleOccurrenceIsExact(t *testing.T) {
	m, err := bdd.New(3)
	require.NoError(t, err)

	x0, x1, x2 := m.Ithvar(0), m.Ithvar(1), m.Ithvar(2)
	// 2 appears in exactly one factor: eliminating it should just quantify
	// f2 down to a tautology, leaving f1 untouched.
	f1 := x0
	f2 := m.Or(x1, x2)

	out, err := Eliminate(m, []bdd.Node{f1, f2}, []int{2}, UnderApprox)
	require.NoError(t, err)
	require.Len(t, out, 2)

	sawF1, sawTrue := false, false
	for _, f := range out {
		if m.Equal(f, f1) {
			sawF1 = true
		}
		if m.Equal(f, m.True()) {
			sawTrue = true
		}
	}
	require.True(t, sawF1)
	require.True(t, sawTrue, "quantifying 2 out of x1|x2 should yield true")
}

func TestEliminateExactWithOnlyTwoNeighbours(t *testing.T) {
	m, err := bdd.New(3)
	require.NoError(t, err)

	x0, x1, x2 := m.Ithvar(0), m.Ithvar(1), m.Ithvar(2)
	// Variable 1 occurs in exactly two factors, both of which also mention
	// other variables, so the single-occurrence path can't fire and the
	// driver must fall to the exact AndExist branch.
	f1 := m.Or(x0, x1)
	f2 := m.Or(m.Not(x1), x2)

	out, err := Eliminate(m, []bdd.Node{f1, f2}, []int{1}, UnderApprox)
	require.NoError(t, err)
	require.Len(t, out, 1)

	want := m.Or(x0, x2)
	require.True(t, m.Equal(out[0], want), "eliminating 1 from (x0|x1)&(!x1|x2) should yield x0|x2")
}

func TestEliminateUnderApproxDropsOneFactorsConstraint(t *testing.T) {
	m, err := bdd.New(3)
	require.NoError(t, err)

	x0, x1, x2 := m.Ithvar(0), m.Ithvar(1), m.Ithvar(2)
	// Variable 1 occurs in three factors, forcing the delayed-conjunction
	// path; a MaxBDDSize of 0 always trips the fallback, so under-approx
	// must quantify 1 out of exactly one of the two smallest factors and
	// leave the rest of the factor set otherwise alone.
	f1 := m.Or(x0, x1)
	f2 := m.Or(m.Not(x1), x2)
	f3 := x1

	out, err := Eliminate(m, []bdd.Node{f1, f2, f3}, []int{1}, UnderApprox, MaxBDDSize(0))
	require.NoError(t, err)
	require.Len(t, out, 2)

	for _, f := range out {
		sup, err := m.Support(f)
		require.NoError(t, err)
		for _, l := range sup {
			require.NotEqual(t, 1, l, "variable 1 should have been fully eliminated")
		}
	}
}
