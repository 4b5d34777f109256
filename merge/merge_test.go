package merge

import (
	"sort"
	"testing"

	"github.com/dalzilio/qbfproj/bdd"
	"github.com/stretchr/testify/require"
)

func TestMergeCombinesConnectedFuncsAndVars(t *testing.T) {
	m, err := bdd.New(3)
	require.NoError(t, err)

	x0, x1, x2 := m.Ithvar(0), m.Ithvar(1), m.Ithvar(2)
	f1 := x0
	f2 := m.And(x0, x1)
	f3 := x2

	v0 := m.Makeset([]int{0})
	v1 := m.Makeset([]int{1})
	v2 := m.Makeset([]int{2})

	res, err := Merge(m, []bdd.Node{f1, f2, f3}, []bdd.Node{v0, v1, v2}, nil, LargestSupportSet(2), LargestBDDSize(1000))
	require.NoError(t, err)
	require.Len(t, res.Factors, 2)
	require.Len(t, res.Variables, 2)

	foundMergedFunc := false
	for _, f := range res.Factors {
		levels, err := m.Support(f)
		require.NoError(t, err)
		if len(levels) == 2 {
			require.Equal(t, []int{0, 1}, levels)
			foundMergedFunc = true
		}
	}
	require.True(t, foundMergedFunc, "expected a merged factor spanning variables 0 and 1")

	foundMergedVar := false
	for _, v := range res.Variables {
		scan, err := m.Scanset(v)
		require.NoError(t, err)
		sort.Ints(scan)
		if len(scan) == 2 {
			require.Equal(t, []int{0, 1}, scan)
			foundMergedVar = true
		}
	}
	require.True(t, foundMergedVar, "expected a merged variable node spanning 0 and 1")
}

func TestMergeMandatoryForcesDisconnectedPair(t *testing.T) {
	m, err := bdd.New(3)
	require.NoError(t, err)

	g1, g2, g3 := m.Ithvar(0), m.Ithvar(1), m.Ithvar(2)
	v0 := m.Makeset([]int{0})
	v1 := m.Makeset([]int{1})
	v2 := m.Makeset([]int{2})

	res, err := Merge(m, []bdd.Node{g1, g2, g3}, []bdd.Node{v0, v1, v2}, [][2]int{{0, 2}}, LargestSupportSet(1), LargestBDDSize(1000))
	require.NoError(t, err)
	require.Len(t, res.Factors, 2)
	require.Len(t, res.Variables, 3)

	sawMerged, sawUnchanged := false, false
	for _, f := range res.Factors {
		levels, err := m.Support(f)
		require.NoError(t, err)
		if len(levels) == 2 {
			require.Equal(t, []int{0, 2}, levels)
			sawMerged = true
		}
		if m.Equal(f, g2) {
			sawUnchanged = true
		}
	}
	require.True(t, sawMerged)
	require.True(t, sawUnchanged)
}
