package muc

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestGiniEnumeratorFindsSingleMUC covers a worked scenario: the clauses
// {-1,2}, {1,-2}, {-1,-2} with only variable 2 quantified reduce to the
// sub-clauses {2}, {-2} and a marker-tagged duplicate of {-2}; the marker
// keeps the duplicate satisfiable on its own, so the one minimal
// unsatisfiable core is exactly the first two sub-clauses.
func TestGiniEnumeratorFindsSingleMUC(t *testing.T) {
	clauses := [][]int{{-1, 2}, {1, -2}, {-1, -2}}
	subs := BuildMustProblem(clauses, map[int]bool{2: true}, 10)
	require.Len(t, subs, 3)
	require.NotEqual(t, 0, subs[2].Marker)

	enum := NewGiniEnumerator(subs, 100)

	var found [][]int
	enum.Run(func(muc []int) {
		sorted := append([]int(nil), muc...)
		sort.Ints(sorted)
		found = append(found, sorted)
	})

	require.Len(t, found, 1)
	require.Equal(t, []int{0, 1}, found[0])
}

// TestGiniEnumeratorSatisfiableProblemFindsNothing covers the degenerate
// case: a satisfiable sub-clause set has no unsatisfiable core at all, so
// Run's callback must never fire.
func TestGiniEnumeratorSatisfiableProblemFindsNothing(t *testing.T) {
	subs := []SubClause{
		{Literals: []int{1, 2}},
		{Literals: []int{-1, 2}},
	}
	enum := NewGiniEnumerator(subs, 100)

	calls := 0
	enum.Run(func(muc []int) { calls++ })
	require.Equal(t, 0, calls)
}

// TestGiniEnumeratorFindsTwoDisjointMUCs covers a problem with two
// independent minimal cores over disjoint variables.
func TestGiniEnumeratorFindsTwoDisjointMUCs(t *testing.T) {
	subs := []SubClause{
		{Literals: []int{1}},
		{Literals: []int{-1}},
		{Literals: []int{2}},
		{Literals: []int{-2}},
	}
	enum := NewGiniEnumerator(subs, 100)

	var found [][]int
	enum.Run(func(muc []int) {
		sorted := append([]int(nil), muc...)
		sort.Ints(sorted)
		found = append(found, sorted)
	})

	require.Len(t, found, 2)
	require.ElementsMatch(t, [][]int{{0, 1}, {2, 3}}, found)
}
