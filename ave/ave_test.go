package ave

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEliminateScenarioChain(t *testing.T) {
	// p cnf 5 3 / a 1 2 3 0 / e 4 5 0 / -1 3 4 0 / -4 2 0
	// Eliminating {4,5} with depth >= 3 yields {-1, 2, 3}.
	f := Problem{Clauses: []Clause{
		{-1, 3, 4},
		{-4, 2},
	}}
	got := Eliminate(context.Background(), f, []int{4, 5}, MaxClauseTreeSize(100))
	require.Len(t, got.Clauses, 1)
	require.Equal(t, signature(Clause{-1, 2, 3}), signature(got.Clauses[0]))
}

func TestEliminateScenarioLongChain(t *testing.T) {
	// p cnf 11 6 / a 6..11 0 / e 1..5 0
	// 1 6 / -1 2 7 / -2 3 8 / -3 4 9 / -4 5 10 / -5 11
	// Eliminating {1,2,3,4,5} yields the single clause {6,7,8,9,10,11}.
	f := Problem{Clauses: []Clause{
		{1, 6},
		{-1, 2, 7},
		{-2, 3, 8},
		{-3, 4, 9},
		{-4, 5, 10},
		{-5, 11},
	}}
	got := Eliminate(context.Background(), f, []int{1, 2, 3, 4, 5}, MaxClauseTreeSize(1000))
	require.Len(t, got.Clauses, 1)
	require.Equal(t, signature(Clause{6, 7, 8, 9, 10, 11}), signature(got.Clauses[0]))
}

func TestEliminatePassesThroughUnrelatedClauses(t *testing.T) {
	f := Problem{Clauses: []Clause{
		{1, 2},
		{-3, 4},
		{3, 5},
	}}
	got := Eliminate(context.Background(), f, []int{3}, MaxClauseTreeSize(100))
	require.Len(t, got.Clauses, 2)
	sigs := map[string]bool{signature(got.Clauses[0]): true, signature(got.Clauses[1]): true}
	require.True(t, sigs[signature(Clause{1, 2})])
	require.True(t, sigs[signature(Clause{4, 5})])
}

func TestEliminateDedupesResult(t *testing.T) {
	f := Problem{Clauses: []Clause{
		{-1, 2},
		{1, 2},
	}}
	got := Eliminate(context.Background(), f, []int{1}, MaxClauseTreeSize(100))
	require.Len(t, got.Clauses, 1)
	require.Equal(t, signature(Clause{2}), signature(got.Clauses[0]))
}

func TestEliminateBudgetExhaustionStillSound(t *testing.T) {
	f := Problem{Clauses: []Clause{
		{-1, 2, 3},
		{-3, 4},
	}}
	// A budget of zero forbids any growth; the seed clauses mentioning the
	// eliminated variable are simply dropped, which still over-approximates.
	got := Eliminate(context.Background(), f, []int{1, 3}, MaxClauseTreeSize(0))
	require.Empty(t, got.Clauses)
}
