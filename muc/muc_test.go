package muc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildMustProblemDedupesWithMarker(t *testing.T) {
	clauses := [][]int{
		{-1, 3},
		{2, 3}, // same quantified sub-clause {3} as above
	}
	subs := BuildMustProblem(clauses, map[int]bool{3: true}, 10)
	require.Len(t, subs, 2)
	require.Equal(t, []int{3}, subs[0].Literals)
	require.Equal(t, Assignment{-1}, subs[0].Assignment)
	require.Equal(t, 0, subs[0].Marker)

	require.Equal(t, []int{3, 10}, subs[1].Literals)
	require.Equal(t, Assignment{2}, subs[1].Assignment)
	require.Equal(t, 10, subs[1].Marker)
}

type fakeEnumerator struct {
	mucs         [][]int
	inconsistent [][]int
}

func (f *fakeEnumerator) Run(cb func(muc []int)) {
	for _, m := range f.mucs {
		cb(m)
	}
}

func (f *fakeEnumerator) MarkInconsistent(indices []int) {
	f.inconsistent = append(f.inconsistent, append([]int(nil), indices...))
}

type fakeSolver struct {
	sat      bool
	assumed  []int
	conflict []int
	clauses  [][]int
}

func (s *fakeSolver) AddClause(lits ...int) {
	s.clauses = append(s.clauses, append([]int(nil), lits...))
}

func (s *fakeSolver) Assume(lits ...int) {
	s.assumed = append([]int(nil), lits...)
}

func (s *fakeSolver) Solve() bool { return s.sat }

func (s *fakeSolver) Why() []int { return s.conflict }

type fakeOverApprox struct {
	blocks [][]int
}

func (o *fakeOverApprox) AddBlockingClause(lits []int) {
	o.blocks = append(o.blocks, append([]int(nil), lits...))
}

func TestRefineBlocksAssignmentWhenStillSatisfiable(t *testing.T) {
	subs := []SubClause{{Literals: []int{5}, Assignment: Assignment{1, 2}}}
	enum := &fakeEnumerator{mucs: [][]int{{0}}}
	solver := &fakeSolver{sat: true}
	over := &fakeOverApprox{}

	Refine(enum, solver, subs, over)

	require.Equal(t, []int{1, 2}, solver.assumed)
	require.Len(t, over.blocks, 1)
	require.ElementsMatch(t, []int{-1, -2}, over.blocks[0])
	require.Len(t, solver.clauses, 1)
	require.ElementsMatch(t, []int{-1, -2}, solver.clauses[0])
	require.Empty(t, enum.inconsistent)
}

func TestRefineMarksInconsistentWhenAlreadyBlocked(t *testing.T) {
	subs := []SubClause{
		{Literals: []int{5}, Assignment: Assignment{1}},
		{Literals: []int{6}, Assignment: Assignment{2}},
	}
	enum := &fakeEnumerator{mucs: [][]int{{0, 1}}}
	solver := &fakeSolver{sat: false, conflict: []int{1}}
	over := &fakeOverApprox{}

	Refine(enum, solver, subs, over)

	require.Empty(t, over.blocks)
	require.Len(t, enum.inconsistent, 1)
	require.Equal(t, []int{0}, enum.inconsistent[0])
}
