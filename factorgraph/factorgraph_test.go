package factorgraph

import (
	"testing"

	"github.com/dalzilio/qbfproj/bdd"
	"github.com/stretchr/testify/require"
)

// chain builds a small tree-shaped graph over 3 clauses sharing variables
// in a path (x0-x1, x1-x2), so AcyclicMessages can project exactly.
func chain(t *testing.T) (*bdd.Manager, *Graph) {
	t.Helper()
	m, err := bdd.New(3)
	require.NoError(t, err)
	x0 := m.Ithvar(0)
	x1 := m.Ithvar(1)
	x2 := m.Ithvar(2)
	f0 := m.Or(x0, x1)
	f1 := m.Or(m.Not(x1), x2)

	g, err := New(m, []bdd.Node{f0, f1})
	require.NoError(t, err)
	return m, g
}

func TestNewBuildsOneFuncNodePerFactor(t *testing.T) {
	_, g := chain(t)
	require.Equal(t, 2, g.NumFuncs())
	require.Equal(t, 3, g.NumVars())
}

func TestConvergeTerminates(t *testing.T) {
	_, g := chain(t)
	iters, err := g.Converge()
	require.NoError(t, err)
	require.Greater(t, iters, 0)
}

func TestIsConnected(t *testing.T) {
	_, g := chain(t)
	require.True(t, g.IsConnected())
}

func TestPartitionSplitsDisjointFactors(t *testing.T) {
	m, err := bdd.New(4)
	require.NoError(t, err)
	f0 := m.Ithvar(0)
	f1 := m.Ithvar(2)
	g, err := New(m, []bdd.Node{f0, f1})
	require.NoError(t, err)
	parts := g.Partition()
	require.Len(t, parts, 2)
}

func TestRollbackUndoesGroupVars(t *testing.T) {
	_, g := chain(t)
	before := g.NumVars()
	g.Checkpoint()
	err := g.GroupVars([]int{0, 1})
	require.NoError(t, err)
	require.Less(t, g.NumVars(), before)
	g.Rollback()
	require.Equal(t, before, g.NumVars())
}

// TestAcyclicMessagesMatchesExactProjection checks that on a tree factor
// graph, AcyclicMessages computes exactly ∃{x0,x1}.(f0 & f1), not merely
// an over-approximation of it.
func TestAcyclicMessagesMatchesExactProjection(t *testing.T) {
	m, g := chain(t)
	err := g.MakeAcyclic(2)
	require.NoError(t, err)

	got, err := g.AcyclicMessages(2)
	require.NoError(t, err)

	x0, x1 := m.Ithvar(0), m.Ithvar(1)
	f0 := m.Or(x0, x1)
	f1 := m.Or(m.Not(x1), m.Ithvar(2))
	cube := m.Makeset([]int{0, 1})
	want := m.AndExistsMulti(cube, f0, f1)

	require.True(t, m.Equal(got, want))
}

// TestConvergeMessagesOverApproximateExact checks the fixpoint contract:
// once Converge reaches a fixpoint, every variable node's incoming messages must
// be implied by the exact projection of the conjunction of all factors onto
// that variable's own cube (the message set never excludes a real model).
func TestConvergeMessagesOverApproximateExact(t *testing.T) {
	m, g := chain(t)
	_, err := g.Converge()
	require.NoError(t, err)

	x0, x1, x2 := m.Ithvar(0), m.Ithvar(1), m.Ithvar(2)
	f0 := m.Or(x0, x1)
	f1 := m.Or(m.Not(x1), x2)
	all := m.And(f0, f1)

	for vi := 0; vi < g.NumVars(); vi++ {
		own, err := m.Scanset(g.vars[vi].cube)
		require.NoError(t, err)
		ownSet := map[int]bool{}
		for _, l := range own {
			ownSet[l] = true
		}
		var other []int
		for _, l := range []int{0, 1, 2} {
			if !ownSet[l] {
				other = append(other, l)
			}
		}
		exact := m.Exist(all, m.Makeset(other))
		for _, msg := range g.IncomingMessages(vi) {
			require.True(t, m.Equal(m.Imp(exact, msg), m.True()),
				"variable %d: exact projection does not imply incoming message", vi)
		}
	}
}

// TestConvergeDetectsInconsistentFactors runs the worked scenario of three
// jointly unsatisfiable factors (x&y, x&!y&z, y xor z) with the non-x
// variables grouped into one node: the conjunction of that node's incoming
// messages must entail (here: equal) the exact projection, which is false.
func TestConvergeDetectsInconsistentFactors(t *testing.T) {
	m, err := bdd.New(3)
	require.NoError(t, err)
	x, y, z := m.Ithvar(0), m.Ithvar(1), m.Ithvar(2)

	f1 := m.And(x, y)
	f2 := m.And(x, m.Not(y), z)
	f3 := m.Or(m.And(y, m.Not(z)), m.And(m.Not(y), z))

	g, err := New(m, []bdd.Node{f1, f2, f3})
	require.NoError(t, err)
	require.NoError(t, g.GroupVars([]int{1, 2}))

	_, err = g.Converge()
	require.NoError(t, err)

	vi, ok := g.VarNodeForLevel(1)
	require.True(t, ok)

	conj := m.True()
	for _, msg := range g.IncomingMessages(vi) {
		conj = m.And(conj, msg)
	}
	require.True(t, m.Equal(conj, m.False()),
		"messages into the grouped {y,z} node must expose the joint inconsistency")
}
