package cnf

import (
	"strings"
	"testing"

	"github.com/dalzilio/qbfproj/bdd"
	"github.com/dalzilio/qbfproj/qdimacs"
	"github.com/stretchr/testify/require"
)

func TestBuildProblemDedupesClauses(t *testing.T) {
	m, err := bdd.New(3)
	require.NoError(t, err)

	p := &qdimacs.Problem{
		NumVars: 3,
		Clauses: []qdimacs.Clause{
			{1, 2},
			{2, 1}, // same clause, different literal order
			{-3},
		},
	}
	prob, err := BuildProblem(m, p)
	require.NoError(t, err)
	require.Len(t, prob.Clauses, 2)
	require.Len(t, prob.Factors(), 2)
}

func TestEncodeTrivialUnsat(t *testing.T) {
	m, err := bdd.New(2)
	require.NoError(t, err)

	var buf strings.Builder
	err = Encode(&buf, m, []bdd.Node{m.False()}, nil, nil, 3, nil)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "p cnf")
}

func TestDecodeRoundTripsEncode(t *testing.T) {
	// Extra capacity beyond the 3 real variables for Encode's fresh Tseytin
	// variables, which Decode must also be able to address when rebuilding
	// the clause BDDs.
	m, err := bdd.New(20)
	require.NoError(t, err)
	x := m.Ithvar(0)
	y := m.Ithvar(1)
	z := m.Ithvar(2)
	b := m.Or(m.And(x, y), m.Not(z))

	var buf strings.Builder
	err = Encode(&buf, m, []bdd.Node{b}, nil, nil, 4, nil)
	require.NoError(t, err)

	p, err := qdimacs.Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)

	clauses := make([][]int, len(p.Clauses))
	for i, c := range p.Clauses {
		clauses[i] = []int(c)
	}
	got, err := Decode(m, clauses, 4)
	require.NoError(t, err)
	require.True(t, m.Equal(got, b))
}

func TestEncodeDropsQuantifiedVariable(t *testing.T) {
	m, err := bdd.New(2)
	require.NoError(t, err)
	x := m.Ithvar(0)
	y := m.Ithvar(1)
	f := m.Or(x, y)

	var buf strings.Builder
	err = Encode(&buf, m, []bdd.Node{f}, nil, []int{0}, 3, []int{2})
	require.NoError(t, err)
	out := buf.String()
	require.Contains(t, out, "c ind 2 0")
	require.Contains(t, out, "p cnf")

	p, err := qdimacs.Parse(strings.NewReader(out))
	require.NoError(t, err)
	for _, c := range p.Clauses {
		for _, l := range c {
			require.NotEqual(t, 1, l, "quantified variable 1 must not appear in the encoding")
			require.NotEqual(t, -1, l, "quantified variable 1 must not appear in the encoding")
		}
	}
}
