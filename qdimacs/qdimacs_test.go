package qdimacs

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const sample = `c a comment
p cnf 4 3
a 1 2 0
e 3 4 0
1 2 0
-1 3 -4 0
2 -3 4 0
`

func TestParseRoundTrip(t *testing.T) {
	p, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Equal(t, 4, p.NumVars)
	require.True(t, p.InnermostExistential())
	require.Equal(t, []int{3, 4}, p.InnerVars())

	want := &Problem{
		NumVars: 4,
		Prefix: []Block{
			{Kind: ForAll, Vars: []int{1, 2}},
			{Kind: Exists, Vars: []int{3, 4}},
		},
		Clauses: []Clause{
			{1, 2},
			{-1, 3, -4},
			{2, -3, 4},
		},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Fatalf("parsed problem mismatch (-want +got):\n%s", diff)
	}

	var buf strings.Builder
	require.NoError(t, Write(&buf, p))
	p2, err := Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)
	if diff := cmp.Diff(p, p2); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"p cnf x 3\n",
		"1 2 0\n",
		"p cnf 2 1\n1 2\n",
		"p cnf 2 2\n1 2 0\n",
	}
	for _, c := range cases {
		_, err := Parse(strings.NewReader(c))
		require.Error(t, err)
	}
}
