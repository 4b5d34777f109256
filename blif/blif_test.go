package blif

import (
	"strings"
	"testing"

	"github.com/dalzilio/qbfproj/bdd"
	"github.com/stretchr/testify/require"
)

func TestParseBasicModel(t *testing.T) {
	src := `
.model test
.inputs a b
.outputs z
.names a b z
11 1
.end
`
	m, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, "test", m.Name)
	require.Equal(t, []string{"a", "b"}, m.Inputs)
	require.Equal(t, []string{"z"}, m.Outputs)
	require.Len(t, m.Gates, 1)
	require.Equal(t, []string{"a", "b"}, m.Gates[0].Inputs)
	require.Equal(t, "z", m.Gates[0].Output)
	require.Len(t, m.Gates[0].Rows, 1)
	require.Equal(t, Row{Pattern: "11", Output: '1'}, m.Gates[0].Rows[0])
}

func TestParseLatchContinuationAndConstant(t *testing.T) {
	src := `
.model test
.inputs a
.latch a \
q
.names unused_const
1
.end
`
	m, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, m.Latches, 1)
	require.Equal(t, Latch{Driver: "a", Output: "q"}, m.Latches[0])
	require.Len(t, m.Gates, 1)
	require.Empty(t, m.Gates[0].Inputs)
	require.Equal(t, Row{Output: '1'}, m.Gates[0].Rows[0])
}

func TestBuildLatchFactorIsBiconditional(t *testing.T) {
	src := `
.model test
.inputs a b
.latch g1 q
.names a b g1
11 1
.end
`
	model, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	m, err := bdd.New(3)
	require.NoError(t, err)

	f, err := Build(m, model)
	require.NoError(t, err)
	require.Len(t, f.LatchFactors, 1)

	a, b, q := m.Ithvar(0), m.Ithvar(1), m.Ithvar(2)
	want := m.Apply(bdd.OPbiimp, q, m.And(a, b))
	require.True(t, m.Equal(f.LatchFactors[0], want))
	require.True(t, m.Equal(f.PiVars, m.And(a, b)))
}
