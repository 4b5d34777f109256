package blif

import (
	"fmt"

	"github.com/dalzilio/qbfproj/bdd"
)

// Factors holds the BDD artifacts built from a parsed Model: one
// li <-> C factor per latch, the primary-input variable cube, and the
// name-to-node mapping every net resolved to (primary inputs and latch
// state variables map directly to a variable; every other net maps to the
// combinational BDD expression computed for it).
type Factors struct {
	LatchFactors []bdd.Node
	PiVars       bdd.Node
	Nets         map[string]bdd.Node
}

// Build assigns a fresh BDD variable to every primary input and to every
// latch (the latch's own state variable), then evaluates every .names
// gate's combinational function recursively over those variables, and
// finally produces one factor per latch: li <-> C where C is the gate
// network's value on the latch's driver net.
func Build(m *bdd.Manager, model *Model) (*Factors, error) {
	nets := make(map[string]bdd.Node, len(model.Inputs)+len(model.Latches)+len(model.Gates))
	gateByOutput := make(map[string]*Gate, len(model.Gates))
	for i := range model.Gates {
		gateByOutput[model.Gates[i].Output] = &model.Gates[i]
	}

	nextVar := 0
	freshVar := func() bdd.Node {
		v := m.Ithvar(nextVar)
		nextVar++
		return v
	}

	piCube := m.True()
	for _, in := range model.Inputs {
		v := freshVar()
		nets[in] = v
		piCube = m.And(piCube, v)
	}

	latchVars := make(map[string]bdd.Node, len(model.Latches))
	for _, l := range model.Latches {
		v := freshVar()
		latchVars[l.Output] = v
		nets[l.Output] = v
	}

	inProgress := make(map[string]bool)
	var eval func(name string) (bdd.Node, error)
	eval = func(name string) (bdd.Node, error) {
		if n, ok := nets[name]; ok {
			return n, nil
		}
		g, ok := gateByOutput[name]
		if !ok {
			return nil, fmt.Errorf("blif: net %q has no driving .names block, input, or latch output", name)
		}
		if inProgress[name] {
			return nil, fmt.Errorf("blif: combinational cycle through net %q", name)
		}
		inProgress[name] = true
		val, err := evalGate(m, g, eval)
		delete(inProgress, name)
		if err != nil {
			return nil, err
		}
		nets[name] = val
		return val, nil
	}

	var factors []bdd.Node
	for _, l := range model.Latches {
		c, err := eval(l.Driver)
		if err != nil {
			return nil, err
		}
		li := latchVars[l.Output]
		factors = append(factors, m.Apply(bdd.OPbiimp, li, c))
		if m.Errored() {
			return nil, fmt.Errorf("blif: %s", m.Error())
		}
	}

	// Force evaluation of every declared output too, so gates reachable
	// only from .outputs (never from a latch driver) still populate Nets.
	for _, o := range model.Outputs {
		if _, err := eval(o); err != nil {
			return nil, err
		}
	}

	return &Factors{LatchFactors: factors, PiVars: piCube, Nets: nets}, nil
}

// evalGate computes a gate's combinational BDD value as the disjunction of
// its cover rows, each row the conjunction of its input literals (a '-'
// entry contributes no constraint); resolveInput is called to recursively
// evaluate each of the gate's own input nets.
func evalGate(m *bdd.Manager, g *Gate, resolveInput func(string) (bdd.Node, error)) (bdd.Node, error) {
	inputs := make([]bdd.Node, len(g.Inputs))
	for i, in := range g.Inputs {
		n, err := resolveInput(in)
		if err != nil {
			return nil, err
		}
		inputs[i] = n
	}

	acc := m.False()
	for _, row := range g.Rows {
		if row.Output != '1' {
			continue // off-set rows are redundant once on-set rows cover the function
		}
		term := m.True()
		for i, c := range row.Pattern {
			switch c {
			case '1':
				term = m.And(term, inputs[i])
			case '0':
				term = m.And(term, m.Not(inputs[i]))
			case '-':
				// no constraint from this input
			default:
				return nil, fmt.Errorf("blif: invalid cover character %q in row %q", c, row.Pattern)
			}
		}
		if len(g.Inputs) == 0 && row.Pattern == "" {
			term = m.True() // constant-1 gate
		}
		acc = m.Or(acc, term)
	}
	if m.Errored() {
		return nil, fmt.Errorf("blif: %s", m.Error())
	}
	return acc, nil
}
