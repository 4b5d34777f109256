// Package blif parses a subset of the BLIF (Berkeley Logic Interchange
// Format) network format and builds one BDD factor per latch, the
// combinational logic feeding its input biconditionally tied to a fresh
// state variable representing the latch itself. Only the
// `.model`/`.inputs`/`.outputs`/`.latch`/`.names` directives are
// recognized; nets resolve through a name-indexed expression cache rather
// than a materialized network object.
package blif

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Gate is one ".names" cover: a single-output combinational function of
// Inputs given as a sum of the listed Rows (each row a partial assignment
// over Inputs, '0'/'1'/'-', contributing to the function whenever Output
// is '1').
type Gate struct {
	Inputs []string
	Output string
	Rows   []Row
}

// Row is one line of a ".names" cover.
type Row struct {
	Pattern string // len(Pattern) == len(Gate.Inputs), chars '0','1','-'
	Output  byte   // '0' or '1'
}

// Latch is one ".latch driver output" directive: driver is the net
// computing the latch's next state, output is the net other gates see as
// the latch's current state.
type Latch struct {
	Driver string
	Output string
}

// Model is a parsed BLIF network.
type Model struct {
	Name    string
	Inputs  []string
	Outputs []string
	Latches []Latch
	Gates   []Gate
}

// Parse reads a BLIF network. Lines ending in `\` are joined with the
// next line before tokenizing, per the format's continuation convention;
// blank lines and lines starting with `#` are ignored.
func Parse(r io.Reader) (*Model, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	m := &Model{}
	var curGate *Gate

	var pending string
	flush := func(line string) (string, bool) {
		line = strings.TrimRight(line, "\n\r")
		if strings.HasSuffix(line, "\\") {
			pending += strings.TrimSuffix(line, "\\")
			return "", false
		}
		joined := pending + line
		pending = ""
		return joined, true
	}

	for scanner.Scan() {
		line, ready := flush(scanner.Text())
		if !ready {
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !strings.HasPrefix(line, ".") {
			if curGate == nil {
				return nil, fmt.Errorf("blif: cover row outside a .names block: %q", line)
			}
			fields := strings.Fields(line)
			switch len(fields) {
			case 1:
				// constant gate: a single output bit, no input pattern.
				curGate.Rows = append(curGate.Rows, Row{Output: fields[0][0]})
			case 2:
				curGate.Rows = append(curGate.Rows, Row{Pattern: fields[0], Output: fields[1][0]})
			default:
				return nil, fmt.Errorf("blif: malformed cover row: %q", line)
			}
			continue
		}

		fields := strings.Fields(line)
		directive := fields[0]
		args := fields[1:]
		switch directive {
		case ".model":
			curGate = nil
			if len(args) > 0 {
				m.Name = args[0]
			}
		case ".inputs":
			curGate = nil
			m.Inputs = append(m.Inputs, args...)
		case ".outputs":
			curGate = nil
			m.Outputs = append(m.Outputs, args...)
		case ".latch":
			curGate = nil
			if len(args) < 2 {
				return nil, fmt.Errorf("blif: malformed .latch directive: %q", line)
			}
			m.Latches = append(m.Latches, Latch{Driver: args[0], Output: args[1]})
		case ".names":
			if len(args) < 1 {
				return nil, fmt.Errorf("blif: malformed .names directive: %q", line)
			}
			g := Gate{Inputs: args[:len(args)-1], Output: args[len(args)-1]}
			m.Gates = append(m.Gates, g)
			curGate = &m.Gates[len(m.Gates)-1]
		case ".end":
			curGate = nil
		default:
			curGate = nil
			// Other directives (.clock, .exdc, .default, ...) carry no
			// information this package's factor construction needs.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("blif: %w", err)
	}
	return m, nil
}
