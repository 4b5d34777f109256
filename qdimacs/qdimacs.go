// Package qdimacs parses and writes QDIMACS: DIMACS CNF extended with a
// quantifier prefix. The tokenizer itself is deliberately simple glue;
// this package only turns the format into the typed Problem the rest of
// qbfproj operates on.
package qdimacs

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dalzilio/qbfproj/internal/qerrors"
)

// Kind distinguishes an existential block from a universal one.
type Kind int

const (
	Exists Kind = iota
	ForAll
)

func (k Kind) String() string {
	if k == Exists {
		return "e"
	}
	return "a"
}

// Block is one quantifier alternation: a kind and the ordered set of
// variables it binds.
type Block struct {
	Kind Kind
	Vars []int
}

// Clause is a disjunction of literals; a positive int is the variable, a
// negative int its negation, matching DIMACS convention.
type Clause []int

// Problem is a parsed QDIMACS document.
type Problem struct {
	NumVars int
	Prefix  []Block
	Clauses []Clause
}

// InnermostExistential reports whether the innermost (last) quantifier
// block is existential, the only shape the projection engine consumes
// directly.
func (p *Problem) InnermostExistential() bool {
	if len(p.Prefix) == 0 {
		return false
	}
	return p.Prefix[len(p.Prefix)-1].Kind == Exists
}

// InnerVars returns the variable set of the innermost quantifier block.
func (p *Problem) InnerVars() []int {
	if len(p.Prefix) == 0 {
		return nil
	}
	return p.Prefix[len(p.Prefix)-1].Vars
}

// Parse reads a QDIMACS document from r. Comment lines start with 'c',
// the header line is "p cnf <nvars> <nclauses>", quantifier lines are
// "e v1 v2 ... 0" / "a v1 v2 ... 0", and the remaining lines are clauses
// terminated by a literal 0.
func Parse(r io.Reader) (*Problem, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	p := &Problem{}
	headerSeen := false
	lineno := 0
	expectedClauses := -1

	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		switch line[0] {
		case 'c':
			continue
		case 'p':
			fields := strings.Fields(line)
			if len(fields) != 4 || fields[1] != "cnf" {
				return nil, qerrors.Wrapf(qerrors.ErrParse, "line %d: malformed header %q", lineno, line)
			}
			nv, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, qerrors.Wrapf(qerrors.ErrParse, "line %d: bad variable count: %v", lineno, err)
			}
			nc, err := strconv.Atoi(fields[3])
			if err != nil {
				return nil, qerrors.Wrapf(qerrors.ErrParse, "line %d: bad clause count: %v", lineno, err)
			}
			p.NumVars = nv
			expectedClauses = nc
			headerSeen = true
		case 'e', 'a':
			if !headerSeen {
				return nil, qerrors.Wrapf(qerrors.ErrParse, "line %d: quantifier block before header", lineno)
			}
			vars, err := parseTermination(line[1:], lineno)
			if err != nil {
				return nil, err
			}
			kind := Exists
			if line[0] == 'a' {
				kind = ForAll
			}
			p.Prefix = append(p.Prefix, Block{Kind: kind, Vars: vars})
		default:
			if !headerSeen {
				return nil, qerrors.Wrapf(qerrors.ErrParse, "line %d: clause before header", lineno)
			}
			lits, err := parseTermination(line, lineno)
			if err != nil {
				return nil, err
			}
			p.Clauses = append(p.Clauses, Clause(lits))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, qerrors.Wrapf(qerrors.ErrParse, "reading input: %v", err)
	}
	if !headerSeen {
		return nil, qerrors.Wrap(qerrors.ErrParse, "missing p cnf header")
	}
	if expectedClauses >= 0 && len(p.Clauses) != expectedClauses {
		return nil, qerrors.Wrapf(qerrors.ErrParse, "header declares %d clauses, found %d", expectedClauses, len(p.Clauses))
	}
	return p, nil
}

// parseTermination parses a whitespace-separated list of ints ending in a
// literal 0, as used by both quantifier and clause lines.
func parseTermination(s string, lineno int) ([]int, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || fields[len(fields)-1] != "0" {
		return nil, qerrors.Wrapf(qerrors.ErrParse, "line %d: missing terminating 0", lineno)
	}
	res := make([]int, 0, len(fields)-1)
	for _, f := range fields[:len(fields)-1] {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, qerrors.Wrapf(qerrors.ErrParse, "line %d: bad literal %q", lineno, f)
		}
		res = append(res, v)
	}
	return res, nil
}

// Write emits p in QDIMACS form, mirroring the layout Parse accepts.
func Write(w io.Writer, p *Problem) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "p cnf %d %d\n", p.NumVars, len(p.Clauses)); err != nil {
		return err
	}
	for _, b := range p.Prefix {
		if _, err := fmt.Fprintf(bw, "%s %s 0\n", b.Kind, intsString(b.Vars)); err != nil {
			return err
		}
	}
	for _, c := range p.Clauses {
		if _, err := fmt.Fprintf(bw, "%s 0\n", intsString(c)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func intsString(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, " ")
}
