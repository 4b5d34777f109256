// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

import (
	"fmt"
	"sort"
)

// This file implements multi-operand extensions of And and AndExist: rather
// than folding a set of nodes pairwise through Apply/AppEx, AndMulti and
// AndExistsMulti walk every operand in a single recursive descent, choosing
// the topmost variable across the whole set at each step. This mirrors the
// semiring-matrix-multiplication algorithm used to conjoin many factors at
// once in sum-of-product style inference, and avoids materializing the
// (possibly much larger) pairwise intermediate conjunctions that Apply would
// otherwise build one pair at a time.
//
// Unlike a complemented-edge package, nodes here carry no polarity tag, so
// "is f the negation of g" is answered by comparing g against the memoized
// Not(f) rather than a pointer-bit test.

func (b *Manager) nodeIDs(fs []Node) ([]int, error) {
	out := make([]int, len(fs))
	for i, n := range fs {
		if b.checkptr(n) != nil {
			return nil, fmt.Errorf("wrong operand %d", i)
		}
		out[i] = *n
	}
	return out, nil
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func removeValue(s []int, v int) []int {
	out := make([]int, 0, len(s))
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// canonSet reduces elems to its canonical form for the AND family: duplicates
// collapsed, occurrences of the constant true dropped. trivial is set to 0 or
// 1 when the set collapses to a constant (the constant false is present, or a
// literal and its negation both occur, or the set becomes empty), and to -1
// otherwise.
func (b *Manager) canonSet(elems []int) (set []int, trivial int, err error) {
	m := make(map[int]bool, len(elems))
	for _, f := range elems {
		if f == 1 {
			continue
		}
		if f == 0 {
			return nil, 0, nil
		}
		m[f] = true
	}
	for f := range m {
		nf, err := b.not(f)
		if err != nil {
			return nil, -1, err
		}
		if m[nf] {
			return nil, 0, nil
		}
	}
	if len(m) == 0 {
		return nil, 1, nil
	}
	set = make([]int, 0, len(m))
	for f := range m {
		set = append(set, f)
	}
	sort.Ints(set)
	return set, -1, nil
}

// split partitions set on its topmost variable top, returning the then- and
// else-sets used by the next recursive step.
func (b *Manager) split(set []int, top int32) (tv, ev []int) {
	tv = make([]int, 0, len(set))
	ev = make([]int, 0, len(set))
	for _, f := range set {
		if f >= 2 && b.level(f) == top {
			tv = append(tv, b.high(f))
			ev = append(ev, b.low(f))
		} else {
			tv = append(tv, f)
			ev = append(ev, f)
		}
	}
	return tv, ev
}

func (b *Manager) topLevel(set []int) int32 {
	top := b.level(set[0])
	for _, f := range set[1:] {
		if lv := b.level(f); lv < top {
			top = lv
		}
	}
	return top
}

// AndMulti returns the conjunction of fs, computed in a single recursive
// descent over the whole operand set instead of folding Apply pairwise.
func (b *Manager) AndMulti(fs ...Node) Node {
	ids, err := b.nodeIDs(fs)
	if err != nil {
		return b.seterror("wrong operand in call to AndMulti")
	}
	res, err := b.andMulti(ids)
	if err != nil {
		return nil
	}
	return b.retnode(res)
}

func (b *Manager) andMulti(elems []int) (int, error) {
	if b.timedout() {
		return -1, errTimedout
	}
	set, trivial, err := b.canonSet(elems)
	if err != nil {
		return -1, err
	}
	if trivial >= 0 {
		return trivial, nil
	}
	if len(set) == 1 {
		return set[0], nil
	}
	if r := b.multicache.match(cacheidANDMULTI, set, 0); r >= 0 {
		return r, nil
	}
	top := b.topLevel(set)
	tv, ev := b.split(set, top)
	t, err := b.andMulti(tv)
	if err != nil {
		return -1, err
	}
	b.pushref(t)
	e, err := b.andMulti(ev)
	b.popref(1)
	if err != nil {
		return -1, err
	}
	var res int
	if t == e {
		res = t
	} else {
		b.pushref(t)
		b.pushref(e)
		res, err = b.makenode(top, e, t)
		b.popref(2)
		if err != nil {
			return -1, err
		}
	}
	return b.multicache.set(cacheidANDMULTI, set, 0, res), nil
}

// existAbstractSingle existentially abstracts cube (a Makeset cube, or 1 for
// the empty cube) out of the single node n. It is the leaf case reached once
// a multi-operand set has been whittled down to one element.
func (b *Manager) existAbstractSingle(n, cube int) (int, error) {
	if cube == 1 {
		return n, nil
	}
	if err := b.quantset2cache(cube); err != nil {
		return -1, err
	}
	b.applycache.op = int(OPor)
	b.quantcache.id = cacheidEXIST
	return b.quant(n)
}

// AndExistsMulti returns the conjunction of fs with the variables in varset
// (a cube built with Makeset) existentially eliminated, computed directly
// instead of building the full conjunction first and projecting afterwards.
func (b *Manager) AndExistsMulti(varset Node, fs ...Node) Node {
	if b.checkptr(varset) != nil {
		return b.seterror("wrong varset in call to AndExistsMulti")
	}
	ids, err := b.nodeIDs(fs)
	if err != nil {
		return b.seterror("wrong operand in call to AndExistsMulti")
	}
	res, err := b.andExistsMulti(ids, *varset)
	if err != nil {
		return nil
	}
	return b.retnode(res)
}

func (b *Manager) andExistsMulti(elems []int, cube int) (int, error) {
	if b.timedout() {
		return -1, errTimedout
	}
	set, trivial, err := b.canonSet(elems)
	if err != nil {
		return -1, err
	}
	if trivial >= 0 {
		return trivial, nil
	}
	if len(set) == 1 {
		return b.existAbstractSingle(set[0], cube)
	}
	if cube == 1 {
		return b.andMulti(set)
	}

	top := b.topLevel(set)
	topcube := b.level(cube)
	for topcube < top {
		cube = b.high(cube)
		if cube == 1 {
			return b.andMulti(set)
		}
		topcube = b.level(cube)
	}

	if r := b.multicache.match(cacheidANDEXISTSMULTI, set, cube); r >= 0 {
		return r, nil
	}

	tv, ev := b.split(set, top)

	if topcube == top {
		remaining := b.high(cube)
		t, err := b.andExistsMulti(tv, remaining)
		if err != nil {
			return -1, err
		}
		if t == 1 || containsInt(ev, t) {
			return t, nil
		}
		b.pushref(t)
		nt, err := b.not(t)
		if err != nil {
			b.popref(1)
			return -1, err
		}
		e, err := b.andExistsMulti(removeValue(ev, nt), remaining)
		b.popref(1)
		if err != nil {
			return -1, err
		}
		var res int
		if t == e {
			res = t
		} else {
			b.pushref(t)
			b.pushref(e)
			b.applycache.op = int(OPor)
			res, err = b.apply(t, e)
			b.popref(2)
			if err != nil {
				return -1, err
			}
		}
		return b.multicache.set(cacheidANDEXISTSMULTI, set, cube, res), nil
	}

	t, err := b.andExistsMulti(tv, cube)
	if err != nil {
		return -1, err
	}
	b.pushref(t)
	e, err := b.andExistsMulti(ev, cube)
	b.popref(1)
	if err != nil {
		return -1, err
	}
	var res int
	if t == e {
		res = t
	} else {
		b.pushref(t)
		b.pushref(e)
		res, err = b.makenode(top, e, t)
		b.popref(2)
		if err != nil {
			return -1, err
		}
	}
	return b.multicache.set(cacheidANDEXISTSMULTI, set, cube, res), nil
}

// ClippingAndMulti approximates the conjunction of fs, giving up and
// returning a trivial bound once the recursion passes maxDepth. With
// overapprox true the bound is the constant true (so the result is a
// superset of the exact conjunction); with overapprox false it is the
// constant false (a subset).
func (b *Manager) ClippingAndMulti(maxDepth int, overapprox bool, fs ...Node) Node {
	ids, err := b.nodeIDs(fs)
	if err != nil {
		return b.seterror("wrong operand in call to ClippingAndMulti")
	}
	res, err := b.clippingAndMulti(ids, maxDepth, overapprox)
	if err != nil {
		return nil
	}
	return b.retnode(res)
}

func (b *Manager) clippingAndMulti(elems []int, distance int, overapprox bool) (int, error) {
	set, trivial, err := b.canonSet(elems)
	if err != nil {
		return -1, err
	}
	if trivial >= 0 {
		return trivial, nil
	}
	if len(set) == 1 {
		return set[0], nil
	}
	if distance == 0 || b.timedout() {
		if bound := b.leqChain(set); bound >= 0 {
			return bound, nil
		}
		if overapprox {
			return 1, nil
		}
		return 0, nil
	}
	// The clipped result depends on the remaining depth too, so the depth
	// is folded into the cache tag alongside the direction.
	tag := clipTag(distance, overapprox)
	if r := b.multicache.match(tag, set, 0); r >= 0 {
		return r, nil
	}
	distance--
	top := b.topLevel(set)
	tv, ev := b.split(set, top)
	t, err := b.clippingAndMulti(tv, distance, overapprox)
	if err != nil {
		return -1, err
	}
	b.pushref(t)
	e, err := b.clippingAndMulti(ev, distance, overapprox)
	b.popref(1)
	if err != nil {
		return -1, err
	}
	var res int
	if t == e {
		res = t
	} else {
		b.pushref(t)
		b.pushref(e)
		res, err = b.makenode(top, e, t)
		b.popref(2)
		if err != nil {
			return -1, err
		}
	}
	return b.multicache.set(tag, set, 0, res), nil
}

// clipTag builds the multicache tag for a clipped operation from the
// remaining depth and the approximation direction.
func clipTag(distance int, overapprox bool) int {
	if overapprox {
		return cacheidCLIPUP | distance<<2
	}
	return cacheidCLIPDOWN | distance<<2
}

// leqChain returns the unique element of set that is implied by every other
// element (i.e. the minimum of set under the BDD implication order), or -1
// if no such element exists. This lets the depth-limit case of
// ClippingAndMulti return an exact answer for chains instead of always
// falling back to the approximation bound.
func (b *Manager) leqChain(set []int) int {
	min := set[0]
	for _, f := range set[1:] {
		if min == -1 {
			break
		}
		switch {
		case b.implies(min, f):
			// min unchanged
		case b.implies(f, min):
			min = f
		default:
			min = -1
		}
	}
	return min
}

// implies tests whether f implies g, i.e. whether f is a subset of g. Both
// must belong to this manager; the check is done via a (memoized) Apply.
func (b *Manager) implies(f, g int) bool {
	b.applycache.op = int(OPimp)
	res, err := b.apply(f, g)
	if err != nil {
		return false
	}
	return res == 1
}

// ClippingAndExistsMulti is the AndExistsMulti analogue of ClippingAndMulti:
// it approximates the conjunction of fs existentially projecting varset,
// giving up (in the direction set by overapprox) past maxDepth.
func (b *Manager) ClippingAndExistsMulti(varset Node, maxDepth int, overapprox bool, fs ...Node) Node {
	if b.checkptr(varset) != nil {
		return b.seterror("wrong varset in call to ClippingAndExistsMulti")
	}
	ids, err := b.nodeIDs(fs)
	if err != nil {
		return b.seterror("wrong operand in call to ClippingAndExistsMulti")
	}
	res, err := b.clippingAndExistsMulti(ids, *varset, maxDepth, overapprox)
	if err != nil {
		return nil
	}
	return b.retnode(res)
}

func (b *Manager) clippingAndExistsMulti(elems []int, cube int, distance int, overapprox bool) (int, error) {
	set, trivial, err := b.canonSet(elems)
	if err != nil {
		return -1, err
	}
	if trivial >= 0 {
		return trivial, nil
	}
	if cube == 1 {
		return b.clippingAndMulti(set, distance, overapprox)
	}
	if len(set) == 1 {
		return b.existAbstractSingle(set[0], cube)
	}
	if distance == 0 || b.timedout() {
		if overapprox {
			return 1, nil
		}
		return 0, nil
	}
	tag := clipTag(distance, overapprox)
	if r := b.multicache.match(tag, set, cube); r >= 0 {
		return r, nil
	}
	distance--

	top := b.topLevel(set)
	topcube := b.level(cube)
	if topcube < top {
		return b.clippingAndExistsMulti(set, b.high(cube), distance+1, overapprox)
	}

	tv, ev := b.split(set, top)
	next := cube
	if topcube == top {
		next = b.high(cube)
	}
	t, err := b.clippingAndExistsMulti(tv, next, distance, overapprox)
	if err != nil {
		return -1, err
	}
	if t == 1 && topcube == top {
		return 1, nil
	}
	b.pushref(t)
	e, err := b.clippingAndExistsMulti(ev, next, distance, overapprox)
	b.popref(1)
	if err != nil {
		return -1, err
	}

	if topcube == top {
		b.pushref(t)
		b.pushref(e)
		nt, err := b.not(t)
		if err != nil {
			b.popref(2)
			return -1, err
		}
		b.pushref(nt)
		ne, err := b.not(e)
		b.popref(1)
		if err != nil {
			b.popref(2)
			return -1, err
		}
		b.pushref(nt)
		b.pushref(ne)
		res, err := b.clippingAndMulti([]int{nt, ne}, distance, !overapprox)
		b.popref(4)
		if err != nil {
			return -1, err
		}
		b.pushref(res)
		nres, err := b.not(res)
		b.popref(1)
		if err != nil {
			return -1, err
		}
		return b.multicache.set(tag, set, cube, nres), nil
	}
	var res int
	if t == e {
		res = t
	} else {
		b.pushref(t)
		b.pushref(e)
		res, err = b.makenode(top, e, t)
		b.popref(2)
		if err != nil {
			return -1, err
		}
	}
	return b.multicache.set(tag, set, cube, res), nil
}

// CountMintermMulti returns the number of assignments (over all Varnum()
// variables) that satisfy every node in fs, without ever materializing their
// conjunction.
func (b *Manager) CountMintermMulti(fs ...Node) (float64, error) {
	ids, err := b.nodeIDs(fs)
	if err != nil {
		return 0, err
	}
	count, err := b.countMintermMulti(ids, pow2(b.varnum))
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (b *Manager) countMintermMulti(elems []int, max float64) (float64, error) {
	if containsInt(elems, 0) {
		return 0, nil
	}
	funcs := make([]int, 0, len(elems))
	for _, f := range elems {
		if f != 1 {
			funcs = append(funcs, f)
		}
	}
	if len(funcs) == 0 {
		return max, nil
	}
	top := b.topLevel(funcs)
	tv := make([]int, 0, len(funcs))
	ev := make([]int, 0, len(funcs))
	for _, f := range funcs {
		if b.level(f) == top {
			tv = append(tv, b.high(f))
			ev = append(ev, b.low(f))
		} else {
			tv = append(tv, f)
			ev = append(ev, f)
		}
	}
	tCount, err := b.countMintermMulti(tv, max)
	if err != nil {
		return 0, err
	}
	eCount, err := b.countMintermMulti(ev, max)
	if err != nil {
		return 0, err
	}
	return tCount*0.5 + eCount*0.5, nil
}
