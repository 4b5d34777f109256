// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

// Support returns the set of variable levels that n actually depends on, in
// increasing order. Unlike Scanset (which decodes a cube built with
// Makeset), Support walks the whole node and reports every level mentioned
// on any path, regardless of position.
func (b *Manager) Support(n Node) ([]int, error) {
	return b.VectorSupport(n)
}

// VectorSupport returns the set of variable levels mentioned anywhere in the
// union of the nodes in fs, in increasing order. This is the BDD analogue of
// a clause's set of variables, used by factorgraph to build one variable
// node per distinct level referenced by a function node.
func (b *Manager) VectorSupport(fs ...Node) ([]int, error) {
	seen := make(map[int32]bool)
	mark := make(map[int]bool)
	var walk func(n int)
	walk = func(n int) {
		if n < 2 || mark[n] {
			return
		}
		mark[n] = true
		seen[b.level(n)] = true
		walk(b.low(n))
		walk(b.high(n))
	}
	for _, f := range fs {
		if f == nil {
			b.seterror("wrong operand in call to VectorSupport (nil)")
			return nil, b.error
		}
		walk(*f)
	}
	res := make([]int, 0, len(seen))
	for lvl := range seen {
		res = append(res, int(lvl))
	}
	sortInts(res)
	return res, nil
}

// sortInts is a tiny insertion sort for the small slices of levels sorted in
// this package (support sets and Makeset's varset).
func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		v := s[i]
		j := i - 1
		for j >= 0 && s[j] > v {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = v
	}
}

// Cofactor returns the positive (val true) or negative (val false) cofactor
// of n with respect to the variable at level lvl: the sub-function obtained
// by restricting that variable to the given value. If n does not depend on
// lvl, Cofactor returns n unchanged.
func (b *Manager) Cofactor(n Node, lvl int, val bool) Node {
	if n == nil {
		b.seterror("wrong operand in call to Cofactor (nil)")
		return nil
	}
	res, err := b.cofactor(*n, int32(lvl), val)
	if err != nil {
		return nil
	}
	return b.retnode(res)
}

func (b *Manager) cofactor(n int, lvl int32, val bool) (int, error) {
	if n < 2 || b.level(n) > lvl {
		return n, nil
	}
	if b.level(n) == lvl {
		if val {
			return b.high(n), nil
		}
		return b.low(n), nil
	}
	lo, err := b.cofactor(b.low(n), lvl, val)
	if err != nil {
		return 0, err
	}
	hi, err := b.cofactor(b.high(n), lvl, val)
	if err != nil {
		return 0, err
	}
	if lo == hi {
		return lo, nil
	}
	return b.makenode(b.level(n), lo, hi)
}
