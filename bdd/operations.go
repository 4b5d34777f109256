// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

// Scanset decodes a node built with Makeset into the slice of variable
// indices it represents, in increasing order.
func (b *Manager) Scanset(n Node) ([]int, error) {
	if b.checkptr(n) != nil {
		b.seterror("wrong operand in call to Scanset (%d)", *n)
		return nil, b.error
	}
	res := []int{}
	for i := *n; i > 1; i = b.high(i) {
		res = append(res, int(b.level(i)))
	}
	return res, nil
}

// Makeset returns a Node (a cube) representing the conjunction of the
// positive literals of varset, used as a quantification set in Exist and
// AppEx. The input order does not matter.
func (b *Manager) Makeset(varset []int) Node {
	sorted := append([]int(nil), varset...)
	sortInts(sorted)
	res := 1
	for i := len(sorted) - 1; i >= 0; i-- {
		v := sorted[i]
		if v < 0 || v >= len(b.varset) {
			return b.seterror("variable index out of range in Makeset (%d)", v)
		}
		var err error
		res, err = b.makenode(int32(v), 0, res)
		if err != nil {
			return b.seterror("cannot allocate set in Makeset")
		}
	}
	return b.retnode(res)
}

// Not returns the negation of n.
func (b *Manager) Not(n Node) Node {
	if b.checkptr(n) != nil {
		return b.seterror("wrong operand in call to Not (%d)", *n)
	}
	res, err := b.not(*n)
	if err != nil {
		return nil
	}
	return b.retnode(res)
}

func (b *Manager) not(n int) (int, error) {
	if n < 2 {
		return 1 - n, nil
	}
	if r := b.applycache.matchnot(n); r >= 0 {
		return r, nil
	}
	low, err := b.not(b.low(n))
	if err != nil {
		return -1, err
	}
	b.pushref(low)
	high, err := b.not(b.high(n))
	b.popref(1)
	if err != nil {
		return -1, err
	}
	b.pushref(low)
	b.pushref(high)
	res, err := b.makenode(b.level(n), low, high)
	b.popref(2)
	if err != nil {
		return -1, err
	}
	return b.applycache.setnot(n, res), nil
}

// Apply combines left and right with the given operator.
func (b *Manager) Apply(op Operator, left, right Node) Node {
	if op == opnot {
		return b.seterror("opnot is not a valid Apply operator")
	}
	if b.checkptr(left) != nil || b.checkptr(right) != nil {
		return b.seterror("wrong operand in call to Apply")
	}
	b.applycache.op = int(op)
	res, err := b.apply(*left, *right)
	if err != nil {
		return nil
	}
	return b.retnode(res)
}

func (b *Manager) apply(left, right int) (int, error) {
	op := Operator(b.applycache.op)
	var res int
	switch {
	case left < 2 && right < 2:
		return opres[op][left][right], nil
	case b.level(left) == b.level(right):
		if r := b.applycache.matchapply(left, right); r >= 0 {
			return r, nil
		}
		lo, err := b.apply(b.low(left), b.low(right))
		if err != nil {
			return -1, err
		}
		b.pushref(lo)
		hi, err := b.apply(b.high(left), b.high(right))
		b.popref(1)
		if err != nil {
			return -1, err
		}
		b.pushref(lo)
		b.pushref(hi)
		res, err = b.makenode(b.level(left), lo, hi)
		b.popref(2)
		if err != nil {
			return -1, err
		}
		return b.applycache.setapply(left, right, res), nil
	case left >= 2 && (right < 2 || b.level(left) < b.level(right)):
		if r := b.applycache.matchapply(left, right); r >= 0 {
			return r, nil
		}
		lo, err := b.apply(b.low(left), right)
		if err != nil {
			return -1, err
		}
		b.pushref(lo)
		hi, err := b.apply(b.high(left), right)
		b.popref(1)
		if err != nil {
			return -1, err
		}
		b.pushref(lo)
		b.pushref(hi)
		res, err = b.makenode(b.level(left), lo, hi)
		b.popref(2)
		if err != nil {
			return -1, err
		}
		return b.applycache.setapply(left, right, res), nil
	default:
		if r := b.applycache.matchapply(left, right); r >= 0 {
			return r, nil
		}
		lo, err := b.apply(left, b.low(right))
		if err != nil {
			return -1, err
		}
		b.pushref(lo)
		hi, err := b.apply(left, b.high(right))
		b.popref(1)
		if err != nil {
			return -1, err
		}
		b.pushref(lo)
		b.pushref(hi)
		res, err = b.makenode(b.level(right), lo, hi)
		b.popref(2)
		if err != nil {
			return -1, err
		}
		return b.applycache.setapply(left, right, res), nil
	}
}

// Ite returns the BDD for "if f then g else h".
func (b *Manager) Ite(f, g, h Node) Node {
	if b.checkptr(f) != nil || b.checkptr(g) != nil || b.checkptr(h) != nil {
		return b.seterror("wrong operand in call to Ite")
	}
	res, err := b.ite(*f, *g, *h)
	if err != nil {
		return nil
	}
	return b.retnode(res)
}

func (b *Manager) ite(f, g, h int) (int, error) {
	switch {
	case f == 1:
		return g, nil
	case f == 0:
		return h, nil
	case g == h:
		return g, nil
	case g == 1 && h == 0:
		return f, nil
	}
	if r := b.itecache.matchite(f, g, h); r >= 0 {
		return r, nil
	}
	var lf, hf, lg, hg, lh, hh int
	level := b.level(f)
	if g >= 2 && b.level(g) < level {
		level = b.level(g)
	}
	if h >= 2 && b.level(h) < level {
		level = b.level(h)
	}
	if f >= 2 && b.level(f) == level {
		lf, hf = b.low(f), b.high(f)
	} else {
		lf, hf = f, f
	}
	if g >= 2 && b.level(g) == level {
		lg, hg = b.low(g), b.high(g)
	} else {
		lg, hg = g, g
	}
	if h >= 2 && b.level(h) == level {
		lh, hh = b.low(h), b.high(h)
	} else {
		lh, hh = h, h
	}
	lo, err := b.ite(lf, lg, lh)
	if err != nil {
		return -1, err
	}
	b.pushref(lo)
	hi, err := b.ite(hf, hg, hh)
	b.popref(1)
	if err != nil {
		return -1, err
	}
	b.pushref(lo)
	b.pushref(hi)
	res, err := b.makenode(level, lo, hi)
	b.popref(2)
	if err != nil {
		return -1, err
	}
	return b.itecache.setite(f, g, h, res), nil
}

// Exist eliminates the variables in varset (built with Makeset) from n by
// existential quantification.
func (b *Manager) Exist(n Node, varset Node) Node {
	if b.checkptr(n) != nil || b.checkptr(varset) != nil {
		return b.seterror("wrong operand in call to Exist")
	}
	if *varset < 2 {
		return b.retnode(*n)
	}
	if err := b.quantset2cache(*varset); err != nil {
		return nil
	}
	b.applycache.op = int(OPor)
	b.quantcache.id = cacheidEXIST
	res, err := b.quant(*n)
	if err != nil {
		return nil
	}
	return b.retnode(res)
}

// Forall eliminates the variables in varset (built with Makeset) from n by
// universal quantification: the result holds at an assignment of the
// remaining variables iff n holds for every extension over varset.
func (b *Manager) Forall(n Node, varset Node) Node {
	if b.checkptr(n) != nil || b.checkptr(varset) != nil {
		return b.seterror("wrong operand in call to Forall")
	}
	if *varset < 2 {
		return b.retnode(*n)
	}
	if err := b.quantset2cache(*varset); err != nil {
		return nil
	}
	b.applycache.op = int(OPand)
	b.quantcache.id = cacheidFORALL
	res, err := b.quant(*n)
	if err != nil {
		return nil
	}
	return b.retnode(res)
}

func (b *Manager) quant(n int) (int, error) {
	if n < 2 || b.level(n) > b.quantcache.quantlast {
		return n, nil
	}
	if r := b.quantcache.matchquant(n, int(b.quantcache.quantsetID)); r >= 0 {
		return r, nil
	}
	lo, err := b.quant(b.low(n))
	if err != nil {
		return -1, err
	}
	b.pushref(lo)
	hi, err := b.quant(b.high(n))
	b.popref(1)
	if err != nil {
		return -1, err
	}
	var res int
	if b.quantcache.quantset[b.level(n)] == b.quantcache.quantsetID {
		b.pushref(lo)
		b.pushref(hi)
		res, err = b.apply(lo, hi)
		b.popref(2)
	} else {
		b.pushref(lo)
		b.pushref(hi)
		res, err = b.makenode(b.level(n), lo, hi)
		b.popref(2)
	}
	if err != nil {
		return -1, err
	}
	return b.quantcache.setquant(n, int(b.quantcache.quantsetID), res), nil
}

// AppEx combines left and right with op, then immediately eliminates the
// variables in varset, doing both steps as a single recursive sweep.
// Reduces to Apply followed by Exist, but avoids building the (possibly
// large) intermediate Apply result. Only OPand, OPxor, OPor and OPnand are
// supported.
func (b *Manager) AppEx(op Operator, left, right Node, varset Node) Node {
	if op != OPand && op != OPxor && op != OPor && op != OPnand {
		return b.seterror("operator %s not supported in AppEx", op)
	}
	if b.checkptr(left) != nil || b.checkptr(right) != nil || b.checkptr(varset) != nil {
		return b.seterror("wrong operand in call to AppEx")
	}
	if *varset < 2 {
		return b.Apply(op, left, right)
	}
	if err := b.quantset2cache(*varset); err != nil {
		return nil
	}
	b.appexcache.op = int(op)
	b.appexcache.id = (*varset << 2) | int(op)
	b.applycache.op = int(OPor)
	res, err := b.appquant(*left, *right)
	if err != nil {
		return nil
	}
	return b.retnode(res)
}

func (b *Manager) appquant(left, right int) (int, error) {
	op := Operator(b.appexcache.op)
	switch {
	case left == 0 || right == 0:
		if op == OPand || op == OPxor {
			return 0, nil
		}
		if op == OPor {
			return 1, nil
		}
	case left == 1 && right == 1:
		if op == OPand {
			return 1, nil
		}
		if op == OPxor || op == OPnand {
			return 0, nil
		}
	case left == right:
		if op == OPand || op == OPor {
			return b.quant(left)
		}
		if op == OPxor {
			return 0, nil
		}
	case left == 1 || right == 1:
		if op == OPand {
			return b.quant(left + right - 1)
		}
	}
	if left < 2 && right < 2 {
		return opres[op][left][right], nil
	}
	if b.level(left) > b.quantcache.quantlast && b.level(right) > b.quantcache.quantlast {
		b.applycache.op = int(op)
		res, err := b.apply(left, right)
		b.applycache.op = int(OPor)
		return res, err
	}
	if r := b.appexcache.matchappex(left, right); r >= 0 {
		return r, nil
	}
	var level int32
	var lfl, hfl, lfr, hfr int
	switch {
	case left < 2:
		level = b.level(right)
		lfl, hfl = left, left
		lfr, hfr = b.low(right), b.high(right)
	case right < 2:
		level = b.level(left)
		lfl, hfl = b.low(left), b.high(left)
		lfr, hfr = right, right
	case b.level(left) == b.level(right):
		level = b.level(left)
		lfl, hfl = b.low(left), b.high(left)
		lfr, hfr = b.low(right), b.high(right)
	case b.level(left) < b.level(right):
		level = b.level(left)
		lfl, hfl = b.low(left), b.high(left)
		lfr, hfr = right, right
	default:
		level = b.level(right)
		lfl, hfl = left, left
		lfr, hfr = b.low(right), b.high(right)
	}
	lo, err := b.appquant(lfl, lfr)
	if err != nil {
		return -1, err
	}
	b.pushref(lo)
	hi, err := b.appquant(hfl, hfr)
	b.popref(1)
	if err != nil {
		return -1, err
	}
	var res int
	if b.quantcache.quantset[level] == b.quantcache.quantsetID {
		b.pushref(lo)
		b.pushref(hi)
		res, err = b.apply(lo, hi)
		b.popref(2)
	} else {
		b.pushref(lo)
		b.pushref(hi)
		res, err = b.makenode(level, lo, hi)
		b.popref(2)
	}
	if err != nil {
		return -1, err
	}
	return b.appexcache.setappex(left, right, res), nil
}

// Replace substitutes variables in n according to the given Replacer.
func (b *Manager) Replace(n Node, r Replacer) Node {
	if b.checkptr(n) != nil {
		return b.seterror("wrong operand in call to Replace (%d)", *n)
	}
	rp, ok := r.(*replacer)
	if !ok {
		return b.seterror("wrong replacer in call to Replace")
	}
	b.replacecache.id = rp.id
	res, err := b.replace(*n, rp)
	if err != nil {
		return nil
	}
	return b.retnode(b.correctify(0, *n, res))
}

func (b *Manager) replace(n int, r *replacer) (int, error) {
	if n < 2 || b.level(n) > r.last {
		return n, nil
	}
	if res := b.replacecache.matchreplace(n); res >= 0 {
		return res, nil
	}
	lo, err := b.replace(b.low(n), r)
	if err != nil {
		return -1, err
	}
	b.pushref(lo)
	hi, err := b.replace(b.high(n), r)
	b.popref(1)
	if err != nil {
		return -1, err
	}
	b.pushref(lo)
	b.pushref(hi)
	res, err := b.makenode(r.image[b.level(n)], lo, hi)
	b.popref(2)
	if err != nil {
		return -1, err
	}
	return b.replacecache.setreplace(n, res), nil
}

// correctify repairs an ordering violation that Replace may have introduced
// when the substitution does not respect the existing variable order.
func (b *Manager) correctify(level int32, n, c int) int {
	if b.level(c) > level {
		return c
	}
	if int(level) >= len(b.varset) {
		b.seterror("index out of range in correctify (%d)", level)
		return -1
	}
	lo := b.correctify(level+1, b.low(n), b.low(c))
	b.pushref(lo)
	hi := b.correctify(level+1, b.high(n), b.high(c))
	b.popref(1)
	b.pushref(lo)
	b.pushref(hi)
	res, err := b.makenode(b.level(n), lo, hi)
	b.popref(2)
	if err != nil {
		return -1
	}
	return res
}

// Satcount returns the number of satisfying assignments of n, counted over
// all Varnum() variables (not just those appearing in n).
func (b *Manager) Satcount(n Node) (float64, error) {
	if b.checkptr(n) != nil {
		return 0, b.error
	}
	return b.satcount(*n) * pow2(b.level(*n)), nil
}

func (b *Manager) satcount(n int) float64 {
	if n == 0 {
		return 0
	}
	if n == 1 {
		return 1
	}
	sum := b.satcount(b.low(n))*pow2(b.level(b.low(n))-b.level(n)-1) +
		b.satcount(b.high(n))*pow2(b.level(b.high(n))-b.level(n)-1)
	return sum
}

func pow2(n int32) float64 {
	res := 1.0
	for ; n > 0; n-- {
		res *= 2
	}
	return res
}

// Allsat enumerates all satisfying assignments of n, calling f for each one
// with a slice (indexed by variable) of -1 (don't care), 0 or 1. Stops early
// if f returns false.
func (b *Manager) Allsat(n Node, f func([]int8) bool) error {
	if b.checkptr(n) != nil {
		return b.error
	}
	store := make([]int8, b.varnum)
	for i := range store {
		store[i] = -1
	}
	cont := true
	b.allsat(*n, store, &cont, f)
	return nil
}

func (b *Manager) allsat(n int, store []int8, cont *bool, f func([]int8) bool) {
	if !*cont {
		return
	}
	if n == 0 {
		return
	}
	if n == 1 {
		*cont = f(append([]int8(nil), store...))
		return
	}
	store[b.level(n)] = 0
	b.allsat(b.low(n), store, cont, f)
	store[b.level(n)] = 1
	b.allsat(b.high(n), store, cont, f)
	store[b.level(n)] = -1
}

// Allnodes walks every live node reachable from the given roots (or the
// whole manager, if no root is given) exactly once and calls f with
// (position, level, low, high). Iteration order is unspecified.
func (b *Manager) Allnodes(f func(id, level, low, high int) error, n ...Node) error {
	if len(n) == 0 {
		for k := range b.nodes {
			if b.nodes[k].low == -1 {
				continue
			}
			if err := f(k, int(b.level(k)), b.low(k), b.high(k)); err != nil {
				return err
			}
		}
		return nil
	}
	seen := make(map[int]bool)
	var visit func(int) error
	visit = func(pos int) error {
		if seen[pos] {
			return nil
		}
		seen[pos] = true
		if pos >= 2 {
			if err := visit(b.low(pos)); err != nil {
				return err
			}
			if err := visit(b.high(pos)); err != nil {
				return err
			}
		}
		return f(pos, int(b.level(pos)), b.low(pos), b.high(pos))
	}
	for _, root := range n {
		if b.checkptr(root) != nil {
			return b.error
		}
		if err := visit(*root); err != nil {
			return err
		}
	}
	return nil
}
