// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

// And returns the logical 'and' of a sequence of nodes, computed pairwise
// via Apply. See AndMulti for a version that does all the work in a single
// recursive descent over the whole set.
func (b *Manager) And(n ...Node) Node {
	if len(n) == 0 {
		return b.True()
	}
	res := n[0]
	for _, m := range n[1:] {
		res = b.Apply(OPand, res, m)
	}
	return res
}

// Or returns the logical 'or' of a sequence of nodes.
func (b *Manager) Or(n ...Node) Node {
	if len(n) == 0 {
		return b.False()
	}
	res := n[0]
	for _, m := range n[1:] {
		res = b.Apply(OPor, res, m)
	}
	return res
}

// Imp returns the logical implication n1 => n2.
func (b *Manager) Imp(n1, n2 Node) Node {
	return b.Apply(OPimp, n1, n2)
}

// Equiv returns the logical bi-implication between n1 and n2.
func (b *Manager) Equiv(n1, n2 Node) Node {
	return b.Apply(OPbiimp, n1, n2)
}

// Xnor returns the logical bi-implication between n1 and n2: an alias for
// Equiv under the name the BDD literature usually gives this operator.
func (b *Manager) Xnor(n1, n2 Node) Node {
	return b.Equiv(n1, n2)
}

// IsOne reports whether n is the constant true.
func (b *Manager) IsOne(n Node) bool {
	return b.Equal(n, b.True())
}

// IsZero reports whether n is the constant false.
func (b *Manager) IsZero(n Node) bool {
	return b.Equal(n, b.False())
}

// Equal tests identity between two nodes of the same manager.
func (b *Manager) Equal(low, high Node) bool {
	if low == nil || high == nil {
		return low == high
	}
	return *low == *high
}

// AndExist returns the relational composition of n1 and n2 with respect to
// varset, i.e. (Exists varset. n1 & n2), computed in a single sweep.
func (b *Manager) AndExist(n1, n2 Node, varset Node) Node {
	return b.AppEx(OPand, n1, n2, varset)
}
