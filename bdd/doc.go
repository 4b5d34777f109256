// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

/*
Package bdd defines a concrete type for reduced ordered Binary Decision
Diagrams (BDD), a data structure used to efficiently represent Boolean
functions over a fixed set of variables or, equivalently, sets of Boolean
vectors with a fixed size.

# Basics

A Manager has a fixed number of variables, Varnum, declared when it is
initialized (using the function New); each variable is represented by an
(integer) index in the interval [0..Varnum), called a level. Multiple
managers can coexist, possibly with different numbers of variables, but a
Node produced by one manager must never be passed to another. Operations that
validate their operands report such a Node with the typed error
ErrDifferentManagers when its position is out of range or names a free slot
in the receiving manager; a foreign Node whose position is live in the
receiving manager is not detected.

Most operations return a Node; a tagged reference to a vertex shared by the
whole manager. We use the convention that 1 (respectively 0) is the address
of the constant function True (respectively False). Nodes are referenced:
every function that produces a Node returns it referenced, and external
references are automatically managed by the Go runtime through a finalizer
attached at the point a Node escapes to the caller, mirroring the way the
MuDDy binding piggybacks on the ML garbage collector for BuDDy.

Beyond the classical single-pair Apply/Ite/Exist/AppEx operations, this
package also exposes multi-operand primitives, AndMulti and
AndExistsMulti, that conjoin (and optionally existentially project) an
arbitrary set of Nodes in a single recursive descent, together with
depth-clipped over- and under-approximating variants (ClippingAndMulti,
ClippingAndExistsMulti) and a minterm counter for sets (CountMintermMulti).
These are the primitives used by the factor-graph and variable-elimination
engines built on top of this package.

To get access to statistics about caches and garbage collection, as well as
logging of internal operations, build your executable with the build tag
`debug`.
*/
package bdd
