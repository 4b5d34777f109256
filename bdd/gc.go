// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

import (
	"log"
	"math"
)

// gcstat stores status information about garbage collections. We use a
// slice of snapshots to record the history of GCs during a computation.
type gcstat struct {
	setfinalizers    uint64
	calledfinalizers uint64
	uniqueAccess     int
	uniqueHit        int
	uniqueMiss       int
	history          []gcpoint
}

type gcpoint struct {
	nodes            int
	freenodes        int
	setfinalizers    int
	calledfinalizers int
}

// AddRef increases the reference count on node n and returns n so that calls
// can be chained. AddRef never raises an error, even on an out-of-range node.
func (b *Manager) AddRef(n Node) Node {
	if n == nil || *n < 2 || *n >= len(b.nodes) || b.nodes[*n].low == -1 {
		return n
	}
	if b.nodes[*n].refcou < _MAXREFCOUNT {
		b.nodes[*n].refcou++
	}
	return n
}

// DelRef decreases the reference count on node n and returns n so that calls
// can be chained.
func (b *Manager) DelRef(n Node) Node {
	if n == nil || *n >= len(b.nodes) || b.nodes[*n].low == -1 {
		return n
	}
	if b.nodes[*n].refcou <= 0 {
		return n
	}
	if b.nodes[*n].refcou < _MAXREFCOUNT {
		b.nodes[*n].refcou--
	}
	return n
}

// gbc is the garbage collector, invoked from makenode when there are no free
// positions left. Allocated nodes that survive do not move, so external
// Node values stay valid across a collection.
func (b *Manager) gbc() {
	if _LOGLEVEL > 0 {
		log.Println("starting GC")
	}
	if b.error != nil {
		return
	}
	if _DEBUG {
		b.gcstat.history = append(b.gcstat.history, gcpoint{
			nodes:            len(b.nodes),
			freenodes:        b.freenum,
			setfinalizers:    int(b.gcstat.setfinalizers),
			calledfinalizers: int(b.gcstat.calledfinalizers),
		})
		b.gcstat.setfinalizers = 0
		b.gcstat.calledfinalizers = 0
	} else {
		b.gcstat.history = append(b.gcstat.history, gcpoint{nodes: len(b.nodes), freenodes: b.freenum})
	}
	for _, r := range b.refstack {
		b.markrec(r)
	}
	for k := range b.nodes {
		if b.nodes[k].refcou > 0 {
			b.markrec(k)
		}
	}
	b.freepos = 0
	b.freenum = 0
	for n := len(b.nodes) - 1; n > 1; n-- {
		if b.ismarked(n) && (b.nodes[n].low != -1) {
			b.unmarknode(n)
		} else {
			if b.nodes[n].low != -1 {
				b.delnode(b.nodes[n])
			}
			b.nodes[n].low = -1
			b.nodes[n].high = b.freepos
			b.freepos = n
			b.freenum++
		}
	}
	b.cachereset()
	if _LOGLEVEL > 0 {
		log.Printf("end GC; freenum: %d\n", b.freenum)
	}
}

func (b *Manager) noderesize() error {
	if _LOGLEVEL > 0 {
		log.Printf("start resize: %d\n", len(b.nodes))
	}
	oldsize := len(b.nodes)
	nodesize := oldsize
	if oldsize >= b.maxnodesize && b.maxnodesize > 0 {
		return errMemory
	}
	if oldsize > (math.MaxInt32 >> 1) {
		nodesize = math.MaxInt32 - 1
	} else {
		nodesize = nodesize << 1
	}
	if b.maxnodeincrease > 0 && nodesize > (oldsize+b.maxnodeincrease) {
		nodesize = oldsize + b.maxnodeincrease
	}
	if nodesize > b.maxnodesize && b.maxnodesize > 0 {
		nodesize = b.maxnodesize
	}
	if nodesize <= oldsize {
		return errMemory
	}

	tmp := b.nodes
	b.nodes = make([]ddnode, nodesize)
	copy(b.nodes, tmp)
	for n := oldsize; n < nodesize; n++ {
		b.nodes[n] = ddnode{level: 0, low: -1, high: n + 1}
	}
	b.nodes[nodesize-1].high = b.freepos
	b.freepos = oldsize
	b.freenum += nodesize - oldsize

	b.cacheresize(len(b.nodes))
	if _LOGLEVEL > 0 {
		log.Printf("end resize: %d\n", len(b.nodes))
	}
	return errResize
}

func (b *Manager) markrec(n int) {
	if n < 2 || b.ismarked(n) || b.nodes[n].low == -1 {
		return
	}
	b.marknode(n)
	b.markrec(b.nodes[n].low)
	b.markrec(b.nodes[n].high)
}

func (b *Manager) unmarkall() {
	for k, v := range b.nodes {
		if k < 2 || !b.ismarked(k) || v.low == -1 {
			continue
		}
		b.unmarknode(k)
	}
}

// ****************************************************************
// refstack: private bookkeeping to prevent nodes currently being built (e.g.
// transient nodes produced mid-recursion) from being reclaimed by a GC
// triggered by a nested call to makenode.

func (b *Manager) initref() {
	b.refstack = b.refstack[:0]
}

func (b *Manager) pushref(n int) int {
	b.refstack = append(b.refstack, n)
	return n
}

func (b *Manager) popref(a int) {
	b.refstack = b.refstack[:len(b.refstack)-a]
}
