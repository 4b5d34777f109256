// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"time"
)

// number of bytes used to encode a (level, low, high) triplet when hashing it
// into the unique table's byte-array key.
const nodekeysize = (2*(32<<(^uint(0)>>32&1)) + 32) / 8 // 12 (32 bits) or 20 (64 bits)

// _MINFREENODES is the minimal number of nodes (%) that has to be left after a
// garbage collect unless a resize should be done.
const _MINFREENODES int = 20

// _MAXVAR is the maximal number of levels in the BDD. We use only the first 21
// bits for encoding levels (so also the max number of variables); the
// remaining bits are used for transient mark bits during traversals.
const _MAXVAR int32 = 0x1FFFFF

// _MAXREFCOUNT is the maximal value of the reference counter, also used to
// stick nodes (like constants and variables) in the node list.
const _MAXREFCOUNT int32 = 0x3FF

// _DEFAULTMAXNODEINC is the default value for the maximal increase in the
// number of nodes during a resize (~1M nodes).
const _DEFAULTMAXNODEINC int = 1 << 20

var errMemory = errors.New("unable to free memory or resize BDD")
var errTimedout = errors.New("BDD operation exceeded its deadline")
var errResize = errors.New("should cache resize")

// ddnode is an immutable decision node, identified by its position (an int)
// in Manager.nodes. Constants True/False live at positions 1/0.
type ddnode struct {
	refcou int32 // external reference count
	level  int32 // variable order of this node; also used for mark bits
	low    int   // false branch; -1 when this slot is on the free list
	high   int   // true branch; doubles as the "next free slot" link when low == -1
}

func (b *Manager) ismarked(n int) bool {
	return (b.nodes[n].level & 0x200000) != 0
}

func (b *Manager) marknode(n int) {
	b.nodes[n].level |= 0x200000
}

func (b *Manager) unmarknode(n int) {
	b.nodes[n].level &= 0x1FFFFF
}

// Node is a reference to an element of a Manager's shared decision diagram:
// a tagged pointer to a vertex, comparable by identity. The zero value (nil)
// never denotes a valid node.
type Node *int

// Manager is the process-wide state of a BDD: the variable ordering, the
// unique table of live nodes, the operation caches, and the bookkeeping used
// for reference counting and garbage collection. Two managers never share
// nodes. An operand from another manager is reported with the typed
// ErrDifferentManagers error only when its position is out of range or names
// a free slot here (see checkptr); a foreign position that happens to be live
// in this manager is not detected.
type Manager struct {
	nodes    []ddnode                  // all nodes; 0 and 1 are the constants
	unique   map[[nodekeysize]byte]int // triplet -> node position
	hbuff    [nodekeysize]byte         // scratch buffer for hashing a triplet
	varnum   int32                     // number of declared variables
	varset   [][2]int                  // varset[i] = {NIthvar(i), Ithvar(i)}
	refstack []int                     // nodes pinned during in-flight recursions
	error    error                     // sticky error condition

	freepos  int // first free slot
	freenum  int // number of free slots
	produced int // total nodes ever allocated

	nodefinalizer interface{}
	gcstat
	configs

	applycache   *applycache
	itecache     *itecache
	quantcache   *quantcache
	appexcache   *appexcache
	replacecache *replacecache
	multicache   *multicache

	reordered      int32 // reordering flag; no operation in this package sets or reads it
	timeoutHandler func(*Manager)
	deadline       time.Time
	hasDeadline    bool
}

// Option configures a Manager at creation time; see Nodesize, Cachesize,
// Maxnodesize, Maxnodeincrease, Minfreenodes and Cacheratio.
type Option func(*configs)

// New returns a new Manager with varnum variables, numbered [0..varnum). The
// initial number of nodes is not critical since the table is resized
// whenever too few nodes are left after a garbage collection, but it does
// impact the efficiency of early operations. Returns an error if varnum is
// out of range.
func New(varnum int, options ...Option) (*Manager, error) {
	b := &Manager{}
	if (varnum < 1) || (varnum > int(_MAXVAR)) {
		b.seterror("bad number of variables (%d)", varnum)
		return nil, b.error
	}
	config := makeconfigs(varnum)
	for _, f := range options {
		f(config)
	}
	b.varnum = int32(varnum)
	if _LOGLEVEL > 0 {
		log.Printf("new manager with varnum=%d\n", b.varnum)
	}
	b.varset = make([][2]int, varnum)
	b.refstack = make([]int, 0, 2*varnum+4)
	b.minfreenodes = config.minfreenodes
	b.maxnodeincrease = config.maxnodeincrease
	b.maxnodesize = config.maxnodesize

	nodesize := config.nodesize
	b.nodes = make([]ddnode, nodesize)
	for k := range b.nodes {
		b.nodes[k] = ddnode{level: 0, low: -1, high: k + 1}
	}
	b.nodes[nodesize-1].high = 0
	b.unique = make(map[[nodekeysize]byte]int, nodesize)

	b.nodes[0] = ddnode{level: int32(varnum), low: 0, high: 0, refcou: _MAXREFCOUNT}
	b.nodes[1] = ddnode{level: int32(varnum), low: 1, high: 1, refcou: _MAXREFCOUNT}
	b.freepos = 2
	b.freenum = len(b.nodes) - 2

	for k := 0; k < varnum; k++ {
		v0, err := b.makenode(int32(k), 0, 1)
		if err != nil {
			return nil, b.seterrorWrap("cannot allocate variable %d", k)
		}
		b.nodes[v0].refcou = _MAXREFCOUNT
		b.pushref(v0)
		v1, err := b.makenode(int32(k), 1, 0)
		if err != nil {
			return nil, b.seterrorWrap("cannot allocate variable %d", k)
		}
		b.nodes[v1].refcou = _MAXREFCOUNT
		b.popref(1)
		b.varset[k] = [2]int{v1, v0}
	}

	b.gcstat.history = []gcpoint{}
	b.nodefinalizer = func(n *int) {
		if _DEBUG {
			b.gcstat.calledfinalizers++
			if _LOGLEVEL > 2 {
				log.Printf("dec refcou %d\n", *n)
			}
		}
		if b.nodes[*n].refcou < _MAXREFCOUNT && b.nodes[*n].refcou > 0 {
			b.nodes[*n].refcou--
		}
	}
	b.cacheinit(config)
	return b, nil
}

func (b *Manager) seterrorWrap(format string, a ...interface{}) error {
	b.seterror(format, a...)
	return b.error
}

// SetTimeout installs a handler invoked whenever a recursive operation
// notices that deadline has elapsed, mirroring the CUDD timeoutHandler. The
// exact multi-operand operations then abort; the clipping variants return
// their approximation bound as the best-effort result.
func (b *Manager) SetTimeout(deadline time.Time, handler func(*Manager)) {
	b.deadline = deadline
	b.hasDeadline = true
	b.timeoutHandler = handler
}

// timedout is tested from deep recursive steps; it is cheap (a single time
// check). The exact multi-operand operations abort with errTimedout when it
// fires; the clipping variants degrade to their approximation bound instead,
// so a deadline still yields a sound (if loose) result.
func (b *Manager) timedout() bool {
	if !b.hasDeadline {
		return false
	}
	if time.Now().After(b.deadline) {
		if b.timeoutHandler != nil {
			b.timeoutHandler(b)
		}
		return true
	}
	return false
}

// Varnum returns the number of defined variables.
func (b *Manager) Varnum() int {
	return int(b.varnum)
}

// True returns the Node for the constant true.
func (b *Manager) True() Node {
	return b.retnode(1)
}

// False returns the Node for the constant false.
func (b *Manager) False() Node {
	return b.retnode(0)
}

// From returns a (constant) Node from a boolean value.
func (b *Manager) From(v bool) Node {
	if v {
		return b.True()
	}
	return b.False()
}

// Ithvar returns a Node representing the i'th variable. The requested
// variable must be in the range [0..Varnum).
func (b *Manager) Ithvar(i int) Node {
	if i < 0 || i >= len(b.varset) {
		return b.seterror("variable index out of range in Ithvar (%d)", i)
	}
	return b.retnode(b.varset[i][1])
}

// NIthvar returns a Node representing the negation of the i'th variable.
func (b *Manager) NIthvar(i int) Node {
	if i < 0 || i >= len(b.varset) {
		return b.seterror("variable index out of range in NIthvar (%d)", i)
	}
	return b.retnode(b.varset[i][0])
}

// checkptr validates an operand before an operation uses it. A position
// outside the table, or one naming a freed slot, is what a Node minted by a
// different manager looks like from here, so both cases carry the typed
// ErrDifferentManagers sentinel.
func (b *Manager) checkptr(n Node) error {
	if n == nil {
		return fmt.Errorf("nil node")
	}
	if *n < 0 || *n >= len(b.nodes) {
		return fmt.Errorf("node %d out of range: %w", *n, ErrDifferentManagers)
	}
	if *n > 1 && b.nodes[*n].low == -1 {
		return fmt.Errorf("node %d is not live: %w", *n, ErrDifferentManagers)
	}
	return nil
}

func (b *Manager) level(n int) int32 {
	return b.nodes[n].level & 0x1FFFFF
}

func (b *Manager) low(n int) int {
	return b.nodes[n].low
}

func (b *Manager) high(n int) int {
	return b.nodes[n].high
}

// Level returns the variable index (level) tested at n's root, or -1 if n
// is a terminal (True/False).
func (b *Manager) Level(n Node) int32 {
	if b.checkptr(n) != nil || *n < 2 {
		return -1
	}
	return b.level(*n)
}

// Low returns the false branch of n, or nil on error.
func (b *Manager) Low(n Node) Node {
	if b.checkptr(n) != nil {
		return b.seterror("wrong operand in call to Low (%d)", *n)
	}
	return b.retnode(b.low(*n))
}

// High returns the true branch of n, or nil on error.
func (b *Manager) High(n Node) Node {
	if b.checkptr(n) != nil {
		return b.seterror("wrong operand in call to High (%d)", *n)
	}
	return b.retnode(b.high(*n))
}

// Size returns the number of live nodes reachable from n (or the whole
// manager if n is absent).
func (b *Manager) Size(n ...Node) int {
	count := 0
	_ = b.Allnodes(func(id, level, low, high int) error {
		count++
		return nil
	}, n...)
	return count
}

// ****************************************************************
// retnode / makenode / unique table / garbage collection

// retnode produces an externally-visible Node for position n, bumping its
// reference count and attaching a finalizer so the Go runtime reclaims the
// reference automatically when the Node is no longer reachable.
func (b *Manager) retnode(n int) Node {
	if n < 0 || n >= len(b.nodes) {
		if _DEBUG {
			log.Panicf("b.retnode(%d) not valid\n", n)
		}
		return nil
	}
	x := n
	if b.nodes[n].refcou < _MAXREFCOUNT {
		b.nodes[n].refcou++
		runtime.SetFinalizer(&x, b.nodefinalizer)
		if _DEBUG {
			b.gcstat.setfinalizers++
			if _LOGLEVEL > 2 {
				log.Printf("inc refcou %d\n", n)
			}
		}
	}
	return &x
}

func (b *Manager) huddhash(level int32, low, high int) {
	h := &b.hbuff
	h[0] = byte(level)
	h[1] = byte(level >> 8)
	h[2] = byte(level >> 16)
	h[3] = byte(level >> 24)
	h[4] = byte(low)
	h[5] = byte(low >> 8)
	h[6] = byte(low >> 16)
	h[7] = byte(low >> 24)
	if nodekeysize == 20 {
		h[8] = byte(low >> 32)
		h[9] = byte(low >> 40)
		h[10] = byte(low >> 48)
		h[11] = byte(low >> 56)
		h[12] = byte(high)
		h[13] = byte(high >> 8)
		h[14] = byte(high >> 16)
		h[15] = byte(high >> 24)
		h[16] = byte(high >> 32)
		h[17] = byte(high >> 40)
		h[18] = byte(high >> 48)
		h[19] = byte(high >> 56)
		return
	}
	h[8] = byte(high)
	h[9] = byte(high >> 8)
	h[10] = byte(high >> 16)
	h[11] = byte(high >> 24)
}

func (b *Manager) nodehash(level int32, low, high int) (int, bool) {
	b.huddhash(level, low, high)
	hn, ok := b.unique[b.hbuff]
	return hn, ok
}

// makenode returns the canonical node for (level, low, high), building it in
// the unique table on first use. Nodes whose two branches coincide collapse
// to that shared branch (the BDD reduction rule).
func (b *Manager) makenode(level int32, low int, high int) (int, error) {
	if _DEBUG {
		b.gcstat.uniqueAccess++
	}
	if low == high {
		return low, nil
	}
	if res, ok := b.nodehash(level, low, high); ok {
		if _DEBUG {
			b.gcstat.uniqueHit++
		}
		return res, nil
	}
	if _DEBUG {
		b.gcstat.uniqueMiss++
	}
	if b.freepos == 0 {
		// gbc and noderesize flush the operation caches themselves, so a
		// collection or resize here is invisible to the in-flight recursion:
		// its intermediate nodes are pinned on the refstack and the caches
		// are advisory. Only a genuine out-of-memory condition is an error.
		b.gbc()
		if (b.freenum*100)/len(b.nodes) <= b.minfreenodes {
			if err := b.noderesize(); err != errResize {
				return -1, errMemory
			}
		}
		if b.freepos == 0 {
			return -1, errMemory
		}
	}
	b.produced++
	return b.setnode(level, low, high, 0), nil
}

func (b *Manager) setnode(level int32, low int, high int, count int32) int {
	b.huddhash(level, low, high)
	b.freenum--
	b.unique[b.hbuff] = b.freepos
	res := b.freepos
	b.freepos = b.nodes[b.freepos].high
	b.nodes[res] = ddnode{level: level, low: low, high: high, refcou: count}
	return res
}

func (b *Manager) delnode(n ddnode) {
	b.huddhash(n.level, n.low, n.high)
	delete(b.unique, b.hbuff)
}
