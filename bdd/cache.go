// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

import (
	"fmt"
	"math"
	"unsafe"
)

// Hash value modifiers so several operations can share the same underlying
// cache table without colliding.
const cacheidREPLACE int = 0x0
const cacheidEXIST int = 0x0
const cacheidFORALL int = 0x1
const cacheidAPPEX int = 0x3
const cacheidANDMULTI int = 0x0
const cacheidANDEXISTSMULTI int = 0x1
const cacheidCLIPUP int = 0x2
const cacheidCLIPDOWN int = 0x3

type data4n struct {
	res     int
	a, b, c int
}

type data4ncache struct {
	ratio  int
	opHit  int
	opMiss int
	table  []data4n
}

func (bc *data4ncache) init(size, ratio int) {
	size = primeGte(size)
	bc.table = make([]data4n, size)
	bc.ratio = ratio
	bc.reset()
}

func (bc *data4ncache) resize(size int) {
	if bc.ratio > 0 {
		size = primeGte((size * bc.ratio) / 100)
		bc.table = make([]data4n, size)
	}
	bc.reset()
}

func (bc *data4ncache) reset() {
	for k := range bc.table {
		bc.table[k].a = -1
	}
}

type data3n struct {
	res  int
	a, c int
}

type data3ncache struct {
	ratio  int
	opHit  int
	opMiss int
	table  []data3n
}

func (bc *data3ncache) init(size, ratio int) {
	size = primeGte(size)
	bc.table = make([]data3n, size)
	bc.ratio = ratio
	bc.reset()
}

func (bc *data3ncache) resize(size int) {
	if bc.ratio > 0 {
		size = primeGte((size * bc.ratio) / 100)
		bc.table = make([]data3n, size)
	}
	bc.reset()
}

func (bc *data3ncache) reset() {
	for k := range bc.table {
		bc.table[k].a = -1
	}
}

// Setup and shutdown

func (b *Manager) cacheinit(c *configs) {
	size := 10000
	if c.cachesize != 0 {
		size = c.cachesize
	}
	size = primeGte(size)
	b.applycache = &applycache{}
	b.applycache.init(size, c.cacheratio)
	b.itecache = &itecache{}
	b.itecache.init(size, c.cacheratio)
	b.quantcache = &quantcache{}
	b.quantcache.init(size, c.cacheratio)
	b.quantcache.quantset = make([]int32, b.varnum)
	b.appexcache = &appexcache{}
	b.appexcache.init(size, c.cacheratio)
	b.replacecache = &replacecache{}
	b.replacecache.init(size, c.cacheratio)
	b.multicache = &multicache{}
	b.multicache.init(size, c.cacheratio)
}

func (b *Manager) cachereset() {
	b.applycache.reset()
	b.itecache.reset()
	b.quantcache.reset()
	b.appexcache.reset()
	b.replacecache.reset()
	b.multicache.reset()
}

func (b *Manager) cacheresize(nodesize int) {
	b.applycache.resize(nodesize)
	b.itecache.resize(nodesize)
	b.quantcache.resize(nodesize)
	b.appexcache.resize(nodesize)
	b.replacecache.resize(nodesize)
	b.multicache.resize(nodesize)
}

// quantset2cache records the variables found in varset (a cube, i.e. a node
// built with Makeset) in the quantification cache, so later recursive steps
// can test membership in O(1).
func (b *Manager) quantset2cache(n int) error {
	if n < 2 {
		b.seterror("illegal variable (%d) in varset to cache", n)
		return b.error
	}
	qc := b.quantcache
	qc.quantsetID++
	if qc.quantsetID == math.MaxInt32 {
		qc.quantset = make([]int32, b.varnum)
		qc.quantsetID = 1
	}
	for i := n; i > 1; i = b.high(i) {
		qc.quantset[b.level(i)] = qc.quantsetID
		qc.quantlast = b.level(i)
	}
	return nil
}

// The hash for Apply is #(left, right, applycache.op).

type applycache struct {
	data4ncache
	op int
}

func (bc *applycache) matchapply(left, right int) int {
	e := bc.table[_TRIPLE(left, right, bc.op, len(bc.table))]
	if e.a == left && e.b == right && e.c == bc.op {
		bc.opHit++
		return e.res
	}
	bc.opMiss++
	return -1
}

func (bc *applycache) setapply(left, right, res int) int {
	bc.table[_TRIPLE(left, right, bc.op, len(bc.table))] = data4n{res: res, a: left, b: right, c: bc.op}
	return res
}

func (bc *applycache) matchnot(n int) int {
	e := bc.table[n%len(bc.table)]
	if e.a == n && e.c == int(opnot) {
		bc.opHit++
		return e.res
	}
	bc.opMiss++
	return -1
}

func (bc *applycache) setnot(n, res int) int {
	bc.table[n%len(bc.table)] = data4n{res: res, a: n, c: int(opnot)}
	return res
}

func (bc applycache) String() string {
	return cacheStatString("Apply", len(bc.table), bc.opHit, bc.opMiss)
}

// The hash for ITE is #(f,g,h).

type itecache struct {
	data4ncache
}

func (bc *itecache) matchite(f, g, h int) int {
	e := bc.table[_TRIPLE(f, g, h, len(bc.table))]
	if e.a == f && e.b == g && e.c == h {
		bc.opHit++
		return e.res
	}
	bc.opMiss++
	return -1
}

func (bc *itecache) setite(f, g, h, res int) int {
	bc.table[_TRIPLE(f, g, h, len(bc.table))] = data4n{res: res, a: f, b: g, c: h}
	return res
}

func (bc itecache) String() string {
	return cacheStatString("ITE", len(bc.table), bc.opHit, bc.opMiss)
}

// The hash for quantification is (n, varset, quantid).

type quantcache struct {
	data4ncache
	quantset   []int32
	quantsetID int32
	quantlast  int32
	id         int
}

func (bc *quantcache) matchquant(n, varset int) int {
	e := bc.table[_PAIR(n, varset, len(bc.table))]
	if e.a == n && e.b == varset && e.c == bc.id {
		bc.opHit++
		return e.res
	}
	bc.opMiss++
	return -1
}

func (bc *quantcache) setquant(n, varset, res int) int {
	bc.table[_PAIR(n, varset, len(bc.table))] = data4n{res: res, a: n, b: varset, c: bc.id}
	return res
}

func (bc quantcache) String() string {
	return cacheStatString("Quant", len(bc.table), bc.opHit, bc.opMiss)
}

// The hash for AppEx is #(left, right, varset<<2 | appexcache.op).

type appexcache struct {
	data4ncache
	op int
	id int
}

func (bc *appexcache) matchappex(left, right int) int {
	e := bc.table[_TRIPLE(left, right, bc.id, len(bc.table))]
	if e.a == left && e.b == right && e.c == bc.id {
		bc.opHit++
		return e.res
	}
	bc.opMiss++
	return -1
}

func (bc *appexcache) setappex(left, right, res int) int {
	bc.table[_TRIPLE(left, right, bc.id, len(bc.table))] = data4n{res: res, a: left, b: right, c: bc.id}
	return res
}

func (bc appexcache) String() string {
	return cacheStatString("AppEx", len(bc.table), bc.opHit, bc.opMiss)
}

// The hash for Replace(n) is simply n.

type replacecache struct {
	data3ncache
	id int
}

func (bc *replacecache) matchreplace(n int) int {
	e := bc.table[n%len(bc.table)]
	if e.a == n && e.c == bc.id {
		bc.opHit++
		return e.res
	}
	bc.opMiss++
	return -1
}

func (bc *replacecache) setreplace(n, res int) int {
	bc.table[n%len(bc.table)] = data3n{res: res, a: n, c: bc.id}
	return res
}

func (bc replacecache) String() string {
	return cacheStatString("Replace", len(bc.table), bc.opHit, bc.opMiss)
}

// multicache memoizes the AND-multi / AND-EXISTS-multi family. The key is
// the value-equal pair (sorted edge set, cube) plus an operation tag
// (cacheidANDMULTI, cacheidANDEXISTSMULTI, or one of the clipping variants)
// so one table serves the whole family. The set is folded into a bucket
// index by repeated pairing (order-independent because the set is sorted by
// node identity before hashing), but the entry stores the full set so a
// fold collision can never return the result of a different operand set.
type multidata struct {
	res  int
	set  []int
	cube int
	tag  int
}

type multicache struct {
	ratio  int
	opHit  int
	opMiss int
	table  []multidata
}

func (bc *multicache) init(size, ratio int) {
	size = primeGte(size)
	bc.table = make([]multidata, size)
	bc.ratio = ratio
	bc.reset()
}

func (bc *multicache) resize(size int) {
	if bc.ratio > 0 {
		size = primeGte((size * bc.ratio) / 100)
		bc.table = make([]multidata, size)
	}
	bc.reset()
}

func (bc *multicache) reset() {
	for k := range bc.table {
		bc.table[k].set = nil
		bc.table[k].tag = -1
	}
}

// setkey folds a (sorted) set of node positions into one hash-friendly int.
func setkey(sorted []int) int {
	h := 1469598103
	for _, v := range sorted {
		h = _PAIR(h, v+2, math.MaxInt32-5)
	}
	return h
}

func sameSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (bc *multicache) match(tag int, set []int, cube int) int {
	e := bc.table[_TRIPLE(setkey(set), cube, tag, len(bc.table))]
	if e.tag == tag && e.cube == cube && sameSet(e.set, set) {
		bc.opHit++
		return e.res
	}
	bc.opMiss++
	return -1
}

func (bc *multicache) set(tag int, set []int, cube int, res int) int {
	bc.table[_TRIPLE(setkey(set), cube, tag, len(bc.table))] = multidata{res: res, set: set, cube: cube, tag: tag}
	return res
}

func (bc multicache) String() string {
	return cacheStatString("Multi", len(bc.table), bc.opHit, bc.opMiss)
}

func cacheStatString(name string, size, hit, miss int) string {
	total := hit + miss
	pct := 0.0
	if total > 0 {
		pct = (float64(hit) * 100) / float64(total)
	}
	return fmt.Sprintf("== %s cache %d (%s)\n Hits: %d (%.1f%%)\n Miss: %d\n", name, size,
		humanSize(size, unsafe.Sizeof(data4n{})), hit, pct, miss)
}
