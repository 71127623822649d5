// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package arena allocates region-aware storage blocks: replicated
// blocks, which hold one instance of a type per region, and striped
// blocks, which distribute the elements of a sequence round-robin
// across regions. Allocation is allocate-or-die: an unsatisfiable
// request is reported and aborts the process. Callers own the blocks
// they allocate and must free them explicitly.
package arena

import (
	"reflect"
	"sync/atomic"

	"github.com/grailbio/base/data"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/must"
	"github.com/grailbio/bigstripe/region"
)

// limit is the arena's byte budget. Zero means unlimited. Used is
// maintained atomically so that concurrent allocation from spawned
// tasks accounts correctly.
var (
	limit int64
	used  int64
)

// SetLimit establishes a byte budget for subsequent allocations. A
// request that would exceed the budget is a fatal out-of-memory
// condition, exactly as if the underlying allocator had failed. A
// limit of zero removes the budget.
func SetLimit(n int64) {
	atomic.StoreInt64(&limit, n)
}

// Used returns the number of bytes of replicated and striped storage
// currently allocated.
func Used() int64 {
	return atomic.LoadInt64(&used)
}

func reserve(n int64) {
	m := atomic.LoadInt64(&limit)
	if m > 0 && atomic.AddInt64(&used, n) > m {
		log.Fatalf("arena: out of memory: failed to allocate %s (%s in use, limit %s)",
			data.Size(n), data.Size(atomic.LoadInt64(&used)-n), data.Size(m))
	} else if m <= 0 {
		atomic.AddInt64(&used, n)
	}
}

func release(n int64) {
	atomic.AddInt64(&used, -n)
}

// A Repl is a block of replicated storage: one instance of a single
// type per region. Instances are physically disjoint; slot i is valid
// only as region i's copy of the value. The zero Repl is invalid.
type Repl struct {
	typ reflect.Type
	// storage is a slice of typ with one element per region.
	storage reflect.Value
	bytes   int64
}

// Alloc allocates a replicated block holding one instance of typ per
// region. The instances are zero values; it is the caller's
// responsibility to construct them. Alloc is fatal if the request
// cannot be satisfied.
func Alloc(typ reflect.Type) *Repl {
	region.Seal()
	n := region.Count()
	bytes := int64(typ.Size()) * int64(n)
	reserve(bytes)
	return &Repl{
		typ:     typ,
		storage: reflect.MakeSlice(reflect.SliceOf(typ), n, n),
		bytes:   bytes,
	}
}

// Type returns the type of the block's per-region instances.
func (r *Repl) Type() reflect.Type { return r.typ }

// Len returns the number of per-region instances, which is always the
// region count at the time of allocation.
func (r *Repl) Len() int { return r.storage.Len() }

// Nth returns an addressable value designating region n's instance.
func (r *Repl) Nth(n int) reflect.Value {
	must.True(n >= 0 && n < r.storage.Len(), "arena: region index out of range")
	return r.storage.Index(n)
}

// Free releases the block. The per-region instances are zeroed first
// so that freed storage does not pin references. Free must be called
// at most once; the block is invalid afterwards.
func (r *Repl) Free() {
	must.True(r.storage.IsValid(), "arena: double free")
	zeroSlice(r.storage)
	r.storage = reflect.Value{}
	release(r.bytes)
}

// A Striped is a block of striped storage: a sequence of elements of
// a single 8-byte, pointer-free type, distributed round-robin across
// regions so that element i resides in region i mod region.Count().
// The zero Striped is invalid.
type Striped struct {
	typ reflect.Type
	// storage is a slice of typ; placement is carried as metadata
	// rather than by the slice layout.
	storage reflect.Value
	regions int
	bytes   int64
}

// wordSize is the only supported striped element size. The striping
// rule distributes at 8-byte granularity.
const wordSize = 8

// StripedOK reports whether typ may be used as a striped element
// type: it must be exactly 8 bytes and contain no pointers.
func StripedOK(typ reflect.Type) bool {
	if typ.Size() != wordSize {
		return false
	}
	switch typ.Kind() {
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64,
		reflect.Uintptr, reflect.Float64, reflect.Complex64:
		return true
	}
	return false
}

// AllocStriped allocates a striped block of n elements of typ. The
// elements are zeroed. AllocStriped panics if typ is not a valid
// striped element type and is fatal if the request cannot be
// satisfied.
func AllocStriped(typ reflect.Type, n int) *Striped {
	must.True(StripedOK(typ), "arena: striped elements must be 8-byte, pointer-free types; got ", typ)
	must.True(n >= 0, "arena: negative striped allocation")
	region.Seal()
	bytes := int64(n) * wordSize
	reserve(bytes)
	return &Striped{
		typ:     typ,
		storage: reflect.MakeSlice(reflect.SliceOf(typ), n, n),
		regions: region.Count(),
		bytes:   bytes,
	}
}

// Type returns the block's element type.
func (s *Striped) Type() reflect.Type { return s.typ }

// Len returns the number of elements in the block.
func (s *Striped) Len() int { return s.storage.Len() }

// Index returns an addressable value designating element i. Bounds
// are not checked beyond those of the underlying storage.
func (s *Striped) Index(i int) reflect.Value {
	return s.storage.Index(i)
}

// RegionOf returns the region in which element i resides under the
// block's striping rule.
func (s *Striped) RegionOf(i int) int {
	return i % s.regions
}

// Slice returns the block's backing storage as an ordinary slice of
// the element type (e.g. []int64). The striping of the elements is
// not visible through the returned slice.
func (s *Striped) Slice() interface{} {
	return s.storage.Interface()
}

// Bytes returns the raw bytes of the block's storage. It is legal
// because striped element types are pointer-free.
func (s *Striped) Bytes() []byte {
	return sliceBytes(s.storage)
}

// Copy copies elements from block t into s, stopping at the shorter
// of the two, and returns the number of elements copied. The blocks
// must have the same element type.
func (s *Striped) Copy(t *Striped) int {
	return s.CopyN(t, t.storage.Len())
}

// CopyN copies the first n elements of block t into s, stopping at
// the shorter of the two blocks, and returns the number of elements
// copied. The blocks must have the same element type.
func (s *Striped) CopyN(t *Striped, n int) int {
	must.True(s.typ == t.typ, "arena: mismatched striped element types")
	if m := s.storage.Len(); n > m {
		n = m
	}
	return reflect.Copy(s.storage.Slice(0, n), t.storage)
}

// Free releases the block. Free must be called at most once; the
// block is invalid afterwards.
func (s *Striped) Free() {
	must.True(s.storage.IsValid(), "arena: double free")
	s.storage = reflect.Value{}
	release(s.bytes)
}
