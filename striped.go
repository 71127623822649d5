// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bigstripe

import (
	"reflect"

	"github.com/grailbio/base/must"
	"github.com/spaolacci/murmur3"

	"github.com/grailbio/bigstripe/arena"
)

// An Array is a dynamically resizable sequence of 8-byte elements
// whose storage is striped round-robin across regions: consecutive
// indices reside in consecutive regions, so a traversal that assigns
// each region its own stripe touches only local memory. An Array
// owns its storage unless it was created by Alias. Arrays are
// created by NewArray; an empty array has no backing storage.
//
// Array does not track a capacity distinct from its length: shrinking
// is bookkeeping only and does not reclaim storage, and growing
// always reallocates.
type Array struct {
	typ   reflect.Type
	block *arena.Striped
	n     int
	alias bool
}

// NewArray returns an array of n zero elements of the provided type,
// which must be a valid striped element type. An array of zero
// elements has no backing storage.
func NewArray(typ reflect.Type, n int) *Array {
	must.True(n >= 0, "bigstripe: negative array size")
	a := &Array{typ: typ, n: n}
	if n > 0 {
		a.block = arena.AllocStriped(typ, n)
	} else {
		must.True(arena.StripedOK(typ), "bigstripe: invalid striped element type ", typ)
	}
	return a
}

// Len returns the number of elements in the array.
func (a *Array) Len() int { return a.n }

// Index returns an addressable value designating element i. Bounds
// are the caller's responsibility.
func (a *Array) Index(i int) reflect.Value {
	return a.block.Index(i)
}

// RegionOf returns the region in which element i resides.
func (a *Array) RegionOf(i int) int {
	return a.block.RegionOf(i)
}

// Slice returns the array's elements as an ordinary slice of the
// element type, or nil if the array is empty. Mutations through the
// returned slice are visible through the array.
func (a *Array) Slice() interface{} {
	if a.block == nil {
		return nil
	}
	return reflect.ValueOf(a.block.Slice()).Slice(0, a.n).Interface()
}

// Resize changes the array's length to n. Growing allocates a new
// striped block, copies the existing elements into it at their
// original indices, zeroes the remainder, and frees the old block.
// Shrinking only truncates the logical length; storage is not
// reclaimed until Clear.
func (a *Array) Resize(n int) {
	must.True(n >= 0, "bigstripe: negative array size")
	must.True(!a.alias, "bigstripe: resize of array alias")
	if n > a.n {
		block := arena.AllocStriped(a.typ, n)
		if a.block != nil {
			// Only the logical length carries over; elements beyond
			// it (left behind by an earlier shrink) stay dead.
			block.CopyN(a.block, a.n)
			a.block.Free()
		}
		a.block = block
	}
	a.n = n
}

// Clear releases the array's storage and sets its length to zero.
func (a *Array) Clear() {
	if a.block != nil && !a.alias {
		a.block.Free()
	}
	a.block = nil
	a.n = 0
	a.alias = false
}

// Clone returns a deep copy of the array: a new striped allocation
// of the same length holding copies of all elements.
func (a *Array) Clone() *Array {
	c := NewArray(a.typ, a.n)
	if a.block != nil {
		c.block.Copy(a.block)
	}
	return c
}

// Alias returns a shallow, non-owning view of the array: it shares
// the backing storage, and clearing it does not free that storage.
// Aliases exist so that an Array may be a field of a shallow
// replicated value; the original array remains the owner, and the
// alias must not outlive it.
func (a *Array) Alias() *Array {
	return &Array{typ: a.typ, block: a.block, n: a.n, alias: true}
}

// Swap exchanges the contents of a and b, which must have the same
// element type. Swap is the move primitive: transferring ownership
// of storage between arrays without copying or double-freeing.
func (a *Array) Swap(b *Array) {
	must.True(a.typ == b.typ, "bigstripe: swap of mismatched arrays")
	a.block, b.block = b.block, a.block
	a.n, b.n = b.n, a.n
	a.alias, b.alias = b.alias, a.alias
}

// Fingerprint returns a hash of the array's element contents.
// Arrays with equal lengths and equal elements have equal
// fingerprints.
func (a *Array) Fingerprint() uint64 {
	if a.block == nil {
		return murmur3.Sum64(nil)
	}
	return murmur3.Sum64(a.block.Bytes()[:a.n*8])
}
