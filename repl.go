// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bigstripe

import (
	"context"
	"reflect"

	"github.com/grailbio/base/must"
	"github.com/grailbio/bigstripe/arena"
	"github.com/grailbio/bigstripe/region"
)

// Replicated is implemented by values that are backed by replicated
// storage: one physical instance per region, all representing a
// single logical value. Traversal primitives require their targets to
// be Replicated; handing them anything else is a programming error.
//
// Replicated is a sealed interface: it is implemented only by the
// wrapper types in this package.
type Replicated interface {
	// Nth returns an addressable value designating region n's
	// instance. Nth panics if n is not a valid region index.
	Nth(n int) reflect.Value
	// NumRegion returns the number of per-region instances.
	NumRegion() int

	replicated()
}

// assertReplicated panics unless v is backed by replicated storage.
func assertReplicated(v interface{}) Replicated {
	r, ok := v.(Replicated)
	must.True(ok, "bigstripe: value of type ", reflect.TypeOf(v), " is not replicated")
	return r
}

// A Repl replicates a trivial value: one that is plain bytes, with no
// construction or destruction lifecycle of its own. Every region
// holds a copy; assignment broadcasts the same value to all of them.
// Repl is the wrapper of choice for counters, flags, dimensions, and
// pointers into other region-aware storage.
type Repl struct {
	block *arena.Repl
}

// NewRepl allocates a replicated copy of v in every region. The type
// of v must be pointer free: trivial replication is a byte copy, and
// a value that owns references has no meaningful trivial copy.
func NewRepl(v interface{}) *Repl {
	typ := reflect.TypeOf(v)
	must.True(arena.PointerFree(typ), "bigstripe: cannot trivially replicate ", typ)
	r := &Repl{block: arena.Alloc(typ)}
	r.Set(v)
	return r
}

// Set broadcasts v to every region's copy.
func (r *Repl) Set(v interface{}) {
	rv := reflect.ValueOf(v)
	for i := 0; i < r.block.Len(); i++ {
		r.block.Nth(i).Set(rv)
	}
}

// Nth returns an addressable value designating region n's copy.
func (r *Repl) Nth(n int) reflect.Value { return r.block.Nth(n) }

// NumRegion returns the number of per-region copies.
func (r *Repl) NumRegion() int { return r.block.Len() }

// Local returns an addressable value designating the copy in the
// context's current region.
func (r *Repl) Local(ctx context.Context) reflect.Value {
	return r.block.Nth(region.Current(ctx))
}

// Value returns the value of the copy in the context's current
// region.
func (r *Repl) Value(ctx context.Context) interface{} {
	return r.Local(ctx).Interface()
}

// Clone returns a new trivially replicated value initialized from
// r's copy in the context's current region.
func (r *Repl) Clone(ctx context.Context) *Repl {
	return NewRepl(r.Value(ctx))
}

// Reduce folds the per-region copies of r into a single value using
// the provided monoid, visiting regions in increasing order.
func (r *Repl) Reduce(m Monoid) interface{} {
	acc := r.Nth(0).Interface()
	for i := 1; i < r.NumRegion(); i++ {
		acc = m.Combine(acc, r.Nth(i).Interface())
	}
	return acc
}

// Free releases the replicated storage. The wrapper is invalid
// afterwards.
func (r *Repl) Free() { r.block.Free() }

func (*Repl) replicated() {}
