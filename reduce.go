// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bigstripe

import (
	"context"
	"math"
	"reflect"
	"sync/atomic"
	"unsafe"

	"github.com/grailbio/base/must"
)

// A Monoid supplies the identity element and combining operation for
// a reduction. Combine must be associative and commutative: branch
// reducers fold into their root in whatever order their tasks
// finish. Merge folds a value into a shared accumulator and is
// invoked concurrently from independently spawned tasks; every
// Monoid implementation must make Merge safe under concurrent
// invocation on the same accumulator.
type Monoid interface {
	// Identity returns the monoid's identity element.
	Identity() interface{}
	// Combine returns the combination of a and b.
	Combine(a, b interface{}) interface{}
	// Merge folds v into the accumulator designated by the
	// addressable value acc. Merge must be safe for concurrent
	// invocation on the same accumulator.
	Merge(acc reflect.Value, v interface{})
}

// Int64Sum is the addition monoid over int64. Merging is a single
// atomic add.
type Int64Sum struct{}

// Identity implements Monoid.
func (Int64Sum) Identity() interface{} { return int64(0) }

// Combine implements Monoid.
func (Int64Sum) Combine(a, b interface{}) interface{} { return a.(int64) + b.(int64) }

// Merge implements Monoid.
func (Int64Sum) Merge(acc reflect.Value, v interface{}) {
	atomic.AddInt64(acc.Addr().Interface().(*int64), v.(int64))
}

// Float64Sum is the addition monoid over float64. Floating-point
// addition is not available as a single atomic primitive, so merging
// retries a compare-and-swap over the value's bit pattern until the
// addition lands.
type Float64Sum struct{}

// Identity implements Monoid.
func (Float64Sum) Identity() interface{} { return float64(0) }

// Combine implements Monoid.
func (Float64Sum) Combine(a, b interface{}) interface{} { return a.(float64) + b.(float64) }

// Merge implements Monoid.
func (Float64Sum) Merge(acc reflect.Value, v interface{}) {
	p := (*uint64)(unsafe.Pointer(acc.Addr().Interface().(*float64)))
	add := v.(float64)
	for {
		old := atomic.LoadUint64(p)
		next := math.Float64bits(math.Float64frombits(old) + add)
		if atomic.CompareAndSwapUint64(p, old, next) {
			return
		}
	}
}

// A Reducer is a reduction variable. The root reducer owns the
// reduction's accumulator; each concurrently spawned task that
// participates in the reduction takes a private branch with Fork,
// accumulates into it without synchronization, and folds it back
// into the root's accumulator with Done when the task finishes.
// Folding uses the monoid's Merge and is safe from concurrent
// branches.
type Reducer struct {
	m Monoid
	// local is this reducer's private accumulator. Its address is
	// stable; branches merge into their root's local.
	local reflect.Value
	// global designates the accumulator this reducer folds into on
	// Done. A root's global is its own local.
	global reflect.Value
	done   int32
}

// NewReducer returns a new root reducer whose accumulator holds the
// monoid's identity.
func NewReducer(m Monoid) *Reducer {
	local := reflect.New(reflect.TypeOf(m.Identity())).Elem()
	local.Set(reflect.ValueOf(m.Identity()))
	return &Reducer{m: m, local: local, global: local}
}

// Fork returns a new branch whose accumulator holds the identity and
// which folds into the same ultimate accumulator as r, regardless of
// whether r is itself a root or a branch.
func (r *Reducer) Fork() *Reducer {
	local := reflect.New(r.local.Type()).Elem()
	local.Set(reflect.ValueOf(r.m.Identity()))
	return &Reducer{m: r.m, local: local, global: r.global}
}

// ShallowCopy implements ShallowCopier by returning a fresh,
// unconnected root. A reducer propagated to other regions by shallow
// replication thus yields an independent reduction scope per region;
// see ReplReducer.
func (r *Reducer) ShallowCopy() interface{} {
	return NewReducer(r.m)
}

// Add folds v into the reducer's private accumulator. Add involves
// no synchronization and must be called only from the task that owns
// the reducer.
func (r *Reducer) Add(v interface{}) {
	r.local.Set(reflect.ValueOf(r.m.Combine(r.local.Interface(), v)))
}

// IsRoot reports whether r owns the reduction's accumulator.
func (r *Reducer) IsRoot() bool {
	return r.local.Addr().Pointer() == r.global.Addr().Pointer()
}

// Done folds the reducer's accumulated value into the root's
// accumulator. It must be called exactly once on every branch when
// its task finishes, on every exit path; it is typically deferred at
// the top of the task. Done on a root is a no-op, as is a repeated
// Done on the same branch.
func (r *Reducer) Done() {
	if r.IsRoot() || !atomic.CompareAndSwapInt32(&r.done, 0, 1) {
		return
	}
	r.m.Merge(r.global, r.local.Interface())
}

// Value returns the root's accumulated value. It is valid only on a
// root, and only once every branch forked from it has called Done;
// reading while branches are still live races with their folds.
func (r *Reducer) Value() interface{} {
	must.True(r.IsRoot(), "bigstripe: Value on a branch reducer")
	return r.local.Interface()
}

// A ReplReducer is a reduction variable replicated across regions:
// one independent root per region, so that tasks fold into a local
// accumulator rather than contending on a single remote one. The
// overall value further reduces the per-region accumulators with the
// same monoid.
type ReplReducer struct {
	m    Monoid
	repl *Shallow
}

// NewReplReducer returns a reduction variable with one root
// accumulator per region, each holding the monoid's identity.
func NewReplReducer(ctx context.Context, m Monoid) *ReplReducer {
	return &ReplReducer{m: m, repl: NewShallow(ctx, NewReducer(m))}
}

// Nth returns region n's root reducer.
func (p *ReplReducer) Nth(n int) *Reducer {
	return p.repl.Nth(n).Interface().(*Reducer)
}

// Local returns the root reducer for the context's current region.
// Tasks fork branches from it as usual.
func (p *ReplReducer) Local(ctx context.Context) *Reducer {
	return p.repl.Local(ctx).Interface().(*Reducer)
}

// Value reduces the per-region accumulators, in increasing region
// order, and returns the result. It is valid only once every branch
// of every region's root has called Done.
func (p *ReplReducer) Value() interface{} {
	acc := p.m.Identity()
	for i := 0; i < p.repl.NumRegion(); i++ {
		acc = p.m.Combine(acc, p.Nth(i).Value())
	}
	return acc
}

// Close releases the reducer's replicated storage.
func (p *ReplReducer) Close() error {
	return p.repl.Close()
}
