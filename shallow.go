// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bigstripe

import (
	"context"
	"io"
	"reflect"

	"github.com/grailbio/base/must"
	"github.com/grailbio/bigstripe/arena"
	"github.com/grailbio/bigstripe/region"
)

// A ShallowCopier controls how a value is propagated to remote
// regions by shallow replication. ShallowCopy returns a new value,
// of the same type, that aliases the receiver's underlying resources
// rather than duplicating them. Types that do not implement
// ShallowCopier must be pointer free and are propagated bytewise.
type ShallowCopier interface {
	ShallowCopy() interface{}
}

// A Shallow replicates a fully constructed value by propagating
// shallow copies of it to every other region. Exactly one copy, the
// originating one, is destructed on Close; the remaining copies are
// never destructed. Replicating a type that owns per-copy resources
// through Shallow therefore leaks those resources in all but one
// copy: such types belong behind Deep instead. The shallow copies
// are intended to alias storage owned by the originating copy, so
// that every region reaches the same underlying data through its own
// local instance.
type Shallow struct {
	block  *arena.Repl
	origin int
}

// NewShallow adopts v, already constructed by the caller, as the
// current region's copy and propagates shallow copies of it to every
// other region. If v implements ShallowCopier it is consulted once
// per remote region; otherwise v's type must be pointer free and the
// remote copies are the same bytes.
func NewShallow(ctx context.Context, v interface{}) *Shallow {
	typ := reflect.TypeOf(v)
	if _, ok := v.(ShallowCopier); !ok {
		must.True(arena.PointerFree(typ), "bigstripe: ", typ,
			" must implement ShallowCopier to be shallow replicated")
	}
	s := &Shallow{
		block:  arena.Alloc(typ),
		origin: region.Current(ctx),
	}
	s.block.Nth(s.origin).Set(reflect.ValueOf(v))
	for i := 0; i < s.block.Len(); i++ {
		if i == s.origin {
			continue
		}
		s.block.Nth(i).Set(shallowCopy(typ, v))
	}
	return s
}

// shallowCopy produces the value stored in a remote slot when
// propagating v.
func shallowCopy(typ reflect.Type, v interface{}) reflect.Value {
	if sc, ok := v.(ShallowCopier); ok {
		c := reflect.ValueOf(sc.ShallowCopy())
		must.True(c.Type() == typ, "bigstripe: ShallowCopy returned ", c.Type(), ", not ", typ)
		return c
	}
	return reflect.ValueOf(v)
}

// Set broadcasts v, which must be of the replicated type, to every
// region's copy by assignment.
func (s *Shallow) Set(v interface{}) {
	rv := reflect.ValueOf(v)
	for i := 0; i < s.block.Len(); i++ {
		s.block.Nth(i).Set(rv)
	}
}

// Nth returns an addressable value designating region n's copy.
func (s *Shallow) Nth(n int) reflect.Value { return s.block.Nth(n) }

// NumRegion returns the number of per-region copies.
func (s *Shallow) NumRegion() int { return s.block.Len() }

// Local returns an addressable value designating the copy in the
// context's current region.
func (s *Shallow) Local(ctx context.Context) reflect.Value {
	return s.block.Nth(region.Current(ctx))
}

// Value returns the copy in the context's current region.
func (s *Shallow) Value(ctx context.Context) interface{} {
	return s.Local(ctx).Interface()
}

// Clone returns a new shallow replication whose copies are shallow
// copies of r's corresponding per-region copies. The clone's
// originating copy is the one in the context's current region.
func (s *Shallow) Clone(ctx context.Context) *Shallow {
	typ := s.block.Type()
	c := &Shallow{
		block:  arena.Alloc(typ),
		origin: region.Current(ctx),
	}
	for i := 0; i < s.block.Len(); i++ {
		c.block.Nth(i).Set(shallowCopy(typ, s.block.Nth(i).Interface()))
	}
	return c
}

// Close destructs the originating copy, if its type implements
// io.Closer, and releases the replicated storage. The other copies
// are not destructed. Close must be called at most once.
func (s *Shallow) Close() error {
	var err error
	if closer, ok := s.block.Nth(s.origin).Interface().(io.Closer); ok {
		err = closer.Close()
	}
	s.block.Free()
	return err
}

func (*Shallow) replicated() {}
