// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bigstripe

import (
	"context"
	"io"
	"reflect"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/must"
	"github.com/grailbio/bigstripe/arena"
	"github.com/grailbio/bigstripe/region"
)

// A Deep replicates a value by constructing every region's instance
// independently: the provided constructor is invoked once per region
// with that region's index, standing in for construction with the
// same arguments everywhere. Once constructed, the instances are
// unrelated; assignment touches only the local instance, and Close
// destructs every instance individually. Deep is the wrapper for
// types that own per-copy resources.
type Deep struct {
	block *arena.Repl
}

// NewDeep allocates a replicated block and constructs each region's
// instance by calling construct with the region's index. Every
// invocation must return a value of the same type.
func NewDeep(construct func(nth int) interface{}) *Deep {
	v0 := construct(0)
	typ := reflect.TypeOf(v0)
	d := &Deep{block: arena.Alloc(typ)}
	d.block.Nth(0).Set(reflect.ValueOf(v0))
	for i := 1; i < d.block.Len(); i++ {
		v := reflect.ValueOf(construct(i))
		must.True(v.Type() == typ, "bigstripe: deep constructor returned ", v.Type(), ", not ", typ)
		d.block.Nth(i).Set(v)
	}
	return d
}

// Nth returns an addressable value designating region n's instance.
func (d *Deep) Nth(n int) reflect.Value { return d.block.Nth(n) }

// NumRegion returns the number of per-region instances.
func (d *Deep) NumRegion() int { return d.block.Len() }

// Local returns an addressable value designating the instance in the
// context's current region.
func (d *Deep) Local(ctx context.Context) reflect.Value {
	return d.block.Nth(region.Current(ctx))
}

// Value returns the instance in the context's current region.
func (d *Deep) Value(ctx context.Context) interface{} {
	return d.Local(ctx).Interface()
}

// SetLocal assigns v to the instance in the context's current
// region. The other regions' instances are independent objects and
// are left untouched.
func (d *Deep) SetLocal(ctx context.Context, v interface{}) {
	d.Local(ctx).Set(reflect.ValueOf(v))
}

// Clone returns a new deep replication whose instances are copies of
// d's corresponding per-region instances.
func (d *Deep) Clone() *Deep {
	c := &Deep{block: arena.Alloc(d.block.Type())}
	for i := 0; i < d.block.Len(); i++ {
		c.block.Nth(i).Set(d.block.Nth(i))
	}
	return c
}

// Close destructs every region's instance, for instances whose type
// implements io.Closer, and releases the replicated storage. All
// instances are destructed even if some destructors fail; the first
// error is returned. Close must be called at most once.
func (d *Deep) Close() error {
	var err error
	for i := 0; i < d.block.Len(); i++ {
		closer, ok := d.block.Nth(i).Interface().(io.Closer)
		if !ok {
			continue
		}
		if cerr := closer.Close(); cerr != nil && err == nil {
			err = errors.E("bigstripe: close deep replica", cerr)
		}
	}
	d.block.Free()
	return err
}

func (*Deep) replicated() {}
