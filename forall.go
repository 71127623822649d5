// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bigstripe

import (
	"context"
	"reflect"

	"github.com/grailbio/bigstripe/region"
	"github.com/grailbio/bigstripe/spawn"
)

// A Policy selects how a traversal is executed: serially on the
// calling task, or fanned out across spawned tasks with a grain
// bounding how many regions a single task handles serially.
type Policy struct {
	grain   int
	spawner func() spawn.Spawner
}

// Seq is the sequential policy: the traversal executes entirely on
// the calling task, visiting indices in increasing order. It is the
// reference mode for debugging parallel traversals.
var Seq = Policy{}

// Par returns a parallel policy with the provided grain: ranges
// larger than the grain are split recursively, halving each time, so
// that spawn depth grows with the logarithm of the region count
// rather than the count itself. A grain below 1 is treated as 1,
// which forces the full recursive split.
func Par(grain int) Policy {
	if grain < 1 {
		grain = 1
	}
	return Policy{grain: grain, spawner: func() spawn.Spawner { return new(spawn.Group) }}
}

// WithSpawner returns a copy of the policy that draws tasks from
// spawners produced by f. f is called once per traversal; a factory
// that returns the same spawn.Pool each time shares that pool's
// workers among the traversals.
func (p Policy) WithSpawner(f func() spawn.Spawner) Policy {
	p.spawner = f
	return p
}

// Parallel reports whether the policy spawns tasks.
func (p Policy) Parallel() bool { return p.grain > 0 }

// ForEach applies fn to every region's instance of the replicated
// value v, traversing according to the policy. The context passed to
// fn carries the region whose instance it was handed. ForEach
// returns after every spawned task has finished; the first worker
// error is returned. ForEach panics if v is not backed by replicated
// storage.
func ForEach(ctx context.Context, policy Policy, v interface{}, fn func(ctx context.Context, nth int, inst reflect.Value) error) error {
	r := assertReplicated(v)
	return forEachRegion(ctx, policy, 0, r.NumRegion(), func(ctx context.Context, nth int) error {
		return fn(ctx, nth, r.Nth(nth))
	})
}

// ForEachRegion applies fn once per region, traversing according to
// the policy. It is the index-range form of ForEach, used when the
// traversal drives something other than a single replicated value,
// such as the stripes of an Array.
func ForEachRegion(ctx context.Context, policy Policy, fn func(ctx context.Context, nth int) error) error {
	return forEachRegion(ctx, policy, 0, region.Count(), fn)
}

func forEachRegion(ctx context.Context, policy Policy, begin, end int, fn func(ctx context.Context, nth int) error) error {
	if !policy.Parallel() {
		return serialRegions(ctx, begin, end, fn)
	}
	sp := policy.spawner()
	err := fanout(ctx, sp, policy.grain, begin, end, fn)
	// Join with all descendants before returning.
	if werr := sp.Wait(); err == nil {
		err = werr
	}
	return err
}

// fanout recursively halves [begin, end), spawning the upper half
// with an affinity hint toward its first region and iterating on the
// lower half, until the range is within the grain; the remainder
// runs serially in increasing order.
func fanout(ctx context.Context, sp spawn.Spawner, grain, begin, end int, fn func(ctx context.Context, nth int) error) error {
	for end-begin > grain {
		mid := begin + (end-begin)/2
		upperBegin, upperEnd := mid, end
		sp.Spawn(ctx, mid, func(ctx context.Context) error {
			return fanout(ctx, sp, grain, upperBegin, upperEnd, fn)
		})
		end = mid
	}
	return serialRegions(ctx, begin, end, fn)
}

func serialRegions(ctx context.Context, begin, end int, fn func(ctx context.Context, nth int) error) error {
	for nth := begin; nth < end; nth++ {
		if err := fn(region.With(ctx, nth), nth); err != nil {
			return err
		}
	}
	return nil
}
