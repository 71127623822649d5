// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bigstripe

import (
	"context"
	"reflect"

	"github.com/grailbio/bigstripe/region"
)

// ForEachIndex applies fn to every index in [0, n), traversing
// according to the policy. Under a parallel policy, indices are
// partitioned by their owning region under the striping rule, so
// each spawned task walks the stripe local to its region; within a
// stripe, indices are visited in increasing order. The sequential
// policy visits all indices in increasing order on the calling task.
func ForEachIndex(ctx context.Context, policy Policy, n int, fn func(ctx context.Context, i int) error) error {
	if !policy.Parallel() {
		for i := 0; i < n; i++ {
			if err := fn(region.With(ctx, i%region.Count()), i); err != nil {
				return err
			}
		}
		return nil
	}
	stride := region.Count()
	return ForEachRegion(ctx, policy, func(ctx context.Context, nth int) error {
		for i := nth; i < n; i += stride {
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	})
}

// Fill assigns v to every element of the sequence.
func Fill(ctx context.Context, policy Policy, s Sequence, v interface{}) error {
	rv := reflect.ValueOf(v)
	return ForEachIndex(ctx, policy, s.Len(), func(ctx context.Context, i int) error {
		s.Index(i).Set(rv)
		return nil
	})
}

// ForEachZip2 applies fn to the reference pair at every position of
// the zipped pair of sequences. The range's length is the first
// sequence's; the sequences are assumed to have equal lengths.
func ForEachZip2(ctx context.Context, policy Policy, a, b Sequence, fn func(ctx context.Context, r Ref2) error) error {
	z := NewZip2(a, b)
	return ForEachIndex(ctx, policy, z.Len(), func(ctx context.Context, i int) error {
		return fn(ctx, z.At(i))
	})
}

// ForEachZip3 applies fn to the reference triple at every position
// of the zipped triple of sequences; see ForEachZip2.
func ForEachZip3(ctx context.Context, policy Policy, a, b, c Sequence, fn func(ctx context.Context, r Ref3) error) error {
	z := NewZip3(a, b, c)
	return ForEachIndex(ctx, policy, z.Len(), func(ctx context.Context, i int) error {
		return fn(ctx, z.At(i))
	})
}

// Transform assigns op(src[i]) to dst[i] for every position of the
// zipped pair, reducing a unary element-wise transform to a single
// traversal.
func Transform(ctx context.Context, policy Policy, src, dst Sequence, op func(v reflect.Value) interface{}) error {
	return ForEachZip2(ctx, policy, src, dst, func(_ context.Context, r Ref2) error {
		r.B.Set(reflect.ValueOf(op(r.A)))
		return nil
	})
}

// Transform2 assigns op(a[i], b[i]) to dst[i] for every position of
// the zipped triple, reducing a binary element-wise transform to a
// single traversal.
func Transform2(ctx context.Context, policy Policy, a, b, dst Sequence, op func(x, y reflect.Value) interface{}) error {
	return ForEachZip3(ctx, policy, a, b, dst, func(_ context.Context, r Ref3) error {
		r.C.Set(reflect.ValueOf(op(r.A, r.B)))
		return nil
	})
}
