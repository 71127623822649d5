// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bigstripe_test

import (
	"context"
	"fmt"
	"reflect"

	"github.com/grailbio/bigstripe"
)

// ExampleTransform2 computes the element-wise sum of two striped
// arrays into a third, the striped rendition of the STREAM add
// kernel, then folds the result with a replicated reducer.
func ExampleTransform2() {
	ctx := context.Background()
	typ := reflect.TypeOf(int64(0))
	const n = 1 << 10

	a := bigstripe.NewArray(typ, n)
	b := bigstripe.NewArray(typ, n)
	c := bigstripe.NewArray(typ, n)
	defer a.Clear()
	defer b.Clear()
	defer c.Clear()

	bigstripe.Fill(ctx, bigstripe.Par(1), a, int64(1))
	bigstripe.Fill(ctx, bigstripe.Par(1), b, int64(2))
	bigstripe.Transform2(ctx, bigstripe.Par(1), a, b, c,
		func(x, y reflect.Value) interface{} { return x.Int() + y.Int() })

	sum := bigstripe.NewReplReducer(ctx, bigstripe.Int64Sum{})
	defer sum.Close()
	bigstripe.ForEachIndex(ctx, bigstripe.Par(1), c.Len(), func(ctx context.Context, i int) error {
		branch := sum.Local(ctx).Fork()
		defer branch.Done()
		branch.Add(c.Index(i).Int())
		return nil
	})
	fmt.Println(sum.Value())
	// Output: 3072
}
