// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bigstripe_test

import (
	"context"
	"fmt"
	"math/rand"
	"reflect"
	"sort"
	"testing"

	fuzz "github.com/google/gofuzz"

	"github.com/grailbio/bigstripe"
)

func TestZip2Cursor(t *testing.T) {
	a := bigstripe.SliceOf([]int64{1, 2, 3, 4})
	b := bigstripe.SliceOf([]int64{10, 20, 30, 40})
	z := bigstripe.NewZip2(a, b)
	if got, want := z.Len(), 4; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	z.Inc().Inc()
	if got, want := z.Pos(), 2; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	r := z.Deref()
	if got, want := r.A.Interface(), int64(3); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := r.B.Interface(), int64(30); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	o := z.Clone().Dec()
	if got, want := z.Sub(o), 1; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := o.Cmp(z), -1; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := z.Cmp(z.Clone()), 0; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	z.Add(-2)
	if got, want := z.Deref().A.Interface(), int64(1); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRefSemantics(t *testing.T) {
	xs := []int64{1, 2}
	ys := []int64{10, 20}
	a, b := bigstripe.SliceOf(xs), bigstripe.SliceOf(ys)
	z := bigstripe.NewZip2(a, b)
	// Swapping through dereferenced cursors swaps the underlying
	// storage, not a transient tuple.
	z.At(0).Swap(z.At(1))
	if want := []int64{2, 1}; !reflect.DeepEqual(xs, want) {
		t.Errorf("got %v, want %v", xs, want)
	}
	if want := []int64{20, 10}; !reflect.DeepEqual(ys, want) {
		t.Errorf("got %v, want %v", ys, want)
	}
	z.At(0).Assign(z.At(1))
	if got, want := xs[0], int64(1); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if !z.At(0).Eq(z.At(1)) {
		t.Error("references not equal after assignment")
	}
}

func TestTransform2(t *testing.T) {
	add := func(x, y reflect.Value) interface{} { return x.Int() + y.Int() }
	policies, cleanup := testPolicies()
	defer cleanup()
	for _, n := range []int{0, 1, 3 * testRegions, 1000} {
		for name, policy := range policies {
			t.Run(fmt.Sprintf("%s/%d", name, n), func(t *testing.T) {
				var xs, ys []int64
				fz := fuzz.New()
				fz.NilChance(0)
				fz.NumElements(n, n)
				fz.Fuzz(&xs)
				fz.Fuzz(&ys)

				a := bigstripe.NewArray(typeInt64, n)
				b := bigstripe.NewArray(typeInt64, n)
				c := bigstripe.NewArray(typeInt64, n)
				defer a.Clear()
				defer b.Clear()
				defer c.Clear()
				for i := 0; i < n; i++ {
					a.Index(i).SetInt(xs[i])
					b.Index(i).SetInt(ys[i])
				}
				err := bigstripe.Transform2(context.Background(), policy, a, b, c, add)
				if err != nil {
					t.Fatal(err)
				}
				for i := 0; i < n; i++ {
					if got, want := c.Index(i).Interface(), xs[i]+ys[i]; got != want {
						t.Errorf("index %d: got %v, want %v", i, got, want)
					}
				}
			})
		}
	}
}

func TestTransform(t *testing.T) {
	const n = 100
	src := bigstripe.NewArray(typeInt64, n)
	dst := bigstripe.NewArray(typeInt64, n)
	defer src.Clear()
	defer dst.Clear()
	for i := 0; i < n; i++ {
		src.Index(i).SetInt(int64(i))
	}
	err := bigstripe.Transform(context.Background(), bigstripe.Par(1), src, dst,
		func(v reflect.Value) interface{} { return 2 * v.Int() })
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i++ {
		if got, want := dst.Index(i).Interface(), int64(2*i); got != want {
			t.Errorf("index %d: got %v, want %v", i, got, want)
		}
	}
}

func TestFill(t *testing.T) {
	const n = 77
	a := bigstripe.NewArray(typeInt64, n)
	defer a.Clear()
	if err := bigstripe.Fill(context.Background(), bigstripe.Par(2), a, int64(13)); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i++ {
		if got, want := a.Index(i).Interface(), int64(13); got != want {
			t.Errorf("index %d: got %v, want %v", i, got, want)
		}
	}
}

func TestSortZip2(t *testing.T) {
	const n = 500
	rng := rand.New(rand.NewSource(0))
	keys := make([]int64, n)
	vals := make([]int64, n)
	for i := range keys {
		keys[i] = rng.Int63n(1000)
		vals[i] = keys[i] * 7 // pairing invariant: val == 7*key
	}
	bigstripe.SortZip2(bigstripe.SliceOf(keys), bigstripe.SliceOf(vals),
		func(x, y reflect.Value) bool { return x.Int() < y.Int() })
	if !sort.SliceIsSorted(keys, func(i, j int) bool { return keys[i] < keys[j] }) {
		t.Fatal("keys not sorted")
	}
	for i := range keys {
		if got, want := vals[i], 7*keys[i]; got != want {
			t.Errorf("index %d: got %v, want %v; pairing broken", i, got, want)
		}
	}
}

func TestZipMixedSequences(t *testing.T) {
	// A striped array zips with an ordinary slice.
	const n = 64
	a := bigstripe.NewArray(typeInt64, n)
	defer a.Clear()
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		a.Index(i).SetInt(int64(i))
	}
	err := bigstripe.Transform(context.Background(), bigstripe.Par(1), a, bigstripe.SliceOf(out),
		func(v reflect.Value) interface{} { return v.Int() + 1 })
	if err != nil {
		t.Fatal(err)
	}
	for i := range out {
		if got, want := out[i], int64(i+1); got != want {
			t.Errorf("index %d: got %v, want %v", i, got, want)
		}
	}
}
