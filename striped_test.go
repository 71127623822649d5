// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bigstripe_test

import (
	"reflect"
	"testing"

	fuzz "github.com/google/gofuzz"

	"github.com/grailbio/bigstripe"
)

var typeInt64 = reflect.TypeOf(int64(0))

func TestArraySizes(t *testing.T) {
	for _, n := range []int{0, 1, 7, testRegions, 1000} {
		a := bigstripe.NewArray(typeInt64, n)
		if got, want := a.Len(), n; got != want {
			t.Errorf("got %v, want %v", got, want)
		}
		if n == 0 && a.Slice() != nil {
			t.Errorf("empty array has backing storage")
		}
		a.Clear()
		if got, want := a.Len(), 0; got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestArrayRoundTrip(t *testing.T) {
	const N = 512
	var vals []int64
	fz := fuzz.New()
	fz.NilChance(0)
	fz.NumElements(N, N)
	fz.Fuzz(&vals)

	a := bigstripe.NewArray(typeInt64, N)
	defer a.Clear()
	for i, v := range vals {
		a.Index(i).SetInt(v)
	}
	for i, v := range vals {
		if got, want := a.Index(i).Interface(), v; got != want {
			t.Errorf("index %d: got %v, want %v", i, got, want)
		}
	}
}

func TestArrayStriping(t *testing.T) {
	a := bigstripe.NewArray(typeInt64, 3*testRegions)
	defer a.Clear()
	for i := 0; i < a.Len(); i++ {
		if got, want := a.RegionOf(i), i%testRegions; got != want {
			t.Errorf("index %d: got region %v, want %v", i, got, want)
		}
	}
}

func TestArrayResize(t *testing.T) {
	a := bigstripe.NewArray(typeInt64, 10)
	defer a.Clear()
	for i := 0; i < 10; i++ {
		a.Index(i).SetInt(int64(i))
	}
	a.Resize(100)
	if got, want := a.Len(), 100; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := 0; i < 10; i++ {
		if got, want := a.Index(i).Interface(), int64(i); got != want {
			t.Errorf("index %d: got %v, want %v", i, got, want)
		}
	}
	for i := 10; i < 100; i++ {
		if got, want := a.Index(i).Interface(), int64(0); got != want {
			t.Errorf("index %d: got %v, want %v", i, got, want)
		}
	}
	// Shrinking is bookkeeping only.
	a.Resize(5)
	if got, want := a.Len(), 5; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	for i := 0; i < 5; i++ {
		if got, want := a.Index(i).Interface(), int64(i); got != want {
			t.Errorf("index %d: got %v, want %v", i, got, want)
		}
	}
}

func TestArrayShrinkThenGrow(t *testing.T) {
	// Elements truncated by a shrink are dead: growing again must
	// yield zeroes beyond the shrunken length, not the stale
	// pre-shrink values.
	a := bigstripe.NewArray(typeInt64, 10)
	defer a.Clear()
	for i := 0; i < 10; i++ {
		a.Index(i).SetInt(int64(100 + i))
	}
	a.Resize(3)
	a.Resize(20)
	if got, want := a.Len(), 20; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := 0; i < 3; i++ {
		if got, want := a.Index(i).Interface(), int64(100+i); got != want {
			t.Errorf("index %d: got %v, want %v", i, got, want)
		}
	}
	for i := 3; i < 20; i++ {
		if got, want := a.Index(i).Interface(), int64(0); got != want {
			t.Errorf("index %d: got %v, want %v", i, got, want)
		}
	}
}

func TestArrayClone(t *testing.T) {
	a := bigstripe.NewArray(typeInt64, 32)
	defer a.Clear()
	for i := 0; i < a.Len(); i++ {
		a.Index(i).SetInt(int64(i * i))
	}
	c := a.Clone()
	defer c.Clear()
	if got, want := c.Fingerprint(), a.Fingerprint(); got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	// The clone owns distinct storage.
	a.Index(0).SetInt(-1)
	if got, want := c.Index(0).Interface(), int64(0); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if c.Fingerprint() == a.Fingerprint() {
		t.Error("fingerprints match after divergence")
	}
}

func TestArrayAlias(t *testing.T) {
	a := bigstripe.NewArray(typeInt64, 16)
	defer a.Clear()
	alias := a.Alias()
	alias.Index(7).SetInt(123)
	if got, want := a.Index(7).Interface(), int64(123); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	// Clearing the alias must leave the owner's storage intact.
	alias.Clear()
	if got, want := a.Index(7).Interface(), int64(123); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestArraySwap(t *testing.T) {
	a := bigstripe.NewArray(typeInt64, 4)
	b := bigstripe.NewArray(typeInt64, 2)
	defer a.Clear()
	defer b.Clear()
	a.Index(0).SetInt(10)
	b.Index(0).SetInt(20)
	a.Swap(b)
	if got, want := a.Len(), 2; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := b.Len(), 4; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := a.Index(0).Interface(), int64(20); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := b.Index(0).Interface(), int64(10); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestArraySliceView(t *testing.T) {
	a := bigstripe.NewArray(typeInt64, 8)
	defer a.Clear()
	s := a.Slice().([]int64)
	s[3] = 33
	if got, want := a.Index(3).Interface(), int64(33); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	a.Resize(4)
	if got, want := len(a.Slice().([]int64)), 4; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}
