// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bigstripe

import (
	"reflect"
	"sort"

	"github.com/grailbio/base/must"
)

// A Sequence is a randomly accessible sequence of elements. Index
// must return an addressable value, so that algorithms can assign
// and swap elements in place. Arrays are Sequences; SliceOf adapts
// an ordinary Go slice.
type Sequence interface {
	Len() int
	Index(i int) reflect.Value
}

type sliceSeq struct{ v reflect.Value }

// SliceOf returns a Sequence over the provided slice.
func SliceOf(s interface{}) Sequence {
	v := reflect.ValueOf(s)
	must.True(v.Kind() == reflect.Slice, "bigstripe: SliceOf on ", v.Kind())
	return sliceSeq{v}
}

func (s sliceSeq) Len() int { return s.v.Len() }

func (s sliceSeq) Index(i int) reflect.Value { return s.v.Index(i) }

// A Zip2 is a cursor over two independently owned sequences,
// advanced in lockstep. Comparisons and differences between zipped
// cursors are defined by the first cursor alone: zipped ranges are
// assumed to have equal lengths, so inspecting the rest is wasted
// work. A Zip2 is valid only as long as the underlying sequences
// are.
type Zip2 struct {
	a, b Sequence
	pos  int
}

// NewZip2 returns a cursor over a and b positioned at index 0.
func NewZip2(a, b Sequence) *Zip2 {
	return &Zip2{a: a, b: b}
}

// Len returns the length of the zipped range, which is the length of
// the first sequence.
func (z *Zip2) Len() int { return z.a.Len() }

// Pos returns the cursor's position.
func (z *Zip2) Pos() int { return z.pos }

// Add advances the cursor by n positions; n may be negative.
func (z *Zip2) Add(n int) *Zip2 { z.pos += n; return z }

// Inc advances the cursor by one position.
func (z *Zip2) Inc() *Zip2 { return z.Add(1) }

// Dec retreats the cursor by one position.
func (z *Zip2) Dec() *Zip2 { return z.Add(-1) }

// Sub returns the distance between z and o, measured on the first
// cursor.
func (z *Zip2) Sub(o *Zip2) int { return z.pos - o.pos }

// Cmp compares z and o by their first cursors, returning -1, 0, or
// 1.
func (z *Zip2) Cmp(o *Zip2) int {
	switch {
	case z.pos < o.pos:
		return -1
	case z.pos > o.pos:
		return 1
	}
	return 0
}

// Clone returns a copy of the cursor at the same position.
func (z *Zip2) Clone() *Zip2 { c := *z; return &c }

// Deref returns the reference pair at the cursor's position.
func (z *Zip2) Deref() Ref2 {
	return Ref2{A: z.a.Index(z.pos), B: z.b.Index(z.pos)}
}

// At returns the reference pair at offset n from the cursor.
func (z *Zip2) At(n int) Ref2 {
	return Ref2{A: z.a.Index(z.pos + n), B: z.b.Index(z.pos + n)}
}

// A Ref2 is a pair of references to corresponding elements of two
// zipped sequences. Unlike a pair of copied values, assignment,
// swapping, and comparison through a Ref2 operate on the referents,
// so that algorithms that reorder through a dereferenced cursor
// mutate the underlying sequences rather than a transient tuple.
type Ref2 struct {
	A, B reflect.Value
}

// Assign assigns the referents of o to the referents of r.
func (r Ref2) Assign(o Ref2) {
	r.A.Set(o.A)
	r.B.Set(o.B)
}

// Swap exchanges the referents of r and o element-wise.
func (r Ref2) Swap(o Ref2) {
	swapValues(r.A, o.A)
	swapValues(r.B, o.B)
}

// Eq reports whether the referents of r and o are element-wise
// equal.
func (r Ref2) Eq(o Ref2) bool {
	return r.A.Interface() == o.A.Interface() && r.B.Interface() == o.B.Interface()
}

// A Zip3 is a cursor over three independently owned sequences,
// advanced in lockstep; see Zip2 for the comparison rule.
type Zip3 struct {
	a, b, c Sequence
	pos     int
}

// NewZip3 returns a cursor over a, b, and c positioned at index 0.
func NewZip3(a, b, c Sequence) *Zip3 {
	return &Zip3{a: a, b: b, c: c}
}

// Len returns the length of the zipped range, which is the length of
// the first sequence.
func (z *Zip3) Len() int { return z.a.Len() }

// Pos returns the cursor's position.
func (z *Zip3) Pos() int { return z.pos }

// Add advances the cursor by n positions; n may be negative.
func (z *Zip3) Add(n int) *Zip3 { z.pos += n; return z }

// Inc advances the cursor by one position.
func (z *Zip3) Inc() *Zip3 { return z.Add(1) }

// Dec retreats the cursor by one position.
func (z *Zip3) Dec() *Zip3 { return z.Add(-1) }

// Sub returns the distance between z and o, measured on the first
// cursor.
func (z *Zip3) Sub(o *Zip3) int { return z.pos - o.pos }

// Cmp compares z and o by their first cursors, returning -1, 0, or
// 1.
func (z *Zip3) Cmp(o *Zip3) int {
	switch {
	case z.pos < o.pos:
		return -1
	case z.pos > o.pos:
		return 1
	}
	return 0
}

// Clone returns a copy of the cursor at the same position.
func (z *Zip3) Clone() *Zip3 { c := *z; return &c }

// Deref returns the reference triple at the cursor's position.
func (z *Zip3) Deref() Ref3 {
	return Ref3{A: z.a.Index(z.pos), B: z.b.Index(z.pos), C: z.c.Index(z.pos)}
}

// At returns the reference triple at offset n from the cursor.
func (z *Zip3) At(n int) Ref3 {
	return Ref3{A: z.a.Index(z.pos + n), B: z.b.Index(z.pos + n), C: z.c.Index(z.pos + n)}
}

// A Ref3 is a triple of references to corresponding elements of
// three zipped sequences; see Ref2.
type Ref3 struct {
	A, B, C reflect.Value
}

// Assign assigns the referents of o to the referents of r.
func (r Ref3) Assign(o Ref3) {
	r.A.Set(o.A)
	r.B.Set(o.B)
	r.C.Set(o.C)
}

// Swap exchanges the referents of r and o element-wise.
func (r Ref3) Swap(o Ref3) {
	swapValues(r.A, o.A)
	swapValues(r.B, o.B)
	swapValues(r.C, o.C)
}

// Eq reports whether the referents of r and o are element-wise
// equal.
func (r Ref3) Eq(o Ref3) bool {
	return r.A.Interface() == o.A.Interface() &&
		r.B.Interface() == o.B.Interface() &&
		r.C.Interface() == o.C.Interface()
}

func swapValues(x, y reflect.Value) {
	tmp := reflect.New(x.Type()).Elem()
	tmp.Set(x)
	x.Set(y)
	y.Set(tmp)
}

// SortZip2 sorts the pair of zipped sequences by the elements of the
// first, keeping corresponding elements of the second paired with
// them. Less orders elements of the first sequence.
func SortZip2(a, b Sequence, less func(x, y reflect.Value) bool) {
	sort.Sort(zip2Sorter{z: NewZip2(a, b), less: less})
}

type zip2Sorter struct {
	z    *Zip2
	less func(x, y reflect.Value) bool
}

func (s zip2Sorter) Len() int           { return s.z.Len() }
func (s zip2Sorter) Less(i, j int) bool { return s.less(s.z.At(i).A, s.z.At(j).A) }
func (s zip2Sorter) Swap(i, j int)      { s.z.At(i).Swap(s.z.At(j)) }
