// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package arena

import (
	"reflect"
	"unsafe"
)

// zeroSlice zeroes the elements of the provided slice value. Freed
// replicated blocks are zeroed so that stale instances do not pin
// whatever they referenced; the common cases are hand-expanded to
// avoid reflection per element.
func zeroSlice(v reflect.Value) {
	n := v.Len()
	if n == 0 {
		return
	}
	elem := v.Type().Elem()
	switch {
	case elem.Kind() == reflect.Ptr:
		ps := *(*[]unsafe.Pointer)(header(v, n))
		for i := range ps {
			ps[i] = nil
		}
	case pointerFree(elem) && elem.Size() == wordSize:
		ws := *(*[]uint64)(header(v, n))
		for i := range ws {
			ws[i] = 0
		}
	default:
		z := reflect.Zero(elem)
		for i := 0; i < n; i++ {
			v.Index(i).Set(z)
		}
	}
}

// sliceBytes returns the storage of a slice of pointer-free elements
// as raw bytes.
func sliceBytes(v reflect.Value) []byte {
	n := v.Len() * int(v.Type().Elem().Size())
	return *(*[]byte)(header(v, n))
}

// sliceHeader mirrors the runtime representation of a slice.
type sliceHeader struct {
	Data unsafe.Pointer
	Len  int
	Cap  int
}

// header builds a slice header over v's storage with the given
// element count. v must be a non-empty slice value.
func header(v reflect.Value, n int) unsafe.Pointer {
	return unsafe.Pointer(&sliceHeader{
		Data: unsafe.Pointer(v.Pointer()),
		Len:  n,
		Cap:  n,
	})
}

// pointerFree reports whether values of type t contain no pointers,
// and may therefore be copied and cleared as plain bytes.
func pointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return pointerFree(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !pointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// PointerFree reports whether values of type t contain no pointers.
// Trivially replicable values must be pointer free: their replication
// and broadcast assignment are byte copies.
func PointerFree(t reflect.Type) bool {
	return pointerFree(t)
}
