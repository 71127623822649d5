// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package region exposes the process's region topology: the fixed set
// of memory locality domains across which storage is replicated or
// striped. The region count is established once at process start; the
// region on which a task is executing travels on its context.
package region

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"sync/atomic"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/must"
)

// count is the number of regions in the process topology. It is
// fixed before the first allocation and never changes afterwards.
var count int64

// sealed is set (atomically) once the topology has been used to
// place storage; SetCount panics after this point.
var sealed int32

func init() {
	n := runtime.GOMAXPROCS(0)
	if v, ok := os.LookupEnv("BIGSTRIPE_REGIONS"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			log.Fatalf("region: invalid BIGSTRIPE_REGIONS %q", v)
		}
		n = parsed
	}
	count = int64(n)
}

// Count returns the number of regions in the process topology.
// Regions are numbered 0 through Count()-1.
func Count() int {
	return int(atomic.LoadInt64(&count))
}

// SetCount overrides the process region count. It must be called
// before any replicated or striped storage is allocated; it is
// intended for process initialization and for tests.
func SetCount(n int) {
	must.True(n >= 1, "region: count must be positive")
	must.True(atomic.LoadInt32(&sealed) == 0, "region: SetCount after allocation")
	atomic.StoreInt64(&count, int64(n))
}

// Seal marks the topology as in use, locking out further SetCount
// calls. It is called by the arena on first allocation.
func Seal() {
	atomic.StoreInt32(&sealed, 1)
}

type contextKey struct{}

// With returns a context tagged with the provided region, indicating
// that work derived from the context should execute with affinity to
// that region and that unqualified access to replicated values
// resolves to that region's copy.
func With(ctx context.Context, n int) context.Context {
	must.True(n >= 0 && n < Count(), "region: index out of range")
	return context.WithValue(ctx, contextKey{}, n)
}

// Current returns the region with which the context's task is
// affine. A context that carries no region resolves to region 0.
func Current(ctx context.Context) int {
	if n, ok := ctx.Value(contextKey{}).(int); ok {
		return n
	}
	return 0
}
