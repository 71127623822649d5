// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package spawn provides the task-spawning primitive used by
// bigstripe's fan-out traversals. A Spawner schedules independently
// executing tasks; each spawn carries an advisory region hint
// indicating where the task's memory accesses will land, which a
// spawner may use to place the task near that region and is
// otherwise free to ignore.
package spawn

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/grailbio/bigstripe/region"
)

// A Task is a unit of independently schedulable work. The context
// passed to the task carries the region the task was placed on.
type Task func(ctx context.Context) error

// A Spawner schedules tasks. Spawn returns as soon as the task is
// scheduled; the caller proceeds concurrently with it and must
// synchronize through Wait before relying on the task's effects.
// Once spawned, a task runs to completion: there is no cancellation.
type Spawner interface {
	// Spawn schedules task, hinting that it should begin execution
	// with affinity to region hint.
	Spawn(ctx context.Context, hint int, task Task)
	// Wait blocks until every spawned task has finished and returns
	// the first error among them.
	Wait() error
}

// A Group is the basic spawner: one goroutine per task, tagged with
// the hinted region. The zero Group is ready to use.
type Group struct {
	g errgroup.Group
}

// Spawn implements Spawner.
func (g *Group) Spawn(ctx context.Context, hint int, task Task) {
	ctx = region.With(ctx, hint)
	g.g.Go(func() error {
		return task(ctx)
	})
}

// Wait implements Spawner.
func (g *Group) Wait() error {
	return g.g.Wait()
}
