// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package spawn

import (
	"context"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/bigstripe/region"
)

// A Pool is a spawner that maintains one long-lived worker per
// region and honors affinity hints by enqueuing each task onto the
// hinted region's worker. Tasks hinted at the same region execute on
// the same worker, giving them stable locality; if that worker's
// queue is full, the hint is abandoned and the task runs on its own
// goroutine instead, since a spawner must never delay the spawning
// task.
//
// A Pool outlives any one traversal: Wait joins the tasks spawned so
// far and leaves the workers running, so the pool may be shared
// among successive traversals. Close shuts the workers down when the
// pool is no longer needed.
type Pool struct {
	queues []chan pooled
	stop   chan struct{}

	pending sync.WaitGroup
	workers sync.WaitGroup

	mu     sync.Mutex
	err    error
	closed bool
}

type pooled struct {
	ctx  context.Context
	task Task
}

// queueDepth bounds each per-region queue. Fan-out traversals spawn
// from within workers, so enqueueing must never block: a full queue
// spills to a fresh goroutine.
const queueDepth = 128

// NewPool starts a pool with one worker per region.
func NewPool() *Pool {
	p := &Pool{
		queues: make([]chan pooled, region.Count()),
		stop:   make(chan struct{}),
	}
	for r := range p.queues {
		p.queues[r] = make(chan pooled, queueDepth)
		p.workers.Add(1)
		go p.work(r)
	}
	return p
}

func (p *Pool) work(r int) {
	defer p.workers.Done()
	for {
		select {
		case job := <-p.queues[r]:
			p.run(region.With(job.ctx, r), job.task)
		case <-p.stop:
			// Drain whatever was enqueued before shutdown.
			for {
				select {
				case job := <-p.queues[r]:
					p.run(region.With(job.ctx, r), job.task)
				default:
					return
				}
			}
		}
	}
}

func (p *Pool) run(ctx context.Context, task Task) {
	defer p.pending.Done()
	if err := task(ctx); err != nil {
		p.mu.Lock()
		if p.err == nil {
			p.err = err
		}
		p.mu.Unlock()
	}
}

// Spawn implements Spawner. Spawn must not be called after Close.
func (p *Pool) Spawn(ctx context.Context, hint int, task Task) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		panic("spawn: Spawn on a closed Pool")
	}
	p.pending.Add(1)
	select {
	case p.queues[hint] <- pooled{ctx, task}:
	default:
		go p.run(region.With(ctx, hint), task)
	}
}

// Wait blocks until every task spawned so far has finished and
// returns the first error among tasks since the previous Wait. The
// workers stay up: the pool remains usable for further spawning.
func (p *Pool) Wait() error {
	p.pending.Wait()
	p.mu.Lock()
	err := p.err
	p.err = nil
	p.mu.Unlock()
	if err != nil {
		return errors.E("spawn: task failed", err)
	}
	return nil
}

// Close shuts the pool's workers down, first letting already-spawned
// tasks finish. Close is idempotent; the pool may not spawn again
// afterwards.
func (p *Pool) Close() {
	p.pending.Wait()
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.stop)
	}
	p.mu.Unlock()
	p.workers.Wait()
}
