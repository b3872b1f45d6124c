// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package parallel

import (
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"
	"sync/atomic"
)

// Common pool errors.
var (
	// ErrPoolClosed is returned by Dispatch after Close.
	ErrPoolClosed = errors.New("parallel: pool is closed")

	// ErrPoolBroken is returned by Dispatch once a worker has panicked.
	// A broken pool never renders again; create a new one.
	ErrPoolBroken = errors.New("parallel: pool is broken")

	// ErrWorkerPanic wraps the value recovered from a panicking worker.
	ErrWorkerPanic = errors.New("parallel: worker panicked")

	// ErrPlanMismatch is returned when a plan does not have one entry per worker.
	ErrPlanMismatch = errors.New("parallel: plan does not match worker count")

	// ErrConcurrentDispatch is returned when Dispatch is entered while
	// another Dispatch on the same pool is still in flight.
	ErrConcurrentDispatch = errors.New("parallel: concurrent dispatch")
)

// Job is the per-frame work published to every worker.
//
// Render is called once per worker per dispatch, concurrently, with the
// worker's own regions. Regions of different workers never overlap, so a
// Job may write into a shared buffer without locking as long as it only
// touches pixels inside the regions it was given.
type Job interface {
	Render(worker int, regions []image.Rectangle)
}

// JobFunc adapts a function to the Job interface.
type JobFunc func(worker int, regions []image.Rectangle)

// Render implements Job.
func (f JobFunc) Render(worker int, regions []image.Rectangle) {
	f(worker, regions)
}

// WorkItem is the work descriptor owned by one worker.
//
// Items are allocated once when the pool starts and reused for every
// dispatch. The dispatcher overwrites Job and Regions before signalling
// the worker; the worker only reads them after receiving its signal.
type WorkItem struct {
	// Worker is the index of the owning worker.
	Worker int

	// Workers is the pool size.
	Workers int

	// Regions are the disjoint rectangles this worker renders.
	Regions []image.Rectangle

	// Job is the frame being rendered. Nil between dispatches.
	Job Job
}

// result is what a worker reports after finishing its item.
type result struct {
	worker int
	err    error
}

// WorkerPool is a fixed set of long-lived worker goroutines that render
// one frame at a time.
//
// Each worker owns a private signal channel with room for one token.
// Dispatch writes every worker's WorkItem, sends one token per worker and
// then collects exactly one result per worker from a shared channel.
// Because the token is buffered a signal can never be lost, so a worker
// that is not yet waiting still picks it up.
//
// Thread safety: Dispatch must be called from one goroutine at a time.
// Workers, IsRunning and Dispatches may be called from any goroutine.
type WorkerPool struct {
	// workers is the number of worker goroutines.
	workers int

	// items holds one reusable descriptor per worker.
	items []WorkItem

	// signals holds the per-worker work-ready channels.
	signals []chan struct{}

	// results collects completions from all workers.
	results chan result

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// running indicates whether the pool accepts dispatches.
	running atomic.Bool

	// broken is set once a worker panicked.
	broken atomic.Bool

	// busy guards against overlapping Dispatch calls.
	busy atomic.Bool

	// dispatches counts completed dispatches.
	dispatches atomic.Uint64
}

// NewWorkerPool creates a new worker pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
// The pool starts immediately and every worker is idle until the first Dispatch.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &WorkerPool{
		workers: workers,
		items:   make([]WorkItem, workers),
		signals: make([]chan struct{}, workers),
		results: make(chan result, workers),
		done:    make(chan struct{}),
	}

	for i := range workers {
		p.items[i] = WorkItem{Worker: i, Workers: workers}
		p.signals[i] = make(chan struct{}, 1)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}

	return p
}

// worker is the main loop for each worker goroutine.
// Idle -> Rendering -> reported -> Idle, until done is closed.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	signal := p.signals[id]
	item := &p.items[id]

	for {
		select {
		case <-p.done:
			return
		case <-signal:
			p.results <- result{worker: id, err: p.run(item)}
		}
	}
}

// run renders one item, turning a panic into an error.
func (p *WorkerPool) run(item *WorkItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: worker %d: %v", ErrWorkerPanic, item.Worker, r)
		}
	}()

	if item.Job != nil {
		item.Job.Render(item.Worker, item.Regions)
	}
	return nil
}

// Dispatch renders one frame.
//
// Every worker is given plan[i] and the job, all workers are signalled,
// and Dispatch blocks until every worker has reported. When Dispatch
// returns nil every region of the plan has been rendered and all writes
// made by the workers are visible to the caller.
//
// If a worker panics, Dispatch still waits for the remaining workers and
// then returns an error wrapping ErrWorkerPanic. The pool is broken from
// then on and later calls return ErrPoolBroken.
func (p *WorkerPool) Dispatch(job Job, plan Plan) error {
	if !p.running.Load() {
		return ErrPoolClosed
	}
	if p.broken.Load() {
		return ErrPoolBroken
	}
	if len(plan) != p.workers {
		return fmt.Errorf("%w: plan has %d entries, pool has %d workers",
			ErrPlanMismatch, len(plan), p.workers)
	}
	if !p.busy.CompareAndSwap(false, true) {
		return ErrConcurrentDispatch
	}
	defer p.busy.Store(false)

	// Publish every item before waiting on any worker.
	for i := range p.items {
		item := &p.items[i]
		item.Job = job
		item.Regions = plan[i]
		p.signals[i] <- struct{}{}
	}

	var first error
	for range p.workers {
		select {
		case r := <-p.results:
			if r.err != nil && first == nil {
				first = r.err
			}
		case <-p.done:
			return ErrPoolClosed
		}
	}

	// Drop the frame reference so the pool does not pin it between frames.
	for i := range p.items {
		p.items[i].Job = nil
	}

	if first != nil {
		p.broken.Store(true)
		return first
	}

	p.dispatches.Add(1)
	return nil
}

// Close stops all workers and waits for them to exit.
// It must not be called while a Dispatch is in flight.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		// Already closed
		return
	}

	// Signal workers to stop
	close(p.done)

	// Wait for all workers to finish
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool still accepts dispatches.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}

// IsBroken returns true if a worker panicked during a previous dispatch.
func (p *WorkerPool) IsBroken() bool {
	return p.broken.Load()
}

// Dispatches returns the number of dispatches that completed successfully.
func (p *WorkerPool) Dispatches() uint64 {
	return p.dispatches.Load()
}
