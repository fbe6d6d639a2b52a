// Package task implements the lightweight task runtime: a fixed worker
// pool draws tasks from a shared queue, each task owns a timer
// priority-queue drained before the task may complete, and one-shot
// Promises carry return values and callback lists across task
// boundaries.
package task

import "sync"

// Promise is a one-shot, thread-safe value cell. Resolve stores a value,
// marks the cell resolved, and fires every queued callback once under a
// released lock (callbacks never run while p.mu is held, so a callback
// that itself awaits or resolves another promise cannot deadlock against
// this one). Await blocks until resolved; Then invokes immediately if
// already resolved, otherwise queues. Subsequent resolves are ignored;
// the first value wins.
type Promise struct {
	mu        sync.Mutex
	resolved  bool
	value     any
	callbacks []func(any)
	done      chan struct{}
}

func NewPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

// Resolve stores value and fires every registered callback. A second
// call on an already-resolved promise is a no-op.
func (p *Promise) Resolve(value any) {
	p.mu.Lock()
	if p.resolved {
		p.mu.Unlock()
		return
	}
	p.resolved = true
	p.value = value
	callbacks := p.callbacks
	p.callbacks = nil
	close(p.done)
	p.mu.Unlock()

	for _, cb := range callbacks {
		cb(value)
	}
}

// Await blocks the caller until the promise resolves, returning its
// value immediately if it is already resolved.
func (p *Promise) Await() any {
	<-p.done
	p.mu.Lock()
	v := p.value
	p.mu.Unlock()
	return v
}

// Resolved reports whether the promise has already settled, without
// blocking.
func (p *Promise) Resolved() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resolved
}

// Then invokes callback immediately if the promise is already resolved;
// otherwise the callback is queued and runs (on the resolving goroutine)
// when Resolve is called.
func (p *Promise) Then(callback func(any)) {
	p.mu.Lock()
	if p.resolved {
		v := p.value
		p.mu.Unlock()
		callback(v)
		return
	}
	p.callbacks = append(p.callbacks, callback)
	p.mu.Unlock()
}

// All resolves with an ordered slice of values once every input promise
// has resolved. Each input's value lands at its original index
// regardless of resolution order.
func All(promises []*Promise) *Promise {
	out := NewPromise()
	if len(promises) == 0 {
		out.Resolve([]any{})
		return out
	}

	values := make([]any, len(promises))
	var mu sync.Mutex
	remaining := len(promises)

	for i, p := range promises {
		i := i
		p.Then(func(v any) {
			mu.Lock()
			values[i] = v
			remaining--
			done := remaining == 0
			mu.Unlock()
			if done {
				out.Resolve(values)
			}
		})
	}
	return out
}
