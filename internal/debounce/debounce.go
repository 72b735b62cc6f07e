// Package debounce collapses bursty same-fingerprint calls into a single
// delayed execution, with a max-wait ceiling that guarantees progress under
// continuous input. In-flight executions are deduplicated per fingerprint
// via singleflight, so a burst issues exactly one underlying call and every
// waiter receives its result.
package debounce

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Defaults used when the caller passes non-positive settings.
const (
	DefaultDelay   = 300 * time.Millisecond
	DefaultMaxWait = 1 * time.Second
)

// ErrCanceled is delivered to waiters whose pending call was canceled
// before it executed.
var ErrCanceled = errors.New("debounced call canceled")

type outcome[V any] struct {
	val V
	err error
}

type pending[V any] struct {
	fn       func() (V, error)
	timer    *time.Timer
	deadline time.Time
	waiters  []chan outcome[V]
	done     bool
}

// Debouncer coalesces calls per key. The newest call's fn supersedes the
// previous pending one; all coalesced waiters receive the executed call's
// result.
type Debouncer[V any] struct {
	delay   time.Duration
	maxWait time.Duration

	mu      sync.Mutex
	pending map[string]*pending[V]
	group   singleflight.Group
}

// New creates a debouncer with the given delay and max-wait ceiling.
func New[V any](delay, maxWait time.Duration) *Debouncer[V] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &Debouncer[V]{
		delay:   delay,
		maxWait: maxWait,
		pending: make(map[string]*pending[V]),
	}
}

// Do schedules fn under key and blocks until the debounced execution fires
// or ctx is done. Repeated calls with the same key within the delay collapse
// into one execution whose result is delivered to every caller.
func (d *Debouncer[V]) Do(ctx context.Context, key string, fn func() (V, error)) (V, error) {
	ch := make(chan outcome[V], 1)

	d.mu.Lock()
	p, ok := d.pending[key]
	if ok {
		// Supersede: newest fn wins, timer restarts but never past deadline.
		p.fn = fn
		p.waiters = append(p.waiters, ch)
		p.timer.Reset(d.untilFire(p.deadline))
	} else {
		p = &pending[V]{
			fn:       fn,
			deadline: time.Now().Add(d.maxWait),
			waiters:  []chan outcome[V]{ch},
		}
		p.timer = time.AfterFunc(d.delay, func() { d.fire(key) })
		d.pending[key] = p
	}
	d.mu.Unlock()

	select {
	case out := <-ch:
		return out.val, out.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Flush forces immediate execution of the pending call for key, if any.
func (d *Debouncer[V]) Flush(key string) {
	d.mu.Lock()
	p, ok := d.pending[key]
	if ok {
		p.timer.Stop()
	}
	d.mu.Unlock()
	if ok {
		d.fire(key)
	}
}

// Cancel discards the pending call for key without executing it; waiters
// receive ErrCanceled.
func (d *Debouncer[V]) Cancel(key string) {
	d.mu.Lock()
	p, ok := d.pending[key]
	if ok && !p.done {
		p.done = true
		p.timer.Stop()
		delete(d.pending, key)
	}
	d.mu.Unlock()
	if !ok {
		return
	}
	var zero V
	for _, ch := range p.waiters {
		ch <- outcome[V]{val: zero, err: ErrCanceled}
	}
}

// CancelAll discards every pending call, for shutdown.
func (d *Debouncer[V]) CancelAll() {
	d.mu.Lock()
	keys := make([]string, 0, len(d.pending))
	for k := range d.pending {
		keys = append(keys, k)
	}
	d.mu.Unlock()
	for _, k := range keys {
		d.Cancel(k)
	}
}

// Pending reports whether a call is queued for key.
func (d *Debouncer[V]) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

func (d *Debouncer[V]) fire(key string) {
	d.mu.Lock()
	p, ok := d.pending[key]
	if !ok || p.done {
		d.mu.Unlock()
		return
	}
	p.done = true
	delete(d.pending, key)
	fn := p.fn
	waiters := p.waiters
	d.mu.Unlock()

	// One execution per key even when a fire races a fresh burst.
	v, err, _ := d.group.Do(key, func() (any, error) {
		return fn()
	})

	out := outcome[V]{err: err}
	if val, ok := v.(V); ok {
		out.val = val
	}
	for _, ch := range waiters {
		ch <- out
	}
}

// untilFire clamps the debounce delay to the pending call's deadline.
func (d *Debouncer[V]) untilFire(deadline time.Time) time.Duration {
	remaining := time.Until(deadline)
	if remaining < d.delay {
		if remaining < 0 {
			return 0
		}
		return remaining
	}
	return d.delay
}
