// Package optimistic applies predicted values ahead of a remote commit and
// reverts them when the commit fails.
package optimistic

import (
	"context"
	"errors"
	"sync"
)

// ErrInFlight is returned by Toggle while an earlier guarded write has not
// settled.
var ErrInFlight = errors.New("update already in flight")

// Cell holds one optimistically updated value.
//
// Besides the shown value it keeps the last value the remote side is known
// to hold. A failed write never falls back to another write's guess, only to
// that confirmed value.
type Cell[V any] struct {
	mu    sync.Mutex
	value V
	seq   uint64

	confirmed    V
	confirmedSeq uint64
	// failedSeq is the seq of the newest write when it settled with an error.
	failedSeq uint64

	pending int
	guarded bool
}

func NewCell[V any](initial V) *Cell[V] {
	return &Cell[V]{value: initial, confirmed: initial}
}

func (c *Cell[V]) Get() V {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Reset replaces the value with server truth. It also supersedes any pending
// write, so a later failure of that write does not revert over it.
func (c *Cell[V]) Reset(v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked(v)
}

func (c *Cell[V]) resetLocked(v V) {
	c.seq++
	c.value = v
	c.confirmed = v
	c.confirmedSeq = c.seq
	c.failedSeq = 0
}

// Sync is Reset for data read before the caller knew about local writes: it
// applies v only while no write is unsettled and reports whether it did.
func (c *Cell[V]) Sync(v V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending > 0 {
		return false
	}
	c.resetLocked(v)
	return true
}

// Pending reports whether any write, guarded or not, is in flight.
func (c *Cell[V]) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending > 0
}

// Set shows next immediately and runs commit. When commit fails and no newer
// write has been made, the last confirmed value is restored.
func (c *Cell[V]) Set(ctx context.Context, next V, commit func(context.Context, V) error) error {
	c.mu.Lock()
	seq := c.beginLocked(next)
	c.mu.Unlock()

	err := commit(ctx, next)

	c.mu.Lock()
	c.settleLocked(seq, next, err)
	c.mu.Unlock()
	return err
}

// Toggle is the guarded form of Set: next is derived from the current value
// by flip, and a second Toggle while the first is unsettled fails with
// ErrInFlight without touching the value.
func (c *Cell[V]) Toggle(ctx context.Context, flip func(V) V, commit func(context.Context, V) error) (V, error) {
	c.mu.Lock()
	if c.guarded {
		v := c.value
		c.mu.Unlock()
		return v, ErrInFlight
	}
	c.guarded = true
	next := flip(c.value)
	seq := c.beginLocked(next)
	c.mu.Unlock()

	err := commit(ctx, next)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.guarded = false
	c.settleLocked(seq, next, err)
	if err != nil {
		return c.value, err
	}
	return next, nil
}

func (c *Cell[V]) beginLocked(next V) uint64 {
	c.seq++
	c.value = next
	c.pending++
	return c.seq
}

func (c *Cell[V]) settleLocked(seq uint64, next V, err error) {
	c.pending--
	if err != nil {
		if seq == c.seq {
			c.value = c.confirmed
			c.failedSeq = seq
		}
		return
	}

	if seq > c.confirmedSeq {
		c.confirmed = next
		c.confirmedSeq = seq
	}
	// The newest write already failed, so what the remote side holds now is
	// whatever this older write put there.
	if c.failedSeq == c.seq {
		c.value = c.confirmed
	}
}
