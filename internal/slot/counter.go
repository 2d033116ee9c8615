package slot

import (
	"sync"
	"sync/atomic"
)

// counter tracks the strong references to a slot. The anchor holds one of
// them, so the slot is uniquely owned when the count is one and retired when
// it is zero.
type counter struct {
	count atomic.Int32
	mu    sync.Mutex
	cond  sync.Cond
}

func (c *counter) init() {
	c.count.Store(1)
	c.cond.L = &c.mu
}

// Acquire increments the counter. The caller must already hold a reference.
// It panics without changing the count if the counter is at zero.
func (c *counter) Acquire() {
	if !c.TryAcquire() {
		panic("slot: acquire on an unreferenced slot")
	}
}

// TryAcquire increments the counter unless it already dropped to zero.
func (c *counter) TryAcquire() bool {
	for {
		n := c.count.Load()
		if n <= 0 {
			return false
		}
		if c.count.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Release decrements the counter and wakes up Wait if only the anchor's
// reference remains.
func (c *counter) Release() {
	n := c.count.Add(-1)
	if n < 0 {
		panic("slot: unbalanced release")
	}
	if n == 1 {
		// taking the mutex orders the broadcast after any waiter that
		// observed a larger count, so no wakeup is lost.
		c.mu.Lock()
		c.cond.Broadcast()
		c.mu.Unlock()
	}
}

// Unique returns if only one reference exists.
func (c *counter) Unique() bool { return c.count.Load() == 1 }

// Claim drops the last reference, after which TryAcquire always fails. It
// returns false if more than one reference exists.
func (c *counter) Claim() bool { return c.count.CompareAndSwap(1, 0) }

// Unclaim undoes a Claim. Nobody can acquire in between, so a store suffices.
func (c *counter) Unclaim() { c.count.Store(1) }

// Load returns the current count.
func (c *counter) Load() int32 { return c.count.Load() }

// Wait blocks until at most one reference exists.
func (c *counter) Wait() {
	c.mu.Lock()
	for c.count.Load() > 1 {
		c.cond.Wait()
	}
	c.mu.Unlock()
}
