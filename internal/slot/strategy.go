package slot

import (
	"sync"

	"github.com/zeebo/portal"
)

// Strategy synchronizes access to the contents of a Slot. Blocking strategies
// never return errors. Non-blocking ones fail with portal.ErrBorrowed instead
// of waiting.
type Strategy interface {
	AcquireRead() error
	ReleaseRead()
	AcquireWrite() error
	TryAcquireWrite() bool
	ReleaseWrite()
}

// Unsynchronized is the strategy for read-only slots. The contents are only
// written by retirement, which is ordered by the strong count, so no lock is
// needed once the slot is constructed.
type Unsynchronized struct{}

func (Unsynchronized) AcquireRead() error    { return nil }
func (Unsynchronized) ReleaseRead()          {}
func (Unsynchronized) AcquireWrite() error   { return nil }
func (Unsynchronized) TryAcquireWrite() bool { return true }
func (Unsynchronized) ReleaseWrite()         {}

// RWLock allows many readers or one writer, blocking until it can.
type RWLock struct{ mu sync.RWMutex }

func (l *RWLock) AcquireRead() error    { l.mu.RLock(); return nil }
func (l *RWLock) ReleaseRead()          { l.mu.RUnlock() }
func (l *RWLock) AcquireWrite() error   { l.mu.Lock(); return nil }
func (l *RWLock) TryAcquireWrite() bool { return l.mu.TryLock() }
func (l *RWLock) ReleaseWrite()         { l.mu.Unlock() }

// Mutex allows one accessor at a time. Reads are exclusive too, so the value
// never needs to be safe for concurrent reads.
type Mutex struct{ mu sync.Mutex }

func (m *Mutex) AcquireRead() error    { m.mu.Lock(); return nil }
func (m *Mutex) ReleaseRead()          { m.mu.Unlock() }
func (m *Mutex) AcquireWrite() error   { m.mu.Lock(); return nil }
func (m *Mutex) TryAcquireWrite() bool { return m.mu.TryLock() }
func (m *Mutex) ReleaseWrite()         { m.mu.Unlock() }

// BorrowCell counts borrows at run time for a single goroutine. It never
// blocks: a conflicting borrow fails immediately. It is not safe for
// concurrent use.
type BorrowCell struct {
	// > 0: that many readers. -1: one writer.
	borrows int
}

func (c *BorrowCell) AcquireRead() error {
	if c.borrows < 0 {
		return portal.ErrBorrowed
	}
	c.borrows++
	return nil
}

func (c *BorrowCell) ReleaseRead() {
	if c.borrows <= 0 {
		panic("slot: unbalanced read release")
	}
	c.borrows--
}

func (c *BorrowCell) AcquireWrite() error {
	if c.borrows != 0 {
		return portal.ErrBorrowed
	}
	c.borrows = -1
	return nil
}

func (c *BorrowCell) TryAcquireWrite() bool { return c.AcquireWrite() == nil }

func (c *BorrowCell) ReleaseWrite() {
	if c.borrows != -1 {
		panic("slot: unbalanced write release")
	}
	c.borrows = 0
}
