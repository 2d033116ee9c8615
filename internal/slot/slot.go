// package slot implements the reference counted, synchronized cell shared by
// an anchor and its portals.
package slot

import (
	"sync/atomic"

	"github.com/zeebo/portal"
	"github.com/zeebo/portal/internal/goid"
)

// Slot holds a pointer to a scope-bound value. The pointer is present until
// the anchor retires the slot, after which it is absent for good. Every access
// to the pointed-to value goes through the Strategy.
type Slot[T any] struct {
	ptr      atomic.Pointer[T]
	refs     counter
	poisoned atomic.Bool
	mutable  bool
	sync     Strategy
	owner    int64 // goroutine id the slot is confined to, 0 if none
}

// New returns a slot holding p with a single strong reference, owned by the
// caller. Only mutable slots can be poisoned.
func New[T any](p *T, sync Strategy, mutable bool) *Slot[T] {
	if p == nil {
		panic("slot: nil pointer")
	}
	s := &Slot[T]{mutable: mutable, sync: sync}
	s.ptr.Store(p)
	s.refs.init()
	return s
}

// Confine restricts every later operation on the slot to the calling
// goroutine. It must be called before the slot is shared.
func (s *Slot[T]) Confine() { s.owner = goid.Get() }

// Confined returns if Confine was called.
func (s *Slot[T]) Confined() bool { return s.owner != 0 }

func (s *Slot[T]) check() {
	if s.owner != 0 && goid.Get() != s.owner {
		panic("slot: confined anchor used from another goroutine")
	}
}

// Strong returns the number of strong references, including the anchor's.
// It is zero once the slot is retired.
func (s *Slot[T]) Strong() int32 { return s.refs.Load() }

// Poisoned returns if the slot has been poisoned.
func (s *Slot[T]) Poisoned() bool { return s.mutable && s.poisoned.Load() }

// Mint returns a new strong handle. The caller must hold a reference.
func (s *Slot[T]) Mint() *Strong[T] {
	s.check()
	s.refs.Acquire()
	return newStrong(s)
}

// TryMint returns a new strong handle unless the slot has no references
// left, which is the case once it is retired.
func (s *Slot[T]) TryMint() (*Strong[T], bool) {
	s.check()
	if !s.refs.TryAcquire() {
		return nil, false
	}
	return newStrong(s), true
}

// Read acquires shared access to the contents. The returned guard holds its
// own strong reference until it is released.
func (s *Slot[T]) Read() (*ReadGuard[T], error) {
	s.check()
	if err := s.sync.AcquireRead(); err != nil {
		return nil, err
	}
	p, err := s.load()
	if err != nil {
		s.sync.ReleaseRead()
		return nil, err
	}
	s.refs.Acquire()
	g := &ReadGuard[T]{ptr: p}
	g.slot.Store(s)
	return g, nil
}

// Write acquires exclusive access to the contents. Releasing the returned
// guard with Abort poisons the slot.
func (s *Slot[T]) Write() (*WriteGuard[T], error) {
	s.check()
	if !s.mutable {
		panic("slot: write to a read-only slot")
	}
	if err := s.sync.AcquireWrite(); err != nil {
		return nil, err
	}
	p, err := s.load()
	if err != nil {
		s.sync.ReleaseWrite()
		return nil, err
	}
	s.refs.Acquire()
	g := &WriteGuard[T]{ptr: p}
	g.slot.Store(s)
	return g, nil
}

// load must be called with the strategy acquired.
func (s *Slot[T]) load() (*T, error) {
	if s.Poisoned() {
		return nil, portal.ErrPoisoned
	}
	p := s.ptr.Load()
	if p == nil {
		return nil, portal.ErrDropped
	}
	return p, nil
}

// Poison waits for exclusive access and poisons the slot.
func (s *Slot[T]) Poison() {
	s.check()
	if err := s.sync.AcquireWrite(); err != nil {
		// only non-blocking strategies fail, and they have TryPoison.
		panic("slot: Poison on a non-blocking strategy: " + err.Error())
	}
	s.poisoned.Store(true)
	s.sync.ReleaseWrite()
}

// TryPoison poisons the slot if exclusive access is available right now. It
// returns false if some borrow is active.
func (s *Slot[T]) TryPoison() bool {
	s.check()
	if !s.sync.TryAcquireWrite() {
		return false
	}
	s.poisoned.Store(true)
	s.sync.ReleaseWrite()
	return true
}

// MarkPoisoned poisons the slot without synchronizing with active borrows.
// It is only sound when the caller is the goroutine those borrows live on.
func (s *Slot[T]) MarkPoisoned() {
	s.check()
	s.poisoned.Store(true)
}

// Retire makes the slot absent. It must only be called by the holder of the
// anchor's reference. It fails with portal.ErrStillInUse if any other strong
// reference exists and with portal.ErrPoisoned if the slot is poisoned. On
// failure the anchor's reference is still held.
func (s *Slot[T]) Retire() error {
	s.check()
	if s.Poisoned() && s.refs.Unique() {
		return portal.ErrPoisoned
	}
	if !s.refs.Claim() {
		return portal.ErrStillInUse
	}
	// a guard may have poisoned the slot after the first check and been
	// released before the claim.
	if s.Poisoned() {
		s.refs.Unclaim()
		return portal.ErrPoisoned
	}
	s.ptr.Store(nil)
	return nil
}

// WaitUnique blocks until the caller's reference is the only strong one.
func (s *Slot[T]) WaitUnique() {
	s.check()
	s.refs.Wait()
}
