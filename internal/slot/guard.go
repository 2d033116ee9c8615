package slot

import "sync/atomic"

// ReadGuard is shared access to the contents of a slot. It keeps the slot from
// being retired until it is released. Only the first Release has an effect.
type ReadGuard[T any] struct {
	slot atomic.Pointer[Slot[T]]
	ptr  *T
}

// Get returns the guarded value. It must not be modified. It panics if the
// guard was released.
func (g *ReadGuard[T]) Get() *T {
	if g.slot.Load() == nil {
		panic("slot: use of a released guard")
	}
	return g.ptr
}

// Release gives up access.
func (g *ReadGuard[T]) Release() {
	s := g.slot.Load()
	if s == nil {
		return
	}
	s.check()
	if g.slot.CompareAndSwap(s, nil) {
		s.sync.ReleaseRead()
		s.refs.Release()
	}
}

// WriteGuard is exclusive access to the contents of a slot. It is finished by
// Release if the protected operation completed or by Abort if it did not.
// Only the first of them has an effect.
type WriteGuard[T any] struct {
	slot atomic.Pointer[Slot[T]]
	ptr  *T
}

// Get returns the guarded value. It panics if the guard was released.
func (g *WriteGuard[T]) Get() *T {
	if g.slot.Load() == nil {
		panic("slot: use of a released guard")
	}
	return g.ptr
}

// Release gives up access after a completed operation.
func (g *WriteGuard[T]) Release() { g.done(false) }

// Abort gives up access after a failed operation, poisoning the slot.
func (g *WriteGuard[T]) Abort() { g.done(true) }

func (g *WriteGuard[T]) done(failed bool) {
	s := g.slot.Load()
	if s == nil {
		return
	}
	s.check()
	if !g.slot.CompareAndSwap(s, nil) {
		return
	}
	if failed {
		s.poisoned.Store(true)
	}
	s.sync.ReleaseWrite()
	s.refs.Release()
}
