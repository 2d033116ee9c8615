package slot

import "sync/atomic"

// Strong is a counted handle to a slot. While it is not released the slot
// cannot be retired.
type Strong[T any] struct {
	slot atomic.Pointer[Slot[T]]
}

func newStrong[T any](s *Slot[T]) *Strong[T] {
	h := new(Strong[T])
	h.slot.Store(s)
	return h
}

// Slot returns the slot the handle refers to. It panics if the handle was
// released.
func (h *Strong[T]) Slot() *Slot[T] {
	s := h.slot.Load()
	if s == nil {
		panic("slot: use of a released portal")
	}
	return s
}

// Clone returns another strong handle to the same slot.
func (h *Strong[T]) Clone() *Strong[T] { return h.Slot().Mint() }

// Release drops the reference. It is safe to call more than once.
func (h *Strong[T]) Release() {
	if s := h.slot.Load(); s != nil {
		s.check()
		if h.slot.CompareAndSwap(s, nil) {
			s.refs.Release()
		}
	}
}

// Released returns if Release was called.
func (h *Strong[T]) Released() bool { return h.slot.Load() == nil }

// Downgrade returns an uncounted handle to the same slot.
func (h *Strong[T]) Downgrade() *Weak[T] {
	s := h.Slot()
	s.check()
	return &Weak[T]{slot: s}
}

// Read acquires shared access through the handle.
func (h *Strong[T]) Read() (*ReadGuard[T], error) { return h.Slot().Read() }

// Write acquires exclusive access through the handle.
func (h *Strong[T]) Write() (*WriteGuard[T], error) { return h.Slot().Write() }

// View calls fn with shared access to the value.
func (h *Strong[T]) View(fn func(*T)) error {
	g, err := h.Read()
	if err != nil {
		return err
	}
	defer g.Release()
	fn(g.Get())
	return nil
}

// Update calls fn with exclusive access to the value. If fn does not return
// normally, by panicking or calling runtime.Goexit, the slot is poisoned
// before the failure continues.
func (h *Strong[T]) Update(fn func(*T)) error {
	g, err := h.Write()
	if err != nil {
		return err
	}
	completed := false
	defer func() {
		if completed {
			g.Release()
		} else {
			g.Abort()
		}
	}()
	fn(g.Get())
	completed = true
	return nil
}

// Weak is an uncounted handle to a slot. It never keeps the slot from being
// retired.
type Weak[T any] struct {
	slot *Slot[T]
}

// TryUpgrade returns a strong handle if the slot has not been retired.
func (w *Weak[T]) TryUpgrade() (*Strong[T], bool) {
	return w.slot.TryMint()
}

// Clone returns another weak handle to the same slot.
func (w *Weak[T]) Clone() *Weak[T] {
	w.slot.check()
	return &Weak[T]{slot: w.slot}
}
