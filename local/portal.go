package local

import (
	"github.com/zeebo/portal"
	"github.com/zeebo/portal/internal/slot"
)

// ReadGuard is a shared borrow of an anchored value. It must be released
// once the borrow is over. Releasing it again does nothing.
type ReadGuard[T any] = slot.ReadGuard[T]

// WriteGuard is an exclusive borrow of an anchored value. It must be
// released once the borrow is over, with Abort if the operation it protects
// failed. Only the first Release or Abort has an effect.
type WriteGuard[T any] = slot.WriteGuard[T]

// Portal is a strong handle to an Anchor.
type Portal[T any] struct {
	h *slot.Strong[T]
}

// Borrow returns a shared borrow of the value.
func (p *Portal[T]) Borrow() (*ReadGuard[T], error) { return p.h.Read() }

// View calls fn with the value.
func (p *Portal[T]) View(fn func(*T)) error { return p.h.View(fn) }

// Clone returns another portal to the same anchor.
func (p *Portal[T]) Clone() *Portal[T] { return &Portal[T]{h: p.h.Clone()} }

// Downgrade returns a weak portal to the same anchor.
func (p *Portal[T]) Downgrade() *WeakPortal[T] { return &WeakPortal[T]{w: p.h.Downgrade()} }

// Release gives up the portal. It is safe to call more than once.
func (p *Portal[T]) Release() { p.h.Release() }

func (p *Portal[T]) downgradeAndRelease() *WeakPortal[T] {
	defer p.Release()
	return p.Downgrade()
}

// RwPortal is a strong handle to an RwAnchor.
type RwPortal[T any] struct {
	h *slot.Strong[T]
}

// Borrow returns a shared borrow of the value. It fails with
// portal.ErrBorrowed while an exclusive borrow is active and with
// portal.ErrPoisoned if the anchor is poisoned.
func (p *RwPortal[T]) Borrow() (*ReadGuard[T], error) { return p.h.Read() }

// BorrowMut returns an exclusive borrow of the value. It fails with
// portal.ErrBorrowed while any borrow is active and with portal.ErrPoisoned
// if the anchor is poisoned.
func (p *RwPortal[T]) BorrowMut() (*WriteGuard[T], error) { return p.h.Write() }

// View calls fn with a shared borrow of the value.
func (p *RwPortal[T]) View(fn func(*T)) error { return p.h.View(fn) }

// Update calls fn with an exclusive borrow of the value. If fn panics, the
// anchor is poisoned and the panic continues.
func (p *RwPortal[T]) Update(fn func(*T)) error { return p.h.Update(fn) }

// Clone returns another portal to the same anchor.
func (p *RwPortal[T]) Clone() *RwPortal[T] { return &RwPortal[T]{h: p.h.Clone()} }

// Downgrade returns a weak portal to the same anchor.
func (p *RwPortal[T]) Downgrade() *WeakRwPortal[T] { return &WeakRwPortal[T]{w: p.h.Downgrade()} }

// Release gives up the portal. It is safe to call more than once.
func (p *RwPortal[T]) Release() { p.h.Release() }

func (p *RwPortal[T]) downgradeAndRelease() *WeakRwPortal[T] {
	defer p.Release()
	return p.Downgrade()
}

// WeakPortal is an uncounted handle to an Anchor.
type WeakPortal[T any] struct {
	w *slot.Weak[T]
}

// TryUpgrade returns a portal if the anchor has not been retired.
func (w *WeakPortal[T]) TryUpgrade() (*Portal[T], bool) {
	h, ok := w.w.TryUpgrade()
	if !ok {
		return nil, false
	}
	return &Portal[T]{h: h}, true
}

// Upgrade returns a portal, or portal.ErrDropped if the anchor has been
// retired.
func (w *WeakPortal[T]) Upgrade() (*Portal[T], error) {
	if p, ok := w.TryUpgrade(); ok {
		return p, nil
	}
	return nil, portal.ErrDropped
}

// Clone returns another weak portal to the same anchor.
func (w *WeakPortal[T]) Clone() *WeakPortal[T] { return &WeakPortal[T]{w: w.w.Clone()} }

// WeakRwPortal is an uncounted handle to an RwAnchor.
type WeakRwPortal[T any] struct {
	w *slot.Weak[T]
}

// TryUpgrade returns a portal if the anchor has not been retired.
func (w *WeakRwPortal[T]) TryUpgrade() (*RwPortal[T], bool) {
	h, ok := w.w.TryUpgrade()
	if !ok {
		return nil, false
	}
	return &RwPortal[T]{h: h}, true
}

// Upgrade returns a portal, or portal.ErrDropped if the anchor has been
// retired.
func (w *WeakRwPortal[T]) Upgrade() (*RwPortal[T], error) {
	if p, ok := w.TryUpgrade(); ok {
		return p, nil
	}
	return nil, portal.ErrDropped
}

// Clone returns another weak portal to the same anchor.
func (w *WeakRwPortal[T]) Clone() *WeakRwPortal[T] { return &WeakRwPortal[T]{w: w.w.Clone()} }
