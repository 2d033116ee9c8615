package threadsafe

import (
	"github.com/zeebo/portal"
	"github.com/zeebo/portal/internal/slot"
)

// ReadGuard is shared access to an anchored value. It must be released once
// the access is over. Releasing it again does nothing.
type ReadGuard[T any] = slot.ReadGuard[T]

// WriteGuard is exclusive access to an anchored value. It must be released
// once the access is over, with Abort if the operation it protects failed.
// Only the first Release or Abort has an effect.
type WriteGuard[T any] = slot.WriteGuard[T]

// Portal is a strong handle to an Anchor. The anchor cannot be retired while
// the portal is not released.
type Portal[T any] struct {
	h *slot.Strong[T]
}

// Read returns shared access to the value.
func (p *Portal[T]) Read() (*ReadGuard[T], error) { return p.h.Read() }

// View calls fn with the value.
func (p *Portal[T]) View(fn func(*T)) error { return p.h.View(fn) }

// Clone returns another portal to the same anchor.
func (p *Portal[T]) Clone() *Portal[T] { return &Portal[T]{h: p.h.Clone()} }

// Downgrade returns a weak portal to the same anchor.
func (p *Portal[T]) Downgrade() *WeakPortal[T] { return &WeakPortal[T]{w: p.h.Downgrade()} }

// Release gives up the portal. It is safe to call more than once, but the
// portal must not be used afterwards.
func (p *Portal[T]) Release() { p.h.Release() }

func (p *Portal[T]) downgradeAndRelease() *WeakPortal[T] {
	defer p.Release()
	return p.Downgrade()
}

// RwPortal is a strong handle to an RwAnchor.
type RwPortal[T any] struct {
	h *slot.Strong[T]
}

// Read returns shared access to the value, blocking while it is written. It
// fails with portal.ErrPoisoned if the anchor is poisoned.
func (p *RwPortal[T]) Read() (*ReadGuard[T], error) { return p.h.Read() }

// Write returns exclusive access to the value, blocking while it is read or
// written. It fails with portal.ErrPoisoned if the anchor is poisoned.
func (p *RwPortal[T]) Write() (*WriteGuard[T], error) { return p.h.Write() }

// View calls fn with shared access to the value.
func (p *RwPortal[T]) View(fn func(*T)) error { return p.h.View(fn) }

// Update calls fn with exclusive access to the value. If fn panics, the
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

// WPortal is a strong handle to a WAnchor. Every access is exclusive.
type WPortal[T any] struct {
	h *slot.Strong[T]
}

// Lock returns exclusive access to the value, blocking until it is
// available. It fails with portal.ErrPoisoned if the anchor is poisoned.
func (p *WPortal[T]) Lock() (*WriteGuard[T], error) { return p.h.Write() }

// Write is the same as Lock.
func (p *WPortal[T]) Write() (*WriteGuard[T], error) { return p.Lock() }

// Update calls fn with exclusive access to the value. If fn panics, the
// anchor is poisoned and the panic continues.
func (p *WPortal[T]) Update(fn func(*T)) error { return p.h.Update(fn) }

// Clone returns another portal to the same anchor.
func (p *WPortal[T]) Clone() *WPortal[T] { return &WPortal[T]{h: p.h.Clone()} }

// Downgrade returns a weak portal to the same anchor.
func (p *WPortal[T]) Downgrade() *WeakWPortal[T] { return &WeakWPortal[T]{w: p.h.Downgrade()} }

// Release gives up the portal. It is safe to call more than once.
func (p *WPortal[T]) Release() { p.h.Release() }

func (p *WPortal[T]) downgradeAndRelease() *WeakWPortal[T] {
	defer p.Release()
	return p.Downgrade()
}

// WeakPortal is an uncounted handle to an Anchor. It never keeps the anchor
// from being retired and must be upgraded to be used.
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
	p, ok := w.TryUpgrade()
	if !ok {
		return nil, portal.ErrDropped
	}
	return p, nil
}

// Clone returns another weak portal to the same anchor.
func (w *WeakPortal[T]) Clone() *WeakPortal[T] { return &WeakPortal[T]{w: w.w.Clone()} }

// WeakRwPortal is an uncounted handle to an RwAnchor.
type WeakRwPortal[T any] struct {
	w *slot.Weak[T]
}

// TryUpgrade returns a portal if the anchor has not been retired. Poisoning
// does not affect it.
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
	p, ok := w.TryUpgrade()
	if !ok {
		return nil, portal.ErrDropped
	}
	return p, nil
}

// Clone returns another weak portal to the same anchor.
func (w *WeakRwPortal[T]) Clone() *WeakRwPortal[T] { return &WeakRwPortal[T]{w: w.w.Clone()} }

// WeakWPortal is an uncounted handle to a WAnchor.
type WeakWPortal[T any] struct {
	w *slot.Weak[T]
}

// TryUpgrade returns a portal if the anchor has not been retired.
func (w *WeakWPortal[T]) TryUpgrade() (*WPortal[T], bool) {
	h, ok := w.w.TryUpgrade()
	if !ok {
		return nil, false
	}
	return &WPortal[T]{h: h}, true
}

// Upgrade returns a portal, or portal.ErrDropped if the anchor has been
// retired.
func (w *WeakWPortal[T]) Upgrade() (*WPortal[T], error) {
	p, ok := w.TryUpgrade()
	if !ok {
		return nil, portal.ErrDropped
	}
	return p, nil
}

// Clone returns another weak portal to the same anchor.
func (w *WeakWPortal[T]) Clone() *WeakWPortal[T] { return &WeakWPortal[T]{w: w.w.Clone()} }
