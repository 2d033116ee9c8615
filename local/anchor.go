// package local provides anchors and portals for use on a single goroutine.
// Borrows through them never block: a conflicting borrow fails with
// portal.ErrBorrowed. None of the types are safe for concurrent use.
//
// Nothing stops a portal from being handed to another goroutine anyway, and an
// anchor retired while such a portal is borrowing it has no safe way to fail.
// Instead it applies its portal.Policy, which blocks the retiring goroutine
// forever by default. Anchors created with portal.Confined check on every
// operation that they stay on their goroutine, and fail retirement with
// portal.ErrStillInUse instead.
package local

import (
	"errors"
	"fmt"

	"github.com/zeebo/portal"
	"github.com/zeebo/portal/internal/slot"
)

type anchor[T any] struct {
	slot    *slot.Slot[T]
	cfg     portal.Config
	kind    string
	retired bool
}

func (a *anchor[T]) init(kind string, p *T, strategy slot.Strategy, mutable bool, opts []portal.Option) {
	a.cfg = portal.NewConfig(opts...)
	a.slot = slot.New(p, strategy, mutable)
	a.kind = kind
	if a.cfg.Confined {
		a.slot.Confine()
	}
}

func (a *anchor[T]) mint() *slot.Strong[T] {
	if a.retired {
		panic("local: portal from a retired " + a.kind)
	}
	return a.slot.Mint()
}

// close runs the retirement protocol. shared is called when other strong
// references exist and decides what happens to them.
func (a *anchor[T]) close(shared func()) error {
	if a.retired {
		return nil
	}
	err := a.slot.Retire()
	if err == nil {
		a.retired = true
		a.cfg.Logger.Debugf("%s retired", a.kind)
		return nil
	}
	if errors.Is(err, portal.ErrStillInUse) {
		shared()
	}
	a.cfg.Logger.Warningf("%s not retired: %v (%d strong references)", a.kind, err, a.slot.Strong())
	return err
}

// escape handles a retirement that cannot prove the outstanding borrows are
// on this goroutine. It never returns.
func (a *anchor[T]) escape() {
	err := fmt.Errorf("%s retired while borrowed by a portal that may have left the goroutine: %w",
		a.kind, portal.ErrStillInUse)
	if a.cfg.Policy == portal.PolicyAbort {
		a.cfg.Logger.Errorf("%v; aborting", err)
		panic(err)
	}
	a.cfg.Logger.Errorf("%v; blocking goroutine forever", err)
	select {}
}

// Anchor captures a pointer for read-only access.
type Anchor[T any] struct {
	a anchor[T]
}

// NewAnchor returns an Anchor over the value p points to. The value must not
// be modified until the anchor is retired.
func NewAnchor[T any](p *T, opts ...portal.Option) *Anchor[T] {
	an := new(Anchor[T])
	an.a.init("Anchor", p, slot.Unsynchronized{}, false, opts)
	return an
}

// Portal returns a new strong portal. It panics if the anchor is retired.
func (a *Anchor[T]) Portal() *Portal[T] { return &Portal[T]{h: a.a.mint()} }

// WeakPortal returns a new weak portal.
func (a *Anchor[T]) WeakPortal() *WeakPortal[T] { return a.Portal().downgradeAndRelease() }

// Close retires the anchor. Closing a retired anchor returns nil.
//
// A portal of a read-only anchor can be read at any time without a borrow,
// so if one has not been released Close applies the policy, unless the anchor
// is confined, in which case it fails with portal.ErrStillInUse.
func (a *Anchor[T]) Close() error {
	return a.a.close(func() {
		if !a.a.slot.Confined() {
			a.a.escape()
		}
	})
}

// RwAnchor captures a pointer for shared or exclusive borrows.
type RwAnchor[T any] struct {
	a anchor[T]
}

// NewRwAnchor returns an RwAnchor over the value p points to. The value must
// only be accessed through portals until the anchor is retired.
func NewRwAnchor[T any](p *T, opts ...portal.Option) *RwAnchor[T] {
	an := new(RwAnchor[T])
	an.a.init("RwAnchor", p, new(slot.BorrowCell), true, opts)
	return an
}

// Portal returns a new strong portal. It panics if the anchor is retired.
func (a *RwAnchor[T]) Portal() *RwPortal[T] { return &RwPortal[T]{h: a.a.mint()} }

// WeakPortal returns a new weak portal.
func (a *RwAnchor[T]) WeakPortal() *WeakRwPortal[T] { return a.Portal().downgradeAndRelease() }

// Close retires the anchor. Closing a retired anchor returns nil. It fails
// with portal.ErrPoisoned if the anchor is poisoned.
//
// If a portal has not been released but nothing is borrowed, the anchor is
// poisoned and Close fails with portal.ErrStillInUse. If something is
// borrowed, Close applies the policy, unless the anchor is confined, in which
// case it poisons the anchor and fails with portal.ErrStillInUse.
func (a *RwAnchor[T]) Close() error {
	return a.a.close(func() {
		if a.a.slot.TryPoison() {
			return
		}
		if !a.a.slot.Confined() {
			a.a.escape()
		}
		a.a.slot.MarkPoisoned()
	})
}
