// package threadsafe provides anchors and portals that may be shared between
// goroutines. Access through them blocks on locks until it can proceed.
package threadsafe

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/zeebo/portal"
	"github.com/zeebo/portal/internal/slot"
)

// anchor is the retirement protocol shared by every anchor in this package.
type anchor[T any] struct {
	slot    *slot.Slot[T]
	log     portal.Logger
	kind    string
	mutable bool
	mu      sync.Mutex // serializes retirement
	retired atomic.Bool
}

func (a *anchor[T]) init(kind string, p *T, strategy slot.Strategy, mutable bool, opts []portal.Option) {
	cfg := portal.NewConfig(opts...)
	a.slot = slot.New(p, strategy, mutable)
	a.log = cfg.Logger
	a.kind = kind
	a.mutable = mutable
}

func (a *anchor[T]) mint() *slot.Strong[T] {
	if h, ok := a.slot.TryMint(); ok {
		return h
	}
	// either the slot is retired, or a retirement that is about to fail
	// holds the count at zero. the latter finishes under mu.
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.retired.Load() {
		panic("threadsafe: portal from a retired " + a.kind)
	}
	return a.slot.Mint()
}

func (a *anchor[T]) close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.retired.Load() {
		return nil
	}
	err := a.slot.Retire()
	if err == nil {
		a.retired.Store(true)
		a.log.Debugf("%s retired", a.kind)
		return nil
	}

	// surviving portals of a mutable anchor must observe the violation.
	if errors.Is(err, portal.ErrStillInUse) && a.mutable {
		a.slot.Poison()
	}
	a.log.Warningf("%s not retired: %v (%d strong references)", a.kind, err, a.slot.Strong())
	return err
}

func (a *anchor[T]) closeWait() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for !a.retired.Load() {
		a.slot.WaitUnique()
		switch err := a.slot.Retire(); {
		case err == nil:
			a.retired.Store(true)
			a.log.Debugf("%s retired", a.kind)
		case errors.Is(err, portal.ErrStillInUse):
			// a weak portal was upgraded after the wait returned.
		default:
			a.log.Warningf("%s not retired: %v", a.kind, err)
			return err
		}
	}
	return nil
}

// Anchor captures a pointer for read-only access by any number of
// goroutines at once.
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

// Close retires the anchor. It fails with portal.ErrStillInUse if any
// portal has not been released, in which case it may be called again later.
// Closing a retired anchor returns nil.
func (a *Anchor[T]) Close() error { return a.a.close() }

// CloseWait waits until every portal is released and retires the anchor.
func (a *Anchor[T]) CloseWait() error { return a.a.closeWait() }

// RwAnchor captures a pointer for shared reads or exclusive writes.
type RwAnchor[T any] struct {
	a anchor[T]
}

// NewRwAnchor returns an RwAnchor over the value p points to. The value must
// only be accessed through portals until the anchor is retired.
func NewRwAnchor[T any](p *T, opts ...portal.Option) *RwAnchor[T] {
	an := new(RwAnchor[T])
	an.a.init("RwAnchor", p, new(slot.RWLock), true, opts)
	return an
}

// Portal returns a new strong portal. It panics if the anchor is retired.
func (a *RwAnchor[T]) Portal() *RwPortal[T] { return &RwPortal[T]{h: a.a.mint()} }

// WeakPortal returns a new weak portal.
func (a *RwAnchor[T]) WeakPortal() *WeakRwPortal[T] { return a.Portal().downgradeAndRelease() }

// Close retires the anchor. If any portal has not been released it waits for
// the active guards, poisons the anchor so that the remaining portals observe
// the violation, and fails with portal.ErrStillInUse. It fails with
// portal.ErrPoisoned if the anchor is poisoned. Closing a retired anchor
// returns nil.
func (a *RwAnchor[T]) Close() error { return a.a.close() }

// CloseWait waits until every portal is released and retires the anchor. It
// fails with portal.ErrPoisoned if the anchor is poisoned.
func (a *RwAnchor[T]) CloseWait() error { return a.a.closeWait() }

// WAnchor captures a pointer for exclusive access only. Unlike RwAnchor, the
// value never needs to tolerate concurrent reads.
type WAnchor[T any] struct {
	a anchor[T]
}

// NewWAnchor returns a WAnchor over the value p points to. The value must
// only be accessed through portals until the anchor is retired.
func NewWAnchor[T any](p *T, opts ...portal.Option) *WAnchor[T] {
	an := new(WAnchor[T])
	an.a.init("WAnchor", p, new(slot.Mutex), true, opts)
	return an
}

// Portal returns a new strong portal. It panics if the anchor is retired.
func (a *WAnchor[T]) Portal() *WPortal[T] { return &WPortal[T]{h: a.a.mint()} }

// WeakPortal returns a new weak portal.
func (a *WAnchor[T]) WeakPortal() *WeakWPortal[T] { return a.Portal().downgradeAndRelease() }

// Close behaves like RwAnchor.Close.
func (a *WAnchor[T]) Close() error { return a.a.close() }

// CloseWait behaves like RwAnchor.CloseWait.
func (a *WAnchor[T]) CloseWait() error { return a.a.closeWait() }
