// package portal provides a way to hand out pointers to scope-bound values and
// detect at run time any use of them after the scope has ended.
//
// Consider the case where you want to give a callback registered in some
// long-lived container access to a value that only lives for the duration of
// a function call:
//
//	func Handle(reg *Registry) {
//		var state State
//		reg.OnEvent(func(ev Event) {
//			state.Apply(ev)
//		})
//		run()
//	}
//
// Nothing stops the registry from calling the callback after Handle returns,
// at which point state is no longer meaningful and any write to it is lost or,
// worse, observed by someone who reused it. Using the types in the threadsafe
// or local packages, the pointer is routed through an Anchor that owns the
// scope and Portals that only borrow it:
//
//	func Handle(reg *Registry) error {
//		var state State
//		anchor := threadsafe.NewRwAnchor(&state)
//		weak := anchor.WeakPortal()
//		reg.OnEvent(func(ev Event) {
//			p, ok := weak.TryUpgrade()
//			if !ok {
//				return
//			}
//			defer p.Release()
//			_ = p.Update(func(s *State) { s.Apply(ev) })
//		})
//		run()
//		return anchor.Close()
//	}
//
// Close retires the anchor. It fails with ErrStillInUse if any strong Portal
// still exists, and after it succeeds every WeakPortal fails to upgrade with
// ErrDropped. A write through a portal that panics poisons the anchor so that
// every later access and the retirement itself fail with ErrPoisoned.
//
// The threadsafe package blocks on locks and may be shared between
// goroutines. The local package uses a non-blocking borrow count instead and
// must stay on one goroutine; since that cannot be checked in general, a local
// anchor retired while borrowed applies its Policy, which by default blocks the
// retiring goroutine forever rather than let it continue.
package portal
