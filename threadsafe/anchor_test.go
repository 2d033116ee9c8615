package threadsafe

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/zeebo/assert"

	"github.com/zeebo/portal"
)

type recordLogger struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordLogger) add(level, msg string, v ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, level+": "+fmt.Sprintf(msg, v...))
}

func (r *recordLogger) Debugf(msg string, v ...interface{})   { r.add("debug", msg, v...) }
func (r *recordLogger) Warningf(msg string, v ...interface{}) { r.add("warning", msg, v...) }
func (r *recordLogger) Errorf(msg string, v ...interface{})   { r.add("error", msg, v...) }

func (r *recordLogger) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func quiet() portal.Option { return portal.WithLogger(nil) }

func TestAnchorScoped(t *testing.T) {
	var out []string

	x := "Scoped"
	anchor := NewAnchor(&x, quiet())
	p := anchor.Portal()
	closure := func() {
		assert.NoError(t, p.View(func(v *string) { out = append(out, *v) }))
	}

	closure()
	closure = nil
	p.Release()
	assert.NoError(t, anchor.Close())

	if diff := cmp.Diff([]string{"Scoped"}, out); diff != "" {
		t.Fatal(diff)
	}
}

func TestAnchorLeakedPortal(t *testing.T) {
	x := "Scoped"
	anchor := NewAnchor(&x, quiet())
	p := anchor.Portal()

	assert.Equal(t, anchor.Close(), portal.ErrStillInUse)
	assert.Equal(t, anchor.Close(), portal.ErrStillInUse)

	// read-only anchors are not poisoned by a failed retirement.
	g, err := p.Read()
	assert.NoError(t, err)
	assert.Equal(t, *g.Get(), "Scoped")
	g.Release()

	p.Release()
	assert.NoError(t, anchor.Close())
	assert.NoError(t, anchor.Close())
}

func TestAnchorIdentity(t *testing.T) {
	x, y, z := 1, 2, 3

	a := NewAnchor(&x, quiet())
	p := a.Portal()
	rg, err := p.Read()
	assert.NoError(t, err)
	assert.That(t, rg.Get() == &x)
	rg.Release()
	p.Release()
	assert.NoError(t, a.Close())

	rw := NewRwAnchor(&y, quiet())
	rp := rw.Portal()
	rg, err = rp.Read()
	assert.NoError(t, err)
	assert.That(t, rg.Get() == &y)
	rg.Release()
	rp.Release()
	assert.NoError(t, rw.Close())

	w := NewWAnchor(&z, quiet())
	wp := w.Portal()
	wg, err := wp.Lock()
	assert.NoError(t, err)
	assert.That(t, wg.Get() == &z)
	wg.Release()
	wp.Release()
	assert.NoError(t, w.Close())
}

func TestRwAnchorReplacement(t *testing.T) {
	x := "Scoped"
	anchor := NewRwAnchor(&x, quiet())
	p := anchor.Portal()

	g, err := p.Write()
	assert.NoError(t, err)
	*g.Get() = "Replacement"
	g.Release()

	p.Release()
	assert.NoError(t, anchor.Close())
	assert.Equal(t, x, "Replacement")
}

func TestRwAnchorStillInUsePoisons(t *testing.T) {
	x := "Scoped"
	anchor := NewRwAnchor(&x, quiet())
	p := anchor.Portal()

	assert.Equal(t, anchor.Close(), portal.ErrStillInUse)

	_, err := p.Read()
	assert.Equal(t, err, portal.ErrPoisoned)
	_, err = p.Write()
	assert.Equal(t, err, portal.ErrPoisoned)

	p.Release()
	assert.Equal(t, anchor.Close(), portal.ErrPoisoned)
	assert.Equal(t, anchor.CloseWait(), portal.ErrPoisoned)
}

func TestRwAnchorUpdatePanicPoisons(t *testing.T) {
	x := "Scoped"
	anchor := NewRwAnchor(&x, quiet())
	p := anchor.Portal()

	func() {
		defer func() { assert.Equal(t, recover(), "boom") }()
		_ = p.Update(func(v *string) { panic("boom") })
	}()

	_, err := p.Read()
	assert.Equal(t, err, portal.ErrPoisoned)
	c := p.Clone()
	assert.Equal(t, c.Update(func(*string) {}), portal.ErrPoisoned)
	c.Release()

	// with no other portal left, retirement still fails.
	p.Release()
	assert.Equal(t, anchor.Close(), portal.ErrPoisoned)
}

func TestWAnchorAbortPoisons(t *testing.T) {
	x := []int{1}
	anchor := NewWAnchor(&x, quiet())
	p := anchor.Portal()

	g, err := p.Lock()
	assert.NoError(t, err)
	*g.Get() = append(*g.Get(), 2)
	g.Abort()

	_, err = p.Write()
	assert.Equal(t, err, portal.ErrPoisoned)
	p.Release()
	assert.Equal(t, anchor.Close(), portal.ErrPoisoned)
	assert.Equal(t, len(x), 2)
}

func TestWAnchorStillInUse(t *testing.T) {
	x := 0
	anchor := NewWAnchor(&x, quiet())
	p := anchor.Portal()
	assert.Equal(t, anchor.Close(), portal.ErrStillInUse)
	assert.Equal(t, p.Update(func(v *int) { *v++ }), portal.ErrPoisoned)
	assert.Equal(t, x, 0)
}

// closeUnderGuard holds a write guard from lock while retire runs on another
// goroutine, and checks that retire only poisons once the guard is released.
func closeUnderGuard(t *testing.T, retire func() error, lock func() (*WriteGuard[int], error), update func() error) {
	t.Helper()

	g, err := lock()
	assert.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- retire() }()

	select {
	case err := <-done:
		t.Fatalf("retire returned %v while a guard was held", err)
	case <-time.After(50 * time.Millisecond):
	}

	// the guard keeps its access while retirement waits.
	*g.Get() = 2
	g.Release()

	assert.Equal(t, <-done, portal.ErrStillInUse)
	assert.Equal(t, update(), portal.ErrPoisoned)
}

func TestAnchorCloseWaitsForGuards(t *testing.T) {
	t.Run("RwAnchor", func(t *testing.T) {
		x := 1
		anchor := NewRwAnchor(&x, quiet())
		p := anchor.Portal()
		closeUnderGuard(t, anchor.Close, p.Write, func() error {
			return p.Update(func(v *int) { *v = 3 })
		})

		_, err := p.Read()
		assert.Equal(t, err, portal.ErrPoisoned)
		p.Release()
		assert.Equal(t, anchor.Close(), portal.ErrPoisoned)
		assert.Equal(t, x, 2)
	})

	t.Run("WAnchor", func(t *testing.T) {
		x := 1
		anchor := NewWAnchor(&x, quiet())
		p := anchor.Portal()
		closeUnderGuard(t, anchor.Close, p.Lock, func() error {
			return p.Update(func(v *int) { *v = 3 })
		})

		p.Release()
		assert.Equal(t, anchor.Close(), portal.ErrPoisoned)
		assert.Equal(t, x, 2)
	})
}

func TestAnchorMintAfterClose(t *testing.T) {
	x := 1
	anchor := NewRwAnchor(&x, quiet())
	weak := anchor.WeakPortal()
	assert.NoError(t, anchor.Close())

	// a Portal call racing with Close may get this far.
	func() {
		defer func() { assert.That(t, recover() != nil) }()
		anchor.a.slot.Mint()
	}()

	assert.Equal(t, anchor.a.slot.Strong(), int32(0))
	_, ok := weak.TryUpgrade()
	assert.That(t, !ok)
}

func TestAnchorPortalRacesClose(t *testing.T) {
	const iters = 200

	for i := 0; i < iters; i++ {
		x := 1
		anchor := NewAnchor(&x, quiet())
		weak := anchor.WeakPortal()

		var wg sync.WaitGroup
		wg.Add(2)
		for j := 0; j < 2; j++ {
			go func() {
				defer wg.Done()
				defer func() { _ = recover() }()
				for {
					anchor.Portal().Release()
				}
			}()
		}

		assert.NoError(t, anchor.CloseWait())
		wg.Wait()

		_, ok := weak.TryUpgrade()
		assert.That(t, !ok)
		assert.Equal(t, anchor.a.slot.Strong(), int32(0))
	}
}

func TestAnchorPortalAfterClose(t *testing.T) {
	x := 1
	anchor := NewRwAnchor(&x, quiet())
	assert.NoError(t, anchor.Close())

	defer func() {
		r := recover()
		assert.That(t, r != nil)
		assert.That(t, strings.Contains(fmt.Sprint(r), "retired"))
	}()
	anchor.Portal()
}

func TestAnchorCloseWait(t *testing.T) {
	x := 0
	anchor := NewRwAnchor(&x, quiet())
	p := anchor.Portal()
	weak := anchor.WeakPortal()

	start := make(chan struct{})
	go func() {
		<-start
		assert.NoError(t, p.Update(func(v *int) { *v = 10 }))
		p.Release()
	}()

	close(start)
	assert.NoError(t, anchor.CloseWait())
	assert.Equal(t, x, 10)

	_, err := weak.Upgrade()
	assert.Equal(t, err, portal.ErrDropped)
}

func TestAnchorLogs(t *testing.T) {
	log := new(recordLogger)
	x := 1
	anchor := NewRwAnchor(&x, portal.WithLogger(log))
	p := anchor.Portal()
	assert.Equal(t, anchor.Close(), portal.ErrStillInUse)
	p.Release()

	y := 2
	other := NewAnchor(&y, portal.WithLogger(log))
	assert.NoError(t, other.Close())

	want := []string{
		"warning: RwAnchor not retired: anchor still in use (at least one portal exists) (2 strong references)",
		"debug: Anchor retired",
	}
	if diff := cmp.Diff(want, log.Lines()); diff != "" {
		t.Fatal(diff)
	}
}
