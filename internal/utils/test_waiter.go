package utils

import (
	"fmt"
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/kamros/sio/internal/sync"
)

const DefaultTestWaitTimeout = time.Second * 12

// waitWithTimeout blocks on wg, reporting via the returned bool
// whether it returned because timeout elapsed rather than because the
// group reached zero.
func waitWithTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		defer close(done)
		wg.Wait()
	}()

	select {
	case <-done:
		return false
	case <-time.After(timeout):
		return true
	}
}

// TestWaiter is a sync.WaitGroup with a WaitTimeout that fails the
// test instead of hanging forever when a callback never fires.
type TestWaiter struct {
	wg *sync.WaitGroup
}

func NewTestWaiter(delta int) *TestWaiter {
	wg := new(sync.WaitGroup)
	wg.Add(delta)
	return &TestWaiter{wg: wg}
}

func (w *TestWaiter) Add(delta int) { w.wg.Add(delta) }

func (w *TestWaiter) Done() { w.wg.Done() }

func (w *TestWaiter) Wait() { w.wg.Wait() }

func (w *TestWaiter) WaitTimeout(t *testing.T, timeout time.Duration) (timedOut bool) {
	timedOut = waitWithTimeout(w.wg, timeout)
	if timedOut {
		t.Error("timeout exceeded")
	}
	return timedOut
}

// TestWaiterString is a TestWaiter variant for tests that wait on a
// named set of events rather than a plain count, so a double-fire or
// a missing event names itself in the failure instead of just being
// an off-by-one in the WaitGroup delta.
type TestWaiterString struct {
	wg      *sync.WaitGroup
	pending mapset.Set[string]
}

func NewTestWaiterString() *TestWaiterString {
	return &TestWaiterString{
		wg:      new(sync.WaitGroup),
		pending: mapset.NewSet[string](),
	}
}

func (w *TestWaiterString) Add(s string) {
	w.pending.Add(s)
	w.wg.Add(1)
}

func (w *TestWaiterString) Done(s string) {
	if !w.pending.Contains(s) {
		panic(fmt.Errorf("TestWaiterString: Done was already called on %q", s))
	}
	w.pending.Remove(s)
	w.wg.Done()
}

func (w *TestWaiterString) Wait() { w.wg.Wait() }

func (w *TestWaiterString) WaitTimeout(t *testing.T, timeout time.Duration) (timedOut bool) {
	timedOut = waitWithTimeout(w.wg, timeout)
	if timedOut {
		t.Error("timeout exceeded")
	}
	return timedOut
}
