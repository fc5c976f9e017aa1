package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDebouncer_SingleCall(t *testing.T) {
	var called int32
	d := New(30 * time.Millisecond)

	d.Debounce(func() { atomic.AddInt32(&called, 1) })

	time.Sleep(80 * time.Millisecond)
	if atomic.LoadInt32(&called) != 1 {
		t.Errorf("expected 1 call, got %d", called)
	}
}

func TestDebouncer_RapidCallsCollapse(t *testing.T) {
	var called, last int32
	d := New(50 * time.Millisecond)

	for i := 1; i <= 10; i++ {
		v := int32(i)
		d.Debounce(func() {
			atomic.StoreInt32(&last, v)
			atomic.AddInt32(&called, 1)
		})
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(120 * time.Millisecond)
	if n := atomic.LoadInt32(&called); n != 1 {
		t.Errorf("expected 1 call for rapid succession, got %d", n)
	}
	if v := atomic.LoadInt32(&last); v != 10 {
		t.Errorf("expected last value 10, got %d", v)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	var called int32
	d := New(30 * time.Millisecond)

	d.Debounce(func() { atomic.AddInt32(&called, 1) })
	d.Cancel()

	time.Sleep(80 * time.Millisecond)
	if atomic.LoadInt32(&called) != 0 {
		t.Errorf("cancelled call fired")
	}
	if d.Pending() {
		t.Error("nothing should be pending after Cancel")
	}
}

func TestDebouncer_Flush(t *testing.T) {
	var called int32
	d := New(time.Hour)

	d.Debounce(func() { atomic.AddInt32(&called, 1) })
	if !d.Flush() {
		t.Fatal("Flush should report a pending call")
	}
	if atomic.LoadInt32(&called) != 1 {
		t.Errorf("Flush did not run the call")
	}
	if d.Flush() {
		t.Error("second Flush should find nothing pending")
	}
}

func TestWrap_KeepsLatestValue(t *testing.T) {
	got := make(chan string, 4)
	f := Wrap(30*time.Millisecond, func(s string) { got <- s })

	for _, s := range []string{"c", "cl", "cli", "clinic"} {
		f.Call(s)
	}

	select {
	case v := <-got:
		if v != "clinic" {
			t.Errorf("debounced value = %q, want clinic", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for debounced call")
	}
	select {
	case v := <-got:
		t.Errorf("unexpected extra call with %q", v)
	case <-time.After(60 * time.Millisecond):
	}
}
