package debounce

import (
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mutex sync.Mutex
	calls []string
	done  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{}, 10)}
}

func (r *recorder) record(s string) {
	r.mutex.Lock()
	r.calls = append(r.calls, s)
	r.mutex.Unlock()
	r.done <- struct{}{}
}

func (r *recorder) snapshot() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]string(nil), r.calls...)
}

func TestTriggerCollapsesBurst(t *testing.T) {
	rec := newRecorder()
	d := New(20*time.Millisecond, rec.record)

	d.Trigger("m")
	d.Trigger("mu")
	d.Trigger("mug")

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("Debounced call never ran")
	}

	time.Sleep(50 * time.Millisecond)
	calls := rec.snapshot()
	if len(calls) != 1 || calls[0] != "mug" {
		t.Errorf("Expected a single call with the last value, got %v", calls)
	}
}

func TestNothingRunsBeforeQuietPeriod(t *testing.T) {
	rec := newRecorder()
	d := New(time.Hour, rec.record)

	d.Trigger("x")

	if !d.Pending() {
		t.Error("Expected call to be pending")
	}
	if len(rec.snapshot()) != 0 {
		t.Error("Expected no call before the wait elapsed")
	}
	d.Stop()
}

func TestStopDropsPendingCall(t *testing.T) {
	rec := newRecorder()
	d := New(10*time.Millisecond, rec.record)

	d.Trigger("x")
	d.Stop()

	time.Sleep(50 * time.Millisecond)
	if len(rec.snapshot()) != 0 {
		t.Errorf("Expected no calls after Stop, got %v", rec.snapshot())
	}
	if d.Pending() {
		t.Error("Expected nothing pending after Stop")
	}
}

func TestFlushRunsImmediately(t *testing.T) {
	rec := newRecorder()
	d := New(time.Hour, rec.record)

	d.Trigger("tea")
	if !d.Flush() {
		t.Fatal("Expected Flush to run the pending call")
	}

	calls := rec.snapshot()
	if len(calls) != 1 || calls[0] != "tea" {
		t.Errorf("Expected flushed value, got %v", calls)
	}
	if d.Flush() {
		t.Error("Expected second Flush to be a no-op")
	}
}

func TestTriggerAfterRunStartsNewCycle(t *testing.T) {
	rec := newRecorder()
	d := New(10*time.Millisecond, rec.record)

	d.Trigger("a")
	<-rec.done
	d.Trigger("b")

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("Second cycle never ran")
	}

	calls := rec.snapshot()
	if len(calls) != 2 || calls[1] != "b" {
		t.Errorf("Expected two cycles, got %v", calls)
	}
}
