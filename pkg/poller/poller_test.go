package poller

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPollerScheduleStatus(t *testing.T) {
	p := New(func() error { return nil }, nil)

	if err := p.Schedule("@every 3s"); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	st := p.Status()
	if st.Running {
		t.Fatalf("poller should not be running")
	}
	if st.NextRun.IsZero() {
		t.Fatalf("next run should be set after scheduling")
	}
}

func TestPollerInvalidSchedule(t *testing.T) {
	p := New(func() error { return nil }, nil)
	if err := p.Schedule("every three seconds"); err == nil {
		t.Fatalf("expected an error for an invalid expression")
	}
}

func TestPollerRuns(t *testing.T) {
	taskCh := make(chan struct{}, 4)
	p := New(func() error {
		taskCh <- struct{}{}
		return errors.New("not connected")
	}, func() bool { return true })
	if err := p.Schedule("@every 1s"); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	p.mu.Lock()
	p.nextRun = time.Now().Add(50 * time.Millisecond)
	p.mu.Unlock()

	p.Start()
	defer p.Stop()

	select {
	case <-taskCh:
	case <-time.After(time.Second):
		t.Fatalf("task did not execute in time")
	}
}

func TestPollerGateSkips(t *testing.T) {
	var runs int32
	var gateCalls int32
	p := New(func() error {
		atomic.AddInt32(&runs, 1)
		return nil
	}, func() bool {
		atomic.AddInt32(&gateCalls, 1)
		return false
	})
	if err := p.Schedule("@every 1s"); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	p.mu.Lock()
	p.nextRun = time.Now().Add(20 * time.Millisecond)
	p.mu.Unlock()

	p.Start()
	defer p.Stop()

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&gateCalls) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if atomic.LoadInt32(&gateCalls) == 0 {
		t.Fatalf("gate was never consulted")
	}
	if n := atomic.LoadInt32(&runs); n != 0 {
		t.Fatalf("task ran %d times while gated", n)
	}
}

func TestPollerStop(t *testing.T) {
	p := New(func() error { return nil }, nil)
	if err := p.Schedule("@every 1m"); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}
	p.Start()
	p.Stop()
	p.Stop()

	deadline := time.Now().Add(time.Second)
	for p.Status().Running && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if p.Status().Running {
		t.Fatalf("poller still running after Stop")
	}
}
