package task

import (
	"testing"
	"time"
)

func TestTimersFireInDeadlineOrder(t *testing.T) {
	ts := NewTimerSet()
	base := time.Now()
	var fired []string
	ts.SetTimer(base.Add(30*time.Millisecond), func() { fired = append(fired, "late") }, false, 0)
	ts.SetTimer(base.Add(10*time.Millisecond), func() { fired = append(fired, "early") }, false, 0)

	time.Sleep(40 * time.Millisecond)
	for {
		e, ok := ts.PopReady(time.Now())
		if !ok {
			break
		}
		e.callback()
	}
	if len(fired) != 2 || fired[0] != "early" || fired[1] != "late" {
		t.Fatalf("expected [early late], got %v", fired)
	}
}

func TestCancelledTimerIsSkippedWhenPopped(t *testing.T) {
	ts := NewTimerSet()
	id := ts.SetTimer(time.Now(), func() {}, false, 0)
	ts.CancelTimer(id)
	if !ts.Empty() {
		t.Fatalf("expected Empty() true once the only timer is cancelled")
	}
	_, ok := ts.PopReady(time.Now())
	if ok {
		t.Fatalf("expected no ready timer after cancellation")
	}
}

func TestTiesBrokenByInsertionOrder(t *testing.T) {
	ts := NewTimerSet()
	deadline := time.Now()
	var fired []int
	ts.SetTimer(deadline, func() { fired = append(fired, 1) }, false, 0)
	ts.SetTimer(deadline, func() { fired = append(fired, 2) }, false, 0)
	ts.SetTimer(deadline, func() { fired = append(fired, 3) }, false, 0)

	for {
		e, ok := ts.PopReady(time.Now())
		if !ok {
			break
		}
		e.callback()
	}
	if len(fired) != 3 || fired[0] != 1 || fired[1] != 2 || fired[2] != 3 {
		t.Fatalf("expected insertion-order tiebreak [1 2 3], got %v", fired)
	}
}

func TestNextDeadlineIgnoresCancelledEntries(t *testing.T) {
	ts := NewTimerSet()
	now := time.Now()
	soon := ts.SetTimer(now.Add(5*time.Millisecond), func() {}, false, 0)
	later := now.Add(50 * time.Millisecond)
	ts.SetTimer(later, func() {}, false, 0)
	ts.CancelTimer(soon)

	d, ok := ts.NextDeadline()
	if !ok {
		t.Fatalf("expected a pending deadline")
	}
	if !d.Equal(later) {
		t.Fatalf("expected the later, non-cancelled deadline, got %v want %v", d, later)
	}
}
