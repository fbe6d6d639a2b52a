package task

import (
	"testing"
	"time"
)

func TestSpawnResolvesPromiseWithBodyReturnValue(t *testing.T) {
	s := NewScheduler()
	main := s.Start()
	defer s.Stop()

	p := s.Spawn(main, func(args []any) any { return args[0].(int) * 2 }, []any{21})
	if v := s.Await(p); v != 42 {
		t.Fatalf("want 42, got %v", v)
	}
}

func TestSpawnedTaskIsChildOfParent(t *testing.T) {
	s := NewScheduler()
	main := s.Start()
	defer s.Stop()

	done := make(chan struct{})
	p := s.Spawn(main, func(args []any) any {
		close(done)
		return nil
	}, nil)
	<-done
	s.Await(p)

	if len(main.Children) != 1 {
		t.Fatalf("expected main to have 1 child, got %d", len(main.Children))
	}
}

func TestSetTimerOutsideTaskFails(t *testing.T) {
	s := NewScheduler()
	// Deliberately not calling Start/registering the calling goroutine as
	// a task.
	_, err := s.SetTimer(time.Now(), func() {}, false, 0)
	if err == nil {
		t.Fatalf("expected NoTaskContextError")
	}
	if _, ok := err.(NoTaskContextError); !ok {
		t.Fatalf("expected NoTaskContextError, got %T", err)
	}
}

func TestJoinAllWaitsForAllSpawnedTasks(t *testing.T) {
	s := NewScheduler()
	main := s.Start()
	defer s.Stop()

	const n = 5
	counter := make(chan int, n)
	for i := 0; i < n; i++ {
		i := i
		s.Spawn(main, func(args []any) any {
			counter <- i
			return nil
		}, nil)
	}
	if err := s.JoinAll(); err != nil {
		t.Fatalf("join-all: %v", err)
	}
	if len(counter) != n {
		t.Fatalf("expected %d completions, got %d", n, len(counter))
	}
}

func TestTaskWithTimersWaitsBeforeCompleting(t *testing.T) {
	s := NewScheduler()
	main := s.Start()
	defer s.Stop()

	fired := make(chan struct{}, 1)
	p := s.Spawn(main, func(args []any) any {
		t := s.CurrentTask()
		t.Timers.SetTimer(time.Now().Add(10*time.Millisecond), func() {
			fired <- struct{}{}
		}, false, 0)
		return "body-done"
	}, nil)

	if v := s.Await(p); v != "body-done" {
		t.Fatalf("want body-done, got %v", v)
	}
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatalf("expected the timer callback to fire before the task completed")
	}
}
