package task

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// NoTaskContextError is returned by SetTimer when called outside any
// running task.
type NoTaskContextError struct{}

func (NoTaskContextError) Error() string { return "task: no task context for set-timer" }

// Body is a task's entry point. Task bodies are always addressable
// functions referenced by address; a spawn site never receives inline
// code to run on the spawning thread.
type Body func(args []any) any

// Scheduler multiplexes lightweight tasks onto a fixed pool of workers:
// a shared FIFO job queue, one goroutine per worker, and a per-task
// timer heap drained before the owning task may complete.
type Scheduler struct {
	mu       sync.Mutex
	tasks    map[int]*Task
	nextID   int32
	jobs     chan job
	started  int32
	stopped  int32
	wg       sync.WaitGroup
	quit     chan struct{}
	mainTask *Task
}

type job struct {
	t    *Task
	body Body
	args []any
}

// currentTask maps goroutine id -> *Task. Go deliberately exposes no
// thread-local storage, and spawn/await/set-timer are called from deep
// inside JIT-emitted code that has no context.Context parameter to
// thread "which task am I" through, so the worker loop records its task
// here, keyed by goroutineID's runtime.Stack-derived id, for the
// duration of that task's body call.
var currentTask sync.Map // goroutine id (uint64) -> *Task

// goroutineID parses the calling goroutine's id out of its own stack
// trace header ("goroutine 123 [running]:"). This is a well-worn, if
// inelegant, Go idiom for goroutine-local storage in the absence of a
// language-level primitive; the id is stable for the life of the
// goroutine, which is all this package needs.
func goroutineID() uint64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]
	buf = bytes.TrimPrefix(buf, []byte("goroutine "))
	if i := bytes.IndexByte(buf, ' '); i >= 0 {
		buf = buf[:i]
	}
	id, _ := strconv.ParseUint(string(buf), 10, 64)
	return id
}

// NewScheduler creates a Scheduler sized to hardware parallelism.
func NewScheduler() *Scheduler {
	s := &Scheduler{
		tasks: map[int]*Task{},
		jobs:  make(chan job, 256),
		quit:  make(chan struct{}),
	}
	return s
}

// Start launches runtime.NumCPU() workers and registers a synthetic main
// task representing the program's entry thread. The main task is the one
// JoinAll exempts.
func (s *Scheduler) Start() *Task {
	if !atomic.CompareAndSwapInt32(&s.started, 0, 1) {
		return s.mainTask
	}
	n := runtime.NumCPU()
	for i := 0; i < n; i++ {
		s.wg.Add(1)
		go s.workerLoop()
	}
	s.mainTask = s.registerTask(nil)
	s.mainTask.setState(StateRunning)
	currentTask.Store(goroutineID(), s.mainTask)
	active.Store(s)
	return s.mainTask
}

func (s *Scheduler) registerTask(parent *Task) *Task {
	id := int(atomic.AddInt32(&s.nextID, 1)) - 1
	t := newTask(id, parent)
	s.mu.Lock()
	s.tasks[id] = t
	s.mu.Unlock()
	if parent != nil {
		parent.addChild(t)
	}
	return t
}

// Spawn creates a new task linked as a child of parent (the currently
// running task, if any), enqueues its body for a worker to pick up, and
// returns a promise resolved with the body's return value.
func (s *Scheduler) Spawn(parent *Task, body Body, args []any) *Promise {
	t := s.registerTask(parent)
	s.jobs <- job{t: t, body: body, args: args}
	return t.Promise
}

func (s *Scheduler) workerLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.quit:
			return
		case j := <-s.jobs:
			s.run(j)
		}
	}
}

func (s *Scheduler) run(j job) {
	t := j.t
	t.setState(StateRunning)
	gid := goroutineID()
	currentTask.Store(gid, t)
	defer currentTask.Delete(gid)

	result := j.body(j.args)

	if !t.Timers.Empty() {
		t.setState(StateWaitingForTimers)
		s.drainTimers(t)
	}
	t.setState(StateCompleted)
	t.Promise.Resolve(result)

	s.awaitChildrenThenClean(t)
}

// drainTimers runs t's timer callbacks to completion in deadline order
// before the task may transition to completed, checking the cooperative
// exit flag between waits.
func (s *Scheduler) drainTimers(t *Task) {
	for !t.Timers.Empty() {
		if t.exitWasRequested() {
			return
		}
		now := time.Now()
		if entry, ok := t.Timers.PopReady(now); ok {
			entry.callback()
			if entry.isInterval && !entry.cancelled {
				t.Timers.Reinsert(entry)
			}
			continue
		}
		if deadline, ok := t.Timers.NextDeadline(); ok {
			wait := time.Until(deadline)
			if wait > 0 {
				time.Sleep(minDuration(wait, 10*time.Millisecond))
			}
			continue
		}
		return
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

// awaitChildrenThenClean blocks until every child of t has reached
// completed, then transitions t into cleaning-up. A task never cleans up
// ahead of its children.
func (s *Scheduler) awaitChildrenThenClean(t *Task) {
	for !t.allChildrenCompleted() {
		time.Sleep(time.Millisecond)
	}
	t.setState(StateCleaningUp)
}

// CurrentTask returns the task running on the calling goroutine, or nil
// if called outside any task (e.g. from the scheduler's own
// bookkeeping goroutines).
func (s *Scheduler) CurrentTask() *Task {
	if v, ok := currentTask.Load(goroutineID()); ok {
		return v.(*Task)
	}
	return nil
}

// Await blocks the calling task until promise resolves. Only the calling
// task stops; every other task keeps making progress, since each runs on
// its own goroutine.
func (s *Scheduler) Await(p *Promise) any {
	return p.Await()
}

// SetTimer inserts a timer into the calling task's own heap, failing
// with NoTaskContextError if called outside any task.
func (s *Scheduler) SetTimer(deadline time.Time, callback func(), isInterval bool, period time.Duration) (int, error) {
	t := s.CurrentTask()
	if t == nil {
		return 0, NoTaskContextError{}
	}
	return t.Timers.SetTimer(deadline, callback, isInterval, period), nil
}

// RunTimers drains the calling task's timer heap in deadline order,
// returning once it is empty or only cancelled timers remain. The main
// task is not owned by a worker loop, so the host calls this after the
// entry point returns to fire timers the program scheduled on it.
func (s *Scheduler) RunTimers() {
	t := s.CurrentTask()
	if t == nil {
		return
	}
	s.drainTimers(t)
}

// CancelTimer marks a timer cancelled in the calling task's own set.
func (s *Scheduler) CancelTimer(id int) error {
	t := s.CurrentTask()
	if t == nil {
		return NoTaskContextError{}
	}
	t.Timers.CancelTimer(id)
	return nil
}

// JoinAll blocks until every task except the main task is completed,
// waiting on one errgroup goroutine per outstanding task.
func (s *Scheduler) JoinAll() error {
	var g errgroup.Group
	s.mu.Lock()
	pending := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t == s.mainTask {
			continue
		}
		pending = append(pending, t)
	}
	s.mu.Unlock()

	for _, t := range pending {
		t := t
		g.Go(func() error {
			for {
				switch t.State() {
				case StateCompleted, StateCleaningUp:
					return nil
				}
				time.Sleep(time.Millisecond)
			}
		})
	}
	return g.Wait()
}

// Stop signals every worker to exit after finishing its current job.
func (s *Scheduler) Stop() {
	if atomic.CompareAndSwapInt32(&s.stopped, 0, 1) {
		close(s.quit)
		s.wg.Wait()
		active.CompareAndSwap(s, nil)
	}
}
