package gocapture

import (
	"sync"

	"go.viam.com/utils"
)

// A sequence executes posted tasks one at a time on a single goroutine,
// in FIFO order. All capture device state is confined to its sequence,
// mirroring how the external services deliver callbacks: they may complete
// from any goroutine, or synchronously from within a task already running
// on the sequence, so the queue must never block a poster.
type sequence struct {
	mu      sync.Mutex
	cond    *sync.Cond
	tasks   []func()
	closed  bool
	workers sync.WaitGroup
}

func newSequence() *sequence {
	s := &sequence{}
	s.cond = sync.NewCond(&s.mu)
	s.workers.Add(1)
	utils.ManagedGo(s.run, s.workers.Done)
	return s
}

func (s *sequence) run() {
	for {
		s.mu.Lock()
		for len(s.tasks) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.tasks) == 0 {
			s.mu.Unlock()
			return
		}
		task := s.tasks[0]
		s.tasks = s.tasks[1:]
		s.mu.Unlock()
		task()
	}
}

// post schedules task for execution. It reports false once the sequence is
// closed, in which case the task will never run.
func (s *sequence) post(task func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.tasks = append(s.tasks, task)
	s.cond.Signal()
	return true
}

// postWait schedules task and blocks until it has run. Must not be called
// from the sequence itself.
func (s *sequence) postWait(task func()) bool {
	done := make(chan struct{})
	if !s.post(func() {
		defer close(done)
		task()
	}) {
		return false
	}
	<-done
	return true
}

// close drains any queued tasks and stops the sequence. Idempotent.
func (s *sequence) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.workers.Wait()
		return
	}
	s.closed = true
	s.cond.Signal()
	s.mu.Unlock()
	s.workers.Wait()
}
