// Package scheduler provides the periodic task dispatcher the
// animation engine and the hardware refresh loops hang off of. Each
// registered task runs on its own fixed-period ticker in a dedicated
// goroutine, so invocations of one task never overlap: the next tick
// fires only after the previous callback has returned.
package scheduler

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type task struct {
	period time.Duration
	fn     func()
}

// Scheduler dispatches a fixed set of periodic tasks. Tasks are
// registered before Start and run until Stop.
type Scheduler struct {
	mu       sync.Mutex
	tasks    map[string]task
	started  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{
		tasks:    make(map[string]task),
		stopChan: make(chan struct{}),
	}
}

// AddTask registers fn to be invoked every period. Registration is
// only allowed before Start, and task names must be unique.
func (s *Scheduler) AddTask(name string, period time.Duration, fn func()) error {
	if period <= 0 {
		return fmt.Errorf("task %s: period must be positive, got %s", name, period)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("task %s: scheduler already started", name)
	}
	if _, exists := s.tasks[name]; exists {
		return fmt.Errorf("task %s: already registered", name)
	}
	s.tasks[name] = task{period: period, fn: fn}
	return nil
}

// Start launches one ticker goroutine per registered task.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	names := maps.Keys(s.tasks)
	slices.Sort(names)
	slog.Info("Starting periodic tasks", "tasks", names)
	for name, tsk := range s.tasks {
		s.wg.Add(1)
		go s.run(name, tsk)
	}
}

func (s *Scheduler) run(name string, tsk task) {
	defer s.wg.Done()
	ticker := time.NewTicker(tsk.period)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopChan:
			slog.Debug("Ending periodic task", "name", name)
			return
		case <-ticker.C:
			tsk.fn()
		}
	}
}

// Stop ends all task goroutines and waits for them to finish. The
// scheduler cannot be restarted afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	close(s.stopChan)
	s.wg.Wait()
}
