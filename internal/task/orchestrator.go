// Package task schedules the background workers of a run and waits for them
// with an optional timeout.
package task

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/szmania/mega-manager/internal/logger"
	"github.com/szmania/mega-manager/internal/model"
)

// DefaultPollInterval is how often the orchestrator sweeps its registry for
// finished workers.
const DefaultPollInterval = 500 * time.Millisecond

// Worker is one registered unit of background work. Its goroutine flips the
// done flag as its last action; the orchestrator's poll loop reaps it.
type Worker struct {
	Name     string
	Category model.Category

	done atomic.Bool
}

// Orchestrator runs named workers as goroutines and tracks them in a
// registry. Once no detail-gathering worker remains it fires the export
// callback, exactly once per run.
type Orchestrator struct {
	pollInterval time.Duration
	export       func()

	mu      sync.Mutex
	workers map[string]*Worker

	exportOnce sync.Once
}

// NewOrchestrator returns an Orchestrator polling at pollInterval. export may
// be nil when the run has nothing to export.
func NewOrchestrator(pollInterval time.Duration, export func()) *Orchestrator {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Orchestrator{
		pollInterval: pollInterval,
		export:       export,
		workers:      make(map[string]*Worker),
	}
}

// Spawn registers a worker under name and starts fn on its own goroutine.
func (o *Orchestrator) Spawn(name string, category model.Category, fn func()) {
	w := &Worker{Name: name, Category: category}

	o.mu.Lock()
	o.workers[name] = w
	o.mu.Unlock()

	logger.InfoTagged([]string{string(category)}, "Worker started: %s", name)
	go func() {
		fn()
		w.done.Store(true)
	}()
}

// Wait polls the registry until every worker has finished, returning true.
// With a positive timeout it stops waiting once the deadline passes and
// returns false; the still-running workers are not cancelled, they are
// abandoned to teardown.
func (o *Orchestrator) Wait(timeout time.Duration) bool {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		if o.reap() == 0 {
			return true
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			logger.Warning("Gave up waiting after %s, still running: %v", timeout, o.Remaining())
			return false
		}
		<-ticker.C
	}
}

// Remaining returns the names of workers still registered.
func (o *Orchestrator) Remaining() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	names := make([]string, 0, len(o.workers))
	for name := range o.workers {
		names = append(names, name)
	}
	return names
}

// reap removes finished workers and returns how many remain. The export fires
// on the first sweep that finds no detail-gathering worker left.
func (o *Orchestrator) reap() int {
	o.mu.Lock()
	gathering := false
	for name, w := range o.workers {
		if w.done.Load() {
			delete(o.workers, name)
			logger.InfoTagged([]string{string(w.Category)}, "Worker finished: %s", name)
			continue
		}
		if w.Category == model.CategoryGatherDetails {
			gathering = true
		}
	}
	remaining := len(o.workers)
	o.mu.Unlock()

	if !gathering && o.export != nil {
		o.exportOnce.Do(o.export)
	}
	return remaining
}
