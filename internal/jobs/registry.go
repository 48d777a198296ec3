package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jsayram/life-wrapped-sub005/internal/domain"
)

// ErrJobAlreadyRunning is returned when tracking a duplicate job ID.
var ErrJobAlreadyRunning = errors.New("job already running")

// ErrNoSuchJob is returned when the job ID is unknown or already resolved.
var ErrNoSuchJob = errors.New("no such job")

// entry is one tracked job with its cancellation handle.
type entry struct {
	status domain.JobStatus
	cancel context.CancelFunc
}

// Registry tracks every in-flight job, validates its state transitions, and
// backs targeted and global cancellation.
type Registry struct {
	mu     sync.Mutex
	active map[string]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{active: make(map[string]*entry)}
}

// Track registers a running job with its cancel function.
func (r *Registry) Track(jobID string, cancel context.CancelFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[jobID]; ok {
		return ErrJobAlreadyRunning
	}
	r.active[jobID] = &entry{status: domain.JobStatusRunning, cancel: cancel}
	return nil
}

// Transition validates and applies a status change for one tracked job.
func (r *Registry) Transition(jobID string, status domain.JobStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.active[jobID]
	if !ok {
		return ErrNoSuchJob
	}
	if e.status == status {
		return nil
	}
	if !isValidTransition(e.status, status) {
		return fmt.Errorf("invalid transition: %s -> %s", e.status, status)
	}
	e.status = status
	return nil
}

// Status returns the tracked status for one job.
func (r *Registry) Status(jobID string) (domain.JobStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.active[jobID]
	if !ok {
		return domain.JobStatusIdle, false
	}
	return e.status, true
}

// Cancel signals one running job to stop. Cancellation is cooperative: it
// takes effect at the job's next suspension point.
func (r *Registry) Cancel(jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.active[jobID]
	if !ok || e.status != domain.JobStatusRunning {
		return ErrNoSuchJob
	}
	e.status = domain.JobStatusCancelled
	e.cancel()
	return nil
}

// CancelAll signals every running job and reports how many were cancelled.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cancelled := 0
	for _, e := range r.active {
		if e.status != domain.JobStatusRunning {
			continue
		}
		e.status = domain.JobStatusCancelled
		e.cancel()
		cancelled++
	}
	return cancelled
}

// Release forgets a resolved job.
func (r *Registry) Release(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, jobID)
}

// RunningCount reports how many tracked jobs are still running.
func (r *Registry) RunningCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	running := 0
	for _, e := range r.active {
		if e.status == domain.JobStatusRunning {
			running++
		}
	}
	return running
}

// isValidTransition enforces the allowed job state machine edges.
func isValidTransition(from, to domain.JobStatus) bool {
	switch from {
	case domain.JobStatusRunning:
		return to == domain.JobStatusCompleted || to == domain.JobStatusFailed || to == domain.JobStatusCancelled
	default:
		return false
	}
}
