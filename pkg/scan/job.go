package scan

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Job is a running scan that any front end can observe and cancel.
type Job struct {
	id       string
	results  <-chan Result
	cancel   context.CancelFunc
	canceled atomic.Bool
	done     chan struct{}
	once     sync.Once
}

// Start launches a scan in the background and returns its handle.
func Start(ctx context.Context, s *Scanner, ip string, ports []uint16, t Tuning) *Job {
	jobCtx, cancel := context.WithCancel(ctx)
	job := &Job{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	upstream := s.Scan(jobCtx, ip, ports, t)
	relay := make(chan Result, len(ports))
	job.results = relay

	go func() {
		defer close(job.done)
		defer cancel()
		defer close(relay)
		for r := range upstream {
			relay <- r
		}
		// Parent cancellation counts as a stop request too.
		if ctx.Err() != nil {
			job.canceled.Store(true)
		}
	}()

	return job
}

// ID returns the job identifier.
func (j *Job) ID() string { return j.id }

// Results returns the completion-ordered result stream.
func (j *Job) Results() <-chan Result { return j.results }

// Cancel requests a cooperative stop: no further ports are submitted.
// Probes already in flight still complete. Safe to call more than once.
func (j *Job) Cancel() {
	select {
	case <-j.done:
		return
	default:
	}
	j.once.Do(func() {
		j.canceled.Store(true)
		j.cancel()
	})
}

// Canceled reports whether a stop was requested before the scan finished.
func (j *Job) Canceled() bool { return j.canceled.Load() }

// Done is closed after the result stream has been closed.
func (j *Job) Done() <-chan struct{} { return j.done }
