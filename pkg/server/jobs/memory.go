package jobs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Mohammed-el-Amine/check-port/pkg/portspec"
	"github.com/Mohammed-el-Amine/check-port/pkg/scan"
	"github.com/Mohammed-el-Amine/check-port/pkg/scanexec"
	"github.com/Mohammed-el-Amine/check-port/pkg/services"
)

const (
	defaultWorkers   = 2
	defaultQueueSize = 16
	defaultRetention = 100
)

// MemoryManager is an in-process Manager. Jobs and their results live only
// as long as the process.
type MemoryManager struct {
	run       RunFunc
	workers   int
	queueSize int
	retention int
	now       func() time.Time
	logger    zerolog.Logger

	mu        sync.Mutex
	jobs      map[string]*job
	order     []string
	queue     chan *job
	started   bool
	stopped   bool
	cancelAll context.CancelFunc
	wg        sync.WaitGroup
}

type job struct {
	status Status
	cancel context.CancelFunc
}

// Option configures a MemoryManager.
type Option func(*MemoryManager)

// WithWorkers sets how many jobs run at once.
func WithWorkers(n int) Option {
	return func(m *MemoryManager) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithQueueSize sets how many jobs may wait for a worker.
func WithQueueSize(n int) Option {
	return func(m *MemoryManager) {
		if n > 0 {
			m.queueSize = n
		}
	}
}

// WithRetention sets how many jobs are kept. The oldest finished jobs are
// dropped first; unfinished jobs are never dropped.
func WithRetention(n int) Option {
	return func(m *MemoryManager) {
		if n > 0 {
			m.retention = n
		}
	}
}

// NewMemoryManager creates a manager that executes jobs with run.
func NewMemoryManager(run RunFunc, opts ...Option) *MemoryManager {
	m := &MemoryManager{
		run:       run,
		workers:   defaultWorkers,
		queueSize: defaultQueueSize,
		retention: defaultRetention,
		now:       time.Now,
		logger:    log.With().Str("component", "jobs").Logger(),
		jobs:      make(map[string]*job),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.queue = make(chan *job, m.queueSize)
	return m
}

// Start launches the worker goroutines.
func (m *MemoryManager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return ErrStopped
	}
	if m.started {
		return errors.New("job manager already started")
	}
	m.started = true

	base, cancel := context.WithCancel(ctx)
	m.cancelAll = cancel
	for range m.workers {
		m.wg.Add(1)
		go m.worker(base)
	}
	m.logger.Info().Int("workers", m.workers).Int("queue", m.queueSize).Msg("Job workers started")
	return nil
}

// Stop cancels all work and waits for the workers.
func (m *MemoryManager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	now := m.now()
	for _, j := range m.jobs {
		switch j.status.State {
		case StateQueued:
			j.status.State = StateCanceled
			j.status.EndedAt = &now
		case StateRunning:
			if j.cancel != nil {
				j.cancel()
			}
		}
	}
	if m.cancelAll != nil {
		m.cancelAll()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		m.logger.Info().Msg("Job workers stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for job workers: %w", ctx.Err())
	}
}

// Submit validates params and queues a new job.
func (m *MemoryManager) Submit(_ context.Context, params scanexec.Params) (Status, error) {
	params.Target = strings.TrimSpace(params.Target)
	if params.Target == "" {
		return Status{}, &InvalidInputError{Field: "target", Err: scanexec.ErrNoTarget}
	}
	ports, err := portspec.Resolve(params.Ports)
	if err != nil {
		return Status{}, &InvalidInputError{Field: "ports", Err: err}
	}
	if params.Timeout < 0 {
		return Status{}, &InvalidInputError{Field: "timeout", Err: errors.New("must not be negative")}
	}
	if params.Workers < 0 {
		return Status{}, &InvalidInputError{Field: "workers", Err: errors.New("must not be negative")}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return Status{}, ErrStopped
	}

	j := &job{status: Status{
		ID:        uuid.NewString(),
		State:     StateQueued,
		Params:    params,
		Total:     len(ports),
		CreatedAt: m.now(),
	}}
	select {
	case m.queue <- j:
	default:
		return Status{}, ErrQueueFull
	}
	m.jobs[j.status.ID] = j
	m.order = append(m.order, j.status.ID)
	m.prune()

	m.logger.Info().
		Str("job_id", j.status.ID).
		Str("target", params.Target).
		Int("ports", len(ports)).
		Msg("Scan job queued")
	return j.snapshot(), nil
}

// Get returns the job with the given id.
func (m *MemoryManager) Get(id string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return Status{}, &NotFoundError{ID: id}
	}
	return j.snapshot(), nil
}

// List returns retained jobs, newest first.
func (m *MemoryManager) List() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Status, 0, len(m.order))
	for _, id := range slices.Backward(m.order) {
		out = append(out, m.jobs[id].snapshot())
	}
	return out
}

// Cancel stops a queued or running job.
func (m *MemoryManager) Cancel(id string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return Status{}, &NotFoundError{ID: id}
	}
	switch j.status.State {
	case StateQueued:
		now := m.now()
		j.status.State = StateCanceled
		j.status.EndedAt = &now
	case StateRunning:
		j.cancel()
	}
	m.logger.Info().Str("job_id", id).Str("state", string(j.status.State)).Msg("Scan job cancel requested")
	return j.snapshot(), nil
}

func (m *MemoryManager) worker(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-m.queue:
			m.execute(ctx, j)
		}
	}
}

func (m *MemoryManager) execute(parent context.Context, j *job) {
	m.mu.Lock()
	if j.status.State != StateQueued {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	j.cancel = cancel
	started := m.now()
	j.status.State = StateRunning
	j.status.StartedAt = &started
	params := j.status.Params
	m.mu.Unlock()

	logger := m.logger.With().Str("job_id", j.status.ID).Logger()
	logger.Debug().Msg("Scan job started")

	report, err := m.run(ctx, params, &jobSink{m: m, j: j, showDynamic: params.ShowDynamic})

	m.mu.Lock()
	defer m.mu.Unlock()
	ended := m.now()
	j.status.EndedAt = &ended
	if report != nil {
		j.status.Report = report
		j.status.Open = report.Visible(params.ShowDynamic)
		j.status.Scanned = report.Scanned
		j.status.Total = report.Total
	}
	switch {
	case err != nil && ctx.Err() != nil:
		j.status.State = StateCanceled
	case err != nil:
		j.status.State = StateFailed
		j.status.Error = err.Error()
		j.status.ErrorCode = scanexec.ErrorCode(err)
	case report != nil && report.Canceled:
		j.status.State = StateCanceled
	default:
		j.status.State = StateCompleted
	}
	logger.Info().Str("state", string(j.status.State)).Int("open", len(j.status.Open)).Msg("Scan job finished")
	m.prune()
}

// prune drops the oldest finished jobs beyond the retention limit. Callers
// hold m.mu.
func (m *MemoryManager) prune() {
	excess := len(m.order) - m.retention
	if excess <= 0 {
		return
	}
	kept := m.order[:0]
	for _, id := range m.order {
		if excess > 0 && m.jobs[id].status.State.Terminal() {
			delete(m.jobs, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
}

func (j *job) snapshot() Status {
	s := j.status
	s.Open = slices.Clone(j.status.Open)
	if s.Open == nil {
		s.Open = []scan.Result{}
	}
	return s
}

// jobSink records live progress on the job. Ephemeral ports stay out of
// Status.Open unless showDynamic is set.
type jobSink struct {
	m           *MemoryManager
	j           *job
	showDynamic bool
}

func (s *jobSink) OnEvent(ev scanexec.ProgressEvent) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	switch ev.Phase {
	case scanexec.PhaseScan:
		if ev.Status == scanexec.StatusStart {
			s.j.status.Total = ev.Total
		}
	case scanexec.PhaseProbe:
		s.j.status.Scanned = ev.Progress.Scanned
	case scanexec.PhaseResult:
		if !s.showDynamic && services.IsDynamic(ev.Result.Port) {
			return
		}
		s.j.status.Open = append(s.j.status.Open, ev.Result)
	}
}
