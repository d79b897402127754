// pkg/server/jobs/manager.go
package jobs

import (
	"context"
	"time"

	"github.com/Mohammed-el-Amine/check-port/pkg/scan"
	"github.com/Mohammed-el-Amine/check-port/pkg/scanexec"
)

// State is the lifecycle state of a scan job.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCanceled  State = "canceled"
)

// Terminal reports whether the job will not change state again.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCanceled
}

// Status is a point-in-time copy of a job.
type Status struct {
	ID     string          `json:"id"`
	State  State           `json:"state"`
	Params scanexec.Params `json:"params"`
	// Scanned and Total track probes while the job runs.
	Scanned int `json:"scanned"`
	Total   int `json:"total"`
	// Open lists open ports found so far, in discovery order. Ephemeral
	// ports are left out unless Params.ShowDynamic is set; Report keeps
	// every open port.
	Open      []scan.Result    `json:"open"`
	Report    *scanexec.Report `json:"report,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorCode string           `json:"error_code,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	StartedAt *time.Time       `json:"started_at,omitempty"`
	EndedAt   *time.Time       `json:"ended_at,omitempty"`
}

// Manager runs scan jobs in the background.
type Manager interface {
	// Start launches the workers. It returns immediately.
	Start(ctx context.Context) error

	// Stop cancels every queued and running job and waits for the workers,
	// bounded by the ctx deadline.
	Stop(ctx context.Context) error

	// Submit validates params and queues a job.
	Submit(ctx context.Context, params scanexec.Params) (Status, error)

	// Get returns one job.
	Get(id string) (Status, error)

	// List returns all retained jobs, newest first.
	List() []Status

	// Cancel stops a queued or running job. Canceling a finished job is a
	// no-op.
	Cancel(id string) (Status, error)
}

// RunFunc executes one scan, reporting progress to sink.
type RunFunc func(ctx context.Context, params scanexec.Params, sink scanexec.ProgressSink) (*scanexec.Report, error)

// ServiceRunner returns a RunFunc backed by scanexec.Service with the given
// scan engine. A nil scanner uses the defaults.
func ServiceRunner(s *scan.Scanner) RunFunc {
	return func(ctx context.Context, params scanexec.Params, sink scanexec.ProgressSink) (*scanexec.Report, error) {
		svc := scanexec.NewService().WithProgressSink(sink)
		if s != nil {
			svc = svc.WithScanner(s)
		}
		return svc.Run(ctx, params)
	}
}
