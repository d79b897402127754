// Package deps holds the shared runtime dependencies of the HTTP server.
package deps

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/Mohammed-el-Amine/check-port/pkg/server/jobs"
)

// Deps bundles what the server runtime needs. Ready gates /readyz.
type Deps struct {
	Jobs   jobs.Manager
	Logger *zerolog.Logger
	Ready  *atomic.Bool
}

// New creates Deps in the not-ready state.
func New(jobManager jobs.Manager, logger *zerolog.Logger) *Deps {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Deps{
		Jobs:   jobManager,
		Logger: logger,
		Ready:  &atomic.Bool{},
	}
}

// SetReady marks the server as accepting traffic.
func (d *Deps) SetReady() { d.Ready.Store(true) }

// SetNotReady marks the server as draining or starting.
func (d *Deps) SetNotReady() { d.Ready.Store(false) }

// IsReady reports the readiness flag.
func (d *Deps) IsReady() bool { return d.Ready.Load() }
