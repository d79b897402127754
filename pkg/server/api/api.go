package api

import (
	"sync/atomic"

	"github.com/Mohammed-el-Amine/check-port/pkg/server/jobs"
)

// Deps holds dependencies for API handlers.
type Deps struct {
	// Jobs runs and tracks scan jobs.
	Jobs jobs.Manager

	// Config holds API-level limits.
	Config Config

	// Ready flag for readiness check
	Ready *atomic.Bool
}

// Config holds API-level configuration.
type Config struct {
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64
	// DefaultPorts is used when a scan request leaves ports empty.
	DefaultPorts string
}

// DefaultConfig returns the built-in API limits.
func DefaultConfig() Config {
	return Config{MaxBodyBytes: 1 << 16}
}
