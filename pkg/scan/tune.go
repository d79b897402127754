package scan

import "time"

// Tuning holds the per-scan connect timeout and worker budget.
type Tuning struct {
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
	Workers int           `json:"workers" yaml:"workers"`
	// Mode names the tier that produced the values: fast, accelerated or default.
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`
}

const (
	ModeFast        = "fast"
	ModeAccelerated = "accelerated"
	ModeDefault     = "default"
)

const (
	fastThreshold        = 10000
	acceleratedThreshold = 1000

	fastTimeout        = 300 * time.Millisecond
	acceleratedTimeout = 500 * time.Millisecond
	// DefaultTimeout is the connect timeout for small scans.
	DefaultTimeout = 800 * time.Millisecond

	fastMaxWorkers        = 1000
	acceleratedMaxWorkers = 800
	defaultMaxWorkers     = 500
	defaultMinWorkers     = 50
)

// Tune derives timeout and worker count from the number of ports to scan.
// The worker count bounds concurrent sockets and is never below 1.
func Tune(portCount int) Tuning {
	var t Tuning
	switch {
	case portCount > fastThreshold:
		t = Tuning{Timeout: fastTimeout, Workers: min(fastMaxWorkers, portCount/10), Mode: ModeFast}
	case portCount > acceleratedThreshold:
		t = Tuning{Timeout: acceleratedTimeout, Workers: min(acceleratedMaxWorkers, portCount/5), Mode: ModeAccelerated}
	default:
		t = Tuning{Timeout: DefaultTimeout, Workers: min(defaultMaxWorkers, max(defaultMinWorkers, portCount)), Mode: ModeDefault}
	}
	t.Workers = max(t.Workers, 1)
	return t
}
