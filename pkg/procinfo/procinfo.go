// Package procinfo finds the local processes listening on a TCP port and
// stops them, either by killing their PIDs or by stopping the owning service.
//
// Platform tools (lsof, ss, netstat, ps, tasklist, kill, taskkill, systemctl)
// are invoked through a Runner so the parsing helpers can be exercised
// without touching the host.
package procinfo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrUnsupported is returned on platforms without a lookup or kill strategy.
var ErrUnsupported = errors.New("unsupported platform")

const unknown = "unknown"

// Process is one process holding a listening socket.
type Process struct {
	PID     int    `json:"pid" yaml:"pid"`
	Name    string `json:"name" yaml:"name"`
	User    string `json:"user" yaml:"user"`
	Command string `json:"command" yaml:"command"`
}

// Finder looks up the processes listening on a port of this machine.
type Finder interface {
	FindListening(ctx context.Context, port uint16) ([]Process, error)
}

// Killer forcibly terminates a process.
type Killer interface {
	Kill(ctx context.Context, pid int) error
}

// ServiceStopper stops a service manager unit.
type ServiceStopper interface {
	StopService(ctx context.Context, unit string) error
}

// Runner executes an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// CommandError carries the diagnostic output of a failed command.
type CommandError struct {
	Command string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s: %s", e.Command, e.Output)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		out := strings.TrimSpace(stderr.String())
		if out == "" {
			out = strings.TrimSpace(stdout.String())
		}
		return stdout.Bytes(), &CommandError{
			Command: strings.Join(append([]string{name}, args...), " "),
			Output:  out,
			Err:     err,
		}
	}
	return stdout.Bytes(), nil
}

// System implements Finder, Killer and ServiceStopper for the running OS.
type System struct {
	Runner Runner
	// ProcRoot is the procfs mount point, used on Linux only.
	ProcRoot string
	logger   zerolog.Logger
}

// NewSystem returns a System that runs real commands.
func NewSystem() *System {
	return &System{
		Runner:   ExecRunner{},
		ProcRoot: "/proc",
		logger:   log.With().Str("component", "procinfo").Logger(),
	}
}

// FindListening returns the listening processes for port, sorted by PID.
func (s *System) FindListening(ctx context.Context, port uint16) ([]Process, error) {
	pids, err := s.listeningPIDs(ctx, port)
	if err != nil {
		return nil, err
	}
	slices.Sort(pids)
	pids = slices.Compact(pids)

	procs := make([]Process, 0, len(pids))
	for _, pid := range pids {
		procs = append(procs, s.Details(ctx, pid))
	}
	return procs, nil
}

// Details describes pid. Fields that cannot be determined are "unknown".
func (s *System) Details(ctx context.Context, pid int) Process {
	p, err := s.details(ctx, pid)
	if err != nil {
		s.logger.Debug().Err(err).Int("pid", pid).Msg("process details unavailable")
		return Process{PID: pid, Name: unknown, User: unknown, Command: unknown}
	}
	return p
}

// Kill sends a forced termination to pid.
func (s *System) Kill(ctx context.Context, pid int) error {
	return s.kill(ctx, pid)
}

// StopService stops unit through the service manager.
func (s *System) StopService(ctx context.Context, unit string) error {
	return s.stopService(ctx, unit)
}

func (s *System) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := s.Runner.Run(ctx, name, args...)
	if err != nil {
		s.logger.Debug().Err(err).Str("command", name).Msg("command failed")
	}
	return out, err
}
