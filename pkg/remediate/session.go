// Package remediate drives the interactive closing of a local open port:
// choosing between a clean service stop and a forced kill, confirming, and
// recording what happened.
package remediate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Mohammed-el-Amine/check-port/pkg/procinfo"
	"github.com/Mohammed-el-Amine/check-port/pkg/services"
)

// ErrInvalidTransition is returned when input or execution arrives in a state
// that does not accept it.
var ErrInvalidTransition = errors.New("invalid session transition")

// DefaultSettleDelay is the pause between stopping a service and checking
// the port again.
const DefaultSettleDelay = time.Second

// State of a Session.
type State int

const (
	AwaitingSelection State = iota
	AwaitingConfirmation
	Executing
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingSelection:
		return "awaiting-selection"
	case AwaitingConfirmation:
		return "awaiting-confirmation"
	case Executing:
		return "executing"
	case Done:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Action chosen for the port.
type Action string

const (
	ActionNone        Action = ""
	ActionStopService Action = "stop-service"
	ActionKill        Action = "kill"
	ActionSkip        Action = "skip"
)

// KillResult is the outcome of killing one PID.
type KillResult struct {
	PID     int    `json:"pid" yaml:"pid"`
	OK      bool   `json:"ok" yaml:"ok"`
	Message string `json:"message" yaml:"message"`
}

// Outcome records what a session did for its port.
type Outcome struct {
	Port    uint16 `json:"port" yaml:"port"`
	Service string `json:"service" yaml:"service"`
	PIDs    []int  `json:"pids,omitempty" yaml:"pids,omitempty"`
	Action  Action `json:"action,omitempty" yaml:"action,omitempty"`

	NothingFound   bool         `json:"nothing_found,omitempty" yaml:"nothing_found,omitempty"`
	Declined       bool         `json:"declined,omitempty" yaml:"declined,omitempty"`
	ServiceStopped bool         `json:"service_stopped,omitempty" yaml:"service_stopped,omitempty"`
	StillOpen      bool         `json:"still_open,omitempty" yaml:"still_open,omitempty"`
	ServiceError   string       `json:"service_error,omitempty" yaml:"service_error,omitempty"`
	Kills          []KillResult `json:"kills,omitempty" yaml:"kills,omitempty"`
}

// Executor carries the side effects a session may perform.
type Executor struct {
	Finder  procinfo.Finder
	Killer  procinfo.Killer
	Stopper procinfo.ServiceStopper
	// SettleDelay defaults to DefaultSettleDelay when zero.
	SettleDelay time.Duration
}

// Session is the per-port remediation state machine.
type Session struct {
	port    uint16
	info    services.Info
	procs   []procinfo.Process
	state   State
	action  Action
	outcome Outcome
}

// NewSession starts remediation of port. Without processes the session is
// immediately Done; without a known service unit it skips straight to the
// kill confirmation.
func NewSession(port uint16, info services.Info, procs []procinfo.Process) *Session {
	s := &Session{
		port:  port,
		info:  info,
		procs: procs,
		outcome: Outcome{
			Port:    port,
			Service: info.Name,
			PIDs:    pids(procs),
		},
	}

	switch {
	case len(procs) == 0:
		s.outcome.NothingFound = true
		s.state = Done
	case info.Unit == "":
		s.action = ActionKill
		s.state = AwaitingConfirmation
	default:
		s.state = AwaitingSelection
	}
	return s
}

func (s *Session) Port() uint16                  { return s.port }
func (s *Session) Info() services.Info           { return s.info }
func (s *Session) Processes() []procinfo.Process { return s.procs }
func (s *Session) State() State                  { return s.state }
func (s *Session) Action() Action                { return s.action }
func (s *Session) Outcome() Outcome              { return s.outcome }

// Prompt returns the question for the current state, or "" when no input is
// expected.
func (s *Session) Prompt() string {
	switch s.state {
	case AwaitingSelection:
		return fmt.Sprintf("Choose an action:\n"+
			"  1) Stop the service cleanly (systemctl stop %s)\n"+
			"  2) Force kill the PIDs (risk of data corruption)\n"+
			"  3) Skip this port\n"+
			"Your choice (1/2/3): ", s.info.Unit)
	case AwaitingConfirmation:
		return fmt.Sprintf("Kill PIDs %v with kill -9? (yes/no) ", s.outcome.PIDs)
	}
	return ""
}

// Handle feeds one line of operator input to the session.
func (s *Session) Handle(input string) error {
	input = strings.TrimSpace(input)
	switch s.state {
	case AwaitingSelection:
		switch input {
		case "1":
			s.action = ActionStopService
			s.state = Executing
		case "3":
			s.action = ActionSkip
			s.outcome.Action = ActionSkip
			s.state = Done
		default:
			// Anything else, including "2", asks for kill confirmation.
			s.action = ActionKill
			s.state = AwaitingConfirmation
		}
		return nil

	case AwaitingConfirmation:
		if IsConfirmation(input) {
			s.state = Executing
			return nil
		}
		s.outcome.Action = ActionKill
		s.outcome.Declined = true
		s.state = Done
		return nil
	}
	return fmt.Errorf("handle input in state %s: %w", s.state, ErrInvalidTransition)
}

// Execute performs the chosen action. A failure on one PID never prevents
// the others from being attempted.
func (s *Session) Execute(ctx context.Context, ex Executor) (Outcome, error) {
	if s.state != Executing {
		return s.outcome, fmt.Errorf("execute in state %s: %w", s.state, ErrInvalidTransition)
	}
	defer func() { s.state = Done }()

	s.outcome.Action = s.action
	switch s.action {
	case ActionStopService:
		if err := s.stopService(ctx, ex); err != nil {
			return s.outcome, err
		}
	case ActionKill:
		s.kill(ctx, ex)
	}
	return s.outcome, nil
}

func (s *Session) stopService(ctx context.Context, ex Executor) error {
	if err := ex.Stopper.StopService(ctx, s.info.Unit); err != nil {
		s.outcome.ServiceError = err.Error()
		return nil
	}
	s.outcome.ServiceStopped = true

	delay := ex.SettleDelay
	if delay <= 0 {
		delay = DefaultSettleDelay
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return ctx.Err()
	}

	if ex.Finder == nil {
		return nil
	}
	remaining, err := ex.Finder.FindListening(ctx, s.port)
	if err != nil {
		return fmt.Errorf("re-check port %d: %w", s.port, err)
	}
	s.outcome.StillOpen = len(remaining) > 0
	return nil
}

func (s *Session) kill(ctx context.Context, ex Executor) {
	for _, p := range s.procs {
		res := KillResult{PID: p.PID, OK: true, Message: "killed"}
		if err := ex.Killer.Kill(ctx, p.PID); err != nil {
			res.OK = false
			res.Message = err.Error()
			if suggestion := PermissionSuggestion(err.Error(), s.info.Unit); suggestion != "" {
				res.Message = fmt.Sprintf("permission denied, try: %s", suggestion)
			}
		}
		s.outcome.Kills = append(s.outcome.Kills, res)
	}
}

// PermissionSuggestion returns the service stop command to try when msg looks
// like a permission failure and unit is known.
func PermissionSuggestion(msg, unit string) string {
	if unit == "" {
		return ""
	}
	if !strings.Contains(msg, "Permission") && !strings.Contains(msg, "not permitted") {
		return ""
	}
	return "sudo systemctl stop " + unit
}

func pids(procs []procinfo.Process) []int {
	if len(procs) == 0 {
		return nil
	}
	out := make([]int, 0, len(procs))
	for _, p := range procs {
		out = append(out, p.PID)
	}
	return out
}
