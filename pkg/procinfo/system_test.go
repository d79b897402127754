package procinfo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	mu      sync.Mutex
	calls   []call
	outputs map[string][]byte
	errs    map[string]error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{name: name, args: args})
	key := strings.Join(append([]string{name}, args...), " ")
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	if out, ok := f.outputs[key]; ok {
		return out, nil
	}
	return nil, errors.New("exit status 1")
}

func newTestSystem(r Runner) *System {
	return &System{Runner: r, ProcRoot: "/nonexistent-proc", logger: zerolog.Nop()}
}

func TestCommandError(t *testing.T) {
	base := errors.New("exit status 1")
	err := &CommandError{Command: "kill -9 1", Output: "kill: (1) - Operation not permitted", Err: base}
	require.Equal(t, "kill -9 1: kill: (1) - Operation not permitted", err.Error())
	require.ErrorIs(t, err, base)

	bare := &CommandError{Command: "systemctl stop cups", Err: base}
	require.Equal(t, "systemctl stop cups: exit status 1", bare.Error())
}

func TestDetails_UnknownWhenUnavailable(t *testing.T) {
	s := newTestSystem(&fakeRunner{})
	p := s.Details(context.Background(), 4242)
	require.Equal(t, Process{PID: 4242, Name: "unknown", User: "unknown", Command: "unknown"}, p)
}

func TestKill_ReportsCommandFailure(t *testing.T) {
	denied := &CommandError{Command: "kill", Output: "Operation not permitted", Err: errors.New("exit status 1")}
	r := &fakeRunner{
		outputs: map[string][]byte{"kill -9 100": nil, "taskkill /PID 100 /F": nil},
		errs:    map[string]error{"kill -9 200": denied, "taskkill /PID 200 /F": denied},
	}
	s := newTestSystem(r)

	require.NoError(t, s.Kill(context.Background(), 100))
	err := s.Kill(context.Background(), 200)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not permitted")
}
