//go:build windows

package procinfo

import (
	"context"
	"fmt"
	"strconv"
)

func (s *System) listeningPIDs(ctx context.Context, port uint16) ([]int, error) {
	out, err := s.run(ctx, "netstat", "-ano")
	if err != nil {
		return nil, fmt.Errorf("netstat: %w", err)
	}
	return ParseNetstatPIDs(out, port), nil
}

func (s *System) details(ctx context.Context, pid int) (Process, error) {
	out, err := s.run(ctx, "tasklist", "/FI", fmt.Sprintf("PID eq %d", pid), "/FO", "CSV", "/NH")
	if err != nil {
		return Process{}, err
	}
	p, ok := ParseTasklist(out)
	if !ok {
		return Process{}, fmt.Errorf("no tasklist entry for pid %d", pid)
	}
	return p, nil
}

func (s *System) kill(ctx context.Context, pid int) error {
	_, err := s.run(ctx, "taskkill", "/PID", strconv.Itoa(pid), "/F")
	return err
}

func (s *System) stopService(context.Context, string) error {
	return fmt.Errorf("stop service: %w", ErrUnsupported)
}
