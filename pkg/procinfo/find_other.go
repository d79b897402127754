//go:build !linux && !darwin && !windows

package procinfo

import (
	"context"
	"fmt"
)

func (s *System) listeningPIDs(context.Context, uint16) ([]int, error) {
	return nil, fmt.Errorf("find listening processes: %w", ErrUnsupported)
}

func (s *System) details(context.Context, int) (Process, error) {
	return Process{}, ErrUnsupported
}

func (s *System) stopService(context.Context, string) error {
	return fmt.Errorf("stop service: %w", ErrUnsupported)
}
