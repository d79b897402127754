//go:build !windows

package procinfo

import (
	"context"
	"strconv"
)

func (s *System) kill(ctx context.Context, pid int) error {
	_, err := s.run(ctx, "kill", "-9", strconv.Itoa(pid))
	return err
}
