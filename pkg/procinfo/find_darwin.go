//go:build darwin

package procinfo

import (
	"context"
	"fmt"
	"strconv"
)

func (s *System) listeningPIDs(ctx context.Context, port uint16) ([]int, error) {
	out, err := s.run(ctx, "lsof", "-nP", fmt.Sprintf("-iTCP:%d", port), "-sTCP:LISTEN", "-t")
	if err != nil {
		// lsof exits 1 when nothing matches.
		return nil, nil
	}
	return ParseLsofPIDs(out), nil
}

func (s *System) details(ctx context.Context, pid int) (Process, error) {
	out, err := s.run(ctx, "ps", "-p", strconv.Itoa(pid), "-o", "pid=,user=,comm=,args=")
	if err != nil {
		return Process{}, err
	}
	p, ok := ParsePS(out)
	if !ok {
		return Process{}, fmt.Errorf("no ps entry for pid %d", pid)
	}
	return p, nil
}

func (s *System) stopService(context.Context, string) error {
	return fmt.Errorf("stop service: %w", ErrUnsupported)
}
