//go:build linux

package procinfo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
)

// listeningPIDs merges lsof and ss. When neither tool yields anything the
// procfs socket tables are scanned directly.
func (s *System) listeningPIDs(ctx context.Context, port uint16) ([]int, error) {
	var pids []int
	if out, err := s.run(ctx, "lsof", "-nP", fmt.Sprintf("-iTCP:%d", port), "-sTCP:LISTEN", "-t"); err == nil {
		pids = append(pids, ParseLsofPIDs(out)...)
	}
	if out, err := s.run(ctx, "ss", "-ltnp"); err == nil {
		pids = append(pids, ParseSSPIDs(out, port)...)
	}
	if len(pids) > 0 {
		return pids, nil
	}
	return s.procPIDs(port)
}

func (s *System) procPIDs(port uint16) ([]int, error) {
	inodes := make(map[string]struct{})
	var readErr error
	for _, table := range []string{"tcp", "tcp6"} {
		data, err := os.ReadFile(filepath.Join(s.ProcRoot, "net", table))
		if err != nil {
			readErr = errors.Join(readErr, err)
			continue
		}
		for _, inode := range ParseProcNetTCP(data, port) {
			inodes[fmt.Sprintf("socket:[%d]", inode)] = struct{}{}
		}
	}
	if len(inodes) == 0 {
		if readErr != nil {
			s.logger.Debug().Err(readErr).Msg("procfs socket tables unreadable")
		}
		return nil, nil
	}

	entries, err := os.ReadDir(s.ProcRoot)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.ProcRoot, err)
	}

	var pids []int
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		fdDir := filepath.Join(s.ProcRoot, e.Name(), "fd")
		fds, err := os.ReadDir(fdDir)
		if err != nil {
			continue
		}
		for _, fd := range fds {
			target, err := os.Readlink(filepath.Join(fdDir, fd.Name()))
			if err != nil {
				continue
			}
			if _, ok := inodes[target]; ok {
				pids = append(pids, pid)
				break
			}
		}
	}
	return pids, nil
}

func (s *System) details(ctx context.Context, pid int) (Process, error) {
	dir := filepath.Join(s.ProcRoot, strconv.Itoa(pid))
	comm, err := os.ReadFile(filepath.Join(dir, "comm"))
	if err != nil {
		return s.psDetails(ctx, pid)
	}

	p := Process{PID: pid, Name: strings.TrimSpace(string(comm)), User: unknown}
	if status, err := os.ReadFile(filepath.Join(dir, "status")); err == nil {
		if uid, ok := ParseStatusUID(status); ok {
			p.User = uid
			if u, err := user.LookupId(uid); err == nil {
				p.User = u.Username
			}
		}
	}
	if cmdline, err := os.ReadFile(filepath.Join(dir, "cmdline")); err == nil {
		p.Command = ParseCmdline(cmdline)
	}
	if p.Command == "" {
		p.Command = p.Name
	}
	return p, nil
}

func (s *System) psDetails(ctx context.Context, pid int) (Process, error) {
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

func (s *System) stopService(ctx context.Context, unit string) error {
	_, err := s.run(ctx, "systemctl", "stop", unit)
	return err
}
