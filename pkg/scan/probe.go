package scan

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// Probe performs a single connect attempt against ip:port. It never retries.
//
// The dial is detached from ctx cancellation: an attempt that has started runs
// until it connects, fails, or hits timeout.
func (s *Scanner) Probe(ctx context.Context, ip string, port uint16, timeout time.Duration) Result {
	address := net.JoinHostPort(ip, strconv.Itoa(int(port)))

	conn, err := s.dial(context.WithoutCancel(ctx), "tcp", address, timeout)
	if err != nil {
		status, diag := classifyDialError(err)
		return Result{Port: port, Status: status, Banner: diag}
	}
	defer conn.Close()

	return Result{
		Port:   port,
		Status: StatusOpen,
		Banner: s.readBanner(conn),
	}
}

// readBanner reads whatever the service sends first. Failures and empty reads
// yield an empty banner.
func (s *Scanner) readBanner(conn net.Conn) string {
	if err := conn.SetReadDeadline(time.Now().Add(s.bannerTimeout)); err != nil {
		return ""
	}

	buf := make([]byte, s.bannerSize)
	n, err := conn.Read(buf)
	if n <= 0 {
		if err != nil && !isTimeout(err) {
			s.logger.Trace().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("Banner read failed")
		}
		return ""
	}

	return DecodeBanner(buf[:n])
}

// DecodeBanner converts raw banner bytes into trimmed text, dropping invalid
// UTF-8 sequences.
func DecodeBanner(raw []byte) string {
	return strings.TrimSpace(strings.ToValidUTF8(string(raw), ""))
}

func classifyDialError(err error) (Status, string) {
	switch {
	case isRefused(err):
		return StatusClosed, ""
	case isTimeout(err):
		return StatusFiltered, "timeout"
	default:
		return StatusFiltered, err.Error()
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return isPlatformRefused(err)
}
