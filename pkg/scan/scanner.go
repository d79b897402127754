// Package scan implements the concurrent TCP connect scan engine.
//
// A Scanner attempts one bounded connect per port under a fixed worker budget
// and streams results in completion order. Callers that need a stable
// presentation sort after the stream drains.
package scan

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Status is the outcome of a single connect attempt.
type Status string

const (
	StatusOpen     Status = "open"
	StatusClosed   Status = "closed"
	StatusFiltered Status = "filtered"
)

const (
	// DefaultBannerTimeout bounds the post-connect banner read.
	DefaultBannerTimeout = 300 * time.Millisecond
	// DefaultBannerSize is the maximum number of banner bytes read.
	DefaultBannerSize = 512
)

// Result is emitted once per scanned port.
//
// For filtered ports Banner carries a short diagnostic ("timeout" or the
// error text); it is not authoritative.
type Result struct {
	Port   uint16 `json:"port" yaml:"port"`
	Status Status `json:"status" yaml:"status"`
	Banner string `json:"banner,omitempty" yaml:"banner,omitempty"`
}

// DialFunc opens a stream connection. It matches (*net.Dialer).DialContext
// with the timeout passed explicitly.
type DialFunc func(ctx context.Context, network, address string, timeout time.Duration) (net.Conn, error)

// Option configures a Scanner.
type Option func(*Scanner)

// WithDialer replaces the network dialer.
func WithDialer(dial DialFunc) Option {
	return func(s *Scanner) {
		if dial != nil {
			s.dial = dial
		}
	}
}

// WithBannerTimeout sets the banner read deadline.
func WithBannerTimeout(d time.Duration) Option {
	return func(s *Scanner) {
		if d > 0 {
			s.bannerTimeout = d
		}
	}
}

// WithBannerSize sets the maximum banner length in bytes.
func WithBannerSize(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.bannerSize = n
		}
	}
}

// WithLogger sets the logger used for scan diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// Scanner runs connect scans. It holds no per-scan state and is safe for
// concurrent use.
type Scanner struct {
	dial          DialFunc
	bannerTimeout time.Duration
	bannerSize    int
	logger        zerolog.Logger
}

// New returns a Scanner using the system dialer.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		dial:          dialTCP,
		bannerTimeout: DefaultBannerTimeout,
		bannerSize:    DefaultBannerSize,
		logger:        log.With().Str("component", "scan").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func dialTCP(ctx context.Context, network, address string, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{Timeout: timeout}
	return d.DialContext(ctx, network, address)
}

// Scan probes every port on ip and returns a channel carrying exactly one
// Result per submitted port, in completion order. The channel is closed once
// all submitted probes have reported.
//
// At most t.Workers probes are in flight at any time. When ctx is canceled no
// further probes are started; probes already running finish and still report.
// The channel is buffered to the number of ports so those late results never
// block a consumer that stopped reading.
func (s *Scanner) Scan(ctx context.Context, ip string, ports []uint16, t Tuning) <-chan Result {
	results := make(chan Result, len(ports))
	workers := max(t.Workers, 1)
	sem := semaphore.NewWeighted(int64(workers))

	s.logger.Debug().
		Str("ip", ip).
		Int("ports", len(ports)).
		Int("workers", workers).
		Dur("timeout", t.Timeout).
		Msg("Starting connect scan")

	go func() {
		defer close(results)

		var wg sync.WaitGroup
		submitted := 0
		for _, port := range ports {
			if ctx.Err() != nil {
				break
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				break
			}
			submitted++
			wg.Add(1)
			go func(port uint16) {
				defer wg.Done()
				defer sem.Release(1)
				results <- s.Probe(ctx, ip, port, t.Timeout)
			}(port)
		}
		wg.Wait()

		if submitted < len(ports) {
			s.logger.Info().
				Str("ip", ip).
				Int("submitted", submitted).
				Int("skipped", len(ports)-submitted).
				Msg("Scan stopped before all ports were submitted")
		}
	}()

	return results
}
