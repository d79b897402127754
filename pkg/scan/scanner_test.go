package scan

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func refusedErr(address string) error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
}

// pipeConn returns the client end of an in-memory connection whose server end
// writes banner and then waits for the client to close.
func pipeConn(banner string) net.Conn {
	client, server := net.Pipe()
	go func() {
		defer server.Close()
		if banner != "" {
			_, _ = server.Write([]byte(banner))
		}
		buf := make([]byte, 1)
		_, _ = server.Read(buf)
	}()
	return client
}

func portOf(t *testing.T, address string) uint16 {
	t.Helper()
	_, p, err := net.SplitHostPort(address)
	require.NoError(t, err)
	n, err := strconv.Atoi(p)
	require.NoError(t, err)
	return uint16(n)
}

func quietScanner(opts ...Option) *Scanner {
	return New(append([]Option{WithLogger(zerolog.Nop())}, opts...)...)
}

func collect(ch <-chan Result) []Result {
	var out []Result
	for r := range ch {
		out = append(out, r)
	}
	return out
}

func TestProbe_OpenWithBanner(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_, _ = conn.Write([]byte("  220 test ftp ready\r\n"))
			_ = conn.Close()
		}
	}()

	s := quietScanner()
	res := s.Probe(context.Background(), "127.0.0.1", portOf(t, ln.Addr().String()), time.Second)
	require.Equal(t, StatusOpen, res.Status)
	require.Equal(t, "220 test ftp ready", res.Banner)
}

func TestProbe_OpenSilentServiceHasEmptyBanner(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	var conns []net.Conn
	var mu sync.Mutex
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})

	s := quietScanner(WithBannerTimeout(50 * time.Millisecond))
	start := time.Now()
	res := s.Probe(context.Background(), "127.0.0.1", portOf(t, ln.Addr().String()), time.Second)
	require.Equal(t, StatusOpen, res.Status)
	require.Empty(t, res.Banner)
	require.Less(t, time.Since(start), time.Second)
}

func TestProbe_ClosedPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := portOf(t, ln.Addr().String())
	require.NoError(t, ln.Close())

	s := quietScanner()
	res := s.Probe(context.Background(), "127.0.0.1", port, time.Second)
	require.Equal(t, StatusClosed, res.Status)
	require.Empty(t, res.Banner)
}

func TestProbe_TimeoutIsFiltered(t *testing.T) {
	s := quietScanner(WithDialer(func(ctx context.Context, network, address string, timeout time.Duration) (net.Conn, error) {
		return nil, &net.OpError{Op: "dial", Net: network, Err: timeoutError{}}
	}))

	res := s.Probe(context.Background(), "192.0.2.1", 80, 10*time.Millisecond)
	require.Equal(t, StatusFiltered, res.Status)
	require.Equal(t, "timeout", res.Banner)
}

func TestProbe_OtherErrorIsFilteredWithDiagnostic(t *testing.T) {
	s := quietScanner(WithDialer(func(ctx context.Context, network, address string, timeout time.Duration) (net.Conn, error) {
		return nil, errors.New("network is unreachable")
	}))

	res := s.Probe(context.Background(), "192.0.2.1", 80, 10*time.Millisecond)
	require.Equal(t, StatusFiltered, res.Status)
	require.Equal(t, "network is unreachable", res.Banner)
}

func TestProbe_InvalidUTF8IsDropped(t *testing.T) {
	s := quietScanner(WithDialer(func(ctx context.Context, network, address string, timeout time.Duration) (net.Conn, error) {
		return pipeConn("SSH-2.0-\xff\xfeOpenSSH\n"), nil
	}))

	res := s.Probe(context.Background(), "127.0.0.1", 22, time.Second)
	require.Equal(t, StatusOpen, res.Status)
	require.Equal(t, "SSH-2.0-OpenSSH", res.Banner)
}

func TestProbe_BannerLimitedToBannerSize(t *testing.T) {
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'a'
	}
	s := quietScanner(WithDialer(func(ctx context.Context, network, address string, timeout time.Duration) (net.Conn, error) {
		return pipeConn(string(long)), nil
	}))

	res := s.Probe(context.Background(), "127.0.0.1", 80, time.Second)
	require.Equal(t, StatusOpen, res.Status)
	require.Len(t, res.Banner, DefaultBannerSize)
}

func TestDecodeBanner(t *testing.T) {
	require.Equal(t, "hello", DecodeBanner([]byte("\r\n hello \t\n")))
	require.Equal(t, "", DecodeBanner([]byte{0xff, 0xfe}))
}

func TestScan_EmitsExactlyOneResultPerPort(t *testing.T) {
	s := quietScanner(WithDialer(func(ctx context.Context, network, address string, timeout time.Duration) (net.Conn, error) {
		return nil, refusedErr(address)
	}))

	ports := make([]uint16, 0, 300)
	for p := 1; p <= 300; p++ {
		ports = append(ports, uint16(p))
	}

	results := collect(s.Scan(context.Background(), "127.0.0.1", ports, Tuning{Timeout: time.Second, Workers: 16}))
	require.Len(t, results, len(ports))

	seen := make(map[uint16]int)
	for _, r := range results {
		seen[r.Port]++
		require.Equal(t, StatusClosed, r.Status)
	}
	require.Len(t, seen, len(ports))
	for port, n := range seen {
		require.Equal(t, 1, n, "port %d reported %d times", port, n)
	}
}

func TestScan_NeverExceedsWorkerBound(t *testing.T) {
	const workers = 7
	var inFlight, peak atomic.Int32

	s := quietScanner(WithDialer(func(ctx context.Context, network, address string, timeout time.Duration) (net.Conn, error) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return nil, refusedErr(address)
	}))

	ports := make([]uint16, 0, 150)
	for p := 1000; p < 1150; p++ {
		ports = append(ports, uint16(p))
	}

	results := collect(s.Scan(context.Background(), "127.0.0.1", ports, Tuning{Timeout: time.Second, Workers: workers}))
	require.Len(t, results, len(ports))
	require.LessOrEqual(t, peak.Load(), int32(workers))
	require.Positive(t, peak.Load())
}

func TestScan_ZeroWorkersStillRuns(t *testing.T) {
	s := quietScanner(WithDialer(func(ctx context.Context, network, address string, timeout time.Duration) (net.Conn, error) {
		return nil, refusedErr(address)
	}))

	results := collect(s.Scan(context.Background(), "127.0.0.1", []uint16{1, 2, 3}, Tuning{Timeout: time.Second}))
	require.Len(t, results, 3)
}

func TestScan_EmptyPortSetClosesImmediately(t *testing.T) {
	s := quietScanner()
	results := collect(s.Scan(context.Background(), "127.0.0.1", nil, Tune(0)))
	require.Empty(t, results)
}

func TestScan_CancelStopsNewSubmissions(t *testing.T) {
	var dials atomic.Int32
	s := quietScanner(WithDialer(func(ctx context.Context, network, address string, timeout time.Duration) (net.Conn, error) {
		dials.Add(1)
		time.Sleep(10 * time.Millisecond)
		return nil, refusedErr(address)
	}))

	ports := make([]uint16, 0, 200)
	for p := 1; p <= 200; p++ {
		ports = append(ports, uint16(p))
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Scan(ctx, "127.0.0.1", ports, Tuning{Timeout: time.Second, Workers: 2})

	first := <-ch
	require.Equal(t, StatusClosed, first.Status)
	cancel()

	rest := collect(ch)
	total := 1 + len(rest)
	require.Less(t, total, len(ports))
	require.Equal(t, int(dials.Load()), total, "every started probe still reports")
}

// Scanning [20,21,22,23,25] where only 22 accepts yields one open result and
// four closed or filtered results.
func TestScan_FivePortScenario(t *testing.T) {
	s := quietScanner(WithDialer(func(ctx context.Context, network, address string, timeout time.Duration) (net.Conn, error) {
		_, port, _ := net.SplitHostPort(address)
		switch port {
		case "22":
			return pipeConn("SSH-2.0-OpenSSH_9.6\r\n"), nil
		case "23":
			return nil, &net.OpError{Op: "dial", Net: network, Err: timeoutError{}}
		default:
			return nil, refusedErr(address)
		}
	}))

	ports := []uint16{20, 21, 22, 23, 25}
	results := collect(s.Scan(context.Background(), "198.51.100.7", ports, Tune(len(ports))))
	require.Len(t, results, 5)

	var open []Result
	others := 0
	for _, r := range results {
		switch r.Status {
		case StatusOpen:
			open = append(open, r)
		case StatusClosed, StatusFiltered:
			others++
		}
	}
	require.Len(t, open, 1)
	require.Equal(t, uint16(22), open[0].Port)
	require.Equal(t, "SSH-2.0-OpenSSH_9.6", open[0].Banner)
	require.Equal(t, 4, others)
}

func TestScan_LocalListenerEndToEnd(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	closedLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	closedPort := portOf(t, closedLn.Addr().String())
	require.NoError(t, closedLn.Close())

	openPort := portOf(t, ln.Addr().String())
	s := quietScanner(WithBannerTimeout(20 * time.Millisecond))
	results := collect(s.Scan(context.Background(), "127.0.0.1", []uint16{openPort, closedPort}, Tune(2)))
	require.Len(t, results, 2)

	byPort := map[uint16]Status{}
	for _, r := range results {
		byPort[r.Port] = r.Status
	}
	require.Equal(t, StatusOpen, byPort[openPort])
	require.Equal(t, StatusClosed, byPort[closedPort])
}
