package scanexec

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Mohammed-el-Amine/check-port/pkg/netutil"
	"github.com/Mohammed-el-Amine/check-port/pkg/portspec"
	"github.com/Mohammed-el-Amine/check-port/pkg/scan"
	"github.com/Mohammed-el-Amine/check-port/pkg/services"
)

// Progress phases.
const (
	PhaseScan     = "scan"
	PhaseProbe    = "probe"
	PhaseResult   = "result"
	PhaseProgress = "progress"
)

// Scan phase statuses.
const (
	StatusStart     = "start"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

// ProgressSink receives progress notifications while a scan runs.
type ProgressSink interface {
	OnEvent(ProgressEvent)
}

// ProgressEvent is one notification. Which fields are set depends on Phase:
// scan/start carries the target and tuning, probe carries every recorded
// result with the running count, result carries one open port and progress
// carries a periodic Snapshot.
type ProgressEvent struct {
	Phase     string
	Status    string
	Message   string
	ScanID    string
	Target    string
	IP        string
	Total     int
	Tuning    scan.Tuning
	Result    scan.Result
	Progress  Snapshot
	Timestamp time.Time
}

// Report is the outcome of one scan run.
type Report struct {
	ID        string        `json:"id" yaml:"id"`
	Target    string        `json:"target" yaml:"target"`
	IP        string        `json:"ip" yaml:"ip"`
	Local     bool          `json:"local" yaml:"local"`
	Total     int           `json:"total" yaml:"total"`
	Scanned   int           `json:"scanned" yaml:"scanned"`
	Tuning    scan.Tuning   `json:"tuning" yaml:"tuning"`
	Open      []scan.Result `json:"open" yaml:"open"`
	Canceled  bool          `json:"canceled" yaml:"canceled"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
	// Rate is the average number of ports probed per second.
	Rate float64 `json:"rate" yaml:"rate"`
}

// Visible returns the open ports to display. Ephemeral ports are hidden
// unless showDynamic is set.
func (r *Report) Visible(showDynamic bool) []scan.Result {
	if showDynamic {
		return slices.Clone(r.Open)
	}
	out := make([]scan.Result, 0, len(r.Open))
	for _, res := range r.Open {
		if !services.IsDynamic(res.Port) {
			out = append(out, res)
		}
	}
	return out
}

// Service orchestrates a scan run: port-set and target resolution, tuning,
// execution and aggregation.
type Service struct {
	scanner      *scan.Scanner
	host         netutil.Host
	progressSink ProgressSink
	now          func() time.Time
}

// NewService builds a Service with default dependencies.
func NewService() *Service {
	return &Service{
		scanner: scan.New(),
		host:    netutil.System(),
		now:     time.Now,
	}
}

// WithProgressSink attaches a sink to receive progress notifications.
func (s *Service) WithProgressSink(sink ProgressSink) *Service {
	s.progressSink = sink
	return s
}

// WithScanner replaces the scan engine.
func (s *Service) WithScanner(sc *scan.Scanner) *Service {
	s.scanner = sc
	return s
}

// WithHost replaces target resolution and locality lookups.
func (s *Service) WithHost(h netutil.Host) *Service {
	s.host = h
	return s
}

// Run executes one scan. Port-set and target resolution failures are fatal
// and happen before any socket is opened. Cancelling ctx stops submission of
// new ports; the returned report is then flagged Canceled and err is nil.
func (s *Service) Run(ctx context.Context, params Params) (*Report, error) {
	logger := log.With().Str("component", "scanexec").Logger()

	target := strings.TrimSpace(params.Target)
	if target == "" {
		return nil, ErrNoTarget
	}

	ports, err := portspec.Resolve(params.Ports)
	if err != nil {
		return nil, fmt.Errorf("resolve ports: %w", err)
	}

	ip, err := s.host.ResolveTarget(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrResolveTarget, target, err)
	}

	tuning := scan.Tune(len(ports))
	if params.Timeout > 0 {
		tuning.Timeout = params.Timeout
	}
	if params.Workers > 0 {
		tuning.Workers = params.Workers
	}

	job := scan.Start(ctx, s.scanner, ip, ports, tuning)
	report := &Report{
		ID:        job.ID(),
		Target:    target,
		IP:        ip,
		Total:     len(ports),
		Tuning:    tuning,
		StartedAt: s.now(),
	}
	logger = logger.With().Str("scan_id", report.ID).Logger()
	logger.Info().
		Str("target", target).
		Str("ip", ip).
		Int("ports", len(ports)).
		Str("mode", tuning.Mode).
		Dur("timeout", tuning.Timeout).
		Int("workers", tuning.Workers).
		Msg("Scan started")

	s.emit(ProgressEvent{
		Phase:  PhaseScan,
		Status: StatusStart,
		ScanID: report.ID,
		Target: target,
		IP:     ip,
		Total:  len(ports),
		Tuning: tuning,
	})

	agg := newAggregator(len(ports), s.now)
	for r := range job.Results() {
		// Late results after a cancel are drained but not recorded.
		if ctx.Err() != nil {
			continue
		}
		snap, due := agg.Add(r)
		s.emit(ProgressEvent{
			Phase:    PhaseProbe,
			ScanID:   report.ID,
			Result:   r,
			Progress: Snapshot{Scanned: agg.Scanned(), Total: len(ports)},
		})
		if r.Status == scan.StatusOpen {
			s.emit(ProgressEvent{Phase: PhaseResult, ScanID: report.ID, Result: r})
		}
		if due {
			s.emit(ProgressEvent{Phase: PhaseProgress, ScanID: report.ID, Progress: snap})
		}
	}
	<-job.Done()

	report.Open = agg.Open()
	report.Scanned = agg.Scanned()
	report.Canceled = job.Canceled()
	report.Elapsed = s.now().Sub(report.StartedAt)
	if secs := report.Elapsed.Seconds(); secs > 0 {
		report.Rate = float64(report.Scanned) / secs
	}
	report.Local = s.host.IsLocal(context.WithoutCancel(ctx), ip)

	status := StatusCompleted
	if report.Canceled {
		status = StatusCanceled
	}
	logger.Info().
		Str("status", status).
		Int("open", len(report.Open)).
		Int("scanned", report.Scanned).
		Dur("elapsed", report.Elapsed).
		Msg("Scan finished")
	s.emit(ProgressEvent{
		Phase:   PhaseScan,
		Status:  status,
		ScanID:  report.ID,
		Target:  target,
		IP:      ip,
		Total:   len(ports),
		Message: fmt.Sprintf("%d open", len(report.Open)),
	})

	return report, nil
}

func (s *Service) emit(ev ProgressEvent) {
	if s.progressSink == nil {
		return
	}
	ev.Timestamp = s.now()
	s.progressSink.OnEvent(ev)
}
