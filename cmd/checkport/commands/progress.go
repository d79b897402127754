package commands

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Mohammed-el-Amine/check-port/pkg/output"
	"github.com/Mohammed-el-Amine/check-port/pkg/scanexec"
)

// progressSink turns scan progress events into output events.
type progressSink struct {
	logger zerolog.Logger
	out    output.Output
	ticks  bool
}

func (p *progressSink) OnEvent(ev scanexec.ProgressEvent) {
	switch ev.Phase {
	case scanexec.PhaseScan:
		p.logger.Debug().
			Str("scan_id", ev.ScanID).
			Str("status", ev.Status).
			Int("total", ev.Total).
			Msg("scan progress")
		if ev.Status != scanexec.StatusStart {
			return
		}
		p.out.Info(fmt.Sprintf("Starting scan on %s (%s)", ev.Target, ev.IP))
		p.out.Info(fmt.Sprintf("Ports to scan: %d", ev.Total))
		p.out.Info(fmt.Sprintf("Configuration: timeout=%gs, workers=%d", ev.Tuning.Timeout.Seconds(), ev.Tuning.Workers))
		p.out.Diag(output.LevelVerbose, "Tuning selected", map[string]any{
			"mode":    ev.Tuning.Mode,
			"timeout": ev.Tuning.Timeout.String(),
			"workers": ev.Tuning.Workers,
		})

	case scanexec.PhaseProbe:
		if p.ticks {
			p.out.Tick(ev.Progress.Scanned, ev.Progress.Total)
		}
		p.out.Diag(output.LevelTrace, "Probe", map[string]any{
			"port":   ev.Result.Port,
			"status": string(ev.Result.Status),
		})

	case scanexec.PhaseResult:
		p.out.PortOpen(ev.Result.Port, ev.Result.Banner)

	case scanexec.PhaseProgress:
		snap := ev.Progress
		p.out.Progress(snap.Scanned, snap.Total,
			fmt.Sprintf("Speed: %.0f ports/s - ETA: %.0fs", snap.Rate, snap.ETA.Seconds()))
	}
}
