package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Mohammed-el-Amine/check-port/cmd/checkport/internal/bind"
	"github.com/Mohammed-el-Amine/check-port/cmd/checkport/internal/format"
	"github.com/Mohammed-el-Amine/check-port/pkg/netutil"
	"github.com/Mohammed-el-Amine/check-port/pkg/output"
	"github.com/Mohammed-el-Amine/check-port/pkg/procinfo"
	"github.com/Mohammed-el-Amine/check-port/pkg/remediate"
	"github.com/Mohammed-el-Amine/check-port/pkg/scan"
	"github.com/Mohammed-el-Amine/check-port/pkg/scanexec"
)

// scanRuntime holds what runScan needs from the outside world, so tests
// can swap the network, the process finder and the terminal.
type scanRuntime struct {
	stdin       io.Reader
	interactive bool
	scanner     *scan.Scanner
	host        netutil.Host
	finder      procinfo.Finder
	executor    remediate.Executor
}

func newScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [target] [ports]",
		Short: "Scan a host for open TCP ports",
		Long: `Scans target (default 127.0.0.1) for open TCP ports.

Ports accept "common" (default), "all", "top<N>" (1..N) or a list such as
"22,80,8000-8100". Timeout and worker count are derived from the number of
ports unless --timeout or --workers is given.

On a terminal, once the scan finishes you can pick ports to close: local
ports are stopped or killed after confirmation, remote ones get firewall
commands to run on that host.`,
		Example: `  checkport scan
  checkport scan 192.168.1.10 top1000
  checkport scan localhost 22,80,443 -o json
  checkport scan 10.0.0.5 all --bar --workers 800`,
		GroupID: "scan",
		Args:    cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			sys := procinfo.NewSystem()
			scanner := scan.New(
				scan.WithBannerTimeout(cfg.Scan.BannerTimeout),
				scan.WithBannerSize(cfg.Scan.BannerSize),
			)
			executor := remediate.Executor{
				Finder:      sys,
				Killer:      sys,
				Stopper:     sys,
				SettleDelay: cfg.Remediate.SettleDelay,
			}
			rt := scanRuntime{
				stdin:       cmd.InOrStdin(),
				interactive: stdinIsTerminal(cmd.InOrStdin()),
				scanner:     scanner,
				host:        netutil.System(),
				finder:      sys,
				executor:    executor,
			}
			return runScan(cmd, args, rt)
		},
	}

	cmd.Flags().StringP("ports", "p", "", "Ports to scan when not given as an argument (common, all, top<N>, 22,80,8000-8100)")
	cmd.Flags().StringP("output", "o", "text", "Output format: text, json, yaml, jsonl")
	cmd.Flags().Duration("timeout", 0, "Connect timeout per port (default: derived from the port count)")
	cmd.Flags().Int("workers", 0, "Concurrent connection attempts (default: derived from the port count)")
	cmd.Flags().Duration("banner-timeout", scan.DefaultBannerTimeout, "How long to wait for a service banner")
	cmd.Flags().Bool("show-dynamic", false, "Include ephemeral ports (32768-65535) in the results table")
	cmd.Flags().Bool("bar", false, "Show a progress bar instead of progress lines")
	cmd.Flags().Bool("no-interactive", false, "Never prompt to close ports after the scan")
	cmd.Flags().Duration("settle-delay", remediate.DefaultSettleDelay, "Pause before re-checking a port after stopping its service")
	cmd.Flags().String("lock-dir", "", "Directory of the remediation lock file (default: temp dir)")

	return cmd
}

func stdinIsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func runScan(cmd *cobra.Command, args []string, rt scanRuntime) error {
	cfg := configFrom(cmd)
	formatter := format.FromCommand(cmd)
	logger := log.With().Str("command", "scan").Logger()

	opts, err := bind.BindScanOptions(cmd, args, cfg.Scan)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to bind scan options")
		return formatter.PrintTotalFailureSummary("scan", err, "INVALID_INPUT")
	}
	params := opts.Params

	verbosity, _ := cmd.Flags().GetCount("verbosity")
	pipe := setupOutputPipeline(cmd.OutOrStdout(), cmd.ErrOrStderr(), params.OutputFormat, opts.Bar, verbosity, format.ColorEnabled(cmd.OutOrStdout()))
	out := pipe.out

	out.Diag(output.LevelVerbose, "Initializing scan command", map[string]any{
		"target": params.Target,
		"ports":  params.Ports,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := scanexec.NewService().
		WithScanner(rt.scanner).
		WithHost(rt.host).
		WithProgressSink(&progressSink{logger: logger, out: out, ticks: opts.Bar})

	report, err := svc.Run(ctx, params)
	pipe.finish()
	if err != nil {
		logger.Error().Err(err).Msg("Scan execution failed")
		return formatter.PrintTotalFailureSummary("scan", err, scanexec.ErrorCode(err))
	}

	visible := report.Visible(params.ShowDynamic)
	views := buildPortViews(context.WithoutCancel(ctx), visible, report.Local, rt.finder)

	switch params.OutputFormat {
	case "json", "yaml":
		doc := ScanDocument{Report: report, Ports: views}
		if err := renderDocument(cmd.OutOrStdout(), params.OutputFormat, doc); err != nil {
			return formatter.PrintTotalFailureSummary("scan", err, scanexec.CodeScanFailed)
		}
		return nil
	case "jsonl":
		out.Table(portTableHeaders, portTableRows(views))
		return nil
	}

	printScanSummary(out, report, views)

	if !opts.Interactive || !rt.interactive || len(report.Open) == 0 || report.Canceled {
		return nil
	}
	open := make([]uint16, 0, len(report.Open))
	for _, res := range report.Open {
		open = append(open, res.Port)
	}
	r := newRemediator(rt.stdin, cmd.OutOrStdout(), rt.finder, rt.executor, cfg.Remediate.LockDir)
	if _, err := r.run(ctx, report.Target, report.Local, open); err != nil {
		logger.Error().Err(err).Msg("Remediation failed")
		out.Error(err)
	}
	return nil
}

func printScanSummary(out output.Output, report *scanexec.Report, views []PortView) {
	if report.Canceled {
		out.Warning(fmt.Sprintf("Scan interrupted after %d/%d ports", report.Scanned, report.Total))
	}
	out.Info(fmt.Sprintf("Scan finished in %.2fs", report.Elapsed.Seconds()))
	out.Info(fmt.Sprintf("Average rate: %.0f ports/s", report.Rate))

	hidden := len(report.Open) - len(views)
	if len(views) == 0 {
		out.Info("No open ports found")
	} else {
		out.Info(fmt.Sprintf("\nOpen ports on %s (%s):", report.Target, report.IP))
		out.Table(portTableHeaders, portTableRows(views))
	}
	if hidden > 0 {
		out.Info(fmt.Sprintf("%d dynamic port(s) hidden, use --show-dynamic to list them", hidden))
	}
}
