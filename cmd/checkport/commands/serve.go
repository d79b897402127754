package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Mohammed-el-Amine/check-port/cmd/checkport/internal/bind"
	"github.com/Mohammed-el-Amine/check-port/cmd/checkport/internal/format"
	"github.com/Mohammed-el-Amine/check-port/pkg/scan"
	"github.com/Mohammed-el-Amine/check-port/pkg/server/app"
	"github.com/Mohammed-el-Amine/check-port/pkg/server/deps"
	"github.com/Mohammed-el-Amine/check-port/pkg/server/jobs"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API for submitting and tracking scans",
		Long: `Starts an HTTP server exposing:

  POST   /api/v1/scans        submit a scan {"target", "ports", "timeout", "workers"}
  GET    /api/v1/scans        list scans (?state=queued|running|completed|failed|canceled)
  GET    /api/v1/scans/{id}   scan status, live progress and report
  DELETE /api/v1/scans/{id}   cancel a scan
  GET    /healthz, /readyz    probes

There is no authentication: bind to a trusted interface.`,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			formatter := format.FromCommand(cmd)

			opts, err := bind.BindServerOptions(cmd, cfg.Server, cfg.Scan)
			if err != nil {
				return formatter.PrintTotalFailureSummary("serve", err, "INVALID_INPUT")
			}

			scanner := scan.New(
				scan.WithBannerTimeout(cfg.Scan.BannerTimeout),
				scan.WithBannerSize(cfg.Scan.BannerSize),
			)
			manager := jobs.NewMemoryManager(
				jobs.ServiceRunner(scanner),
				jobs.WithWorkers(opts.Server.MaxJobs),
				jobs.WithQueueSize(opts.Server.QueueSize),
			)

			logger := log.With().Str("component", "serve").Logger()
			d := deps.New(manager, &logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := app.New(ctx, opts.Server, d, app.WithDefaultPorts(opts.DefaultPorts))
			if err != nil {
				return formatter.PrintTotalFailureSummary("serve", err, "")
			}
			logger.Info().
				Str("addr", opts.Server.ListenAddr()).
				Int("max_jobs", opts.Server.MaxJobs).
				Int("queue_size", opts.Server.QueueSize).
				Msg("Starting checkport API server")
			if err := srv.Run(ctx); err != nil {
				return formatter.PrintTotalFailureSummary("serve", err, "")
			}
			return nil
		},
	}

	cmd.Flags().String("addr", "127.0.0.1", "Listen address")
	cmd.Flags().Int("port", 8080, "Listen port")
	cmd.Flags().Int("max-jobs", 2, "Scans running at once")
	cmd.Flags().Int("queue-size", 16, "Scans waiting to run before submissions are rejected")
	cmd.Flags().String("default-ports", "", "Ports scanned when a request omits them (default: common)")
	return cmd
}
