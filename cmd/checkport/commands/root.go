package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Mohammed-el-Amine/check-port/pkg/config"
)

const cliExecutable = "checkport"

type configKey struct{}

// NewCommand constructs the top-level checkport CLI command: global flags,
// configuration loading and logger setup shared by every subcommand.
func NewCommand() *cobra.Command {
	var (
		configFile     string
		verbosityCount int
		verbose        bool
		logCloser      io.Closer
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "checkport finds open TCP ports and helps close them",
		Long: `checkport scans a host for open TCP ports, names the services behind
them, rates their exposure and, on the local machine, offers to stop the
owning service or kill the listening processes.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			mgr := config.NewManager()
			if err := mgr.Load(cmd.Flags(), configFile); err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			cfg := mgr.Get()

			closer, err := setupLogging(cfg.Log, verbosityCount, verbose, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			logCloser = closer

			log.Debug().
				Str("config_file", configFile).
				Str("log_level", cfg.Log.Level).
				Msg("configuration loaded")

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().CountVarP(&verbosityCount, "verbosity", "v", "Increase logging verbosity (repeatable)")
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging (shows service layer logs)")

	config.BindFlags(cmd.PersistentFlags())

	cmd.AddGroup(&cobra.Group{ID: "scan", Title: "Scan Commands"})
	cmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands"})

	cmd.AddCommand(newScanCommand())
	cmd.AddCommand(newAnalyzeCommand())
	cmd.AddCommand(newServicesCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newVersionCommand(cliExecutable))

	return cmd
}

// configFrom returns the configuration loaded by the root command, or the
// built-in defaults when none was loaded.
func configFrom(cmd *cobra.Command) config.Config {
	ctx := cmd.Context()
	if ctx == nil && cmd.Root() != nil {
		ctx = cmd.Root().Context()
	}
	if ctx != nil {
		if cfg, ok := ctx.Value(configKey{}).(config.Config); ok {
			return cfg
		}
	}
	return config.DefaultConfig()
}
