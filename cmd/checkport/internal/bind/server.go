package bind

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohammed-el-Amine/check-port/pkg/config"
	"github.com/Mohammed-el-Amine/check-port/pkg/portspec"
)

// ServerOptions configures `checkport serve`.
type ServerOptions struct {
	Server config.ServerConfig
	// DefaultPorts is used for scan requests that omit ports.
	DefaultPorts string
}

// BindServerOptions validates the server section of the merged config.
// --addr, --port and --max-jobs are already merged into cfg; --queue-size
// and --default-ports are read here.
func BindServerOptions(cmd *cobra.Command, cfg config.ServerConfig, scanDefaults config.ScanConfig) (ServerOptions, error) {
	if f := cmd.Flags().Lookup("queue-size"); f != nil && f.Changed {
		cfg.QueueSize, _ = cmd.Flags().GetInt("queue-size")
	}
	defaultPorts := scanDefaults.Ports
	if f := cmd.Flags().Lookup("default-ports"); f != nil && f.Changed {
		defaultPorts, _ = cmd.Flags().GetString("default-ports")
	}

	switch {
	case cfg.MaxJobs < 1:
		return ServerOptions{}, fmt.Errorf("max-jobs must be at least 1, got %d", cfg.MaxJobs)
	case cfg.QueueSize < 1:
		return ServerOptions{}, fmt.Errorf("queue-size must be at least 1, got %d", cfg.QueueSize)
	}
	if _, err := portspec.Resolve(defaultPorts); err != nil {
		return ServerOptions{}, fmt.Errorf("default ports: %w", err)
	}

	return ServerOptions{Server: cfg, DefaultPorts: defaultPorts}, nil
}
