package bind

import (
	"fmt"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/Mohammed-el-Amine/check-port/pkg/config"
	"github.com/Mohammed-el-Amine/check-port/pkg/scanexec"
)

func TestBindScanOptions(t *testing.T) {
	defaults := config.DefaultScanConfig()
	defaults.Timeout = 2 * time.Second
	defaults.Workers = 40

	tests := []struct {
		name    string
		args    []string
		flags   map[string]any
		want    ScanOptions
		wantErr bool
	}{
		{
			name: "defaults",
			want: ScanOptions{
				Params: scanexec.Params{
					Target:       "127.0.0.1",
					Timeout:      2 * time.Second,
					Workers:      40,
					OutputFormat: "text",
				},
				Interactive: true,
			},
		},
		{
			name: "positional target and ports",
			args: []string{"scanme.example", "22,80"},
			flags: map[string]any{
				"ports": "1-10", // positional wins
				"bar":   true,
			},
			want: ScanOptions{
				Params: scanexec.Params{
					Target:       "scanme.example",
					Ports:        "22,80",
					Timeout:      2 * time.Second,
					Workers:      40,
					OutputFormat: "text",
				},
				Bar:         true,
				Interactive: true,
			},
		},
		{
			name:  "ports flag when no positional ports",
			args:  []string{"10.0.0.1"},
			flags: map[string]any{"ports": "top100", "no-interactive": true},
			want: ScanOptions{
				Params: scanexec.Params{
					Target:       "10.0.0.1",
					Ports:        "top100",
					Timeout:      2 * time.Second,
					Workers:      40,
					OutputFormat: "text",
				},
			},
		},
		{
			name:  "machine output disables bar and prompts",
			args:  []string{"10.0.0.1", "all"},
			flags: map[string]any{"output": "JSON", "bar": true},
			want: ScanOptions{
				Params: scanexec.Params{
					Target:       "10.0.0.1",
					Ports:        "all",
					Timeout:      2 * time.Second,
					Workers:      40,
					OutputFormat: "json",
				},
			},
		},
		{
			name:    "unknown output",
			flags:   map[string]any{"output": "xml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := setupScanCommand(tt.flags)
			got, err := BindScanOptions(cmd, tt.args, defaults)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidOutputFormat)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestBindScanOptions_ShowDynamicFromConfig(t *testing.T) {
	defaults := config.DefaultScanConfig()
	defaults.ShowDynamic = true
	defaults.Ports = "common"

	got, err := BindScanOptions(setupScanCommand(nil), nil, defaults)
	require.NoError(t, err)
	require.True(t, got.Params.ShowDynamic)
	require.Equal(t, "common", got.Params.Ports)
}

// setupScanCommand creates a command with the scan flags set to values.
func setupScanCommand(flags map[string]any) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("ports", "", "Ports")
	cmd.Flags().StringP("output", "o", "text", "Output format")
	cmd.Flags().Bool("bar", false, "Progress bar")
	cmd.Flags().Bool("no-interactive", false, "No prompts")

	for name, value := range flags {
		_ = cmd.Flags().Set(name, fmt.Sprint(value))
	}
	return cmd
}
