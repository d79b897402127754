// Package bind turns cobra flags, positional arguments and the merged
// configuration into validated service-layer options.
package bind

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohammed-el-Amine/check-port/pkg/config"
	"github.com/Mohammed-el-Amine/check-port/pkg/scanexec"
)

// ErrInvalidOutputFormat is returned for an unknown --output value.
var ErrInvalidOutputFormat = errors.New("invalid output format")

// OutputFormats lists the accepted --output values.
var OutputFormats = []string{"text", "json", "yaml", "jsonl"}

// ScanOptions is everything the scan command needs besides the config.
type ScanOptions struct {
	Params scanexec.Params
	// Bar replaces progress lines with a progress bar. Text output only.
	Bar bool
	// Interactive offers to close ports after the scan.
	Interactive bool
}

// BindScanOptions extracts and validates scan command input.
//
// Positional arguments are [target] [ports]. A missing target falls back to
// scan.default_target and missing ports to --ports, then scan.ports.
// Timeout, workers and show-dynamic come from the merged configuration,
// which already includes any flags the user set.
//
// Flags read:
//   - --ports: port-set specification
//   - --output: text, json, yaml or jsonl
//   - --bar: draw a progress bar
//   - --no-interactive: never prompt after the scan
func BindScanOptions(cmd *cobra.Command, args []string, defaults config.ScanConfig) (ScanOptions, error) {
	portsFlag, _ := cmd.Flags().GetString("ports")
	output, _ := cmd.Flags().GetString("output")
	bar, _ := cmd.Flags().GetBool("bar")
	noInteractive, _ := cmd.Flags().GetBool("no-interactive")

	output = strings.ToLower(strings.TrimSpace(output))
	if output == "" {
		output = "text"
	}
	if !slices.Contains(OutputFormats, output) {
		return ScanOptions{}, fmt.Errorf("%w %q (want one of %s)", ErrInvalidOutputFormat, output, strings.Join(OutputFormats, ", "))
	}

	target := defaults.DefaultTarget
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		target = args[0]
	}

	ports := defaults.Ports
	switch {
	case len(args) > 1:
		ports = args[1]
	case portsFlag != "":
		ports = portsFlag
	}

	return ScanOptions{
		Params: scanexec.Params{
			Target:       target,
			Ports:        ports,
			Timeout:      defaults.Timeout,
			Workers:      defaults.Workers,
			ShowDynamic:  defaults.ShowDynamic,
			OutputFormat: output,
		},
		Bar:         bar && output == "text",
		Interactive: !noInteractive && output == "text",
	}, nil
}
