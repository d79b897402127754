package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohammed-el-Amine/check-port/cmd/checkport/internal/format"
	"github.com/Mohammed-el-Amine/check-port/pkg/output"
	"github.com/Mohammed-el-Amine/check-port/pkg/remediate"
	"github.com/Mohammed-el-Amine/check-port/pkg/services"
)

// PortAnalysis is the json/yaml rendering of `checkport analyze`.
type PortAnalysis struct {
	Port     uint16            `json:"port" yaml:"port"`
	Service  services.Info     `json:"service" yaml:"service"`
	Dynamic  bool              `json:"dynamic" yaml:"dynamic"`
	Analysis services.Analysis `json:"analysis" yaml:"analysis"`
	Commands []string          `json:"commands" yaml:"commands"`
}

func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "analyze <ports>",
		Short:   "Describe the services behind ports and how to close them",
		Example: "  checkport analyze 22,631,3306",
		GroupID: "core",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)
			outputFormat, _ := cmd.Flags().GetString("output")
			outputFormat = strings.ToLower(outputFormat)

			ports, err := remediate.ParseSelection(args[0])
			if err != nil {
				return formatter.PrintTotalFailureSummary("analyze", err, "INVALID_INPUT")
			}
			if len(ports) == 0 {
				return formatter.PrintTotalFailureSummary("analyze", fmt.Errorf("no ports given"), "INVALID_INPUT")
			}

			analyses := make([]PortAnalysis, 0, len(ports))
			for _, p := range ports {
				info := services.Lookup(p)
				analyses = append(analyses, PortAnalysis{
					Port:     p,
					Service:  info,
					Dynamic:  services.IsDynamic(p),
					Analysis: services.Analyze(p),
					Commands: remediate.ServiceCommands(p, info.Unit, nil),
				})
			}

			if outputFormat == "json" || outputFormat == "yaml" {
				if err := renderDocument(cmd.OutOrStdout(), outputFormat, analyses); err != nil {
					return formatter.PrintTotalFailureSummary("analyze", err, "")
				}
				return nil
			}

			out := setupOutputPipeline(cmd.OutOrStdout(), cmd.ErrOrStderr(), "text", false, 0, format.ColorEnabled(cmd.OutOrStdout())).out
			for _, a := range analyses {
				printAnalysis(out, a)
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "text", "Output format: text, json, yaml")
	return cmd
}

func printAnalysis(out output.Output, a PortAnalysis) {
	out.Info(fmt.Sprintf("Port %d - %s", a.Port, a.Analysis.Title))
	out.Info(fmt.Sprintf("  Service: %s", a.Service.Name))
	if a.Service.Unit != "" {
		out.Info(fmt.Sprintf("  Unit: %s", a.Service.Unit))
	}
	if a.Service.Package != "" {
		out.Info(fmt.Sprintf("  Package: %s", a.Service.Package))
	}
	out.Info(fmt.Sprintf("  Description: %s", a.Analysis.Description))
	out.Info(fmt.Sprintf("  Risk: %s", a.Analysis.Risk))
	out.Info(fmt.Sprintf("  Advice: %s", a.Analysis.Action))
	out.Info("  Commands:")
	for _, c := range a.Commands {
		out.Info("    " + c)
	}
	out.Info("")
}
