package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohammed-el-Amine/check-port/cmd/checkport/internal/format"
	"github.com/Mohammed-el-Amine/check-port/pkg/services"
)

func newServicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "services",
		Short:   "List the known port to service mappings",
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)
			outputFormat, _ := cmd.Flags().GetString("output")
			outputFormat = strings.ToLower(outputFormat)

			all := services.All()
			if outputFormat == "json" || outputFormat == "yaml" {
				if err := renderDocument(cmd.OutOrStdout(), outputFormat, all); err != nil {
					return formatter.PrintTotalFailureSummary("services", err, "")
				}
				return nil
			}

			rows := make([][]string, 0, len(all))
			for _, s := range all {
				rows = append(rows, []string{strconv.Itoa(int(s.Port)), s.Name, orDash(s.Unit), orDash(s.Package)})
			}
			out := setupOutputPipeline(cmd.OutOrStdout(), cmd.ErrOrStderr(), "text", false, 0, format.ColorEnabled(cmd.OutOrStdout())).out
			out.Table([]string{"PORT", "SERVICE", "UNIT", "PACKAGE"}, rows)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "text", "Output format: text, json, yaml")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
