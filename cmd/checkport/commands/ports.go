package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Mohammed-el-Amine/check-port/pkg/procinfo"
	"github.com/Mohammed-el-Amine/check-port/pkg/scan"
	"github.com/Mohammed-el-Amine/check-port/pkg/scanexec"
	"github.com/Mohammed-el-Amine/check-port/pkg/services"
)

// PortView is one open port enriched for display.
type PortView struct {
	Port      uint16              `json:"port" yaml:"port"`
	Service   services.Info       `json:"service" yaml:"service"`
	Risk      services.Assessment `json:"risk" yaml:"risk"`
	Analysis  services.Analysis   `json:"analysis" yaml:"analysis"`
	Banner    string              `json:"banner,omitempty" yaml:"banner,omitempty"`
	Processes []procinfo.Process  `json:"processes" yaml:"processes"`
}

// ScanDocument is the json/yaml rendering of a scan.
type ScanDocument struct {
	Report *scanexec.Report `json:"report" yaml:"report"`
	Ports  []PortView       `json:"ports" yaml:"ports"`
}

// buildPortViews enriches the visible open ports. Processes are looked up
// only for local targets; lookup failures leave the list empty.
func buildPortViews(ctx context.Context, results []scan.Result, local bool, finder procinfo.Finder) []PortView {
	logger := log.With().Str("component", "cli.ports").Logger()
	views := make([]PortView, 0, len(results))
	for _, r := range results {
		info := services.Lookup(r.Port)
		procs := []procinfo.Process{}
		if local && finder != nil {
			found, err := finder.FindListening(ctx, r.Port)
			switch {
			case errors.Is(err, procinfo.ErrUnsupported):
				logger.Debug().Msg("process lookup unsupported on this platform")
			case err != nil:
				logger.Warn().Err(err).Uint16("port", r.Port).Msg("process lookup failed")
			default:
				procs = found
			}
		}
		owners := make([]string, 0, len(procs))
		for _, p := range procs {
			owners = append(owners, p.User)
		}
		views = append(views, PortView{
			Port:      r.Port,
			Service:   info,
			Risk:      services.Classify(r.Port, info, owners, r.Banner),
			Analysis:  services.Analyze(r.Port),
			Banner:    r.Banner,
			Processes: procs,
		})
	}
	return views
}

var portTableHeaders = []string{"PORT", "SERVICE", "RISK", "PROCESSES", "DESCRIPTION"}

func portTableRows(views []PortView) [][]string {
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{
			strconv.Itoa(int(v.Port)),
			v.Service.Name,
			string(v.Risk.Level),
			processList(v.Processes),
			v.Risk.Reason,
		})
	}
	return rows
}

func processList(procs []procinfo.Process) string {
	if len(procs) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(procs))
	for _, p := range procs {
		parts = append(parts, fmt.Sprintf("%s(%d)", p.Name, p.PID))
	}
	return strings.Join(parts, ", ")
}
