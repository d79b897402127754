// Copyright 2025 checkport Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package subscribers

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/Mohammed-el-Amine/check-port/pkg/output"
)

// bannerWidth is the number of banner characters shown next to an open port.
const bannerWidth = 50

var (
	// Info style - normal messages
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")) // Green

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")). // Red
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")). // Yellow
			Bold(true)

	// Header style - section headers (## Remediation: port 22)
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("105")). // Purple
			Bold(true)

	portStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // Cyan

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")) // Light gray

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("62")). // Blue
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				Padding(0, 1)

	// Risk cells in the open-port table
	riskStyles = map[string]lipgloss.Style{
		"high":   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		"medium": lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		"low":    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
)

// HumanFormatter renders human-friendly output (tables, colors, progress
// lines). Used for the text output format.
type HumanFormatter struct {
	stdout       io.Writer
	stderr       io.Writer
	colorEnabled bool
	hideProgress bool
}

// NewHumanFormatter creates a new HumanFormatter subscriber.
func NewHumanFormatter(stdout, stderr io.Writer, colorEnabled bool) *HumanFormatter {
	return &HumanFormatter{
		stdout:       stdout,
		stderr:       stderr,
		colorEnabled: colorEnabled,
	}
}

// WithoutProgress suppresses periodic progress lines, for use alongside a
// progress bar.
func (s *HumanFormatter) WithoutProgress() *HumanFormatter {
	s.hideProgress = true
	return s
}

// Name returns the subscriber identifier.
func (s *HumanFormatter) Name() string {
	return "human-formatter"
}

// ShouldHandle decides if this subscriber cares about the event.
// Diagnostics belong to DiagnosticSubscriber and ticks to the progress bar.
func (s *HumanFormatter) ShouldHandle(event output.OutputEvent) bool {
	switch event.Type {
	case output.EventDiag, output.EventTick:
		return false
	case output.EventProgress:
		return !s.hideProgress
	}
	return true
}

// Handle processes an output event and renders it in human-friendly format.
func (s *HumanFormatter) Handle(event output.OutputEvent) {
	switch event.Type {
	case output.EventInfo:
		s.printInfo(event.Message)

	case output.EventError:
		s.printError(event.Message)

	case output.EventWarning:
		s.printWarning(event.Message)

	case output.EventTable:
		if data, ok := event.Data.(map[string]any); ok {
			headers, _ := data["headers"].([]string)
			rows, _ := data["rows"].([][]string)
			s.printTable(headers, rows)
		}

	case output.EventProgress:
		if data, ok := event.Data.(map[string]any); ok {
			current, _ := data["current"].(int)
			total, _ := data["total"].(int)
			s.printProgress(current, total, event.Message)
		}

	case output.EventPortOpen:
		if data, ok := event.Data.(map[string]any); ok {
			port, _ := data["port"].(uint16)
			banner, _ := data["banner"].(string)
			s.printPortOpen(port, banner)
		}
	}
}

func (s *HumanFormatter) printInfo(message string) {
	if !s.colorEnabled {
		_, _ = fmt.Fprintln(s.stdout, message)
		return
	}

	var styled string
	switch {
	case strings.HasPrefix(message, "##"):
		styled = headerStyle.Render(message)

	case strings.HasPrefix(message, "---"):
		styled = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")). // Gray
			Render(message)

	case strings.HasPrefix(message, "Starting scan"), strings.HasPrefix(message, "Scan finished"):
		styled = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true).
			Render(message)

	case strings.HasPrefix(message, "Ports to scan"),
		strings.HasPrefix(message, "Configuration"),
		strings.HasPrefix(message, "Average rate"):
		styled = dimStyle.Render(message)

	default:
		styled = infoStyle.Render(message)
	}

	_, _ = fmt.Fprintln(s.stdout, styled)
}

func (s *HumanFormatter) printError(message string) {
	if !s.colorEnabled {
		_, _ = fmt.Fprintf(s.stderr, "Error: %s\n", message)
		return
	}
	_, _ = fmt.Fprintln(s.stderr, errorStyle.Render("Error: "+message))
}

func (s *HumanFormatter) printWarning(message string) {
	if !s.colorEnabled {
		_, _ = fmt.Fprintf(s.stdout, "Warning: %s\n", message)
		return
	}
	_, _ = fmt.Fprintln(s.stdout, warningStyle.Render("Warning: "+message))
}

func (s *HumanFormatter) printTable(headers []string, rows [][]string) {
	if !s.colorEnabled {
		w := tabwriter.NewWriter(s.stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
		for _, row := range rows {
			_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		_ = w.Flush()
		return
	}

	w := tabwriter.NewWriter(s.stdout, 0, 0, 3, ' ', 0)

	headerLine := make([]string, len(headers))
	for i, h := range headers {
		headerLine[i] = tableHeaderStyle.Render(strings.ToUpper(h))
	}
	_, _ = fmt.Fprintln(w, strings.Join(headerLine, "\t"))

	for _, row := range rows {
		styledRow := make([]string, len(row))
		for i, cell := range row {
			styledRow[i] = cell
			if i == 0 {
				styledRow[i] = portStyle.Render(cell)
			} else if style, ok := riskStyles[cell]; ok {
				styledRow[i] = style.Render(cell)
			}
		}
		_, _ = fmt.Fprintln(w, strings.Join(styledRow, "\t"))
	}

	_ = w.Flush()
}

// printProgress renders "Progress: s/n (p.p%) - <message>".
func (s *HumanFormatter) printProgress(current, total int, message string) {
	if total <= 0 {
		return
	}
	line := fmt.Sprintf("Progress: %d/%d (%.1f%%)", current, total, float64(current)/float64(total)*100)
	if message != "" {
		line += " - " + message
	}
	if s.colorEnabled {
		line = dimStyle.Render(line)
	}
	_, _ = fmt.Fprintln(s.stdout, line)
}

func (s *HumanFormatter) printPortOpen(port uint16, banner string) {
	line := fmt.Sprintf("port %d is OPEN", port)
	if banner = truncate(banner, bannerWidth); banner != "" {
		line += " - " + banner
	}
	if s.colorEnabled {
		line = portStyle.Render(line)
	}
	_, _ = fmt.Fprintln(s.stdout, line)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
