// Copyright 2025 checkport Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package subscribers

import (
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/Mohammed-el-Amine/check-port/pkg/output"
)

// ProgressBar draws a terminal progress bar driven by EventTick. It clears
// itself before any line another subscriber prints, so subscribe it before
// the HumanFormatter.
type ProgressBar struct {
	writer io.Writer
	color  bool
	bar    *progressbar.ProgressBar
	done   bool
}

// NewProgressBar creates a bar that draws on w once the first tick arrives.
func NewProgressBar(w io.Writer, colorEnabled bool) *ProgressBar {
	return &ProgressBar{writer: w, color: colorEnabled}
}

// Name returns the subscriber identifier.
func (p *ProgressBar) Name() string {
	return "progress-bar"
}

// ShouldHandle accepts ticks plus every event that prints a line.
func (p *ProgressBar) ShouldHandle(event output.OutputEvent) bool {
	switch event.Type {
	case output.EventTick, output.EventPortOpen, output.EventInfo, output.EventWarning, output.EventError, output.EventTable:
		return true
	}
	return false
}

// Handle advances or clears the bar.
func (p *ProgressBar) Handle(event output.OutputEvent) {
	if event.Type != output.EventTick {
		if p.bar != nil && !p.done {
			_ = p.bar.Clear()
		}
		return
	}

	data, ok := event.Data.(map[string]any)
	if !ok {
		return
	}
	current, _ := data["current"].(int)
	total, _ := data["total"].(int)
	if p.done {
		return
	}
	if p.bar == nil {
		if total <= 0 {
			return
		}
		p.bar = p.newBar(total)
	}
	_ = p.bar.Set(current)
	if current >= total {
		p.Finish()
	}
}

// Finish leaves the bar at its last position and moves to a fresh line. A
// canceled scan therefore keeps a partial bar. It is safe to call more than
// once and before any tick.
func (p *ProgressBar) Finish() {
	if p.bar == nil || p.done {
		return
	}
	p.done = true
	_, _ = io.WriteString(p.writer, "\n")
}

func (p *ProgressBar) newBar(total int) *progressbar.ProgressBar {
	description := "Scanning"
	theme := progressbar.Theme{
		Saucer:        "=",
		SaucerHead:    ">",
		SaucerPadding: " ",
		BarStart:      "[",
		BarEnd:        "]",
	}
	if p.color {
		description = "[cyan]Scanning[reset]"
		theme.Saucer = "[green]=[reset]"
		theme.SaucerHead = "[green]>[reset]"
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionEnableColorCodes(p.color),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(theme),
	)
}
