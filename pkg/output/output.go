// Copyright 2025 checkport Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package output

import "time"

// OutputEventType defines the type of output event.
type OutputEventType string

const (
	// EventInfo represents a general information message (always visible)
	EventInfo OutputEventType = "info"

	// EventError represents an error message
	EventError OutputEventType = "error"

	// EventWarning represents a warning message
	EventWarning OutputEventType = "warning"

	// EventTable represents tabular data output
	EventTable OutputEventType = "table"

	// EventProgress represents a periodic progress line (rate and ETA)
	EventProgress OutputEventType = "progress"

	// EventTick is emitted once per probed port. Only progress bars use it.
	EventTick OutputEventType = "tick"

	// EventPortOpen reports one open port as soon as it is found
	EventPortOpen OutputEventType = "port_open"

	// EventDiag represents diagnostic information (only visible with -v/-vv/-vvv)
	EventDiag OutputEventType = "diag"
)

// OutputLevel defines the verbosity level for diagnostic messages.
type OutputLevel int

const (
	// LevelNormal is the default level (always shown)
	LevelNormal OutputLevel = 0

	// LevelVerbose is shown with -v flag
	LevelVerbose OutputLevel = 1

	// LevelDebug is shown with -vv flag
	LevelDebug OutputLevel = 2

	// LevelTrace is shown with -vvv flag
	LevelTrace OutputLevel = 3
)

// OutputEvent represents a single output event emitted by command logic.
type OutputEvent struct {
	// Type identifies the event category (info, error, table, etc.)
	Type OutputEventType

	// Level specifies verbosity level (only used for EventDiag)
	Level OutputLevel

	// Message is the primary text content
	Message string

	// Data contains structured data (table headers/rows, progress counters, port details)
	Data any

	// Metadata holds additional key-value pairs for diagnostic events
	Metadata map[string]any

	// Timestamp records when the event was created
	Timestamp time.Time
}

// Output is the interface commands use to emit output events without
// knowing how they are rendered (human-friendly, JSON lines, progress bar).
type Output interface {
	// Info emits a general information message (always visible).
	// Example: out.Info("Starting scan on localhost (127.0.0.1)")
	Info(message string)

	// Error emits an error message.
	Error(err error)

	// Warning emits a warning message.
	// Example: out.Warning("remediation lock held by another session")
	Warning(message string)

	// Table emits tabular data with headers and rows.
	// Example: out.Table([]string{"Port", "Service"}, [][]string{{"22", "SSH"}})
	Table(headers []string, rows [][]string)

	// Progress emits a periodic progress update.
	// Example: out.Progress(2000, 65535, "Speed: 1500 ports/s - ETA: 42s")
	Progress(current, total int, message string)

	// Tick records that one more port was probed.
	Tick(current, total int)

	// PortOpen reports an open port and its banner, if any.
	PortOpen(port uint16, banner string)

	// Diag emits diagnostic information (only visible with -v/-vv/-vvv).
	// Example: out.Diag(LevelVerbose, "Tuning", map[string]any{"workers": 500})
	Diag(level OutputLevel, message string, metadata map[string]any)
}
