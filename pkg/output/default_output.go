// Copyright 2025 checkport Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package output

import "time"

// DefaultOutput is the standard implementation of the Output interface.
// It converts method calls into OutputEvent structs and emits them to the stream.
type DefaultOutput struct {
	stream *OutputEventStream
	now    func() time.Time
}

// NewDefaultOutput creates a new DefaultOutput that emits events to the given stream.
func NewDefaultOutput(stream *OutputEventStream) *DefaultOutput {
	return &DefaultOutput{
		stream: stream,
		now:    time.Now,
	}
}

// Info emits a general information message (always visible).
func (o *DefaultOutput) Info(message string) {
	o.emit(OutputEvent{Type: EventInfo, Message: message})
}

// Error emits an error message.
func (o *DefaultOutput) Error(err error) {
	o.emit(OutputEvent{Type: EventError, Message: err.Error()})
}

// Warning emits a warning message.
func (o *DefaultOutput) Warning(message string) {
	o.emit(OutputEvent{Type: EventWarning, Message: message})
}

// Table emits tabular data with headers and rows.
func (o *DefaultOutput) Table(headers []string, rows [][]string) {
	o.emit(OutputEvent{
		Type: EventTable,
		Data: map[string]any{
			"headers": headers,
			"rows":    rows,
		},
	})
}

// Progress emits a periodic progress update.
func (o *DefaultOutput) Progress(current, total int, message string) {
	o.emit(OutputEvent{
		Type:    EventProgress,
		Message: message,
		Data: map[string]any{
			"current": current,
			"total":   total,
		},
	})
}

// Tick records that one more port was probed.
func (o *DefaultOutput) Tick(current, total int) {
	o.emit(OutputEvent{
		Type: EventTick,
		Data: map[string]any{
			"current": current,
			"total":   total,
		},
	})
}

// PortOpen reports an open port.
func (o *DefaultOutput) PortOpen(port uint16, banner string) {
	o.emit(OutputEvent{
		Type: EventPortOpen,
		Data: map[string]any{
			"port":   port,
			"banner": banner,
		},
	})
}

// Diag emits diagnostic information (only visible with -v/-vv/-vvv).
func (o *DefaultOutput) Diag(level OutputLevel, message string, metadata map[string]any) {
	o.emit(OutputEvent{
		Type:     EventDiag,
		Level:    level,
		Message:  message,
		Metadata: metadata,
	})
}

func (o *DefaultOutput) emit(ev OutputEvent) {
	ev.Timestamp = o.now()
	o.stream.Emit(ev)
}
