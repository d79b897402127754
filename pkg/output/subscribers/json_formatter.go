// Copyright 2025 checkport Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package subscribers

import (
	"encoding/json"
	"io"
	"time"

	"github.com/Mohammed-el-Amine/check-port/pkg/output"
)

// JSONFormatter emits structured output for the jsonl format.
//
// Output format: One JSON object per line (JSON Lines format).
type JSONFormatter struct {
	encoder *json.Encoder
}

// NewJSONFormatter creates a new JSONFormatter subscriber.
func NewJSONFormatter(writer io.Writer) *JSONFormatter {
	return &JSONFormatter{
		encoder: json.NewEncoder(writer),
	}
}

// Name returns the subscriber identifier.
func (s *JSONFormatter) Name() string {
	return "json-formatter"
}

// ShouldHandle decides if this subscriber cares about the event.
// Diagnostics go to DiagnosticSubscriber; per-port ticks are too chatty for
// a line-oriented log.
func (s *JSONFormatter) ShouldHandle(event output.OutputEvent) bool {
	return event.Type != output.EventDiag && event.Type != output.EventTick
}

// Handle processes an output event and renders it as JSON.
func (s *JSONFormatter) Handle(event output.OutputEvent) {
	jsonEvent := map[string]any{
		"type":      event.Type,
		"timestamp": event.Timestamp.Format(time.RFC3339),
	}

	if event.Message != "" {
		jsonEvent["message"] = event.Message
	}

	if event.Data != nil {
		jsonEvent["data"] = event.Data
	}

	if len(event.Metadata) > 0 {
		jsonEvent["metadata"] = event.Metadata
	}

	// Subscribers cannot propagate errors; a broken pipe drops the event.
	_ = s.encoder.Encode(jsonEvent)
}
