// Copyright 2025 checkport Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package subscribers

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/Mohammed-el-Amine/check-port/pkg/output"
)

// DiagnosticSubscriber prints EventDiag messages up to a verbosity level.
type DiagnosticSubscriber struct {
	level  output.OutputLevel
	writer io.Writer
}

// NewDiagnosticSubscriber creates a subscriber that shows diagnostics whose
// level is at most level.
func NewDiagnosticSubscriber(level output.OutputLevel, w io.Writer) *DiagnosticSubscriber {
	return &DiagnosticSubscriber{level: level, writer: w}
}

// Name returns the subscriber identifier.
func (s *DiagnosticSubscriber) Name() string {
	return "diagnostic-subscriber"
}

// ShouldHandle accepts diagnostic events within the configured level.
func (s *DiagnosticSubscriber) ShouldHandle(event output.OutputEvent) bool {
	return event.Type == output.EventDiag && event.Level <= s.level
}

// Handle writes "[LEVEL] hh:mm:ss message key:value ...".
func (s *DiagnosticSubscriber) Handle(event output.OutputEvent) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s %s", levelTag(event.Level), event.Timestamp.Format("15:04:05"), event.Message)
	for _, k := range slices.Sorted(maps.Keys(event.Metadata)) {
		fmt.Fprintf(&b, " %s:%v", k, event.Metadata[k])
	}
	b.WriteByte('\n')
	_, _ = io.WriteString(s.writer, b.String())
}

func levelTag(l output.OutputLevel) string {
	switch l {
	case output.LevelVerbose:
		return "VERBOSE"
	case output.LevelDebug:
		return "DEBUG"
	case output.LevelTrace:
		return "TRACE"
	}
	return "INFO"
}
