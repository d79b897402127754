// Package format renders command failures for humans or machines.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Formatter prints the outcome of a failed command.
type Formatter interface {
	// PrintTotalFailureSummary reports that op failed entirely and returns
	// a ReportedError wrapping err.
	PrintTotalFailureSummary(op string, err error, code string) error
}

// ReportedError marks an error that was already shown to the user.
type ReportedError struct {
	Err error
}

func (e *ReportedError) Error() string { return e.Err.Error() }
func (e *ReportedError) Unwrap() error { return e.Err }

// Failure is the machine-readable failure document.
type Failure struct {
	Operation string `json:"operation"`
	Status    string `json:"status"`
	Code      string `json:"code,omitempty"`
	Error     string `json:"error"`
}

type humanFormatter struct {
	w     io.Writer
	style lipgloss.Style
	color bool
}

type jsonFormatter struct {
	w io.Writer
}

// New returns a JSON formatter writing to w when machine is set, otherwise a
// human formatter writing to w.
func New(w io.Writer, machine, color bool) Formatter {
	if machine {
		return jsonFormatter{w: w}
	}
	return humanFormatter{
		w:     w,
		color: color,
		style: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}
}

// FromCommand picks the formatter matching the command's --output flag.
// Machine formats write to stdout; text goes to stderr.
func FromCommand(cmd *cobra.Command) Formatter {
	output := "text"
	if f := cmd.Flags().Lookup("output"); f != nil {
		output = strings.ToLower(f.Value.String())
	}
	if output != "text" {
		return New(cmd.OutOrStdout(), true, false)
	}
	return New(cmd.ErrOrStderr(), false, ColorEnabled(cmd.ErrOrStderr()))
}

// ColorEnabled reports whether w is a terminal and NO_COLOR is unset.
func ColorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (h humanFormatter) PrintTotalFailureSummary(op string, err error, code string) error {
	head := fmt.Sprintf("%s failed", op)
	if h.color {
		head = h.style.Render(head)
	}
	if code != "" {
		fmt.Fprintf(h.w, "%s [%s]: %v\n", head, code, err)
	} else {
		fmt.Fprintf(h.w, "%s: %v\n", head, err)
	}
	return &ReportedError{Err: err}
}

func (j jsonFormatter) PrintTotalFailureSummary(op string, err error, code string) error {
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(Failure{
		Operation: op,
		Status:    "failed",
		Code:      code,
		Error:     err.Error(),
	})
	return &ReportedError{Err: err}
}
