package scanexec

import (
	"context"
	"errors"

	"github.com/Mohammed-el-Amine/check-port/pkg/portspec"
)

var (
	// ErrNoTarget is returned when no target was supplied.
	ErrNoTarget = errors.New("no target specified")
	// ErrResolveTarget wraps DNS failures. No socket is opened when it is
	// returned.
	ErrResolveTarget = errors.New("cannot resolve target")
)

// Stable error codes surfaced by the CLI and the HTTP API.
const (
	CodeNoTarget      = "NO_TARGET"
	CodeInvalidPorts  = "INVALID_PORT_SPEC"
	CodeResolveFailed = "RESOLVE_FAILED"
	CodeCanceled      = "CANCELED"
	CodeScanFailed    = "SCAN_FAILED"
)

// ErrorCode maps err to one of the stable error codes. A nil error yields "".
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoTarget):
		return CodeNoTarget
	case errors.Is(err, portspec.ErrInvalidSpec):
		return CodeInvalidPorts
	case errors.Is(err, ErrResolveTarget):
		return CodeResolveFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCanceled
	}
	return CodeScanFailed
}
