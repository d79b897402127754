// Package portspec turns user supplied port specifications into concrete,
// sorted and de-duplicated port sets.
//
// Accepted forms:
//
//	""            curated common ports
//	"common"      curated common ports
//	"all"         1-65535
//	"top<N>"      1-N (N defaults to 1000, clamped to 65535)
//	"22,80,1-5"   comma separated ports and inclusive ranges
package portspec

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const (
	// MaxPort is the highest valid TCP port number.
	MaxPort = 65535

	defaultTop = 1000
)

// ErrInvalidSpec is matched by every error returned for a malformed spec.
var ErrInvalidSpec = errors.New("invalid port specification")

// InvalidSpecError reports the token that could not be parsed.
type InvalidSpecError struct {
	Token string
	Err   error
}

func (e *InvalidSpecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid port token %q: %v", e.Token, e.Err)
	}
	return fmt.Sprintf("invalid port token %q", e.Token)
}

func (e *InvalidSpecError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrInvalidSpec) match any InvalidSpecError.
func (e *InvalidSpecError) Is(target error) bool { return target == ErrInvalidSpec }

var commonPorts = []uint16{
	21, 22, 23, 25, 53, 80, 88, 110, 111, 123, 135, 139, 143, 161, 389, 443,
	445, 465, 514, 631, 993, 995, 1433, 1521, 3306, 3389, 5900, 8080, 8443, 8000,
}

// Common returns the curated list of well-known service ports, sorted.
func Common() []uint16 {
	ports := slices.Clone(commonPorts)
	slices.Sort(ports)
	return ports
}

// Resolve expands spec into a strictly ascending set of ports.
//
// Malformed list tokens fail the whole call with an *InvalidSpecError. A
// non-numeric "top" suffix is not an error and falls back to the first 1000
// ports.
func Resolve(spec string) ([]uint16, error) {
	spec = strings.TrimSpace(spec)
	lower := strings.ToLower(spec)

	switch {
	case lower == "" || lower == "common":
		return Common(), nil
	case lower == "all":
		return span(1, MaxPort), nil
	case strings.HasPrefix(lower, "top"):
		return span(1, topCount(lower[len("top"):])), nil
	}

	seen := make(map[int]struct{})
	for part := range strings.SplitSeq(spec, ",") {
		token := strings.TrimSpace(part)
		if token == "" {
			return nil, &InvalidSpecError{Token: part, Err: errors.New("empty token")}
		}

		start, end, err := parseToken(token)
		if err != nil {
			return nil, &InvalidSpecError{Token: token, Err: err}
		}
		// Out-of-range values are dropped, not rejected.
		start = max(start, 0)
		end = min(end, MaxPort)
		for p := start; p <= end; p++ {
			seen[p] = struct{}{}
		}
	}

	ports := make([]uint16, 0, len(seen))
	for p := range seen {
		ports = append(ports, uint16(p))
	}
	slices.Sort(ports)
	return ports, nil
}

func parseToken(token string) (int, int, error) {
	// A leading '-' belongs to a negative number, not a range separator.
	if idx := strings.Index(token[1:], "-"); idx >= 0 {
		idx++
		startStr := strings.TrimSpace(token[:idx])
		endStr := strings.TrimSpace(token[idx+1:])
		start, err := strconv.Atoi(startStr)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid range start %q", startStr)
		}
		end, err := strconv.Atoi(endStr)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid range end %q", endStr)
		}
		return start, end, nil
	}

	port, err := strconv.Atoi(token)
	if err != nil {
		return 0, 0, fmt.Errorf("not a port number")
	}
	return port, port, nil
}

func topCount(suffix string) int {
	if suffix == "" {
		return defaultTop
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return defaultTop
	}
	return min(max(n, 0), MaxPort)
}

func span(from, to int) []uint16 {
	if to < from {
		return []uint16{}
	}
	ports := make([]uint16, 0, to-from+1)
	for p := from; p <= to; p++ {
		ports = append(ports, uint16(p))
	}
	return ports
}
