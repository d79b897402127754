package remediate

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var confirmations = []string{"o", "oui", "y", "yes"}

// IsConfirmation reports whether input is an affirmative answer.
func IsConfirmation(input string) bool {
	return slices.Contains(confirmations, strings.ToLower(strings.TrimSpace(input)))
}

// ParseSelection parses the comma-separated list of ports the operator wants
// closed. Blank input selects nothing. The result is sorted and deduplicated.
func ParseSelection(input string) ([]uint16, error) {
	var ports []uint16
	for part := range strings.SplitSeq(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseUint(part, 10, 16)
		if err != nil || n == 0 {
			return nil, fmt.Errorf("invalid port %q, expected e.g. 135,139,445", part)
		}
		ports = append(ports, uint16(n))
	}
	slices.Sort(ports)
	return slices.Compact(ports), nil
}
