package remediate

import (
	"fmt"
	"strings"
)

// Summary renders one block per outcome in the order given.
func Summary(outcomes []Outcome) string {
	var b strings.Builder
	b.WriteString("Summary:\n")
	for _, o := range outcomes {
		fmt.Fprintf(&b, "  Port %d (%s):\n", o.Port, o.Service)
		switch {
		case o.NothingFound:
			b.WriteString("    no PID found (run with sudo for more details)\n")
		case o.ServiceStopped && o.StillOpen:
			b.WriteString("    service stopped, port still open\n")
		case o.ServiceStopped:
			b.WriteString("    service stopped cleanly\n")
		case o.ServiceError != "":
			fmt.Fprintf(&b, "    service error: %s\n", o.ServiceError)
		case o.Action == ActionSkip:
			b.WriteString("    skipped\n")
		case len(o.Kills) > 0:
			fmt.Fprintf(&b, "    PIDs found: %v\n", o.PIDs)
			for _, k := range o.Kills {
				status := "OK"
				if !k.OK {
					status = "FAIL"
				}
				fmt.Fprintf(&b, "      PID %d -> %s: %s\n", k.PID, status, k.Message)
			}
		default:
			fmt.Fprintf(&b, "    PIDs found: %v (no action)\n", o.PIDs)
		}
	}
	return b.String()
}
