package remediate

import (
	"fmt"
	"strconv"
	"strings"
)

// FirewallAdvice renders the commands an operator can run on a remote host
// to block ports. Nothing is executed.
func FirewallAdvice(target string, ports []uint16) string {
	if len(ports) == 0 {
		return ""
	}
	list := joinPorts(ports)

	var b strings.Builder
	fmt.Fprintf(&b, "Commands to run ON THE REMOTE HOST\n")
	fmt.Fprintf(&b, "Target: %s ports: %s\n\n", target, list)

	b.WriteString("Windows (PowerShell as Administrator), block with the firewall:\n")
	fmt.Fprintf(&b, "  New-NetFirewallRule -DisplayName \"Block ports %s\" -Direction Inbound -Action Block -Protocol TCP -LocalPort %s\n", list, list)
	b.WriteString("Find and kill the owning process if needed:\n")
	fmt.Fprintf(&b, "  netstat -ano | findstr \":%d\"\n", ports[0])
	b.WriteString("  taskkill /PID <PID> /F\n\n")

	b.WriteString("Linux (as root), UFW:\n")
	fmt.Fprintf(&b, "  sudo ufw deny proto tcp from any to any port %s\n", list)
	b.WriteString("Linux, iptables:\n")
	for _, p := range ports {
		fmt.Fprintf(&b, "  sudo iptables -A INPUT -p tcp --dport %d -j REJECT\n", p)
	}
	b.WriteString("\nNote: blocking at the firewall is preferable to killing critical services.\n")
	return b.String()
}

// ServiceCommands lists the manual commands for managing the service behind
// port, followed by the forced-kill and verification commands.
func ServiceCommands(port uint16, unit string, pids []int) []string {
	var cmds []string
	if unit != "" {
		cmds = append(cmds,
			"sudo systemctl stop "+unit,
			"sudo systemctl disable "+unit,
			"sudo systemctl status "+unit,
		)
	}
	for _, pid := range pids {
		cmds = append(cmds, fmt.Sprintf("sudo kill -9 %d", pid))
	}
	cmds = append(cmds,
		fmt.Sprintf("sudo lsof -i :%d", port),
		fmt.Sprintf("sudo ss -ltnp | grep :%d", port),
	)
	return cmds
}

func joinPorts(ports []uint16) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.Itoa(int(p))
	}
	return strings.Join(parts, ",")
}
