package services

import (
	"fmt"
	"slices"
	"strings"
)

// Risk is a coarse severity used in operator-facing output.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// Analysis is a curated note about a port, shown before closing it.
type Analysis struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Risk        Risk   `json:"risk" yaml:"risk"`
	Action      string `json:"action" yaml:"action"`
}

var notes = map[uint16]Analysis{
	22: {
		Title:       "SSH (Secure Shell)",
		Description: "Secure remote access",
		Risk:        RiskMedium,
		Action:      "Do not close while an SSH session is active",
	},
	631: {
		Title:       "CUPS (Common Unix Printing System)",
		Description: "Print server with a web interface on http://localhost:631",
		Risk:        RiskLow,
		Action:      "Can be stopped when no printers are used",
	},
	3306: {
		Title:       "MySQL/MariaDB",
		Description: "Database server",
		Risk:        RiskHigh,
		Action:      "Stopping it abruptly risks data corruption",
	},
	11434: {
		Title:       "Ollama (local LLM server)",
		Description: "Language model API on http://localhost:11434",
		Risk:        RiskLow,
		Action:      "Can be stopped when unused",
	},
}

// Analyze returns the curated note for port, a note for ephemeral ports, or a
// generic fallback.
func Analyze(port uint16) Analysis {
	if a, ok := notes[port]; ok {
		return a
	}
	if IsDynamic(port) {
		return Analysis{
			Title:       fmt.Sprintf("Dynamic port %d", port),
			Description: "Port assigned temporarily by the operating system",
			Risk:        RiskLow,
			Action:      "Can be closed; it reopens automatically when needed",
		}
	}
	return Analysis{
		Title:       fmt.Sprintf("Service on port %d", port),
		Description: "Unidentified service",
		Risk:        RiskMedium,
		Action:      "Identify the service before closing it",
	}
}

// Assessment is the outcome of Classify.
type Assessment struct {
	Level  Risk   `json:"level" yaml:"level"`
	Reason string `json:"reason" yaml:"reason"`
}

func (a Assessment) String() string {
	return fmt.Sprintf("%s (%s)", a.Level, a.Reason)
}

var (
	remotePorts    = []uint16{22, 23, 3389, 5900}
	webPorts       = []uint16{80, 443, 8080, 8443}
	databasePorts  = []uint16{1433, 1521, 3306, 5432, 6379, 27017}
	mailPorts      = []uint16{25, 110, 143, 587, 993, 995}
	filesharePorts = []uint16{139, 445}
	plaintextPorts = []uint16{21, 23, 69}

	rootUsers = []string{"root", "0", "administrator"}
)

// Classify rates an open port from its number, its service name, the users
// owning the listening processes and the banner it returned. Rules are
// evaluated in order and the first match wins.
func Classify(port uint16, info Info, owners []string, banner string) Assessment {
	if IsDynamic(port) {
		return Assessment{Level: RiskLow, Reason: "dynamic"}
	}

	service := strings.ToLower(info.Name)
	b := strings.ToLower(banner)

	root := slices.ContainsFunc(owners, func(u string) bool {
		return slices.Contains(rootUsers, strings.ToLower(u))
	})

	httpBanner := strings.Contains(b, "http/") || (strings.Contains(b, "server:") && strings.Contains(b, "http"))
	sshBanner := strings.HasPrefix(b, "ssh-") || strings.Contains(b, "openssh")

	switch {
	case slices.Contains(remotePorts, port) || strings.Contains(service, "ssh") || sshBanner:
		reason := "remote access"
		if root {
			reason += ", root"
		}
		return Assessment{Level: RiskHigh, Reason: reason}

	case slices.Contains(webPorts, port) || strings.Contains(service, "http") || httpBanner:
		reason := "web, HTTP"
		if port == 443 || port == 8443 || strings.Contains(service, "https") ||
			strings.Contains(b, "ssl") || strings.Contains(b, "tls") {
			reason = "web, HTTPS"
		}
		if root {
			return Assessment{Level: RiskHigh, Reason: reason + ", root process"}
		}
		return Assessment{Level: RiskMedium, Reason: reason}

	case slices.Contains(databasePorts, port) || containsAny(service, "mysql", "postgres", "mongodb", "redis", "mssql", "oracle"):
		return Assessment{Level: RiskHigh, Reason: "database"}

	case slices.Contains(mailPorts, port) || containsAny(service, "smtp", "imap", "pop3"):
		return Assessment{Level: RiskMedium, Reason: "mail, check authentication and relaying"}

	case slices.Contains(filesharePorts, port) || containsAny(service, "smb", "cifs"):
		return Assessment{Level: RiskHigh, Reason: "file sharing"}

	case slices.Contains(plaintextPorts, port) || containsAny(service, "telnet", "ftp", "tftp"):
		return Assessment{Level: RiskHigh, Reason: "cleartext protocol"}

	case port < 1024:
		if info.Known() {
			return Assessment{Level: RiskMedium, Reason: "privileged, " + info.Name}
		}
		return Assessment{Level: RiskMedium, Reason: "privileged port"}

	case !info.Known():
		return Assessment{Level: RiskHigh, Reason: "unknown service"}
	}

	return Assessment{Level: RiskLow, Reason: "service"}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
