package remediate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		in      string
		want    []uint16
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "   ", want: nil},
		{in: "445,135,139", want: []uint16{135, 139, 445}},
		{in: " 22 , 22 ,,80 ", want: []uint16{22, 80}},
		{in: "135,abc", wantErr: true},
		{in: "70000", wantErr: true},
		{in: "0", wantErr: true},
		{in: "-1", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseSelection(tt.in)
		if tt.wantErr {
			require.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestIsConfirmation(t *testing.T) {
	for _, yes := range []string{"o", "oui", "y", "yes", "YES", " Oui\n"} {
		assert.True(t, IsConfirmation(yes), yes)
	}
	for _, no := range []string{"", "n", "no", "non", "yep", "1"} {
		assert.False(t, IsConfirmation(no), no)
	}
}

func TestFirewallAdvice(t *testing.T) {
	advice := FirewallAdvice("192.168.1.50", []uint16{135, 445})

	assert.Contains(t, advice, "Target: 192.168.1.50 ports: 135,445")
	assert.Contains(t, advice, `New-NetFirewallRule -DisplayName "Block ports 135,445" -Direction Inbound -Action Block -Protocol TCP -LocalPort 135,445`)
	assert.Contains(t, advice, `netstat -ano | findstr ":135"`)
	assert.Contains(t, advice, "taskkill /PID <PID> /F")
	assert.Contains(t, advice, "sudo ufw deny proto tcp from any to any port 135,445")
	assert.Contains(t, advice, "sudo iptables -A INPUT -p tcp --dport 135 -j REJECT")
	assert.Contains(t, advice, "sudo iptables -A INPUT -p tcp --dport 445 -j REJECT")
	assert.Equal(t, 2, strings.Count(advice, "iptables -A INPUT"))

	assert.Empty(t, FirewallAdvice("192.168.1.50", nil))
}

func TestServiceCommands(t *testing.T) {
	cmds := ServiceCommands(631, "cups", []int{977})
	assert.Equal(t, []string{
		"sudo systemctl stop cups",
		"sudo systemctl disable cups",
		"sudo systemctl status cups",
		"sudo kill -9 977",
		"sudo lsof -i :631",
		"sudo ss -ltnp | grep :631",
	}, cmds)

	assert.Len(t, ServiceCommands(3389, "", nil), 2)
}

func TestAcquireLock(t *testing.T) {
	dir := t.TempDir()

	first, err := AcquireLock(dir)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(first.Path(), LockFile))

	_, err = AcquireLock(dir)
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Release())

	again, err := AcquireLock(dir)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestSummary(t *testing.T) {
	out := Summary([]Outcome{
		{Port: 22, Service: "SSH", NothingFound: true},
		{Port: 631, Service: "CUPS", PIDs: []int{977}, ServiceStopped: true},
		{Port: 80, Service: "HTTP", PIDs: []int{10}, ServiceStopped: true, StillOpen: true},
		{Port: 443, Service: "HTTPS", ServiceError: "unit not found"},
		{Port: 3306, Service: "MySQL", Action: ActionSkip},
		{Port: 3389, Service: "RDP", PIDs: []int{5, 6}, Kills: []KillResult{
			{PID: 5, OK: true, Message: "killed"},
			{PID: 6, OK: false, Message: "no such process"},
		}},
		{Port: 5900, Service: "VNC", PIDs: []int{7}, Declined: true, Action: ActionKill},
	})

	assert.Contains(t, out, "Port 22 (SSH):\n    no PID found")
	assert.Contains(t, out, "Port 631 (CUPS):\n    service stopped cleanly")
	assert.Contains(t, out, "Port 80 (HTTP):\n    service stopped, port still open")
	assert.Contains(t, out, "service error: unit not found")
	assert.Contains(t, out, "Port 3306 (MySQL):\n    skipped")
	assert.Contains(t, out, "PID 5 -> OK: killed")
	assert.Contains(t, out, "PID 6 -> FAIL: no such process")
	assert.Contains(t, out, "PIDs found: [7] (no action)")
}
