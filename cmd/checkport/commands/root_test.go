package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mohammed-el-Amine/check-port/pkg/config"
)

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestRoot_RegistersCommands(t *testing.T) {
	cmd := NewCommand()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"scan", "analyze", "services", "serve", "version"} {
		require.True(t, names[want], "missing command %s", want)
	}
	require.NotNil(t, cmd.PersistentFlags().Lookup("debug"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestVersionCommand(t *testing.T) {
	out, err := executeRoot(t, "version")
	require.NoError(t, err)
	require.Contains(t, out, "checkport dev")
}

func TestServicesCommand(t *testing.T) {
	out, err := executeRoot(t, "services")
	require.NoError(t, err)
	require.Contains(t, out, "PORT")
	require.Contains(t, out, "SSH")
	require.Contains(t, out, "openssh-server")
}

func TestServicesCommand_JSON(t *testing.T) {
	out, err := executeRoot(t, "services", "-o", "json")
	require.NoError(t, err)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.NotEmpty(t, entries)
}

func TestAnalyzeCommand(t *testing.T) {
	out, err := executeRoot(t, "analyze", "3306,22")
	require.NoError(t, err)
	require.Contains(t, out, "Port 22 - SSH (Secure Shell)")
	require.Contains(t, out, "Port 3306 - MySQL/MariaDB")
	require.Contains(t, out, "sudo systemctl stop mysql")
	require.Less(t, bytes.Index([]byte(out), []byte("Port 22")), bytes.Index([]byte(out), []byte("Port 3306")))
}

func TestAnalyzeCommand_InvalidPorts(t *testing.T) {
	_, err := executeRoot(t, "analyze", "22,http")
	require.Error(t, err)
}

func TestConfigFrom_DefaultsWithoutLoad(t *testing.T) {
	require.Equal(t, config.DefaultConfig(), configFrom(newScanCommand()))
}
