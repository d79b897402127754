package procinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLsofPIDs(t *testing.T) {
	out := []byte("812\n\n 1033 \nnot-a-pid\n")
	assert.Equal(t, []int{812, 1033}, ParseLsofPIDs(out))
	assert.Empty(t, ParseLsofPIDs(nil))
}

func TestParseSSPIDs(t *testing.T) {
	out := []byte(`State  Recv-Q Send-Q Local Address:Port  Peer Address:Port Process
LISTEN 0      128          0.0.0.0:22         0.0.0.0:*     users:(("sshd",pid=812,fd=3))
LISTEN 0      128             [::]:22            [::]:*     users:(("sshd",pid=812,fd=4))
LISTEN 0      4096       127.0.0.1:631        0.0.0.0:*     users:(("cupsd",pid=977,fd=7),("cupsd",pid=978,fd=7))
LISTEN 0      511          0.0.0.0:2222       0.0.0.0:*     users:(("dropbear",pid=1500,fd=3))
LISTEN 0      511          0.0.0.0:8080       0.0.0.0:*
`)

	assert.Equal(t, []int{812, 812}, ParseSSPIDs(out, 22))
	assert.Equal(t, []int{977, 978}, ParseSSPIDs(out, 631))
	assert.Equal(t, []int{1500}, ParseSSPIDs(out, 2222))
	assert.Empty(t, ParseSSPIDs(out, 8080))
	assert.Empty(t, ParseSSPIDs(out, 2))
}

func TestParseNetstatPIDs(t *testing.T) {
	out := []byte(`
Active Connections

  Proto  Local Address          Foreign Address        State           PID
  TCP    0.0.0.0:135            0.0.0.0:0              LISTENING       1044
  TCP    0.0.0.0:3389           0.0.0.0:0              LISTENING       1288
  TCP    [::]:135               [::]:0                 LISTENING       1044
  TCP    192.168.1.36:13500     52.1.2.3:443           ESTABLISHED     4410
  UDP    0.0.0.0:500            *:*                                    3920
`)

	assert.Equal(t, []int{1044, 1044}, ParseNetstatPIDs(out, 135))
	assert.Equal(t, []int{1288}, ParseNetstatPIDs(out, 3389))
	assert.Equal(t, []int{3920}, ParseNetstatPIDs(out, 500))
	assert.Empty(t, ParseNetstatPIDs(out, 443))
	assert.Empty(t, ParseNetstatPIDs(out, 1350))
}

func TestParsePS(t *testing.T) {
	p, ok := ParsePS([]byte("  812 root     sshd            sshd: /usr/sbin/sshd -D [listener]\n"))
	require.True(t, ok)
	assert.Equal(t, Process{PID: 812, User: "root", Name: "sshd", Command: "sshd: /usr/sbin/sshd -D [listener]"}, p)

	p, ok = ParsePS([]byte("977 lp cupsd\n"))
	require.True(t, ok)
	assert.Equal(t, "cupsd", p.Command)

	_, ok = ParsePS([]byte(""))
	assert.False(t, ok)
}

func TestParseTasklist(t *testing.T) {
	p, ok := ParseTasklist([]byte(`"svchost.exe","1044","Services","0","12,340 K"` + "\r\n"))
	require.True(t, ok)
	assert.Equal(t, 1044, p.PID)
	assert.Equal(t, "svchost.exe", p.Name)
	assert.Equal(t, "unknown", p.User)

	_, ok = ParseTasklist([]byte("INFO: No tasks are running which match the specified criteria.\r\n"))
	assert.False(t, ok)
}

func TestParseProcNetTCP(t *testing.T) {
	out := []byte(`  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode
   0: 00000000:0016 00000000:0000 0A 00000000:00000000 00:00000000 00000000     0        0 23456 1 0000000000000000 100 0 0 10 0
   1: 0100007F:0277 00000000:0000 0A 00000000:00000000 00:00000000 00000000     0        0 34567 1 0000000000000000 100 0 0 10 0
   2: 2401A8C0:0016 0F01A8C0:D431 01 00000000:00000000 02:000A7B3C 00000000     0        0 45678 4 0000000000000000 20 4 30 10 -1
`)

	assert.Equal(t, []uint64{23456}, ParseProcNetTCP(out, 22))
	assert.Equal(t, []uint64{34567}, ParseProcNetTCP(out, 631))
	assert.Empty(t, ParseProcNetTCP(out, 80))
}

func TestParseStatusUID(t *testing.T) {
	uid, ok := ParseStatusUID([]byte("Name:\tsshd\nUid:\t0\t0\t0\t0\nGid:\t0\t0\t0\t0\n"))
	require.True(t, ok)
	assert.Equal(t, "0", uid)

	_, ok = ParseStatusUID([]byte("Name:\tsshd\n"))
	assert.False(t, ok)
}

func TestParseCmdline(t *testing.T) {
	assert.Equal(t, "/usr/sbin/cupsd -l", ParseCmdline([]byte("/usr/sbin/cupsd\x00-l\x00")))
	assert.Equal(t, "", ParseCmdline(nil))
}
