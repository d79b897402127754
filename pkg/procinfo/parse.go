package procinfo

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ssPID = regexp.MustCompile(`pid=(\d+),`)

// tcpListen is the kernel's TCP_LISTEN state in /proc/net/tcp.
const tcpListen = "0A"

// ParseLsofPIDs parses the output of `lsof -t`, one PID per line.
func ParseLsofPIDs(out []byte) []int {
	var pids []int
	for line := range lines(out) {
		if pid, err := strconv.Atoi(line); err == nil {
			pids = append(pids, pid)
		}
	}
	return pids
}

// ParseSSPIDs extracts the PIDs of `ss -ltnp` rows whose local address ends
// in :port.
func ParseSSPIDs(out []byte, port uint16) []int {
	suffix := fmt.Sprintf(":%d", port)
	var pids []int
	for line := range lines(out) {
		fields := strings.Fields(line)
		if len(fields) < 4 || !strings.HasSuffix(fields[3], suffix) {
			continue
		}
		for _, m := range ssPID.FindAllStringSubmatch(line, -1) {
			if pid, err := strconv.Atoi(m[1]); err == nil {
				pids = append(pids, pid)
			}
		}
	}
	return pids
}

// ParseNetstatPIDs extracts PIDs from `netstat -ano` rows whose local address
// uses port. The PID is the last column.
func ParseNetstatPIDs(out []byte, port uint16) []int {
	colon := fmt.Sprintf(":%d", port)
	dot := fmt.Sprintf(".%d", port)
	var pids []int
	for line := range lines(out) {
		if strings.HasPrefix(strings.ToLower(line), "proto") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		// Proto, Local Address, Foreign Address, [State,] PID
		local := fields[1]
		if !strings.HasSuffix(local, colon) && !strings.HasSuffix(local, dot) {
			continue
		}
		if pid, err := strconv.Atoi(fields[len(fields)-1]); err == nil {
			pids = append(pids, pid)
		}
	}
	return pids
}

// ParsePS parses `ps -p <pid> -o pid=,user=,comm=,args=` output.
func ParsePS(out []byte) (Process, bool) {
	for line := range lines(out) {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		p := Process{PID: pid, User: fields[1], Name: fields[2], Command: fields[2]}
		if len(fields) > 3 {
			p.Command = strings.Join(fields[3:], " ")
		}
		return p, true
	}
	return Process{}, false
}

// ParseTasklist parses `tasklist /FO CSV /NH` output:
// "Image Name","PID","Session Name","Session#","Mem Usage".
func ParseTasklist(out []byte) (Process, bool) {
	r := csv.NewReader(bytes.NewReader(out))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return Process{}, false
	}
	for _, rec := range records {
		if len(rec) < 2 {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSpace(rec[1]))
		if err != nil {
			continue
		}
		return Process{PID: pid, Name: rec[0], User: unknown, Command: rec[0]}, true
	}
	return Process{}, false
}

// ParseProcNetTCP returns the socket inodes listening on port in the content
// of /proc/net/tcp or /proc/net/tcp6.
func ParseProcNetTCP(out []byte, port uint16) []uint64 {
	hexPort := fmt.Sprintf("%04X", port)
	var inodes []uint64
	for line := range lines(out) {
		fields := strings.Fields(line)
		// sl local_address rem_address st tx:rx tr:when retrnsmt uid timeout inode
		if len(fields) < 10 || fields[0] == "sl" {
			continue
		}
		_, localPort, ok := strings.Cut(fields[1], ":")
		if !ok || !strings.EqualFold(localPort, hexPort) || fields[3] != tcpListen {
			continue
		}
		if inode, err := strconv.ParseUint(fields[9], 10, 64); err == nil && inode != 0 {
			inodes = append(inodes, inode)
		}
	}
	return inodes
}

// ParseStatusUID returns the real UID from /proc/<pid>/status.
func ParseStatusUID(out []byte) (string, bool) {
	for line := range lines(out) {
		rest, ok := strings.CutPrefix(line, "Uid:")
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return "", false
		}
		return fields[0], true
	}
	return "", false
}

// ParseCmdline joins the NUL-separated arguments of /proc/<pid>/cmdline.
func ParseCmdline(out []byte) string {
	args := strings.Split(strings.TrimRight(string(out), "\x00"), "\x00")
	return strings.TrimSpace(strings.Join(args, " "))
}

// lines yields the trimmed, non-empty lines of out.
func lines(out []byte) func(yield func(string) bool) {
	return func(yield func(string) bool) {
		sc := bufio.NewScanner(bytes.NewReader(out))
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
}
