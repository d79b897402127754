package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		port uint16
		want Info
	}{
		{22, Info{Port: 22, Name: "SSH", Unit: "ssh", Package: "openssh-server"}},
		{631, Info{Port: 631, Name: "CUPS", Unit: "cups", Package: "cups"}},
		{3389, Info{Port: 3389, Name: "RDP"}},
		{27017, Info{Port: 27017, Name: "MongoDB", Unit: "mongod", Package: "mongodb"}},
		{4000, Info{Port: 4000, Name: NameUnknown}},
		{32768, Info{Port: 32768, Name: NameDynamic}},
		{50070, Info{Port: 50070, Name: NameDynamic}},
		{65535, Info{Port: 65535, Name: NameDynamic}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Lookup(tt.port), "port %d", tt.port)
	}
}

func TestIsDynamic(t *testing.T) {
	assert.False(t, IsDynamic(32767))
	assert.True(t, IsDynamic(32768))
	assert.True(t, IsDynamic(65535))
	assert.False(t, IsDynamic(22))
}

func TestAll_SortedAndComplete(t *testing.T) {
	all := All()
	require.Len(t, all, len(table))
	for i := 1; i < len(all); i++ {
		require.Less(t, all[i-1].Port, all[i].Port)
	}
	assert.Equal(t, uint16(20), all[0].Port)
}

func TestInfo_Known(t *testing.T) {
	assert.True(t, Lookup(80).Known())
	assert.False(t, Lookup(4000).Known())
	assert.False(t, Lookup(40000).Known())
}

func TestAnalyze(t *testing.T) {
	assert.Equal(t, RiskHigh, Analyze(3306).Risk)
	assert.Equal(t, "CUPS (Common Unix Printing System)", Analyze(631).Title)

	dyn := Analyze(40000)
	assert.Equal(t, "Dynamic port 40000", dyn.Title)
	assert.Equal(t, RiskLow, dyn.Risk)

	generic := Analyze(4000)
	assert.Equal(t, "Service on port 4000", generic.Title)
	assert.Equal(t, "Identify the service before closing it", generic.Action)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		port   uint16
		owners []string
		banner string
		level  Risk
		reason string
	}{
		{name: "dynamic wins", port: 40000, owners: []string{"root"}, level: RiskLow, reason: "dynamic"},
		{name: "ssh", port: 22, level: RiskHigh, reason: "remote access"},
		{name: "ssh as root", port: 22, owners: []string{"root"}, level: RiskHigh, reason: "remote access, root"},
		{name: "ssh banner on odd port", port: 2222, banner: "SSH-2.0-OpenSSH_9.6", level: RiskHigh, reason: "remote access"},
		{name: "http", port: 80, level: RiskMedium, reason: "web, HTTP"},
		{name: "https", port: 443, level: RiskMedium, reason: "web, HTTPS"},
		{name: "http root", port: 8080, owners: []string{"Administrator"}, level: RiskHigh, reason: "web, HTTP, root process"},
		{name: "http banner", port: 4000, banner: "HTTP/1.1 200 OK", level: RiskMedium, reason: "web, HTTP"},
		{name: "database", port: 5432, level: RiskHigh, reason: "database"},
		{name: "mail", port: 25, level: RiskMedium, reason: "mail, check authentication and relaying"},
		{name: "file sharing", port: 445, level: RiskHigh, reason: "file sharing"},
		{name: "cleartext", port: 21, level: RiskHigh, reason: "cleartext protocol"},
		{name: "privileged known", port: 53, level: RiskMedium, reason: "privileged, DNS"},
		{name: "privileged unknown", port: 999, level: RiskMedium, reason: "privileged port"},
		{name: "unknown high port", port: 4000, level: RiskHigh, reason: "unknown service"},
		{name: "known high port", port: 11434, level: RiskLow, reason: "service"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.port, Lookup(tt.port), tt.owners, tt.banner)
			assert.Equal(t, tt.level, got.Level)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}
