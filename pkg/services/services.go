// Package services holds the static knowledge base about well-known TCP
// ports: service names, the systemd unit that usually owns them, and
// operator-facing notes.
package services

import "slices"

const (
	// DynamicStart and DynamicEnd bound the ephemeral port range.
	DynamicStart = 32768
	DynamicEnd   = 65535

	NameDynamic = "Dynamic"
	NameUnknown = "Unknown"
)

// Info describes the service conventionally bound to a port.
// Unit is the systemd unit used to stop it cleanly; empty when none is known.
type Info struct {
	Port    uint16 `json:"port" yaml:"port"`
	Name    string `json:"name" yaml:"name"`
	Unit    string `json:"unit,omitempty" yaml:"unit,omitempty"`
	Package string `json:"package,omitempty" yaml:"package,omitempty"`
}

// Known reports whether the port maps to a named service.
func (i Info) Known() bool {
	return i.Name != NameUnknown && i.Name != NameDynamic
}

type entry struct {
	name, unit, pkg string
}

var table = map[uint16]entry{
	20:    {"FTP-Data", "ftp", "vsftpd"},
	21:    {"FTP", "vsftpd", "vsftpd"},
	22:    {"SSH", "ssh", "openssh-server"},
	23:    {"Telnet", "telnet", ""},
	25:    {"SMTP", "postfix", "postfix"},
	53:    {"DNS", "bind9", "bind9"},
	67:    {"DHCP-Server", "isc-dhcp-server", "isc-dhcp-server"},
	68:    {"DHCP-Client", "", ""},
	69:    {"TFTP", "tftpd-hpa", "tftpd-hpa"},
	80:    {"HTTP", "apache2", "apache2"},
	88:    {"Kerberos", "krb5-kdc", "krb5-kdc"},
	110:   {"POP3", "dovecot", "dovecot"},
	111:   {"RPCBind", "rpcbind", "rpcbind"},
	123:   {"NTP", "ntp", "ntp"},
	135:   {"MS-RPC", "", ""},
	139:   {"NetBIOS-SSN", "", ""},
	143:   {"IMAP", "dovecot", "dovecot"},
	161:   {"SNMP", "snmpd", "snmpd"},
	389:   {"LDAP", "slapd", "slapd"},
	443:   {"HTTPS", "nginx", "nginx"},
	445:   {"SMB", "smbd", "smbd"},
	465:   {"SMTPS", "postfix", "postfix"},
	514:   {"Syslog", "rsyslog", "rsyslog"},
	631:   {"CUPS", "cups", "cups"},
	993:   {"IMAPS", "dovecot", "dovecot"},
	995:   {"POP3S", "dovecot", "dovecot"},
	1080:  {"SOCKS", "", ""},
	1433:  {"MSSQL", "", ""},
	1521:  {"Oracle", "", ""},
	2049:  {"NFS", "nfs-kernel-server", "nfs-kernel-server"},
	2082:  {"cPanel", "", ""},
	2083:  {"cPanel-SSL", "", ""},
	3306:  {"MySQL", "mysql", "mysql"},
	3389:  {"RDP", "", ""},
	3690:  {"Subversion", "", ""},
	4444:  {"Metasploit", "", ""},
	4662:  {"eDonkey", "", ""},
	5000:  {"UPnP/Dev", "", ""},
	5001:  {"iperf", "", ""},
	5432:  {"PostgreSQL", "postgresql", "postgresql"},
	5601:  {"Kibana", "", ""},
	5900:  {"VNC", "", ""},
	6000:  {"X11", "", ""},
	6379:  {"Redis", "redis-server", "redis-server"},
	6667:  {"IRC", "", ""},
	6881:  {"BitTorrent", "", ""},
	8000:  {"HTTP-Alt", "", ""},
	8008:  {"HTTP-Alt", "", ""},
	8080:  {"HTTP-Alt", "tomcat", "tomcat"},
	8443:  {"HTTPS-Alt", "", ""},
	9000:  {"Sonar/PHP-FPM", "", ""},
	9200:  {"Elasticsearch", "elasticsearch", "elasticsearch"},
	9300:  {"Elasticsearch-TCP", "", ""},
	10000: {"Webmin", "webmin", "webmin"},
	11211: {"Memcached", "memcached", "memcached"},
	11434: {"Ollama", "ollama", "ollama"},
	25565: {"Minecraft", "", ""},
	27015: {"Game-Server", "", ""},
	27017: {"MongoDB", "mongod", "mongodb"},
	27018: {"MongoDB-Alt", "", ""},
	28017: {"MongoDB-HTTP", "", ""},
	50070: {"HDFS-NameNode", "", ""},
}

// IsDynamic reports whether port falls in the ephemeral range.
func IsDynamic(port uint16) bool {
	return port >= DynamicStart
}

// Lookup returns what is known about port. The ephemeral range takes
// precedence over table entries, so 50070 reports as Dynamic.
func Lookup(port uint16) Info {
	if IsDynamic(port) {
		return Info{Port: port, Name: NameDynamic}
	}
	if e, ok := table[port]; ok {
		return Info{Port: port, Name: e.name, Unit: e.unit, Package: e.pkg}
	}
	return Info{Port: port, Name: NameUnknown}
}

// All returns every table entry ordered by port.
func All() []Info {
	ports := make([]uint16, 0, len(table))
	for p := range table {
		ports = append(ports, p)
	}
	slices.Sort(ports)

	out := make([]Info, 0, len(ports))
	for _, p := range ports {
		e := table[p]
		out = append(out, Info{Port: p, Name: e.name, Unit: e.unit, Package: e.pkg})
	}
	return out
}
