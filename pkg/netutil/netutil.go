// Package netutil resolves scan targets and decides whether a target address
// belongs to the local machine.
//
// Functions:
//
//   - ResolveTarget(ctx, host) (string, error)
//     Returns an IP literal unchanged, otherwise resolves the hostname and
//     returns its first usable address, preferring IPv4.
//
//   - LocalAddresses(ctx) map[string]struct{}
//     Collects loopback names, interface addresses, the addresses of the
//     machine's hostname and the outbound source address.
//
//   - IsLocal(ctx, ip) bool
//     Reports exact membership of ip in LocalAddresses.
//
// Each function has a Host method counterpart so lookups can be replaced in
// tests.
package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrNoAddress is returned when a hostname resolves to nothing usable.
var ErrNoAddress = errors.New("no usable address")

// outboundProbe is only "connected" over UDP to learn the source address the
// kernel would pick; no packet is sent.
const outboundProbe = "8.8.8.8:80"

// Resolver is the subset of *net.Resolver used here.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Host bundles the lookups netutil performs against the running system.
type Host struct {
	Resolver       Resolver
	Hostname       func() (string, error)
	InterfaceAddrs func() ([]net.Addr, error)
	// Outbound returns the local address used to reach the internet.
	Outbound func(ctx context.Context) (string, error)
}

// System returns a Host backed by the operating system.
func System() Host {
	return Host{
		Resolver:       net.DefaultResolver,
		Hostname:       os.Hostname,
		InterfaceAddrs: net.InterfaceAddrs,
		Outbound:       outboundAddress,
	}
}

// ResolveTarget resolves host with the system resolver.
func ResolveTarget(ctx context.Context, host string) (string, error) {
	return System().ResolveTarget(ctx, host)
}

// LocalAddresses collects the local address set using the system lookups.
func LocalAddresses(ctx context.Context) map[string]struct{} {
	return System().LocalAddresses(ctx)
}

// IsLocal reports whether ip is one of the system's local addresses.
func IsLocal(ctx context.Context, ip string) bool {
	return System().IsLocal(ctx, ip)
}

// ResolveTarget returns host unchanged when it is an IP literal. Hostnames
// are resolved and the first scannable address is returned, IPv4 first.
func (h Host) ResolveTarget(ctx context.Context, host string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("resolve target: %w", ErrNoAddress)
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}

	addrs, err := h.Resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", host, err)
	}

	var v6 string
	for _, a := range addrs {
		if !scannable(a.IP) {
			continue
		}
		if a.IP.To4() != nil {
			return a.IP.String(), nil
		}
		if v6 == "" {
			v6 = a.IP.String()
		}
	}
	if v6 != "" {
		return v6, nil
	}
	return "", fmt.Errorf("resolve %q: %w", host, ErrNoAddress)
}

// LocalAddresses returns every address string that designates this machine.
// Lookup failures are logged and skipped.
func (h Host) LocalAddresses(ctx context.Context) map[string]struct{} {
	logger := log.With().Str("component", "netutil").Logger()
	set := map[string]struct{}{
		"127.0.0.1": {},
		"::1":       {},
		"localhost": {},
	}

	if h.InterfaceAddrs != nil {
		addrs, err := h.InterfaceAddrs()
		if err != nil {
			logger.Debug().Err(err).Msg("interface addresses unavailable")
		}
		for _, a := range addrs {
			if ip := addrIP(a); ip != nil {
				set[ip.String()] = struct{}{}
			}
		}
	}

	if h.Hostname != nil {
		name, err := h.Hostname()
		switch {
		case err != nil:
			logger.Debug().Err(err).Msg("hostname unavailable")
		case name != "":
			set[name] = struct{}{}
			if h.Resolver != nil {
				ips, err := h.Resolver.LookupIPAddr(ctx, name)
				if err != nil {
					logger.Debug().Err(err).Str("hostname", name).Msg("hostname lookup failed")
				}
				for _, ip := range ips {
					set[ip.IP.String()] = struct{}{}
				}
			}
		}
	}

	if h.Outbound != nil {
		addr, err := h.Outbound(ctx)
		if err != nil {
			logger.Debug().Err(err).Msg("outbound address unavailable")
		} else if addr != "" {
			set[addr] = struct{}{}
		}
	}

	return set
}

// IsLocal reports whether ip is exactly one of the local addresses.
func (h Host) IsLocal(ctx context.Context, ip string) bool {
	_, ok := h.LocalAddresses(ctx)[ip]
	return ok
}

func outboundAddress(ctx context.Context) (string, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", outboundProbe)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	udp, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", fmt.Errorf("unexpected local address %T", conn.LocalAddr())
	}
	return udp.IP.String(), nil
}

func addrIP(a net.Addr) net.IP {
	switch v := a.(type) {
	case *net.IPNet:
		return v.IP
	case *net.IPAddr:
		return v.IP
	}
	return nil
}

// scannable filters addresses that are never useful scan targets.
func scannable(ip net.IP) bool {
	return ip != nil && !ip.IsUnspecified() && !ip.IsMulticast()
}
