package main

import (
	"fmt"
	"net"

	"github.com/srg/dirconsim/internal/mdnsresponder"
)

// resolveBindInterface picks the bind address and its interface: the
// explicit --ip-address if given, otherwise the first non-loopback
// interface carrying an IPv4 address (spec §6 "Identity" derives host
// and service names from that interface's MAC).
func resolveBindInterface(ipAddress string) (ip net.IP, mac net.HardwareAddr, err error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, nil, fmt.Errorf("list network interfaces: %w", err)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipNet.IP.To4()
			if ip4 == nil {
				continue
			}
			if ipAddress != "" && ip4.String() != ipAddress {
				continue
			}
			return ip4, iface.HardwareAddr, nil
		}
	}

	if ipAddress != "" {
		return nil, nil, fmt.Errorf("no interface bound to %s", ipAddress)
	}
	return nil, nil, fmt.Errorf("no non-loopback IPv4 interface found")
}

// buildIdentity assembles the mDNS Identity for the resolved bind
// address and the session serial number.
func buildIdentity(ip net.IP, mac net.HardwareAddr, port int, serial string) mdnsresponder.Identity {
	return mdnsresponder.Identity{
		MAC:       mac,
		IPv4:      ip,
		Port:      port,
		SerialNum: serial,
	}
}
