package config

import (
	"fmt"
	"net"
)

// DetectIP returns the first global unicast IPv4 address of a non-loopback
// interface that is up. Used when no --ip flag was given.
func DetectIP() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("listing interfaces: %w", err)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipnet.IP.To4()
			if ip == nil || !ip.IsGlobalUnicast() {
				continue
			}
			return ip.String(), nil
		}
	}

	return "", fmt.Errorf("no global unicast IPv4 address found")
}
