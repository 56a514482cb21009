package utils

import (
	"net"
	"net/url"
	"strings"
)

// IsAllowedOrigin decides whether an Origin header should be trusted.
// The server is meant to run on a home network, so localhost, LAN names
// (.local and single-label hostnames), and private/link-local IPs are
// allowed; public internet origins are not.
func IsAllowedOrigin(origin string) bool {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	host := parsed.Hostname()
	switch {
	case host == "localhost":
		return true
	case strings.HasSuffix(host, ".local"):
		return true
	case !strings.Contains(host, "."):
		// Single-label LAN hostname.
		return true
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}
