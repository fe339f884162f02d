package security

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

var (
	ErrInvalidScheme = errors.New("only http and https URLs are allowed")
	ErrMissingHost   = errors.New("URL has no host")
)

// ValidateEndpointURL checks that raw is an absolute http(s) URL with a host.
// Query strings are allowed since some endpoints carry fixed parameters.
func ValidateEndpointURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	switch parsed.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidScheme, parsed.Scheme)
	}

	if parsed.Hostname() == "" {
		return ErrMissingHost
	}
	return nil
}

// IsPrivateEndpoint reports whether the URL's host is a literal private,
// loopback or otherwise non-routable address. Hostnames are not resolved.
func IsPrivateEndpoint(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := parsed.Hostname()
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return isPrivateIP(ip)
}

func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsPrivate() || ip.IsUnspecified() {
		return true
	}

	if ip4 := ip.To4(); ip4 != nil {
		switch {
		case ip4[0] == 0:
			return true
		case ip4[0] == 100 && ip4[1] >= 64 && ip4[1] <= 127: // CGNAT
			return true
		case ip4[0] >= 240:
			return true
		}
	}

	return false
}
