package logging

import (
	"log/slog"
	"net"
	"strings"
)

// RedactedValue replaces values whose key is not on the allowlist.
const RedactedValue = "[REDACTED]"

// Keys emitted verbatim by MaskField. Everything else is treated as
// potentially sensitive: signatures, secrets, client identifiers.
var allowlisted = map[string]bool{
	"service": true, "env": true, "message": true, "severity": true, "timestamp": true,
	"error": true, "reason": true, "op": true, "code": true, "module": true,
	"method": true, "status": true, "requestid": true, "height": true, "root": true,
}

// IsAllowlisted reports whether key may be logged without masking.
func IsAllowlisted(key string) bool {
	return allowlisted[strings.ToLower(strings.TrimSpace(key))]
}

// MaskField returns key=value when key is allowlisted or value is blank, and
// key=[REDACTED] otherwise.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" || IsAllowlisted(key) {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}

// MaskClient keeps only the network part of an IP client identifier. IPv4 is
// cut to /24 and IPv6 to /48; anything that is not an IP is redacted.
func MaskClient(key, client string) slog.Attr {
	host := strings.TrimSpace(client)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	ip := net.ParseIP(host)
	switch {
	case host == "":
		return slog.String(key, "")
	case ip == nil:
		return slog.String(key, RedactedValue)
	case ip.To4() != nil:
		return slog.String(key, ip.Mask(net.CIDRMask(24, 32)).String())
	default:
		return slog.String(key, ip.Mask(net.CIDRMask(48, 128)).String())
	}
}
