// Package macaddr provides utilities for working with MAC addresses including
// normalization and formatting in the colon (Meraki) and dotted (Catalyst CLI)
// conventions.
package macaddr

import (
	"fmt"
	"strings"
)

// NormalizeExactMac normalizes a MAC address to a 12-character lowercase hex string
// without separators. Accepts colon, dot, or dash separators, or none.
// Returns an error if the input is not a valid MAC address.
func NormalizeExactMac(input string) (string, error) {
	clean := strings.Map(func(r rune) rune {
		if r == ':' || r == '.' || r == '-' {
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(input)))

	if len(clean) != 12 {
		return "", fmt.Errorf("invalid MAC address length: %s", input)
	}
	for _, r := range clean {
		if !isHexDigit(byte(r)) {
			return "", fmt.Errorf("invalid MAC address characters: %s", input)
		}
	}
	return clean, nil
}

// FormatMacColon formats a normalized 12-character MAC address with colon separators.
// Example: "001122334455" -> "00:11:22:33:44:55"
func FormatMacColon(clean string) string {
	clean = strings.ToLower(clean)
	if len(clean) != 12 {
		return clean
	}
	var b strings.Builder
	for i := 0; i < 12; i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(clean[i : i+2])
	}
	return b.String()
}

// FormatMacDotted formats a normalized 12-character MAC address in the
// four-digit dotted groups Catalyst IOS commands expect.
// Example: "001122334455" -> "0011.2233.4455"
func FormatMacDotted(clean string) string {
	clean = strings.ToLower(clean)
	if len(clean) != 12 {
		return clean
	}
	var b strings.Builder
	for i := 0; i < 12; i += 4 {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(clean[i : i+4])
	}
	return b.String()
}

// isHexDigit checks if a byte is a valid hexadecimal digit (0-9, A-F, a-f).
func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'A' && b <= 'F') || (b >= 'a' && b <= 'f')
}
