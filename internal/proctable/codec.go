package proctable

import (
	"encoding/hex"
	"fmt"
	"net"
)

// DecodeIPv4 decodes the 8-digit hex address column of the IPv4 table.
// The kernel writes the address as a single host-order (little-endian)
// 32-bit word, so the hex pairs are the dotted-quad octets in reverse.
// "0100007F" is 127.0.0.1, not 1.0.0.127.
func DecodeIPv4(h string) (net.IP, error) {
	if len(h) != 8 {
		return nil, fmt.Errorf("ipv4 hex %q: want 8 chars, got %d", h, len(h))
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("ipv4 hex %q: %w", h, err)
	}
	return net.IPv4(b[3], b[2], b[1], b[0]), nil
}

// DecodeIPv6 decodes the 32-digit hex address column of the IPv6 table.
// Read big-endian, the hex pairs are the 16 address bytes in order.
func DecodeIPv6(h string) (net.IP, error) {
	if len(h) != 32 {
		return nil, fmt.Errorf("ipv6 hex %q: want 32 chars, got %d", h, len(h))
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("ipv6 hex %q: %w", h, err)
	}
	return net.IP(b), nil
}
