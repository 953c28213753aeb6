package proctable

import (
	"net"
	"strconv"
	"strings"
)

// stateEstablished is the hex state code for ESTABLISHED in the kernel table.
const stateEstablished = "01"

// ParseLine extracts the (local port, remote address) pair from one data row
// of a connection table. The family of the remote address is decided by the
// ipv6 flag (which table the row came from), never inferred from the row.
//
// Rows that are not established, not on a watched port, too short to be data
// rows, or not decodable are skipped with ok=false; a malformed row is never
// an error.
func ParseLine(line string, ports PortSet, ipv6 bool) (port uint16, remote string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return 0, "", false
	}

	if fields[3] != stateEstablished {
		return 0, "", false
	}

	_, localPortHex, found := strings.Cut(fields[1], ":")
	if !found {
		return 0, "", false
	}
	parsed, err := strconv.ParseUint(localPortHex, 16, 16)
	if err != nil {
		return 0, "", false
	}
	port = uint16(parsed)
	if !ports.Contains(port) {
		return 0, "", false
	}

	remoteHex, _, found := strings.Cut(fields[2], ":")
	if !found {
		return 0, "", false
	}
	var ip net.IP
	if ipv6 {
		ip, err = DecodeIPv6(remoteHex)
	} else {
		ip, err = DecodeIPv4(remoteHex)
	}
	if err != nil {
		return 0, "", false
	}

	return port, ip.String(), true
}
