package proctable

import (
	"bufio"
	"io"
	"os"

	"github.com/srimandarbha/conntracker/internal/logging"
)

var log = logging.L("proctable")

// Remotes maps a watched local port to the set of distinct remote addresses
// observed connecting to it.
type Remotes map[uint16]map[string]struct{}

func (r Remotes) add(port uint16, remote string) {
	set, ok := r[port]
	if !ok {
		set = make(map[string]struct{})
		r[port] = set
	}
	set[remote] = struct{}{}
}

// Scan reads one connection table, skipping the header row, and groups the
// remote addresses of established connections by watched local port.
// Malformed rows are dropped; a bad row never aborts the scan.
func Scan(src io.Reader, ports PortSet, ipv6 bool) Remotes {
	result := make(Remotes)

	scanner := bufio.NewScanner(src)
	scanner.Scan() // header row, skipped regardless of content

	for scanner.Scan() {
		port, remote, ok := ParseLine(scanner.Text(), ports, ipv6)
		if !ok {
			continue
		}
		result.add(port, remote)
	}

	return result
}

// ScanFile scans the connection table at path. A missing or unreadable
// table yields an empty result and a non-nil error; callers proceed with
// the other family's data (IPv6 may simply be disabled on the host).
func ScanFile(path string, ports PortSet, ipv6 bool) (Remotes, error) {
	f, err := os.Open(path)
	if err != nil {
		log.Debug("connection table unavailable", "path", path, "error", err)
		return make(Remotes), err
	}
	defer f.Close()

	return Scan(f, ports, ipv6), nil
}
