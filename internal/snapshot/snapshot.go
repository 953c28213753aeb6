package snapshot

import (
	"sort"
	"strconv"
	"time"

	"github.com/srimandarbha/conntracker/internal/proctable"
)

// PortEntry is the per-port view of one capture cycle.
type PortEntry struct {
	Port      uint16   `json:"port"`
	UniqueIPs []string `json:"unique_ips"`
	Count     int      `json:"count"`
	Timestamp string   `json:"timestamp"`
}

// Snapshot is the aggregated result of one capture cycle. It is built fresh
// each cycle and never mutated afterwards.
type Snapshot struct {
	Host        string      `json:"host"`
	Connections []PortEntry `json:"connections"`
}

// BusEntry is the flat per-port record published to the message bus.
type BusEntry struct {
	Host      string   `json:"host"`
	Port      uint16   `json:"port"`
	UniqueIPs []string `json:"unique_ips"`
	Count     int      `json:"count"`
	Timestamp string   `json:"timestamp"`
}

// Aggregate merges the per-family scan results into one snapshot. A port
// visible in both families gets the union of its remote sets, not two
// entries. Every entry carries the same timestamp, taken once per cycle,
// so all entries in a snapshot are comparable as of the same instant.
// Entries are sorted by port and addresses lexicographically, keeping the
// output deterministic.
func Aggregate(tcp4, tcp6 proctable.Remotes, host string, ts time.Time) Snapshot {
	merged := make(proctable.Remotes, len(tcp4)+len(tcp6))
	for _, family := range []proctable.Remotes{tcp4, tcp6} {
		for port, remotes := range family {
			set, ok := merged[port]
			if !ok {
				set = make(map[string]struct{}, len(remotes))
				merged[port] = set
			}
			for remote := range remotes {
				set[remote] = struct{}{}
			}
		}
	}

	stamp := ts.UTC().Format(time.RFC3339)

	entries := make([]PortEntry, 0, len(merged))
	for port, remotes := range merged {
		ips := make([]string, 0, len(remotes))
		for remote := range remotes {
			ips = append(ips, remote)
		}
		sort.Strings(ips)
		entries = append(entries, PortEntry{
			Port:      port,
			UniqueIPs: ips,
			Count:     len(ips),
			Timestamp: stamp,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Port < entries[j].Port })

	return Snapshot{Host: host, Connections: entries}
}

// Entries flattens the snapshot into one record per port for sinks that
// deliver per-entry messages.
func (s Snapshot) Entries() []BusEntry {
	entries := make([]BusEntry, 0, len(s.Connections))
	for _, c := range s.Connections {
		entries = append(entries, BusEntry{
			Host:      s.Host,
			Port:      c.Port,
			UniqueIPs: c.UniqueIPs,
			Count:     c.Count,
			Timestamp: c.Timestamp,
		})
	}
	return entries
}

// Key is the message-bus key for a port entry.
func Key(host string, port uint16) string {
	return host + ":" + strconv.FormatUint(uint64(port), 10)
}
