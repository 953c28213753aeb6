package proctable

import "sort"

// PortSet holds the watched local ports. It is built once at startup and
// never mutated afterwards, so it is safe to share across scans.
type PortSet map[uint16]struct{}

// NewPortSet builds a set from the given ports.
func NewPortSet(ports ...uint16) PortSet {
	set := make(PortSet, len(ports))
	for _, p := range ports {
		set[p] = struct{}{}
	}
	return set
}

// Contains reports whether port is watched.
func (s PortSet) Contains(port uint16) bool {
	_, ok := s[port]
	return ok
}

// Ports returns the watched ports in ascending order.
func (s PortSet) Ports() []uint16 {
	ports := make([]uint16, 0, len(s))
	for p := range s {
		ports = append(ports, p)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })
	return ports
}
