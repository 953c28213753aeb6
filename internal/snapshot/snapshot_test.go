package snapshot

import (
	"reflect"
	"testing"
	"time"

	"github.com/srimandarbha/conntracker/internal/proctable"
)

func remotes(entries map[uint16][]string) proctable.Remotes {
	r := make(proctable.Remotes, len(entries))
	for port, ips := range entries {
		set := make(map[string]struct{}, len(ips))
		for _, ip := range ips {
			set[ip] = struct{}{}
		}
		r[port] = set
	}
	return r
}

func TestAggregateUnionsFamilies(t *testing.T) {
	tcp4 := remotes(map[uint16][]string{6789: {"4.3.2.1", "8.7.6.5"}})
	tcp6 := remotes(map[uint16][]string{6789: {"::1"}, 9090: {"2001:db8::1"}})

	snap := Aggregate(tcp4, tcp6, "hostA", time.Now())

	if len(snap.Connections) != 2 {
		t.Fatalf("got %d entries, want 2", len(snap.Connections))
	}
	first := snap.Connections[0]
	if first.Port != 6789 || first.Count != 3 {
		t.Fatalf("entry 0 = port %d count %d, want port 6789 count 3", first.Port, first.Count)
	}
	second := snap.Connections[1]
	if second.Port != 9090 || second.Count != 1 {
		t.Fatalf("entry 1 = port %d count %d, want port 9090 count 1", second.Port, second.Count)
	}
}

func TestAggregateDedupesAcrossFamilies(t *testing.T) {
	// The same string observed under the same port in both scans must
	// collapse to one address: union semantics, not concatenation.
	tcp4 := remotes(map[uint16][]string{6789: {"10.20.30.40"}})
	tcp6 := remotes(map[uint16][]string{6789: {"10.20.30.40"}})

	snap := Aggregate(tcp4, tcp6, "hostA", time.Now())

	if len(snap.Connections) != 1 {
		t.Fatalf("got %d entries, want 1", len(snap.Connections))
	}
	entry := snap.Connections[0]
	if entry.Count != 1 || len(entry.UniqueIPs) != 1 {
		t.Fatalf("got count %d ips %v, want a single deduped address", entry.Count, entry.UniqueIPs)
	}
}

func TestAggregateSingleSharedTimestamp(t *testing.T) {
	ts := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	tcp4 := remotes(map[uint16][]string{1: {"1.1.1.1"}, 2: {"2.2.2.2"}, 3: {"3.3.3.3"}})

	snap := Aggregate(tcp4, nil, "hostA", ts)

	want := "2026-08-23T10:00:00Z"
	for _, entry := range snap.Connections {
		if entry.Timestamp != want {
			t.Fatalf("port %d timestamp = %s, want %s", entry.Port, entry.Timestamp, want)
		}
	}
}

func TestAggregateConsecutiveCyclesDifferOnlyInTimestamp(t *testing.T) {
	tcp4 := remotes(map[uint16][]string{6789: {"4.3.2.1", "8.7.6.5"}})
	first := Aggregate(tcp4, nil, "hostA", time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC))
	second := Aggregate(tcp4, nil, "hostA", time.Date(2026, 8, 23, 10, 0, 10, 0, time.UTC))

	if first.Connections[0].Timestamp == second.Connections[0].Timestamp {
		t.Fatal("consecutive cycles must carry different timestamps")
	}
	if !reflect.DeepEqual(first.Connections[0].UniqueIPs, second.Connections[0].UniqueIPs) {
		t.Fatal("identical kernel state must yield identical addresses")
	}
	if first.Connections[0].Port != second.Connections[0].Port || first.Connections[0].Count != second.Connections[0].Count {
		t.Fatal("identical kernel state must yield identical port content")
	}
}

func TestAggregateDeterministicOrdering(t *testing.T) {
	tcp4 := remotes(map[uint16][]string{
		9090: {"9.9.9.9"},
		6789: {"8.7.6.5", "4.3.2.1"},
		80:   {"1.1.1.1"},
	})

	snap := Aggregate(tcp4, nil, "hostA", time.Now())

	wantPorts := []uint16{80, 6789, 9090}
	for i, want := range wantPorts {
		if snap.Connections[i].Port != want {
			t.Fatalf("entry %d port = %d, want %d", i, snap.Connections[i].Port, want)
		}
	}
	if !reflect.DeepEqual(snap.Connections[1].UniqueIPs, []string{"4.3.2.1", "8.7.6.5"}) {
		t.Fatalf("addresses not sorted: %v", snap.Connections[1].UniqueIPs)
	}
}

func TestEntriesFlattenAndKey(t *testing.T) {
	tcp4 := remotes(map[uint16][]string{6789: {"4.3.2.1"}})
	snap := Aggregate(tcp4, nil, "hostA", time.Now())

	entries := snap.Entries()
	if len(entries) != 1 {
		t.Fatalf("got %d bus entries, want 1", len(entries))
	}
	if entries[0].Host != "hostA" || entries[0].Port != 6789 {
		t.Fatalf("bus entry = %+v", entries[0])
	}
	if got := Key(entries[0].Host, entries[0].Port); got != "hostA:6789" {
		t.Fatalf("Key = %s, want hostA:6789", got)
	}
}
