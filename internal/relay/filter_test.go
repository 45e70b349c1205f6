package relay

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dialstack/callcore/internal/policy"
)

func sampleServers() []Server {
	return []Server{
		{ID: 1, IPv4: "203.0.113.10", Port: 531, Type: Reflector{PeerTag: []byte{0x01}}},
		{ID: 2, IPv4: "203.0.113.20", IPv6: "2001:db8::20", Port: 3478, Type: WebrtcRelay{SupportsTurn: true, SupportsStun: true, Username: "u2", Password: "p2"}},
		{ID: 3, IPv4: "203.0.113.30", Port: 3478, Type: WebrtcRelay{SupportsTurn: false, SupportsStun: true}},
		{ID: 4, IPv6: "2001:db8::40", Port: 3478, Type: WebrtcRelay{SupportsTurn: true}},
	}
}

func TestFilterIdentityWhenNoOptionsSet(t *testing.T) {
	flags := policy.NewFlags(policy.PlatformFloor{})
	in := sampleServers()
	out, err := Filter(flags, in)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("expected identity, got %+v", out)
	}
}

func TestFilterIdentityOnEmptyInput(t *testing.T) {
	flags := policy.NewFlags(policy.PlatformFloor{})
	out, err := Filter(flags, nil)
	if err != nil {
		t.Fatalf("filter on empty input without options must not fail: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("unexpected servers: %+v", out)
	}
}

func TestFilterActiveExcludesP2POption(t *testing.T) {
	flags := policy.NewFlags(policy.PlatformFloor{})
	flags.SetOption(policy.DisableP2P, true)
	if FilterActive(flags) {
		t.Fatalf("DisableP2P must not activate server filtering")
	}
	flags.SetOption(policy.IgnoreTURNServers, true)
	if !FilterActive(flags) {
		t.Fatalf("IgnoreTURNServers must activate server filtering")
	}
}

func TestFilterIgnoreTURN(t *testing.T) {
	flags := policy.NewFlags(policy.PlatformFloor{})
	flags.SetOption(policy.IgnoreTURNServers, true)
	out, err := Filter(flags, sampleServers())
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	var ids []int64
	for _, s := range out {
		ids = append(ids, s.ID)
	}
	// Reflector kept, non-TURN relay kept, TURN relays dropped.
	if !reflect.DeepEqual(ids, []int64{1, 3}) {
		t.Fatalf("unexpected survivors: %v", ids)
	}
}

func TestFilterIgnoreNonTURN(t *testing.T) {
	flags := policy.NewFlags(policy.PlatformFloor{})
	flags.SetOption(policy.IgnoreNonTURNServers, true)
	out, err := Filter(flags, sampleServers())
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	var ids []int64
	for _, s := range out {
		ids = append(ids, s.ID)
	}
	if !reflect.DeepEqual(ids, []int64{1, 2, 4}) {
		t.Fatalf("unexpected survivors: %v", ids)
	}
}

func TestFilterBothIgnoreOptionsDropEveryRelay(t *testing.T) {
	flags := policy.NewFlags(policy.PlatformFloor{})
	flags.SetOption(policy.IgnoreTURNServers, true)
	flags.SetOption(policy.IgnoreNonTURNServers, true)

	out, err := Filter(flags, sampleServers())
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected only the reflector to survive, got %+v", out)
	}
	if _, ok := out[0].Type.(Reflector); !ok {
		t.Fatalf("survivor is not a reflector: %+v", out[0])
	}

	relaysOnly := sampleServers()[1:]
	if _, err := Filter(flags, relaysOnly); !errors.Is(err, ErrNoUsableServers) {
		t.Fatalf("expected ErrNoUsableServers, got %v", err)
	}
}

func TestFilterDisableIPv4RedactsAndDrops(t *testing.T) {
	flags := policy.NewFlags(policy.PlatformFloor{})
	flags.SetOption(policy.DisableIPv4, true)

	in := sampleServers()
	out, err := Filter(flags, in)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	// Servers 1 and 3 have no IPv6 address and must be dropped entirely.
	if len(out) != 2 || out[0].ID != 2 || out[1].ID != 4 {
		t.Fatalf("unexpected survivors: %+v", out)
	}
	for _, s := range out {
		if s.IPv4 != "" {
			t.Fatalf("ipv4 not redacted: %+v", s)
		}
		if s.IPv6 == "" {
			t.Fatalf("ipv6 lost during redaction: %+v", s)
		}
	}
	// Originals are never mutated.
	if in[1].IPv4 != "203.0.113.20" {
		t.Fatalf("input server mutated: %+v", in[1])
	}
}

func TestFilterDisableIPv4AllIPv4OnlyFails(t *testing.T) {
	flags := policy.NewFlags(policy.PlatformFloor{})
	flags.SetOption(policy.DisableIPv4, true)
	in := []Server{
		{ID: 1, IPv4: "203.0.113.1", Port: 3478, Type: WebrtcRelay{SupportsTurn: true}},
		{ID: 2, IPv4: "203.0.113.2", Port: 531, Type: Reflector{}},
	}
	if _, err := Filter(flags, in); !errors.Is(err, ErrNoUsableServers) {
		t.Fatalf("expected ErrNoUsableServers, got %v", err)
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	flags := policy.NewFlags(policy.PlatformFloor{})
	flags.SetOption(policy.IgnoreNonTURNServers, true)
	in := []Server{
		{ID: 9, Port: 1, IPv4: "203.0.113.9", Type: WebrtcRelay{SupportsTurn: true}},
		{ID: 5, Port: 2, IPv4: "203.0.113.5", Type: Reflector{}},
		{ID: 7, Port: 3, IPv4: "203.0.113.7", Type: WebrtcRelay{SupportsTurn: true}},
	}
	out, err := Filter(flags, in)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	var ids []int64
	for _, s := range out {
		ids = append(ids, s.ID)
	}
	if !reflect.DeepEqual(ids, []int64{9, 5, 7}) {
		t.Fatalf("order not preserved: %v", ids)
	}
}
