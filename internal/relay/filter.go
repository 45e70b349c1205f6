package relay

import (
	"errors"

	"github.com/dialstack/callcore/internal/observability"
	"github.com/dialstack/callcore/internal/policy"
)

// ErrNoUsableServers is fatal: active filtering removed every server.
// Misconfigured filters must be loud, not silently degrade to "no call".
var ErrNoUsableServers = errors.New("relay: no usable servers after filtering")

// FilterActive reports whether any server-filtering debug option is set.
// DisableP2P is deliberately not included; it affects the protocol
// advertisement, not the server list.
func FilterActive(flags *policy.Flags) bool {
	return flags.OptionEnabled(policy.DisableIPv4) ||
		flags.OptionEnabled(policy.IgnoreTURNServers) ||
		flags.OptionEnabled(policy.IgnoreNonTURNServers)
}

// Filter applies the active debug options to servers in a single
// order-preserving pass. With no filtering options set it returns the
// input unchanged, even when the input is empty. When filtering is active
// and removes every server it fails with ErrNoUsableServers.
func Filter(flags *policy.Flags, servers []Server) ([]Server, error) {
	if !FilterActive(flags) {
		return servers, nil
	}
	disableIPv4 := flags.OptionEnabled(policy.DisableIPv4)
	ignoreTurn := flags.OptionEnabled(policy.IgnoreTURNServers)
	ignoreNonTurn := flags.OptionEnabled(policy.IgnoreNonTURNServers)

	filtered := make([]Server, 0, len(servers))
	for _, server := range servers {
		if ignoreTurn || ignoreNonTurn {
			switch st := server.Type.(type) {
			case Reflector:
				// Reflectors are always kept.
			case WebrtcRelay:
				if st.SupportsTurn && ignoreTurn {
					observability.RecordServerDrop("turn")
					continue
				}
				if !st.SupportsTurn && ignoreNonTurn {
					observability.RecordServerDrop("non_turn")
					continue
				}
			}
		}
		if disableIPv4 {
			if server.IPv6 == "" {
				observability.RecordServerDrop("no_ipv6")
				continue
			}
			server.IPv4 = ""
		}
		filtered = append(filtered, server)
	}
	if len(filtered) == 0 {
		return nil, ErrNoUsableServers
	}
	return filtered, nil
}
