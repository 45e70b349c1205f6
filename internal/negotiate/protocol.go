package negotiate

import (
	"github.com/dialstack/callcore/internal/engine"
	"github.com/dialstack/callcore/internal/policy"
	"github.com/dialstack/callcore/internal/signaling"
)

// Advertise builds the local protocol descriptor for outgoing calls:
// force-disable-filtered versions (legacy first) plus the layer bounds.
// The DisableP2P debug option clears the UDP peer-to-peer capability.
func Advertise(reg *engine.Registry, flags *policy.Flags, minLayer, maxLayer int) signaling.CallProtocol {
	return signaling.CallProtocol{
		UDPP2P:          !flags.OptionEnabled(policy.DisableP2P),
		UDPReflector:    true,
		MinLayer:        minLayer,
		MaxLayer:        maxLayer,
		LibraryVersions: reg.AvailableVersions(true),
	}
}
