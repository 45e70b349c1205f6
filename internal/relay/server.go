// Package relay models the relay/network servers offered for a call and
// filters them according to debug policy before an engine sees them.
package relay

// ServerType is a closed union: Reflector or WebrtcRelay.
type ServerType interface {
	isServerType()
}

// Reflector is a plain UDP reflector endpoint. The TURN/non-TURN
// distinction does not apply to reflectors.
type Reflector struct {
	PeerTag []byte
}

func (Reflector) isServerType() {}

// WebrtcRelay is a webrtc STUN/TURN relay endpoint.
type WebrtcRelay struct {
	Username     string
	Password     string
	SupportsTurn bool
	SupportsStun bool
}

func (WebrtcRelay) isServerType() {}

// Server describes a single relay server offered by the signalling layer.
// Values are immutable once produced; Filter emits modified copies, never
// mutates an input.
type Server struct {
	ID   int64
	IPv4 string
	IPv6 string
	Port int
	Type ServerType
}
