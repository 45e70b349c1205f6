// Package signaling adapts the signalling layer boundary: the call-ready
// metadata a peer supplies at setup time, the local protocol
// advertisement, and a websocket client used to receive call events and
// persist call log locations.
package signaling

import "github.com/dialstack/callcore/internal/relay"

// CallProtocol is the protocol descriptor exchanged during call setup.
// LibraryVersions is ordered; for a peer it is the fallback order, for
// the local side it is the advertisement (legacy version first).
type CallProtocol struct {
	UDPP2P          bool     `json:"udp_p2p"`
	UDPReflector    bool     `json:"udp_reflector"`
	MinLayer        int      `json:"min_layer"`
	MaxLayer        int      `json:"max_layer"`
	LibraryVersions []string `json:"library_versions"`
}

// ReadyState is the call-ready metadata handed over by the signalling
// layer once a call may be placed.
type ReadyState struct {
	CallID        string
	Outgoing      bool
	Protocol      CallProtocol
	Servers       []relay.Server
	AllowP2P      bool
	EncryptionKey []byte
}

// wire shapes for the websocket signalling feed.

type wireServerType string

const (
	wireReflector   wireServerType = "reflector"
	wireWebrtcRelay wireServerType = "webrtc"
)

type wireServer struct {
	ID           int64          `json:"id"`
	IPv4         string         `json:"ipv4,omitempty"`
	IPv6         string         `json:"ipv6,omitempty"`
	Port         int            `json:"port"`
	Type         wireServerType `json:"type"`
	PeerTag      []byte         `json:"peer_tag,omitempty"`
	Username     string         `json:"username,omitempty"`
	Password     string         `json:"password,omitempty"`
	SupportsTurn bool           `json:"supports_turn,omitempty"`
	SupportsStun bool           `json:"supports_stun,omitempty"`
}

type wireCallReady struct {
	CallID        string       `json:"call_id"`
	Outgoing      bool         `json:"outgoing"`
	Protocol      CallProtocol `json:"protocol"`
	Servers       []wireServer `json:"servers"`
	AllowP2P      bool         `json:"allow_p2p"`
	EncryptionKey []byte       `json:"encryption_key,omitempty"`
}

func (w wireCallReady) readyState() ReadyState {
	ready := ReadyState{
		CallID:        w.CallID,
		Outgoing:      w.Outgoing,
		Protocol:      w.Protocol,
		AllowP2P:      w.AllowP2P,
		EncryptionKey: w.EncryptionKey,
	}
	for _, ws := range w.Servers {
		server := relay.Server{
			ID:   ws.ID,
			IPv4: ws.IPv4,
			IPv6: ws.IPv6,
			Port: ws.Port,
		}
		switch ws.Type {
		case wireWebrtcRelay:
			server.Type = relay.WebrtcRelay{
				Username:     ws.Username,
				Password:     ws.Password,
				SupportsTurn: ws.SupportsTurn,
				SupportsStun: ws.SupportsStun,
			}
		default:
			server.Type = relay.Reflector{PeerTag: ws.PeerTag}
		}
		ready.Servers = append(ready.Servers, server)
	}
	return ready
}
