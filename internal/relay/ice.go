package relay

import (
	"fmt"

	"github.com/pion/webrtc/v4"
)

// ICEServers maps webrtc relay servers to pion ICE server entries.
// Reflector servers are not ICE endpoints and are skipped. The list is
// expected to have gone through Filter already.
func ICEServers(servers []Server) []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(servers))
	for _, server := range servers {
		st, ok := server.Type.(WebrtcRelay)
		if !ok {
			continue
		}
		host := endpointHost(server)
		if host == "" {
			continue
		}
		var urls []string
		if st.SupportsStun {
			urls = append(urls, fmt.Sprintf("stun:%s:%d", host, server.Port))
		}
		if st.SupportsTurn {
			urls = append(urls, fmt.Sprintf("turn:%s:%d", host, server.Port))
		}
		if len(urls) == 0 {
			continue
		}
		entry := webrtc.ICEServer{URLs: urls}
		if st.SupportsTurn {
			entry.Username = st.Username
			entry.Credential = st.Password
		}
		out = append(out, entry)
	}
	return out
}

func endpointHost(server Server) string {
	if server.IPv4 != "" {
		return server.IPv4
	}
	if server.IPv6 != "" {
		return "[" + server.IPv6 + "]"
	}
	return ""
}
