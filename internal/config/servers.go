package config

import (
	"fmt"
	"strings"

	"github.com/dialstack/callcore/internal/relay"
)

// ServerEntry is one statically configured relay server. Static lists
// are a development aid; production server lists arrive via signalling.
type ServerEntry struct {
	ID           int64  `toml:"id"`
	IPv4         string `toml:"ipv4"`
	IPv6         string `toml:"ipv6"`
	Port         int    `toml:"port"`
	Type         string `toml:"type"`
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	SupportsTurn bool   `toml:"supports_turn"`
	SupportsStun bool   `toml:"supports_stun"`
}

type serverList struct {
	Servers []ServerEntry `toml:"servers"`
}

// LoadServers reads a static relay server list.
func LoadServers(path string) ([]relay.Server, error) {
	var list serverList
	if err := loadToml(path, &list); err != nil {
		return nil, err
	}
	servers := make([]relay.Server, 0, len(list.Servers))
	for i, entry := range list.Servers {
		server, err := entry.toServer()
		if err != nil {
			return nil, fmt.Errorf("servers[%d] invalid: %w", i, err)
		}
		servers = append(servers, server)
	}
	return servers, nil
}

func (e ServerEntry) toServer() (relay.Server, error) {
	if e.Port <= 0 || e.Port > 65535 {
		return relay.Server{}, fmt.Errorf("port %d out of range", e.Port)
	}
	if e.IPv4 == "" && e.IPv6 == "" {
		return relay.Server{}, fmt.Errorf("server needs an ipv4 or ipv6 address")
	}
	server := relay.Server{
		ID:   e.ID,
		IPv4: e.IPv4,
		IPv6: e.IPv6,
		Port: e.Port,
	}
	switch strings.ToLower(strings.TrimSpace(e.Type)) {
	case "reflector":
		server.Type = relay.Reflector{}
	case "webrtc":
		server.Type = relay.WebrtcRelay{
			Username:     e.Username,
			Password:     e.Password,
			SupportsTurn: e.SupportsTurn,
			SupportsStun: e.SupportsStun,
		}
	default:
		return relay.Server{}, fmt.Errorf("unknown server type %q", e.Type)
	}
	return server, nil
}
