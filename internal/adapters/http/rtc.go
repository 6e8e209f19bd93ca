package http

import (
	"github.com/pion/webrtc/v4"

	"github.com/voxlink/huddle/internal/config"
)

// RTCConfiguration assembles the peer-connection configuration clients use
// to establish their direct media paths. The server never touches media;
// it only hands out the ICE server list.
func RTCConfiguration(cfg *config.Config) webrtc.Configuration {
	servers := make([]webrtc.ICEServer, 0, len(cfg.ICEServers))
	for _, s := range cfg.ICEServers {
		ice := webrtc.ICEServer{URLs: s.URLs}
		if s.Username != "" {
			ice.Username = s.Username
			ice.Credential = s.Credential
		}
		servers = append(servers, ice)
	}
	return webrtc.Configuration{ICEServers: servers}
}
