package factory

import (
	"github.com/jacky-htg/call-console/libs/config"
	"github.com/jacky-htg/call-console/libs/interfaces"
	"github.com/jacky-htg/call-console/libs/vendors/livekit"
)

// LiveKit builds LiveKit service clients for a resolved environment profile.
// Clients are created per call so a profile change takes effect immediately.
type LiveKit struct{}

func New() LiveKit {
	return LiveKit{}
}

func (LiveKit) SIP(p config.Profile) interfaces.SIPProvisioner {
	return livekit.NewSIPProvisioner(p.ServiceURL, p.APIKey, p.APISecret)
}

func (LiveKit) Dispatcher(p config.Profile) interfaces.AgentDispatcher {
	return livekit.NewAgentDispatcher(p.ServiceURL, p.APIKey, p.APISecret)
}
