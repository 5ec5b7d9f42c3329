// Package livekit wraps the LiveKit server SDK clients used for outbound calls.
package livekit

import (
	"context"

	lkproto "github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"

	"github.com/jacky-htg/call-console/libs/interfaces"
)

type sipProvisioner struct {
	client *lksdk.SIPClient
}

// NewSIPProvisioner returns a SIP client for the LiveKit server at url.
func NewSIPProvisioner(url, apiKey, apiSecret string) interfaces.SIPProvisioner {
	return &sipProvisioner{client: lksdk.NewSIPClient(url, apiKey, apiSecret)}
}

func (s *sipProvisioner) CreateSIPParticipant(ctx context.Context, req *lkproto.CreateSIPParticipantRequest) (*lkproto.SIPParticipantInfo, error) {
	return s.client.CreateSIPParticipant(ctx, req)
}

type agentDispatcher struct {
	client *lksdk.AgentDispatchClient
}

// NewAgentDispatcher returns an agent dispatch client for the LiveKit server at url.
func NewAgentDispatcher(url, apiKey, apiSecret string) interfaces.AgentDispatcher {
	return &agentDispatcher{client: lksdk.NewAgentDispatchServiceClient(url, apiKey, apiSecret)}
}

func (a *agentDispatcher) CreateDispatch(ctx context.Context, req *lkproto.CreateAgentDispatchRequest) (*lkproto.AgentDispatch, error) {
	return a.client.CreateDispatch(ctx, req)
}
