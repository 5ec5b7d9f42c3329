package interfaces

import (
	"context"

	lkproto "github.com/livekit/protocol/livekit"

	"github.com/jacky-htg/call-console/libs/call"
)

// SIPProvisioner places a telephony bridge participant into a room.
type SIPProvisioner interface {
	// CreateSIPParticipant dials out through a trunk and joins the callee to the room.
	// With WaitUntilAnswered set it returns only after the remote party picks up.
	CreateSIPParticipant(ctx context.Context, req *lkproto.CreateSIPParticipantRequest) (*lkproto.SIPParticipantInfo, error)
}

// AgentDispatcher explicitly invites a named agent into a room.
type AgentDispatcher interface {
	CreateDispatch(ctx context.Context, req *lkproto.CreateAgentDispatchRequest) (*lkproto.AgentDispatch, error)
}

// CredentialIssuer produces a room credential. The in-process issuer and the
// HTTP client both satisfy it.
type CredentialIssuer interface {
	Issue(ctx context.Context, req call.CredentialRequest) (*call.Credential, error)
}
