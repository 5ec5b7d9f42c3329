// Package credential issues signed room credentials for console sessions.
package credential

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jacky-htg/call-console/libs/apperr"
	"github.com/jacky-htg/call-console/libs/call"
	"github.com/jacky-htg/call-console/libs/config"
	"github.com/jacky-htg/call-console/libs/livekit"
	"github.com/jacky-htg/call-console/libs/metrics"
)

// Attribute keys written into basic credentials.
const (
	AttrPhoneNumber      = "sip.phoneNumber"
	AttrTrunkPhoneNumber = "sip.trunkPhoneNumber"
	AttrRole             = "zai.role"
	AttrChannelType      = "zai.channel_type"
	ChannelText          = "text"
)

// Issuer signs credentials with the profile of the requested environment.
type Issuer struct {
	resolver *config.Resolver
	log      logrus.FieldLogger
}

func New(resolver *config.Resolver, log logrus.FieldLogger) *Issuer {
	return &Issuer{resolver: resolver, log: log}
}

// Issue resolves the environment, derives an identity and signs a token for
// req.RoomName. The configured agent is attached unless req names its own.
func (i *Issuer) Issue(_ context.Context, req call.CredentialRequest) (*call.Credential, error) {
	env := config.ParseEnvironment(req.Environment)
	log := i.log.WithFields(logrus.Fields{
		"environment": env,
		"room":        req.RoomName,
		"mode":        req.Mode(),
	})

	cred, err := i.issue(req)
	if err != nil {
		metrics.CredentialErrors.WithLabelValues(env.String(), apperr.Kind(err)).Inc()
		log.WithError(err).Error("issue credential")
		return nil, err
	}
	metrics.CredentialsIssued.WithLabelValues(env.String(), req.Mode()).Inc()
	log.WithField("participant", cred.ParticipantName).Info("credential issued")
	return cred, nil
}

func (i *Issuer) issue(req call.CredentialRequest) (*call.Credential, error) {
	profile, err := i.resolver.Require(req.Environment)
	if err != nil {
		return nil, err
	}

	room := strings.TrimSpace(req.RoomName)
	if room == "" {
		return nil, apperr.Validation("room_name is required")
	}

	name := strings.TrimSpace(req.ParticipantName)
	if name == "" {
		name = call.RandomDisplayName()
	}

	attrs, pt := attributesFor(req)

	agent := strings.TrimSpace(req.AgentName)
	if agent == "" {
		agent = profile.AgentName
	}

	token, err := livekit.GenerateAccessToken(livekit.TokenParams{
		APIKey:     profile.APIKey,
		APISecret:  profile.APISecret,
		Room:       room,
		Identity:   call.NewIdentity(name),
		Name:       name,
		Attributes: attrs,
		AgentName:  agent,
	})
	if err != nil {
		return nil, apperr.Upstream("sign token", err)
	}

	return &call.Credential{
		ServerURL:        profile.ServiceURL,
		RoomName:         room,
		ParticipantName:  name,
		ParticipantToken: token,
		ParticipantType:  pt,
	}, nil
}

// attributesFor returns the cleaned attribute map for req and the participant
// type it implies. In advanced mode the role attribute decides the type.
func attributesFor(req call.CredentialRequest) (map[string]string, call.ParticipantType) {
	if req.Advanced {
		attrs := call.CleanAttributes(req.Attributes)
		return attrs, call.ParseParticipantType(attrs[AttrRole])
	}

	pt := req.ParticipantType
	if pt == "" {
		pt = call.User
	}
	return call.CleanAttributes(map[string]string{
		AttrPhoneNumber:      req.FromNumber,
		AttrTrunkPhoneNumber: req.ToNumber,
		AttrRole:             string(pt),
		AttrChannelType:      ChannelText,
	}), pt
}
