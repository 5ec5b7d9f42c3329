// Package bridge places outbound calls: it provisions the SIP bridge
// participant, dispatches the voice agent into the same room and, after a
// settle delay, lets the operator join as a human agent.
package bridge

import (
	"context"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	lkproto "github.com/livekit/protocol/livekit"
	"github.com/sirupsen/logrus"

	"github.com/jacky-htg/call-console/libs/apperr"
	"github.com/jacky-htg/call-console/libs/call"
	"github.com/jacky-htg/call-console/libs/config"
	"github.com/jacky-htg/call-console/libs/interfaces"
	"github.com/jacky-htg/call-console/libs/metrics"
)

// Attributes set on every bridge participant.
const (
	BridgeRole        = "user"
	BridgeChannelType = "livekit_audio"
)

// OutboundCall is one request to place a call through a trunk.
type OutboundCall struct {
	Environment       string
	TrunkID           string
	FromNumber        string
	ToNumber          string
	RoomName          string
	WaitUntilAnswered bool
	// JoinAsHumanAgent makes the settle continuation hand out a join request
	// instead of a completion notice.
	JoinAsHumanAgent bool
}

// Result is the outcome of steps 1 and 2. Dispatch is nil when no agent is
// configured for the environment.
type Result struct {
	Participant *lkproto.SIPParticipantInfo `json:"participant"`
	Dispatch    *lkproto.AgentDispatch      `json:"dispatch"`
}

// ClientFactory builds service clients for a resolved profile.
type ClientFactory interface {
	SIP(p config.Profile) interfaces.SIPProvisioner
	Dispatcher(p config.Profile) interfaces.AgentDispatcher
}

// Orchestrator sequences bridge provisioning, agent dispatch and the delayed join.
type Orchestrator struct {
	resolver *config.Resolver
	clients  ClientFactory
	clock    clock.Clock
	settle   time.Duration
	log      logrus.FieldLogger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithClock(c clock.Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// WithSettleDelay overrides config.DefaultSettleTime. Non-positive values are ignored.
func WithSettleDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.settle = d
		}
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Orchestrator) { o.log = l }
}

func New(resolver *config.Resolver, clients ClientFactory, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		resolver: resolver,
		clients:  clients,
		clock:    clock.New(),
		settle:   config.DefaultSettleTime,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SettleDelay returns the delay between a successful dispatch and the join.
func (o *Orchestrator) SettleDelay() time.Duration { return o.settle }

// Provision runs the synchronous part of an outbound call: create the bridge
// participant, then dispatch the agent. Nothing is retried or rolled back.
func (o *Orchestrator) Provision(ctx context.Context, c OutboundCall) (*Result, error) {
	return o.provision(ctx, c, nil)
}

type stepper interface {
	step(ctx context.Context, event string)
}

func (o *Orchestrator) provision(ctx context.Context, c OutboundCall, s stepper) (res *Result, err error) {
	c = normalize(c)
	env := config.ParseEnvironment(c.Environment)
	log := o.log.WithFields(logrus.Fields{
		"environment": env,
		"room":        c.RoomName,
		"trunk":       c.TrunkID,
	})

	start := o.clock.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = apperr.Kind(err)
			log.WithError(err).Error("provision outbound call")
		}
		metrics.BridgeProvisions.WithLabelValues(env.String(), result).Inc()
		metrics.BridgeProvisionSeconds.WithLabelValues(env.String()).Observe(o.clock.Since(start).Seconds())
	}()

	if c.FromNumber == "" || c.TrunkID == "" || c.ToNumber == "" || c.RoomName == "" {
		return nil, apperr.Validation(apperr.MissingSIPParameters)
	}
	profile, err := o.resolver.Require(c.Environment)
	if err != nil {
		return nil, err
	}

	if s != nil {
		s.step(ctx, eventProvision)
	}
	name := call.RandomDisplayName()
	participant, err := o.clients.SIP(profile).CreateSIPParticipant(ctx, &lkproto.CreateSIPParticipantRequest{
		SipTrunkId:          c.TrunkID,
		SipNumber:           c.FromNumber,
		SipCallTo:           c.ToNumber,
		RoomName:            c.RoomName,
		ParticipantIdentity: call.NewIdentity(name),
		ParticipantName:     name,
		ParticipantAttributes: map[string]string{
			"zai.role":         BridgeRole,
			"zai.channel_type": BridgeChannelType,
		},
		WaitUntilAnswered: c.WaitUntilAnswered,
		PlayDialtone:      true,
		KrispEnabled:      true,
	})
	if err != nil {
		return nil, apperr.Upstream("create sip participant", err)
	}
	log.WithField("participant", participant.GetParticipantIdentity()).Info("bridge participant created")

	res = &Result{Participant: participant}
	if profile.AgentName == "" {
		log.Info("no agent configured, skipping dispatch")
		return res, nil
	}

	if s != nil {
		s.step(ctx, eventDispatch)
	}
	dispatch, err := o.clients.Dispatcher(profile).CreateDispatch(ctx, &lkproto.CreateAgentDispatchRequest{
		AgentName: profile.AgentName,
		Room:      c.RoomName,
	})
	if err != nil {
		return nil, apperr.Upstream("create agent dispatch", err)
	}
	log.WithField("agent", profile.AgentName).Info("agent dispatched")
	res.Dispatch = dispatch
	return res, nil
}

// JoinRequest is the credential request the operator joins with once the
// settle delay has passed.
func JoinRequest(c OutboundCall) call.CredentialRequest {
	c = normalize(c)
	return call.CredentialRequest{
		Environment:     c.Environment,
		RoomName:        c.RoomName,
		FromNumber:      c.FromNumber,
		ToNumber:        c.ToNumber,
		ParticipantName: call.HumanAgentName,
		ParticipantType: call.HumanAgent,
	}
}

func normalize(c OutboundCall) OutboundCall {
	c.TrunkID = strings.TrimSpace(c.TrunkID)
	c.FromNumber = strings.TrimSpace(c.FromNumber)
	c.ToNumber = strings.TrimSpace(c.ToNumber)
	c.RoomName = strings.TrimSpace(c.RoomName)
	return c
}
