// Package runner drives one console session against a console server: it
// prepares the call, provisions outbound bridges and obtains the credential
// the operator joins with.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/jacky-htg/call-console/libs/call"
	"github.com/jacky-htg/call-console/libs/client"
	"github.com/jacky-htg/call-console/libs/config"
	"github.com/jacky-htg/call-console/libs/roomname"
	"github.com/jacky-htg/call-console/libs/session"
)

var (
	// ErrNotJoining is returned by Outbound when the operator chose not to join.
	ErrNotJoining = errors.New("not joining room")
	// ErrNoSession is returned by Credential when no session is active.
	ErrNoSession = errors.New("no active session")
)

// Runner holds the session of one console.
type Runner struct {
	client *client.Client
	cache  *session.Cache
	clock  clock.Clock
	settle time.Duration
	out    io.Writer
	log    logrus.FieldLogger

	last *call.CredentialRequest
}

// Option configures a Runner.
type Option func(*Runner)

func WithClock(c clock.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

func WithSettleDelay(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.settle = d
		}
	}
}

func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

func New(c *client.Client, log logrus.FieldLogger, opts ...Option) *Runner {
	r := &Runner{
		client: c,
		clock:  clock.New(),
		settle: config.DefaultSettleTime,
		out:    io.Discard,
		log:    log,
	}
	for _, o := range opts {
		o(r)
	}
	r.cache = session.New(c, session.WithClock(r.clock), session.WithLogger(log))
	return r
}

// Start begins an inbound or advanced session and returns its credential.
func (r *Runner) Start(ctx context.Context, env string, d call.Descriptor) (*call.Credential, error) {
	r.forget()
	d, err := roomname.Prepare(d)
	if err != nil {
		return nil, err
	}
	return r.begin(ctx, call.RequestFor(env, d))
}

// Outbound places a call through the server, waits for the settle delay and,
// when join is set, returns the operator's human agent credential. The wait
// ends early with ctx's error.
func (r *Runner) Outbound(ctx context.Context, env string, d call.Descriptor, join, wait bool) (*call.Credential, error) {
	r.forget()
	d.Direction = call.Outbound
	d, err := roomname.Prepare(d)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.ProvisionBridge(ctx, client.BridgeRequest{
		SIPNumber:         d.FromNumber,
		SIPTrunkID:        d.TrunkID,
		SIPCallTo:         d.ToNumber,
		RoomName:          d.RoomName,
		WaitUntilAnswered: wait,
		Environment:       env,
	})
	if err != nil {
		return nil, fmt.Errorf("room setup failed: %w", err)
	}
	color.New(color.FgGreen).Fprintf(r.out, "Room setup complete: %s\n", d.RoomName)
	if !resp.HasDispatch() {
		color.New(color.FgYellow).Fprintln(r.out, "No agent configured for this environment")
	}

	select {
	case <-r.clock.After(r.settle):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if !join {
		color.New(color.FgGreen).Fprintln(r.out, call.NotJoiningNotice)
		return nil, ErrNotJoining
	}
	return r.begin(ctx, call.CredentialRequest{
		Environment:     env,
		RoomName:        d.RoomName,
		FromNumber:      d.FromNumber,
		ToNumber:        d.ToNumber,
		ParticipantName: call.HumanAgentName,
		ParticipantType: call.HumanAgent,
	})
}

// Credential returns the current credential, refreshing it when it is about to expire.
func (r *Runner) Credential(ctx context.Context) (*call.Credential, error) {
	if r.last == nil {
		return nil, ErrNoSession
	}
	return r.cache.GetOrRefresh(ctx, *r.last)
}

// forget drops the previous session before a new one is attempted, so a failed
// start leaves nothing to refresh.
func (r *Runner) forget() {
	r.last = nil
	r.cache.Invalidate()
}

func (r *Runner) begin(ctx context.Context, req call.CredentialRequest) (*call.Credential, error) {
	cred, err := r.cache.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	r.last = &req
	r.log.WithFields(logrus.Fields{
		"room":        cred.RoomName,
		"participant": cred.ParticipantName,
	}).Info("session started")
	return cred, nil
}
