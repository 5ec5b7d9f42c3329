// Package sessionview serves the operator's live session over a websocket. A
// view owns one session cache and at most one pending outbound join; closing
// the socket cancels that join.
package sessionview

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/jacky-htg/call-console/backend/internal/bridge"
	"github.com/jacky-htg/call-console/libs/apperr"
	"github.com/jacky-htg/call-console/libs/call"
	"github.com/jacky-htg/call-console/libs/interfaces"
	"github.com/jacky-htg/call-console/libs/metrics"
	"github.com/jacky-htg/call-console/libs/roomname"
	"github.com/jacky-htg/call-console/libs/session"
)

// Actions accepted from the client.
const (
	ActionStart    = "start"
	ActionOutbound = "outbound"
	ActionRefresh  = "refresh"
)

// Events sent to the client.
const (
	EventCredential  = "credential"
	EventBridgeReady = "bridge_ready"
	EventJoin        = "join"
	EventNotice      = "notice"
	EventError       = "error"
)

const msgNoSession = "no active session"

// Message is a client request.
type Message struct {
	Action      string          `json:"action"`
	Environment string          `json:"environment"`
	Call        call.Descriptor `json:"call"`
	// Outbound only.
	JoinAsHumanAgent  bool  `json:"join_as_human_agent,omitempty"`
	WaitUntilAnswered *bool `json:"wait_until_answered,omitempty"`
}

// Event is a server notification.
type Event struct {
	Event      string           `json:"event"`
	Message    string           `json:"message,omitempty"`
	Credential *call.Credential `json:"credential,omitempty"`
	Result     *bridge.Result   `json:"result,omitempty"`
}

// Starter begins an outbound attempt.
type Starter interface {
	Start(ctx context.Context, c bridge.OutboundCall, hooks bridge.Hooks) (*bridge.Attempt, error)
}

// Handler upgrades requests to session views.
type Handler struct {
	issuer    interfaces.CredentialIssuer
	starter   Starter
	log       logrus.FieldLogger
	cacheOpts []session.Option
	upgrader  websocket.Upgrader
	active    atomic.Int64
}

func New(issuer interfaces.CredentialIssuer, starter Starter, log logrus.FieldLogger, cacheOpts ...session.Option) *Handler {
	return &Handler{
		issuer:    issuer,
		starter:   starter,
		log:       log,
		cacheOpts: append([]session.Option{session.WithLogger(log)}, cacheOpts...),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Active returns the number of open views.
func (h *Handler) Active() int {
	return int(h.active.Load())
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("session upgrade failed")
		return
	}

	h.active.Add(1)
	metrics.SessionViewsActive.Inc()
	defer func() {
		h.active.Add(-1)
		metrics.SessionViewsActive.Dec()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	v := &view{
		conn:    conn,
		cache:   session.New(h.issuer, h.cacheOpts...),
		starter: h.starter,
		log:     h.log.WithField("remote", r.RemoteAddr),
		ctx:     ctx,
	}
	defer func() {
		v.close()
		cancel()
		conn.Close()
	}()
	v.run()
}

type view struct {
	conn    *websocket.Conn
	cache   *session.Cache
	starter Starter
	log     logrus.FieldLogger
	ctx     context.Context

	writeMu sync.Mutex

	mu      sync.Mutex
	closed  bool
	pending *bridge.Attempt
	last    *call.CredentialRequest
}

func (v *view) run() {
	for {
		var msg Message
		if err := v.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				v.log.WithError(err).Warn("session read")
			}
			return
		}
		v.handle(msg)
	}
}

func (v *view) handle(msg Message) {
	switch msg.Action {
	case ActionStart:
		v.start(msg)
	case ActionOutbound:
		v.outbound(msg)
	case ActionRefresh:
		v.refresh()
	default:
		v.fail(apperr.Validation("unknown action %q", msg.Action))
	}
}

// start begins a new inbound or advanced session. Any pending outbound join is
// abandoned and the previous session is forgotten before anything is validated.
func (v *view) start(msg Message) {
	v.cancelPending()
	v.forget()

	d, err := roomname.Prepare(msg.Call)
	if err != nil {
		v.fail(err)
		return
	}
	req := call.RequestFor(msg.Environment, d)
	v.issue(EventCredential, req)
}

func (v *view) outbound(msg Message) {
	v.cancelPending()
	v.forget()

	d := msg.Call
	d.Direction = call.Outbound
	d, err := roomname.Prepare(d)
	if err != nil {
		v.fail(err)
		return
	}

	wait := true
	if msg.WaitUntilAnswered != nil {
		wait = *msg.WaitUntilAnswered
	}
	oc := bridge.OutboundCall{
		Environment:       msg.Environment,
		TrunkID:           d.TrunkID,
		FromNumber:        d.FromNumber,
		ToNumber:          d.ToNumber,
		RoomName:          d.RoomName,
		WaitUntilAnswered: wait,
		JoinAsHumanAgent:  msg.JoinAsHumanAgent,
	}
	attempt, err := v.starter.Start(v.ctx, oc, bridge.Hooks{
		OnJoin: func(*bridge.Result) {
			if v.isClosed() {
				return
			}
			v.issue(EventJoin, bridge.JoinRequest(oc))
		},
		OnNotice: func(text string) {
			if v.isClosed() {
				return
			}
			v.send(Event{Event: EventNotice, Message: text})
		},
	})
	if err != nil {
		v.fail(err)
		return
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		attempt.Cancel()
		return
	}
	v.pending = attempt
	v.mu.Unlock()
	v.send(Event{Event: EventBridgeReady, Result: attempt.Result})
}

func (v *view) refresh() {
	v.mu.Lock()
	last := v.last
	v.mu.Unlock()
	if last == nil {
		v.fail(apperr.Validation(msgNoSession))
		return
	}
	cred, err := v.cache.GetOrRefresh(v.ctx, *last)
	if err != nil {
		v.fail(err)
		return
	}
	v.send(Event{Event: EventCredential, Credential: cred})
}

func (v *view) issue(event string, req call.CredentialRequest) {
	cred, err := v.cache.Start(v.ctx, req)
	if err != nil {
		v.fail(err)
		return
	}
	v.mu.Lock()
	v.last = &req
	v.mu.Unlock()
	v.send(Event{Event: event, Credential: cred})
}

// forget drops the previous call's request and credential so a refresh after
// a failed start cannot mint a token for the prior room.
func (v *view) forget() {
	v.mu.Lock()
	v.last = nil
	v.mu.Unlock()
	v.cache.Invalidate()
}

func (v *view) cancelPending() {
	v.mu.Lock()
	p := v.pending
	v.pending = nil
	v.mu.Unlock()
	if p != nil && p.Cancel() {
		v.log.WithField("room", p.Call.RoomName).Info("pending join cancelled")
	}
}

func (v *view) close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	v.cancelPending()
	v.cache.Invalidate()
}

func (v *view) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// fail reports err to the client. The view stays open.
func (v *view) fail(err error) {
	msg := err.Error()
	var ue *apperr.UpstreamError
	if errors.As(err, &ue) {
		msg = ue.Err.Error()
	}
	v.log.WithError(err).WithField("kind", apperr.Kind(err)).Warn("session action failed")
	v.send(Event{Event: EventError, Message: msg})
}

func (v *view) send(e Event) {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()
	if err := v.conn.WriteJSON(e); err != nil {
		v.log.WithError(err).Debug("session write")
	}
}
