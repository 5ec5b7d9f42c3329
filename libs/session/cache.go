// Package session keeps the one credential a console session is allowed to
// hold and decides when it has to be replaced.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"github.com/jacky-htg/call-console/libs/call"
	"github.com/jacky-htg/call-console/libs/config"
	"github.com/jacky-htg/call-console/libs/interfaces"
	"github.com/jacky-htg/call-console/libs/livekit"
	"github.com/jacky-htg/call-console/libs/metrics"
)

// RefreshMargin is how long before expiry a cached credential is treated as stale.
const RefreshMargin = 60 * time.Second

// Cache holds at most one credential. It is safe for concurrent use; callers
// racing on a refresh share a single issuance.
type Cache struct {
	issuer interfaces.CredentialIssuer
	clock  clock.Clock
	log    logrus.FieldLogger

	mu   sync.Mutex
	cur  *call.Credential
	env  config.Environment
	room string
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock swaps the wall clock, mostly for tests.
func WithClock(c clock.Clock) Option {
	return func(cache *Cache) { cache.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(cache *Cache) { cache.log = l }
}

// New returns an empty cache that fetches through issuer.
func New(issuer interfaces.CredentialIssuer, opts ...Option) *Cache {
	c := &Cache{
		issuer: issuer,
		clock:  clock.New(),
		log:    logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// GetOrRefresh returns the cached credential when it is still fresh and was
// issued for the same room and environment as req. Otherwise it requests a new
// one and replaces the cached value. On failure the old value is kept.
func (c *Cache) GetOrRefresh(ctx context.Context, req call.CredentialRequest) (*call.Credential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.freshLocked(req) {
		metrics.SessionCache.WithLabelValues("hit").Inc()
		return c.cur, nil
	}
	return c.fetchLocked(ctx, req)
}

// Start drops whatever is cached and fetches a credential for req. A new call
// always gets a new identity, even when the room is unchanged.
func (c *Cache) Start(ctx context.Context, req call.CredentialRequest) (*call.Credential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearLocked()
	return c.fetchLocked(ctx, req)
}

// Invalidate clears the cache.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.clearLocked()
	c.mu.Unlock()
}

// Current returns the cached credential, or nil.
func (c *Cache) Current() *call.Credential {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// NeedsRefresh reports whether token must be replaced at now. Tokens that
// cannot be decoded or carry no expiry always need a refresh.
func NeedsRefresh(token string, now time.Time) bool {
	if token == "" {
		return true
	}
	exp, err := livekit.ExpiresAt(token)
	if err != nil {
		return true
	}
	return !now.Before(exp.Add(-RefreshMargin))
}

func (c *Cache) freshLocked(req call.CredentialRequest) bool {
	if c.cur == nil {
		return false
	}
	if c.env != config.ParseEnvironment(req.Environment) || c.room != req.RoomName {
		return false
	}
	return !NeedsRefresh(c.cur.ParticipantToken, c.clock.Now())
}

func (c *Cache) fetchLocked(ctx context.Context, req call.CredentialRequest) (*call.Credential, error) {
	cred, err := c.issuer.Issue(ctx, req)
	if err != nil {
		c.log.WithError(err).WithField("room", req.RoomName).Warn("credential refresh failed")
		return nil, err
	}
	metrics.SessionCache.WithLabelValues("refresh").Inc()
	c.cur = cred
	c.env = config.ParseEnvironment(req.Environment)
	c.room = req.RoomName
	c.log.WithFields(logrus.Fields{
		"room":     cred.RoomName,
		"identity": cred.ParticipantName,
	}).Debug("credential refreshed")
	return cred, nil
}

func (c *Cache) clearLocked() {
	c.cur = nil
	c.env = ""
	c.room = ""
}
