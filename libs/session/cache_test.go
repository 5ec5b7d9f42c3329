package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacky-htg/call-console/libs/call"
	"github.com/jacky-htg/call-console/libs/logging"
)

func tokenExpiring(t *testing.T, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
		Subject:   "tester_1",
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

type fakeIssuer struct {
	t     *testing.T
	clk   clock.Clock
	ttl   time.Duration
	calls int
	err   error
}

func (f *fakeIssuer) Issue(_ context.Context, req call.CredentialRequest) (*call.Credential, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &call.Credential{
		ServerURL:        "wss://dev.example",
		RoomName:         req.RoomName,
		ParticipantName:  fmt.Sprintf("tester_%d", f.calls),
		ParticipantToken: tokenExpiring(f.t, f.clk.Now().Add(f.ttl)),
		ParticipantType:  call.User,
	}, nil
}

func newCache(t *testing.T, ttl time.Duration) (*Cache, *fakeIssuer, *clock.Mock) {
	clk := clock.NewMock()
	clk.Set(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	iss := &fakeIssuer{t: t, clk: clk, ttl: ttl}
	return New(iss, WithClock(clk), WithLogger(logging.Discard())), iss, clk
}

var devRoom = call.CredentialRequest{Environment: "DEV", RoomName: "webin_+661_+662"}

func TestNeedsRefresh(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, NeedsRefresh("", now))
	assert.True(t, NeedsRefresh("garbage", now))
	assert.True(t, NeedsRefresh(tokenExpiring(t, now.Add(59*time.Second)), now))
	assert.True(t, NeedsRefresh(tokenExpiring(t, now.Add(60*time.Second)), now))
	assert.False(t, NeedsRefresh(tokenExpiring(t, now.Add(61*time.Second)), now))
	assert.False(t, NeedsRefresh(tokenExpiring(t, now.Add(time.Hour)), now))

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("k"))
	require.NoError(t, err)
	assert.True(t, NeedsRefresh(noExp, now))
}

func TestGetOrRefreshReusesFreshCredential(t *testing.T) {
	c, iss, _ := newCache(t, time.Hour)
	ctx := context.Background()

	first, err := c.GetOrRefresh(ctx, devRoom)
	require.NoError(t, err)
	second, err := c.GetOrRefresh(ctx, devRoom)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, iss.calls)
}

// A token expiring in 59s is refreshed, one expiring in 61s is not.
func TestGetOrRefreshMargin(t *testing.T) {
	c, iss, clk := newCache(t, time.Hour)
	ctx := context.Background()

	first, err := c.GetOrRefresh(ctx, devRoom)
	require.NoError(t, err)

	clk.Add(time.Hour - 61*time.Second)
	got, err := c.GetOrRefresh(ctx, devRoom)
	require.NoError(t, err)
	assert.Same(t, first, got)

	clk.Add(2 * time.Second)
	got, err = c.GetOrRefresh(ctx, devRoom)
	require.NoError(t, err)
	assert.NotSame(t, first, got)
	assert.Equal(t, 2, iss.calls)
}

func TestGetOrRefreshDifferentRoomOrEnvironment(t *testing.T) {
	c, iss, _ := newCache(t, time.Hour)
	ctx := context.Background()

	_, err := c.GetOrRefresh(ctx, devRoom)
	require.NoError(t, err)

	other := devRoom
	other.RoomName = "webin_+661_+663"
	got, err := c.GetOrRefresh(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, "webin_+661_+663", got.RoomName)

	prd := other
	prd.Environment = "prd"
	_, err = c.GetOrRefresh(ctx, prd)
	require.NoError(t, err)
	assert.Equal(t, 3, iss.calls)

	// An unknown tag falls back to DEV, which is a different cache key than PRD.
	unknown := other
	unknown.Environment = "staging"
	_, err = c.GetOrRefresh(ctx, unknown)
	require.NoError(t, err)
	assert.Equal(t, 4, iss.calls)
}

func TestStartAlwaysFetches(t *testing.T) {
	c, iss, _ := newCache(t, time.Hour)
	ctx := context.Background()

	first, err := c.Start(ctx, devRoom)
	require.NoError(t, err)
	second, err := c.Start(ctx, devRoom)
	require.NoError(t, err)

	assert.NotEqual(t, first.ParticipantName, second.ParticipantName)
	assert.Equal(t, 2, iss.calls)
	assert.Same(t, second, c.Current())
}

func TestFailedRefreshKeepsPrevious(t *testing.T) {
	c, iss, clk := newCache(t, time.Hour)
	ctx := context.Background()

	first, err := c.GetOrRefresh(ctx, devRoom)
	require.NoError(t, err)

	clk.Add(time.Hour)
	iss.err = errors.New("DEV_LIVEKIT_URL is not defined")
	_, err = c.GetOrRefresh(ctx, devRoom)
	require.Error(t, err)
	assert.Same(t, first, c.Current())
}

func TestInvalidate(t *testing.T) {
	c, iss, _ := newCache(t, time.Hour)
	ctx := context.Background()

	_, err := c.GetOrRefresh(ctx, devRoom)
	require.NoError(t, err)
	c.Invalidate()
	assert.Nil(t, c.Current())

	_, err = c.GetOrRefresh(ctx, devRoom)
	require.NoError(t, err)
	assert.Equal(t, 2, iss.calls)
}
