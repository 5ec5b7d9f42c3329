package livekit

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/livekit/protocol/auth"
	lkproto "github.com/livekit/protocol/livekit"
)

// TokenTTL is how long an issued participant token stays valid.
const TokenTTL = 60 * time.Minute

// ErrNoExpiry is returned for tokens without an exp claim.
var ErrNoExpiry = errors.New("token has no expiry")

// TokenParams describes one participant token.
type TokenParams struct {
	APIKey     string
	APISecret  string
	Room       string
	Identity   string
	Name       string
	Attributes map[string]string
	// AgentName, when set, makes the server dispatch that agent into the room on join.
	AgentName string
	TTL       time.Duration
}

// GenerateAccessToken signs a LiveKit access token granting room join, publish
// (media and data) and subscribe on exactly one room.
func GenerateAccessToken(p TokenParams) (string, error) {
	if p.APIKey == "" || p.APISecret == "" {
		return "", fmt.Errorf("livekit api key/secret required")
	}
	if p.Room == "" {
		return "", fmt.Errorf("livekit room required")
	}
	if p.Identity == "" {
		return "", fmt.Errorf("livekit identity required")
	}
	ttl := p.TTL
	if ttl <= 0 {
		ttl = TokenTTL
	}

	grant := &auth.VideoGrant{RoomJoin: true, Room: p.Room}
	grant.SetCanPublish(true)
	grant.SetCanPublishData(true)
	grant.SetCanSubscribe(true)

	at := auth.NewAccessToken(p.APIKey, p.APISecret).
		SetIdentity(p.Identity).
		SetName(p.Name).
		SetVideoGrant(grant).
		SetValidFor(ttl)
	if len(p.Attributes) > 0 {
		at.SetAttributes(p.Attributes)
	}
	if p.AgentName != "" {
		at.SetRoomConfig(&lkproto.RoomConfiguration{
			Agents: []*lkproto.RoomAgentDispatch{{AgentName: p.AgentName}},
		})
	}

	signed, err := at.ToJWT()
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ExpiresAt reads the exp claim without verifying the signature. The browser
// side never holds the secret, so it can only inspect.
func ExpiresAt(token string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("decode token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// Verify checks the HS256 signature and time claims of token and returns its claims.
func Verify(token, apiSecret string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(apiSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	return claims, nil
}
