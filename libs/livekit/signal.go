package livekit

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/gorilla/websocket"
)

// SignalURL returns the signaling websocket URL of serverURL for token:
// <server>/rtc?access_token=<token>, with http(s) mapped to ws(s).
func SignalURL(serverURL, token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("no token")
	}
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid server url scheme %q", u.Scheme)
	}
	u.Path = "/rtc"
	q := u.Query()
	q.Set("access_token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// DialSignal opens the signaling websocket for token. It only proves the
// credential is accepted; no media is negotiated.
func DialSignal(ctx context.Context, serverURL, token string) (*websocket.Conn, error) {
	u, err := SignalURL(serverURL, token)
	if err != nil {
		return nil, err
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		if resp != nil {
			b, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("dial signal: %w (status=%d body=%s)", err, resp.StatusCode, string(b))
		}
		return nil, fmt.Errorf("dial signal: %w", err)
	}
	return conn, nil
}
