// Package client talks to the console server's HTTP endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jacky-htg/call-console/libs/call"
	"github.com/jacky-htg/call-console/libs/config"
)

const defaultTimeout = 30 * time.Second

// StatusError is a non-2xx answer. Message is the trimmed response body, which
// for server-side failures is the operator-facing error text.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return e.Message
}

// Client calls one console server.
type Client struct {
	base string
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client (30s timeout). The timeout is
// not applied to ProvisionBridge.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type agentSpec struct {
	AgentName string `json:"agent_name"`
}

type roomConfig struct {
	Agents []agentSpec `json:"agents"`
}

type basicRequest struct {
	RoomName               string      `json:"room_name"`
	FromPhoneNumber        string      `json:"from_phone_number"`
	DestinationPhoneNumber string      `json:"destination_phone_number"`
	ParticipantName        string      `json:"participant_name,omitempty"`
	ParticipantType        string      `json:"participant_type,omitempty"`
	Environment            string      `json:"environment"`
	RoomConfig             *roomConfig `json:"room_config,omitempty"`
}

type advancedRequest struct {
	RoomName              string            `json:"room_name"`
	ParticipantName       string            `json:"participant_name,omitempty"`
	ParticipantAttributes map[string]string `json:"participant_attributes"`
	Environment           string            `json:"environment"`
}

// Issue requests a credential from the basic or advanced endpoint.
func (c *Client) Issue(ctx context.Context, req call.CredentialRequest) (*call.Credential, error) {
	var (
		path string
		body any
	)
	if req.Advanced {
		path = "/api/advance-connection-details"
		body = advancedRequest{
			RoomName:              req.RoomName,
			ParticipantName:       req.ParticipantName,
			ParticipantAttributes: req.Attributes,
			Environment:           req.Environment,
		}
	} else {
		br := basicRequest{
			RoomName:               req.RoomName,
			FromPhoneNumber:        req.FromNumber,
			DestinationPhoneNumber: req.ToNumber,
			ParticipantName:        req.ParticipantName,
			ParticipantType:        string(req.ParticipantType),
			Environment:            req.Environment,
		}
		if req.AgentName != "" {
			br.RoomConfig = &roomConfig{Agents: []agentSpec{{AgentName: req.AgentName}}}
		}
		path, body = "/api/connection-details", br
	}

	var cred call.Credential
	if err := c.do(ctx, http.MethodPost, path, body, &cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

// BridgeRequest asks the server to provision an outbound bridge.
type BridgeRequest struct {
	SIPNumber         string `json:"sip_number"`
	SIPTrunkID        string `json:"sip_trunk_id"`
	SIPCallTo         string `json:"sip_call_to"`
	RoomName          string `json:"room_name"`
	WaitUntilAnswered bool   `json:"wait_until_answered"`
	Environment       string `json:"environment"`
}

// BridgeResponse keeps the participant and dispatch handles opaque.
type BridgeResponse struct {
	Success     bool            `json:"success"`
	Participant json.RawMessage `json:"participant"`
	Dispatch    json.RawMessage `json:"dispatch"`
}

// HasDispatch reports whether an agent was dispatched.
func (r *BridgeResponse) HasDispatch() bool {
	return len(r.Dispatch) > 0 && string(r.Dispatch) != "null"
}

// ProvisionBridge places an outbound call. With WaitUntilAnswered the server
// answers only once the callee picks up, so the client timeout does not apply
// and ctx alone bounds the wait.
func (c *Client) ProvisionBridge(ctx context.Context, req BridgeRequest) (*BridgeResponse, error) {
	var out BridgeResponse
	if err := c.doWith(ctx, c.untimed(), http.MethodPost, "/api/sip-participant", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Trunks lists the outbound trunks of env.
func (c *Client) Trunks(ctx context.Context, env string) ([]config.Trunk, error) {
	trunks := []config.Trunk{}
	if err := c.do(ctx, http.MethodGet, "/api/trunk-list?env="+url.QueryEscape(env), nil, &trunks); err != nil {
		return nil, err
	}
	return trunks, nil
}

// EnvConfig returns the masked configuration of env.
func (c *Client) EnvConfig(ctx context.Context, env string) (*config.Introspection, error) {
	var out config.Introspection
	if err := c.do(ctx, http.MethodGet, "/api/env-config?env="+url.QueryEscape(env), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) untimed() *http.Client {
	hc := *c.http
	hc.Timeout = 0
	return &hc
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	return c.doWith(ctx, c.http, method, path, in, out)
}

func (c *Client) doWith(ctx context.Context, hc *http.Client, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
