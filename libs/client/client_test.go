package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacky-htg/call-console/libs/call"
)

func TestIssueBasic(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/connection-details", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"serverUrl":"wss://x","roomName":"webin_+661_+662","participantName":"Ada","participantToken":"tok","participantType":"user"}`))
	}))
	defer srv.Close()

	cred, err := New(srv.URL).Issue(context.Background(), call.CredentialRequest{
		Environment: "DEV",
		RoomName:    "webin_+661_+662",
		FromNumber:  "+661",
		ToNumber:    "+662",
		AgentName:   "zai-agent",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok", cred.ParticipantToken)
	assert.Equal(t, call.User, cred.ParticipantType)

	assert.Equal(t, "webin_+661_+662", got["room_name"])
	assert.Equal(t, "+661", got["from_phone_number"])
	assert.Equal(t, "+662", got["destination_phone_number"])
	assert.Equal(t, "DEV", got["environment"])
	assert.Equal(t, map[string]any{"agents": []any{map[string]any{"agent_name": "zai-agent"}}}, got["room_config"])
}

func TestIssueAdvanced(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/advance-connection-details", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"roomName":"adv_x","participantType":"human_agent"}`))
	}))
	defer srv.Close()

	cred, err := New(srv.URL).Issue(context.Background(), call.CredentialRequest{
		RoomName:   "adv_x",
		Advanced:   true,
		Attributes: map[string]string{"zai.role": "human_agent"},
	})
	require.NoError(t, err)
	assert.Equal(t, call.HumanAgent, cred.ParticipantType)
	assert.Equal(t, map[string]any{"zai.role": "human_agent"}, got["participant_attributes"])
	assert.NotContains(t, got, "from_phone_number")
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "DEV_LIVEKIT_URL is not defined", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Issue(context.Background(), call.CredentialRequest{RoomName: "r"})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.EqualError(t, err, "DEV_LIVEKIT_URL is not defined")
}

func TestProvisionBridge(t *testing.T) {
	var got BridgeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sip-participant", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true,"participant":{"participant_id":"PA_1"},"dispatch":null}`))
	}))
	defer srv.Close()

	out, err := New(srv.URL + "/").ProvisionBridge(context.Background(), BridgeRequest{
		SIPNumber: "+6625440004", SIPTrunkID: "ST_x", SIPCallTo: "+66811112222",
		RoomName: "webout_+6625440004_+66811112222", WaitUntilAnswered: true,
	})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.False(t, out.HasDispatch())
	assert.JSONEq(t, `{"participant_id":"PA_1"}`, string(out.Participant))
	assert.True(t, got.WaitUntilAnswered)
	assert.Equal(t, "ST_x", got.SIPTrunkID)
}

func TestTrunksAndEnvConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PRD_BP", r.URL.Query().Get("env"))
		switch r.URL.Path {
		case "/api/trunk-list":
			_, _ = w.Write([]byte(`[{"id":"ST_1","name":"Main"}]`))
		case "/api/env-config":
			_, _ = w.Write([]byte(`{"environment":"PRD_BP","livekitUrl":"wss://x","maskedLivekitApiKey":"APIx****","agentName":"Not configured"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	trunks, err := c.Trunks(context.Background(), "PRD_BP")
	require.NoError(t, err)
	require.Len(t, trunks, 1)
	assert.Equal(t, "ST_1", trunks[0].ID)

	info, err := c.EnvConfig(context.Background(), "PRD_BP")
	require.NoError(t, err)
	assert.Equal(t, "APIx****", info.MaskedLivekitAPIKey)
	assert.Equal(t, "Not configured", info.AgentName)
}

// A ringing call outlasts the client timeout; only ctx bounds it.
func TestProvisionBridgeIgnoresClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		switch r.URL.Path {
		case "/api/sip-participant":
			_, _ = w.Write([]byte(`{"success":true,"participant":{"participant_id":"PA_1"},"dispatch":null}`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))

	out, err := c.ProvisionBridge(context.Background(), BridgeRequest{
		SIPNumber: "+6625440004", SIPTrunkID: "ST_x", SIPCallTo: "+66811112222",
		RoomName: "webout_+6625440004_+66811112222", WaitUntilAnswered: true,
	})
	require.NoError(t, err)
	assert.True(t, out.Success)

	_, err = c.Trunks(context.Background(), "DEV")
	assert.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.ProvisionBridge(ctx, BridgeRequest{SIPNumber: "+6625440004", SIPTrunkID: "ST_x", SIPCallTo: "+66811112222", RoomName: "r"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
