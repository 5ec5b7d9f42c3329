package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	lkproto "github.com/livekit/protocol/livekit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacky-htg/call-console/backend/internal/bridge"
	"github.com/jacky-htg/call-console/backend/internal/credential"
	"github.com/jacky-htg/call-console/libs/call"
	"github.com/jacky-htg/call-console/libs/config"
	"github.com/jacky-htg/call-console/libs/interfaces"
	"github.com/jacky-htg/call-console/libs/livekit"
	"github.com/jacky-htg/call-console/libs/logging"
)

const devSecret = "dev-secret-dev-secret-dev-secret-00"

type fakeClients struct {
	sip *lkproto.CreateSIPParticipantRequest
}

func (f *fakeClients) SIP(config.Profile) interfaces.SIPProvisioner { return f }

func (f *fakeClients) Dispatcher(config.Profile) interfaces.AgentDispatcher { return f }

func (f *fakeClients) CreateSIPParticipant(_ context.Context, req *lkproto.CreateSIPParticipantRequest) (*lkproto.SIPParticipantInfo, error) {
	f.sip = req
	return &lkproto.SIPParticipantInfo{ParticipantId: "PA_1", RoomName: req.RoomName}, nil
}

func (f *fakeClients) CreateDispatch(_ context.Context, req *lkproto.CreateAgentDispatchRequest) (*lkproto.AgentDispatch, error) {
	return &lkproto.AgentDispatch{Id: "AD_1", AgentName: req.AgentName, Room: req.Room}, nil
}

func newTestServer(t *testing.T, src config.MapSource) (*httptest.Server, *fakeClients) {
	t.Helper()
	log := logging.Discard()
	resolver := config.NewResolver(src)
	clients := &fakeClients{}
	srv := New(resolver,
		credential.New(resolver, log),
		bridge.New(resolver, clients, bridge.WithLogger(log)),
		nil,
		log,
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, clients
}

func fixture() config.MapSource {
	return config.MapSource{
		"DEV_LIVEKIT_URL":         "wss://dev.example.livekit.cloud",
		"DEV_LIVEKIT_API_KEY":     "APIdevkey123",
		"DEV_LIVEKIT_API_SECRET":  devSecret,
		"DEV_AGENT_NAME":          "zai-agent",
		"DEV_OUTBOUND_TRUNK_LIST": `[{"id":"ST_1","name":"Main"}]`,
		"PRD_LIVEKIT_URL":         "wss://prd.example.livekit.cloud",
		"PRD_LIVEKIT_API_KEY":     "APIprdkey123",
		"PRD_OUTBOUND_TRUNK_LIST": `not json`,
	}
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	var b bytes.Buffer
	_, err := b.ReadFrom(resp.Body)
	require.NoError(t, err)
	return b.String()
}

func TestConnectionDetails(t *testing.T) {
	ts, _ := newTestServer(t, fixture())

	resp := post(t, ts.URL+PathConnectionDetails, `{
		"room_name": "webin_+661_+662",
		"from_phone_number": "+661",
		"destination_phone_number": "+662",
		"participant_name": "Ada Lovelace",
		"participant_type": "human_agent",
		"environment": "DEV"
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))

	var cred call.Credential
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cred))
	assert.Equal(t, "wss://dev.example.livekit.cloud", cred.ServerURL)
	assert.Equal(t, "webin_+661_+662", cred.RoomName)
	assert.Equal(t, "Ada Lovelace", cred.ParticipantName)
	assert.Equal(t, call.HumanAgent, cred.ParticipantType)

	claims, err := livekit.Verify(cred.ParticipantToken, devSecret)
	require.NoError(t, err)
	attrs := claims["attributes"].(map[string]any)
	assert.Equal(t, "human_agent", attrs["zai.role"])
	assert.Equal(t, "+661", attrs["sip.phoneNumber"])
}

func TestConnectionDetailsMissingSecret(t *testing.T) {
	ts, _ := newTestServer(t, fixture())

	resp := post(t, ts.URL+PathConnectionDetails, `{"room_name":"r","environment":"PRD"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "PRD_LIVEKIT_API_SECRET is not defined", strings.TrimSpace(readBody(t, resp)))
}

func TestConnectionDetailsBadJSON(t *testing.T) {
	ts, _ := newTestServer(t, fixture())

	resp := post(t, ts.URL+PathConnectionDetails, `{`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdvanceConnectionDetails(t *testing.T) {
	ts, _ := newTestServer(t, fixture())

	resp := post(t, ts.URL+PathAdvanceConnectionDetails, `{
		"room_name": "adv_abcdefgh",
		"participant_attributes": {"zai.role": "human_agent", "zai.channel_type": " "},
		"environment": "DEV"
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cred call.Credential
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cred))
	assert.Equal(t, call.HumanAgent, cred.ParticipantType)
	assert.NotEmpty(t, cred.ParticipantName)

	claims, err := livekit.Verify(cred.ParticipantToken, devSecret)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"zai.role": "human_agent"}, claims["attributes"])
}

func TestSIPParticipant(t *testing.T) {
	ts, clients := newTestServer(t, fixture())

	resp := post(t, ts.URL+PathSIPParticipant, `{
		"sip_number": "+6625440004",
		"sip_trunk_id": "ST_x",
		"sip_call_to": "+66811112222",
		"room_name": "webout_+6625440004_+66811112222",
		"environment": "DEV"
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	var out struct {
		Success     bool           `json:"success"`
		Participant map[string]any `json:"participant"`
		Dispatch    map[string]any `json:"dispatch"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.Equal(t, "PA_1", out.Participant["participant_id"])
	assert.Equal(t, "AD_1", out.Dispatch["id"])
	assert.True(t, clients.sip.WaitUntilAnswered)
}

func TestSIPParticipantWaitFalse(t *testing.T) {
	ts, clients := newTestServer(t, fixture())

	resp := post(t, ts.URL+PathSIPParticipant, `{
		"sip_number": "+6625440004", "sip_trunk_id": "ST_x", "sip_call_to": "+66811112222",
		"room_name": "webout_+6625440004_+66811112222", "wait_until_answered": false
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, clients.sip.WaitUntilAnswered)
}

func TestSIPParticipantMissingFields(t *testing.T) {
	ts, clients := newTestServer(t, fixture())

	resp := post(t, ts.URL+PathSIPParticipant, `{"sip_number":"+661","room_name":"r","environment":"DEV"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Missing required SIP parameters", strings.TrimSpace(readBody(t, resp)))
	assert.Nil(t, clients.sip)
}

func TestEnvConfig(t *testing.T) {
	ts, _ := newTestServer(t, fixture())

	resp := get(t, ts.URL+PathEnvConfig+"?env=dev")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, map[string]string{
		"environment":         "DEV",
		"livekitUrl":          "wss://dev.example.livekit.cloud",
		"maskedLivekitApiKey": "APId****",
		"agentName":           "zai-agent",
	}, out)
}

func TestEnvConfigNotConfigured(t *testing.T) {
	ts, _ := newTestServer(t, config.MapSource{})

	resp := get(t, ts.URL+PathEnvConfig+"?env=LOCAL")
	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "LOCAL", out["environment"])
	assert.Equal(t, "Not configured", out["livekitUrl"])
	assert.Equal(t, "Not configured", out["maskedLivekitApiKey"])
}

func TestTrunkList(t *testing.T) {
	ts, _ := newTestServer(t, fixture())

	cases := map[string]string{
		"DEV":   `[{"id":"ST_1","name":"Main"}]`,
		"PRD":   `[]`,
		"LOCAL": `[]`,
	}
	for env, want := range cases {
		resp := get(t, ts.URL+PathTrunkList+"?env="+env)
		assert.Equal(t, http.StatusOK, resp.StatusCode, env)
		assert.JSONEq(t, want, readBody(t, resp), env)
	}
}

func TestMetricsAndHealth(t *testing.T) {
	ts, _ := newTestServer(t, fixture())

	assert.Equal(t, http.StatusOK, get(t, ts.URL+PathMetrics).StatusCode)
	assert.Equal(t, http.StatusNoContent, get(t, ts.URL+PathHealth).StatusCode)
}

func TestRequestIDEchoed(t *testing.T) {
	ts, _ := newTestServer(t, fixture())

	req, err := http.NewRequest(http.MethodGet, ts.URL+PathHealth, nil)
	require.NoError(t, err)
	req.Header.Set(HeaderRequestID, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(HeaderRequestID))
}
