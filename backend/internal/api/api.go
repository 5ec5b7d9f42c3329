// Package api serves the console's HTTP endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/jacky-htg/call-console/backend/internal/bridge"
	"github.com/jacky-htg/call-console/libs/apperr"
	"github.com/jacky-htg/call-console/libs/call"
	"github.com/jacky-htg/call-console/libs/config"
	"github.com/jacky-htg/call-console/libs/interfaces"
)

// Routes.
const (
	PathConnectionDetails        = "/api/connection-details"
	PathAdvanceConnectionDetails = "/api/advance-connection-details"
	PathSIPParticipant           = "/api/sip-participant"
	PathEnvConfig                = "/api/env-config"
	PathTrunkList                = "/api/trunk-list"
	PathSession                  = "/api/session"
	PathMetrics                  = "/metrics"
	PathHealth                   = "/healthz"

	HeaderRequestID = "X-Request-Id"
)

// Provisioner runs the synchronous part of an outbound call.
type Provisioner interface {
	Provision(ctx context.Context, c bridge.OutboundCall) (*bridge.Result, error)
}

// Server wires the endpoints to the issuer, orchestrator and resolver.
type Server struct {
	resolver *config.Resolver
	issuer   interfaces.CredentialIssuer
	bridge   Provisioner
	session  http.Handler
	log      logrus.FieldLogger
}

// New returns a Server. session may be nil, in which case /api/session is not served.
func New(resolver *config.Resolver, issuer interfaces.CredentialIssuer, p Provisioner, session http.Handler, log logrus.FieldLogger) *Server {
	return &Server{
		resolver: resolver,
		issuer:   issuer,
		bridge:   p,
		session:  session,
		log:      log,
	}
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+PathConnectionDetails, s.connectionDetails)
	mux.HandleFunc("POST "+PathAdvanceConnectionDetails, s.advanceConnectionDetails)
	mux.HandleFunc("POST "+PathSIPParticipant, s.sipParticipant)
	mux.HandleFunc("GET "+PathEnvConfig, s.envConfig)
	mux.HandleFunc("GET "+PathTrunkList, s.trunkList)
	if s.session != nil {
		mux.Handle("GET "+PathSession, s.session)
	}
	mux.Handle("GET "+PathMetrics, promhttp.Handler())
	mux.HandleFunc("GET "+PathHealth, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return s.withRequestLog(mux)
}

type agentSpec struct {
	AgentName string `json:"agent_name"`
}

type roomConfig struct {
	Agents []agentSpec `json:"agents"`
}

type connectionDetailsRequest struct {
	RoomName               string      `json:"room_name"`
	FromPhoneNumber        string      `json:"from_phone_number"`
	DestinationPhoneNumber string      `json:"destination_phone_number"`
	ParticipantName        string      `json:"participant_name"`
	ParticipantType        string      `json:"participant_type"`
	Environment            string      `json:"environment"`
	RoomConfig             *roomConfig `json:"room_config,omitempty"`
}

func (s *Server) connectionDetails(w http.ResponseWriter, r *http.Request) {
	var body connectionDetailsRequest
	if !decode(w, r, &body) {
		return
	}
	req := call.CredentialRequest{
		Environment:     body.Environment,
		RoomName:        body.RoomName,
		FromNumber:      body.FromPhoneNumber,
		ToNumber:        body.DestinationPhoneNumber,
		ParticipantName: body.ParticipantName,
		ParticipantType: call.ParseParticipantType(body.ParticipantType),
	}
	if body.RoomConfig != nil && len(body.RoomConfig.Agents) > 0 {
		req.AgentName = body.RoomConfig.Agents[0].AgentName
	}
	s.issue(w, r, req)
}

type advanceConnectionDetailsRequest struct {
	RoomName              string            `json:"room_name"`
	ParticipantName       string            `json:"participant_name"`
	ParticipantAttributes map[string]string `json:"participant_attributes"`
	Environment           string            `json:"environment"`
}

func (s *Server) advanceConnectionDetails(w http.ResponseWriter, r *http.Request) {
	var body advanceConnectionDetailsRequest
	if !decode(w, r, &body) {
		return
	}
	s.issue(w, r, call.CredentialRequest{
		Environment:     body.Environment,
		RoomName:        body.RoomName,
		ParticipantName: body.ParticipantName,
		Attributes:      body.ParticipantAttributes,
		Advanced:        true,
	})
}

func (s *Server) issue(w http.ResponseWriter, r *http.Request, req call.CredentialRequest) {
	cred, err := s.issuer.Issue(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, cred)
}

type sipParticipantRequest struct {
	SIPNumber         string `json:"sip_number"`
	SIPTrunkID        string `json:"sip_trunk_id"`
	SIPCallTo         string `json:"sip_call_to"`
	RoomName          string `json:"room_name"`
	WaitUntilAnswered *bool  `json:"wait_until_answered"`
	Environment       string `json:"environment"`
}

type sipParticipantResponse struct {
	Success bool `json:"success"`
	*bridge.Result
}

func (s *Server) sipParticipant(w http.ResponseWriter, r *http.Request) {
	var body sipParticipantRequest
	if !decode(w, r, &body) {
		return
	}
	wait := true
	if body.WaitUntilAnswered != nil {
		wait = *body.WaitUntilAnswered
	}
	res, err := s.bridge.Provision(r.Context(), bridge.OutboundCall{
		Environment:       body.Environment,
		TrunkID:           body.SIPTrunkID,
		FromNumber:        body.SIPNumber,
		ToNumber:          body.SIPCallTo,
		RoomName:          body.RoomName,
		WaitUntilAnswered: wait,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, sipParticipantResponse{Success: true, Result: res})
}

func (s *Server) envConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.resolver.Describe(r.URL.Query().Get("env")))
}

func (s *Server) trunkList(w http.ResponseWriter, r *http.Request) {
	env := r.URL.Query().Get("env")
	trunks, err := s.resolver.Trunks(env)
	if err != nil {
		s.log.WithError(err).WithField("environment", config.ParseEnvironment(env)).Warn("trunk list unreadable")
	}
	writeJSON(w, trunks)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers 500 with the bare message of err.
func writeError(w http.ResponseWriter, err error) {
	msg := err.Error()
	var ue *apperr.UpstreamError
	if errors.As(err, &ue) {
		msg = ue.Err.Error()
	}
	http.Error(w, msg, http.StatusInternalServerError)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "no-store")
		}

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		s.log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     sw.status,
			"duration":   time.Since(start),
		}).Info("request")
	})
}
