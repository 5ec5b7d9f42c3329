// Package config resolves per-environment LiveKit settings and the console's own
// server settings from the process environment, with a dotenv file as fallback.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/jacky-htg/call-console/libs/apperr"
)

// Variable suffixes read for every environment.
const (
	VarURL        = "LIVEKIT_URL"
	VarAPIKey     = "LIVEKIT_API_KEY"
	VarAPISecret  = "LIVEKIT_API_SECRET"
	VarAgentName  = "AGENT_NAME"
	VarTrunkList  = "OUTBOUND_TRUNK_LIST"
	notConfigured = "Not configured"
	keyMask       = "****"
)

// Source is a read-only view of process configuration. Lookup reports false for
// unset and for empty values.
type Source interface {
	Lookup(key string) (string, bool)
}

// Load builds a viper instance reading the process environment, layered over
// envFile when it exists. Environment variables win over the file.
func Load(envFile string) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()
	setServerDefaults(v)

	if envFile == "" {
		return v, nil
	}
	if _, err := os.Stat(envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		return nil, fmt.Errorf("stat env file: %w", err)
	}
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read env file %s: %w", envFile, err)
	}
	return v, nil
}

// ViperSource adapts a viper instance to Source.
type ViperSource struct {
	v *viper.Viper
}

func NewViperSource(v *viper.Viper) ViperSource { return ViperSource{v: v} }

func (s ViperSource) Lookup(key string) (string, bool) {
	if !s.v.IsSet(key) {
		return "", false
	}
	val := strings.TrimSpace(s.v.GetString(key))
	return val, val != ""
}

// MapSource is a fixed Source, mostly for tests and fixtures.
type MapSource map[string]string

func (m MapSource) Lookup(key string) (string, bool) {
	val := strings.TrimSpace(m[key])
	return val, val != ""
}

// Profile is the resolved configuration of one environment.
type Profile struct {
	Environment Environment
	ServiceURL  string
	APIKey      string
	APISecret   string
	AgentName   string
}

// Validate returns a *apperr.ConfigurationError naming the first missing variable.
func (p Profile) Validate() error {
	required := []struct {
		suffix, value string
	}{
		{VarURL, p.ServiceURL},
		{VarAPIKey, p.APIKey},
		{VarAPISecret, p.APISecret},
	}
	for _, r := range required {
		if r.value == "" {
			return &apperr.ConfigurationError{
				Environment: p.Environment.String(),
				Variable:    p.Environment.Key(r.suffix),
			}
		}
	}
	return nil
}

// Trunk is one outbound SIP trunk offered to the operator.
type Trunk struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Introspection is the operator-facing, secret-free view of a profile.
type Introspection struct {
	Environment         Environment `json:"environment"`
	LivekitURL          string      `json:"livekitUrl"`
	MaskedLivekitAPIKey string      `json:"maskedLivekitApiKey"`
	AgentName           string      `json:"agentName"`
}

// Resolver maps environment tags to profiles. Profiles are resolved on every
// call so a changed deployment does not need a restart.
type Resolver struct {
	src Source
}

func NewResolver(src Source) *Resolver {
	return &Resolver{src: src}
}

func (r *Resolver) get(env Environment, suffix string) string {
	v, _ := r.src.Lookup(env.Key(suffix))
	return v
}

// Resolve returns the profile for tag without validating it.
func (r *Resolver) Resolve(tag string) Profile {
	env := ParseEnvironment(tag)
	return Profile{
		Environment: env,
		ServiceURL:  r.get(env, VarURL),
		APIKey:      r.get(env, VarAPIKey),
		APISecret:   r.get(env, VarAPISecret),
		AgentName:   r.get(env, VarAgentName),
	}
}

// Require resolves tag and fails when any credential variable is missing.
func (r *Resolver) Require(tag string) (Profile, error) {
	p := r.Resolve(tag)
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Trunks returns the configured outbound trunks. The slice is never nil; a
// malformed list yields an empty slice together with the parse error.
func (r *Resolver) Trunks(tag string) ([]Trunk, error) {
	env := ParseEnvironment(tag)
	raw := r.get(env, VarTrunkList)
	trunks := []Trunk{}
	if raw == "" {
		return trunks, nil
	}
	if err := json.Unmarshal([]byte(raw), &trunks); err != nil {
		return []Trunk{}, fmt.Errorf("parse %s: %w", env.Key(VarTrunkList), err)
	}
	if trunks == nil {
		trunks = []Trunk{}
	}
	return trunks, nil
}

// Describe returns the masked view of tag for display.
func (r *Resolver) Describe(tag string) Introspection {
	p := r.Resolve(tag)
	out := Introspection{
		Environment:         p.Environment,
		LivekitURL:          orNotConfigured(p.ServiceURL),
		MaskedLivekitAPIKey: notConfigured,
		AgentName:           orNotConfigured(p.AgentName),
	}
	if p.APIKey != "" {
		out.MaskedLivekitAPIKey = MaskKey(p.APIKey)
	}
	return out
}

// MaskKey keeps the first four characters of key.
func MaskKey(key string) string {
	if len(key) > 4 {
		key = key[:4]
	}
	return key + keyMask
}

func orNotConfigured(s string) string {
	if s == "" {
		return notConfigured
	}
	return s
}
