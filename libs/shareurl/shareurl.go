// Package shareurl projects console form state onto query parameters so a link
// restores the same form on page load. It stores raw field values; it does not
// carry encoded room names.
package shareurl

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jacky-htg/call-console/libs/call"
	"github.com/jacky-htg/call-console/libs/config"
	"github.com/jacky-htg/call-console/libs/roomname"
)

// Tab is the console form the link opens.
type Tab string

const (
	TabInbound  Tab = "inbound"
	TabOutbound Tab = "outbound"
	TabAdvance  Tab = "advance"
)

// Query parameter names.
const (
	ParamEnv      = "env"
	ParamTab      = "tab"
	ParamFrom     = "from"
	ParamTo       = "to"
	ParamSuffix   = "suffix"
	ParamType     = "type"
	ParamRoom     = "room"
	ParamSIPFrom  = "sip_from"
	ParamSIPTo    = "sip_to"
	ParamSIPTrunk = "sip_trunk"
)

// AttributeKeys are the participant attributes the advanced form offers, in display order.
var AttributeKeys = []string{
	"zai.role",
	"zai.config_source",
	"zai.channel_type",
	"zai.channel_identifier",
	"zai.customer_identifier",
	"zai.chat_ctx_id",
	"zai.outbound_batch_record_id",
	"zai.agent_identifier",
	"zai.agent_id",
	"zai.agent_revision_id",
	"zai.sip_direction",
	"zai.sip_number",
	"sip.trunkPhoneNumber",
	"sip.phoneNumber",
	"sip.callerId",
	"sip.fromUser",
}

// AttributeOptions lists the allowed values of the select-style attributes.
var AttributeOptions = map[string][]string{
	"zai.role":          {"ai_agent", "human_agent", "user"},
	"zai.config_source": {"api", "session_config_api", "agent_session_config_api", "file"},
	"zai.channel_type":  {"livekit_audio", "livekit_text"},
	"zai.sip_direction": {"inbound", "outbound"},
}

// State is the restorable form state of the console.
type State struct {
	Environment config.Environment
	Tab         Tab

	// inbound
	From   string
	To     string
	Suffix string
	Type   call.ParticipantType
	Room   string

	// outbound
	SIPFrom  string
	SIPTo    string
	SIPTrunk string

	// advance
	Attributes map[string]string
}

// Defaults is the state of a freshly opened console.
func Defaults() State {
	return State{
		Environment: config.DefaultEnvironment,
		Tab:         TabInbound,
		From:        roomname.PlaceholderNumber,
		To:          roomname.PlaceholderNumber,
		Type:        call.User,
		Attributes:  map[string]string{},
	}
}

// Values returns the query parameters for s. Only fields of the active tab are
// written; empty values are omitted.
func Values(s State) url.Values {
	q := url.Values{}
	q.Set(ParamEnv, string(config.ParseEnvironment(string(s.Environment))))
	tab := parseTab(string(s.Tab))
	q.Set(ParamTab, string(tab))

	set := func(key, val string) {
		if val = strings.TrimSpace(val); val != "" {
			q.Set(key, val)
		}
	}

	switch tab {
	case TabOutbound:
		set(ParamSIPFrom, s.SIPFrom)
		set(ParamSIPTo, s.SIPTo)
		set(ParamSIPTrunk, s.SIPTrunk)
	case TabAdvance:
		set(ParamRoom, s.Room)
		for _, k := range AttributeKeys {
			set(k, s.Attributes[k])
		}
	default:
		typ := s.Type
		if typ == "" {
			typ = call.User
		}
		q.Set(ParamType, string(typ))
		if room := strings.TrimSpace(s.Room); room != "" {
			q.Set(ParamRoom, room)
		} else {
			set(ParamFrom, s.From)
			set(ParamTo, s.To)
			set(ParamSuffix, s.Suffix)
		}
	}
	return q
}

// Build joins base (origin plus path) with the query for s.
func Build(base string, s State) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u.RawQuery = Values(s).Encode()
	return u.String(), nil
}

// Parse restores form state from q. Missing or invalid parameters keep their
// Defaults value.
func Parse(q url.Values) State {
	s := Defaults()
	if env, ok := config.LookupEnvironment(q.Get(ParamEnv)); ok {
		s.Environment = env
	}
	s.Tab = parseTab(q.Get(ParamTab))

	override := func(dst *string, key string) {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			*dst = v
		}
	}

	override(&s.Room, ParamRoom)
	if s.Room == "" {
		override(&s.From, ParamFrom)
		override(&s.To, ParamTo)
		override(&s.Suffix, ParamSuffix)
	}
	s.Type = call.ParseParticipantType(q.Get(ParamType))

	override(&s.SIPFrom, ParamSIPFrom)
	override(&s.SIPTo, ParamSIPTo)
	override(&s.SIPTrunk, ParamSIPTrunk)

	for _, k := range AttributeKeys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			s.Attributes[k] = v
		}
	}
	return s
}

func parseTab(s string) Tab {
	switch Tab(s) {
	case TabOutbound, TabAdvance:
		return Tab(s)
	default:
		return TabInbound
	}
}

// Descriptor turns the restored state into the descriptor of its active tab.
func (s State) Descriptor() call.Descriptor {
	switch s.Tab {
	case TabOutbound:
		return call.Descriptor{
			Direction:       call.Outbound,
			FromNumber:      s.SIPFrom,
			ToNumber:        s.SIPTo,
			TrunkID:         s.SIPTrunk,
			ParticipantType: call.HumanAgent,
		}
	case TabAdvance:
		attrs := call.CleanAttributes(s.Attributes)
		return call.Descriptor{
			Direction:       call.Advanced,
			RoomName:        s.Room,
			Attributes:      attrs,
			ParticipantType: call.ParseParticipantType(attrs["zai.role"]),
		}
	default:
		return call.Descriptor{
			Direction:       call.Inbound,
			RoomName:        s.Room,
			FromNumber:      s.From,
			ToNumber:        s.To,
			Suffix:          s.Suffix,
			ParticipantType: s.Type,
		}
	}
}
