// Package call holds the data carried between the console forms, the credential
// issuer and the bridge orchestrator.
package call

import "strings"

// Direction says how a simulated call reaches the agent.
type Direction string

const (
	Inbound  Direction = "inbound"
	Outbound Direction = "outbound"
	Advanced Direction = "advanced"
)

// ParticipantType is the role the browser session takes in the room.
type ParticipantType string

const (
	User       ParticipantType = "user"
	HumanAgent ParticipantType = "human_agent"
)

// HumanAgentName is the display name the operator joins an outbound call with.
const HumanAgentName = "Human Agent"

// NotJoiningNotice tells the operator an outbound call was placed without them joining.
const NotJoiningNotice = "SIP call created successfully! Agent dispatched to room. Not joining room."

// ParseParticipantType maps anything but "human_agent" to User.
func ParseParticipantType(s string) ParticipantType {
	if strings.TrimSpace(s) == string(HumanAgent) {
		return HumanAgent
	}
	return User
}

// Descriptor is the canonical representation of a call to be simulated.
type Descriptor struct {
	Direction       Direction         `json:"direction"`
	RoomName        string            `json:"room_name,omitempty"`
	FromNumber      string            `json:"from_number,omitempty"`
	ToNumber        string            `json:"to_number,omitempty"`
	Suffix          string            `json:"suffix,omitempty"`
	TrunkID         string            `json:"trunk_id,omitempty"`
	ParticipantName string            `json:"participant_name,omitempty"`
	ParticipantType ParticipantType   `json:"participant_type,omitempty"`
	Attributes      map[string]string `json:"attributes,omitempty"`
}

// CleanAttributes returns a copy of attrs with values trimmed. Entries whose key or
// value is empty after trimming are dropped. It never returns nil.
func CleanAttributes(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}
