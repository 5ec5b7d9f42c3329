// Package roomname encodes call descriptors into LiveKit room names and back.
//
// Grammar (version 1), segments joined by "_":
//
//	inbound  = "webin"  [ "_" from ] [ "_" to ] [ "_" suffix ]
//	outbound = "webout" [ "_" from ] [ "_" to ]
//
// Empty segments are omitted when encoding. The suffix is the variable-length
// tail: every segment after the third is rejoined with "_". Any other prefix
// (the legacy "web" rooms included) is decoded with inbound semantics.
// Phone numbers must not contain the separator.
package roomname

import (
	"fmt"
	"strings"

	"github.com/jacky-htg/call-console/libs/call"
)

const (
	Version        = 1
	Separator      = "_"
	InboundPrefix  = "webin"
	OutboundPrefix = "webout"

	// PlaceholderNumber is what the forms start with; it is not a usable number.
	PlaceholderNumber = "+66"
	// DefaultOutboundFrom and DefaultTrunkID fill an outbound room that lacks them.
	DefaultOutboundFrom = "+6625440004"
	DefaultTrunkID      = "ST_oMiP56KcpVuL"
)

// Encode builds the room name for d. Advanced descriptors carry an explicit room
// name, which is returned trimmed. Inbound descriptors with an explicit room name
// (static room mode) also bypass encoding.
func Encode(d call.Descriptor) string {
	if explicit := strings.TrimSpace(d.RoomName); explicit != "" && d.Direction != call.Outbound {
		return explicit
	}
	switch d.Direction {
	case call.Outbound:
		return join(OutboundPrefix, d.FromNumber, d.ToNumber)
	case call.Advanced:
		return ""
	default:
		return join(InboundPrefix, d.FromNumber, d.ToNumber, d.Suffix)
	}
}

func join(prefix string, fields ...string) string {
	parts := []string{prefix}
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, Separator)
}

// IsIncomplete reports whether name cannot start a session: empty, or a bare prefix.
func IsIncomplete(name string) bool {
	name = strings.TrimSpace(name)
	return name == "" || name == InboundPrefix || name == OutboundPrefix
}

// Decode parses name leniently. Missing or empty numbers are replaced with the
// documented defaults; it never fails.
func Decode(name string, pt call.ParticipantType) call.Descriptor {
	parts := strings.Split(name, Separator)

	if parts[0] == OutboundPrefix {
		return call.Descriptor{
			Direction:       call.Outbound,
			RoomName:        name,
			FromNumber:      segment(parts, 1, DefaultOutboundFrom),
			ToNumber:        segment(parts, 2, PlaceholderNumber),
			TrunkID:         DefaultTrunkID,
			ParticipantType: pt,
		}
	}

	d := call.Descriptor{
		Direction:       call.Inbound,
		RoomName:        name,
		FromNumber:      segment(parts, 1, PlaceholderNumber),
		ToNumber:        segment(parts, 2, PlaceholderNumber),
		ParticipantType: pt,
	}
	if len(parts) > 3 {
		d.Suffix = strings.Join(parts[3:], Separator)
	}
	return d
}

func segment(parts []string, i int, def string) string {
	if i < len(parts) && parts[i] != "" {
		return parts[i]
	}
	return def
}

// Parts is the strict reading of a room name.
type Parts struct {
	Direction call.Direction
	Legacy    bool
	From      string
	To        string
	Suffix    string
}

// Parse reads name strictly: both numbers must be present and non-empty, and
// outbound names must not carry a suffix.
func Parse(name string) (Parts, error) {
	parts := strings.Split(name, Separator)
	var p Parts
	switch parts[0] {
	case InboundPrefix:
		p.Direction = call.Inbound
	case OutboundPrefix:
		p.Direction = call.Outbound
	default:
		p.Direction = call.Inbound
		p.Legacy = true
	}

	if len(parts) < 3 {
		return Parts{}, fmt.Errorf("room name %q: want at least 3 segments, got %d", name, len(parts))
	}
	for i, s := range parts[1:] {
		if s == "" {
			return Parts{}, fmt.Errorf("room name %q: empty segment at position %d", name, i+1)
		}
	}
	p.From, p.To = parts[1], parts[2]

	if len(parts) > 3 {
		if p.Direction == call.Outbound {
			return Parts{}, fmt.Errorf("room name %q: outbound rooms take no suffix", name)
		}
		p.Suffix = strings.Join(parts[3:], Separator)
	}
	return p, nil
}
