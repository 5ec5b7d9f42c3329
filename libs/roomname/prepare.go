package roomname

import (
	"strings"

	"github.com/jacky-htg/call-console/libs/apperr"
	"github.com/jacky-htg/call-console/libs/call"
)

// Messages returned by Prepare.
const (
	MsgRoomRequired      = "Room name is required."
	MsgNumbersRequired   = "Room name is required. Please enter phone numbers."
	MsgFromRequired      = "From phone number is required. Please enter a complete phone number."
	MsgToRequired        = "Destination phone number is required. Please enter a complete phone number."
	MsgSIPFieldsRequired = "Please fill in all required SIP fields"
)

// Prepare validates d for starting a session and fills in its room name.
// Numbers are trimmed. An inbound descriptor with an explicit room name is a
// static room: its numbers are dropped. Failures are *apperr.ValidationError.
func Prepare(d call.Descriptor) (call.Descriptor, error) {
	d.FromNumber = strings.TrimSpace(d.FromNumber)
	d.ToNumber = strings.TrimSpace(d.ToNumber)
	d.RoomName = strings.TrimSpace(d.RoomName)
	d.Suffix = strings.TrimSpace(d.Suffix)
	if d.ParticipantType == "" {
		d.ParticipantType = call.User
	}

	switch d.Direction {
	case call.Advanced:
		if d.RoomName == "" {
			return d, apperr.Validation(MsgRoomRequired)
		}
		d.FromNumber, d.ToNumber, d.Suffix = "", "", ""
		return d, nil

	case call.Outbound:
		if d.FromNumber == "" || d.ToNumber == "" || strings.TrimSpace(d.TrunkID) == "" {
			return d, apperr.Validation(MsgSIPFieldsRequired)
		}
		d.RoomName = Encode(d)
		return d, nil
	}

	d.Direction = call.Inbound
	if d.RoomName != "" {
		d.FromNumber, d.ToNumber, d.Suffix = "", "", ""
		return d, nil
	}

	d.RoomName = Encode(d)
	if IsIncomplete(d.RoomName) {
		return d, apperr.Validation(MsgNumbersRequired)
	}
	if d.FromNumber == "" || d.FromNumber == PlaceholderNumber {
		return d, apperr.Validation(MsgFromRequired)
	}
	if d.ToNumber == "" || d.ToNumber == PlaceholderNumber {
		return d, apperr.Validation(MsgToRequired)
	}
	return d, nil
}
