package call

// Credential is what a browser session needs to join a room. One credential is
// valid for exactly one (identity, room) pair.
type Credential struct {
	ServerURL        string          `json:"serverUrl"`
	RoomName         string          `json:"roomName"`
	ParticipantName  string          `json:"participantName"`
	ParticipantToken string          `json:"participantToken"`
	ParticipantType  ParticipantType `json:"participantType"`
}

// CredentialRequest asks for a credential scoped to one room in one environment.
// Advanced requests carry free-form Attributes instead of phone numbers.
type CredentialRequest struct {
	Environment     string
	RoomName        string
	FromNumber      string
	ToNumber        string
	ParticipantName string
	ParticipantType ParticipantType
	Attributes      map[string]string
	AgentName       string
	Advanced        bool
}

// Mode labels the request for logs and metrics.
func (r CredentialRequest) Mode() string {
	if r.Advanced {
		return "advanced"
	}
	return "basic"
}

// RequestFor builds the credential request for a descriptor.
func RequestFor(env string, d Descriptor) CredentialRequest {
	req := CredentialRequest{
		Environment:     env,
		RoomName:        d.RoomName,
		FromNumber:      d.FromNumber,
		ToNumber:        d.ToNumber,
		ParticipantName: d.ParticipantName,
		ParticipantType: d.ParticipantType,
	}
	if d.Direction == Advanced {
		req.Advanced = true
		req.Attributes = d.Attributes
		req.FromNumber, req.ToNumber = "", ""
	}
	return req
}
