package call

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanAttributes(t *testing.T) {
	got := CleanAttributes(map[string]string{
		"zai.role":         "human_agent",
		"zai.channel_type": " ",
		"  ":               "orphan",
		"sip.callerId":     "  +66811112222 ",
	})

	assert.Equal(t, map[string]string{
		"zai.role":     "human_agent",
		"sip.callerId": "+66811112222",
	}, got)
	assert.NotNil(t, CleanAttributes(nil))
}

func TestIdentity(t *testing.T) {
	assert.Equal(t, "human_agent_42", Identity("Human Agent", 42))
	assert.Equal(t, "ada_grace_7", Identity("  Ada \t  Grace ", 7))
	assert.Equal(t, "user_0", Identity("USER", 0))
}

func TestNewIdentityRange(t *testing.T) {
	for i := 0; i < 50; i++ {
		id := NewIdentity("Ada Grace")
		assert.True(t, strings.HasPrefix(id, "ada_grace_"), id)
	}
}

func TestRandomHelpers(t *testing.T) {
	assert.Len(t, RandomSuffix(), 6)

	room := RandomAdvancedRoomName()
	assert.True(t, strings.HasPrefix(room, "adv_"))
	assert.Len(t, room, 12)

	name := RandomDisplayName()
	assert.Len(t, strings.Fields(name), 2)
}

func TestParseParticipantType(t *testing.T) {
	assert.Equal(t, HumanAgent, ParseParticipantType("human_agent"))
	assert.Equal(t, User, ParseParticipantType("ai_agent"))
	assert.Equal(t, User, ParseParticipantType(""))
}

func TestRequestForAdvancedDropsNumbers(t *testing.T) {
	req := RequestFor("DEV", Descriptor{
		Direction:  Advanced,
		RoomName:   "adv_x",
		FromNumber: "+661",
		Attributes: map[string]string{"zai.role": "user"},
	})
	assert.True(t, req.Advanced)
	assert.Empty(t, req.FromNumber)
	assert.Equal(t, "advanced", req.Mode())
	assert.Equal(t, "user", req.Attributes["zai.role"])
}
