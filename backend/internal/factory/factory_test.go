package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jacky-htg/call-console/libs/config"
)

func TestLiveKitClients(t *testing.T) {
	p := config.Profile{
		Environment: config.DEV,
		ServiceURL:  "wss://dev.example.livekit.cloud",
		APIKey:      "APIkey",
		APISecret:   "secret",
	}
	f := New()
	assert.NotNil(t, f.SIP(p))
	assert.NotNil(t, f.Dispatcher(p))
}
