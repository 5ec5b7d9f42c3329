package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithOutput(Config{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.WithField("environment", "DEV").Debug("resolved profile")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEV", entry["environment"])
	assert.Equal(t, "resolved profile", entry["msg"])
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := NewWithOutput(Config{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = NewWithOutput(Config{Format: "xml"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "unsupported log format")
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")
	logger, err := NewWithOutput(Config{File: path, MaxSizeMB: 1}, &bytes.Buffer{})
	require.NoError(t, err)

	logger.Info("hello file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
}
