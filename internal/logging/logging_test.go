package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New("debug", "auto", &buf)
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())

	logger.Info().Int("segments", 3).Msg("run finished")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "run finished", line["message"])
	assert.EqualValues(t, 3, line["segments"])
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := New("", "console", &buf)
	logger.Warn().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestNewLevelFallback(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, zerolog.InfoLevel, New("loud", "json", &buf).GetLevel())
	assert.Equal(t, zerolog.WarnLevel, New("WARN", "json", &buf).GetLevel())
}
