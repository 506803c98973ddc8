package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONOutputCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "debug", Format: "json", Output: &buf})

	WithContext(map[string]interface{}{"request_id": "req-1"}).
		Error("Failed to insert review", errors.New("boom"), map[string]interface{}{
			"check_id": "c-1",
		})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "Failed to insert review", entry["message"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "c-1", entry["check_id"])
	assert.Contains(t, entry["caller"], "logger_test.go")
}

func TestLogger_LevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "info", Format: "json", Output: &buf})

	Debug("hidden")
	assert.Empty(t, buf.String())

	Info("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLogLevel_Unknown(t *testing.T) {
	assert.Equal(t, parseLogLevel("info"), parseLogLevel("verbose"))
}
