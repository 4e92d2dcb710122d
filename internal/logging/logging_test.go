package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelFromString(t *testing.T) {
	require.Equal(t, slog.LevelError, levelFromString("ERROR"))
	require.Equal(t, slog.LevelWarn, levelFromString(" warning "))
	require.Equal(t, slog.LevelInfo, levelFromString("info"))
	require.Equal(t, slog.LevelDebug, levelFromString("verbose"))
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", FormatJSON)

	log.Debug("hidden")
	log.Info("description generated", "doc_id", 42)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "description generated", entry["msg"])
	require.EqualValues(t, 42, entry["doc_id"])
}

func TestTextAndHumanFormats(t *testing.T) {
	for _, format := range []string{FormatText, FormatHuman, ""} {
		var buf bytes.Buffer
		log := NewWithWriter(&buf, "warn", format)

		log.Info("skipped")
		log.Warn("record has no author", "doc_id", 7)

		out := buf.String()
		require.NotContains(t, out, "skipped", format)
		require.Contains(t, out, "record has no author", format)
	}
}

func TestAutoFormatIsJSONOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", FormatAuto)
	log.Info("ready")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "ready", entry["msg"])
}
