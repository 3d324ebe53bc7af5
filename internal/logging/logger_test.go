package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	log := New(slog.LevelInfo, "text", &buf)

	log.Debug("hidden")
	log.Info("grown", "species", "oak", "error", "none")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "species=oak")
	assert.Contains(t, out, "err=none")
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(slog.LevelDebug, "JSON", &buf)
	log.Debug("composed", "placed", 12)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "composed", rec["msg"])
	assert.EqualValues(t, 12, rec["placed"])
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("loud")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), `parse log level "loud"`))
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := NewNop()
	assert.Same(t, l, OrNop(l))
}
