package logging

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentLogger_TagsEvents(t *testing.T) {
	var buf bytes.Buffer
	l := ComponentLogger(NewWriter(&buf, FormatJSON, "debug"), "ledger")
	l.Info().Int64("amount", 5).Msg("credit")

	var ev map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &ev))
	assert.Equal(t, "ledger", ev["component"])
	assert.Equal(t, "credit", ev["message"])
	assert.EqualValues(t, 5, ev["amount"])
}

func TestNewWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, FormatJSON, "warn")
	l.Info().Msg("hidden")
	assert.Zero(t, buf.Len())
	l.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewWriter_BadLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, FormatJSON, "loud")
	l.Debug().Msg("hidden")
	l.Info().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ecorewards.log")
	l, closer, err := New(Config{Level: "info", Format: FormatJSON, Output: OutputFile, File: path})
	require.NoError(t, err)
	l.Info().Msg("to file")
	require.NoError(t, closer.Close())
	assert.FileExists(t, path)
}

func TestNew_FileOutputRequiresPath(t *testing.T) {
	_, _, err := New(Config{Output: OutputFile})
	assert.Error(t, err)
}
