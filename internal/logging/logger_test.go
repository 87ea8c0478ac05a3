package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/internal/logging/adapters"
)

func TestMultiLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewMultiLogger()
	require.NoError(t, logger.AddAdapter(adapters.NewStdoutAdapter("buf", adapters.StdoutConfig{Format: "json", Writer: &buf})))

	logger.WithField("company", "acme").Info("scrape finished", map[string]interface{}{"jobs": 2})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "scrape finished", line["message"])
	assert.Equal(t, "acme", line["company"])
	assert.EqualValues(t, 2, line["jobs"])
}

func TestMultiLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewMultiLogger()
	require.NoError(t, logger.AddAdapter(adapters.NewStdoutAdapter("buf", adapters.StdoutConfig{Format: "text", Writer: &buf})))
	logger.SetLevel(WarnLevel)

	child := logger.WithField("k", "v")
	child.Info("dropped")
	child.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "[WARN] kept k=v")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestAddAdapterRejectsDuplicates(t *testing.T) {
	logger := NewMultiLogger()
	require.NoError(t, logger.AddAdapter(adapters.NewStdoutAdapter("a", adapters.StdoutConfig{})))
	assert.Error(t, logger.AddAdapter(adapters.NewStdoutAdapter("a", adapters.StdoutConfig{})))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLogLevel("DEBUG"))
	assert.Equal(t, WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, InfoLevel, ParseLogLevel("nonsense"))
}

func TestFactoryRejectsUnknownAdapter(t *testing.T) {
	_, err := NewAdapterFactory().CreateAdapter(AdapterConfig{Name: "x", Type: "carrier-pigeon"})
	assert.Error(t, err)
}
