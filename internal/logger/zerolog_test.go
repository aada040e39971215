package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologAdapterWritesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.DebugLevel)

	log.Info("ModService", "mod installed", map[string]interface{}{"file": "sodium.jar"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "ModService", entry["component"])
	assert.Equal(t, "mod installed", entry["message"])
	assert.Equal(t, "sodium.jar", entry["file"])
}

func TestZerologAdapterErrorCarriesCause(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.InfoLevel)

	log.Error("Auth", errors.New("xsts denied"), nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "xsts denied", entry["error"])
}

func TestZerologAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.WarnLevel)

	log.Debug("x", "hidden", nil)
	log.Info("x", "hidden", nil)
	assert.Zero(t, buf.Len())

	log.Warning("x", "shown", nil)
	assert.NotZero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug", false))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("WARN", false))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error", true))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("", true))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus", false))
}

func TestNewFileLoggerCreatesLogFile(t *testing.T) {
	dir := t.TempDir()
	log, err := NewFileLogger(zerolog.InfoLevel, dir)
	require.NoError(t, err)
	defer log.Close()

	log.Info("test", "hello", nil)
	assert.FileExists(t, dir+"/launcher.log")
}
