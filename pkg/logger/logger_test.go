package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: "debug", Console: &buf, NoColor: true}))
	t.Cleanup(func() { _ = Close() })

	assert.Equal(t, logrus.DebugLevel, Logger.GetLevel())
	assert.Empty(t, GetCurrentLogFile())

	WithField("op", "GET /v2/clock").Debug("request done")
	Infof("account %s", "PA3ABC")

	out := buf.String()
	assert.Contains(t, out, `op="GET /v2/clock"`)
	assert.Contains(t, out, "request done")
	assert.Contains(t, out, "account PA3ABC")
}

func TestInitUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: "chatty", Console: &buf, NoColor: true}))
	t.Cleanup(func() { _ = Close() })

	assert.Equal(t, logrus.InfoLevel, Logger.GetLevel())
	Debugf("hidden")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "alpaca.log")
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: "info", OutputFile: path, MaxSize: 1, Console: &buf, NoColor: true}))

	Infof("written to %s", "both")
	assert.Equal(t, path, GetCurrentLogFile())
	require.NoError(t, Close())
	assert.Empty(t, GetCurrentLogFile())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to both")
	assert.Contains(t, buf.String(), "written to both")
}
