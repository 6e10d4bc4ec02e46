package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T, verboseOn bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseOn)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	captureOutput(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())
}

func TestLevels_WhenVerbose(t *testing.T) {
	tests := []struct {
		name string
		log  func()
		want string
	}{
		{"debug", func() { Debug("apply %s", "settings") }, "[DEBUG] apply settings\n"},
		{"info", func() { Info("pushed %d fields", 8) }, "[INFO] pushed 8 fields\n"},
		{"warn", func() { Warn("snapshot skipped") }, "[WARN] snapshot skipped\n"},
		{"section", func() { Section("Handshake") }, "\n=== Handshake ===\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureOutput(t, true)
			tt.log()
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestLevels_WhenQuiet(t *testing.T) {
	buf := captureOutput(t, false)

	Debug("a")
	Info("b")
	Warn("c")
	Section("d")

	assert.Zero(t, buf.Len())
}

func TestLogf_Formats(t *testing.T) {
	buf := captureOutput(t, true)

	Logf(LevelInfo, "progress %d%%", 50)

	assert.Equal(t, "[INFO] progress 50%\n", buf.String())
}

func TestSetOutput_NilRestoresStderr(t *testing.T) {
	captureOutput(t, false)

	SetOutput(nil)

	mu.RLock()
	defer mu.RUnlock()
	assert.Equal(t, os.Stderr, output)
}
