package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebugSuppressedWhenNotVerbose(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetVerbose(false)

	Debug("hidden %d", 1)
	Info("hidden %d", 2)
	assert.Empty(t, buf.String())
}

func TestDebugPrintedWhenVerbose(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetVerbose(true)
	defer SetVerbose(false)

	Debug("visible %s", "yes")
	assert.Contains(t, buf.String(), "[DEBUG] visible yes")
}

func TestWarnAndErrorAlwaysPrint(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetVerbose(false)

	Warn("stale cache for %s", "config/base.json")
	Error("push failed: %s", "timeout")

	out := buf.String()
	assert.Contains(t, out, "[WARN] stale cache for config/base.json")
	assert.Contains(t, out, "[ERROR] push failed: timeout")
}
