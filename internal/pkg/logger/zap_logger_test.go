package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDetailsAreRedacted(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := newWithCore(core)

	l.Info("WEBHOOK", "Notification received", map[string]interface{}{
		"payer_email":   "ana@example.com",
		"signature_key": "abcdef",
		"event_key":     "tx_1:approved",
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "WEBHOOK", ctx["module"])

	details, ok := ctx["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "a***@example.com", details["payer_email"])
	assert.Equal(t, "a***", details["signature_key"])
	assert.Equal(t, "tx_1:approved", details["event_key"])
}

func TestNilDetails(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	newWithCore(core).Warn("SWEEP", "Lock unavailable", nil)
	require.Len(t, logs.All(), 1)
}

func TestMask(t *testing.T) {
	tests := map[string]string{
		"":                "",
		"ana@example.com": "a***@example.com",
		"@example.com":    "@***",
		"token":           "t***",
	}
	for in, want := range tests {
		assert.Equal(t, want, mask(in), in)
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zap.DebugLevel, parseLevel(""))
}
