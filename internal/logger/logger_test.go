package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo)
	log.Info("hello", "key", "value")

	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), `"key":"value"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := Text(&buf, slog.LevelWarn)
	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	log := Text(&buf, slog.LevelDebug).With("op", "dw+1x1")
	log.Debug("built")

	assert.Contains(t, buf.String(), "op=dw+1x1")
}

func TestContext(t *testing.T) {
	var buf bytes.Buffer
	log := Text(&buf, slog.LevelInfo)
	ctx := WithContext(context.Background(), log)

	FromContext(ctx).Info("from context")
	assert.Contains(t, buf.String(), "from context")

	// Missing logger falls back to a discarding one.
	FromContext(context.Background()).Error("dropped")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}
