package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/hazard-claim-verifier/internal/config"
)

func TestNewLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		name    string
		level   string
		format  string
		enabled slog.Level
		muted   slog.Level
	}{
		{"json info", "info", "json", slog.LevelInfo, slog.LevelDebug},
		{"text warn", "warn", "text", slog.LevelWarn, slog.LevelInfo},
		{"debug", "DEBUG", "", slog.LevelDebug, slog.LevelDebug - 4},
		{"unknown level falls back to info", "verbose", "json", slog.LevelInfo, slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: tt.format})

			assert.Same(t, logger, slog.Default())
			assert.True(t, logger.Enabled(context.Background(), tt.enabled))
			assert.False(t, logger.Enabled(context.Background(), tt.muted))
		})
	}
}
