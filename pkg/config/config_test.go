package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, 36866, cfg.TCPPort)
	assert.Equal(t, int16(1500), cfg.PowerRangeMax)
	assert.Equal(t, uint16(1), cfg.PowerRangeInc)
	assert.Equal(t, "none", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogDest)
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		want     logrus.Level
	}{
		{"none maps to panic", "none", logrus.PanicLevel},
		{"empty maps to panic", "", logrus.PanicLevel},
		{"info", "info", logrus.InfoLevel},
		{"trace", "trace", logrus.TraceLevel},
		{"debug", "debug", logrus.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel, LogDest: "console"}
			logger, err := cfg.NewLogger("")
			require.NoError(t, err)
			assert.Equal(t, tt.want, logger.GetLevel())

			formatter, ok := logger.Formatter.(*logrus.TextFormatter)
			require.True(t, ok)
			assert.True(t, formatter.FullTimestamp)
			assert.Equal(t, time.RFC3339, formatter.TimestampFormat)
			assert.Equal(t, os.Stdout, logger.Out)
		})
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	cfg := &Config{LogLevel: "bogus", LogDest: "console"}
	_, err := cfg.NewLogger("")
	require.Error(t, err)
}

func TestNewLoggerRejectsUnknownDest(t *testing.T) {
	cfg := &Config{LogLevel: "none", LogDest: "bogus"}
	_, err := cfg.NewLogger("")
	require.Error(t, err)
}

func TestNewLoggerFileDest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dirconsim.log")

	cfg := &Config{LogLevel: "debug", LogDest: "file"}
	logger, err := cfg.NewLogger(path)
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger.Debug("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestNewLoggerBothDest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dirconsim.log")

	cfg := &Config{LogLevel: "debug", LogDest: "both"}
	logger, err := cfg.NewLogger(path)
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func BenchmarkDefaultConfig(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = DefaultConfig()
	}
}
