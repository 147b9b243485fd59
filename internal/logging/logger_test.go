package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"slotbook/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	appCfg := config.AppConfig{
		Name:        "test-app",
		Environment: "test",
		Version:     "1.0.0",
	}

	t.Run("DefaultStdout", func(t *testing.T) {
		cfg := config.LoggingConfig{Level: "info", Output: "stdout"}
		logger, closer, err := New(cfg, appCfg)
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.Nil(t, closer)
	})

	t.Run("Stderr", func(t *testing.T) {
		cfg := config.LoggingConfig{Level: "debug", Output: "stderr"}
		logger, closer, err := New(cfg, appCfg)
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.Nil(t, closer)
	})

	t.Run("File", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "nested", "test.log")
		cfg := config.LoggingConfig{Level: "error", Output: "file", FilePath: logPath}
		logger, closer, err := New(cfg, appCfg)
		require.NoError(t, err)
		assert.NotNil(t, logger)
		require.NotNil(t, closer)
		closer.Close()

		_, err = os.Stat(logPath)
		assert.NoError(t, err)
	})

	t.Run("FileMissingPath", func(t *testing.T) {
		cfg := config.LoggingConfig{Output: "file", FilePath: ""}
		_, _, err := New(cfg, appCfg)
		assert.Error(t, err)
	})
}

func TestBuild(t *testing.T) {
	appCfg := config.AppConfig{Name: "slotbook", Environment: "test"}

	t.Run("JSONFields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := build(&buf, config.LoggingConfig{Level: "info"}, appCfg)
		Component(&logger, "booking").Info().Msg("hello")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "slotbook", entry["app"])
		assert.Equal(t, "booking", entry["component"])
		assert.Equal(t, "hello", entry["message"])
	})

	t.Run("InvalidLevelDefaultsToInfo", func(t *testing.T) {
		var buf bytes.Buffer
		logger := build(&buf, config.LoggingConfig{Level: "invalid"}, appCfg)
		logger.Debug().Msg("hidden")
		assert.Zero(t, buf.Len())
		logger.Info().Msg("shown")
		assert.NotZero(t, buf.Len())
	})

	t.Run("Console", func(t *testing.T) {
		var buf bytes.Buffer
		logger := build(&buf, config.LoggingConfig{Level: "warn", Format: "console"}, appCfg)
		logger.Warn().Msg("careful")
		assert.Contains(t, buf.String(), "careful")
	})
}
