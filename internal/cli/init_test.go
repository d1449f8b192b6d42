package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := SetupLogger("loud", &buf)
	logger.InfoContext(context.Background(), "ready")

	out := buf.String()
	assert.Contains(t, out, "Falling back to info logging")
	assert.Contains(t, out, "msg=ready")
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("PORT", "9000")

	cfg, err := LoadAndValidateConfig()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)

	t.Setenv("PORT", "nope")
	_, err = LoadAndValidateConfig()
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "configuration validation failed"))
}

func TestInitBackend(t *testing.T) {
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "expenses.db"))
	t.Setenv("AMQP_URL", "")

	cfg, err := LoadAndValidateConfig()
	require.NoError(t, err)

	var buf bytes.Buffer
	res, err := InitBackend(context.Background(), SetupLogger("info", &buf), cfg)
	require.NoError(t, err)
	defer res.Cleanup()

	require.NoError(t, res.Service.Ping(context.Background()))
	assert.Contains(t, buf.String(), "Initialized SQLite backend")
}
