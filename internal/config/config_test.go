package config_test

import (
	"testing"
	"time"

	"triage-interview/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("ORACLE_TIMEOUT_SECONDS", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.DB.URL)
	assert.Equal(t, "gpt-4o-mini", cfg.Oracle.Model)
	assert.Equal(t, 30*time.Second, cfg.Oracle.Timeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/triage")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("ORACLE_TIMEOUT_SECONDS", "5")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, "postgres://localhost/triage", cfg.DB.URL)
	assert.Equal(t, "gpt-4o", cfg.Oracle.Model)
	assert.Equal(t, 5*time.Second, cfg.Oracle.Timeout)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("PORT", "not a port")
	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("PORT", "8080")
	t.Setenv("ORACLE_TIMEOUT_SECONDS", "-1")
	_, err = config.Load()
	assert.Error(t, err)
}
