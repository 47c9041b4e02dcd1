package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("geosurvey-test")
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "geosurvey-test", cfg.Telemetry.ServiceName)
	assert.Equal(t, 10*time.Second, cfg.Valkey.LockTTL)
	assert.Equal(t, "survey-reports", cfg.Temporal.TaskQueue)
	assert.Equal(t, "postgres://geosurvey:@localhost:5432/geosurvey?sslmode=disable", cfg.Database.DSN())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GEOSURVEY_SERVER_PORT", "8088")
	t.Setenv("GEOSURVEY_DATABASE_HOST", "db.internal")
	t.Setenv("GEOSURVEY_VALKEY_LOCK_TTL", "3s")

	cfg, err := Load("geosurvey-test")
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 3*time.Second, cfg.Valkey.LockTTL)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{"server.port", "database.host", "nats.url", "valkey.lock_ttl", "uploads.dir"} {
		assert.True(t, strings.Contains(msg, want), "missing %q in %s", want, msg)
	}
}
