package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_USER", "market")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DBNAME", "marketplace")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", c.AppEnv)
	assert.Equal(t, DefaultLogLevel, c.LogLevel)
	assert.Equal(t, DefaultLogFormat, c.LogFormat)
	assert.Equal(t, "8080", c.HttpServer.Port)
	assert.Equal(t, 15*time.Second, c.HttpServer.TimeoutRead)
	assert.Equal(t, "patna", c.Site.DefaultCity)
	assert.Len(t, c.Site.ImageHosts, 3)
	assert.False(t, c.Redis.Enabled())
	assert.Equal(t, 5*time.Minute, c.Redis.TTL)
	assert.Equal(t, "host=db.internal port=5432 user=market password=secret dbname=marketplace sslmode=disable", c.Postgres.DSN())
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SITE_DEFAULT_CITY", "ranchi")
	t.Setenv("SITE_IMAGE_HOSTS", "cdn.example.com")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOG_FORMAT", "console")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ranchi", c.Site.DefaultCity)
	assert.Equal(t, []string{"cdn.example.com"}, c.Site.ImageHosts)
	assert.True(t, c.Redis.Enabled())
	assert.Equal(t, "console", c.LogFormat)
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOG_FORMAT", "xml")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}
