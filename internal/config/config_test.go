package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "DB_DRIVER", "ENABLE_LOCAL_AUTH", "REQUEST_TIMEOUT", "CORS_ORIGINS_OFFLINE", "ADMIN_PASS_HASH"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	assert.Equal(t, ModeOffline, c.Mode)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.True(t, c.EnableLocalAuth)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
	assert.Empty(t, c.AdminPassHash)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3010"}, c.CORSOrigins())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("ENABLE_LOCAL_AUTH", "")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , ,https://b.example")

	c := FromEnv()
	assert.Equal(t, ModeOnline, c.Mode)
	assert.Equal(t, "postgres", c.DBDriver)
	assert.False(t, c.EnableLocalAuth)
	assert.Equal(t, 5*time.Second, c.RequestTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins())
}

func TestEnvBool(t *testing.T) {
	t.Setenv("X_FLAG", "no")
	assert.False(t, envBool("X_FLAG", true))
	t.Setenv("X_FLAG", "garbage")
	assert.True(t, envBool("X_FLAG", true))
}
