package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("WORKERS", "")
	t.Setenv("CONTROL_TARGETS", "")
	t.Setenv("CLIENT_TIMEOUT", "")

	cfg := Load(ServiceProduct)
	assert.Equal(t, ":14003", cfg.HTTPAddr)
	assert.Equal(t, "product-service", cfg.ServiceName)
	assert.Equal(t, 10, cfg.Workers)
	assert.Equal(t, 5*time.Second, cfg.ClientTimeout)
	assert.Equal(t, []string{"user", "product"}, cfg.Stores)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("WORKERS", "32")
	t.Setenv("CLIENT_TIMEOUT", "750ms")
	t.Setenv("CONTROL_TARGETS", " user , ,product,audit")

	cfg := Load(ServiceOrder)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, 32, cfg.Workers)
	assert.Equal(t, 750*time.Millisecond, cfg.ClientTimeout)
	assert.Equal(t, []string{"user", "product", "audit"}, cfg.Stores)
}

func TestLoadIgnoresBadNumbers(t *testing.T) {
	t.Setenv("WORKERS", "-3")
	t.Setenv("SHUTDOWN_GRACE", "soon")

	cfg := Load(ServiceUser)
	assert.Equal(t, 10, cfg.Workers)
	assert.Equal(t, 500*time.Millisecond, cfg.ShutdownGrace)
}
