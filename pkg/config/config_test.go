package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "2024.2", cfg.Academic.DefaultPeriod)
	assert.Equal(t, []string{"locked", "trancado"}, cfg.Academic.LockedStatuses)
	assert.Equal(t, []string{"Available", "Disponível"}, cfg.Academic.AvailableStatuses)
	assert.Equal(t, "Reserved", cfg.Academic.ItemStatusReserved)
	assert.Equal(t, 5*time.Second, cfg.Upstream.Timeout)
	assert.True(t, cfg.Bootstrap.InitOnStart)
	assert.False(t, cfg.Bootstrap.Force)
	assert.False(t, cfg.Catalog.CacheEnabled)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("UPSTREAM_TIMEOUT", "750ms")
	v.Set("CATALOG_CACHE_TTL", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	cfg := fromViper(v)

	assert.Equal(t, 750*time.Millisecond, cfg.Upstream.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Catalog.CacheTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}
