package config

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"/etc/bind/rndc.conf", "/etc/rndc.conf"}, cfg.RndcConf)
	assert.Equal(t, "/var/lib/rr-bindctl/history.db", cfg.StorePath)
	assert.Equal(t, 64, cfg.CacheSize)
	assert.Equal(t, "hmac-sha256", cfg.DefaultAlgorithm)
	assert.Equal(t, "/etc/rr-bindctl/patches/", cfg.ZoneDir)
}

func TestLoad_ValidOverrides(t *testing.T) {
	t.Setenv("BINDCTL_ENV", "dev")
	t.Setenv("BINDCTL_LOG_LEVEL", "debug")
	t.Setenv("BINDCTL_RNDC_CONF", "/run/secrets/rndc.conf, /etc/bind/rndc.conf")
	t.Setenv("BINDCTL_STORE_PATH", "/tmp/history.db")
	t.Setenv("BINDCTL_CACHE_SIZE", "0")
	t.Setenv("BINDCTL_DEFAULT_ALGORITHM", "hmac-sha512")
	t.Setenv("BINDCTL_ZONE_DIR", "/tmp/patches")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"/run/secrets/rndc.conf", "/etc/bind/rndc.conf"}, cfg.RndcConf)
	assert.Equal(t, "/tmp/history.db", cfg.StorePath)
	assert.Equal(t, 0, cfg.CacheSize)
	assert.Equal(t, "hmac-sha512", cfg.DefaultAlgorithm)
	assert.Equal(t, "/tmp/patches", cfg.ZoneDir)
}

func TestLoad_SingleCandidatePath(t *testing.T) {
	t.Setenv("BINDCTL_RNDC_CONF", "/etc/bind/rndc.conf")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"/etc/bind/rndc.conf"}, cfg.RndcConf)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "env", key: "BINDCTL_ENV", value: "staging"},
		{name: "log level", key: "BINDCTL_LOG_LEVEL", value: "verbose"},
		{name: "negative cache", key: "BINDCTL_CACHE_SIZE", value: "-1"},
		{name: "algorithm", key: "BINDCTL_DEFAULT_ALGORITHM", value: "rot13"},
		{name: "directory as store", key: "BINDCTL_STORE_PATH", value: "/var/lib/"},
		{name: "directory as rndc conf", key: "BINDCTL_RNDC_CONF", value: "/etc/bind/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestLoad_BadNumber(t *testing.T) {
	t.Setenv("BINDCTL_CACHE_SIZE", "lots")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error unmarshalling config")
}

func TestLoad_WhenDefaultLoadFails(t *testing.T) {
	orig := defaultLoader
	defaultLoader = func(k *koanf.Koanf) error { return errors.New("mocked error") }
	defer func() { defaultLoader = orig }()

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mocked error")
}

func TestLoad_WhenEnvLoadFails(t *testing.T) {
	orig := envLoader
	envLoader = func(k *koanf.Koanf) error { return errors.New("mocked error") }
	defer func() { envLoader = orig }()

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error loading env")
}

func TestLoad_RegisterValidationFails(t *testing.T) {
	orig := registerValidation
	registerValidation = func(v *validator.Validate) error { return errors.New("mocked validation error") }
	defer func() { registerValidation = orig }()

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mocked validation error")
}
