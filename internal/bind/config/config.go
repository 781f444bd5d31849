// Package config loads rr-bindctl settings from defaults and BINDCTL_
// environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// RndcConf lists candidate rndc.conf locations, tried in order.
	RndcConf []string `koanf:"rndc_conf" validate:"required,min=1,dive,file_path"`

	// StorePath is the bbolt database recording applied zone blocks.
	StorePath string `koanf:"store_path" validate:"required,file_path"`

	// CacheSize bounds the resolved credential cache. Zero disables it.
	CacheSize int `koanf:"cache_size" validate:"gte=0"`

	// DefaultAlgorithm is the key algorithm credentials are expected to use.
	// A different algorithm is reported, not rejected.
	DefaultAlgorithm string `koanf:"default_algorithm" validate:"required,oneof=hmac-md5 hmac-sha1 hmac-sha224 hmac-sha256 hmac-sha384 hmac-sha512"`

	// ZoneDir is where zone patch documents are looked up by default.
	ZoneDir string `koanf:"zone_dir" validate:"required"`
}

// DEFAULT_APP_CONFIG defines the settings used when no environment override
// is present.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:              "prod",
	LogLevel:         "info",
	RndcConf:         []string{"/etc/bind/rndc.conf", "/etc/rndc.conf"},
	StorePath:        "/var/lib/rr-bindctl/history.db",
	CacheSize:        64,
	DefaultAlgorithm: "hmac-sha256",
	ZoneDir:          "/etc/rr-bindctl/patches/",
}

const envPrefix = "BINDCTL_"

// validFilePath accepts non-empty paths that name a file rather than a
// directory and carry no NUL bytes.
func validFilePath(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	return p != "" && !strings.ContainsRune(p, 0) && !strings.HasSuffix(p, "/")
}

// envLoader loads BINDCTL_ variables. Keys are lowercased with the prefix
// removed; values holding spaces or commas become lists.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			value = strings.TrimSpace(value)

			if value == "" {
				return key, value
			}

			if strings.ContainsAny(value, " ,") {
				return key, strings.FieldsFunc(value, func(r rune) bool {
					return r == ' ' || r == ','
				})
			}

			return key, value
		},
	}), nil)
}

var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("file_path", validFilePath)
}

// Load returns the validated configuration: defaults first, then the
// environment on top.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
