// Package config loads the storefront settings from defaults, YAML files
// and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. STOREFRONT_API_BASE_URL.
const EnvPrefix = "STOREFRONT"

// Config holds every setting of the storefront client.
type Config struct {
	Env     string        `mapstructure:"env"`
	API     APIConfig     `mapstructure:"api"`
	Store   StoreConfig   `mapstructure:"store"`
	Log     LogConfig     `mapstructure:"log"`
	Serve   ServeConfig   `mapstructure:"serve"`
	Payment PaymentConfig `mapstructure:"payment"`
}

type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// StoreConfig selects the backend persisting the cart and the session.
// Driver is one of sqlite, postgres, memory, redis or mysql. Codec is json
// or gob.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Prefix string `mapstructure:"prefix"`
	Codec  string `mapstructure:"codec"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

type PaymentConfig struct {
	MountPoint string `mapstructure:"mount_point"`
	ScriptURL  string `mapstructure:"script_url"`
	CSSURL     string `mapstructure:"css_url"`
}

var (
	drivers = []string{"sqlite", "postgres", "memory", "redis", "mysql"}
	codecs  = []string{"json", "gob"}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("api.base_url", "http://localhost:3001/api")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", filepath.Join(Dir(), "storefront.db"))
	v.SetDefault("store.prefix", "storefront:")
	v.SetDefault("store.codec", "json")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("serve.addr", "127.0.0.1:3000")
	v.SetDefault("payment.mount_point", "pp-button")
	v.SetDefault("payment.script_url", "https://cdn.payphonetodoesposible.com/box/v1.1/payphone-payment-box.js")
	v.SetDefault("payment.css_url", "https://cdn.payphonetodoesposible.com/box/v1.1/payphone-payment-box.css")
}

// Load reads the configuration. Later sources override earlier ones:
// defaults, ~/.storefront/config.yaml, ./storefront.yaml, then environment
// variables. A .env file in the working directory is loaded into the
// environment first; variables already set win over it.
func Load() (*Config, error) {
	return LoadFiles(GlobalPath(), "storefront.yaml")
}

// LoadFiles is Load with explicit config files. Missing files are skipped.
func LoadFiles(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, path := range paths {
		if err := mergeFile(v, path); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func mergeFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("api.base_url must be set")
	}

	driver, err := oneOf("store.driver", c.Store.Driver, drivers)
	if err != nil {
		return err
	}
	c.Store.Driver = driver

	codec, err := oneOf("store.codec", c.Store.Codec, codecs)
	if err != nil {
		return err
	}
	c.Store.Codec = codec
	return nil
}

func oneOf(key, value string, allowed []string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if a == normalized {
			return normalized, nil
		}
	}
	return "", fmt.Errorf("unknown %s %q (want one of %s)", key, value, strings.Join(allowed, ", "))
}

// Dir returns the per-user storefront directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".storefront"
	}
	return filepath.Join(home, ".storefront")
}

// GlobalPath returns the path to the per-user config file.
func GlobalPath() string {
	return filepath.Join(Dir(), "config.yaml")
}
