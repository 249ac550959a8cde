// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

// Package config loads vetclinic settings from defaults, an optional YAML
// file, command-line flags and a small set of environment variables, in
// that order of increasing precedence.
package config

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/logging"
	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/xdg"
)

// Environment variables that override file and flag values.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvTokenSecret = "ACCESS_SECRET"
)

// envKeys maps the recognised environment variables onto config keys. Every
// other variable is ignored.
var envKeys = map[string]string{
	EnvDatabaseURL: "database.url",
	EnvTokenSecret: "auth.token_secret",
}

// MinTokenSecretLength is the shortest HS256 secret Validate accepts.
const MinTokenSecretLength = 32

const redacted = "[REDACTED]"

// Config is the full application configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http" yaml:"http"`
	Metrics  MetricsConfig  `koanf:"metrics" yaml:"metrics"`
	Database DatabaseConfig `koanf:"database" yaml:"database"`
	Auth     AuthConfig     `koanf:"auth" yaml:"auth"`
	Log      LogConfig      `koanf:"log" yaml:"log"`
}

// HTTPConfig configures the public API listener.
type HTTPConfig struct {
	Addr string `koanf:"addr" yaml:"addr"`
}

// MetricsConfig configures the observability listener. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" yaml:"addr"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL            string        `koanf:"url" yaml:"url"`
	MaxConns       int32         `koanf:"max_conns" yaml:"max_conns"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" yaml:"connect_timeout"`
}

// AuthConfig configures access tokens and the session cookie.
type AuthConfig struct {
	TokenSecret  string        `koanf:"token_secret" yaml:"token_secret"`
	TokenTTL     time.Duration `koanf:"token_ttl" yaml:"token_ttl"`
	CookieSecure bool          `koanf:"cookie_secure" yaml:"cookie_secure"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Format string `koanf:"format" yaml:"format"`
	Level  string `koanf:"level" yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTP:    HTTPConfig{Addr: ":8080"},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
		Database: DatabaseConfig{
			MaxConns:       10,
			ConnectTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{TokenTTL: 15 * time.Minute},
		Log:  LogConfig{Format: "json", Level: "info"},
	}
}

// flagKeys maps command-line flag names onto config keys. Flags not listed
// here are ignored by Load.
var flagKeys = map[string]string{
	"http-addr":     "http.addr",
	"metrics-addr":  "metrics.addr",
	"database-url":  "database.url",
	"token-ttl":     "auth.token_ttl",
	"cookie-secure": "auth.cookie_secure",
	"log-format":    "log.format",
	"log-level":     "log.level",
}

// BindFlags registers the overridable settings on flags, using the built-in
// defaults as flag defaults.
func BindFlags(flags *pflag.FlagSet) {
	d := Default()
	flags.String("http-addr", d.HTTP.Addr, "public HTTP listen address")
	flags.String("metrics-addr", d.Metrics.Addr, "metrics and health listen address (empty disables)")
	flags.String("database-url", "", "PostgreSQL connection URL (env "+EnvDatabaseURL+")")
	flags.Duration("token-ttl", d.Auth.TokenTTL, "access token lifetime")
	flags.Bool("cookie-secure", d.Auth.CookieSecure, "mark the session cookie Secure")
	flags.String("log-format", d.Log.Format, "log format (json, text)")
	flags.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
}

// LoadOptions controls where Load reads from.
type LoadOptions struct {
	// Path is an explicit config file. It must exist. When empty, the XDG
	// default is read if present.
	Path string
	// Flags, when set, override file values for every flag the user changed.
	Flags *pflag.FlagSet
}

// Load builds the effective configuration. It does not validate it.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	path, explicit := opts.Path, opts.Path != ""
	if !explicit {
		path = xdg.ConfigFile()
	}
	if err := loadFile(k, path, explicit); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		flags := opts.Flags
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	// Empty variables are skipped so an exported-but-blank value does not
	// erase the file or flag setting.
	provider := env.ProviderWithValue("", ".", func(name, value string) (string, interface{}) {
		key, ok := envKeys[name]
		if !ok || value == "" {
			return "", nil
		}
		return key, value
	})
	if err := k.Load(provider, nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "environment").Wrap(err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "decode config").Wrap(err)
	}

	return &cfg, nil
}

func loadFile(k *koanf.Koanf, path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return oops.Code("CONFIG_NOT_FOUND").With("path", path).Wrap(err)
	}
	if err := k.Load(file.Provider(path), koanfyaml.Parser()); err != nil {
		return oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
	}
	return nil
}

// ValidateDatabase checks only the settings needed to reach PostgreSQL.
func (c *Config) ValidateDatabase() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return invalid("database.url", "database url is required (set --database-url or "+EnvDatabaseURL+")")
	}
	if c.Database.MaxConns <= 0 {
		return invalid("database.max_conns", "max_conns must be positive")
	}
	if c.Database.ConnectTimeout <= 0 {
		return invalid("database.connect_timeout", "connect_timeout must be positive")
	}
	return nil
}

// Validate checks everything the server needs to start.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return invalid("http.addr", "http address is required")
	}
	if err := c.ValidateDatabase(); err != nil {
		return err
	}
	switch {
	case c.Auth.TokenSecret == "":
		return invalid("auth.token_secret", "token secret is required (set "+EnvTokenSecret+")")
	case len(c.Auth.TokenSecret) < MinTokenSecretLength:
		return invalid("auth.token_secret", "token secret must be at least 32 bytes")
	case c.Auth.TokenTTL <= 0:
		return invalid("auth.token_ttl", "token ttl must be positive")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", "log format must be json or text")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "log level must be debug, info, warn or error")
	}
	return nil
}

func invalid(key, msg string) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf("%s", msg)
}

// Redacted returns a copy safe to print: the token secret and any database
// password are masked.
func (c *Config) Redacted() Config {
	out := *c
	if out.Auth.TokenSecret != "" {
		out.Auth.TokenSecret = redacted
	}
	if u, err := url.Parse(out.Database.URL); err == nil {
		out.Database.URL = u.Redacted()
	}
	return out
}

// YAML renders the redacted configuration.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return nil, oops.Code("CONFIG_ENCODE_FAILED").Wrap(err)
	}
	return out, nil
}

// WriteDefault writes the built-in configuration to path, creating parent
// directories. An existing file is left alone and reported as CONFIG_EXISTS.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return oops.Code("CONFIG_EXISTS").With("path", path).Errorf("config file already exists")
	}
	if err := xdg.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	d := Default()
	body, err := yaml.Marshal(d)
	if err != nil {
		return oops.Code("CONFIG_ENCODE_FAILED").Wrap(err)
	}
	if err := os.WriteFile(path, body, 0o600); err != nil {
		return oops.Code("CONFIG_WRITE_FAILED").With("path", path).Wrap(err)
	}
	return nil
}
