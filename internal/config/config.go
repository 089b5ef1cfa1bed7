// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package config

import (
	"errors"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
	ragelog "github.com/sigil-dev/trialrag/pkg/log"
)

// EnvPrefix namespaces environment overrides, e.g. TRIALRAG_SERVER_LISTEN.
const EnvPrefix = "TRIALRAG"

// Config is the top-level trialrag configuration.
type Config struct {
	Server     ServerConfig              `mapstructure:"server"`
	Logging    LoggingConfig             `mapstructure:"logging"`
	Embedding  EmbeddingConfig           `mapstructure:"embedding"`
	Store      StoreConfig               `mapstructure:"store"`
	RAG        RAGConfig                 `mapstructure:"rag"`
	Generation GenerationConfig          `mapstructure:"generation"`
	Providers  map[string]ProviderConfig `mapstructure:"providers"`
}

type ServerConfig struct {
	Listen       string        `mapstructure:"listen"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	RateLimit    RateLimit     `mapstructure:"rate_limit"`
}

// RateLimit throttles API requests per client IP. A zero rate disables it.
type RateLimit struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	MaxVisitors       int     `mapstructure:"max_visitors"`
}

type LoggingConfig struct {
	Level        string        `mapstructure:"level"`
	Format       string        `mapstructure:"format"`
	Dir          string        `mapstructure:"dir"`
	RotationTime time.Duration `mapstructure:"rotation_time"`
	MaxAge       time.Duration `mapstructure:"max_age"`
}

type EmbeddingConfig struct {
	Dimensions int `mapstructure:"dimensions"`
}

type StoreConfig struct {
	Backend     string `mapstructure:"backend"`
	DefaultTopK int    `mapstructure:"default_top_k"`
}

type RAGConfig struct {
	TopK      int `mapstructure:"top_k"`
	MaxTokens int `mapstructure:"max_tokens"`
}

// GenerationConfig selects the external text generator. An empty provider
// means answers always come from the local summarizer.
type GenerationConfig struct {
	Provider       string        `mapstructure:"provider"`
	Model          string        `mapstructure:"model"`
	Timeout        time.Duration `mapstructure:"timeout"`
	HealthCooldown time.Duration `mapstructure:"health_cooldown"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

// ProviderConfig holds credentials and endpoint for a generation provider.
// APIKey may be a keyring:// URI.
type ProviderConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

var generationProviders = []string{"", "local", "openai", "anthropic", "google"}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", "127.0.0.1:18790")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.rate_limit.requests_per_second", 0)
	v.SetDefault("server.rate_limit.burst", 0)
	v.SetDefault("server.rate_limit.max_visitors", 10000)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.rotation_time", 24*time.Hour)
	v.SetDefault("logging.max_age", 7*24*time.Hour)
	v.SetDefault("embedding.dimensions", 384)
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.default_top_k", 10)
	v.SetDefault("rag.top_k", 5)
	v.SetDefault("rag.max_tokens", 500)
	v.SetDefault("generation.provider", "")
	v.SetDefault("generation.timeout", 30*time.Second)
	v.SetDefault("generation.health_cooldown", 30*time.Second)
	v.SetDefault("generation.max_retries", 2)
}

// SetupEnv binds TRIALRAG_* environment variables to nested keys.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from path (or defaults only when empty) with
// environment overrides, then validates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, ragerr.Wrapf(err, ragerr.CodeConfigLoadReadFailure, "reading config %s", path)
		}
	}
	return FromViper(v)
}

// FromViper decodes and validates an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeConfigParseInvalidFormat, "unmarshalling config")
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ragerr.Wrapf(errors.Join(errs...), ragerr.CodeConfigValidateInvalidValue, "validating config")
	}
	return &cfg, nil
}

// Validate reports every problem rather than stopping at the first.
func (c *Config) Validate() []error {
	var errs []error
	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.LogConfig().Validate()...)
	errs = append(errs, c.validateRetrieval()...)
	errs = append(errs, c.validateGeneration()...)
	return errs
}

// LogConfig converts the logging section for pkg/log.
func (c *Config) LogConfig() ragelog.Config {
	return ragelog.Config{
		Level:        c.Logging.Level,
		Format:       c.Logging.Format,
		Dir:          c.Logging.Dir,
		RotationTime: c.Logging.RotationTime,
		MaxAge:       c.Logging.MaxAge,
	}
}

// Provider returns the settings for the named provider, zero if absent.
func (c *Config) Provider(name string) ProviderConfig {
	return c.Providers[name]
}

func (c *Config) validateServer() []error {
	if c.Server.Listen == "" {
		return []error{invalid("server.listen must not be empty")}
	}

	_, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		return []error{invalid("server.listen must be a valid host:port address, got %q", c.Server.Listen)}
	}

	var errs []error
	port, err := strconv.Atoi(portStr)
	switch {
	case err != nil:
		errs = append(errs, invalid("server.listen port must be a number, got %q", portStr))
	case port < 1 || port > 65535:
		errs = append(errs, invalid("server.listen port must be between 1 and 65535, got %d", port))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		errs = append(errs, invalid("server timeouts must not be negative"))
	}
	rl := c.Server.RateLimit
	switch {
	case rl.RequestsPerSecond < 0:
		errs = append(errs, invalid("server.rate_limit.requests_per_second must not be negative, got %g", rl.RequestsPerSecond))
	case rl.RequestsPerSecond > 0 && rl.Burst <= 0:
		errs = append(errs, invalid("server.rate_limit.burst must be positive when a rate is set, got %d", rl.Burst))
	}
	if rl.MaxVisitors < 0 {
		errs = append(errs, invalid("server.rate_limit.max_visitors must not be negative, got %d", rl.MaxVisitors))
	}
	return errs
}

func (c *Config) validateRetrieval() []error {
	var errs []error
	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, invalid("embedding.dimensions must be greater than 0, got %d", c.Embedding.Dimensions))
	}
	if c.Store.Backend == "" {
		errs = append(errs, invalid("store.backend must not be empty"))
	}
	if c.Store.DefaultTopK <= 0 {
		errs = append(errs, invalid("store.default_top_k must be greater than 0, got %d", c.Store.DefaultTopK))
	}
	if c.RAG.TopK <= 0 {
		errs = append(errs, invalid("rag.top_k must be greater than 0, got %d", c.RAG.TopK))
	}
	if c.RAG.MaxTokens <= 0 {
		errs = append(errs, invalid("rag.max_tokens must be greater than 0, got %d", c.RAG.MaxTokens))
	}
	return errs
}

func (c *Config) validateGeneration() []error {
	var errs []error
	if !slices.Contains(generationProviders, c.Generation.Provider) {
		errs = append(errs, invalid("generation.provider must be one of [local, openai, anthropic, google], got %q",
			c.Generation.Provider))
	}
	if c.Generation.Timeout <= 0 {
		errs = append(errs, invalid("generation.timeout must be positive, got %s", c.Generation.Timeout))
	}
	if c.Generation.HealthCooldown < 0 {
		errs = append(errs, invalid("generation.health_cooldown must not be negative, got %s", c.Generation.HealthCooldown))
	}
	if c.Generation.MaxRetries < 0 {
		errs = append(errs, invalid("generation.max_retries must not be negative, got %d", c.Generation.MaxRetries))
	}
	return errs
}

func invalid(format string, args ...any) error {
	return ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue, "config: "+format, args...)
}
