// Package config loads the console configuration. Sources layer in
// priority order: flags > environment > config file > defaults. Base URLs
// and the bypass secret are resolved here once and handed to the request
// layer explicitly, never read from ambient globals at call time.
package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/avi3tal/agentcanvas/internal/client"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "agentcanvas.toml"

const envPrefix = "AGENTCANVAS_"

// Config holds the full console configuration.
type Config struct {
	Tenant  string `koanf:"tenant" validate:"required"`
	Project string `koanf:"project" validate:"required"`
	API     API    `koanf:"api"`
	Log     Log    `koanf:"log"`
}

// API configures the two backend planes.
type API struct {
	Management string `koanf:"management" validate:"omitempty,url"`
	Run        string `koanf:"run" validate:"omitempty,url"`
	Secret     string `koanf:"secret"`
	Breaker    bool   `koanf:"breaker"`
}

// Log configures logging.
type Log struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// Load builds the configuration from all sources. A nil flag set skips
// the flag layer. A missing config file is not an error.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"tenant":         "default",
		"project":        "default",
		"api.management": client.DefaultManagementURL,
		"api.run":        client.DefaultRunURL,
		"api.secret":     "",
		"api.breaker":    false,
		"log.level":      "info",
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, errors.Wrap(err, "loading defaults")
	}

	// The config file is optional.
	_ = k.Load(file.Provider(DefaultFile), toml.Parser())

	// AGENTCANVAS_API_MANAGEMENT=... maps to api.management.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, errors.Wrap(err, "loading environment")
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, errors.Wrap(err, "loading flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration's structural constraints.
func (c *Config) Validate() error {
	return errors.Wrap(validate.Struct(c), "invalid configuration")
}

// Scope returns the tenant/project scope for API calls.
func (c *Config) Scope() client.Scope {
	return client.Scope{TenantID: c.Tenant, ProjectID: c.Project}
}

// ManagementOptions assembles the manage-plane client options.
func (c *Config) ManagementOptions(log *zap.Logger) []client.Option {
	return c.clientOptions(c.API.Management, log)
}

// RunOptions assembles the run-plane client options.
func (c *Config) RunOptions(log *zap.Logger) []client.Option {
	return c.clientOptions(c.API.Run, log)
}

func (c *Config) clientOptions(baseURL string, log *zap.Logger) []client.Option {
	opts := []client.Option{client.WithLogger(log)}
	if baseURL != "" {
		opts = append(opts, client.WithBaseURL(baseURL))
	}
	if c.API.Secret != "" {
		opts = append(opts, client.WithBypassSecret(c.API.Secret))
	}
	if c.API.Breaker {
		opts = append(opts, client.WithCircuitBreaker())
	}
	return opts
}

// NewLogger builds a zap logger honoring the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", c.Log.Level)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	log, err := zcfg.Build()
	return log, errors.Wrap(err, "building logger")
}

// mapProvider lets a plain map serve as a koanf provider for defaults.
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("not implemented")
}
