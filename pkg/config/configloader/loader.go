// Package configloader assembles a typed service configuration from layered sources.
//
// Sources are applied in increasing priority: the YAML file, the dotenv file and
// finally the process environment. Environment keys are matched by the
// upper-cased service prefix, e.g. RECORDSTORE_DATABASE_URL maps to database.url.
package configloader

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Validator interface {
	Validate() error
}

type options struct {
	configFile string
	envFile    string
}

// Option overrides one of the default source locations.
type Option func(*options)

// WithConfigFile sets the YAML file to read. Defaults to config.yaml.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configFile = path }
}

// WithEnvFile sets the dotenv file to read. Defaults to .env.
func WithEnvFile(path string) Option {
	return func(o *options) { o.envFile = path }
}

// Load builds T from the configured sources and validates it.
// Missing files are skipped silently, unreadable ones are logged and skipped.
func Load[T Validator](serviceName string, opts ...Option) (T, error) {
	var cfg T
	o := options{configFile: "config.yaml", envFile: ".env"}
	for _, opt := range opts {
		opt(&o)
	}

	k := koanf.New(".")
	envPrefix := fmt.Sprintf("%s_", strings.ToUpper(serviceName))
	keyOf := func(key string) string {
		key = strings.ToLower(key)
		key = strings.TrimPrefix(key, strings.ToLower(envPrefix))
		return strings.ReplaceAll(key, "_", ".")
	}

	if err := k.Load(file.Provider(o.configFile), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load YAML config", "file", o.configFile, "error", err)
	}

	if dotenv, err := godotenv.Read(o.envFile); err == nil {
		values := make(map[string]any)
		for key, value := range dotenv {
			if strings.HasPrefix(strings.ToUpper(key), envPrefix) {
				values[keyOf(key)] = value
			}
		}
		if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
			slog.Warn("failed to load dotenv config", "file", o.envFile, "error", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read dotenv file", "file", o.envFile, "error", err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", keyOf), nil); err != nil {
		slog.Warn("failed to load environment variables", "error", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}
