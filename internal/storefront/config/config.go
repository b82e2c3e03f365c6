// Package config holds the storefront service configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/storefront/pkg/config"
	"github.com/abgdnv/storefront/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

const (
	BackendMemory = "memory"
	BackendGRPC   = "grpc"
)

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	Store      StoreConfig             `koanf:"store"`
	NATS       config.NATSConfig       `koanf:"nats"`
	Subscriber config.SubscriberConfig `koanf:"subscriber"`
	Display    DisplayConfig           `koanf:"display"`
	About      AboutConfig             `koanf:"about"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
}

// StoreConfig selects the record store backend. The gRPC sections are read only for the grpc backend.
type StoreConfig struct {
	Backend    string                  `koanf:"backend"`
	Grpc       config.GrpcClientConfig `koanf:"grpc"`
	Resilience config.ResilienceConfig `koanf:"resilience"`
}

// DisplayConfig tunes how products are presented.
type DisplayConfig struct {
	FallbackImageURL string `koanf:"fallbackImageUrl"`
	CurrencySymbol   string `koanf:"currencySymbol"`
}

// AboutConfig is the static store information served on the about endpoint.
type AboutConfig struct {
	Name        string   `koanf:"name"`
	Description string   `koanf:"description"`
	Mission     string   `koanf:"mission"`
	Highlights  []string `koanf:"highlights"`
	Contact     string   `koanf:"contact"`
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())

	b.WriteString("\n--- Record Store ---\n")
	b.WriteString(fmt.Sprintf("  store.backend: %s\n", c.Store.Backend))
	if c.Store.Backend == BackendGRPC {
		b.WriteString(c.Store.Grpc.String())
		b.WriteString(c.Store.Resilience.String())
	}

	b.WriteString(c.NATS.String())
	if c.NATS.Enabled {
		b.WriteString(c.Subscriber.String())
	}

	b.WriteString("\n--- Display ---\n")
	b.WriteString(fmt.Sprintf("  display.fallbackImageUrl: %s\n", c.Display.FallbackImageURL))
	b.WriteString(fmt.Sprintf("  display.currencySymbol: %s\n", c.Display.CurrencySymbol))

	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	switch c.Store.Backend {
	case BackendMemory:
	case BackendGRPC:
		if err := c.Store.Grpc.Validate(); err != nil {
			return err
		}
		if err := c.Store.Resilience.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown store backend %q, expected %q or %q", c.Store.Backend, BackendMemory, BackendGRPC)
	}
	if err := c.NATS.Validate(); err != nil {
		return err
	}
	if c.NATS.Enabled {
		if err := c.Subscriber.Validate(); err != nil {
			return err
		}
	}
	if c.Display.CurrencySymbol == "" {
		return fmt.Errorf("display currency symbol is not configured")
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	return c.Shutdown.Validate()
}
