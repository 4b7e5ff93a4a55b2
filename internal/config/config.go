package config

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Server    Server `mapstructure:"server"`
	Pool      Pool   `mapstructure:"pool"`
	Admin     Admin  `mapstructure:"admin"`
	LogFormat string `mapstructure:"log-format" default:"console" validate:"oneof=console json"`
	LogLevel  string `mapstructure:"log-level" default:"info" validate:"oneof=debug info warn error"`
}

type Server struct {
	Address        string        `mapstructure:"address" default:"127.0.0.1:7878" validate:"required,hostname_port"`
	AssetsFolder   string        `mapstructure:"assets-folder"`
	SleepDuration  time.Duration `mapstructure:"sleep-duration" default:"5s"`
	ReadTimeout    time.Duration `mapstructure:"read-timeout" default:"10s"`
	MaxConnections int           `mapstructure:"max-connections" validate:"gte=0"`
}

type Pool struct {
	Workers     int    `mapstructure:"workers" default:"4" validate:"gte=1"`
	PanicPolicy string `mapstructure:"panic-policy" default:"contain" validate:"oneof=contain exit-worker"`
}

type Admin struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address" default:"127.0.0.1:9090" validate:"required,hostname_port"`
}

// NewConfigurationWithDefaults returns a configuration with every default tag applied.
func NewConfigurationWithDefaults() *Configuration {
	c := &Configuration{}
	if err := defaults.Set(c); err != nil {
		panic(fmt.Sprintf("invalid configuration defaults: %v", err))
	}
	return c
}

// Load builds the configuration from the defaults overlaid with everything v knows about.
func Load(v *viper.Viper) (*Configuration, error) {
	c := NewConfigurationWithDefaults()
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Configuration) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DebugMap returns the configuration as a flat map suitable for structured logging.
func (c *Configuration) DebugMap() map[string]any {
	return map[string]any{
		"server.address":         c.Server.Address,
		"server.assets-folder":   c.Server.AssetsFolder,
		"server.sleep-duration":  c.Server.SleepDuration.String(),
		"server.read-timeout":    c.Server.ReadTimeout.String(),
		"server.max-connections": c.Server.MaxConnections,
		"pool.workers":           c.Pool.Workers,
		"pool.panic-policy":      c.Pool.PanicPolicy,
		"admin.enabled":          c.Admin.Enabled,
		"admin.address":          c.Admin.Address,
		"log-format":             c.LogFormat,
		"log-level":              c.LogLevel,
	}
}
