package config

import (
	"fmt"

	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/validation"
)

// DefaultName is the base name of the engine configuration file.
const DefaultName = "flowkit"

// FusionConfig controls the append-time rewrite optimizer.
type FusionConfig struct {
	Enabled       bool     `yaml:"enabled" mapstructure:"enabled"`
	DisabledRules []string `yaml:"disabled_rules" mapstructure:"disabled_rules" validate:"dive,required"`
}

// RuleEnabled reports whether the rewrite rule with the given id may run.
func (c FusionConfig) RuleEnabled(id string) bool {
	if !c.Enabled {
		return false
	}
	for _, disabled := range c.DisabledRules {
		if disabled == id {
			return false
		}
	}
	return true
}

// TelemetryConfig controls spans and metrics emitted by runs.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	ServiceName string `yaml:"service_name" mapstructure:"service_name" validate:"required_if=Enabled true"`
}

// EngineConfig is the complete engine configuration.
type EngineConfig struct {
	Fusion    FusionConfig    `yaml:"fusion" mapstructure:"fusion"`
	Logging   logger.Config   `yaml:"logging" mapstructure:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// DefaultEngineConfig returns the configuration used when none is supplied.
func DefaultEngineConfig() *EngineConfig {
	cfg := &EngineConfig{
		Fusion:    FusionConfig{Enabled: true},
		Telemetry: TelemetryConfig{Enabled: true, ServiceName: DefaultName},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *EngineConfig) ApplyDefaults() {
	c.Logging.ApplyDefaults()
	if c.Telemetry.Enabled && c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = DefaultName
	}
}

// Validate validates the struct tags and the logging section.
func (c *EngineConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

func engineDefaults() map[string]any {
	return map[string]any{
		"fusion.enabled":         true,
		"fusion.disabled_rules":  []string{},
		"logging.level":          "info",
		"logging.format":         "console",
		"logging.output":         "stderr",
		"logging.no_color":       false,
		"logging.timestamp":      true,
		"logging.caller":         false,
		"telemetry.enabled":      true,
		"telemetry.service_name": DefaultName,
	}
}

// LoadEngineConfig loads, defaults and validates the engine configuration.
func LoadEngineConfig(opts ...LoaderOption) (*EngineConfig, error) {
	opts = append([]LoaderOption{func(lc *LoaderConfig) { lc.Defaults = engineDefaults() }}, opts...)

	var cfg EngineConfig
	if err := LoadConfig(DefaultName, &cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
