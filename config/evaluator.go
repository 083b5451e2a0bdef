package config

import (
	"fmt"
	"time"

	"github.com/kbukum/evalgraph/engine"
	"github.com/kbukum/evalgraph/validation"
)

// EvaluatorConfig configures the evaluation engine.
type EvaluatorConfig struct {
	Parallelism int  `yaml:"parallelism" mapstructure:"parallelism" json:"parallelism" validate:"gte=0,lte=1024"`
	KeepGoing   bool `yaml:"keep_going" mapstructure:"keep_going" json:"keep_going"`

	// Retry settings for transient node failures.
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts" json:"max_attempts" validate:"gte=0,lte=20"`
	InitialBackoffMS int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms" json:"initial_backoff_ms" validate:"gte=0"`
	MaxBackoffMS     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms" json:"max_backoff_ms" validate:"gte=0"`
	BackoffFactor    float64 `yaml:"backoff_factor" mapstructure:"backoff_factor" json:"backoff_factor" validate:"gte=0"`
	Jitter           float64 `yaml:"jitter" mapstructure:"jitter" json:"jitter" validate:"gte=0,lte=1"`
}

// ApplyDefaults applies default values to evaluator configuration.
func (c *EvaluatorConfig) ApplyDefaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoffMS == 0 {
		c.InitialBackoffMS = 100
	}
	if c.MaxBackoffMS == 0 {
		c.MaxBackoffMS = 10_000
	}
	if c.BackoffFactor == 0 {
		c.BackoffFactor = 2.0
	}
	if c.Jitter == 0 {
		c.Jitter = 0.1
	}
}

// Validate validates evaluator configuration.
func (c *EvaluatorConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("evaluator: %w", err)
	}
	if c.MaxBackoffMS < c.InitialBackoffMS {
		return fmt.Errorf("evaluator: max_backoff_ms (%d) must not be less than initial_backoff_ms (%d)",
			c.MaxBackoffMS, c.InitialBackoffMS)
	}
	return nil
}

// Options converts the configuration into engine options.
func (c *EvaluatorConfig) Options() engine.Options {
	return engine.Options{
		Parallelism: c.Parallelism,
		KeepGoing:   c.KeepGoing,
		Retry: engine.RetryConfig{
			MaxAttempts:    c.MaxAttempts,
			InitialBackoff: time.Duration(c.InitialBackoffMS) * time.Millisecond,
			MaxBackoff:     time.Duration(c.MaxBackoffMS) * time.Millisecond,
			BackoffFactor:  c.BackoffFactor,
			Jitter:         c.Jitter,
		},
	}
}

// InspectConfig configures the HTTP inspection endpoint.
type InspectConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr" json:"addr" validate:"omitempty,hostname_port"`
	Prefix  string `yaml:"prefix" mapstructure:"prefix" json:"prefix"`
}

// ApplyDefaults applies default values to inspection configuration.
func (c *InspectConfig) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = "localhost:8090"
	}
	if c.Prefix == "" {
		c.Prefix = "/inspect"
	}
}

// Validate validates inspection configuration.
func (c *InspectConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	return nil
}

// Config is the top-level configuration for an evaluation service.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Evaluator     EvaluatorConfig `yaml:"evaluator" mapstructure:"evaluator"`
	Inspect       InspectConfig   `yaml:"inspect" mapstructure:"inspect"`
}

// ApplyDefaults applies defaults to all sections.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Evaluator.ApplyDefaults()
	c.Inspect.ApplyDefaults()
}

// Validate validates all sections.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Evaluator.Validate(); err != nil {
		return err
	}
	return c.Inspect.Validate()
}
