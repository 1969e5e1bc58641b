// Package config loads runtime options from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Options tune how a machine resolves pseudostates and logs its steps
type Options struct {
	MaxResolveDepth int    `env:"KFLUO_MAX_RESOLVE_DEPTH" envDefault:"32"`
	LogLevel        string `env:"KFLUO_LOG_LEVEL" envDefault:"info"`
	LogPrefix       string `env:"KFLUO_LOG_PREFIX" envDefault:"StateMachine"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads Options from the environment and validates them
func Load() (Options, error) {
	var opts Options
	if err := ParseEnv(&opts); err != nil {
		return Options{}, err
	}
	if opts.MaxResolveDepth <= 0 {
		return Options{}, fmt.Errorf("KFLUO_MAX_RESOLVE_DEPTH must be positive, got %d", opts.MaxResolveDepth)
	}
	return opts, nil
}
