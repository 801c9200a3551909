package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/telescopium/polaralign/internal/domain/angle"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if POLARALIGN_CONFIG is set
//  3. env (prefix POLARALIGN_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("POLARALIGN_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: POLARALIGN_ADDR, POLARALIGN_SITE_LATITUDE, ...
	// Map env keys like POLARALIGN_SITE_HEIGHT_M -> site_height_m (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("POLARALIGN_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "polaralign_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if _, err := angle.ParseDMS(c.SiteLongitude); err != nil {
		return fmt.Errorf("%w: site_longitude: %w", ErrInvalidConfig, err)
	}
	if _, err := angle.ParseDMS(c.SiteLatitude); err != nil {
		return fmt.Errorf("%w: site_latitude: %w", ErrInvalidConfig, err)
	}
	if c.SingularityEpsilon <= 0 {
		return fmt.Errorf("%w: singularity_epsilon must be positive", ErrInvalidConfig)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	}
	return nil
}
