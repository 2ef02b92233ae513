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
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if ROOMWARD_CONFIG is set
//  3. env (prefix ROOMWARD_)
func Load(_ context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("ROOMWARD_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: ROOMWARD_ADDR, ROOMWARD_QUEUE_SIZE, ...
	// Map env keys like ROOMWARD_QUEUE_SIZE -> queue_size (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	// Nested sections use a dot: ROOMWARD_FEED_URL -> feed.url.
	envProvider := env.Provider("ROOMWARD_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "roomward_")
		for _, section := range []string{"feed_", "audit_"} {
			if strings.HasPrefix(s, section) {
				s = strings.Replace(s, "_", ".", 1)
				break
			}
		}
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

	// Basic validation
	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.QueueSize < 1 {
		return nil, fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if mode := cfg.Audit.Mode; mode != "" && mode != "webhook" && mode != "chat" {
		return nil, fmt.Errorf("%w: audit mode %q is not webhook or chat", ErrInvalidConfig, mode)
	}
	if _, err := cfg.BuildProfiles(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
