package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, an optional YAML file and
// environment variables.
//
// Environment keys map double underscores to nesting:
// MYSITE_API__BASE_URL -> api.base_url.
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv("MYSITE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	envProvider := env.Provider("MYSITE_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "MYSITE_"))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.Addr == "" {
		return nil, errors.New("addr must not be empty")
	}
	if cfg.API.TimeoutSeconds <= 0 {
		return nil, errors.New("api.timeout_seconds must be positive")
	}
	return &cfg, nil
}
