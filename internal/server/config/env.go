package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable name declared in Config tags.
const EnvPrefix = "GOPHAUTH_"

// parseEnv overlays GOPHAUTH_* variables. Unset variables leave the current
// value alone. A nil environ reads the process environment.
func parseEnv(config *Config, environ map[string]string) error {
	opts := env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	}
	if err := env.ParseWithOptions(config, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
