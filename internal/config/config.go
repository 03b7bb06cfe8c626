// Package config resolves runtime settings (default detail level, the
// default TYP overlay, preferred label language) from three layers,
// lowest priority first: built-in defaults, a TOML config file, and
// command-line flags.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the settings every gmap/gimg entry point needs.
type Config struct {
	// DetailLevelAdjust biases the resolved map-level bits up or down;
	// see internal/scale.Resolver.AdjustDetailLevel.
	DetailLevelAdjust int `toml:"detail_level_adjust"`
	// DefaultTYPPath, if set, is loaded as the style overlay whenever a
	// map is opened without an explicit TYP file.
	DefaultTYPPath string `toml:"default_typ_path"`
	// Language is the two-digit label language code queried first when
	// a label carries more than one translation.
	Language string `toml:"language"`
}

// Default returns the built-in baseline, used when no config file or
// flag overrides a field.
func Default() Config {
	return Config{
		DetailLevelAdjust: 0,
		DefaultTYPPath:    "",
		Language:          "04", // English
	}
}

// Load resolves a Config starting from Default, overlaying path's TOML
// contents if it exists (a missing file is not an error), then applying
// overrides (any non-zero-value field takes precedence).
func Load(path string, overrides Config) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		} else if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if overrides.DetailLevelAdjust != 0 {
		cfg.DetailLevelAdjust = overrides.DetailLevelAdjust
	}
	if overrides.DefaultTYPPath != "" {
		cfg.DefaultTYPPath = overrides.DefaultTYPPath
	}
	if overrides.Language != "" {
		cfg.Language = overrides.Language
	}

	return cfg, nil
}
