// Package config loads tool-level settings with koanf, layering
// built-in defaults, an optional .aps.toml in the manifest directory,
// and APS_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	apserrors "github.com/westonplatter/agentic-prompt-sync/pkg/errors"
	"github.com/westonplatter/agentic-prompt-sync/pkg/paths"
)

// Config holds run defaults that flags can override
type Config struct {
	// Yes pre-confirms overwrites for every run
	Yes bool `koanf:"yes"`

	// Strict treats warnings as errors by default
	Strict bool `koanf:"strict"`

	// Shallow controls whether git sources default to shallow clones
	Shallow bool `koanf:"shallow"`

	// SuggestLimit caps suggest results
	SuggestLimit int `koanf:"suggest_limit"`
}

// Defaults returns the built-in configuration values
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"yes":           false,
		"strict":        false,
		"shallow":       true,
		"suggest_limit": 5,
	}
}

// Load layers defaults, the config file (when present), and environment
// variables. baseDir is the manifest directory; pass "" to skip the file
// layer.
func Load(baseDir string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, apserrors.Wrap(err, apserrors.ErrInternal, "failed to load default config")
	}

	if baseDir != "" {
		cfgPath := filepath.Join(baseDir, paths.ConfigFileName)
		if _, err := os.Stat(cfgPath); err == nil {
			if err := k.Load(file.Provider(cfgPath), toml.Parser()); err != nil {
				return nil, apserrors.Wrapf(err, apserrors.ErrManifestParse, "failed to parse config at %s", cfgPath)
			}
		}
	}

	// APS_STRICT=true -> strict, APS_SUGGEST_LIMIT=10 -> suggest_limit
	if err := k.Load(env.Provider("APS_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "APS_"))
	}), nil); err != nil {
		return nil, apserrors.Wrap(err, apserrors.ErrInternal, "failed to load environment config")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, apserrors.Wrap(err, apserrors.ErrInternal, "failed to decode config")
	}
	return &cfg, nil
}
