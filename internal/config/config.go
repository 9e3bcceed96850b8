// Package config loads tapestry configuration from defaults, a yaml file,
// TAPESTRY_* environment variables, and CLI flags, in increasing
// precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "TAPESTRY_"

// StoreConfig selects the graph store backend.
type StoreConfig struct {
	Driver string `koanf:"driver"` // memory | sqlite
	DSN    string `koanf:"dsn"`
}

// Config is the resolved tapestry configuration.
type Config struct {
	Origin     string      `koanf:"origin"`
	ViewsDir   string      `koanf:"views_dir"`
	SchemaPath string      `koanf:"schema_path"`
	Listen     string      `koanf:"listen"`
	LogLevel   string      `koanf:"log_level"`
	Store      StoreConfig `koanf:"store"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Origin:     "graph://local",
		ViewsDir:   "views",
		SchemaPath: "relationships.cue",
		Listen:     ":8080",
		LogLevel:   "info",
		Store:      StoreConfig{Driver: "memory"},
	}
}

// findConfigFile picks the config file to use. Priority: explicit path >
// tapestry.yaml > tapestry.yml.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"tapestry.yaml", "tapestry.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load resolves configuration. Precedence (highest to lowest): flags >
// env vars > config file > defaults. Flags are matched by kebab-case name
// converted to snake_case; only flags explicitly set participate.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	def := Defaults()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"origin":       def.Origin,
		"views_dir":    def.ViewsDir,
		"schema_path":  def.SchemaPath,
		"listen":       def.Listen,
		"log_level":    def.LogLevel,
		"store.driver": def.Store.Driver,
		"store.dsn":    def.Store.DSN,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	// TAPESTRY_VIEWS_DIR -> views_dir, TAPESTRY_STORE_DSN -> store.dsn
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		if rest, ok := strings.CutPrefix(key, "store_"); ok {
			return "store." + rest
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if rest, ok := strings.CutPrefix(key, "store_"); ok {
				key = "store." + rest
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	switch cfg.Store.Driver {
	case "memory", "sqlite":
	default:
		return nil, fmt.Errorf("unknown store driver %q (expected memory or sqlite)", cfg.Store.Driver)
	}
	if cfg.Store.Driver == "sqlite" && cfg.Store.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required for the sqlite driver")
	}
	return &cfg, nil
}
