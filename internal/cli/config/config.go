// Package config loads CLI configuration from file, environment and flags.
// Precedence, highest first: flags > DBDECK_* env vars > dbdeck.yaml > defaults.
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

	"github.com/dbdeck/dbdeck/internal/workspace"
)

// Config holds all CLI configuration options.
type Config struct {
	// DataDir is the directory holding the .db files.
	DataDir string `koanf:"data_dir"`
	// ExportDir is the default destination for exports. Empty means the
	// per-user export directory resolved at export time.
	ExportDir string `koanf:"export_dir"`
	// OutputFormat selects query result rendering: table, csv, json, md.
	OutputFormat string `koanf:"output"`
	Verbose      bool   `koanf:"verbose"`
}

// DefaultOutput is the query rendering format when none is configured.
const DefaultOutput = "table"

var configFileUsed string

// FileUsed returns the path of the config file that was loaded, if any.
func FileUsed() string { return configFileUsed }

// findConfigFile picks the config file: explicit path, else dbdeck.yaml or
// dbdeck.yml in the working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"dbdeck.yaml", "dbdeck.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load assembles the configuration. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"data_dir":   workspace.DefaultRoot(),
		"export_dir": "",
		"output":     DefaultOutput,
		"verbose":    false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// DBDECK_DATA_DIR -> data_dir
	if err := k.Load(env.Provider("DBDECK_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "DBDECK_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	switch cfg.OutputFormat {
	case "table", "csv", "json", "md", "markdown":
	default:
		return nil, fmt.Errorf("unknown output format %q (want table, csv, json or md)", cfg.OutputFormat)
	}

	return cfg, nil
}
