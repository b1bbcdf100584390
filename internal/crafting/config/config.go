// Package config loads the server configuration from rocket-capacity.yaml,
// ROCKET_* environment variables and command line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rsned/rocket-capacity-server/internal/crafting/pipeline"
	"github.com/rsned/rocket-capacity-server/internal/crafting/source"
)

// EnvPrefix prefixes the environment variables read by Load.
const EnvPrefix = "ROCKET"

// Config represents the server configuration.
type Config struct {
	DB            string       `mapstructure:"db"`
	Output        string       `mapstructure:"output"`
	WithIconPaths bool         `mapstructure:"with_icon_paths"`
	AllowPartial  bool         `mapstructure:"allow_partial"`
	Verbose       bool         `mapstructure:"verbose"`
	Source        SourceConfig `mapstructure:"source"`
}

// SourceConfig selects where the game data files are read from.
type SourceConfig struct {
	// Dir is a local checkout of the game data. It takes precedence over URL.
	Dir         string          `mapstructure:"dir"`
	URL         string          `mapstructure:"url"`
	CacheTTL    time.Duration   `mapstructure:"cache_ttl"`
	Concurrency int             `mapstructure:"concurrency"`
	Manifest    source.Manifest `mapstructure:"manifest"`
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"db":                 "db",
	"output":             "output",
	"with-icon-paths":    "with_icon_paths",
	"allow-partial":      "allow_partial",
	"verbose":            "verbose",
	"source-dir":         "source.dir",
	"source-url":         "source.url",
	"source-cache-ttl":   "source.cache_ttl",
	"source-concurrency": "source.concurrency",
}

// Load reads the configuration. The config file is rocket-capacity.yaml in
// the working directory unless flags carry a "config" path. Flags that were
// not set on the command line do not override the file or the environment.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Set defaults
	manifest := source.DefaultManifest()
	v.SetDefault("db", "data/rocket-capacity.db")
	v.SetDefault("output", "data/items.json")
	v.SetDefault("with_icon_paths", false)
	v.SetDefault("allow_partial", false)
	v.SetDefault("verbose", false)
	v.SetDefault("source.dir", "")
	v.SetDefault("source.url", source.DefaultBaseURL)
	v.SetDefault("source.cache_ttl", "10m")
	v.SetDefault("source.concurrency", source.DefaultConcurrency)
	v.SetDefault("source.manifest.items", manifest.Items)
	v.SetDefault("source.manifest.recipes", manifest.Recipes)
	v.SetDefault("source.manifest.fluids", manifest.Fluids)
	v.SetDefault("source.manifest.patches", manifest.Patches)

	v.SetConfigName("rocket-capacity")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
		}
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding flag %s: %w", name, err)
			}
		}
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.DB == "" {
		return errors.New("db must not be empty")
	}
	if cfg.Source.Dir == "" && cfg.Source.URL == "" {
		return errors.New("one of source.dir or source.url is required")
	}
	if cfg.Source.Concurrency < 1 {
		return fmt.Errorf("source.concurrency must be at least 1, got %d", cfg.Source.Concurrency)
	}
	if cfg.Source.CacheTTL < 0 {
		return fmt.Errorf("source.cache_ttl must not be negative, got %s", cfg.Source.CacheTTL)
	}
	return nil
}

// Reader builds the source reader described by the configuration.
func (c *Config) Reader() source.Reader {
	var r source.Reader
	if c.Source.Dir != "" {
		r = source.DirReader{Root: c.Source.Dir}
	} else {
		r = source.NewHTTPReader(c.Source.URL)
	}
	if c.Source.CacheTTL > 0 {
		r = source.NewCachedReader(r, c.Source.CacheTTL)
	}
	return r
}

// PipelineOptions returns the collection options of the configuration.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		WithIconPaths: c.WithIconPaths,
		AllowPartial:  c.AllowPartial,
		Concurrency:   c.Source.Concurrency,
	}
}
