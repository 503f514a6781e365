// Package config loads workkflow settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/5ALAM/workkflow/internal/layout"
	"github.com/5ALAM/workkflow/internal/store"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "workkflow.toml"

// ErrNotFound is returned by Load when the config file does not exist.
var ErrNotFound = errors.New("config file not found")

// Config is the full set of settings.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
}

type LayoutConfig struct {
	Direction      string  `toml:"direction"`
	NodeSeparation float64 `toml:"node_separation"`
	RankSeparation float64 `toml:"rank_separation"`
	NodeWidth      float64 `toml:"node_width"`
	NodeHeight     float64 `toml:"node_height"`
	Passes         int     `toml:"passes"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text, json
}

// Default returns the built-in settings.
func Default() *Config {
	o := layout.DefaultOptions()
	return &Config{
		Layout: LayoutConfig{
			Direction:      string(o.Direction),
			NodeSeparation: o.NodeSeparation,
			RankSeparation: o.RankSeparation,
			NodeWidth:      o.NodeWidth,
			NodeHeight:     o.NodeHeight,
			Passes:         o.Passes,
		},
		Store:  StoreConfig{Path: store.DefaultPath},
		Server: ServerConfig{Addr: "127.0.0.1:7420"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the config file at path. Keys the file omits keep their
// defaults; unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, ErrNotFound) {
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes TOML content over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LayoutOptions converts the [layout] section.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		Direction:      layout.Direction(strings.ToUpper(c.Layout.Direction)),
		NodeSeparation: c.Layout.NodeSeparation,
		RankSeparation: c.Layout.RankSeparation,
		NodeWidth:      c.Layout.NodeWidth,
		NodeHeight:     c.Layout.NodeHeight,
		Passes:         c.Layout.Passes,
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.LayoutOptions().Validate(); err != nil {
		return fmt.Errorf("[layout]: %w", err)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("[store]: path is required")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("[server]: addr is required")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("[log]: unknown level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("[log]: unknown format %q", c.Log.Format)
	}
	return nil
}
