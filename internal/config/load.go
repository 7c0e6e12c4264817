package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/kvgrid/pkg/settings"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

var (
	embeddedConfigOnce sync.Once
	embeddedConfig     Config
	embeddedConfigErr  error
)

// DefaultConfigYAML returns a copy of the embedded default config.
func DefaultConfigYAML() []byte {
	return bytes.Clone(embeddedDefaultConfig)
}

// Default returns the embedded default configuration.
func Default() (Config, error) {
	embeddedConfigOnce.Do(func() {
		if len(embeddedDefaultConfig) == 0 {
			embeddedConfigErr = errors.New("embedded default config is empty")
			return
		}
		if err := decodeYAML(bytes.NewReader(embeddedDefaultConfig), &embeddedConfig); err != nil {
			embeddedConfigErr = fmt.Errorf("decode embedded default config: %w", err)
		}
	})
	if embeddedConfigErr != nil {
		return Config{}, embeddedConfigErr
	}
	return embeddedConfig.clone(), nil
}

// DefaultPath returns $XDG_CONFIG_HOME/kvgrid/config.yaml, falling back to
// the platform config directory.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		if dir, err = os.UserConfigDir(); err != nil {
			return "", fmt.Errorf("locate config directory: %w", err)
		}
	}
	return filepath.Join(dir, settings.CliBinaryName, "config.yaml"), nil
}

// Load merges the file at path over the defaults. An empty path loads the
// default location when a file exists there. Files ending in .toml are
// read as TOML, anything else as YAML.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	explicit := path != ""
	if !explicit {
		if path, err = DefaultPath(); err != nil {
			return cfg, nil
		}
	}
	f, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := Merge(&cfg, f, strings.EqualFold(filepath.Ext(path), ".toml")); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Merge decodes r over cfg. Fields absent from r keep their values; maps
// merge key by key and lists are replaced.
func Merge(cfg *Config, r io.Reader, asTOML bool) error {
	if asTOML {
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
		return nil
	}
	if err := decodeYAML(r, cfg); err != nil {
		return fmt.Errorf("decode YAML: %w", err)
	}
	return nil
}

func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c Config) clone() Config {
	out := c
	out.View.GroupBy = slices.Clone(c.View.GroupBy)
	out.View.Aggregates = slices.Clone(c.View.Aggregates)
	out.Columns = slices.Clone(c.Columns)
	out.UI.Keys = maps.Clone(c.UI.Keys)
	out.Themes = maps.Clone(c.Themes)
	return out
}

// Theme returns the selected theme.
func (c Config) Theme() (ThemeConfig, bool) {
	t, ok := c.Themes[c.UI.Theme]
	return t, ok
}
