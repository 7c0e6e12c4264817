package tui

import (
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/kvgrid/internal/config"
)

// Config holds host-provided settings for embedding the grid.
type Config struct {
	Width   int
	Height  int
	NoColor bool
	// ConfigFile is merged over the built-in defaults before the fields
	// below are applied. Empty uses the defaults only.
	ConfigFile string
	ThemeName  string

	IDField  string // Field holding the item id (default: "id")
	AutoID   bool   // Generate ids for records without one
	Path     string // Path to the records inside the value, e.g. "data.items"
	Filter   string // CEL expression over item
	Sort     string // field, field:asc or field:desc
	GroupBy  []string
	Editable bool
	PageSize int
	Frozen   *int // Last pinned column; nil keeps the configured value

	Logger logr.Logger
	// Now drives deferred grid work. Nil uses the wall clock.
	Now func() time.Time
}

// DefaultConfig returns the settings the command line starts from.
func DefaultConfig() Config {
	return Config{ThemeName: "dark"}
}

// resolve merges c over the configuration file and the defaults.
func (c Config) resolve() (config.Config, error) {
	cfg, err := config.Load(c.ConfigFile)
	if err != nil {
		return cfg, err
	}
	if name := strings.TrimSpace(c.ThemeName); name != "" {
		cfg.UI.Theme = name
	}
	if c.IDField != "" {
		cfg.Data.IDField = c.IDField
	}
	if c.AutoID {
		cfg.Data.AutoID = true
	}
	if c.Path != "" {
		cfg.Data.Path = c.Path
	}
	if c.Filter != "" {
		cfg.View.Filter = c.Filter
	}
	if c.Sort != "" {
		cfg.View.Sort = c.Sort
	}
	if len(c.GroupBy) > 0 {
		cfg.View.GroupBy = append([]string(nil), c.GroupBy...)
	}
	if c.Editable {
		cfg.Grid.Editable = true
	}
	if c.PageSize > 0 {
		cfg.View.PageSize = c.PageSize
	}
	if c.Frozen != nil {
		cfg.View.FrozenColumn = *c.Frozen
	}
	return cfg, cfg.Validate()
}
