// Package config holds the kvgrid configuration file: engine options, data
// loading defaults, the initial view, per-column overrides, key bindings and
// themes. Defaults are embedded; a user file is merged on top.
package config

import (
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the merged configuration.
type Config struct {
	Grid    GridConfig             `yaml:"grid" toml:"grid" yamlcomment:"Grid engine options"`
	Data    DataConfig             `yaml:"data" toml:"data" yamlcomment:"Loading and identity"`
	View    ViewConfig             `yaml:"view" toml:"view" yamlcomment:"Initial filter, sort, grouping and paging"`
	Columns []ColumnConfig         `yaml:"columns,omitempty" toml:"columns,omitempty" yamlcomment:"Per-field column overrides"`
	UI      UIConfig               `yaml:"ui" toml:"ui" yamlcomment:"Terminal host"`
	Themes  map[string]ThemeConfig `yaml:"themes" toml:"themes"`
}

// GridConfig maps onto grid.Options. Delays are in milliseconds.
type GridConfig struct {
	RowHeight              int  `yaml:"row_height" toml:"row_height" yamlcomment:"Lines per row"`
	MaxSupportedHeight     int  `yaml:"max_supported_height" toml:"max_supported_height" yamlcomment:"Scroll height ceiling before the page-jump scheme kicks in"`
	MinRowBuffer           int  `yaml:"min_row_buffer" toml:"min_row_buffer" yamlcomment:"Rows rendered beyond the viewport"`
	EnableCellNavigation   bool `yaml:"enable_cell_navigation" toml:"enable_cell_navigation"`
	Editable               bool `yaml:"editable" toml:"editable"`
	AutoEdit               bool `yaml:"auto_edit" toml:"auto_edit" yamlcomment:"Open the editor when a cell becomes active"`
	EnableAddRow           bool `yaml:"enable_add_row" toml:"enable_add_row" yamlcomment:"Show an empty row that adds an item when edited"`
	AsyncEditorLoading     bool `yaml:"async_editor_loading" toml:"async_editor_loading"`
	AsyncEditorLoadDelayMS int  `yaml:"async_editor_load_delay_ms" toml:"async_editor_load_delay_ms"`
	EnableAsyncPostRender  bool `yaml:"enable_async_post_render" toml:"enable_async_post_render"`
	AsyncPostRenderDelayMS int  `yaml:"async_post_render_delay_ms" toml:"async_post_render_delay_ms"`
	ViewportChangedDelayMS int  `yaml:"viewport_changed_delay_ms" toml:"viewport_changed_delay_ms"`
	RenderDelayMS          int  `yaml:"render_delay_ms" toml:"render_delay_ms" yamlcomment:"Trailing render delay after a large scroll"`
	ForceSyncScrolling     bool `yaml:"force_sync_scrolling" toml:"force_sync_scrolling"`
	UndoLimit              int  `yaml:"undo_limit" toml:"undo_limit" yamlcomment:"Edits kept for undo (0 disables undo)"`
}

// DataConfig controls how loaded records become items.
type DataConfig struct {
	IDField           string `yaml:"id_field" toml:"id_field" yamlcomment:"Field holding the unique item id"`
	AutoID            bool   `yaml:"auto_id" toml:"auto_id" yamlcomment:"Generate UUIDs for items without an id"`
	Path              string `yaml:"path,omitempty" toml:"path,omitempty" yamlcomment:"Path to the records inside each document, e.g. data.items"`
	GroupingDelimiter string `yaml:"grouping_delimiter" toml:"grouping_delimiter"`
	WidthSample       int    `yaml:"width_sample" toml:"width_sample" yamlcomment:"Items inspected to size columns"`
	MaxColumnWidth    int    `yaml:"max_column_width" toml:"max_column_width"`
}

// ViewConfig is the initial state of the data view.
type ViewConfig struct {
	Filter       string   `yaml:"filter,omitempty" toml:"filter,omitempty" yamlcomment:"CEL expression over item and args"`
	Sort         string   `yaml:"sort,omitempty" toml:"sort,omitempty" yamlcomment:"field or field:desc"`
	GroupBy      []string `yaml:"group_by,omitempty" toml:"group_by,omitempty"`
	Aggregates   []string `yaml:"aggregates,omitempty" toml:"aggregates,omitempty" yamlcomment:"kind:field with kind one of sum, avg, min, max, count"`
	Collapsed    bool     `yaml:"collapsed" toml:"collapsed"`
	PageSize     int      `yaml:"page_size" toml:"page_size"`
	Page         int      `yaml:"page" toml:"page"`
	FrozenColumn int      `yaml:"frozen_column" toml:"frozen_column" yamlcomment:"Last pinned column index (-1 for none)"`
}

// ColumnConfig overrides the inferred column of one field.
type ColumnConfig struct {
	Field       string `yaml:"field" toml:"field"`
	Name        string `yaml:"name,omitempty" toml:"name,omitempty"`
	Width       int    `yaml:"width,omitempty" toml:"width,omitempty"`
	MinWidth    int    `yaml:"min_width,omitempty" toml:"min_width,omitempty"`
	MaxWidth    int    `yaml:"max_width,omitempty" toml:"max_width,omitempty"`
	Formatter   string `yaml:"formatter,omitempty" toml:"formatter,omitempty" yamlcomment:"default, number, integer, checkmark or percent"`
	Editor      string `yaml:"editor,omitempty" toml:"editor,omitempty" yamlcomment:"text, number, checkbox or none"`
	Sortable    *bool  `yaml:"sortable,omitempty" toml:"sortable,omitempty"`
	Hidden      bool   `yaml:"hidden,omitempty" toml:"hidden,omitempty"`
	Validate    string `yaml:"validate,omitempty" toml:"validate,omitempty" yamlcomment:"CEL expression; args holds the new value"`
	ValidateMsg string `yaml:"validate_message,omitempty" toml:"validate_message,omitempty"`
}

// UIConfig configures the terminal host.
type UIConfig struct {
	Theme      string            `yaml:"theme" toml:"theme"`
	TickMS     int               `yaml:"tick_ms" toml:"tick_ms" yamlcomment:"Timer resolution of deferred grid work"`
	ShowStatus bool              `yaml:"show_status" toml:"show_status"`
	Keys       map[string]string `yaml:"keys,omitempty" toml:"keys,omitempty" yamlcomment:"key -> action overrides"`
}

// ThemeConfig is the YAML form of a theme. Colors are ANSI numbers or hex.
type ThemeConfig struct {
	HeaderFG     ColorValue `yaml:"header_fg" toml:"header_fg" yamlcomment:"Header foreground"`
	HeaderBG     ColorValue `yaml:"header_bg" toml:"header_bg" yamlcomment:"Header background"`
	SortMarkFG   ColorValue `yaml:"sort_mark_fg" toml:"sort_mark_fg"`
	OddRowBG     ColorValue `yaml:"odd_row_bg" toml:"odd_row_bg"`
	ActiveRowBG  ColorValue `yaml:"active_row_bg" toml:"active_row_bg"`
	ActiveCellFG ColorValue `yaml:"active_cell_fg" toml:"active_cell_fg"`
	ActiveCellBG ColorValue `yaml:"active_cell_bg" toml:"active_cell_bg"`
	SelectedBG   ColorValue `yaml:"selected_bg" toml:"selected_bg"`
	EditingBG    ColorValue `yaml:"editing_bg" toml:"editing_bg"`
	InvalidFG    ColorValue `yaml:"invalid_fg" toml:"invalid_fg"`
	InvalidBG    ColorValue `yaml:"invalid_bg" toml:"invalid_bg"`
	GroupFG      ColorValue `yaml:"group_fg" toml:"group_fg" yamlcomment:"Group header rows"`
	TotalsFG     ColorValue `yaml:"totals_fg" toml:"totals_fg" yamlcomment:"Group totals rows"`
	PinnedFG     ColorValue `yaml:"pinned_fg" toml:"pinned_fg"`
	LoadingFG    ColorValue `yaml:"loading_fg" toml:"loading_fg"`
	StatusFG     ColorValue `yaml:"status_fg" toml:"status_fg"`
	StatusBG     ColorValue `yaml:"status_bg" toml:"status_bg"`
	StatusError  ColorValue `yaml:"status_error" toml:"status_error"`
	PromptFG     ColorValue `yaml:"prompt_fg" toml:"prompt_fg"`
}

// ColorValue stores a color token (number or name) and marshals numerics
// as YAML ints.
type ColorValue string

func (c ColorValue) MarshalYAML() (interface{}, error) {
	if c == "" {
		return "", nil
	}
	s := string(c)
	if _, err := strconv.Atoi(s); err == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: s}, nil
	}
	return s, nil
}

func (c *ColorValue) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		*c = ""
		return nil
	}
	*c = ColorValue(value.Value)
	return nil
}
