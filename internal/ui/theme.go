package ui

import (
	"image/color"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"

	"github.com/oakwood-commons/kvgrid/internal/config"
)

// Theme defines the colors of the grid host.
type Theme struct {
	HeaderFG     color.Color
	HeaderBG     color.Color
	SortMarkFG   color.Color
	OddRowBG     color.Color
	ActiveRowBG  color.Color
	ActiveCellFG color.Color
	ActiveCellBG color.Color
	SelectedBG   color.Color
	EditingBG    color.Color
	InvalidFG    color.Color
	InvalidBG    color.Color
	GroupFG      color.Color // group header rows
	TotalsFG     color.Color // group totals rows
	PinnedFG     color.Color
	LoadingFG    color.Color
	StatusFG     color.Color
	StatusBG     color.Color
	StatusError  color.Color
	PromptFG     color.Color
}

var (
	defaultThemeOnce sync.Once
	defaultTheme     Theme
)

// DefaultTheme returns the theme selected by the embedded configuration.
func DefaultTheme() Theme {
	defaultThemeOnce.Do(func() {
		cfg, err := config.Default()
		if err != nil {
			defaultTheme = fallbackDefaultTheme()
			return
		}
		tc, ok := cfg.Theme()
		if !ok {
			defaultTheme = fallbackDefaultTheme()
			return
		}
		defaultTheme = ThemeFromConfig(tc)
	})
	return defaultTheme
}

func fallbackDefaultTheme() Theme {
	return Theme{
		HeaderFG:     lipgloss.Color("230"),
		HeaderBG:     lipgloss.Color("238"),
		SortMarkFG:   lipgloss.Color("214"),
		OddRowBG:     lipgloss.Color("235"),
		ActiveRowBG:  lipgloss.Color("237"),
		ActiveCellFG: lipgloss.Color("16"),
		ActiveCellBG: lipgloss.Color("81"),
		SelectedBG:   lipgloss.Color("24"),
		EditingBG:    lipgloss.Color("58"),
		InvalidFG:    lipgloss.Color("231"),
		InvalidBG:    lipgloss.Color("160"),
		GroupFG:      lipgloss.Color("117"),
		TotalsFG:     lipgloss.Color("150"),
		PinnedFG:     lipgloss.Color("223"),
		LoadingFG:    lipgloss.Color("244"),
		StatusFG:     lipgloss.Color("252"),
		StatusBG:     lipgloss.Color("236"),
		StatusError:  lipgloss.Color("203"),
		PromptFG:     lipgloss.Color("81"),
	}
}

// ThemeFromConfig converts the YAML form of a theme. Missing colors keep
// the fallback palette.
func ThemeFromConfig(tc config.ThemeConfig) Theme {
	th := fallbackDefaultTheme()
	set := func(val config.ColorValue, dst *color.Color) {
		if val != "" {
			*dst = lipgloss.Color(string(val))
		}
	}
	set(tc.HeaderFG, &th.HeaderFG)
	set(tc.HeaderBG, &th.HeaderBG)
	set(tc.SortMarkFG, &th.SortMarkFG)
	set(tc.OddRowBG, &th.OddRowBG)
	set(tc.ActiveRowBG, &th.ActiveRowBG)
	set(tc.ActiveCellFG, &th.ActiveCellFG)
	set(tc.ActiveCellBG, &th.ActiveCellBG)
	set(tc.SelectedBG, &th.SelectedBG)
	set(tc.EditingBG, &th.EditingBG)
	set(tc.InvalidFG, &th.InvalidFG)
	set(tc.InvalidBG, &th.InvalidBG)
	set(tc.GroupFG, &th.GroupFG)
	set(tc.TotalsFG, &th.TotalsFG)
	set(tc.PinnedFG, &th.PinnedFG)
	set(tc.LoadingFG, &th.LoadingFG)
	set(tc.StatusFG, &th.StatusFG)
	set(tc.StatusBG, &th.StatusBG)
	set(tc.StatusError, &th.StatusError)
	set(tc.PromptFG, &th.PromptFG)
	return th
}

func hasClass(classes, name string) bool {
	for _, c := range strings.Fields(classes) {
		if c == name {
			return true
		}
	}
	return false
}

func hasClassPrefix(classes, prefix string) bool {
	for _, c := range strings.Fields(classes) {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// CellStyle decorates one cell from its classes.
func (t Theme) CellStyle(class, text string) string {
	s := lipgloss.NewStyle()
	switch {
	case hasClass(class, "invalid"):
		s = s.Foreground(t.InvalidFG).Background(t.InvalidBG).Bold(true)
	case hasClass(class, "editing"):
		s = s.Background(t.EditingBG).Underline(true)
	case hasClass(class, "active"):
		s = s.Foreground(t.ActiveCellFG).Background(t.ActiveCellBG)
	case hasClass(class, "pinned"):
		s = s.Foreground(t.PinnedFG)
	default:
		return text
	}
	return s.Render(text)
}

// RowStyle decorates a pane segment of a row from the row classes.
func (t Theme) RowStyle(class, text string) string {
	s := lipgloss.NewStyle()
	styled := true
	switch {
	case hasClass(class, "selected"):
		s = s.Background(t.SelectedBG)
	case hasClass(class, "active"):
		s = s.Background(t.ActiveRowBG)
	case hasClass(class, "odd"):
		s = s.Background(t.OddRowBG)
	default:
		styled = false
	}
	switch {
	case hasClassPrefix(class, "group-level-"):
		s, styled = s.Foreground(t.GroupFG).Bold(true), true
	case hasClass(class, "group-totals"):
		s, styled = s.Foreground(t.TotalsFG).Italic(true), true
	case hasClass(class, "loading"):
		s, styled = s.Foreground(t.LoadingFG).Faint(true), true
	}
	if !styled {
		return text
	}
	return s.Render(text)
}

// HeaderStyle is the style of the column header line.
func (t Theme) HeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.HeaderFG).Background(t.HeaderBG).Bold(true)
}
