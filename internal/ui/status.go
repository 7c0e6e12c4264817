package ui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"
)

// StatusModel is the one-line status bar under the grid.
type StatusModel struct {
	Message  string
	IsError  bool
	Row      int // 1-based active row, 0 when nothing is active
	Rows     int
	Column   string
	Sort     string
	SortAsc  bool
	Filter   string
	Page     int // 0-based
	Pages    int
	Selected int
	Editing  bool
	NoColor  bool
	Width    int
	Theme    Theme
}

// NewStatusModel creates a status bar with the default theme.
func NewStatusModel() StatusModel {
	return StatusModel{Width: 80, Theme: DefaultTheme()}
}

func (m StatusModel) right() string {
	var parts []string
	if m.Editing {
		parts = append(parts, "EDIT")
	}
	if m.Filter != "" {
		parts = append(parts, "filter: "+m.Filter)
	}
	if m.Sort != "" {
		dir := "asc"
		if !m.SortAsc {
			dir = "desc"
		}
		parts = append(parts, fmt.Sprintf("sort: %s %s", m.Sort, dir))
	}
	if m.Pages > 1 {
		parts = append(parts, fmt.Sprintf("page %d/%d", m.Page+1, m.Pages))
	}
	if m.Selected > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", m.Selected))
	}
	if m.Row > 0 {
		pos := fmt.Sprintf("%d/%d", m.Row, m.Rows)
		if m.Column != "" {
			pos += " " + m.Column
		}
		parts = append(parts, pos)
	} else {
		unit := "rows"
		if m.Rows == 1 {
			unit = "row"
		}
		parts = append(parts, fmt.Sprintf("%d %s", m.Rows, unit))
	}
	return strings.Join(parts, " | ")
}

// View renders the bar padded to Width.
func (m StatusModel) View() string {
	w := max(m.Width, 0)
	left, right := m.Message, m.right()
	gap := w - runewidth.StringWidth(left) - runewidth.StringWidth(right)
	if gap < 1 {
		avail := max(w-runewidth.StringWidth(right)-1, 0)
		left = runewidth.Truncate(left, avail, "…")
		gap = max(w-runewidth.StringWidth(left)-runewidth.StringWidth(right), 1)
	}
	line := runewidth.Truncate(left+strings.Repeat(" ", gap)+right, w, "")
	if m.NoColor {
		return line
	}
	s := lipgloss.NewStyle().Foreground(m.Theme.StatusFG).Background(m.Theme.StatusBG)
	if m.IsError {
		s = s.Foreground(m.Theme.StatusError).Bold(true)
	}
	return s.Render(line)
}
