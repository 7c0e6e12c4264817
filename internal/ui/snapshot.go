package ui

import (
	"strings"
)

const drainLimit = 10000

// SnapshotOptions positions the grid before a snapshot is taken.
type SnapshotOptions struct {
	// ScrollTo is the logical top row.
	ScrollTo int
	// ActiveRow and ActiveCell activate a cell when ActiveRow >= 0.
	ActiveRow  int
	ActiveCell int
}

// Snapshot renders one frame without a terminal program. Pending trailing
// renders are flushed and deferred post-render work is run to completion.
func Snapshot(m *Model, o SnapshotOptions) (string, error) {
	g := m.grid
	if o.ScrollTo > 0 {
		g.ScrollRowToTop(o.ScrollTo)
	}
	if o.ActiveRow >= 0 {
		if err := g.SetActiveCell(o.ActiveRow, o.ActiveCell); err != nil {
			return "", err
		}
	}
	g.Flush()
	if n := g.Loop().Drain(drainLimit); n == drainLimit {
		m.log.Info("snapshot stopped draining deferred work", "limit", drainLimit)
	}
	frame := m.Frame()
	lines := strings.Split(frame, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.Join(lines, "\n") + "\n", nil
}
