package grid

import (
	"github.com/oakwood-commons/kvgrid/internal/selection"
	"github.com/oakwood-commons/kvgrid/internal/viewport"
)

// Navigate moves the active cell by a named direction: up, down, left,
// right, next, prev, home or end. It reports whether the cell moved.
func (g *Grid) Navigate(dir string) (bool, error) {
	d, err := selection.ParseDirection(dir)
	if err != nil {
		return false, err
	}
	return g.NavigateDir(d), nil
}

// NavigateDir moves the active cell. The open edit is committed first; a
// rejected commit keeps the cell where it is. Without an active cell only
// next and prev move, to the first and last focusable cell.
func (g *Grid) NavigateDir(d selection.Direction) bool {
	if !g.opts.EnableCellNavigation {
		return false
	}
	pos, ok := g.cursor.Active()
	if !ok && d != selection.Next && d != selection.Prev {
		return false
	}
	if !g.lock.CommitCurrentEdit() {
		return false
	}

	var next selection.Position
	var found bool
	switch {
	case ok:
		next, found = selection.Step(g, d, pos)
	case d == selection.Next:
		next, found = selection.First(g)
	default:
		next, found = selection.Last(g)
	}
	if !found {
		return false
	}
	g.ScrollCellIntoView(next.Row, next.Cell, false)
	g.setActive(next)
	return true
}

// NavigatePage scrolls one viewport up (dir < 0) or down and moves the
// active row by the same amount.
func (g *Grid) NavigatePage(dir int) bool {
	if !g.lock.CommitCurrentEdit() {
		return false
	}
	if dir < 0 {
		dir = viewport.DirUp
	} else {
		dir = viewport.DirDown
	}
	delta, res := g.vp.ScrollPage(dir)
	g.afterScroll(res)

	pos, ok := g.cursor.Active()
	if !ok || g.RowCount() == 0 {
		return res.Moved
	}
	row := min(max(pos.Row+delta, 0), g.RowCount()-1)
	if row == pos.Row {
		return res.Moved
	}
	cell := pos.PosX
	for cell > 0 && !g.CanCellBeActive(row, cell) {
		cell--
	}
	if !g.CanCellBeActive(row, cell) {
		return res.Moved
	}
	g.ScrollCellIntoView(row, cell, false)
	g.setActive(selection.Position{Row: row, Cell: cell, PosX: pos.PosX})
	return true
}

// SetActiveCell activates the cell at row and cell and scrolls it into view.
func (g *Grid) SetActiveCell(row, cell int) error {
	if !g.CanCellBeActive(row, cell) {
		return ErrInvalidCell
	}
	if !g.lock.CommitCurrentEdit() {
		return ErrCommitRejected
	}
	g.ScrollCellIntoView(row, cell, false)
	g.setActive(selection.Position{Row: row, Cell: cell, PosX: cell})
	return nil
}

// ActiveCell returns the active cell.
func (g *Grid) ActiveCell() (Position, bool) {
	return g.cursor.Active()
}

// State returns the interaction state.
func (g *Grid) State() State {
	return g.cursor.State()
}

// ResetActiveCell clears the active cell, cancelling an open edit.
func (g *Grid) ResetActiveCell() {
	prev, ok := g.cursor.Active()
	if !ok {
		return
	}
	g.cancelCurrentEdit()
	g.cursor.Reset()
	g.InvalidateRow(prev.Row)
	g.Render()
}

// setActive moves the cursor, redraws the rows whose highlight changed and
// lets the selection model and auto-edit follow.
func (g *Grid) setActive(pos selection.Position) {
	prev, had := g.cursor.Active()
	if !g.cursor.Activate(pos) {
		return
	}
	rows := []int{pos.Row}
	if had && prev.Row != pos.Row {
		rows = append(rows, prev.Row)
	}
	g.InvalidateRows(rows)
	g.Render()

	if had && prev.Row == pos.Row && prev.Cell == pos.Cell {
		return
	}
	if g.selModel != nil && g.CanCellBeSelected(pos.Row, pos.Cell) {
		g.selModel.ActiveCellChanged(pos.Row)
	}
	if g.opts.AutoEdit && g.opts.Editable {
		if err := g.EditActiveCell(nil); err != nil {
			g.log.V(2).Info("auto edit skipped", "row", pos.Row, "cell", pos.Cell, "reason", err.Error())
		}
	}
}

// CellAt returns the row and cell under a point of the body and activates
// it, as a mouse click does.
func (g *Grid) CellAt(x, y int) (Position, bool) {
	row, cell, ok := g.CellAtPoint(x, y)
	if !ok {
		return Position{}, false
	}
	if err := g.SetActiveCell(row, cell); err != nil {
		return Position{}, false
	}
	return g.cursor.Active()
}
