// Package selection holds the active-cell state machine, the directional
// step functions used for keyboard navigation, and the row selection model.
package selection

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDirection is returned for an unknown direction name.
var ErrInvalidDirection = errors.New("invalid navigation direction")

// Direction names a navigation step.
type Direction string

// Directions.
const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
	Next  Direction = "next"
	Prev  Direction = "prev"
	Home  Direction = "home"
	End   Direction = "end"
)

// ParseDirection validates a direction name.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case Up, Down, Left, Right, Next, Prev, Home, End:
		return d, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrInvalidDirection)
}

// Layout answers the geometry questions navigation needs. Rows include the
// new-row slot when the grid has one.
type Layout interface {
	RowCount() int
	ColumnCount() int
	// Colspan returns the resolved span (at least 1) of the cell at row, col.
	Colspan(row, col int) int
	// CanCellBeActive reports whether the cell may receive focus.
	CanCellBeActive(row, col int) bool
}

// Position is a cell plus the remembered horizontal position used by
// vertical moves.
type Position struct {
	Row  int
	Cell int
	PosX int
}

// Step moves from pos in direction d. Left and right fall back to prev and
// next when no focusable cell remains in the row.
func Step(l Layout, d Direction, pos Position) (Position, bool) {
	switch d {
	case Up:
		return gotoUp(l, pos)
	case Down:
		return gotoDown(l, pos)
	case Left:
		if p, ok := gotoLeft(l, pos); ok {
			return p, true
		}
		return gotoPrev(l, pos)
	case Right:
		if p, ok := gotoRight(l, pos); ok {
			return p, true
		}
		return gotoNext(l, pos)
	case Next:
		return gotoNext(l, pos)
	case Prev:
		return gotoPrev(l, pos)
	case Home:
		return gotoRowStart(l, pos.Row)
	case End:
		return gotoRowEnd(l, pos.Row)
	}
	return pos, false
}

// First returns the first focusable cell of the grid.
func First(l Layout) (Position, bool) {
	if l.CanCellBeActive(0, 0) {
		return Position{}, true
	}
	return gotoNext(l, Position{})
}

// Last returns the last focusable cell of the grid.
func Last(l Layout) (Position, bool) {
	for row := l.RowCount() - 1; row >= 0; row-- {
		if p, ok := gotoRowEnd(l, row); ok {
			return p, true
		}
	}
	return Position{}, false
}

func span(l Layout, row, col int) int {
	return max(l.Colspan(row, col), 1)
}

// FirstFocusable returns the first focusable cell of row, or -1.
func FirstFocusable(l Layout, row int) int {
	for cell := 0; cell < l.ColumnCount(); cell += span(l, row, cell) {
		if l.CanCellBeActive(row, cell) {
			return cell
		}
	}
	return -1
}

// LastFocusable returns the last focusable cell of row, or -1.
func LastFocusable(l Layout, row int) int {
	last := -1
	for cell := 0; cell < l.ColumnCount(); cell += span(l, row, cell) {
		if l.CanCellBeActive(row, cell) {
			last = cell
		}
	}
	return last
}

// cellAt returns the start of the cell covering column x in row.
func cellAt(l Layout, row, x int) int {
	prev, cell := 0, 0
	for cell <= x && cell < l.ColumnCount() {
		prev = cell
		cell += span(l, row, cell)
	}
	return prev
}

func gotoRight(l Layout, pos Position) (Position, bool) {
	n := l.ColumnCount()
	if pos.Cell >= n {
		return pos, false
	}
	cell := pos.Cell
	for {
		cell += span(l, pos.Row, cell)
		if cell >= n || l.CanCellBeActive(pos.Row, cell) {
			break
		}
	}
	if cell < n {
		return Position{Row: pos.Row, Cell: cell, PosX: cell}, true
	}
	return pos, false
}

func gotoLeft(l Layout, pos Position) (Position, bool) {
	if pos.Cell <= 0 {
		return pos, false
	}
	first := FirstFocusable(l, pos.Row)
	if first < 0 || first >= pos.Cell {
		return pos, false
	}
	prev := Position{Row: pos.Row, Cell: first, PosX: first}
	for {
		next, ok := gotoRight(l, prev)
		if !ok {
			return pos, false
		}
		if next.Cell >= pos.Cell {
			return prev, true
		}
		prev = next
	}
}

func gotoDown(l Layout, pos Position) (Position, bool) {
	for row := pos.Row + 1; row < l.RowCount(); row++ {
		cell := cellAt(l, row, pos.PosX)
		if l.CanCellBeActive(row, cell) {
			return Position{Row: row, Cell: cell, PosX: pos.PosX}, true
		}
	}
	return pos, false
}

func gotoUp(l Layout, pos Position) (Position, bool) {
	for row := pos.Row - 1; row >= 0; row-- {
		cell := cellAt(l, row, pos.PosX)
		if l.CanCellBeActive(row, cell) {
			return Position{Row: row, Cell: cell, PosX: pos.PosX}, true
		}
	}
	return pos, false
}

func gotoNext(l Layout, pos Position) (Position, bool) {
	if p, ok := gotoRight(l, pos); ok {
		return p, true
	}
	for row := pos.Row + 1; row < l.RowCount(); row++ {
		if first := FirstFocusable(l, row); first >= 0 {
			return Position{Row: row, Cell: first, PosX: first}, true
		}
	}
	return pos, false
}

func gotoPrev(l Layout, pos Position) (Position, bool) {
	if p, ok := gotoLeft(l, pos); ok {
		return p, true
	}
	for row := pos.Row - 1; row >= 0; row-- {
		if last := LastFocusable(l, row); last >= 0 {
			return Position{Row: row, Cell: last, PosX: last}, true
		}
	}
	return pos, false
}

func gotoRowStart(l Layout, row int) (Position, bool) {
	first := FirstFocusable(l, row)
	if first < 0 {
		return Position{}, false
	}
	return Position{Row: row, Cell: first, PosX: first}, true
}

func gotoRowEnd(l Layout, row int) (Position, bool) {
	last := LastFocusable(l, row)
	if last < 0 {
		return Position{}, false
	}
	return Position{Row: row, Cell: last, PosX: last}, true
}
