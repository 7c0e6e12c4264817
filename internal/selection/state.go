package selection

import (
	"errors"
	"slices"

	"github.com/oakwood-commons/kvgrid/internal/event"
)

// ErrNoSelectionModel is returned by selection calls on a grid without a
// selection model.
var ErrNoSelectionModel = errors.New("selection model is not set")

// State is the interaction state of the grid.
type State int

// States.
const (
	NoActiveCell State = iota
	ActiveCell
	Editing
)

func (s State) String() string {
	switch s {
	case ActiveCell:
		return "active"
	case Editing:
		return "editing"
	}
	return "none"
}

// ActiveChange is published when the active cell moves.
type ActiveChange struct {
	Previous, Current Position
	// Had and Has report whether a cell was active before and after.
	Had, Has bool
}

// Cursor tracks the active cell and whether it is being edited.
type Cursor struct {
	state State
	pos   Position

	OnActiveCellChanged event.Event[ActiveChange]
}

// State returns the current state.
func (c *Cursor) State() State {
	return c.state
}

// Active returns the active cell.
func (c *Cursor) Active() (Position, bool) {
	return c.pos, c.state != NoActiveCell
}

// Activate makes pos the active cell. An edit in progress must be ended
// first; Activate refuses to move while editing.
func (c *Cursor) Activate(pos Position) bool {
	if c.state == Editing {
		return false
	}
	prev, had := c.Active()
	c.pos = pos
	c.state = ActiveCell
	if !had || prev != pos {
		c.OnActiveCellChanged.Notify(ActiveChange{Previous: prev, Current: pos, Had: had, Has: true})
	}
	return true
}

// Reset clears the active cell.
func (c *Cursor) Reset() {
	prev, had := c.Active()
	c.state = NoActiveCell
	c.pos = Position{}
	if had {
		c.OnActiveCellChanged.Notify(ActiveChange{Previous: prev, Had: true})
	}
}

// BeginEdit moves ActiveCell to Editing.
func (c *Cursor) BeginEdit() bool {
	if c.state != ActiveCell {
		return false
	}
	c.state = Editing
	return true
}

// EndEdit moves Editing back to ActiveCell.
func (c *Cursor) EndEdit() bool {
	if c.state != Editing {
		return false
	}
	c.state = ActiveCell
	return true
}

// Shift sets the active row without publishing a change, for keeping the
// cursor on its item after rows moved around it.
func (c *Cursor) Shift(row int) {
	if c.state != NoActiveCell {
		c.pos.Row = row
	}
}

// Model keeps selected rows.
type Model interface {
	SelectedRows() []int
	SetSelectedRows(rows []int)
	// ActiveCellChanged lets the model follow the active cell.
	ActiveCellChanged(row int)
	// OnChange registers fn for selection changes.
	OnChange(fn func(rows []int)) (unsubscribe func())
}

// RowSelectionModel selects whole rows.
type RowSelectionModel struct {
	// SelectActiveRow selects the active row when the active cell moves.
	SelectActiveRow bool
	// Selectable filters rows; nil accepts every row.
	Selectable func(row int) bool

	rows []int

	OnSelectedRowsChanged event.Event[[]int]
}

// NewRowSelectionModel returns a model following the active row.
func NewRowSelectionModel() *RowSelectionModel {
	return &RowSelectionModel{SelectActiveRow: true}
}

// SelectedRows returns the selected rows in ascending order.
func (m *RowSelectionModel) SelectedRows() []int {
	return slices.Clone(m.rows)
}

// SetSelectedRows replaces the selection. Duplicates and rows rejected by
// Selectable are dropped.
func (m *RowSelectionModel) SetSelectedRows(rows []int) {
	next := make([]int, 0, len(rows))
	for _, r := range rows {
		if r < 0 || (m.Selectable != nil && !m.Selectable(r)) {
			continue
		}
		next = append(next, r)
	}
	slices.Sort(next)
	next = slices.Compact(next)
	if slices.Equal(next, m.rows) {
		return
	}
	m.rows = next
	m.OnSelectedRowsChanged.Notify(m.SelectedRows())
}

// ToggleRow adds or removes row.
func (m *RowSelectionModel) ToggleRow(row int) {
	if i, ok := slices.BinarySearch(m.rows, row); ok {
		next := slices.Delete(slices.Clone(m.rows), i, i+1)
		m.SetSelectedRows(next)
		return
	}
	m.SetSelectedRows(append(m.SelectedRows(), row))
}

// OnChange implements Model.
func (m *RowSelectionModel) OnChange(fn func(rows []int)) func() {
	return m.OnSelectedRowsChanged.Observe(fn)
}

// ActiveCellChanged implements Model.
func (m *RowSelectionModel) ActiveCellChanged(row int) {
	if m.SelectActiveRow {
		m.SetSelectedRows([]int{row})
	}
}
