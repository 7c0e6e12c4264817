package grid

import (
	"errors"

	"github.com/oakwood-commons/kvgrid/internal/dataview"
	"github.com/oakwood-commons/kvgrid/internal/selection"
)

// ErrNotSortable is returned when sorting by a column that is not sortable.
var ErrNotSortable = errors.New("column is not sortable")

// Bind keeps the grid in sync with a DataView it reads from: row count and
// row changes redraw the affected rows, sort requests reach the view, new
// rows are added to it, and the selection and active cell stay on their
// items while rows move. The returned func undoes the binding.
func (g *Grid) Bind(dv *dataview.DataView) (unbind func()) {
	var (
		selectedIDs []any
		activeID    any
		hasActive   bool
		syncing     bool
	)
	remember := func() {
		if g.selModel != nil {
			selectedIDs = dv.MapRowsToIDs(g.selModel.SelectedRows())
		}
		activeID, hasActive = nil, false
		if pos, ok := g.cursor.Active(); ok {
			if it, ok := g.ItemAt(pos.Row); ok {
				activeID, hasActive = it.ID(dv.IDField())
			}
		}
	}
	restore := func() {
		if hasActive {
			if row, ok := dv.RowByID(activeID); ok {
				g.cursor.Shift(row)
			}
		}
		if g.selModel == nil {
			return
		}
		syncing = true
		g.selModel.SetSelectedRows(dv.MapIDsToRows(selectedIDs))
		syncing = false
	}
	remember()

	unsubs := []func(){
		dv.OnRowCountChanged.Observe(func(dataview.RowCountChange) {
			g.UpdateRowCount()
		}),
		dv.OnRowsChanged.Observe(func(ch dataview.RowsChange) {
			restore()
			g.InvalidateRows(ch.Rows)
			g.Render()
		}),
		g.OnSelectedRowsChanged.Observe(func([]int) {
			if !syncing {
				remember()
			}
		}),
		g.OnActiveCellChanged.Observe(func(selection.ActiveChange) {
			remember()
		}),
		g.OnSort.Observe(func(e SortEvent) {
			if err := dv.SortBy(e.Column.Field, e.Ascending); err != nil {
				g.log.Error(err, "failed to sort", "column", e.Column.ID)
			}
		}),
		g.OnAddNewRow.Observe(func(e AddNewRowEvent) {
			if err := dv.AddItem(e.Item); err != nil {
				g.log.Error(err, "failed to add new row")
			}
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// SortByColumn requests a sort by the column at cell. Sorting the same
// column again flips the direction; a new column starts from its default.
func (g *Grid) SortByColumn(cell int) error {
	if cell < 0 || cell >= len(g.cols) {
		return ErrInvalidCell
	}
	col := &g.cols[cell]
	if !col.Sortable {
		return ErrNotSortable
	}
	if !g.lock.CommitCurrentEdit() {
		return ErrCommitRejected
	}
	asc := col.DefaultSortAsc
	if g.sortColumn == col.ID {
		asc = !g.sortAsc
	}
	g.sortColumn, g.sortAsc = col.ID, asc
	g.OnSort.Notify(SortEvent{Column: col, Ascending: asc})
	return nil
}

// SortColumn returns the column id and direction of the last sort request.
func (g *Grid) SortColumn() (string, bool) {
	return g.sortColumn, g.sortAsc
}
