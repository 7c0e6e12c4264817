package grid

import (
	"slices"

	"github.com/oakwood-commons/kvgrid/internal/selection"
)

// SetSelectionModel replaces the selection model. Nil clears the selection.
func (g *Grid) SetSelectionModel(m selection.Model) {
	if g.unselect != nil {
		g.unselect()
		g.unselect = nil
	}
	g.selModel = m
	if m == nil {
		g.applySelection(nil)
		return
	}
	g.unselect = m.OnChange(g.applySelection)
	g.applySelection(m.SelectedRows())
}

// SelectionModel returns the selection model, or nil.
func (g *Grid) SelectionModel() selection.Model { return g.selModel }

// SelectedRows returns the selected rows.
func (g *Grid) SelectedRows() ([]int, error) {
	if g.selModel == nil {
		return nil, ErrNoSelectionModel
	}
	return g.selModel.SelectedRows(), nil
}

// SetSelectedRows replaces the selection through the model.
func (g *Grid) SetSelectedRows(rows []int) error {
	if g.selModel == nil {
		return ErrNoSelectionModel
	}
	g.selModel.SetSelectedRows(rows)
	return nil
}

// IsSelected reports whether row is drawn as selected.
func (g *Grid) IsSelected(row int) bool { return g.selected[row] }

func (g *Grid) applySelection(rows []int) {
	next := make(map[int]bool, len(rows))
	var changed []int
	for _, r := range rows {
		next[r] = true
		if !g.selected[r] {
			changed = append(changed, r)
		}
	}
	for r := range g.selected {
		if !next[r] {
			changed = append(changed, r)
		}
	}
	g.selected = next
	if len(changed) == 0 {
		return
	}
	g.InvalidateRows(changed)
	g.Render()
	g.OnSelectedRowsChanged.Notify(slices.Clone(rows))
}
