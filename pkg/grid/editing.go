package grid

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"

	"github.com/oakwood-commons/kvgrid/internal/column"
	"github.com/oakwood-commons/kvgrid/internal/edit"
	"github.com/oakwood-commons/kvgrid/internal/item"
)

// controller is what the grid registers with the edit lock. Other grids
// sharing the lock end this grid's edit through it.
type controller struct{ g *Grid }

func (c *controller) CommitCurrentEdit() bool { return c.g.commitCurrentEdit() }
func (c *controller) CancelCurrentEdit() bool { return c.g.cancelCurrentEdit() }

// EditActiveCell opens an editor on the active cell. A nil factory uses the
// cell metadata editor, then the column editor.
func (g *Grid) EditActiveCell(factory EditorFactory) error {
	pos, ok := g.cursor.Active()
	if !ok {
		return ErrNoActiveCell
	}
	if g.editor != nil {
		return nil
	}
	if !g.opts.Editable {
		return ErrNotEditable
	}
	col := &g.cols[pos.Cell]
	newRow := g.IsNewRow(pos.Row)
	it, isItem := g.ItemAt(pos.Row)
	switch {
	case newRow:
		if col.CannotTriggerInsert {
			return ErrNotEditable
		}
		it = item.Item{}
	case !isItem:
		return ErrNotEditable
	}
	if factory == nil {
		factory = g.editorFactory(pos.Row, pos.Cell)
	}
	if factory == nil {
		return ErrNotEditable
	}
	if !g.OnBeforeEditCell.Notify(CellEvent{Row: pos.Row, Cell: pos.Cell, Item: it, Column: col}) {
		return ErrEditCancelled
	}
	if err := g.lock.Activate(g.ctrl); err != nil {
		return err
	}
	g.cursor.BeginEdit()
	g.invalidCell = false

	ed := factory(column.EditorArgs{
		Column:        col,
		Item:          it,
		Position:      g.cellBox(pos.Row, pos.Cell),
		CommitChanges: func() { g.commitCurrentEdit() },
		CancelChanges: func() { g.cancelCurrentEdit() },
	})
	if err := ed.Init(); err != nil {
		g.cursor.EndEdit()
		_ = g.lock.Deactivate(g.ctrl)
		return fmt.Errorf("failed to initialize editor for column %q: %w", col.ID, err)
	}
	g.editor, g.editItem = ed, it
	g.log.V(1).Info("editor opened", "row", pos.Row, "cell", pos.Cell, "column", col.ID, "async", g.opts.AsyncEditorLoading)

	if g.opts.AsyncEditorLoading {
		g.editorTask = g.loop.After(g.opts.AsyncEditorLoadDelay, g.loadEditor)
		g.UpdateCell(pos.Row, pos.Cell)
		return nil
	}
	g.loadEditor()
	return nil
}

func (g *Grid) editorFactory(row, cell int) EditorFactory {
	c := &g.cols[cell]
	if cm, ok := g.metadata(row).Cell(cell, c.ID); ok && cm.Editor != nil {
		return cm.Editor
	}
	return c.Editor
}

func (g *Grid) loadEditor() {
	g.editorTask = 0
	if g.editor == nil {
		return
	}
	pos, _ := g.cursor.Active()
	g.editor.LoadValue(g.editItem)
	g.editorValue = g.editor.SerializeValue()
	g.editor.Focus()
	g.positionEditor()
	g.UpdateCell(pos.Row, pos.Cell)
}

// cellBox returns the rectangle of a cell relative to the body.
func (g *Grid) cellBox(row, cell int) column.Box {
	span := g.Colspan(row, cell)
	left, right := g.colL[cell], g.colR[min(cell+span-1, len(g.cols)-1)]
	paneLeft := 0
	if cell > g.frozen {
		paneLeft = g.pinnedW
		left += g.pinnedW - g.vp.ScrollLeft()
		right += g.pinnedW - g.vp.ScrollLeft()
	}
	top := g.vp.RowTop(row) - g.vp.ScrollTop()
	return column.Box{
		Top:     top,
		Left:    left,
		Width:   right - left,
		Height:  g.opts.RowHeight,
		Visible: top >= 0 && top < g.height && right > paneLeft && left < g.width,
	}
}

// positionEditor moves a detached editor along with its cell.
func (g *Grid) positionEditor() {
	p, ok := g.editor.(column.Positioner)
	if !ok {
		return
	}
	pos, _ := g.cursor.Active()
	box := g.cellBox(pos.Row, pos.Cell)
	p.Position(box)
	if box.Visible {
		p.Show()
	} else {
		p.Hide()
	}
}

// EditorActive reports whether an editor is open.
func (g *Grid) EditorActive() bool { return g.editor != nil }

// Editor returns the open editor, or nil.
func (g *Grid) Editor() Editor { return g.editor }

// HandleEditorMsg forwards terminal input to an interactive editor and
// redraws its cell.
func (g *Grid) HandleEditorMsg(msg tea.Msg) tea.Cmd {
	ie, ok := g.editor.(edit.Interactive)
	if !ok {
		return nil
	}
	cmd := ie.Update(msg)
	if pos, ok := g.cursor.Active(); ok {
		g.UpdateCell(pos.Row, pos.Cell)
	}
	return cmd
}

// LastValidation returns the result of the last rejected commit.
func (g *Grid) LastValidation() (ValidationResult, bool) {
	return g.lastInvalid, g.invalidCell
}

// CommitCurrentEdit commits this grid's open edit. It reports false when
// validation rejected the value and the editor stays open.
func (g *Grid) CommitCurrentEdit() bool { return g.commitCurrentEdit() }

// CancelCurrentEdit closes this grid's editor without applying anything.
func (g *Grid) CancelCurrentEdit() bool { return g.cancelCurrentEdit() }

func (g *Grid) commitCurrentEdit() bool {
	pos, ok := g.cursor.Active()
	if !ok || g.editor == nil {
		return true
	}
	if g.editorTask != 0 {
		g.loop.Cancel(g.editorTask)
		g.loadEditor()
	}
	col := &g.cols[pos.Cell]
	ed := g.editor
	if !ed.IsValueChanged() {
		g.makeActiveCellNormal()
		return true
	}

	res := ed.Validate()
	if !res.Valid {
		g.invalidCell, g.lastInvalid = true, res
		g.log.V(1).Info("edit rejected", "row", pos.Row, "cell", pos.Cell, "msg", res.Msg)
		g.UpdateCell(pos.Row, pos.Cell)
		g.OnValidationError.Notify(ValidationEvent{Row: pos.Row, Cell: pos.Cell, Column: col, Result: res})
		ed.Focus()
		return false
	}
	g.invalidCell = false

	if g.IsNewRow(pos.Row) {
		it := g.editItem
		ed.ApplyValue(it, ed.SerializeValue())
		if g.opts.GenerateIDs {
			if _, ok := it.ID(g.opts.IDField); !ok {
				it.Set(g.opts.IDField, uuid.NewString())
			}
		}
		g.makeActiveCellNormal()
		g.OnAddNewRow.Notify(AddNewRowEvent{Item: it, Column: col})
		return true
	}

	it := g.editItem
	cmd := &Command{
		Row:                 pos.Row,
		Cell:                pos.Cell,
		SerializedValue:     ed.SerializeValue(),
		PrevSerializedValue: g.editorValue,
	}
	cmd.Execute = func() {
		ed.ApplyValue(it, cmd.SerializedValue)
		g.applyEdit(cmd.Row, cmd.Cell, it)
	}
	cmd.Undo = func() {
		ed.ApplyValue(it, cmd.PrevSerializedValue)
		g.applyEdit(cmd.Row, cmd.Cell, it)
	}

	if h := g.opts.EditCommandHandler; h != nil {
		g.makeActiveCellNormal()
		h(it, col, cmd)
		return true
	}
	cmd.Execute()
	g.makeActiveCellNormal()
	return true
}

// applyEdit pushes an edited item to the data source and redraws its row.
func (g *Grid) applyEdit(row, cell int, it Item) {
	if up, ok := g.data.(ItemUpdater); ok {
		if id, ok := it.ID(g.opts.IDField); ok {
			if err := up.UpdateItem(id, it); err != nil {
				g.log.Error(err, "failed to update item", "row", row, "id", id)
			}
		}
	}
	g.InvalidateRow(row)
	g.Render()
	g.OnCellChange.Notify(CellEvent{Row: row, Cell: cell, Item: it, Column: &g.cols[cell]})
}

func (g *Grid) cancelCurrentEdit() bool {
	g.makeActiveCellNormal()
	return true
}

// makeActiveCellNormal tears the editor down and puts the cell back in
// display mode.
func (g *Grid) makeActiveCellNormal() {
	if g.editor == nil {
		return
	}
	pos, _ := g.cursor.Active()
	g.OnBeforeCellEditorDestroy.Notify(CellEvent{Row: pos.Row, Cell: pos.Cell, Item: g.editItem, Column: &g.cols[pos.Cell]})
	if g.editorTask != 0 {
		g.loop.Cancel(g.editorTask)
		g.editorTask = 0
	}
	g.editor.Destroy()
	g.editor, g.editItem, g.editorValue = nil, nil, nil
	g.invalidCell = false
	g.cursor.EndEdit()
	if err := g.lock.Deactivate(g.ctrl); err != nil {
		g.log.V(1).Info("edit lock was not held", "err", err.Error())
	}
	g.UpdateRow(pos.Row)
}
