package grid

import (
	"github.com/oakwood-commons/kvgrid/internal/render"
	"github.com/oakwood-commons/kvgrid/internal/selection"
	"github.com/oakwood-commons/kvgrid/internal/viewport"
)

// Resize sets the body size in terminal cells (header excluded).
func (g *Grid) Resize(width, height int) {
	g.width, g.height = max(width, 0), max(height, 0)
	g.resizeViewport()
	g.Render()
}

func (g *Grid) resizeViewport() {
	if g.vp == nil {
		return
	}
	res := g.vp.Resize(max(g.width-g.pinnedW, 0), g.height, g.scrollW)
	if res.PageChanged {
		g.pageChanged()
	}
}

// Size returns the body size.
func (g *Grid) Size() (width, height int) { return g.width, g.height }

func (g *Grid) editingRow() (row, cell int) {
	if pos, ok := g.cursor.Active(); ok && g.cursor.State() == selection.Editing {
		return pos.Row, pos.Cell
	}
	return -1, -1
}

// Render runs one render pass: evict rows that left the rendered range,
// reconcile cells of kept rows when the horizontal range moved, mount new
// rows in one batch and restart post-processing for the visible rows.
func (g *Grid) Render() {
	if g.renderTask != 0 {
		g.loop.Cancel(g.renderTask)
		g.renderTask = 0
	}
	if g.height == 0 || len(g.cols) == 0 {
		return
	}
	visible := g.vp.VisibleRange()
	rendered := g.vp.RenderedRange()
	keepRow, keepCell := g.editingRow()

	removed := g.cache.CleanupRows(rendered, keepRow)
	if g.renderedOnce && (rendered.LeftPx != g.lastRendered.LeftPx || rendered.RightPx != g.lastRendered.RightPx) {
		cr, ca := g.cache.RenderCells(rendered, keepRow, keepCell)
		g.log.V(2).Info("cells reconciled", "removed", cr, "added", ca, "left", rendered.LeftPx, "right", rendered.RightPx)
	}
	added := g.cache.RenderRows(rendered)
	if !visible.Empty() {
		g.cache.StartPostProcessing(visible.Top, visible.Bottom, g.vp.Direction())
	}
	g.lastRendered = rendered
	g.renderedOnce = true
	g.vp.MarkRendered()

	g.log.V(1).Info("rendered", "top", rendered.Top, "bottom", rendered.Bottom, "added", len(added), "removed", removed, "cached", g.cache.Len())
	g.OnRendered.Notify(RenderEvent{Range: rendered, RowsAdded: len(added), RowsRemoved: removed})
}

// RequestRender schedules a trailing render, replacing any pending one.
func (g *Grid) RequestRender() {
	if g.renderTask != 0 {
		g.loop.Cancel(g.renderTask)
	}
	g.renderTask = g.loop.After(g.opts.RenderDelay, func() {
		g.renderTask = 0
		g.Render()
	})
}

// RenderPending reports whether a trailing render is scheduled.
func (g *Grid) RenderPending() bool {
	return g.renderTask != 0 && g.loop.Pending(g.renderTask)
}

// Flush runs a pending trailing render now.
func (g *Grid) Flush() {
	if g.RenderPending() {
		g.Render()
	}
}

// ScrollTo moves the viewport to logical position y.
func (g *Grid) ScrollTo(y int) {
	g.afterScroll(g.vp.ScrollTo(y))
}

// ScrollRowToTop puts row at the top of the viewport.
func (g *Grid) ScrollRowToTop(row int) {
	g.afterScroll(g.vp.ScrollRowToTop(row))
}

// ScrollRowIntoView scrolls the least distance that shows row.
func (g *Grid) ScrollRowIntoView(row int, doPaging bool) {
	g.afterScroll(g.vp.ScrollRowIntoView(row, doPaging))
}

// ScrollLeft moves the horizontal position of the scrolling pane.
func (g *Grid) ScrollLeft(x int) {
	if g.vp.SetScrollLeft(x) {
		g.afterScroll(viewport.Result{Moved: true})
	}
}

// HandleScroll applies a physical scroll position reported by the host, for
// example a dragged scrollbar or a mouse wheel burst.
func (g *Grid) HandleScroll(top, left int) {
	g.afterScroll(g.vp.HandleScroll(top, left))
}

// ScrollCellIntoView scrolls vertically to row and, for unpinned cells,
// horizontally to the cell.
func (g *Grid) ScrollCellIntoView(row, cell int, doPaging bool) {
	res := g.vp.ScrollRowIntoView(row, doPaging)
	if cell > g.frozen && cell < len(g.cols) {
		span := g.Colspan(row, cell)
		left, right := g.colL[cell], g.colR[min(cell+span-1, len(g.cols)-1)]
		vw, _ := g.vp.ViewportSize()
		x := g.vp.ScrollLeft()
		switch {
		case right > x+vw:
			x = min(left, right-vw)
		case left < x:
			x = left
		}
		if g.vp.SetScrollLeft(x) {
			res.Moved = true
		}
	}
	g.afterScroll(res)
}

func (g *Grid) afterScroll(res viewport.Result) {
	if !res.Moved && !res.PageChanged {
		return
	}
	if res.PageChanged {
		g.pageChanged()
	}
	if g.editor != nil {
		g.positionEditor()
	}
	g.OnScroll.Notify(ScrollEvent{ScrollTop: g.vp.ScrollTop(), ScrollLeft: g.vp.ScrollLeft(), PageChanged: res.PageChanged})

	vLag, hLag := g.vp.RenderLag()
	vw, vh := g.vp.ViewportSize()
	if g.opts.ForceSyncScrolling || (vLag < vh && hLag < max(vw, 1)) || res.PageChanged {
		g.Render()
	} else {
		g.RequestRender()
	}
	g.scheduleViewportChanged()
}

// pageChanged evicts every cached row except the one under edit, whose
// physical top moved with the page offset.
func (g *Grid) pageChanged() {
	keepRow, _ := g.editingRow()
	g.cache.InvalidateAll(keepRow)
	g.cache.Reposition()
	g.log.V(1).Info("scroll page changed", "page", g.vp.Page(), "offset", g.vp.Offset())
}

func (g *Grid) scheduleViewportChanged() {
	if g.viewportTask != 0 {
		g.loop.Cancel(g.viewportTask)
	}
	g.viewportTask = g.loop.After(g.opts.ViewportChangedDelay, func() {
		g.viewportTask = 0
		g.OnViewportChanged.Notify(g.vp.VisibleRange())
	})
}

// VisibleRange returns the rows and columns on screen.
func (g *Grid) VisibleRange() viewport.Range { return g.vp.VisibleRange() }

// RenderedRange returns the buffered range kept rendered.
func (g *Grid) RenderedRange() viewport.Range { return g.vp.RenderedRange() }

// UpdateRowCount resizes the scroll space after the row count changed and
// drops rendered rows past the end.
func (g *Grid) UpdateRowCount() {
	n := g.RowCount()
	var gone []int
	for _, row := range g.cache.Rows() {
		if row >= n {
			gone = append(gone, row)
		}
	}
	if len(gone) > 0 {
		g.cache.InvalidateRows(gone)
	}
	if pos, ok := g.cursor.Active(); ok && pos.Row >= n {
		g.cancelCurrentEdit()
		g.cursor.Reset()
	}
	res := g.vp.SetRowCount(n)
	if res.PageChanged {
		g.pageChanged()
	}
}

// InvalidateRows drops rendered rows so the next render rebuilds them.
func (g *Grid) InvalidateRows(rows []int) {
	keepRow, _ := g.editingRow()
	drop := make([]int, 0, len(rows))
	for _, r := range rows {
		if r == keepRow {
			g.cache.UpdateRow(r)
			continue
		}
		drop = append(drop, r)
	}
	g.cache.InvalidateRows(drop)
}

// InvalidateRow drops one rendered row.
func (g *Grid) InvalidateRow(row int) {
	g.InvalidateRows([]int{row})
}

// InvalidateAll drops every rendered row except the one under edit.
func (g *Grid) InvalidateAll() {
	keepRow, _ := g.editingRow()
	g.cache.InvalidateAll(keepRow)
	if keepRow >= 0 {
		g.cache.UpdateRow(keepRow)
	}
}

// Invalidate rebuilds every rendered row and renders.
func (g *Grid) Invalidate() {
	g.UpdateRowCount()
	g.InvalidateAll()
	g.Render()
}

// UpdateCell re-renders one cell in place.
func (g *Grid) UpdateCell(row, cell int) {
	g.cache.UpdateCell(row, cell)
}

// UpdateRow re-renders the cells of row in place.
func (g *Grid) UpdateRow(row int) {
	g.cache.UpdateRow(row)
}

// DrawOptions places a Canvas surface for drawing the current frame.
func (g *Grid) DrawOptions() render.DrawOptions {
	return render.DrawOptions{
		ScrollTop:   g.vp.ScrollTop(),
		Height:      g.height,
		Width:       g.width,
		RowHeight:   g.opts.RowHeight,
		PinnedWidth: g.pinnedW,
		ScrollLeft:  g.vp.ScrollLeft(),
	}
}

// CellAtPoint maps a point of the body (x, y in cells) to a row and cell.
func (g *Grid) CellAtPoint(x, y int) (row, cell int, ok bool) {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return 0, 0, false
	}
	row = g.vp.RowAt(g.vp.ScrollTop() + y)
	if row >= g.RowCount() {
		return 0, 0, false
	}
	px, lo, hi := x, 0, g.frozen
	if x >= g.pinnedW || g.frozen < 0 {
		px, lo, hi = x-g.pinnedW+g.vp.ScrollLeft(), g.frozen+1, len(g.cols)-1
	}
	for c := lo; c <= hi; {
		span := g.Colspan(row, c)
		if px >= g.colL[c] && px < g.colR[min(c+span-1, hi)] {
			return row, c, true
		}
		c += span
	}
	return 0, 0, false
}
