// Package render keeps the row and cell nodes of the rendered range mounted
// on a Surface. Rows are created in batches, evicted when they leave the
// range, and their cells are indexed lazily.
package render

import (
	"sort"
	"time"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/kvgrid/internal/loop"
	"github.com/oakwood-commons/kvgrid/internal/viewport"
)

// Source supplies geometry and markup for rows and cells.
type Source interface {
	ColumnCount() int
	// ColumnBounds returns the left and right (exclusive) edge of col inside
	// its pane.
	ColumnBounds(col int) (left, right int)
	// FrozenColumn is the last pinned column, or -1.
	FrozenColumn() int
	// Colspan returns the resolved span of the cell at row, col (at least 1).
	Colspan(row, col int) int
	RowTop(row int) int
	RowClass(row int) string
	Cell(row, col, colspan int) CellMarkup
}

// PostRenderer is implemented by sources with cells that need a second,
// deferred pass after they were mounted.
type PostRenderer interface {
	HasPostRender(col int) bool
	PostRender(row, col int, text string) (string, error)
}

// Entry is the cache record of one rendered row.
type Entry struct {
	// RowNodes holds one node per pane.
	RowNodes []NodeID
	// CellNodesByColumnIdx holds the cells indexed so far.
	CellNodesByColumnIdx map[int]NodeID
	// CellColspans holds the span of every rendered cell.
	CellColspans map[int]int
	// CellRenderQueue lists, in mount order, cells rendered but not yet
	// indexed.
	CellRenderQueue []int
}

func newEntry() *Entry {
	return &Entry{CellNodesByColumnIdx: map[int]NodeID{}, CellColspans: map[int]int{}}
}

// Stats counts cache work.
type Stats struct {
	RowsRendered  int
	RowsRemoved   int
	CellsRendered int
	CellsRemoved  int
	PostRendered  int
	PostFailures  int
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(c *Cache) { c.log = l }
}

// WithLoop enables deferred post-processing on l with delay between rows.
func WithLoop(l *loop.Loop, delay time.Duration) Option {
	return func(c *Cache) {
		c.loop = l
		c.postDelay = delay
	}
}

// Cache maps row index to Entry for every rendered row.
type Cache struct {
	src     Source
	surface Surface
	log     logr.Logger

	entries map[int]*Entry
	stats   Stats

	gestureRow  int
	gestureHeld bool
	zombies     []NodeID

	loop          *loop.Loop
	postDelay     time.Duration
	postTask      loop.TaskID
	postFrom      int
	postTo        int
	postDir       int
	postProcessed map[int]map[int]bool
}

// New returns an empty cache drawing on surface.
func New(src Source, surface Surface, opts ...Option) *Cache {
	c := &Cache{
		src:           src,
		surface:       surface,
		log:           logr.Discard(),
		entries:       map[int]*Entry{},
		postProcessed: map[int]map[int]bool{},
		gestureRow:    -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stats returns the counters.
func (c *Cache) Stats() Stats {
	return c.stats
}

// Len returns the number of cached rows.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Rows returns the cached rows in ascending order.
func (c *Cache) Rows() []int {
	rows := make([]int, 0, len(c.entries))
	for r := range c.entries {
		rows = append(rows, r)
	}
	sort.Ints(rows)
	return rows
}

// Entry returns the record of row.
func (c *Cache) Entry(row int) (*Entry, bool) {
	e, ok := c.entries[row]
	return e, ok
}

func (c *Cache) panes() int {
	if c.src.FrozenColumn() >= 0 {
		return 2
	}
	return 1
}

func (c *Cache) pane(col int) int {
	if f := c.src.FrozenColumn(); f >= 0 && col > f {
		return 1
	}
	return 0
}

func (c *Cache) pinned(col int) bool {
	return col <= c.src.FrozenColumn()
}

// span clamps the source colspan to the end of the cell's pane.
func (c *Cache) span(row, col int) int {
	s := max(c.src.Colspan(row, col), 1)
	last := c.src.ColumnCount() - 1
	if f := c.src.FrozenColumn(); f >= 0 && col <= f {
		last = f
	}
	return min(s, last-col+1)
}

func (c *Cache) bounds(col, span int) (left, right int) {
	left, _ = c.src.ColumnBounds(col)
	_, right = c.src.ColumnBounds(col + span - 1)
	return left, right
}

func (c *Cache) inRange(col, span int, r viewport.Range) bool {
	if c.pinned(col) {
		return true
	}
	left, right := c.bounds(col, span)
	return right > r.LeftPx && left < r.RightPx
}

// pastRange reports whether col and every column after it start right of r.
func (c *Cache) pastRange(col int, r viewport.Range) bool {
	if c.pinned(col) {
		return false
	}
	left, _ := c.src.ColumnBounds(col)
	return left >= r.RightPx
}

func (c *Cache) cell(row, col, span int) CellMarkup {
	m := c.src.Cell(row, col, span)
	left, right := c.bounds(col, span)
	m.Row, m.Col, m.Colspan = row, col, span
	m.Pane = c.pane(col)
	m.Left, m.Width = left, right-left
	return m
}

// CleanupRows evicts every row outside keep except keepRow (the row under
// edit, or -1).
func (c *Cache) CleanupRows(keep viewport.Range, keepRow int) int {
	removed := 0
	for _, row := range c.Rows() {
		if row != keepRow && !keep.Contains(row) {
			c.removeRow(row)
			removed++
		}
	}
	return removed
}

func (c *Cache) removeRow(row int) {
	e, ok := c.entries[row]
	if !ok {
		return
	}
	for _, n := range e.RowNodes {
		if c.gestureHeld && row == c.gestureRow {
			c.surface.HideRow(n)
			c.zombies = append(c.zombies, n)
			continue
		}
		c.surface.UnmountRow(n)
	}
	delete(c.entries, row)
	delete(c.postProcessed, row)
	c.stats.RowsRemoved++
}

// RenderRows creates entries for rows of r that are not cached yet and
// mounts all of them in a single surface batch. It returns the new rows.
func (c *Cache) RenderRows(r viewport.Range) []int {
	var (
		rows    []int
		markups []RowMarkup
	)
	for row := r.Top; row <= r.Bottom; row++ {
		if _, ok := c.entries[row]; ok {
			continue
		}
		e := newEntry()
		c.entries[row] = e
		rows = append(rows, row)
		markups = append(markups, c.rowMarkup(row, r, e))
	}
	if len(rows) == 0 {
		return nil
	}
	nodes := c.surface.MountRows(markups)
	for i, row := range rows {
		c.entries[row].RowNodes = nodes[i]
	}
	c.stats.RowsRendered += len(rows)
	c.log.V(2).Info("rows rendered", "count", len(rows), "top", r.Top, "bottom", r.Bottom, "cached", len(c.entries))
	return rows
}

func (c *Cache) rowMarkup(row int, r viewport.Range, e *Entry) RowMarkup {
	m := RowMarkup{
		Row:   row,
		Top:   c.src.RowTop(row),
		Class: c.src.RowClass(row),
		Cells: make([][]CellMarkup, c.panes()),
	}
	n := c.src.ColumnCount()
	for col := 0; col < n; col++ {
		if c.pastRange(col, r) {
			break
		}
		span := c.span(row, col)
		if c.inRange(col, span, r) {
			cm := c.cell(row, col, span)
			m.Cells[cm.Pane] = append(m.Cells[cm.Pane], cm)
			e.CellRenderQueue = append(e.CellRenderQueue, col)
			e.CellColspans[col] = span
			c.stats.CellsRendered++
		}
		col += span - 1
	}
	return m
}

// EnsureCellNodes indexes the queued cells of row. Queued cells are the
// trailing children of their pane's row node, in queue order.
func (c *Cache) EnsureCellNodes(row int) {
	e, ok := c.entries[row]
	if !ok || len(e.CellRenderQueue) == 0 {
		return
	}
	kids := make([][]NodeID, len(e.RowNodes))
	next := make([]int, len(e.RowNodes))
	for p, n := range e.RowNodes {
		kids[p] = c.surface.Children(n)
		next[p] = len(kids[p]) - 1
	}
	for i := len(e.CellRenderQueue) - 1; i >= 0; i-- {
		col := e.CellRenderQueue[i]
		p := c.pane(col)
		if p >= len(kids) || next[p] < 0 {
			continue
		}
		e.CellNodesByColumnIdx[col] = kids[p][next[p]]
		next[p]--
	}
	e.CellRenderQueue = e.CellRenderQueue[:0]
}

// CellNode returns the node of a rendered cell, indexing the row first.
func (c *Cache) CellNode(row, col int) (NodeID, bool) {
	c.EnsureCellNodes(row)
	e, ok := c.entries[row]
	if !ok {
		return 0, false
	}
	n, ok := e.CellNodesByColumnIdx[col]
	return n, ok
}

// CleanupCells removes the cells of row that left the horizontal range.
// Pinned cells and the cell at keepCol of keepRow stay.
func (c *Cache) CleanupCells(r viewport.Range, row, keepRow, keepCol int) int {
	e, ok := c.entries[row]
	if !ok {
		return 0
	}
	var drop []int
	for col := range e.CellNodesByColumnIdx {
		if c.pinned(col) || (row == keepRow && col == keepCol) {
			continue
		}
		left, right := c.bounds(col, e.CellColspans[col])
		if left >= r.RightPx || right <= r.LeftPx {
			drop = append(drop, col)
		}
	}
	for _, col := range drop {
		c.surface.RemoveCell(e.RowNodes[c.pane(col)], e.CellNodesByColumnIdx[col])
		delete(e.CellNodesByColumnIdx, col)
		delete(e.CellColspans, col)
		if done := c.postProcessed[row]; done != nil {
			delete(done, col)
		}
	}
	c.stats.CellsRemoved += len(drop)
	return len(drop)
}

// RenderCells reconciles the cells of already rendered rows with a new
// horizontal range: cells that left are removed, cells that entered are
// added. Rows are not re-rendered.
func (c *Cache) RenderCells(r viewport.Range, keepRow, keepCol int) (removed, added int) {
	n := c.src.ColumnCount()
	for row := r.Top; row <= r.Bottom; row++ {
		e, ok := c.entries[row]
		if !ok {
			continue
		}
		c.EnsureCellNodes(row)
		removed += c.CleanupCells(r, row, keepRow, keepCol)

		perPane := make([][]CellMarkup, len(e.RowNodes))
		for col := 0; col < n; col++ {
			if c.pastRange(col, r) {
				break
			}
			if span, ok := e.CellColspans[col]; ok {
				col += span - 1
				continue
			}
			span := c.span(row, col)
			if c.inRange(col, span, r) {
				cm := c.cell(row, col, span)
				perPane[cm.Pane] = append(perPane[cm.Pane], cm)
				e.CellColspans[col] = span
			}
			col += span - 1
		}
		for p, cells := range perPane {
			if len(cells) == 0 {
				continue
			}
			nodes := c.surface.AppendCells(e.RowNodes[p], cells)
			for i, cm := range cells {
				if i < len(nodes) {
					e.CellNodesByColumnIdx[cm.Col] = nodes[i]
				}
			}
			added += len(cells)
		}
	}
	c.stats.CellsRendered += added
	return removed, added
}

// UpdateCell re-renders one materialized cell in place.
func (c *Cache) UpdateCell(row, col int) bool {
	node, ok := c.CellNode(row, col)
	if !ok {
		return false
	}
	e := c.entries[row]
	c.surface.UpdateCell(node, c.cell(row, col, e.CellColspans[col]))
	delete(c.postProcessed, row)
	return true
}

// UpdateRow re-renders every materialized cell of row.
func (c *Cache) UpdateRow(row int) bool {
	c.EnsureCellNodes(row)
	e, ok := c.entries[row]
	if !ok {
		return false
	}
	for col, node := range e.CellNodesByColumnIdx {
		c.surface.UpdateCell(node, c.cell(row, col, e.CellColspans[col]))
	}
	delete(c.postProcessed, row)
	return true
}

// InvalidateRow evicts row.
func (c *Cache) InvalidateRow(row int) {
	c.InvalidateRows([]int{row})
}

// InvalidateRows evicts rows and stops any post-processing pass.
func (c *Cache) InvalidateRows(rows []int) {
	c.StopPostProcessing()
	for _, row := range rows {
		c.removeRow(row)
	}
}

// InvalidateAll evicts every row except keepRow (or -1) and stops any
// post-processing pass.
func (c *Cache) InvalidateAll(keepRow int) {
	c.StopPostProcessing()
	for _, row := range c.Rows() {
		if row != keepRow {
			c.removeRow(row)
		}
	}
}

// Reposition moves every cached row node to the current RowTop.
func (c *Cache) Reposition() {
	for row, e := range c.entries {
		top := c.src.RowTop(row)
		for _, n := range e.RowNodes {
			c.surface.MoveRow(n, top)
		}
	}
}

// HoldGestureRow marks row as the origin of an in-progress scroll gesture.
// Evicting it hides its nodes instead of unmounting them until the gesture
// is released or moves to another row.
func (c *Cache) HoldGestureRow(row int) {
	if c.gestureHeld && c.gestureRow != row {
		c.dropZombies()
	}
	c.gestureRow = row
	c.gestureHeld = true
}

// ReleaseGestureRow ends the gesture and unmounts hidden nodes.
func (c *Cache) ReleaseGestureRow() {
	c.gestureHeld = false
	c.gestureRow = -1
	c.dropZombies()
}

func (c *Cache) dropZombies() {
	for _, n := range c.zombies {
		c.surface.UnmountRow(n)
	}
	c.zombies = nil
}
