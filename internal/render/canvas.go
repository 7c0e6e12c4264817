package render

import (
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Mutations counts surface operations.
type Mutations struct {
	Batches       int
	RowsMounted   int
	RowsUnmounted int
	RowsHidden    int
	RowsMoved     int
	CellsAppended int
	CellsRemoved  int
	CellsUpdated  int
}

type rowNode struct {
	row    int
	pane   int
	top    int
	class  string
	hidden bool
	cells  []NodeID
}

// Canvas is an in-memory terminal Surface. Draw turns the mounted nodes into
// text lines.
type Canvas struct {
	next  NodeID
	rows  map[NodeID]*rowNode
	cells map[NodeID]CellMarkup

	Mutations Mutations
}

// NewCanvas returns an empty canvas.
func NewCanvas() *Canvas {
	return &Canvas{
		rows:  map[NodeID]*rowNode{},
		cells: map[NodeID]CellMarkup{},
	}
}

func (c *Canvas) id() NodeID {
	c.next++
	return c.next
}

// MountRows implements Surface.
func (c *Canvas) MountRows(rows []RowMarkup) [][]NodeID {
	c.Mutations.Batches++
	out := make([][]NodeID, len(rows))
	for i, m := range rows {
		nodes := make([]NodeID, len(m.Cells))
		for p, cells := range m.Cells {
			rn := &rowNode{row: m.Row, pane: p, top: m.Top, class: m.Class}
			id := c.id()
			c.rows[id] = rn
			c.appendCells(rn, cells)
			nodes[p] = id
			c.Mutations.RowsMounted++
		}
		out[i] = nodes
	}
	return out
}

func (c *Canvas) appendCells(rn *rowNode, cells []CellMarkup) []NodeID {
	ids := make([]NodeID, len(cells))
	for i, cm := range cells {
		cid := c.id()
		c.cells[cid] = cm
		rn.cells = append(rn.cells, cid)
		ids[i] = cid
	}
	return ids
}

// UnmountRow implements Surface.
func (c *Canvas) UnmountRow(row NodeID) {
	rn, ok := c.rows[row]
	if !ok {
		return
	}
	for _, cid := range rn.cells {
		delete(c.cells, cid)
	}
	delete(c.rows, row)
	c.Mutations.RowsUnmounted++
}

// HideRow implements Surface.
func (c *Canvas) HideRow(row NodeID) {
	if rn, ok := c.rows[row]; ok {
		rn.hidden = true
		c.Mutations.RowsHidden++
	}
}

// MoveRow implements Surface.
func (c *Canvas) MoveRow(row NodeID, top int) {
	if rn, ok := c.rows[row]; ok && rn.top != top {
		rn.top = top
		c.Mutations.RowsMoved++
	}
}

// AppendCells implements Surface.
func (c *Canvas) AppendCells(row NodeID, cells []CellMarkup) []NodeID {
	rn, ok := c.rows[row]
	if !ok {
		return nil
	}
	c.Mutations.CellsAppended += len(cells)
	return c.appendCells(rn, cells)
}

// Children implements Surface.
func (c *Canvas) Children(row NodeID) []NodeID {
	rn, ok := c.rows[row]
	if !ok {
		return nil
	}
	return append([]NodeID(nil), rn.cells...)
}

// RemoveCell implements Surface.
func (c *Canvas) RemoveCell(row, cell NodeID) {
	rn, ok := c.rows[row]
	if !ok {
		return
	}
	for i, cid := range rn.cells {
		if cid == cell {
			rn.cells = append(rn.cells[:i], rn.cells[i+1:]...)
			delete(c.cells, cell)
			c.Mutations.CellsRemoved++
			return
		}
	}
}

// UpdateCell implements Surface.
func (c *Canvas) UpdateCell(cell NodeID, m CellMarkup) {
	if _, ok := c.cells[cell]; ok {
		c.cells[cell] = m
		c.Mutations.CellsUpdated++
	}
}

// CellMarkup implements Surface.
func (c *Canvas) CellMarkup(cell NodeID) (CellMarkup, bool) {
	m, ok := c.cells[cell]
	return m, ok
}

// MountedRows returns the number of mounted, visible row nodes.
func (c *Canvas) MountedRows() int {
	n := 0
	for _, rn := range c.rows {
		if !rn.hidden {
			n++
		}
	}
	return n
}

// ResetMutations zeroes the counters.
func (c *Canvas) ResetMutations() {
	c.Mutations = Mutations{}
}

// DrawOptions place the canvas in a terminal window.
type DrawOptions struct {
	// ScrollTop is the physical top of the window.
	ScrollTop int
	Height    int
	Width     int
	RowHeight int
	// PinnedWidth is the width of pane 0 when the grid has pinned columns.
	// Zero means pane 0 scrolls.
	PinnedWidth int
	ScrollLeft  int
	// Style decorates the visible part of a cell. Nil leaves text as is.
	Style func(class, text string) string
	// RowStyle decorates a whole pane segment of a row.
	RowStyle func(class, text string) string
}

// Draw renders the window as Height lines. Hidden rows and rows outside the
// window are skipped.
func (c *Canvas) Draw(o DrawOptions) []string {
	if o.RowHeight <= 0 {
		o.RowHeight = 1
	}
	o.Height = max(o.Height, 0)
	blank := strings.Repeat(" ", max(o.Width, 0))
	scrollW := max(o.Width-o.PinnedWidth, 0)

	byLine := map[int][]*rowNode{}
	for _, rn := range c.rows {
		if rn.hidden {
			continue
		}
		y := rn.top - o.ScrollTop
		if y < 0 || y >= o.Height {
			continue
		}
		byLine[y] = append(byLine[y], rn)
	}

	out := make([]string, o.Height)
	for y := range out {
		rows := byLine[y]
		if len(rows) == 0 {
			out[y] = blank
			continue
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].pane < rows[j].pane })
		var b strings.Builder
		pinned, scrolled := "", strings.Repeat(" ", scrollW)
		if o.PinnedWidth > 0 {
			pinned = strings.Repeat(" ", o.PinnedWidth)
		}
		for _, rn := range rows {
			if o.PinnedWidth > 0 && rn.pane == 0 {
				pinned = c.drawPane(rn, 0, o.PinnedWidth, o)
			} else {
				scrolled = c.drawPane(rn, o.ScrollLeft, scrollW, o)
			}
		}
		b.WriteString(pinned)
		b.WriteString(scrolled)
		out[y] = b.String()
	}
	return out
}

func (c *Canvas) drawPane(rn *rowNode, offset, width int, o DrawOptions) string {
	cells := make([]CellMarkup, 0, len(rn.cells))
	for _, cid := range rn.cells {
		cells = append(cells, c.cells[cid])
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].Left < cells[j].Left })

	var b strings.Builder
	cursor := 0
	for _, cm := range cells {
		start, end := cm.Left-offset, cm.Left-offset+cm.Width
		if end <= 0 || start >= width || cm.Width <= 0 {
			continue
		}
		from, to := max(start, 0), min(end, width)
		if from < cursor {
			continue
		}
		b.WriteString(strings.Repeat(" ", from-cursor))
		part := SliceColumns(Fit(cm.Text, cm.Width), from-start, to-start)
		if o.Style != nil {
			part = o.Style(cm.Class, part)
		}
		b.WriteString(part)
		cursor = to
	}
	b.WriteString(strings.Repeat(" ", max(width-cursor, 0)))
	if o.RowStyle != nil {
		return o.RowStyle(rn.class, b.String())
	}
	return b.String()
}

// Fit pads or truncates s to exactly w terminal columns.
func Fit(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) > w {
		s = runewidth.Truncate(s, w, "…")
	}
	return runewidth.FillRight(s, w)
}

// SliceColumns returns the part of s between terminal columns from and to.
// A wide rune cut by either edge becomes spaces.
func SliceColumns(s string, from, to int) string {
	if to <= from {
		return ""
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		next := col + w
		switch {
		case next <= from:
		case col >= to:
			return padTo(&b, to-from)
		case col < from || next > to:
			b.WriteString(strings.Repeat(" ", min(next, to)-max(col, from)))
		default:
			b.WriteRune(r)
		}
		col = next
	}
	return padTo(&b, to-from)
}

func padTo(b *strings.Builder, w int) string {
	s := b.String()
	if n := runewidth.StringWidth(s); n < w {
		s += strings.Repeat(" ", w-n)
	}
	return s
}
