// Package viewport maps scroll positions onto logical row ranges. When the
// logical height of all rows exceeds what the host surface can scroll, the
// logical space is split into pages and the physical scroll position is the
// logical one minus a per-page offset.
package viewport

import "math"

// Defaults for Config fields left at zero.
const (
	DefaultRowHeight          = 1
	DefaultMaxSupportedHeight = 1_000_000
	DefaultMinRowBuffer       = 3
	pagesPerSurface           = 100
)

// Config holds the fixed geometry.
type Config struct {
	// RowHeight is the height of every row in surface units.
	RowHeight int
	// MaxSupportedHeight is the tallest surface the host can scroll.
	MaxSupportedHeight int
	// MinRowBuffer rows are pre-rendered on the side opposite the scroll
	// direction.
	MinRowBuffer int
}

func (c Config) withDefaults() Config {
	if c.RowHeight <= 0 {
		c.RowHeight = DefaultRowHeight
	}
	if c.MaxSupportedHeight <= 0 {
		c.MaxSupportedHeight = DefaultMaxSupportedHeight
	}
	if c.MinRowBuffer <= 0 {
		c.MinRowBuffer = DefaultMinRowBuffer
	}
	return c
}

// Range is a block of rows and a horizontal pixel window. Top and Bottom are
// inclusive; the range is empty when Bottom < Top.
type Range struct {
	Top, Bottom     int
	LeftPx, RightPx int
}

// Empty reports whether the range holds no rows.
func (r Range) Empty() bool {
	return r.Bottom < r.Top
}

// Contains reports whether row lies in the range.
func (r Range) Contains(row int) bool {
	return row >= r.Top && row <= r.Bottom
}

// Scroll directions.
const (
	DirUp   = -1
	DirNone = 0
	DirDown = 1
)

// Result reports the effect of a scroll or geometry change.
type Result struct {
	// Moved is set when the physical scroll position changed.
	Moved bool
	// PageChanged is set when the page offset changed. Every cached row's
	// physical top is stale afterwards.
	PageChanged bool
}

// Coordinator tracks the scroll state of one surface.
type Coordinator struct {
	cfg Config

	rows      int
	viewportW int
	viewportH int
	canvasW   int

	th     int     // logical height
	h      int     // physical height
	ph     float64 // page height
	n      int     // page count
	cj     float64 // page jump coefficient
	page   int
	offset int

	scrollTop      int
	scrollLeft     int
	prevScrollTop  int
	prevScrollLeft int
	renderedTop    int
	renderedLeft   int
	dir            int
}

// New returns a coordinator for an empty surface.
func New(cfg Config) *Coordinator {
	c := &Coordinator{cfg: cfg.withDefaults(), n: 1}
	c.recompute()
	return c
}

// Config returns the effective configuration.
func (c *Coordinator) Config() Config {
	return c.cfg
}

func (c *Coordinator) recompute() {
	rh := c.cfg.RowHeight
	c.th = max(rh*c.rows, c.viewportH)
	if c.th < c.cfg.MaxSupportedHeight {
		c.h = c.th
		c.ph = float64(c.th)
		c.n = 1
		c.cj = 0
		return
	}
	c.h = c.cfg.MaxSupportedHeight
	c.ph = float64(c.h) / pagesPerSurface
	c.n = int(math.Floor(float64(c.th) / c.ph))
	c.cj = float64(c.th-c.h) / float64(c.n-1)
}

// Resize sets the viewport and canvas dimensions and keeps the scroll
// position in range.
func (c *Coordinator) Resize(viewportW, viewportH, canvasW int) Result {
	c.viewportW = max(viewportW, 0)
	c.viewportH = max(viewportH, 0)
	c.canvasW = max(canvasW, 0)
	c.recompute()
	c.SetScrollLeft(c.scrollLeft)
	return c.rescroll()
}

// SetCanvasWidth sets the total width of all columns.
func (c *Coordinator) SetCanvasWidth(w int) {
	c.canvasW = max(w, 0)
	c.SetScrollLeft(c.scrollLeft)
}

// SetRowCount sets the number of rows, including any new-row slot, and
// keeps the scroll position in range.
func (c *Coordinator) SetRowCount(rows int) Result {
	c.rows = max(rows, 0)
	c.recompute()
	return c.rescroll()
}

func (c *Coordinator) rescroll() Result {
	if c.th == 0 || c.scrollTop == 0 {
		old := c.offset
		c.page, c.offset = 0, 0
		return Result{PageChanged: old != 0}
	}
	if c.scrollTop+c.offset <= c.th-c.viewportH {
		return c.ScrollTo(c.scrollTop + c.offset)
	}
	return c.ScrollTo(c.th - c.viewportH)
}

// ScrollTo moves the top of the viewport to logical position y, clamped to
// [0, totalHeight-viewportHeight].
func (c *Coordinator) ScrollTo(y int) Result {
	y = max(y, 0)
	y = min(y, max(c.th-c.viewportH, 0))

	oldOffset := c.offset
	c.page = c.pageFor(y)
	c.offset = int(math.Round(float64(c.page) * c.cj))
	newTop := y - c.offset

	res := Result{PageChanged: c.offset != oldOffset}
	if c.prevScrollTop != newTop {
		if c.prevScrollTop+oldOffset < newTop+c.offset {
			c.dir = DirDown
		} else {
			c.dir = DirUp
		}
		c.scrollTop, c.prevScrollTop = newTop, newTop
		res.Moved = true
	}
	return res
}

func (c *Coordinator) pageFor(y int) int {
	if c.n <= 1 || c.ph <= 0 {
		return 0
	}
	return min(c.n-1, int(math.Floor(float64(y)/c.ph)))
}

// HandleScroll applies a physical scroll position reported by the host, for
// example a dragged scrollbar. Small moves are translated through ScrollTo;
// a jump of a viewport or more is mapped through the scrollbar ratio onto a
// page.
func (c *Coordinator) HandleScroll(physicalTop, left int) Result {
	var res Result
	if left != c.prevScrollLeft {
		c.SetScrollLeft(left)
		c.prevScrollLeft = c.scrollLeft
		res.Moved = true
	}

	dist := abs(physicalTop - c.prevScrollTop)
	if dist == 0 {
		return res
	}
	if c.prevScrollTop < physicalTop {
		c.dir = DirDown
	} else {
		c.dir = DirUp
	}

	if dist < c.viewportH {
		r := c.ScrollTo(physicalTop + c.offset)
		res.PageChanged = r.PageChanged
		res.Moved = true
		return res
	}

	c.scrollTop = min(max(physicalTop, 0), max(c.h-c.viewportH, 0))
	c.prevScrollTop = c.scrollTop
	res.Moved = true
	oldOffset := c.offset
	if c.h == c.viewportH || c.n <= 1 {
		c.page = 0
	} else {
		ratio := float64(c.th-c.viewportH) / float64(c.h-c.viewportH)
		c.page = min(c.n-1, int(math.Floor(float64(c.scrollTop)*ratio/c.ph)))
	}
	c.offset = int(math.Round(float64(c.page) * c.cj))
	res.PageChanged = c.offset != oldOffset
	return res
}

// SetScrollLeft moves the horizontal position, clamped to the canvas.
func (c *Coordinator) SetScrollLeft(x int) bool {
	x = min(x, max(c.canvasW-c.viewportW, 0))
	x = max(x, 0)
	if x == c.scrollLeft {
		return false
	}
	c.scrollLeft = x
	c.prevScrollLeft = x
	return true
}

// RowTop returns the physical top of row.
func (c *Coordinator) RowTop(row int) int {
	return c.cfg.RowHeight*row - c.offset
}

// RowAt returns the row at physical position y.
func (c *Coordinator) RowAt(y int) int {
	return int(math.Floor(float64(y+c.offset) / float64(c.cfg.RowHeight)))
}

// VisibleRange returns the rows and columns currently on screen.
func (c *Coordinator) VisibleRange() Range {
	return c.VisibleRangeAt(c.scrollTop, c.scrollLeft)
}

// VisibleRangeAt returns the visible range for a physical position.
func (c *Coordinator) VisibleRangeAt(top, left int) Range {
	bottom := c.RowAt(top + c.viewportH - 1)
	if c.viewportH == 0 {
		bottom = c.RowAt(top) - 1
	}
	return Range{
		Top:     c.RowAt(top),
		Bottom:  min(bottom, c.rows-1),
		LeftPx:  left,
		RightPx: left + c.viewportW,
	}
}

// RenderedRange pads the visible range: a viewport's worth of rows ahead in
// the scroll direction, MinRowBuffer behind, and a viewport width on both
// sides horizontally.
func (c *Coordinator) RenderedRange() Range {
	r := c.VisibleRange()
	buffer := c.NumVisibleRows()
	minBuffer := c.cfg.MinRowBuffer
	switch c.dir {
	case DirUp:
		r.Top -= buffer
		r.Bottom += minBuffer
	case DirDown:
		r.Top -= minBuffer
		r.Bottom += buffer
	default:
		r.Top -= minBuffer
		r.Bottom += minBuffer
	}
	r.Top = max(0, r.Top)
	r.Bottom = min(c.rows-1, r.Bottom)
	r.LeftPx = max(0, r.LeftPx-c.viewportW)
	r.RightPx = min(c.canvasW, r.RightPx+c.viewportW)
	return r
}

// NumVisibleRows is the number of rows one viewport shows.
func (c *Coordinator) NumVisibleRows() int {
	return int(math.Ceil(float64(c.viewportH) / float64(c.cfg.RowHeight)))
}

// ScrollRowIntoView scrolls the least distance that shows row. With paging
// the row lands at the opposite edge, as page up/down do.
func (c *Coordinator) ScrollRowIntoView(row int, doPaging bool) Result {
	rh := c.cfg.RowHeight
	atTop := row * rh
	atBottom := (row+1)*rh - c.viewportH
	switch {
	case (row+1)*rh > c.scrollTop+c.viewportH+c.offset:
		if doPaging {
			return c.ScrollTo(atTop)
		}
		return c.ScrollTo(atBottom)
	case row*rh < c.scrollTop+c.offset:
		if doPaging {
			return c.ScrollTo(atBottom)
		}
		return c.ScrollTo(atTop)
	}
	return Result{}
}

// ScrollRowToTop puts row at the top of the viewport.
func (c *Coordinator) ScrollRowToTop(row int) Result {
	return c.ScrollTo(row * c.cfg.RowHeight)
}

// ScrollPage scrolls one viewport of rows in dir (DirUp or DirDown) and
// returns the row delta applied, for moving the active cell with it.
func (c *Coordinator) ScrollPage(dir int) (int, Result) {
	delta := dir * c.NumVisibleRows()
	return delta, c.ScrollTo((c.RowAt(c.scrollTop) + delta) * c.cfg.RowHeight)
}

// MarkRendered records the position of the last full render.
func (c *Coordinator) MarkRendered() {
	c.renderedTop = c.scrollTop
	c.renderedLeft = c.scrollLeft
}

// RenderLag returns how far the viewport moved since the last render, per
// axis.
func (c *Coordinator) RenderLag() (vertical, horizontal int) {
	return abs(c.scrollTop - c.renderedTop), abs(c.scrollLeft - c.renderedLeft)
}

// ScrollTop returns the physical vertical position.
func (c *Coordinator) ScrollTop() int { return c.scrollTop }

// LogicalScrollTop returns the logical vertical position.
func (c *Coordinator) LogicalScrollTop() int { return c.scrollTop + c.offset }

// ScrollLeft returns the horizontal position.
func (c *Coordinator) ScrollLeft() int { return c.scrollLeft }

// Page returns the current page.
func (c *Coordinator) Page() int { return c.page }

// Pages returns the number of pages.
func (c *Coordinator) Pages() int { return c.n }

// Offset returns the current page offset.
func (c *Coordinator) Offset() int { return c.offset }

// TotalHeight returns the logical height.
func (c *Coordinator) TotalHeight() int { return c.th }

// SurfaceHeight returns the physical height.
func (c *Coordinator) SurfaceHeight() int { return c.h }

// Direction returns the last vertical scroll direction.
func (c *Coordinator) Direction() int { return c.dir }

// ViewportSize returns the viewport dimensions.
func (c *Coordinator) ViewportSize() (w, h int) { return c.viewportW, c.viewportH }

// Rows returns the row count.
func (c *Coordinator) Rows() int { return c.rows }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
