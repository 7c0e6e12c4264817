// Package grid is the windowed, editable grid engine. A Grid draws only the
// rows and cells inside its rendered range onto a render.Surface, keeps them
// in sync with scrolling and data changes, and layers the active cell,
// keyboard navigation, row selection and in-place editing on top.
package grid

import (
	"strconv"
	"strings"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/kvgrid/internal/column"
	"github.com/oakwood-commons/kvgrid/internal/dataview"
	"github.com/oakwood-commons/kvgrid/internal/edit"
	"github.com/oakwood-commons/kvgrid/internal/event"
	"github.com/oakwood-commons/kvgrid/internal/formatter"
	"github.com/oakwood-commons/kvgrid/internal/loop"
	"github.com/oakwood-commons/kvgrid/internal/render"
	"github.com/oakwood-commons/kvgrid/internal/selection"
	"github.com/oakwood-commons/kvgrid/internal/viewport"
)

// Grid is the engine facade. It is not safe for concurrent use: every call,
// including the loop's RunDue, must happen on the host's event goroutine.
type Grid struct {
	opts Options
	log  logr.Logger

	data    DataProvider
	cols    []column.Column
	colL    []int
	colR    []int
	frozen  int
	pinnedW int
	scrollW int

	surface render.Surface
	cache   *render.Cache
	vp      *viewport.Coordinator
	loop    *loop.Loop
	lock    *edit.Lock
	ctrl    *controller

	width, height int
	lastRendered  viewport.Range
	renderedOnce  bool

	cursor   selection.Cursor
	selModel selection.Model
	unselect func()
	selected map[int]bool

	editor       column.Editor
	editItem     Item
	editorValue  any
	editorTask   loop.TaskID
	invalidCell  bool
	lastInvalid  column.ValidationResult
	renderTask   loop.TaskID
	viewportTask loop.TaskID

	sortColumn string
	sortAsc    bool

	OnScroll                  event.Event[ScrollEvent]
	OnViewportChanged         event.Event[viewport.Range]
	OnRendered                event.Event[RenderEvent]
	OnActiveCellChanged       event.Event[selection.ActiveChange]
	OnSelectedRowsChanged     event.Event[[]int]
	OnBeforeEditCell          event.Event[CellEvent]
	OnBeforeCellEditorDestroy event.Event[CellEvent]
	OnCellChange              event.Event[CellEvent]
	OnAddNewRow               event.Event[AddNewRowEvent]
	OnValidationError         event.Event[ValidationEvent]
	OnSort                    event.Event[SortEvent]
	OnColumnsChanged          event.Event[[]Column]
}

// ScrollEvent reports a scroll position change.
type ScrollEvent struct {
	ScrollTop   int
	ScrollLeft  int
	PageChanged bool
}

// RenderEvent reports a finished render pass.
type RenderEvent struct {
	Range       viewport.Range
	RowsAdded   int
	RowsRemoved int
}

// CellEvent identifies a cell and its row item.
type CellEvent struct {
	Row    int
	Cell   int
	Item   Item
	Column *Column
}

// AddNewRowEvent carries the item built from an edit of the new-row slot.
type AddNewRowEvent struct {
	Item   Item
	Column *Column
}

// ValidationEvent reports a rejected commit.
type ValidationEvent struct {
	Row, Cell int
	Column    *Column
	Result    ValidationResult
}

// SortEvent requests a sort by a column.
type SortEvent struct {
	Column    *Column
	Ascending bool
}

// New builds a grid drawing on surface. Hidden columns are dropped.
func New(surface render.Surface, data DataProvider, cols []Column, opts Options) *Grid {
	if opts.RowHeight <= 0 {
		opts.RowHeight = viewport.DefaultRowHeight
	}
	if opts.IDField == "" {
		opts.IDField = DefaultOptions().IDField
	}
	if opts.DefaultFormatter == nil {
		opts.DefaultFormatter = formatter.Default
	}
	g := &Grid{
		opts:     opts,
		log:      opts.Logger,
		data:     data,
		surface:  surface,
		loop:     opts.Loop,
		lock:     opts.Lock,
		selected: map[int]bool{},
		sortAsc:  true,
	}
	if g.loop == nil {
		g.loop = loop.New(nil)
	}
	if g.lock == nil {
		g.lock = edit.NewLock()
	}
	g.ctrl = &controller{g: g}
	g.vp = viewport.New(viewport.Config{
		RowHeight:          opts.RowHeight,
		MaxSupportedHeight: opts.MaxSupportedHeight,
		MinRowBuffer:       opts.MinRowBuffer,
	})

	cacheOpts := []render.Option{render.WithLogger(g.log.WithName("render"))}
	if opts.EnableAsyncPostRender {
		cacheOpts = append(cacheOpts, render.WithLoop(g.loop, opts.AsyncPostRenderDelay))
	}
	g.cache = render.New(&source{g: g}, surface, cacheOpts...)

	g.cursor.OnActiveCellChanged.Observe(func(ch selection.ActiveChange) {
		g.OnActiveCellChanged.Notify(ch)
	})
	g.setColumns(cols)
	if opts.SelectionModel != nil {
		g.SetSelectionModel(opts.SelectionModel)
	}
	g.vp.SetRowCount(g.RowCount())
	return g
}

// Loop returns the loop driving deferred work.
func (g *Grid) Loop() *loop.Loop { return g.loop }

// EditorLock returns the edit lock.
func (g *Grid) EditorLock() *edit.Lock { return g.lock }

// Viewport returns the scroll coordinator.
func (g *Grid) Viewport() *viewport.Coordinator { return g.vp }

// Cache returns the render cache.
func (g *Grid) Cache() *render.Cache { return g.cache }

// Data returns the row source.
func (g *Grid) Data() DataProvider { return g.data }

// Options returns the options the grid was built with.
func (g *Grid) Options() Options { return g.opts }

// Columns returns the visible columns.
func (g *Grid) Columns() []Column { return g.cols }

// SetColumns replaces the schema. An edit in progress is cancelled and every
// rendered row is rebuilt when anything that affects layout changed.
func (g *Grid) SetColumns(cols []Column) {
	next := column.Visible(cols)
	if !column.Changed(g.cols, next) {
		g.cols = next
		return
	}
	g.cancelCurrentEdit()
	g.setColumns(cols)
	if pos, ok := g.cursor.Active(); ok && pos.Cell >= len(g.cols) {
		g.cursor.Reset()
	}
	g.cache.InvalidateAll(-1)
	g.renderedOnce = false
	g.OnColumnsChanged.Notify(g.cols)
	g.Render()
}

func (g *Grid) setColumns(cols []Column) {
	g.cols = column.Visible(cols)
	g.frozen = min(g.opts.FrozenColumn, len(g.cols)-1)
	if g.frozen < 0 {
		g.frozen = -1
	}
	g.colL = make([]int, len(g.cols))
	g.colR = make([]int, len(g.cols))
	x := 0
	for i := range g.cols {
		if i == g.frozen+1 {
			g.pinnedW = x
			x = 0
		}
		w := g.cols[i].ClampWidth(g.cols[i].Width)
		g.colL[i], g.colR[i] = x, x+w
		x += w
	}
	if g.frozen == len(g.cols)-1 {
		g.pinnedW, x = x, 0
	}
	if g.frozen < 0 {
		g.pinnedW = 0
	}
	g.scrollW = x
	g.vp.SetCanvasWidth(g.scrollW)
	g.resizeViewport()
}

// PinnedWidth returns the width of the pinned pane.
func (g *Grid) PinnedWidth() int { return g.pinnedW }

// CanvasWidth returns the total width of the scrolling pane.
func (g *Grid) CanvasWidth() int { return g.scrollW }

// FrozenColumn returns the last pinned column, or -1.
func (g *Grid) FrozenColumn() int { return g.frozen }

// DataLen returns the number of data rows.
func (g *Grid) DataLen() int {
	if g.data == nil {
		return 0
	}
	return g.data.Len()
}

// RowCount returns the number of rows including the new-row slot.
func (g *Grid) RowCount() int {
	n := g.DataLen()
	if g.opts.EnableAddRow {
		n++
	}
	return n
}

// IsNewRow reports whether row is the new-row slot.
func (g *Grid) IsNewRow(row int) bool {
	return g.opts.EnableAddRow && row == g.DataLen()
}

// RowAt returns the display row at i. Loading rows report false.
func (g *Grid) RowAt(i int) (Row, bool) {
	if g.data == nil || i < 0 || i >= g.DataLen() {
		return Row{}, false
	}
	return g.data.Row(i)
}

// ItemAt returns the data item of row i.
func (g *Grid) ItemAt(i int) (Item, bool) {
	r, ok := g.RowAt(i)
	if !ok || r.Kind != dataview.RowItem {
		return nil, false
	}
	return r.Item, true
}

func (g *Grid) metadata(row int) *Metadata {
	if g.data == nil || row < 0 || row >= g.DataLen() {
		return nil
	}
	return g.data.ItemMetadata(row)
}

// Colspan implements selection.Layout.
func (g *Grid) Colspan(row, col int) int {
	meta := g.metadata(row)
	cm, ok := meta.Cell(col, g.cols[col].ID)
	if !ok || cm.Colspan == 0 {
		return 1
	}
	end := len(g.cols) - 1
	if col <= g.frozen {
		end = g.frozen
	}
	if cm.Colspan == column.ColspanRest {
		return end - col + 1
	}
	return max(1, min(int(cm.Colspan), end-col+1))
}

// ColumnCount implements selection.Layout.
func (g *Grid) ColumnCount() int { return len(g.cols) }

// CanCellBeActive implements selection.Layout.
func (g *Grid) CanCellBeActive(row, col int) bool {
	if !g.opts.EnableCellNavigation || row < 0 || col < 0 || row >= g.RowCount() || col >= len(g.cols) {
		return false
	}
	meta := g.metadata(row)
	if meta != nil && meta.Focusable != nil {
		return *meta.Focusable
	}
	if cm, ok := meta.Cell(col, g.cols[col].ID); ok && cm.Focusable != nil {
		return *cm.Focusable
	}
	return g.cols[col].Focusable
}

// CanCellBeSelected reports whether row may be selected.
func (g *Grid) CanCellBeSelected(row, col int) bool {
	if row < 0 || row >= g.DataLen() || col < 0 || col >= len(g.cols) {
		return false
	}
	if meta := g.metadata(row); meta != nil && meta.Selectable != nil {
		return *meta.Selectable
	}
	return g.cols[col].Selectable
}

// source adapts the grid to render.Source without widening its API.
type source struct{ g *Grid }

func (s *source) ColumnCount() int                { return len(s.g.cols) }
func (s *source) ColumnBounds(col int) (int, int) { return s.g.colL[col], s.g.colR[col] }
func (s *source) FrozenColumn() int               { return s.g.frozen }
func (s *source) Colspan(row, col int) int        { return s.g.Colspan(row, col) }
func (s *source) RowTop(row int) int              { return s.g.vp.RowTop(row) }
func (s *source) RowClass(row int) string         { return s.g.rowClass(row) }

func (s *source) Cell(row, col, _ int) render.CellMarkup {
	return render.CellMarkup{Text: s.g.cellText(row, col), Class: s.g.cellClass(row, col)}
}

func (s *source) HasPostRender(col int) bool {
	return col < len(s.g.cols) && s.g.cols[col].AsyncPostRender != nil
}

func (s *source) PostRender(row, col int, text string) (string, error) {
	it, ok := s.g.ItemAt(row)
	if !ok {
		return text, nil
	}
	c := &s.g.cols[col]
	return c.AsyncPostRender(text, row, it, c)
}

func (g *Grid) rowClass(row int) string {
	cls := []string{"row"}
	if row%2 == 0 {
		cls = append(cls, "even")
	} else {
		cls = append(cls, "odd")
	}
	if pos, ok := g.cursor.Active(); ok && pos.Row == row {
		cls = append(cls, "active")
	}
	if g.selected[row] {
		cls = append(cls, "selected")
	}
	switch {
	case g.IsNewRow(row):
		cls = append(cls, "new-row")
	case row < g.DataLen():
		if _, ok := g.RowAt(row); !ok {
			cls = append(cls, "loading")
		}
	}
	if meta := g.metadata(row); meta != nil && meta.CSSClasses != "" {
		cls = append(cls, meta.CSSClasses)
	}
	return strings.Join(cls, " ")
}

func (g *Grid) cellClass(row, col int) string {
	cls := []string{"cell", "c" + strconv.Itoa(col)}
	if c := g.cols[col].CSSClass; c != "" {
		cls = append(cls, c)
	}
	if col <= g.frozen {
		cls = append(cls, "pinned")
	}
	if pos, ok := g.cursor.Active(); ok && pos.Row == row && pos.Cell == col {
		if g.invalidCell {
			cls = append(cls, "invalid")
		} else {
			cls = append(cls, "active")
		}
		if g.editor != nil {
			cls = append(cls, "editing")
		}
	}
	if g.selected[row] {
		cls = append(cls, "selected")
	}
	return strings.Join(cls, " ")
}

func (g *Grid) cellText(row, col int) string {
	if pos, ok := g.cursor.Active(); ok && g.editor != nil && pos.Row == row && pos.Cell == col {
		if v, ok := g.editor.(edit.Interactive); ok {
			return v.View()
		}
	}
	if g.IsNewRow(row) {
		return ""
	}
	r, ok := g.RowAt(row)
	if !ok {
		if col == 0 {
			return "loading…"
		}
		return ""
	}
	c := &g.cols[col]
	meta := g.metadata(row)
	f := c.Formatter
	if meta != nil && meta.Formatter != nil {
		f = meta.Formatter
	}
	if cm, ok := meta.Cell(col, c.ID); ok && cm.Formatter != nil {
		f = cm.Formatter
	}
	if f == nil {
		if r.Kind != dataview.RowItem {
			return ""
		}
		f = g.opts.DefaultFormatter
	}
	var value any
	if r.Kind == dataview.RowItem {
		value = c.Value(r.Item)
	}
	return f(row, col, value, c, r.Item)
}
