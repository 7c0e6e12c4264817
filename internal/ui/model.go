package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/kvgrid/internal/completion"
	"github.com/oakwood-commons/kvgrid/internal/config"
	"github.com/oakwood-commons/kvgrid/internal/dataview"
	"github.com/oakwood-commons/kvgrid/internal/edit"
	"github.com/oakwood-commons/kvgrid/internal/filter"
	"github.com/oakwood-commons/kvgrid/internal/loop"
	"github.com/oakwood-commons/kvgrid/internal/render"
	"github.com/oakwood-commons/kvgrid/internal/selection"
	"github.com/oakwood-commons/kvgrid/pkg/grid"
	"github.com/oakwood-commons/kvgrid/pkg/loader"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	wheelStep     = 3
)

// Params configures New.
type Params struct {
	Dataset *loader.Dataset
	Config  config.Config
	Logger  logr.Logger
	// Width and Height of the whole frame; zero uses 80x24 until the first
	// WindowSizeMsg.
	Width   int
	Height  int
	NoColor bool
	// Now is the clock of the deferred-work loop. Nil uses the wall clock.
	Now func() time.Time
}

// tickMsg wakes the model to run due loop tasks.
type tickMsg time.Time

// Model is the bubbletea host of a grid bound to a DataView.
type Model struct {
	cfg     config.Config
	log     logr.Logger
	grid    *grid.Grid
	view    *dataview.DataView
	canvas  *render.Canvas
	comp    *filter.Compiler
	history *edit.History
	rowSel  *selection.RowSelectionModel
	unbind  func()

	keys    map[string]Action
	theme   Theme
	status  StatusModel
	prompt  textinput.Model
	filter  string
	noColor bool

	complete *completion.Engine
	hints    []completion.Completion

	prompting bool
	ticking   bool
	quitting  bool
	tick      time.Duration

	width, height int
}

// New builds the grid, its DataView and columns from a dataset and applies
// the view section of the configuration.
func New(p Params) (*Model, error) {
	if p.Dataset == nil {
		return nil, errors.New("no dataset")
	}
	cfg := p.Config
	log := p.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	keys, err := KeyBindings(cfg.UI.Keys)
	if err != nil {
		return nil, err
	}
	comp, err := filter.NewCompiler()
	if err != nil {
		return nil, fmt.Errorf("failed to create filter compiler: %w", err)
	}
	cols, err := cfg.BuildColumns(p.Dataset.Fields, p.Dataset.Items, comp)
	if err != nil {
		return nil, fmt.Errorf("invalid columns: %w", err)
	}

	dv := dataview.New(
		dataview.WithLogger(log.WithName("dataview")),
		dataview.WithIDField(cfg.Data.IDField),
		dataview.WithGroupingDelimiter(cfg.Data.GroupingDelimiter),
	)
	m := &Model{
		cfg:     cfg,
		log:     log,
		view:    dv,
		canvas:  render.NewCanvas(),
		comp:    comp,
		history: edit.NewHistory(cfg.Grid.UndoLimit),
		rowSel:  selection.NewRowSelectionModel(),
		keys:    keys,
		theme:   DefaultTheme(),
		status:  NewStatusModel(),
		noColor: p.NoColor,
		tick:    time.Duration(max(cfg.UI.TickMS, 1)) * time.Millisecond,
		width:   p.Width,
		height:  p.Height,
	}
	if tc, ok := cfg.Theme(); ok {
		m.theme = ThemeFromConfig(tc)
	}
	if m.width <= 0 {
		m.width = defaultWidth
	}
	if m.height <= 0 {
		m.height = defaultHeight
	}
	m.status.Theme = m.theme
	m.status.NoColor = p.NoColor

	opts := cfg.Options(grid.DefaultOptions())
	opts.Logger = log.WithName("grid")
	opts.Loop = loop.New(p.Now)
	opts.EditCommandHandler = m.history.Handle
	opts.SelectionModel = m.rowSel
	m.grid = grid.New(m.canvas, dv, cols, opts)
	m.unbind = m.grid.Bind(dv)

	if err := dv.SetItems(p.Dataset.Items, cfg.Data.IDField); err != nil {
		return nil, err
	}
	if err := cfg.ApplyView(dv, comp); err != nil {
		return nil, fmt.Errorf("invalid view: %w", err)
	}
	m.filter = cfg.View.Filter

	m.prompt = textinput.New()
	m.prompt.Prompt = "filter> "
	m.prompt.Placeholder = "CEL expression over item, e.g. item.price > 10"
	m.prompt.CharLimit = 500
	m.complete = completion.ForCompiler(comp, p.Dataset.Fields)

	m.resize()
	log.V(1).Info("grid ready", "rows", dv.Len(), "columns", len(cols), "width", m.width, "height", m.height)
	return m, nil
}

// Grid returns the engine.
func (m *Model) Grid() *grid.Grid { return m.grid }

// DataView returns the view the grid is bound to.
func (m *Model) DataView() *dataview.DataView { return m.view }

// Status returns the current status bar.
func (m *Model) Status() StatusModel { return m.status }

// Close unbinds the grid from its view.
func (m *Model) Close() {
	if m.unbind != nil {
		m.unbind()
		m.unbind = nil
	}
}

func (m *Model) bodyHeight() int {
	h := m.height - 1
	if m.cfg.UI.ShowStatus {
		h--
	}
	return max(h, 0)
}

func (m *Model) resize() {
	m.grid.Resize(m.width, m.bodyHeight())
	m.status.Width = m.width
	m.prompt.SetWidth(max(m.width-len(m.prompt.Prompt)-1, 1))
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.scheduleTick()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
	case tea.KeyPressMsg:
		cmd = m.handleKey(msg)
	case tea.MouseClickMsg:
		m.handleClick(msg.Mouse())
	case tea.MouseWheelMsg:
		m.handleWheel(msg.Mouse())
	case tickMsg:
		m.ticking = false
		if n := m.grid.Loop().RunDue(); n > 0 {
			m.log.V(2).Info("ran deferred tasks", "count", n)
		}
	default:
		switch {
		case m.prompting:
			m.prompt, cmd = m.prompt.Update(msg)
		case m.grid.EditorActive():
			cmd = m.grid.HandleEditorMsg(msg)
		}
	}
	if m.quitting {
		return m, tea.Quit
	}
	m.refreshStatus()
	return m, tea.Batch(cmd, m.scheduleTick())
}

// scheduleTick wakes the model when the next loop task is due. Nothing is
// scheduled while the loop is idle.
func (m *Model) scheduleTick() tea.Cmd {
	lp := m.grid.Loop()
	if m.ticking || lp.Len() == 0 {
		return nil
	}
	due, ok := lp.NextDue()
	if !ok {
		return nil
	}
	m.ticking = true
	d := max(due.Sub(lp.Now()), m.tick)
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) setMessage(msg string, isErr bool) {
	m.status.Message, m.status.IsError = msg, isErr
}

func (m *Model) setError(err error) {
	if err != nil {
		m.setMessage(err.Error(), true)
	}
}

// rejected reports the validation message of the open edit, if the last
// commit failed.
func (m *Model) rejected() bool {
	res, invalid := m.grid.LastValidation()
	if !invalid || !m.grid.EditorActive() {
		return false
	}
	msg := res.Msg
	if msg == "" {
		msg = "invalid value"
	}
	m.setMessage(msg, true)
	return true
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	key := msg.String()
	if key == "ctrl+c" {
		m.quitting = true
		return nil
	}
	if m.prompting {
		return m.handlePromptKey(msg)
	}
	if m.grid.EditorActive() {
		return m.handleEditorKey(msg)
	}
	m.setMessage("", false)
	m.perform(m.keys[key])
	return nil
}

func (m *Model) handleEditorKey(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		if !m.grid.CommitCurrentEdit() {
			m.rejected()
			return nil
		}
		m.setMessage("", false)
	case "esc":
		m.grid.CancelCurrentEdit()
		m.setMessage("edit cancelled", false)
	case "tab":
		m.navigate(selection.Next)
	case "shift+tab":
		m.navigate(selection.Prev)
	case "up":
		m.navigate(selection.Up)
	case "down":
		m.navigate(selection.Down)
	default:
		return m.grid.HandleEditorMsg(msg)
	}
	return nil
}

func (m *Model) handlePromptKey(msg tea.KeyPressMsg) tea.Cmd {
	m.hints = nil
	switch msg.String() {
	case "tab":
		m.completePrompt()
		return nil
	case "enter":
		m.prompting = false
		m.prompt.Blur()
		m.applyFilter(strings.TrimSpace(m.prompt.Value()))
		return nil
	case "esc":
		m.prompting = false
		m.prompt.Blur()
		return nil
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return cmd
}

// completePrompt completes the token before the end of the prompt. A single
// match is inserted; several extend the token to their common prefix and
// are listed after the prompt.
func (m *Model) completePrompt() {
	value := m.prompt.Value()
	cs := m.complete.Complete(value)
	switch len(cs) {
	case 0:
		return
	case 1:
		m.prompt.SetValue(completion.Apply(value, cs[0]))
	default:
		if p := completion.CommonPrefix(cs); len(p) > len(completion.Token(value)) {
			m.prompt.SetValue(completion.Apply(value, completion.Completion{Text: p}))
		}
		m.hints = cs
	}
	m.prompt.CursorEnd()
}

// promptLine is the prompt followed by completion hints cut to the width.
func (m *Model) promptLine() string {
	line := m.prompt.View()
	if len(m.hints) == 0 {
		return line
	}
	labels := make([]string, len(m.hints))
	for i, c := range m.hints {
		labels[i] = c.Label
	}
	room := m.width - lipgloss.Width(line) - 1
	if room <= 0 {
		return line
	}
	return line + " " + strings.TrimRight(render.Fit(strings.Join(labels, " "), room), " ")
}

// ApplyFilter installs a CEL filter over item; an empty expression clears
// it.
func (m *Model) ApplyFilter(expr string) error {
	if expr == "" {
		if err := m.view.SetFilter(nil); err != nil {
			return err
		}
		m.filter = ""
		return nil
	}
	pred, err := m.comp.Compile(expr)
	if err != nil {
		return err
	}
	if err := m.view.SetFilter(dataview.FilterFunc(pred)); err != nil {
		return err
	}
	m.filter = expr
	return nil
}

func (m *Model) applyFilter(expr string) {
	if err := m.ApplyFilter(expr); err != nil {
		m.setMessage("filter: "+err.Error(), true)
		return
	}
	if expr == "" {
		m.setMessage("filter cleared", false)
		return
	}
	m.setMessage(fmt.Sprintf("%d rows match", m.view.Len()), false)
}

func (m *Model) navigate(d selection.Direction) {
	if m.grid.NavigateDir(d) {
		return
	}
	if m.rejected() {
		return
	}
	if _, ok := m.grid.ActiveCell(); !ok {
		m.grid.NavigateDir(selection.Next)
	}
}

func (m *Model) activeGroup() (*dataview.Group, bool) {
	pos, ok := m.grid.ActiveCell()
	if !ok {
		return nil, false
	}
	row, ok := m.grid.RowAt(pos.Row)
	if !ok || row.Kind != dataview.RowGroup || row.Group == nil {
		return nil, false
	}
	return row.Group, true
}

// jumpTo activates row keeping the current column when it can be active
// there.
func (m *Model) jumpTo(row int) {
	if row < 0 || row >= m.grid.RowCount() {
		return
	}
	cell := selection.FirstFocusable(m.grid, row)
	if pos, ok := m.grid.ActiveCell(); ok && m.grid.CanCellBeActive(row, pos.Cell) {
		cell = pos.Cell
	}
	if cell < 0 {
		return
	}
	if err := m.grid.SetActiveCell(row, cell); errors.Is(err, grid.ErrCommitRejected) {
		m.rejected()
	}
}

// perform runs an action outside of editing.
func (m *Model) perform(a Action) {
	g := m.grid
	switch a {
	case ActionUp:
		m.navigate(selection.Up)
	case ActionDown:
		m.navigate(selection.Down)
	case ActionLeft:
		m.navigate(selection.Left)
	case ActionRight:
		m.navigate(selection.Right)
	case ActionNext:
		m.navigate(selection.Next)
	case ActionPrev:
		m.navigate(selection.Prev)
	case ActionHome:
		m.navigate(selection.Home)
	case ActionEnd:
		m.navigate(selection.End)
	case ActionPageUp:
		g.NavigatePage(-1)
	case ActionPageDown:
		g.NavigatePage(1)
	case ActionTop:
		m.jumpTo(0)
	case ActionBottom:
		m.jumpTo(g.RowCount() - 1)
	case ActionEdit:
		if grp, ok := m.activeGroup(); ok {
			m.setError(m.view.ToggleGroup(grp.Level, grp.Key))
			return
		}
		if err := g.EditActiveCell(nil); err != nil {
			m.setError(err)
		}
	case ActionCancel:
		m.setMessage("", false)
	case ActionToggleGroup:
		if grp, ok := m.activeGroup(); ok {
			m.setError(m.view.ToggleGroup(grp.Level, grp.Key))
			return
		}
		m.toggleSelection()
	case ActionCollapseAll:
		if len(m.view.Grouping()) > 0 {
			m.setError(m.view.CollapseAllGroups(-1))
		}
	case ActionExpandAll:
		if len(m.view.Grouping()) > 0 {
			m.setError(m.view.ExpandAllGroups(-1))
		}
	case ActionSort:
		pos, ok := g.ActiveCell()
		if !ok {
			m.setError(grid.ErrNoActiveCell)
			return
		}
		m.setError(g.SortByColumn(pos.Cell))
	case ActionFilter:
		m.prompting = true
		m.prompt.SetValue(m.filter)
		m.prompt.CursorEnd()
		m.prompt.Focus()
	case ActionSelect:
		m.toggleSelection()
	case ActionUndo:
		if _, ok := m.history.Undo(); !ok {
			m.setMessage("nothing to undo", false)
			return
		}
		m.setMessage("undone", false)
	case ActionQuit:
		m.quitting = true
	}
}

func (m *Model) toggleSelection() {
	pos, ok := m.grid.ActiveCell()
	if !ok || !m.grid.CanCellBeSelected(pos.Row, pos.Cell) {
		return
	}
	m.rowSel.ToggleRow(pos.Row)
}

func (m *Model) handleClick(ms tea.Mouse) {
	if ms.Button != tea.MouseLeft || m.prompting {
		return
	}
	if ms.Y == 0 {
		if cell, ok := m.headerCell(ms.X); ok {
			m.setError(m.grid.SortByColumn(cell))
		}
		return
	}
	if _, ok := m.grid.CellAt(ms.X, ms.Y-1); !ok {
		m.rejected()
	}
}

func (m *Model) handleWheel(ms tea.Mouse) {
	top := m.grid.Viewport().LogicalScrollTop()
	switch ms.Button {
	case tea.MouseWheelUp:
		m.grid.ScrollTo(top - wheelStep*m.grid.Options().RowHeight)
	case tea.MouseWheelDown:
		m.grid.ScrollTo(top + wheelStep*m.grid.Options().RowHeight)
	}
}

// headerCell maps a header column x to a column index.
func (m *Model) headerCell(x int) (int, bool) {
	cols := m.grid.Columns()
	frozen, pinnedW := m.grid.FrozenColumn(), m.grid.PinnedWidth()
	lo, px := 0, x
	if frozen < 0 || x >= pinnedW {
		lo, px = frozen+1, x-pinnedW+m.grid.Viewport().ScrollLeft()
	}
	left := 0
	for i := lo; i < len(cols); i++ {
		if frozen >= 0 && lo == 0 && i > frozen {
			break
		}
		w := cols[i].ClampWidth(cols[i].Width)
		if px >= left && px < left+w {
			return i, true
		}
		left += w
	}
	return 0, false
}

func (m *Model) refreshStatus() {
	s := &m.status
	s.Row, s.Column = 0, ""
	if pos, ok := m.grid.ActiveCell(); ok {
		s.Row = pos.Row + 1
		if cols := m.grid.Columns(); pos.Cell < len(cols) {
			s.Column = cols[pos.Cell].Name
		}
	}
	s.Rows = m.grid.RowCount()
	s.Sort, s.SortAsc = m.view.SortField()
	s.Filter = m.filter
	pi := m.view.PagingInfo()
	s.Page, s.Pages = pi.PageNum, pi.TotalPages
	s.Selected = len(m.rowSel.SelectedRows())
	s.Editing = m.grid.EditorActive()
}

// View implements tea.Model.
func (m *Model) View() tea.View {
	v := tea.NewView(m.Frame())
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	return v
}

// Frame renders the header, the grid body and the status or prompt line.
func (m *Model) Frame() string {
	m.refreshStatus()
	lines := make([]string, 0, m.height)
	lines = append(lines, m.header())

	opts := m.grid.DrawOptions()
	if !m.noColor {
		opts.Style = m.theme.CellStyle
		opts.RowStyle = m.theme.RowStyle
	}
	lines = append(lines, m.canvas.Draw(opts)...)

	switch {
	case m.prompting:
		lines = append(lines, m.promptLine())
	case m.cfg.UI.ShowStatus:
		lines = append(lines, m.status.View())
	}
	return strings.Join(lines, "\n")
}

func (m *Model) header() string {
	cols := m.grid.Columns()
	frozen, pinnedW := m.grid.FrozenColumn(), m.grid.PinnedWidth()
	sortField, asc := m.view.SortField()

	var pinned, scrolled strings.Builder
	for i := range cols {
		c := &cols[i]
		title := c.Name
		if sortField != "" && c.Field == sortField {
			if asc {
				title += " ▲"
			} else {
				title += " ▼"
			}
		}
		cell := render.Fit(" "+title, c.ClampWidth(c.Width))
		if i <= frozen {
			pinned.WriteString(cell)
		} else {
			scrolled.WriteString(cell)
		}
	}
	left := m.grid.Viewport().ScrollLeft()
	line := render.Fit(pinned.String(), pinnedW) +
		render.SliceColumns(scrolled.String(), left, left+max(m.width-pinnedW, 0))
	line = render.Fit(line, m.width)
	if m.noColor {
		return line
	}
	return m.theme.HeaderStyle().Render(line)
}
