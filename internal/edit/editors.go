package edit

import (
	"fmt"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/oakwood-commons/kvgrid/internal/column"
	"github.com/oakwood-commons/kvgrid/internal/item"
)

// Interactive is implemented by editors that take terminal input.
type Interactive interface {
	Update(msg tea.Msg) tea.Cmd
	View() string
}

func display(v any) string {
	if v == nil {
		return ""
	}
	return item.Key(v)
}

// Text edits a cell as a single line of text.
type Text struct {
	args    column.EditorArgs
	input   textinput.Model
	initial string
}

// NewText is an EditorFactory for free text.
func NewText(args column.EditorArgs) column.Editor {
	return &Text{args: args}
}

// Init implements column.Editor.
func (e *Text) Init() error {
	e.input = textinput.New()
	e.input.Prompt = ""
	e.input.CharLimit = 1000
	if w := e.args.Position.Width; w > 0 {
		e.input.SetWidth(w)
	}
	return nil
}

// Destroy implements column.Editor.
func (e *Text) Destroy() {
	e.input.Blur()
}

// Focus implements column.Editor.
func (e *Text) Focus() {
	e.input.Focus()
}

// LoadValue implements column.Editor.
func (e *Text) LoadValue(it item.Item) {
	e.initial = display(e.args.Column.Value(it))
	e.input.SetValue(e.initial)
	e.input.CursorEnd()
}

// SerializeValue implements column.Editor.
func (e *Text) SerializeValue() any {
	return e.input.Value()
}

// ApplyValue implements column.Editor.
func (e *Text) ApplyValue(it item.Item, v any) {
	it.Set(e.args.Column.Field, v)
}

// IsValueChanged implements column.Editor.
func (e *Text) IsValueChanged() bool {
	return e.input.Value() != e.initial
}

// Validate implements column.Editor.
func (e *Text) Validate() column.ValidationResult {
	if v := e.args.Column.Validator; v != nil {
		return v(e.SerializeValue())
	}
	return column.Valid
}

// SetValue replaces the typed text.
func (e *Text) SetValue(s string) {
	e.input.SetValue(s)
}

// Update implements Interactive.
func (e *Text) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	e.input, cmd = e.input.Update(msg)
	return cmd
}

// View implements Interactive.
func (e *Text) View() string {
	return e.input.View()
}

// Number edits a numeric cell. Blank input serializes to nil.
type Number struct {
	Text
}

// NewNumber is an EditorFactory for numbers.
func NewNumber(args column.EditorArgs) column.Editor {
	return &Number{Text: Text{args: args}}
}

func parseNumber(s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", s, err)
	}
	return f, nil
}

// SerializeValue implements column.Editor.
func (e *Number) SerializeValue() any {
	v, err := parseNumber(e.input.Value())
	if err != nil {
		return e.input.Value()
	}
	return v
}

// Validate implements column.Editor.
func (e *Number) Validate() column.ValidationResult {
	if _, err := parseNumber(e.input.Value()); err != nil {
		return column.ValidationResult{Msg: "Please enter a valid number"}
	}
	if v := e.args.Column.Validator; v != nil {
		return v(e.SerializeValue())
	}
	return column.Valid
}

// Checkbox toggles a boolean cell with space.
type Checkbox struct {
	args    column.EditorArgs
	checked bool
	initial bool
}

// NewCheckbox is an EditorFactory for booleans.
func NewCheckbox(args column.EditorArgs) column.Editor {
	return &Checkbox{args: args}
}

// Init implements column.Editor.
func (e *Checkbox) Init() error { return nil }

// Destroy implements column.Editor.
func (e *Checkbox) Destroy() {}

// Focus implements column.Editor.
func (e *Checkbox) Focus() {}

// LoadValue implements column.Editor.
func (e *Checkbox) LoadValue(it item.Item) {
	switch v := e.args.Column.Value(it).(type) {
	case bool:
		e.initial = v
	case string:
		e.initial, _ = strconv.ParseBool(v)
	default:
		n, ok := item.Number(v)
		e.initial = ok && n != 0
	}
	e.checked = e.initial
}

// SerializeValue implements column.Editor.
func (e *Checkbox) SerializeValue() any { return e.checked }

// ApplyValue implements column.Editor.
func (e *Checkbox) ApplyValue(it item.Item, v any) {
	it.Set(e.args.Column.Field, v)
}

// IsValueChanged implements column.Editor.
func (e *Checkbox) IsValueChanged() bool { return e.checked != e.initial }

// Validate implements column.Editor.
func (e *Checkbox) Validate() column.ValidationResult {
	if v := e.args.Column.Validator; v != nil {
		return v(e.checked)
	}
	return column.Valid
}

// Toggle flips the value.
func (e *Checkbox) Toggle() {
	e.checked = !e.checked
}

// Update implements Interactive.
func (e *Checkbox) Update(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyPressMsg); ok {
		switch k.String() {
		case "space", " ", "x":
			e.Toggle()
		}
	}
	return nil
}

// View implements Interactive.
func (e *Checkbox) View() string {
	if e.checked {
		return "[x]"
	}
	return "[ ]"
}
