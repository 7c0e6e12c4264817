// Package column holds the grid's column schema and the narrow contracts of
// the strategy objects a column can reference: formatters, editors,
// validators and per-row metadata overrides.
package column

import (
	"github.com/oakwood-commons/kvgrid/internal/aggregate"
	"github.com/oakwood-commons/kvgrid/internal/item"
)

// Default geometry for columns created through New.
const (
	DefaultWidth    = 16
	DefaultMinWidth = 3
)

// Formatter renders a cell value into the text placed on the surface. It must
// escape untrusted text itself.
type Formatter func(row, cell int, value any, col *Column, it item.Item) string

// TotalsFormatter renders a group totals cell.
type TotalsFormatter func(totals *aggregate.Totals, col *Column) string

// Validator checks a candidate value before it is committed.
type Validator func(value any) ValidationResult

// PostRenderer runs after a cell has been placed on the surface. It receives
// the cell's current text and returns replacement text.
type PostRenderer func(text string, row int, it item.Item, col *Column) (string, error)

// ValidationResult reports whether a value may be committed.
type ValidationResult struct {
	Valid bool
	Msg   string
}

// Valid is the passing ValidationResult.
var Valid = ValidationResult{Valid: true}

// Column is one ordered schema entry. Treat values as immutable: rebuild the
// slice and hand it back to the grid to change the schema.
type Column struct {
	ID       string
	Name     string
	Field    string
	Width    int
	MinWidth int
	MaxWidth int

	Sortable       bool
	Resizable      bool
	Focusable      bool
	Selectable     bool
	Hidden         bool
	DefaultSortAsc bool
	// CannotTriggerInsert keeps the column from starting an edit on the
	// new-row slot.
	CannotTriggerInsert bool

	Formatter            Formatter
	Editor               EditorFactory
	Validator            Validator
	GroupTotalsFormatter TotalsFormatter
	AsyncPostRender      PostRenderer
	CSSClass             string
}

// New returns a column with the usual defaults: focusable, selectable,
// resizable, ascending default sort and DefaultWidth.
func New(id, name, field string) Column {
	if field == "" {
		field = id
	}
	if name == "" {
		name = id
	}
	return Column{
		ID:             id,
		Name:           name,
		Field:          field,
		Width:          DefaultWidth,
		MinWidth:       DefaultMinWidth,
		Focusable:      true,
		Selectable:     true,
		Resizable:      true,
		DefaultSortAsc: true,
	}
}

// ClampWidth applies the min/max bounds to w.
func (c *Column) ClampWidth(w int) int {
	if c.MinWidth > 0 && w < c.MinWidth {
		w = c.MinWidth
	}
	if c.MaxWidth > 0 && w > c.MaxWidth {
		w = c.MaxWidth
	}
	return w
}

// Value extracts the column's value from it.
func (c *Column) Value(it item.Item) any {
	return it.Get(c.Field)
}

// Visible drops hidden columns, preserving order.
func Visible(cols []Column) []Column {
	out := make([]Column, 0, len(cols))
	for _, c := range cols {
		if !c.Hidden {
			out = append(out, c)
		}
	}
	return out
}

// Changed reports whether two schemas differ in anything that affects layout
// or rendering. Strategy functions are not comparable and are treated as
// equal when both are set or both are nil.
func Changed(a, b []Column) bool {
	if len(a) != len(b) {
		return true
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.ID != y.ID || x.Name != y.Name || x.Field != y.Field ||
			x.Width != y.Width || x.MinWidth != y.MinWidth || x.MaxWidth != y.MaxWidth ||
			x.Sortable != y.Sortable || x.Resizable != y.Resizable ||
			x.Focusable != y.Focusable || x.Selectable != y.Selectable ||
			x.Hidden != y.Hidden || x.CSSClass != y.CSSClass ||
			(x.Formatter == nil) != (y.Formatter == nil) ||
			(x.Editor == nil) != (y.Editor == nil) ||
			(x.AsyncPostRender == nil) != (y.AsyncPostRender == nil) {
			return true
		}
	}
	return false
}

// IndexByID returns the position of the column with id, or -1.
func IndexByID(cols []Column, id string) int {
	for i := range cols {
		if cols[i].ID == id {
			return i
		}
	}
	return -1
}
