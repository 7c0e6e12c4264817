package dataview

import (
	"github.com/oakwood-commons/kvgrid/internal/aggregate"
	"github.com/oakwood-commons/kvgrid/internal/item"
)

// RowKind tags a display row.
type RowKind uint8

const (
	// RowItem is a data item, addressable by id.
	RowItem RowKind = iota
	// RowGroup is a synthetic group header.
	RowGroup
	// RowTotals is a synthetic group totals row.
	RowTotals
)

func (k RowKind) String() string {
	switch k {
	case RowGroup:
		return "group"
	case RowTotals:
		return "totals"
	default:
		return "item"
	}
}

// Row is one display row. Rows are rebuilt on every refresh and never
// mutated in place; group rows are positional only.
type Row struct {
	Kind  RowKind
	Item  item.Item
	Group *Group
}

// ItemRow wraps a data item.
func ItemRow(it item.Item) Row {
	return Row{Kind: RowItem, Item: it}
}

// IsData reports whether the row is a data item.
func (r Row) IsData() bool {
	return r.Kind == RowItem
}

// Totals returns the totals carried by a totals row (or a group row).
func (r Row) Totals() *aggregate.Totals {
	if r.Group == nil {
		return nil
	}
	return r.Group.Totals
}

// Group is one partition of the filtered rows at a nesting level. Children
// are owned downward; a parent is found through its grouping key, never a
// back pointer.
type Group struct {
	Level int
	Value any
	Title string
	// Count is the number of member rows, including those of sub-groups.
	Count     int
	Collapsed bool
	// Key joins the values of all ancestors and this group with the
	// grouping delimiter; it addresses the group for expand/collapse.
	Key    string
	Rows   []item.Item
	Groups []*Group
	Totals *aggregate.Totals
}

// Equal compares the visible state of two group headers.
func (g *Group) Equal(o *Group) bool {
	if g == nil || o == nil {
		return g == o
	}
	return item.Key(g.Value) == item.Key(o.Value) &&
		g.Count == o.Count &&
		g.Collapsed == o.Collapsed &&
		g.Title == o.Title
}
