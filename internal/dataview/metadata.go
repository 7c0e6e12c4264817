package dataview

import (
	"strconv"
	"strings"

	"github.com/oakwood-commons/kvgrid/internal/column"
	"github.com/oakwood-commons/kvgrid/internal/item"
)

// MetadataProvider supplies row overrides for group and totals rows.
type MetadataProvider interface {
	Metadata(r Row) *column.Metadata
}

// Toggle glyphs drawn before a group title.
const (
	ExpandedGlyph  = "▾"
	CollapsedGlyph = "▸"
)

// GroupMetadataProvider renders group headers across the whole row and
// totals rows through each column's GroupTotalsFormatter.
type GroupMetadataProvider struct {
	// GroupFocusable lets the active cell land on group headers.
	GroupFocusable bool
	// TotalsFocusable lets the active cell land on totals rows.
	TotalsFocusable bool
	// IndentWidth is the number of spaces per nesting level.
	IndentWidth int
	// HideToggle drops the expand/collapse glyph.
	HideToggle bool
}

// NewGroupMetadataProvider returns a provider with focusable headers and a
// two space indent.
func NewGroupMetadataProvider() *GroupMetadataProvider {
	return &GroupMetadataProvider{GroupFocusable: true, IndentWidth: 2}
}

// Metadata implements MetadataProvider.
func (p *GroupMetadataProvider) Metadata(r Row) *column.Metadata {
	switch r.Kind {
	case RowGroup:
		return &column.Metadata{
			Selectable: column.Bool(false),
			Focusable:  column.Bool(p.GroupFocusable),
			CSSClasses: "group-level-" + strconv.Itoa(r.Group.Level),
			ColumnsByIndex: map[int]column.CellMetadata{
				0: {Colspan: column.ColspanRest, Formatter: p.groupFormatter(r.Group)},
			},
		}
	case RowTotals:
		return &column.Metadata{
			Selectable: column.Bool(false),
			Focusable:  column.Bool(p.TotalsFocusable),
			CSSClasses: "group-totals",
			Formatter:  p.totalsFormatter(r.Group),
		}
	default:
		return nil
	}
}

// GroupTitle renders a group header the way the provider's formatter does.
func (p *GroupMetadataProvider) GroupTitle(g *Group) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", g.Level*p.IndentWidth))
	if !p.HideToggle {
		if g.Collapsed {
			b.WriteString(CollapsedGlyph)
		} else {
			b.WriteString(ExpandedGlyph)
		}
		b.WriteByte(' ')
	}
	b.WriteString(g.Title)
	b.WriteString(" (")
	b.WriteString(strconv.Itoa(g.Count))
	b.WriteByte(')')
	return b.String()
}

func (p *GroupMetadataProvider) groupFormatter(g *Group) column.Formatter {
	return func(_, _ int, _ any, _ *column.Column, _ item.Item) string {
		return p.GroupTitle(g)
	}
}

func (p *GroupMetadataProvider) totalsFormatter(g *Group) column.Formatter {
	return func(_, _ int, _ any, col *column.Column, _ item.Item) string {
		if col == nil || col.GroupTotalsFormatter == nil || g.Totals == nil {
			return ""
		}
		return col.GroupTotalsFormatter(g.Totals, col)
	}
}
