package dataview

import (
	"fmt"
	"slices"
	"strings"

	"github.com/oakwood-commons/kvgrid/internal/aggregate"
	"github.com/oakwood-commons/kvgrid/internal/item"
)

// GroupingInfo configures one grouping level.
type GroupingInfo struct {
	// Field is read when Getter is nil.
	Field  string
	Getter func(it item.Item) any
	// Formatter builds the group title. The default prints the value.
	Formatter func(g *Group) string
	// Comparer orders the groups of this level. The default orders by value.
	Comparer func(a, b *Group) int
	// PredefinedValues seed groups that exist even without member rows.
	PredefinedValues []any

	Aggregators []aggregate.Aggregator
	// AggregateCollapsed computes totals of collapsed groups and shows their
	// totals row.
	AggregateCollapsed bool
	// AggregateEmpty computes totals of groups without rows.
	AggregateEmpty bool
	// AggregateChildGroups folds the totals of child groups instead of
	// iterating member rows.
	AggregateChildGroups bool
	// LazyTotalsCalculation defers totals until the row is handed out.
	LazyTotalsCalculation bool
	// Collapsed is the initial state of every group of this level.
	Collapsed bool
	// HideTotalsRow suppresses the totals row after each group.
	HideTotalsRow bool
}

func (gi *GroupingInfo) value(it item.Item) any {
	if gi.Getter != nil {
		return gi.Getter(it)
	}
	return it.Get(gi.Field)
}

func (gi *GroupingInfo) title(g *Group) string {
	if gi.Formatter != nil {
		return gi.Formatter(g)
	}
	if g.Value == nil {
		return ""
	}
	return item.Key(g.Value)
}

func (gi *GroupingInfo) compare(a, b *Group) int {
	if gi.Comparer != nil {
		return gi.Comparer(a, b)
	}
	return item.Compare(a.Value, b.Value)
}

// SetGrouping replaces the grouping levels, outermost first, resets every
// expand/collapse toggle and refreshes. No arguments removes grouping.
func (v *DataView) SetGrouping(infos ...GroupingInfo) error {
	for i := range infos {
		if infos[i].Field == "" && infos[i].Getter == nil {
			return fmt.Errorf("grouping level %d: %w", i, ErrInvalidGroupingDef)
		}
	}
	v.groupingInfos = slices.Clone(infos)
	v.toggledGroupsByLevel = make([]map[string]bool, len(infos))
	for i := range v.toggledGroupsByLevel {
		v.toggledGroupsByLevel[i] = map[string]bool{}
	}
	return v.Refresh()
}

// Grouping returns a copy of the grouping levels.
func (v *DataView) Grouping() []GroupingInfo {
	return slices.Clone(v.groupingInfos)
}

// SetAggregators installs aggs on every grouping level and refreshes.
func (v *DataView) SetAggregators(aggs []aggregate.Aggregator, includeCollapsed bool) error {
	for i := range v.groupingInfos {
		v.groupingInfos[i].Aggregators = aggs
		v.groupingInfos[i].AggregateCollapsed = includeCollapsed
	}
	return v.Refresh()
}

// Groups returns the top-level groups of the last refresh.
func (v *DataView) Groups() []*Group {
	return v.groups
}

// CollapseGroup collapses the group addressed by its value path. A single
// argument holding the grouping delimiter is treated as a full key.
func (v *DataView) CollapseGroup(values ...any) error {
	return v.expandCollapseGroup(true, values)
}

// ExpandGroup expands the group addressed like CollapseGroup.
func (v *DataView) ExpandGroup(values ...any) error {
	return v.expandCollapseGroup(false, values)
}

// ToggleGroup flips the state of the group with key at level.
func (v *DataView) ToggleGroup(level int, key string) error {
	if level < 0 || level >= len(v.groupingInfos) {
		return fmt.Errorf("toggle group %q at level %d: %w", key, level, ErrInvalidGroupLevel)
	}
	toggled := v.toggledGroupsByLevel[level]
	toggled[key] = !toggled[key]
	return v.Refresh()
}

func (v *DataView) expandCollapseGroup(collapse bool, values []any) error {
	if len(values) == 0 {
		return fmt.Errorf("expand/collapse needs a group value: %w", ErrInvalidGroupLevel)
	}
	var key string
	level := len(values) - 1
	if s, ok := values[0].(string); ok && len(values) == 1 && strings.Contains(s, v.delimiter) {
		key = s
		level = len(strings.Split(s, v.delimiter)) - 1
	} else {
		parts := make([]string, len(values))
		for i, val := range values {
			parts[i] = item.Key(val)
		}
		key = strings.Join(parts, v.delimiter)
	}
	if level >= len(v.groupingInfos) {
		return fmt.Errorf("group %q at level %d: %w", key, level, ErrInvalidGroupLevel)
	}
	v.toggledGroupsByLevel[level][key] = v.groupingInfos[level].Collapsed != collapse
	return v.Refresh()
}

// CollapseAllGroups collapses every group of level, or of all levels when
// level is negative.
func (v *DataView) CollapseAllGroups(level int) error {
	return v.expandCollapseAll(level, true)
}

// ExpandAllGroups expands every group of level, or of all levels when level
// is negative.
func (v *DataView) ExpandAllGroups(level int) error {
	return v.expandCollapseAll(level, false)
}

func (v *DataView) expandCollapseAll(level int, collapse bool) error {
	if level >= len(v.groupingInfos) {
		return fmt.Errorf("level %d: %w", level, ErrInvalidGroupLevel)
	}
	for i := range v.groupingInfos {
		if level >= 0 && i != level {
			continue
		}
		v.groupingInfos[i].Collapsed = collapse
		v.toggledGroupsByLevel[i] = map[string]bool{}
	}
	return v.Refresh()
}

// extractGroups partitions rows by the getter of the next level and recurses
// for deeper levels. Groups are returned sorted by the level comparer.
func (v *DataView) extractGroups(rows []item.Item, parent *Group) []*Group {
	level := 0
	prefix := ""
	if parent != nil {
		level = parent.Level + 1
		prefix = parent.Key + v.delimiter
	}
	gi := &v.groupingInfos[level]

	var groups []*Group
	byVal := map[string]*Group{}
	get := func(val any) *Group {
		k := item.Key(val)
		g, ok := byVal[k]
		if !ok {
			g = &Group{Level: level, Value: val, Key: prefix + k}
			byVal[k] = g
			groups = append(groups, g)
		}
		return g
	}
	for _, val := range gi.PredefinedValues {
		get(val)
	}
	for _, it := range rows {
		g := get(gi.value(it))
		g.Rows = append(g.Rows, it)
		g.Count++
	}

	if level < len(v.groupingInfos)-1 {
		for _, g := range groups {
			g.Groups = v.extractGroups(g.Rows, g)
		}
	}
	slices.SortStableFunc(groups, gi.compare)
	return groups
}

// addTotals resolves the collapsed state and titles and attaches totals,
// depth first so a parent can fold its children's results.
func (v *DataView) addTotals(groups []*Group, level int) {
	gi := &v.groupingInfos[level]
	toggled := v.toggledGroupsByLevel[level]
	for _, g := range groups {
		g.Collapsed = gi.Collapsed != toggled[g.Key]
		if g.Collapsed && !gi.AggregateCollapsed {
			g.Title = gi.title(g)
			continue
		}
		if len(g.Groups) > 0 {
			v.addTotals(g.Groups, level+1)
		}
		if len(gi.Aggregators) > 0 && (gi.AggregateEmpty || len(g.Rows) > 0 || len(g.Groups) > 0) {
			g.Totals = aggregate.NewTotals(level, g.Count)
			if !gi.LazyTotalsCalculation {
				v.calculateTotals(g)
			}
		}
		g.Title = gi.title(g)
	}
}

// calculateTotals runs every aggregator of the group's level over its rows,
// or over its child totals in child-group mode.
func (v *DataView) calculateTotals(g *Group) {
	if g.Totals == nil {
		return
	}
	gi := &v.groupingInfos[g.Level]
	childMode := gi.AggregateChildGroups && len(g.Groups) > 0
	if childMode {
		for _, c := range g.Groups {
			if c.Totals != nil && !c.Totals.Initialized {
				v.calculateTotals(c)
			}
		}
	}
	for _, agg := range gi.Aggregators {
		agg.Init()
		if acc, ok := agg.(aggregate.TotalsAccumulator); ok && childMode {
			for _, c := range g.Groups {
				if c.Totals != nil {
					acc.AccumulateTotals(c.Totals)
				}
			}
		} else {
			for _, it := range g.Rows {
				agg.Accumulate(it)
			}
		}
		agg.StoreResult(g.Totals)
	}
	g.Totals.Initialized = true
}

// flattenGroupedRows emits each header, its children when expanded and its
// totals row when shown.
func (v *DataView) flattenGroupedRows(groups []*Group, level int) []Row {
	gi := &v.groupingInfos[level]
	var out []Row
	for _, g := range groups {
		out = append(out, Row{Kind: RowGroup, Group: g})
		if !g.Collapsed {
			if len(g.Groups) > 0 {
				out = append(out, v.flattenGroupedRows(g.Groups, level+1)...)
			} else {
				for _, it := range g.Rows {
					out = append(out, ItemRow(it))
				}
			}
		}
		if g.Totals != nil && !gi.HideTotalsRow && (!g.Collapsed || gi.AggregateCollapsed) {
			out = append(out, Row{Kind: RowTotals, Group: g})
		}
	}
	return out
}
