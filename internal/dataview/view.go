// Package dataview owns the authoritative item set and derives the display
// row sequence from it: filter, sort, group, aggregate, flatten and page,
// followed by a row-level diff against the previous sequence.
package dataview

import (
	"fmt"
	"slices"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/kvgrid/internal/column"
	"github.com/oakwood-commons/kvgrid/internal/event"
	"github.com/oakwood-commons/kvgrid/internal/item"
	"github.com/oakwood-commons/kvgrid/internal/paging"
)

// DefaultGroupingDelimiter joins ancestor values into a grouping key.
const DefaultGroupingDelimiter = ":|:"

// FilterFunc decides whether an item passes. Errors propagate out of Refresh.
type FilterFunc func(it item.Item, args any) (bool, error)

// Comparer orders two items.
type Comparer func(a, b item.Item) int

// RefreshHints let the caller pick a cheaper recomputation for the next
// refresh only.
type RefreshHints struct {
	// IsFilterNarrowing re-filters only the previous result.
	IsFilterNarrowing bool
	// IsFilterExpanding filters everything but trusts cached passes.
	IsFilterExpanding bool
	// IsFilterUnchanged reuses the previous result.
	IsFilterUnchanged bool
	// IgnoreDiffsBefore and IgnoreDiffsAfter bound the diff to the rows
	// [IgnoreDiffsBefore, IgnoreDiffsAfter], both ends included. Zero
	// disables a bound.
	IgnoreDiffsBefore int
	IgnoreDiffsAfter  int
}

// RowCountChange is published when the number of display rows changes.
type RowCountChange struct {
	Previous  int
	Current   int
	ItemCount int
}

// RowsChange is published when display rows changed position or content.
type RowsChange struct {
	Rows            []int
	ItemCount       int
	RowCountChanged bool
}

// Option configures a DataView.
type Option func(*DataView)

// WithLogger sets the logger used for refresh diagnostics and transaction
// failures.
func WithLogger(l logr.Logger) Option {
	return func(v *DataView) { v.log = l }
}

// WithIDField sets the identifier field (default "id").
func WithIDField(field string) Option {
	return func(v *DataView) {
		if field != "" {
			v.idField = field
		}
	}
}

// WithMetadataProvider sets the provider used for group and totals rows.
func WithMetadataProvider(p MetadataProvider) Option {
	return func(v *DataView) { v.metadata = p }
}

// WithItemMetadata sets a callback returning overrides for data rows.
func WithItemMetadata(fn func(it item.Item, row int) *column.Metadata) Option {
	return func(v *DataView) { v.itemMetadata = fn }
}

// WithGroupingDelimiter overrides the grouping key delimiter.
func WithGroupingDelimiter(d string) Option {
	return func(v *DataView) {
		if d != "" {
			v.delimiter = d
		}
	}
}

// DataView is the item store plus the transform pipeline feeding the grid.
// It is not safe for concurrent use.
type DataView struct {
	log          logr.Logger
	idField      string
	delimiter    string
	metadata     MetadataProvider
	itemMetadata func(it item.Item, row int) *column.Metadata

	items   []item.Item
	idxByID map[string]int
	updated map[string]struct{}

	rows     []Row
	rowsByID map[string]int

	filter        FilterFunc
	filterArgs    any
	filteredItems []item.Item
	filterCache   map[string]bool

	sortCmp   Comparer
	sortAsc   bool
	sortField string

	groupingInfos        []GroupingInfo
	groups               []*Group
	toggledGroupsByLevel []map[string]bool

	page      paging.Config
	totalRows int

	refreshHints     RefreshHints
	prevRefreshHints RefreshHints
	suspend          int

	OnRowCountChanged   event.Event[RowCountChange]
	OnRowsChanged       event.Event[RowsChange]
	OnPagingInfoChanged event.Event[paging.Info]
}

// New returns an empty DataView.
func New(opts ...Option) *DataView {
	v := &DataView{
		log:       logr.Discard(),
		idField:   item.DefaultIDField,
		delimiter: DefaultGroupingDelimiter,
		idxByID:   map[string]int{},
		sortAsc:   true,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.metadata == nil {
		v.metadata = NewGroupMetadataProvider()
	}
	return v
}

// IDField returns the identifier field.
func (v *DataView) IDField() string {
	return v.idField
}

// BeginUpdate suspends refreshes until the matching EndUpdate. Calls nest.
func (v *DataView) BeginUpdate() {
	v.suspend++
}

// EndUpdate releases one level of suspension and refreshes once the last one
// is released.
func (v *DataView) EndUpdate() error {
	if v.suspend > 0 {
		v.suspend--
	}
	if v.suspend == 0 {
		return v.Refresh()
	}
	return nil
}

// Suspended reports whether refreshes are deferred.
func (v *DataView) Suspended() bool {
	return v.suspend > 0
}

// WithTransaction runs fn between BeginUpdate and EndUpdate. EndUpdate runs
// on every exit path. An error from fn is logged and returned; a panic is
// recovered, logged and returned as an error.
func (v *DataView) WithTransaction(fn func() error) (err error) {
	v.BeginUpdate()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transaction panicked: %v", r)
			v.log.Error(err, "data view transaction aborted")
		}
		if endErr := v.EndUpdate(); endErr != nil && err == nil {
			err = endErr
		}
	}()
	if err = fn(); err != nil {
		v.log.Error(err, "data view transaction failed")
	}
	return err
}

// SetRefreshHints applies hints to the next refresh.
func (v *DataView) SetRefreshHints(h RefreshHints) {
	v.refreshHints = h
}

// SetFilter installs a filter predicate and refreshes.
func (v *DataView) SetFilter(fn FilterFunc) error {
	v.filter = fn
	return v.Refresh()
}

// SetFilterArgs sets the args passed to the filter. It does not refresh.
func (v *DataView) SetFilterArgs(args any) {
	v.filterArgs = args
}

// FilterArgs returns the current filter args.
func (v *DataView) FilterArgs() any {
	return v.filterArgs
}

// FilteredItems returns the items that passed the last filter pass.
func (v *DataView) FilteredItems() []item.Item {
	return v.filteredItems
}

// Sort orders the items with cmp, stably, and refreshes. Equal items keep
// their relative order in both directions.
func (v *DataView) Sort(cmp Comparer, ascending bool) error {
	v.sortCmp = cmp
	v.sortAsc = ascending
	v.sortField = ""
	v.sortItems()
	v.reindexFrom(0)
	return v.Refresh()
}

// SortBy orders the items by a field value.
func (v *DataView) SortBy(field string, ascending bool) error {
	cmp := func(a, b item.Item) int { return item.Compare(a.Get(field), b.Get(field)) }
	if err := v.Sort(cmp, ascending); err != nil {
		return err
	}
	v.sortField = field
	return nil
}

// SortField returns the field set by SortBy and the direction.
func (v *DataView) SortField() (string, bool) {
	return v.sortField, v.sortAsc
}

// ReSort reapplies the last sort, for example after updates.
func (v *DataView) ReSort() error {
	if v.sortCmp == nil {
		return nil
	}
	v.sortItems()
	v.reindexFrom(0)
	return v.Refresh()
}

func (v *DataView) effectiveComparer() Comparer {
	if v.sortCmp == nil {
		return nil
	}
	if v.sortAsc {
		return v.sortCmp
	}
	cmp := v.sortCmp
	return func(a, b item.Item) int { return cmp(b, a) }
}

func (v *DataView) sortItems() {
	if cmp := v.effectiveComparer(); cmp != nil {
		slices.SortStableFunc(v.items, cmp)
	}
}

// SetPagingOptions sets the page size and number and refreshes. The page
// number is clamped to the current row total.
func (v *DataView) SetPagingOptions(size, num int) error {
	cfg := paging.Config{Size: size, Num: num}
	if err := cfg.Validate(); err != nil {
		return err
	}
	v.page = cfg.Clamp(v.totalRows)
	v.OnPagingInfoChanged.Notify(v.PagingInfo())
	return v.Refresh()
}

// PagingInfo describes the current page.
func (v *DataView) PagingInfo() paging.Info {
	return v.page.Info(v.totalRows)
}

// Len returns the number of display rows.
func (v *DataView) Len() int {
	return len(v.rows)
}

// Rows returns the current display rows. Do not modify the slice.
func (v *DataView) Rows() []Row {
	return v.rows
}

// Row returns the display row at i. Lazy totals are computed on the way out.
func (v *DataView) Row(i int) (Row, bool) {
	if i < 0 || i >= len(v.rows) {
		return Row{}, false
	}
	r := v.rows[i]
	switch r.Kind {
	case RowGroup:
		if t := r.Group.Totals; t != nil && !t.Initialized {
			gi := &v.groupingInfos[r.Group.Level]
			if gi.HideTotalsRow {
				v.calculateTotals(r.Group)
				r.Group.Title = gi.title(r.Group)
			}
		}
	case RowTotals:
		if t := r.Group.Totals; t != nil && !t.Initialized {
			v.calculateTotals(r.Group)
		}
	}
	return r, true
}

// ItemMetadata returns the rendering overrides for row i.
func (v *DataView) ItemMetadata(i int) *column.Metadata {
	if i < 0 || i >= len(v.rows) {
		return nil
	}
	r := v.rows[i]
	if r.Kind != RowItem {
		if v.metadata == nil {
			return nil
		}
		return v.metadata.Metadata(r)
	}
	if v.itemMetadata != nil {
		return v.itemMetadata(r.Item, i)
	}
	return nil
}

// Refresh re-runs the pipeline unless suspended, publishes change events and
// clears the updated set and refresh hints.
func (v *DataView) Refresh() error {
	if v.suspend > 0 {
		return nil
	}
	countBefore := len(v.rows)
	totalBefore := v.totalRows

	diff, err := v.recalc()
	if err != nil {
		return err
	}
	if v.page.IsActive() && v.page.Num > v.page.LastPage(v.totalRows) {
		v.page = v.page.Clamp(v.totalRows)
		if diff, err = v.recalc(); err != nil {
			return err
		}
	}

	v.updated = nil
	v.prevRefreshHints = v.refreshHints
	v.refreshHints = RefreshHints{}

	v.log.V(1).Info("data view refreshed", "rows", len(v.rows), "totalRows", v.totalRows, "items", len(v.items), "changed", len(diff))

	if totalBefore != v.totalRows {
		v.OnPagingInfoChanged.Notify(v.PagingInfo())
	}
	countChanged := countBefore != len(v.rows)
	if countChanged {
		v.OnRowCountChanged.Notify(RowCountChange{Previous: countBefore, Current: len(v.rows), ItemCount: len(v.items)})
	}
	if len(diff) > 0 || countChanged {
		v.OnRowsChanged.Notify(RowsChange{Rows: diff, ItemCount: len(v.items), RowCountChanged: countChanged})
	}
	return nil
}

func (v *DataView) recalc() ([]int, error) {
	v.rowsByID = nil
	if v.refreshHints.IsFilterNarrowing != v.prevRefreshHints.IsFilterNarrowing ||
		v.refreshHints.IsFilterExpanding != v.prevRefreshHints.IsFilterExpanding {
		v.filterCache = nil
	}

	filtered, err := v.applyFilter()
	if err != nil {
		return nil, err
	}

	var newRows []Row
	v.groups = nil
	if len(v.groupingInfos) > 0 {
		v.groups = v.extractGroups(filtered, nil)
		if len(v.groups) > 0 {
			v.addTotals(v.groups, 0)
			newRows = v.flattenGroupedRows(v.groups, 0)
		}
	} else {
		newRows = make([]Row, len(filtered))
		for i, it := range filtered {
			newRows[i] = ItemRow(it)
		}
	}

	v.totalRows = len(newRows)
	newRows = paging.Apply(v.page, newRows)

	diff := Diff(v.rows, newRows, DiffOptions{
		IDField:           v.idField,
		Updated:           v.updated,
		IgnoreDiffsBefore: v.refreshHints.IgnoreDiffsBefore,
		IgnoreDiffsAfter:  v.refreshHints.IgnoreDiffsAfter,
	})
	v.rows = newRows
	return diff, nil
}
