package dataview

import (
	"fmt"
	"maps"
	"sort"

	"go.uber.org/multierr"

	"github.com/oakwood-commons/kvgrid/internal/item"
)

func (v *DataView) idKey(it item.Item) string {
	id, _ := it.ID(v.idField)
	return item.Key(id)
}

// validateIDs checks every item for a present id that is unique within the
// batch and, unless allowed, not already indexed. All problems are reported.
func (v *DataView) validateIDs(items []item.Item, offset int, indexed map[string]int) error {
	var errs error
	seen := make(map[string]int, len(items))
	for i, it := range items {
		id, ok := it.ID(v.idField)
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("item %d has no %q: %w", offset+i, v.idField, ErrMissingID))
			continue
		}
		key := item.Key(id)
		if prev, dup := seen[key]; dup {
			errs = multierr.Append(errs, fmt.Errorf("items %d and %d share id %v: %w", offset+prev, offset+i, id, ErrDuplicateID))
			continue
		}
		if at, dup := indexed[key]; dup {
			errs = multierr.Append(errs, fmt.Errorf("item %d reuses id %v of item %d: %w", offset+i, id, at, ErrDuplicateID))
			continue
		}
		seen[key] = i
	}
	return errs
}

func (v *DataView) reindexFrom(start int) {
	if start == 0 {
		v.idxByID = make(map[string]int, len(v.items))
	}
	for i := start; i < len(v.items); i++ {
		v.idxByID[v.idKey(v.items[i])] = i
	}
}

func (v *DataView) markUpdated(key string) {
	if v.updated == nil {
		v.updated = map[string]struct{}{}
	}
	v.updated[key] = struct{}{}
}

// SetItems replaces all items. idField, when non-empty, replaces the
// identifier field. On error the previous items are kept.
func (v *DataView) SetItems(items []item.Item, idField string) error {
	if idField != "" {
		prev := v.idField
		v.idField = idField
		if err := v.validateIDs(items, 0, nil); err != nil {
			v.idField = prev
			return err
		}
	} else if err := v.validateIDs(items, 0, nil); err != nil {
		return err
	}
	v.items = items
	v.filteredItems = nil
	v.filterCache = nil
	v.reindexFrom(0)
	return v.Refresh()
}

// Items returns the raw items in store order. Do not modify the slice.
func (v *DataView) Items() []item.Item {
	return v.items
}

// IdxByID returns the store index of the item with id.
func (v *DataView) IdxByID(id any) (int, bool) {
	i, ok := v.idxByID[item.Key(id)]
	return i, ok
}

// ItemByID returns the item with id.
func (v *DataView) ItemByID(id any) (item.Item, bool) {
	i, ok := v.IdxByID(id)
	if !ok {
		return nil, false
	}
	return v.items[i], true
}

// ItemByIdx returns the item at store index i.
func (v *DataView) ItemByIdx(i int) (item.Item, bool) {
	if i < 0 || i >= len(v.items) {
		return nil, false
	}
	return v.items[i], true
}

func (v *DataView) ensureRowsByID() {
	if v.rowsByID != nil {
		return
	}
	v.rowsByID = make(map[string]int, len(v.rows))
	for i, r := range v.rows {
		if r.Kind == RowItem && r.Item != nil {
			v.rowsByID[v.idKey(r.Item)] = i
		}
	}
}

// RowByID returns the display row of the item with id.
func (v *DataView) RowByID(id any) (int, bool) {
	v.ensureRowsByID()
	i, ok := v.rowsByID[item.Key(id)]
	return i, ok
}

// MapItemsToRows returns the display rows of items that are displayed.
func (v *DataView) MapItemsToRows(items []item.Item) []int {
	v.ensureRowsByID()
	rows := make([]int, 0, len(items))
	for _, it := range items {
		if r, ok := v.rowsByID[v.idKey(it)]; ok {
			rows = append(rows, r)
		}
	}
	return rows
}

// MapIDsToRows returns the display rows of ids that are displayed.
func (v *DataView) MapIDsToRows(ids []any) []int {
	v.ensureRowsByID()
	rows := make([]int, 0, len(ids))
	for _, id := range ids {
		if r, ok := v.rowsByID[item.Key(id)]; ok {
			rows = append(rows, r)
		}
	}
	return rows
}

// MapRowsToIDs returns the ids of data rows among rows.
func (v *DataView) MapRowsToIDs(rows []int) []any {
	ids := make([]any, 0, len(rows))
	for _, r := range rows {
		if r < 0 || r >= len(v.rows) || v.rows[r].Kind != RowItem {
			continue
		}
		if id, ok := v.rows[r].Item.ID(v.idField); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// UpdateItem replaces the item with id. The replacement may carry a new id
// as long as no other item uses it.
func (v *DataView) UpdateItem(id any, it item.Item) error {
	u, err := v.planUpdate(v.idxByID, id, it)
	if err != nil {
		return err
	}
	v.applyUpdate(u)
	return v.Refresh()
}

// UpdateItems replaces several items and refreshes once. Every update is
// checked before any is applied; on error the store is unchanged.
func (v *DataView) UpdateItems(ids []any, items []item.Item) error {
	if len(ids) != len(items) {
		return fmt.Errorf("update items: %d ids for %d items", len(ids), len(items))
	}
	index := maps.Clone(v.idxByID)
	plan := make([]pendingUpdate, 0, len(ids))
	for i := range ids {
		u, err := v.planUpdate(index, ids[i], items[i])
		if err != nil {
			return err
		}
		plan = append(plan, u)
	}
	v.idxByID = index
	for _, u := range plan {
		v.applyUpdate(u)
	}
	return v.Refresh()
}

type pendingUpdate struct {
	idx   int
	item  item.Item
	dirty []string
}

// planUpdate resolves one replacement against index and moves its id entry
// when the id changes. index is only written once every check passed.
func (v *DataView) planUpdate(index map[string]int, id any, it item.Item) (pendingUpdate, error) {
	oldKey := item.Key(id)
	idx, ok := index[oldKey]
	if !ok {
		return pendingUpdate{}, fmt.Errorf("update item %v: %w", id, ErrInvalidID)
	}
	newID, ok := it.ID(v.idField)
	if !ok {
		return pendingUpdate{}, fmt.Errorf("update item %v: %w", id, ErrMissingID)
	}
	newKey := item.Key(newID)
	u := pendingUpdate{idx: idx, item: it, dirty: []string{newKey}}
	if newKey != oldKey {
		if _, taken := index[newKey]; taken {
			return pendingUpdate{}, fmt.Errorf("update item %v to id %v: %w", id, newID, ErrDuplicateID)
		}
		delete(index, oldKey)
		index[newKey] = idx
		// The old id is gone; keep the row marked dirty under both keys.
		u.dirty = append(u.dirty, oldKey)
	}
	return u, nil
}

func (v *DataView) applyUpdate(u pendingUpdate) {
	v.items[u.idx] = u.item
	for _, key := range u.dirty {
		v.markUpdated(key)
	}
}

// InsertItem inserts it at store index i.
func (v *DataView) InsertItem(i int, it item.Item) error {
	return v.InsertItems(i, []item.Item{it})
}

// InsertItems inserts items at store index i.
func (v *DataView) InsertItems(i int, items []item.Item) error {
	if i < 0 || i > len(v.items) {
		return fmt.Errorf("insert at %d: index out of range [0, %d]", i, len(v.items))
	}
	if err := v.validateIDs(items, i, v.idxByID); err != nil {
		return err
	}
	v.items = append(v.items[:i], append(append([]item.Item(nil), items...), v.items[i:]...)...)
	v.reindexFrom(i)
	return v.Refresh()
}

// AddItem appends it.
func (v *DataView) AddItem(it item.Item) error {
	return v.InsertItems(len(v.items), []item.Item{it})
}

// AddItems appends items.
func (v *DataView) AddItems(items []item.Item) error {
	return v.InsertItems(len(v.items), items)
}

// DeleteItem removes the item with id.
func (v *DataView) DeleteItem(id any) error {
	return v.DeleteItems([]any{id})
}

// DeleteItems removes the items with ids. Unknown ids fail the whole call;
// an id listed more than once is removed once.
func (v *DataView) DeleteItems(ids []any) error {
	idxs := make([]int, 0, len(ids))
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		idx, ok := v.idxByID[item.Key(id)]
		if !ok {
			return fmt.Errorf("delete item %v: %w", id, ErrInvalidID)
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		idxs = append(idxs, idx)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(idxs)))
	lowest := len(v.items)
	for _, idx := range idxs {
		delete(v.idxByID, v.idKey(v.items[idx]))
		v.items = append(v.items[:idx], v.items[idx+1:]...)
		lowest = idx
	}
	v.reindexFrom(lowest)
	return v.Refresh()
}

// SortedAddItem inserts it at the position the current sort assigns it.
func (v *DataView) SortedAddItem(it item.Item) error {
	cmp := v.effectiveComparer()
	if cmp == nil {
		return ErrNoSortComparer
	}
	return v.InsertItem(v.sortedIndex(cmp, it), it)
}

// SortedUpdateItem replaces the item with id and moves it when the sort
// order requires it.
func (v *DataView) SortedUpdateItem(id any, it item.Item) error {
	cmp := v.effectiveComparer()
	if cmp == nil {
		return ErrNoSortComparer
	}
	idx, ok := v.IdxByID(id)
	if !ok {
		return fmt.Errorf("sorted update item %v: %w", id, ErrInvalidID)
	}
	newID, ok := it.ID(v.idField)
	if !ok {
		return fmt.Errorf("sorted update item %v: %w", id, ErrMissingID)
	}
	if item.Key(newID) != item.Key(id) {
		return fmt.Errorf("sorted update item %v: id must not change: %w", id, ErrInvalidID)
	}
	outOfPlace := (idx > 0 && cmp(v.items[idx-1], it) > 0) ||
		(idx < len(v.items)-1 && cmp(it, v.items[idx+1]) > 0)
	if !outOfPlace {
		return v.UpdateItem(id, it)
	}
	v.BeginUpdate()
	err := v.DeleteItem(id)
	if err == nil {
		err = v.SortedAddItem(it)
	}
	if endErr := v.EndUpdate(); err == nil {
		err = endErr
	}
	return err
}

// sortedIndex returns the first position whose item sorts after it, so
// equal items keep insertion order.
func (v *DataView) sortedIndex(cmp Comparer, it item.Item) int {
	return sort.Search(len(v.items), func(i int) bool { return cmp(v.items[i], it) > 0 })
}
