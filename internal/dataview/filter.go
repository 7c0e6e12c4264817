package dataview

import (
	"fmt"

	"github.com/oakwood-commons/kvgrid/internal/item"
)

// applyFilter picks one of three strategies from the refresh hints:
// narrowing re-filters the previous result, expanding filters every item
// but trusts the per-item pass cache, and anything else filters every item
// unless the caller promised the filter is unchanged.
func (v *DataView) applyFilter() ([]item.Item, error) {
	if v.filter == nil {
		v.filteredItems = v.items
		return v.items, nil
	}

	var (
		out []item.Item
		err error
	)
	switch {
	case v.refreshHints.IsFilterNarrowing && v.filteredItems != nil:
		out, err = v.filterItems(v.filteredItems)
	case v.refreshHints.IsFilterExpanding:
		out, err = v.filterItemsWithCache(v.items)
	case v.refreshHints.IsFilterUnchanged && v.filteredItems != nil:
		return v.filteredItems, nil
	default:
		out, err = v.filterItems(v.items)
	}
	if err != nil {
		return nil, err
	}
	v.filteredItems = out
	return out, nil
}

func (v *DataView) filterItems(src []item.Item) ([]item.Item, error) {
	out := make([]item.Item, 0, len(src))
	for _, it := range src {
		ok, err := v.filter(it, v.filterArgs)
		if err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
		if ok {
			out = append(out, it)
		}
	}
	return out, nil
}

// filterItemsWithCache remembers every item that passed once; while the
// condition only expands, a cached pass is never evaluated again.
func (v *DataView) filterItemsWithCache(src []item.Item) ([]item.Item, error) {
	if v.filterCache == nil {
		v.filterCache = map[string]bool{}
	}
	out := make([]item.Item, 0, len(src))
	for _, it := range src {
		key := v.idKey(it)
		if v.filterCache[key] {
			out = append(out, it)
			continue
		}
		ok, err := v.filter(it, v.filterArgs)
		if err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
		if ok {
			v.filterCache[key] = true
			out = append(out, it)
		}
	}
	return out, nil
}
