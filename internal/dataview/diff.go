package dataview

import "github.com/oakwood-commons/kvgrid/internal/item"

// DiffOptions tune Diff.
type DiffOptions struct {
	IDField string
	// Updated holds the id keys of items changed since the last refresh.
	Updated map[string]struct{}
	// IgnoreDiffsBefore skips positions below it. IgnoreDiffsAfter is
	// inclusive: positions greater than it are skipped, the position itself
	// is still compared. Zero disables a bound.
	IgnoreDiffsBefore int
	IgnoreDiffsAfter  int
}

// Diff returns the ascending positions whose rows differ between prev and
// next. Data rows match on id unless the id was updated, group headers match
// on value, count, collapsed state and title, and a totals row or a kind
// mismatch always counts as a change. Positions present in only one of the
// sequences are changes.
func Diff(prev, next []Row, opts DiffOptions) []int {
	idField := opts.IDField
	if idField == "" {
		idField = item.DefaultIDField
	}
	from := 0
	if opts.IgnoreDiffsBefore > 0 {
		from = opts.IgnoreDiffsBefore
	}
	to := max(len(prev), len(next))
	if opts.IgnoreDiffsAfter > 0 {
		to = min(to, opts.IgnoreDiffsAfter+1)
	}

	var diff []int
	for i := from; i < to; i++ {
		if i >= len(next) || i >= len(prev) {
			diff = append(diff, i)
			continue
		}
		if rowChanged(prev[i], next[i], idField, opts.Updated) {
			diff = append(diff, i)
		}
	}
	return diff
}

func rowChanged(a, b Row, idField string, updated map[string]struct{}) bool {
	if a.Kind != b.Kind {
		return true
	}
	switch a.Kind {
	case RowTotals:
		return true
	case RowGroup:
		return !a.Group.Equal(b.Group)
	}
	idA, okA := a.Item.ID(idField)
	idB, okB := b.Item.ID(idField)
	if !okA || !okB {
		return true
	}
	key := item.Key(idB)
	if item.Key(idA) != key {
		return true
	}
	_, dirty := updated[key]
	return dirty
}
