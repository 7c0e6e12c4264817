// Package aggregate computes per-group totals. Aggregators are stateful for
// one pass: Init, then Accumulate over member rows (or AccumulateTotals over
// child groups), then StoreResult.
package aggregate

import (
	"sort"

	"github.com/oakwood-commons/kvgrid/internal/item"
)

// Kind names an aggregation ("sum", "avg", ...).
type Kind string

// Built-in kinds.
const (
	KindSum   Kind = "sum"
	KindAvg   Kind = "avg"
	KindMin   Kind = "min"
	KindMax   Kind = "max"
	KindCount Kind = "count"
)

// Totals holds the computed results of one group. It is owned by exactly one
// group; the totals row refers back to the group, never the other way round.
type Totals struct {
	// Values maps kind -> field -> result.
	Values map[Kind]map[string]any
	// Initialized is false until the totals were computed, which lets lazy
	// groups defer the work until the row is displayed.
	Initialized bool
	// Count is the number of member rows of the owning group.
	Count int
	// Level is the nesting depth of the owning group.
	Level int
}

// NewTotals returns empty, uninitialized totals.
func NewTotals(level, count int) *Totals {
	return &Totals{Values: map[Kind]map[string]any{}, Level: level, Count: count}
}

// Set stores a result.
func (t *Totals) Set(kind Kind, field string, v any) {
	if t.Values == nil {
		t.Values = map[Kind]map[string]any{}
	}
	byField, ok := t.Values[kind]
	if !ok {
		byField = map[string]any{}
		t.Values[kind] = byField
	}
	byField[field] = v
}

// Get returns a stored result.
func (t *Totals) Get(kind Kind, field string) (any, bool) {
	if t == nil {
		return nil, false
	}
	v, ok := t.Values[kind][field]
	return v, ok
}

// Kinds lists the kinds that have results for field, sorted.
func (t *Totals) Kinds(field string) []Kind {
	if t == nil {
		return nil
	}
	var out []Kind
	for k, byField := range t.Values {
		if _, ok := byField[field]; ok {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Aggregator accumulates member rows of a group into a Totals entry.
type Aggregator interface {
	Init()
	Accumulate(it item.Item)
	StoreResult(t *Totals)
}

// TotalsAccumulator is implemented by aggregators that can fold already
// computed child-group totals instead of raw rows.
type TotalsAccumulator interface {
	AccumulateTotals(child *Totals)
}
