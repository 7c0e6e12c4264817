package aggregate

import (
	"fmt"
	"strings"

	"github.com/oakwood-commons/kvgrid/internal/item"
)

// Sum adds up the numeric values of field.
func Sum(field string) Aggregator { return &sumAgg{field: field} }

// Avg averages the numeric values of field.
func Avg(field string) Aggregator { return &avgAgg{field: field} }

// Min keeps the smallest numeric value of field.
func Min(field string) Aggregator { return &extremeAgg{field: field, kind: KindMin} }

// Max keeps the largest numeric value of field.
func Max(field string) Aggregator { return &extremeAgg{field: field, kind: KindMax} }

// Count counts rows with a non-nil value of field.
func Count(field string) Aggregator { return &countAgg{field: field} }

// New builds a built-in aggregator by kind name.
func New(kind, field string) (Aggregator, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(kind))) {
	case KindSum:
		return Sum(field), nil
	case KindAvg:
		return Avg(field), nil
	case KindMin:
		return Min(field), nil
	case KindMax:
		return Max(field), nil
	case KindCount:
		return Count(field), nil
	default:
		return nil, fmt.Errorf("unknown aggregator %q (expected sum, avg, min, max or count)", kind)
	}
}

type sumAgg struct {
	field string
	sum   float64
}

func (a *sumAgg) Init() { a.sum = 0 }

func (a *sumAgg) Accumulate(it item.Item) {
	if v, ok := item.Number(it.Get(a.field)); ok {
		a.sum += v
	}
}

func (a *sumAgg) AccumulateTotals(child *Totals) {
	if v, ok := child.Get(KindSum, a.field); ok {
		if f, ok := item.Number(v); ok {
			a.sum += f
		}
	}
}

func (a *sumAgg) StoreResult(t *Totals) {
	t.Set(KindSum, a.field, a.sum)
}

type avgAgg struct {
	field string
	sum   float64
	count int
}

func (a *avgAgg) Init() { a.sum, a.count = 0, 0 }

func (a *avgAgg) Accumulate(it item.Item) {
	if v, ok := item.Number(it.Get(a.field)); ok {
		a.sum += v
		a.count++
	}
}

// AccumulateTotals weights each child average by the child's row count.
func (a *avgAgg) AccumulateTotals(child *Totals) {
	v, ok := child.Get(KindAvg, a.field)
	if !ok || child.Count == 0 {
		return
	}
	if f, ok := item.Number(v); ok {
		a.sum += f * float64(child.Count)
		a.count += child.Count
	}
}

func (a *avgAgg) StoreResult(t *Totals) {
	if a.count == 0 {
		t.Set(KindAvg, a.field, nil)
		return
	}
	t.Set(KindAvg, a.field, a.sum/float64(a.count))
}

type extremeAgg struct {
	field string
	kind  Kind
	val   float64
	seen  bool
}

func (a *extremeAgg) Init() { a.val, a.seen = 0, false }

func (a *extremeAgg) take(v float64) {
	if !a.seen {
		a.val, a.seen = v, true
		return
	}
	if (a.kind == KindMin && v < a.val) || (a.kind == KindMax && v > a.val) {
		a.val = v
	}
}

func (a *extremeAgg) Accumulate(it item.Item) {
	if v, ok := item.Number(it.Get(a.field)); ok {
		a.take(v)
	}
}

func (a *extremeAgg) AccumulateTotals(child *Totals) {
	if v, ok := child.Get(a.kind, a.field); ok {
		if f, ok := item.Number(v); ok {
			a.take(f)
		}
	}
}

func (a *extremeAgg) StoreResult(t *Totals) {
	if !a.seen {
		t.Set(a.kind, a.field, nil)
		return
	}
	t.Set(a.kind, a.field, a.val)
}

type countAgg struct {
	field string
	n     int
}

func (a *countAgg) Init() { a.n = 0 }

func (a *countAgg) Accumulate(it item.Item) {
	if it.Get(a.field) != nil {
		a.n++
	}
}

func (a *countAgg) AccumulateTotals(child *Totals) {
	if v, ok := child.Get(KindCount, a.field); ok {
		if f, ok := item.Number(v); ok {
			a.n += int(f)
		}
	}
}

func (a *countAgg) StoreResult(t *Totals) {
	t.Set(KindCount, a.field, a.n)
}
