package dataview

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/oakwood-commons/kvgrid/internal/aggregate"
	"github.com/oakwood-commons/kvgrid/internal/item"
)

func itemRows(idList ...any) []Row {
	rows := make([]Row, len(idList))
	for i, id := range idList {
		rows[i] = ItemRow(item.Item{"id": id})
	}
	return rows
}

func groupRow(value any, count int, collapsed bool, title string) Row {
	return Row{Kind: RowGroup, Group: &Group{Value: value, Count: count, Collapsed: collapsed, Title: title}}
}

func totalsRow(g *Group) Row {
	return Row{Kind: RowTotals, Group: g}
}

func TestDiff(t *testing.T) {
	g := &Group{Value: "A", Count: 2, Title: "A", Totals: &aggregate.Totals{}}

	tests := []struct {
		name string
		prev []Row
		next []Row
		opts DiffOptions
		want []int
	}{
		{
			name: "identical items",
			prev: itemRows(1, 2, 3),
			next: itemRows(1, 2, 3),
		},
		{
			name: "id moved",
			prev: itemRows(1, 2, 3),
			next: itemRows(1, 3, 2),
			want: []int{1, 2},
		},
		{
			name: "updated id",
			prev: itemRows(1, 2, 3),
			next: itemRows(1, 2, 3),
			opts: DiffOptions{Updated: map[string]struct{}{"2": {}}},
			want: []int{1},
		},
		{
			name: "updated id matched across number types",
			prev: itemRows(1.0, 2.0),
			next: itemRows(1, 2),
			opts: DiffOptions{Updated: map[string]struct{}{"1": {}}},
			want: []int{0},
		},
		{
			name: "item without id",
			prev: []Row{ItemRow(item.Item{"v": 1})},
			next: []Row{ItemRow(item.Item{"v": 1})},
			want: []int{0},
		},
		{
			name: "custom id field",
			prev: []Row{ItemRow(item.Item{"key": "a", "id": 1})},
			next: []Row{ItemRow(item.Item{"key": "a", "id": 2})},
			opts: DiffOptions{IDField: "key"},
		},
		{
			name: "totals pair with the same group",
			prev: []Row{ItemRow(item.Item{"id": 1}), totalsRow(g)},
			next: []Row{ItemRow(item.Item{"id": 1}), totalsRow(g)},
			want: []int{1},
		},
		{
			name: "group against item",
			prev: []Row{groupRow("A", 1, false, "A"), ItemRow(item.Item{"id": 1})},
			next: []Row{ItemRow(item.Item{"id": 1}), groupRow("A", 1, false, "A")},
			want: []int{0, 1},
		},
		{
			name: "group against totals",
			prev: []Row{groupRow("A", 1, false, "A")},
			next: []Row{totalsRow(g)},
			want: []int{0},
		},
		{
			name: "group equality",
			prev: []Row{
				groupRow("A", 2, false, "A"),
				groupRow("B", 1, false, "B"),
				groupRow("C", 1, false, "C"),
				groupRow("D", 1, false, "D"),
				groupRow("E", 1, false, "E"),
			},
			next: []Row{
				groupRow("A", 2, false, "A"),
				groupRow("B", 2, false, "B"),
				groupRow("C", 1, true, "C"),
				groupRow("D", 1, false, "d"),
				groupRow("F", 1, false, "E"),
			},
			want: []int{1, 2, 3, 4},
		},
		{
			name: "removed tail",
			prev: itemRows(1, 2, 3, 4),
			next: itemRows(1, 2),
			want: []int{2, 3},
		},
		{
			name: "added tail",
			prev: itemRows(1),
			next: itemRows(1, 2, 3),
			want: []int{1, 2},
		},
		{
			name: "ignore before",
			prev: itemRows(1, 2, 3, 4),
			next: itemRows(5, 6, 7, 8),
			opts: DiffOptions{IgnoreDiffsBefore: 2},
			want: []int{2, 3},
		},
		{
			name: "ignore after is inclusive",
			prev: itemRows(1, 2, 3, 4),
			next: itemRows(5, 6, 7, 8),
			opts: DiffOptions{IgnoreDiffsAfter: 1},
			want: []int{0, 1},
		},
		{
			name: "window",
			prev: itemRows(1, 2, 3, 4),
			next: itemRows(5, 6, 7, 8),
			opts: DiffOptions{IgnoreDiffsBefore: 1, IgnoreDiffsAfter: 2},
			want: []int{1, 2},
		},
		{
			name: "window bounds the removed tail",
			prev: itemRows(1, 2, 3, 4, 5),
			next: itemRows(1, 2),
			opts: DiffOptions{IgnoreDiffsAfter: 3},
			want: []int{2, 3},
		},
		{
			name: "empty sequences",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.prev, tt.next, tt.opts)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Diff() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiffMatchesPositionwiseComparison(t *testing.T) {
	g := &Group{Value: "A", Count: 1, Title: "A"}
	pool := []Row{
		ItemRow(item.Item{"id": 1}),
		ItemRow(item.Item{"id": 2}),
		groupRow("A", 1, false, "A"),
		groupRow("A", 1, true, "A"),
		totalsRow(g),
	}
	// Every ordered pair of pool rows at one position.
	for i, a := range pool {
		for j, b := range pool {
			got := Diff([]Row{a}, []Row{b}, DiffOptions{})
			changed := len(got) == 1
			want := i != j || a.Kind == RowTotals
			assert.Equal(t, want, changed, "pool[%d] -> pool[%d]", i, j)
		}
	}
}
