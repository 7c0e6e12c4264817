package dataview

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/kvgrid/internal/aggregate"
	"github.com/oakwood-commons/kvgrid/internal/item"
)

func numbered(n int) []item.Item {
	out := make([]item.Item, n)
	for i := range out {
		out[i] = item.Item{"id": i + 1, "v": i + 1}
	}
	return out
}

func groupedItems() []item.Item {
	return []item.Item{
		{"id": 1, "g": "A", "p": "10%", "v": 1},
		{"id": 2, "g": "B", "p": "10%", "v": 5},
		{"id": 3, "g": "A", "p": "20%", "v": 3},
		{"id": 4, "g": "A", "p": "10%", "v": 2},
		{"id": 5, "g": "B", "p": "20%", "v": 7},
	}
}

func newView(t *testing.T, items []item.Item) *DataView {
	t.Helper()
	v := New()
	require.NoError(t, v.SetItems(items, ""))
	return v
}

func ids(v *DataView) []any {
	var out []any
	for _, r := range v.Rows() {
		switch r.Kind {
		case RowItem:
			out = append(out, r.Item["id"])
		case RowGroup:
			out = append(out, "group:"+r.Group.Key)
		case RowTotals:
			out = append(out, "totals:"+r.Group.Key)
		}
	}
	return out
}

func TestSetItemsIdentity(t *testing.T) {
	tests := []struct {
		name    string
		items   []item.Item
		wantErr []error
	}{
		{name: "unique ids", items: numbered(3)},
		{name: "missing id", items: []item.Item{{"id": 1}, {"v": 2}}, wantErr: []error{ErrMissingID}},
		{name: "null id", items: []item.Item{{"id": nil}}, wantErr: []error{ErrMissingID}},
		{name: "duplicate id", items: []item.Item{{"id": 1}, {"id": 1.0}}, wantErr: []error{ErrDuplicateID}},
		{
			name:    "every problem is reported",
			items:   []item.Item{{"id": "a"}, {"x": 1}, {"id": "a"}},
			wantErr: []error{ErrMissingID, ErrDuplicateID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newView(t, numbered(2))
			err := v.SetItems(tt.items, "")
			if len(tt.wantErr) == 0 {
				require.NoError(t, err)
				assert.Equal(t, len(tt.items), v.Len())
				return
			}
			for _, want := range tt.wantErr {
				require.ErrorIs(t, err, want)
			}
			assert.Len(t, v.Items(), 2, "store must be left unchanged")
		})
	}
}

func TestSetItemsCustomIDField(t *testing.T) {
	v := New()
	require.NoError(t, v.SetItems([]item.Item{{"key": "x"}, {"key": "y"}}, "key"))
	assert.Equal(t, "key", v.IDField())
	idx, ok := v.IdxByID("y")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestMutationsEnforceIdentity(t *testing.T) {
	v := newView(t, numbered(3))

	require.ErrorIs(t, v.AddItem(item.Item{"id": 2}), ErrDuplicateID)
	require.ErrorIs(t, v.InsertItem(0, item.Item{"v": 1}), ErrMissingID)
	require.ErrorIs(t, v.UpdateItem(1, item.Item{"id": 3}), ErrDuplicateID)
	require.ErrorIs(t, v.UpdateItem(42, item.Item{"id": 42}), ErrInvalidID)
	require.ErrorIs(t, v.DeleteItem(42), ErrInvalidID)
	assert.Equal(t, 3, v.Len())

	require.NoError(t, v.UpdateItem(1, item.Item{"id": 10, "v": 1}))
	_, ok := v.IdxByID(1)
	assert.False(t, ok)
	idx, ok := v.IdxByID(10)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestInsertDeleteReindex(t *testing.T) {
	v := newView(t, numbered(3))
	require.NoError(t, v.InsertItem(1, item.Item{"id": "x"}))
	assert.Equal(t, []any{1, "x", 2, 3}, ids(v))

	idx, _ := v.IdxByID(3)
	assert.Equal(t, 3, idx)

	require.NoError(t, v.DeleteItems([]any{1, 2}))
	assert.Equal(t, []any{"x", 3}, ids(v))
	idx, _ = v.IdxByID(3)
	assert.Equal(t, 1, idx)

	it, ok := v.ItemByID("x")
	require.True(t, ok)
	assert.Equal(t, "x", it["id"])
	_, ok = v.ItemByIdx(5)
	assert.False(t, ok)
}

func TestDeleteItemsRepeatedID(t *testing.T) {
	tests := []struct {
		name string
		ids  []any
		want []any
	}{
		{name: "same id twice", ids: []any{2, 2}, want: []any{1, 3}},
		{name: "same id in two types", ids: []any{2, 2.0, 1}, want: []any{3}},
		{name: "every id repeated", ids: []any{3, 1, 3, 1}, want: []any{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newView(t, numbered(3))
			require.NoError(t, v.DeleteItems(tt.ids))
			assert.Equal(t, tt.want, ids(v))
			assert.Len(t, v.Items(), len(tt.want))
			for i, id := range tt.want {
				idx, ok := v.IdxByID(id)
				require.True(t, ok)
				assert.Equal(t, i, idx)
			}
		})
	}
}

func TestUpdateItemsAllOrNothing(t *testing.T) {
	tests := []struct {
		name    string
		ids     []any
		items   []item.Item
		wantErr error
	}{
		{
			name:    "unknown id after a valid one",
			ids:     []any{1, 99},
			items:   []item.Item{{"id": 1, "v": "A"}, {"id": 99, "v": "X"}},
			wantErr: ErrInvalidID,
		},
		{
			name:    "missing id after a renamed one",
			ids:     []any{1, 2},
			items:   []item.Item{{"id": 10, "v": "A"}, {"v": "B"}},
			wantErr: ErrMissingID,
		},
		{
			name:    "second rename collides with the first",
			ids:     []any{1, 2},
			items:   []item.Item{{"id": 10, "v": "A"}, {"id": 10, "v": "B"}},
			wantErr: ErrDuplicateID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newView(t, []item.Item{{"id": 1, "v": "a"}, {"id": 2, "v": "b"}})
			before := v.Rows()

			err := v.UpdateItems(tt.ids, tt.items)
			require.ErrorIs(t, err, tt.wantErr)

			it, ok := v.ItemByID(1)
			require.True(t, ok)
			assert.Equal(t, "a", it["v"])
			it, ok = v.ItemByID(2)
			require.True(t, ok)
			assert.Equal(t, "b", it["v"])
			_, ok = v.IdxByID(10)
			assert.False(t, ok)
			assert.Empty(t, v.updated)
			if diff := cmp.Diff(before, v.Rows()); diff != "" {
				t.Errorf("rows changed after a failed update (-before +after):\n%s", diff)
			}
		})
	}
}

func TestUpdateItemsSwapsIDs(t *testing.T) {
	v := newView(t, []item.Item{{"id": 1, "v": "a"}, {"id": 2, "v": "b"}})
	require.NoError(t, v.UpdateItems(
		[]any{1, 2},
		[]item.Item{{"id": 3, "v": "a"}, {"id": 1, "v": "b"}},
	))
	assert.Equal(t, []any{3, 1}, ids(v))
	idx, ok := v.IdxByID(1)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	_, ok = v.IdxByID(2)
	assert.False(t, ok)
}

func TestStableSort(t *testing.T) {
	items := []item.Item{
		{"id": 1, "k": 1},
		{"id": 2, "k": 0},
		{"id": 3, "k": 1},
		{"id": 4, "k": 0},
	}
	v := newView(t, items)

	require.NoError(t, v.SortBy("k", true))
	assert.Equal(t, []any{2, 4, 1, 3}, ids(v))

	require.NoError(t, v.SortBy("k", false))
	assert.Equal(t, []any{1, 3, 2, 4}, ids(v))

	field, asc := v.SortField()
	assert.Equal(t, "k", field)
	assert.False(t, asc)
}

func TestSortedAddAndUpdate(t *testing.T) {
	v := newView(t, numbered(10))
	require.ErrorIs(t, v.SortedAddItem(item.Item{"id": 99, "v": 4.5}), ErrNoSortComparer)

	require.NoError(t, v.SortBy("v", true))
	require.NoError(t, v.SortedAddItem(item.Item{"id": 99, "v": 4.5}))
	row, ok := v.RowByID(99)
	require.True(t, ok)
	assert.Equal(t, 4, row)

	require.NoError(t, v.SortedUpdateItem(1, item.Item{"id": 1, "v": 100}))
	idx, _ := v.IdxByID(1)
	assert.Equal(t, 10, idx)
	assert.False(t, v.Suspended())

	require.ErrorIs(t, v.SortedUpdateItem(2, item.Item{"id": 3, "v": 2}), ErrInvalidID)
}

func TestFilterStrategies(t *testing.T) {
	v := newView(t, numbered(10))
	calls := 0
	atLeast := func(it item.Item, args any) (bool, error) {
		calls++
		return it["v"].(int) >= args.(int), nil
	}

	v.SetFilterArgs(5)
	require.NoError(t, v.SetFilter(atLeast))
	assert.Equal(t, 10, calls)
	assert.Equal(t, 6, v.Len())

	calls = 0
	v.SetFilterArgs(8)
	v.SetRefreshHints(RefreshHints{IsFilterNarrowing: true})
	require.NoError(t, v.Refresh())
	assert.Equal(t, 6, calls, "narrowing only re-checks the previous result")
	assert.Equal(t, 3, v.Len())

	calls = 0
	v.SetFilterArgs(3)
	v.SetRefreshHints(RefreshHints{IsFilterExpanding: true})
	require.NoError(t, v.Refresh())
	assert.Equal(t, 10, calls, "switching strategy resets the cache")
	assert.Equal(t, 8, v.Len())

	calls = 0
	v.SetFilterArgs(2)
	v.SetRefreshHints(RefreshHints{IsFilterExpanding: true})
	require.NoError(t, v.Refresh())
	assert.Equal(t, 2, calls, "cached passes are not evaluated again")
	assert.Equal(t, 9, v.Len())

	calls = 0
	v.SetRefreshHints(RefreshHints{IsFilterUnchanged: true})
	require.NoError(t, v.Refresh())
	assert.Zero(t, calls)
	assert.Equal(t, 9, v.Len())
}

func TestFilterErrorPropagates(t *testing.T) {
	v := newView(t, numbered(3))
	boom := errors.New("boom")
	err := v.SetFilter(func(item.Item, any) (bool, error) { return false, boom })
	require.ErrorIs(t, err, boom)
}

func TestAggregationExample(t *testing.T) {
	v := newView(t, []item.Item{
		{"id": 1, "v": 1},
		{"id": 2, "v": 2},
		{"id": 3, "v": "x"},
		{"id": 4, "v": nil},
	})
	require.NoError(t, v.SetGrouping(GroupingInfo{
		Getter: func(item.Item) any { return "all" },
		Aggregators: []aggregate.Aggregator{
			aggregate.Sum("v"), aggregate.Avg("v"), aggregate.Max("v"), aggregate.Min("v"),
		},
	}))

	groups := v.Groups()
	require.Len(t, groups, 1)
	totals := groups[0].Totals
	require.NotNil(t, totals)
	assert.True(t, totals.Initialized)

	for kind, want := range map[aggregate.Kind]float64{
		aggregate.KindSum: 3, aggregate.KindAvg: 1.5, aggregate.KindMax: 2, aggregate.KindMin: 1,
	} {
		got, ok := totals.Get(kind, "v")
		require.True(t, ok, kind)
		assert.InDelta(t, want, got, 1e-9, kind)
	}
	assert.Equal(t, []any{"group:all", 1, 2, 3, 4, "totals:all"}, ids(v))
}

func TestGroupingFlatten(t *testing.T) {
	tests := []struct {
		name  string
		infos []GroupingInfo
		want  []any
	}{
		{
			name:  "one level",
			infos: []GroupingInfo{{Field: "g"}},
			want:  []any{"group:A", 1, 3, 4, "group:B", 2, 5},
		},
		{
			name:  "predefined values add empty groups",
			infos: []GroupingInfo{{Field: "g", PredefinedValues: []any{"C"}}},
			want:  []any{"group:A", 1, 3, 4, "group:B", 2, 5, "group:C"},
		},
		{
			name: "descending group comparer",
			infos: []GroupingInfo{{Field: "g", Comparer: func(a, b *Group) int {
				return item.Compare(b.Value, a.Value)
			}}},
			want: []any{"group:B", 2, 5, "group:A", 1, 3, 4},
		},
		{
			name: "nested levels",
			infos: []GroupingInfo{{Field: "g"}, {Field: "p"}},
			want: []any{
				"group:A", "group:A:|:10%", 1, 4, "group:A:|:20%", 3,
				"group:B", "group:B:|:10%", 2, "group:B:|:20%", 5,
			},
		},
		{
			name:  "collapsed level",
			infos: []GroupingInfo{{Field: "g", Collapsed: true}},
			want:  []any{"group:A", "group:B"},
		},
		{
			name: "totals rows",
			infos: []GroupingInfo{{Field: "g", Aggregators: []aggregate.Aggregator{aggregate.Sum("v")}}},
			want: []any{"group:A", 1, 3, 4, "totals:A", "group:B", 2, 5, "totals:B"},
		},
		{
			name: "hidden totals rows",
			infos: []GroupingInfo{{
				Field: "g", HideTotalsRow: true,
				Aggregators: []aggregate.Aggregator{aggregate.Sum("v")},
			}},
			want: []any{"group:A", 1, 3, 4, "group:B", 2, 5},
		},
		{
			name: "collapsed totals only with aggregate collapsed",
			infos: []GroupingInfo{{
				Field: "g", Collapsed: true, AggregateCollapsed: true,
				Aggregators: []aggregate.Aggregator{aggregate.Sum("v")},
			}},
			want: []any{"group:A", "totals:A", "group:B", "totals:B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newView(t, groupedItems())
			require.NoError(t, v.SetGrouping(tt.infos...))
			assert.Equal(t, tt.want, ids(v))
		})
	}
}

func TestSetGroupingRejectsEmptyLevel(t *testing.T) {
	v := newView(t, groupedItems())
	require.ErrorIs(t, v.SetGrouping(GroupingInfo{}), ErrInvalidGroupingDef)
}

func TestChildGroupAggregation(t *testing.T) {
	v := newView(t, groupedItems())
	require.NoError(t, v.SetGrouping(
		GroupingInfo{Field: "g", AggregateChildGroups: true, Aggregators: []aggregate.Aggregator{aggregate.Sum("v")}},
		GroupingInfo{Field: "p", Aggregators: []aggregate.Aggregator{aggregate.Sum("v")}},
	))
	a := v.Groups()[0]
	got, _ := a.Totals.Get(aggregate.KindSum, "v")
	assert.InDelta(t, 6.0, got, 1e-9)
	got, _ = a.Groups[0].Totals.Get(aggregate.KindSum, "v")
	assert.InDelta(t, 3.0, got, 1e-9)
}

func TestLazyTotals(t *testing.T) {
	v := newView(t, groupedItems())
	require.NoError(t, v.SetGrouping(GroupingInfo{
		Field: "g", LazyTotalsCalculation: true,
		Aggregators: []aggregate.Aggregator{aggregate.Max("v")},
	}))
	a := v.Groups()[0]
	require.NotNil(t, a.Totals)
	assert.False(t, a.Totals.Initialized)

	r, ok := v.Row(4)
	require.True(t, ok)
	require.Equal(t, RowTotals, r.Kind)
	assert.True(t, a.Totals.Initialized)
	got, _ := a.Totals.Get(aggregate.KindMax, "v")
	assert.InDelta(t, 3.0, got, 1e-9)
}

func TestCollapseExpandRoundTrip(t *testing.T) {
	v := newView(t, groupedItems())
	require.NoError(t, v.SetGrouping(GroupingInfo{Field: "g"}, GroupingInfo{Field: "p"}))
	before := append([]Row(nil), v.Rows()...)

	require.NoError(t, v.CollapseGroup("A", "10%"))
	assert.Equal(t, len(before)-2, v.Len())

	require.NoError(t, v.ExpandGroup("A", "10%"))
	assert.Empty(t, cmp.Diff(before, v.Rows()))

	require.NoError(t, v.CollapseGroup("A:|:10%"))
	assert.Equal(t, len(before)-2, v.Len())
	require.NoError(t, v.ExpandGroup("A:|:10%"))
	assert.Empty(t, cmp.Diff(before, v.Rows()))

	require.ErrorIs(t, v.CollapseGroup("A", "10%", "x"), ErrInvalidGroupLevel)
}

func TestCollapseAllGroups(t *testing.T) {
	v := newView(t, groupedItems())
	require.NoError(t, v.SetGrouping(GroupingInfo{Field: "g"}, GroupingInfo{Field: "p"}))

	require.NoError(t, v.CollapseAllGroups(0))
	assert.Equal(t, []any{"group:A", "group:B"}, ids(v))

	require.NoError(t, v.ExpandAllGroups(-1))
	assert.Equal(t, 11, v.Len())

	require.NoError(t, v.ToggleGroup(0, "B"))
	assert.Equal(t, 7, v.Len())
}

func TestPagingBoundary(t *testing.T) {
	v := newView(t, numbered(95))

	require.NoError(t, v.SetPagingOptions(10, 9))
	assert.Equal(t, 5, v.Len())
	assert.Equal(t, []any{91, 92, 93, 94, 95}, ids(v))

	require.NoError(t, v.SetPagingOptions(10, 20))
	info := v.PagingInfo()
	assert.Equal(t, 9, info.PageNum)
	assert.Equal(t, 95, info.TotalRows)
	assert.Equal(t, 10, info.TotalPages)

	// shrinking the row total pulls the page back into range
	del := make([]any, 0, 45)
	for i := 51; i <= 95; i++ {
		del = append(del, i)
	}
	require.NoError(t, v.DeleteItems(del))
	assert.Equal(t, 4, v.PagingInfo().PageNum)
	assert.Equal(t, 10, v.Len())
}

func TestPipelineIdempotence(t *testing.T) {
	v := newView(t, groupedItems())
	v.SetFilterArgs(2)
	require.NoError(t, v.SetFilter(func(it item.Item, args any) (bool, error) {
		return it["v"].(int) >= args.(int), nil
	}))
	require.NoError(t, v.SortBy("v", false))
	require.NoError(t, v.SetGrouping(GroupingInfo{Field: "g"}, GroupingInfo{Field: "p"}))
	require.NoError(t, v.SetPagingOptions(6, 0))

	first := append([]Row(nil), v.Rows()...)
	changed := 0
	v.OnRowsChanged.Observe(func(RowsChange) { changed++ })

	require.NoError(t, v.Refresh())
	assert.Empty(t, cmp.Diff(first, v.Rows()))
	assert.Zero(t, changed)
}

func TestTransactions(t *testing.T) {
	t.Run("refresh once at the end", func(t *testing.T) {
		v := newView(t, numbered(1))
		counts := 0
		v.OnRowCountChanged.Observe(func(RowCountChange) { counts++ })
		err := v.WithTransaction(func() error {
			for i := 2; i <= 4; i++ {
				if err := v.AddItem(item.Item{"id": i}); err != nil {
					return err
				}
			}
			assert.Equal(t, 1, v.Len())
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, counts)
		assert.Equal(t, 4, v.Len())
	})

	t.Run("error is returned and suspension released", func(t *testing.T) {
		v := newView(t, numbered(1))
		err := v.WithTransaction(func() error { return v.AddItem(item.Item{"id": 1}) })
		require.ErrorIs(t, err, ErrDuplicateID)
		assert.False(t, v.Suspended())
	})

	t.Run("panic is recovered and suspension released", func(t *testing.T) {
		v := newView(t, numbered(1))
		err := v.WithTransaction(func() error {
			require.NoError(t, v.AddItem(item.Item{"id": 2}))
			panic("bad")
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panicked")
		assert.False(t, v.Suspended())
		assert.Equal(t, 2, v.Len())
	})
}

func TestRowsChangedReportsUpdatedRows(t *testing.T) {
	v := newView(t, numbered(5))
	var got []int
	v.OnRowsChanged.Observe(func(c RowsChange) { got = c.Rows })
	require.NoError(t, v.UpdateItem(3, item.Item{"id": 3, "v": 30}))
	assert.Equal(t, []int{2}, got)
}

func TestIDMapping(t *testing.T) {
	v := newView(t, groupedItems())
	require.NoError(t, v.SetGrouping(GroupingInfo{Field: "g"}))

	row, ok := v.RowByID(5)
	require.True(t, ok)
	assert.Equal(t, 6, row)

	assert.Equal(t, []int{1, 5}, v.MapIDsToRows([]any{1, 2, 42}))
	assert.Equal(t, []any{1, 3}, v.MapRowsToIDs([]int{0, 1, 2, 99}))
	assert.Equal(t, []int{5}, v.MapItemsToRows([]item.Item{{"id": 2}}))
}

func TestItemMetadataForGroupRows(t *testing.T) {
	v := newView(t, groupedItems())
	require.NoError(t, v.SetGrouping(GroupingInfo{Field: "g", Aggregators: []aggregate.Aggregator{aggregate.Sum("v")}}))

	md := v.ItemMetadata(0)
	require.NotNil(t, md)
	require.NotNil(t, md.Selectable)
	assert.False(t, *md.Selectable)
	cell, ok := md.Cell(0, "anything")
	require.True(t, ok)
	assert.Equal(t, "▾ A (3)", cell.Formatter(0, 0, nil, nil, nil))

	assert.Nil(t, v.ItemMetadata(1))

	totals := v.ItemMetadata(4)
	require.NotNil(t, totals)
	require.NotNil(t, totals.Focusable)
	assert.False(t, *totals.Focusable)
}
