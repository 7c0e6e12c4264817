package item

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want int
	}{
		{name: "ints", a: 2, b: 10, want: -1},
		{name: "int and float", a: 2, b: 2.0, want: 0},
		{name: "json number", a: json.Number("3.5"), b: 3, want: 1},
		{name: "strings are text", a: "10", b: "9", want: -1},
		{name: "number and numeric text", a: 2, b: "10", want: 1},
		{name: "numeric text and number", a: "10", b: 2, want: -1},
		{name: "number and word", a: 5, b: "apple", want: -1},
		{name: "nil first", a: nil, b: 0, want: -1},
		{name: "both nil", a: nil, b: nil, want: 0},
		{name: "bools", a: false, b: true, want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
			assert.Equal(t, -tt.want, Compare(tt.b, tt.a), "reversed arguments")
		})
	}
}

func TestCompareMixedColumnOrder(t *testing.T) {
	values := []any{"10", 2, nil, "b", 7.5, 1, true}

	sorted := slices.Clone(values)
	slices.SortStableFunc(sorted, Compare)
	for i := 1; i < len(sorted); i++ {
		assert.LessOrEqual(t, Compare(sorted[i-1], sorted[i]), 0, "%v before %v", sorted[i-1], sorted[i])
	}

	reversed := slices.Clone(values)
	slices.Reverse(reversed)
	slices.SortStableFunc(reversed, Compare)
	assert.Equal(t, sorted, reversed, "order does not depend on input order")
}
