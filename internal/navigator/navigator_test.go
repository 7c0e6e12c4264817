package navigator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() map[string]any {
	return map[string]any{
		"name": "catalog",
		"data": map[string]any{
			"items": []any{
				map[string]any{"id": 1, "tags": []any{"a", "b"}},
				map[string]any{"id": 2, "tags": []any{}},
			},
			"dotted.key": "x",
		},
		"typed": map[string][]int{"nums": {4, 5}},
	}
}

func TestNodeAtPath(t *testing.T) {
	doc := sampleDoc()
	tests := []struct {
		name string
		path string
		want any
	}{
		{name: "empty", path: "", want: doc},
		{name: "root", path: "_", want: doc},
		{name: "field", path: "name", want: "catalog"},
		{name: "root prefix", path: "_.name", want: "catalog"},
		{name: "dotted index", path: "data.items.1.id", want: 2},
		{name: "bracket index", path: "data.items[0].tags[1]", want: "b"},
		{name: "quoted key", path: `data["dotted.key"]`, want: "x"},
		{name: "single quoted key", path: `data['dotted.key']`, want: "x"},
		{name: "typed map and slice", path: "typed.nums[1]", want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NodeAtPath(doc, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNodeAtPathErrors(t *testing.T) {
	doc := sampleDoc()
	tests := []struct {
		name     string
		path     string
		notFound bool
		msg      string
	}{
		{name: "missing key", path: "data.nope", notFound: true, msg: `key "nope"`},
		{name: "out of range", path: "data.items[5]", notFound: true, msg: "index 5 out of range"},
		{name: "negative index", path: "data.items[-1]", notFound: true},
		{name: "non numeric index", path: "data.items.first", msg: "expected numeric index"},
		{name: "descend into scalar", path: "name.first", msg: "cannot descend into string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NodeAtPath(doc, tt.path)
			require.Error(t, err)
			assert.Equal(t, tt.notFound, errors.Is(err, ErrNotFound))
			assert.Contains(t, err.Error(), tt.path)
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestNodeAtPathNilRoot(t *testing.T) {
	got, err := NodeAtPath(nil, "")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = NodeAtPath(nil, "a")
	require.Error(t, err)
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"items.0", []string{"items", "0"}},
		{"items[0].tags", []string{"items", "0", "tags"}},
		{"regions.asia.countries[1]", []string{"regions", "asia", "countries", "1"}},
		{`a["b.c"].d`, []string{"a", "b.c", "d"}},
		{"a..b", []string{"a", "b"}},
		{"a[unterminated", []string{"a", "unterminated"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParsePath(tt.in), tt.in)
	}
}

func TestReconstructPath(t *testing.T) {
	assert.Equal(t, "", ReconstructPath(nil))
	assert.Equal(t, `data.items[0]["dotted.key"].name`, ReconstructPath([]string{"data", "items", "0", "dotted.key", "name"}))
	assert.Equal(t, "[2].id", ReconstructPath([]string{"2", "id"}))
}
