package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type order struct {
	ID       int     `json:"id"`
	Customer string  `json:"customer"`
	Total    float64 `json:"total"`
}

func orders() []order {
	return []order{
		{ID: 1, Customer: "ann", Total: 12.5},
		{ID: 2, Customer: "bob", Total: 40},
		{ID: 3, Customer: "cy", Total: 3.25},
	}
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestLoadStructs(t *testing.T) {
	isolate(t)
	ds, err := Load(orders(), DefaultConfig())
	require.NoError(t, err)
	require.Len(t, ds.Items, 3)
	assert.Equal(t, []string{"id", "customer", "total"}, ds.Fields)
}

func TestLoadPath(t *testing.T) {
	isolate(t)
	doc := map[string]any{"result": map[string]any{"rows": []any{
		map[string]any{"id": "a"},
		map[string]any{"id": "b"},
	}}}
	ds, err := Load(doc, Config{Path: "result.rows"})
	require.NoError(t, err)
	assert.Len(t, ds.Items, 2)

	_, err = Load(doc, Config{Path: "result.cols"})
	require.Error(t, err)
}

func TestRenderSnapshot(t *testing.T) {
	isolate(t)
	out, err := RenderSnapshot(orders(), Config{Width: 50, Height: 7, NoColor: true, Sort: "total:desc"})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Contains(t, lines[0], "customer")
	bob, ann, cy := strings.Index(out, "bob"), strings.Index(out, "ann"), strings.Index(out, "cy")
	assert.Less(t, bob, ann)
	assert.Less(t, ann, cy)
	assert.Contains(t, lines[6], "3 rows")
}

func TestRenderSnapshotFilterAndFrozen(t *testing.T) {
	isolate(t)
	frozen := 0
	out, err := RenderSnapshot(orders(), Config{Width: 50, Height: 7, NoColor: true, Filter: "item.total > 10", Frozen: &frozen})
	require.NoError(t, err)
	assert.NotContains(t, out, "cy")
	assert.Contains(t, out, "2 rows")
}

func TestInvalidConfig(t *testing.T) {
	isolate(t)
	_, err := RenderSnapshot(orders(), Config{Width: 40, Height: 5, ThemeName: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")

	_, err = RenderSnapshot(orders(), Config{Width: 40, Height: 5, Filter: "item.total >"})
	require.Error(t, err)

	_, err = RenderSnapshot(42, Config{Width: 40, Height: 5})
	require.Error(t, err)
}

func TestWithIO(t *testing.T) {
	assert.Empty(t, WithIO(nil, nil))
	assert.Len(t, WithIO(strings.NewReader(""), &bytes.Buffer{}), 2)
}

func TestDetectTerminalSizeFallback(t *testing.T) {
	w, h := DetectTerminalSize()
	assert.Positive(t, w)
	assert.Positive(t, h)
}
