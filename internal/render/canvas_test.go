package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		w    int
		want string
	}{
		{"pads", "ab", 4, "ab  "},
		{"exact", "abcd", 4, "abcd"},
		{"truncates", "abcdef", 4, "abc…"},
		{"wide runes", "日本語", 4, "日… "},
		{"zero width", "abc", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fit(tt.in, tt.w))
		})
	}
}

func TestSliceColumns(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		from, to int
		want     string
	}{
		{"middle", "abcdef", 2, 4, "cd"},
		{"past end pads", "ab", 1, 4, "b  "},
		{"empty range", "abc", 2, 2, ""},
		{"wide rune cut on both edges", "日本", 1, 3, "  "},
		{"wide rune whole", "日本", 2, 4, "本"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SliceColumns(tt.in, tt.from, tt.to))
		})
	}
}

func TestDraw(t *testing.T) {
	cv := NewCanvas()
	c := New(newSource(3), cv)
	c.RenderRows(rng(0, 2, 0, 30))

	lines := cv.Draw(DrawOptions{ScrollTop: 1, Height: 3, Width: 30})
	assert.Equal(t, []string{
		"r1c0      r1c1      r1c2      ",
		"r2c0      r2c1      r2c2      ",
		"                              ",
	}, lines)

	lines = cv.Draw(DrawOptions{ScrollTop: 0, Height: 1, Width: 12, ScrollLeft: 5})
	assert.Equal(t, []string{"     r0c1   "}, lines)
}

func TestDrawPinnedPane(t *testing.T) {
	src := newSource(4)
	src.frozen = 0
	cv := NewCanvas()
	c := New(src, cv)
	c.RenderRows(rng(0, 0, 0, 30))

	lines := cv.Draw(DrawOptions{Height: 1, Width: 25, PinnedWidth: 10, ScrollLeft: 10})
	assert.Equal(t, []string{"r0c0      r0c2      r0c3 "}, lines)
}

func TestDrawSkipsHiddenRowsAndStyles(t *testing.T) {
	cv := NewCanvas()
	c := New(newSource(1), cv)
	c.RenderRows(rng(0, 1, 0, 10))
	c.HoldGestureRow(0)
	c.CleanupRows(rng(1, 1, 0, 10), -1)

	lines := cv.Draw(DrawOptions{Height: 2, Width: 10, RowStyle: func(class, text string) string {
		return "[" + class + "]" + text
	}})
	assert.Equal(t, "          ", lines[0])
	assert.Equal(t, "[row-1]r1c0      ", lines[1])
}
