package formatter

import (
	"github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/kvgrid/internal/column"
	"github.com/oakwood-commons/kvgrid/internal/item"
)

// DefaultSampleSize is the number of items AutoWidths inspects.
const DefaultSampleSize = 200

// NaturalWidth returns the display width needed for the header and the
// first sample values of field, without truncation.
func NaturalWidth(items []item.Item, col *column.Column, sample int) int {
	if sample <= 0 {
		sample = DefaultSampleSize
	}
	w := runewidth.StringWidth(col.Name)
	f := col.Formatter
	if f == nil {
		f = Default
	}
	for i, it := range items {
		if i >= sample {
			break
		}
		if cw := runewidth.StringWidth(f(i, 0, col.Value(it), col, it)); cw > w {
			w = cw
		}
	}
	return w
}

// AutoWidths sizes every column to its natural width plus one cell of
// padding, within the column's min and max.
func AutoWidths(items []item.Item, cols []column.Column, sample int) {
	for i := range cols {
		c := &cols[i]
		c.Width = c.ClampWidth(NaturalWidth(items, c, sample) + 1)
	}
}
