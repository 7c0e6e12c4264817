// Package formatter provides the default cell and totals formatters and the
// width helpers used to size columns for a terminal.
package formatter

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/kvgrid/internal/aggregate"
	"github.com/oakwood-commons/kvgrid/internal/column"
	"github.com/oakwood-commons/kvgrid/internal/item"
)

// Stringify returns a single-line representation of any cell value. Maps,
// slices and structs become compact JSON.
func Stringify(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return Sanitize(t)
	case bool, int, int64:
		return fmt.Sprint(t)
	case float64, float32, json.Number:
		return item.Key(t)
	case map[string]any, []any, item.Item:
		if b, err := json.Marshal(t); err == nil {
			return Sanitize(string(b))
		}
		return fmt.Sprintf("%v", t)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() { //nolint:exhaustive // only complex types need JSON marshaling
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if b, err := json.Marshal(v); err == nil {
			return Sanitize(string(b))
		}
	case reflect.Ptr:
		if !rv.IsNil() {
			return Stringify(rv.Elem().Interface())
		}
		return ""
	}
	return Sanitize(fmt.Sprintf("%v", v))
}

// Sanitize makes untrusted text safe for a terminal cell: line breaks become
// a literal "\n", tabs become spaces and other control characters, escape
// sequences included, are dropped.
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	clean := true
	for _, r := range s {
		if unicode.IsControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteByte(' ')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Default renders any value with Stringify.
func Default(_, _ int, value any, _ *column.Column, _ item.Item) string {
	return Stringify(value)
}

// Number renders numbers with a fixed precision, right aligned within the
// column. Values that are not numbers fall back to Default.
func Number(precision int) column.Formatter {
	return func(row, cell int, value any, col *column.Column, it item.Item) string {
		n, ok := item.Number(value)
		if !ok {
			return Default(row, cell, value, col, it)
		}
		s := strconv.FormatFloat(n, 'f', precision, 64)
		if col != nil && col.Width > 0 {
			s = runewidth.FillLeft(s, col.Width)
		}
		return s
	}
}

// Checkmark renders truthy values as a check mark and everything else blank.
func Checkmark(_, _ int, value any, _ *column.Column, _ item.Item) string {
	if Truthy(value) {
		return "✔"
	}
	return ""
}

// Truthy reports whether v reads as true: true, non-zero numbers and
// strings that parse as true.
func Truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	}
	n, ok := item.Number(v)
	return ok && n != 0
}

// PercentBar renders a 0-100 value as a bar of width cells followed by the
// percentage.
func PercentBar(width int) column.Formatter {
	return func(row, cell int, value any, col *column.Column, it item.Item) string {
		n, ok := item.Number(value)
		if !ok {
			return ""
		}
		n = max(0, min(100, n))
		filled := int(n * float64(width) / 100)
		return strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + " " + strconv.Itoa(int(n)) + "%"
	}
}

// Totals renders one aggregate of the column's field with a label, for
// example "total: 42".
func Totals(kind aggregate.Kind, label string) column.TotalsFormatter {
	return func(t *aggregate.Totals, col *column.Column) string {
		if t == nil || col == nil {
			return ""
		}
		v, ok := t.Get(kind, col.Field)
		if !ok || v == nil {
			return ""
		}
		if label == "" {
			return Stringify(v)
		}
		return label + ": " + Stringify(v)
	}
}

// AllTotals renders every aggregate stored for the column's field.
func AllTotals(t *aggregate.Totals, col *column.Column) string {
	if t == nil || col == nil {
		return ""
	}
	parts := make([]string, 0, 2)
	for _, kind := range t.Kinds(col.Field) {
		v, _ := t.Get(kind, col.Field)
		if v == nil {
			continue
		}
		parts = append(parts, string(kind)+": "+Stringify(v))
	}
	return strings.Join(parts, " ")
}

// ByName returns a built-in formatter by its configuration name.
func ByName(name string) (column.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default", "text":
		return Default, nil
	case "number":
		return Number(2), nil
	case "integer":
		return Number(0), nil
	case "checkmark", "bool":
		return Checkmark, nil
	case "percent", "percent-bar":
		return PercentBar(10), nil
	}
	return nil, fmt.Errorf("unknown formatter %q", name)
}
