// Package item defines the record type the grid displays and the field
// access helpers shared by the pipeline, formatters and aggregators.
package item

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultIDField is the field holding an item's unique identifier unless
// configured otherwise.
const DefaultIDField = "id"

// Item is a single data record. Keys are field names; nested maps are
// reachable with dotted paths through Get.
type Item map[string]any

// Get returns the value stored under field. A dotted field ("owner.name")
// walks nested maps when no literal key with the dots exists.
func (it Item) Get(field string) any {
	if it == nil {
		return nil
	}
	if v, ok := it[field]; ok {
		return v
	}
	if !strings.Contains(field, ".") {
		return nil
	}
	var cur any = map[string]any(it)
	for _, part := range strings.Split(field, ".") {
		switch m := cur.(type) {
		case map[string]any:
			cur = m[part]
		case Item:
			cur = m[part]
		default:
			return nil
		}
	}
	return cur
}

// Set stores v under field. Dotted fields are written literally.
func (it Item) Set(field string, v any) {
	it[field] = v
}

// ID returns the identifier stored under idField and whether it is present
// and non-nil.
func (it Item) ID(idField string) (any, bool) {
	if it == nil {
		return nil, false
	}
	v, ok := it[idField]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Clone returns a shallow copy.
func (it Item) Clone() Item {
	out := make(Item, len(it))
	for k, v := range it {
		out[k] = v
	}
	return out
}

// Key turns an arbitrary value into the string used for identity and
// grouping lookups. Numbers that hold integral values print without a
// fraction so 1 and 1.0 share a key.
func Key(v any) string {
	switch t := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return strconv.FormatFloat(t, 'f', -1, 64)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	case float32:
		return Key(float64(t))
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

// Number coerces v into a float64. Nil, empty strings, booleans and values
// that do not parse as numbers report false.
func Number(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return t, !math.IsNaN(t)
	case float32:
		return float64(t), !math.IsNaN(float64(t))
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Compare orders two field values. Two numbers compare numerically; any
// pair involving a string, including numeric text, compares by Key. Nil
// sorts first.
func Compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ab == bb:
				return 0
			case !ab:
				return -1
			default:
				return 1
			}
		}
	}
	_, aStr := a.(string)
	_, bStr := b.(string)
	if !aStr && !bStr {
		if fa, ok := Number(a); ok {
			if fb, ok := Number(b); ok {
				switch {
				case fa < fb:
					return -1
				case fa > fb:
					return 1
				default:
					return 0
				}
			}
		}
	}
	return strings.Compare(Key(a), Key(b))
}
