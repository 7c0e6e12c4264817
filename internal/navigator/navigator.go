// Package navigator resolves dotted paths such as
// regions.asia.countries[0]["postal-code"] inside decoded documents.
package navigator

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ErrNotFound is wrapped by every lookup that misses.
var ErrNotFound = errors.New("path not found")

// NodeAtPath walks path from root. An empty path or "_" returns root.
// Keys are separated by '.'; numeric segments and [n] index lists;
// ["key"] reaches keys containing dots.
func NodeAtPath(root any, path string) (any, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(path), "_")
	cur := root
	for _, step := range ParsePath(trimmed) {
		next, err := navigateStep(cur, step)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		cur = next
	}
	return cur, nil
}

// ParsePath splits a path into navigation steps.
//
//	"items.0"        -> ["items", "0"]
//	"items[0].tags"  -> ["items", "0", "tags"]
//	`a["b.c"]`       -> ["a", "b.c"]
func ParsePath(path string) []string {
	var parts []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
	}
	for i := 0; i < len(path); i++ {
		switch ch := path[i]; ch {
		case '.':
			flush()
		case '[':
			flush()
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				current.WriteString(path[i+1:])
				i = len(path)
				continue
			}
			seg := path[i+1 : i+end]
			if len(seg) > 1 && (seg[0] == '"' || seg[0] == '\'') && seg[len(seg)-1] == seg[0] {
				seg = seg[1 : len(seg)-1]
			}
			parts = append(parts, seg)
			i += end
		default:
			current.WriteByte(ch)
		}
	}
	flush()
	return parts
}

// ReconstructPath rebuilds a canonical path from steps. Numeric steps and
// keys that are not plain identifiers use bracket notation.
func ReconstructPath(steps []string) string {
	var b strings.Builder
	for i, s := range steps {
		switch {
		case isIndex(s):
			b.WriteString("[" + s + "]")
		case isPlainKey(s):
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(s)
		default:
			b.WriteString("[" + strconv.Quote(s) + "]")
		}
	}
	return b.String()
}

func isIndex(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil && !strings.HasPrefix(s, "-")
}

func isPlainKey(s string) bool {
	if s == "" {
		return false
	}
	return !strings.ContainsAny(s, ".[]\"' ")
}

func navigateStep(cur any, step string) (any, error) {
	switch t := cur.(type) {
	case map[string]any:
		v, ok := t[step]
		if !ok {
			return nil, fmt.Errorf("key %q: %w", step, ErrNotFound)
		}
		return v, nil
	case []any:
		idx, err := index(step, len(t))
		if err != nil {
			return nil, err
		}
		return t[idx], nil
	}

	rv := reflect.ValueOf(cur)
	for rv.IsValid() && rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, fmt.Errorf("cannot descend into %T at %q", cur, step)
	}
	switch rv.Kind() { //nolint:exhaustive // only containers can be walked
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("cannot descend into %T at %q", cur, step)
		}
		v := rv.MapIndex(reflect.ValueOf(step).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, fmt.Errorf("key %q: %w", step, ErrNotFound)
		}
		return v.Interface(), nil
	case reflect.Slice, reflect.Array:
		idx, err := index(step, rv.Len())
		if err != nil {
			return nil, err
		}
		return rv.Index(idx).Interface(), nil
	default:
		return nil, fmt.Errorf("cannot descend into %T at %q", cur, step)
	}
}

func index(step string, n int) (int, error) {
	idx, err := strconv.Atoi(step)
	if err != nil {
		return 0, fmt.Errorf("expected numeric index into list but got %q", step)
	}
	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("index %d out of range: %w", idx, ErrNotFound)
	}
	return idx, nil
}
