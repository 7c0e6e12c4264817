package loader

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/oakwood-commons/kvgrid/internal/item"
	"github.com/oakwood-commons/kvgrid/internal/navigator"
)

// ValueField holds scalar records, which have no field names of their own.
const ValueField = "value"

// Options control how documents become items.
type Options struct {
	// IDField defaults to item.DefaultIDField.
	IDField string
	// AutoID fills a missing id with a random UUID.
	AutoID bool
	// Path selects the records inside each document, for example
	// "data.items". Empty uses the document itself.
	Path string
}

func (o Options) idField() string {
	if o.IDField == "" {
		return item.DefaultIDField
	}
	return o.IDField
}

// Dataset is loaded input: the items and the union of their fields, id
// field first.
type Dataset struct {
	Items  []item.Item
	Fields []string
}

// FromDocuments flattens parsed documents into items. A document that is a
// list contributes one item per element; a mapping whose only value is a
// list of mappings (a TOML [[items]] table) contributes the list; any other
// mapping is one item. Scalars land in ValueField. With opts.Path set each
// document is first narrowed to the node at that path.
func FromDocuments(docs []any, opts Options) (*Dataset, error) {
	var records []any
	for i, doc := range docs {
		if opts.Path != "" {
			node, err := navigator.NodeAtPath(doc, opts.Path)
			if err != nil {
				return nil, fmt.Errorf("document %d: %w", i, err)
			}
			doc = node
		}
		records = append(records, recordsOf(doc)...)
	}
	items := make([]item.Item, 0, len(records))
	for _, r := range records {
		items = append(items, toItem(r))
	}
	return newDataset(items, nil, opts)
}

func recordsOf(doc any) []any {
	switch v := doc.(type) {
	case []any:
		return v
	case map[string]any:
		if len(v) == 1 {
			for _, inner := range v {
				if list, ok := inner.([]any); ok && allMaps(list) {
					return list
				}
			}
		}
		return []any{v}
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out
	default:
		return []any{doc}
	}
}

func allMaps(list []any) bool {
	if len(list) == 0 {
		return false
	}
	for _, e := range list {
		if _, ok := e.(map[string]any); !ok {
			return false
		}
	}
	return true
}

func toItem(r any) item.Item {
	switch v := r.(type) {
	case map[string]any:
		return item.Item(v)
	case item.Item:
		return v
	default:
		return item.Item{ValueField: v}
	}
}

// newDataset assigns ids where asked and checks identity: every item needs
// an id and ids must be unique. All problems are reported together.
func newDataset(items []item.Item, fields []string, opts Options) (*Dataset, error) {
	idField := opts.idField()
	seen := make(map[string]int, len(items))
	var errs error
	for i, it := range items {
		id, ok := it.ID(idField)
		if !ok {
			if !opts.AutoID {
				errs = multierr.Append(errs, fmt.Errorf("record %d has no %q field", i, idField))
				continue
			}
			id = uuid.NewString()
			it.Set(idField, id)
		}
		key := item.Key(id)
		if prev, dup := seen[key]; dup {
			errs = multierr.Append(errs, fmt.Errorf("records %d and %d share id %v", prev, i, id))
			continue
		}
		seen[key] = i
	}
	if errs != nil {
		return nil, errs
	}
	if fields == nil {
		fields = collectFields(items, idField)
	} else {
		rest := slices.DeleteFunc(slices.Clone(fields), func(f string) bool { return f == idField })
		fields = append([]string{idField}, rest...)
	}
	return &Dataset{Items: items, Fields: fields}, nil
}

func collectFields(items []item.Item, idField string) []string {
	set := map[string]bool{}
	for _, it := range items {
		for k := range it {
			set[k] = true
		}
	}
	delete(set, idField)
	fields := make([]string, 0, len(set)+1)
	for k := range set {
		fields = append(fields, k)
	}
	slices.Sort(fields)
	return append([]string{idField}, fields...)
}

// FromObjects converts a slice of structs or maps into a Dataset. Structs go
// through JSON so their json tags name the fields.
func FromObjects(value any, opts Options) (*Dataset, error) {
	if value == nil {
		return nil, fmt.Errorf("object input is nil")
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("object input is nil")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("object input must be a slice, got %s", rv.Kind())
	}
	data, err := json.Marshal(rv.Interface())
	if err != nil {
		return nil, fmt.Errorf("cannot marshal objects to JSON: %w", err)
	}
	var docs []any
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("cannot unmarshal objects: %w", err)
	}
	return FromDocuments([]any{docs}, opts)
}
