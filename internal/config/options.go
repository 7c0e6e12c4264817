package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/oakwood-commons/kvgrid/internal/aggregate"
	"github.com/oakwood-commons/kvgrid/internal/column"
	"github.com/oakwood-commons/kvgrid/internal/dataview"
	"github.com/oakwood-commons/kvgrid/internal/edit"
	"github.com/oakwood-commons/kvgrid/internal/filter"
	"github.com/oakwood-commons/kvgrid/internal/formatter"
	"github.com/oakwood-commons/kvgrid/internal/item"
	"github.com/oakwood-commons/kvgrid/pkg/grid"
)

var (
	// ErrInvalidSort reports a sort other than field or field:asc|desc.
	ErrInvalidSort = errors.New("invalid sort")
	// ErrInvalidAggregate reports an aggregate other than kind:field.
	ErrInvalidAggregate = errors.New("invalid aggregate")
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// Options overlays the grid section on base.
func (c Config) Options(base grid.Options) grid.Options {
	g := c.Grid
	o := base
	o.RowHeight = g.RowHeight
	o.MaxSupportedHeight = g.MaxSupportedHeight
	o.MinRowBuffer = g.MinRowBuffer
	o.FrozenColumn = c.View.FrozenColumn
	o.EnableCellNavigation = g.EnableCellNavigation
	o.Editable = g.Editable
	o.AutoEdit = g.AutoEdit
	o.EnableAddRow = g.EnableAddRow
	o.GenerateIDs = c.Data.AutoID
	o.IDField = c.Data.IDField
	o.AsyncEditorLoading = g.AsyncEditorLoading
	o.AsyncEditorLoadDelay = ms(g.AsyncEditorLoadDelayMS)
	o.EnableAsyncPostRender = g.EnableAsyncPostRender
	o.AsyncPostRenderDelay = ms(g.AsyncPostRenderDelayMS)
	o.ViewportChangedDelay = ms(g.ViewportChangedDelayMS)
	o.RenderDelay = ms(g.RenderDelayMS)
	o.ForceSyncScrolling = g.ForceSyncScrolling
	return o
}

// ParseSort splits "field", "field:asc" or "field:desc".
func ParseSort(s string) (field string, ascending bool, err error) {
	field, dir, _ := strings.Cut(strings.TrimSpace(s), ":")
	if field == "" {
		return "", false, fmt.Errorf("%w %q: missing field", ErrInvalidSort, s)
	}
	switch strings.ToLower(dir) {
	case "", "asc":
		return field, true, nil
	case "desc":
		return field, false, nil
	}
	return "", false, fmt.Errorf("%w %q: direction must be asc or desc", ErrInvalidSort, s)
}

// ParseAggregate builds an aggregator from "kind:field".
func ParseAggregate(s string) (aggregate.Aggregator, error) {
	kind, field, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || kind == "" || field == "" {
		return nil, fmt.Errorf("%w %q: expected kind:field", ErrInvalidAggregate, s)
	}
	agg, err := aggregate.New(kind, field)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidAggregate, s, err)
	}
	return agg, nil
}

func aggregateFields(specs []string) map[string]bool {
	out := map[string]bool{}
	for _, s := range specs {
		if _, field, ok := strings.Cut(s, ":"); ok {
			out[field] = true
		}
	}
	return out
}

func editorByName(name string) (column.EditorFactory, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text":
		return edit.NewText, nil
	case "number":
		return edit.NewNumber, nil
	case "checkbox", "bool":
		return edit.NewCheckbox, nil
	case "none":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown editor %q", name)
}

// inferred picks an editor and formatter from the first non-nil value of
// field.
func inferred(items []item.Item, field string, sample int) (column.EditorFactory, column.Formatter) {
	for i, it := range items {
		if i >= sample {
			break
		}
		switch v := it.Get(field).(type) {
		case nil:
			continue
		case bool:
			return edit.NewCheckbox, formatter.Checkmark
		case string:
			return edit.NewText, nil
		default:
			if _, ok := item.Number(v); ok {
				return edit.NewNumber, nil
			}
			return edit.NewText, nil
		}
	}
	return edit.NewText, nil
}

// BuildColumns builds the column schema for fields. Configured columns apply by
// field; configured fields missing from the data are appended. Widths not
// set by configuration are sized from the items.
func (c Config) BuildColumns(fields []string, items []item.Item, comp *filter.Compiler) ([]grid.Column, error) {
	byField := make(map[string]ColumnConfig, len(c.Columns))
	order := append([]string(nil), fields...)
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		seen[f] = true
	}
	for _, cc := range c.Columns {
		byField[cc.Field] = cc
		if !seen[cc.Field] {
			seen[cc.Field] = true
			order = append(order, cc.Field)
		}
	}

	sample := c.Data.WidthSample
	totals := aggregateFields(c.View.Aggregates)
	cols := make([]grid.Column, 0, len(order))
	var errs error
	for _, field := range order {
		cc, configured := byField[field]
		if cc.Hidden {
			continue
		}
		col := grid.NewColumn(field, cc.Name, field)
		col.Sortable = true
		col.MaxWidth = c.Data.MaxColumnWidth
		col.Editor, col.Formatter = inferred(items, field, sample)
		if totals[field] {
			col.GroupTotalsFormatter = formatter.AllTotals
		}
		if configured {
			if err := cc.apply(&col, comp); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("column %q: %w", field, err))
				continue
			}
		}
		if cc.Width == 0 {
			col.Width = col.ClampWidth(formatter.NaturalWidth(items, &col, sample) + 1)
		}
		cols = append(cols, col)
	}
	return cols, errs
}

func (cc ColumnConfig) apply(col *grid.Column, comp *filter.Compiler) error {
	if cc.MinWidth > 0 {
		col.MinWidth = cc.MinWidth
	}
	if cc.MaxWidth > 0 {
		col.MaxWidth = cc.MaxWidth
	}
	if cc.Width > 0 {
		col.Width = col.ClampWidth(cc.Width)
	}
	if cc.Sortable != nil {
		col.Sortable = *cc.Sortable
	}
	if cc.Formatter != "" {
		f, err := formatter.ByName(cc.Formatter)
		if err != nil {
			return err
		}
		col.Formatter = f
	}
	if cc.Editor != "" {
		e, err := editorByName(cc.Editor)
		if err != nil {
			return err
		}
		col.Editor = e
	}
	if cc.Validate != "" {
		v, err := validator(comp, cc.Validate, cc.ValidateMsg)
		if err != nil {
			return err
		}
		col.Validator = v
	}
	return nil
}

// validator compiles a CEL check on the new value, bound to args.
func validator(comp *filter.Compiler, expr, msg string) (column.Validator, error) {
	if comp == nil {
		return nil, errors.New("validation needs a CEL compiler")
	}
	pred, err := comp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	if msg == "" {
		msg = "value must satisfy " + expr
	}
	return func(value any) column.ValidationResult {
		ok, err := pred(item.Item{}, value)
		if err != nil {
			return column.ValidationResult{Msg: err.Error()}
		}
		if !ok {
			return column.ValidationResult{Msg: msg}
		}
		return column.Valid
	}, nil
}

// ApplyView installs the filter, sort, grouping, aggregates and paging of
// the view section on dv inside one transaction.
func (c Config) ApplyView(dv *dataview.DataView, comp *filter.Compiler) error {
	v := c.View
	return dv.WithTransaction(func() error {
		if v.Filter != "" {
			if comp == nil {
				return errors.New("filter needs a CEL compiler")
			}
			pred, err := comp.Compile(v.Filter)
			if err != nil {
				return fmt.Errorf("filter: %w", err)
			}
			if err := dv.SetFilter(dataview.FilterFunc(pred)); err != nil {
				return err
			}
		}
		if v.Sort != "" {
			field, asc, err := ParseSort(v.Sort)
			if err != nil {
				return err
			}
			if err := dv.SortBy(field, asc); err != nil {
				return err
			}
		}
		if len(v.GroupBy) > 0 {
			aggs := make([]aggregate.Aggregator, 0, len(v.Aggregates))
			for _, s := range v.Aggregates {
				agg, err := ParseAggregate(s)
				if err != nil {
					return err
				}
				aggs = append(aggs, agg)
			}
			infos := make([]dataview.GroupingInfo, len(v.GroupBy))
			for i, field := range v.GroupBy {
				infos[i] = dataview.GroupingInfo{
					Field:              field,
					Aggregators:        aggs,
					AggregateCollapsed: true,
					Collapsed:          v.Collapsed,
					Formatter: func(g *dataview.Group) string {
						return field + ": " + item.Key(g.Value)
					},
				}
			}
			if err := dv.SetGrouping(infos...); err != nil {
				return err
			}
		}
		if v.PageSize > 0 {
			return dv.SetPagingOptions(v.PageSize, v.Page)
		}
		return nil
	})
}

// Validate reports every problem of the configuration at once.
func (c Config) Validate() error {
	var errs error
	add := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}
	if c.Grid.RowHeight < 1 {
		add("grid.row_height must be at least 1, got %d", c.Grid.RowHeight)
	}
	if c.Grid.MaxSupportedHeight < c.Grid.RowHeight {
		add("grid.max_supported_height must be at least one row, got %d", c.Grid.MaxSupportedHeight)
	}
	if c.Grid.MinRowBuffer < 0 {
		add("grid.min_row_buffer must not be negative")
	}
	if c.Data.IDField == "" {
		add("data.id_field must not be empty")
	}
	if c.View.PageSize < 0 || c.View.Page < 0 {
		add("view.page_size and view.page must not be negative")
	}
	if c.View.FrozenColumn < -1 {
		add("view.frozen_column must be -1 or a column index, got %d", c.View.FrozenColumn)
	}
	if c.View.Sort != "" {
		if _, _, err := ParseSort(c.View.Sort); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	for _, s := range c.View.Aggregates {
		if _, err := ParseAggregate(s); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	for i, cc := range c.Columns {
		if cc.Field == "" {
			add("columns[%d].field must not be empty", i)
		}
		if cc.Formatter != "" {
			if _, err := formatter.ByName(cc.Formatter); err != nil {
				add("columns[%d]: %w", i, err)
			}
		}
		if _, err := editorByName(cc.Editor); err != nil {
			add("columns[%d]: %w", i, err)
		}
	}
	if c.UI.TickMS <= 0 {
		add("ui.tick_ms must be positive, got %d", c.UI.TickMS)
	}
	if _, ok := c.Theme(); !ok {
		add("ui.theme %q is not defined under themes", c.UI.Theme)
	}
	return errs
}
