package database

import (
	"fmt"

	"github.com/Aleph-Alpha/dbkit/v1/schema"
)

// Row is one result row keyed by column name.
type Row map[string]any

// Result is the materialised outcome of a query. It is not modified after
// construction and can be cached and shared.
type Result struct {
	columns []string
	rows    []Row
}

// NewResult builds a Result. Every row is expected to carry the same columns.
func NewResult(columns []string, rows []Row) *Result {
	return &Result{
		columns: append([]string(nil), columns...),
		rows:    append([]Row(nil), rows...),
	}
}

// EmptyResult has no columns and no rows.
func EmptyResult() *Result {
	return &Result{}
}

func (r *Result) IsEmpty() bool { return len(r.rows) == 0 }

func (r *Result) Len() int { return len(r.rows) }

// Columns returns the column names in statement order.
func (r *Result) Columns() []string {
	return append([]string(nil), r.columns...)
}

// First returns the first row, if any.
func (r *Result) First() (Row, bool) {
	if len(r.rows) == 0 {
		return nil, false
	}
	return r.rows[0], true
}

// All returns every row in order.
func (r *Result) All() []Row {
	return append([]Row(nil), r.rows...)
}

// Column collects one column across all rows, coerced to T. Rows where the
// value is missing, NULL or not convertible are skipped.
func Column[T any](r *Result, name string) []T {
	out := make([]T, 0, len(r.rows))
	for _, row := range r.rows {
		v, ok := row[name]
		if !ok || v == nil {
			continue
		}
		converted, err := schema.Convert[T](v)
		if err != nil {
			continue
		}
		out = append(out, converted)
	}
	return out
}

// ColumnOne returns the named column of the first row, coerced to T.
func ColumnOne[T any](r *Result, name string) (T, bool) {
	var zero T
	row, ok := r.First()
	if !ok {
		return zero, false
	}
	v, ok := row[name]
	if !ok || v == nil {
		return zero, false
	}
	converted, err := schema.Convert[T](v)
	if err != nil {
		return zero, false
	}
	return converted, true
}

// Map projects every row through shape. Absent or NULL columns keep the field's
// default, or the zero value when there is none.
func Map[T any](r *Result, shape schema.Shape[T]) ([]T, error) {
	if shape.New == nil {
		return nil, fmt.Errorf("%w: shape has no constructor", ErrMapping)
	}

	out := make([]T, 0, len(r.rows))
	for i, row := range r.rows {
		item := shape.New()
		for _, binding := range shape.Fields {
			v, ok := row[binding.Name]
			if !ok || v == nil {
				if binding.Default != nil {
					if def, err := binding.Coerce(binding.Default); err == nil {
						binding.Set(&item, def)
					}
				}
				continue
			}
			coerced, err := binding.Coerce(v)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: %v", ErrMapping, i, err)
			}
			binding.Set(&item, coerced)
		}
		out = append(out, item)
	}
	return out, nil
}
