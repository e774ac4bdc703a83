package query

import (
	"strconv"
	"strings"
)

type fragment struct {
	text   string
	params []any
}

// Builder accumulates a SELECT statement. The zero value is an empty builder;
// it is not safe for concurrent use.
type Builder struct {
	columns []string
	tables  []string
	joins   []fragment
	where   Conditions
	groupBy []string
	having  []fragment
	orderBy []string
	limit   int
	offset  int

	hasLimit  bool
	hasOffset bool
}

// New returns an empty Builder.
func New() *Builder {
	b := &Builder{}
	b.Reset()
	return b
}

// Select appends result columns. Without any, the statement selects *.
func (b *Builder) Select(columns ...string) *Builder {
	b.columns = append(b.columns, columns...)
	return b
}

// From appends source tables.
func (b *Builder) From(tables ...string) *Builder {
	b.tables = append(b.tables, tables...)
	return b
}

// Join appends "JOIN <clause>", e.g. Join("orders o ON o.user_id = u.id").
func (b *Builder) Join(clause string, params ...any) *Builder {
	b.joins = append(b.joins, fragment{text: "JOIN " + clause, params: params})
	return b
}

// LeftJoin appends "LEFT JOIN <clause>".
func (b *Builder) LeftJoin(clause string, params ...any) *Builder {
	b.joins = append(b.joins, fragment{text: "LEFT JOIN " + clause, params: params})
	return b
}

// Where adds a predicate; see Conditions.Where.
func (b *Builder) Where(predicate string, params ...any) *Builder {
	b.where.Where(predicate, params...)
	return b
}

// And adds a predicate joined with AND.
func (b *Builder) And(predicate string, params ...any) *Builder {
	b.where.And(predicate, params...)
	return b
}

// Or adds a predicate joined with OR.
func (b *Builder) Or(predicate string, params ...any) *Builder {
	b.where.Or(predicate, params...)
	return b
}

// WhereConditions adds a prepared Conditions as one parenthesised predicate.
func (b *Builder) WhereConditions(c *Conditions) *Builder {
	b.where.AndGroup(c)
	return b
}

// GroupBy appends grouping columns.
func (b *Builder) GroupBy(columns ...string) *Builder {
	b.groupBy = append(b.groupBy, columns...)
	return b
}

// Having appends a HAVING predicate; several are joined with AND.
func (b *Builder) Having(predicate string, params ...any) *Builder {
	b.having = append(b.having, fragment{text: predicate, params: params})
	return b
}

// OrderBy appends ordering terms such as "created_at DESC".
func (b *Builder) OrderBy(terms ...string) *Builder {
	b.orderBy = append(b.orderBy, terms...)
	return b
}

// Limit sets the row limit. Negative values remove it.
func (b *Builder) Limit(n int) *Builder {
	b.limit, b.hasLimit = n, n >= 0
	return b
}

// Offset sets the row offset. Negative values remove it.
func (b *Builder) Offset(n int) *Builder {
	b.offset, b.hasOffset = n, n >= 0
	return b
}

// Build renders the statement and its parameters. The builder keeps its state.
func (b *Builder) Build() (string, []any) {
	var (
		sb     strings.Builder
		params []any
	)

	sb.WriteString("SELECT ")
	if len(b.columns) == 0 {
		sb.WriteString("*")
	} else {
		sb.WriteString(strings.Join(b.columns, ", "))
	}

	if len(b.tables) > 0 {
		sb.WriteString(" FROM ")
		sb.WriteString(strings.Join(b.tables, ", "))
	}

	for _, j := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(j.text)
		params = append(params, j.params...)
	}

	if !b.where.IsEmpty() {
		sb.WriteString(" WHERE ")
		sb.WriteString(b.where.String())
		params = append(params, b.where.params...)
	}

	if len(b.groupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(b.groupBy, ", "))
	}

	if len(b.having) > 0 {
		parts := make([]string, len(b.having))
		for i, h := range b.having {
			parts[i] = h.text
			params = append(params, h.params...)
		}
		sb.WriteString(" HAVING ")
		sb.WriteString(strings.Join(parts, " AND "))
	}

	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}

	if b.hasLimit {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(b.limit))
	}
	if b.hasOffset {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(b.offset))
	}

	return sb.String(), params
}

// Reset clears every clause so the builder can be reused.
func (b *Builder) Reset() *Builder {
	b.columns = nil
	b.tables = nil
	b.joins = nil
	b.where.Reset()
	b.groupBy = nil
	b.having = nil
	b.orderBy = nil
	b.limit, b.hasLimit = 0, false
	b.offset, b.hasOffset = 0, false
	return b
}
