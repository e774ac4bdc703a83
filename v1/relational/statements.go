package relational

import (
	"context"
	"database/sql"

	"github.com/Aleph-Alpha/dbkit/v1/database"
)

// Query runs a statement that returns rows and materialises them.
func (d *Driver) Query(ctx context.Context, statement string, params ...any) (res *database.Result, err error) {
	ctx, done := d.instrument(ctx, database.OpQuery, statement)
	defer func() {
		var n int64
		if res != nil {
			n = int64(res.Len())
		}
		done(n, err)
	}()

	db, release, err := d.session(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.Raw(statement, params...).Rows()
	if err != nil {
		return nil, d.statementError(statement, err)
	}
	defer rows.Close()

	res, err = scanRows(rows)
	if err != nil {
		return nil, d.statementError(statement, err)
	}
	return res, nil
}

// Update runs a statement that modifies data and returns the affected rows.
func (d *Driver) Update(ctx context.Context, statement string, params ...any) (affected int64, err error) {
	return d.exec(ctx, database.OpUpdate, statement, params...)
}

func (d *Driver) exec(ctx context.Context, operation, statement string, params ...any) (affected int64, err error) {
	ctx, done := d.instrument(ctx, operation, statement)
	defer func() { done(affected, err) }()

	db, release, err := d.session(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	result := db.Exec(statement, params...)
	if result.Error != nil {
		return 0, d.statementError(statement, result.Error)
	}
	return result.RowsAffected, nil
}

// BatchUpdate runs statement once per parameter set. Outside a transaction the
// whole batch runs in its own transaction and is rolled back on the first failure.
func (d *Driver) BatchUpdate(ctx context.Context, statement string, paramSets [][]any) (counts []int64, err error) {
	ctx, done := d.instrument(ctx, database.OpBatchUpdate, statement)
	defer func() {
		var total int64
		for _, c := range counts {
			total += c
		}
		done(total, err)
	}()

	db, release, err := d.session(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	owned := !d.InTransaction()
	if owned {
		db = db.Begin()
		if db.Error != nil {
			return nil, d.statementError(statement, db.Error)
		}
	}

	counts = make([]int64, 0, len(paramSets))
	for _, params := range paramSets {
		result := db.Exec(statement, params...)
		if result.Error != nil {
			if owned {
				db.Rollback()
			}
			return nil, d.statementError(statement, result.Error)
		}
		counts = append(counts, result.RowsAffected)
	}

	if owned {
		if err := db.Commit().Error; err != nil {
			return nil, d.statementError(statement, err)
		}
	}
	return counts, nil
}

// scanRows reads every row into a Result. Byte slices become strings so that
// text columns look the same on every engine.
func scanRows(rows *sql.Rows) (*database.Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []database.Row
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(database.Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return database.NewResult(columns, out), nil
}

// scalar runs a single-value query and returns it as int64.
func (d *Driver) scalar(ctx context.Context, statement string, params ...any) (int64, error) {
	res, err := d.Query(ctx, statement, params...)
	if err != nil {
		return 0, err
	}
	cols := res.Columns()
	if len(cols) == 0 {
		return 0, nil
	}
	n, _ := database.ColumnOne[int64](res, cols[0])
	return n, nil
}
