package database

import (
	"context"
	"fmt"
)

// Outcome carries the value or error of an asynchronous call.
type Outcome[T any] struct {
	Value T
	Err   error
}

// AsyncQuery runs Query on its own goroutine. The channel receives exactly one
// Outcome and is then closed.
func AsyncQuery(ctx context.Context, r Relational, statement string, params ...any) <-chan Outcome[*Result] {
	out := make(chan Outcome[*Result], 1)
	go func() {
		defer close(out)
		res, err := r.Query(ctx, statement, params...)
		out <- Outcome[*Result]{Value: res, Err: err}
	}()
	return out
}

// AsyncUpdate runs Update on its own goroutine.
func AsyncUpdate(ctx context.Context, r Relational, statement string, params ...any) <-chan Outcome[int64] {
	out := make(chan Outcome[int64], 1)
	go func() {
		defer close(out)
		n, err := r.Update(ctx, statement, params...)
		out <- Outcome[int64]{Value: n, Err: err}
	}()
	return out
}

// AsyncTransaction runs RunInTransaction on its own goroutine.
func AsyncTransaction(ctx context.Context, r Relational, fn func(ctx context.Context, tx Relational) error) <-chan error {
	out := make(chan error, 1)
	go func() {
		defer close(out)
		out <- RunInTransaction(ctx, r, fn)
	}()
	return out
}

// RunInTransaction begins a transaction, runs fn and commits, rolling back when
// fn fails or panics. When r already has an open transaction fn joins it and
// the outer owner decides whether to commit.
func RunInTransaction(ctx context.Context, r Relational, fn func(ctx context.Context, tx Relational) error) (err error) {
	if r.InTransaction() {
		return fn(ctx, r)
	}

	if err := r.BeginTransaction(ctx); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = r.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx, r); err != nil {
		if rbErr := r.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}

	if err := r.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
