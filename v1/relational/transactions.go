package relational

import (
	"context"
	"fmt"

	"github.com/Aleph-Alpha/dbkit/v1/database"
)

// BeginTransaction pins a connection and opens a transaction on it. The
// transaction outlives ctx; it ends with Commit, Rollback or Disconnect.
func (d *Driver) BeginTransaction(ctx context.Context) (err error) {
	_, done := d.instrument(ctx, database.OpBegin, "")
	defer func() { done(0, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return fmt.Errorf("%w: %s", database.ErrNotConnected, d.name)
	}
	if d.tx != nil {
		return nil
	}

	conn, err := d.pools.Acquire(ctx, d.poolID)
	if err != nil {
		return err
	}

	tx := conn.Session(context.WithoutCancel(ctx)).Begin()
	if tx.Error != nil {
		conn.Release()
		return d.statementError("BEGIN", tx.Error)
	}

	d.txConn = conn
	d.tx = tx
	return nil
}

// Commit commits the open transaction. Without one it does nothing.
func (d *Driver) Commit(ctx context.Context) (err error) {
	_, done := d.instrument(ctx, database.OpCommit, "")
	defer func() { done(0, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tx == nil {
		return nil
	}
	err = d.tx.Commit().Error
	d.releaseTxLocked()
	if err != nil {
		return d.statementError("COMMIT", err)
	}
	return nil
}

// Rollback aborts the open transaction. Without one it does nothing.
func (d *Driver) Rollback(ctx context.Context) (err error) {
	_, done := d.instrument(ctx, database.OpRollback, "")
	defer func() { done(0, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tx == nil {
		return nil
	}
	err = d.tx.Rollback().Error
	d.releaseTxLocked()
	if err != nil {
		return d.statementError("ROLLBACK", err)
	}
	return nil
}

// InTransaction reports whether a transaction is open on this driver.
func (d *Driver) InTransaction() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tx != nil
}

func (d *Driver) releaseTxLocked() {
	if d.txConn != nil {
		d.txConn.Release()
	}
	d.txConn = nil
	d.tx = nil
}
