package pool

import (
	"context"
	"database/sql"
	"sync"

	"gorm.io/gorm"
)

// Conn is one checked-out physical connection.
type Conn struct {
	pool *Pool
	raw  *sql.Conn
	once sync.Once
}

// Session returns a gorm handle whose statements all run on this connection.
// Transactions begun from it stay on the connection as well.
func (c *Conn) Session(ctx context.Context) *gorm.DB {
	tx := c.pool.db.Session(&gorm.Session{NewDB: true, Context: ctx})
	tx.Statement.ConnPool = c.raw
	return tx
}

// Raw exposes the pinned database/sql connection.
func (c *Conn) Raw() *sql.Conn {
	return c.raw
}

// PoolID is the id of the pool the connection came from.
func (c *Conn) PoolID() string {
	return c.pool.id
}

// Release returns the connection to its pool. Further calls are no-ops.
func (c *Conn) Release() {
	c.once.Do(func() {
		_ = c.raw.Close()
		c.pool.active.Add(-1)
		c.pool.sem.Release(1)
	})
}
