// Package postgres is the PostgreSQL backend.
//
// It plugs gorm.io/driver/postgres (pgx) into the shared relational driver.
// Auto-increment keys become identity columns, sizes come from
// pg_database_size and pg_total_relation_size, OptimizeTable runs VACUUM ANALYZE
// and backups shell out to pg_dump and psql. pgconn errors are classified by
// SQLSTATE:
//
//	_, err := drv.Update(ctx, "INSERT INTO users (email) VALUES (?)", email)
//	if errors.Is(err, database.ErrDuplicateKey) {
//	    // 23505
//	}
package postgres
