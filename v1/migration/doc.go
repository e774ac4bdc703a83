// Package migration applies versioned, reversible schema changes and records
// them in the schema_migrations ledger table.
//
// Each migration runs in its own transaction together with its ledger insert
// (or delete, on rollback), so a failing Up or Down leaves both the schema and
// the ledger as they were. Migrate and Rollback stop at the first failure.
//
//	m := migration.New(drv, log)
//	if err := m.Init(ctx); err != nil {
//		return err
//	}
//	_ = m.Register(migration.Migration{
//		Version:     "001",
//		Description: "create users",
//		Up: func(ctx context.Context, db migration.Target) error {
//			return db.CreateTable(ctx, "users", []database.ColumnDef{{Name: "id", Type: "INTEGER", PrimaryKey: true}})
//		},
//		Down: func(ctx context.Context, db migration.Target) error {
//			return db.DropTable(ctx, "users")
//		},
//	})
//	applied, err := m.Migrate(ctx)
//
// MariaDB commits DDL implicitly, so there a failing migration can leave
// partial schema changes behind even though its ledger row is not written.
package migration
