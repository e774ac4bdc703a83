// Package database defines the driver contract shared by every dbkit backend.
//
// A backend implements Driver, the lifecycle and backup surface every engine
// has, plus whichever capability interfaces it can honour:
//
//   - Relational: parameterised queries, updates, batches and transactions
//   - SchemaEditor: DDL and catalog introspection
//   - Maintainer: table sizes, row counts and table optimisation
//   - KeyValue: key scans, pipelines and single-key access
//   - DocumentStore: collection-level document operations
//
// Callers ask for a capability instead of calling methods that might not apply:
//
//	rel, err := database.AsRelational(drv)
//	if err != nil {
//	    // errors.Is(err, database.ErrUnsupportedOperation)
//	}
//	res, err := rel.Query(ctx, "SELECT id, name FROM users WHERE active = ?", true)
//
// Statement failures are returned as *StatementError, which keeps the statement
// text and, when the dialect recognises the failure, also matches ErrDuplicateKey,
// ErrForeignKey or ErrRetryable through errors.Is.
//
// Result rows are maps from column name to value. Column, ColumnOne and Map
// project them with scalar coercion from package schema.
package database
