// Package relational is the SQL driver shared by the sqlite, mariadb and
// postgres packages.
//
// Driver implements database.Relational, database.SchemaEditor and
// database.Maintainer on top of gorm and a pool.Registry. Everything that
// differs between engines, such as identifier quoting, column rendering, size
// queries, error classification and backup tooling, lives behind the Dialect
// interface.
//
// Outside a transaction every call checks out its own connection and returns
// it before returning. BeginTransaction pins one connection to the driver until
// Commit or Rollback; a driver instance therefore supports one transaction at a
// time.
//
// Statements use "?" placeholders on every engine; gorm rewrites them into the
// engine's bind variables.
package relational
