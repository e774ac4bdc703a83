package migration

import (
	"context"
	"errors"
	"time"

	"github.com/Aleph-Alpha/dbkit/v1/database"
)

// LedgerTable records executed migrations.
const LedgerTable = "schema_migrations"

var (
	// ErrInvalidMigration is returned by Register for a migration without a
	// version or an Up function.
	ErrInvalidMigration = errors.New("invalid migration")

	// ErrDuplicateVersion is returned by Register when the version is taken.
	ErrDuplicateVersion = errors.New("migration version already registered")

	// ErrUnknownMigration is returned by Rollback when the ledger holds a
	// version that was never registered, so it has no Down to run.
	ErrUnknownMigration = errors.New("migration not registered")

	// ErrNotInitialized is returned before Init created the ledger.
	ErrNotInitialized = errors.New("migration ledger not initialized")
)

// Target is what migrations run against: a SQL driver with DDL support.
type Target interface {
	database.Relational
	database.SchemaEditor
}

// Func is one direction of a migration. It runs inside a transaction that
// also records the ledger change.
type Func func(ctx context.Context, db Target) error

// Migration is one versioned schema change. Versions are ordered as strings,
// so use a scheme that sorts lexicographically, e.g. "001", "002" or
// "20240101_1200".
type Migration struct {
	Version     string
	Description string
	Up          Func
	// Down may be nil for irreversible migrations; rolling one back fails.
	Down Func

	// ExecutedAt is set when Up succeeds and cleared when Down succeeds.
	ExecutedAt time.Time
}

// Executed reports whether the migration is applied.
func (m *Migration) Executed() bool {
	return !m.ExecutedAt.IsZero()
}

// Status is one registered migration as seen in the ledger.
type Status struct {
	Version     string
	Description string
	Executed    bool
	ExecutedAt  time.Time
}
