package migration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/Aleph-Alpha/dbkit/v1/logger"
	"github.com/spf13/cast"
)

// Logger is the logging surface the manager needs. *logger.Logger satisfies it.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Manager applies and reverts registered migrations against one driver.
type Manager struct {
	db     Target
	logger Logger

	mu          sync.Mutex
	migrations  []*Migration
	initialized bool
}

// New returns a manager for db. A nil log discards output.
func New(db Target, log Logger) *Manager {
	if log == nil {
		log = logger.NewNop()
	}
	return &Manager{db: db, logger: log}
}

// Init creates the ledger table if it does not exist.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.db.CreateTable(ctx, LedgerTable, []database.ColumnDef{
		{Name: "version", Type: "VARCHAR(255)", PrimaryKey: true, NotNull: true},
		{Name: "description", Type: "TEXT"},
		{Name: "executed_at", Type: "TIMESTAMP", NotNull: true},
	})
	if err != nil {
		return fmt.Errorf("creating %s: %w", LedgerTable, err)
	}
	m.initialized = true
	return nil
}

// Register adds mig, keeping migrations sorted by version.
func (m *Manager) Register(mig Migration) error {
	if mig.Version == "" || mig.Up == nil {
		return fmt.Errorf("%w: version %q", ErrInvalidMigration, mig.Version)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := sort.Search(len(m.migrations), func(i int) bool {
		return m.migrations[i].Version >= mig.Version
	})
	if i < len(m.migrations) && m.migrations[i].Version == mig.Version {
		return fmt.Errorf("%w: %s", ErrDuplicateVersion, mig.Version)
	}

	mig.ExecutedAt = time.Time{}
	m.migrations = append(m.migrations, nil)
	copy(m.migrations[i+1:], m.migrations[i:])
	m.migrations[i] = &mig
	return nil
}

// Migrate runs every pending migration in ascending version order, each in
// its own transaction, and stops at the first failure. It returns the
// versions applied before stopping.
func (m *Manager) Migrate(ctx context.Context) (applied []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	executed, err := m.ledger(ctx)
	if err != nil {
		return nil, err
	}

	for _, mig := range m.migrations {
		if at, ok := executed[mig.Version]; ok {
			mig.ExecutedAt = at
			continue
		}

		now := time.Now().UTC().Truncate(time.Second)
		err := database.RunInTransaction(ctx, m.db, func(ctx context.Context, _ database.Relational) error {
			if err := mig.Up(ctx, m.db); err != nil {
				return err
			}
			_, err := m.db.Update(ctx,
				"INSERT INTO "+LedgerTable+" (version, description, executed_at) VALUES (?, ?, ?)",
				mig.Version, mig.Description, now)
			return err
		})
		if err != nil {
			m.logger.Error("Migration failed", err, map[string]interface{}{"version": mig.Version})
			return applied, fmt.Errorf("migration %s up: %w", mig.Version, err)
		}

		mig.ExecutedAt = now
		applied = append(applied, mig.Version)
		m.logger.Info("Migration applied", nil, map[string]interface{}{
			"version":     mig.Version,
			"description": mig.Description,
		})
	}
	return applied, nil
}

// Rollback reverts the last steps executed migrations, newest first, and
// stops at the first failure. Rollback(ctx, 0) reverts nothing.
func (m *Manager) Rollback(ctx context.Context, steps int) ([]string, error) {
	if steps <= 0 {
		return nil, nil
	}
	return m.rollback(ctx, steps)
}

// RollbackAll reverts every executed migration, newest first.
func (m *Manager) RollbackAll(ctx context.Context) ([]string, error) {
	return m.rollback(ctx, -1)
}

func (m *Manager) rollback(ctx context.Context, steps int) (reverted []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	executed, err := m.ledger(ctx)
	if err != nil {
		return nil, err
	}

	versions := make([]string, 0, len(executed))
	for v := range executed {
		versions = append(versions, v)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(versions)))
	if steps >= 0 && steps < len(versions) {
		versions = versions[:steps]
	}

	for _, v := range versions {
		mig := m.find(v)
		if mig == nil {
			return reverted, fmt.Errorf("migration %s down: %w", v, ErrUnknownMigration)
		}
		if mig.Down == nil {
			return reverted, fmt.Errorf("migration %s down: %w: no down function", v, ErrInvalidMigration)
		}

		err := database.RunInTransaction(ctx, m.db, func(ctx context.Context, _ database.Relational) error {
			if err := mig.Down(ctx, m.db); err != nil {
				return err
			}
			_, err := m.db.Update(ctx, "DELETE FROM "+LedgerTable+" WHERE version = ?", v)
			return err
		})
		if err != nil {
			m.logger.Error("Migration rollback failed", err, map[string]interface{}{"version": v})
			return reverted, fmt.Errorf("migration %s down: %w", v, err)
		}

		mig.ExecutedAt = time.Time{}
		reverted = append(reverted, v)
		m.logger.Info("Migration rolled back", nil, map[string]interface{}{"version": v})
	}
	return reverted, nil
}

// Status reports every registered migration in version order.
func (m *Manager) Status(ctx context.Context) ([]Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	executed, err := m.ledger(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Status, len(m.migrations))
	for i, mig := range m.migrations {
		at, ok := executed[mig.Version]
		mig.ExecutedAt = at
		out[i] = Status{
			Version:     mig.Version,
			Description: mig.Description,
			Executed:    ok,
			ExecutedAt:  at,
		}
	}
	return out, nil
}

// Migrations returns copies of the registered migrations in version order.
func (m *Manager) Migrations() []Migration {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Migration, len(m.migrations))
	for i, mig := range m.migrations {
		out[i] = *mig
	}
	return out
}

func (m *Manager) find(version string) *Migration {
	i := sort.Search(len(m.migrations), func(i int) bool {
		return m.migrations[i].Version >= version
	})
	if i < len(m.migrations) && m.migrations[i].Version == version {
		return m.migrations[i]
	}
	return nil
}

// ledger returns executed versions and their timestamps.
func (m *Manager) ledger(ctx context.Context) (map[string]time.Time, error) {
	if !m.initialized {
		return nil, ErrNotInitialized
	}

	res, err := m.db.Query(ctx, "SELECT version, executed_at FROM "+LedgerTable)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", LedgerTable, err)
	}

	executed := make(map[string]time.Time, res.Len())
	for _, row := range res.All() {
		version := cast.ToString(row["version"])
		at, err := cast.ToTimeE(row["executed_at"])
		if err != nil {
			return nil, fmt.Errorf("reading %s: executed_at of %s: %w", LedgerTable, version, err)
		}
		executed[version] = at
	}
	return executed, nil
}
