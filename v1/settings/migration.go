package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/Aleph-Alpha/dbkit/v1/logger"
	"github.com/Aleph-Alpha/dbkit/v1/schema"
)

// DefaultVersionKey is the top-level key holding a settings file's version.
const DefaultVersionKey = "config-version"

const backupLayout = "20060102_150405"

var (
	// ErrInvalidMigration is returned by NewMigration unless From < To.
	ErrInvalidMigration = errors.New("invalid config migration")

	// ErrNoMigrationPath is returned by Run when no chain of registered
	// migrations leads from the file's version to the target.
	ErrNoMigrationPath = errors.New("no config migration path")
)

// Logger is the logging surface of this package. *logger.Logger satisfies it.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Migration upgrades a settings tree from one version to a later one.
type Migration struct {
	From        int
	To          int
	Description string
	apply       func(Tree) error
}

// NewMigration returns a migration from one version to a later one.
func NewMigration(from, to int, description string, apply func(Tree) error) (Migration, error) {
	if to <= from {
		return Migration{}, fmt.Errorf("%w: %d -> %d does not move forward", ErrInvalidMigration, from, to)
	}
	if apply == nil {
		return Migration{}, fmt.Errorf("%w: %d -> %d has no apply function", ErrInvalidMigration, from, to)
	}
	return Migration{From: from, To: to, Description: description, apply: apply}, nil
}

// Apply runs the migration on tree in place.
func (m Migration) Apply(tree Tree) error {
	if m.apply == nil {
		return fmt.Errorf("%w: %d -> %d has no apply function", ErrInvalidMigration, m.From, m.To)
	}
	return m.apply(tree)
}

func (m Migration) String() string {
	return fmt.Sprintf("%d->%d", m.From, m.To)
}

// Migrator holds the version graph of config migrations. Several migrations
// may start at the same version; FindPath picks among them.
type Migrator struct {
	versionKey string
	logger     Logger
	now        func() time.Time

	mu     sync.RWMutex
	byFrom map[int][]Migration
}

// NewMigrator returns an empty migrator. An empty versionKey selects
// DefaultVersionKey and a nil log discards output.
func NewMigrator(versionKey string, log Logger) *Migrator {
	if versionKey == "" {
		versionKey = DefaultVersionKey
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Migrator{
		versionKey: versionKey,
		logger:     log,
		now:        time.Now,
		byFrom:     make(map[int][]Migration),
	}
}

// VersionKey is the key Run reads and stamps.
func (m *Migrator) VersionKey() string { return m.versionKey }

// Register adds mig to the graph. Migrations built without NewMigration are rejected.
func (m *Migrator) Register(mig Migration) error {
	if mig.To <= mig.From || mig.apply == nil {
		return fmt.Errorf("%w: %s", ErrInvalidMigration, mig)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	edges := append(m.byFrom[mig.From], mig)
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].To < edges[j].To })
	m.byFrom[mig.From] = edges
	return nil
}

// FindPath returns the migrations leading from one version to another. The
// search is depth first and tries lower target versions first. It returns an
// empty path when from == to and nil when no path exists, including every
// downgrade.
func (m *Migrator) FindPath(from, to int) []Migration {
	if from == to {
		return []Migration{}
	}
	if from > to {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.search(from, to, nil)
}

// search never mutates its arguments; each level extends a fresh visited list.
func (m *Migrator) search(from, to int, visited []int) []Migration {
	if from == to {
		return []Migration{}
	}
	for _, v := range visited {
		if v == from {
			return nil
		}
	}
	visited = append(visited[:len(visited):len(visited)], from)

	for _, edge := range m.byFrom[from] {
		if edge.To > to {
			break
		}
		if rest := m.search(edge.To, to, visited); rest != nil {
			return append([]Migration{edge}, rest...)
		}
	}
	return nil
}

// Version reads the version stamped in tree. A tree without one is version 0.
func (m *Migrator) Version(tree Tree) (int, error) {
	v, ok := tree.Get(m.versionKey)
	if !ok || v == nil {
		return 0, nil
	}
	n, err := schema.Convert[int](v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", m.versionKey, err)
	}
	return n, nil
}

// Run brings tree up to target. When path names the file tree was read from
// and the tree is behind, the file is first copied to
// {dir}/backups/{name}_{yyyyMMdd_HHmmss}.yml, before the migration path is
// looked up. Hops run on a copy: if one fails
// the original tree is returned unchanged together with the error. A tree at or
// beyond target is returned as is.
func (m *Migrator) Run(path string, tree Tree, target int) (Tree, error) {
	current, err := m.Version(tree)
	if err != nil {
		return tree, err
	}
	if current == target {
		return tree, nil
	}
	if current > target {
		m.logger.Warn("Settings file is newer than this build; leaving it untouched", nil, map[string]interface{}{
			"file":    path,
			"version": current,
			"target":  target,
		})
		return tree, nil
	}

	if path != "" {
		backup, err := m.backup(path)
		if err != nil {
			return tree, err
		}
		if backup != "" {
			m.logger.Info("Settings file backed up before migration", nil, map[string]interface{}{"backup": backup})
		}
	}

	hops := m.FindPath(current, target)
	if hops == nil {
		return tree, fmt.Errorf("%w: %d -> %d", ErrNoMigrationPath, current, target)
	}

	next := tree.Clone()
	for _, hop := range hops {
		if err := hop.Apply(next); err != nil {
			m.logger.Error("Config migration failed", err, map[string]interface{}{
				"file": path,
				"hop":  hop.String(),
			})
			return tree, fmt.Errorf("config migration %s: %w", hop, err)
		}
		m.logger.Info("Config migration applied", nil, map[string]interface{}{
			"hop":         hop.String(),
			"description": hop.Description,
		})
	}

	next.Set(m.versionKey, target)
	return next, nil
}

// backup copies path into the backups directory next to it. A missing file
// needs no backup.
func (m *Migrator) backup(path string) (string, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return "", nil
	}

	dir := filepath.Join(filepath.Dir(path), "backups")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating settings backup directory: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	target := filepath.Join(dir, fmt.Sprintf("%s_%s.yml", name, m.now().Format(backupLayout)))
	if err := database.CopyFile(path, target); err != nil {
		return "", fmt.Errorf("backing up settings: %w", err)
	}
	return target, nil
}
