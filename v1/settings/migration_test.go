package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hop(t *testing.T, from, to int, fn func(Tree) error) Migration {
	t.Helper()
	if fn == nil {
		fn = func(Tree) error { return nil }
	}
	m, err := NewMigration(from, to, "", fn)
	require.NoError(t, err)
	return m
}

func versions(path []Migration) []string {
	out := make([]string, len(path))
	for i, m := range path {
		out[i] = m.String()
	}
	return out
}

func TestNewMigrationRejectsNonForward(t *testing.T) {
	_, err := NewMigration(2, 2, "", func(Tree) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidMigration)

	_, err = NewMigration(3, 1, "", func(Tree) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidMigration)

	_, err = NewMigration(1, 2, "", nil)
	assert.ErrorIs(t, err, ErrInvalidMigration)

	m := NewMigrator("", nil)
	assert.ErrorIs(t, m.Register(Migration{From: 1, To: 2}), ErrInvalidMigration)
}

func TestFindPath(t *testing.T) {
	m := NewMigrator("", nil)
	require.NoError(t, m.Register(hop(t, 2, 3, nil)))
	require.NoError(t, m.Register(hop(t, 1, 2, nil)))

	assert.Equal(t, []string{"1->2", "2->3"}, versions(m.FindPath(1, 3)))

	same := m.FindPath(3, 3)
	assert.NotNil(t, same)
	assert.Empty(t, same)

	assert.Nil(t, m.FindPath(5, 3))
	assert.Nil(t, m.FindPath(1, 4))
}

func TestFindPathBacktracks(t *testing.T) {
	m := NewMigrator("", nil)
	// 1->2 is tried first but leads nowhere near 5
	require.NoError(t, m.Register(hop(t, 1, 2, nil)))
	require.NoError(t, m.Register(hop(t, 2, 3, nil)))
	require.NoError(t, m.Register(hop(t, 1, 4, nil)))
	require.NoError(t, m.Register(hop(t, 4, 5, nil)))
	// overshoots the target and must be pruned
	require.NoError(t, m.Register(hop(t, 1, 6, nil)))

	assert.Equal(t, []string{"1->4", "4->5"}, versions(m.FindPath(1, 5)))
	assert.Equal(t, []string{"1->2", "2->3"}, versions(m.FindPath(1, 3)))
}

func TestRunAppliesHopsAndStamps(t *testing.T) {
	m := NewMigrator("", nil)
	require.NoError(t, m.Register(hop(t, 1, 2, func(tree Tree) error {
		tree.Rename("db.type", "database.type")
		return nil
	})))
	require.NoError(t, m.Register(hop(t, 2, 3, func(tree Tree) error {
		tree.Set("database.pool-size", 10)
		return nil
	})))

	tree := Tree{"config-version": 1, "db": map[string]any{"type": "sqlite"}}
	out, err := m.Run("", tree, 3)
	require.NoError(t, err)

	v, _ := out.Get("config-version")
	assert.Equal(t, 3, v)
	typ, _ := out.Get("database.type")
	assert.Equal(t, "sqlite", typ)
	size, _ := out.Get("database.pool-size")
	assert.Equal(t, 10, size)

	// the input is untouched
	_, ok := tree.Get("database.type")
	assert.False(t, ok)
}

func TestRunFailureLeavesVersion(t *testing.T) {
	boom := errors.New("boom")
	m := NewMigrator("", nil)
	require.NoError(t, m.Register(hop(t, 1, 2, func(tree Tree) error {
		tree.Set("touched", true)
		return nil
	})))
	require.NoError(t, m.Register(hop(t, 2, 3, func(Tree) error { return boom })))

	tree := Tree{"config-version": 1}
	out, err := m.Run("", tree, 3)
	assert.ErrorIs(t, err, boom)

	v, _ := out.Get("config-version")
	assert.Equal(t, 1, v)
	_, touched := out.Get("touched")
	assert.False(t, touched)
}

func TestRunWithoutPath(t *testing.T) {
	m := NewMigrator("", nil)
	_, err := m.Run("", Tree{"config-version": 1}, 2)
	assert.ErrorIs(t, err, ErrNoMigrationPath)

	out, err := m.Run("", Tree{"config-version": 4}, 2)
	require.NoError(t, err)
	v, _ := out.Get("config-version")
	assert.Equal(t, 4, v)
}

func TestRunBacksUpFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("config-version: 1\n"), 0o600))

	m := NewMigrator("version", nil)
	m.now = func() time.Time { return time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC) }
	require.NoError(t, m.Register(hop(t, 1, 2, nil)))

	_, err := m.Run(path, Tree{"version": 1}, 2)
	require.NoError(t, err)

	backup, err := os.ReadFile(filepath.Join(dir, "backups", "config_20240305_140709.yml"))
	require.NoError(t, err)
	assert.Equal(t, "config-version: 1\n", string(backup))
}

func TestRunBacksUpBeforeLookingUpPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("config-version: 1\n"), 0o600))

	m := NewMigrator("", nil)
	m.now = func() time.Time { return time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC) }

	_, err := m.Run(path, Tree{"config-version": "01"}, 3)
	assert.ErrorIs(t, err, ErrNoMigrationPath)

	backup, err := os.ReadFile(filepath.Join(dir, "backups", "config_20240305_140709.yml"))
	require.NoError(t, err)
	assert.Equal(t, "config-version: 1\n", string(backup))
}
