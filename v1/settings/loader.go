package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/Aleph-Alpha/dbkit/v1/logger"
	"github.com/Aleph-Alpha/dbkit/v1/schema"
	"gopkg.in/yaml.v3"
)

// Loader reads a YAML settings file, migrates it to the current version and
// repairs fields that are missing or invalid.
type Loader struct {
	path     string
	version  int
	fields   []schema.Field
	migrator *Migrator
	logger   Logger
}

// NewLoader returns a loader for the file at path. version is the settings
// version this build expects; fields describe the values to check. A nil
// migrator uses an empty one with the default version key.
func NewLoader(path string, version int, fields []schema.Field, migrator *Migrator, log Logger) *Loader {
	if log == nil {
		log = logger.NewNop()
	}
	if migrator == nil {
		migrator = NewMigrator("", log)
	}
	return &Loader{
		path:     path,
		version:  version,
		fields:   fields,
		migrator: migrator,
		logger:   log,
	}
}

// Load returns the settings tree. A missing file yields a tree of defaults,
// which is written to disk. The file is rewritten whenever migration or
// repair changed the tree.
func (l *Loader) Load() (Tree, error) {
	tree, existed, err := l.read()
	if err != nil {
		return nil, err
	}

	changed := !existed
	if existed {
		before, err := l.migrator.Version(tree)
		if err != nil {
			return nil, err
		}
		tree, err = l.migrator.Run(l.path, tree, l.version)
		if err != nil {
			return nil, err
		}
		after, _ := l.migrator.Version(tree)
		changed = after != before
	} else {
		tree.Set(l.migrator.VersionKey(), l.version)
	}

	if l.heal(tree) {
		changed = true
	}

	if changed {
		if err := l.Save(tree); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

// Save writes tree to the loader's file through a temporary file and rename.
func (l *Loader) Save(tree Tree) error {
	out, err := yaml.Marshal(map[string]any(tree))
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o750); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

func (l *Loader) read() (Tree, bool, error) {
	raw, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return Tree{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading settings: %w", err)
	}

	tree := Tree{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, false, fmt.Errorf("parsing settings %s: %w", l.path, err)
	}
	if tree == nil {
		tree = Tree{}
	}
	return tree, true, nil
}

// heal fills absent fields with their defaults and stores coerced values.
// Invalid required fields are reset to their default; invalid optional ones
// are kept and only logged. It reports whether the tree changed.
func (l *Loader) heal(tree Tree) bool {
	changed := false
	for _, f := range l.fields {
		v, ok := tree.Get(f.Name)
		if !ok || v == nil {
			if f.Default != nil {
				tree.Set(f.Name, f.Default)
				changed = true
			} else if f.Required {
				l.logger.Warn("Required setting is missing and has no default", nil, map[string]interface{}{"field": f.Name})
			}
			continue
		}

		coerced, err := f.Coerce(v)
		if err != nil {
			if f.Required && f.Default != nil {
				l.logger.Warn("Invalid setting reset to default", err, map[string]interface{}{
					"field":   f.Name,
					"default": f.Default,
				})
				tree.Set(f.Name, f.Default)
				changed = true
			} else {
				l.logger.Warn("Invalid setting", err, map[string]interface{}{"field": f.Name})
			}
			continue
		}

		if !reflect.DeepEqual(coerced, v) {
			tree.Set(f.Name, coerced)
			changed = true
		}
	}
	return changed
}
