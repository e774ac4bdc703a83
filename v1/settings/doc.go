// Package settings loads versioned YAML settings files and upgrades them
// through a graph of config migrations.
//
// Every file carries a version under "config-version". When a file is older
// than the build expects, Loader.Load copies it to
// {dir}/backups/{name}_{yyyyMMdd_HHmmss}.yml, asks the Migrator for a chain of
// migrations from the file's version to the current one and applies them in
// order. If any hop fails the file and its version are left untouched.
//
//	m := settings.NewMigrator("", log)
//	mig, _ := settings.NewMigration(1, 2, "rename db.type", func(t settings.Tree) error {
//		t.Rename("db.type", "database.type")
//		return nil
//	})
//	_ = m.Register(mig)
//
//	tree, err := settings.NewLoader("config.yml", 2, fields, m, log).Load()
//
// Several migrations may start at the same version. FindPath searches depth
// first, trying the lowest target version first and never overshooting the
// requested version.
package settings
