// Package mongodb is the document backend of dbkit.
//
// Collections stand in for tables: CreateTable creates a collection, Tables
// lists them and CreateIndex builds an ascending index over the named keys.
// Column-level DDL and relational statements are not available.
//
//	drv := mongodb.NewDriver("events", mongodb.Config{Host: "localhost", Database: "app"}, log)
//	if err := drv.Connect(ctx); err != nil {
//		return err
//	}
//
//	id, err := drv.InsertOne(ctx, "events", database.Document{"type": "login", "user": 42})
//	docs, err := drv.Find(ctx, "events", database.Document{"user": 42}, 10)
//	n, err := drv.UpdateMany(ctx, "events",
//		database.Document{"type": "login"},
//		database.Document{"$set": database.Document{"seen": true}})
//
// Backup and Restore shell out to mongodump and mongorestore with gzipped
// archives.
package mongodb
