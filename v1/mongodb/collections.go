package mongodb

import (
	"context"
	"fmt"
	"sort"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateTable creates the collection. Columns are ignored because documents
// are schemaless. Creating an existing collection succeeds.
func (d *Driver) CreateTable(ctx context.Context, table string, _ []database.ColumnDef) (err error) {
	db, err := d.database()
	if err != nil {
		return err
	}

	ctx, done := d.instrument(ctx, database.OpDDL, table)
	defer func() { done(0, err) }()

	if err := db.CreateCollection(ctx, table); err != nil && !isNamespaceExists(err) {
		return translate("create", table, err)
	}
	return nil
}

func (d *Driver) DropTable(ctx context.Context, table string) (err error) {
	db, err := d.database()
	if err != nil {
		return err
	}

	ctx, done := d.instrument(ctx, database.OpDDL, table)
	defer func() { done(0, err) }()

	return translate("drop", table, db.Collection(table).Drop(ctx))
}

func (d *Driver) TableExists(ctx context.Context, table string) (bool, error) {
	db, err := d.database()
	if err != nil {
		return false, err
	}

	names, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: table}})
	if err != nil {
		return false, translate("list_collections", table, err)
	}
	return len(names) > 0, nil
}

// Tables lists the collections, sorted, without system collections.
func (d *Driver) Tables(ctx context.Context) ([]string, error) {
	db, err := d.database()
	if err != nil {
		return nil, err
	}

	filter := bson.D{{Key: "name", Value: bson.D{{Key: "$not", Value: primitive.Regex{Pattern: "^system\\."}}}}}
	names, err := db.ListCollectionNames(ctx, filter)
	if err != nil {
		return nil, translate("list_collections", "", err)
	}
	sort.Strings(names)
	return names, nil
}

// TableSchema is not available for schemaless collections.
func (d *Driver) TableSchema(context.Context, string) ([]database.ColumnInfo, error) {
	return nil, database.Unsupported(d, "TableSchema")
}

func (d *Driver) AddColumn(context.Context, string, database.ColumnDef) error {
	return database.Unsupported(d, "AddColumn")
}

func (d *Driver) DropColumn(context.Context, string, string) error {
	return database.Unsupported(d, "DropColumn")
}

// CreateIndex creates an ascending index over the given keys.
func (d *Driver) CreateIndex(ctx context.Context, table, index string, columns []string, unique bool) (err error) {
	if len(columns) == 0 {
		return fmt.Errorf("index %s: no keys", index)
	}

	db, err := d.database()
	if err != nil {
		return err
	}

	ctx, done := d.instrument(ctx, database.OpDDL, table)
	defer func() { done(0, err) }()

	keys := make(bson.D, len(columns))
	for i, c := range columns {
		keys[i] = bson.E{Key: c, Value: 1}
	}

	_, err = db.Collection(table).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetName(index).SetUnique(unique),
	})
	return translate("create_index", table, err)
}

func (d *Driver) DropIndex(ctx context.Context, table, index string) (err error) {
	db, err := d.database()
	if err != nil {
		return err
	}

	ctx, done := d.instrument(ctx, database.OpDDL, table)
	defer func() { done(0, err) }()

	_, err = db.Collection(table).Indexes().DropOne(ctx, index)
	return translate("drop_index", table, err)
}

// DatabaseSize reports dbStats.dataSize in bytes.
func (d *Driver) DatabaseSize(ctx context.Context) (int64, error) {
	db, err := d.database()
	if err != nil {
		return 0, err
	}
	return statField(ctx, db, bson.D{{Key: "dbStats", Value: 1}}, "dataSize")
}

// TableSize reports collStats.size in bytes.
func (d *Driver) TableSize(ctx context.Context, table string) (int64, error) {
	db, err := d.database()
	if err != nil {
		return 0, err
	}
	return statField(ctx, db, bson.D{{Key: "collStats", Value: table}}, "size")
}

func (d *Driver) RowCount(ctx context.Context, table string) (count int64, err error) {
	db, err := d.database()
	if err != nil {
		return 0, err
	}

	ctx, done := d.instrument(ctx, "count", table)
	defer func() { done(count, err) }()

	count, err = db.Collection(table).CountDocuments(ctx, bson.D{})
	return count, translate("count", table, err)
}

// OptimizeTable does nothing; the storage engine compacts on its own.
func (d *Driver) OptimizeTable(context.Context, string) error {
	return nil
}

func statField(ctx context.Context, db *mongo.Database, command bson.D, field string) (int64, error) {
	var stats bson.M
	if err := db.RunCommand(ctx, command).Decode(&stats); err != nil {
		return 0, translate(command[0].Key, "", err)
	}

	// numeric fields come back as int32, int64 or double depending on magnitude
	n, err := cast.ToInt64E(stats[field])
	if err != nil {
		return 0, fmt.Errorf("%s.%s: %w", command[0].Key, field, err)
	}
	return n, nil
}
