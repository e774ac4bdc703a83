package mongodb

import (
	"context"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertOne inserts doc and returns its _id.
func (d *Driver) InsertOne(ctx context.Context, collection string, doc database.Document) (id any, err error) {
	db, err := d.database()
	if err != nil {
		return nil, err
	}

	ctx, done := d.instrument(ctx, "insert_one", collection)
	defer func() { done(1, err) }()

	res, err := db.Collection(collection).InsertOne(ctx, bson.M(doc))
	if err != nil {
		return nil, translate("insert_one", collection, err)
	}
	return res.InsertedID, nil
}

// InsertMany inserts docs in order and returns their _ids.
func (d *Driver) InsertMany(ctx context.Context, collection string, docs []database.Document) (ids []any, err error) {
	if len(docs) == 0 {
		return []any{}, nil
	}

	db, err := d.database()
	if err != nil {
		return nil, err
	}

	ctx, done := d.instrument(ctx, "insert_many", collection)
	defer func() { done(int64(len(ids)), err) }()

	batch := make([]interface{}, len(docs))
	for i, doc := range docs {
		batch[i] = bson.M(doc)
	}

	res, err := db.Collection(collection).InsertMany(ctx, batch)
	if err != nil {
		return nil, translate("insert_many", collection, err)
	}
	return res.InsertedIDs, nil
}

// Find returns the documents matching filter; a nil filter matches all.
func (d *Driver) Find(ctx context.Context, collection string, filter database.Document, limit int64) (docs []database.Document, err error) {
	db, err := d.database()
	if err != nil {
		return nil, err
	}

	ctx, done := d.instrument(ctx, database.OpQuery, collection)
	defer func() { done(int64(len(docs)), err) }()

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := db.Collection(collection).Find(ctx, filterOf(filter), opts)
	if err != nil {
		return nil, translate("find", collection, err)
	}

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, translate("find", collection, err)
	}

	docs = make([]database.Document, len(raw))
	for i, m := range raw {
		docs[i] = database.Document(m)
	}
	return docs, nil
}

// UpdateMany applies update (an operator document such as {"$set": ...}) to
// every match and returns the number of modified documents.
func (d *Driver) UpdateMany(ctx context.Context, collection string, filter, update database.Document) (modified int64, err error) {
	db, err := d.database()
	if err != nil {
		return 0, err
	}

	ctx, done := d.instrument(ctx, database.OpUpdate, collection)
	defer func() { done(modified, err) }()

	res, err := db.Collection(collection).UpdateMany(ctx, filterOf(filter), bson.M(update))
	if err != nil {
		return 0, translate("update_many", collection, err)
	}
	return res.ModifiedCount, nil
}

func (d *Driver) DeleteMany(ctx context.Context, collection string, filter database.Document) (deleted int64, err error) {
	db, err := d.database()
	if err != nil {
		return 0, err
	}

	ctx, done := d.instrument(ctx, "delete_many", collection)
	defer func() { done(deleted, err) }()

	res, err := db.Collection(collection).DeleteMany(ctx, filterOf(filter))
	if err != nil {
		return 0, translate("delete_many", collection, err)
	}
	return res.DeletedCount, nil
}

func filterOf(filter database.Document) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return bson.M(filter)
}
