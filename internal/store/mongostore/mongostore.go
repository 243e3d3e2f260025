// Package mongostore implements the store contracts on MongoDB. Queries embed
// their comments, so appending a comment and advancing the status is a single
// document update.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"taskdesk-api/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection   = "users"
	tasksCollection   = "tasks"
	queriesCollection = "queries"
)

type Stores struct {
	Users   *UserStore
	Tasks   *TaskStore
	Queries *QueryStore
}

// Connect dials uri and verifies the connection with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// New returns the stores backed by db after making sure its indexes exist.
func New(ctx context.Context, db *mongo.Database) (*Stores, error) {
	if err := ensureIndexes(ctx, db); err != nil {
		return nil, err
	}
	return &Stores{
		Users:   &UserStore{coll: db.Collection(usersCollection)},
		Tasks:   &TaskStore{coll: db.Collection(tasksCollection)},
		Queries: &QueryStore{coll: db.Collection(queriesCollection)},
	}, nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		tasksCollection: {
			{Keys: bson.D{{Key: "createdBy", Value: 1}}},
			{Keys: bson.D{{Key: "assignedTo", Value: 1}}},
		},
		queriesCollection: {
			{Keys: bson.D{{Key: "createdBy", Value: 1}}},
			{Keys: bson.D{{Key: "assignedTo", Value: 1}}},
			{Keys: bson.D{{Key: "task", Value: 1}}},
		},
	}
	for name, idx := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

func translate(what string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", what, store.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// and combines filter clauses, skipping empty ones.
func and(clauses ...bson.M) bson.M {
	var parts bson.A
	for _, c := range clauses {
		if len(c) > 0 {
			parts = append(parts, c)
		}
	}
	switch len(parts) {
	case 0:
		return bson.M{}
	case 1:
		return parts[0].(bson.M)
	}
	return bson.M{"$and": parts}
}

func searchClause(search string, fields ...string) bson.M {
	if search == "" {
		return nil
	}
	re := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	var or bson.A
	for _, f := range fields {
		or = append(or, bson.M{f: re})
	}
	return bson.M{"$or": or}
}

func findOptions(s store.Sort, p store.Page) *options.FindOptions {
	field, ok := store.SortFields[s.Field]
	if !ok {
		field = store.SortFields["createdAt"]
	}
	dir := 1
	if s.Desc {
		dir = -1
	}
	opts := options.Find().SetSort(bson.D{
		{Key: field.Document, Value: dir},
		{Key: "_id", Value: dir},
	})
	if p.Limit > 0 {
		opts.SetSkip(int64(p.Offset())).SetLimit(int64(p.Limit))
	}
	return opts
}

// missingOrConflict tells a vanished document from a lost compare-and-set.
func missingOrConflict(ctx context.Context, coll *mongo.Collection, id string) error {
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return translate("check document", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return store.ErrConflict
}
