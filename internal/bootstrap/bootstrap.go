// Package bootstrap builds the storage backend selected by configuration.
// It is shared by the server and the admin CLI.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"taskdesk-api/internal/config"
	"taskdesk-api/internal/database"
	"taskdesk-api/internal/store"
	"taskdesk-api/internal/store/gormstore"
	"taskdesk-api/internal/store/mongostore"
)

// Stores is the set of stores plus a function releasing their connection.
type Stores struct {
	Users   store.UserStore
	Tasks   store.TaskStore
	Queries store.QueryStore
	Close   func(ctx context.Context) error
}

// OpenStores connects to the backend named by env.StorageEnv.Type.
func OpenStores(ctx context.Context, env *config.Env) (*Stores, error) {
	switch env.StorageEnv.Type {
	case "sqlite":
		db, err := database.Open(env.SQLitePath, env.GormLogLevel())
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "connected to sqlite", "path", env.SQLitePath)
		s := gormstore.New(db)
		return &Stores{
			Users:   s.Users,
			Tasks:   s.Tasks,
			Queries: s.Queries,
			Close:   func(context.Context) error { return database.Close(db) },
		}, nil

	case "mongo":
		client, err := mongostore.Connect(ctx, env.MongoURI)
		if err != nil {
			return nil, err
		}
		s, err := mongostore.New(ctx, client.Database(env.MongoDatabase))
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		slog.InfoContext(ctx, "connected to mongo", "database", env.MongoDatabase)
		return &Stores{
			Users:   s.Users,
			Tasks:   s.Tasks,
			Queries: s.Queries,
			Close:   client.Disconnect,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage type %q", env.StorageEnv.Type)
}
