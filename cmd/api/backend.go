package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"libraryapi/internal/config"
	"libraryapi/internal/database"
	"libraryapi/internal/database/migration"
	"libraryapi/internal/http/handler"
	"libraryapi/internal/model"
	"libraryapi/internal/repository"
	"libraryapi/internal/repository/memory"
	"libraryapi/internal/repository/mongodb"
	"libraryapi/internal/repository/postgres"
)

// backend is the storage selected by STORAGE_DRIVER: one repository per
// resource plus the client lifecycle hooks.
type backend struct {
	books   repository.Repository[model.Book, model.BookPatch]
	members repository.Repository[model.Member, model.MemberPatch]
	staff   repository.Repository[model.Staff, model.StaffPatch]

	ping    handler.PingFunc
	migrate func(ctx context.Context) error
	close   func(ctx context.Context) error
}

func openBackend(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*backend, error) {
	v := repository.NewValidator()
	switch cfg.StorageDriver {
	case config.DriverMongo:
		client, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		return mongoBackend(client, cfg.Mongo.Database, v), nil
	case config.DriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return postgresBackend(db, cfg.Database.Schema, log, v), nil
	case config.DriverMemory:
		return memoryBackend(v), nil
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}

func mongoBackend(client *mongo.Client, dbName string, v *repository.Validator) *backend {
	db := client.Database(dbName)
	books := mongodb.NewRepository(db.Collection(model.Books.Collection), model.Books, v)
	members := mongodb.NewRepository(db.Collection(model.Members.Collection), model.Members, v)
	staff := mongodb.NewRepository(db.Collection(model.StaffMembers.Collection), model.StaffMembers, v)

	return &backend{
		books:   books,
		members: members,
		staff:   staff,
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		migrate: func(ctx context.Context) error {
			for _, ensure := range []func(context.Context) error{books.EnsureIndexes, members.EnsureIndexes, staff.EnsureIndexes} {
				if err := ensure(ctx); err != nil {
					return err
				}
			}
			return nil
		},
		close: client.Disconnect,
	}
}

func postgresBackend(db *sql.DB, schema string, log *zap.Logger, v *repository.Validator) *backend {
	return &backend{
		books:   postgres.NewRepository(db, model.Books, v),
		members: postgres.NewRepository(db, model.Members, v),
		staff:   postgres.NewRepository(db, model.StaffMembers, v),
		ping:    db.PingContext,
		migrate: func(ctx context.Context) error {
			return migration.EnsureMigrated(ctx, db, log, schema,
				migration.Collection{Table: model.Books.Collection, Unique: model.Books.Unique},
				migration.Collection{Table: model.Members.Collection, Unique: model.Members.Unique},
				migration.Collection{Table: model.StaffMembers.Collection, Unique: model.StaffMembers.Unique},
			)
		},
		close: func(context.Context) error { return db.Close() },
	}
}

func memoryBackend(v *repository.Validator) *backend {
	noop := func(context.Context) error { return nil }
	return &backend{
		books:   memory.NewRepository(model.Books, v),
		members: memory.NewRepository(model.Members, v),
		staff:   memory.NewRepository(model.StaffMembers, v),
		ping:    noop,
		migrate: noop,
		close:   noop,
	}
}

func closeBackend(b *backend, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.close(ctx); err != nil {
		log.Warn("storage_close_failed", zap.Error(err))
	}
}
