package session

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

type Options struct {
	Backend     string
	File        string
	RedisURL    string
	DatabaseURL string
	ClientName  string
}

// Open builds the Store named by opts.Backend. The returned close function
// releases any connection the store holds.
func Open(ctx context.Context, opts Options, logger *logrus.Logger) (Store, func() error, error) {
	noop := func() error { return nil }

	switch opts.Backend {
	case "", "file":
		path := opts.File
		if path == "" {
			var err error
			if path, err = DefaultFilePath(); err != nil {
				return nil, nil, err
			}
		}
		logger.WithField("path", path).Debug("Using file session store")
		return NewFileStore(path), noop, nil

	case "memory":
		return NewMemoryStore(), noop, nil

	case "redis":
		client, err := NewRedisClient(ctx, opts.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.WithField("client", opts.ClientName).Debug("Using Redis session store")
		return NewRedisStore(client, opts.ClientName), client.Close, nil

	case "postgres":
		db, err := OpenPostgres(opts.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		store := NewSQLStore(db, opts.ClientName)
		if err := store.CreateTable(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.WithField("client", opts.ClientName).Debug("Using Postgres session store")
		return store, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown session store %q", opts.Backend)
	}
}
