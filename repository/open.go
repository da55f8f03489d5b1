package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/michivo/go-vota"
	"github.com/redis/go-redis/v9"
)

// Credential store kinds accepted by OpenCredentialStore
const (
	KindMemory = "memory"
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindRedis  = "redis"
)

// StoreConfig selects and configures a credential store.
type StoreConfig struct {
	Kind          string
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// OpenCredentialStore builds the store selected by cfg.Kind. The returned
// close function releases database or redis connections.
func OpenCredentialStore(ctx context.Context, cfg StoreConfig) (vota.CredentialStore, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case KindMemory:
		return vota.NewMemoryCredentialStore(), noop, nil
	case KindFile, "":
		return vota.NewFileCredentialStore(cfg.Path), noop, nil
	case KindSQLite:
		dsn := cfg.Path
		if filepath.Ext(dsn) == "" && dsn != ":memory:" {
			dsn += ".db"
		}
		store, err := OpenSQLiteCredentialStore(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case KindRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return NewRedisCredentialStore(client), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown credential store kind %q", cfg.Kind)
	}
}
