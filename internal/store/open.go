package store

import (
	"context"
	"fmt"
)

// OpenDataStore picks a backend: Postgres when databaseURL is set, SQLite
// when sqlitePath is set, memory otherwise. The returned name is for logs.
func OpenDataStore(ctx context.Context, databaseURL, sqlitePath string) (DataStore, string, error) {
	switch {
	case databaseURL != "":
		s, err := NewPostgresStore(ctx, databaseURL)
		if err != nil {
			return nil, "", fmt.Errorf("postgres: %w", err)
		}
		return s, "postgres", nil
	case sqlitePath != "":
		s, err := NewSQLiteStore(ctx, sqlitePath)
		if err != nil {
			return nil, "", fmt.Errorf("sqlite: %w", err)
		}
		return s, "sqlite", nil
	}
	return NewMemoryStore(), "memory", nil
}

// OpenTokenStore returns a Redis token store when redisURL is set and a
// process-local one otherwise.
func OpenTokenStore(ctx context.Context, redisURL string) (TokenStore, string, error) {
	if redisURL == "" {
		return NewMemoryTokenStore(), "memory", nil
	}
	s, err := NewRedisStore(ctx, redisURL)
	if err != nil {
		return nil, "", err
	}
	return s, "redis", nil
}
