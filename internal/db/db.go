package db

import (
	"context"
	"time"
)

// Store is the cache store facade: key-value blobs with TTL plus prefix scans.
// Consumers depend on the narrow sub-interfaces.
type Store interface {
	Pinger
	KVStore
	KeyScanner
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// KeyScanner enumerates and deletes keys.
type KeyScanner interface {
	// ScanPrefix returns every live key starting with prefix. Prefix is literal, not a glob.
	ScanPrefix(ctx context.Context, prefix string) ([]string, error)
	// Del removes keys and returns how many existed.
	Del(ctx context.Context, keys ...string) (int, error)
}
