// Package db defines the storage contracts implemented by the Redis backend.
package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
type Store interface {
	Pinger
	KVStore
	SetStore
	VectorStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations with expiry.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// SetStore provides unordered set operations, used for the cache live-key index.
type SetStore interface {
	SAdd(ctx context.Context, key, member string) error
	SRem(ctx context.Context, key, member string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// VectorItem is one document to upsert into a vector index.
type VectorItem struct {
	ID     string
	Vector []float32
	Fields map[string]string // stored alongside the vector (branch, location, text)
}

// KNNQuery describes a nearest-neighbor search against a vector index.
type KNNQuery struct {
	IndexName string
	Vector    []float32
	K         int
	IDs       []string // optional: restrict the search to this ID subset
}

// Neighbor is one KNN search result.
type Neighbor struct {
	ID       string
	Distance float64 // cosine distance, 0 = identical
}

// VectorStore provides vector index lifecycle and KNN search operations.
type VectorStore interface {
	EnsureIndex(ctx context.Context, def *IndexDefinition) error
	Upsert(ctx context.Context, keyPrefix string, items []VectorItem) error
	QueryKNN(ctx context.Context, keyPrefix string, q *KNNQuery) ([]Neighbor, error)
	IndexCount(ctx context.Context, indexName string) (int, error)
}
