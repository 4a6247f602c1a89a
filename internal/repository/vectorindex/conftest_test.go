package vectorindex

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/parklens/parklens/internal/db"
)

// mockVectorStore implements the consumer interface for tests.
type mockVectorStore struct {
	ensureIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	upsertFn      func(ctx context.Context, keyPrefix string, items []db.VectorItem) error
	queryKNNFn    func(ctx context.Context, keyPrefix string, q *db.KNNQuery) ([]db.Neighbor, error)
	indexCountFn  func(ctx context.Context, indexName string) (int, error)
}

func (m *mockVectorStore) EnsureIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.ensureIndexFn != nil {
		return m.ensureIndexFn(ctx, def)
	}
	return nil
}

func (m *mockVectorStore) Upsert(ctx context.Context, keyPrefix string, items []db.VectorItem) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, keyPrefix, items)
	}
	return nil
}

func (m *mockVectorStore) QueryKNN(ctx context.Context, keyPrefix string, q *db.KNNQuery) ([]db.Neighbor, error) {
	if m.queryKNNFn != nil {
		return m.queryKNNFn(ctx, keyPrefix, q)
	}
	return nil, nil
}

func (m *mockVectorStore) IndexCount(ctx context.Context, indexName string) (int, error) {
	if m.indexCountFn != nil {
		return m.indexCountFn(ctx, indexName)
	}
	return 0, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockVectorStore) {
	t.Helper()
	ms := &mockVectorStore{}
	r := New(ms, Config{
		IndexName: "reviews:idx",
		KeyPrefix: "reviews:",
		VectorDim: 4,
	}, zap.NewNop())
	return r, ms
}
