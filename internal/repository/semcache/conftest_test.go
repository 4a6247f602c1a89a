package semcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/parklens/parklens/internal/db"
	"github.com/parklens/parklens/internal/domain"
)

// mockEmbedder returns a fixed vector per text, from the table.
type mockEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	if v, ok := m.vectors[text]; ok {
		return domain.EmbeddingResult{Embedding: v}, nil
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0, 0}}, nil
}

// fakeKV is an in-memory stand-in for the key-value store.
type fakeKV struct {
	kv   map[string][]byte
	sets map[string]map[string]struct{}

	getErr      error
	setErr      error
	sMembersErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{
		kv:   make(map[string][]byte),
		sets: make(map[string]map[string]struct{}),
	}
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return data, nil
}

func (f *fakeKV) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.kv[key] = value
	return nil
}

func (f *fakeKV) Del(_ context.Context, key string) error {
	delete(f.kv, key)
	delete(f.sets, key)
	return nil
}

func (f *fakeKV) SAdd(_ context.Context, key, member string) error {
	if f.sets[key] == nil {
		f.sets[key] = make(map[string]struct{})
	}
	f.sets[key][member] = struct{}{}
	return nil
}

func (f *fakeKV) SRem(_ context.Context, key, member string) error {
	delete(f.sets[key], member)
	return nil
}

func (f *fakeKV) SMembers(_ context.Context, key string) ([]string, error) {
	if f.sMembersErr != nil {
		return nil, f.sMembersErr
	}
	members := make([]string, 0, len(f.sets[key]))
	for m := range f.sets[key] {
		members = append(members, m)
	}
	return members, nil
}

func newTestCache(t *testing.T, e *mockEmbedder) (*Cache, *fakeKV) {
	t.Helper()
	kv := newFakeKV()
	c := New(e, kv, Config{
		KeyPrefix:           "parklens:",
		SimilarityThreshold: 0.95,
		TTL:                 24 * time.Hour,
	}, zap.NewNop())
	return c, kv
}
