package semcache

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestGetSet_ExactQuestion(t *testing.T) {
	e := &mockEmbedder{vectors: map[string][]float32{
		"how are the rides?": {1, 0, 0},
	}}
	c, _ := newTestCache(t, e)
	ctx := context.Background()

	if err := c.Set(ctx, "how are the rides?", "They are great.", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hit, ok := c.Get(ctx, "how are the rides?")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if hit.Answer != "They are great." {
		t.Errorf("unexpected answer: %q", hit.Answer)
	}
	if hit.NumReviewsUsed != 5 {
		t.Errorf("unexpected num reviews: %d", hit.NumReviewsUsed)
	}
	if hit.OriginalQuestion != "how are the rides?" {
		t.Errorf("unexpected original question: %q", hit.OriginalQuestion)
	}
	if hit.Similarity < 0.999 {
		t.Errorf("expected similarity ~1, got %f", hit.Similarity)
	}
}

func TestGet_SimilarQuestionHits(t *testing.T) {
	// cos(0.1 rad) ~ 0.995, above the 0.95 threshold.
	a := float32(math.Cos(0.1))
	b := float32(math.Sin(0.1))
	e := &mockEmbedder{vectors: map[string][]float32{
		"how are the rides?":  {1, 0, 0},
		"are the rides good?": {a, b, 0},
	}}
	c, _ := newTestCache(t, e)
	ctx := context.Background()

	if err := c.Set(ctx, "how are the rides?", "They are great.", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hit, ok := c.Get(ctx, "are the rides good?")
	if !ok {
		t.Fatal("expected cache hit for paraphrase")
	}
	if hit.OriginalQuestion != "how are the rides?" {
		t.Errorf("unexpected original question: %q", hit.OriginalQuestion)
	}
	if hit.Similarity < 0.95 || hit.Similarity > 1 {
		t.Errorf("similarity out of range: %f", hit.Similarity)
	}
}

func TestGet_ThresholdBoundaryIsInclusive(t *testing.T) {
	// Similarity exactly equal to the threshold is a hit. Pin the
	// threshold to the exact cosine of the two vectors (1/sqrt2) so any
	// drift toward a strict comparison fails this test.
	va := []float32{1, 0, 0}
	vb := []float32{1, 1, 0}
	sim := cosineSimilarity(va, vb)

	e := &mockEmbedder{vectors: map[string][]float32{
		"how are the rides?":   va,
		"rides and food both?": vb,
	}}
	c := New(e, newFakeKV(), Config{
		KeyPrefix:           "parklens:",
		SimilarityThreshold: sim,
		TTL:                 24 * time.Hour,
	}, zap.NewNop())
	ctx := context.Background()

	if err := c.Set(ctx, "how are the rides?", "They are great.", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hit, ok := c.Get(ctx, "rides and food both?")
	if !ok {
		t.Fatalf("expected hit at similarity == threshold (%v)", sim)
	}
	if hit.Similarity != sim {
		t.Errorf("expected similarity %v, got %v", sim, hit.Similarity)
	}

	// The same pair misses once the threshold moves the smallest
	// representable step above their similarity.
	c = New(e, newFakeKV(), Config{
		KeyPrefix:           "parklens:",
		SimilarityThreshold: math.Nextafter(sim, 1),
		TTL:                 24 * time.Hour,
	}, zap.NewNop())

	if err := c.Set(ctx, "how are the rides?", "They are great.", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.Get(ctx, "rides and food both?"); ok {
		t.Fatal("expected miss just above the boundary")
	}
}

func TestGet_DissimilarQuestionMisses(t *testing.T) {
	e := &mockEmbedder{vectors: map[string][]float32{
		"how are the rides?": {1, 0, 0},
		"is the food good?":  {0, 1, 0},
	}}
	c, _ := newTestCache(t, e)
	ctx := context.Background()

	if err := c.Set(ctx, "how are the rides?", "They are great.", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := c.Get(ctx, "is the food good?"); ok {
		t.Fatal("expected cache miss for orthogonal question")
	}
}

func TestGet_EmptyCache(t *testing.T) {
	c, _ := newTestCache(t, &mockEmbedder{})
	if _, ok := c.Get(context.Background(), "anything"); ok {
		t.Fatal("expected miss on empty cache")
	}
}

func TestGet_EmbedderFailureIsMiss(t *testing.T) {
	e := &mockEmbedder{err: errors.New("api down")}
	c, _ := newTestCache(t, e)
	if _, ok := c.Get(context.Background(), "anything"); ok {
		t.Fatal("expected miss when embedding fails")
	}
}

func TestGet_StoreFailureIsMiss(t *testing.T) {
	c, kv := newTestCache(t, &mockEmbedder{})
	kv.sMembersErr = errors.New("connection refused")
	if _, ok := c.Get(context.Background(), "anything"); ok {
		t.Fatal("expected miss when store fails")
	}
}

func TestGet_StaleMemberEvicted(t *testing.T) {
	e := &mockEmbedder{vectors: map[string][]float32{"q": {1, 0, 0}}}
	c, kv := newTestCache(t, e)
	ctx := context.Background()

	if err := c.Set(ctx, "q", "a", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Simulate TTL expiry of the value keys while the set member lingers.
	id := cacheID("q")
	delete(kv.kv, c.entryKey(id))
	delete(kv.kv, c.embeddingKey(id))

	if _, ok := c.Get(ctx, "q"); ok {
		t.Fatal("expected miss for expired entry")
	}
	if _, still := kv.sets[c.liveSetKey()][id]; still {
		t.Error("expected stale member to be evicted from live set")
	}
}

func TestGet_DimensionMismatchMisses(t *testing.T) {
	e := &mockEmbedder{vectors: map[string][]float32{
		"q":  {1, 0, 0},
		"q2": {1, 0},
	}}
	c, _ := newTestCache(t, e)
	ctx := context.Background()

	if err := c.Set(ctx, "q", "a", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.Get(ctx, "q2"); ok {
		t.Fatal("expected miss for mismatched dimensions")
	}
}

func TestSet_EmbedderFailure(t *testing.T) {
	e := &mockEmbedder{err: errors.New("api down")}
	c, _ := newTestCache(t, e)
	if err := c.Set(context.Background(), "q", "a", 1); err == nil {
		t.Fatal("expected error")
	}
}

func TestSet_StoreFailure(t *testing.T) {
	c, kv := newTestCache(t, &mockEmbedder{})
	kv.setErr = errors.New("oom")
	if err := c.Set(context.Background(), "q", "a", 1); err == nil {
		t.Fatal("expected error")
	}
}

func TestClear(t *testing.T) {
	e := &mockEmbedder{vectors: map[string][]float32{
		"q1": {1, 0, 0},
		"q2": {0, 1, 0},
	}}
	c, kv := newTestCache(t, e)
	ctx := context.Background()

	if err := c.Set(ctx, "q1", "a1", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Set(ctx, "q2", "a2", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, err := c.Clear(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 cleared, got %d", n)
	}
	if len(kv.kv) != 0 {
		t.Errorf("expected empty store, got %d keys", len(kv.kv))
	}
	if _, ok := c.Get(ctx, "q1"); ok {
		t.Error("expected miss after clear")
	}
}

func TestClear_Empty(t *testing.T) {
	c, _ := newTestCache(t, &mockEmbedder{})
	n, err := c.Clear(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 cleared, got %d", n)
	}
}

func TestGetStats(t *testing.T) {
	e := &mockEmbedder{vectors: map[string][]float32{
		"q1": {1, 0, 0},
		"q2": {0, 1, 0},
	}}
	c, _ := newTestCache(t, e)
	ctx := context.Background()

	t0 := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return t0 }
	if err := c.Set(ctx, "q1", "a1", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t1 := t0.Add(time.Hour)
	c.now = func() time.Time { return t1 }
	if err := c.Set(ctx, "q2", "a2", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats, err := c.GetStats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalEntries != 2 {
		t.Errorf("expected 2 entries, got %d", stats.TotalEntries)
	}
	if stats.SimilarityThreshold != 0.95 {
		t.Errorf("unexpected threshold: %f", stats.SimilarityThreshold)
	}
	if stats.TTL != "24h0m0s" {
		t.Errorf("unexpected ttl: %q", stats.TTL)
	}
	if stats.OldestEntry == nil || !stats.OldestEntry.Equal(t0) {
		t.Errorf("unexpected oldest: %v", stats.OldestEntry)
	}
	if stats.NewestEntry == nil || !stats.NewestEntry.Equal(t1) {
		t.Errorf("unexpected newest: %v", stats.NewestEntry)
	}
}

func TestGetStats_Empty(t *testing.T) {
	c, _ := newTestCache(t, &mockEmbedder{})
	stats, err := c.GetStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalEntries != 0 || stats.OldestEntry != nil || stats.NewestEntry != nil {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero norm", []float32{0, 0}, []float32{1, 0}, 0},
		{"dimension mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"both empty", nil, nil, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := cosineSimilarity(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("cosineSimilarity = %f, want %f", got, tc.want)
			}
		})
	}
}

func TestCacheID_StableAndDistinct(t *testing.T) {
	if cacheID("a") != cacheID("a") {
		t.Error("expected stable id")
	}
	if cacheID("a") == cacheID("b") {
		t.Error("expected distinct ids")
	}
	if len(cacheID("a")) != 16 {
		t.Errorf("expected 16-char id, got %d", len(cacheID("a")))
	}
}
