// Package semcache memoizes question→answer pairs keyed by embedding
// similarity, so paraphrased questions can reuse a previous answer.
package semcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/parklens/parklens/internal/db"
	"github.com/parklens/parklens/internal/domain"
	"github.com/parklens/parklens/internal/metrics"
)

// store is the consumer interface over the key-value store (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	SAdd(ctx context.Context, key, member string) error
	SRem(ctx context.Context, key, member string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// embedder is the consumer interface over the embedding provider.
type embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Config holds cache tuning parameters.
type Config struct {
	KeyPrefix           string
	SimilarityThreshold float64
	TTL                 time.Duration
}

// Hit is a successful cache lookup.
type Hit struct {
	Answer           string
	NumReviewsUsed   int
	Similarity       float64
	OriginalQuestion string
}

// Stats summarizes cache state.
type Stats struct {
	TotalEntries        int        `json:"total_entries"`
	SimilarityThreshold float64    `json:"similarity_threshold"`
	TTL                 string     `json:"ttl"`
	OldestEntry         *time.Time `json:"oldest_entry,omitempty"`
	NewestEntry         *time.Time `json:"newest_entry,omitempty"`
}

// entry is the stored JSON payload. The embedding lives under a separate
// key so lookups can scan vectors without decoding answers.
type entry struct {
	Question       string    `json:"question"`
	Answer         string    `json:"answer"`
	NumReviewsUsed int       `json:"num_reviews_used"`
	CreatedAt      time.Time `json:"created_at"`
}

// Cache is a semantic result cache over a TTL'd key-value store.
// Every lookup embeds the question and linearly scans the live entries;
// the entry with the highest cosine similarity wins if it reaches the
// threshold. Store failures degrade to a miss, never an error upstream.
type Cache struct {
	embedder embedder
	store    store
	cfg      Config
	logger   *zap.Logger

	now func() time.Time
}

// New creates a semantic cache.
func New(e embedder, s store, cfg Config, logger *zap.Logger) *Cache {
	return &Cache{
		embedder: e,
		store:    s,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (c *Cache) entryKey(id string) string     { return c.cfg.KeyPrefix + "cache:" + id }
func (c *Cache) embeddingKey(id string) string { return c.cfg.KeyPrefix + "embedding:" + id }
func (c *Cache) liveSetKey() string            { return c.cfg.KeyPrefix + "cache_keys" }

// Get looks up an answer for a semantically similar question.
func (c *Cache) Get(ctx context.Context, question string) (Hit, bool) {
	result, err := c.embedder.Embed(ctx, question)
	if err != nil {
		c.logger.Warn("Cache lookup embedding failed", zap.Error(err))
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		return Hit{}, false
	}

	ids, err := c.store.SMembers(ctx, c.liveSetKey())
	if err != nil {
		c.logger.Warn("Cache lookup failed to list entries", zap.Error(err))
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		return Hit{}, false
	}
	if len(ids) == 0 {
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return Hit{}, false
	}

	bestID, bestSimilarity := c.scanForBest(ctx, ids, result.Embedding)
	if bestID == "" || bestSimilarity < c.cfg.SimilarityThreshold {
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return Hit{}, false
	}

	e, ok := c.loadEntry(ctx, bestID)
	if !ok {
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return Hit{}, false
	}

	c.logger.Info("Cache hit",
		zap.Float64("similarity", bestSimilarity),
		zap.String("original_question", e.Question))
	metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
	metrics.CacheHitSimilarity.Observe(bestSimilarity)

	return Hit{
		Answer:           e.Answer,
		NumReviewsUsed:   e.NumReviewsUsed,
		Similarity:       bestSimilarity,
		OriginalQuestion: e.Question,
	}, true
}

// scanForBest returns the live entry id with the highest cosine similarity
// to the query embedding. Entries whose embedding key has expired are
// dropped from the live set on the way through.
func (c *Cache) scanForBest(ctx context.Context, ids []string, query []float32) (string, float64) {
	var bestID string
	var bestSimilarity float64

	for _, id := range ids {
		data, err := c.store.Get(ctx, c.embeddingKey(id))
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				c.evictStale(ctx, id)
			}
			continue
		}

		cached, err := bytesToVector(data)
		if err != nil {
			c.logger.Warn("Dropping malformed cached embedding", zap.String("id", id), zap.Error(err))
			continue
		}

		if sim := cosineSimilarity(query, cached); sim > bestSimilarity {
			bestSimilarity = sim
			bestID = id
		}
	}

	return bestID, bestSimilarity
}

func (c *Cache) loadEntry(ctx context.Context, id string) (entry, bool) {
	data, err := c.store.Get(ctx, c.entryKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			c.evictStale(ctx, id)
		}
		return entry{}, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Warn("Dropping malformed cache entry", zap.String("id", id), zap.Error(err))
		return entry{}, false
	}
	return e, true
}

func (c *Cache) evictStale(ctx context.Context, id string) {
	if err := c.store.SRem(ctx, c.liveSetKey(), id); err != nil {
		c.logger.Debug("Failed to evict stale cache id", zap.String("id", id), zap.Error(err))
	}
}

// Set stores a question-answer pair with the configured TTL.
func (c *Cache) Set(ctx context.Context, question, answer string, numReviewsUsed int) error {
	result, err := c.embedder.Embed(ctx, question)
	if err != nil {
		return fmt.Errorf("embed question for cache: %w", err)
	}

	id := cacheID(question)

	data, err := json.Marshal(entry{
		Question:       question,
		Answer:         answer,
		NumReviewsUsed: numReviewsUsed,
		CreatedAt:      c.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := c.store.SetWithTTL(ctx, c.entryKey(id), data, c.cfg.TTL); err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	if err := c.store.SetWithTTL(ctx, c.embeddingKey(id), vectorToBytes(result.Embedding), c.cfg.TTL); err != nil {
		return fmt.Errorf("store cache embedding: %w", err)
	}
	if err := c.store.SAdd(ctx, c.liveSetKey(), id); err != nil {
		return fmt.Errorf("register cache entry: %w", err)
	}

	c.logger.Info("Cached answer", zap.String("id", id))
	return nil
}

// Clear removes every cache entry and returns how many were removed.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	ids, err := c.store.SMembers(ctx, c.liveSetKey())
	if err != nil {
		return 0, fmt.Errorf("list cache entries: %w", err)
	}

	for _, id := range ids {
		if err := c.store.Del(ctx, c.entryKey(id)); err != nil {
			return 0, fmt.Errorf("delete cache entry %s: %w", id, err)
		}
		if err := c.store.Del(ctx, c.embeddingKey(id)); err != nil {
			return 0, fmt.Errorf("delete cache embedding %s: %w", id, err)
		}
	}

	if err := c.store.Del(ctx, c.liveSetKey()); err != nil {
		return 0, fmt.Errorf("delete cache key set: %w", err)
	}

	metrics.CacheEntries.Set(0)
	c.logger.Info("Cleared cache", zap.Int("entries", len(ids)))
	return len(ids), nil
}

// GetStats reports entry count, threshold, TTL and entry age bounds.
func (c *Cache) GetStats(ctx context.Context) (Stats, error) {
	ids, err := c.store.SMembers(ctx, c.liveSetKey())
	if err != nil {
		return Stats{}, fmt.Errorf("list cache entries: %w", err)
	}

	stats := Stats{
		TotalEntries:        len(ids),
		SimilarityThreshold: c.cfg.SimilarityThreshold,
		TTL:                 c.cfg.TTL.String(),
	}
	metrics.CacheEntries.Set(float64(len(ids)))

	for _, id := range ids {
		e, ok := c.loadEntry(ctx, id)
		if !ok {
			continue
		}
		created := e.CreatedAt
		if stats.OldestEntry == nil || created.Before(*stats.OldestEntry) {
			t := created
			stats.OldestEntry = &t
		}
		if stats.NewestEntry == nil || created.After(*stats.NewestEntry) {
			t := created
			stats.NewestEntry = &t
		}
	}

	return stats, nil
}

// cacheID derives a stable identifier from the question content.
func cacheID(question string) string {
	h := sha256.Sum256([]byte(question))
	return hex.EncodeToString(h[:])[:16]
}

// cosineSimilarity returns 0 when either vector has zero norm or the
// dimensions disagree, so such pairs can never reach the hit threshold.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
