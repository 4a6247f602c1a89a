// Package reviews loads the review dataset and serves it from memory.
package reviews

import (
	"sync"

	"go.uber.org/zap"

	"github.com/parklens/parklens/internal/domain"
)

// Store holds the loaded review dataset. The slice is immutable after
// Load; readers receive the shared backing array and must not mutate it.
type Store struct {
	mu      sync.RWMutex
	reviews []domain.Review
	loaded  bool

	path   string
	logger *zap.Logger
}

// NewStore creates an unloaded store for the given CSV path.
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load reads the dataset from disk. Safe to call once at startup;
// a second call replaces the dataset atomically.
func (s *Store) Load() error {
	reviews, err := LoadCSV(s.path, s.logger)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.reviews = reviews
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// All returns every review in stable load order.
func (s *Store) All() ([]domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, domain.ErrStoreNotLoaded
	}
	return s.reviews, nil
}

// Count returns the number of loaded reviews, zero when unloaded.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reviews)
}
