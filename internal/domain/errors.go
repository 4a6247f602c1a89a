package domain

import "errors"

var (
	// ErrStoreNotLoaded signals a query against a review store that was never loaded.
	ErrStoreNotLoaded = errors.New("reviews not loaded")
	// ErrCircuitOpen signals a call rejected by an open circuit breaker.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrBreakerNotFound signals an unknown circuit breaker name.
	ErrBreakerNotFound = errors.New("circuit breaker not found")
	// ErrCacheUnavailable signals that the cache store could not be reached.
	ErrCacheUnavailable = errors.New("cache unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationFailed signals a language model completion failure.
	ErrGenerationFailed = errors.New("answer generation failed")
	// ErrVectorDimMismatch signals an embedding dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)
