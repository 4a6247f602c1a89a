package db

import "errors"

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

const (
	// DistanceCosine is cosine distance.
	DistanceCosine DistanceMetric = "COSINE"
	// DistanceL2 is Euclidean distance.
	DistanceL2 DistanceMetric = "L2"
)

// IndexDefinition describes the FT index used for review vectors. The schema
// is fixed: an id TAG field for subset restriction plus one HNSW vector field.
type IndexDefinition struct {
	Name            string
	Prefix          string
	VectorDim       int
	Distance        DistanceMetric
	HNSWM           int
	HNSWEFConstruct int
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if idx.Prefix == "" {
		return errors.New("index prefix is required")
	}
	if idx.VectorDim <= 0 {
		return errors.New("vector field requires positive DIM")
	}
	return nil
}
