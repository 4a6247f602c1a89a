package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/parklens/parklens/internal/db"
)

// EnsureIndex creates the FT vector index if it does not exist yet.
func (s *Store) EnsureIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	distance := def.Distance
	if distance == "" {
		distance = db.DistanceCosine
	}
	m := def.HNSWM
	if m <= 0 {
		m = 16
	}
	ef := def.HNSWEFConstruct
	if ef <= 0 {
		ef = 200
	}

	args := []string{
		def.Name,
		"ON", "HASH",
		"PREFIX", "1", def.Prefix,
		"SCHEMA",
		"id", "TAG",
		"vector", "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(def.VectorDim),
		"DISTANCE_METRIC", string(distance),
		"M", strconv.Itoa(m),
		"EF_CONSTRUCTION", strconv.Itoa(ef),
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return nil
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// Upsert stores vector documents as hashes in a single DoMulti round-trip.
func (s *Store) Upsert(ctx context.Context, keyPrefix string, items []db.VectorItem) error {
	if len(items) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, len(items))
	for i, item := range items {
		cmd := s.b().Hset().Key(keyPrefix + item.ID).FieldValue().
			FieldValue("id", item.ID).
			FieldValue("vector", vectorToBytes(item.Vector))
		for k, v := range item.Fields {
			cmd = cmd.FieldValue(k, v)
		}
		cmds[i] = cmd.Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	for i, res := range results {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: %w", items[i].ID, err)}
		}
	}
	return nil
}

// QueryKNN runs a KNN vector similarity search via FT.SEARCH, optionally
// restricted to an ID subset with a TAG filter.
func (s *Store) QueryKNN(ctx context.Context, keyPrefix string, q *db.KNNQuery) ([]db.Neighbor, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	knnPart := fmt.Sprintf("[KNN %d @vector $BLOB]", q.K)
	var queryStr string
	if len(q.IDs) > 0 {
		queryStr = fmt.Sprintf("(@id:{%s})=>%s", strings.Join(q.IDs, "|"), knnPart)
	} else {
		queryStr = "*=>" + knnPart
	}

	args := []string{
		q.IndexName, queryStr,
		"RETURN", "1", "__vector_score",
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", vectorToBytes(q.Vector),
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseKNNResult(raw, keyPrefix)
}

// IndexCount returns the number of documents in an index via FT.SEARCH LIMIT 0 0.
func (s *Store) IndexCount(ctx context.Context, indexName string) (int, error) {
	cmd := s.b().Arbitrary("FT.SEARCH").Args(indexName, "*", "LIMIT", "0", "0").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") {
			return 0, db.ErrIndexNotFound
		}
		return 0, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// parseKNNResult decodes the RESP2 FT.SEARCH reply.
// Layout is 2-stride: [total, key1, fields1, key2, fields2, ...].
func parseKNNResult(raw []rueidis.RedisMessage, keyPrefix string) ([]db.Neighbor, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	neighbors := make([]db.Neighbor, 0, total)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		n := db.Neighbor{ID: strings.TrimPrefix(key, keyPrefix)}
		for j := 0; j+1 < len(fields); j += 2 {
			name, err := fields[j].ToString()
			if err != nil || name != "__vector_score" {
				continue
			}
			val, err := fields[j+1].ToString()
			if err != nil {
				continue
			}
			if d, err := strconv.ParseFloat(val, 64); err == nil {
				n.Distance = d
			}
		}

		neighbors = append(neighbors, n)
	}

	return neighbors, nil
}

// vectorToBytes encodes float32 values as little-endian bytes for FT.SEARCH BLOB params.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return rueidis.BinaryString(buf)
}
