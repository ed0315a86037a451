package shard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrDimensionMismatch is returned when a vector's length disagrees with
	// the shard's fixed dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrUnevenBatch is returned when an add batch has mismatched key and
	// vector counts.
	ErrUnevenBatch = errors.New("keys and vectors must have equal length")
)

// Hit is one search result: a vector key with its similarity score.
// Scores are inner products; with normalized vectors, higher is more similar.
type Hit struct {
	Key   string
	Score float32
}

// Store manages one flat vector index per owner, persisted under a single
// data directory.
//
// All operations are scoped by owner ID; there is no cross-owner shared
// state. Within one owner, mutations are serialized by a per-owner lock and
// searches take the corresponding read lock so they never observe an
// in-progress rebuild.
type Store struct {
	dir     string
	logger  *zap.Logger
	metrics *Metrics
	locks   sync.Map // ownerID -> *sync.RWMutex
}

// NewStore creates a shard store rooted at dir, creating it if needed.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("shard directory required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating shard directory %s: %w", dir, err)
	}
	return &Store{
		dir:     dir,
		logger:  logger,
		metrics: NewMetrics(logger),
	}, nil
}

// ownerLock returns the mutex serializing access to one owner's shard.
func (s *Store) ownerLock(ownerID string) *sync.RWMutex {
	actual, _ := s.locks.LoadOrStore(ownerID, &sync.RWMutex{})
	return actual.(*sync.RWMutex)
}

// Add appends keys[i] <-> vectors[i] pairs to the owner's shard, creating
// the shard on first add and fixing its dimension from the first vector.
//
// Add is not idempotent: adding the same key twice appends a duplicate
// entry. Duplicate suppression is the caller's responsibility.
func (s *Store) Add(ctx context.Context, ownerID string, keys []string, vectors [][]float32) error {
	if len(keys) == 0 || len(keys) != len(vectors) {
		return fmt.Errorf("%w: %d keys, %d vectors", ErrUnevenBatch, len(keys), len(vectors))
	}

	lock := s.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	ix := s.load(ownerID)
	if ix.size() == 0 {
		ix.Dimension = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != ix.Dimension {
			return fmt.Errorf("%w: vector %d has dimension %d, shard expects %d",
				ErrDimensionMismatch, i, len(v), ix.Dimension)
		}
	}

	ix.Keys = append(ix.Keys, keys...)
	ix.Vectors = append(ix.Vectors, vectors...)

	if err := s.save(ownerID, ix); err != nil {
		return fmt.Errorf("persisting shard for owner %s: %w", ownerID, err)
	}

	s.metrics.RecordAdd(ctx, len(keys))
	return nil
}

// Search returns up to topK (key, score) hits ordered by descending
// inner-product score. A missing or empty shard yields an empty result, not
// an error. topK is clamped to the shard's current size.
func (s *Store) Search(ctx context.Context, ownerID string, query []float32, topK int) ([]Hit, error) {
	start := time.Now()

	lock := s.ownerLock(ownerID)
	lock.RLock()
	defer lock.RUnlock()

	ix := s.load(ownerID)
	if ix.size() == 0 || topK <= 0 {
		return nil, nil
	}
	if len(query) != ix.Dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, shard expects %d",
			ErrDimensionMismatch, len(query), ix.Dimension)
	}

	hits := make([]Hit, ix.size())
	for i, v := range ix.Vectors {
		hits[i] = Hit{Key: ix.Keys[i], Score: innerProduct(query, v)}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})

	if topK > len(hits) {
		topK = len(hits)
	}
	result := hits[:topK]

	s.metrics.RecordSearch(ctx, time.Since(start), ix.size())
	return result, nil
}

// UpdateVector replaces the vector stored under targetKey.
//
// The flat index has no in-place mutation, so the whole shard is
// reconstructed: every stored vector is read back in order, the entry for
// targetKey is replaced, a fresh index is rebuilt from the full mutated
// sequence in the same order, and both artifacts are swapped atomically.
// When the same key was appended more than once, the most recent entry is
// the one replaced.
//
// Returns false with a nil error when the shard or key does not exist.
func (s *Store) UpdateVector(ctx context.Context, ownerID, targetKey string, newVector []float32) (bool, error) {
	lock := s.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	ix := s.load(ownerID)
	if ix.size() == 0 {
		return false, nil
	}
	if len(newVector) != ix.Dimension {
		return false, fmt.Errorf("%w: vector has dimension %d, shard expects %d",
			ErrDimensionMismatch, len(newVector), ix.Dimension)
	}

	target := -1
	for i := ix.size() - 1; i >= 0; i-- {
		if ix.Keys[i] == targetKey {
			target = i
			break
		}
	}
	if target < 0 {
		return false, nil
	}

	rebuilt := &flatIndex{
		Dimension: ix.Dimension,
		Keys:      ix.Keys,
		Vectors:   make([][]float32, 0, ix.size()),
	}
	for i, v := range ix.Vectors {
		if i == target {
			v = newVector
		}
		rebuilt.Vectors = append(rebuilt.Vectors, v)
	}

	if err := s.save(ownerID, rebuilt); err != nil {
		return false, fmt.Errorf("persisting rebuilt shard for owner %s: %w", ownerID, err)
	}

	s.metrics.RecordRebuild(ctx, rebuilt.size())
	return true, nil
}

// Count returns the number of vectors in the owner's shard.
func (s *Store) Count(ownerID string) int {
	lock := s.ownerLock(ownerID)
	lock.RLock()
	defer lock.RUnlock()

	return s.load(ownerID).size()
}

// Keys returns a copy of the owner's ordered key list.
func (s *Store) Keys(ownerID string) []string {
	lock := s.ownerLock(ownerID)
	lock.RLock()
	defer lock.RUnlock()

	ix := s.load(ownerID)
	out := make([]string, len(ix.Keys))
	copy(out, ix.Keys)
	return out
}

// Drop removes the owner's shard entirely. Used for owner purge; missing
// shards are not an error.
func (s *Store) Drop(ownerID string) error {
	lock := s.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	return s.remove(ownerID)
}

// innerProduct computes the dot product of two equal-length vectors.
func innerProduct(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
