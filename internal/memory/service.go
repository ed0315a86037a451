package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recalld/internal/embeddings"
	"github.com/fyrsmithlabs/recalld/internal/record"
	"github.com/fyrsmithlabs/recalld/internal/shard"
)

var (
	// ErrInvalidParams indicates missing service dependencies.
	ErrInvalidParams = errors.New("invalid service parameters")

	// ErrEmptyContent indicates an attempt to store empty content.
	ErrEmptyContent = errors.New("content cannot be empty")
)

// Params configures a Service.
type Params struct {
	// Embedder turns text into vectors. Required.
	Embedder embeddings.Provider

	// Shards is the per-owner vector index store. Required.
	Shards *shard.Store

	// Records is the durable record store. Required.
	Records *record.Store

	// Profiles supplies serialized onboarding profiles. Optional; without
	// it context assembly has no profile section.
	Profiles ProfileProvider

	// DeriveKey is the consolidation key heuristic.
	// Defaults to DeriveConsolidationKey.
	DeriveKey KeyDeriver

	// Defaults are retrieval parameters for zero-valued call arguments.
	Defaults Defaults

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Service is the memory subsystem facade.
type Service struct {
	embedder embeddings.Provider
	shards   *shard.Store
	records  *record.Store
	profiles ProfileProvider
	derive   KeyDeriver
	defaults Defaults
	logger   *zap.Logger
}

// NewService creates the memory service.
func NewService(p Params) (*Service, error) {
	if p.Embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidParams)
	}
	if p.Shards == nil {
		return nil, fmt.Errorf("%w: shard store is required", ErrInvalidParams)
	}
	if p.Records == nil {
		return nil, fmt.Errorf("%w: record store is required", ErrInvalidParams)
	}
	if p.DeriveKey == nil {
		p.DeriveKey = DeriveConsolidationKey
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	p.Defaults.applyDefaults()

	return &Service{
		embedder: p.Embedder,
		shards:   p.Shards,
		records:  p.Records,
		profiles: p.Profiles,
		derive:   p.DeriveKey,
		defaults: p.Defaults,
		logger:   p.Logger,
	}, nil
}

// StoreMemory stores content in both the vector shard and the record store,
// returning the vector key of the stored or updated memory.
//
// When the content carries a consolidation key and the owner already has a
// record under that key, the existing record is updated in place and its
// vector is re-embedded instead of appending a new entry — at most one live
// record per (owner, key). A vector update failure after a successful record
// update leaves retrieval stale for that key; this is degraded but
// non-fatal, so it is logged and the vector key is still returned.
//
// Callers on a primary write path must treat any error as advisory.
func (s *Service) StoreMemory(ctx context.Context, content, contentType, ownerID, conversationID string, attributes map[string]string) (string, error) {
	if content == "" {
		return "", ErrEmptyContent
	}

	if key, ok := s.derive(content); ok {
		attributes = withConsolidationKey(attributes, key)

		existing, found, err := s.records.GetByConsolidationKey(ctx, ownerID, key)
		if err != nil {
			return "", fmt.Errorf("looking up consolidation key %q: %w", key, err)
		}
		if found {
			return s.consolidate(ctx, ownerID, key, existing.VectorKey, content, attributes)
		}
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, []string{content})
	if err != nil {
		return "", fmt.Errorf("embedding content: %w", err)
	}

	vectorKey := uuid.NewString()
	if err := s.shards.Add(ctx, ownerID, []string{vectorKey}, vectors[:1]); err != nil {
		return "", fmt.Errorf("indexing content: %w", err)
	}

	rec := &record.Record{
		VectorKey:      vectorKey,
		Content:        content,
		ContentType:    contentType,
		OwnerID:        ownerID,
		ConversationID: conversationID,
		Attributes:     attributes,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		// The appended vector has no record and will never be returned by
		// retrieval; it is orphaned until the shard is next rebuilt.
		s.logger.Warn("record create failed after index add",
			zap.String("owner_id", ownerID),
			zap.String("vector_key", vectorKey),
			zap.Error(err),
		)
		return "", fmt.Errorf("creating record: %w", err)
	}

	s.logger.Debug("memory stored",
		zap.String("owner_id", ownerID),
		zap.String("content_type", contentType),
		zap.String("vector_key", vectorKey),
	)
	return vectorKey, nil
}

// consolidate updates an existing record in place and refreshes its vector.
func (s *Service) consolidate(ctx context.Context, ownerID, key, vectorKey, content string, attributes map[string]string) (string, error) {
	updated, err := s.records.UpdateContentAndAttributes(ctx, ownerID, vectorKey, content, attributes)
	if err != nil {
		return "", fmt.Errorf("updating consolidated record: %w", err)
	}
	if !updated {
		return "", fmt.Errorf("consolidated record vanished for key %q", key)
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, []string{content})
	if err != nil {
		s.logger.Warn("memory consistency degraded: re-embedding failed, vector is stale",
			zap.String("owner_id", ownerID),
			zap.String("consolidation_key", key),
			zap.Error(err),
		)
		return vectorKey, nil
	}

	swapped, err := s.shards.UpdateVector(ctx, ownerID, vectorKey, vectors[0])
	if err != nil || !swapped {
		s.logger.Warn("memory consistency degraded: vector update failed, retrieval may be stale",
			zap.String("owner_id", ownerID),
			zap.String("consolidation_key", key),
			zap.String("vector_key", vectorKey),
			zap.Bool("key_found", swapped),
			zap.Error(err),
		)
	}

	s.logger.Debug("memory consolidated",
		zap.String("owner_id", ownerID),
		zap.String("consolidation_key", key),
	)
	return vectorKey, nil
}

// SearchMemories retrieves the owner's memories most similar to query.
//
// contentTypes filters results to the given types (nil disables the
// filter). limit <= 0 and minRelevance < 0 fall back to the configured
// defaults. Hits below minRelevance are dropped.
func (s *Service) SearchMemories(ctx context.Context, ownerID, query string, contentTypes []string, limit int, minRelevance float32) ([]SearchResult, error) {
	if limit <= 0 {
		limit = s.defaults.TopK
	}
	if minRelevance < 0 {
		minRelevance = *s.defaults.MinRelevance
	}

	queryVector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// Overfetch: threshold and type filtering happen after the index search.
	hits, err := s.shards.Search(ctx, ownerID, queryVector, limit*2)
	if err != nil {
		return nil, fmt.Errorf("searching shard: %w", err)
	}

	typeAllowed := allowedTypes(contentTypes)
	var results []SearchResult
	for _, hit := range hits {
		if hit.Score < minRelevance {
			continue
		}

		rec, found, err := s.records.GetByVectorKey(ctx, ownerID, hit.Key)
		if err != nil {
			return nil, fmt.Errorf("fetching record %s: %w", hit.Key, err)
		}
		if !found {
			// Orphaned vector without a record; skip.
			continue
		}
		if typeAllowed != nil && !typeAllowed[rec.ContentType] {
			continue
		}

		results = append(results, SearchResult{
			VectorKey:   rec.VectorKey,
			Content:     rec.Content,
			ContentType: rec.ContentType,
			Score:       hit.Score,
			Timestamp:   rec.Timestamp,
			Attributes:  rec.Attributes,
		})
		if len(results) >= limit {
			break
		}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	return results, nil
}

// SetRelevance updates the stored relevance score of one memory.
// Returns false when the memory does not exist.
func (s *Service) SetRelevance(ctx context.Context, ownerID, vectorKey string, score float64) (bool, error) {
	return s.records.UpdateRelevance(ctx, ownerID, vectorKey, score)
}

// PurgeOwner erases all of an owner's memories: every record plus the whole
// vector shard, so no orphaned vectors remain. Returns the record count
// deleted.
func (s *Service) PurgeOwner(ctx context.Context, ownerID string) (int64, error) {
	n, err := s.records.DeleteByOwner(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("deleting records: %w", err)
	}

	if err := s.shards.Drop(ownerID); err != nil {
		return n, fmt.Errorf("dropping shard: %w", err)
	}

	s.logger.Info("owner memories purged",
		zap.String("owner_id", ownerID),
		zap.Int64("records_deleted", n),
	)
	return n, nil
}

// withConsolidationKey returns a copy of attrs carrying the derived key.
func withConsolidationKey(attrs map[string]string, key string) map[string]string {
	out := make(map[string]string, len(attrs)+1)
	for k, v := range attrs {
		out[k] = v
	}
	out[record.AttrConsolidationKey] = key
	return out
}

// allowedTypes builds a set from the filter slice; nil means no filter.
func allowedTypes(contentTypes []string) map[string]bool {
	if len(contentTypes) == 0 {
		return nil
	}
	set := make(map[string]bool, len(contentTypes))
	for _, t := range contentTypes {
		set[t] = true
	}
	return set
}
