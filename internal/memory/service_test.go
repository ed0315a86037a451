package memory_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/fyrsmithlabs/recalld/internal/embeddings"
	"github.com/fyrsmithlabs/recalld/internal/memory"
	"github.com/fyrsmithlabs/recalld/internal/record"
	"github.com/fyrsmithlabs/recalld/internal/shard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubProfiles is a fixed-response ProfileProvider.
type stubProfiles struct {
	text string
	ok   bool
	err  error
}

func (s stubProfiles) Profile(_ context.Context, _ string) (string, bool, error) {
	return s.text, s.ok, s.err
}

type testEnv struct {
	service *memory.Service
	shards  *shard.Store
	records *record.Store
}

func newTestEnv(t *testing.T, profiles memory.ProfileProvider) *testEnv {
	t.Helper()
	dir := t.TempDir()

	shards, err := shard.NewStore(filepath.Join(dir, "shards"), zap.NewNop())
	require.NoError(t, err)

	records, err := record.NewStore(filepath.Join(dir, "records.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = records.Close() })

	service, err := memory.NewService(memory.Params{
		Embedder: embeddings.NewHashProvider(),
		Shards:   shards,
		Records:  records,
		Profiles: profiles,
		Logger:   zap.NewNop(),
	})
	require.NoError(t, err)

	return &testEnv{service: service, shards: shards, records: records}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := memory.NewService(memory.Params{})
	assert.ErrorIs(t, err, memory.ErrInvalidParams)
}

func TestStoreMemoryNewRecord(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	vectorKey, err := env.service.StoreMemory(ctx, "I went hiking today", "message", "alice", "conv-1", nil)
	require.NoError(t, err)
	require.NotEmpty(t, vectorKey)

	rec, found, err := env.records.GetByVectorKey(ctx, "alice", vectorKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "I went hiking today", rec.Content)
	assert.Equal(t, "message", rec.ContentType)
	assert.Equal(t, "conv-1", rec.ConversationID)

	assert.Equal(t, 1, env.shards.Count("alice"))
}

func TestStoreMemoryEmptyContent(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.service.StoreMemory(context.Background(), "", "message", "alice", "", nil)
	assert.ErrorIs(t, err, memory.ErrEmptyContent)
}

func TestConsolidationUpsertsSingleRecord(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	firstKey, err := env.service.StoreMemory(ctx, "email: a@x.com", "fact", "alice", "", nil)
	require.NoError(t, err)

	secondKey, err := env.service.StoreMemory(ctx, "email: b@x.com", "fact", "alice", "", nil)
	require.NoError(t, err)

	// Same vector key: updated in place, not appended.
	assert.Equal(t, firstKey, secondKey)
	assert.Equal(t, 1, env.shards.Count("alice"))

	all, err := env.records.ListByOwner(ctx, "alice", "", 10)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "email: b@x.com", all[0].Content)

	key, ok := all[0].ConsolidationKey()
	require.True(t, ok)
	assert.Equal(t, "email", key)

	// Retrieval reflects the new value.
	results, err := env.service.SearchMemories(ctx, "alice", "b@x.com", nil, 5, 0)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "email: b@x.com", results[0].Content)
}

func TestConsolidationKeyWithJSONEscapedCharacters(t *testing.T) {
	// json.Marshal escapes & in the stored attributes; the consolidation
	// lookup must still find the record, not append a duplicate.
	env := newTestEnv(t, nil)
	ctx := context.Background()

	firstKey, err := env.service.StoreMemory(ctx, "r&b: my favorite genre", "fact", "alice", "", nil)
	require.NoError(t, err)
	secondKey, err := env.service.StoreMemory(ctx, "r&b: my second favorite genre", "fact", "alice", "", nil)
	require.NoError(t, err)

	assert.Equal(t, firstKey, secondKey)
	assert.Equal(t, 1, env.shards.Count("alice"))

	all, err := env.records.ListByOwner(ctx, "alice", "", 10)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "r&b: my second favorite genre", all[0].Content)

	key, ok := all[0].ConsolidationKey()
	require.True(t, ok)
	assert.Equal(t, "r&b", key)
}

func TestDistinctConsolidationKeysStaySeparate(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.service.StoreMemory(ctx, "city: Paris", "fact", "alice", "", nil)
	require.NoError(t, err)
	_, err = env.service.StoreMemory(ctx, "pet: cat", "fact", "alice", "", nil)
	require.NoError(t, err)

	all, err := env.records.ListByOwner(ctx, "alice", "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 2, env.shards.Count("alice"))
}

func TestConsolidationDegradesWhenVectorUpdateFails(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	firstKey, err := env.service.StoreMemory(ctx, "email: a@x.com", "fact", "alice", "", nil)
	require.NoError(t, err)

	// Losing the shard makes the vector swap fail; the record update
	// must still stand and the operation must not error.
	require.NoError(t, env.shards.Drop("alice"))

	secondKey, err := env.service.StoreMemory(ctx, "email: b@x.com", "fact", "alice", "", nil)
	require.NoError(t, err)
	assert.Equal(t, firstKey, secondKey)

	rec, found, err := env.records.GetByVectorKey(ctx, "alice", firstKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "email: b@x.com", rec.Content)
}

func TestConsolidationScopedToOwner(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	aliceKey, err := env.service.StoreMemory(ctx, "city: Paris", "fact", "alice", "", nil)
	require.NoError(t, err)
	bobKey, err := env.service.StoreMemory(ctx, "city: Berlin", "fact", "bob", "", nil)
	require.NoError(t, err)

	assert.NotEqual(t, aliceKey, bobKey)

	rec, found, err := env.records.GetByVectorKey(ctx, "alice", aliceKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "city: Paris", rec.Content)
}

func TestPlainMessagesAppend(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.service.StoreMemory(ctx, "hello there", "message", "alice", "conv", nil)
	require.NoError(t, err)
	_, err = env.service.StoreMemory(ctx, "hello there", "message", "alice", "conv", nil)
	require.NoError(t, err)

	// No consolidation key means no duplicate suppression.
	assert.Equal(t, 2, env.shards.Count("alice"))
}

func TestSearchMemoriesMinRelevanceFilter(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.service.StoreMemory(ctx, "favorite hiking trail in the mountains", "fact", "alice", "", nil)
	require.NoError(t, err)

	// An exact-text query scores 1.0; an unrelated query scores near 0.
	results, err := env.service.SearchMemories(ctx, "alice", "favorite hiking trail in the mountains", nil, 5, 0.9)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = env.service.SearchMemories(ctx, "alice", "quarterly revenue spreadsheet", nil, 5, 0.9)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchMemoriesExplicitZeroRelevanceFloor(t *testing.T) {
	// A configured zero floor is honored, not replaced by the 0.5 default.
	env := newTestEnv(t, nil)
	ctx := context.Background()

	zero := float32(0)
	service, err := memory.NewService(memory.Params{
		Embedder: embeddings.NewHashProvider(),
		Shards:   env.shards,
		Records:  env.records,
		Defaults: memory.Defaults{MinRelevance: &zero},
		Logger:   zap.NewNop(),
	})
	require.NoError(t, err)

	_, err = service.StoreMemory(ctx, "favorite hiking trail", "fact", "alice", "", nil)
	require.NoError(t, err)

	// Negative minRelevance selects the configured floor; with a zero
	// floor even an unrelated query's near-zero score passes.
	results, err := service.SearchMemories(ctx, "alice", "quarterly revenue spreadsheet", nil, 5, -1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchMemoriesContentTypeFilter(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.service.StoreMemory(ctx, "shared topic alpha", "message", "alice", "conv", nil)
	require.NoError(t, err)
	_, err = env.service.StoreMemory(ctx, "shared topic beta", "fact", "alice", "", nil)
	require.NoError(t, err)

	results, err := env.service.SearchMemories(ctx, "alice", "shared topic", []string{"fact"}, 5, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fact", results[0].ContentType)
}

func TestSearchMemoriesOwnerIsolation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.service.StoreMemory(ctx, "private note about travel", "fact", "alice", "", nil)
	require.NoError(t, err)

	results, err := env.service.SearchMemories(ctx, "bob", "private note about travel", nil, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchMemoriesOrderedByScore(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.service.StoreMemory(ctx, "the weather is sunny", "message", "alice", "conv", nil)
	require.NoError(t, err)
	_, err = env.service.StoreMemory(ctx, "sunny weather forecast for tomorrow", "message", "alice", "conv", nil)
	require.NoError(t, err)

	results, err := env.service.SearchMemories(ctx, "alice", "the weather is sunny", nil, 5, 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(results), 2)
	assert.Equal(t, "the weather is sunny", results[0].Content)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestSetRelevance(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	vectorKey, err := env.service.StoreMemory(ctx, "plain note", "message", "alice", "", nil)
	require.NoError(t, err)

	ok, err := env.service.SetRelevance(ctx, "alice", vectorKey, 0.2)
	require.NoError(t, err)
	assert.True(t, ok)

	rec, found, err := env.records.GetByVectorKey(ctx, "alice", vectorKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 0.2, rec.RelevanceScore)
}

func TestPurgeOwner(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.service.StoreMemory(ctx, "one", "message", "alice", "conv", nil)
	require.NoError(t, err)
	_, err = env.service.StoreMemory(ctx, "two", "message", "alice", "conv", nil)
	require.NoError(t, err)
	_, err = env.service.StoreMemory(ctx, "keep me", "message", "bob", "conv", nil)
	require.NoError(t, err)

	n, err := env.service.PurgeOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// Both stores emptied for alice, bob untouched.
	assert.Equal(t, 0, env.shards.Count("alice"))
	all, err := env.records.ListByOwner(ctx, "alice", "", 10)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Equal(t, 1, env.shards.Count("bob"))
}

func TestStoreMemoryAdvisoryOnProfileError(t *testing.T) {
	// A ProfileProvider error must not affect writes; it only degrades
	// context assembly.
	env := newTestEnv(t, stubProfiles{err: errors.New("profile backend down")})

	_, err := env.service.StoreMemory(context.Background(), "note", "message", "alice", "", nil)
	assert.NoError(t, err)
}
