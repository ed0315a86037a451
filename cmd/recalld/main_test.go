package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fyrsmithlabs/recalld/internal/memory"
	"github.com/fyrsmithlabs/recalld/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRecordProfiles(t *testing.T) {
	records, err := record.NewStore(filepath.Join(t.TempDir(), "records.db"), zap.NewNop())
	require.NoError(t, err)
	defer records.Close()

	profiles := &recordProfiles{records: records}
	ctx := context.Background()

	// No profile stored yet.
	_, ok, err := profiles.Profile(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, records.Create(ctx, &record.Record{
		VectorKey:   "vk-1",
		Content:     "Name: Ada | Tone: warm",
		ContentType: memory.ContentTypeProfile,
		OwnerID:     "alice",
	}))

	text, ok, err := profiles.Profile(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Name: Ada | Tone: warm", text)

	// Profiles are owner-scoped.
	_, ok, err = profiles.Profile(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubcommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"store", "search", "context", "prompt", "purge"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
