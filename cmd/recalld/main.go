// Package main implements the recalld CLI for local memory store operations.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recalld/internal/config"
	"github.com/fyrsmithlabs/recalld/internal/embeddings"
	"github.com/fyrsmithlabs/recalld/internal/logging"
	"github.com/fyrsmithlabs/recalld/internal/memory"
	"github.com/fyrsmithlabs/recalld/internal/record"
	"github.com/fyrsmithlabs/recalld/internal/shard"
)

var (
	// configPath is the optional config file location.
	configPath string
	// ownerID scopes every command to one owner.
	ownerID string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "recalld",
	Short: "Per-user semantic memory store",
	Long: `recalld stores per-user memories as vectors plus metadata records and
assembles personalized conversation context from them.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&ownerID, "owner", "", "owner ID (required)")
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(purgeCmd)
}

// env bundles the wired service with the resources it owns.
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *memory.Service
	records *record.Store
}

// close releases everything openService acquired.
func (e *env) close() {
	if e.records != nil {
		_ = e.records.Close()
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
}

// openService loads configuration and wires the memory service against the
// configured data directory.
func openService() (*env, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("--owner is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	if err := os.MkdirAll(cfg.Memory.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	embedder := embeddings.Default(embeddings.Config{
		Model:    cfg.Memory.EmbeddingModel,
		CacheDir: cfg.Memory.ModelCacheDir,
	}, logger)

	if cfg.Memory.EmbeddingCacheEntries > 0 {
		cached, err := embeddings.NewCachedProvider(embedder, cfg.Memory.EmbeddingModel, cfg.Memory.EmbeddingCacheEntries, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding cache: %w", err)
		}
		embedder = cached
	}

	shards, err := shard.NewStore(filepath.Join(cfg.Memory.DataDir, "shards"), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open shard store: %w", err)
	}

	records, err := record.NewStore(filepath.Join(cfg.Memory.DataDir, "records.db"), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}

	service, err := memory.NewService(memory.Params{
		Embedder: embedder,
		Shards:   shards,
		Records:  records,
		Profiles: &recordProfiles{records: records},
		Defaults: memory.Defaults{
			TopK:           cfg.Memory.TopK,
			RecentMessages: cfg.Memory.RecentMessages,
			MinRelevance:   &cfg.Memory.MinRelevance,
		},
		Logger: logger,
	})
	if err != nil {
		_ = records.Close()
		return nil, fmt.Errorf("failed to create memory service: %w", err)
	}

	return &env{cfg: cfg, logger: logger, service: service, records: records}, nil
}

// recordProfiles serves profiles from stored onboarding-profile records.
type recordProfiles struct {
	records *record.Store
}

func (p *recordProfiles) Profile(ctx context.Context, owner string) (string, bool, error) {
	recs, err := p.records.ListByOwner(ctx, owner, memory.ContentTypeProfile, 1)
	if err != nil {
		return "", false, err
	}
	if len(recs) == 0 {
		return "", false, nil
	}
	return recs[0].Content, true, nil
}
