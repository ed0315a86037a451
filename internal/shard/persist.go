package shard

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/recalld/internal/sanitize"
	"go.uber.org/zap"
)

// Artifact suffixes. Every owner shard is two files: the gob-encoded vector
// sequence and the JSON-encoded ordered key list.
const (
	vectorSuffix = ".vec"
	keysSuffix   = ".keys.json"
)

// flatIndex is the in-memory form of one owner's shard.
//
// Invariant: len(Keys) == len(Vectors) and Keys[i] is the key for Vectors[i].
type flatIndex struct {
	Dimension int
	Keys      []string
	Vectors   [][]float32
}

// size returns the number of stored vectors.
func (ix *flatIndex) size() int {
	return len(ix.Vectors)
}

// vectorArtifact is the persisted form of the vector sequence.
type vectorArtifact struct {
	Dimension int
	Vectors   [][]float32
}

// artifactPaths returns the two artifact paths for an owner.
func (s *Store) artifactPaths(ownerID string) (vecPath, keysPath string) {
	base := sanitize.Identifier(ownerID)
	return filepath.Join(s.dir, base+vectorSuffix), filepath.Join(s.dir, base+keysSuffix)
}

// load reads an owner's shard from disk.
//
// Missing artifacts yield an empty shard. Corrupt or mutually inconsistent
// artifacts also yield an empty shard: this store is a rebuildable cache and
// a fresh shard beats a fatal error.
func (s *Store) load(ownerID string) *flatIndex {
	vecPath, keysPath := s.artifactPaths(ownerID)

	vecFile, err := os.Open(vecPath)
	if os.IsNotExist(err) {
		return &flatIndex{}
	}
	if err != nil {
		s.logger.Warn("shard vector artifact unreadable, treating as empty",
			zap.String("owner_id", ownerID), zap.Error(err))
		return &flatIndex{}
	}
	defer vecFile.Close()

	var artifact vectorArtifact
	if err := gob.NewDecoder(vecFile).Decode(&artifact); err != nil {
		s.logger.Warn("shard vector artifact corrupt, treating as empty",
			zap.String("owner_id", ownerID), zap.Error(err))
		return &flatIndex{}
	}

	keysRaw, err := os.ReadFile(keysPath)
	if err != nil {
		s.logger.Warn("shard key artifact unreadable, treating as empty",
			zap.String("owner_id", ownerID), zap.Error(err))
		return &flatIndex{}
	}

	var keys []string
	if err := json.Unmarshal(keysRaw, &keys); err != nil {
		s.logger.Warn("shard key artifact corrupt, treating as empty",
			zap.String("owner_id", ownerID), zap.Error(err))
		return &flatIndex{}
	}

	if len(keys) != len(artifact.Vectors) {
		s.logger.Warn("shard artifacts out of sync, treating as empty",
			zap.String("owner_id", ownerID),
			zap.Int("keys", len(keys)),
			zap.Int("vectors", len(artifact.Vectors)),
		)
		return &flatIndex{}
	}

	return &flatIndex{
		Dimension: artifact.Dimension,
		Keys:      keys,
		Vectors:   artifact.Vectors,
	}
}

// save persists both artifacts atomically: each is written to a temporary
// file in the same directory and then renamed over the previous artifact, so
// a concurrent reader never observes a half-written index.
func (s *Store) save(ownerID string, ix *flatIndex) error {
	vecPath, keysPath := s.artifactPaths(ownerID)

	vecTmp, err := writeTempGob(vecPath, vectorArtifact{
		Dimension: ix.Dimension,
		Vectors:   ix.Vectors,
	})
	if err != nil {
		return fmt.Errorf("writing vector artifact: %w", err)
	}

	keysRaw, err := json.Marshal(ix.Keys)
	if err != nil {
		_ = os.Remove(vecTmp)
		return fmt.Errorf("encoding key artifact: %w", err)
	}
	keysTmp, err := writeTempFile(keysPath, keysRaw)
	if err != nil {
		_ = os.Remove(vecTmp)
		return fmt.Errorf("writing key artifact: %w", err)
	}

	if err := os.Rename(vecTmp, vecPath); err != nil {
		_ = os.Remove(vecTmp)
		_ = os.Remove(keysTmp)
		return fmt.Errorf("swapping vector artifact: %w", err)
	}
	if err := os.Rename(keysTmp, keysPath); err != nil {
		_ = os.Remove(keysTmp)
		return fmt.Errorf("swapping key artifact: %w", err)
	}
	return nil
}

// remove deletes both artifacts for an owner. Missing files are not errors.
func (s *Store) remove(ownerID string) error {
	vecPath, keysPath := s.artifactPaths(ownerID)

	if err := os.Remove(vecPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing vector artifact: %w", err)
	}
	if err := os.Remove(keysPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing key artifact: %w", err)
	}
	return nil
}

func writeTempGob(target string, artifact vectorArtifact) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".tmp-*")
	if err != nil {
		return "", err
	}
	if err := gob.NewEncoder(f).Encode(artifact); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func writeTempFile(target string, content []byte) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".tmp-*")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
