package sharded

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/simdex/internal/domain"
)

const manifestFile = "index.json"

// manifest describes the on-disk layout of a sharded index: the feature
// space, the sealing parameters, and one entry per sealed shard file.
type manifest struct {
	Version          int             `json:"version"`
	Dim              int             `json:"dim"`
	ShardCapacity    int             `json:"shard_capacity"`
	DensityThreshold float64         `json:"density_threshold"`
	Shards           []manifestShard `json:"shards"`
}

type manifestShard struct {
	File string `json:"file"`
	Kind string `json:"kind"`
	Rows int    `json:"rows"`
}

// writeManifest persists the manifest atomically (temp file + rename).
func writeManifest(dir string, m manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write manifest: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(dir, manifestFile)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename manifest: %w", err)
	}
	return nil
}

// readManifest loads and validates the manifest of an index directory.
func readManifest(dir string) (manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return manifest{}, fmt.Errorf("manifest in %s: %w", dir, domain.ErrIndexNotFound)
		}
		return manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return manifest{}, fmt.Errorf("parse manifest: %w: %w", err, domain.ErrShardCorrupted)
	}
	if m.Version != formatVersion {
		return manifest{}, fmt.Errorf("unsupported manifest version %d: %w", m.Version, domain.ErrShardCorrupted)
	}
	if m.Dim <= 0 {
		return manifest{}, fmt.Errorf("manifest dim %d: %w", m.Dim, domain.ErrShardCorrupted)
	}
	return m, nil
}
