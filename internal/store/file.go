package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore persists one JSON file per job under a base directory. Saves are
// atomic: the snapshot is written to a temp file in the same directory and
// renamed into place, so readers never see a torn write even if the process
// dies mid-save.
type FileStore struct {
	dir string
}

// NewFileStore creates the base directory if needed and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(jobID string) string {
	return filepath.Join(s.dir, jobID+".json")
}

func (s *FileStore) Load(ctx context.Context, jobID string) (*Snapshot, error) {
	data, err := os.ReadFile(s.path(jobID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot for job %s: %w", jobID, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot for job %s: %w", jobID, err)
	}
	return &snap, nil
}

func (s *FileStore) Save(ctx context.Context, jobID string, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for job %s: %w", jobID, err)
	}

	tmp, err := os.CreateTemp(s.dir, jobID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot for job %s: %w", jobID, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot for job %s: %w", jobID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot for job %s: %w", jobID, err)
	}

	if err := os.Rename(tmpName, s.path(jobID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit snapshot for job %s: %w", jobID, err)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context, limit int) ([]*Snapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot directory %s: %w", s.dir, err)
	}

	type candidate struct {
		jobID   string
		modTime int64
	}
	candidates := make([]candidate, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{
			jobID:   strings.TrimSuffix(name, ".json"),
			modTime: info.ModTime().UnixNano(),
		})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].modTime > candidates[j].modTime })

	snaps := make([]*Snapshot, 0, len(candidates))
	for _, c := range candidates {
		if limit > 0 && len(snaps) >= limit {
			break
		}
		snap, err := s.Load(ctx, c.jobID)
		if err != nil {
			// A file swapped out from under us is not fatal to the listing.
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}
