// Package store provides pluggable persistence for pipeline job snapshots.
// The Store interface allows different backends (in-memory, local files,
// PostgreSQL) to persist per-job snapshots; the orchestrator uses it to
// persist and rehydrate job state by job id.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no snapshot exists for a job id.
var ErrNotFound = errors.New("job snapshot not found")

// Snapshot is the durable projection of a job's state: enough to resume or
// restart the job after a process restart. Artifact slots that a stage has
// not produced yet hold nil; loading a snapshot written by an older version
// simply leaves newer slots empty.
type Snapshot struct {
	JobID       string         `json:"job_id"`
	Stage       string         `json:"stage"`
	RunQA       bool           `json:"run_qa"`
	RunImprover bool           `json:"run_improver"`
	Inputs      map[string]any `json:"inputs,omitempty"`
	Artifacts   map[string]any `json:"artifacts"`
}

// Store is the abstract snapshot store. Save must be atomic from a reader's
// point of view: a concurrent Load never observes a partially written
// snapshot. I/O failures propagate to the caller; the in-memory job state
// remains the source of truth until the next successful save.
type Store interface {
	// Load returns the stored snapshot for jobID, or ErrNotFound.
	Load(ctx context.Context, jobID string) (*Snapshot, error)
	// Save durably persists the snapshot, overwriting any prior one.
	Save(ctx context.Context, jobID string, snap *Snapshot) error
	// List returns up to limit recent snapshots, most recently modified first.
	List(ctx context.Context, limit int) ([]*Snapshot, error)
}
