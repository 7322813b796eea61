package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot(jobID string) *Snapshot {
	return &Snapshot{
		JobID:       jobID,
		Stage:       "compose",
		RunQA:       true,
		RunImprover: false,
		Inputs: map[string]any{
			"job_description": "Senior Go engineer",
			"profile_text":    "Ten years of backend work",
		},
		Artifacts: map[string]any{
			"jd":      map[string]any{"title": "Senior Go engineer"},
			"profile": map[string]any{"summary": "Ten years of backend work"},
			"plan":    map[string]any{"strategy": "emphasize distributed systems"},
		},
	}
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	want := sampleSnapshot("job-1")
	require.NoError(t, s.Save(ctx, "job-1", want))

	got, err := s.Load(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", got.JobID)
	assert.Equal(t, "compose", got.Stage)
	assert.True(t, got.RunQA)
	assert.False(t, got.RunImprover)
	assert.Equal(t, "Senior Go engineer", got.Inputs["job_description"])
	assert.Contains(t, got.Artifacts, "plan")
}

func TestFileStore_LoadNotFound(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first := sampleSnapshot("job-1")
	first.Stage = "match"
	require.NoError(t, s.Save(ctx, "job-1", first))

	second := sampleSnapshot("job-1")
	second.Stage = "qa"
	require.NoError(t, s.Save(ctx, "job-1", second))

	got, err := s.Load(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "qa", got.Stage)
}

func TestFileStore_EmptyArtifacts(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	snap := &Snapshot{JobID: "job-2", Stage: "start", Artifacts: map[string]any{}}
	require.NoError(t, s.Save(ctx, "job-2", snap))

	got, err := s.Load(ctx, "job-2")
	require.NoError(t, err)
	assert.Empty(t, got.Artifacts)
	assert.Empty(t, got.Inputs)
}

func TestFileStore_ListMostRecentFirst(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []string{"job-a", "job-b", "job-c"} {
		require.NoError(t, s.Save(ctx, id, sampleSnapshot(id)))
		// Ensure distinct mtimes even on coarse filesystem clocks.
		time.Sleep(10 * time.Millisecond)
	}

	snaps, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Equal(t, "job-c", snaps[0].JobID)
	assert.Equal(t, "job-a", snaps[2].JobID)

	limited, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestFileStore_ListSkipsNonSnapshotFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "job-1", sampleSnapshot("job-1")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("scratch"), 0o644))

	snaps, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestFileStore_DecodeToleratesUnknownFields(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	// A snapshot written by a newer version with extra fields still loads.
	raw := map[string]any{
		"job_id":      "job-3",
		"stage":       "qa",
		"run_qa":      true,
		"artifacts":   map[string]any{"jd": map[string]any{"title": "x"}},
		"new_field":   "ignored",
		"another_one": 42,
	}
	data, err := json.Marshal(raw)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "job-3.json"), data, 0o644))

	got, err := s.Load(context.Background(), "job-3")
	require.NoError(t, err)
	assert.Equal(t, "qa", got.Stage)
	assert.True(t, got.RunQA)
}

func TestMemoryStore_RoundTripAndIsolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	snap := sampleSnapshot("job-1")
	require.NoError(t, s.Save(ctx, "job-1", snap))

	// Mutating the saved snapshot must not affect the stored copy.
	snap.Stage = "mutated"
	snap.Artifacts["plan"] = nil

	got, err := s.Load(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "compose", got.Stage)
	assert.NotNil(t, got.Artifacts["plan"])

	_, err = s.Load(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ListOrderAndLimit(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"job-a", "job-b", "job-c"} {
		require.NoError(t, s.Save(ctx, id, sampleSnapshot(id)))
		time.Sleep(2 * time.Millisecond)
	}

	snaps, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "job-c", snaps[0].JobID)
	assert.Equal(t, "job-b", snaps[1].JobID)
}
