package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists snapshots in a pipeline_jobs table, one row per job.
// The whole snapshot is stored as a JSONB document so schema evolution in the
// snapshot does not require migrations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres establishes a connection pool and verifies connectivity.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the pipeline_jobs table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pipeline_jobs (
			job_id     TEXT PRIMARY KEY,
			snapshot   JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create pipeline_jobs table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, jobID string) (*Snapshot, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT snapshot FROM pipeline_jobs WHERE job_id = $1`,
		jobID,
	).Scan(&data)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load snapshot for job %s: %w", jobID, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot for job %s: %w", jobID, err)
	}
	return &snap, nil
}

func (s *PostgresStore) Save(ctx context.Context, jobID string, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for job %s: %w", jobID, err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO pipeline_jobs (job_id, snapshot)
		 VALUES ($1, $2)
		 ON CONFLICT (job_id) DO UPDATE SET snapshot = $2, updated_at = NOW()`,
		jobID, data,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot for job %s: %w", jobID, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]*Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT snapshot FROM pipeline_jobs ORDER BY updated_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*Snapshot
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot row: %w", err)
		}
		snaps = append(snaps, &snap)
	}
	return snaps, nil
}
