package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ntuthuko-dev/Web-Solution/internal/metrics"
	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/domain"
)

// PostgresStore keeps the collection as one JSONB document row. It follows
// the same whole-document contract as the JSONBin store.
type PostgresStore struct {
	pool *pgxpool.Pool
	name string
}

func NewPostgresStore(pool *pgxpool.Pool, documentName string) *PostgresStore {
	return &PostgresStore{pool: pool, name: documentName}
}

func (s *PostgresStore) Configured() bool { return s.pool != nil }
func (s *PostgresStore) Name() string     { return "postgres" }

// EnsureSchema creates the document table if it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS portfolio_documents (
	name       text PRIMARY KEY,
	body       jsonb NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
);
`
	if _, err := s.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("create portfolio_documents: %w", err)
	}
	return nil
}

func (s *PostgresStore) FetchAll(ctx context.Context) (projects domain.Snapshot, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreCall(s.Name(), "fetch_all", err, time.Since(start)) }()

	const q = `SELECT body FROM portfolio_documents WHERE name = $1;`

	var raw []byte
	err = s.pool.QueryRow(ctx, q, s.name).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: select document: %v", domain.ErrRemoteUnavailable, err)
	}

	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode document: %v", domain.ErrRemoteUnavailable, err)
	}
	if doc.Projects == nil {
		return domain.Snapshot{}, nil
	}
	return doc.Projects, nil
}

func (s *PostgresStore) ReplaceAll(ctx context.Context, projects domain.Snapshot) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreCall(s.Name(), "replace_all", err, time.Since(start)) }()

	raw, err := json.Marshal(domain.NewDocument(projects))
	if err != nil {
		return fmt.Errorf("failed to marshal projects: %w", err)
	}

	const q = `
INSERT INTO portfolio_documents (name, body, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = now();
`
	if _, err := s.pool.Exec(ctx, q, s.name, raw); err != nil {
		return fmt.Errorf("%w: upsert document: %v", domain.ErrRemoteUnavailable, err)
	}
	return nil
}
