package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zmemovies/rue-track/internal"
)

type PostgresStore struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStore(dsn string, logger internal.Logger) (*PostgresStore, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			id         INT PRIMARY KEY,
			body       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		pool.Close()
		logger.Errorf("failed to create documents table: %v", err)
		return nil, err
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (p *PostgresStore) Load(ctx context.Context) (*internal.Document, error) {
	var body []byte
	err := p.pool.QueryRow(ctx, `SELECT body FROM documents WHERE id = 1`).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return internal.NewDocument(), nil
	}
	if err != nil {
		p.logger.Errorf("failed to query document: %v", err)
		return nil, err
	}

	doc := &internal.Document{}
	if err := json.Unmarshal(body, doc); err != nil {
		p.logger.Errorf("storage: corrupt document row, resetting to defaults: %v", err)
		return internal.NewDocument(), nil
	}
	doc.Normalize()
	return doc, nil
}

func (p *PostgresStore) Save(ctx context.Context, doc *internal.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO documents (id, body, updated_at) VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`, body)
	if err != nil {
		p.logger.Errorf("failed to save document: %v", err)
	}
	return err
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

var _ DocumentStore = (*PostgresStore)(nil)
