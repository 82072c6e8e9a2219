package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zmemovies/rue-track/internal"
)

// SQLiteStore keeps the document as a single row. The document is the unit
// of persistence, so there is nothing to gain from per-entity tables.
type SQLiteStore struct {
	db     *sql.DB
	logger internal.Logger
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS document (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	body       BLOB NOT NULL,
	updated_at TEXT NOT NULL
);`

func NewSQLiteStore(path string, logger internal.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Errorf("failed to open sqlite database: %v", err)
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		logger.Errorf("failed to create sqlite schema: %v", err)
		return nil, err
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*internal.Document, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM document WHERE id = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return internal.NewDocument(), nil
	}
	if err != nil {
		return nil, err
	}

	doc := &internal.Document{}
	if err := json.Unmarshal(body, doc); err != nil {
		s.logger.Errorf("storage: corrupt document row, resetting to defaults: %v", err)
		return internal.NewDocument(), nil
	}
	doc.Normalize()
	return doc, nil
}

func (s *SQLiteStore) Save(ctx context.Context, doc *internal.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO document (id, body, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		body, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		s.logger.Errorf("failed to save document: %v", err)
	}
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ DocumentStore = (*SQLiteStore)(nil)
