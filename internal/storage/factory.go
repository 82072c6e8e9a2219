package storage

import (
	"fmt"

	"github.com/zmemovies/rue-track/internal"
	"github.com/zmemovies/rue-track/internal/config"
)

// NewDocumentStore selects the persistence backend from config.
func NewDocumentStore(cfg *config.Config, logger internal.Logger) (DocumentStore, error) {
	switch cfg.DBType {
	case "file":
		return NewFileStore(cfg.DocumentFile, logger)
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath, logger)
	case "postgres":
		return NewPostgresStore(cfg.DBDSN, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.DBType)
	}
}
