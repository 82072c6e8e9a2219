package storage

import (
	"context"

	"github.com/zmemovies/rue-track/internal"
)

// DocumentStore persists the whole tracker document as one unit. Load
// never fails into the caller over a missing or corrupt document: it
// returns a fresh default document instead, because losing history beats
// crashing a reminder tool.
type DocumentStore interface {
	Load(ctx context.Context) (*internal.Document, error)
	Save(ctx context.Context, doc *internal.Document) error
	Close() error
}
