// Package replica abstracts the optional remote copy of the document.
// With sync disabled the tracker runs against Noop and behaves exactly as
// in local-only mode.
package replica

import (
	"context"

	"github.com/zmemovies/rue-track/internal"
)

type EntityKind string

const (
	KindEvent         EntityKind = "event"
	KindOutAttempt    EntityKind = "outAttempt"
	KindCommand       EntityKind = "trainingCommand"
	KindSettings      EntityKind = "settings"
	KindActiveSession EntityKind = "activeSession"
)

// Entity is the per-record envelope pushed to the remote side.
type Entity struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
	Data any        `json:"data,omitempty"`
}

// Backend is the remote replica contract. Every call is best-effort from
// the tracker's point of view: failures are logged by the caller and never
// block a local mutation.
type Backend interface {
	// FetchAll returns the remote document, or nil when the remote has
	// none yet.
	FetchAll(ctx context.Context) (*internal.Document, error)
	Insert(ctx context.Context, e Entity) error
	Update(ctx context.Context, e Entity) error
	Delete(ctx context.Context, e Entity) error
	// Subscribe invokes onChange whenever the remote document may have
	// changed. The returned function cancels the subscription.
	Subscribe(onChange func()) (func(), error)
}

// Noop is the disabled-sync backend.
type Noop struct{}

func (Noop) FetchAll(ctx context.Context) (*internal.Document, error) { return nil, nil }
func (Noop) Insert(ctx context.Context, e Entity) error               { return nil }
func (Noop) Update(ctx context.Context, e Entity) error               { return nil }
func (Noop) Delete(ctx context.Context, e Entity) error               { return nil }
func (Noop) Subscribe(onChange func()) (func(), error)                { return func() {}, nil }

var _ Backend = Noop{}
