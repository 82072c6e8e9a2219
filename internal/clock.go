package internal

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time so the derivation and scheduling logic stays
// deterministic in tests. All calendar math uses the returned value's
// location.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant; test helper.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time {
	return c.T
}

// IDGenerator creates opaque collision-resistant ids for new entities.
type IDGenerator interface {
	NewID() string
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}
