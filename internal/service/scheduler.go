package service

import (
	"math"
	"sort"
	"time"

	"github.com/zmemovies/rue-track/internal"
)

// Water intake predicts a future need this far ahead.
const peeAttemptOffset = 80 * time.Minute

// EnsurePeeAttemptAfterWater schedules a pee reminder 80 minutes after the
// water event, unless one is already pending. Only the first water after
// the most recent pee schedules anything: while a reminder created after
// that pee is unresolved, repeated water logging must not spam new ones.
// Returns the created attempt, or nil when nothing was scheduled.
func EnsurePeeAttemptAfterWater(doc *internal.Document, water *internal.Event, now time.Time, ids internal.IDGenerator) *internal.OutAttempt {
	if water == nil || water.Type != internal.EventWater || !water.At.Valid() {
		return nil
	}

	lastPee := internal.Millis(math.MinInt64)
	nowMs := internal.MillisFromTime(now)
	for _, ev := range doc.Events {
		if ev.Type == internal.EventPee && ev.At < nowMs && ev.At > lastPee {
			lastPee = ev.At
		}
	}

	for _, a := range doc.OutAttempts {
		if a.Reason == internal.ReasonPee && !a.Done && a.At > lastPee {
			return nil
		}
	}

	attempt := &internal.OutAttempt{
		ID:            ids.NewID(),
		At:            water.At + internal.Millis(peeAttemptOffset.Milliseconds()),
		Reason:        internal.ReasonPee,
		SourceEventID: water.ID,
	}
	doc.OutAttempts = append(doc.OutAttempts, attempt)
	return attempt
}

// EnsureMealAttempt schedules a reminder for the next unconsumed meal slot
// still ahead of now. At most one pending meal reminder exists at a time.
func EnsureMealAttempt(doc *internal.Document, now time.Time, ids internal.IDGenerator) *internal.OutAttempt {
	var next time.Time
	found := false
	for _, slot := range RemainingMealsToday(doc, now) {
		if !slot.Before(now) {
			next = slot
			found = true
			break
		}
	}
	if !found {
		return nil
	}
	today := internal.MillisFromTime(dayStart(now))
	for _, a := range doc.OutAttempts {
		if a.Reason == internal.ReasonMeal && !a.Done && a.At >= today {
			return nil
		}
	}
	attempt := &internal.OutAttempt{
		ID:     ids.NewID(),
		At:     internal.MillisFromTime(next),
		Reason: internal.ReasonMeal,
	}
	doc.OutAttempts = append(doc.OutAttempts, attempt)
	return attempt
}

// AcknowledgeAttempt marks the attempt done. Acknowledging a pee reminder
// means the dog was actually taken out, so a pee_attempt event is appended
// at the acknowledgment time and returned alongside the attempt.
func AcknowledgeAttempt(doc *internal.Document, id string, now time.Time, ids internal.IDGenerator) (*internal.OutAttempt, *internal.Event, error) {
	a := doc.AttemptByID(id)
	if a == nil {
		return nil, nil, internal.ErrNotFound
	}
	if a.Done {
		return a, nil, nil
	}
	a.Done = true
	var ev *internal.Event
	if a.Reason == internal.ReasonPee {
		ev = &internal.Event{
			ID:   ids.NewID(),
			Type: internal.EventPeeAttempt,
			At:   internal.MillisFromTime(now),
		}
		AppendEvent(doc, ev)
	}
	return a, ev, nil
}

// RemoveAttempt deletes the attempt outright.
func RemoveAttempt(doc *internal.Document, id string) bool {
	kept := make([]*internal.OutAttempt, 0, len(doc.OutAttempts))
	found := false
	for _, a := range doc.OutAttempts {
		if a.ID == id {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	doc.OutAttempts = kept
	return found
}

// PendingAttempts returns the non-done attempts ascending by time.
func PendingAttempts(doc *internal.Document) []*internal.OutAttempt {
	var out []*internal.OutAttempt
	for _, a := range doc.OutAttempts {
		if !a.Done {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At < out[j].At })
	return out
}
