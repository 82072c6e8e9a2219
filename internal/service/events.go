package service

import (
	"github.com/zmemovies/rue-track/internal"
)

// AppendEvent adds ev to the log. A real pee occurrence resolves any
// outstanding pee reminder, so every pending pee attempt is dropped before
// the event lands. Returns the attempts that were cleared.
func AppendEvent(doc *internal.Document, ev *internal.Event) []*internal.OutAttempt {
	if ev == nil || !ev.Type.Known() {
		return nil
	}
	var cleared []*internal.OutAttempt
	if ev.Type == internal.EventPee {
		cleared = ClearPendingPeeAttempts(doc)
	}
	doc.Events = append(doc.Events, ev)
	return cleared
}

// ClearPendingPeeAttempts removes every non-done out attempt with the pee
// reason. Done attempts stay: they are history.
func ClearPendingPeeAttempts(doc *internal.Document) []*internal.OutAttempt {
	kept := make([]*internal.OutAttempt, 0, len(doc.OutAttempts))
	var cleared []*internal.OutAttempt
	for _, a := range doc.OutAttempts {
		if a.Reason == internal.ReasonPee && !a.Done {
			cleared = append(cleared, a)
			continue
		}
		kept = append(kept, a)
	}
	doc.OutAttempts = kept
	return cleared
}

// RemoveEvent deletes the event and cascades to every out attempt the event
// spawned. The store has no foreign-key awareness, so the cascade lives
// here. Returns the cascaded attempts and whether an event matched.
func RemoveEvent(doc *internal.Document, id string) ([]*internal.OutAttempt, bool) {
	found := false
	events := make([]*internal.Event, 0, len(doc.Events))
	for _, ev := range doc.Events {
		if ev.ID == id {
			found = true
			continue
		}
		events = append(events, ev)
	}
	if !found {
		return nil, false
	}
	doc.Events = events

	var cascaded []*internal.OutAttempt
	attempts := make([]*internal.OutAttempt, 0, len(doc.OutAttempts))
	for _, a := range doc.OutAttempts {
		if a.SourceEventID == id {
			cascaded = append(cascaded, a)
			continue
		}
		attempts = append(attempts, a)
	}
	doc.OutAttempts = attempts
	return cascaded, true
}

// EventPatch carries the only user-correctable fields of an event.
type EventPatch struct {
	At   *internal.Millis
	Note *string
}

// UpdateEvent applies the patch. An invalid timestamp is ignored rather
// than reported; this is a logging tool, not a transactional system.
func UpdateEvent(doc *internal.Document, id string, patch EventPatch) *internal.Event {
	ev := doc.EventByID(id)
	if ev == nil {
		return nil
	}
	if patch.At != nil && patch.At.Valid() {
		ev.At = *patch.At
	}
	if patch.Note != nil {
		ev.Note = *patch.Note
	}
	return ev
}

// QueryEvents returns the events matching pred, in log order.
func QueryEvents(doc *internal.Document, pred func(*internal.Event) bool) []*internal.Event {
	var out []*internal.Event
	for _, ev := range doc.Events {
		if pred(ev) {
			out = append(out, ev)
		}
	}
	return out
}
