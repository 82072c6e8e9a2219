package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zmemovies/rue-track/internal"
)

// seqIDs hands out predictable ids.
type seqIDs struct {
	n int
}

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

func at(t time.Time) internal.Millis {
	return internal.MillisFromTime(t)
}

func TestEnsurePeeAttemptAfterWater_SchedulesOffset(t *testing.T) {
	doc := internal.NewDocument()
	ids := &seqIDs{}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	water := &internal.Event{ID: "w1", Type: internal.EventWater, At: at(now)}
	AppendEvent(doc, water)

	attempt := EnsurePeeAttemptAfterWater(doc, water, now, ids)
	assert.NotNil(t, attempt)
	assert.Equal(t, internal.ReasonPee, attempt.Reason)
	assert.Equal(t, "w1", attempt.SourceEventID)
	assert.False(t, attempt.Done)
	assert.Equal(t, water.At+internal.Millis((80*time.Minute).Milliseconds()), attempt.At)
}

func TestEnsurePeeAttemptAfterWater_OnlyFirstWaterSchedules(t *testing.T) {
	doc := internal.NewDocument()
	ids := &seqIDs{}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	first := &internal.Event{ID: "w1", Type: internal.EventWater, At: at(now)}
	AppendEvent(doc, first)
	assert.NotNil(t, EnsurePeeAttemptAfterWater(doc, first, now, ids))

	// More water before the reminder resolves must not spam reminders.
	for i := 0; i < 3; i++ {
		later := now.Add(time.Duration(i+1) * 10 * time.Minute)
		w := &internal.Event{ID: fmt.Sprintf("w%d", i+2), Type: internal.EventWater, At: at(later)}
		AppendEvent(doc, w)
		assert.Nil(t, EnsurePeeAttemptAfterWater(doc, w, later, ids))
	}

	assert.Len(t, doc.OutAttempts, 1)
	assert.Equal(t, "w1", doc.OutAttempts[0].SourceEventID)
}

func TestEnsurePeeAttemptAfterWater_SchedulesAgainAfterPee(t *testing.T) {
	doc := internal.NewDocument()
	ids := &seqIDs{}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	w1 := &internal.Event{ID: "w1", Type: internal.EventWater, At: at(now)}
	AppendEvent(doc, w1)
	EnsurePeeAttemptAfterWater(doc, w1, now, ids)

	// A real pee clears the pending reminder.
	pee := &internal.Event{ID: "p1", Type: internal.EventPee, At: at(now.Add(30 * time.Minute))}
	AppendEvent(doc, pee)
	assert.Empty(t, doc.OutAttempts)

	// The next water after that pee schedules a fresh one.
	later := now.Add(time.Hour)
	w2 := &internal.Event{ID: "w2", Type: internal.EventWater, At: at(later)}
	AppendEvent(doc, w2)
	attempt := EnsurePeeAttemptAfterWater(doc, w2, later, ids)
	assert.NotNil(t, attempt)
	assert.Equal(t, "w2", attempt.SourceEventID)
}

func TestEnsurePeeAttemptAfterWater_InvalidInput(t *testing.T) {
	doc := internal.NewDocument()
	ids := &seqIDs{}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.Nil(t, EnsurePeeAttemptAfterWater(doc, nil, now, ids))
	assert.Nil(t, EnsurePeeAttemptAfterWater(doc, &internal.Event{ID: "w", Type: internal.EventWater, At: 0}, now, ids))
	assert.Nil(t, EnsurePeeAttemptAfterWater(doc, &internal.Event{ID: "p", Type: internal.EventPee, At: at(now)}, now, ids))
	assert.Empty(t, doc.OutAttempts)
}

func TestAppendPeeClearsPendingPeeAttempts(t *testing.T) {
	doc := internal.NewDocument()
	doc.OutAttempts = []*internal.OutAttempt{
		{ID: "a1", Reason: internal.ReasonPee, At: 100},
		{ID: "a2", Reason: internal.ReasonPee, At: 200, Done: true},
		{ID: "a3", Reason: internal.ReasonMeal, At: 300},
	}

	cleared := AppendEvent(doc, &internal.Event{ID: "p1", Type: internal.EventPee, At: 150})

	assert.Len(t, cleared, 1)
	assert.Equal(t, "a1", cleared[0].ID)
	for _, a := range doc.OutAttempts {
		if a.Reason == internal.ReasonPee {
			assert.True(t, a.Done)
		}
	}
	assert.NotNil(t, doc.AttemptByID("a3"))
}

func TestRemoveEventCascadesToSourcedAttempts(t *testing.T) {
	doc := internal.NewDocument()
	AppendEvent(doc, &internal.Event{ID: "w1", Type: internal.EventWater, At: 100})
	AppendEvent(doc, &internal.Event{ID: "w2", Type: internal.EventWater, At: 200})
	doc.OutAttempts = []*internal.OutAttempt{
		{ID: "a1", Reason: internal.ReasonPee, SourceEventID: "w1"},
		{ID: "a2", Reason: internal.ReasonPee, SourceEventID: "w2"},
		{ID: "a3", Reason: internal.ReasonMeal},
	}

	cascaded, ok := RemoveEvent(doc, "w1")
	assert.True(t, ok)
	assert.Len(t, cascaded, 1)
	assert.Equal(t, "a1", cascaded[0].ID)
	assert.Nil(t, doc.EventByID("w1"))
	assert.Nil(t, doc.AttemptByID("a1"))
	assert.NotNil(t, doc.AttemptByID("a2"))
	assert.NotNil(t, doc.AttemptByID("a3"))

	_, ok = RemoveEvent(doc, "missing")
	assert.False(t, ok)
}

func TestAcknowledgePeeAttemptAppendsEvent(t *testing.T) {
	doc := internal.NewDocument()
	doc.OutAttempts = []*internal.OutAttempt{{ID: "a1", Reason: internal.ReasonPee, At: 100}}
	ids := &seqIDs{}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	a, ev, err := AcknowledgeAttempt(doc, "a1", now, ids)
	assert.NoError(t, err)
	assert.True(t, a.Done)
	assert.NotNil(t, ev)
	assert.Equal(t, internal.EventPeeAttempt, ev.Type)
	assert.Equal(t, at(now), ev.At)

	// Acknowledging again is a no-op.
	_, ev, err = AcknowledgeAttempt(doc, "a1", now, ids)
	assert.NoError(t, err)
	assert.Nil(t, ev)
	assert.Len(t, doc.Events, 1)

	_, _, err = AcknowledgeAttempt(doc, "missing", now, ids)
	assert.ErrorIs(t, err, internal.ErrNotFound)
}

func TestAcknowledgeMealAttemptAppendsNothing(t *testing.T) {
	doc := internal.NewDocument()
	doc.OutAttempts = []*internal.OutAttempt{{ID: "a1", Reason: internal.ReasonMeal, At: 100}}
	ids := &seqIDs{}

	a, ev, err := AcknowledgeAttempt(doc, "a1", time.Now(), ids)
	assert.NoError(t, err)
	assert.True(t, a.Done)
	assert.Nil(t, ev)
	assert.Empty(t, doc.Events)
}

func TestEnsureMealAttempt(t *testing.T) {
	doc := internal.NewDocument()
	ids := &seqIDs{}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	attempt := EnsureMealAttempt(doc, now, ids)
	assert.NotNil(t, attempt)
	assert.Equal(t, internal.ReasonMeal, attempt.Reason)
	// 08:00 already passed, next slot is 13:00.
	assert.Equal(t, at(time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)), attempt.At)

	// Second ensure is a no-op while one is pending.
	assert.Nil(t, EnsureMealAttempt(doc, now, ids))
	assert.Len(t, doc.OutAttempts, 1)
}

func TestEnsureMealAttemptOverdueReminderStillDedupes(t *testing.T) {
	doc := internal.NewDocument()
	ids := &seqIDs{}

	early := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	attempt := EnsureMealAttempt(doc, early, ids)
	assert.NotNil(t, attempt)
	assert.Equal(t, at(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)), attempt.At)

	// The 08:00 reminder is overdue but never acknowledged. Ensuring again
	// later the same day must not stack a second pending meal reminder.
	later := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	assert.Nil(t, EnsureMealAttempt(doc, later, ids))
	assert.Len(t, doc.OutAttempts, 1)
}

func TestPendingAttemptsSortedAscending(t *testing.T) {
	doc := internal.NewDocument()
	doc.OutAttempts = []*internal.OutAttempt{
		{ID: "a1", At: 300},
		{ID: "a2", At: 100},
		{ID: "a3", At: 200, Done: true},
	}

	pending := PendingAttempts(doc)
	assert.Len(t, pending, 2)
	assert.Equal(t, "a2", pending[0].ID)
	assert.Equal(t, "a1", pending[1].ID)
}
