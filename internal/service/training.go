package service

import (
	"time"

	"github.com/zmemovies/rue-track/internal"
)

// PendingResult holds an ended session awaiting attempts/successes input.
// No TrainingSession exists until the result is confirmed.
type PendingResult struct {
	SessionID string          `json:"sessionId"`
	CommandID string          `json:"commandId"`
	StartedAt internal.Millis `json:"startedAt"`
	EndedAt   internal.Millis `json:"endedAt"`
	Seconds   float64         `json:"seconds"`
}

// ConfirmResult records the pending session on its command: inputs are
// clamped, the session is appended to history, practice time accrues, and
// the learned classification is recomputed. This is the only place a
// TrainingSession is written.
func ConfirmResult(doc *internal.Document, pending *PendingResult, attempts, successes int) (*internal.TrainingSession, error) {
	if pending == nil {
		return nil, internal.ErrNoPendingResult
	}
	cmd := doc.CommandByID(pending.CommandID)
	if cmd == nil {
		return nil, internal.ErrNotFound
	}

	if attempts < 0 {
		attempts = 0
	}
	if successes < 0 {
		successes = 0
	}
	if successes > attempts {
		successes = attempts
	}
	rate := 0.0
	if attempts > 0 {
		rate = float64(successes) / float64(attempts)
	}

	session := internal.TrainingSession{
		ID:          pending.SessionID,
		CommandID:   pending.CommandID,
		StartedAt:   pending.StartedAt,
		EndedAt:     pending.EndedAt,
		Seconds:     pending.Seconds,
		Attempts:    attempts,
		Successes:   successes,
		SuccessRate: rate,
	}
	cmd.SessionHistory = append(cmd.SessionHistory, session)
	cmd.TotalSeconds += pending.Seconds
	cmd.Learned = LearnedFromHistory(cmd.SessionHistory, doc.Settings)
	return &session, nil
}

// LearnedFromHistory averages the success rate over the last LearnedWindow
// sessions. An average exactly at the threshold counts as learned; an
// empty history never does.
func LearnedFromHistory(history []internal.TrainingSession, settings internal.Settings) bool {
	if len(history) == 0 {
		return false
	}
	window := settings.LearnedWindow
	if window < 1 {
		window = 1
	}
	start := len(history) - window
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for _, s := range history[start:] {
		sum += s.SuccessRate
	}
	avg := sum / float64(len(history)-start)
	return avg >= settings.LearnedThreshold
}

// MoveCommandUp swaps the command with its previous neighbor. No-op at the
// top or when the id is unknown.
func MoveCommandUp(doc *internal.Document, id string) bool {
	for i, c := range doc.TrainingCommands {
		if c.ID == id {
			if i == 0 {
				return false
			}
			doc.TrainingCommands[i-1], doc.TrainingCommands[i] = doc.TrainingCommands[i], doc.TrainingCommands[i-1]
			return true
		}
	}
	return false
}

// MoveCommandDown swaps the command with its next neighbor. No-op at the
// bottom or when the id is unknown.
func MoveCommandDown(doc *internal.Document, id string) bool {
	for i, c := range doc.TrainingCommands {
		if c.ID == id {
			if i == len(doc.TrainingCommands)-1 {
				return false
			}
			doc.TrainingCommands[i], doc.TrainingCommands[i+1] = doc.TrainingCommands[i+1], doc.TrainingCommands[i]
			return true
		}
	}
	return false
}

// sessionTimer accrues elapsed practice time only while running. It lives
// in process memory, never on the document: pausing is pure timer control.
type sessionTimer struct {
	clock   internal.Clock
	started time.Time
	accrued time.Duration
	paused  bool
}

func newSessionTimer(clock internal.Clock) *sessionTimer {
	return &sessionTimer{clock: clock, started: clock.Now()}
}

func (t *sessionTimer) Pause() {
	if t.paused {
		return
	}
	t.accrued += t.clock.Now().Sub(t.started)
	t.paused = true
}

func (t *sessionTimer) Resume() {
	if !t.paused {
		return
	}
	t.started = t.clock.Now()
	t.paused = false
}

func (t *sessionTimer) Elapsed() time.Duration {
	if t.paused {
		return t.accrued
	}
	return t.accrued + t.clock.Now().Sub(t.started)
}
