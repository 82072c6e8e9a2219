package internal

import (
	"sort"
	"time"
)

// Millis is a millisecond unix epoch timestamp, the wire format every
// persisted timestamp uses.
type Millis int64

func MillisFromTime(t time.Time) Millis {
	return Millis(t.UnixMilli())
}

func (m Millis) Time() time.Time {
	return time.UnixMilli(int64(m))
}

// Valid reports whether the timestamp is usable. Zero and negative values
// come from missing fields or bad client input and are never scheduled on.
func (m Millis) Valid() bool {
	return m > 0
}

type EventType string

const (
	EventPee        EventType = "pee"
	EventPoop       EventType = "poop"
	EventSleep      EventType = "sleep"
	EventFood       EventType = "food"
	EventWater      EventType = "water"
	EventTraining   EventType = "training"
	EventPeeAttempt EventType = "pee_attempt"
)

func (t EventType) Known() bool {
	switch t {
	case EventPee, EventPoop, EventSleep, EventFood, EventWater, EventTraining, EventPeeAttempt:
		return true
	}
	return false
}

type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`
	At   Millis    `json:"at"`
	Note string    `json:"note,omitempty"`
}

type AttemptReason string

const (
	ReasonMeal      AttemptReason = "meal"
	ReasonWater     AttemptReason = "water"
	ReasonSuggested AttemptReason = "suggested"
	ReasonPee       AttemptReason = "pee"
)

// OutAttempt is a scheduled future reminder, not yet an event.
type OutAttempt struct {
	ID            string        `json:"id"`
	At            Millis        `json:"at"`
	Reason        AttemptReason `json:"reason"`
	SourceEventID string        `json:"sourceEventId,omitempty"`
	Done          bool          `json:"done"`
}

type TrainingSession struct {
	ID          string  `json:"id"`
	CommandID   string  `json:"commandId"`
	StartedAt   Millis  `json:"startedAt"`
	EndedAt     Millis  `json:"endedAt"`
	Seconds     float64 `json:"seconds"`
	Attempts    int     `json:"attempts"`
	Successes   int     `json:"successes"`
	SuccessRate float64 `json:"successRate"`
}

type TrainingCommand struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	TotalSeconds   float64           `json:"totalSeconds"`
	Learned        bool              `json:"learned"`
	SessionHistory []TrainingSession `json:"sessionHistory"`
}

// ActiveSession marks the single in-progress training session. Its presence
// on the document is the "a session is running" flag.
type ActiveSession struct {
	ID        string `json:"id"`
	CommandID string `json:"commandId"`
	StartedAt Millis `json:"startedAt"`
}

type SuggestionMethod string

const (
	MethodMedian SuggestionMethod = "median"
	MethodMean   SuggestionMethod = "mean"
)

type MealSchedule struct {
	Times []string `json:"times"` // HH:MM, local time
}

type Settings struct {
	PeeSuggestionMethod SuggestionMethod `json:"peeSuggestionMethod"`
	LearnedThreshold    float64          `json:"learnedThreshold"`
	LearnedWindow       int              `json:"learnedWindow"`
	MealSchedule        MealSchedule     `json:"mealSchedule"`
}

func DefaultSettings() Settings {
	return Settings{
		PeeSuggestionMethod: MethodMedian,
		LearnedThreshold:    0.8,
		LearnedWindow:       5,
		MealSchedule:        MealSchedule{Times: []string{"08:00", "13:00", "19:00"}},
	}
}

// Document is the complete application state, persisted and synced as one
// unit.
type Document struct {
	Events           []*Event           `json:"events"`
	OutAttempts      []*OutAttempt      `json:"outAttempts"`
	TrainingCommands []*TrainingCommand `json:"trainingCommands"`
	Settings         Settings           `json:"settings"`
	ActiveSession    *ActiveSession     `json:"activeSession"`
}

func NewDocument() *Document {
	return &Document{
		Events:           []*Event{},
		OutAttempts:      []*OutAttempt{},
		TrainingCommands: []*TrainingCommand{},
		Settings:         DefaultSettings(),
	}
}

// Normalize repairs a freshly loaded document: nil slices become empty,
// missing or out-of-range settings fall back to defaults. A document that
// fails to deserialize at all is replaced by NewDocument at the store layer.
func (d *Document) Normalize() {
	if d.Events == nil {
		d.Events = []*Event{}
	}
	if d.OutAttempts == nil {
		d.OutAttempts = []*OutAttempt{}
	}
	if d.TrainingCommands == nil {
		d.TrainingCommands = []*TrainingCommand{}
	}
	def := DefaultSettings()
	s := &d.Settings
	if s.PeeSuggestionMethod != MethodMedian && s.PeeSuggestionMethod != MethodMean {
		s.PeeSuggestionMethod = def.PeeSuggestionMethod
	}
	if s.LearnedThreshold < 0 || s.LearnedThreshold > 1 {
		s.LearnedThreshold = def.LearnedThreshold
	}
	if s.LearnedWindow < 1 {
		s.LearnedWindow = def.LearnedWindow
	}
	if len(s.MealSchedule.Times) == 0 {
		s.MealSchedule = def.MealSchedule
	}
	for _, cmd := range d.TrainingCommands {
		if cmd.SessionHistory == nil {
			cmd.SessionHistory = []TrainingSession{}
		}
	}
}

func (d *Document) EventByID(id string) *Event {
	for _, ev := range d.Events {
		if ev.ID == id {
			return ev
		}
	}
	return nil
}

func (d *Document) AttemptByID(id string) *OutAttempt {
	for _, a := range d.OutAttempts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (d *Document) CommandByID(id string) *TrainingCommand {
	for _, c := range d.TrainingCommands {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// EventsByTime returns the events sorted ascending by timestamp. Ties keep
// insertion order.
func (d *Document) EventsByTime() []*Event {
	out := make([]*Event, len(d.Events))
	copy(out, d.Events)
	sort.SliceStable(out, func(i, j int) bool { return out[i].At < out[j].At })
	return out
}
