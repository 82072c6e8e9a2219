package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/zmemovies/rue-track/internal"
	"github.com/zmemovies/rue-track/internal/replica"
	"github.com/zmemovies/rue-track/internal/storage"
)

var validate = validator.New()

// Tracker is the single writer over the in-memory document. Every mutation
// applies synchronously under one lock, then persists and pushes to the
// replica best-effort: collaborator failures are logged, never surfaced,
// and the document is never left half-mutated.
type Tracker struct {
	mu      sync.Mutex
	doc     *internal.Document
	store   storage.DocumentStore
	remote  replica.Backend
	logger  internal.Logger
	clock   internal.Clock
	ids     internal.IDGenerator
	timer   *sessionTimer
	pending *PendingResult
}

func NewTracker(ctx context.Context, store storage.DocumentStore, remote replica.Backend, logger internal.Logger, clock internal.Clock, ids internal.IDGenerator) (*Tracker, error) {
	doc, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	doc.Normalize()
	return &Tracker{
		doc:    doc,
		store:  store,
		remote: remote,
		logger: logger,
		clock:  clock,
		ids:    ids,
	}, nil
}

// persist writes the current document to the store. Failures are logged
// and swallowed: the UI is never blocked by a failed write.
func (t *Tracker) persist(ctx context.Context) {
	if err := t.store.Save(ctx, t.doc); err != nil {
		t.logger.Errorf("tracker: failed to persist document: %v", err)
	}
}

func (t *Tracker) pushInsert(ctx context.Context, e replica.Entity) {
	if err := t.remote.Insert(ctx, e); err != nil {
		t.logger.Warnf("tracker: replica insert %s/%s failed: %v", e.Kind, e.ID, err)
	}
}

func (t *Tracker) pushUpdate(ctx context.Context, e replica.Entity) {
	if err := t.remote.Update(ctx, e); err != nil {
		t.logger.Warnf("tracker: replica update %s/%s failed: %v", e.Kind, e.ID, err)
	}
}

func (t *Tracker) pushDelete(ctx context.Context, e replica.Entity) {
	if err := t.remote.Delete(ctx, e); err != nil {
		t.logger.Warnf("tracker: replica delete %s/%s failed: %v", e.Kind, e.ID, err)
	}
}

// --- Event log ---

type LogEventRequest struct {
	Type string `json:"type" validate:"required,oneof=pee poop sleep food water training pee_attempt"`
	At   int64  `json:"at"` // missing or invalid falls back to now
	Note string `json:"note"`
}

func ValidateLogEventRequest(req *LogEventRequest) error {
	return validate.Struct(req)
}

// LogEvent appends a new event and runs its scheduling side effects: a
// water event may schedule a pee reminder, a pee event clears pending ones.
func (t *Tracker) LogEvent(ctx context.Context, req *LogEventRequest) (*internal.Event, error) {
	if err := ValidateLogEventRequest(req); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	at := internal.Millis(req.At)
	if !at.Valid() {
		at = internal.MillisFromTime(now)
	}
	ev := &internal.Event{
		ID:   t.ids.NewID(),
		Type: internal.EventType(req.Type),
		At:   at,
		Note: req.Note,
	}

	cleared := AppendEvent(t.doc, ev)
	var scheduled *internal.OutAttempt
	if ev.Type == internal.EventWater {
		scheduled = EnsurePeeAttemptAfterWater(t.doc, ev, now, t.ids)
	}

	t.persist(ctx)
	t.pushInsert(ctx, replica.Entity{Kind: replica.KindEvent, ID: ev.ID, Data: ev})
	for _, a := range cleared {
		t.pushDelete(ctx, replica.Entity{Kind: replica.KindOutAttempt, ID: a.ID})
	}
	if scheduled != nil {
		t.pushInsert(ctx, replica.Entity{Kind: replica.KindOutAttempt, ID: scheduled.ID, Data: scheduled})
	}

	out := *ev
	return &out, nil
}

// EventsForDay returns the events of the local calendar day containing
// day, ascending by time.
func (t *Tracker) EventsForDay(day time.Time) []internal.Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	lo := internal.MillisFromTime(dayStart(day))
	hi := internal.MillisFromTime(dayStart(day).AddDate(0, 0, 1))
	var out []internal.Event
	for _, ev := range t.doc.EventsByTime() {
		if ev.At >= lo && ev.At < hi {
			out = append(out, *ev)
		}
	}
	return out
}

func (t *Tracker) AllEvents() []internal.Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	sorted := t.doc.EventsByTime()
	out := make([]internal.Event, len(sorted))
	for i, ev := range sorted {
		out[i] = *ev
	}
	return out
}

type UpdateEventRequest struct {
	At   *int64  `json:"at"`
	Note *string `json:"note"`
}

func (t *Tracker) UpdateEvent(ctx context.Context, id string, req *UpdateEventRequest) (*internal.Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	patch := EventPatch{Note: req.Note}
	if req.At != nil {
		at := internal.Millis(*req.At)
		patch.At = &at
	}
	ev := UpdateEvent(t.doc, id, patch)
	if ev == nil {
		return nil, internal.ErrNotFound
	}

	t.persist(ctx)
	t.pushUpdate(ctx, replica.Entity{Kind: replica.KindEvent, ID: ev.ID, Data: ev})

	out := *ev
	return &out, nil
}

func (t *Tracker) DeleteEvent(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	cascaded, ok := RemoveEvent(t.doc, id)
	if !ok {
		return internal.ErrNotFound
	}

	t.persist(ctx)
	t.pushDelete(ctx, replica.Entity{Kind: replica.KindEvent, ID: id})
	for _, a := range cascaded {
		t.pushDelete(ctx, replica.Entity{Kind: replica.KindOutAttempt, ID: a.ID})
	}
	return nil
}

// --- Out attempts ---

func (t *Tracker) PendingOutAttempts() []internal.OutAttempt {
	t.mu.Lock()
	defer t.mu.Unlock()

	pending := PendingAttempts(t.doc)
	out := make([]internal.OutAttempt, len(pending))
	for i, a := range pending {
		out[i] = *a
	}
	return out
}

func (t *Tracker) AcknowledgeAttempt(ctx context.Context, id string) (*internal.OutAttempt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, appended, err := AcknowledgeAttempt(t.doc, id, t.clock.Now(), t.ids)
	if err != nil {
		return nil, err
	}

	t.persist(ctx)
	t.pushUpdate(ctx, replica.Entity{Kind: replica.KindOutAttempt, ID: a.ID, Data: a})
	if appended != nil {
		t.pushInsert(ctx, replica.Entity{Kind: replica.KindEvent, ID: appended.ID, Data: appended})
	}

	out := *a
	return &out, nil
}

func (t *Tracker) DeleteAttempt(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !RemoveAttempt(t.doc, id) {
		return internal.ErrNotFound
	}
	t.persist(ctx)
	t.pushDelete(ctx, replica.Entity{Kind: replica.KindOutAttempt, ID: id})
	return nil
}

// EnsureMealReminder schedules a reminder for the next unconsumed meal
// slot today, if none is pending. Returns nil when nothing was scheduled.
func (t *Tracker) EnsureMealReminder(ctx context.Context) *internal.OutAttempt {
	t.mu.Lock()
	defer t.mu.Unlock()

	a := EnsureMealAttempt(t.doc, t.clock.Now(), t.ids)
	if a == nil {
		return nil
	}
	t.persist(ctx)
	t.pushInsert(ctx, replica.Entity{Kind: replica.KindOutAttempt, ID: a.ID, Data: a})
	out := *a
	return &out
}

// --- Derivations ---

func (t *Tracker) SuggestNextPee() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return SuggestNextPee(t.doc, t.clock.Now())
}

func (t *Tracker) RemainingMeals() []time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return RemainingMealsToday(t.doc, t.clock.Now())
}

func (t *Tracker) Export(day time.Time) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ExportDay(t.doc, day)
}

// --- Training commands ---

type CommandRequest struct {
	Name string `json:"name" validate:"required"`
}

func (t *Tracker) Commands() []internal.TrainingCommand {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]internal.TrainingCommand, len(t.doc.TrainingCommands))
	for i, c := range t.doc.TrainingCommands {
		out[i] = *c
		out[i].SessionHistory = append([]internal.TrainingSession(nil), c.SessionHistory...)
	}
	return out
}

func (t *Tracker) AddCommand(ctx context.Context, req *CommandRequest) (*internal.TrainingCommand, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	cmd := &internal.TrainingCommand{
		ID:             t.ids.NewID(),
		Name:           req.Name,
		SessionHistory: []internal.TrainingSession{},
	}
	t.doc.TrainingCommands = append(t.doc.TrainingCommands, cmd)

	t.persist(ctx)
	t.pushInsert(ctx, replica.Entity{Kind: replica.KindCommand, ID: cmd.ID, Data: cmd})

	out := *cmd
	return &out, nil
}

func (t *Tracker) DeleteCommand(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.doc.ActiveSession != nil && t.doc.ActiveSession.CommandID == id {
		return internal.ErrSessionActive
	}
	found := false
	kept := make([]*internal.TrainingCommand, 0, len(t.doc.TrainingCommands))
	for _, c := range t.doc.TrainingCommands {
		if c.ID == id {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return internal.ErrNotFound
	}
	t.doc.TrainingCommands = kept

	t.persist(ctx)
	t.pushDelete(ctx, replica.Entity{Kind: replica.KindCommand, ID: id})
	return nil
}

// MoveCommand shifts the command one position up or down in the
// user-controlled ordering. No-op at the boundaries.
func (t *Tracker) MoveCommand(ctx context.Context, id string, up bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.doc.CommandByID(id) == nil {
		return internal.ErrNotFound
	}
	moved := false
	if up {
		moved = MoveCommandUp(t.doc, id)
	} else {
		moved = MoveCommandDown(t.doc, id)
	}
	if !moved {
		return nil
	}
	t.persist(ctx)
	return nil
}

// --- Training session state machine ---

type StartSessionRequest struct {
	CommandID string `json:"command_id" validate:"required"`
}

// StartSession transitions Idle to Running. Only one session may run at a
// time across all commands; a second start is rejected without mutation.
func (t *Tracker) StartSession(ctx context.Context, req *StartSessionRequest) (*internal.ActiveSession, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.doc.ActiveSession != nil {
		return nil, internal.ErrSessionActive
	}
	if t.doc.CommandByID(req.CommandID) == nil {
		return nil, internal.ErrNotFound
	}

	session := &internal.ActiveSession{
		ID:        t.ids.NewID(),
		CommandID: req.CommandID,
		StartedAt: internal.MillisFromTime(t.clock.Now()),
	}
	t.doc.ActiveSession = session
	t.timer = newSessionTimer(t.clock)

	t.persist(ctx)
	t.pushInsert(ctx, replica.Entity{Kind: replica.KindActiveSession, ID: session.ID, Data: session})

	out := *session
	return &out, nil
}

// ensureTimer rebuilds the timer after a process restart: elapsed falls
// back to wall clock since the session started.
func (t *Tracker) ensureTimer() {
	if t.timer == nil {
		t.timer = &sessionTimer{clock: t.clock, started: t.doc.ActiveSession.StartedAt.Time()}
	}
}

// PauseSession stops the elapsed clock. Pure timer control: neither the
// event log nor the document is touched.
func (t *Tracker) PauseSession() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.doc.ActiveSession == nil {
		return internal.ErrNoActiveSession
	}
	t.ensureTimer()
	t.timer.Pause()
	return nil
}

func (t *Tracker) ResumeSession() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.doc.ActiveSession == nil {
		return internal.ErrNoActiveSession
	}
	t.ensureTimer()
	t.timer.Resume()
	return nil
}

// SessionStatus returns the active session and its running elapsed
// seconds, or false when idle.
func (t *Tracker) SessionStatus() (*internal.ActiveSession, float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.doc.ActiveSession == nil {
		return nil, 0, false
	}
	t.ensureTimer()
	out := *t.doc.ActiveSession
	return &out, t.timer.Elapsed().Seconds(), true
}

// EndSession captures the end time and elapsed seconds, clears the active
// session, and parks the data as a pending result awaiting attempts and
// successes. Nothing is recorded on the command yet.
func (t *Tracker) EndSession(ctx context.Context) (*PendingResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	active := t.doc.ActiveSession
	if active == nil {
		return nil, internal.ErrNoActiveSession
	}
	t.ensureTimer()

	now := t.clock.Now()
	t.pending = &PendingResult{
		SessionID: active.ID,
		CommandID: active.CommandID,
		StartedAt: active.StartedAt,
		EndedAt:   internal.MillisFromTime(now),
		Seconds:   t.timer.Elapsed().Seconds(),
	}
	t.doc.ActiveSession = nil
	t.timer = nil

	t.persist(ctx)
	t.pushDelete(ctx, replica.Entity{Kind: replica.KindActiveSession, ID: active.ID})

	out := *t.pending
	return &out, nil
}

type ConfirmResultsRequest struct {
	Attempts  int `json:"attempts"`
	Successes int `json:"successes"`
}

// ConfirmSessionResults records the pending session. Inputs are clamped,
// never rejected: this is the invalid-input-tolerant path.
func (t *Tracker) ConfirmSessionResults(ctx context.Context, req *ConfirmResultsRequest) (*internal.TrainingSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending == nil {
		return nil, internal.ErrNoPendingResult
	}
	session, err := ConfirmResult(t.doc, t.pending, req.Attempts, req.Successes)
	if err != nil {
		return nil, err
	}
	t.pending = nil

	t.persist(ctx)
	cmd := t.doc.CommandByID(session.CommandID)
	t.pushUpdate(ctx, replica.Entity{Kind: replica.KindCommand, ID: cmd.ID, Data: cmd})

	out := *session
	return &out, nil
}

// CancelPendingResult discards the ended session without recording it.
func (t *Tracker) CancelPendingResult() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending == nil {
		return internal.ErrNoPendingResult
	}
	t.pending = nil
	return nil
}

// --- Settings ---

type SettingsRequest struct {
	PeeSuggestionMethod string   `json:"peeSuggestionMethod" validate:"required,oneof=median mean"`
	LearnedThreshold    float64  `json:"learnedThreshold" validate:"gte=0,lte=1"`
	LearnedWindow       int      `json:"learnedWindow" validate:"gte=1"`
	MealTimes           []string `json:"mealTimes" validate:"dive,required"`
}

func (t *Tracker) Settings() internal.Settings {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.doc.Settings
	s.MealSchedule.Times = append([]string(nil), s.MealSchedule.Times...)
	return s
}

// SaveSettings is the explicit settings save action; derivations pick the
// new values up on their next run.
func (t *Tracker) SaveSettings(ctx context.Context, req *SettingsRequest) (internal.Settings, error) {
	if err := validate.Struct(req); err != nil {
		return internal.Settings{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.doc.Settings = internal.Settings{
		PeeSuggestionMethod: internal.SuggestionMethod(req.PeeSuggestionMethod),
		LearnedThreshold:    req.LearnedThreshold,
		LearnedWindow:       req.LearnedWindow,
		MealSchedule:        internal.MealSchedule{Times: append([]string(nil), req.MealTimes...)},
	}
	t.doc.Normalize()

	t.persist(ctx)
	t.pushUpdate(ctx, replica.Entity{Kind: replica.KindSettings, ID: "settings", Data: t.doc.Settings})
	return t.doc.Settings, nil
}

// --- Sync ---

// ReplaceSnapshot swaps the whole in-memory document for the remote one:
// last fetch wins at document granularity, no field-level merge.
func (t *Tracker) ReplaceSnapshot(ctx context.Context, doc *internal.Document) {
	if doc == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	doc.Normalize()
	t.doc = doc
	t.timer = nil
	t.pending = nil
	t.persist(ctx)
}

// SyncFromRemote pulls the remote document and replaces the local
// snapshot. Failures are logged and the local state stays authoritative.
func (t *Tracker) SyncFromRemote(ctx context.Context) {
	doc, err := t.remote.FetchAll(ctx)
	if err != nil {
		t.logger.Warnf("tracker: sync fetch failed: %v", err)
		return
	}
	if doc == nil {
		return
	}
	t.ReplaceSnapshot(ctx, doc)
}

// StartSync subscribes to remote change notifications. Returns a stop
// function; with the Noop backend this is a no-op by construction.
func (t *Tracker) StartSync(ctx context.Context) (func(), error) {
	return t.remote.Subscribe(func() {
		t.SyncFromRemote(ctx)
	})
}

// Reload re-reads the document from the local store; used when the file
// backend observes an external modification.
func (t *Tracker) Reload(ctx context.Context) {
	doc, err := t.store.Load(ctx)
	if err != nil {
		t.logger.Warnf("tracker: reload failed: %v", err)
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	doc.Normalize()
	t.doc = doc
	t.timer = nil
	t.pending = nil
}
