package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/zmemovies/rue-track/internal"
	"github.com/zmemovies/rue-track/internal/replica"
	"github.com/zmemovies/rue-track/internal/service"
)

type memStore struct {
	doc *internal.Document
}

func (s *memStore) Load(ctx context.Context) (*internal.Document, error) {
	if s.doc == nil {
		return internal.NewDocument(), nil
	}
	return s.doc, nil
}

func (s *memStore) Save(ctx context.Context, doc *internal.Document) error {
	s.doc = doc
	return nil
}

func (s *memStore) Close() error { return nil }

type testApp struct {
	tracker *service.Tracker
}

func (a *testApp) Logger() internal.Logger   { return internal.NopLogger{} }
func (a *testApp) Tracker() *service.Tracker { return a.tracker }

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tracker, err := service.NewTracker(context.Background(), &memStore{}, replica.Noop{},
		internal.NopLogger{}, internal.SystemClock{}, internal.UUIDGenerator{})
	assert.NoError(t, err)
	r := gin.New()
	RegisterRoutes(r, &testApp{tracker: tracker})
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	r.ServeHTTP(w, req)
	return w
}

func dataField(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp struct {
		Data map[string]any `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func TestPostEvent_ValidAndInvalid(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(r, "POST", "/api/events", `{"type":"water"}`)
	assert.Equal(t, 200, w.Code)
	data := dataField(t, w)
	assert.Equal(t, "water", data["type"])
	assert.NotEmpty(t, data["id"])

	w = doJSON(r, "POST", "/api/events", `{"type":"banana"}`)
	assert.Equal(t, 400, w.Code)

	w = doJSON(r, "POST", "/api/events", `not json`)
	assert.Equal(t, 400, w.Code)
}

func TestWaterEventSchedulesAttempt(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(r, "POST", "/api/events", `{"type":"water"}`)
	assert.Equal(t, 200, w.Code)

	w = doJSON(r, "GET", "/api/attempts", "")
	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data []map[string]any `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, "pee", resp.Data[0]["reason"])
}

func TestGetEventsAllReturnsFullLog(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(r, "POST", "/api/events", `{"type":"water"}`)
	assert.Equal(t, 200, w.Code)
	w = doJSON(r, "POST", "/api/events", `{"type":"poop"}`)
	assert.Equal(t, 200, w.Code)

	w = doJSON(r, "GET", "/api/events?all=true", "")
	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data []map[string]any `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
}

func TestDeleteEventNotFound(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(r, "DELETE", "/api/events/nope", "")
	assert.Equal(t, 404, w.Code)
}

func TestSessionFlow(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(r, "POST", "/api/commands", `{"name":"sit"}`)
	assert.Equal(t, 200, w.Code)
	cmdID := dataField(t, w)["id"].(string)

	w = doJSON(r, "POST", "/api/session/start", `{"command_id":"`+cmdID+`"}`)
	assert.Equal(t, 200, w.Code)

	// Second start conflicts while a session is running.
	w = doJSON(r, "POST", "/api/session/start", `{"command_id":"`+cmdID+`"}`)
	assert.Equal(t, 409, w.Code)

	w = doJSON(r, "POST", "/api/session/pause", "")
	assert.Equal(t, 200, w.Code)
	w = doJSON(r, "POST", "/api/session/resume", "")
	assert.Equal(t, 200, w.Code)

	w = doJSON(r, "POST", "/api/session/end", "")
	assert.Equal(t, 200, w.Code)

	w = doJSON(r, "POST", "/api/session/confirm", `{"attempts":3,"successes":10}`)
	assert.Equal(t, 200, w.Code)
	data := dataField(t, w)
	assert.Equal(t, float64(3), data["attempts"])
	assert.Equal(t, float64(3), data["successes"])
	assert.Equal(t, float64(1), data["successRate"])

	// Confirm again: nothing pending.
	w = doJSON(r, "POST", "/api/session/confirm", `{"attempts":1,"successes":1}`)
	assert.Equal(t, 409, w.Code)
}

func TestSessionControlWhenIdle(t *testing.T) {
	r := setupRouter(t)

	assert.Equal(t, 409, doJSON(r, "POST", "/api/session/pause", "").Code)
	assert.Equal(t, 409, doJSON(r, "POST", "/api/session/end", "").Code)

	w := doJSON(r, "GET", "/api/session", "")
	assert.Equal(t, 200, w.Code)
}

func TestStartSessionUnknownCommand(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(r, "POST", "/api/session/start", `{"command_id":"nope"}`)
	assert.Equal(t, 404, w.Code)
}

func TestSettingsRoundTrip(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(r, "PUT", "/api/settings", `{"peeSuggestionMethod":"mean","learnedThreshold":0.9,"learnedWindow":4,"mealTimes":["07:00","19:00"]}`)
	assert.Equal(t, 200, w.Code)

	w = doJSON(r, "GET", "/api/settings", "")
	assert.Equal(t, 200, w.Code)
	data := dataField(t, w)
	assert.Equal(t, "mean", data["peeSuggestionMethod"])
	assert.Equal(t, float64(4), data["learnedWindow"])

	w = doJSON(r, "PUT", "/api/settings", `{"peeSuggestionMethod":"mode","learnedThreshold":2,"learnedWindow":0}`)
	assert.Equal(t, 400, w.Code)
}

func TestExportEndpoint(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(r, "POST", "/api/events", `{"type":"water"}`)
	assert.Equal(t, 200, w.Code)

	w = doJSON(r, "GET", "/api/export", "")
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.True(t, strings.HasPrefix(w.Body.String(), "Rue — Daily Log Export\n"))
	assert.Contains(t, w.Body.String(), "💧 Water")

	assert.Equal(t, 400, doJSON(r, "GET", "/api/export?date=13-01-2026", "").Code)
}

func TestRequestIDHeader(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(r, "GET", "/api/settings", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w2 := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/settings", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	r.ServeHTTP(w2, req)
	assert.Equal(t, "fixed-id", w2.Header().Get("X-Request-ID"))
}

func TestMoveCommandEndpoints(t *testing.T) {
	r := setupRouter(t)

	a := dataField(t, doJSON(r, "POST", "/api/commands", `{"name":"a"}`))["id"].(string)
	b := dataField(t, doJSON(r, "POST", "/api/commands", `{"name":"b"}`))["id"].(string)

	assert.Equal(t, 200, doJSON(r, "POST", "/api/commands/"+b+"/move-up", "").Code)

	w := doJSON(r, "GET", "/api/commands", "")
	var resp struct {
		Data []map[string]any `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, b, resp.Data[0]["id"])
	assert.Equal(t, a, resp.Data[1]["id"])
}
