package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icsgen/internal/config"
	"icsgen/internal/ics"
)

func newTestServer(t *testing.T, cfg *config.Config) (*Server, http.Handler) {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := NewServer(cfg, ics.New(ics.Options{Location: time.UTC}))
	return s, s.Handler()
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const meetingJSON = `{"subject":"Meeting","description":"Standup","location":"Room A","start":"2024-03-01T09:00:00","end":"2024-03-01T09:30:00"}`

func TestHealth(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestAddAndListEvents(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(h, http.MethodPost, "/api/events", meetingJSON)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created eventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Contains(t, created.Event, "UID:0@default")
	assert.Contains(t, created.Event, "DTSTART;VALUE=DATE-TIME:20240301T090000")

	rec = do(h, http.MethodGet, "/api/events", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list eventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Events, 1)
	assert.Equal(t, created.Event, list.Events[0])
}

func TestAddEvent_MissingField(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(h, http.MethodPost, "/api/events", `{"subject":"s","description":"","start":"2024-03-01","end":"2024-03-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "location")

	rec = do(h, http.MethodGet, "/api/events", "")
	assert.JSONEq(t, `{"events":[]}`, rec.Body.String())
}

func TestAddEvent_BadInput(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(h, http.MethodPost, "/api/events", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/api/events", `{"subject":"s","description":"d","location":"l","start":"soon","end":"later"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid event time")
}

func TestCalendarAndBuild_EmptyDocument(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(h, http.MethodGet, "/calendar.ics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ics.MIMEType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
	assert.NotContains(t, rec.Body.String(), "BEGIN:VEVENT")

	rec = do(h, http.MethodGet, "/api/build", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodGet, "/download", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuild(t *testing.T) {
	_, h := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/api/events", meetingJSON).Code)

	rec := do(h, http.MethodGet, "/api/build", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, strings.Count(rec.Body.String(), "BEGIN:VEVENT"))
	assert.Equal(t, rec.Body.String(), do(h, http.MethodGet, "/calendar.ics", "").Body.String())
}

func TestDownload(t *testing.T) {
	_, h := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/api/events", meetingJSON).Code)

	rec := do(h, http.MethodGet, "/download", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=calendar.ics", rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "SUMMARY;LANGUAGE=en-us:Meeting")

	rec = do(h, http.MethodGet, "/download?filename=team&ext=ical", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=team.ical", rec.Header().Get("Content-Disposition"))

	rec = do(h, http.MethodGet, "/download?filename=../etc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetDocument(t *testing.T) {
	s, h := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/api/events", meetingJSON).Code)

	s.SetDocument(ics.New(ics.Options{}))

	rec := do(h, http.MethodGet, "/api/events", "")
	assert.JSONEq(t, `{"events":[]}`, rec.Body.String())
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	_, h := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health", "").Code)

	rec := do(h, http.MethodGet, "/calendar.ics", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/calendar.ics", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/api/events", meetingJSON).Code)

	rec := do(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "icsgen_events_added_total")
}
