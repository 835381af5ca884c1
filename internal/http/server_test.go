package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casa/internal/assistant"
	"casa/internal/core"
	applog "casa/internal/log"
	"casa/internal/metrics"
	"casa/internal/session"
)

var now = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	t        *testing.T
	srv      *Server
	sessions *session.Registry
	cookie   *http.Cookie
}

func newTestEnv(t *testing.T, completer assistant.Completer, opts Options) *testEnv {
	t.Helper()
	m := metrics.New()
	logger, err := applog.New(applog.Config{Output: io.Discard})
	require.NoError(t, err)

	clock := func() time.Time { return now }
	sessions := session.NewRegistry(session.Options{}, session.Deps{
		Advisor:  assistant.NewAdvisor(completer, time.Second, m),
		Metrics:  m,
		Showcase: true,
		Now:      clock,
	})
	opts.Now = clock
	srv, err := NewServer(opts, sessions, m, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{t: t, srv: srv, sessions: sessions}
}

// do sends a request carrying the session cookie issued by the first call.
func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(e.t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			e.cookie = c
		}
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := env.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	failing := newTestEnv(t, nil, Options{Ready: func(context.Context) error { return errors.New("broker down") }})
	assert.Equal(t, http.StatusServiceUnavailable, failing.do(http.MethodGet, "/readyz", nil).Code)
}

func TestSessionCookieKeepsHousehold(t *testing.T) {
	env := newTestEnv(t, nil, Options{})

	rec := env.do(http.MethodPost, "/api/chores", map[string]any{"title": "Mop floor"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, env.cookie)
	assert.True(t, env.cookie.HttpOnly)
	first := env.cookie.Value

	chores := decode[choresResponse](t, env.do(http.MethodGet, "/api/chores", nil))
	require.Len(t, chores.Active, 1)
	assert.Equal(t, "Mop floor", chores.Active[0].Title)
	assert.Equal(t, first, env.cookie.Value)
	assert.Equal(t, 1, env.sessions.Len())

	// A stale cookie gets a fresh household.
	env.cookie = &http.Cookie{Name: SessionCookie, Value: "expired"}
	chores = decode[choresResponse](t, env.do(http.MethodGet, "/api/chores", nil))
	assert.Empty(t, chores.Active)
	assert.NotEqual(t, "expired", env.cookie.Value)
}

func TestExpenses(t *testing.T) {
	env := newTestEnv(t, nil, Options{})

	ledger := decode[ledgerResponse](t, env.do(http.MethodGet, "/api/expenses", nil))
	require.Len(t, ledger.Rows, 3)
	assert.Equal(t, "ex1", ledger.Rows[0].ID, "newest first by default")
	assert.True(t, decimal.RequireFromString("1704.50").Equal(ledger.Total))
	assert.True(t, decimal.NewFromInt(500).Equal(ledger.Rows[0].Share))

	ledger = decode[ledgerResponse](t, env.do(http.MethodGet, "/api/expenses?sort=amount&dir=asc", nil))
	assert.Equal(t, "ex3", ledger.Rows[0].ID)
	assert.Equal(t, "ex1", ledger.Rows[2].ID)

	ledger = decode[ledgerResponse](t, env.do(http.MethodGet, "/api/expenses?category=Food", nil))
	require.Len(t, ledger.Rows, 1)
	assert.Equal(t, "Grocery Run", ledger.Rows[0].Description)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/expenses?from=15/03/2025", nil).Code)

	// Missing description is a silent skip.
	rec := env.do(http.MethodPost, "/api/expenses", map[string]any{"amount": "10"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodPost, "/api/expenses", map[string]any{"description": "Pizza", "amount": "12,50", "category": "Food"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ledger = decode[ledgerResponse](t, env.do(http.MethodGet, "/api/expenses", nil))
	assert.Len(t, ledger.Rows, 4)
}

func TestRecurringExpense(t *testing.T) {
	env := newTestEnv(t, nil, Options{})

	rec := env.do(http.MethodPost, "/api/expenses", map[string]any{
		"description": "Gym",
		"amount":      "30",
		"recurring":   true,
		"frequency":   "Monthly",
		"date":        "2025-01-15",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res struct {
		Generated []string `json:"generated"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Len(t, res.Generated, 5)

	defs := decode[[]core.RecurringExpense](t, env.do(http.MethodGet, "/api/expenses/recurring", nil))
	require.Len(t, defs, 1)
	assert.Equal(t, core.Monthly, defs[0].Frequency)
}

func TestNotFoundAndBadInput(t *testing.T) {
	env := newTestEnv(t, nil, Options{})

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"toggle unknown chore", http.MethodPost, "/api/chores/nope/toggle", nil, http.StatusNotFound},
		{"delete unknown item", http.MethodDelete, "/api/shopping/nope", nil, http.StatusNotFound},
		{"vote on unknown poll", http.MethodPost, "/api/board/polls/nope/votes", map[string]any{"userId": "u1", "vote": "yes"}, http.StatusNotFound},
		{"invalid vote skipped", http.MethodPost, "/api/board/polls/p1/votes", map[string]any{"userId": "u1", "vote": "maybe"}, http.StatusNoContent},
		{"malformed json", http.MethodPost, "/api/chores", "{", http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/chores", map[string]any{"name": "x"}, http.StatusBadRequest},
		{"bad board kind", http.MethodPost, "/api/board/items/widget/1/front", nil, http.StatusBadRequest},
		{"unknown board item", http.MethodPost, "/api/board/items/poll/nope/front", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestShoppingUsesAssistantCategory(t *testing.T) {
	completer := assistant.CompleterFunc(func(ctx context.Context, p assistant.Prompt) (string, error) {
		return "Fresh Produce", nil
	})
	env := newTestEnv(t, completer, Options{})

	for _, name := range []string{"Apples", "Pears", "Kale"} {
		rec := env.do(http.MethodPost, "/api/shopping", map[string]any{"name": name})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	list := decode[shoppingResponse](t, env.do(http.MethodGet, "/api/shopping?width=500", nil))
	assert.Equal(t, 3, list.Pending)
	require.Len(t, list.Shelves, 2)
	assert.Len(t, list.Shelves[0], 2)
	assert.Equal(t, assistant.CategoryFreshProduce, list.Shelves[0][0].Category)

	id := list.Shelves[0][0].ID
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/shopping/"+id+"/toggle", nil).Code)
	list = decode[shoppingResponse](t, env.do(http.MethodGet, "/api/shopping", nil))
	assert.Equal(t, 2, list.Pending)
	assert.Len(t, list.Complete, 1)
	assert.Len(t, list.Shelves, 1)

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodPost, "/api/shopping", map[string]any{"name": "  "}).Code)
}

func TestCalendar(t *testing.T) {
	env := newTestEnv(t, nil, Options{})

	rec := env.do(http.MethodPost, "/api/calendar", map[string]any{"title": "Plumber", "date": "2025-03-15", "time": "08:30"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	cal := decode[calendarResponse](t, env.do(http.MethodGet, "/api/calendar", nil))
	assert.Equal(t, "2025-03-15", cal.Day)
	require.Len(t, cal.Events, 2)
	assert.Equal(t, "Plumber", cal.Events[0].Title, "ordered by time")

	cal = decode[calendarResponse](t, env.do(http.MethodGet, "/api/calendar?day=2025-03-16", nil))
	assert.Empty(t, cal.Events)
}

func findItem(t *testing.T, items []boardItem, ref core.ItemRef) boardItem {
	t.Helper()
	for _, it := range items {
		if it.Ref == ref {
			return it
		}
	}
	t.Fatalf("board item %s not found", ref)
	return boardItem{}
}

func TestBoardDragProtocol(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	poll := core.ItemRef{Kind: core.KindPoll, ID: "p1"}

	rec := env.do(http.MethodPost, "/api/board/drag", map[string]any{
		"kind": "poll", "id": "p1",
		"pointer":    map[string]float64{"x": 160, "y": 400},
		"itemOrigin": map[string]float64{"x": 150, "y": 390},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	drag := decode[dragResponse](t, rec)
	assert.Equal(t, core.Position{X: 10, Y: 10}, drag.Offset)

	// Only one drag at a time.
	rec = env.do(http.MethodPost, "/api/board/drag", map[string]any{"kind": "announcement", "id": "1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPost, "/api/board/drag/move", map[string]any{
		"dragId":    drag.DragID,
		"pointer":   map[string]float64{"x": 300, "y": 500},
		"container": map[string]float64{"x": 100, "y": 40},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, core.Position{X: 190, Y: 450}, decode[positionResponse](t, rec).Position)

	layout := decode[boardResponse](t, env.do(http.MethodGet, "/api/board", nil))
	item := findItem(t, layout.Items, poll)
	assert.True(t, item.Dragging)
	assert.Equal(t, 9999, item.DisplayOrder)
	assert.Equal(t, core.Position{X: 190, Y: 450}, item.Position)

	rec = env.do(http.MethodPost, "/api/board/drag/end", map[string]any{"dragId": drag.DragID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	layout = decode[boardResponse](t, env.do(http.MethodGet, "/api/board", nil))
	item = findItem(t, layout.Items, poll)
	assert.False(t, item.Dragging)
	assert.Equal(t, 11, item.Order)
	assert.Equal(t, core.Position{X: 190, Y: 450}, item.Position)
	require.NotNil(t, item.Poll)
	assert.Equal(t, 2, item.Poll.Tally.Yes)

	// The finished drag cannot be reused.
	rec = env.do(http.MethodPost, "/api/board/drag/end", map[string]any{"dragId": drag.DragID})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBoardDragWithoutContainerAborts(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	note := core.ItemRef{Kind: core.KindAnnouncement, ID: "1"}

	drag := decode[dragResponse](t, env.do(http.MethodPost, "/api/board/drag", map[string]any{"kind": "announcement", "id": "1"}))
	rec := env.do(http.MethodPost, "/api/board/drag/move", map[string]any{
		"dragId":  drag.DragID,
		"pointer": map[string]float64{"x": 500, "y": 500},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	layout := decode[boardResponse](t, env.do(http.MethodGet, "/api/board", nil))
	item := findItem(t, layout.Items, note)
	assert.False(t, item.Dragging)
	assert.Equal(t, core.Position{X: 50, Y: 50}, item.Position)
}

func TestBoardCreateAndFront(t *testing.T) {
	env := newTestEnv(t, nil, Options{})

	rec := env.do(http.MethodPost, "/api/board/polls", map[string]any{
		"question": "Movie night?",
		"position": map[string]float64{"x": 400, "y": 120},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		EntityID string `json:"entityId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	layout := decode[boardResponse](t, env.do(http.MethodGet, "/api/board", nil))
	item := findItem(t, layout.Items, core.ItemRef{Kind: core.KindPoll, ID: created.EntityID})
	assert.Equal(t, 11, item.Order)
	assert.Equal(t, core.Position{X: 400, Y: 120}, item.Position)

	rec = env.do(http.MethodPost, "/api/board/items/announcement/2/front", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 12, decode[frontResponse](t, rec).Order)

	// Already on top: order unchanged.
	rec = env.do(http.MethodPost, "/api/board/items/announcement/2/front", nil)
	assert.Equal(t, 12, decode[frontResponse](t, rec).Order)

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodPost, "/api/board/notes", map[string]any{"title": " "}).Code)
}

func TestAssistantFallbacks(t *testing.T) {
	env := newTestEnv(t, nil, Options{})

	rec := env.do(http.MethodPost, "/api/expenses/analysis", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, assistant.SummaryUnavailable, decode[analysisResponse](t, rec).Summary)

	rec = env.do(http.MethodPost, "/api/board/drafts/poll", map[string]any{"draft": "pizza friday??"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pizza friday??", decode[draftResponse](t, rec).Text)

	rec = env.do(http.MethodPost, "/api/board/drafts/announcement", map[string]any{"topic": "quiet hours"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[draftResponse](t, rec).Text)

	rec = env.do(http.MethodPost, "/api/chores/auto-assign", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[session.AutoAssignResult](t, rec)
	assert.Empty(t, res.Chores)
	assert.Equal(t, session.ScheduleUnavailable, res.Message)
}

func TestAutoAssignCreatesChores(t *testing.T) {
	completer := assistant.CompleterFunc(func(ctx context.Context, p assistant.Prompt) (string, error) {
		return `[{"title":"Clean Kitchen","assignedToName":"Jordan","frequency":"Weekly"},{"title":"Water Plants","assignedToName":"Nobody","frequency":"Weekly"}]`, nil
	})
	env := newTestEnv(t, completer, Options{})

	rec := env.do(http.MethodPost, "/api/chores/auto-assign", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[session.AutoAssignResult](t, rec)
	require.Len(t, res.Chores, 2)
	assert.Equal(t, "u2", res.Chores[0].AssignedTo)
	assert.Equal(t, "u1", res.Chores[1].AssignedTo, "unknown names fall back to the first user")
	assert.True(t, now.Add(7*24*time.Hour).Equal(res.Chores[0].DueDate))
}

func TestRateLimitAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil, Options{RateLimitPerMinute: 1})

	assert.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/chores", map[string]any{"title": "a"}).Code)
	rec := env.do(http.MethodPost, "/api/chores", map[string]any{"title": "b"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// Reads are never limited.
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/dashboard", nil).Code)

	rec = env.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `casa_http_requests_total{method="POST",route="POST /api/chores",status="201"} 1`)
	assert.Contains(t, body, "casa_rate_limited_total 1")
}

func TestSecurityAndTraceHeaders(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	rec := env.do(http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Len(t, decode[[]core.User](t, rec), 3)
}
