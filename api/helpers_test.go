package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/warp/frontdesk/frontdesk"
	"github.com/warp/frontdesk/store/sqldb"
)

const testSecret = "test-secret"

// Room ids of the single-hotel scenario.
const (
	room101 = 1
	room102 = 2
	room103 = 3
	room201 = 4
)

// tickingClock starts at start and advances one second per reading, so
// entries written by consecutive calls get distinct timestamps.
func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

type testAPI struct {
	t       *testing.T
	handler *Handler
	router  http.Handler
	tokens  map[string]string
}

// newTestAPI builds the full router over an in-memory store with the engine
// clock at 2025-05-01 and loads scenario (unless empty).
func newTestAPI(t *testing.T, scenario string) *testAPI {
	t.Helper()
	store, err := sqldb.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	engine := frontdesk.NewEngine(store,
		frontdesk.WithClock(tickingClock(time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC))))
	h := NewHandler(engine, store, NewAuthenticator(testSecret, time.Hour), zerolog.Nop())
	api := &testAPI{
		t:       t,
		handler: h,
		router:  NewRouter(h, RouterOptions{CORSOrigins: []string{"*"}, Scenarios: true}),
		tokens:  map[string]string{},
	}
	if scenario != "" {
		resp, err := h.loadScenario(context.Background(), scenario)
		require.NoError(t, err)
		api.tokens = resp.Tokens
	}
	return api
}

// do sends a request as role (a key of tokens; "" sends no token).
func (a *testAPI) do(method, path string, role Role, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+a.tokens[string(role)])
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeAs[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func booking(room int64, in, out string, adults int) ReservationRequest {
	return ReservationRequest{
		RoomID:         room,
		GuestFirstName: "Ana",
		GuestLastName1: "Lopez",
		CheckIn:        in,
		CheckOut:       out,
		Adults:         adults,
	}
}

// book creates a reservation and fails the test unless it is accepted.
func (a *testAPI) book(req ReservationRequest) BookingResponse {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/reservations", RoleReceptionist, req)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeAs[BookingResponse](a.t, rec)
}
