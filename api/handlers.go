/*
handlers.go - HTTP API handlers for the front desk

PURPOSE:
  Exposes the front-desk engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the engine.

ENDPOINTS:
  Reservations:
    POST   /api/reservations                  Create (quote, folio, rent charge)
    GET    /api/reservations                  List in scope (?state=activa)
    GET    /api/reservations/{id}             Detail with room and balance
    PUT    /api/reservations/{id}             Edit dates, room, occupancy
    POST   /api/reservations/{id}/checkin     activa -> en_curso
    POST   /api/reservations/{id}/checkout    -> finalizada (balance must be >= 0)
    PUT    /api/reservations/{id}/cancel      activa -> cancelada

  Ledger:
    GET    /api/reservations/{id}/movements   Entries and balance
    POST   /api/reservations/{id}/movements   Append a charge or payment

  Cash drawer, rooms, catalog: see drawer.go and rooms.go.
  Scenarios: see scenarios.go.

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Engine: every rule lives there; handlers only parse and render
  - Store: scenario seeding and reset
  - Auth: token issuing for demo scenarios
  - Catalog: optional room-type cache to invalidate after seeding

REQUEST FLOW:
  1. Resolve the actor from the bearer identity
  2. Parse path, query and body
  3. Call the engine
  4. Serialize response
  5. Map errors (errors.go)

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Identity and roles
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/warp/frontdesk/frontdesk"
	"github.com/warp/frontdesk/generic"
	"github.com/warp/frontdesk/store/sqldb"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// CatalogCache is the part of the room-type cache the API touches.
type CatalogCache interface {
	Invalidate(ctx context.Context, rt frontdesk.RoomType) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine  *frontdesk.Engine
	Store   *sqldb.Store
	Auth    *Authenticator
	Catalog CatalogCache
	Log     zerolog.Logger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

func NewHandler(engine *frontdesk.Engine, store *sqldb.Store, auth *Authenticator, log zerolog.Logger) *Handler {
	return &Handler{Engine: engine, Store: store, Auth: auth, Log: log}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, h.Log.With().Str("route", routePattern(r)).Logger(), err)
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return generic.Invalid("", "invalid request body: %v", err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, generic.Invalid("id", "must be a positive integer")
	}
	return id, nil
}

// reservationRequest resolves the actor and the {id} path parameter.
func reservationRequest(r *http.Request) (frontdesk.Actor, generic.ReservationID, error) {
	a, err := actor(r)
	if err != nil {
		return a, 0, err
	}
	id, err := pathID(r)
	return a, generic.ReservationID(id), err
}

// =============================================================================
// RESERVATION HANDLERS
// =============================================================================

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req ReservationRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	br, err := req.toBooking()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	b, err := h.Engine.Create(r.Context(), a, br)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingResponse(b))
}

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var state frontdesk.ReservationState
	if s := r.URL.Query().Get("state"); s != "" {
		if state, err = frontdesk.ParseReservationState(s); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	rs, err := h.Engine.Reservations(r.Context(), a, state)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]ReservationDTO, len(rs))
	for i, res := range rs {
		dtos[i] = toReservationDTO(res)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	a, id, err := reservationRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	d, err := h.Engine.Reservation(r.Context(), a, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ReservationDetailResponse{
		Reservation: toReservationDTO(d.Reservation),
		Room:        toRoomDTO(d.Room),
		Balance:     toBalanceDTO(d.Summary),
	})
}

func (h *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	a, id, err := reservationRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req ReservationRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	br, err := req.toBooking()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	b, err := h.Engine.Edit(r.Context(), a, id, br)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	a, id, err := reservationRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.Engine.CheckIn(r.Context(), a, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StateResponse{ID: res.ID, Folio: res.Folio, State: res.State})
}

// CheckOut answers 409 with the balance in details while the guest owes money.
func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	a, id, err := reservationRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	co, err := h.Engine.CheckOut(r.Context(), a, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	bal := toBalanceDTO(co.Summary)
	writeJSON(w, http.StatusOK, StateResponse{ID: co.Reservation.ID, Folio: co.Reservation.Folio, State: co.Reservation.State, Balance: &bal})
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	a, id, err := reservationRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req CancelRequest
	// The reason is optional; an empty body is fine.
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	res, err := h.Engine.Cancel(r.Context(), a, id, req.Reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StateResponse{ID: res.ID, Folio: res.Folio, State: res.State})
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	a, id, err := reservationRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	entries, sum, err := h.Engine.Movements(r.Context(), a, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MovementsResponse{ReservationID: id, Entries: toEntryDTOs(entries), Balance: toBalanceDTO(sum)})
}

func (h *Handler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	a, id, err := reservationRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req MovementRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := req.toMovement()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	e, err := h.Engine.RecordMovement(r.Context(), a, id, m)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTOs([]generic.Entry{e})[0])
}
