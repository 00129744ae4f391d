package api

import (
	"net/http"
	"strconv"

	"github.com/warp/frontdesk/frontdesk"
	"github.com/warp/frontdesk/generic"
)

// =============================================================================
// ROOM HANDLERS
// =============================================================================

// AvailableRooms lists bookable rooms free for ?check_in=&check_out=.
func (h *Handler) AvailableRooms(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	in, err := generic.ParseDate("check_in", q.Get("check_in"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := generic.ParseDate("check_out", q.Get("check_out"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rooms, err := h.Engine.FreeRooms(r.Context(), a, in, out)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]RoomDTO, len(rooms))
	for i, room := range rooms {
		dtos[i] = toRoomDTO(room)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RoomAvailability checks one room for ?check_in=&check_out=, ignoring
// ?exclude=ID (the reservation being edited).
func (h *Handler) RoomAvailability(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	in, err := generic.ParseDate("check_in", q.Get("check_in"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := generic.ParseDate("check_out", q.Get("check_out"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var exclude generic.ReservationID
	if v := q.Get("exclude"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.fail(w, r, generic.Invalid("exclude", "must be an integer"))
			return
		}
		exclude = generic.ReservationID(n)
	}
	av, err := h.Engine.HasConflict(r.Context(), a, generic.RoomID(id), in, out, exclude)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AvailabilityResponse{RoomID: generic.RoomID(id), Available: !av.Conflict, Folio: av.Folio, ID: av.ID})
}

// SetRoomStatus moves a room to available, maintenance or inactive.
// Maintenance relocates future and current guests first, all or nothing.
func (h *Handler) SetRoomStatus(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req RoomStatusRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	state, err := frontdesk.ParseRoomState(req.State)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ch, err := h.Engine.SetRoomState(r.Context(), a, generic.RoomID(id), state)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomChange(ch))
}

func (h *Handler) RelocateRoom(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ch, err := h.Engine.Relocate(r.Context(), a, generic.RoomID(id))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomChange(ch))
}

func toRoomChange(ch frontdesk.RoomChange) RoomChangeResponse {
	rel := ch.Relocations
	if rel == nil {
		rel = []frontdesk.Relocation{}
	}
	return RoomChangeResponse{Room: toRoomDTO(ch.Room), Relocations: rel}
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

func (h *Handler) ListRoomTypes(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rts, err := h.Engine.RoomTypes(r.Context(), a)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]RoomTypeDTO, len(rts))
	for i, rt := range rts {
		dtos[i] = toRoomTypeDTO(rt)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetRoomType(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rt, err := h.Engine.RoomType(r.Context(), a, generic.RoomTypeID(id))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomTypeDTO(rt))
}

// ListConcepts returns the charge concept catalog, filtered by ?q=.
func (h *Handler) ListConcepts(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Engine.Concepts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]ConceptDTO, len(cs))
	for i, c := range cs {
		dtos[i] = ConceptDTO{ID: c.ID, Code: c.Code, Name: c.Name, Description: c.Description, DefaultAmount: money(c.DefaultAmount)}
	}
	writeJSON(w, http.StatusOK, dtos)
}
