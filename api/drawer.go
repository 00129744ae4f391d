package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/warp/frontdesk/generic"
)

// =============================================================================
// CASH DRAWER HANDLERS
// =============================================================================
//
//   POST /api/cash-drawer/open      Open a session for the caller
//   GET  /api/cash-drawer/open      The caller's open session, or 204
//   GET  /api/cash-drawer/preview   Totals so far (or ?from=&to= RFC 3339)
//   POST /api/cash-drawer/close     Reconcile and close
//   GET  /api/cash-drawer           History (?cashier=ID&from=&to=)
//   GET  /api/cash-drawer/{id}      Session with its payments

func (h *Handler) OpenDrawer(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req DrawerNoteRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	s, err := h.Engine.OpenDrawer(r.Context(), a, req.Note)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionDTO(s))
}

func (h *Handler) CurrentDrawer(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s, err := h.Engine.CurrentDrawer(r.Context(), a)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if s == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(*s))
}

func (h *Handler) PreviewDrawer(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	from, err := queryTime(r, "from")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if (from == nil) != (to == nil) {
		h.fail(w, r, generic.Invalid("to", "from and to must be given together"))
		return
	}
	p, err := h.Engine.PreviewDrawer(r.Context(), a, from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DrawerPreviewDTO{SessionID: p.SessionID, From: p.From, To: p.To, Totals: toTotalsDTO(p.Totals)})
}

func (h *Handler) CloseDrawer(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req DrawerNoteRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	s, err := h.Engine.CloseDrawer(r.Context(), a, req.Note)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(s))
}

func (h *Handler) ListDrawerSessions(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var cashier generic.UserID
	if v := r.URL.Query().Get("cashier"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			h.fail(w, r, generic.Invalid("cashier", "must be a positive integer"))
			return
		}
		cashier = generic.UserID(n)
	}
	from, err := queryTime(r, "from")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ss, err := h.Engine.DrawerSessions(r.Context(), a, cashier, from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]DrawerSessionDTO, len(ss))
	for i, s := range ss {
		dtos[i] = toSessionDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetDrawerSession(w http.ResponseWriter, r *http.Request) {
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
	d, err := h.Engine.DrawerDetail(r.Context(), a, generic.SessionID(id))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DrawerDetailResponse{Session: toSessionDTO(d.Session), Payments: toEntryDTOs(d.Payments)})
}

func queryTime(r *http.Request, key string) (*time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, generic.Invalid(key, "must be an RFC 3339 timestamp")
	}
	return &t, nil
}
