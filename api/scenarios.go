/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos and UI development. Each scenario creates hotels, room
	types, rooms and the charge concept catalog, and may book a few stays
	through the engine so the reservation screens have something to show.

AVAILABLE SCENARIOS:

	single-hotel:   one hotel (COAS), two room types, four rooms
	hotel-chain:    COAS plus a second hotel (CENT) for chain-wide views
	busy-weekend:   single-hotel plus three reservations starting tomorrow

HOW SCENARIOS WORK:
 1. Reset database (drop and recreate every table)
 2. Create hotels, room types and rooms
 3. Create the charge concept catalog
 4. Optionally book reservations through the engine
 5. Invalidate cached room types
 6. Issue one demo token per role

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "busy-weekend"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments;
	the route is not mounted when APP_ENV=prod.

SEE ALSO:
  - handlers.go: Handler dependencies
  - auth.go: IssueToken
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/frontdesk/frontdesk"
	"github.com/warp/frontdesk/generic"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "single-hotel",
		Name:        "Single Hotel",
		Description: "Hotel Costa (COAS): doubles 101-103 and suite 201, concept catalog",
	},
	{
		ID:          "hotel-chain",
		Name:        "Hotel Chain",
		Description: "Hotel Costa plus Hotel Centro (CENT) for chain-wide reporting",
	},
	{
		ID:          "busy-weekend",
		Name:        "Busy Weekend",
		Description: "Single hotel with three reservations starting tomorrow",
	},
}

// Demo users. Each scenario issues one token per role for these ids.
var demoUsers = []Identity{
	{UserID: 1, Role: RoleReceptionist, Username: "recepcion"},
	{UserID: 2, Role: RoleHotelAdmin, Username: "gerente"},
	{UserID: 3, Role: RoleChainAdmin, Username: "corporativo"},
}

func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.loadScenario(r.Context(), req.ScenarioID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) loadScenario(ctx context.Context, id string) (LoadScenarioResponse, error) {
	var build func(context.Context) (seeded, error)
	switch id {
	case "single-hotel":
		build = h.loadSingleHotel
	case "hotel-chain":
		build = h.loadHotelChain
	case "busy-weekend":
		build = h.loadBusyWeekend
	default:
		return LoadScenarioResponse{}, generic.Invalid("scenario_id", "unknown scenario %q", id)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.Store.Reset(ctx); err != nil {
		return LoadScenarioResponse{}, generic.Storage("reset database", err)
	}
	s, err := build(ctx)
	if err != nil {
		return LoadScenarioResponse{}, err
	}
	h.invalidateCatalog(ctx, s.roomTypes)

	resp := LoadScenarioResponse{ScenarioID: id, Hotels: len(s.hotels), Rooms: s.rooms, Tokens: map[string]string{}}
	for _, u := range demoUsers {
		u.HotelID = s.hotels[0].ID
		if u.Role == RoleChainAdmin {
			u.HotelID = 0
		}
		tok, err := h.Auth.IssueToken(u)
		if err != nil {
			return LoadScenarioResponse{}, fmt.Errorf("issue demo token: %w", err)
		}
		resp.Tokens[string(u.Role)] = tok
	}
	h.currentScenario = id
	h.Log.Info().Str("scenario", id).Int("rooms", s.rooms).Msg("scenario loaded")
	return resp, nil
}

func (h *Handler) invalidateCatalog(ctx context.Context, rts []frontdesk.RoomType) {
	if h.Catalog == nil {
		return
	}
	for _, rt := range rts {
		if err := h.Catalog.Invalidate(ctx, rt); err != nil {
			h.Log.Warn().Err(err).Int64("room_type_id", int64(rt.ID)).Msg("cache invalidation failed")
		}
	}
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

type seeded struct {
	hotels    []frontdesk.Hotel
	roomTypes []frontdesk.RoomType
	rooms     int
	roomIDs   map[string]generic.RoomID // by "<code>-<number>"
}

type roomSeed struct {
	number string
	floor  int
	rate   string
}

func (h *Handler) seedHotel(ctx context.Context, s *seeded, code, name string, doubles, suites []roomSeed) error {
	hotel, err := h.Store.SaveHotel(ctx, frontdesk.Hotel{Code: code, Name: name})
	if err != nil {
		return err
	}
	double, err := h.Store.SaveRoomType(ctx, frontdesk.RoomType{
		HotelID: hotel.ID, Name: "Doble",
		AdultsMax: 2, ChildrenMax: 1, AdultsExtraMax: 1, ChildrenExtraMax: 1,
		AdultExtraPrice: decimal.NewFromInt(200), ChildExtraPrice: decimal.NewFromInt(100),
		ExtraBedsMax: 1, ExtraBedPrice: decimal.NewFromInt(150),
	})
	if err != nil {
		return err
	}
	suite, err := h.Store.SaveRoomType(ctx, frontdesk.RoomType{
		HotelID: hotel.ID, Name: "Suite",
		AdultsMax: 2, ChildrenMax: 2, AdultsExtraMax: 2, ChildrenExtraMax: 2,
		AdultExtraPrice: decimal.NewFromInt(350), ChildExtraPrice: decimal.NewFromInt(150),
		ExtraBedsMax: 2, ExtraBedPrice: decimal.NewFromInt(250),
	})
	if err != nil {
		return err
	}
	for _, group := range []struct {
		rt    frontdesk.RoomType
		rooms []roomSeed
	}{{double, doubles}, {suite, suites}} {
		for _, rs := range group.rooms {
			room, err := h.Store.SaveRoom(ctx, frontdesk.Room{
				HotelID: hotel.ID, TypeID: group.rt.ID, Number: rs.number, Floor: rs.floor,
				BaseRate: generic.ParseDecimalOrZero(rs.rate),
			})
			if err != nil {
				return err
			}
			if s.roomIDs == nil {
				s.roomIDs = map[string]generic.RoomID{}
			}
			s.roomIDs[code+"-"+rs.number] = room.ID
			s.rooms++
		}
	}
	s.hotels = append(s.hotels, hotel)
	s.roomTypes = append(s.roomTypes, double, suite)
	return nil
}

func (h *Handler) seedConcepts(ctx context.Context) error {
	for _, c := range []frontdesk.ChargeConcept{
		{Code: "MINIBAR", Name: "Minibar", DefaultAmount: decimal.NewFromInt(150)},
		{Code: "LAV", Name: "Lavanderia", Description: "Servicio de lavanderia por prenda", DefaultAmount: decimal.NewFromInt(60)},
		{Code: "RS", Name: "Room service", DefaultAmount: decimal.NewFromInt(250)},
		{Code: "LATE", Name: "Late checkout", Description: "Salida despues de las 13:00", DefaultAmount: decimal.NewFromInt(400)},
		{Code: "DMG", Name: "Danos", Description: "Cargo por danos a la habitacion"},
	} {
		if _, err := h.Store.SaveConcept(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadSingleHotel(ctx context.Context) (seeded, error) {
	var s seeded
	err := h.seedHotel(ctx, &s, "COAS", "Hotel Costa",
		[]roomSeed{{"101", 1, "1000"}, {"102", 1, "1000"}, {"103", 1, "1100"}},
		[]roomSeed{{"201", 2, "2500"}},
	)
	if err != nil {
		return s, err
	}
	return s, h.seedConcepts(ctx)
}

func (h *Handler) loadHotelChain(ctx context.Context) (seeded, error) {
	s, err := h.loadSingleHotel(ctx)
	if err != nil {
		return s, err
	}
	err = h.seedHotel(ctx, &s, "CENT", "Hotel Centro",
		[]roomSeed{{"11", 1, "850"}, {"12", 1, "850"}},
		[]roomSeed{{"31", 3, "1900"}},
	)
	return s, err
}

// loadBusyWeekend books through the engine so folios, rent charges and the
// deposit payment are real ledger rows.
func (h *Handler) loadBusyWeekend(ctx context.Context) (seeded, error) {
	s, err := h.loadSingleHotel(ctx)
	if err != nil {
		return s, err
	}
	hotel := s.hotels[0]
	a := frontdesk.Actor{UserID: demoUsers[0].UserID, HotelID: hotel.ID}
	tomorrow := generic.Day(time.Now().UTC()).AddDate(0, 0, 1)

	bookings := []struct {
		room           string
		first, last    string
		nights, adults int
		method         generic.PaymentMethod
	}{
		{"101", "Ana", "Lopez", 2, 2, generic.MethodCard},
		{"102", "Carlos", "Ruiz", 3, 3, generic.MethodCash},
		{"201", "Lucia", "Mendez", 1, 2, generic.MethodTransfer},
	}
	for _, b := range bookings {
		bk, err := h.Engine.Create(ctx, a, frontdesk.BookingRequest{
			RoomID:        s.roomIDs[hotel.Code+"-"+b.room],
			Guest:         frontdesk.Guest{FirstName: b.first, LastName1: b.last},
			CheckIn:       tomorrow,
			CheckOut:      tomorrow.AddDate(0, 0, b.nights),
			Occupancy:     frontdesk.Occupancy{Adults: b.adults},
			PaymentMethod: b.method,
		})
		if err != nil {
			return s, fmt.Errorf("book room %s: %w", b.room, err)
		}
		// Half the stay paid up front.
		deposit := generic.RoundMoney(bk.Quote.Total.Div(decimal.NewFromInt(2)))
		if _, err := h.Engine.RecordMovement(ctx, a, bk.Reservation.ID, frontdesk.MovementRequest{
			Kind: generic.KindPayment, Description: "Anticipo", Amount: deposit,
		}); err != nil {
			return s, fmt.Errorf("record deposit for %s: %w", bk.Reservation.Folio, err)
		}
	}
	return s, nil
}

// ResetDatabase drops all data without loading a scenario.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.Store.Reset(r.Context()); err != nil {
		h.fail(w, r, generic.Storage("reset database", err))
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
