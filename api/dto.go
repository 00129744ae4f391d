/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Composite response wrappers

MONEY AND DATES:
  Money is a string with exactly two decimals ("2784.00") so clients never
  parse it as a float. Stay dates are "YYYY-MM-DD"; timestamps are RFC 3339
  in UTC.

VALIDATION:
  Validation is done by the engine, not in DTOs. DTOs are pure data
  carriers; toX methods only parse formats.
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/frontdesk/frontdesk"
	"github.com/warp/frontdesk/generic"
)

func money(d decimal.Decimal) string { return d.StringFixed(generic.MoneyPlaces) }

// =============================================================================
// RESERVATIONS
// =============================================================================

// ReservationRequest is the body of create and edit. On edit, room_id 0
// keeps the current room and an empty payment_method keeps the current one.
type ReservationRequest struct {
	RoomID         int64  `json:"room_id"`
	GuestFirstName string `json:"guest_first_name"`
	GuestLastName1 string `json:"guest_last_name1"`
	GuestLastName2 string `json:"guest_last_name2"`
	CheckIn        string `json:"check_in"`
	CheckOut       string `json:"check_out"`
	Adults         int    `json:"adults"`
	Children       int    `json:"children"`
	ExtraBeds      int    `json:"extra_beds"`
	PaymentMethod  string `json:"payment_method"`
}

func (req ReservationRequest) toBooking() (frontdesk.BookingRequest, error) {
	in, err := generic.ParseDate("check_in", req.CheckIn)
	if err != nil {
		return frontdesk.BookingRequest{}, err
	}
	out, err := generic.ParseDate("check_out", req.CheckOut)
	if err != nil {
		return frontdesk.BookingRequest{}, err
	}
	var method generic.PaymentMethod
	if req.PaymentMethod != "" {
		if method, err = generic.ParsePaymentMethod(req.PaymentMethod); err != nil {
			return frontdesk.BookingRequest{}, err
		}
	}
	return frontdesk.BookingRequest{
		RoomID:        generic.RoomID(req.RoomID),
		Guest:         frontdesk.Guest{FirstName: req.GuestFirstName, LastName1: req.GuestLastName1, LastName2: req.GuestLastName2},
		CheckIn:       in,
		CheckOut:      out,
		Occupancy:     frontdesk.Occupancy{Adults: req.Adults, Children: req.Children, ExtraBeds: req.ExtraBeds},
		PaymentMethod: method,
	}, nil
}

type ReservationDTO struct {
	ID             generic.ReservationID      `json:"id"`
	HotelID        generic.HotelID            `json:"hotel_id"`
	RoomID         generic.RoomID             `json:"room_id"`
	Folio          string                     `json:"folio"`
	GuestFirstName string                     `json:"guest_first_name"`
	GuestLastName1 string                     `json:"guest_last_name1"`
	GuestLastName2 string                     `json:"guest_last_name2,omitempty"`
	CheckIn        string                     `json:"check_in"`
	CheckOut       string                     `json:"check_out"`
	Nights         int                        `json:"nights"`
	Adults         int                        `json:"adults"`
	Children       int                        `json:"children"`
	ExtraBeds      int                        `json:"extra_beds"`
	NightlyRate    string                     `json:"nightly_rate"`
	Total          string                     `json:"total"`
	PaymentMethod  generic.PaymentMethod      `json:"payment_method"`
	State          frontdesk.ReservationState `json:"state"`
	CreatedBy      generic.UserID             `json:"created_by"`
	CreatedAt      time.Time                  `json:"created_at"`
	UpdatedAt      time.Time                  `json:"updated_at"`
}

func toReservationDTO(r frontdesk.Reservation) ReservationDTO {
	return ReservationDTO{
		ID:             r.ID,
		HotelID:        r.HotelID,
		RoomID:         r.RoomID,
		Folio:          r.Folio,
		GuestFirstName: r.Guest.FirstName,
		GuestLastName1: r.Guest.LastName1,
		GuestLastName2: r.Guest.LastName2,
		CheckIn:        r.CheckIn.Format(generic.DateLayout),
		CheckOut:       r.CheckOut.Format(generic.DateLayout),
		Nights:         r.Stay().Nights(),
		Adults:         r.Adults,
		Children:       r.Children,
		ExtraBeds:      r.ExtraBeds,
		NightlyRate:    money(r.NightlyRate),
		Total:          money(r.Total),
		PaymentMethod:  r.PaymentMethod,
		State:          r.State,
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type QuoteDTO struct {
	Nights              int    `json:"nights"`
	NightlyRate         string `json:"nightly_rate"`
	Base                string `json:"base"`
	AdultsExtra         int    `json:"adults_extra"`
	ChildrenExtra       int    `json:"children_extra"`
	AdultsExtraCharge   string `json:"adults_extra_charge"`
	ChildrenExtraCharge string `json:"children_extra_charge"`
	BedsExtraCharge     string `json:"beds_extra_charge"`
	Subtotal            string `json:"subtotal"`
	Tax                 string `json:"tax"`
	Total               string `json:"total"`
}

func toQuoteDTO(q frontdesk.Quote) QuoteDTO {
	return QuoteDTO{
		Nights:              q.Nights,
		NightlyRate:         money(q.NightlyRate),
		Base:                money(q.Base),
		AdultsExtra:         q.AdultsExtra,
		ChildrenExtra:       q.ChildrenExtra,
		AdultsExtraCharge:   money(q.AdultsExtraCharge),
		ChildrenExtraCharge: money(q.ChildrenExtraCharge),
		BedsExtraCharge:     money(q.BedsExtraCharge),
		Subtotal:            money(q.Subtotal),
		Tax:                 money(q.Tax),
		Total:               money(q.Total),
	}
}

// BalanceDTO is the ledger summary. Balance = payments − charges; negative
// means the guest owes money.
type BalanceDTO struct {
	Charges  string `json:"charges"`
	Payments string `json:"payments"`
	Balance  string `json:"balance"`
	Rent     string `json:"rent"`
}

func toBalanceDTO(s generic.Summary) BalanceDTO {
	return BalanceDTO{Charges: money(s.Charges), Payments: money(s.Payments), Balance: money(s.Balance), Rent: money(s.Rent)}
}

// BookingResponse is returned by create and edit.
type BookingResponse struct {
	ID          generic.ReservationID `json:"id"`
	Folio       string                `json:"folio"`
	Nights      int                   `json:"nights"`
	Total       string                `json:"total"`
	Quote       QuoteDTO              `json:"quote"`
	Balance     BalanceDTO            `json:"balance"`
	Reservation ReservationDTO        `json:"reservation"`
}

func toBookingResponse(b frontdesk.Booking) BookingResponse {
	return BookingResponse{
		ID:          b.Reservation.ID,
		Folio:       b.Reservation.Folio,
		Nights:      b.Quote.Nights,
		Total:       money(b.Quote.Total),
		Quote:       toQuoteDTO(b.Quote),
		Balance:     toBalanceDTO(b.Summary),
		Reservation: toReservationDTO(b.Reservation),
	}
}

type ReservationDetailResponse struct {
	Reservation ReservationDTO `json:"reservation"`
	Room        RoomDTO        `json:"room"`
	Balance     BalanceDTO     `json:"balance"`
}

// StateResponse is returned by check-in, check-out and cancel.
type StateResponse struct {
	ID      generic.ReservationID      `json:"id"`
	Folio   string                     `json:"folio"`
	State   frontdesk.ReservationState `json:"state"`
	Balance *BalanceDTO                `json:"balance,omitempty"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

// =============================================================================
// LEDGER
// =============================================================================

type MovementRequest struct {
	Kind        string          `json:"kind"`
	ConceptID   *int64          `json:"concept_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"payment_method"`
	Note        string          `json:"note"`
}

func (req MovementRequest) toMovement() (frontdesk.MovementRequest, error) {
	kind, err := generic.ParseEntryKind(req.Kind)
	if err != nil {
		return frontdesk.MovementRequest{}, err
	}
	m := frontdesk.MovementRequest{Kind: kind, Description: req.Description, Amount: req.Amount, Note: req.Note}
	if req.ConceptID != nil {
		id := generic.ConceptID(*req.ConceptID)
		m.ConceptID = &id
	}
	if req.Method != "" {
		if m.Method, err = generic.ParsePaymentMethod(req.Method); err != nil {
			return frontdesk.MovementRequest{}, err
		}
	}
	return m, nil
}

type EntryDTO struct {
	ID          generic.EntryID       `json:"id"`
	Kind        generic.EntryKind     `json:"kind"`
	ConceptID   *generic.ConceptID    `json:"concept_id,omitempty"`
	Origin      generic.EntryOrigin   `json:"origin"`
	Description string                `json:"description"`
	Amount      string                `json:"amount"`
	Currency    string                `json:"currency"`
	Method      generic.PaymentMethod `json:"payment_method,omitempty"`
	CreatedBy   generic.UserID        `json:"created_by"`
	CreatedAt   time.Time             `json:"created_at"`
	Note        string                `json:"note,omitempty"`
}

func toEntryDTOs(es []generic.Entry) []EntryDTO {
	out := make([]EntryDTO, len(es))
	for i, e := range es {
		out[i] = EntryDTO{
			ID: e.ID, Kind: e.Kind, ConceptID: e.ConceptID, Origin: e.Origin, Description: e.Description,
			Amount: money(e.Amount), Currency: e.Currency, Method: e.Method, CreatedBy: e.CreatedBy,
			CreatedAt: e.CreatedAt, Note: e.Note,
		}
	}
	return out
}

type MovementsResponse struct {
	ReservationID generic.ReservationID `json:"reservation_id"`
	Entries       []EntryDTO            `json:"entries"`
	Balance       BalanceDTO            `json:"balance"`
}

type ConceptDTO struct {
	ID            generic.ConceptID `json:"id"`
	Code          string            `json:"code"`
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	DefaultAmount string            `json:"default_amount"`
}

// =============================================================================
// CASH DRAWER
// =============================================================================

type DrawerNoteRequest struct {
	Note string `json:"note"`
}

type DrawerTotalsDTO struct {
	Cash         string `json:"total_cash"`
	Card         string `json:"total_card"`
	General      string `json:"total_general"`
	Transactions int    `json:"transactions"`
}

func toTotalsDTO(t frontdesk.DrawerTotals) DrawerTotalsDTO {
	return DrawerTotalsDTO{Cash: money(t.Cash), Card: money(t.Card), General: money(t.General), Transactions: t.Transactions}
}

type DrawerSessionDTO struct {
	ID        generic.SessionID `json:"id"`
	CashierID generic.UserID    `json:"cashier_id"`
	HotelID   generic.HotelID   `json:"hotel_id"`
	OpenedAt  time.Time         `json:"opened_at"`
	ClosedAt  *time.Time        `json:"closed_at"`
	Open      bool              `json:"open"`
	Totals    DrawerTotalsDTO   `json:"totals"`
	Note      string            `json:"note,omitempty"`
}

func toSessionDTO(s frontdesk.DrawerSession) DrawerSessionDTO {
	return DrawerSessionDTO{
		ID: s.ID, CashierID: s.CashierID, HotelID: s.HotelID, OpenedAt: s.OpenedAt, ClosedAt: s.ClosedAt,
		Open: s.Open(), Totals: toTotalsDTO(s.Totals), Note: s.Note,
	}
}

type DrawerPreviewDTO struct {
	SessionID *generic.SessionID `json:"session_id,omitempty"`
	From      time.Time          `json:"from"`
	To        time.Time          `json:"to"`
	Totals    DrawerTotalsDTO    `json:"totals"`
}

type DrawerDetailResponse struct {
	Session  DrawerSessionDTO `json:"session"`
	Payments []EntryDTO       `json:"payments"`
}

// =============================================================================
// ROOMS
// =============================================================================

type RoomDTO struct {
	ID       generic.RoomID      `json:"id"`
	HotelID  generic.HotelID     `json:"hotel_id"`
	TypeID   generic.RoomTypeID  `json:"type_id"`
	Number   string              `json:"number"`
	Floor    int                 `json:"floor"`
	BaseRate string              `json:"base_rate"`
	State    frontdesk.RoomState `json:"state"`
	Notes    string              `json:"notes,omitempty"`
}

func toRoomDTO(r frontdesk.Room) RoomDTO {
	return RoomDTO{
		ID: r.ID, HotelID: r.HotelID, TypeID: r.TypeID, Number: r.Number, Floor: r.Floor,
		BaseRate: money(r.BaseRate), State: r.State, Notes: r.Notes,
	}
}

type RoomStatusRequest struct {
	State string `json:"state"`
}

type RoomChangeResponse struct {
	Room        RoomDTO                `json:"room"`
	Relocations []frontdesk.Relocation `json:"relocations"`
}

type AvailabilityResponse struct {
	RoomID    generic.RoomID        `json:"room_id"`
	Available bool                  `json:"available"`
	Folio     string                `json:"conflict_folio,omitempty"`
	ID        generic.ReservationID `json:"conflict_reservation_id,omitempty"`
}

type RoomTypeDTO struct {
	ID               generic.RoomTypeID `json:"id"`
	HotelID          generic.HotelID    `json:"hotel_id"`
	Name             string             `json:"name"`
	AdultsMax        int                `json:"adults_max"`
	ChildrenMax      int                `json:"children_max"`
	AdultsExtraMax   int                `json:"adults_extra_max"`
	ChildrenExtraMax int                `json:"children_extra_max"`
	AdultExtraPrice  string             `json:"adult_extra_price"`
	ChildExtraPrice  string             `json:"child_extra_price"`
	ExtraBedsMax     int                `json:"extra_beds_max"`
	ExtraBedPrice    string             `json:"extra_bed_price"`
}

func toRoomTypeDTO(rt frontdesk.RoomType) RoomTypeDTO {
	return RoomTypeDTO{
		ID: rt.ID, HotelID: rt.HotelID, Name: rt.Name,
		AdultsMax: rt.AdultsMax, ChildrenMax: rt.ChildrenMax,
		AdultsExtraMax: rt.AdultsExtraMax, ChildrenExtraMax: rt.ChildrenExtraMax,
		AdultExtraPrice: money(rt.AdultExtraPrice), ChildExtraPrice: money(rt.ChildExtraPrice),
		ExtraBedsMax: rt.ExtraBedsMax, ExtraBedPrice: money(rt.ExtraBedPrice),
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// LoadScenarioResponse lists what was seeded plus demo tokens, one per role.
type LoadScenarioResponse struct {
	ScenarioID string            `json:"scenario_id"`
	Hotels     int               `json:"hotels"`
	Rooms      int               `json:"rooms"`
	Tokens     map[string]string `json:"tokens"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}
