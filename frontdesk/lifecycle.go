package frontdesk

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/frontdesk/generic"
	"github.com/warp/frontdesk/observability"
)

// BookingRequest carries the fields shared by create and edit. On edit a
// zero RoomID keeps the current room and an empty PaymentMethod keeps the
// current method.
type BookingRequest struct {
	RoomID        generic.RoomID
	Guest         Guest
	CheckIn       time.Time
	CheckOut      time.Time
	Occupancy     Occupancy
	PaymentMethod generic.PaymentMethod
}

// Booking is the result of a create or edit.
type Booking struct {
	Reservation Reservation
	Quote       Quote
	Summary     generic.Summary
}

// ReservationDetail is a reservation with its room and ledger totals.
type ReservationDetail struct {
	Reservation Reservation
	Room        Room
	Summary     generic.Summary
}

// FormatFolio renders a folio: hotel code plus the sequence zero-padded to 4.
func FormatFolio(code string, seq int) string {
	return fmt.Sprintf("%s%04d", code, seq)
}

// FolioSeq extracts the sequence number from a folio issued for code.
func FolioSeq(code, folio string) (int, bool) {
	rest, ok := strings.CutPrefix(folio, code)
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// =============================================================================
// STATE COUPLING
// =============================================================================

// transition is the only place a reservation's state is written. It writes
// the reservation and then re-derives its room's state in the same
// transaction.
func transition(ctx context.Context, st Store, r *Reservation, to ReservationState, at time.Time) error {
	if !r.State.CanTransition(to) {
		return generic.Conflict(map[string]any{"state": r.State},
			"reservation %s cannot move from %s to %s", r.Folio, r.State, to)
	}
	r.State = to
	r.UpdatedAt = at
	if err := st.UpdateReservation(ctx, *r); err != nil {
		return err
	}
	return syncRoom(ctx, st, r.RoomID)
}

// syncRoom makes a room's physical state agree with its reservations:
// occupied iff some reservation on it is en_curso. Operator-pinned states
// (maintenance, inactive, blocked, out_of_service) are left alone.
func syncRoom(ctx context.Context, st Store, id generic.RoomID) error {
	room, err := st.RoomForUpdate(ctx, id)
	if err != nil {
		return err
	}
	if room.State.Pinned() {
		return nil
	}
	n, err := st.CountInProgress(ctx, id)
	if err != nil {
		return err
	}
	want := RoomAvailable
	if n > 0 {
		want = RoomOccupied
	}
	if room.State == want {
		return nil
	}
	return st.SetRoomState(ctx, id, want)
}

// =============================================================================
// CREATE / EDIT
// =============================================================================

// priced resolves the room and room type outside the transaction and prices
// the stay, so malformed requests fail before any write.
func (e *Engine) priced(ctx context.Context, a Actor, roomID generic.RoomID, stay generic.Stay, occ Occupancy) (Room, Quote, error) {
	room, err := scopedRoom(ctx, e.store, a, roomID, false)
	if err != nil {
		return Room{}, Quote{}, generic.Storage("load room", err)
	}
	rt, err := e.roomType(ctx, room.TypeID)
	if err != nil {
		return Room{}, Quote{}, err
	}
	q, err := Price(rt, room.BaseRate, stay.Nights(), occ)
	if err != nil {
		return Room{}, Quote{}, err
	}
	return room, q, nil
}

// lockPricedRoom re-reads the room under lock and refuses to proceed if its
// type or rate changed since it was priced.
func lockPricedRoom(ctx context.Context, st Store, a Actor, priced Room) (Room, error) {
	room, err := scopedRoom(ctx, st, a, priced.ID, true)
	if err != nil {
		return Room{}, err
	}
	if room.TypeID != priced.TypeID || !room.BaseRate.Equal(priced.BaseRate) {
		return Room{}, generic.Conflict(nil, "room %s changed while pricing, retry", room.Number)
	}
	return room, nil
}

func roomNotBookable(room Room) error {
	return generic.Conflict(map[string]any{"room_state": room.State},
		"room %s is not available (%s)", room.Number, room.State)
}

// Create books a room. The reservation row, its folio and the initial rent
// charge are written in one transaction.
func (e *Engine) Create(ctx context.Context, a Actor, req BookingRequest) (Booking, error) {
	guest := req.Guest.normalized()
	if err := guest.validate(); err != nil {
		return Booking{}, err
	}
	if req.RoomID == 0 {
		return Booking{}, generic.Invalid("room_id", "is required")
	}
	stay, err := generic.NewStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return Booking{}, err
	}
	if stay.CheckIn.Before(e.today()) {
		return Booking{}, generic.Invalid("check_in", "cannot be before today")
	}
	method := req.PaymentMethod
	if method == "" {
		method = generic.MethodCash
	}
	priced, quote, err := e.priced(ctx, a, req.RoomID, stay, req.Occupancy)
	if err != nil {
		return Booking{}, err
	}

	var out Booking
	err = e.tx(ctx, "create reservation", func(st Store) error {
		room, err := lockPricedRoom(ctx, st, a, priced)
		if err != nil {
			return err
		}
		if !room.State.Bookable() {
			return roomNotBookable(room)
		}
		av, err := checkAvailability(ctx, st, room.ID, stay, 0)
		if err != nil {
			return err
		}
		if av.Conflict {
			return conflictError(room, av)
		}
		hotel, err := st.Hotel(ctx, room.HotelID)
		if err != nil {
			return err
		}
		seq, err := st.NextFolioSeq(ctx, hotel.ID)
		if err != nil {
			return err
		}

		now := e.clock()
		r, err := st.InsertReservation(ctx, Reservation{
			HotelID:       room.HotelID,
			RoomID:        room.ID,
			Folio:         FormatFolio(hotel.Code, seq),
			Guest:         guest,
			CheckIn:       stay.CheckIn,
			CheckOut:      stay.CheckOut,
			Adults:        req.Occupancy.Adults,
			Children:      req.Occupancy.Children,
			ExtraBeds:     req.Occupancy.ExtraBeds,
			NightlyRate:   room.BaseRate,
			Total:         quote.Total,
			PaymentMethod: method,
			State:         StateActive,
			CreatedBy:     a.UserID,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if err != nil {
			return err
		}
		rent, err := e.ledger(st).Append(ctx, generic.Entry{
			ReservationID: r.ID,
			Kind:          generic.KindCharge,
			Origin:        generic.OriginRent,
			Description:   "Rent",
			Amount:        quote.Total,
			CreatedBy:     a.UserID,
		})
		if err != nil {
			return err
		}
		out = Booking{Reservation: r, Quote: quote, Summary: generic.Summarize([]generic.Entry{rent})}
		return nil
	})
	if err != nil {
		return Booking{}, err
	}

	r := out.Reservation
	observability.ObserveTransition("create")
	observability.ObserveLedger(generic.KindCharge, generic.OriginRent)
	e.log.Info().Str("folio", r.Folio).Int64("room_id", int64(r.RoomID)).
		Str("total", r.Total.StringFixed(2)).Msg("reservation created")
	e.emit(ctx, Event{
		Type: EventReservationCreated, HotelID: r.HotelID, ReservationID: r.ID, Folio: r.Folio, ActorID: a.UserID,
		Data: map[string]any{"room_id": r.RoomID, "check_in": r.CheckIn.Format(generic.DateLayout),
			"check_out": r.CheckOut.Format(generic.DateLayout), "total": r.Total.StringFixed(2)},
	})
	return out, nil
}

// Edit re-validates and re-prices a reservation. The rent already in the
// ledger is brought to the new total with an offsetting rent_adjustment
// charge, so earlier entries are never rewritten.
func (e *Engine) Edit(ctx context.Context, a Actor, id generic.ReservationID, req BookingRequest) (Booking, error) {
	guest := req.Guest.normalized()
	if err := guest.validate(); err != nil {
		return Booking{}, err
	}
	stay, err := generic.NewStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return Booking{}, err
	}
	current, err := scopedReservation(ctx, e.store, a, id, false)
	if err != nil {
		return Booking{}, generic.Storage("load reservation", err)
	}
	if current.State.Terminal() {
		return Booking{}, notEditable(current)
	}
	roomID := req.RoomID
	if roomID == 0 {
		roomID = current.RoomID
	}
	priced, quote, err := e.priced(ctx, a, roomID, stay, req.Occupancy)
	if err != nil {
		return Booking{}, err
	}

	var (
		out        Booking
		adjustment decimal.Decimal
	)
	err = e.tx(ctx, "edit reservation", func(st Store) error {
		r, err := scopedReservation(ctx, st, a, id, true)
		if err != nil {
			return err
		}
		if r.State.Terminal() {
			return notEditable(r)
		}
		room, err := lockPricedRoom(ctx, st, a, priced)
		if err != nil {
			return err
		}
		if room.HotelID != r.HotelID {
			return generic.Invalid("room_id", "room belongs to another hotel")
		}
		moved := room.ID != r.RoomID
		if moved && !room.State.Bookable() {
			return roomNotBookable(room)
		}
		if moved && r.State == StateInProgress {
			busy, err := st.CountInProgress(ctx, room.ID)
			if err != nil {
				return err
			}
			if busy > 0 {
				return generic.Conflict(map[string]any{"room_id": room.ID}, "room %s is occupied by another guest", room.Number)
			}
		}
		av, err := checkAvailability(ctx, st, room.ID, stay, r.ID)
		if err != nil {
			return err
		}
		if av.Conflict {
			return conflictError(room, av)
		}

		previousRoom := r.RoomID
		r.RoomID = room.ID
		r.Guest = guest
		r.CheckIn, r.CheckOut = stay.CheckIn, stay.CheckOut
		r.Adults = req.Occupancy.Adults
		r.Children = req.Occupancy.Children
		r.ExtraBeds = req.Occupancy.ExtraBeds
		r.NightlyRate = room.BaseRate
		r.Total = quote.Total
		if req.PaymentMethod != "" {
			r.PaymentMethod = req.PaymentMethod
		}
		r.UpdatedAt = e.clock()
		if err := st.UpdateReservation(ctx, r); err != nil {
			return err
		}
		if moved {
			if err := syncRoom(ctx, st, previousRoom); err != nil {
				return err
			}
			if err := syncRoom(ctx, st, room.ID); err != nil {
				return err
			}
		}

		ledger := e.ledger(st)
		before, err := ledger.Balance(ctx, r.ID)
		if err != nil {
			return err
		}
		adjustment = quote.Total.Sub(before.Rent)
		if !adjustment.IsZero() {
			if _, err := ledger.Append(ctx, generic.Entry{
				ReservationID: r.ID,
				Kind:          generic.KindCharge,
				Origin:        generic.OriginRentAdjustment,
				Description:   "Rent adjustment",
				Amount:        adjustment,
				CreatedBy:     a.UserID,
			}); err != nil {
				return err
			}
		}
		sum, err := ledger.Balance(ctx, r.ID)
		if err != nil {
			return err
		}
		out = Booking{Reservation: r, Quote: quote, Summary: sum}
		return nil
	})
	if err != nil {
		return Booking{}, err
	}

	r := out.Reservation
	observability.ObserveTransition("edit")
	if !adjustment.IsZero() {
		observability.ObserveLedger(generic.KindCharge, generic.OriginRentAdjustment)
	}
	e.log.Info().Str("folio", r.Folio).Str("adjustment", adjustment.StringFixed(2)).Msg("reservation edited")
	e.emit(ctx, Event{
		Type: EventReservationUpdated, HotelID: r.HotelID, ReservationID: r.ID, Folio: r.Folio, ActorID: a.UserID,
		Data: map[string]any{"room_id": r.RoomID, "total": r.Total.StringFixed(2), "adjustment": adjustment.StringFixed(2)},
	})
	return out, nil
}

func notEditable(r Reservation) error {
	return generic.Conflict(map[string]any{"state": r.State},
		"reservation %s is %s and can no longer be changed", r.Folio, r.State)
}

// =============================================================================
// CHECK-IN / CHECK-OUT / CANCEL
// =============================================================================

// CheckIn moves an activa reservation to en_curso and occupies its room.
// The reservation row is locked so two desks cannot check in the same guest.
func (e *Engine) CheckIn(ctx context.Context, a Actor, id generic.ReservationID) (Reservation, error) {
	var r Reservation
	err := e.tx(ctx, "check in", func(st Store) error {
		var err error
		r, err = scopedReservation(ctx, st, a, id, true)
		if err != nil {
			return err
		}
		switch r.State {
		case StateActive:
		case StateInProgress:
			return generic.Conflict(map[string]any{"state": r.State}, "reservation %s is already checked in", r.Folio)
		default:
			return notEditable(r)
		}
		room, err := st.RoomForUpdate(ctx, r.RoomID)
		if err != nil {
			return err
		}
		if room.State.Pinned() {
			return roomNotBookable(room)
		}
		busy, err := st.CountInProgress(ctx, room.ID)
		if err != nil {
			return err
		}
		if busy > 0 {
			return generic.Conflict(map[string]any{"room_id": room.ID}, "room %s is occupied by another guest", room.Number)
		}
		if err := transition(ctx, st, &r, StateInProgress, e.clock()); err != nil {
			return err
		}
		_, err = e.ledger(st).Append(ctx, generic.Entry{
			ReservationID: r.ID,
			Kind:          generic.KindCharge,
			Origin:        generic.OriginCheckIn,
			Description:   "Check-in",
			Amount:        decimal.Zero,
			CreatedBy:     a.UserID,
		})
		return err
	})
	if err != nil {
		return Reservation{}, err
	}
	e.finishTransition(ctx, a, r, "check_in", EventReservationCheckedIn, generic.OriginCheckIn, nil)
	return r, nil
}

// Checkout is the result of a successful check-out.
type Checkout struct {
	Reservation Reservation
	Summary     generic.Summary
}

// CheckOut closes a stay. It is refused while charges exceed payments; the
// conflict detail carries the balance that blocked it.
func (e *Engine) CheckOut(ctx context.Context, a Actor, id generic.ReservationID) (Checkout, error) {
	var out Checkout
	err := e.tx(ctx, "check out", func(st Store) error {
		r, err := scopedReservation(ctx, st, a, id, true)
		if err != nil {
			return err
		}
		if !r.State.CanTransition(StateFinished) {
			return notEditable(r)
		}
		ledger := e.ledger(st)
		sum, err := ledger.Balance(ctx, r.ID)
		if err != nil {
			return err
		}
		if sum.Owes() {
			return generic.Conflict(BalanceDetail(sum),
				"reservation %s has a pending balance of %s", r.Folio, sum.Balance.Neg().StringFixed(2))
		}
		if err := transition(ctx, st, &r, StateFinished, e.clock()); err != nil {
			return err
		}
		if _, err := ledger.Append(ctx, generic.Entry{
			ReservationID: r.ID,
			Kind:          generic.KindCharge,
			Origin:        generic.OriginCheckOut,
			Description:   "Check-out",
			Amount:        decimal.Zero,
			CreatedBy:     a.UserID,
		}); err != nil {
			return err
		}
		out = Checkout{Reservation: r, Summary: sum}
		return nil
	})
	if err != nil {
		return Checkout{}, err
	}
	e.finishTransition(ctx, a, out.Reservation, "check_out", EventReservationCheckedOut, generic.OriginCheckOut,
		map[string]any{"balance": out.Summary.Balance.StringFixed(2)})
	return out, nil
}

// Cancel cancels an activa reservation and frees its room. The reason is
// kept on the audit entry.
func (e *Engine) Cancel(ctx context.Context, a Actor, id generic.ReservationID, reason string) (Reservation, error) {
	var r Reservation
	err := e.tx(ctx, "cancel", func(st Store) error {
		var err error
		r, err = scopedReservation(ctx, st, a, id, true)
		if err != nil {
			return err
		}
		if r.State == StateInProgress {
			return generic.Conflict(map[string]any{"state": r.State},
				"reservation %s is checked in and cannot be cancelled", r.Folio)
		}
		if !r.State.CanTransition(StateCancelled) {
			return notEditable(r)
		}
		if err := transition(ctx, st, &r, StateCancelled, e.clock()); err != nil {
			return err
		}
		_, err = e.ledger(st).Append(ctx, generic.Entry{
			ReservationID: r.ID,
			Kind:          generic.KindCharge,
			Origin:        generic.OriginCancellation,
			Description:   "Cancellation",
			Amount:        decimal.Zero,
			CreatedBy:     a.UserID,
			Note:          reason,
		})
		return err
	})
	if err != nil {
		return Reservation{}, err
	}
	e.finishTransition(ctx, a, r, "cancel", EventReservationCancelled, generic.OriginCancellation,
		map[string]any{"reason": reason})
	return r, nil
}

func (e *Engine) finishTransition(ctx context.Context, a Actor, r Reservation, name string, ev EventType, origin generic.EntryOrigin, data map[string]any) {
	observability.ObserveTransition(name)
	observability.ObserveLedger(generic.KindCharge, origin)
	e.log.Info().Str("folio", r.Folio).Str("state", string(r.State)).Msg("reservation " + name)
	e.emit(ctx, Event{Type: ev, HotelID: r.HotelID, ReservationID: r.ID, Folio: r.Folio, ActorID: a.UserID, Data: data})
}

// BalanceDetail is the machine-readable balance snapshot attached to
// check-out responses and pending-balance conflicts.
func BalanceDetail(s generic.Summary) map[string]string {
	return map[string]string{
		"charges":  s.Charges.StringFixed(2),
		"payments": s.Payments.StringFixed(2),
		"balance":  s.Balance.StringFixed(2),
	}
}

// =============================================================================
// LEDGER MOVEMENTS
// =============================================================================

// MovementRequest is a manual charge or payment recorded by staff.
type MovementRequest struct {
	Kind        generic.EntryKind
	ConceptID   *generic.ConceptID
	Description string
	Amount      decimal.Decimal
	Method      generic.PaymentMethod
	Note        string
}

// RecordMovement appends a manual entry. Closed reservations
// (finalizada, cancelada) no longer accept movements.
func (e *Engine) RecordMovement(ctx context.Context, a Actor, id generic.ReservationID, m MovementRequest) (generic.Entry, error) {
	if m.Kind != generic.KindCharge && m.Kind != generic.KindPayment {
		return generic.Entry{}, generic.Invalid("kind", "must be charge or payment")
	}
	m.Amount = generic.RoundMoney(m.Amount)
	if !m.Amount.IsPositive() {
		return generic.Entry{}, generic.Invalid("amount", "must be at least 0.01")
	}

	var (
		entry generic.Entry
		r     Reservation
	)
	err := e.tx(ctx, "record movement", func(st Store) error {
		var err error
		r, err = scopedReservation(ctx, st, a, id, true)
		if err != nil {
			return err
		}
		if r.State.Terminal() {
			return generic.Conflict(map[string]any{"state": r.State},
				"reservation %s is %s and no longer accepts movements", r.Folio, r.State)
		}
		description := m.Description
		if m.ConceptID != nil {
			c, err := st.Concept(ctx, *m.ConceptID)
			if generic.IsNotFound(err) {
				return generic.Invalid("concept_id", "unknown concept %d", *m.ConceptID)
			}
			if err != nil {
				return err
			}
			if description == "" {
				description = c.Name
			}
		}
		if description == "" {
			description = map[generic.EntryKind]string{generic.KindCharge: "Charge", generic.KindPayment: "Payment"}[m.Kind]
		}
		method := m.Method
		if m.Kind == generic.KindPayment && method == "" {
			method = r.PaymentMethod
		}
		entry, err = e.ledger(st).Append(ctx, generic.Entry{
			ReservationID: r.ID,
			Kind:          m.Kind,
			ConceptID:     m.ConceptID,
			Origin:        generic.OriginManual,
			Description:   description,
			Amount:        m.Amount,
			Method:        method,
			CreatedBy:     a.UserID,
			Note:          m.Note,
		})
		return err
	})
	if err != nil {
		return generic.Entry{}, err
	}

	observability.ObserveLedger(entry.Kind, entry.Origin)
	e.log.Info().Str("folio", r.Folio).Str("kind", string(entry.Kind)).
		Str("amount", entry.Amount.StringFixed(2)).Msg("ledger entry recorded")
	e.emit(ctx, Event{
		Type: EventLedgerEntryRecorded, HotelID: r.HotelID, ReservationID: r.ID, Folio: r.Folio, ActorID: a.UserID,
		Data: map[string]any{"entry_id": entry.ID, "kind": entry.Kind, "amount": entry.Amount.StringFixed(2), "method": entry.Method},
	})
	return entry, nil
}

// Movements returns a reservation's ledger history and totals.
func (e *Engine) Movements(ctx context.Context, a Actor, id generic.ReservationID) ([]generic.Entry, generic.Summary, error) {
	r, err := scopedReservation(ctx, e.store, a, id, false)
	if err != nil {
		return nil, generic.Summary{}, generic.Storage("load reservation", err)
	}
	entries, err := e.ledger(e.store).Entries(ctx, r.ID)
	if err != nil {
		return nil, generic.Summary{}, generic.Storage("load movements", err)
	}
	return entries, generic.Summarize(entries), nil
}

// =============================================================================
// READS
// =============================================================================

// Reservation returns a reservation with its room and ledger totals.
func (e *Engine) Reservation(ctx context.Context, a Actor, id generic.ReservationID) (ReservationDetail, error) {
	r, err := scopedReservation(ctx, e.store, a, id, false)
	if err != nil {
		return ReservationDetail{}, generic.Storage("load reservation", err)
	}
	room, err := e.store.Room(ctx, r.RoomID)
	if err != nil {
		return ReservationDetail{}, generic.Storage("load room", err)
	}
	sum, err := e.ledger(e.store).Balance(ctx, r.ID)
	if err != nil {
		return ReservationDetail{}, generic.Storage("load balance", err)
	}
	return ReservationDetail{Reservation: r, Room: room, Summary: sum}, nil
}

// Reservations lists reservations in the actor's scope, newest check-in first.
func (e *Engine) Reservations(ctx context.Context, a Actor, state ReservationState) ([]Reservation, error) {
	rs, err := e.store.ListReservations(ctx, ReservationFilter{HotelID: a.HotelID, State: state, Limit: MaxPageSize})
	if err != nil {
		return nil, generic.Storage("list reservations", err)
	}
	return rs, nil
}

// Concepts lists the charge concept catalog, optionally filtered by code or
// name.
func (e *Engine) Concepts(ctx context.Context, search string) ([]ChargeConcept, error) {
	cs, err := e.store.Concepts(ctx, search)
	if err != nil {
		return nil, generic.Storage("list concepts", err)
	}
	return cs, nil
}

// RoomTypes lists the room types of the actor's hotel through the room-type
// source (cached when configured).
func (e *Engine) RoomTypes(ctx context.Context, a Actor) ([]RoomType, error) {
	if a.HotelID == 0 {
		return nil, generic.Invalid("hotel", "a hotel scope is required")
	}
	rts, err := e.roomTypes.RoomTypes(ctx, a.HotelID)
	if err != nil {
		return nil, generic.Storage("list room types", err)
	}
	return rts, nil
}

// RoomType returns one room type visible to the actor.
func (e *Engine) RoomType(ctx context.Context, a Actor, id generic.RoomTypeID) (RoomType, error) {
	rt, err := e.roomType(ctx, id)
	if err != nil {
		return RoomType{}, err
	}
	if !a.sees(rt.HotelID) {
		return RoomType{}, generic.NotFound("room type", id)
	}
	return rt, nil
}
