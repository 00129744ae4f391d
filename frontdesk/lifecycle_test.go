package frontdesk_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/frontdesk/frontdesk"
	"github.com/warp/frontdesk/generic"
)

// =============================================================================
// STATE MACHINE
// =============================================================================

func TestStateMachine_Closure(t *testing.T) {
	all := []frontdesk.ReservationState{
		frontdesk.StateActive, frontdesk.StateInProgress, frontdesk.StateFinished, frontdesk.StateCancelled,
	}
	allowed := map[[2]frontdesk.ReservationState]bool{
		{frontdesk.StateActive, frontdesk.StateInProgress}:   true,
		{frontdesk.StateActive, frontdesk.StateFinished}:     true,
		{frontdesk.StateActive, frontdesk.StateCancelled}:    true,
		{frontdesk.StateInProgress, frontdesk.StateFinished}: true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]frontdesk.ReservationState{from, to}], from.CanTransition(to), "%s -> %s", from, to)
		}
	}
	assert.True(t, frontdesk.StateFinished.Terminal())
	assert.True(t, frontdesk.StateCancelled.Terminal())
	assert.False(t, frontdesk.StateInProgress.Terminal())
}

func TestLifecycle_HappyPath(t *testing.T) {
	// GIVEN: a booked stay
	d := newDesk(t, "101")
	r := d.book(t, "101", "2025-06-01", "2025-06-03")
	assert.Equal(t, frontdesk.StateActive, r.State)
	assert.Equal(t, frontdesk.RoomAvailable, d.roomState(t, "101"))

	// WHEN: checked in
	r, err := d.engine.CheckIn(ctx, d.staff, r.ID)

	// THEN: en_curso and the room is occupied
	require.NoError(t, err)
	assert.Equal(t, frontdesk.StateInProgress, r.State)
	assert.Equal(t, frontdesk.RoomOccupied, d.roomState(t, "101"))

	// WHEN: paid and checked out
	d.pay(t, r.ID, "2320", generic.MethodCard)
	co, err := d.engine.CheckOut(ctx, d.staff, r.ID)

	// THEN: finalizada and the room is free again
	require.NoError(t, err)
	assert.Equal(t, frontdesk.StateFinished, co.Reservation.State)
	assert.True(t, co.Summary.Balance.IsZero())
	assert.Equal(t, frontdesk.RoomAvailable, d.roomState(t, "101"))

	// AND: every transition left an audit entry and an event
	entries, _, err := d.engine.Movements(ctx, d.staff, r.ID)
	require.NoError(t, err)
	var origins []generic.EntryOrigin
	for _, e := range entries {
		origins = append(origins, e.Origin)
	}
	assert.Equal(t, []generic.EntryOrigin{
		generic.OriginRent, generic.OriginCheckIn, generic.OriginManual, generic.OriginCheckOut,
	}, origins)
	assert.Equal(t, []frontdesk.EventType{
		frontdesk.EventReservationCreated, frontdesk.EventReservationCheckedIn,
		frontdesk.EventLedgerEntryRecorded, frontdesk.EventReservationCheckedOut,
	}, d.events.types())
}

func TestCheckOut_PendingBalance(t *testing.T) {
	// GIVEN: one night charged at 1160.00
	d := newDesk(t, "101")
	r := d.book(t, "101", "2025-06-01", "2025-06-02")

	// WHEN: nothing has been paid
	_, err := d.engine.CheckOut(ctx, d.staff, r.ID)

	// THEN: rejected with the balance, and nothing changed
	var ce *generic.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "-1160.00", ce.Detail.(map[string]string)["balance"])
	assert.Equal(t, frontdesk.StateActive, d.reservation(t, r.ID).State)

	// WHEN: a partial payment leaves 0.01 owing
	d.pay(t, r.ID, "1159.99", generic.MethodCash)
	_, err = d.engine.CheckOut(ctx, d.staff, r.ID)
	assert.ErrorIs(t, err, generic.ErrConflict)

	// WHEN: the last cent is paid
	d.pay(t, r.ID, "0.01", generic.MethodCash)
	co, err := d.engine.CheckOut(ctx, d.staff, r.ID)

	// THEN: checkout succeeds with balance zero
	require.NoError(t, err)
	assert.Equal(t, "0.00", co.Summary.Balance.StringFixed(2))
}

func TestCheckOut_CreditBalanceIsAllowed(t *testing.T) {
	d := newDesk(t, "101")
	r := d.book(t, "101", "2025-06-01", "2025-06-02")
	d.pay(t, r.ID, "1500", generic.MethodCash)

	co, err := d.engine.CheckOut(ctx, d.staff, r.ID)

	require.NoError(t, err)
	assert.Equal(t, "340.00", co.Summary.Balance.StringFixed(2))
}

func TestCancel_Rules(t *testing.T) {
	d := newDesk(t, "101", "102")

	// activa -> cancelada, with the reason on the audit entry
	r := d.book(t, "101", "2025-06-01", "2025-06-03")
	c, err := d.engine.Cancel(ctx, d.staff, r.ID, "guest called")
	require.NoError(t, err)
	assert.Equal(t, frontdesk.StateCancelled, c.State)
	entries, _, err := d.engine.Movements(ctx, d.staff, r.ID)
	require.NoError(t, err)
	last := entries[len(entries)-1]
	assert.Equal(t, generic.OriginCancellation, last.Origin)
	assert.Equal(t, "guest called", last.Note)

	// cancelada is terminal
	_, err = d.engine.Cancel(ctx, d.staff, r.ID, "")
	assert.ErrorIs(t, err, generic.ErrConflict)
	_, err = d.engine.CheckIn(ctx, d.staff, r.ID)
	assert.ErrorIs(t, err, generic.ErrConflict)

	// en_curso cannot be cancelled
	s := d.book(t, "102", "2025-06-01", "2025-06-03")
	_, err = d.engine.CheckIn(ctx, d.staff, s.ID)
	require.NoError(t, err)
	_, err = d.engine.Cancel(ctx, d.staff, s.ID, "")
	assert.ErrorIs(t, err, generic.ErrConflict)
	assert.Equal(t, frontdesk.StateInProgress, d.reservation(t, s.ID).State)
	assert.Equal(t, frontdesk.RoomOccupied, d.roomState(t, "102"))
}

func TestCheckIn_RoomMustBeFree(t *testing.T) {
	// GIVEN: A is in the room, B arrives the day A leaves
	d := newDesk(t, "101")
	a := d.book(t, "101", "2025-06-01", "2025-06-03")
	b := d.book(t, "101", "2025-06-03", "2025-06-05")
	_, err := d.engine.CheckIn(ctx, d.staff, a.ID)
	require.NoError(t, err)

	// WHEN: B checks in before A checks out
	_, err = d.engine.CheckIn(ctx, d.staff, b.ID)

	// THEN: refused until A leaves
	assert.ErrorIs(t, err, generic.ErrConflict)
	d.pay(t, a.ID, "2320", generic.MethodCash)
	_, err = d.engine.CheckOut(ctx, d.staff, a.ID)
	require.NoError(t, err)
	_, err = d.engine.CheckIn(ctx, d.staff, b.ID)
	assert.NoError(t, err)
}

func TestCheckIn_PinnedRoomRefused(t *testing.T) {
	d := newDesk(t, "101")
	r := d.book(t, "101", "2025-06-01", "2025-06-03")
	require.NoError(t, d.store.SetRoomState(ctx, d.rooms["101"].ID, frontdesk.RoomBlocked))

	_, err := d.engine.CheckIn(ctx, d.staff, r.ID)

	assert.ErrorIs(t, err, generic.ErrConflict)
	assert.Equal(t, frontdesk.RoomBlocked, d.roomState(t, "101"), "pinned state untouched")
}

// =============================================================================
// CREATE / EDIT
// =============================================================================

func TestCreate_Validation(t *testing.T) {
	d := newDesk(t, "101")
	tests := []struct {
		name  string
		edit  func(*frontdesk.BookingRequest)
		field string
	}{
		{"missing first name", func(r *frontdesk.BookingRequest) { r.Guest.FirstName = "  " }, "guest_first_name"},
		{"missing surname", func(r *frontdesk.BookingRequest) { r.Guest.LastName1 = "" }, "guest_last_name"},
		{"missing room", func(r *frontdesk.BookingRequest) { r.RoomID = 0 }, "room_id"},
		{"same-day stay", func(r *frontdesk.BookingRequest) { r.CheckOut = r.CheckIn }, "check_out"},
		{"in the past", func(r *frontdesk.BookingRequest) {
			r.CheckIn, r.CheckOut = date("2025-04-28"), date("2025-04-30")
		}, "check_in"},
		{"over capacity", func(r *frontdesk.BookingRequest) { r.Occupancy.Adults = 4 }, "adults"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := d.request("101", "2025-06-01", "2025-06-03", 2)
			tt.edit(&req)
			_, err := d.engine.Create(ctx, d.staff, req)
			var ve *generic.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	list, err := d.engine.Reservations(ctx, d.staff, "")
	require.NoError(t, err)
	assert.Empty(t, list, "nothing was written")
}

func TestCreate_CheckInTodayAllowed(t *testing.T) {
	d := newDesk(t, "101")
	r := d.book(t, "101", "2025-05-01", "2025-05-02")
	assert.Equal(t, "COAS0001", r.Folio)
}

func TestCreate_RoomNotBookable(t *testing.T) {
	d := newDesk(t, "101")
	_, err := d.engine.SetRoomState(ctx, d.staff, d.rooms["101"].ID, frontdesk.RoomMaintenance)
	require.NoError(t, err)

	_, err = d.engine.Create(ctx, d.staff, d.request("101", "2025-06-01", "2025-06-03", 2))

	assert.ErrorIs(t, err, generic.ErrConflict)
}

func TestCreate_FolioContinuesFromExistingRows(t *testing.T) {
	// GIVEN: folios already issued by an earlier system
	d := newDesk(t, "101")
	_, err := d.store.InsertReservation(ctx, frontdesk.Reservation{
		HotelID: d.hotel.ID, RoomID: d.rooms["101"].ID, Folio: "COAS0041",
		Guest: frontdesk.Guest{FirstName: "Old", LastName1: "Guest"}, CheckIn: date("2024-01-01"), CheckOut: date("2024-01-02"),
		Adults: 1, NightlyRate: decimal.NewFromInt(1000), Total: decimal.NewFromInt(1160),
		PaymentMethod: generic.MethodCash, State: frontdesk.StateFinished, CreatedBy: 1,
		CreatedAt: start, UpdatedAt: start,
	})
	require.NoError(t, err)

	// WHEN: a new booking is made
	r := d.book(t, "101", "2025-06-01", "2025-06-02")

	// THEN: numbering continues
	assert.Equal(t, "COAS0042", r.Folio)
	assert.Equal(t, "COAS12345", frontdesk.FormatFolio("COAS", 12345))
}

func TestEdit_AdjustsRentWithoutRewritingLedger(t *testing.T) {
	// GIVEN: 2 nights (2320.00) on 101
	d := newDesk(t, "101", "102")
	r := d.book(t, "101", "2025-06-01", "2025-06-03")

	// WHEN: shortened to one night and moved to 102
	req := d.request("102", "2025-06-01", "2025-06-02", 2)
	b, err := d.engine.Edit(ctx, d.staff, r.ID, req)

	// THEN: same folio, new room, and a negative adjustment brings rent to the new total
	require.NoError(t, err)
	assert.Equal(t, r.Folio, b.Reservation.Folio)
	assert.Equal(t, d.rooms["102"].ID, b.Reservation.RoomID)
	assert.Equal(t, "1160.00", b.Reservation.Total.StringFixed(2))
	assert.Equal(t, "1160.00", b.Summary.Rent.StringFixed(2))

	entries, _, err := d.engine.Movements(ctx, d.staff, r.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2320.00", entries[0].Amount.StringFixed(2), "original rent untouched")
	assert.Equal(t, "-1160.00", entries[1].Amount.StringFixed(2))

	// AND: an edit that keeps the price adds no entry
	_, err = d.engine.Edit(ctx, d.staff, r.ID, req)
	require.NoError(t, err)
	entries, _, err = d.engine.Movements(ctx, d.staff, r.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestEdit_CheckedInGuestCannotMoveIntoOccupiedRoom(t *testing.T) {
	// GIVEN: A in 101 and B in 102, B leaving the day after tomorrow
	d := newDesk(t, "101", "102")
	a := d.book(t, "101", "2025-05-01", "2025-05-05")
	b := d.book(t, "102", "2025-05-01", "2025-05-02")
	for _, r := range []frontdesk.Reservation{a, b} {
		_, err := d.engine.CheckIn(ctx, d.staff, r.ID)
		require.NoError(t, err)
	}

	// WHEN: A is moved to 102 for dates that only touch B's stay
	_, err := d.engine.Edit(ctx, d.staff, a.ID, d.request("102", "2025-05-02", "2025-05-05", 2))

	// THEN: refused while B is still in the room, and nothing moved
	assert.ErrorIs(t, err, generic.ErrConflict)
	assert.Equal(t, d.rooms["101"].ID, d.reservation(t, a.ID).RoomID)
	assert.Equal(t, frontdesk.RoomOccupied, d.roomState(t, "101"))

	// WHEN: B checks out
	d.pay(t, b.ID, "1160", generic.MethodCash)
	_, err = d.engine.CheckOut(ctx, d.staff, b.ID)
	require.NoError(t, err)
	_, err = d.engine.Edit(ctx, d.staff, a.ID, d.request("102", "2025-05-02", "2025-05-05", 2))

	// THEN: the move goes through and occupancy follows A
	require.NoError(t, err)
	assert.Equal(t, frontdesk.RoomAvailable, d.roomState(t, "101"))
	assert.Equal(t, frontdesk.RoomOccupied, d.roomState(t, "102"))
}

func TestEdit_ConflictsAndTerminalStates(t *testing.T) {
	d := newDesk(t, "101")
	a := d.book(t, "101", "2025-06-01", "2025-06-03")
	b := d.book(t, "101", "2025-06-05", "2025-06-07")

	// Extending b into a's nights conflicts; a itself can be edited in place.
	_, err := d.engine.Edit(ctx, d.staff, b.ID, d.request("101", "2025-06-02", "2025-06-07", 2))
	assert.ErrorIs(t, err, generic.ErrConflict)
	_, err = d.engine.Edit(ctx, d.staff, a.ID, d.request("101", "2025-06-01", "2025-06-04", 2))
	assert.NoError(t, err)

	_, err = d.engine.Cancel(ctx, d.staff, b.ID, "")
	require.NoError(t, err)
	_, err = d.engine.Edit(ctx, d.staff, b.ID, d.request("101", "2025-06-05", "2025-06-06", 2))
	assert.ErrorIs(t, err, generic.ErrConflict)
}

// =============================================================================
// MOVEMENTS
// =============================================================================

func TestRecordMovement_Rules(t *testing.T) {
	d := newDesk(t, "101")
	r := d.book(t, "101", "2025-06-01", "2025-06-02")
	_, err := d.engine.Edit(ctx, d.staff, r.ID, frontdesk.BookingRequest{
		Guest: r.Guest, CheckIn: r.CheckIn, CheckOut: r.CheckOut,
		Occupancy: frontdesk.Occupancy{Adults: 2}, PaymentMethod: generic.MethodCard,
	})
	require.NoError(t, err)

	// A payment without a method takes the reservation's method.
	e := d.pay(t, r.ID, "100", "")
	assert.Equal(t, generic.MethodCard, e.Method)
	assert.Equal(t, "MXN", e.Currency)

	_, err = d.engine.RecordMovement(ctx, d.staff, r.ID, frontdesk.MovementRequest{Kind: generic.KindCharge, Amount: decimal.Zero})
	assert.ErrorIs(t, err, generic.ErrValidation)

	// Amounts that round to 0.00 are rejected.
	_, err = d.engine.RecordMovement(ctx, d.staff, r.ID, frontdesk.MovementRequest{Kind: generic.KindPayment, Amount: decimal.RequireFromString("0.001")})
	assert.ErrorIs(t, err, generic.ErrValidation)

	_, err = d.engine.RecordMovement(ctx, d.staff, 999, frontdesk.MovementRequest{Kind: generic.KindCharge, Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, generic.ErrNotFound)

	_, err = d.engine.Cancel(ctx, d.staff, r.ID, "")
	require.NoError(t, err)
	_, err = d.engine.RecordMovement(ctx, d.staff, r.ID, frontdesk.MovementRequest{Kind: generic.KindCharge, Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, generic.ErrConflict)
}

// Balance equals payments minus charges after any sequence of movements.
func TestBalance_Identity(t *testing.T) {
	d := newDesk(t, "101")
	r := d.book(t, "101", "2025-06-01", "2025-06-02")
	charges, payments := decimal.RequireFromString("1160"), decimal.Zero

	for i, amount := range []string{"10.10", "250", "0.01", "999.99", "42"} {
		kind := generic.KindCharge
		if i%2 == 1 {
			kind = generic.KindPayment
		}
		_, err := d.engine.RecordMovement(ctx, d.staff, r.ID, frontdesk.MovementRequest{
			Kind: kind, Amount: decimal.RequireFromString(amount), Method: generic.MethodCash,
		})
		require.NoError(t, err)
		if kind == generic.KindCharge {
			charges = charges.Add(decimal.RequireFromString(amount))
		} else {
			payments = payments.Add(decimal.RequireFromString(amount))
		}

		_, sum, err := d.engine.Movements(ctx, d.staff, r.ID)
		require.NoError(t, err)
		assert.True(t, sum.Charges.Equal(charges))
		assert.True(t, sum.Payments.Equal(payments))
		assert.True(t, sum.Balance.Equal(payments.Sub(charges)))
	}
}

func TestReservations_ScopeAndState(t *testing.T) {
	d := newDesk(t, "101", "102")
	a := d.book(t, "101", "2025-06-01", "2025-06-02")
	d.book(t, "102", "2025-06-01", "2025-06-02")
	_, err := d.engine.Cancel(ctx, d.staff, a.ID, "")
	require.NoError(t, err)

	all, err := d.engine.Reservations(ctx, d.staff, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	cancelled, err := d.engine.Reservations(ctx, d.staff, frontdesk.StateCancelled)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, a.ID, cancelled[0].ID)

	other, err := d.engine.Reservations(ctx, frontdesk.Actor{UserID: 1, HotelID: d.hotel.ID + 1}, "")
	require.NoError(t, err)
	assert.Empty(t, other)

	_, err = d.engine.Reservation(ctx, frontdesk.Actor{UserID: 1, HotelID: d.hotel.ID + 1}, a.ID)
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestEngine_TimestampsAreUTCMicroseconds(t *testing.T) {
	d := newDesk(t, "101")
	d.clock.advance(123456789 * time.Nanosecond)
	r := d.book(t, "101", "2025-06-01", "2025-06-02")
	assert.Equal(t, time.UTC, r.CreatedAt.Location())
	assert.Zero(t, r.CreatedAt.Nanosecond()%1000)
	assert.True(t, d.reservation(t, r.ID).CreatedAt.Equal(r.CreatedAt))
}
