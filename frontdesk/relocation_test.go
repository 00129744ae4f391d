package frontdesk_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/frontdesk/frontdesk"
	"github.com/warp/frontdesk/generic"
)

func TestMaintenance_NotEnoughAlternatesChangesNothing(t *testing.T) {
	// GIVEN: two upcoming stays on 101 and a single same-type room free
	d := newDesk(t, "101", "102")
	a := d.book(t, "101", "2025-06-01", "2025-06-03")
	b := d.book(t, "101", "2025-06-05", "2025-06-07")
	suite, err := d.store.SaveRoomType(ctx, frontdesk.RoomType{HotelID: d.hotel.ID, Name: "Suite", AdultsMax: 2})
	require.NoError(t, err)
	d.addRoom(t, "201", suite)

	// WHEN: 101 is sent to maintenance
	_, err = d.engine.SetRoomState(ctx, d.staff, d.rooms["101"].ID, frontdesk.RoomMaintenance)

	// THEN: rejected with both reservations listed
	var ce *generic.ConflictError
	require.ErrorAs(t, err, &ce)
	detail := ce.Detail.(map[string]any)
	listed := detail["affected"].([]frontdesk.AffectedReservation)
	require.Len(t, listed, 2)
	assert.Equal(t, a.Folio, listed[0].Folio)
	assert.Equal(t, b.Folio, listed[1].Folio)
	assert.Equal(t, 1, detail["alternates"])

	// AND: nothing moved
	assert.Equal(t, frontdesk.RoomAvailable, d.roomState(t, "101"))
	assert.Equal(t, d.rooms["101"].ID, d.reservation(t, a.ID).RoomID)
	assert.Equal(t, d.rooms["101"].ID, d.reservation(t, b.ID).RoomID)
	assert.NotContains(t, d.events.types(), frontdesk.EventRoomStateChanged)
}

func TestMaintenance_UnplaceableReservationRollsBack(t *testing.T) {
	// GIVEN: enough alternates by count, but none free for the second stay
	d := newDesk(t, "101", "102", "103")
	a := d.book(t, "101", "2025-06-01", "2025-06-03")
	b := d.book(t, "101", "2025-06-05", "2025-06-07")
	d.book(t, "102", "2025-06-06", "2025-06-07")
	d.book(t, "103", "2025-06-04", "2025-06-06")

	// WHEN
	_, err := d.engine.SetRoomState(ctx, d.staff, d.rooms["101"].ID, frontdesk.RoomMaintenance)

	// THEN: nothing is written, not even the move planned for a
	var ce *generic.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, b.Folio, ce.Detail.(map[string]any)["unplaced"])
	assert.Equal(t, d.rooms["101"].ID, d.reservation(t, a.ID).RoomID)
	assert.Equal(t, frontdesk.RoomAvailable, d.roomState(t, "101"))
}

func TestMaintenance_RelocatesToDistinctFreeRooms(t *testing.T) {
	// GIVEN: 102 is taken on a's dates only
	d := newDesk(t, "101", "102", "103")
	a := d.book(t, "101", "2025-06-01", "2025-06-03")
	b := d.book(t, "101", "2025-06-05", "2025-06-07")
	d.book(t, "102", "2025-06-01", "2025-06-02")

	// WHEN
	change, err := d.engine.SetRoomState(ctx, d.staff, d.rooms["101"].ID, frontdesk.RoomMaintenance)

	// THEN: a goes to 103, b takes the first free room left, 102
	require.NoError(t, err)
	assert.Equal(t, frontdesk.RoomMaintenance, change.Room.State)
	require.Len(t, change.Relocations, 2)
	assert.Equal(t, frontdesk.Relocation{
		ReservationID: a.ID, Folio: a.Folio, FromRoomID: d.rooms["101"].ID, ToRoomID: d.rooms["103"].ID, ToRoomNumber: "103",
	}, change.Relocations[0])
	assert.Equal(t, d.rooms["102"].ID, change.Relocations[1].ToRoomID)
	assert.Equal(t, d.rooms["103"].ID, d.reservation(t, a.ID).RoomID)
	assert.Equal(t, d.rooms["102"].ID, d.reservation(t, b.ID).RoomID)

	// AND: prices and folios are untouched
	assert.Equal(t, a.Folio, d.reservation(t, a.ID).Folio)
	assert.True(t, d.reservation(t, b.ID).Total.Equal(b.Total))

	// AND: 101 no longer takes bookings
	_, err = d.engine.Create(ctx, d.staff, d.request("101", "2025-07-01", "2025-07-02", 2))
	assert.ErrorIs(t, err, generic.ErrConflict)
}

func TestMaintenance_MovesCheckedInGuest(t *testing.T) {
	// GIVEN: a guest in 101
	d := newDesk(t, "101", "102")
	r := d.book(t, "101", "2025-05-01", "2025-05-04")
	_, err := d.engine.CheckIn(ctx, d.staff, r.ID)
	require.NoError(t, err)

	// WHEN
	change, err := d.engine.SetRoomState(ctx, d.staff, d.rooms["101"].ID, frontdesk.RoomMaintenance)

	// THEN: the occupancy follows the guest
	require.NoError(t, err)
	require.Len(t, change.Relocations, 1)
	assert.Equal(t, frontdesk.RoomMaintenance, d.roomState(t, "101"))
	assert.Equal(t, frontdesk.RoomOccupied, d.roomState(t, "102"))
	assert.Equal(t, frontdesk.StateInProgress, d.reservation(t, r.ID).State)

	// AND: back to available, 101 has nobody in it
	change, err = d.engine.SetRoomState(ctx, d.staff, d.rooms["101"].ID, frontdesk.RoomAvailable)
	require.NoError(t, err)
	assert.Equal(t, frontdesk.RoomAvailable, change.Room.State)
}

func TestMaintenance_IncludesStaysEndingTodayOrLater(t *testing.T) {
	d := newDesk(t, "101", "102")
	// finalizada, check_out tomorrow: still counted
	r := d.book(t, "101", "2025-05-01", "2025-05-02")
	d.pay(t, r.ID, "1160", generic.MethodCash)
	_, err := d.engine.CheckOut(ctx, d.staff, r.ID)
	require.NoError(t, err)
	// cancelada: never counted
	c := d.book(t, "101", "2025-06-01", "2025-06-02")
	_, err = d.engine.Cancel(ctx, d.staff, c.ID, "")
	require.NoError(t, err)

	change, err := d.engine.SetRoomState(ctx, d.staff, d.rooms["101"].ID, frontdesk.RoomMaintenance)

	require.NoError(t, err)
	require.Len(t, change.Relocations, 1)
	assert.Equal(t, r.ID, change.Relocations[0].ReservationID)
	assert.Equal(t, d.rooms["101"].ID, d.reservation(t, c.ID).RoomID)
}

func TestSetRoomState_Rules(t *testing.T) {
	d := newDesk(t, "101")
	r := d.book(t, "101", "2025-06-01", "2025-06-02")

	for _, s := range []frontdesk.RoomState{frontdesk.RoomOccupied, frontdesk.RoomBlocked, frontdesk.RoomOutOfService} {
		_, err := d.engine.SetRoomState(ctx, d.staff, d.rooms["101"].ID, s)
		var ve *generic.ValidationError
		require.ErrorAs(t, err, &ve, "state %s", s)
		assert.Equal(t, "state", ve.Field)
	}

	// inactive does not relocate
	change, err := d.engine.SetRoomState(ctx, d.staff, d.rooms["101"].ID, frontdesk.RoomInactive)
	require.NoError(t, err)
	assert.Empty(t, change.Relocations)
	assert.Equal(t, frontdesk.RoomInactive, change.Room.State)
	assert.Equal(t, d.rooms["101"].ID, d.reservation(t, r.ID).RoomID)

	_, err = d.engine.SetRoomState(ctx, d.staff, 999, frontdesk.RoomAvailable)
	assert.ErrorIs(t, err, generic.ErrNotFound)
	_, err = d.engine.SetRoomState(ctx, frontdesk.Actor{UserID: 1, HotelID: d.hotel.ID + 1}, d.rooms["101"].ID, frontdesk.RoomAvailable)
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestRelocate_KeepsRoomState(t *testing.T) {
	// GIVEN: 101 with an upcoming stay and a guest checked in
	d := newDesk(t, "101", "102", "103")
	in := d.book(t, "101", "2025-05-01", "2025-05-03")
	later := d.book(t, "101", "2025-06-01", "2025-06-03")
	_, err := d.engine.CheckIn(ctx, d.staff, in.ID)
	require.NoError(t, err)

	// WHEN
	change, err := d.engine.Relocate(ctx, d.staff, d.rooms["101"].ID)

	// THEN: both moved, 101 is free but not pinned, and the guest's new room is occupied
	require.NoError(t, err)
	require.Len(t, change.Relocations, 2)
	assert.Equal(t, frontdesk.RoomAvailable, change.Room.State)
	assert.Equal(t, d.rooms["102"].ID, d.reservation(t, in.ID).RoomID)
	assert.Equal(t, d.rooms["103"].ID, d.reservation(t, later.ID).RoomID)
	assert.Equal(t, frontdesk.RoomOccupied, d.roomState(t, "102"))
	assert.Equal(t, frontdesk.RoomAvailable, d.roomState(t, "103"))
	assert.Equal(t, frontdesk.EventRoomRelocated, d.events.types()[len(d.events.types())-1])

	// AND: the ledger was not touched by the move
	_, sum, err := d.engine.Movements(ctx, d.staff, later.ID)
	require.NoError(t, err)
	assert.True(t, sum.Charges.Equal(decimal.RequireFromString("2320")))
}

func TestRelocate_NothingToMove(t *testing.T) {
	d := newDesk(t, "101")
	change, err := d.engine.Relocate(ctx, d.staff, d.rooms["101"].ID)
	require.NoError(t, err)
	assert.Empty(t, change.Relocations)
	assert.Equal(t, frontdesk.RoomAvailable, change.Room.State)
}
