package frontdesk

import (
	"context"
	"time"

	"github.com/warp/frontdesk/generic"
)

// Availability is the answer to "can this room take this stay?".
type Availability struct {
	Conflict bool
	// Folio of the first overlapping blocking reservation, if any.
	Folio string
	ID    generic.ReservationID
}

// checkAvailability scans the room's blocking reservations for an overlap
// with stay, skipping exclude (the reservation being edited).
func checkAvailability(ctx context.Context, st Store, room generic.RoomID, stay generic.Stay, exclude generic.ReservationID) (Availability, error) {
	other, err := st.ConflictingReservation(ctx, room, stay, exclude)
	if err != nil {
		return Availability{}, err
	}
	if other == nil {
		return Availability{}, nil
	}
	return Availability{Conflict: true, Folio: other.Folio, ID: other.ID}, nil
}

func conflictError(room Room, av Availability) error {
	return generic.Conflict(map[string]any{"folio": av.Folio, "reservation_id": av.ID},
		"room %s is already reserved in that date range (folio %s)", room.Number, av.Folio)
}

// HasConflict reports whether any activa/en_curso reservation on room
// overlaps [checkIn, checkOut). A free room is not an error.
func (e *Engine) HasConflict(ctx context.Context, a Actor, room generic.RoomID, checkIn, checkOut time.Time, exclude generic.ReservationID) (Availability, error) {
	stay, err := generic.NewStay(checkIn, checkOut)
	if err != nil {
		return Availability{}, err
	}
	if _, err := scopedRoom(ctx, e.store, a, room, false); err != nil {
		return Availability{}, generic.Storage("load room", err)
	}
	av, err := checkAvailability(ctx, e.store, room, stay, exclude)
	if err != nil {
		return Availability{}, generic.Storage("check availability", err)
	}
	return av, nil
}

// FreeRooms lists bookable rooms of the actor's hotel with no overlapping
// blocking reservation.
func (e *Engine) FreeRooms(ctx context.Context, a Actor, checkIn, checkOut time.Time) ([]Room, error) {
	if a.HotelID == 0 {
		return nil, generic.Invalid("hotel", "a hotel scope is required")
	}
	stay, err := generic.NewStay(checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	rooms, err := e.store.FreeRooms(ctx, a.HotelID, stay)
	if err != nil {
		return nil, generic.Storage("list free rooms", err)
	}
	return rooms, nil
}
