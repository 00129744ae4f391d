package frontdesk

import (
	"context"
	"time"

	"github.com/warp/frontdesk/generic"
)

type EventType string

const (
	EventReservationCreated    EventType = "reservation.created"
	EventReservationUpdated    EventType = "reservation.updated"
	EventReservationCheckedIn  EventType = "reservation.checked_in"
	EventReservationCheckedOut EventType = "reservation.checked_out"
	EventReservationCancelled  EventType = "reservation.cancelled"
	EventLedgerEntryRecorded   EventType = "ledger.entry_recorded"
	EventDrawerOpened          EventType = "drawer.opened"
	EventDrawerClosed          EventType = "drawer.closed"
	EventRoomStateChanged      EventType = "room.state_changed"
	EventRoomRelocated         EventType = "room.relocated"
)

// Event is published after the transaction that caused it commits.
type Event struct {
	Type          EventType
	HotelID       generic.HotelID
	ReservationID generic.ReservationID
	Folio         string
	ActorID       generic.UserID
	OccurredAt    time.Time
	Data          map[string]any
}

// Publisher delivers events to downstream consumers (reporting, housekeeping).
// Delivery is best effort: a failed publish is logged and never undoes the
// committed operation.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// RoomTypeSource supplies room types for pricing. The store satisfies it;
// the redis cache decorates it.
type RoomTypeSource interface {
	RoomType(ctx context.Context, id generic.RoomTypeID) (RoomType, error)
	RoomTypes(ctx context.Context, hotel generic.HotelID) ([]RoomType, error)
}
