/*
store.go - Persistence interface for the front-desk engine

PURPOSE:
  One interface over rooms, reservations, the ledger, the folio counter and
  drawer sessions. Operations that read then write run inside
  TxStore.WithTx and receive a Store bound to that transaction, so every
  read that validates a write sees the same snapshot the write commits to.

LOCKING:
  The *ForUpdate reads take a row lock where the backend supports it
  (MySQL SELECT ... FOR UPDATE). SQLite transactions are opened IMMEDIATE,
  which already serializes writers, so the lock clause is omitted there.

QUERY VARIANTS:
  Filtered reads (reservation lists, affected reservations, drawer history)
  choose among a fixed set of parameterized statements by filter shape.
  No SQL is assembled from request input.

SEE ALSO:
  - store/sqldb: SQLite and MySQL implementation
*/
package frontdesk

import (
	"context"
	"time"

	"github.com/warp/frontdesk/generic"
)

// Store is the full engine store. All reads return a *generic.NotFoundError
// for unknown ids.
type Store interface {
	generic.LedgerStore

	Hotel(ctx context.Context, id generic.HotelID) (Hotel, error)
	RoomType(ctx context.Context, id generic.RoomTypeID) (RoomType, error)
	RoomTypes(ctx context.Context, hotel generic.HotelID) ([]RoomType, error)

	Room(ctx context.Context, id generic.RoomID) (Room, error)
	RoomForUpdate(ctx context.Context, id generic.RoomID) (Room, error)
	SetRoomState(ctx context.Context, id generic.RoomID, state RoomState) error
	// AlternateRooms returns rooms of the same hotel and type as room, in
	// state available, excluding room itself, by ascending room number.
	AlternateRooms(ctx context.Context, room Room) ([]Room, error)
	// FreeRooms returns bookable rooms of the hotel with no blocking
	// reservation overlapping stay, by ascending room number.
	FreeRooms(ctx context.Context, hotel generic.HotelID, stay generic.Stay) ([]Room, error)

	Reservation(ctx context.Context, id generic.ReservationID) (Reservation, error)
	ReservationForUpdate(ctx context.Context, id generic.ReservationID) (Reservation, error)
	InsertReservation(ctx context.Context, r Reservation) (Reservation, error)
	UpdateReservation(ctx context.Context, r Reservation) error
	// ConflictingReservation returns the first blocking reservation on room
	// overlapping stay, ignoring exclude. Nil when there is none.
	ConflictingReservation(ctx context.Context, room generic.RoomID, stay generic.Stay, exclude generic.ReservationID) (*Reservation, error)
	// CountInProgress counts en_curso reservations on a room.
	CountInProgress(ctx context.Context, room generic.RoomID) (int, error)
	// AffectedReservations returns reservations on room that must move when
	// it is vacated, ordered by check-in.
	AffectedReservations(ctx context.Context, room generic.RoomID, scope AffectedScope, today time.Time) ([]Reservation, error)
	ListReservations(ctx context.Context, f ReservationFilter) ([]Reservation, error)

	// NextFolioSeq advances and returns the hotel's folio counter.
	NextFolioSeq(ctx context.Context, hotel generic.HotelID) (int, error)

	Concept(ctx context.Context, id generic.ConceptID) (ChargeConcept, error)
	Concepts(ctx context.Context, search string) ([]ChargeConcept, error)

	OpenDrawerSession(ctx context.Context, cashier generic.UserID, hotel generic.HotelID) (*DrawerSession, error)
	OpenDrawerSessionForUpdate(ctx context.Context, cashier generic.UserID, hotel generic.HotelID) (*DrawerSession, error)
	InsertDrawerSession(ctx context.Context, s DrawerSession) (DrawerSession, error)
	CloseDrawerSession(ctx context.Context, s DrawerSession) error
	DrawerSession(ctx context.Context, id generic.SessionID) (DrawerSession, error)
	DrawerSessions(ctx context.Context, f DrawerFilter) ([]DrawerSession, error)
	// Payments returns payment entries created by cashier for reservations of
	// hotel in [From, To), oldest first, at most Limit rows.
	Payments(ctx context.Context, f PaymentFilter) ([]generic.Entry, error)
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx runs fn in one transaction. A non-nil error from fn rolls back
	// every write fn performed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// FILTERS
// =============================================================================

// AffectedScope selects which reservations count as occupying a room.
type AffectedScope int

const (
	// ScopeMaintenance: activa, en_curso and finalizada with check_out >= today.
	ScopeMaintenance AffectedScope = iota
	// ScopeRelocate: activa and en_curso.
	ScopeRelocate
)

// ReservationFilter selects a reservation list. A zero HotelID means every
// hotel (chain scope); an empty State means every state.
type ReservationFilter struct {
	HotelID generic.HotelID
	State   ReservationState
	Limit   int
}

// DrawerFilter selects drawer history. Zero fields are unfiltered; From and
// To bound opened_at as [From, To).
type DrawerFilter struct {
	HotelID   generic.HotelID
	CashierID generic.UserID
	From      time.Time
	To        time.Time
	Limit     int
}

type PaymentFilter struct {
	CashierID generic.UserID
	HotelID   generic.HotelID
	From      time.Time
	To        time.Time
	Limit     int
}

// MaxPageSize bounds list and drawer-detail reads.
const MaxPageSize = 500
