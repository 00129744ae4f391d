/*
reservation.go - Reservation aggregate and its state machine

STATES:
  activa     booked, not yet occupying the room
  en_curso   checked in
  finalizada checked out (terminal)
  cancelada  cancelled (terminal)

TRANSITIONS:
  activa   -> en_curso    check-in
  activa   -> finalizada  check-out (no-show settled)
  en_curso -> finalizada  check-out
  activa   -> cancelada   cancel

  en_curso has no cancel path. Nothing leaves finalizada or cancelada.

SEE ALSO:
  - lifecycle.go: The operations that drive these transitions
*/
package frontdesk

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/frontdesk/generic"
)

type ReservationState string

const (
	StateActive     ReservationState = "activa"
	StateInProgress ReservationState = "en_curso"
	StateFinished   ReservationState = "finalizada"
	StateCancelled  ReservationState = "cancelada"
)

var transitions = map[ReservationState][]ReservationState{
	StateActive:     {StateInProgress, StateFinished, StateCancelled},
	StateInProgress: {StateFinished},
}

// CanTransition reports whether s -> to is a defined transition.
func (s ReservationState) CanTransition(to ReservationState) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s ReservationState) Terminal() bool { return len(transitions[s]) == 0 }

// Blocking reports whether a reservation in s holds its room against
// overlapping bookings.
func (s ReservationState) Blocking() bool {
	return s == StateActive || s == StateInProgress
}

func ParseReservationState(s string) (ReservationState, error) {
	switch st := ReservationState(s); st {
	case StateActive, StateInProgress, StateFinished, StateCancelled:
		return st, nil
	}
	return "", generic.Invalid("state", "unknown reservation state %q", s)
}

// Guest is the name on the reservation: a first name and two surnames.
type Guest struct {
	FirstName string
	LastName1 string
	LastName2 string
}

func (g Guest) normalized() Guest {
	return Guest{
		FirstName: strings.TrimSpace(g.FirstName),
		LastName1: strings.TrimSpace(g.LastName1),
		LastName2: strings.TrimSpace(g.LastName2),
	}
}

func (g Guest) validate() error {
	if g.FirstName == "" {
		return generic.Invalid("guest_first_name", "is required")
	}
	if g.LastName1 == "" {
		return generic.Invalid("guest_last_name", "is required")
	}
	return nil
}

type Reservation struct {
	ID            generic.ReservationID
	HotelID       generic.HotelID
	RoomID        generic.RoomID
	Folio         string
	Guest         Guest
	CheckIn       time.Time
	CheckOut      time.Time
	Adults        int
	Children      int
	ExtraBeds     int
	NightlyRate   decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod generic.PaymentMethod
	State         ReservationState
	CreatedBy     generic.UserID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r Reservation) Stay() generic.Stay {
	return generic.Stay{CheckIn: r.CheckIn, CheckOut: r.CheckOut}
}

// AffectedReservation is the conflict detail reported when a room cannot be
// vacated.
type AffectedReservation struct {
	ID       generic.ReservationID `json:"id"`
	Folio    string                `json:"folio"`
	CheckIn  string                `json:"check_in"`
	CheckOut string                `json:"check_out"`
	State    ReservationState      `json:"state"`
}

func affected(rs []Reservation) []AffectedReservation {
	out := make([]AffectedReservation, len(rs))
	for i, r := range rs {
		out[i] = AffectedReservation{
			ID:       r.ID,
			Folio:    r.Folio,
			CheckIn:  r.CheckIn.Format(generic.DateLayout),
			CheckOut: r.CheckOut.Format(generic.DateLayout),
			State:    r.State,
		}
	}
	return out
}
