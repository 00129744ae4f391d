/*
relocation.go - Moving guests off a room that is leaving service

ALGORITHM (SetRoomState to maintenance):
  1. affected   = reservations on the room in activa / en_curso / finalizada
                  with check_out >= today, by check-in date
  2. none affected -> room becomes maintenance
  3. alternates = same hotel, same type, state available, not the room
                  itself, by ascending room number
  4. len(alternates) < len(affected) -> reject, report affected, change nothing
  5. each affected reservation, in check-in order, takes the first unused
     alternate with no blocking reservation overlapping its stay
  6. room becomes maintenance; alternates that received a checked-in guest
     become occupied

  Steps 1-6 run in one transaction. If any reservation cannot be placed in
  step 5 the whole operation rolls back.

Relocate runs steps 1 and 3-5 for activa / en_curso reservations without
changing the room's state.
*/
package frontdesk

import (
	"context"

	"github.com/warp/frontdesk/generic"
	"github.com/warp/frontdesk/observability"
)

// Relocation is one reservation moved to another room.
type Relocation struct {
	ReservationID generic.ReservationID `json:"reservation_id"`
	Folio         string                `json:"folio"`
	FromRoomID    generic.RoomID        `json:"from_room_id"`
	ToRoomID      generic.RoomID        `json:"to_room_id"`
	ToRoomNumber  string                `json:"to_room_number"`
}

// RoomChange is the result of a room state change or relocation.
type RoomChange struct {
	Room        Room
	Relocations []Relocation
}

// SetRoomState applies an operator-requested physical state. Maintenance
// triggers relocation of the room's reservations.
func (e *Engine) SetRoomState(ctx context.Context, a Actor, id generic.RoomID, state RoomState) (RoomChange, error) {
	if !state.Settable() {
		return RoomChange{}, generic.Invalid("state", "must be available, maintenance or inactive")
	}
	var out RoomChange
	err := e.tx(ctx, "set room state", func(st Store) error {
		room, err := scopedRoom(ctx, st, a, id, true)
		if err != nil {
			return err
		}
		if state == RoomMaintenance {
			out.Relocations, err = e.relocate(ctx, st, room, ScopeMaintenance)
			if err != nil {
				return err
			}
		}
		if err := st.SetRoomState(ctx, room.ID, state); err != nil {
			return err
		}
		if state == RoomAvailable {
			// a checked-in guest keeps the room occupied
			if err := syncRoom(ctx, st, room.ID); err != nil {
				return err
			}
		}
		out.Room, err = st.Room(ctx, room.ID)
		return err
	})
	if err != nil {
		if generic.IsConflict(err) {
			observability.ObserveRelocation("rejected")
		}
		return RoomChange{}, err
	}

	if len(out.Relocations) > 0 {
		observability.ObserveRelocation("relocated")
	}
	e.log.Info().Int64("room_id", int64(id)).Str("state", string(out.Room.State)).
		Int("relocated", len(out.Relocations)).Msg("room state changed")
	e.emit(ctx, Event{Type: EventRoomStateChanged, HotelID: out.Room.HotelID, ActorID: a.UserID, Data: map[string]any{
		"room_id": id, "state": out.Room.State, "relocations": out.Relocations,
	}})
	return out, nil
}

// Relocate moves the room's activa and en_curso reservations to same-type
// alternates without changing the room's own state.
func (e *Engine) Relocate(ctx context.Context, a Actor, id generic.RoomID) (RoomChange, error) {
	var out RoomChange
	err := e.tx(ctx, "relocate", func(st Store) error {
		room, err := scopedRoom(ctx, st, a, id, true)
		if err != nil {
			return err
		}
		out.Relocations, err = e.relocate(ctx, st, room, ScopeRelocate)
		if err != nil {
			return err
		}
		if err := syncRoom(ctx, st, room.ID); err != nil {
			return err
		}
		out.Room, err = st.Room(ctx, room.ID)
		return err
	})
	if err != nil {
		if generic.IsConflict(err) {
			observability.ObserveRelocation("rejected")
		}
		return RoomChange{}, err
	}
	if len(out.Relocations) > 0 {
		observability.ObserveRelocation("relocated")
	}
	e.log.Info().Int64("room_id", int64(id)).Int("relocated", len(out.Relocations)).Msg("reservations relocated")
	e.emit(ctx, Event{Type: EventRoomRelocated, HotelID: out.Room.HotelID, ActorID: a.UserID, Data: map[string]any{
		"room_id": id, "relocations": out.Relocations,
	}})
	return out, nil
}

// relocate plans and applies the moves inside the caller's transaction.
// It writes nothing unless every affected reservation can be placed.
func (e *Engine) relocate(ctx context.Context, st Store, room Room, scope AffectedScope) ([]Relocation, error) {
	affectedRs, err := st.AffectedReservations(ctx, room.ID, scope, e.today())
	if err != nil {
		return nil, err
	}
	if len(affectedRs) == 0 {
		return nil, nil
	}
	alternates, err := st.AlternateRooms(ctx, room)
	if err != nil {
		return nil, err
	}
	if len(alternates) < len(affectedRs) {
		return nil, generic.Conflict(map[string]any{"affected": affected(affectedRs), "alternates": len(alternates)},
			"room %s has %d reservations to move but only %d same-type rooms are available",
			room.Number, len(affectedRs), len(alternates))
	}

	used := make([]bool, len(alternates))
	plan := make([]int, len(affectedRs))
	for i, r := range affectedRs {
		plan[i] = -1
		for j, alt := range alternates {
			if used[j] {
				continue
			}
			av, err := checkAvailability(ctx, st, alt.ID, r.Stay(), r.ID)
			if err != nil {
				return nil, err
			}
			if !av.Conflict {
				plan[i], used[j] = j, true
				break
			}
		}
		if plan[i] < 0 {
			return nil, generic.Conflict(map[string]any{"affected": affected(affectedRs), "unplaced": r.Folio},
				"no same-type room is free for reservation %s", r.Folio)
		}
	}

	moves := make([]Relocation, 0, len(affectedRs))
	now := e.clock()
	for i, r := range affectedRs {
		alt := alternates[plan[i]]
		r.RoomID = alt.ID
		r.UpdatedAt = now
		if err := st.UpdateReservation(ctx, r); err != nil {
			return nil, err
		}
		if r.State == StateInProgress {
			if err := syncRoom(ctx, st, alt.ID); err != nil {
				return nil, err
			}
		}
		moves = append(moves, Relocation{
			ReservationID: r.ID, Folio: r.Folio, FromRoomID: room.ID, ToRoomID: alt.ID, ToRoomNumber: alt.Number,
		})
	}
	return moves, nil
}
