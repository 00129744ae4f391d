package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/frontdesk/frontdesk"
	"github.com/warp/frontdesk/generic"
)

const (
	reservationColumns = `x.id, x.hotel_id, x.room_id, x.folio, x.guest_first_name, x.guest_last_name1,
		x.guest_last_name2, x.check_in, x.check_out, x.adults, x.children, x.extra_beds, x.nightly_rate,
		x.total, x.payment_method, x.state, x.created_by, x.created_at, x.updated_at`

	qReservation          = `SELECT ` + reservationColumns + ` FROM reservations x WHERE x.id = ?`
	qReservationForUpdate = qReservation + ` FOR UPDATE`

	qInsertReservation = `INSERT INTO reservations (hotel_id, room_id, folio, guest_first_name, guest_last_name1,
		guest_last_name2, check_in, check_out, adults, children, extra_beds, nightly_rate, total,
		payment_method, state, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	qUpdateReservation = `UPDATE reservations SET room_id = ?, guest_first_name = ?, guest_last_name1 = ?,
		guest_last_name2 = ?, check_in = ?, check_out = ?, adults = ?, children = ?, extra_beds = ?,
		nightly_rate = ?, total = ?, payment_method = ?, state = ?, updated_at = ?
		WHERE id = ?`

	// Half-open overlap: existing [check_in, check_out) meets [in, out)
	// when check_in < out AND check_out > in.
	qConflicting = `SELECT ` + reservationColumns + ` FROM reservations x
		WHERE x.room_id = ? AND x.state IN ('activa', 'en_curso') AND x.id <> ?
		AND x.check_in < ? AND x.check_out > ?
		ORDER BY x.check_in, x.id LIMIT 1`

	qCountInProgress = `SELECT COUNT(*) FROM reservations WHERE room_id = ? AND state = 'en_curso'`

	qAffectedMaintenance = `SELECT ` + reservationColumns + ` FROM reservations x
		WHERE x.room_id = ? AND x.state IN ('activa', 'en_curso', 'finalizada') AND x.check_out >= ?
		ORDER BY x.check_in, x.id`
	qAffectedMaintenanceForUpdate = qAffectedMaintenance + ` FOR UPDATE`

	qAffectedRelocate = `SELECT ` + reservationColumns + ` FROM reservations x
		WHERE x.room_id = ? AND x.state IN ('activa', 'en_curso') AND x.check_out >= ?
		ORDER BY x.check_in, x.id`
	qAffectedRelocateForUpdate = qAffectedRelocate + ` FOR UPDATE`

	// List variants, one per filter shape.
	listOrder                   = ` ORDER BY x.check_in DESC, x.id DESC LIMIT ?`
	qListReservations           = `SELECT ` + reservationColumns + ` FROM reservations x` + listOrder
	qListReservationsHotel      = `SELECT ` + reservationColumns + ` FROM reservations x WHERE x.hotel_id = ?` + listOrder
	qListReservationsState      = `SELECT ` + reservationColumns + ` FROM reservations x WHERE x.state = ?` + listOrder
	qListReservationsHotelState = `SELECT ` + reservationColumns + ` FROM reservations x
		WHERE x.hotel_id = ? AND x.state = ?` + listOrder
)

func scanReservation(s scanner) (frontdesk.Reservation, error) {
	var r frontdesk.Reservation
	err := s.Scan(&r.ID, &r.HotelID, &r.RoomID, &r.Folio, &r.Guest.FirstName, &r.Guest.LastName1,
		&r.Guest.LastName2, &r.CheckIn, &r.CheckOut, &r.Adults, &r.Children, &r.ExtraBeds, &r.NightlyRate,
		&r.Total, &r.PaymentMethod, &r.State, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return frontdesk.Reservation{}, err
	}
	r.CheckIn = generic.Day(r.CheckIn)
	r.CheckOut = generic.Day(r.CheckOut)
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return r, nil
}

func (c *conn) reservations(ctx context.Context, query string, args ...any) ([]frontdesk.Reservation, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []frontdesk.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (c *conn) reservation(ctx context.Context, id generic.ReservationID, lock bool) (frontdesk.Reservation, error) {
	r, err := scanReservation(c.q.QueryRowContext(ctx, c.d.pick(qReservation, qReservationForUpdate, lock), id))
	if err != nil {
		return frontdesk.Reservation{}, notFound(err, "reservation", id)
	}
	return r, nil
}

func (c *conn) Reservation(ctx context.Context, id generic.ReservationID) (frontdesk.Reservation, error) {
	return c.reservation(ctx, id, false)
}

func (c *conn) ReservationForUpdate(ctx context.Context, id generic.ReservationID) (frontdesk.Reservation, error) {
	return c.reservation(ctx, id, true)
}

func (c *conn) InsertReservation(ctx context.Context, r frontdesk.Reservation) (frontdesk.Reservation, error) {
	res, err := c.q.ExecContext(ctx, qInsertReservation, r.HotelID, r.RoomID, r.Folio, r.Guest.FirstName,
		r.Guest.LastName1, r.Guest.LastName2, generic.Day(r.CheckIn), generic.Day(r.CheckOut), r.Adults,
		r.Children, r.ExtraBeds, r.NightlyRate, r.Total, r.PaymentMethod, r.State, r.CreatedBy,
		r.CreatedAt.UTC(), r.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return frontdesk.Reservation{}, generic.Conflict(map[string]any{"folio": r.Folio}, "folio %s already exists", r.Folio)
		}
		return frontdesk.Reservation{}, fmt.Errorf("insert reservation: %w", err)
	}
	id, err := insertID(res)
	r.ID = generic.ReservationID(id)
	return r, err
}

func (c *conn) UpdateReservation(ctx context.Context, r frontdesk.Reservation) error {
	res, err := c.q.ExecContext(ctx, qUpdateReservation, r.RoomID, r.Guest.FirstName, r.Guest.LastName1,
		r.Guest.LastName2, generic.Day(r.CheckIn), generic.Day(r.CheckOut), r.Adults, r.Children, r.ExtraBeds,
		r.NightlyRate, r.Total, r.PaymentMethod, r.State, r.UpdatedAt.UTC(), r.ID)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return generic.NotFound("reservation", r.ID)
	}
	return nil
}

func (c *conn) ConflictingReservation(ctx context.Context, room generic.RoomID, stay generic.Stay, exclude generic.ReservationID) (*frontdesk.Reservation, error) {
	rs, err := c.reservations(ctx, qConflicting, room, exclude, generic.Day(stay.CheckOut), generic.Day(stay.CheckIn))
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, nil
	}
	return &rs[0], nil
}

func (c *conn) CountInProgress(ctx context.Context, room generic.RoomID) (int, error) {
	var n int
	err := c.q.QueryRowContext(ctx, qCountInProgress, room).Scan(&n)
	return n, err
}

func (c *conn) AffectedReservations(ctx context.Context, room generic.RoomID, scope frontdesk.AffectedScope, today time.Time) ([]frontdesk.Reservation, error) {
	var query string
	switch scope {
	case frontdesk.ScopeMaintenance:
		query = c.d.pick(qAffectedMaintenance, qAffectedMaintenanceForUpdate, true)
	case frontdesk.ScopeRelocate:
		query = c.d.pick(qAffectedRelocate, qAffectedRelocateForUpdate, true)
	default:
		return nil, fmt.Errorf("unknown affected scope %d", scope)
	}
	return c.reservations(ctx, query, room, generic.Day(today))
}

func (c *conn) ListReservations(ctx context.Context, f frontdesk.ReservationFilter) ([]frontdesk.Reservation, error) {
	limit := limitOr(f.Limit)
	switch {
	case f.HotelID != 0 && f.State != "":
		return c.reservations(ctx, qListReservationsHotelState, f.HotelID, f.State, limit)
	case f.HotelID != 0:
		return c.reservations(ctx, qListReservationsHotel, f.HotelID, limit)
	case f.State != "":
		return c.reservations(ctx, qListReservationsState, f.State, limit)
	default:
		return c.reservations(ctx, qListReservations, limit)
	}
}

// =============================================================================
// FOLIO SEQUENCE
// =============================================================================

const (
	qBumpFolio   = `UPDATE folio_sequences SET last_value = last_value + 1 WHERE hotel_id = ?`
	qFolioValue  = `SELECT last_value FROM folio_sequences WHERE hotel_id = ?`
	qSeedFolio   = `INSERT INTO folio_sequences (hotel_id, last_value) VALUES (?, ?)`
	qHotelFolios = `SELECT folio FROM reservations WHERE hotel_id = ?`
)

// NextFolioSeq increments the hotel's counter row. The UPDATE holds the row
// lock until commit, so concurrent bookings in one hotel queue behind each
// other and never read the same value. A hotel without a counter row is
// seeded from the highest folio suffix already issued.
func (c *conn) NextFolioSeq(ctx context.Context, hotel generic.HotelID) (int, error) {
	res, err := c.q.ExecContext(ctx, qBumpFolio, hotel)
	if err != nil {
		return 0, fmt.Errorf("bump folio: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if err := c.seedFolio(ctx, hotel); err != nil {
			return 0, err
		}
	}
	var seq int
	if err := c.q.QueryRowContext(ctx, qFolioValue, hotel).Scan(&seq); err != nil {
		return 0, fmt.Errorf("read folio: %w", err)
	}
	return seq, nil
}

func (c *conn) seedFolio(ctx context.Context, hotel generic.HotelID) error {
	h, err := c.Hotel(ctx, hotel)
	if err != nil {
		return err
	}
	highest, err := c.highestFolio(ctx, h)
	if err != nil {
		return err
	}
	if _, err := c.q.ExecContext(ctx, qSeedFolio, hotel, highest+1); err != nil {
		if !isUniqueViolation(err) {
			return fmt.Errorf("seed folio: %w", err)
		}
		// another transaction seeded it first
		if _, err := c.q.ExecContext(ctx, qBumpFolio, hotel); err != nil {
			return fmt.Errorf("bump folio: %w", err)
		}
	}
	return nil
}

func (c *conn) highestFolio(ctx context.Context, h frontdesk.Hotel) (int, error) {
	rows, err := c.q.QueryContext(ctx, qHotelFolios, h.ID)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	highest := 0
	for rows.Next() {
		var folio string
		if err := rows.Scan(&folio); err != nil {
			return 0, err
		}
		if n, ok := frontdesk.FolioSeq(h.Code, folio); ok && n > highest {
			highest = n
		}
	}
	return highest, rows.Err()
}
