package sqldb

import (
	"context"
	"fmt"

	"github.com/warp/frontdesk/frontdesk"
	"github.com/warp/frontdesk/generic"
)

// =============================================================================
// HOTELS AND ROOM TYPES
// =============================================================================

const (
	qHotel = `SELECT id, code, name FROM hotels WHERE id = ?`

	roomTypeColumns = `id, hotel_id, name, adults_max, children_max, adults_extra_max, children_extra_max,
		adult_extra_price, child_extra_price, extra_beds_max, extra_bed_price`

	qRoomType         = `SELECT ` + roomTypeColumns + ` FROM room_types WHERE id = ?`
	qRoomTypesByHotel = `SELECT ` + roomTypeColumns + ` FROM room_types WHERE hotel_id = ? ORDER BY id`

	qInsertHotel    = `INSERT INTO hotels (code, name) VALUES (?, ?)`
	qInsertRoomType = `INSERT INTO room_types (hotel_id, name, adults_max, children_max, adults_extra_max,
		children_extra_max, adult_extra_price, child_extra_price, extra_beds_max, extra_bed_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

func (c *conn) Hotel(ctx context.Context, id generic.HotelID) (frontdesk.Hotel, error) {
	var h frontdesk.Hotel
	err := c.q.QueryRowContext(ctx, qHotel, id).Scan(&h.ID, &h.Code, &h.Name)
	if err != nil {
		return frontdesk.Hotel{}, notFound(err, "hotel", id)
	}
	return h, nil
}

func scanRoomType(s scanner) (frontdesk.RoomType, error) {
	var rt frontdesk.RoomType
	err := s.Scan(&rt.ID, &rt.HotelID, &rt.Name, &rt.AdultsMax, &rt.ChildrenMax, &rt.AdultsExtraMax,
		&rt.ChildrenExtraMax, &rt.AdultExtraPrice, &rt.ChildExtraPrice, &rt.ExtraBedsMax, &rt.ExtraBedPrice)
	return rt, err
}

func (c *conn) RoomType(ctx context.Context, id generic.RoomTypeID) (frontdesk.RoomType, error) {
	rt, err := scanRoomType(c.q.QueryRowContext(ctx, qRoomType, id))
	if err != nil {
		return frontdesk.RoomType{}, notFound(err, "room type", id)
	}
	return rt, nil
}

func (c *conn) RoomTypes(ctx context.Context, hotel generic.HotelID) ([]frontdesk.RoomType, error) {
	rows, err := c.q.QueryContext(ctx, qRoomTypesByHotel, hotel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []frontdesk.RoomType
	for rows.Next() {
		rt, err := scanRoomType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// SaveHotel inserts a hotel and returns it with its id.
func (s *Store) SaveHotel(ctx context.Context, h frontdesk.Hotel) (frontdesk.Hotel, error) {
	res, err := s.db.ExecContext(ctx, qInsertHotel, h.Code, h.Name)
	if err != nil {
		return frontdesk.Hotel{}, fmt.Errorf("insert hotel: %w", err)
	}
	id, err := insertID(res)
	h.ID = generic.HotelID(id)
	return h, err
}

func (s *Store) SaveRoomType(ctx context.Context, rt frontdesk.RoomType) (frontdesk.RoomType, error) {
	res, err := s.db.ExecContext(ctx, qInsertRoomType, rt.HotelID, rt.Name, rt.AdultsMax, rt.ChildrenMax,
		rt.AdultsExtraMax, rt.ChildrenExtraMax, rt.AdultExtraPrice, rt.ChildExtraPrice, rt.ExtraBedsMax, rt.ExtraBedPrice)
	if err != nil {
		return frontdesk.RoomType{}, fmt.Errorf("insert room type: %w", err)
	}
	id, err := insertID(res)
	rt.ID = generic.RoomTypeID(id)
	return rt, err
}

// =============================================================================
// ROOMS
// =============================================================================

const (
	roomColumns = `r.id, r.hotel_id, r.type_id, r.number, r.floor, r.base_rate, r.state, r.notes`

	qRoom          = `SELECT ` + roomColumns + ` FROM rooms r WHERE r.id = ?`
	qRoomForUpdate = qRoom + ` FOR UPDATE`

	qSetRoomState = `UPDATE rooms SET state = ? WHERE id = ?`

	// Natural room order: "2" before "10".
	roomOrder = ` ORDER BY LENGTH(r.number), r.number`

	qAlternateRooms = `SELECT ` + roomColumns + ` FROM rooms r
		WHERE r.hotel_id = ? AND r.type_id = ? AND r.state = 'available' AND r.id <> ?` + roomOrder
	qAlternateRoomsForUpdate = qAlternateRooms + ` FOR UPDATE`

	qFreeRooms = `SELECT ` + roomColumns + ` FROM rooms r
		WHERE r.hotel_id = ? AND r.state IN ('available', 'occupied')
		AND NOT EXISTS (
			SELECT 1 FROM reservations x
			WHERE x.room_id = r.id AND x.state IN ('activa', 'en_curso')
			AND x.check_in < ? AND x.check_out > ?
		)` + roomOrder

	qInsertRoom = `INSERT INTO rooms (hotel_id, type_id, number, floor, base_rate, state, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
)

func scanRoom(s scanner) (frontdesk.Room, error) {
	var r frontdesk.Room
	err := s.Scan(&r.ID, &r.HotelID, &r.TypeID, &r.Number, &r.Floor, &r.BaseRate, &r.State, &r.Notes)
	return r, err
}

func (c *conn) room(ctx context.Context, id generic.RoomID, lock bool) (frontdesk.Room, error) {
	r, err := scanRoom(c.q.QueryRowContext(ctx, c.d.pick(qRoom, qRoomForUpdate, lock), id))
	if err != nil {
		return frontdesk.Room{}, notFound(err, "room", id)
	}
	return r, nil
}

func (c *conn) Room(ctx context.Context, id generic.RoomID) (frontdesk.Room, error) {
	return c.room(ctx, id, false)
}

func (c *conn) RoomForUpdate(ctx context.Context, id generic.RoomID) (frontdesk.Room, error) {
	return c.room(ctx, id, true)
}

func (c *conn) SetRoomState(ctx context.Context, id generic.RoomID, state frontdesk.RoomState) error {
	res, err := c.q.ExecContext(ctx, qSetRoomState, state, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports 0 for an unchanged row, so confirm the room exists
		if _, err := c.Room(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (c *conn) rooms(ctx context.Context, query string, args ...any) ([]frontdesk.Room, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []frontdesk.Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AlternateRooms locks the candidates on MySQL so they cannot change state
// while reservations are moved onto them.
func (c *conn) AlternateRooms(ctx context.Context, room frontdesk.Room) ([]frontdesk.Room, error) {
	return c.rooms(ctx, c.d.pick(qAlternateRooms, qAlternateRoomsForUpdate, true), room.HotelID, room.TypeID, room.ID)
}

func (c *conn) FreeRooms(ctx context.Context, hotel generic.HotelID, stay generic.Stay) ([]frontdesk.Room, error) {
	return c.rooms(ctx, qFreeRooms, hotel, stay.CheckOut, stay.CheckIn)
}

func (s *Store) SaveRoom(ctx context.Context, r frontdesk.Room) (frontdesk.Room, error) {
	if r.State == "" {
		r.State = frontdesk.RoomAvailable
	}
	res, err := s.db.ExecContext(ctx, qInsertRoom, r.HotelID, r.TypeID, r.Number, r.Floor, r.BaseRate, r.State, r.Notes)
	if err != nil {
		return frontdesk.Room{}, fmt.Errorf("insert room: %w", err)
	}
	id, err := insertID(res)
	r.ID = generic.RoomID(id)
	return r, err
}
