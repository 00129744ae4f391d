package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/warp/frontdesk/frontdesk"
	"github.com/warp/frontdesk/generic"
)

// =============================================================================
// DRAWER SESSIONS
// =============================================================================

const (
	sessionColumns = `s.id, s.cashier_id, s.hotel_id, s.opened_at, s.closed_at, s.total_cash, s.total_card,
		s.total_general, s.transactions, s.note`

	qOpenSession = `SELECT ` + sessionColumns + ` FROM drawer_sessions s
		WHERE s.cashier_id = ? AND s.hotel_id = ? AND s.closed_at IS NULL
		ORDER BY s.opened_at DESC LIMIT 1`
	qOpenSessionForUpdate = qOpenSession + ` FOR UPDATE`

	qSession = `SELECT ` + sessionColumns + ` FROM drawer_sessions s WHERE s.id = ?`

	qInsertSession = `INSERT INTO drawer_sessions (cashier_id, hotel_id, opened_at, total_cash, total_card,
		total_general, transactions, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	qCloseSession = `UPDATE drawer_sessions SET closed_at = ?, total_cash = ?, total_card = ?,
		total_general = ?, transactions = ?, note = ?
		WHERE id = ? AND closed_at IS NULL`

	// History variants, one per filter shape.
	// Every variant takes the opened_at window [from, to) last.
	sessionOrder          = ` AND s.opened_at >= ? AND s.opened_at < ? ORDER BY s.opened_at DESC, s.id DESC LIMIT ?`
	qSessions             = `SELECT ` + sessionColumns + ` FROM drawer_sessions s WHERE 1 = 1` + sessionOrder
	qSessionsHotel        = `SELECT ` + sessionColumns + ` FROM drawer_sessions s WHERE s.hotel_id = ?` + sessionOrder
	qSessionsCashier      = `SELECT ` + sessionColumns + ` FROM drawer_sessions s WHERE s.cashier_id = ?` + sessionOrder
	qSessionsHotelCashier = `SELECT ` + sessionColumns + ` FROM drawer_sessions s
		WHERE s.hotel_id = ? AND s.cashier_id = ?` + sessionOrder
)

// Open bounds of the history window when DrawerFilter leaves From or To zero.
var (
	windowStart = time.Unix(0, 0).UTC()
	windowEnd   = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
)

func scanSession(s scanner) (frontdesk.DrawerSession, error) {
	var (
		ds     frontdesk.DrawerSession
		closed sql.NullTime
	)
	err := s.Scan(&ds.ID, &ds.CashierID, &ds.HotelID, &ds.OpenedAt, &closed, &ds.Totals.Cash, &ds.Totals.Card,
		&ds.Totals.General, &ds.Totals.Transactions, &ds.Note)
	if err != nil {
		return frontdesk.DrawerSession{}, err
	}
	ds.OpenedAt = ds.OpenedAt.UTC()
	if closed.Valid {
		t := closed.Time.UTC()
		ds.ClosedAt = &t
	}
	return ds, nil
}

func (c *conn) sessions(ctx context.Context, query string, args ...any) ([]frontdesk.DrawerSession, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []frontdesk.DrawerSession
	for rows.Next() {
		ds, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, rows.Err()
}

func (c *conn) openSession(ctx context.Context, cashier generic.UserID, hotel generic.HotelID, lock bool) (*frontdesk.DrawerSession, error) {
	ss, err := c.sessions(ctx, c.d.pick(qOpenSession, qOpenSessionForUpdate, lock), cashier, hotel)
	if err != nil {
		return nil, err
	}
	if len(ss) == 0 {
		return nil, nil
	}
	return &ss[0], nil
}

func (c *conn) OpenDrawerSession(ctx context.Context, cashier generic.UserID, hotel generic.HotelID) (*frontdesk.DrawerSession, error) {
	return c.openSession(ctx, cashier, hotel, false)
}

func (c *conn) OpenDrawerSessionForUpdate(ctx context.Context, cashier generic.UserID, hotel generic.HotelID) (*frontdesk.DrawerSession, error) {
	return c.openSession(ctx, cashier, hotel, true)
}

func (c *conn) InsertDrawerSession(ctx context.Context, ds frontdesk.DrawerSession) (frontdesk.DrawerSession, error) {
	res, err := c.q.ExecContext(ctx, qInsertSession, ds.CashierID, ds.HotelID, ds.OpenedAt.UTC(), ds.Totals.Cash,
		ds.Totals.Card, ds.Totals.General, ds.Totals.Transactions, ds.Note)
	if err != nil {
		if isUniqueViolation(err) {
			return frontdesk.DrawerSession{}, generic.Conflict(nil, "cashier already has an open drawer session")
		}
		return frontdesk.DrawerSession{}, fmt.Errorf("insert drawer session: %w", err)
	}
	id, err := insertID(res)
	ds.ID = generic.SessionID(id)
	return ds, err
}

// CloseDrawerSession stores the totals and closed_at. A closed session is
// never written again.
func (c *conn) CloseDrawerSession(ctx context.Context, ds frontdesk.DrawerSession) error {
	if ds.ClosedAt == nil {
		return generic.Invalid("closed_at", "is required to close a session")
	}
	res, err := c.q.ExecContext(ctx, qCloseSession, ds.ClosedAt.UTC(), ds.Totals.Cash, ds.Totals.Card,
		ds.Totals.General, ds.Totals.Transactions, ds.Note, ds.ID)
	if err != nil {
		return fmt.Errorf("close drawer session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return generic.Conflict(map[string]any{"session_id": ds.ID}, "drawer session %d is not open", ds.ID)
	}
	return nil
}

func (c *conn) DrawerSession(ctx context.Context, id generic.SessionID) (frontdesk.DrawerSession, error) {
	ds, err := scanSession(c.q.QueryRowContext(ctx, qSession, id))
	if err != nil {
		return frontdesk.DrawerSession{}, notFound(err, "drawer session", id)
	}
	return ds, nil
}

func (c *conn) DrawerSessions(ctx context.Context, f frontdesk.DrawerFilter) ([]frontdesk.DrawerSession, error) {
	limit := limitOr(f.Limit)
	from, to := windowStart, windowEnd
	if !f.From.IsZero() {
		from = f.From.UTC()
	}
	if !f.To.IsZero() {
		to = f.To.UTC()
	}
	switch {
	case f.HotelID != 0 && f.CashierID != 0:
		return c.sessions(ctx, qSessionsHotelCashier, f.HotelID, f.CashierID, from, to, limit)
	case f.HotelID != 0:
		return c.sessions(ctx, qSessionsHotel, f.HotelID, from, to, limit)
	case f.CashierID != 0:
		return c.sessions(ctx, qSessionsCashier, f.CashierID, from, to, limit)
	default:
		return c.sessions(ctx, qSessions, from, to, limit)
	}
}
