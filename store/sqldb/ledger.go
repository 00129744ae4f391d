package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/warp/frontdesk/frontdesk"
	"github.com/warp/frontdesk/generic"
)

// =============================================================================
// LEDGER (APPEND-ONLY)
// =============================================================================

const (
	entryColumns = `e.id, e.reservation_id, e.kind, e.concept_id, e.origin, e.description, e.amount,
		e.currency, e.payment_method, e.created_by, e.created_at, e.note`

	qInsertEntry = `INSERT INTO ledger_entries (reservation_id, kind, concept_id, origin, description,
		amount, currency, payment_method, created_by, created_at, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	qEntries = `SELECT ` + entryColumns + ` FROM ledger_entries e WHERE e.reservation_id = ? ORDER BY e.id`

	// Payments a cashier took for one hotel's reservations in [from, to).
	qPayments = `SELECT ` + entryColumns + ` FROM ledger_entries e
		JOIN reservations x ON x.id = e.reservation_id
		WHERE e.kind = 'payment' AND e.created_by = ? AND x.hotel_id = ?
		AND e.created_at >= ? AND e.created_at < ?
		ORDER BY e.created_at, e.id LIMIT ?`
)

func scanEntry(s scanner) (generic.Entry, error) {
	var (
		e       generic.Entry
		concept sql.NullInt64
	)
	err := s.Scan(&e.ID, &e.ReservationID, &e.Kind, &concept, &e.Origin, &e.Description, &e.Amount,
		&e.Currency, &e.Method, &e.CreatedBy, &e.CreatedAt, &e.Note)
	if err != nil {
		return generic.Entry{}, err
	}
	if concept.Valid {
		id := generic.ConceptID(concept.Int64)
		e.ConceptID = &id
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

func (c *conn) entries(ctx context.Context, query string, args ...any) ([]generic.Entry, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []generic.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AppendEntry inserts one ledger row. There is no update or delete path.
func (c *conn) AppendEntry(ctx context.Context, e generic.Entry) (generic.Entry, error) {
	var concept sql.NullInt64
	if e.ConceptID != nil {
		concept = sql.NullInt64{Int64: int64(*e.ConceptID), Valid: true}
	}
	res, err := c.q.ExecContext(ctx, qInsertEntry, e.ReservationID, e.Kind, concept, e.Origin, e.Description,
		e.Amount, e.Currency, e.Method, e.CreatedBy, e.CreatedAt.UTC(), e.Note)
	if err != nil {
		return generic.Entry{}, fmt.Errorf("insert ledger entry: %w", err)
	}
	id, err := insertID(res)
	e.ID = generic.EntryID(id)
	return e, err
}

func (c *conn) Entries(ctx context.Context, id generic.ReservationID) ([]generic.Entry, error) {
	return c.entries(ctx, qEntries, id)
}

// Payments reads without a row cap when f.Limit is zero, since drawer
// totals must include every payment in the window.
func (c *conn) Payments(ctx context.Context, f frontdesk.PaymentFilter) ([]generic.Entry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = math.MaxInt32
	}
	return c.entries(ctx, qPayments, f.CashierID, f.HotelID, f.From.UTC(), f.To.UTC(), limit)
}
