/*
cashdrawer.go - Cashier drawer sessions ("corte de caja")

LIFECYCLE:
  closed (no session) -> open (closed_at IS NULL) -> closed (immutable)

  A cashier has at most one open session per hotel. Open refuses a second.

RECONCILIATION:
  Preview and Close sum the payment entries the cashier created for the
  hotel's reservations in [opened_at, now), split by payment method:

    cash    = Σ payments with method cash
    card    = Σ payments with method card
    general = cash + card

  Payments in other methods (transfer) are listed in the detail but are not
  part of the drawer totals. The ledger is only read; sessions never own
  entries.
*/
package frontdesk

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/frontdesk/generic"
	"github.com/warp/frontdesk/observability"
)

type DrawerSession struct {
	ID        generic.SessionID
	CashierID generic.UserID
	HotelID   generic.HotelID
	OpenedAt  time.Time
	ClosedAt  *time.Time
	Totals    DrawerTotals
	Note      string
}

func (s DrawerSession) Open() bool { return s.ClosedAt == nil }

type DrawerTotals struct {
	Cash         decimal.Decimal
	Card         decimal.Decimal
	General      decimal.Decimal
	Transactions int
}

// DrawerPreview is an unsaved reconciliation over a window.
type DrawerPreview struct {
	SessionID *generic.SessionID
	From      time.Time
	To        time.Time
	Totals    DrawerTotals
}

// DrawerDetail is a session with the payments that make up its totals.
type DrawerDetail struct {
	Session  DrawerSession
	Payments []generic.Entry
}

// Tally sums payment entries by method.
func Tally(entries []generic.Entry) DrawerTotals {
	t := DrawerTotals{Cash: decimal.Zero, Card: decimal.Zero}
	for _, e := range entries {
		if e.Kind != generic.KindPayment {
			continue
		}
		switch e.Method {
		case generic.MethodCash:
			t.Cash = t.Cash.Add(e.Amount)
		case generic.MethodCard:
			t.Card = t.Card.Add(e.Amount)
		default:
			continue
		}
		t.Transactions++
	}
	t.General = t.Cash.Add(t.Card)
	return t
}

func drawerScope(a Actor) error {
	if a.HotelID == 0 {
		return generic.Invalid("hotel", "a hotel scope is required for drawer operations")
	}
	if a.UserID == 0 {
		return generic.Invalid("cashier", "an authenticated cashier is required")
	}
	return nil
}

// OpenDrawer starts a session for the actor in their hotel.
func (e *Engine) OpenDrawer(ctx context.Context, a Actor, note string) (DrawerSession, error) {
	if err := drawerScope(a); err != nil {
		return DrawerSession{}, err
	}
	var s DrawerSession
	err := e.tx(ctx, "open drawer", func(st Store) error {
		existing, err := st.OpenDrawerSessionForUpdate(ctx, a.UserID, a.HotelID)
		if err != nil {
			return err
		}
		if existing != nil {
			return generic.Conflict(map[string]any{"session_id": existing.ID},
				"cashier already has an open drawer session (%d)", existing.ID)
		}
		s, err = st.InsertDrawerSession(ctx, DrawerSession{
			CashierID: a.UserID,
			HotelID:   a.HotelID,
			OpenedAt:  e.clock(),
			Totals:    Tally(nil),
			Note:      note,
		})
		return err
	})
	if err != nil {
		return DrawerSession{}, err
	}
	observability.ObserveDrawer("open")
	e.log.Info().Int64("session_id", int64(s.ID)).Int64("cashier_id", int64(a.UserID)).Msg("drawer opened")
	e.emit(ctx, Event{Type: EventDrawerOpened, HotelID: s.HotelID, ActorID: a.UserID,
		Data: map[string]any{"session_id": s.ID}})
	return s, nil
}

// CurrentDrawer returns the actor's open session, or nil.
func (e *Engine) CurrentDrawer(ctx context.Context, a Actor) (*DrawerSession, error) {
	if err := drawerScope(a); err != nil {
		return nil, err
	}
	s, err := e.store.OpenDrawerSession(ctx, a.UserID, a.HotelID)
	if err != nil {
		return nil, generic.Storage("load open drawer", err)
	}
	return s, nil
}

// PreviewDrawer reconciles without closing. With an open session the window
// is [opened_at, now); otherwise from and to must both be given.
func (e *Engine) PreviewDrawer(ctx context.Context, a Actor, from, to *time.Time) (DrawerPreview, error) {
	if err := drawerScope(a); err != nil {
		return DrawerPreview{}, err
	}
	p := DrawerPreview{To: e.clock()}
	if from != nil && to != nil {
		p.From, p.To = from.UTC(), to.UTC()
		if !p.To.After(p.From) {
			return DrawerPreview{}, generic.Invalid("to", "must be after from")
		}
	} else {
		s, err := e.store.OpenDrawerSession(ctx, a.UserID, a.HotelID)
		if err != nil {
			return DrawerPreview{}, generic.Storage("load open drawer", err)
		}
		if s == nil {
			return DrawerPreview{}, generic.Invalid("from", "no open drawer session; give from and to")
		}
		p.SessionID = &s.ID
		p.From = s.OpenedAt
	}
	payments, err := e.store.Payments(ctx, PaymentFilter{CashierID: a.UserID, HotelID: a.HotelID, From: p.From, To: p.To})
	if err != nil {
		return DrawerPreview{}, generic.Storage("load payments", err)
	}
	p.Totals = Tally(payments)
	return p, nil
}

// CloseDrawer reconciles the open session over [opened_at, now), stores the
// totals and closes it.
func (e *Engine) CloseDrawer(ctx context.Context, a Actor, note string) (DrawerSession, error) {
	if err := drawerScope(a); err != nil {
		return DrawerSession{}, err
	}
	var s DrawerSession
	err := e.tx(ctx, "close drawer", func(st Store) error {
		open, err := st.OpenDrawerSessionForUpdate(ctx, a.UserID, a.HotelID)
		if err != nil {
			return err
		}
		if open == nil {
			return generic.Conflict(nil, "cashier has no open drawer session")
		}
		now := e.clock()
		payments, err := st.Payments(ctx, PaymentFilter{CashierID: a.UserID, HotelID: a.HotelID, From: open.OpenedAt, To: now})
		if err != nil {
			return err
		}
		s = *open
		s.Totals = Tally(payments)
		s.ClosedAt = &now
		if note != "" {
			s.Note = note
		}
		return st.CloseDrawerSession(ctx, s)
	})
	if err != nil {
		return DrawerSession{}, err
	}
	observability.ObserveDrawer("close")
	e.log.Info().Int64("session_id", int64(s.ID)).Str("general", s.Totals.General.StringFixed(2)).Msg("drawer closed")
	e.emit(ctx, Event{Type: EventDrawerClosed, HotelID: s.HotelID, ActorID: a.UserID, Data: map[string]any{
		"session_id": s.ID, "cash": s.Totals.Cash.StringFixed(2), "card": s.Totals.Card.StringFixed(2),
		"general": s.Totals.General.StringFixed(2),
	}})
	return s, nil
}

// DrawerSessions lists sessions in the actor's scope, newest first. A
// non-zero cashier narrows the list to that cashier; from and to, when
// given, keep sessions opened in [from, to).
func (e *Engine) DrawerSessions(ctx context.Context, a Actor, cashier generic.UserID, from, to *time.Time) ([]DrawerSession, error) {
	f := DrawerFilter{HotelID: a.HotelID, CashierID: cashier, Limit: MaxPageSize}
	if from != nil {
		f.From = from.UTC()
	}
	if to != nil {
		f.To = to.UTC()
	}
	if from != nil && to != nil && !f.To.After(f.From) {
		return nil, generic.Invalid("to", "must be after from")
	}
	ss, err := e.store.DrawerSessions(ctx, f)
	if err != nil {
		return nil, generic.Storage("list drawer sessions", err)
	}
	return ss, nil
}

// DrawerDetail returns a session and the payments in its window. For an
// open session the window ends now.
func (e *Engine) DrawerDetail(ctx context.Context, a Actor, id generic.SessionID) (DrawerDetail, error) {
	s, err := e.store.DrawerSession(ctx, id)
	if err != nil {
		return DrawerDetail{}, generic.Storage("load drawer session", err)
	}
	if !a.sees(s.HotelID) {
		return DrawerDetail{}, generic.NotFound("drawer session", id)
	}
	to := e.clock()
	if s.ClosedAt != nil {
		to = *s.ClosedAt
	}
	payments, err := e.store.Payments(ctx, PaymentFilter{
		CashierID: s.CashierID, HotelID: s.HotelID, From: s.OpenedAt, To: to, Limit: MaxPageSize,
	})
	if err != nil {
		return DrawerDetail{}, generic.Storage("load payments", err)
	}
	return DrawerDetail{Session: s, Payments: payments}, nil
}
