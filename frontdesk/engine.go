/*
Package frontdesk is the reservation lifecycle and billing engine.

PURPOSE:
  Owns every multi-step rule of the front desk: availability, pricing, the
  reservation state machine and its coupling to room state, ledger writes,
  cash-drawer reconciliation and relocation of guests off a room going to
  maintenance.

TRANSACTIONS:
  Each mutating operation validates what it can up front, then performs its
  remaining reads and all its writes inside one TxStore.WithTx call. A
  failure anywhere rolls the whole operation back. Events are published only
  after commit.

SCOPE:
  Every call takes an Actor. Actor.HotelID limits which hotel's rows are
  visible; zero means chain-wide (admin_cadena without a hotel filter).
  Rows outside the scope are reported as not found.

SEE ALSO:
  - lifecycle.go: create / edit / check-in / check-out / cancel / movements
  - cashdrawer.go: drawer sessions
  - relocation.go: maintenance and relocation
*/
package frontdesk

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/frontdesk/generic"
	"github.com/warp/frontdesk/observability"
)

// Actor is the authenticated caller as resolved by the auth middleware.
type Actor struct {
	UserID  generic.UserID
	HotelID generic.HotelID
}

func (a Actor) sees(h generic.HotelID) bool {
	return a.HotelID == 0 || a.HotelID == h
}

// Engine is safe for concurrent use; all shared state lives in the store.
type Engine struct {
	store     TxStore
	roomTypes RoomTypeSource
	events    Publisher
	log       zerolog.Logger
	now       func() time.Time
	currency  string
}

type Option func(*Engine)

// WithClock overrides the wall clock (tests, replays).
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func WithPublisher(p Publisher) Option { return func(e *Engine) { e.events = p } }

// WithRoomTypes routes room-type reads through src, typically a cache.
func WithRoomTypes(src RoomTypeSource) Option { return func(e *Engine) { e.roomTypes = src } }

func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.log = l } }

func WithCurrency(c string) Option { return func(e *Engine) { e.currency = c } }

func NewEngine(store TxStore, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		events:   NopPublisher{},
		log:      zerolog.Nop(),
		now:      time.Now,
		currency: generic.DefaultCurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.roomTypes == nil {
		e.roomTypes = store
	}
	return e
}

// clock is truncated to microseconds, the finest precision MySQL DATETIME(6)
// keeps, so stored and in-memory timestamps compare equal.
func (e *Engine) clock() time.Time { return e.now().UTC().Truncate(time.Microsecond) }

func (e *Engine) today() time.Time { return generic.Day(e.clock()) }

func (e *Engine) ledger(st Store) *generic.Ledger {
	l := generic.NewLedger(st)
	l.Currency = e.currency
	l.Now = e.clock
	return l
}

// tx runs fn atomically and classifies unexpected failures as storage errors.
func (e *Engine) tx(ctx context.Context, op string, fn func(Store) error) error {
	err := e.store.WithTx(ctx, fn)
	if err == nil {
		return nil
	}
	if generic.IsClientError(err) || generic.IsNotFound(err) {
		return err
	}
	e.log.Error().Err(err).Str("op", op).Msg("transaction rolled back")
	return generic.Storage(op, err)
}

func (e *Engine) emit(ctx context.Context, ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = e.clock()
	}
	err := e.events.Publish(ctx, ev)
	observability.ObservePublish(string(ev.Type), err)
	if err != nil {
		e.log.Warn().Err(err).Str("event", string(ev.Type)).Msg("event publish failed")
	}
}

func (e *Engine) roomType(ctx context.Context, id generic.RoomTypeID) (RoomType, error) {
	rt, err := e.roomTypes.RoomType(ctx, id)
	if err != nil {
		return RoomType{}, generic.Storage("load room type", err)
	}
	return rt, nil
}

// scopedRoom loads a room visible to the actor.
func scopedRoom(ctx context.Context, st Store, a Actor, id generic.RoomID, lock bool) (Room, error) {
	var (
		room Room
		err  error
	)
	if lock {
		room, err = st.RoomForUpdate(ctx, id)
	} else {
		room, err = st.Room(ctx, id)
	}
	if err != nil {
		return Room{}, err
	}
	if !a.sees(room.HotelID) {
		return Room{}, generic.NotFound("room", id)
	}
	return room, nil
}

// scopedReservation loads a reservation visible to the actor.
func scopedReservation(ctx context.Context, st Store, a Actor, id generic.ReservationID, lock bool) (Reservation, error) {
	var (
		r   Reservation
		err error
	)
	if lock {
		r, err = st.ReservationForUpdate(ctx, id)
	} else {
		r, err = st.Reservation(ctx, id)
	}
	if err != nil {
		return Reservation{}, err
	}
	if !a.sees(r.HotelID) {
		return Reservation{}, generic.NotFound("reservation", id)
	}
	return r, nil
}
