package frontdesk_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/warp/frontdesk/frontdesk"
	"github.com/warp/frontdesk/generic"
	"github.com/warp/frontdesk/store/sqldb"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var ctx = context.Background()

// start is "now" for every engine built here: the first reading of the
// clock is one second after it.
var start = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

// now advances one second per reading so consecutive writes get distinct
// timestamps.
func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recorder struct {
	mu     sync.Mutex
	events []frontdesk.Event
}

func (r *recorder) Publish(_ context.Context, ev frontdesk.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []frontdesk.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]frontdesk.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

// desk is one hotel (COAS) with a "Doble" type: 2 adults + 1 extra at
// 200/night, 1 child + 1 extra at 100/night, 1 extra bed at 150/night.
type desk struct {
	engine *frontdesk.Engine
	store  *sqldb.Store
	clock  *clock
	events *recorder
	hotel  frontdesk.Hotel
	double frontdesk.RoomType
	rooms  map[string]frontdesk.Room
	staff  frontdesk.Actor
}

func newDesk(t *testing.T, rooms ...string) *desk {
	t.Helper()
	store, err := sqldb.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	d := &desk{store: store, clock: &clock{t: start}, events: &recorder{}, rooms: map[string]frontdesk.Room{}}
	d.engine = frontdesk.NewEngine(store, frontdesk.WithClock(d.clock.now), frontdesk.WithPublisher(d.events))

	d.hotel, err = store.SaveHotel(ctx, frontdesk.Hotel{Code: "COAS", Name: "Hotel Costa"})
	require.NoError(t, err)
	d.double, err = store.SaveRoomType(ctx, frontdesk.RoomType{
		HotelID: d.hotel.ID, Name: "Doble",
		AdultsMax: 2, AdultsExtraMax: 1, AdultExtraPrice: decimal.NewFromInt(200),
		ChildrenMax: 1, ChildrenExtraMax: 1, ChildExtraPrice: decimal.NewFromInt(100),
		ExtraBedsMax: 1, ExtraBedPrice: decimal.NewFromInt(150),
	})
	require.NoError(t, err)
	for _, n := range rooms {
		d.addRoom(t, n, d.double)
	}
	d.staff = frontdesk.Actor{UserID: 1, HotelID: d.hotel.ID}
	return d
}

func (d *desk) addRoom(t *testing.T, number string, rt frontdesk.RoomType) frontdesk.Room {
	t.Helper()
	r, err := d.store.SaveRoom(ctx, frontdesk.Room{
		HotelID: d.hotel.ID, TypeID: rt.ID, Number: number, Floor: 1, BaseRate: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	d.rooms[number] = r
	return r
}

func date(s string) time.Time {
	t, err := time.Parse(generic.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func (d *desk) request(room, in, out string, adults int) frontdesk.BookingRequest {
	return frontdesk.BookingRequest{
		RoomID:    d.rooms[room].ID,
		Guest:     frontdesk.Guest{FirstName: "Ana", LastName1: "Lopez", LastName2: "Ruiz"},
		CheckIn:   date(in),
		CheckOut:  date(out),
		Occupancy: frontdesk.Occupancy{Adults: adults},
	}
}

// book creates a 2-adult reservation and fails the test unless it succeeds.
func (d *desk) book(t *testing.T, room, in, out string) frontdesk.Reservation {
	t.Helper()
	b, err := d.engine.Create(ctx, d.staff, d.request(room, in, out, 2))
	require.NoError(t, err)
	return b.Reservation
}

func (d *desk) pay(t *testing.T, id generic.ReservationID, amount string, method generic.PaymentMethod) generic.Entry {
	t.Helper()
	e, err := d.engine.RecordMovement(ctx, d.staff, id, frontdesk.MovementRequest{
		Kind: generic.KindPayment, Amount: decimal.RequireFromString(amount), Method: method,
	})
	require.NoError(t, err)
	return e
}

func (d *desk) roomState(t *testing.T, number string) frontdesk.RoomState {
	t.Helper()
	r, err := d.store.Room(ctx, d.rooms[number].ID)
	require.NoError(t, err)
	return r.State
}

func (d *desk) reservation(t *testing.T, id generic.ReservationID) frontdesk.Reservation {
	t.Helper()
	r, err := d.store.Reservation(ctx, id)
	require.NoError(t, err)
	return r
}
