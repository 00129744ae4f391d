//go:build integration

package sqldb_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/frontdesk/frontdesk"
	"github.com/warp/frontdesk/generic"
	"github.com/warp/frontdesk/store/sqldb"
	"golang.org/x/sync/errgroup"
)

// startMySQL runs an isolated MySQL container and returns a migrated store.
func startMySQL(t *testing.T) *sqldb.Store {
	t.Helper()
	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "dockertest")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env:        []string{"MYSQL_ROOT_PASSWORD=root", "MYSQL_DATABASE=frontdesk"},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "run mysql")
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/frontdesk", resource.GetPort("3306/tcp"))
	var store *sqldb.Store
	require.NoError(t, pool.Retry(func() error {
		var e error
		store, e = sqldb.Open(sqldb.DriverMySQL, dsn)
		return e
	}), "connect mysql")
	t.Cleanup(func() { store.Close() })
	return store
}

func TestMySQL_ConcurrentBookingsGetDistinctFolios(t *testing.T) {
	store := startMySQL(t)
	ctx := context.Background()

	hotel, err := store.SaveHotel(ctx, frontdesk.Hotel{Code: "COAS", Name: "Hotel Coast"})
	require.NoError(t, err)
	rt, err := store.SaveRoomType(ctx, frontdesk.RoomType{HotelID: hotel.ID, Name: "Double", AdultsMax: 2})
	require.NoError(t, err)

	var rooms []frontdesk.Room
	for i := 1; i <= 8; i++ {
		r, err := store.SaveRoom(ctx, frontdesk.Room{
			HotelID: hotel.ID, TypeID: rt.ID, Number: fmt.Sprint(100 + i), BaseRate: decimal.NewFromInt(800),
		})
		require.NoError(t, err)
		rooms = append(rooms, r)
	}

	today := generic.Day(time.Now())
	engine := frontdesk.NewEngine(store, frontdesk.WithClock(func() time.Time { return today.Add(9 * time.Hour) }))
	actor := frontdesk.Actor{UserID: 1, HotelID: hotel.ID}

	var g errgroup.Group
	folios := make([]string, len(rooms))
	for i, room := range rooms {
		g.Go(func() error {
			b, err := engine.Create(ctx, actor, frontdesk.BookingRequest{
				RoomID:    room.ID,
				Guest:     frontdesk.Guest{FirstName: "Guest", LastName1: fmt.Sprint(i)},
				CheckIn:   today.AddDate(0, 0, 1),
				CheckOut:  today.AddDate(0, 0, 3),
				Occupancy: frontdesk.Occupancy{Adults: 2},
			})
			if err != nil {
				return err
			}
			folios[i] = b.Reservation.Folio
			return nil
		})
	}
	require.NoError(t, g.Wait())

	seen := map[string]bool{}
	for _, f := range folios {
		assert.False(t, seen[f], "folio %s issued twice", f)
		seen[f] = true
	}
	assert.True(t, seen["COAS0001"])
	assert.True(t, seen["COAS0008"])
}

func TestMySQL_OverlappingBookingsOnOneRoom(t *testing.T) {
	store := startMySQL(t)
	ctx := context.Background()

	hotel, err := store.SaveHotel(ctx, frontdesk.Hotel{Code: "COAS", Name: "Hotel Coast"})
	require.NoError(t, err)
	rt, err := store.SaveRoomType(ctx, frontdesk.RoomType{HotelID: hotel.ID, Name: "Double", AdultsMax: 2})
	require.NoError(t, err)
	room, err := store.SaveRoom(ctx, frontdesk.Room{HotelID: hotel.ID, TypeID: rt.ID, Number: "101", BaseRate: decimal.NewFromInt(800)})
	require.NoError(t, err)

	today := generic.Day(time.Now())
	engine := frontdesk.NewEngine(store, frontdesk.WithClock(func() time.Time { return today }))
	actor := frontdesk.Actor{UserID: 1, HotelID: hotel.ID}

	// GIVEN: several clerks booking the same room for overlapping nights
	var g errgroup.Group
	results := make([]error, 5)
	for i := range results {
		g.Go(func() error {
			_, results[i] = engine.Create(ctx, actor, frontdesk.BookingRequest{
				RoomID:    room.ID,
				Guest:     frontdesk.Guest{FirstName: "Guest", LastName1: fmt.Sprint(i)},
				CheckIn:   today.AddDate(0, 0, 1+i%2),
				CheckOut:  today.AddDate(0, 0, 4),
				Occupancy: frontdesk.Occupancy{Adults: 1},
			})
			return nil
		})
	}
	_ = g.Wait()

	// THEN: exactly one commits; the rest are conflicts or serialization
	// failures surfaced as errors
	ok := 0
	for _, err := range results {
		if err == nil {
			ok++
		}
	}
	assert.Equal(t, 1, ok)

	rs, err := store.ListReservations(ctx, frontdesk.ReservationFilter{HotelID: hotel.ID})
	require.NoError(t, err)
	assert.Len(t, rs, 1)
}
