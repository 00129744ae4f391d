// Package rediscache caches the room-type catalog in Redis.
//
// Room types change rarely and are read on every booking and edit to price
// the stay, so reads go through a read-aside cache keyed by id and by
// hotel. Redis failures never fail a booking: the decorator logs, counts
// and falls through to the database.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/warp/frontdesk/frontdesk"
	"github.com/warp/frontdesk/generic"
	"github.com/warp/frontdesk/observability"
)

const (
	cacheName = "roomtypes"
	keyPrefix = "frontdesk:roomtype:"
	// DefaultTTL bounds staleness after an out-of-band catalog edit.
	DefaultTTL = 10 * time.Minute
)

func typeKey(id generic.RoomTypeID) string { return keyPrefix + id.String() }

func hotelKey(id generic.HotelID) string { return fmt.Sprintf("%shotel:%d", keyPrefix, id) }

// RoomTypes wraps a frontdesk.RoomTypeSource with a Redis read-aside cache.
type RoomTypes struct {
	rdb  redis.UniversalClient
	next frontdesk.RoomTypeSource
	ttl  time.Duration
	log  zerolog.Logger
}

var _ frontdesk.RoomTypeSource = (*RoomTypes)(nil)

func New(rdb redis.UniversalClient, next frontdesk.RoomTypeSource, ttl time.Duration, log zerolog.Logger) *RoomTypes {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RoomTypes{rdb: rdb, next: next, ttl: ttl, log: log.With().Str("component", "rediscache").Logger()}
}

func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

func (c *RoomTypes) RoomType(ctx context.Context, id generic.RoomTypeID) (frontdesk.RoomType, error) {
	var rt frontdesk.RoomType
	if c.get(ctx, typeKey(id), &rt) {
		return rt, nil
	}
	rt, err := c.next.RoomType(ctx, id)
	if err != nil {
		return frontdesk.RoomType{}, err
	}
	c.set(ctx, typeKey(id), rt)
	return rt, nil
}

func (c *RoomTypes) RoomTypes(ctx context.Context, hotel generic.HotelID) ([]frontdesk.RoomType, error) {
	var rts []frontdesk.RoomType
	if c.get(ctx, hotelKey(hotel), &rts) {
		return rts, nil
	}
	rts, err := c.next.RoomTypes(ctx, hotel)
	if err != nil {
		return nil, err
	}
	c.set(ctx, hotelKey(hotel), rts)
	return rts, nil
}

// Invalidate drops the cached entries for a room type and its hotel list.
func (c *RoomTypes) Invalidate(ctx context.Context, rt frontdesk.RoomType) error {
	observability.ObserveCache(cacheName, "del")
	return c.rdb.Del(ctx, typeKey(rt.ID), hotelKey(rt.HotelID)).Err()
}

func (c *RoomTypes) get(ctx context.Context, key string, dst any) bool {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveCache(cacheName, "miss")
		return false
	}
	if err == nil {
		err = json.Unmarshal(b, dst)
	}
	if err != nil {
		observability.ObserveCache(cacheName, "error")
		c.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return false
	}
	observability.ObserveCache(cacheName, "hit")
	return true
}

func (c *RoomTypes) set(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err == nil {
		err = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	if err != nil {
		observability.ObserveCache(cacheName, "error")
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		return
	}
	observability.ObserveCache(cacheName, "set")
}
