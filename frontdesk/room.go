package frontdesk

import (
	"github.com/shopspring/decimal"
	"github.com/warp/frontdesk/generic"
)

// =============================================================================
// ROOM REGISTRY TYPES (rows supplied by the catalog collaborator)
// =============================================================================

type Hotel struct {
	ID   generic.HotelID
	Code string // folio prefix, e.g. "COAS"
	Name string
}

// RoomType is the capacity and pricing template shared by many rooms.
type RoomType struct {
	ID               generic.RoomTypeID `json:"id"`
	HotelID          generic.HotelID    `json:"hotel_id"`
	Name             string             `json:"name"`
	AdultsMax        int                `json:"adults_max"`
	ChildrenMax      int                `json:"children_max"`
	AdultsExtraMax   int                `json:"adults_extra_max"`
	ChildrenExtraMax int                `json:"children_extra_max"`
	AdultExtraPrice  decimal.Decimal    `json:"adult_extra_price"`
	ChildExtraPrice  decimal.Decimal    `json:"child_extra_price"`
	ExtraBedsMax     int                `json:"extra_beds_max"`
	ExtraBedPrice    decimal.Decimal    `json:"extra_bed_price"`
}

type RoomState string

const (
	RoomAvailable    RoomState = "available"
	RoomOccupied     RoomState = "occupied"
	RoomMaintenance  RoomState = "maintenance"
	RoomInactive     RoomState = "inactive"
	RoomBlocked      RoomState = "blocked"
	RoomOutOfService RoomState = "out_of_service"
)

// ParseRoomState accepts the English names and the legacy Spanish ones.
func ParseRoomState(s string) (RoomState, error) {
	switch s {
	case "available", "disponible":
		return RoomAvailable, nil
	case "occupied", "ocupada":
		return RoomOccupied, nil
	case "maintenance", "mantenimiento":
		return RoomMaintenance, nil
	case "inactive", "inactiva":
		return RoomInactive, nil
	case "blocked", "bloqueada":
		return RoomBlocked, nil
	case "out_of_service", "fuera_servicio":
		return RoomOutOfService, nil
	}
	return "", generic.Invalid("state", "unknown room state %q", s)
}

// Bookable reports whether new reservations may be placed on the room.
func (s RoomState) Bookable() bool {
	return s == RoomAvailable || s == RoomOccupied
}

// Pinned states are set by an operator and are never overwritten by
// occupancy changes.
func (s RoomState) Pinned() bool { return !s.Bookable() }

// Settable reports whether an operator may request this state directly.
// Occupied is derived from check-ins and cannot be requested.
func (s RoomState) Settable() bool {
	return s == RoomAvailable || s == RoomMaintenance || s == RoomInactive
}

type Room struct {
	ID       generic.RoomID
	HotelID  generic.HotelID
	TypeID   generic.RoomTypeID
	Number   string
	Floor    int
	BaseRate decimal.Decimal
	State    RoomState
	Notes    string
}

// ChargeConcept is a named charge type from the concept catalog.
type ChargeConcept struct {
	ID            generic.ConceptID
	Code          string
	Name          string
	Description   string
	DefaultAmount decimal.Decimal
}
