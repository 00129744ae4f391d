/*
Package generic provides the hotel-agnostic building blocks of the front-desk engine.

PURPOSE:
  This package contains the types and algorithms that do not care whether
  the thing being billed is a hotel stay, a spa booking or a parking spot:
  money arithmetic, half-open date ranges, the append-only ledger and the
  error taxonomy shared by every other package.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: decimal.Decimal rounded to 2 places (no floats, ever)
  - Typed identifiers: HotelID, RoomID, ReservationID, ... cannot be mixed
  - PaymentMethod: how a payment entered the drawer (cash, card, transfer)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Type Safety: Strong typing for IDs prevents passing a room id as a reservation id
  3. Immutability: Ledger entries are never modified, only offset

SEE ALSO:
  - ledger.go: Entries and balance computation
  - time.go: Stay (half-open date range) and night counting
  - errors.go: Validation / Conflict / NotFound / Storage errors
*/
package generic

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY
// =============================================================================

// MoneyPlaces is the number of decimal places every stored amount is rounded to.
const MoneyPlaces = 2

// DefaultCurrency is used when an entry is appended without a currency.
const DefaultCurrency = "MXN"

// RoundMoney rounds half away from zero to 2 places. For the non-negative
// amounts the engine produces this is the usual round-half-up.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// ParseDecimalOrZero parses s, returning zero on malformed input.
func ParseDecimalOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// PerNight multiplies a nightly price by a count and a number of nights.
func PerNight(price decimal.Decimal, count, nights int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(count))).Mul(decimal.NewFromInt(int64(nights)))
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type HotelID int64
type RoomID int64
type RoomTypeID int64
type ReservationID int64
type EntryID int64
type ConceptID int64
type SessionID int64
type UserID int64

func (id HotelID) String() string       { return strconv.FormatInt(int64(id), 10) }
func (id RoomID) String() string        { return strconv.FormatInt(int64(id), 10) }
func (id RoomTypeID) String() string    { return strconv.FormatInt(int64(id), 10) }
func (id ReservationID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id SessionID) String() string     { return strconv.FormatInt(int64(id), 10) }

// =============================================================================
// PAYMENT METHOD
// =============================================================================

type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodCard     PaymentMethod = "card"
	MethodTransfer PaymentMethod = "transfer"
)

// ParsePaymentMethod accepts the English names and the legacy Spanish ones
// ("efectivo", "tarjeta", "transferencia"). Empty input yields "".
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch s {
	case "":
		return "", nil
	case "cash", "efectivo":
		return MethodCash, nil
	case "card", "tarjeta":
		return MethodCard, nil
	case "transfer", "transferencia":
		return MethodTransfer, nil
	}
	return "", Invalid("payment_method", "unknown payment method %q", s)
}
