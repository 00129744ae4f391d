/*
ledger.go - Append-only charge/payment log

PURPOSE:
  The Ledger is the source of truth for what a guest owes. Every rent charge,
  rent adjustment, manual charge, payment and lifecycle audit entry is
  recorded here. The balance is always computed by summing entries; there is
  no balance column on the reservation that could drift from the history.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete.
  2. IMMUTABLE: Once written, entries cannot be modified
  3. BALANCE IDENTITY: balance == Σ payments − Σ charges, over the full history

CORRECTIONS:
  A wrong charge is never edited. An offsetting charge with the opposite sign
  is appended instead (see OriginRentAdjustment). Both stay in the history.

EXAMPLE FLOW:
  1. Booking:   charge  2784.00 (rent)
  2. Deposit:   payment 1000.00 (cash)
  3. Edit:      charge  -464.00 (rent adjustment, one night less)
  4. Checkout:  charge     0.00 (check_out, informational)

  Σ payments − Σ charges = 1000 − 2320 = −1320 (guest still owes 1320)

SEE ALSO:
  - store.go: Persistence interface
  - frontdesk/lifecycle.go: Which operations write which entries
*/
package generic

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENTRY
// =============================================================================

type EntryKind string

const (
	KindCharge  EntryKind = "charge"
	KindPayment EntryKind = "payment"
)

// ParseEntryKind accepts the English names and the legacy "cargo"/"abono".
func ParseEntryKind(s string) (EntryKind, error) {
	switch s {
	case "charge", "cargo":
		return KindCharge, nil
	case "payment", "abono", "pago":
		return KindPayment, nil
	case "":
		return "", Invalid("kind", "is required")
	}
	return "", Invalid("kind", "must be charge or payment")
}

// EntryOrigin records which operation wrote an entry.
type EntryOrigin string

const (
	OriginManual         EntryOrigin = "manual"
	OriginRent           EntryOrigin = "rent"
	OriginRentAdjustment EntryOrigin = "rent_adjustment"
	OriginCheckIn        EntryOrigin = "check_in"
	OriginCheckOut       EntryOrigin = "check_out"
	OriginCancellation   EntryOrigin = "cancellation"
)

// IsRent reports whether the entry counts toward the reservation's rent.
func (o EntryOrigin) IsRent() bool {
	return o == OriginRent || o == OriginRentAdjustment
}

// Entry is one immutable ledger line tied to a reservation.
// Amount is always interpreted by Kind: charges raise what is owed,
// payments lower it.
type Entry struct {
	ID            EntryID
	ReservationID ReservationID
	Kind          EntryKind
	ConceptID     *ConceptID
	Origin        EntryOrigin
	Description   string
	Amount        decimal.Decimal
	Currency      string
	Method        PaymentMethod
	CreatedBy     UserID
	CreatedAt     time.Time
	Note          string
}

// =============================================================================
// BALANCE
// =============================================================================

// Summary is the derived state of a reservation's ledger.
type Summary struct {
	Charges  decimal.Decimal
	Payments decimal.Decimal
	// Balance = Payments − Charges. Negative means the guest owes money.
	Balance decimal.Decimal
	// Rent is the net of rent and rent-adjustment charges.
	Rent decimal.Decimal
}

// Owes reports whether charges exceed payments.
func (s Summary) Owes() bool { return s.Balance.IsNegative() }

// Summarize is the single balance function used wherever totals are shown
// or enforced.
func Summarize(entries []Entry) Summary {
	sum := Summary{Charges: decimal.Zero, Payments: decimal.Zero, Rent: decimal.Zero}
	for _, e := range entries {
		switch e.Kind {
		case KindCharge:
			sum.Charges = sum.Charges.Add(e.Amount)
			if e.Origin.IsRent() {
				sum.Rent = sum.Rent.Add(e.Amount)
			}
		case KindPayment:
			sum.Payments = sum.Payments.Add(e.Amount)
		}
	}
	sum.Balance = sum.Payments.Sub(sum.Charges)
	return sum
}

// =============================================================================
// LEDGER
// =============================================================================

// Ledger validates and appends entries and answers balance queries.
// It is cheap to construct; build one per transaction around the
// transaction's store.
type Ledger struct {
	Store    LedgerStore
	Currency string
	Now      func() time.Time
}

func NewLedger(store LedgerStore) *Ledger {
	return &Ledger{Store: store, Currency: DefaultCurrency, Now: time.Now}
}

// Append fills defaults, validates and persists an entry. This is the
// ONLY write path for ledger rows.
func (l *Ledger) Append(ctx context.Context, e Entry) (Entry, error) {
	if e.ReservationID == 0 {
		return Entry{}, Invalid("reservation_id", "is required")
	}
	if e.Kind != KindCharge && e.Kind != KindPayment {
		return Entry{}, Invalid("kind", "must be charge or payment")
	}
	if e.Origin == "" {
		e.Origin = OriginManual
	}
	e.Amount = RoundMoney(e.Amount)
	if e.Origin == OriginManual && !e.Amount.IsPositive() {
		return Entry{}, Invalid("amount", "must be at least 0.01")
	}
	if e.Currency == "" {
		e.Currency = l.Currency
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.Now().UTC()
	}
	return l.Store.AppendEntry(ctx, e)
}

// Entries returns a reservation's history in insertion order.
func (l *Ledger) Entries(ctx context.Context, id ReservationID) ([]Entry, error) {
	return l.Store.Entries(ctx, id)
}

// Balance computes the reservation's summary from its full history.
func (l *Ledger) Balance(ctx context.Context, id ReservationID) (Summary, error) {
	entries, err := l.Store.Entries(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(entries), nil
}
