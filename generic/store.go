/*
store.go - Persistence interface for ledger entries

PURPOSE:
  Defines the seam between the ledger and the database. The interface only
  exposes an append and two reads, so an implementation cannot offer an
  update or delete path for entries even by accident.

IMPLEMENTATIONS:
  - store/sqldb: SQLite (default, tests) and MySQL (production)

SEE ALSO:
  - ledger.go: Higher-level Ledger using LedgerStore
  - frontdesk/store.go: The full engine store, which embeds this one
*/
package generic

import "context"

// LedgerStore persists entries. APPEND-ONLY: there is no Update or Delete.
type LedgerStore interface {
	// AppendEntry persists e and returns it with its assigned ID.
	AppendEntry(ctx context.Context, e Entry) (Entry, error)

	// Entries returns all entries for a reservation ordered by creation.
	Entries(ctx context.Context, id ReservationID) ([]Entry, error)
}
