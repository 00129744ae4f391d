// Package store provides in-process LedgerStore implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/frontdesk/generic"
)

// =============================================================================
// MEMORY STORE - In-memory ledger (for testing/dev)
// =============================================================================

// Memory keeps entries per reservation in insertion order. Append-only.
type Memory struct {
	mu      sync.RWMutex
	entries map[generic.ReservationID][]generic.Entry
	nextID  generic.EntryID
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[generic.ReservationID][]generic.Entry)}
}

// AppendEntry assigns the next id and stores a copy of e.
func (m *Memory) AppendEntry(_ context.Context, e generic.Entry) (generic.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	e.ID = m.nextID
	if e.ConceptID != nil {
		id := *e.ConceptID
		e.ConceptID = &id
	}
	m.entries[e.ReservationID] = append(m.entries[e.ReservationID], e)
	return e, nil
}

func (m *Memory) Entries(_ context.Context, id generic.ReservationID) ([]generic.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]generic.Entry, len(m.entries[id]))
	copy(result, m.entries[id])
	return result, nil
}

// Len is the total number of entries across all reservations.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, es := range m.entries {
		n += len(es)
	}
	return n
}
