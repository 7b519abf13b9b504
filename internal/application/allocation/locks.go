package allocation

import (
	"sync"

	"github.com/google/uuid"
)

// propertyLocks serializes ledger read-modify-write cycles per property.
// Lazily creates one mutex per property id; entries are never evicted, the
// working set is bounded by the property catalogue.
type propertyLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newPropertyLocks() *propertyLocks {
	return &propertyLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (p *propertyLocks) lock(propertyID uuid.UUID) func() {
	p.mu.Lock()
	m, ok := p.locks[propertyID]
	if !ok {
		m = &sync.Mutex{}
		p.locks[propertyID] = m
	}
	p.mu.Unlock()

	m.Lock()
	return m.Unlock
}
