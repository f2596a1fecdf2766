package services

import "sync"

// tableLocks serializes structural mutations per table. Two concurrent
// adds from different devices at the same table must not lose an
// increment, and two concurrent submits must not double-decrement stock.
// Cross-table serialization is left to the conditional stock UPDATE.
type tableLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newTableLocks() *tableLocks {
	return &tableLocks{locks: make(map[uint]*sync.Mutex)}
}

// acquire locks the table and returns the unlock func.
func (t *tableLocks) acquire(tableID uint) func() {
	t.mu.Lock()
	l, ok := t.locks[tableID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[tableID] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}
