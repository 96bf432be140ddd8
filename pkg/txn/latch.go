package txn

import "sync"

// LatchTable serializes writers on a single key. The MVCC put sequence
// (check intent, consult status, write) is not atomic on its own, so the
// layer invoking it must hold the key's latch across the whole sequence.
type LatchTable struct {
	mu      sync.Mutex
	latches map[string]*latch
}

type latch struct {
	mu   sync.Mutex
	refs int
}

func NewLatchTable() *LatchTable {
	return &LatchTable{latches: make(map[string]*latch)}
}

// Acquire blocks until the caller holds the latch for key.
func (lt *LatchTable) Acquire(key []byte) {
	lt.mu.Lock()
	l, ok := lt.latches[string(key)]
	if !ok {
		l = &latch{}
		lt.latches[string(key)] = l
	}
	l.refs++
	lt.mu.Unlock()

	l.mu.Lock()
}

func (lt *LatchTable) Release(key []byte) {
	lt.mu.Lock()
	l, ok := lt.latches[string(key)]
	if !ok {
		lt.mu.Unlock()
		panic("release of unheld latch")
	}
	l.refs--
	if l.refs == 0 {
		delete(lt.latches, string(key))
	}
	lt.mu.Unlock()

	l.mu.Unlock()
}
