package txn

import (
	"sync"
	"time"

	"github.com/RussellLuo/timingwheel"
	"github.com/arjunsk/halleykv/pkg/hlc"
	"github.com/google/uuid"
)

// Registry is an in-memory transaction table and the default StatusSource.
// A Pending transaction that outlives its TTL without a heartbeat is aborted
// by the timing wheel, so its intents become clearable by later writers.
type Registry struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Record
	timers  map[uuid.UUID]*timingwheel.Timer

	wheel *timingwheel.TimingWheel
	ttl   time.Duration
}

var _ StatusSource = new(Registry)

// NewRegistry creates a registry. ttl <= 0 disables auto-abort.
func NewRegistry(ttl time.Duration) *Registry {
	r := &Registry{
		records: make(map[uuid.UUID]*Record),
		timers:  make(map[uuid.UUID]*timingwheel.Timer),
		ttl:     ttl,
	}
	if ttl > 0 {
		tick := ttl / 10
		if tick < time.Millisecond {
			tick = time.Millisecond
		}
		r.wheel = timingwheel.NewTimingWheel(tick, 64)
		go r.wheel.Start()
	}
	return r
}

func (r *Registry) Begin(readTs, writeTs hlc.Timestamp) *Txn {
	tx := New(uuid.New(), readTs, writeTs)

	r.mu.Lock()
	r.records[tx.Meta.ID] = &Record{Meta: tx.Meta, Status: Pending}
	r.mu.Unlock()

	r.schedule(tx.Meta.ID)
	return tx
}

func (r *Registry) Commit(id uuid.UUID) error {
	return r.finalize(id, Committed)
}

func (r *Registry) Abort(id uuid.UUID) error {
	return r.finalize(id, Aborted)
}

// Heartbeat restarts the TTL countdown of a Pending transaction.
func (r *Registry) Heartbeat(id uuid.UUID) error {
	r.mu.RLock()
	rec, ok := r.records[id]
	r.mu.RUnlock()
	if !ok {
		return ErrTxnNotFound
	}
	if rec.Status != Pending {
		return ErrTxnFinalized
	}
	r.schedule(id)
	return nil
}

func (r *Registry) Status(id uuid.UUID) (Status, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return Pending, ErrTxnNotFound
	}
	return rec.Status, nil
}

func (r *Registry) Record(id uuid.UUID) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func (r *Registry) Close() {
	if r.wheel != nil {
		r.wheel.Stop()
	}
}

func (r *Registry) finalize(id uuid.UUID, to Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return ErrTxnNotFound
	}
	if rec.Status != Pending {
		return ErrTxnFinalized
	}
	rec.Status = to

	if timer, ok := r.timers[id]; ok {
		timer.Stop()
		delete(r.timers, id)
	}
	return nil
}

func (r *Registry) schedule(id uuid.UUID) {
	if r.wheel == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if timer, ok := r.timers[id]; ok {
		timer.Stop()
	}
	r.timers[id] = r.wheel.AfterFunc(r.ttl, func() {
		_ = r.Abort(id)
	})
}
