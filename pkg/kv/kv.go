package kv

import (
	"sync"

	engine "github.com/arjunsk/halleykv/pkg/engine"
	"github.com/arjunsk/halleykv/pkg/hlc"
	"github.com/arjunsk/halleykv/pkg/mvcc"
	"github.com/arjunsk/halleykv/pkg/resolver"
	"github.com/arjunsk/halleykv/pkg/txn"
	"github.com/google/uuid"
)

// HalleyKV glues the pieces together: an ordered engine keyed by the
// versioned codec, a transaction registry, per-key latches serializing
// writes, and a resolver that retires decided intents.
type HalleyKV struct {
	eng      engine.Engine
	clock    hlc.Clock
	registry *txn.Registry
	latches  *txn.LatchTable
	res      *resolver.Resolver

	mu     sync.Mutex
	writes map[uuid.UUID][][]byte
}

var _ DB = new(HalleyKV)

func New(opts Options) (*HalleyKV, error) {
	if opts.Clock == nil {
		opts.Clock = hlc.NewHLC()
	}
	if opts.ResolverWorkers <= 0 {
		opts.ResolverWorkers = defaultResolverWorkers
	}

	eng := NewEngine(opts.Engine, mvcc.Compare)
	registry := txn.NewRegistry(opts.TxnTTL)
	latches := txn.NewLatchTable()

	res, err := resolver.New(eng, registry, latches, opts.ResolverWorkers, opts.LogStats)
	if err != nil {
		eng.Close()
		registry.Close()
		return nil, err
	}

	return &HalleyKV{
		eng:      eng,
		clock:    opts.Clock,
		registry: registry,
		latches:  latches,
		res:      res,
		writes:   make(map[uuid.UUID][][]byte),
	}, nil
}

func (db *HalleyKV) Begin() *txn.Txn {
	now := db.clock.Now()
	return db.registry.Begin(now, now)
}

func (db *HalleyKV) BeginAt(ts hlc.Timestamp) *txn.Txn {
	return db.registry.Begin(ts, ts)
}

func (db *HalleyKV) Commit(tx *txn.Txn) error {
	return db.finalize(tx, db.registry.Commit)
}

func (db *HalleyKV) Abort(tx *txn.Txn) error {
	return db.finalize(tx, db.registry.Abort)
}

func (db *HalleyKV) Put(key, val []byte, tx *txn.Txn) error {
	if tx == nil {
		return db.PutAt(key, db.clock.Now(), val)
	}

	status, err := db.registry.Status(tx.ID())
	if err != nil {
		return err
	}
	if status != txn.Pending {
		return txn.ErrTxnFinalized
	}

	db.latches.Acquire(key)
	defer db.latches.Release(key)

	if _, err := mvcc.Put(db.eng, key, hlc.Timestamp{}, tx, val, db.registry); err != nil {
		return err
	}
	db.track(tx.ID(), key)

	// the write doubles as liveness
	_ = db.registry.Heartbeat(tx.ID())
	return nil
}

func (db *HalleyKV) PutAt(key []byte, ts hlc.Timestamp, val []byte) error {
	db.latches.Acquire(key)
	defer db.latches.Release(key)

	_, err := mvcc.Put(db.eng, key, ts, nil, val, db.registry)
	return err
}

func (db *HalleyKV) Get(key []byte, ts hlc.Timestamp, tx *txn.Txn) ([]byte, error) {
	ts = db.readTs(ts, tx)

	got, err := mvcc.Get(db.eng, key, ts, mvcc.ScanOptions{Txn: tx})
	if err != nil {
		return nil, err
	}
	if got == nil {
		return nil, nil
	}
	return got.Value, nil
}

func (db *HalleyKV) Scan(start, end []byte, ts hlc.Timestamp, limit int, tx *txn.Txn) (mvcc.ScanResult, error) {
	ts = db.readTs(ts, tx)

	res, err := mvcc.Scan(db.eng, start, end, ts, mvcc.ScanOptions{MaxResults: limit, Txn: tx})
	if err != nil {
		return mvcc.ScanResult{}, err
	}

	// Discovered intents whose owner already finished are stale. Kick them to
	// the resolver so a later read doesn't trip over them again.
	for _, in := range res.Intents {
		status, err := db.registry.Status(in.Meta.ID)
		if err != nil || status == txn.Pending {
			continue
		}
		db.res.Enqueue(resolver.Request{Key: in.Key, Meta: in.Meta})
	}
	return res, nil
}

func (db *HalleyKV) Close() {
	db.res.Close()
	db.registry.Close()
	db.eng.Close()
}

func (db *HalleyKV) finalize(tx *txn.Txn, decide func(uuid.UUID) error) error {
	if err := decide(tx.ID()); err != nil {
		return err
	}

	// Resolve this transaction's own intents inline so its outcome is visible
	// as soon as the call returns.
	db.mu.Lock()
	keys := db.writes[tx.ID()]
	delete(db.writes, tx.ID())
	db.mu.Unlock()

	for _, key := range keys {
		if err := db.res.Resolve(resolver.Request{Key: key, Meta: tx.Meta}); err != nil {
			return err
		}
	}
	return nil
}

func (db *HalleyKV) track(id uuid.UUID, key []byte) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.writes[id] = append(db.writes[id], append([]byte(nil), key...))
}

func (db *HalleyKV) readTs(ts hlc.Timestamp, tx *txn.Txn) hlc.Timestamp {
	if !ts.IsEmpty() {
		return ts
	}
	if tx != nil {
		return tx.ReadTimestamp
	}
	return db.clock.Now()
}
