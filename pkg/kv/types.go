package kv

import (
	"time"

	engine "github.com/arjunsk/halleykv/pkg/engine"
	"github.com/arjunsk/halleykv/pkg/hlc"
	"github.com/arjunsk/halleykv/pkg/mvcc"
	"github.com/arjunsk/halleykv/pkg/txn"
)

// DB is the transaction layer's view of the store: versioned reads and
// writes plus transaction lifecycle.
type DB interface {
	Begin() *txn.Txn
	// BeginAt starts a transaction reading and writing at an explicit
	// timestamp instead of the clock's.
	BeginAt(ts hlc.Timestamp) *txn.Txn
	Commit(tx *txn.Txn) error
	Abort(tx *txn.Txn) error

	// Put stages a transactional write as an intent; with a nil tx it
	// commits a version at the clock's current timestamp right away.
	Put(key, val []byte, tx *txn.Txn) error
	// PutAt commits a version at an explicit timestamp, no transaction.
	PutAt(key []byte, ts hlc.Timestamp, val []byte) error

	// Get returns the newest version visible at ts, or nil. A zero ts with
	// a transaction reads at the transaction's read timestamp.
	Get(key []byte, ts hlc.Timestamp, tx *txn.Txn) ([]byte, error)
	// Scan returns visible versions in [start, end) plus discovered intents.
	Scan(start, end []byte, ts hlc.Timestamp, limit int, tx *txn.Txn) (mvcc.ScanResult, error)

	Close()
}

type Options struct {
	Engine engine.Typ
	// Clock defaults to the wall-clock HLC; tests inject hlc.Manual.
	Clock hlc.Clock
	// TxnTTL aborts transactions that stall without a heartbeat; 0 disables.
	TxnTTL time.Duration
	// ResolverWorkers sizes the intent-resolution pool.
	ResolverWorkers int
	LogStats        bool
}

const defaultResolverWorkers = 4
