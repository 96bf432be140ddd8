package mvcc

import (
	"bytes"

	engine "github.com/arjunsk/halleykv/pkg/engine"
	"github.com/arjunsk/halleykv/pkg/hlc"
	"github.com/arjunsk/halleykv/pkg/txn"
)

// Get returns the newest version of key visible at ts, or nil if the key has
// no visible version. Unlike Scan, Get is strict about intents: a foreign
// intent is a *WriteIntentError because visibility can't be decided without
// resolving its owner; the reader's own intent is returned as the value.
func Get(eng engine.Engine, key []byte, ts hlc.Timestamp, opts ScanOptions) (*KeyValue, error) {
	opts.MaxResults = 1
	res, err := Scan(eng, key, nil, ts, opts)
	if err != nil {
		return nil, err
	}

	for _, in := range res.Intents {
		if !bytes.Equal(in.Key, key) {
			continue
		}
		if opts.Txn != nil && opts.Txn.Meta.ID == in.Meta.ID {
			return &KeyValue{Key: key, Value: in.Value}, nil
		}
		return nil, &WriteIntentError{Key: key, TxnID: in.Meta.ID}
	}

	if len(res.Results) == 0 {
		return nil, nil
	}
	kv := res.Results[0]
	return &kv, nil
}

// Put writes value to key. With a transaction it writes an uncommitted value
// into the key's intent slot; without one it writes a committed version at
// the write timestamp. The caller must hold the key's latch across the call:
// the check-intent / consult-status / write sequence below is not atomic.
func Put(eng engine.Engine, key []byte, ts hlc.Timestamp, tx *txn.Txn, value []byte, src txn.StatusSource) (MVCCKey, error) {
	// 1. Point-lookup the intent slot.
	it := NewIter(eng)
	intentKey := IntentKey(key)
	ok := it.SeekGE(intentKey)
	hasIntent := ok && bytes.Equal(it.Key().Key, key) && it.Key().IsIntent()
	var existing UncommittedValue
	if hasIntent {
		var err error
		existing, err = DecodeUncommitted(it.Value())
		if err != nil {
			it.Release()
			return MVCCKey{}, err
		}
	}
	it.Release()

	// 2. Somebody else's intent: pending blocks the write, a finalized owner
	// left a stale intent that is cleared inline.
	if hasIntent && (tx == nil || existing.Meta.ID != tx.Meta.ID) {
		status, err := src.Status(existing.Meta.ID)
		if err != nil {
			return MVCCKey{}, err
		}
		if status == txn.Pending {
			return MVCCKey{}, &WriteIntentError{Key: key, TxnID: existing.Meta.ID}
		}
		eng.Delete(EncodeKey(intentKey))
	}

	// 3. Explicit timestamp wins, else the transaction's write timestamp.
	writeTs := ts
	if writeTs.IsEmpty() {
		if tx == nil {
			return MVCCKey{}, ErrNoTimestamp
		}
		writeTs = tx.Meta.WriteTimestamp
	}

	// 4. Transactional writes land in the intent slot, direct writes become
	// a committed version immediately.
	if tx != nil {
		buf, err := EncodeUncommitted(UncommittedValue{
			Value: value,
			Meta:  txn.Meta{ID: tx.Meta.ID, WriteTimestamp: writeTs},
		})
		if err != nil {
			return MVCCKey{}, err
		}
		eng.Set(EncodeKey(intentKey), buf)
		return intentKey, nil
	}

	versionKey := NewKey(key, writeTs)
	eng.Set(EncodeKey(versionKey), value)
	return versionKey, nil
}
