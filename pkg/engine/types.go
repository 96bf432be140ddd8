package engine

// Compare orders the encoded keys an Engine stores. The engine itself never
// inspects key bytes; ordering semantics are injected by the layer above.
type Compare func(a, b []byte) int

// Item is one physical record: encoded key -> raw value bytes.
type Item struct {
	Key []byte
	Val []byte
}

// Engine is an ordered key-value store with point writes and forward range
// iteration. Point writes are atomic per the backing store's own contract.
type Engine interface {
	Get(key []byte) ([]byte, bool)
	Set(key, val []byte)
	Delete(key []byte)

	// NewIter returns a cursor over a stable snapshot of the store taken at
	// call time. The caller must Release it.
	NewIter() Iterator

	Len() int
	Close()
}

// Iterator is a forward-only cursor. Seek positions at the first record with
// key >= the given key under the engine's Compare and reports whether such a
// record exists; Next advances one record.
type Iterator interface {
	Seek(key []byte) bool
	Next() bool
	Key() []byte
	Value() []byte
	Release()
}

type Typ int

const (
	TWBTree Typ = iota
	GBTree
)
