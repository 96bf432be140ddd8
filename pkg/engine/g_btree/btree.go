package g_btree

import (
	"sync"

	engine "github.com/arjunsk/halleykv/pkg/engine"
	"github.com/google/btree"
)

// Engine stores records in a google/btree generic BTree. Writes are not
// concurrency-safe there, so they run under a mutex; iterators step over a
// Clone taken at NewIter time (clones share nodes copy-on-write).
type Engine struct {
	mu   sync.RWMutex
	cmp  engine.Compare
	tree *btree.BTreeG[engine.Item]
}

var _ engine.Engine = new(Engine)

const degree = 32

func New(cmp engine.Compare) *Engine {
	return &Engine{
		cmp: cmp,
		tree: btree.NewG(degree, func(a, b engine.Item) bool {
			return cmp(a.Key, b.Key) < 0
		}),
	}
}

func (e *Engine) Get(key []byte) ([]byte, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	item, ok := e.tree.Get(engine.Item{Key: key})
	if !ok {
		return nil, false
	}
	return item.Val, true
}

func (e *Engine) Set(key, val []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tree.ReplaceOrInsert(engine.Item{Key: key, Val: val})
}

func (e *Engine) Delete(key []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tree.Delete(engine.Item{Key: key})
}

func (e *Engine) NewIter() engine.Iterator {
	e.mu.Lock()
	snap := e.tree.Clone()
	e.mu.Unlock()
	return &iter{cmp: e.cmp, tree: snap}
}

func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.Len()
}

func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tree.Clear(false)
}

type iter struct {
	cmp   engine.Compare
	tree  *btree.BTreeG[engine.Item]
	cur   engine.Item
	valid bool
}

func (i *iter) Seek(key []byte) bool {
	i.valid = false
	i.tree.AscendGreaterOrEqual(engine.Item{Key: key}, func(item engine.Item) bool {
		i.cur = item
		i.valid = true
		return false
	})
	return i.valid
}

func (i *iter) Next() bool {
	if !i.valid {
		return false
	}
	prev := i.cur
	i.valid = false
	i.tree.AscendGreaterOrEqual(prev, func(item engine.Item) bool {
		if i.cmp(item.Key, prev.Key) == 0 {
			return true // skip the record we are standing on
		}
		i.cur = item
		i.valid = true
		return false
	})
	return i.valid
}

func (i *iter) Key() []byte {
	return i.cur.Key
}

func (i *iter) Value() []byte {
	return i.cur.Val
}

func (i *iter) Release() {
	i.tree = nil
	i.valid = false
}
