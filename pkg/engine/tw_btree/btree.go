package tw_btree

import (
	engine "github.com/arjunsk/halleykv/pkg/engine"
	"github.com/tidwall/btree"
)

// Engine stores records in a tidwall generic BTree ordered by the injected
// compare func. Iterators read from a copy-on-write snapshot, so an open
// cursor never observes writes that happen after NewIter.
type Engine struct {
	tree *btree.BTreeG[engine.Item]
}

var _ engine.Engine = new(Engine)

func New(cmp engine.Compare) *Engine {
	return &Engine{
		tree: btree.NewBTreeG(func(a, b engine.Item) bool {
			return cmp(a.Key, b.Key) < 0
		}),
	}
}

func (e *Engine) Get(key []byte) ([]byte, bool) {
	item, ok := e.tree.Get(engine.Item{Key: key})
	if !ok {
		return nil, false
	}
	return item.Val, true
}

func (e *Engine) Set(key, val []byte) {
	e.tree.Set(engine.Item{Key: key, Val: val})
}

func (e *Engine) Delete(key []byte) {
	e.tree.Delete(engine.Item{Key: key})
}

func (e *Engine) NewIter() engine.Iterator {
	it := e.tree.Copy().Iter()
	return &iter{it: it}
}

func (e *Engine) Len() int {
	return e.tree.Len()
}

func (e *Engine) Close() {
	e.tree.Clear()
}

type iter struct {
	it    btree.IterG[engine.Item]
	valid bool
}

func (i *iter) Seek(key []byte) bool {
	i.valid = i.it.Seek(engine.Item{Key: key})
	return i.valid
}

func (i *iter) Next() bool {
	i.valid = i.it.Next()
	return i.valid
}

func (i *iter) Key() []byte {
	return i.it.Item().Key
}

func (i *iter) Value() []byte {
	return i.it.Item().Val
}

func (i *iter) Release() {
	i.it.Release()
}
